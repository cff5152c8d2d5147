package market

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"time"
)

var ErrBadSymbol = errors.New("market: malformed option symbol")

// Contract identifies an option independent of the day it is quoted.
type Contract struct {
	Underlying string
	Expiry     time.Time
	Strike     float64
	Type       OptionType
}

// EncodeSymbol renders an OCC style key: ROOT YYMMDD C|P strike*1000 (8 digits).
func EncodeSymbol(underlying string, expiry time.Time, strike float64, typ OptionType) string {
	cp := "C"
	if typ == Put {
		cp = "P"
	}
	return fmt.Sprintf("%s%s%s%08d", underlying, expiry.Format("060102"), cp, int64(math.Round(strike*1000)))
}

// Symbol returns the encoded key for c.
func (c Contract) Symbol() string {
	return EncodeSymbol(c.Underlying, c.Expiry, c.Strike, c.Type)
}

// DecodeSymbol is the inverse of EncodeSymbol.
func DecodeSymbol(sym string) (Contract, error) {
	// 6 date + 1 class + 8 strike
	const tail = 15
	if len(sym) <= tail {
		return Contract{}, fmt.Errorf("%w: %q", ErrBadSymbol, sym)
	}
	root := sym[:len(sym)-tail]
	rest := sym[len(sym)-tail:]

	expiry, err := time.Parse("060102", rest[:6])
	if err != nil {
		return Contract{}, fmt.Errorf("%w: %q: %v", ErrBadSymbol, sym, err)
	}

	var typ OptionType
	switch rest[6] {
	case 'C':
		typ = Call
	case 'P':
		typ = Put
	default:
		return Contract{}, fmt.Errorf("%w: %q: bad class %q", ErrBadSymbol, sym, rest[6])
	}

	milli, err := strconv.ParseInt(rest[7:], 10, 64)
	if err != nil {
		return Contract{}, fmt.Errorf("%w: %q: %v", ErrBadSymbol, sym, err)
	}

	return Contract{
		Underlying: root,
		Expiry:     expiry,
		Strike:     float64(milli) / 1000,
		Type:       typ,
	}, nil
}
