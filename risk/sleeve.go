package risk

import (
	"fmt"
	"strings"
)

// Sleeve is one independently tracked sub-portfolio.
type Sleeve int

const (
	Debit Sleeve = iota
	Credit
	Straddle
	Collar
	Hedge
	numSleeves
)

var sleeveNames = [numSleeves]string{"debit", "credit", "straddle", "collar", "hedge"}

// Sleeves lists every sleeve in canonical order.
func Sleeves() []Sleeve {
	out := make([]Sleeve, numSleeves)
	for i := range out {
		out[i] = Sleeve(i)
	}
	return out
}

func (s Sleeve) String() string {
	if s < 0 || s >= numSleeves {
		return fmt.Sprintf("Sleeve(%d)", int(s))
	}
	return sleeveNames[s]
}

// Risky reports whether the sleeve's weight scales with the CPPI risky weight.
func (s Sleeve) Risky() bool {
	return s == Debit || s == Credit || s == Straddle
}

func ParseSleeve(name string) (Sleeve, error) {
	n := strings.ToLower(strings.TrimSpace(name))
	for i, v := range sleeveNames {
		if v == n {
			return Sleeve(i), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownSleeve, name)
}

func (s Sleeve) MarshalText() ([]byte, error) {
	if s < 0 || s >= numSleeves {
		return nil, fmt.Errorf("%w: %d", ErrUnknownSleeve, int(s))
	}
	return []byte(s.String()), nil
}

func (s *Sleeve) UnmarshalText(b []byte) error {
	v, err := ParseSleeve(string(b))
	if err != nil {
		return err
	}
	*s = v
	return nil
}

// Cadence is how often a sleeve deploys its risk budget.
type Cadence string

const (
	Weekly  Cadence = "weekly"
	Monthly Cadence = "monthly"
)

func (c Cadence) Valid() bool {
	return c == Weekly || c == Monthly
}
