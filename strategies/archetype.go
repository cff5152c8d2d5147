// Package strategies selects concrete option contracts for each strategy
// archetype. Builders are pure: the same surface and params always give the
// same legs, and an empty result means "skip this period".
package strategies

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/rustyeddy/cppi/market"
)

type Archetype int

const (
	DebitVertical Archetype = iota
	CreditPutVertical
	Straddle
	CashSecuredPut
	HedgePut
	Collar

	numArchetypes
)

var archetypeNames = [numArchetypes]string{
	DebitVertical:     "debit_vertical",
	CreditPutVertical: "credit_put_vertical",
	Straddle:          "straddle",
	CashSecuredPut:    "cash_secured_put",
	HedgePut:          "hedge_put",
	Collar:            "collar",
}

func (a Archetype) String() string {
	if a < 0 || a >= numArchetypes {
		return fmt.Sprintf("archetype(%d)", int(a))
	}
	return archetypeNames[a]
}

func (a Archetype) MarshalText() ([]byte, error) {
	if a < 0 || a >= numArchetypes {
		return nil, fmt.Errorf("unknown archetype %d", int(a))
	}
	return []byte(a.String()), nil
}

func (a *Archetype) UnmarshalText(b []byte) error {
	v, err := ParseArchetype(string(b))
	if err != nil {
		return err
	}
	*a = v
	return nil
}

// Archetypes lists every archetype in declaration order.
func Archetypes() []Archetype {
	out := make([]Archetype, 0, numArchetypes)
	for a := Archetype(0); a < numArchetypes; a++ {
		out = append(out, a)
	}
	return out
}

func ParseArchetype(name string) (Archetype, error) {
	n := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), "-", "_")
	for a, s := range archetypeNames {
		if s == n {
			return Archetype(a), nil
		}
	}
	return 0, fmt.Errorf("unknown strategy archetype %q (supported: %s)", name, strings.Join(archetypeNames[:], ", "))
}

// Surface is one underlying's option chain on one day.
type Surface struct {
	Underlying string
	Date       time.Time
	Spot       float64
	Quotes     []market.OptionQuote
}

// Params are the selection targets. Deltas are matched on absolute value,
// so put targets may be given as 0.25 or -0.25.
type Params struct {
	Contracts int `json:"contracts" yaml:"contracts"`

	DTEMin    int `json:"dte_min" yaml:"dte_min"`
	DTEMax    int `json:"dte_max" yaml:"dte_max"`
	DTETarget int `json:"dte_target" yaml:"dte_target"`

	// TargetDelta: long call of a debit vertical, short put of a
	// cash-secured put, long put of a hedge.
	TargetDelta float64 `json:"target_delta" yaml:"target_delta"`

	// ShortDelta / LongDelta: the two legs of a credit put vertical, or
	// the short call and long put of a collar.
	ShortDelta float64 `json:"short_delta" yaml:"short_delta"`
	LongDelta  float64 `json:"long_delta" yaml:"long_delta"`

	// Width is the strike distance of the second vertical leg. For a
	// credit put vertical a zero width selects the long leg by LongDelta.
	Width float64 `json:"width" yaml:"width"`
}

var (
	ErrInvalidDTEWindow = errors.New("invalid DTE window")
	ErrInvalidParams    = errors.New("invalid strategy params")
)

// Validate checks the DTE window and the delta targets.
func (p Params) Validate() error {
	if p.DTEMin < 0 || p.DTEMin >= p.DTEMax {
		return fmt.Errorf("%w: dte_min %d must be below dte_max %d", ErrInvalidDTEWindow, p.DTEMin, p.DTEMax)
	}
	if p.DTETarget != 0 && (p.DTETarget < p.DTEMin || p.DTETarget > p.DTEMax) {
		return fmt.Errorf("%w: dte_target %d outside [%d,%d]", ErrInvalidDTEWindow, p.DTETarget, p.DTEMin, p.DTEMax)
	}
	if p.Contracts < 0 {
		return fmt.Errorf("%w: contracts must not be negative", ErrInvalidParams)
	}
	for _, d := range []float64{p.TargetDelta, p.ShortDelta, p.LongDelta} {
		if math.Abs(d) > 1 {
			return fmt.Errorf("%w: delta %.2f outside [-1,1]", ErrInvalidParams, d)
		}
	}
	if p.Width < 0 {
		return fmt.Errorf("%w: width must not be negative", ErrInvalidParams)
	}
	return nil
}

// DefaultParams returns workable targets for each archetype.
func DefaultParams(a Archetype) Params {
	p := Params{Contracts: 1, DTEMin: 7, DTEMax: 45, DTETarget: 30}
	switch a {
	case DebitVertical:
		p.TargetDelta, p.Width = 0.50, 10
	case CreditPutVertical:
		p.ShortDelta, p.Width = 0.30, 10
	case Straddle:
		p.DTEMin, p.DTEMax, p.DTETarget = 7, 21, 14
	case CashSecuredPut:
		p.TargetDelta = 0.25
	case HedgePut:
		p.TargetDelta, p.DTETarget = 0.10, 45
	case Collar:
		p.ShortDelta, p.LongDelta = 0.30, 0.20
	}
	return p
}

type Builder func(s Surface, p Params) []Leg

var builders = [numArchetypes]Builder{
	DebitVertical:     BuildDebitVertical,
	CreditPutVertical: BuildCreditPutVertical,
	Straddle:          BuildStraddle,
	CashSecuredPut:    BuildCashSecuredPut,
	HedgePut:          BuildHedgePut,
	Collar:            BuildCollar,
}

// Build dispatches to the builder for a.
func Build(a Archetype, s Surface, p Params) ([]Leg, error) {
	if a < 0 || a >= numArchetypes {
		return nil, fmt.Errorf("build: unknown archetype %d", int(a))
	}
	return builders[a](s, p), nil
}
