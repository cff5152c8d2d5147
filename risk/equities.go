package risk

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Tolerance for sum checks on equities and weights.
const Tolerance = 1e-6

// SleeveEquities is the dollar value held by each sleeve. Total is kept
// equal to the sum of the five sleeves by every method that returns a new
// value.
type SleeveEquities struct {
	Debit    decimal.Decimal `json:"debit"`
	Credit   decimal.Decimal `json:"credit"`
	Straddle decimal.Decimal `json:"straddle"`
	Collar   decimal.Decimal `json:"collar"`
	Hedge    decimal.Decimal `json:"hedge"`
	Total    decimal.Decimal `json:"total"`
}

func NewSleeveEquities(debit, credit, straddle, collar, hedge decimal.Decimal) SleeveEquities {
	e := SleeveEquities{
		Debit:    debit,
		Credit:   credit,
		Straddle: straddle,
		Collar:   collar,
		Hedge:    hedge,
	}
	e.Total = e.Sum()
	return e
}

// EquitiesFromFloats is a convenience for callers holding float64 dollars.
func EquitiesFromFloats(debit, credit, straddle, collar, hedge float64) SleeveEquities {
	return NewSleeveEquities(
		decimal.NewFromFloat(debit),
		decimal.NewFromFloat(credit),
		decimal.NewFromFloat(straddle),
		decimal.NewFromFloat(collar),
		decimal.NewFromFloat(hedge),
	)
}

func (e SleeveEquities) Of(s Sleeve) decimal.Decimal {
	switch s {
	case Debit:
		return e.Debit
	case Credit:
		return e.Credit
	case Straddle:
		return e.Straddle
	case Collar:
		return e.Collar
	case Hedge:
		return e.Hedge
	}
	return decimal.Zero
}

// With returns a copy with sleeve s set to v and Total recomputed.
func (e SleeveEquities) With(s Sleeve, v decimal.Decimal) SleeveEquities {
	switch s {
	case Debit:
		e.Debit = v
	case Credit:
		e.Credit = v
	case Straddle:
		e.Straddle = v
	case Collar:
		e.Collar = v
	case Hedge:
		e.Hedge = v
	}
	e.Total = e.Sum()
	return e
}

// Add returns a copy with delta added to sleeve s.
func (e SleeveEquities) Add(s Sleeve, delta decimal.Decimal) SleeveEquities {
	return e.With(s, e.Of(s).Add(delta))
}

// Plus adds o sleeve by sleeve.
func (e SleeveEquities) Plus(o SleeveEquities) SleeveEquities {
	for _, s := range Sleeves() {
		e = e.Add(s, o.Of(s))
	}
	return e
}

func (e SleeveEquities) Sum() decimal.Decimal {
	return e.Debit.Add(e.Credit).Add(e.Straddle).Add(e.Collar).Add(e.Hedge)
}

// Validate checks Total against the sleeve sum.
func (e SleeveEquities) Validate() error {
	diff := e.Total.Sub(e.Sum()).Abs()
	if diff.GreaterThan(decimal.NewFromFloat(Tolerance)) {
		return fmt.Errorf("%w: total %s, sleeves sum to %s", ErrTotalMismatch, e.Total, e.Sum())
	}
	return nil
}

// SleeveWeights are fractions of total equity per sleeve.
type SleeveWeights struct {
	Debit    float64 `json:"debit"`
	Credit   float64 `json:"credit"`
	Straddle float64 `json:"straddle"`
	Collar   float64 `json:"collar"`
	Hedge    float64 `json:"hedge"`
}

func (w SleeveWeights) Of(s Sleeve) float64 {
	switch s {
	case Debit:
		return w.Debit
	case Credit:
		return w.Credit
	case Straddle:
		return w.Straddle
	case Collar:
		return w.Collar
	case Hedge:
		return w.Hedge
	}
	return 0
}

func (w SleeveWeights) Sum() float64 {
	return w.Debit + w.Credit + w.Straddle + w.Collar + w.Hedge
}

// CurrentWeights derives weights from equities. All zero if total <= 0.
func CurrentWeights(e SleeveEquities) SleeveWeights {
	if !e.Total.IsPositive() {
		return SleeveWeights{}
	}
	frac := func(v decimal.Decimal) float64 {
		f, _ := v.Div(e.Total).Float64()
		return f
	}
	return SleeveWeights{
		Debit:    frac(e.Debit),
		Credit:   frac(e.Credit),
		Straddle: frac(e.Straddle),
		Collar:   frac(e.Collar),
		Hedge:    frac(e.Hedge),
	}
}
