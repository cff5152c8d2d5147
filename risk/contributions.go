package risk

import (
	"github.com/shopspring/decimal"
)

// ComputeContributionsAllocation splits deposit across sleeves without
// selling anything. Shortfalls against target × (total + deposit) are
// funded first; any remainder goes pro-rata by target weight. When the
// shortfalls exceed the deposit they are scaled down to fit. Amounts are
// rounded to cents and the result always sums to deposit.
func ComputeContributionsAllocation(targets SleeveWeights, eq SleeveEquities, deposit decimal.Decimal) SleeveEquities {
	var out SleeveEquities
	if !deposit.IsPositive() {
		return out
	}

	after := eq.Total.Add(deposit)
	short := make([]decimal.Decimal, numSleeves)
	sum := decimal.Zero
	for _, s := range Sleeves() {
		want := decimal.NewFromFloat(targets.Of(s)).Mul(after)
		short[s] = decimal.Max(want.Sub(eq.Of(s)), decimal.Zero)
		sum = sum.Add(short[s])
	}

	raw := make([]decimal.Decimal, numSleeves)
	if sum.LessThanOrEqual(deposit) {
		rest := deposit.Sub(sum)
		tw := decimal.NewFromFloat(targets.Sum())
		for _, s := range Sleeves() {
			raw[s] = short[s]
			if tw.IsPositive() {
				raw[s] = raw[s].Add(rest.Mul(decimal.NewFromFloat(targets.Of(s))).Div(tw))
			}
		}
		if !tw.IsPositive() {
			raw[Collar] = raw[Collar].Add(rest)
		}
	} else {
		scale := deposit.Div(sum)
		for _, s := range Sleeves() {
			raw[s] = short[s].Mul(scale)
		}
	}

	// Round to cents and push the residual onto the largest allocation.
	largest := Collar
	allocated := decimal.Zero
	for _, s := range Sleeves() {
		v := raw[s].Round(2)
		out = out.With(s, v)
		allocated = allocated.Add(v)
		if v.GreaterThan(out.Of(largest)) {
			largest = s
		}
	}
	if residual := deposit.Sub(allocated); !residual.IsZero() {
		out = out.Add(largest, residual)
	}
	return out
}
