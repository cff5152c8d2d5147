package risk

import "math"

// SizeInputs describes one ticket to size against a sleeve budget.
type SizeInputs struct {
	Budget       float64 // dollars the sleeve may risk
	RiskPerUnit  float64 // dollars at risk per strategy unit
	MaxContracts int     // 0 means no cap
}

type SizeResult struct {
	Contracts   int
	RiskAmount  float64
	AboveBudget bool // one unit risks more than the budget
}

// Size returns floor(budget / risk per unit) units, at least one.
func Size(in SizeInputs) SizeResult {
	if in.RiskPerUnit <= 0 {
		return SizeResult{}
	}

	units := int(math.Floor(in.Budget / in.RiskPerUnit))
	r := SizeResult{Contracts: units}
	if units < 1 {
		r.Contracts = 1
		r.AboveBudget = true
	}
	if in.MaxContracts > 0 && r.Contracts > in.MaxContracts {
		r.Contracts = in.MaxContracts
	}
	r.RiskAmount = float64(r.Contracts) * in.RiskPerUnit
	return r
}
