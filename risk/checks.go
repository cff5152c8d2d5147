package risk

import (
	"fmt"
	"time"
)

type Violation struct {
	Code string
	Msg  string
}

// Decision is the outcome of checking one sleeve ticket before it is sent.
type Decision struct {
	Allowed    bool
	Violations []Violation

	Contracts      int
	PlannedRiskUSD float64
	BudgetUSD      float64
}

func (d *Decision) add(code, msg string) {
	d.Violations = append(d.Violations, Violation{Code: code, Msg: msg})
	d.Allowed = false
}

// TicketIntent is a sized strategy entry for one sleeve.
type TicketIntent struct {
	Now         time.Time
	Sleeve      Sleeve
	Legs        int
	RiskPerUnit float64
	Contracts   int
}

// Evaluate checks a ticket against the sleeve budget, the sleeve cadence,
// and the current CPPI state.
func (p *Policy) Evaluate(intent TicketIntent, budget float64, m CPPIMetrics) Decision {
	d := Decision{
		Allowed:        true,
		Contracts:      intent.Contracts,
		PlannedRiskUSD: float64(intent.Contracts) * intent.RiskPerUnit,
		BudgetUSD:      budget,
	}

	if intent.Legs == 0 {
		d.add("NO_LEGS", "no contracts matched the strategy parameters")
		return d
	}
	if intent.Contracts <= 0 {
		d.add("NO_CONTRACTS", "contracts must be positive")
		return d
	}
	if !p.Eligible(intent.Sleeve, intent.Now) {
		d.add("CADENCE_GATED",
			fmt.Sprintf("%s sleeve is monthly and week %d is not a deployment week",
				intent.Sleeve, p.WeeksSinceStart(intent.Now)))
	}
	if intent.Sleeve.Risky() && m.RiskyWeight == 0 {
		d.add("NO_CUSHION", "equity is at or below the floor")
	}
	if budget <= 0 {
		d.add("NO_BUDGET", fmt.Sprintf("%s sleeve has no risk budget", intent.Sleeve))
	} else if d.PlannedRiskUSD > budget {
		d.add("RISK_OVER_BUDGET",
			fmt.Sprintf("planned risk %.2f exceeds %s budget %.2f",
				d.PlannedRiskUSD, intent.Sleeve, budget))
	}
	return d
}
