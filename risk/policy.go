package risk

import (
	"math"
	"time"

	"github.com/shopspring/decimal"
)

const daysPerWeek = 7

// RebalanceState carries the rebalance cadence between policy calls.
// LastWeek is the week index of the last executed rebalance.
type RebalanceState struct {
	LastWeek int `json:"last_week" yaml:"last_week"`
}

// CPPIMetrics is derived from equities, a date, and the policy config.
type CPPIMetrics struct {
	Date            time.Time       `json:"date"`
	InvestedToDate  decimal.Decimal `json:"invested_to_date"`
	Floor           decimal.Decimal `json:"floor"`
	Cushion         decimal.Decimal `json:"cushion"`
	RiskyWeight     float64         `json:"risky_weight"`
	TargetWeights   SleeveWeights   `json:"target_weights"`
	CurrentWeights  SleeveWeights   `json:"current_weights"`
	NeedsRebalance  bool            `json:"needs_rebalance"`
	WeeksSinceStart int             `json:"weeks_since_start"`
}

// Policy computes CPPI targets, contributions, and risk budgets. It holds
// only its configuration; cadence state is passed in and out explicitly.
type Policy struct {
	cfg Config
}

func NewPolicy(cfg Config) (*Policy, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Policy{cfg: cfg}, nil
}

func (p *Policy) Config() Config { return p.cfg }

// WeeksSinceStart is the number of whole weeks from the start date,
// never negative.
func (p *Policy) WeeksSinceStart(date time.Time) int {
	d := date.Sub(p.cfg.StartDate).Hours() / 24
	if d <= 0 {
		return 0
	}
	return int(math.Floor(d / daysPerWeek))
}

// InvestedToDate is initial capital plus one deposit per elapsed week.
func (p *Policy) InvestedToDate(date time.Time) decimal.Decimal {
	weeks := decimal.NewFromInt(int64(p.WeeksSinceStart(date)))
	return decimal.NewFromFloat(p.cfg.InitialCapital).
		Add(decimal.NewFromFloat(p.cfg.WeeklyDeposit).Mul(weeks))
}

// RiskyWeight is min(M × cushion / total, 1), zero when total <= 0.
func (p *Policy) RiskyWeight(cushion, total decimal.Decimal) float64 {
	if !total.IsPositive() {
		return 0
	}
	w, _ := cushion.Div(total).Float64()
	return math.Min(p.cfg.Multiplier*w, 1)
}

// TargetWeights splits riskyWeight over the risky sleeves, gives the
// hedge its fixed weight, and leaves the residual to the collar. The risky
// share is capped at 1 - hedge weight so the collar never goes negative.
func (p *Policy) TargetWeights(riskyWeight float64) SleeveWeights {
	risky := math.Min(math.Max(riskyWeight, 0), 1-p.cfg.HedgeWeight)
	w := SleeveWeights{
		Debit:    risky * p.cfg.Split.Debit,
		Credit:   risky * p.cfg.Split.Credit,
		Straddle: risky * p.cfg.Split.Straddle,
		Hedge:    p.cfg.HedgeWeight,
	}
	w.Collar = math.Max(0, 1-(w.Debit+w.Credit+w.Straddle+w.Hedge))
	return w
}

// Metrics computes the CPPI snapshot for eq on date.
func (p *Policy) Metrics(eq SleeveEquities, date time.Time, st RebalanceState) CPPIMetrics {
	invested := p.InvestedToDate(date)
	floor := decimal.NewFromFloat(p.cfg.FloorPct).Mul(invested)
	cushion := decimal.Max(eq.Total.Sub(floor), decimal.Zero)
	rw := p.RiskyWeight(cushion, eq.Total)
	weeks := p.WeeksSinceStart(date)

	m := CPPIMetrics{
		Date:            date,
		InvestedToDate:  invested,
		Floor:           floor,
		Cushion:         cushion,
		RiskyWeight:     rw,
		TargetWeights:   p.TargetWeights(rw),
		CurrentWeights:  CurrentWeights(eq),
		WeeksSinceStart: weeks,
	}
	m.NeedsRebalance = p.needsRebalance(m, st)
	return m
}

func (p *Policy) needsRebalance(m CPPIMetrics, st RebalanceState) bool {
	if m.WeeksSinceStart-st.LastWeek < p.cfg.RebalanceEveryWeeks {
		return false
	}
	for _, s := range Sleeves() {
		if math.Abs(m.CurrentWeights.Of(s)-m.TargetWeights.Of(s)) > p.cfg.DriftBandAbs {
			return true
		}
	}
	return false
}

// MarkRebalanced returns the state after a rebalance executed on date.
func (p *Policy) MarkRebalanced(date time.Time) RebalanceState {
	return RebalanceState{LastWeek: p.WeeksSinceStart(date)}
}

// RiskBudget is equity × base risk × scale, ×4 for monthly cadence,
// floored at the sleeve's minimum ticket. The collar is never scaled and
// has no minimum.
func (p *Policy) RiskBudget(s Sleeve, equity decimal.Decimal, cadence Cadence) decimal.Decimal {
	sc := p.cfg.Sleeves.Of(s)
	scale := p.cfg.RiskScale
	minTicket := decimal.NewFromFloat(sc.MinTicket)
	if s == Collar {
		scale = 1
		minTicket = decimal.Zero
	}

	b := equity.Mul(decimal.NewFromFloat(sc.BaseRiskPct)).Mul(decimal.NewFromFloat(scale))
	if cadence == Monthly {
		b = b.Mul(decimal.NewFromInt(4))
	}
	return decimal.Max(b, minTicket).Round(2)
}

// SleeveBudget uses the sleeve's configured cadence.
func (p *Policy) SleeveBudget(s Sleeve, equity decimal.Decimal) decimal.Decimal {
	return p.RiskBudget(s, equity, p.cfg.Sleeves.Of(s).Cadence)
}

// MonthlyGate is open on every fourth week since start.
func (p *Policy) MonthlyGate(date time.Time) bool {
	return p.WeeksSinceStart(date)%4 == 0
}

// Eligible reports whether sleeve s may deploy on date given its cadence.
func (p *Policy) Eligible(s Sleeve, date time.Time) bool {
	if p.cfg.Sleeves.Of(s).Cadence == Monthly {
		return p.MonthlyGate(date)
	}
	return true
}
