// Package live turns CPPI state and broker chains into sleeve orders.
package live

import (
	"context"
	"fmt"
	"time"

	"github.com/rustyeddy/cppi/broker"
	"github.com/rustyeddy/cppi/risk"
	"github.com/rustyeddy/cppi/strategies"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Entry is one strategy the planner may open this period.
type Entry struct {
	Name       string               `json:"name" yaml:"name"`
	Archetype  strategies.Archetype `json:"archetype" yaml:"archetype"`
	Sleeve     risk.Sleeve          `json:"sleeve" yaml:"sleeve"`
	Underlying string               `json:"underlying" yaml:"underlying"`
	Params     strategies.Params    `json:"params" yaml:"params"`
}

// Outcome is what happened to one entry.
type Outcome struct {
	Entry    string           `json:"entry"`
	Sleeve   risk.Sleeve      `json:"sleeve"`
	Budget   float64          `json:"budget"`
	Legs     []strategies.Leg `json:"legs,omitempty"`
	Decision risk.Decision    `json:"decision"`
	OrderIDs []string         `json:"order_ids,omitempty"`
	Skipped  string           `json:"skipped,omitempty"`
}

type Plan struct {
	Date          time.Time           `json:"date"`
	Account       broker.Account      `json:"account"`
	Metrics       risk.CPPIMetrics    `json:"metrics"`
	Contributions risk.SleeveEquities `json:"contributions"`
	Outcomes      []Outcome           `json:"outcomes"`
	State         risk.RebalanceState `json:"state"`
	Rebalanced    bool                `json:"rebalanced"`
	DryRun        bool                `json:"dry_run"`
}

// Planner runs one planning pass. Broker errors are returned unchanged
// and nothing is retried.
type Planner struct {
	Broker       broker.Broker
	Policy       *risk.Policy
	Entries      []Entry
	Deposit      decimal.Decimal
	MaxContracts int
	DryRun       bool
	Logger       *zap.Logger
}

func (p *Planner) Plan(ctx context.Context, date time.Time, eq risk.SleeveEquities, st risk.RebalanceState) (*Plan, error) {
	if p.Broker == nil || p.Policy == nil {
		return nil, fmt.Errorf("live: Broker and Policy are required")
	}
	if err := eq.Validate(); err != nil {
		return nil, err
	}
	logger := p.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	acct, err := p.Broker.ResolveAccount(ctx)
	if err != nil {
		return nil, err
	}

	m := p.Policy.Metrics(eq, date, st)
	plan := &Plan{
		Date:          date,
		Account:       acct,
		Metrics:       m,
		Contributions: risk.ComputeContributionsAllocation(m.TargetWeights, eq, p.Deposit),
		State:         st,
		DryRun:        p.DryRun,
	}
	logger.Info("cppi metrics",
		zap.Int64("account", acct.ID),
		zap.Bool("sandbox", acct.Sandbox),
		zap.String("floor", m.Floor.StringFixed(2)),
		zap.String("cushion", m.Cushion.StringFixed(2)),
		zap.Float64("risky_weight", m.RiskyWeight),
		zap.Bool("needs_rebalance", m.NeedsRebalance))

	// Entries sharing a sleeve draw down one budget.
	spent := make(map[risk.Sleeve]float64)
	submitted := false
	for _, e := range p.Entries {
		full, _ := p.Policy.SleeveBudget(e.Sleeve, eq.Of(e.Sleeve)).Float64()
		out, err := p.planEntry(ctx, logger, date, e, full-spent[e.Sleeve], m)
		if err != nil {
			return nil, err
		}
		if out.Decision.Allowed {
			spent[e.Sleeve] += out.Decision.PlannedRiskUSD
		}
		submitted = submitted || len(out.OrderIDs) > 0
		plan.Outcomes = append(plan.Outcomes, out)
	}

	// The rebalance only counts once orders actually went out.
	if m.NeedsRebalance && submitted {
		plan.State = p.Policy.MarkRebalanced(date)
		plan.Rebalanced = true
	}
	return plan, nil
}

// planEntry sizes e against what is left of its sleeve budget.
func (p *Planner) planEntry(ctx context.Context, logger *zap.Logger, date time.Time, e Entry, budget float64, m risk.CPPIMetrics) (Outcome, error) {
	out := Outcome{Entry: e.Name, Sleeve: e.Sleeve, Budget: budget}
	log := logger.With(
		zap.String("strategy", e.Name),
		zap.String("underlying", e.Underlying),
		zap.Time("date", date))

	quotes, err := p.Broker.OptionChain(ctx, e.Underlying, broker.ExpiryWindow{MinDTE: e.Params.DTEMin, MaxDTE: e.Params.DTEMax})
	if err != nil {
		return out, err
	}
	spot, err := p.Broker.UnderlyingPrice(ctx, e.Underlying)
	if err != nil {
		return out, err
	}

	legs, err := strategies.Build(e.Archetype, strategies.Surface{
		Underlying: e.Underlying,
		Date:       date,
		Spot:       spot,
		Quotes:     quotes,
	}, e.Params)
	if err != nil {
		return out, err
	}
	if len(legs) == 0 {
		out.Skipped = "no matching contracts"
		log.Debug("entry skipped", zap.String("reason", out.Skipped))
		return out, nil
	}

	rpu := strategies.RiskPerUnit(e.Archetype, legs)
	size := risk.Size(risk.SizeInputs{Budget: budget, RiskPerUnit: rpu, MaxContracts: p.MaxContracts})
	out.Legs = strategies.WithContracts(legs, size.Contracts)
	out.Decision = p.Policy.Evaluate(risk.TicketIntent{
		Now:         date,
		Sleeve:      e.Sleeve,
		Legs:        len(legs),
		RiskPerUnit: rpu,
		Contracts:   size.Contracts,
	}, budget, m)

	if !out.Decision.Allowed {
		out.Skipped = out.Decision.Violations[0].Code
		log.Debug("entry blocked", zap.Any("violations", out.Decision.Violations))
		return out, nil
	}
	if p.DryRun {
		out.Skipped = "dry run"
		return out, nil
	}

	for _, l := range out.Legs {
		ack, err := p.Broker.SubmitLeg(ctx, broker.LegOrder{
			Symbol:   l.Symbol,
			Side:     l.Side,
			Quantity: l.Quantity,
			Price:    l.Quote.Price,
			Tag:      e.Name,
		})
		if err != nil {
			return out, err
		}
		out.OrderIDs = append(out.OrderIDs, ack.OrderID)
	}
	log.Info("entry submitted", zap.Strings("orders", out.OrderIDs), zap.Int("contracts", size.Contracts))
	return out, nil
}
