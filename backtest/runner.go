// Package backtest replays strategies over a synthetic market and
// evaluates the resulting ledger.
package backtest

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rustyeddy/cppi/internal/id"
	"github.com/rustyeddy/cppi/journal"
	"github.com/rustyeddy/cppi/market"
	"github.com/rustyeddy/cppi/market/synthetic"
	"github.com/rustyeddy/cppi/risk"
	"github.com/rustyeddy/cppi/sim"
	"github.com/rustyeddy/cppi/strategies"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// DailyPnL is the end-of-day mark. PnL excludes the day's deposit and
// Return is PnL over the previous day's equity.
type DailyPnL struct {
	Date      time.Time            `json:"date"`
	Cash      float64              `json:"cash"`
	Equity    float64              `json:"equity"`
	Deposit   float64              `json:"deposit,omitempty"`
	PnL       float64              `json:"pnl"`
	Return    float64              `json:"return"`
	Positions int                  `json:"positions"`
	Sleeves   *risk.SleeveEquities `json:"sleeves,omitempty"`
}

// RebalanceEvent records an executed CPPI rebalance. Sleeve capital is
// reassigned to target weights; no positions are sold.
type RebalanceEvent struct {
	Date    time.Time          `json:"date"`
	Week    int                `json:"week"`
	Current risk.SleeveWeights `json:"current"`
	Target  risk.SleeveWeights `json:"target"`
}

// Runner drives one backtest. Journal, Metrics and Logger are optional.
type Runner struct {
	Config  Config
	Journal journal.Journal
	Metrics *sim.Metrics
	Logger  *zap.Logger
	RunID   string
}

type run struct {
	cfg     Config
	logger  *zap.Logger
	ds      *market.Dataset
	ledger  *sim.Ledger
	exec    *sim.Executor
	overlay *overlay
	journal journal.Journal
	tradeID *id.Generator
	runID   string

	fillsSeen  int
	closedSeen int
}

// Run generates the market once, then for each date in order enters the
// scheduled strategies, marks the ledger, and records the day.
func (r *Runner) Run(ctx context.Context) (*Result, error) {
	cfg := r.Config
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger := r.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	runID := r.RunID
	if runID == "" {
		runID = uuid.NewString()
	}
	logger = logger.With(zap.String("run_id", runID))

	st, err := newRun(cfg, logger, r.Journal, r.Metrics, runID)
	if err != nil {
		return nil, err
	}
	ds, ledger, exec := st.ds, st.ledger, st.exec

	logger.Info("backtest started",
		zap.Time("start", cfg.StartDate),
		zap.Time("end", cfg.EndDate),
		zap.Strings("universe", cfg.Universe),
		zap.Int("strategies", len(cfg.Strategies)),
		zap.Bool("cppi", st.overlay != nil))

	res := &Result{
		RunID:   runID,
		Created: time.Now().UTC(),
		Config:  cfg,
	}

	start := market.Day(cfg.StartDate)
	prev := cfg.InitialCapital
	var last time.Time
	for _, d := range ds.Dates() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		day := market.DaysBetween(start, d)

		var deposit float64
		if st.overlay != nil && day%7 == 0 {
			deposit = st.overlay.weekly(d, day, ledger, res)
		}

		for _, sc := range cfg.Strategies {
			if day%sc.EveryDays != 0 {
				continue
			}
			for _, u := range cfg.Universe {
				if !sc.Trades(u) {
					continue
				}
				if err := st.enter(sc, u, d); err != nil {
					return nil, err
				}
			}
		}

		equity := ledger.MarkToMarket(d)
		pnl := equity - prev - deposit
		dp := DailyPnL{
			Date:      d,
			Cash:      ledger.Cash(),
			Equity:    equity,
			Deposit:   deposit,
			PnL:       pnl,
			Positions: len(ledger.Positions()),
		}
		if base := prev + deposit; base > 0 {
			dp.Return = pnl / base
		}
		if st.overlay != nil {
			eq := st.overlay.equities(ledger)
			dp.Sleeves = &eq
		}
		res.DailyPnL = append(res.DailyPnL, dp)
		prev = equity
		last = d

		if err := st.record(dp); err != nil {
			return nil, err
		}
	}

	res.Trades = exec.Trades()
	res.Closed = ledger.Closed()
	res.OpenAtEnd = ledger.OpenAtMark(last)
	for _, c := range res.OpenAtEnd {
		if err := st.recordClosed(c); err != nil {
			return nil, err
		}
	}

	all := append(append([]sim.ClosedPosition(nil), res.Closed...), res.OpenAtEnd...)
	res.Metrics = Evaluate(res.DailyPnL, all, res.Trades, cfg.RiskFreeRate)
	res.PerStrategy = StatsByStrategy(all, res.Trades)

	logger.Info("backtest finished",
		zap.Int("days", res.Metrics.TradingDays),
		zap.Int("fills", res.Metrics.Fills),
		zap.Int("trades", res.Metrics.Trades),
		zap.Float64("end_equity", res.Metrics.EndEquity),
		zap.Float64("total_return", res.Metrics.TotalReturn),
		zap.Float64("max_drawdown", res.Metrics.MaxDrawdown))
	return res, nil
}

// newRun generates the market and wires the ledger, executor and the
// optional CPPI overlay for one run.
func newRun(cfg Config, logger *zap.Logger, j journal.Journal, metrics *sim.Metrics, runID string) (*run, error) {
	ds, err := synthetic.NewGenerator(cfg.Seed, cfg.Market).Generate(cfg.Universe, cfg.StartDate, cfg.EndDate)
	if err != nil {
		return nil, fmt.Errorf("backtest: generate market: %w", err)
	}

	ledger := sim.NewLedger(cfg.InitialCapital, ds,
		sim.WithRiskFreeRate(cfg.RiskFreeRate),
		sim.WithLedgerLogger(logger))
	execOpts := []sim.ExecutorOption{sim.WithExecutorLogger(logger)}
	if metrics != nil {
		execOpts = append(execOpts, sim.WithMetrics(metrics))
	}
	exec := sim.NewExecutor(ledger, sim.ExecConfig{
		CommissionPerContract: cfg.CommissionPerContract,
		SlippageMin:           cfg.SlippageMin,
		SlippageMax:           cfg.SlippageMax,
		Seed:                  cfg.Seed + 1,
	}, execOpts...)

	st := &run{
		cfg:     cfg,
		logger:  logger,
		ds:      ds,
		ledger:  ledger,
		exec:    exec,
		journal: j,
		tradeID: id.NewGenerator(cfg.Seed + 2),
		runID:   runID,
	}
	if pc, ok := cfg.PolicyConfig(); ok {
		ov, err := newOverlay(pc, cfg.Strategies)
		if err != nil {
			return nil, err
		}
		st.overlay = ov
	}
	return st, nil
}

// enter builds and executes one strategy on one underlying.
func (r *run) enter(sc StrategyConfig, underlying string, d time.Time) error {
	skip := func(reason string) {
		r.logger.Debug("strategy skipped",
			zap.Time("date", d),
			zap.String("underlying", underlying),
			zap.String("strategy", sc.Name),
			zap.String("reason", reason))
	}

	pt, ok := r.ds.Price(underlying, d)
	chain := r.ds.Chain(underlying, d)
	if !ok || len(chain) == 0 {
		skip("no market data")
		return nil
	}

	legs, err := strategies.Build(sc.Archetype, strategies.Surface{
		Underlying: underlying,
		Date:       d,
		Spot:       pt.Price,
		Quotes:     chain,
	}, sc.Params)
	if err != nil {
		return fmt.Errorf("backtest: %s: %w", sc.Name, err)
	}
	if len(legs) == 0 {
		skip("no matching contracts")
		return nil
	}

	contracts := max(sc.Params.Contracts, 1)
	if r.overlay != nil {
		p := r.overlay.policy
		if !p.Eligible(sc.Sleeve, d) {
			skip("cadence gate closed")
			return nil
		}
		eq := r.overlay.equities(r.ledger)
		budget, _ := p.SleeveBudget(sc.Sleeve, eq.Of(sc.Sleeve)).Float64()
		used := r.overlay.used(sc.Sleeve, d)
		size := risk.Size(risk.SizeInputs{
			Budget:      budget - used.spent,
			RiskPerUnit: strategies.RiskPerUnit(sc.Archetype, legs),
		})
		if size.Contracts == 0 {
			skip("no risk per unit")
			return nil
		}
		// Only the first ticket of a period may exceed what is left.
		if size.AboveBudget && used.tickets > 0 {
			skip("sleeve budget spent")
			return nil
		}
		used.spent += size.RiskAmount
		used.tickets++
		contracts = size.Contracts
	}

	for _, l := range strategies.WithContracts(legs, contracts) {
		r.exec.Execute(sim.Order{
			Date:     d,
			Symbol:   l.Symbol,
			Side:     l.Side,
			Quantity: l.Quantity,
			Price:    l.Quote.Price,
			Strategy: sc.Name,
		})
	}
	return nil
}

// record writes the day's new fills, closed positions and mark.
func (r *run) record(dp DailyPnL) error {
	if r.journal == nil {
		return nil
	}

	fills := r.exec.Trades()
	for _, t := range fills[r.fillsSeen:] {
		if err := r.journal.RecordFill(journal.FillRecord{
			RunID:      r.runID,
			TradeID:    t.ID,
			Time:       t.Date,
			Symbol:     t.Symbol,
			Side:       string(t.Side),
			Quantity:   t.Quantity,
			Price:      t.Price,
			Commission: t.Commission,
			Strategy:   t.Strategy,
		}); err != nil {
			return fmt.Errorf("backtest: journal fill: %w", err)
		}
	}
	r.fillsSeen = len(fills)

	closed := r.ledger.Closed()
	for _, c := range closed[r.closedSeen:] {
		if err := r.recordClosed(c); err != nil {
			return err
		}
	}
	r.closedSeen = len(closed)

	if err := r.journal.RecordEquity(journal.EquitySnapshot{
		RunID:     r.runID,
		Time:      dp.Date,
		Cash:      dp.Cash,
		Equity:    dp.Equity,
		DailyPL:   dp.PnL,
		Positions: dp.Positions,
	}); err != nil {
		return fmt.Errorf("backtest: journal equity: %w", err)
	}
	return nil
}

func (r *run) recordClosed(c sim.ClosedPosition) error {
	if r.journal == nil {
		return nil
	}
	err := r.journal.RecordTrade(journal.TradeRecord{
		RunID:      r.runID,
		TradeID:    r.tradeID.At(c.Closed),
		Symbol:     c.Symbol,
		Strategy:   c.Strategy,
		Quantity:   c.Quantity,
		CostBasis:  c.CostBasis,
		Proceeds:   c.Proceeds,
		OpenTime:   c.Opened,
		CloseTime:  c.Closed,
		RealizedPL: c.RealizedPL,
		Reason:     c.Reason,
	})
	if err != nil {
		return fmt.Errorf("backtest: journal trade: %w", err)
	}
	return nil
}

// overlay tracks CPPI sleeve capital alongside the ledger.
type overlay struct {
	policy    *risk.Policy
	state     risk.RebalanceState
	allocated risk.SleeveEquities
	sleeves   map[string]risk.Sleeve
	spent     map[risk.Sleeve]*budgetUse
}

// budgetUse is the risk a sleeve has committed in its current budget
// period: one week, or four for monthly sleeves.
type budgetUse struct {
	period  int
	spent   float64
	tickets int
}

func newOverlay(pc risk.Config, scs []StrategyConfig) (*overlay, error) {
	p, err := risk.NewPolicy(pc)
	if err != nil {
		return nil, err
	}
	o := &overlay{
		policy:  p,
		sleeves: make(map[string]risk.Sleeve),
		spent:   make(map[risk.Sleeve]*budgetUse),
	}
	for _, sc := range scs {
		o.sleeves[sc.Name] = sc.Sleeve
	}

	// Seed sleeve capital at the opening target weights.
	capital := decimal.NewFromFloat(pc.InitialCapital)
	opening := risk.SleeveEquities{}.With(risk.Collar, capital)
	m := p.Metrics(opening, pc.StartDate, o.state)
	o.allocated = risk.ComputeContributionsAllocation(m.TargetWeights, risk.SleeveEquities{}, capital)
	return o, nil
}

func (o *overlay) sleeve(strategy string) risk.Sleeve {
	if s, ok := o.sleeves[strategy]; ok {
		return s
	}
	return risk.Collar
}

// used returns the sleeve's budget use for the period containing d,
// starting a fresh one when the period has rolled.
func (o *overlay) used(s risk.Sleeve, d time.Time) *budgetUse {
	period := o.policy.WeeksSinceStart(d)
	if o.policy.Config().Sleeves.Of(s).Cadence == risk.Monthly {
		period /= 4
	}
	u, ok := o.spent[s]
	if !ok || u.period != period {
		u = &budgetUse{period: period}
		o.spent[s] = u
	}
	return u
}

// equities is allocated capital plus realized and unrealized P&L per sleeve.
func (o *overlay) equities(l *sim.Ledger) risk.SleeveEquities {
	eq := o.allocated
	for _, c := range l.Closed() {
		eq = eq.Add(o.sleeve(c.Strategy), decimal.NewFromFloat(c.RealizedPL))
	}
	for _, p := range l.Positions() {
		eq = eq.Add(o.sleeve(p.Strategy), decimal.NewFromFloat(l.Value(p.Symbol)-p.CostBasis))
	}
	return eq
}

// weekly credits the deposit, splits it across sleeves, and rebalances
// sleeve capital when the policy asks for it. Returns the deposit.
func (o *overlay) weekly(d time.Time, day int, l *sim.Ledger, res *Result) float64 {
	cfg := o.policy.Config()

	var deposit float64
	if day > 0 && cfg.WeeklyDeposit > 0 {
		deposit = cfg.WeeklyDeposit
		eq := o.equities(l)
		m := o.policy.Metrics(eq, d, o.state)
		alloc := risk.ComputeContributionsAllocation(m.TargetWeights, eq, decimal.NewFromFloat(deposit))
		o.allocated = o.allocated.Plus(alloc)
		l.Deposit(deposit)
	}

	eq := o.equities(l)
	m := o.policy.Metrics(eq, d, o.state)
	res.CPPI = append(res.CPPI, m)
	if !m.NeedsRebalance {
		return deposit
	}

	for _, s := range risk.Sleeves() {
		want := decimal.NewFromFloat(m.TargetWeights.Of(s)).Mul(eq.Total)
		o.allocated = o.allocated.Add(s, want.Sub(eq.Of(s)))
	}
	o.state = o.policy.MarkRebalanced(d)
	res.Rebalances = append(res.Rebalances, RebalanceEvent{
		Date:    d,
		Week:    m.WeeksSinceStart,
		Current: m.CurrentWeights,
		Target:  m.TargetWeights,
	})
	return deposit
}
