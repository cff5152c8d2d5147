package sim

import (
	"math/rand"
	"sync"
	"time"

	"github.com/rustyeddy/cppi/internal/id"
	"github.com/rustyeddy/cppi/market"
	"go.uber.org/zap"
)

// Default execution costs.
const (
	DefaultCommission  = 0.65
	DefaultSlippageMin = 0.005
	DefaultSlippageMax = 0.02
)

// ExecConfig sets the cost model of an Executor.
type ExecConfig struct {
	CommissionPerContract float64 `json:"commission_per_contract" yaml:"commission_per_contract"`
	SlippageMin           float64 `json:"slippage_min" yaml:"slippage_min"`
	SlippageMax           float64 `json:"slippage_max" yaml:"slippage_max"`
	Seed                  int64   `json:"seed" yaml:"seed"`
}

func DefaultExecConfig() ExecConfig {
	return ExecConfig{
		CommissionPerContract: DefaultCommission,
		SlippageMin:           DefaultSlippageMin,
		SlippageMax:           DefaultSlippageMax,
		Seed:                  1,
	}
}

// Order is a request to trade one contract symbol at a quoted price.
type Order struct {
	Date     time.Time
	Symbol   string
	Side     market.Side
	Quantity int
	Price    float64
	Strategy string
}

// Executor fills orders against a Ledger with slippage and commission.
type Executor struct {
	mu      sync.Mutex
	cfg     ExecConfig
	ledger  *Ledger
	rng     *rand.Rand
	ids     *id.Generator
	trades  []Trade
	metrics *Metrics
	logger  *zap.Logger
}

type ExecutorOption func(*Executor)

func WithMetrics(m *Metrics) ExecutorOption {
	return func(e *Executor) { e.metrics = m }
}

func WithExecutorLogger(logger *zap.Logger) ExecutorOption {
	return func(e *Executor) {
		if logger != nil {
			e.logger = logger
		}
	}
}

func NewExecutor(ledger *Ledger, cfg ExecConfig, opts ...ExecutorOption) *Executor {
	e := &Executor{
		cfg:    cfg,
		ledger: ledger,
		rng:    rand.New(rand.NewSource(cfg.Seed)),
		ids:    id.NewGenerator(cfg.Seed),
		logger: zap.NewNop(),
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

func (e *Executor) Ledger() *Ledger { return e.ledger }

// Trades returns a copy of the trade log.
func (e *Executor) Trades() []Trade {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]Trade(nil), e.trades...)
}

// Execute fills o and books it. A buy the ledger cannot afford is skipped
// and reported as ok=false. Orders with a non-positive quantity or price
// are skipped the same way.
func (e *Executor) Execute(o Order) (Trade, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if o.Quantity <= 0 || o.Price <= 0 {
		e.skip(o, "invalid order")
		return Trade{}, false
	}

	slip := e.cfg.SlippageMin + e.rng.Float64()*(e.cfg.SlippageMax-e.cfg.SlippageMin)
	px := o.Price * (1 + slip)
	if o.Side == market.Sell {
		px = o.Price * (1 - slip)
	}

	t := Trade{
		Date:       o.Date,
		Symbol:     o.Symbol,
		Side:       o.Side,
		Quantity:   o.Quantity,
		Price:      px,
		Commission: e.cfg.CommissionPerContract * float64(o.Quantity),
		Strategy:   o.Strategy,
	}

	if o.Side == market.Buy && t.Gross()+t.Commission > e.ledger.Cash() {
		e.skip(o, "insufficient cash")
		return Trade{}, false
	}

	t.ID = e.ids.At(o.Date)
	e.ledger.Apply(t)
	e.trades = append(e.trades, t)

	if e.metrics != nil {
		e.metrics.observe(t)
	}
	return t, true
}

func (e *Executor) skip(o Order, reason string) {
	e.logger.Debug("trade skipped",
		zap.String("symbol", o.Symbol),
		zap.String("side", string(o.Side)),
		zap.Int("quantity", o.Quantity),
		zap.String("strategy", o.Strategy),
		zap.String("reason", reason),
		zap.Time("date", o.Date))
	if e.metrics != nil {
		e.metrics.TradesSkipped.WithLabelValues(o.Strategy, reason).Inc()
	}
}
