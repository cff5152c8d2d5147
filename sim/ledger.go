package sim

import (
	"math"
	"sort"
	"sync"
	"time"

	"github.com/rustyeddy/cppi/market"
	"github.com/rustyeddy/cppi/pricing"
	"go.uber.org/zap"
)

// MarketData is the read side of a market.Dataset.
type MarketData interface {
	Quote(symbol string, date time.Time) (market.OptionQuote, bool)
	Price(symbol string, date time.Time) (market.PricePoint, bool)
}

// Close reasons recorded on ClosedPosition.
const (
	ReasonClosed  = "closed"
	ReasonExpired = "expired"
	ReasonMark    = "mark"
)

// Position is an open signed quantity in one contract. CostBasis is the
// net cash paid to reach the current quantity (negative for credits).
type Position struct {
	Symbol    string    `json:"symbol"`
	Quantity  int       `json:"quantity"`
	CostBasis float64   `json:"cost_basis"`
	Strategy  string    `json:"strategy"`
	Opened    time.Time `json:"opened"`
}

// ClosedPosition is a realized round trip. Quantity is the signed size
// that was closed.
type ClosedPosition struct {
	Symbol     string    `json:"symbol"`
	Strategy   string    `json:"strategy"`
	Opened     time.Time `json:"opened"`
	Closed     time.Time `json:"closed"`
	Quantity   int       `json:"quantity"`
	CostBasis  float64   `json:"cost_basis"`
	Proceeds   float64   `json:"proceeds"`
	RealizedPL float64   `json:"realized_pl"`
	Reason     string    `json:"reason"`
}

// Ledger owns simulated cash and open option positions.
type Ledger struct {
	mu        sync.Mutex
	cash      float64
	positions map[string]*Position
	closed    []ClosedPosition
	marks     map[string]float64
	data      MarketData
	rate      float64
	logger    *zap.Logger
}

type LedgerOption func(*Ledger)

func WithRiskFreeRate(r float64) LedgerOption {
	return func(l *Ledger) { l.rate = r }
}

func WithLedgerLogger(logger *zap.Logger) LedgerOption {
	return func(l *Ledger) {
		if logger != nil {
			l.logger = logger
		}
	}
}

func NewLedger(initialCash float64, data MarketData, opts ...LedgerOption) *Ledger {
	l := &Ledger{
		cash:      initialCash,
		positions: make(map[string]*Position),
		marks:     make(map[string]float64),
		data:      data,
		rate:      pricing.DefaultRiskFreeRate,
		logger:    zap.NewNop(),
	}
	for _, o := range opts {
		o(l)
	}
	return l
}

func (l *Ledger) Cash() float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.cash
}

// Deposit adds external cash, e.g. a scheduled contribution.
func (l *Ledger) Deposit(amount float64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.cash += amount
}

func (l *Ledger) Quantity(symbol string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	if p, ok := l.positions[symbol]; ok {
		return p.Quantity
	}
	return 0
}

// Positions returns a copy of the open positions ordered by symbol.
func (l *Ledger) Positions() []Position {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.positionsLocked()
}

func (l *Ledger) positionsLocked() []Position {
	out := make([]Position, 0, len(l.positions))
	for _, p := range l.positions {
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Symbol < out[j].Symbol })
	return out
}

// Closed returns the realized round trips in the order they happened.
func (l *Ledger) Closed() []ClosedPosition {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]ClosedPosition(nil), l.closed...)
}

// Mark returns the value each open position had at the last MarkToMarket.
func (l *Ledger) Mark(symbol string) (float64, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	v, ok := l.marks[symbol]
	return v, ok
}

// Apply books an executed trade: cash moves by the trade's cash flow and
// the position quantity changes by ±Quantity. Reducing a position
// realizes P&L against its cost basis.
func (l *Ledger) Apply(t Trade) {
	l.mu.Lock()
	defer l.mu.Unlock()

	cf := t.CashFlow()
	l.cash += cf

	delta := t.Side.Sign() * t.Quantity
	pos, ok := l.positions[t.Symbol]
	if !ok {
		l.positions[t.Symbol] = &Position{
			Symbol:    t.Symbol,
			Quantity:  delta,
			CostBasis: -cf,
			Strategy:  t.Strategy,
			Opened:    t.Date,
		}
		return
	}

	// Adding to the same direction. The added contracts carry at cost
	// until the next mark.
	if sign(pos.Quantity) == sign(delta) {
		pos.Quantity += delta
		pos.CostBasis -= cf
		if m, ok := l.marks[t.Symbol]; ok {
			l.marks[t.Symbol] = m - cf
		}
		return
	}

	closing := min(abs(delta), abs(pos.Quantity))
	frac := float64(closing) / float64(abs(pos.Quantity))
	basis := pos.CostBasis * frac
	proceeds := cf * float64(closing) / float64(t.Quantity)

	l.closed = append(l.closed, ClosedPosition{
		Symbol:     pos.Symbol,
		Strategy:   pos.Strategy,
		Opened:     pos.Opened,
		Closed:     t.Date,
		Quantity:   sign(pos.Quantity) * closing,
		CostBasis:  basis,
		Proceeds:   proceeds,
		RealizedPL: proceeds - basis,
		Reason:     ReasonClosed,
	})

	pos.CostBasis -= basis
	pos.Quantity += delta

	switch {
	case pos.Quantity == 0:
		delete(l.positions, t.Symbol)
		delete(l.marks, t.Symbol)
	case sign(pos.Quantity) == sign(delta):
		// Flipped through zero: the remainder opens a fresh position.
		pos.CostBasis = -(cf - proceeds)
		pos.Strategy = t.Strategy
		pos.Opened = t.Date
		delete(l.marks, t.Symbol)
	default:
		if m, ok := l.marks[t.Symbol]; ok {
			l.marks[t.Symbol] = m * (1 - frac)
		}
	}
}

// Value is the position's last mark, or its cost basis when it has not
// been marked since it opened.
func (l *Ledger) Value(symbol string) float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.valueAtMarkLocked(symbol)
}

func (l *Ledger) valueAtMarkLocked(symbol string) float64 {
	if m, ok := l.marks[symbol]; ok {
		return m
	}
	if p, ok := l.positions[symbol]; ok {
		return p.CostBasis
	}
	return 0
}

// Equity is cash plus every open position at Value. Between marks it
// differs from MarkToMarket only by price moves not yet observed.
func (l *Ledger) Equity() float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	eq := l.cash
	for sym := range l.positions {
		eq += l.valueAtMarkLocked(sym)
	}
	return eq
}

// MarkToMarket returns cash plus the value of every open position on date.
// Each position is valued from that day's quote; failing that from the
// pricing kernel using the underlying's price and implied vol on date.
// On or after expiry the intrinsic value at the expiry price is used, and
// once date is past expiry the position is cash settled and removed.
// Positions with no usable data contribute zero.
func (l *Ledger) MarkToMarket(date time.Time) float64 {
	l.mu.Lock()
	defer l.mu.Unlock()

	date = market.Day(date)
	var held float64
	for _, p := range l.positionsLocked() {
		px, expired, ok := l.valueLocked(p.Symbol, date)
		if !ok {
			l.logger.Debug("no mark for position",
				zap.String("symbol", p.Symbol),
				zap.Time("date", date))
			l.marks[p.Symbol] = 0
			continue
		}

		value := float64(p.Quantity) * market.ContractMultiplier * px
		if !expired {
			l.marks[p.Symbol] = value
			held += value
			continue
		}

		l.settleLocked(p, date, value, ReasonExpired)
	}
	return l.cash + held
}

func (l *Ledger) settleLocked(p Position, date time.Time, value float64, reason string) {
	l.cash += value
	l.closed = append(l.closed, ClosedPosition{
		Symbol:     p.Symbol,
		Strategy:   p.Strategy,
		Opened:     p.Opened,
		Closed:     date,
		Quantity:   p.Quantity,
		CostBasis:  p.CostBasis,
		Proceeds:   value,
		RealizedPL: value - p.CostBasis,
		Reason:     reason,
	})
	delete(l.positions, p.Symbol)
	delete(l.marks, p.Symbol)
	l.logger.Debug("position settled at expiry",
		zap.String("symbol", p.Symbol),
		zap.Float64("value", value),
		zap.Time("date", date))
}

// valueLocked returns the per-share value of symbol on date and whether the
// position must be settled (date strictly after expiry).
func (l *Ledger) valueLocked(symbol string, date time.Time) (float64, bool, bool) {
	if q, ok := l.data.Quote(symbol, date); ok {
		return q.Price, false, true
	}

	c, err := market.DecodeSymbol(symbol)
	if err != nil {
		return 0, false, false
	}
	expiry := market.Day(c.Expiry)

	if !date.Before(expiry) {
		pt, ok := l.data.Price(c.Underlying, expiry)
		if !ok {
			return 0, false, false
		}
		return pricing.Intrinsic(c.Type.Class(), pt.Price, c.Strike), date.After(expiry), true
	}

	pt, ok := l.data.Price(c.Underlying, date)
	if !ok || pt.ImpliedVol <= 0 {
		return 0, false, false
	}
	T := float64(market.DaysBetween(date, expiry)) / 365
	return pricing.Price(pricing.Inputs{
		S:     pt.Price,
		K:     c.Strike,
		T:     T,
		Sigma: pt.ImpliedVol,
		R:     l.rate,
		Class: c.Type.Class(),
	}), false, true
}

// OpenAtMark reports every open position as if closed at its last mark.
// Ledger state is not changed.
func (l *Ledger) OpenAtMark(date time.Time) []ClosedPosition {
	l.mu.Lock()
	defer l.mu.Unlock()

	var out []ClosedPosition
	for _, p := range l.positionsLocked() {
		v := l.valueAtMarkLocked(p.Symbol)
		out = append(out, ClosedPosition{
			Symbol:     p.Symbol,
			Strategy:   p.Strategy,
			Opened:     p.Opened,
			Closed:     date,
			Quantity:   p.Quantity,
			CostBasis:  p.CostBasis,
			Proceeds:   v,
			RealizedPL: v - p.CostBasis,
			Reason:     ReasonMark,
		})
	}
	return out
}

func sign(x int) int {
	switch {
	case x > 0:
		return 1
	case x < 0:
		return -1
	}
	return 0
}

func abs(x int) int {
	return int(math.Abs(float64(x)))
}
