// Package sim is a paper broker that serves chains and fills from a
// market.Dataset as of a chosen date.
package sim

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rustyeddy/cppi/broker"
	"github.com/rustyeddy/cppi/internal/id"
	"github.com/rustyeddy/cppi/market"
	"go.uber.org/zap"
)

// Submitted pairs an accepted leg with its acknowledgement.
type Submitted struct {
	broker.LegOrder
	broker.OrderAck
	Date time.Time `json:"date"`
}

type Broker struct {
	mu      sync.Mutex
	ds      *market.Dataset
	asOf    time.Time
	account broker.Account
	ids     *id.Generator
	orders  []Submitted
	logger  *zap.Logger
}

type Option func(*Broker)

func WithLogger(logger *zap.Logger) Option {
	return func(b *Broker) {
		if logger != nil {
			b.logger = logger
		}
	}
}

// WithSeed makes order ids reproducible.
func WithSeed(seed int64) Option {
	return func(b *Broker) { b.ids = id.NewGenerator(seed) }
}

func New(ds *market.Dataset, asOf time.Time, acct broker.Account, opts ...Option) *Broker {
	b := &Broker{
		ds:      ds,
		asOf:    market.Day(asOf),
		account: acct,
		ids:     id.NewGenerator(time.Now().UnixNano()),
		logger:  zap.NewNop(),
	}
	for _, o := range opts {
		o(b)
	}
	return b
}

// SetDate moves the as-of date.
func (b *Broker) SetDate(d time.Time) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.asOf = market.Day(d)
}

func (b *Broker) Date() time.Time {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.asOf
}

func (b *Broker) OptionChain(ctx context.Context, underlying string, w broker.ExpiryWindow) ([]market.OptionQuote, error) {
	if err := ctx.Err(); err != nil {
		return nil, broker.Wrap("option_chain", err)
	}
	asOf := b.Date()

	chain := b.ds.Chain(underlying, asOf)
	if len(chain) == 0 {
		return nil, &broker.Error{
			Op:  "option_chain",
			Err: fmt.Errorf("%s on %s: %w", underlying, asOf.Format(time.DateOnly), broker.ErrNotFound),
		}
	}

	out := make([]market.OptionQuote, 0, len(chain))
	for _, q := range chain {
		if w.Contains(q.DTE()) {
			out = append(out, q)
		}
	}
	return out, nil
}

func (b *Broker) UnderlyingPrice(ctx context.Context, underlying string) (float64, error) {
	if err := ctx.Err(); err != nil {
		return 0, broker.Wrap("underlying_price", err)
	}
	asOf := b.Date()
	pt, ok := b.ds.Price(underlying, asOf)
	if !ok {
		return 0, &broker.Error{
			Op:  "underlying_price",
			Err: fmt.Errorf("%s on %s: %w", underlying, asOf.Format(time.DateOnly), broker.ErrNotFound),
		}
	}
	return pt.Price, nil
}

// SubmitLeg accepts a leg whose contract is quoted on the as-of date.
func (b *Broker) SubmitLeg(ctx context.Context, leg broker.LegOrder) (broker.OrderAck, error) {
	if err := ctx.Err(); err != nil {
		return broker.OrderAck{}, broker.Wrap("submit_leg", err)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if leg.Quantity <= 0 {
		return broker.OrderAck{}, &broker.Error{Op: "submit_leg", Err: fmt.Errorf("quantity %d: %w", leg.Quantity, broker.ErrRejected)}
	}
	if _, err := market.ParseSide(string(leg.Side)); err != nil {
		return broker.OrderAck{}, &broker.Error{Op: "submit_leg", Err: fmt.Errorf("%v: %w", err, broker.ErrRejected)}
	}
	if _, ok := b.ds.Quote(leg.Symbol, b.asOf); !ok {
		return broker.OrderAck{}, &broker.Error{Op: "submit_leg", Err: fmt.Errorf("no quote for %s: %w", leg.Symbol, broker.ErrRejected)}
	}

	ack := broker.OrderAck{OrderID: b.ids.At(b.asOf), Status: "accepted"}
	b.orders = append(b.orders, Submitted{LegOrder: leg, OrderAck: ack, Date: b.asOf})
	b.logger.Info("paper order accepted",
		zap.String("order_id", ack.OrderID),
		zap.String("symbol", leg.Symbol),
		zap.String("side", string(leg.Side)),
		zap.Int("quantity", leg.Quantity),
		zap.Float64("price", leg.Price),
		zap.String("tag", leg.Tag))
	return ack, nil
}

func (b *Broker) ResolveAccount(ctx context.Context) (broker.Account, error) {
	if err := ctx.Err(); err != nil {
		return broker.Account{}, broker.Wrap("resolve_account", err)
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.account, nil
}

// Orders returns every accepted leg in submission order.
func (b *Broker) Orders() []Submitted {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]Submitted(nil), b.orders...)
}

var _ broker.Broker = (*Broker)(nil)
