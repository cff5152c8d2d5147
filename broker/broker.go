// Package broker is the boundary to an options brokerage: chain lookup,
// leg submission, and account resolution. Implementations never retry;
// failures come back as *Error.
package broker

import (
	"context"

	"github.com/rustyeddy/cppi/market"
)

type Account struct {
	ID      int64   `json:"id"`
	Number  string  `json:"number"`
	Sandbox bool    `json:"sandbox"`
	Equity  float64 `json:"equity"`
	Cash    float64 `json:"cash"`
}

// ExpiryWindow bounds the days to expiry of a chain request.
type ExpiryWindow struct {
	MinDTE int `json:"min_dte"`
	MaxDTE int `json:"max_dte"`
}

// Contains reports whether dte falls inside the window.
func (w ExpiryWindow) Contains(dte int) bool {
	return dte >= w.MinDTE && (w.MaxDTE == 0 || dte <= w.MaxDTE)
}

type LegOrder struct {
	Symbol   string      `json:"symbol"`
	Side     market.Side `json:"side"`
	Quantity int         `json:"quantity"`
	Price    float64     `json:"price"`
	Tag      string      `json:"tag,omitempty"`
}

type OrderAck struct {
	OrderID string `json:"order_id"`
	Status  string `json:"status"`
}

type OptionChainSource interface {
	OptionChain(ctx context.Context, underlying string, w ExpiryWindow) ([]market.OptionQuote, error)
	UnderlyingPrice(ctx context.Context, underlying string) (float64, error)
}

type OrderSubmitter interface {
	SubmitLeg(ctx context.Context, leg LegOrder) (OrderAck, error)
}

type AccountResolver interface {
	ResolveAccount(ctx context.Context) (Account, error)
}

type Broker interface {
	OptionChainSource
	OrderSubmitter
	AccountResolver
}
