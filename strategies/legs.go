package strategies

import (
	"math"

	"github.com/rustyeddy/cppi/market"
)

// Leg is one contract of a strategy. Quote is the surface row it was
// selected from and carries the quoted price.
type Leg struct {
	Symbol   string             `json:"symbol"`
	Side     market.Side        `json:"side"`
	Quantity int                `json:"quantity"`
	Quote    market.OptionQuote `json:"quote"`
}

func leg(q market.OptionQuote, side market.Side, qty int) Leg {
	if qty <= 0 {
		qty = 1
	}
	return Leg{Symbol: q.Symbol, Side: side, Quantity: qty, Quote: q}
}

// WithContracts returns a copy of legs with every quantity set to n.
func WithContracts(legs []Leg, n int) []Leg {
	out := make([]Leg, len(legs))
	for i, l := range legs {
		l.Quantity = n
		out[i] = l
	}
	return out
}

// NetPremium is the per-share premium paid (positive) or received
// (negative) for one unit of the strategy.
func NetPremium(legs []Leg) float64 {
	var net float64
	for _, l := range legs {
		net += float64(l.Side.Sign()) * l.Quote.Price
	}
	return net
}

// RiskPerUnit estimates the dollars at risk for one unit of the strategy,
// used to turn a risk budget into a contract count.
func RiskPerUnit(a Archetype, legs []Leg) float64 {
	if len(legs) == 0 {
		return 0
	}
	net := NetPremium(legs)
	var r float64
	switch a {
	case CreditPutVertical:
		width := math.Abs(legs[0].Quote.Strike - legs[1].Quote.Strike)
		r = width + net
	case CashSecuredPut:
		r = legs[0].Quote.Strike + net
	default:
		r = math.Abs(net)
	}
	if r < 0.01 {
		r = 0.01
	}
	return r * market.ContractMultiplier
}
