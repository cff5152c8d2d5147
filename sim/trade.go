package sim

import (
	"time"

	"github.com/rustyeddy/cppi/market"
)

// Trade is an executed fill. Price is the slipped execution price.
// Trades are append-only.
type Trade struct {
	ID         string      `json:"id"`
	Date       time.Time   `json:"date"`
	Symbol     string      `json:"symbol"`
	Side       market.Side `json:"side"`
	Quantity   int         `json:"quantity"`
	Price      float64     `json:"price"`
	Commission float64     `json:"commission"`
	Strategy   string      `json:"strategy"`
}

// Gross is price × quantity × contract multiplier.
func (t Trade) Gross() float64 {
	return t.Price * float64(t.Quantity) * market.ContractMultiplier
}

// CashFlow is the signed effect on cash: negative for buys, positive for
// sells, commission always paid.
func (t Trade) CashFlow() float64 {
	if t.Side == market.Sell {
		return t.Gross() - t.Commission
	}
	return -(t.Gross() + t.Commission)
}
