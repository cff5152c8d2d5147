package market

import (
	"time"

	"github.com/rustyeddy/cppi/pricing"
)

// ContractMultiplier is the number of shares one option contract controls.
const ContractMultiplier = 100

type OptionType string

const (
	Call OptionType = "call"
	Put  OptionType = "put"
)

func (t OptionType) Class() pricing.OptionClass {
	if t == Put {
		return pricing.Put
	}
	return pricing.Call
}

// PricePoint is one daily observation of an underlying.
type PricePoint struct {
	Date       time.Time `json:"date"`
	Symbol     string    `json:"symbol"`
	Price      float64   `json:"price"`
	Volume     int64     `json:"volume"`
	ImpliedVol float64   `json:"implied_vol"`
}

// OptionQuote is one contract on one day's option surface.
type OptionQuote struct {
	Date         time.Time  `json:"date"`
	Symbol       string     `json:"symbol"`
	Underlying   string     `json:"underlying"`
	Strike       float64    `json:"strike"`
	Expiry       time.Time  `json:"expiry"`
	Type         OptionType `json:"type"`
	Price        float64    `json:"price"`
	Delta        float64    `json:"delta"`
	Gamma        float64    `json:"gamma"`
	Theta        float64    `json:"theta"`
	Vega         float64    `json:"vega"`
	ImpliedVol   float64    `json:"implied_vol"`
	OpenInterest int64      `json:"open_interest"`
}

// DTE is the number of calendar days from the quote date to expiry.
func (q OptionQuote) DTE() int {
	return DaysBetween(q.Date, q.Expiry)
}

// Day truncates t to midnight UTC of its calendar day.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DaysBetween counts whole calendar days from a to b.
func DaysBetween(a, b time.Time) int {
	return int(Day(b).Sub(Day(a)).Hours() / 24)
}

func dayKey(t time.Time) string {
	return t.Format("20060102")
}
