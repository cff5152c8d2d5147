package market

import (
	"sort"
	"sync"
	"time"
)

type chainKey struct {
	underlying string
	day        string
}

type quoteKey struct {
	symbol string
	day    string
}

// Dataset holds the price history and option surfaces for one run.
// It is filled once and read many times.
type Dataset struct {
	mu     sync.RWMutex
	prices map[string]map[string]PricePoint
	chains map[chainKey][]OptionQuote
	quotes map[quoteKey]OptionQuote
	days   map[string]time.Time
}

func NewDataset() *Dataset {
	return &Dataset{
		prices: make(map[string]map[string]PricePoint),
		chains: make(map[chainKey][]OptionQuote),
		quotes: make(map[quoteKey]OptionQuote),
		days:   make(map[string]time.Time),
	}
}

func (d *Dataset) AddPrice(p PricePoint) {
	d.mu.Lock()
	defer d.mu.Unlock()

	p.Date = Day(p.Date)
	k := dayKey(p.Date)
	byDay, ok := d.prices[p.Symbol]
	if !ok {
		byDay = make(map[string]PricePoint)
		d.prices[p.Symbol] = byDay
	}
	byDay[k] = p
	d.days[k] = p.Date
}

// AddChain stores the surface for (underlying, date), replacing any earlier one.
func (d *Dataset) AddChain(underlying string, date time.Time, quotes []OptionQuote) {
	d.mu.Lock()
	defer d.mu.Unlock()

	k := dayKey(date)
	d.chains[chainKey{underlying, k}] = quotes
	for _, q := range quotes {
		d.quotes[quoteKey{q.Symbol, k}] = q
	}
	d.days[k] = Day(date)
}

func (d *Dataset) Price(symbol string, date time.Time) (PricePoint, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	p, ok := d.prices[symbol][dayKey(date)]
	return p, ok
}

func (d *Dataset) Chain(underlying string, date time.Time) []OptionQuote {
	d.mu.RLock()
	defer d.mu.RUnlock()

	return d.chains[chainKey{underlying, dayKey(date)}]
}

// Quote looks up a single contract by its encoded symbol on date.
func (d *Dataset) Quote(symbol string, date time.Time) (OptionQuote, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	q, ok := d.quotes[quoteKey{symbol, dayKey(date)}]
	return q, ok
}

// Dates returns every day that has data, in ascending order.
func (d *Dataset) Dates() []time.Time {
	d.mu.RLock()
	defer d.mu.RUnlock()

	out := make([]time.Time, 0, len(d.days))
	for _, t := range d.days {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Before(out[j]) })
	return out
}

func (d *Dataset) Symbols() []string {
	d.mu.RLock()
	defer d.mu.RUnlock()

	out := make([]string, 0, len(d.prices))
	for s := range d.prices {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

// Prices returns the series for symbol in date order.
func (d *Dataset) Prices(symbol string) []PricePoint {
	d.mu.RLock()
	defer d.mu.RUnlock()

	byDay := d.prices[symbol]
	out := make([]PricePoint, 0, len(byDay))
	for _, p := range byDay {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out
}
