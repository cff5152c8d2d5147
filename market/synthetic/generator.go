// Package synthetic builds reproducible price paths and option surfaces.
package synthetic

import (
	"errors"
	"math"
	"math/rand"
	"time"

	"github.com/rustyeddy/cppi/market"
	"github.com/rustyeddy/cppi/pricing"
)

var ErrEmptyRange = errors.New("synthetic: end date before start date")

// Params controls the shape of the generated data. The zero value is not
// useful; start from DefaultParams.
type Params struct {
	StartPriceMin float64 `json:"start_price_min" yaml:"start_price_min"`
	StartPriceMax float64 `json:"start_price_max" yaml:"start_price_max"`

	// Daily return is drawn uniformly from [ReturnMin, ReturnMax).
	// ReturnMax > -ReturnMin gives the walk its upward drift.
	ReturnMin float64 `json:"return_min" yaml:"return_min"`
	ReturnMax float64 `json:"return_max" yaml:"return_max"`

	IVMin float64 `json:"iv_min" yaml:"iv_min"`
	IVMax float64 `json:"iv_max" yaml:"iv_max"`

	VolumeMin int64 `json:"volume_min" yaml:"volume_min"`
	VolumeMax int64 `json:"volume_max" yaml:"volume_max"`

	OIMin int64 `json:"oi_min" yaml:"oi_min"`
	OIMax int64 `json:"oi_max" yaml:"oi_max"`

	ExpiryOffsets []int   `json:"expiry_offsets" yaml:"expiry_offsets"`
	StrikeStep    float64 `json:"strike_step" yaml:"strike_step"`
	StrikeBand    float64 `json:"strike_band" yaml:"strike_band"`

	RiskFreeRate float64 `json:"risk_free_rate" yaml:"risk_free_rate"`
}

func DefaultParams() Params {
	return Params{
		StartPriceMin: 50,
		StartPriceMax: 500,
		ReturnMin:     -0.020,
		ReturnMax:     0.021,
		IVMin:         0.15,
		IVMax:         0.45,
		VolumeMin:     1_000_000,
		VolumeMax:     5_000_000,
		OIMin:         100,
		OIMax:         5000,
		ExpiryOffsets: []int{7, 14, 21, 30, 45},
		StrikeStep:    5,
		StrikeBand:    0.20,
		RiskFreeRate:  pricing.DefaultRiskFreeRate,
	}
}

// Generator draws every random number from one seeded stream, so the
// same seed, symbols and range always produce identical data.
type Generator struct {
	params Params
	rng    *rand.Rand
}

func NewGenerator(seed int64, params Params) *Generator {
	return &Generator{
		params: params,
		rng:    rand.New(rand.NewSource(seed)),
	}
}

// Generate fills a Dataset with one price point per symbol per calendar
// day in [start, end] and the matching option surface for each point.
// Symbols are processed in the order given.
func (g *Generator) Generate(symbols []string, start, end time.Time) (*market.Dataset, error) {
	start, end = market.Day(start), market.Day(end)
	if end.Before(start) {
		return nil, ErrEmptyRange
	}

	ds := market.NewDataset()
	for _, sym := range symbols {
		price := g.uniform(g.params.StartPriceMin, g.params.StartPriceMax)
		first := true
		for day := start; !day.After(end); day = day.AddDate(0, 0, 1) {
			if !first {
				price *= 1 + g.uniform(g.params.ReturnMin, g.params.ReturnMax)
			}
			first = false

			pt := market.PricePoint{
				Date:       day,
				Symbol:     sym,
				Price:      round2(price),
				Volume:     g.intn(g.params.VolumeMin, g.params.VolumeMax),
				ImpliedVol: g.uniform(g.params.IVMin, g.params.IVMax),
			}
			ds.AddPrice(pt)
			ds.AddChain(sym, day, g.surface(pt))
		}
	}
	return ds, nil
}

// Surface builds the chain for one price point. Every contract uses the
// point's implied vol, so only information dated on pt.Date is used.
func (g *Generator) surface(pt market.PricePoint) []market.OptionQuote {
	lo, hi := StrikeRange(pt.Price, g.params.StrikeStep, g.params.StrikeBand)

	var out []market.OptionQuote
	for _, off := range g.params.ExpiryOffsets {
		expiry := pt.Date.AddDate(0, 0, off)
		T := float64(off) / 365
		for k := lo; k <= hi+1e-9; k += g.params.StrikeStep {
			for _, typ := range []market.OptionType{market.Call, market.Put} {
				gr := pricing.BlackScholes(pricing.Inputs{
					S:     pt.Price,
					K:     k,
					T:     T,
					Sigma: pt.ImpliedVol,
					R:     g.params.RiskFreeRate,
					Class: typ.Class(),
				})
				out = append(out, market.OptionQuote{
					Date:         pt.Date,
					Symbol:       market.EncodeSymbol(pt.Symbol, expiry, k, typ),
					Underlying:   pt.Symbol,
					Strike:       k,
					Expiry:       expiry,
					Type:         typ,
					Price:        round2(math.Max(gr.Price, 0.01)),
					Delta:        gr.Delta,
					Gamma:        gr.Gamma,
					Theta:        gr.Theta,
					Vega:         gr.Vega,
					ImpliedVol:   pt.ImpliedVol,
					OpenInterest: g.intn(g.params.OIMin, g.params.OIMax),
				})
			}
		}
	}
	return out
}

// StrikeRange returns the first and last grid strike covering price±band.
func StrikeRange(price, step, band float64) (float64, float64) {
	lo := math.Floor(price*(1-band)/step) * step
	hi := math.Ceil(price*(1+band)/step) * step
	if lo < step {
		lo = step
	}
	return lo, hi
}

func (g *Generator) uniform(lo, hi float64) float64 {
	return lo + g.rng.Float64()*(hi-lo)
}

func (g *Generator) intn(lo, hi int64) int64 {
	if hi <= lo {
		return lo
	}
	return lo + g.rng.Int63n(hi-lo)
}

func round2(x float64) float64 {
	return math.Round(x*100) / 100
}
