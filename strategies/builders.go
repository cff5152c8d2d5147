package strategies

import (
	"math"
	"sort"
	"time"

	"github.com/rustyeddy/cppi/market"
)

// BuildDebitVertical buys the call nearest TargetDelta and sells the call
// Width above it.
func BuildDebitVertical(s Surface, p Params) []Leg {
	chain, ok := expiryChain(s.Quotes, p)
	if !ok {
		return nil
	}
	long, ok := nearestDelta(chain, market.Call, p.TargetDelta)
	if !ok {
		return nil
	}
	short, ok := atStrike(chain, market.Call, long.Strike+p.Width)
	if !ok || p.Width <= 0 {
		return nil
	}
	return []Leg{leg(long, market.Buy, p.Contracts), leg(short, market.Sell, p.Contracts)}
}

// BuildCreditPutVertical sells the put nearest ShortDelta and buys the put
// Width below it (or nearest LongDelta when Width is zero).
func BuildCreditPutVertical(s Surface, p Params) []Leg {
	chain, ok := expiryChain(s.Quotes, p)
	if !ok {
		return nil
	}
	short, ok := nearestDelta(chain, market.Put, p.ShortDelta)
	if !ok {
		return nil
	}
	var long market.OptionQuote
	if p.Width > 0 {
		long, ok = atStrike(chain, market.Put, short.Strike-p.Width)
	} else {
		long, ok = nearestDelta(chain, market.Put, p.LongDelta)
	}
	if !ok || long.Strike >= short.Strike {
		return nil
	}
	return []Leg{leg(short, market.Sell, p.Contracts), leg(long, market.Buy, p.Contracts)}
}

// BuildStraddle buys the call and put at the strike nearest spot.
func BuildStraddle(s Surface, p Params) []Leg {
	chain, ok := expiryChain(s.Quotes, p)
	if !ok {
		return nil
	}
	call, ok := nearestStrike(chain, market.Call, s.Spot)
	if !ok {
		return nil
	}
	put, ok := atStrike(chain, market.Put, call.Strike)
	if !ok {
		return nil
	}
	return []Leg{leg(call, market.Buy, p.Contracts), leg(put, market.Buy, p.Contracts)}
}

func BuildCashSecuredPut(s Surface, p Params) []Leg {
	chain, ok := expiryChain(s.Quotes, p)
	if !ok {
		return nil
	}
	put, ok := nearestDelta(chain, market.Put, p.TargetDelta)
	if !ok {
		return nil
	}
	return []Leg{leg(put, market.Sell, p.Contracts)}
}

// BuildHedgePut buys a far out of the money put.
func BuildHedgePut(s Surface, p Params) []Leg {
	chain, ok := expiryChain(s.Quotes, p)
	if !ok {
		return nil
	}
	put, ok := nearestDelta(chain, market.Put, p.TargetDelta)
	if !ok {
		return nil
	}
	return []Leg{leg(put, market.Buy, p.Contracts)}
}

// BuildCollar sells the call nearest ShortDelta and buys the put nearest
// LongDelta on the same expiry.
func BuildCollar(s Surface, p Params) []Leg {
	chain, ok := expiryChain(s.Quotes, p)
	if !ok {
		return nil
	}
	call, ok := nearestDelta(chain, market.Call, p.ShortDelta)
	if !ok {
		return nil
	}
	put, ok := nearestDelta(chain, market.Put, p.LongDelta)
	if !ok {
		return nil
	}
	return []Leg{leg(call, market.Sell, p.Contracts), leg(put, market.Buy, p.Contracts)}
}

// ChooseExpiry picks the expiry inside [DTEMin, DTEMax] closest to
// DTETarget; ties go to the nearer expiry.
func ChooseExpiry(quotes []market.OptionQuote, p Params) (time.Time, bool) {
	type cand struct {
		expiry time.Time
		dte    int
	}
	seen := map[int64]cand{}
	for _, q := range quotes {
		dte := q.DTE()
		if dte < p.DTEMin || (p.DTEMax > 0 && dte > p.DTEMax) {
			continue
		}
		seen[q.Expiry.Unix()] = cand{q.Expiry, dte}
	}
	if len(seen) == 0 {
		return time.Time{}, false
	}

	target := p.DTETarget
	if target == 0 {
		target = (p.DTEMin + p.DTEMax) / 2
	}

	cands := make([]cand, 0, len(seen))
	for _, c := range seen {
		cands = append(cands, c)
	}
	sort.Slice(cands, func(i, j int) bool { return cands[i].dte < cands[j].dte })

	best := cands[0]
	for _, c := range cands[1:] {
		if absInt(c.dte-target) < absInt(best.dte-target) {
			best = c
		}
	}
	return best.expiry, true
}

func expiryChain(quotes []market.OptionQuote, p Params) ([]market.OptionQuote, bool) {
	exp, ok := ChooseExpiry(quotes, p)
	if !ok {
		return nil, false
	}
	out := make([]market.OptionQuote, 0, len(quotes)/4)
	for _, q := range quotes {
		if q.Expiry.Equal(exp) {
			out = append(out, q)
		}
	}
	return out, len(out) > 0
}

func nearestDelta(chain []market.OptionQuote, typ market.OptionType, target float64) (market.OptionQuote, bool) {
	target = math.Abs(target)
	var best market.OptionQuote
	bestDist := math.Inf(1)
	for _, q := range chain {
		if q.Type != typ {
			continue
		}
		if d := math.Abs(math.Abs(q.Delta) - target); d < bestDist {
			best, bestDist = q, d
		}
	}
	return best, !math.IsInf(bestDist, 1)
}

func nearestStrike(chain []market.OptionQuote, typ market.OptionType, target float64) (market.OptionQuote, bool) {
	var best market.OptionQuote
	bestDist := math.Inf(1)
	for _, q := range chain {
		if q.Type != typ {
			continue
		}
		if d := math.Abs(q.Strike - target); d < bestDist {
			best, bestDist = q, d
		}
	}
	return best, !math.IsInf(bestDist, 1)
}

func atStrike(chain []market.OptionQuote, typ market.OptionType, strike float64) (market.OptionQuote, bool) {
	for _, q := range chain {
		if q.Type == typ && math.Abs(q.Strike-strike) < 1e-6 {
			return q, true
		}
	}
	return market.OptionQuote{}, false
}

func absInt(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
