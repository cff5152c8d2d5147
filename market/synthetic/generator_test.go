package synthetic

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/rustyeddy/cppi/market"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	start = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	end   = time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC)
)

func generate(t *testing.T, seed int64, symbols ...string) *market.Dataset {
	t.Helper()
	ds, err := NewGenerator(seed, DefaultParams()).Generate(symbols, start, end)
	require.NoError(t, err)
	return ds
}

func TestGenerateIsDeterministic(t *testing.T) {
	t.Parallel()

	a := generate(t, 42, "SPY", "QQQ")
	b := generate(t, 42, "SPY", "QQQ")

	for _, sym := range []string{"SPY", "QQQ"} {
		ja, err := json.Marshal(a.Prices(sym))
		require.NoError(t, err)
		jb, err := json.Marshal(b.Prices(sym))
		require.NoError(t, err)
		assert.Equal(t, ja, jb)
	}

	ca, _ := json.Marshal(a.Chain("SPY", end))
	cb, _ := json.Marshal(b.Chain("SPY", end))
	assert.Equal(t, ca, cb)
}

func TestGenerateSeedChangesPath(t *testing.T) {
	t.Parallel()

	a := generate(t, 1, "SPY")
	b := generate(t, 2, "SPY")
	assert.NotEqual(t, a.Prices("SPY")[0].Price, b.Prices("SPY")[0].Price)
}

func TestGenerateOnePointPerCalendarDay(t *testing.T) {
	t.Parallel()

	ds := generate(t, 7, "SPY")
	series := ds.Prices("SPY")
	require.Len(t, series, 31)

	p := DefaultParams()
	assert.GreaterOrEqual(t, series[0].Price, p.StartPriceMin)
	assert.Less(t, series[0].Price, p.StartPriceMax+0.01)

	for i := 1; i < len(series); i++ {
		r := series[i].Price/series[i-1].Price - 1
		assert.GreaterOrEqual(t, r, p.ReturnMin-0.001)
		assert.LessOrEqual(t, r, p.ReturnMax+0.001)
	}
}

func TestSurfaceShape(t *testing.T) {
	t.Parallel()

	ds := generate(t, 11, "SPY")
	day := start.AddDate(0, 0, 3)
	pt, ok := ds.Price("SPY", day)
	require.True(t, ok)

	chain := ds.Chain("SPY", day)
	require.NotEmpty(t, chain)

	lo, hi := StrikeRange(pt.Price, 5, 0.2)
	strikes := int((hi-lo)/5) + 1
	assert.Len(t, chain, strikes*2*len(DefaultParams().ExpiryOffsets))

	for _, q := range chain {
		assert.Equal(t, pt.Date, q.Date)
		assert.Equal(t, pt.ImpliedVol, q.ImpliedVol)
		assert.Contains(t, []int{7, 14, 21, 30, 45}, q.DTE())
		assert.InDelta(t, 0, mod(q.Strike, 5), 1e-9)
		assert.GreaterOrEqual(t, q.Strike, pt.Price*0.8-5)
		assert.LessOrEqual(t, q.Strike, pt.Price*1.2+5)
		if q.Type == market.Call {
			assert.GreaterOrEqual(t, q.Delta, 0.0)
		} else {
			assert.LessOrEqual(t, q.Delta, 0.0)
		}
		c, err := market.DecodeSymbol(q.Symbol)
		require.NoError(t, err)
		assert.Equal(t, q.Strike, c.Strike)
	}
}

func TestGenerateRejectsBackwardsRange(t *testing.T) {
	t.Parallel()

	_, err := NewGenerator(1, DefaultParams()).Generate([]string{"SPY"}, end, start)
	assert.ErrorIs(t, err, ErrEmptyRange)
}

func mod(x, m float64) float64 {
	return x - m*float64(int(x/m))
}
