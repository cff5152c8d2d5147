package market

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDatasetLookups(t *testing.T) {
	t.Parallel()

	d := NewDataset()
	d1 := time.Date(2024, 1, 2, 15, 30, 0, 0, time.UTC)
	d0 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	exp := time.Date(2024, 1, 9, 0, 0, 0, 0, time.UTC)

	d.AddPrice(PricePoint{Date: d1, Symbol: "SPY", Price: 101})
	d.AddPrice(PricePoint{Date: d0, Symbol: "SPY", Price: 100})

	q := OptionQuote{
		Date:       d0,
		Symbol:     EncodeSymbol("SPY", exp, 100, Call),
		Underlying: "SPY",
		Strike:     100,
		Expiry:     exp,
		Type:       Call,
		Price:      2.5,
	}
	d.AddChain("SPY", d0, []OptionQuote{q})

	p, ok := d.Price("SPY", Day(d1))
	require.True(t, ok)
	assert.Equal(t, 101.0, p.Price)

	_, ok = d.Price("QQQ", d0)
	assert.False(t, ok)

	assert.Len(t, d.Chain("SPY", d0), 1)
	assert.Empty(t, d.Chain("SPY", d1))

	got, ok := d.Quote(q.Symbol, d0)
	require.True(t, ok)
	assert.Equal(t, 2.5, got.Price)
	assert.Equal(t, 8, got.DTE())

	dates := d.Dates()
	require.Len(t, dates, 2)
	assert.True(t, dates[0].Before(dates[1]))

	series := d.Prices("SPY")
	require.Len(t, series, 2)
	assert.Equal(t, 100.0, series[0].Price)
	assert.Equal(t, []string{"SPY"}, d.Symbols())
}
