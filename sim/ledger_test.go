package sim

import (
	"testing"
	"time"

	"github.com/rustyeddy/cppi/market"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	d0     = time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	expiry = d0.AddDate(0, 0, 7)
)

func fixture(t *testing.T) (*market.Dataset, string, string) {
	t.Helper()

	ds := market.NewDataset()
	call := market.EncodeSymbol("XYZ", expiry, 100, market.Call)
	put := market.EncodeSymbol("XYZ", expiry, 100, market.Put)

	for i := 0; i <= 10; i++ {
		day := d0.AddDate(0, 0, i)
		ds.AddPrice(market.PricePoint{Date: day, Symbol: "XYZ", Price: 100 + float64(i), ImpliedVol: 0.3})
	}
	// Quotes only on the first two days.
	for i := 0; i < 2; i++ {
		day := d0.AddDate(0, 0, i)
		ds.AddChain("XYZ", day, []market.OptionQuote{
			{Date: day, Symbol: call, Underlying: "XYZ", Strike: 100, Expiry: expiry, Type: market.Call, Price: 2 + float64(i)},
			{Date: day, Symbol: put, Underlying: "XYZ", Strike: 100, Expiry: expiry, Type: market.Put, Price: 1.5},
		})
	}
	return ds, call, put
}

func trade(day time.Time, sym string, side market.Side, qty int, px float64) Trade {
	return Trade{Date: day, Symbol: sym, Side: side, Quantity: qty, Price: px, Strategy: "test"}
}

func TestLedgerApplyOpenAndClose(t *testing.T) {
	t.Parallel()

	ds, call, _ := fixture(t)
	l := NewLedger(10_000, ds)

	l.Apply(trade(d0, call, market.Buy, 2, 2))
	assert.InDelta(t, 9_600, l.Cash(), 1e-9)
	assert.Equal(t, 2, l.Quantity(call))

	l.Apply(trade(d0.AddDate(0, 0, 1), call, market.Sell, 2, 3))
	assert.InDelta(t, 10_200, l.Cash(), 1e-9)
	assert.Equal(t, 0, l.Quantity(call))
	assert.Empty(t, l.Positions())

	closed := l.Closed()
	require.Len(t, closed, 1)
	assert.Equal(t, ReasonClosed, closed[0].Reason)
	assert.InDelta(t, 200, closed[0].RealizedPL, 1e-9)
	assert.Equal(t, 2, closed[0].Quantity)
}

func TestLedgerPartialCloseAndFlip(t *testing.T) {
	t.Parallel()

	ds, call, _ := fixture(t)
	l := NewLedger(10_000, ds)

	l.Apply(trade(d0, call, market.Buy, 2, 2))
	l.Apply(trade(d0, call, market.Sell, 1, 3))

	require.Len(t, l.Closed(), 1)
	assert.InDelta(t, 100, l.Closed()[0].RealizedPL, 1e-9)
	pos := l.Positions()
	require.Len(t, pos, 1)
	assert.Equal(t, 1, pos[0].Quantity)
	assert.InDelta(t, 200, pos[0].CostBasis, 1e-9)

	// Sell 3 more: closes the last long and opens 2 short.
	l.Apply(trade(d0, call, market.Sell, 3, 3))
	require.Len(t, l.Closed(), 2)
	assert.InDelta(t, 100, l.Closed()[1].RealizedPL, 1e-9)
	pos = l.Positions()
	require.Len(t, pos, 1)
	assert.Equal(t, -2, pos[0].Quantity)
	assert.InDelta(t, -600, pos[0].CostBasis, 1e-9)
}

func TestLedgerMarkUsesQuote(t *testing.T) {
	t.Parallel()

	ds, call, put := fixture(t)
	l := NewLedger(10_000, ds)
	l.Apply(trade(d0, call, market.Buy, 1, 2))
	l.Apply(trade(d0, put, market.Sell, 1, 1.5))

	// cash 10000 - 200 + 150; call quoted 3 on day 1, put 1.5
	v := l.MarkToMarket(d0.AddDate(0, 0, 1))
	assert.InDelta(t, 9_950+300-150, v, 1e-9)

	m, ok := l.Mark(call)
	require.True(t, ok)
	assert.InDelta(t, 300, m, 1e-9)
}

func TestLedgerMarkFallsBackToModel(t *testing.T) {
	t.Parallel()

	ds, call, _ := fixture(t)
	l := NewLedger(10_000, ds)
	l.Apply(trade(d0, call, market.Buy, 1, 2))

	// No quote on day 3, spot 103 > strike: model value above intrinsic.
	v := l.MarkToMarket(d0.AddDate(0, 0, 3))
	assert.Greater(t, v, 9_800+300.0)
	assert.Equal(t, 1, l.Quantity(call))
}

func TestLedgerExpirySettlement(t *testing.T) {
	t.Parallel()

	ds, call, put := fixture(t)
	l := NewLedger(10_000, ds)
	l.Apply(trade(d0, call, market.Buy, 1, 2))
	l.Apply(trade(d0, put, market.Buy, 1, 1.5))
	cash := l.Cash()

	// On expiry day the position is valued at intrinsic but kept.
	v := l.MarkToMarket(expiry)
	assert.InDelta(t, cash+700, v, 1e-9)
	assert.Len(t, l.Positions(), 2)

	// The day after it settles at the expiry-day price (107), not today's.
	v = l.MarkToMarket(expiry.AddDate(0, 0, 1))
	assert.InDelta(t, cash+700, v, 1e-9)
	assert.Empty(t, l.Positions())
	assert.InDelta(t, cash+700, l.Cash(), 1e-9)

	closed := l.Closed()
	require.Len(t, closed, 2)
	for _, c := range closed {
		assert.Equal(t, ReasonExpired, c.Reason)
	}

	// Nothing left open: the mark is cash alone.
	assert.InDelta(t, l.Cash(), l.MarkToMarket(expiry.AddDate(0, 0, 2)), 1e-9)
}

func TestLedgerDataGapIsZero(t *testing.T) {
	t.Parallel()

	ds := market.NewDataset()
	l := NewLedger(1_000, ds)
	sym := market.EncodeSymbol("NOPE", expiry, 50, market.Call)
	l.Apply(trade(d0, sym, market.Buy, 1, 1))

	assert.InDelta(t, 900, l.MarkToMarket(d0.AddDate(0, 0, 1)), 1e-9)
	assert.InDelta(t, 900, l.MarkToMarket(expiry.AddDate(0, 0, 1)), 1e-9)
	assert.Equal(t, 1, l.Quantity(sym))

	l.Apply(trade(d0, "garbage", market.Buy, 1, 1))
	assert.InDelta(t, 800, l.MarkToMarket(d0), 1e-9)
}

func TestLedgerOpenAtMark(t *testing.T) {
	t.Parallel()

	ds, call, _ := fixture(t)
	l := NewLedger(10_000, ds)
	l.Apply(trade(d0, call, market.Buy, 1, 2))
	l.MarkToMarket(d0.AddDate(0, 0, 1))

	open := l.OpenAtMark(d0.AddDate(0, 0, 1))
	require.Len(t, open, 1)
	assert.Equal(t, ReasonMark, open[0].Reason)
	assert.InDelta(t, 100, open[0].RealizedPL, 1e-9)
	assert.Equal(t, 1, l.Quantity(call))
	assert.Empty(t, l.Closed())
}

func TestLedgerEquityBetweenMarks(t *testing.T) {
	t.Parallel()

	ds, call, put := fixture(t)
	l := NewLedger(10_000, ds)

	// Unmarked positions carry at cost, so opening them changes nothing.
	l.Apply(trade(d0, call, market.Buy, 2, 2))
	l.Apply(trade(d0, put, market.Sell, 1, 1.5))
	assert.InDelta(t, 400, l.Value(call), 1e-9)
	assert.InDelta(t, -150, l.Value(put), 1e-9)
	assert.InDelta(t, 10_000, l.Equity(), 1e-9)

	// Day 1: call quoted 3, put 1.5.
	marked := l.MarkToMarket(d0.AddDate(0, 0, 1))
	assert.InDelta(t, marked, l.Equity(), 1e-9)

	// Adding at 3 carries the new contract at cost on top of the mark.
	l.Apply(trade(d0.AddDate(0, 0, 1), call, market.Buy, 1, 3))
	assert.InDelta(t, 900, l.Value(call), 1e-9)
	assert.InDelta(t, marked, l.Equity(), 1e-9)

	// Selling one of three at the mark leaves two thirds of it.
	l.Apply(trade(d0.AddDate(0, 0, 1), call, market.Sell, 1, 3))
	assert.InDelta(t, 600, l.Value(call), 1e-9)
	assert.InDelta(t, marked, l.Equity(), 1e-9)

	// Flipping drops the stale mark.
	l.Apply(trade(d0.AddDate(0, 0, 1), call, market.Sell, 3, 3))
	_, ok := l.Mark(call)
	assert.False(t, ok)
	assert.InDelta(t, -300, l.Value(call), 1e-9)
	assert.InDelta(t, marked, l.Equity(), 1e-9)
}
