package sim

import (
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rustyeddy/cppi/market"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExecutorSlippageIsAdverse(t *testing.T) {
	t.Parallel()

	ds, call, _ := fixture(t)
	e := NewExecutor(NewLedger(100_000, ds), DefaultExecConfig())

	for i := 0; i < 50; i++ {
		buy, ok := e.Execute(Order{Date: d0, Symbol: call, Side: market.Buy, Quantity: 1, Price: 2, Strategy: "s"})
		require.True(t, ok)
		assert.GreaterOrEqual(t, buy.Price, 2*(1+DefaultSlippageMin))
		assert.Less(t, buy.Price, 2*(1+DefaultSlippageMax))

		sell, ok := e.Execute(Order{Date: d0, Symbol: call, Side: market.Sell, Quantity: 1, Price: 2, Strategy: "s"})
		require.True(t, ok)
		assert.LessOrEqual(t, sell.Price, 2*(1-DefaultSlippageMin))
		assert.Greater(t, sell.Price, 2*(1-DefaultSlippageMax))
	}
}

func TestExecutorCashFlow(t *testing.T) {
	t.Parallel()

	ds, call, put := fixture(t)
	cfg := ExecConfig{CommissionPerContract: 1, Seed: 7}
	l := NewLedger(1_000, ds)
	e := NewExecutor(l, cfg)

	tr, ok := e.Execute(Order{Date: d0, Symbol: call, Side: market.Buy, Quantity: 3, Price: 2, Strategy: "debit"})
	require.True(t, ok)
	assert.InDelta(t, 3, tr.Commission, 1e-9)
	assert.InDelta(t, 1_000-600-3, l.Cash(), 1e-9)
	assert.Equal(t, 3, l.Quantity(call))
	assert.Len(t, tr.ID, 26)

	_, ok = e.Execute(Order{Date: d0, Symbol: put, Side: market.Sell, Quantity: 2, Price: 1.5, Strategy: "credit"})
	require.True(t, ok)
	assert.InDelta(t, 397+300-2, l.Cash(), 1e-9)
	assert.Equal(t, -2, l.Quantity(put))
	assert.Len(t, e.Trades(), 2)
}

func TestExecutorSkipsUnaffordableBuy(t *testing.T) {
	t.Parallel()

	ds, call, put := fixture(t)
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)
	l := NewLedger(100, ds)
	e := NewExecutor(l, DefaultExecConfig(), WithMetrics(m))

	_, ok := e.Execute(Order{Date: d0, Symbol: call, Side: market.Buy, Quantity: 1, Price: 2, Strategy: "debit"})
	assert.False(t, ok)
	assert.InDelta(t, 100, l.Cash(), 1e-9)
	assert.Empty(t, e.Trades())
	assert.Empty(t, l.Positions())

	// Sells are never blocked by cash.
	_, ok = e.Execute(Order{Date: d0, Symbol: put, Side: market.Sell, Quantity: 1, Price: 1.5, Strategy: "credit"})
	assert.True(t, ok)

	_, ok = e.Execute(Order{Date: d0, Symbol: put, Side: market.Sell, Quantity: 0, Price: 1.5, Strategy: "credit"})
	assert.False(t, ok)

	assert.InDelta(t, 1, testutil.ToFloat64(m.TradesSkipped.WithLabelValues("debit", "insufficient cash")), 1e-9)
	assert.InDelta(t, 1, testutil.ToFloat64(m.TradesExecuted.WithLabelValues("credit", "sell")), 1e-9)

	expected := `
# HELP cppi_sim_trades_skipped_total Orders not filled by strategy and reason.
# TYPE cppi_sim_trades_skipped_total counter
cppi_sim_trades_skipped_total{reason="insufficient cash",strategy="debit"} 1
cppi_sim_trades_skipped_total{reason="invalid order",strategy="credit"} 1
`
	require.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected), "cppi_sim_trades_skipped_total"))
}

func TestExecutorDeterministic(t *testing.T) {
	t.Parallel()

	run := func() []Trade {
		ds, call, _ := fixture(t)
		e := NewExecutor(NewLedger(100_000, ds), DefaultExecConfig())
		for i := 0; i < 5; i++ {
			e.Execute(Order{Date: d0, Symbol: call, Side: market.Buy, Quantity: 1, Price: 2, Strategy: "s"})
		}
		return e.Trades()
	}
	assert.Equal(t, run(), run())
}
