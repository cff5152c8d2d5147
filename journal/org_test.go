package journal

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatTradeOrg(t *testing.T) {
	t.Parallel()

	trade := sampleTrade("01HQXYZABCDEFG", time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC), 250)
	result := FormatTradeOrg(trade)

	assert.True(t, strings.HasPrefix(result, "*** Trade: debit_vertical SPY240315C00500000 (01HQXYZA)"))
	assert.Contains(t, result, ":PROPERTIES:")
	assert.Contains(t, result, ":TRADE_ID: 01HQXYZABCDEFG")
	assert.Contains(t, result, ":RUN_ID: run-1")
	assert.Contains(t, result, ":QUANTITY: 2")
	assert.Contains(t, result, ":COST_BASIS: 400.00")
	assert.Contains(t, result, ":OPEN_TIME: 2024-03-08T00:00:00Z")
	assert.Contains(t, result, ":CLOSE_TIME: 2024-03-15T00:00:00Z")
	assert.Contains(t, result, ":REALIZED_PL: 250.00")
	assert.Contains(t, result, ":REASON: expired")
	assert.Contains(t, result, ":END:")
	assert.Contains(t, result, "**** Thesis")
	assert.Contains(t, result, "**** Review")
}

func TestFormatTradeOrgShortAndNegative(t *testing.T) {
	t.Parallel()

	trade := sampleTrade("short", time.Now(), -500)
	trade.RunID = ""
	result := FormatTradeOrg(trade)
	assert.Contains(t, result, "(short)")
	assert.Contains(t, result, ":REALIZED_PL: -500.00")
	assert.NotContains(t, result, ":RUN_ID:")
}

func TestFormatTradesOrg(t *testing.T) {
	t.Parallel()

	day := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)
	out := FormatTradesOrg([]TradeRecord{sampleTrade("A", day, 1), sampleTrade("B", day, 2)})
	assert.Equal(t, 2, strings.Count(out, "*** Trade:"))
	assert.Empty(t, FormatTradesOrg(nil))
}

func TestWriteBacktestOrg(t *testing.T) {
	t.Parallel()

	run := BacktestRun{
		RunID:        "abc",
		Universe:     "SPY",
		Strategies:   "straddle",
		Start:        time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		End:          time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC),
		StartBalance: 10000,
		EndBalance:   10100,
		NetPL:        100,
		WinRate:      0.25,
		Notes:        []string{"thin data"},
		OrgPath:      filepath.Join(t.TempDir(), "run.org"),
	}
	require.NoError(t, run.WriteBacktestOrg())

	b, err := os.ReadFile(run.OrgPath)
	require.NoError(t, err)
	s := string(b)
	assert.Contains(t, s, "* BACKTEST: straddle on SPY")
	assert.Contains(t, s, ":START_DATE:  2024-01-01")
	assert.Contains(t, s, ":WIN_RATE:    25.00")
	assert.Contains(t, s, ":PROFIT_FAC:  (profit-factor?)")
	assert.Contains(t, s, "- thin data")
	assert.NotContains(t, s, "#+begin_src")
}
