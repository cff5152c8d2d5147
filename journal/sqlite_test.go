package journal

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSQLite(t *testing.T) (*SQLite, string) {
	t.Helper()

	path := filepath.Join(t.TempDir(), "test.db")
	j, err := NewSQLite(path)
	require.NoError(t, err)
	return j, path
}

func sampleTrade(id string, closeT time.Time, pl float64) TradeRecord {
	return TradeRecord{
		RunID:      "run-1",
		TradeID:    id,
		Symbol:     "SPY240315C00500000",
		Strategy:   "debit_vertical",
		Quantity:   2,
		CostBasis:  400,
		Proceeds:   400 + pl,
		OpenTime:   closeT.AddDate(0, 0, -7),
		CloseTime:  closeT,
		RealizedPL: pl,
		Reason:     "expired",
	}
}

func TestSQLiteSchemaCreated(t *testing.T) {
	t.Parallel()

	j, path := newTestSQLite(t)
	require.NoError(t, j.Close())

	db, err := sql.Open("sqlite3", path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	rows, err := db.Query(`SELECT name FROM sqlite_master WHERE type='table'`)
	require.NoError(t, err)
	defer rows.Close()

	found := map[string]bool{}
	for rows.Next() {
		var name string
		require.NoError(t, rows.Scan(&name))
		found[name] = true
	}
	require.NoError(t, rows.Err())

	for _, name := range []string{"fills", "trades", "equity", "backtest_runs"} {
		assert.True(t, found[name], name)
	}
}

func TestSQLiteTradesRoundTrip(t *testing.T) {
	t.Parallel()

	j, _ := newTestSQLite(t)
	defer j.Close()

	day := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)
	want := sampleTrade("T1", day, -12.5)
	require.NoError(t, j.RecordTrade(want))
	require.NoError(t, j.RecordTrade(sampleTrade("T2", day.AddDate(0, 0, 3), 80)))

	got, err := j.GetTrade("T1")
	require.NoError(t, err)
	assert.Equal(t, want.Symbol, got.Symbol)
	assert.Equal(t, want.Strategy, got.Strategy)
	assert.Equal(t, want.Quantity, got.Quantity)
	assert.InDelta(t, want.RealizedPL, got.RealizedPL, 1e-9)
	assert.True(t, want.OpenTime.Equal(got.OpenTime))
	assert.True(t, want.CloseTime.Equal(got.CloseTime))

	_, err = j.GetTrade("missing")
	assert.ErrorIs(t, err, ErrNotFound)

	between, err := j.ListTradesClosedBetween(day, day.AddDate(0, 0, 1))
	require.NoError(t, err)
	require.Len(t, between, 1)
	assert.Equal(t, "T1", between[0].TradeID)

	byRun, err := j.ListTradesByRunID(context.Background(), "run-1")
	require.NoError(t, err)
	assert.Len(t, byRun, 2)

	s := Summarize(byRun)
	assert.Equal(t, 1, s.Wins)
	assert.Equal(t, 1, s.Losses)
	assert.InDelta(t, 80/12.5, s.ProfitFactor, 1e-9)
}

func TestSQLiteFillsAndEquity(t *testing.T) {
	t.Parallel()

	j, _ := newTestSQLite(t)
	defer j.Close()
	ctx := context.Background()

	day := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, j.RecordFill(FillRecord{
		RunID: "r", TradeID: "F1", Time: day, Symbol: "SPY240315P00480000",
		Side: "sell", Quantity: 1, Price: 2.5, Commission: 0.65, Strategy: "cash_secured_put",
	}))
	for i := 0; i < 3; i++ {
		require.NoError(t, j.RecordEquity(EquitySnapshot{
			RunID: "r", Time: day.AddDate(0, 0, i), Cash: 1000, Equity: 1000 + float64(i), DailyPL: 1, Positions: 1,
		}))
	}

	fills, err := j.ListFillsByRunID(ctx, "r")
	require.NoError(t, err)
	require.Len(t, fills, 1)
	assert.Equal(t, "sell", fills[0].Side)
	assert.True(t, fills[0].Time.Equal(day))

	eq, err := j.ListEquityByRunID(ctx, "r")
	require.NoError(t, err)
	require.Len(t, eq, 3)
	assert.InDelta(t, 1002, eq[2].Equity, 1e-9)

	eq, err = j.ListEquityBetween(day.AddDate(0, 0, 1), day.AddDate(0, 0, 3))
	require.NoError(t, err)
	assert.Len(t, eq, 2)
}

func TestSQLiteBacktestRun(t *testing.T) {
	t.Parallel()

	j, _ := newTestSQLite(t)
	defer j.Close()
	ctx := context.Background()

	run := BacktestRun{
		RunID:        "run-1",
		Created:      time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC),
		Dataset:      "synthetic seed=42",
		Universe:     "SPY,QQQ",
		Strategies:   "debit_vertical",
		Config:       []byte("seed: 42\n"),
		Start:        time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		End:          time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC),
		Trades:       2,
		Wins:         1,
		Losses:       1,
		StartBalance: 10000,
		EndBalance:   10067.5,
		NetPL:        67.5,
		ReturnPct:    0.675,
		WinRate:      0.5,
		ProfitFactor: 6.4,
		MaxDDPct:     1.2,
		Notes:        []string{"first", "second"},
	}
	require.NoError(t, j.RecordBacktest(ctx, run))
	require.NoError(t, j.RecordTrade(sampleTrade("T1", run.End, -12.5)))

	got, err := j.GetBacktestRun(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, run.Universe, got.Universe)
	assert.Equal(t, run.Config, got.Config)
	assert.Equal(t, run.Notes, got.Notes)
	assert.True(t, run.End.Equal(got.End))
	assert.InDelta(t, run.NetPL, got.NetPL, 1e-9)

	_, err = j.GetBacktestRun(ctx, "nope")
	assert.ErrorIs(t, err, ErrNotFound)

	org, err := j.ExportBacktestOrg(ctx, "run-1")
	require.NoError(t, err)
	assert.Contains(t, org, ":RUN_ID:      run-1")
	assert.Contains(t, org, "** Trades")
	assert.Contains(t, org, ":TRADE_ID: T1")
	assert.Contains(t, org, "seed: 42")
}
