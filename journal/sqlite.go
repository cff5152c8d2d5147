package journal

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	_ "github.com/mattn/go-sqlite3"
)

var ErrNotFound = errors.New("not found")

type SQLite struct {
	db *sql.DB
}

func NewSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	if _, err := db.Exec(Schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("journal: create schema: %w", err)
	}

	return &SQLite{db: db}, nil
}

func (j *SQLite) RecordFill(f FillRecord) error {
	_, err := j.db.Exec(`
		INSERT INTO fills
		(trade_id, run_id, time, symbol, side, quantity, price, commission, strategy)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		f.TradeID, f.RunID, f.Time.UTC(), f.Symbol, f.Side,
		f.Quantity, f.Price, f.Commission, f.Strategy,
	)
	return err
}

func (j *SQLite) RecordTrade(t TradeRecord) error {
	_, err := j.db.Exec(`
		INSERT INTO trades
		(trade_id, run_id, symbol, strategy, quantity, cost_basis, proceeds, open_time, close_time, realized_pl, reason)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.TradeID, t.RunID, t.Symbol, t.Strategy, t.Quantity, t.CostBasis,
		t.Proceeds, t.OpenTime.UTC(), t.CloseTime.UTC(), t.RealizedPL, t.Reason,
	)
	return err
}

func (j *SQLite) RecordEquity(e EquitySnapshot) error {
	_, err := j.db.Exec(`
		INSERT INTO equity
		(run_id, time, cash, equity, daily_pl, positions)
		VALUES (?, ?, ?, ?, ?, ?)`,
		e.RunID, e.Time.UTC(), e.Cash, e.Equity, e.DailyPL, e.Positions,
	)
	return err
}

func (j *SQLite) RecordBacktest(ctx context.Context, r BacktestRun) error {
	_, err := j.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO backtest_runs
		(run_id, created, dataset, universe, strategies, config, start_date, end_date,
		 trades, wins, losses, start_balance, end_balance, net_pl, return_pct,
		 ann_return_pct, vol_pct, sharpe, win_rate, profit_factor, max_dd_pct, org_path, notes)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.RunID, r.Created.UTC(), r.Dataset, r.Universe, r.Strategies, r.Config,
		r.Start.UTC(), r.End.UTC(), r.Trades, r.Wins, r.Losses, r.StartBalance,
		r.EndBalance, r.NetPL, r.ReturnPct, r.AnnReturnPct, r.VolPct, r.Sharpe,
		r.WinRate, r.ProfitFactor, r.MaxDDPct, r.OrgPath, strings.Join(r.Notes, "\n"),
	)
	return err
}

func (j *SQLite) GetBacktestRun(ctx context.Context, runID string) (BacktestRun, error) {
	var (
		r     BacktestRun
		notes string
	)
	row := j.db.QueryRowContext(ctx, `
		SELECT run_id, created, dataset, universe, strategies, config, start_date, end_date,
		       trades, wins, losses, start_balance, end_balance, net_pl, return_pct,
		       ann_return_pct, vol_pct, sharpe, win_rate, profit_factor, max_dd_pct, org_path, notes
		FROM backtest_runs
		WHERE run_id = ?`, runID)
	err := row.Scan(
		&r.RunID, &r.Created, &r.Dataset, &r.Universe, &r.Strategies, &r.Config,
		&r.Start, &r.End, &r.Trades, &r.Wins, &r.Losses, &r.StartBalance,
		&r.EndBalance, &r.NetPL, &r.ReturnPct, &r.AnnReturnPct, &r.VolPct,
		&r.Sharpe, &r.WinRate, &r.ProfitFactor, &r.MaxDDPct, &r.OrgPath, &notes,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return BacktestRun{}, fmt.Errorf("backtest run %q: %w", runID, ErrNotFound)
		}
		return BacktestRun{}, err
	}
	if notes != "" {
		r.Notes = strings.Split(notes, "\n")
	}
	return r, nil
}

// ExportBacktestOrg loads a run and its trades and returns the Org block.
func (j *SQLite) ExportBacktestOrg(ctx context.Context, runID string) (string, error) {
	run, err := j.GetBacktestRun(ctx, runID)
	if err != nil {
		return "", err
	}
	trades, err := j.ListTradesByRunID(ctx, runID)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	if err := run.WriteOrg(&b); err != nil {
		return "", err
	}
	if len(trades) > 0 {
		b.WriteString("\n** Trades\n")
		b.WriteString(FormatTradesOrg(trades))
		b.WriteString("\n")
	}
	return b.String(), nil
}

func (j *SQLite) Close() error {
	return j.db.Close()
}
