package journal

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

const tradeColumns = `trade_id, run_id, symbol, strategy, quantity, cost_basis, proceeds, open_time, close_time, realized_pl, reason`

type scanner interface {
	Scan(dest ...any) error
}

func scanTrade(s scanner) (TradeRecord, error) {
	var rec TradeRecord
	err := s.Scan(
		&rec.TradeID,
		&rec.RunID,
		&rec.Symbol,
		&rec.Strategy,
		&rec.Quantity,
		&rec.CostBasis,
		&rec.Proceeds,
		&rec.OpenTime,
		&rec.CloseTime,
		&rec.RealizedPL,
		&rec.Reason,
	)
	return rec, err
}

func collectTrades(rows *sql.Rows) ([]TradeRecord, error) {
	defer rows.Close()

	var out []TradeRecord
	for rows.Next() {
		rec, err := scanTrade(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// GetTrade returns a single closed trade by ID.
func (j *SQLite) GetTrade(tradeID string) (TradeRecord, error) {
	row := j.db.QueryRow(`SELECT `+tradeColumns+` FROM trades WHERE trade_id = ?`, tradeID)
	rec, err := scanTrade(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return TradeRecord{}, fmt.Errorf("trade %q: %w", tradeID, ErrNotFound)
		}
		return TradeRecord{}, err
	}
	return rec, nil
}

// ListTradesClosedBetween returns trades whose close_time is within [start, end).
func (j *SQLite) ListTradesClosedBetween(start, end time.Time) ([]TradeRecord, error) {
	rows, err := j.db.Query(`
		SELECT `+tradeColumns+`
		FROM trades
		WHERE close_time >= ? AND close_time < ?
		ORDER BY close_time ASC, trade_id ASC`, start.UTC(), end.UTC())
	if err != nil {
		return nil, err
	}
	return collectTrades(rows)
}

func (j *SQLite) ListTradesByRunID(ctx context.Context, runID string) ([]TradeRecord, error) {
	rows, err := j.db.QueryContext(ctx, `
		SELECT `+tradeColumns+`
		FROM trades
		WHERE run_id = ?
		ORDER BY close_time ASC, trade_id ASC`, runID)
	if err != nil {
		return nil, err
	}
	return collectTrades(rows)
}

func (j *SQLite) ListFillsByRunID(ctx context.Context, runID string) ([]FillRecord, error) {
	rows, err := j.db.QueryContext(ctx, `
		SELECT trade_id, run_id, time, symbol, side, quantity, price, commission, strategy
		FROM fills
		WHERE run_id = ?
		ORDER BY time ASC, trade_id ASC`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []FillRecord
	for rows.Next() {
		var f FillRecord
		if err := rows.Scan(&f.TradeID, &f.RunID, &f.Time, &f.Symbol, &f.Side,
			&f.Quantity, &f.Price, &f.Commission, &f.Strategy); err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// ListEquityBetween returns equity snapshots with time within [start, end).
func (j *SQLite) ListEquityBetween(start, end time.Time) ([]EquitySnapshot, error) {
	rows, err := j.db.Query(`
		SELECT run_id, time, cash, equity, daily_pl, positions
		FROM equity
		WHERE time >= ? AND time < ?
		ORDER BY time ASC`, start.UTC(), end.UTC())
	if err != nil {
		return nil, err
	}
	return collectEquity(rows)
}

func (j *SQLite) ListEquityByRunID(ctx context.Context, runID string) ([]EquitySnapshot, error) {
	rows, err := j.db.QueryContext(ctx, `
		SELECT run_id, time, cash, equity, daily_pl, positions
		FROM equity
		WHERE run_id = ?
		ORDER BY time ASC`, runID)
	if err != nil {
		return nil, err
	}
	return collectEquity(rows)
}

func collectEquity(rows *sql.Rows) ([]EquitySnapshot, error) {
	defer rows.Close()

	var out []EquitySnapshot
	for rows.Next() {
		var e EquitySnapshot
		if err := rows.Scan(&e.RunID, &e.Time, &e.Cash, &e.Equity, &e.DailyPL, &e.Positions); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// TradeStats sums realized P&L over a set of closed trades.
type TradeStats struct {
	Trades       int
	Wins         int
	Losses       int
	GrossProfit  float64
	GrossLoss    float64
	ProfitFactor float64
}

func Summarize(recs []TradeRecord) TradeStats {
	var s TradeStats
	for _, r := range recs {
		s.Trades++
		switch {
		case r.RealizedPL > 0:
			s.Wins++
			s.GrossProfit += r.RealizedPL
		case r.RealizedPL < 0:
			s.Losses++
			s.GrossLoss -= r.RealizedPL
		}
	}
	if s.GrossLoss > 0 {
		s.ProfitFactor = s.GrossProfit / s.GrossLoss
	}
	return s
}
