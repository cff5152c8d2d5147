package journal

import (
	"encoding/csv"
	"os"
	"strconv"
	"time"
)

// CSV writes fills, closed trades, and equity to three files.
type CSV struct {
	fills  *csv.Writer
	trades *csv.Writer
	equity *csv.Writer
	files  []*os.File
}

func NewCSV(fillsPath, tradesPath, equityPath string) (*CSV, error) {
	j := &CSV{}
	open := func(path string, header []string) (*csv.Writer, error) {
		fh, err := os.Create(path)
		if err != nil {
			return nil, err
		}
		j.files = append(j.files, fh)
		w := csv.NewWriter(fh)
		if err := w.Write(header); err != nil {
			return nil, err
		}
		w.Flush()
		return w, w.Error()
	}

	var err error
	if j.fills, err = open(fillsPath, []string{"trade_id", "run_id", "time", "symbol", "side", "quantity", "price", "commission", "strategy"}); err != nil {
		j.closeFiles()
		return nil, err
	}
	if j.trades, err = open(tradesPath, []string{"trade_id", "run_id", "symbol", "strategy", "quantity", "cost_basis", "proceeds", "open_time", "close_time", "realized_pl", "reason"}); err != nil {
		j.closeFiles()
		return nil, err
	}
	if j.equity, err = open(equityPath, []string{"run_id", "time", "cash", "equity", "daily_pl", "positions"}); err != nil {
		j.closeFiles()
		return nil, err
	}
	return j, nil
}

func (j *CSV) RecordFill(r FillRecord) error {
	return write(j.fills, []string{
		r.TradeID,
		r.RunID,
		r.Time.UTC().Format(time.RFC3339),
		r.Symbol,
		r.Side,
		strconv.Itoa(r.Quantity),
		f(r.Price),
		f(r.Commission),
		r.Strategy,
	})
}

func (j *CSV) RecordTrade(t TradeRecord) error {
	return write(j.trades, []string{
		t.TradeID,
		t.RunID,
		t.Symbol,
		t.Strategy,
		strconv.Itoa(t.Quantity),
		f(t.CostBasis),
		f(t.Proceeds),
		t.OpenTime.UTC().Format(time.RFC3339),
		t.CloseTime.UTC().Format(time.RFC3339),
		f(t.RealizedPL),
		t.Reason,
	})
}

func (j *CSV) RecordEquity(e EquitySnapshot) error {
	return write(j.equity, []string{
		e.RunID,
		e.Time.UTC().Format(time.RFC3339),
		f(e.Cash),
		f(e.Equity),
		f(e.DailyPL),
		strconv.Itoa(e.Positions),
	})
}

func (j *CSV) Close() error {
	for _, w := range []*csv.Writer{j.fills, j.trades, j.equity} {
		w.Flush()
		if err := w.Error(); err != nil {
			j.closeFiles()
			return err
		}
	}
	return j.closeFiles()
}

func (j *CSV) closeFiles() error {
	var first error
	for _, fh := range j.files {
		if err := fh.Close(); err != nil && first == nil {
			first = err
		}
	}
	j.files = nil
	return first
}

func write(w *csv.Writer, rec []string) error {
	if err := w.Write(rec); err != nil {
		return err
	}
	w.Flush()
	return w.Error()
}

func f(x float64) string {
	return strconv.FormatFloat(x, 'f', 6, 64)
}
