package backtest

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rustyeddy/cppi/journal"
	"github.com/rustyeddy/cppi/risk"
	"github.com/rustyeddy/cppi/sim"
	"gopkg.in/yaml.v3"
)

// Result is everything a run produced. It round-trips through JSON.
type Result struct {
	RunID       string                `json:"run_id"`
	Created     time.Time             `json:"created"`
	Config      Config                `json:"config"`
	Trades      []sim.Trade           `json:"trades"`
	Closed      []sim.ClosedPosition  `json:"closed"`
	OpenAtEnd   []sim.ClosedPosition  `json:"open_at_end,omitempty"`
	DailyPnL    []DailyPnL            `json:"daily_pnl"`
	Metrics     Metrics               `json:"metrics"`
	PerStrategy map[string]TradeStats `json:"per_strategy"`
	CPPI        []risk.CPPIMetrics    `json:"cppi,omitempty"`
	Rebalances  []RebalanceEvent      `json:"rebalances,omitempty"`
}

func (r *Result) SaveJSON(path string) error {
	b, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("backtest: encode result: %w", err)
	}
	return os.WriteFile(path, b, 0644)
}

func LoadJSON(path string) (*Result, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var r Result
	if err := json.Unmarshal(b, &r); err != nil {
		return nil, fmt.Errorf("backtest: decode %s: %w", path, err)
	}
	return &r, nil
}

// JournalRun flattens the result into a backtest_runs row.
func (r *Result) JournalRun() journal.BacktestRun {
	cfgYAML, _ := yaml.Marshal(r.Config)

	names := make([]string, 0, len(r.Config.Strategies))
	for _, s := range r.Config.Strategies {
		names = append(names, s.Name)
	}

	m := r.Metrics
	run := journal.BacktestRun{
		RunID:        r.RunID,
		Created:      r.Created,
		Dataset:      fmt.Sprintf("synthetic seed=%d", r.Config.Seed),
		Universe:     strings.Join(r.Config.Universe, ","),
		Strategies:   strings.Join(names, ","),
		Config:       cfgYAML,
		Start:        r.Config.StartDate,
		End:          r.Config.EndDate,
		Trades:       m.Trades,
		Wins:         m.Wins,
		Losses:       m.Losses,
		StartBalance: m.StartEquity,
		EndBalance:   m.EndEquity,
		NetPL:        m.NetPL,
		ReturnPct:    m.TotalReturn * 100,
		AnnReturnPct: m.AnnualizedReturn * 100,
		VolPct:       m.Volatility * 100,
		Sharpe:       m.Sharpe,
		WinRate:      m.WinRate,
		ProfitFactor: m.ProfitFactor,
		MaxDDPct:     m.MaxDrawdown * 100,
	}
	if m.Deposits > 0 {
		run.Notes = append(run.Notes, fmt.Sprintf("deposits of %.2f excluded from returns", m.Deposits))
	}
	if n := len(r.Rebalances); n > 0 {
		run.Notes = append(run.Notes, fmt.Sprintf("%d CPPI rebalances", n))
	}
	if n := len(r.OpenAtEnd); n > 0 {
		run.Notes = append(run.Notes, fmt.Sprintf("%d positions valued at the final mark", n))
	}
	return run
}
