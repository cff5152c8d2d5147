package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rustyeddy/cppi/backtest"
	"github.com/rustyeddy/cppi/config"
	"github.com/rustyeddy/cppi/journal"
	"github.com/rustyeddy/cppi/sim"
	"github.com/spf13/cobra"
)

var backtestCmd = &cobra.Command{
	Use:   "backtest",
	Short: "Backtest option strategies on a synthetic market",
	Long: `Backtest generates a seeded synthetic market for the configured universe,
runs every configured strategy on its schedule, and reports equity and trade
statistics. With --overlay the CPPI policy sizes each sleeve, credits weekly
deposits and records rebalances.

Supported archetypes:
  debit_vertical, credit_put_vertical, straddle, cash_secured_put,
  hedge_put, collar

Example:
  trader backtest --start 2024-01-01 --end 2024-06-30 --seed 7 --overlay --json run.json`,
	RunE: runBacktest,
}

var (
	btJSONPath    string
	btMetricsPath string
)

func init() {
	rootCmd.AddCommand(backtestCmd)

	f := backtestCmd.Flags()
	f.String("start", "", "first simulated day (YYYY-MM-DD)")
	f.String("end", "", "last simulated day (YYYY-MM-DD)")
	f.Int64("seed", 42, "market and execution seed")
	f.Float64("capital", 10_000, "starting cash")
	f.StringSlice("universe", nil, "underlying symbols")
	f.Bool("overlay", false, "size sleeves with the CPPI policy")
	f.StringP("db", "d", "", "SQLite journal path")
	f.String("csv-dir", "", "directory for fills/trades/equity CSV files")
	f.String("org", "", "write an Org-mode run report to this path")

	f.StringVar(&btJSONPath, "json", "", "write the full result as JSON")
	f.StringVar(&btMetricsPath, "metrics-file", "", "write run counters in Prometheus text format")

	flagKeys["start"] = "backtest.start_date"
	flagKeys["end"] = "backtest.end_date"
	flagKeys["seed"] = "backtest.seed"
	flagKeys["capital"] = "backtest.initial_capital"
	flagKeys["universe"] = "backtest.universe"
	flagKeys["overlay"] = "overlay"
	flagKeys["db"] = "journal.sqlite_path"
	flagKeys["csv-dir"] = "journal.csv_dir"
	flagKeys["org"] = "journal.org_path"
}

func runBacktest(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	sinks, db, err := openSinks(cfg.Journal)
	if err != nil {
		return err
	}
	defer sinks.Close()

	reg := prometheus.NewRegistry()
	runner := &backtest.Runner{
		Config:  cfg.BacktestConfig(),
		Journal: sinks,
		Metrics: sim.NewMetrics(reg),
		Logger:  logger,
	}

	bc := runner.Config
	fmt.Printf("Running backtest: %s to %s\n", bc.StartDate.Format("2006-01-02"), bc.EndDate.Format("2006-01-02"))
	fmt.Printf("  Universe: %v\n", bc.Universe)
	fmt.Printf("  Seed: %d  CPPI overlay: %t\n\n", bc.Seed, bc.Policy != nil)

	res, err := runner.Run(ctx)
	if err != nil {
		return fmt.Errorf("backtest: %w", err)
	}
	backtest.PrintSummary(os.Stdout, res)

	if err := saveRun(ctx, db, res.JournalRun(), cfg.Journal.OrgPath); err != nil {
		return err
	}
	if db != nil {
		fmt.Printf("\nJournal: %s (run %s)\n", cfg.Journal.SQLitePath, res.RunID)
	}
	if cfg.Journal.OrgPath != "" {
		fmt.Printf("Org report: %s\n", cfg.Journal.OrgPath)
	}
	if btJSONPath != "" {
		if err := res.SaveJSON(btJSONPath); err != nil {
			return err
		}
		fmt.Printf("Result: %s\n", btJSONPath)
	}
	if btMetricsPath != "" {
		if err := prometheus.WriteToTextfile(btMetricsPath, reg); err != nil {
			return fmt.Errorf("metrics: %w", err)
		}
		fmt.Printf("Metrics: %s\n", btMetricsPath)
	}
	return nil
}

// openSinks opens every configured journal. When one fails, those already
// open are closed before the error is returned.
func openSinks(jc config.JournalConfig) (sinks journal.Multi, db *journal.SQLite, err error) {
	defer func() {
		if err != nil {
			sinks.Close()
			sinks, db = nil, nil
		}
	}()

	if jc.SQLitePath != "" {
		j, err := journal.NewSQLite(jc.SQLitePath)
		if err != nil {
			return sinks, nil, fmt.Errorf("open db: %w", err)
		}
		db = j
		sinks = append(sinks, j)
	}
	if dir := jc.CSVDir; dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return sinks, db, fmt.Errorf("csv dir: %w", err)
		}
		j, err := journal.NewCSV(
			filepath.Join(dir, "fills.csv"),
			filepath.Join(dir, "trades.csv"),
			filepath.Join(dir, "equity.csv"))
		if err != nil {
			return sinks, db, fmt.Errorf("open csv: %w", err)
		}
		sinks = append(sinks, j)
	}
	return sinks, db, nil
}

// saveRun stamps the run with its Org report path, writes the report, and
// then stores the run summary so the row points at the report.
func saveRun(ctx context.Context, db *journal.SQLite, run journal.BacktestRun, orgPath string) error {
	run.OrgPath = orgPath
	if orgPath != "" {
		if err := run.WriteBacktestOrg(); err != nil {
			return fmt.Errorf("org report: %w", err)
		}
	}
	if db != nil {
		if err := db.RecordBacktest(ctx, run); err != nil {
			return fmt.Errorf("record run: %w", err)
		}
	}
	return nil
}
