package cmd

import (
	"fmt"
	"time"

	"github.com/rustyeddy/cppi/journal"
	"github.com/spf13/cobra"
)

var journalCmd = &cobra.Command{
	Use:   "journal",
	Short: "Query trade journal data",
	Long: `Query and display trade journal records from the SQLite database.

Subcommands:
  trade   - Get details of a specific trade by ID
  trades  - List closed trades for a run or a day
  equity  - Show the equity curve of a run
  org     - Export a backtest run as an Org-mode report

Examples:
  trader journal trade <trade-id>
  trader journal trades --run <run-id>
  trader journal trades --day 2024-01-15
  trader journal equity --run <run-id>
  trader journal org <run-id>`,
}

var journalTradeCmd = &cobra.Command{
	Use:   "trade <trade-id>",
	Short: "Get details of a specific trade",
	Args:  cobra.ExactArgs(1),
	RunE:  runJournalTrade,
}

var journalTradesCmd = &cobra.Command{
	Use:   "trades",
	Short: "List closed trades for a run or a day",
	Args:  cobra.NoArgs,
	RunE:  runJournalTrades,
}

var journalEquityCmd = &cobra.Command{
	Use:   "equity",
	Short: "Show the equity curve of a run",
	Args:  cobra.NoArgs,
	RunE:  runJournalEquity,
}

var journalOrgCmd = &cobra.Command{
	Use:   "org <run-id>",
	Short: "Export a backtest run as an Org-mode report",
	Args:  cobra.ExactArgs(1),
	RunE:  runJournalOrg,
}

var (
	journalRunID string
	journalDay   string
)

func init() {
	rootCmd.AddCommand(journalCmd)
	journalCmd.AddCommand(journalTradeCmd)
	journalCmd.AddCommand(journalTradesCmd)
	journalCmd.AddCommand(journalEquityCmd)
	journalCmd.AddCommand(journalOrgCmd)

	journalCmd.PersistentFlags().StringP("db", "d", "", "path to SQLite journal DB")
	journalTradesCmd.Flags().StringVar(&journalRunID, "run", "", "backtest run id")
	journalTradesCmd.Flags().StringVar(&journalDay, "day", "", "close date (YYYY-MM-DD)")
	journalEquityCmd.Flags().StringVar(&journalRunID, "run", "", "backtest run id (required)")
	journalEquityCmd.MarkFlagRequired("run")
}

func openJournal() (*journal.SQLite, error) {
	if cfg.Journal.SQLitePath == "" {
		return nil, fmt.Errorf("no journal: set --db or journal.sqlite_path")
	}
	j, err := journal.NewSQLite(cfg.Journal.SQLitePath)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	return j, nil
}

func runJournalTrade(cmd *cobra.Command, args []string) error {
	j, err := openJournal()
	if err != nil {
		return err
	}
	defer j.Close()

	rec, err := j.GetTrade(args[0])
	if err != nil {
		return fmt.Errorf("get trade: %w", err)
	}

	fmt.Println(journal.FormatTradeOrg(rec))
	return nil
}

func runJournalTrades(cmd *cobra.Command, args []string) error {
	j, err := openJournal()
	if err != nil {
		return err
	}
	defer j.Close()

	var recs []journal.TradeRecord
	switch {
	case journalRunID != "":
		recs, err = j.ListTradesByRunID(cmd.Context(), journalRunID)
	case journalDay != "":
		var start time.Time
		start, err = parseDate(journalDay)
		if err == nil {
			recs, err = j.ListTradesClosedBetween(start, start.Add(24*time.Hour))
		}
	default:
		return fmt.Errorf("set --run or --day")
	}
	if err != nil {
		return fmt.Errorf("query trades: %w", err)
	}

	fmt.Println(journal.FormatTradesOrg(recs))
	s := journal.Summarize(recs)
	fmt.Printf("Trades: %d  Wins: %d  Losses: %d  Profit factor: %.2f\n", s.Trades, s.Wins, s.Losses, s.ProfitFactor)
	return nil
}

func runJournalEquity(cmd *cobra.Command, args []string) error {
	j, err := openJournal()
	if err != nil {
		return err
	}
	defer j.Close()

	snaps, err := j.ListEquityByRunID(cmd.Context(), journalRunID)
	if err != nil {
		return fmt.Errorf("query equity: %w", err)
	}

	fmt.Printf("%-10s %12s %12s %10s %5s\n", "Date", "Cash", "Equity", "Daily P/L", "Pos")
	for _, e := range snaps {
		fmt.Printf("%-10s %12.2f %12.2f %10.2f %5d\n",
			e.Time.Format("2006-01-02"), e.Cash, e.Equity, e.DailyPL, e.Positions)
	}
	return nil
}

func runJournalOrg(cmd *cobra.Command, args []string) error {
	j, err := openJournal()
	if err != nil {
		return err
	}
	defer j.Close()

	out, err := j.ExportBacktestOrg(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("export: %w", err)
	}
	fmt.Print(out)
	return nil
}
