package backtest

import (
	"fmt"
	"io"
	"sort"
	"time"
)

// PrintSummary writes a human readable report of r to w.
func PrintSummary(w io.Writer, r *Result) {
	run := r.JournalRun()
	m := r.Metrics

	fmt.Fprintln(w, "==================================================")
	fmt.Fprintln(w, " Backtest Result")
	fmt.Fprintln(w, "==================================================")

	fmt.Fprintf(w, "Run ID:        %s\n", run.RunID)
	fmt.Fprintf(w, "Created:       %s\n", run.Created.Format(time.RFC3339))
	fmt.Fprintf(w, "Dataset:       %s\n", run.Dataset)
	fmt.Fprintf(w, "Universe:      %s\n", run.Universe)
	fmt.Fprintf(w, "Strategies:    %s\n", run.Strategies)

	fmt.Fprintln(w)
	fmt.Fprintln(w, "Period")
	fmt.Fprintln(w, "--------------------------------------------------")
	fmt.Fprintf(w, "Start:         %s\n", run.Start.Format(time.DateOnly))
	fmt.Fprintf(w, "End:           %s\n", run.End.Format(time.DateOnly))
	fmt.Fprintf(w, "Days:          %d\n", m.TradingDays)

	fmt.Fprintln(w)
	fmt.Fprintln(w, "Trade Statistics")
	fmt.Fprintln(w, "--------------------------------------------------")
	fmt.Fprintf(w, "Fills:         %d\n", m.Fills)
	fmt.Fprintf(w, "Trades:        %d\n", m.Trades)
	fmt.Fprintf(w, "Wins:          %d\n", m.Wins)
	fmt.Fprintf(w, "Losses:        %d\n", m.Losses)
	fmt.Fprintf(w, "Win Rate:      %.2f%%\n", m.WinRate*100)
	if m.ProfitFactor > 0 {
		fmt.Fprintf(w, "Profit Factor: %.2f\n", m.ProfitFactor)
	}
	fmt.Fprintf(w, "Commission:    %.2f\n", m.Commission)

	fmt.Fprintln(w)
	fmt.Fprintln(w, "Account Performance")
	fmt.Fprintln(w, "--------------------------------------------------")
	fmt.Fprintf(w, "Start Equity:  %.2f\n", m.StartEquity)
	if m.Deposits > 0 {
		fmt.Fprintf(w, "Deposits:      %.2f\n", m.Deposits)
	}
	fmt.Fprintf(w, "End Equity:    %.2f\n", m.EndEquity)
	fmt.Fprintf(w, "Net P/L:       %.2f\n", m.NetPL)
	fmt.Fprintf(w, "Return:        %.2f%%\n", run.ReturnPct)
	fmt.Fprintf(w, "Annualized:    %.2f%%\n", run.AnnReturnPct)
	fmt.Fprintf(w, "Volatility:    %.2f%%\n", run.VolPct)
	fmt.Fprintf(w, "Sharpe:        %.2f\n", m.Sharpe)
	fmt.Fprintf(w, "Max Drawdown:  %.2f%%\n", run.MaxDDPct)

	if len(r.PerStrategy) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "By Strategy")
		fmt.Fprintln(w, "--------------------------------------------------")
		names := make([]string, 0, len(r.PerStrategy))
		for k := range r.PerStrategy {
			names = append(names, k)
		}
		sort.Strings(names)
		for _, k := range names {
			s := r.PerStrategy[k]
			fmt.Fprintf(w, "%-20s trades %4d  win %6.2f%%  pf %5.2f  pl %10.2f\n",
				k, s.Trades, s.WinRate*100, s.ProfitFactor, s.RealizedPL)
		}
	}

	if len(run.Notes) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Observations")
		fmt.Fprintln(w, "--------------------------------------------------")
		for _, note := range run.Notes {
			fmt.Fprintf(w, "- %s\n", note)
		}
	}

	fmt.Fprintln(w)
}
