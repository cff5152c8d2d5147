package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/rustyeddy/cppi/broker"
	papersim "github.com/rustyeddy/cppi/broker/sim"
	"github.com/rustyeddy/cppi/live"
	"github.com/rustyeddy/cppi/market/synthetic"
	"github.com/rustyeddy/cppi/risk"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Plan this week's sleeve orders",
	Long: `Plan resolves the account, computes the CPPI state, builds each configured
live entry from the option chain, sizes it from its sleeve budget and, unless
dry-run is set, submits the legs.

Orders go to the paper broker, which quotes a synthetic market seeded from
backtest.seed as of --date.

Example:
  trader plan --date 2024-01-29 --last-week 0 --dry-run=false`,
	RunE: runPlan,
}

var planJSONPath string

func init() {
	rootCmd.AddCommand(planCmd)

	planBook.addFlags(planCmd.Flags())
	planCmd.Flags().Bool("dry-run", true, "plan without submitting orders")
	planCmd.Flags().Int64("account", 0, "broker account id")
	planCmd.Flags().StringVar(&planJSONPath, "json", "", "write the plan as JSON")

	flagKeys["dry-run"] = "broker.dry_run"
	flagKeys["account"] = "broker.account_id"
}

func runPlan(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	p, err := risk.NewPolicy(cfg.Policy)
	if err != nil {
		return err
	}
	date, err := planBook.asOf(p)
	if err != nil {
		return err
	}

	var symbols []string
	seen := make(map[string]bool)
	for _, e := range cfg.Live.Entries {
		if !seen[e.Underlying] {
			seen[e.Underlying] = true
			symbols = append(symbols, e.Underlying)
		}
	}
	ds, err := synthetic.NewGenerator(cfg.Backtest.Seed, cfg.Backtest.Market).Generate(symbols, date, date)
	if err != nil {
		return fmt.Errorf("market: %w", err)
	}

	eq := planBook.seed(p)
	acct := broker.Account{
		ID:      cfg.Broker.AccountID,
		Number:  fmt.Sprint(cfg.Broker.AccountID),
		Sandbox: cfg.Broker.Sandbox,
		Equity:  eq.Total.InexactFloat64(),
	}
	planner := &live.Planner{
		Broker:       papersim.New(ds, date, acct, papersim.WithLogger(logger), papersim.WithSeed(cfg.Backtest.Seed)),
		Policy:       p,
		Entries:      cfg.Live.Entries,
		Deposit:      decimal.NewFromFloat(cfg.Live.Deposit),
		MaxContracts: cfg.Broker.MaxContracts,
		DryRun:       cfg.Broker.DryRun,
		Logger:       logger,
	}

	plan, err := planner.Plan(ctx, date, eq, risk.RebalanceState{LastWeek: planBook.lastWeek})
	if err != nil {
		return fmt.Errorf("plan: %w", err)
	}
	printPlan(plan)

	if planJSONPath != "" {
		b, err := json.MarshalIndent(plan, "", "  ")
		if err != nil {
			return err
		}
		if err := os.WriteFile(planJSONPath, b, 0644); err != nil {
			return err
		}
		fmt.Printf("\nPlan: %s\n", planJSONPath)
	}
	return nil
}

func printPlan(plan *live.Plan) {
	m := plan.Metrics
	fmt.Printf("Plan for %s (week %d, account %d, dry run %t)\n",
		plan.Date.Format("2006-01-02"), m.WeeksSinceStart, plan.Account.ID, plan.DryRun)
	fmt.Printf("  Floor $%s  Cushion $%s  Risky weight %.2f%%\n",
		m.Floor.StringFixed(2), m.Cushion.StringFixed(2), m.RiskyWeight*100)

	fmt.Println("\nContributions")
	for _, s := range risk.Sleeves() {
		fmt.Printf("  %-10s $%s\n", s, plan.Contributions.Of(s).StringFixed(2))
	}

	fmt.Println("\nEntries")
	for _, o := range plan.Outcomes {
		status := "submitted " + strings.Join(o.OrderIDs, ",")
		if o.Skipped != "" {
			status = "skipped: " + o.Skipped
		}
		fmt.Printf("  %-20s %-9s budget $%8.2f  %d legs x%d  %s\n",
			o.Entry, o.Sleeve, o.Budget, len(o.Legs), o.Decision.Contracts, status)
	}

	fmt.Println()
	if plan.Rebalanced {
		fmt.Printf("Rebalanced: next --last-week %d\n", plan.State.LastWeek)
	} else if m.NeedsRebalance {
		fmt.Println("Rebalance due (not marked in dry run)")
	}
}
