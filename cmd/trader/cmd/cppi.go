package cmd

import (
	"fmt"
	"time"

	"github.com/rustyeddy/cppi/risk"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

var cppiCmd = &cobra.Command{
	Use:   "cppi",
	Short: "Show the CPPI floor, cushion and sleeve targets",
	Long: `Compute the CPPI state for a book of sleeve equities on a date.

Example:
  trader cppi --date 2024-02-26 --debit 4200 --credit 4100 --straddle 1900 --collar 300 --hedge 500 --last-week 4`,
	RunE: runCPPI,
}

var allocateCmd = &cobra.Command{
	Use:   "allocate",
	Short: "Split a deposit across sleeves",
	Long: `Allocate a deposit toward the sleeves that are furthest below target.

Example:
  trader allocate --deposit 100 --debit 4200 --credit 4100 --straddle 1900 --collar 300 --hedge 500`,
	RunE: runAllocate,
}

var budgetCmd = &cobra.Command{
	Use:   "budget",
	Short: "Show each sleeve's risk budget for a date",
	RunE:  runBudget,
}

// book holds the sleeve equity flags shared by the policy commands.
type book struct {
	date     string
	lastWeek int
	sleeves  [5]float64
}

var (
	cppiBook     book
	allocateBook book
	budgetBook   book
	planBook     book

	allocateDeposit float64
)

func (b *book) addFlags(f *pflag.FlagSet) {
	f.StringVar(&b.date, "date", "", "as-of date (YYYY-MM-DD, default policy start)")
	f.IntVar(&b.lastWeek, "last-week", 0, "week index of the last executed rebalance")
	for _, s := range risk.Sleeves() {
		f.Float64Var(&b.sleeves[s], s.String(), 0, s.String()+" sleeve equity")
	}
}

func (b *book) equities() risk.SleeveEquities {
	s := b.sleeves
	return risk.EquitiesFromFloats(s[risk.Debit], s[risk.Credit], s[risk.Straddle], s[risk.Collar], s[risk.Hedge])
}

func (b *book) asOf(p *risk.Policy) (time.Time, error) {
	if b.date == "" {
		return p.Config().StartDate, nil
	}
	return parseDate(b.date)
}

// seed places the policy's initial capital at the opening target weights
// when no sleeve equity was given.
func (b *book) seed(p *risk.Policy) risk.SleeveEquities {
	eq := b.equities()
	if !eq.Total.IsZero() {
		return eq
	}
	capital := decimal.NewFromFloat(p.Config().InitialCapital)
	m := p.Metrics(risk.SleeveEquities{}.With(risk.Collar, capital), p.Config().StartDate, risk.RebalanceState{})
	return risk.ComputeContributionsAllocation(m.TargetWeights, risk.SleeveEquities{}, capital)
}

func init() {
	rootCmd.AddCommand(cppiCmd)
	rootCmd.AddCommand(allocateCmd)
	rootCmd.AddCommand(budgetCmd)

	cppiBook.addFlags(cppiCmd.Flags())
	allocateBook.addFlags(allocateCmd.Flags())
	budgetBook.addFlags(budgetCmd.Flags())

	allocateCmd.Flags().Float64Var(&allocateDeposit, "deposit", 0, "deposit to allocate (default policy weekly deposit)")
}

func runCPPI(cmd *cobra.Command, args []string) error {
	p, err := risk.NewPolicy(cfg.Policy)
	if err != nil {
		return err
	}
	date, err := cppiBook.asOf(p)
	if err != nil {
		return err
	}
	eq := cppiBook.seed(p)
	m := p.Metrics(eq, date, risk.RebalanceState{LastWeek: cppiBook.lastWeek})

	fmt.Printf("CPPI state on %s (week %d)\n", date.Format("2006-01-02"), m.WeeksSinceStart)
	fmt.Printf("  Equity:          $%s\n", eq.Total.StringFixed(2))
	fmt.Printf("  Invested:        $%s\n", m.InvestedToDate.StringFixed(2))
	fmt.Printf("  Floor:           $%s\n", m.Floor.StringFixed(2))
	fmt.Printf("  Cushion:         $%s\n", m.Cushion.StringFixed(2))
	fmt.Printf("  Risky weight:    %.2f%%\n", m.RiskyWeight*100)
	fmt.Printf("  Needs rebalance: %t\n\n", m.NeedsRebalance)

	fmt.Printf("  %-10s %10s %10s\n", "Sleeve", "Current", "Target")
	for _, s := range risk.Sleeves() {
		fmt.Printf("  %-10s %9.2f%% %9.2f%%\n", s, m.CurrentWeights.Of(s)*100, m.TargetWeights.Of(s)*100)
	}
	return nil
}

func runAllocate(cmd *cobra.Command, args []string) error {
	p, err := risk.NewPolicy(cfg.Policy)
	if err != nil {
		return err
	}
	date, err := allocateBook.asOf(p)
	if err != nil {
		return err
	}
	deposit := allocateDeposit
	if !cmd.Flags().Changed("deposit") {
		deposit = cfg.Policy.WeeklyDeposit
	}

	eq := allocateBook.seed(p)
	m := p.Metrics(eq, date, risk.RebalanceState{LastWeek: allocateBook.lastWeek})
	alloc := risk.ComputeContributionsAllocation(m.TargetWeights, eq, decimal.NewFromFloat(deposit))

	fmt.Printf("Deposit $%.2f on %s\n", deposit, date.Format("2006-01-02"))
	for _, s := range risk.Sleeves() {
		fmt.Printf("  %-10s $%10s\n", s, alloc.Of(s).StringFixed(2))
	}
	fmt.Printf("  %-10s $%10s\n", "total", alloc.Total.StringFixed(2))
	return nil
}

func runBudget(cmd *cobra.Command, args []string) error {
	p, err := risk.NewPolicy(cfg.Policy)
	if err != nil {
		return err
	}
	date, err := budgetBook.asOf(p)
	if err != nil {
		return err
	}
	eq := budgetBook.seed(p)

	fmt.Printf("Risk budgets on %s (week %d)\n", date.Format("2006-01-02"), p.WeeksSinceStart(date))
	fmt.Printf("  %-10s %12s %10s %9s\n", "Sleeve", "Equity", "Budget", "Eligible")
	for _, s := range risk.Sleeves() {
		fmt.Printf("  %-10s $%11s $%9s %9t\n", s,
			eq.Of(s).StringFixed(2), p.SleeveBudget(s, eq.Of(s)).StringFixed(2), p.Eligible(s, date))
	}
	return nil
}
