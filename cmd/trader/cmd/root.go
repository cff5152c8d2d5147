package cmd

import (
	"fmt"
	"time"

	"github.com/rustyeddy/cppi/config"
	"github.com/rustyeddy/cppi/internal/logging"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var rootCmd = &cobra.Command{
	Use:   "trader",
	Short: "CPPI sleeve policy and options backtesting",
	Long: `Trader runs a CPPI (constant proportion portfolio insurance) policy over
five option sleeves and backtests option strategies on synthetic markets.

It provides tools for:
  - Backtesting debit, credit, straddle, collar and hedge strategies
  - Computing the CPPI floor, cushion and sleeve target weights
  - Splitting weekly deposits across sleeves
  - Planning (and paper-submitting) the week's sleeve orders
  - Querying trade journals and equity curves

Configuration is read from defaults, then --config, then TRADER_*
environment variables, then flags.`,
	SilenceUsage:      true,
	PersistentPreRunE: loadConfig,
}

var (
	cfgFile string

	cfg    *config.Config
	logger = zap.NewNop()
)

// flagKeys maps a flag name to the config key it overrides. Commands add
// their own entries in init.
var flagKeys = map[string]string{
	"log-level": "log.level",
	"log-dev":   "log.development",
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (YAML or JSON)")
	rootCmd.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().Bool("log-dev", false, "human readable development logging")
}

func loadConfig(cmd *cobra.Command, args []string) error {
	keys := make(map[string]string)
	for name, key := range flagKeys {
		if cmd.Flags().Lookup(name) != nil {
			keys[name] = key
		}
	}

	c, err := config.Resolve(config.Options{File: cfgFile, Flags: cmd.Flags(), FlagKeys: keys})
	if err != nil {
		return err
	}
	l, err := logging.New(c.Log.Level, c.Log.Development)
	if err != nil {
		return err
	}
	cfg, logger = c, l
	return nil
}

func parseDate(s string) (time.Time, error) {
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("date %q: want YYYY-MM-DD", s)
	}
	return t, nil
}
