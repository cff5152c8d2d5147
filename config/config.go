package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/rustyeddy/cppi/backtest"
	"github.com/rustyeddy/cppi/live"
	"github.com/rustyeddy/cppi/risk"
	"github.com/rustyeddy/cppi/strategies"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"
)

var (
	ErrInvalidDTEWindow = strategies.ErrInvalidDTEWindow
	ErrInvalidConfig    = errors.New("invalid config")
)

// Config is the complete application configuration. It is resolved once
// at startup and treated as read-only afterwards.
type Config struct {
	Log      LogConfig       `json:"log" yaml:"log"`
	Broker   BrokerConfig    `json:"broker" yaml:"broker"`
	Policy   risk.Config     `json:"policy" yaml:"policy"`
	Overlay  bool            `json:"overlay" yaml:"overlay"`
	Backtest backtest.Config `json:"backtest" yaml:"backtest"`
	Journal  JournalConfig   `json:"journal" yaml:"journal"`
	Live     LiveConfig      `json:"live" yaml:"live"`
}

type LogConfig struct {
	Level       string `json:"level" yaml:"level"`
	Development bool   `json:"development" yaml:"development"`
}

// BrokerConfig identifies the account orders go to.
type BrokerConfig struct {
	Host         string `json:"host" yaml:"host"`
	AccountID    int64  `json:"account_id" yaml:"account_id"`
	Sandbox      bool   `json:"sandbox" yaml:"sandbox"`
	DryRun       bool   `json:"dry_run" yaml:"dry_run"`
	MaxContracts int    `json:"max_contracts" yaml:"max_contracts"`
}

// JournalConfig names the sinks a run writes to. Empty paths are skipped.
type JournalConfig struct {
	SQLitePath string `json:"sqlite_path" yaml:"sqlite_path"`
	CSVDir     string `json:"csv_dir" yaml:"csv_dir"`
	OrgPath    string `json:"org_path" yaml:"org_path"`
}

// LiveConfig lists the entries the planner considers each week.
type LiveConfig struct {
	Deposit float64      `json:"deposit" yaml:"deposit"`
	Entries []live.Entry `json:"entries" yaml:"entries"`
}

// Default returns a configuration that validates as-is.
func Default() *Config {
	entry := func(a strategies.Archetype, s risk.Sleeve, u string) live.Entry {
		return live.Entry{Name: a.String(), Archetype: a, Sleeve: s, Underlying: u, Params: strategies.DefaultParams(a)}
	}
	pol := risk.DefaultConfig()
	return &Config{
		Log:      LogConfig{Level: "info"},
		Broker:   BrokerConfig{Host: "paper", Sandbox: true, DryRun: true, MaxContracts: 10},
		Policy:   pol,
		Backtest: backtest.DefaultConfig(),
		Journal:  JournalConfig{SQLitePath: "./cppi.sqlite"},
		Live: LiveConfig{
			Deposit: pol.WeeklyDeposit,
			Entries: []live.Entry{
				entry(strategies.DebitVertical, risk.Debit, "SPY"),
				entry(strategies.CreditPutVertical, risk.Credit, "SPY"),
				entry(strategies.Straddle, risk.Straddle, "QQQ"),
				entry(strategies.Collar, risk.Collar, "SPY"),
				entry(strategies.HedgePut, risk.Hedge, "SPY"),
			},
		},
	}
}

// BacktestConfig returns the backtest section with the CPPI overlay
// attached when Overlay is set.
func (c *Config) BacktestConfig() backtest.Config {
	bc := c.Backtest
	if c.Overlay && bc.Policy == nil {
		p := c.Policy
		bc.Policy = &p
	}
	return bc
}

// LoadFromFile loads configuration from a YAML or JSON file on top of
// the defaults.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		cfg = Default()
		if jerr := json.Unmarshal(data, cfg); jerr != nil {
			return nil, fmt.Errorf("parse config (tried YAML and JSON): %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// SaveToFile writes YAML for .yaml/.yml paths and indented JSON otherwise.
func (c *Config) SaveToFile(path string) error {
	var data []byte
	var err error

	if strings.HasSuffix(path, ".yaml") || strings.HasSuffix(path, ".yml") {
		data, err = yaml.Marshal(c)
	} else {
		data, err = json.MarshalIndent(c, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}
	return nil
}

// Validate returns the first violation found.
func (c *Config) Validate() error {
	if _, err := zapcore.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("%w: log.level %q", ErrInvalidConfig, c.Log.Level)
	}
	if c.Broker.MaxContracts < 0 {
		return fmt.Errorf("%w: broker.max_contracts must not be negative", ErrInvalidConfig)
	}
	if err := c.Policy.Validate(); err != nil {
		return err
	}
	if err := c.BacktestConfig().Validate(); err != nil {
		return fmt.Errorf("backtest: %w", err)
	}
	if c.Live.Deposit < 0 {
		return fmt.Errorf("%w: live.deposit must not be negative", ErrInvalidConfig)
	}
	for i, e := range c.Live.Entries {
		if e.Name == "" || e.Underlying == "" {
			return fmt.Errorf("%w: live.entries[%d] needs a name and an underlying", ErrInvalidConfig, i)
		}
		if err := e.Params.Validate(); err != nil {
			return fmt.Errorf("live.entries[%d] %s: %w", i, e.Name, err)
		}
	}
	return nil
}
