package backtest

import (
	"errors"
	"fmt"
	"time"

	"github.com/rustyeddy/cppi/market/synthetic"
	"github.com/rustyeddy/cppi/pricing"
	"github.com/rustyeddy/cppi/risk"
	"github.com/rustyeddy/cppi/sim"
	"github.com/rustyeddy/cppi/strategies"
)

var ErrInvalidConfig = errors.New("invalid backtest config")

// StrategyConfig is one strategy entry. Name tags every trade it places
// and must be unique within a run.
type StrategyConfig struct {
	Name        string               `json:"name" yaml:"name"`
	Archetype   strategies.Archetype `json:"archetype" yaml:"archetype"`
	Sleeve      risk.Sleeve          `json:"sleeve" yaml:"sleeve"`
	EveryDays   int                  `json:"every_days" yaml:"every_days"`
	Underlyings []string             `json:"underlyings,omitempty" yaml:"underlyings,omitempty"`
	Params      strategies.Params    `json:"params" yaml:"params"`
}

// NewStrategy returns a weekly strategy with default params, named after
// its archetype.
func NewStrategy(a strategies.Archetype, sleeve risk.Sleeve) StrategyConfig {
	return StrategyConfig{
		Name:      a.String(),
		Archetype: a,
		Sleeve:    sleeve,
		EveryDays: 7,
		Params:    strategies.DefaultParams(a),
	}
}

// Trades reports whether the strategy trades underlying.
func (s StrategyConfig) Trades(underlying string) bool {
	if len(s.Underlyings) == 0 {
		return true
	}
	for _, u := range s.Underlyings {
		if u == underlying {
			return true
		}
	}
	return false
}

type Config struct {
	StartDate             time.Time        `json:"start_date" yaml:"start_date"`
	EndDate               time.Time        `json:"end_date" yaml:"end_date"`
	InitialCapital        float64          `json:"initial_capital" yaml:"initial_capital"`
	Universe              []string         `json:"universe" yaml:"universe"`
	Strategies            []StrategyConfig `json:"strategies" yaml:"strategies"`
	RiskFreeRate          float64          `json:"risk_free_rate" yaml:"risk_free_rate"`
	CommissionPerContract float64          `json:"commission_per_contract" yaml:"commission_per_contract"`
	SlippageMin           float64          `json:"slippage_min" yaml:"slippage_min"`
	SlippageMax           float64          `json:"slippage_max" yaml:"slippage_max"`
	Seed                  int64            `json:"seed" yaml:"seed"`
	Market                synthetic.Params `json:"market" yaml:"market"`
	Policy                *risk.Config     `json:"policy,omitempty" yaml:"policy,omitempty"`
}

func DefaultConfig() Config {
	return Config{
		StartDate:      time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		EndDate:        time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC),
		InitialCapital: 10_000,
		Universe:       []string{"SPY", "QQQ"},
		Strategies: []StrategyConfig{
			NewStrategy(strategies.DebitVertical, risk.Debit),
			NewStrategy(strategies.CreditPutVertical, risk.Credit),
			NewStrategy(strategies.HedgePut, risk.Hedge),
		},
		RiskFreeRate:          pricing.DefaultRiskFreeRate,
		CommissionPerContract: sim.DefaultCommission,
		SlippageMin:           sim.DefaultSlippageMin,
		SlippageMax:           sim.DefaultSlippageMax,
		Seed:                  42,
		Market:                synthetic.DefaultParams(),
	}
}

// Validate returns the first configuration violation found.
func (c Config) Validate() error {
	if c.StartDate.IsZero() || c.EndDate.IsZero() {
		return fmt.Errorf("%w: start_date and end_date are required", ErrInvalidConfig)
	}
	if c.EndDate.Before(c.StartDate) {
		return fmt.Errorf("%w: end_date %s is before start_date %s", ErrInvalidConfig,
			c.EndDate.Format(time.DateOnly), c.StartDate.Format(time.DateOnly))
	}
	if c.InitialCapital <= 0 {
		return fmt.Errorf("%w: initial_capital must be positive", ErrInvalidConfig)
	}
	if len(c.Universe) == 0 {
		return fmt.Errorf("%w: universe must name at least one symbol", ErrInvalidConfig)
	}
	if c.CommissionPerContract < 0 {
		return fmt.Errorf("%w: commission_per_contract must not be negative", ErrInvalidConfig)
	}
	if c.SlippageMin < 0 || c.SlippageMax < c.SlippageMin || c.SlippageMax >= 1 {
		return fmt.Errorf("%w: slippage band [%.4f,%.4f) is invalid", ErrInvalidConfig, c.SlippageMin, c.SlippageMax)
	}
	if len(c.Market.ExpiryOffsets) == 0 || c.Market.StrikeStep <= 0 {
		return fmt.Errorf("%w: market needs expiry_offsets and a positive strike_step", ErrInvalidConfig)
	}

	seen := make(map[string]bool)
	for i, s := range c.Strategies {
		if s.Name == "" {
			return fmt.Errorf("%w: strategies[%d].name is required", ErrInvalidConfig, i)
		}
		if seen[s.Name] {
			return fmt.Errorf("%w: duplicate strategy name %q", ErrInvalidConfig, s.Name)
		}
		seen[s.Name] = true
		if s.EveryDays < 1 {
			return fmt.Errorf("%w: strategies[%d].every_days must be at least 1", ErrInvalidConfig, i)
		}
		if err := s.Params.Validate(); err != nil {
			return fmt.Errorf("strategies[%d] %s: %w", i, s.Name, err)
		}
	}

	if pc, ok := c.PolicyConfig(); ok {
		if err := pc.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// PolicyConfig returns the CPPI overlay config, with capital and start
// date taken from the backtest itself.
func (c Config) PolicyConfig() (risk.Config, bool) {
	if c.Policy == nil {
		return risk.Config{}, false
	}
	pc := *c.Policy
	pc.InitialCapital = c.InitialCapital
	pc.StartDate = c.StartDate
	return pc, true
}
