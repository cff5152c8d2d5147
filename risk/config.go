package risk

import (
	"fmt"
	"math"
	"time"
)

// Split divides the risky weight across the risky sleeves.
type Split struct {
	Debit    float64 `json:"debit" yaml:"debit"`
	Credit   float64 `json:"credit" yaml:"credit"`
	Straddle float64 `json:"straddle" yaml:"straddle"`
}

func (s Split) Sum() float64 { return s.Debit + s.Credit + s.Straddle }

func (s Split) Of(sl Sleeve) float64 {
	switch sl {
	case Debit:
		return s.Debit
	case Credit:
		return s.Credit
	case Straddle:
		return s.Straddle
	}
	return 0
}

// SleeveConfig holds the per-sleeve sizing inputs.
type SleeveConfig struct {
	BaseRiskPct float64 `json:"base_risk_pct" yaml:"base_risk_pct"`
	MinTicket   float64 `json:"min_ticket" yaml:"min_ticket"`
	Cadence     Cadence `json:"cadence" yaml:"cadence"`
}

type SleeveSettings struct {
	Debit    SleeveConfig `json:"debit" yaml:"debit"`
	Credit   SleeveConfig `json:"credit" yaml:"credit"`
	Straddle SleeveConfig `json:"straddle" yaml:"straddle"`
	Collar   SleeveConfig `json:"collar" yaml:"collar"`
	Hedge    SleeveConfig `json:"hedge" yaml:"hedge"`
}

func (s SleeveSettings) Of(sl Sleeve) SleeveConfig {
	switch sl {
	case Debit:
		return s.Debit
	case Credit:
		return s.Credit
	case Straddle:
		return s.Straddle
	case Collar:
		return s.Collar
	case Hedge:
		return s.Hedge
	}
	return SleeveConfig{}
}

// Config parameterizes the CPPI policy.
type Config struct {
	InitialCapital      float64        `json:"initial_capital" yaml:"initial_capital"`
	StartDate           time.Time      `json:"start_date" yaml:"start_date"`
	FloorPct            float64        `json:"floor_pct" yaml:"floor_pct"`
	Multiplier          float64        `json:"multiplier" yaml:"multiplier"`
	Split               Split          `json:"split" yaml:"split"`
	HedgeWeight         float64        `json:"hedge_weight" yaml:"hedge_weight"`
	DriftBandAbs        float64        `json:"drift_band_abs" yaml:"drift_band_abs"`
	RebalanceEveryWeeks int            `json:"rebalance_every_weeks" yaml:"rebalance_every_weeks"`
	WeeklyDeposit       float64        `json:"weekly_deposit" yaml:"weekly_deposit"`
	RiskScale           float64        `json:"risk_scale" yaml:"risk_scale"`
	Sleeves             SleeveSettings `json:"sleeves" yaml:"sleeves"`
}

func DefaultConfig() Config {
	return Config{
		InitialCapital:      10_000,
		StartDate:           time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		FloorPct:            0.85,
		Multiplier:          4.0,
		Split:               Split{Debit: 0.4, Credit: 0.4, Straddle: 0.2},
		HedgeWeight:         0.05,
		DriftBandAbs:        0.05,
		RebalanceEveryWeeks: 4,
		WeeklyDeposit:       100,
		RiskScale:           1.0,
		Sleeves: SleeveSettings{
			Debit:    SleeveConfig{BaseRiskPct: 0.02, MinTicket: 100, Cadence: Weekly},
			Credit:   SleeveConfig{BaseRiskPct: 0.02, MinTicket: 100, Cadence: Weekly},
			Straddle: SleeveConfig{BaseRiskPct: 0.01, MinTicket: 150, Cadence: Monthly},
			Collar:   SleeveConfig{BaseRiskPct: 0.005, MinTicket: 0, Cadence: Weekly},
			Hedge:    SleeveConfig{BaseRiskPct: 0.01, MinTicket: 50, Cadence: Weekly},
		},
	}
}

// Validate returns the first configuration violation found.
func (c Config) Validate() error {
	if c.InitialCapital <= 0 {
		return fmt.Errorf("%w: policy.initial_capital must be positive", ErrInvalidConfig)
	}
	if c.StartDate.IsZero() {
		return fmt.Errorf("%w: policy.start_date is required", ErrInvalidConfig)
	}
	if c.FloorPct <= 0 || c.FloorPct >= 1 {
		return fmt.Errorf("%w: policy.floor_pct %.4f must be in (0,1)", ErrInvalidFloor, c.FloorPct)
	}
	if c.Multiplier <= 0 {
		return fmt.Errorf("%w: policy.multiplier must be positive", ErrInvalidMultiplier)
	}
	if c.Split.Debit < 0 || c.Split.Credit < 0 || c.Split.Straddle < 0 {
		return fmt.Errorf("%w: policy.split fractions must be non-negative", ErrInvalidSplit)
	}
	if sum := c.Split.Sum(); math.Abs(sum-1) > Tolerance {
		return fmt.Errorf("%w: policy.split sums to %.6f, want 1", ErrInvalidSplit, sum)
	}
	if c.HedgeWeight < 0 || c.HedgeWeight >= 1 {
		return fmt.Errorf("%w: policy.hedge_weight must be in [0,1)", ErrInvalidConfig)
	}
	if c.DriftBandAbs <= 0 || c.DriftBandAbs >= 1 {
		return fmt.Errorf("%w: policy.drift_band_abs must be in (0,1)", ErrInvalidConfig)
	}
	if c.RebalanceEveryWeeks < 1 {
		return fmt.Errorf("%w: policy.rebalance_every_weeks must be at least 1", ErrInvalidConfig)
	}
	if c.WeeklyDeposit < 0 {
		return fmt.Errorf("%w: policy.weekly_deposit must not be negative", ErrInvalidConfig)
	}
	if c.RiskScale <= 0 {
		return fmt.Errorf("%w: policy.risk_scale must be positive", ErrInvalidRiskPct)
	}
	for _, s := range Sleeves() {
		sc := c.Sleeves.Of(s)
		if sc.BaseRiskPct <= 0 || sc.BaseRiskPct > 1 {
			return fmt.Errorf("%w: policy.sleeves.%s.base_risk_pct %.4f must be in (0,1]", ErrInvalidRiskPct, s, sc.BaseRiskPct)
		}
		if sc.MinTicket < 0 {
			return fmt.Errorf("%w: policy.sleeves.%s.min_ticket must not be negative", ErrInvalidConfig, s)
		}
		if !sc.Cadence.Valid() {
			return fmt.Errorf("%w: policy.sleeves.%s.cadence %q must be weekly or monthly", ErrInvalidConfig, s, sc.Cadence)
		}
	}
	return nil
}
