package backtest

import (
	"math"
	"sort"

	"github.com/rustyeddy/cppi/sim"
	"gonum.org/v1/gonum/stat"
)

// TradingDaysPerYear annualizes daily statistics.
const TradingDaysPerYear = 252

// Metrics summarizes a run. Returns are time weighted: deposits are
// removed from each day's return, so contributions never count as gains.
type Metrics struct {
	StartEquity float64 `json:"start_equity"`
	EndEquity   float64 `json:"end_equity"`
	Deposits    float64 `json:"deposits"`
	NetPL       float64 `json:"net_pl"`
	TradingDays int     `json:"trading_days"`

	TotalReturn      float64 `json:"total_return"`
	AnnualizedReturn float64 `json:"annualized_return"`
	Volatility       float64 `json:"volatility"`
	Sharpe           float64 `json:"sharpe"`
	MaxDrawdown      float64 `json:"max_drawdown"`

	TradeStats
}

// TradeStats is computed from closed positions. ProfitFactor is zero when
// there are no losing trades.
type TradeStats struct {
	Fills        int     `json:"fills"`
	Trades       int     `json:"trades"`
	Wins         int     `json:"wins"`
	Losses       int     `json:"losses"`
	WinRate      float64 `json:"win_rate"`
	GrossProfit  float64 `json:"gross_profit"`
	GrossLoss    float64 `json:"gross_loss"`
	ProfitFactor float64 `json:"profit_factor"`
	RealizedPL   float64 `json:"realized_pl"`
	Commission   float64 `json:"commission"`
}

// Evaluate derives performance from the daily series and the ledger's
// closed positions.
func Evaluate(daily []DailyPnL, closed []sim.ClosedPosition, fills []sim.Trade, riskFree float64) Metrics {
	m := Metrics{TradeStats: Stats(closed, fills)}
	if len(daily) == 0 {
		return m
	}

	m.StartEquity = daily[0].Equity - daily[0].PnL - daily[0].Deposit
	m.EndEquity = daily[len(daily)-1].Equity
	m.TradingDays = len(daily)

	returns := make([]float64, len(daily))
	wealth := make([]float64, len(daily))
	w := 1.0
	for i, d := range daily {
		m.Deposits += d.Deposit
		m.NetPL += d.PnL
		returns[i] = d.Return
		w *= 1 + d.Return
		wealth[i] = w
	}

	m.TotalReturn = w - 1
	if w > 0 {
		m.AnnualizedReturn = math.Pow(w, TradingDaysPerYear/float64(m.TradingDays)) - 1
	} else {
		m.AnnualizedReturn = -1
	}
	if len(returns) > 1 {
		m.Volatility = stat.StdDev(returns, nil) * math.Sqrt(TradingDaysPerYear)
	}
	if m.Volatility > 0 {
		m.Sharpe = (m.AnnualizedReturn - riskFree) / m.Volatility
	}
	m.MaxDrawdown = MaxDrawdown(wealth)
	return m
}

// MaxDrawdown is the largest peak-to-trough fall of series as a fraction
// of the peak. The series is assumed to start from a peak of 1.
func MaxDrawdown(series []float64) float64 {
	peak := 1.0
	var dd float64
	for _, v := range series {
		if v > peak {
			peak = v
		}
		if peak > 0 {
			dd = math.Max(dd, (peak-v)/peak)
		}
	}
	return dd
}

func Stats(closed []sim.ClosedPosition, fills []sim.Trade) TradeStats {
	var s TradeStats
	s.Fills = len(fills)
	for _, t := range fills {
		s.Commission += t.Commission
	}
	for _, c := range closed {
		s.Trades++
		s.RealizedPL += c.RealizedPL
		switch {
		case c.RealizedPL > 0:
			s.Wins++
			s.GrossProfit += c.RealizedPL
		case c.RealizedPL < 0:
			s.Losses++
			s.GrossLoss -= c.RealizedPL
		}
	}
	if s.Trades > 0 {
		s.WinRate = float64(s.Wins) / float64(s.Trades)
	}
	if s.GrossLoss > 0 {
		s.ProfitFactor = s.GrossProfit / s.GrossLoss
	}
	return s
}

// StatsByStrategy groups closed positions and fills by strategy tag.
func StatsByStrategy(closed []sim.ClosedPosition, fills []sim.Trade) map[string]TradeStats {
	cs := make(map[string][]sim.ClosedPosition)
	fs := make(map[string][]sim.Trade)
	for _, c := range closed {
		cs[c.Strategy] = append(cs[c.Strategy], c)
	}
	for _, t := range fills {
		fs[t.Strategy] = append(fs[t.Strategy], t)
	}

	out := make(map[string]TradeStats)
	for _, name := range strategyNames(cs, fs) {
		out[name] = Stats(cs[name], fs[name])
	}
	return out
}

func strategyNames(cs map[string][]sim.ClosedPosition, fs map[string][]sim.Trade) []string {
	set := make(map[string]bool)
	for k := range cs {
		set[k] = true
	}
	for k := range fs {
		set[k] = true
	}
	names := make([]string, 0, len(set))
	for k := range set {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}
