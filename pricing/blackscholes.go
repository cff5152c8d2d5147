// Package pricing values European options under the lognormal diffusion model.
package pricing

import (
	"math"

	"gonum.org/v1/gonum/stat/distuv"
)

// DefaultRiskFreeRate is the flat annual rate used when none is configured.
const DefaultRiskFreeRate = 0.05

// OptionClass selects the payoff.
type OptionClass int

const (
	Call OptionClass = iota
	Put
)

func (c OptionClass) String() string {
	if c == Put {
		return "put"
	}
	return "call"
}

// Inputs to the kernel. T is in years, Sigma and R are annualized.
// Callers guarantee S, K, T and Sigma are strictly positive.
type Inputs struct {
	S     float64
	K     float64
	T     float64
	Sigma float64
	R     float64
	Class OptionClass
}

// Greeks carries the price and first order sensitivities.
// Theta is per calendar day and Vega is per vol point.
type Greeks struct {
	Price float64
	Delta float64
	Gamma float64
	Theta float64
	Vega  float64
}

var unitNormal = distuv.UnitNormal

// N is the standard normal cumulative distribution.
func N(x float64) float64 {
	return unitNormal.CDF(x)
}

func n(x float64) float64 {
	return unitNormal.Prob(x)
}

func d1d2(in Inputs) (float64, float64) {
	sqrtT := math.Sqrt(in.T)
	d1 := (math.Log(in.S/in.K) + (in.R+0.5*in.Sigma*in.Sigma)*in.T) / (in.Sigma * sqrtT)
	return d1, d1 - in.Sigma*sqrtT
}

// BlackScholes returns the closed form price and greeks.
func BlackScholes(in Inputs) Greeks {
	d1, d2 := d1d2(in)
	sqrtT := math.Sqrt(in.T)
	disc := math.Exp(-in.R * in.T)
	pdf := n(d1)

	var g Greeks
	g.Gamma = pdf / (in.S * in.Sigma * sqrtT)
	g.Vega = in.S * pdf * sqrtT / 100

	decay := -(in.S * pdf * in.Sigma) / (2 * sqrtT)
	switch in.Class {
	case Put:
		g.Price = in.K*disc*N(-d2) - in.S*N(-d1)
		g.Delta = N(d1) - 1
		g.Theta = (decay + in.R*in.K*disc*N(-d2)) / 365
	default:
		g.Price = in.S*N(d1) - in.K*disc*N(d2)
		g.Delta = N(d1)
		g.Theta = (decay - in.R*in.K*disc*N(d2)) / 365
	}
	return g
}

// Price is BlackScholes(in).Price.
func Price(in Inputs) float64 {
	return BlackScholes(in).Price
}

// Intrinsic is the payoff at expiry.
func Intrinsic(class OptionClass, spot, strike float64) float64 {
	if class == Put {
		return math.Max(strike-spot, 0)
	}
	return math.Max(spot-strike, 0)
}
