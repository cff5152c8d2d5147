package pricing

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBlackScholesReferenceCall(t *testing.T) {
	t.Parallel()

	g := BlackScholes(Inputs{S: 100, K: 100, T: 0.25, Sigma: 0.2, R: 0.05, Class: Call})

	assert.InDelta(t, 4.61, g.Price, 0.05)
	assert.InDelta(t, 0.556, g.Delta, 0.02)
	assert.Greater(t, g.Gamma, 0.0)
	assert.Greater(t, g.Vega, 0.0)
	assert.Less(t, g.Theta, 0.0)
}

func TestBlackScholesPutDelta(t *testing.T) {
	t.Parallel()

	call := BlackScholes(Inputs{S: 100, K: 105, T: 0.5, Sigma: 0.3, R: 0.05, Class: Call})
	put := BlackScholes(Inputs{S: 100, K: 105, T: 0.5, Sigma: 0.3, R: 0.05, Class: Put})

	assert.InDelta(t, call.Delta-1, put.Delta, 1e-12)
	assert.InDelta(t, call.Gamma, put.Gamma, 1e-12)
	assert.InDelta(t, call.Vega, put.Vega, 1e-12)
}

func TestPutCallParity(t *testing.T) {
	t.Parallel()

	const r = 0.05
	for _, s := range []float64{60, 100, 140} {
		for _, k := range []float64{80, 100, 120} {
			for _, T := range []float64{0.02, 0.1, 0.5, 1} {
				for _, sigma := range []float64{0.05, 0.2, 0.6, 1} {
					c := Price(Inputs{S: s, K: k, T: T, Sigma: sigma, R: r, Class: Call})
					p := Price(Inputs{S: s, K: k, T: T, Sigma: sigma, R: r, Class: Put})
					want := s - k*math.Exp(-r*T)
					assert.InDelta(t, want, c-p, 1e-3, "S=%v K=%v T=%v sigma=%v", s, k, T, sigma)
				}
			}
		}
	}
}

func TestNormalCDF(t *testing.T) {
	t.Parallel()

	assert.InDelta(t, 0.5, N(0), 1e-12)
	assert.InDelta(t, 0.841344746, N(1), 1e-7)
	assert.InDelta(t, 0.022750132, N(-2), 1e-7)
}

func TestIntrinsic(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		class  OptionClass
		spot   float64
		strike float64
		want   float64
	}{
		{"call_itm", Call, 110, 100, 10},
		{"call_otm", Call, 90, 100, 0},
		{"put_itm", Put, 90, 100, 10},
		{"put_otm", Put, 110, 100, 0},
		{"atm", Call, 100, 100, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Intrinsic(tt.class, tt.spot, tt.strike))
		})
	}
}
