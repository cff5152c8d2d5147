package strategies

import (
	"testing"
	"time"

	"github.com/rustyeddy/cppi/market"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var day = time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

// quote builds a contract with a simple linear delta profile around spot 100.
func quote(dte int, strike float64, typ market.OptionType) market.OptionQuote {
	exp := day.AddDate(0, 0, dte)
	callDelta := 0.5 - (strike-100)/50
	if callDelta > 1 {
		callDelta = 1
	}
	if callDelta < 0 {
		callDelta = 0
	}
	delta := callDelta
	price := 5 - (strike-100)/10
	if typ == market.Put {
		delta = callDelta - 1
		price = 5 + (strike-100)/10
	}
	if price < 0.05 {
		price = 0.05
	}
	return market.OptionQuote{
		Date:       day,
		Symbol:     market.EncodeSymbol("SPY", exp, strike, typ),
		Underlying: "SPY",
		Strike:     strike,
		Expiry:     exp,
		Type:       typ,
		Price:      price,
		Delta:      delta,
	}
}

func surface(dtes ...int) Surface {
	var qs []market.OptionQuote
	for _, dte := range dtes {
		for k := 80.0; k <= 120; k += 5 {
			qs = append(qs, quote(dte, k, market.Call), quote(dte, k, market.Put))
		}
	}
	return Surface{Underlying: "SPY", Date: day, Spot: 101, Quotes: qs}
}

func TestParseArchetype(t *testing.T) {
	t.Parallel()

	for _, a := range Archetypes() {
		got, err := ParseArchetype(a.String())
		require.NoError(t, err)
		assert.Equal(t, a, got)
	}

	got, err := ParseArchetype("Credit-Put-Vertical")
	require.NoError(t, err)
	assert.Equal(t, CreditPutVertical, got)

	_, err = ParseArchetype("iron_condor")
	assert.Error(t, err)
}

func TestChooseExpiry(t *testing.T) {
	t.Parallel()

	s := surface(7, 14, 30, 45)

	exp, ok := ChooseExpiry(s.Quotes, Params{DTEMin: 7, DTEMax: 45, DTETarget: 28})
	require.True(t, ok)
	assert.Equal(t, day.AddDate(0, 0, 30), exp)

	exp, ok = ChooseExpiry(s.Quotes, Params{DTEMin: 10, DTEMax: 20})
	require.True(t, ok)
	assert.Equal(t, day.AddDate(0, 0, 14), exp)

	_, ok = ChooseExpiry(s.Quotes, Params{DTEMin: 60, DTEMax: 90})
	assert.False(t, ok)
}

func TestBuildDebitVertical(t *testing.T) {
	t.Parallel()

	p := DefaultParams(DebitVertical)
	legs, err := Build(DebitVertical, surface(30), p)
	require.NoError(t, err)
	require.Len(t, legs, 2)

	assert.Equal(t, market.Buy, legs[0].Side)
	assert.Equal(t, 100.0, legs[0].Quote.Strike)
	assert.Equal(t, market.Sell, legs[1].Side)
	assert.Equal(t, 110.0, legs[1].Quote.Strike)
	assert.Equal(t, market.Call, legs[1].Quote.Type)
	assert.Equal(t, legs[0].Quote.Expiry, legs[1].Quote.Expiry)
}

func TestBuildDebitVerticalMissingShortStrike(t *testing.T) {
	t.Parallel()

	p := DefaultParams(DebitVertical)
	p.Width = 7
	legs, err := Build(DebitVertical, surface(30), p)
	require.NoError(t, err)
	assert.Empty(t, legs)
}

func TestBuildCreditPutVertical(t *testing.T) {
	t.Parallel()

	p := DefaultParams(CreditPutVertical)
	legs := BuildCreditPutVertical(surface(30), p)
	require.Len(t, legs, 2)

	short, long := legs[0], legs[1]
	assert.Equal(t, market.Sell, short.Side)
	assert.Equal(t, market.Buy, long.Side)
	assert.Equal(t, 90.0, short.Quote.Strike) // |delta| 0.30
	assert.Equal(t, 80.0, long.Quote.Strike)
	assert.Less(t, NetPremium(legs), 0.0)

	p.Width = 0
	p.LongDelta = 0.1
	legs = BuildCreditPutVertical(surface(30), p)
	require.Len(t, legs, 2)
	assert.Equal(t, 80.0, legs[1].Quote.Strike)

	p.LongDelta = 0.45 // above the short leg
	assert.Empty(t, BuildCreditPutVertical(surface(30), p))
}

func TestBuildStraddle(t *testing.T) {
	t.Parallel()

	legs := BuildStraddle(surface(14, 30), DefaultParams(Straddle))
	require.Len(t, legs, 2)
	assert.Equal(t, 100.0, legs[0].Quote.Strike)
	assert.Equal(t, 100.0, legs[1].Quote.Strike)
	assert.Equal(t, market.Call, legs[0].Quote.Type)
	assert.Equal(t, market.Put, legs[1].Quote.Type)
	assert.Equal(t, 14, legs[0].Quote.DTE())
}

func TestBuildSingleLegArchetypes(t *testing.T) {
	t.Parallel()

	p := DefaultParams(CashSecuredPut)
	p.TargetDelta = -0.3
	csp := BuildCashSecuredPut(surface(30), p)
	require.Len(t, csp, 1)
	assert.Equal(t, market.Sell, csp[0].Side)
	assert.Equal(t, 90.0, csp[0].Quote.Strike)

	hedge := BuildHedgePut(surface(30, 45), DefaultParams(HedgePut))
	require.Len(t, hedge, 1)
	assert.Equal(t, market.Buy, hedge[0].Side)
	assert.Equal(t, 80.0, hedge[0].Quote.Strike)
	assert.Equal(t, 45, hedge[0].Quote.DTE())
}

func TestBuildCollar(t *testing.T) {
	t.Parallel()

	legs := BuildCollar(surface(30), DefaultParams(Collar))
	require.Len(t, legs, 2)
	assert.Equal(t, market.Sell, legs[0].Side)
	assert.Equal(t, market.Call, legs[0].Quote.Type)
	assert.Equal(t, 110.0, legs[0].Quote.Strike)
	assert.Equal(t, market.Buy, legs[1].Side)
	assert.Equal(t, market.Put, legs[1].Quote.Type)
	assert.Equal(t, 85.0, legs[1].Quote.Strike)
}

func TestBuildersEmptySurface(t *testing.T) {
	t.Parallel()

	for _, a := range Archetypes() {
		legs, err := Build(a, Surface{Underlying: "SPY", Date: day}, DefaultParams(a))
		require.NoError(t, err)
		assert.Empty(t, legs, a.String())
	}
}

func TestBuildUnknownArchetype(t *testing.T) {
	t.Parallel()

	_, err := Build(Archetype(99), surface(30), Params{})
	assert.Error(t, err)
}

func TestRiskPerUnit(t *testing.T) {
	t.Parallel()

	legs := BuildCreditPutVertical(surface(30), DefaultParams(CreditPutVertical))
	// width 10, credit 1.0
	assert.InDelta(t, 900, RiskPerUnit(CreditPutVertical, legs), 1e-9)

	dv := BuildDebitVertical(surface(30), DefaultParams(DebitVertical))
	assert.InDelta(t, 100, RiskPerUnit(DebitVertical, dv), 1e-9)

	scaled := WithContracts(dv, 3)
	assert.Equal(t, 3, scaled[0].Quantity)
	assert.Equal(t, 1, dv[0].Quantity)
}

func TestParamsValidate(t *testing.T) {
	t.Parallel()

	for _, a := range Archetypes() {
		assert.NoError(t, DefaultParams(a).Validate(), a.String())
	}

	tests := []struct {
		name    string
		mutate  func(p *Params)
		wantErr error
	}{
		{"min equals max", func(p *Params) { p.DTEMin = p.DTEMax }, ErrInvalidDTEWindow},
		{"negative min", func(p *Params) { p.DTEMin = -1 }, ErrInvalidDTEWindow},
		{"target outside window", func(p *Params) { p.DTETarget = 90 }, ErrInvalidDTEWindow},
		{"negative contracts", func(p *Params) { p.Contracts = -2 }, ErrInvalidParams},
		{"delta above one", func(p *Params) { p.ShortDelta = 1.5 }, ErrInvalidParams},
		{"negative width", func(p *Params) { p.Width = -5 }, ErrInvalidParams},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			p := DefaultParams(DebitVertical)
			tt.mutate(&p)
			assert.ErrorIs(t, p.Validate(), tt.wantErr)
		})
	}
}
