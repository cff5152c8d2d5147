package risk

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSleeveEquitiesTotal(t *testing.T) {
	t.Parallel()

	e := EquitiesFromFloats(100, 200, 300, 400, 500)
	require.NoError(t, e.Validate())
	assert.True(t, e.Total.Equal(decimal.NewFromInt(1500)))

	e = e.Add(Debit, decimal.NewFromFloat(12.34))
	e = e.With(Hedge, decimal.Zero)
	e = e.Plus(EquitiesFromFloats(1, 1, 1, 1, 1))
	require.NoError(t, e.Validate())
	assert.True(t, e.Total.Equal(e.Sum()))
	assert.InDelta(t, 113.34, f(e.Of(Debit)), 1e-9)

	bad := e
	bad.Total = bad.Total.Add(decimal.NewFromInt(1))
	assert.ErrorIs(t, bad.Validate(), ErrTotalMismatch)
}

func TestCurrentWeights(t *testing.T) {
	t.Parallel()

	w := CurrentWeights(EquitiesFromFloats(10, 20, 30, 40, 0))
	assert.InDelta(t, 0.1, w.Debit, 1e-12)
	assert.InDelta(t, 0.4, w.Collar, 1e-12)
	assert.InDelta(t, 1, w.Sum(), Tolerance)
}

func TestSleeveText(t *testing.T) {
	t.Parallel()

	for _, s := range Sleeves() {
		b, err := s.MarshalText()
		require.NoError(t, err)

		var back Sleeve
		require.NoError(t, back.UnmarshalText(b))
		assert.Equal(t, s, back)
	}

	_, err := ParseSleeve("equity")
	assert.ErrorIs(t, err, ErrUnknownSleeve)

	s, err := ParseSleeve(" Straddle ")
	require.NoError(t, err)
	assert.Equal(t, Straddle, s)

	b, err := json.Marshal(map[string]Sleeve{"s": Hedge})
	require.NoError(t, err)
	assert.JSONEq(t, `{"s":"hedge"}`, string(b))
}
