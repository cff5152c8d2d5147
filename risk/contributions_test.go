package risk

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

var exampleTargets = SleeveWeights{Debit: 0.1, Credit: 0.1, Straddle: 0.1, Collar: 0.65, Hedge: 0.05}

func TestContributionsScaledDown(t *testing.T) {
	t.Parallel()

	// Shortfalls against 1000: debit 20, credit 0, straddle 40, collar 0, hedge 5.
	eq := EquitiesFromFloats(80, 100, 60, 665, 45)
	got := ComputeContributionsAllocation(exampleTargets, eq, decimal.NewFromInt(50))

	assert.InDelta(t, 15.38, f(got.Debit), 1e-9)
	assert.InDelta(t, 0, f(got.Credit), 1e-9)
	assert.InDelta(t, 30.77, f(got.Straddle), 1e-9)
	assert.InDelta(t, 0, f(got.Collar), 1e-9)
	assert.InDelta(t, 3.85, f(got.Hedge), 1e-9)
	assert.True(t, got.Total.Equal(decimal.NewFromInt(50)))
	assert.NoError(t, got.Validate())
}

func TestContributionsOnTargetBook(t *testing.T) {
	t.Parallel()

	// A book sitting on its targets has shortfalls equal to target × deposit.
	eq := EquitiesFromFloats(100, 100, 100, 650, 50)
	got := ComputeContributionsAllocation(exampleTargets, eq, decimal.NewFromInt(100))

	assert.InDelta(t, 10, f(got.Debit), 1e-9)
	assert.InDelta(t, 10, f(got.Credit), 1e-9)
	assert.InDelta(t, 10, f(got.Straddle), 1e-9)
	assert.InDelta(t, 65, f(got.Collar), 1e-9)
	assert.InDelta(t, 5, f(got.Hedge), 1e-9)
	assert.True(t, got.Total.Equal(decimal.NewFromInt(100)))
}

func TestContributionsRemainderProRata(t *testing.T) {
	t.Parallel()

	// Targets below one leave a remainder after shortfalls are funded.
	targets := SleeveWeights{Debit: 0.2, Collar: 0.2}
	eq := EquitiesFromFloats(0, 0, 0, 100, 0)
	got := ComputeContributionsAllocation(targets, eq, decimal.NewFromInt(100))

	// Shortfalls against 200: debit 40, collar 0. Remainder 60 split 50/50.
	assert.InDelta(t, 70, f(got.Debit), 1e-9)
	assert.InDelta(t, 30, f(got.Collar), 1e-9)
	assert.True(t, got.Total.Equal(decimal.NewFromInt(100)))

	// No targets at all: everything lands in the collar.
	got = ComputeContributionsAllocation(SleeveWeights{}, eq, decimal.NewFromInt(25))
	assert.InDelta(t, 25, f(got.Collar), 1e-9)
}

func TestContributionsAlwaysSumToDeposit(t *testing.T) {
	t.Parallel()

	books := []SleeveEquities{
		{},
		EquitiesFromFloats(1, 1, 1, 1, 1),
		EquitiesFromFloats(333.33, 0, 17.01, 9000, 2.5),
		EquitiesFromFloats(0, 0, 0, 0, 10_000),
	}
	deposits := []string{"0.01", "1", "33.33", "50", "100", "12345.67", "7.777"}

	for _, eq := range books {
		for _, s := range deposits {
			dep := decimal.RequireFromString(s)
			got := ComputeContributionsAllocation(exampleTargets, eq, dep)
			assert.True(t, got.Total.Equal(dep), "deposit %s got %s", s, got.Total)
			assert.True(t, got.Sum().Equal(dep))
			for _, sl := range Sleeves() {
				assert.False(t, got.Of(sl).IsNegative())
			}
		}
	}
}

func TestContributionsNoDeposit(t *testing.T) {
	t.Parallel()

	got := ComputeContributionsAllocation(exampleTargets, EquitiesFromFloats(1, 2, 3, 4, 5), decimal.Zero)
	assert.True(t, got.Total.IsZero())
}
