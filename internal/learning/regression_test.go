package learning

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pantrysense/grocer-core/backend/internal/domain"
)

func TestSolveLinearSystemKnownSolution(t *testing.T) {
	// 2x + y = 5, x + 3y = 10  =>  x = 1, y = 3
	a := [][]float64{
		{2, 1},
		{1, 3},
	}
	b := []float64{5, 10}

	x, ok := solveLinearSystem(a, b)
	require.True(t, ok)
	require.Len(t, x, 2)
	assert.InDelta(t, 1.0, x[0], 1e-9)
	assert.InDelta(t, 3.0, x[1], 1e-9)
}

func TestSolveLinearSystemRequiresPivoting(t *testing.T) {
	// Zero in the leading position forces a row swap
	a := [][]float64{
		{0, 1},
		{1, 0},
	}
	b := []float64{2, 3}

	x, ok := solveLinearSystem(a, b)
	require.True(t, ok)
	assert.InDelta(t, 3.0, x[0], 1e-9)
	assert.InDelta(t, 2.0, x[1], 1e-9)
}

func TestSolveLinearSystemSingularMatrix(t *testing.T) {
	// Second row is a multiple of the first
	a := [][]float64{
		{1, 2},
		{2, 4},
	}
	b := []float64{3, 6}

	_, ok := solveLinearSystem(a, b)
	assert.False(t, ok)
}

func TestSolveLinearSystemDoesNotMutateInputs(t *testing.T) {
	a := [][]float64{
		{2, 1},
		{1, 3},
	}
	b := []float64{5, 10}

	_, ok := solveLinearSystem(a, b)
	require.True(t, ok)

	assert.Equal(t, [][]float64{{2, 1}, {1, 3}}, a)
	assert.Equal(t, []float64{5, 10}, b)
}

func TestRegressionRateTooFewEvents(t *testing.T) {
	base := time.Date(2026, time.March, 2, 12, 0, 0, 0, time.UTC)
	events := eventsFromPairs(base, [][2]float64{{2, 1}, {2, 1}, {2, 1}})

	_, ok := RegressionRate(events, domain.ItemContext{}, base.AddDate(0, 0, 3))
	assert.False(t, ok)
}

func TestRegressionRateSingularWithinOneMonth(t *testing.T) {
	// Every event falls in March, so the month feature is constant and
	// linearly dependent on the bias column: the normal equations are
	// singular and the regression must refuse to fit.
	base := time.Date(2026, time.March, 2, 12, 0, 0, 0, time.UTC)
	events := regressionSeries(base, 8)

	_, ok := RegressionRate(events, domain.ItemContext{DaysInInventory: 20}, base.AddDate(0, 0, 20))
	assert.False(t, ok)
}

func TestRegressionRateAcrossMonthBoundary(t *testing.T) {
	// Spanning January into February breaks the month/bias collinearity
	base := time.Date(2026, time.January, 25, 12, 0, 0, 0, time.UTC)
	events := regressionSeries(base, 14)

	rate, ok := RegressionRate(events, domain.ItemContext{DaysInInventory: 14}, base.AddDate(0, 0, 14))
	require.True(t, ok)
	assert.GreaterOrEqual(t, rate, 0.0)
	// All observed rates sit between 1 and 3 units/day; the fitted
	// prediction for a nearby day should land in the same neighborhood.
	assert.Less(t, rate, 10.0)
}

func TestRegressionRateClampsNegativePredictions(t *testing.T) {
	// A fitted model can extrapolate below zero; the clamp guarantees the
	// returned rate is never negative regardless of the solved weights.
	base := time.Date(2026, time.January, 25, 12, 0, 0, 0, time.UTC)
	events := regressionSeries(base, 14)

	rate, ok := RegressionRate(events, domain.ItemContext{DaysInInventory: 3000}, base.AddDate(0, 0, 14))
	if ok {
		assert.GreaterOrEqual(t, rate, 0.0)
	}
}

// regressionSeries builds one event per day with consumption varying by day
// of week, the shape the temporal features are meant to pick up.
func regressionSeries(base time.Time, days int) []*domain.ConsumptionEvent {
	events := make([]*domain.ConsumptionEvent, 0, days)
	for i := 0; i < days; i++ {
		ts := base.Add(time.Duration(i) * 24 * time.Hour)
		consumed := 1.0 + float64(ts.Weekday())*0.3
		events = append(events, &domain.ConsumptionEvent{
			UserID:           "user-1",
			ItemName:         "Milk",
			QuantityConsumed: consumed,
			DaysElapsed:      1.0,
			DaysInInventory:  float64(i),
			Timestamp:        ts,
		})
	}
	return events
}
