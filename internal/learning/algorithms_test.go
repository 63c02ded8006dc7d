package learning

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pantrysense/grocer-core/backend/internal/domain"
)

// eventsFromPairs builds a chronological event series from (consumed,
// daysElapsed) pairs, spaced one day apart starting at base.
func eventsFromPairs(base time.Time, pairs [][2]float64) []*domain.ConsumptionEvent {
	events := make([]*domain.ConsumptionEvent, 0, len(pairs))
	for i, pair := range pairs {
		events = append(events, &domain.ConsumptionEvent{
			UserID:           "user-1",
			ItemName:         "Milk",
			QuantityConsumed: pair[0],
			DaysElapsed:      pair[1],
			Timestamp:        base.Add(time.Duration(i) * 24 * time.Hour),
		})
	}
	return events
}

func TestSimpleMovingAverage(t *testing.T) {
	base := time.Date(2026, time.March, 2, 12, 0, 0, 0, time.UTC)
	events := eventsFromPairs(base, [][2]float64{{2, 1}, {3, 1}, {3, 1}})

	rate, ok := SimpleMovingAverage(events)
	require.True(t, ok)
	assert.InDelta(t, 8.0/3.0, rate, 1e-9)
}

func TestSimpleMovingAverageEmptyInput(t *testing.T) {
	_, ok := SimpleMovingAverage(nil)
	assert.False(t, ok)
}

func TestSimpleMovingAverageZeroDenominator(t *testing.T) {
	base := time.Date(2026, time.March, 2, 12, 0, 0, 0, time.UTC)
	events := eventsFromPairs(base, [][2]float64{{2, 0}, {3, 0}})

	_, ok := SimpleMovingAverage(events)
	assert.False(t, ok)
}

func TestExponentialWeightedMovingAverage(t *testing.T) {
	base := time.Date(2026, time.March, 2, 12, 0, 0, 0, time.UTC)
	// Observed daily rates: 2.0 then 4.0
	events := eventsFromPairs(base, [][2]float64{{2, 1}, {4, 1}})

	rate, ok := ExponentialWeightedMovingAverage(events, 0.3)
	require.True(t, ok)
	assert.InDelta(t, 0.3*4.0+0.7*2.0, rate, 1e-9)
}

func TestExponentialWeightedMovingAverageSingleEvent(t *testing.T) {
	base := time.Date(2026, time.March, 2, 12, 0, 0, 0, time.UTC)
	events := eventsFromPairs(base, [][2]float64{{3, 2}})

	rate, ok := ExponentialWeightedMovingAverage(events, DefaultAlpha)
	require.True(t, ok)
	assert.InDelta(t, 1.5, rate, 1e-9)
}

func TestExponentialWeightedMovingAverageEmptyInput(t *testing.T) {
	_, ok := ExponentialWeightedMovingAverage(nil, DefaultAlpha)
	assert.False(t, ok)
}
