package learning

import (
	"github.com/pantrysense/grocer-core/backend/internal/domain"
)

// DefaultAlpha is the EWMA smoothing factor; recent observations weigh more
const DefaultAlpha = 0.3

// SimpleMovingAverage computes total consumed over total elapsed days across
// the window. Returns ok=false when there are no events or the elapsed-day
// denominator is zero.
func SimpleMovingAverage(events []*domain.ConsumptionEvent) (float64, bool) {
	if len(events) == 0 {
		return 0, false
	}

	totalConsumed := 0.0
	totalDays := 0.0
	for _, event := range events {
		totalConsumed += event.QuantityConsumed
		totalDays += event.DaysElapsed
	}

	if totalDays == 0 {
		return 0, false
	}

	return totalConsumed / totalDays, true
}

// ExponentialWeightedMovingAverage recursively smooths per-event daily rates
// in chronological order. The series is seeded with the first event's rate;
// each later event contributes alpha of its observed rate. Returns ok=false
// on empty input.
func ExponentialWeightedMovingAverage(events []*domain.ConsumptionEvent, alpha float64) (float64, bool) {
	if len(events) == 0 {
		return 0, false
	}

	ewma := events[0].ObservedDailyRate()
	for _, event := range events[1:] {
		dailyRate := event.ObservedDailyRate()
		ewma = alpha*dailyRate + (1-alpha)*ewma
	}

	return ewma, true
}
