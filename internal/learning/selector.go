package learning

import (
	"time"

	"github.com/pantrysense/grocer-core/backend/internal/domain"
)

// Data-span thresholds (days) driving algorithm selection. More history buys
// a more expressive algorithm and a higher confidence tier.
const (
	minUsableDataDays  = 2.0
	ewmaDataDays       = 7.0
	regressionDataDays = 14.0
)

// Learn selects and runs an estimation algorithm over a chronological window
// of consumption events. categoryRate is only invoked when the item history
// cannot produce a usable rate, so callers may back it with a repository
// query. The returned rate is always >= 0.
func Learn(events []*domain.ConsumptionEvent, itemCtx domain.ItemContext, now time.Time, categoryRate func() float64) domain.LearningResult {
	totalDataDays := dataSpanDays(events)

	if len(events) == 0 {
		return domain.LearningResult{
			Rate:       categoryRate(),
			Algorithm:  domain.AlgorithmCategoryFallback,
			Confidence: domain.ConfidenceVeryLow,
		}
	}

	if totalDataDays < minUsableDataDays {
		return domain.LearningResult{
			Rate:       categoryRate(),
			Algorithm:  domain.AlgorithmInsufficientData,
			Confidence: domain.ConfidenceVeryLow,
			DataPoints: len(events),
			DataDays:   totalDataDays,
		}
	}

	var (
		rate       float64
		ok         bool
		algorithm  domain.Algorithm
		confidence domain.Confidence
	)

	switch {
	case totalDataDays < ewmaDataDays:
		rate, ok = SimpleMovingAverage(events)
		algorithm = domain.AlgorithmSMA
		confidence = domain.ConfidenceLow

	case totalDataDays < regressionDataDays:
		rate, ok = ExponentialWeightedMovingAverage(events, DefaultAlpha)
		algorithm = domain.AlgorithmEWMA
		confidence = domain.ConfidenceMedium

	default:
		rate, ok = RegressionRate(events, itemCtx, now)
		algorithm = domain.AlgorithmLinearRegression
		confidence = domain.ConfidenceHigh
		if !ok {
			// Singular normal equations or too few points: EWMA over the
			// same event set, with confidence downgraded a tier.
			rate, ok = ExponentialWeightedMovingAverage(events, DefaultAlpha)
			algorithm = domain.AlgorithmEWMA
			confidence = domain.ConfidenceMedium
		}
	}

	// Terminal fallback: a degenerate result degrades to the category
	// estimate, tagged so callers can tell primary from degraded.
	if !ok || rate <= 0 {
		return domain.LearningResult{
			Rate:       categoryRate(),
			Algorithm:  algorithm.WithCategoryFallback(),
			Confidence: domain.ConfidenceLow,
			DataPoints: len(events),
			DataDays:   totalDataDays,
		}
	}

	return domain.LearningResult{
		Rate:       rate,
		Algorithm:  algorithm,
		Confidence: confidence,
		DataPoints: len(events),
		DataDays:   totalDataDays,
	}
}

// dataSpanDays measures the window between first and last event; 0 for a
// single observation.
func dataSpanDays(events []*domain.ConsumptionEvent) float64 {
	if len(events) <= 1 {
		return 0
	}
	return events[len(events)-1].Timestamp.Sub(events[0].Timestamp).Hours() / 24.0
}
