package service

import (
	"context"
	"math"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/pantrysense/grocer-core/backend/internal/domain"
	"github.com/pantrysense/grocer-core/backend/internal/events"
	"github.com/pantrysense/grocer-core/backend/internal/learning"
	"github.com/pantrysense/grocer-core/backend/internal/repository"
)

// LearningService converts quantity-change notifications into consumption
// observations and learns per-item daily consumption rates from them. It is
// stateless; all state lives in the repository.
type LearningService struct {
	repo   repository.Repository
	bus    *events.PubSub
	logger *logrus.Logger
	now    func() time.Time
}

// NewLearningService creates a new learning service instance
func NewLearningService(
	repo repository.Repository,
	bus *events.PubSub,
	logger *logrus.Logger,
) *LearningService {
	return &LearningService{
		repo:   repo,
		bus:    bus,
		logger: logger,
		now:    time.Now,
	}
}

// RecordEventParams carries one quantity-change notification from the
// surrounding application (receipt application, manual edits, day simulation).
type RecordEventParams struct {
	UserID         string
	ItemName       string
	QuantityBefore float64
	QuantityAfter  float64
	EventType      domain.EventType
	Source         domain.EventSource
	Unit           string
	Category       string
	ItemCreatedAt  time.Time
}

// RecordConsumptionEvent derives a consumption observation from a
// before/after quantity pair and appends it to the event log. Zero or
// negative deltas (no-ops and restocks) return (nil, nil) without side
// effects; they are expected inputs, not errors.
func (s *LearningService) RecordConsumptionEvent(ctx context.Context, params RecordEventParams) (*domain.ConsumptionEvent, error) {
	consumed := params.QuantityBefore - params.QuantityAfter
	if consumed <= 0 {
		return nil, nil
	}

	now := s.now()

	var daysElapsed, daysInInventory float64
	if params.Source == domain.SourceUser {
		// Manual edits are instantaneous; wall-clock elapsed time would
		// corrupt the rate model for them.
		daysElapsed = minUserElapsedDays
		daysInInventory = 0
	} else {
		prior, err := s.repo.LatestEvent(ctx, params.UserID, params.ItemName)
		if err != nil {
			return nil, err
		}

		if prior != nil {
			daysElapsed = math.Max(minUserElapsedDays, now.Sub(prior.Timestamp).Hours()/hoursPerDay)
		} else {
			daysElapsed = math.Max(minFirstEventDays, now.Sub(params.ItemCreatedAt).Hours()/hoursPerDay)
		}

		daysInInventory = math.Max(0, now.Sub(params.ItemCreatedAt).Hours()/hoursPerDay)
	}

	event := &domain.ConsumptionEvent{
		UserID:           params.UserID,
		ItemName:         params.ItemName,
		QuantityBefore:   params.QuantityBefore,
		QuantityAfter:    params.QuantityAfter,
		QuantityConsumed: consumed,
		DaysElapsed:      daysElapsed,
		DaysInInventory:  daysInInventory,
		EventType:        params.EventType,
		Source:           params.Source,
		Unit:             params.Unit,
		Category:         params.Category,
		Timestamp:        now,
	}

	if err := s.repo.AddEvent(ctx, event); err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"user_id":      params.UserID,
		"item_name":    params.ItemName,
		"consumed":     consumed,
		"days_elapsed": daysElapsed,
		"event_type":   params.EventType,
		"source":       params.Source,
	}).Debug("consumption event recorded")

	s.bus.Publish(ctx, events.Event{
		Type:      events.EventConsumptionRecorded,
		UserID:    params.UserID,
		ItemName:  params.ItemName,
		Timestamp: now.Unix(),
		Data: map[string]interface{}{
			"quantity_consumed": consumed,
			"event_type":        string(params.EventType),
		},
	})

	return event, nil
}

// ConsumptionHistory loads a bounded trailing window of observations for one
// item, filtered to strictly-positive consumption, chronological ascending.
// A storage failure is treated as "no data": missing history must never block
// the surrounding application.
func (s *LearningService) ConsumptionHistory(ctx context.Context, userID, itemName string, windowDays int) []*domain.ConsumptionEvent {
	history, err := s.consumptionHistory(ctx, userID, itemName, windowDays)
	if err != nil {
		s.logger.WithFields(logrus.Fields{
			"user_id":   userID,
			"item_name": itemName,
		}).WithError(err).Warn("failed to load consumption history, treating as empty")
		return nil
	}
	return history
}

func (s *LearningService) consumptionHistory(ctx context.Context, userID, itemName string, windowDays int) ([]*domain.ConsumptionEvent, error) {
	if windowDays <= 0 {
		windowDays = defaultWindowDays
	}

	since := s.now().AddDate(0, 0, -windowDays)
	raw, err := s.repo.EventsInWindow(ctx, userID, itemName, since)
	if err != nil {
		return nil, err
	}

	// The store only accepts positive consumption, but the filter is part of
	// the retriever contract, so apply it regardless.
	history := make([]*domain.ConsumptionEvent, 0, len(raw))
	for _, event := range raw {
		if event.QuantityConsumed > 0 {
			history = append(history, event)
		}
	}
	return history, nil
}

// LearnConsumptionRate estimates the item's average daily consumption rate
// from its history, falling back to the category estimate when history is
// absent, sparse, or numerically degenerate. It never fails: a storage error
// degrades to an error_fallback category estimate.
func (s *LearningService) LearnConsumptionRate(ctx context.Context, userID, itemName string, itemCtx domain.ItemContext) domain.LearningResult {
	history, err := s.consumptionHistory(ctx, userID, itemName, defaultWindowDays)
	if err != nil {
		s.logger.WithFields(logrus.Fields{
			"user_id":   userID,
			"item_name": itemName,
		}).WithError(err).Warn("history read failed, using category estimate")

		return domain.LearningResult{
			Rate:       s.EstimateFromCategory(ctx, userID, itemCtx.Category),
			Algorithm:  domain.AlgorithmErrorFallback,
			Confidence: domain.ConfidenceVeryLow,
		}
	}

	result := learning.Learn(history, itemCtx, s.now(), func() float64 {
		return s.EstimateFromCategory(ctx, userID, itemCtx.Category)
	})

	s.logger.WithFields(logrus.Fields{
		"user_id":     userID,
		"item_name":   itemName,
		"rate":        result.Rate,
		"algorithm":   result.Algorithm,
		"confidence":  result.Confidence,
		"data_points": result.DataPoints,
		"data_days":   result.DataDays,
	}).Debug("learned consumption rate")

	return result
}

// EstimateFromCategory produces a rate for an item with no usable history: the
// average learned rate of the user's other items in the same category when
// available, otherwise the fixed category table. Never fails.
func (s *LearningService) EstimateFromCategory(ctx context.Context, userID, category string) float64 {
	siblings, err := s.repo.ItemsByCategory(ctx, userID, category)
	if err != nil {
		s.logger.WithFields(logrus.Fields{
			"user_id":  userID,
			"category": category,
		}).WithError(err).Warn("category sibling lookup failed, using default table")
		return learning.CategoryRate(category)
	}

	sum := 0.0
	count := 0
	for _, item := range siblings {
		if item.AverageDailyConsumption > 0 {
			sum += item.AverageDailyConsumption
			count++
		}
	}
	if count > 0 {
		return sum / float64(count)
	}

	return learning.CategoryRate(category)
}

// UpdateAllConsumptionRates relearns the rate for every item the user owns and
// writes back meaningful changes along with the recomputed predicted-runout
// date. Items are processed sequentially; a failure on one item is counted and
// logged but never aborts the batch.
func (s *LearningService) UpdateAllConsumptionRates(ctx context.Context, userID string) (*domain.BatchStats, error) {
	items, err := s.repo.ItemsByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	stats := &domain.BatchStats{
		Total:      len(items),
		Algorithms: make(map[string]int),
	}

	now := s.now()
	for _, item := range items {
		result := s.LearnConsumptionRate(ctx, userID, item.Name, item.Context(now))
		stats.Algorithms[string(result.Algorithm)]++

		if math.Abs(result.Rate-item.AverageDailyConsumption) <= rateWriteEpsilon {
			continue
		}

		item.AverageDailyConsumption = result.Rate
		if result.Rate > 0 && item.Quantity > 0 {
			daysRemaining := item.Quantity / result.Rate
			runout := now.Add(time.Duration(daysRemaining * hoursPerDay * float64(time.Hour)))
			item.PredictedRunout = &runout
		} else {
			item.PredictedRunout = nil
		}
		item.UpdatedAt = now

		if err := s.repo.UpdateItem(ctx, item); err != nil {
			stats.Failed++
			s.logger.WithFields(logrus.Fields{
				"user_id":   userID,
				"item_name": item.Name,
			}).WithError(err).Error("failed to update item consumption rate")
			continue
		}

		stats.Updated++

		s.bus.Publish(ctx, events.Event{
			Type:      events.EventRateUpdated,
			UserID:    userID,
			ItemName:  item.Name,
			Timestamp: now.Unix(),
			Data: map[string]interface{}{
				"rate":       result.Rate,
				"algorithm":  string(result.Algorithm),
				"confidence": string(result.Confidence),
			},
		})
	}

	s.logger.WithFields(logrus.Fields{
		"user_id": userID,
		"total":   stats.Total,
		"updated": stats.Updated,
		"failed":  stats.Failed,
	}).Info("batch consumption rate update completed")

	s.bus.Publish(ctx, events.Event{
		Type:      events.EventBatchCompleted,
		UserID:    userID,
		Timestamp: now.Unix(),
		Data: map[string]interface{}{
			"total":   stats.Total,
			"updated": stats.Updated,
			"failed":  stats.Failed,
		},
	})

	return stats, nil
}
