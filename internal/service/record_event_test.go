package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pantrysense/grocer-core/backend/internal/domain"
)

func recordParams(clock *fakeClock, before, after float64, source domain.EventSource) RecordEventParams {
	return RecordEventParams{
		UserID:         "user-1",
		ItemName:       "Milk",
		QuantityBefore: before,
		QuantityAfter:  after,
		EventType:      domain.EventTypeManualUpdate,
		Source:         source,
		Unit:           "liters",
		Category:       "dairy",
		ItemCreatedAt:  clock.Now().AddDate(0, 0, -5),
	}
}

func TestRecordConsumptionEventComputesDelta(t *testing.T) {
	svc, clock := setupTestService(t)
	ctx := context.Background()

	event, err := svc.RecordConsumptionEvent(ctx, recordParams(clock, 10, 7, domain.SourceAPI))
	require.NoError(t, err)
	require.NotNil(t, event)

	assert.Equal(t, 3.0, event.QuantityConsumed)
	assert.Equal(t, 10.0, event.QuantityBefore)
	assert.Equal(t, 7.0, event.QuantityAfter)
	assert.Equal(t, "dairy", event.Category)
	assert.Equal(t, "liters", event.Unit)
	assert.NotEmpty(t, event.ID)
}

func TestRecordConsumptionEventIgnoresNoopAndRestock(t *testing.T) {
	svc, clock := setupTestService(t)
	ctx := context.Background()

	// No-op change
	event, err := svc.RecordConsumptionEvent(ctx, recordParams(clock, 5, 5, domain.SourceAPI))
	require.NoError(t, err)
	assert.Nil(t, event)

	// Restock (quantity increased)
	event, err = svc.RecordConsumptionEvent(ctx, recordParams(clock, 5, 9, domain.SourceAPI))
	require.NoError(t, err)
	assert.Nil(t, event)

	// Neither may leave a trace in the log
	history := svc.ConsumptionHistory(ctx, "user-1", "Milk", 0)
	assert.Empty(t, history)
}

func TestRecordConsumptionEventUserSourceUsesMinimalElapsed(t *testing.T) {
	svc, clock := setupTestService(t)
	ctx := context.Background()

	event, err := svc.RecordConsumptionEvent(ctx, recordParams(clock, 10, 9, domain.SourceUser))
	require.NoError(t, err)
	require.NotNil(t, event)

	// Manual edits are instantaneous: fixed minimal elapsed time, zero age
	assert.Equal(t, minUserElapsedDays, event.DaysElapsed)
	assert.Equal(t, 0.0, event.DaysInInventory)
}

func TestRecordConsumptionEventFirstEventMeasuresFromCreation(t *testing.T) {
	svc, clock := setupTestService(t)
	ctx := context.Background()

	event, err := svc.RecordConsumptionEvent(ctx, recordParams(clock, 10, 8, domain.SourceSimulation))
	require.NoError(t, err)
	require.NotNil(t, event)

	// Item was created 5 days before the clock's now
	assert.InDelta(t, 5.0, event.DaysElapsed, 1e-6)
	assert.InDelta(t, 5.0, event.DaysInInventory, 1e-6)
}

func TestRecordConsumptionEventFirstEventFloorsElapsed(t *testing.T) {
	svc, clock := setupTestService(t)
	ctx := context.Background()

	params := recordParams(clock, 10, 8, domain.SourceSimulation)
	params.ItemCreatedAt = clock.Now() // created this instant

	event, err := svc.RecordConsumptionEvent(ctx, params)
	require.NoError(t, err)
	require.NotNil(t, event)

	assert.Equal(t, minFirstEventDays, event.DaysElapsed)
}

func TestRecordConsumptionEventElapsedFromPriorEvent(t *testing.T) {
	svc, clock := setupTestService(t)
	ctx := context.Background()

	_, err := svc.RecordConsumptionEvent(ctx, recordParams(clock, 10, 8, domain.SourceSimulation))
	require.NoError(t, err)

	clock.Advance(36 * time.Hour)

	event, err := svc.RecordConsumptionEvent(ctx, recordParams(clock, 8, 6, domain.SourceSimulation))
	require.NoError(t, err)
	require.NotNil(t, event)

	assert.InDelta(t, 1.5, event.DaysElapsed, 1e-6)
}

func TestRecordedEventsAllHavePositiveConsumption(t *testing.T) {
	svc, clock := setupTestService(t)
	ctx := context.Background()

	inputs := [][2]float64{{10, 8}, {8, 8}, {8, 12}, {12, 11}, {11, 11.5}}
	for _, pair := range inputs {
		_, err := svc.RecordConsumptionEvent(ctx, recordParams(clock, pair[0], pair[1], domain.SourceAPI))
		require.NoError(t, err)
		clock.Advance(time.Hour)
	}

	history := svc.ConsumptionHistory(ctx, "user-1", "Milk", 0)
	require.Len(t, history, 2)
	for _, event := range history {
		assert.Greater(t, event.QuantityConsumed, 0.0)
		assert.Greater(t, event.DaysElapsed, 0.0)
		assert.Equal(t, event.QuantityBefore-event.QuantityAfter, event.QuantityConsumed)
	}
}
