package domain

import (
	"fmt"
	"strings"
	"time"
)

// EventType categorizes what caused a quantity change
type EventType string

const (
	EventTypeSimulation   EventType = "simulation"
	EventTypeManualUpdate EventType = "manual_update"
	EventTypeDeletion     EventType = "deletion"
	EventTypePurchase     EventType = "purchase"
	EventTypeReceiptScan  EventType = "receipt_scan"
)

// EventSource identifies which actor reported a quantity change
type EventSource string

const (
	SourceUser       EventSource = "user"
	SourceSimulation EventSource = "simulation"
	SourceAPI        EventSource = "api"
)

// Confidence is a coarse tier indicating how much history backs a learned rate
type Confidence string

const (
	ConfidenceVeryLow Confidence = "very_low"
	ConfidenceLow     Confidence = "low"
	ConfidenceMedium  Confidence = "medium"
	ConfidenceHigh    Confidence = "high"
)

// Algorithm names the estimation strategy that produced a learning result
type Algorithm string

const (
	AlgorithmSMA              Algorithm = "sma"
	AlgorithmEWMA             Algorithm = "ewma"
	AlgorithmLinearRegression Algorithm = "linear_regression"
	AlgorithmCategoryFallback Algorithm = "category_fallback"
	AlgorithmInsufficientData Algorithm = "insufficient_data"
	AlgorithmErrorFallback    Algorithm = "error_fallback"

	// categoryFallbackSuffix tags results where the primary algorithm degraded
	// to the category estimate, so callers can tell primary from degraded.
	categoryFallbackSuffix = "_fallback_category"
)

// WithCategoryFallback tags an algorithm name as degraded to the category estimate
func (a Algorithm) WithCategoryFallback() Algorithm {
	return Algorithm(string(a) + categoryFallbackSuffix)
}

// IsCategoryFallback reports whether the result came from a degraded path
func (a Algorithm) IsCategoryFallback() bool {
	return a == AlgorithmCategoryFallback || strings.HasSuffix(string(a), categoryFallbackSuffix)
}

// ConsumptionEvent is one recorded quantity-decrease observation for an item.
// Events are append-only facts: created once, never updated, never deleted.
type ConsumptionEvent struct {
	ID               string      `json:"id"`
	UserID           string      `json:"user_id"`
	ItemName         string      `json:"item_name"`
	QuantityBefore   float64     `json:"quantity_before"`
	QuantityAfter    float64     `json:"quantity_after"`
	QuantityConsumed float64     `json:"quantity_consumed"`
	DaysElapsed      float64     `json:"days_elapsed"`
	DaysInInventory  float64     `json:"days_in_inventory"`
	EventType        EventType   `json:"event_type"`
	Source           EventSource `json:"source"`
	Unit             string      `json:"unit"`
	Category         string      `json:"category"`
	Timestamp        time.Time   `json:"timestamp"`
}

// ObservedDailyRate returns the per-day consumption rate this event implies
func (e *ConsumptionEvent) ObservedDailyRate() float64 {
	if e.DaysElapsed <= 0 {
		return 0
	}
	return e.QuantityConsumed / e.DaysElapsed
}

// LearningResult is the outcome of one learning call. It is produced fresh on
// every call and never persisted or cached.
type LearningResult struct {
	Rate       float64    `json:"rate"`
	Algorithm  Algorithm  `json:"algorithm"`
	Confidence Confidence `json:"confidence"`
	DataPoints int        `json:"data_points"`
	DataDays   float64    `json:"data_days"`
}

// ItemContext carries the item fields the selector needs without loading the
// full inventory record.
type ItemContext struct {
	Category        string  `json:"category"`
	Unit            string  `json:"unit"`
	DaysInInventory float64 `json:"days_in_inventory"`
}

// InventoryItem is the collaborating inventory record. The learner only ever
// writes AverageDailyConsumption and PredictedRunout; everything else is owned
// by the inventory CRUD layer.
type InventoryItem struct {
	ID                      string     `json:"id"`
	UserID                  string     `json:"user_id"`
	Name                    string     `json:"name"`
	Quantity                float64    `json:"quantity"`
	Unit                    string     `json:"unit"`
	Category                string     `json:"category"`
	CreatedAt               time.Time  `json:"created_at"`
	UpdatedAt               time.Time  `json:"updated_at"`
	AverageDailyConsumption float64    `json:"average_daily_consumption"`
	PredictedRunout         *time.Time `json:"predicted_runout,omitempty"`
}

// DaysInInventory returns the item age in days at the given time
func (i *InventoryItem) DaysInInventory(now time.Time) float64 {
	if i.CreatedAt.IsZero() || now.Before(i.CreatedAt) {
		return 0
	}
	return now.Sub(i.CreatedAt).Hours() / 24.0
}

// Context builds the ItemContext for a learning call at the given time
func (i *InventoryItem) Context(now time.Time) ItemContext {
	return ItemContext{
		Category:        i.Category,
		Unit:            i.Unit,
		DaysInInventory: i.DaysInInventory(now),
	}
}

// BatchStats summarizes one UpdateAllConsumptionRates run
type BatchStats struct {
	Total      int            `json:"total"`
	Updated    int            `json:"updated"`
	Failed     int            `json:"failed"`
	Algorithms map[string]int `json:"algorithms"`
}

// ItemNotFoundError represents an error when an inventory item is not found
type ItemNotFoundError struct {
	UserID string
	Name   string
}

func (e *ItemNotFoundError) Error() string {
	return fmt.Sprintf("inventory item '%s' not found for user '%s'", e.Name, e.UserID)
}
