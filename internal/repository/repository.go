package repository

import (
	"context"
	"time"

	"github.com/pantrysense/grocer-core/backend/internal/domain"
)

// Repository defines the persistence boundary for the consumption learner:
// an append-only consumption event log plus the collaborating inventory
// records whose learned-rate fields the batch updater mutates.
type Repository interface {
	// Consumption event operations. Events are append-only; there is no
	// update or delete. LatestEvent returns (nil, nil) when the item has no
	// history. EventsInWindow returns events in chronological ascending
	// order, from the given time onward.
	AddEvent(ctx context.Context, event *domain.ConsumptionEvent) error
	LatestEvent(ctx context.Context, userID, itemName string) (*domain.ConsumptionEvent, error)
	EventsInWindow(ctx context.Context, userID, itemName string, since time.Time) ([]*domain.ConsumptionEvent, error)

	// Inventory item operations
	AddItem(ctx context.Context, item *domain.InventoryItem) error
	GetItem(ctx context.Context, userID, name string) (*domain.InventoryItem, error)
	UpdateItem(ctx context.Context, item *domain.InventoryItem) error
	ItemsByUser(ctx context.Context, userID string) ([]*domain.InventoryItem, error)
	ItemsByCategory(ctx context.Context, userID, category string) ([]*domain.InventoryItem, error)
	ListUserIDs(ctx context.Context) ([]string, error)

	Close() error
}
