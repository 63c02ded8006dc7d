package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"

	"github.com/pantrysense/grocer-core/backend/internal/domain"
)

const (
	eventKeyPrefix = "event:"
	itemKeyPrefix  = "item:"
)

// BadgerRepository implements Repository using BadgerDB
type BadgerRepository struct {
	db *badger.DB
}

// NewBadgerRepository creates a new BadgerDB-backed repository
func NewBadgerRepository(dbPath string) (*BadgerRepository, error) {
	opts := badger.DefaultOptions(dbPath)
	opts.Logger = nil // Disable badger logging

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger db: %w", err)
	}

	return &BadgerRepository{db: db}, nil
}

// Close closes the database connection
func (r *BadgerRepository) Close() error {
	return r.db.Close()
}

// AddEvent appends a consumption event to the log
func (r *BadgerRepository) AddEvent(ctx context.Context, event *domain.ConsumptionEvent) error {
	if event.ID == "" {
		event.ID = uuid.New().String()
	}

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	return r.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(eventKeyPrefix+eventKey(event)), data)
	})
}

// LatestEvent retrieves the most recent event for a (user, item) pair.
// Returns (nil, nil) when the item has no history.
func (r *BadgerRepository) LatestEvent(ctx context.Context, userID, itemName string) (*domain.ConsumptionEvent, error) {
	var latest *domain.ConsumptionEvent

	err := r.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(eventKeyPrefix + eventPrefixFor(userID, itemName))

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			var event domain.ConsumptionEvent
			err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &event)
			})
			if err != nil {
				continue
			}
			if latest == nil || event.Timestamp.After(latest.Timestamp) {
				copied := event
				latest = &copied
			}
		}
		return nil
	})

	return latest, err
}

// EventsInWindow retrieves events from the given time onward, ascending
func (r *BadgerRepository) EventsInWindow(ctx context.Context, userID, itemName string, since time.Time) ([]*domain.ConsumptionEvent, error) {
	var events []*domain.ConsumptionEvent

	err := r.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(eventKeyPrefix + eventPrefixFor(userID, itemName))

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			var event domain.ConsumptionEvent
			err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &event)
			})
			if err != nil {
				continue
			}
			if event.Timestamp.Before(since) {
				continue
			}
			copied := event
			events = append(events, &copied)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sortEventsChronologically(events)
	return events, nil
}

// AddItem adds a new inventory item
func (r *BadgerRepository) AddItem(ctx context.Context, item *domain.InventoryItem) error {
	if item.ID == "" {
		item.ID = uuid.New().String()
	}

	data, err := json.Marshal(item)
	if err != nil {
		return fmt.Errorf("failed to marshal item: %w", err)
	}

	return r.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(itemKeyPrefix+itemKey(item.UserID, item.Name)), data)
	})
}

// GetItem retrieves an inventory item by owner and name
func (r *BadgerRepository) GetItem(ctx context.Context, userID, name string) (*domain.InventoryItem, error) {
	var item *domain.InventoryItem

	err := r.db.View(func(txn *badger.Txn) error {
		dbItem, err := txn.Get([]byte(itemKeyPrefix + itemKey(userID, name)))
		if err != nil {
			if err == badger.ErrKeyNotFound {
				return &domain.ItemNotFoundError{UserID: userID, Name: name}
			}
			return err
		}

		return dbItem.Value(func(val []byte) error {
			item = &domain.InventoryItem{}
			return json.Unmarshal(val, item)
		})
	})

	return item, err
}

// UpdateItem updates an existing inventory item
func (r *BadgerRepository) UpdateItem(ctx context.Context, item *domain.InventoryItem) error {
	return r.db.Update(func(txn *badger.Txn) error {
		key := []byte(itemKeyPrefix + itemKey(item.UserID, item.Name))

		if _, err := txn.Get(key); err != nil {
			if err == badger.ErrKeyNotFound {
				return &domain.ItemNotFoundError{UserID: item.UserID, Name: item.Name}
			}
			return err
		}

		data, err := json.Marshal(item)
		if err != nil {
			return fmt.Errorf("failed to marshal item: %w", err)
		}

		return txn.Set(key, data)
	})
}

// ItemsByUser returns all inventory items owned by a user
func (r *BadgerRepository) ItemsByUser(ctx context.Context, userID string) ([]*domain.InventoryItem, error) {
	var items []*domain.InventoryItem

	err := r.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(itemKeyPrefix + userID + keySeparator)

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			var item domain.InventoryItem
			err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &item)
			})
			if err != nil {
				continue
			}
			copied := item
			items = append(items, &copied)
		}
		return nil
	})

	return items, err
}

// ItemsByCategory returns a user's items in the given category (case-insensitive)
func (r *BadgerRepository) ItemsByCategory(ctx context.Context, userID, category string) ([]*domain.InventoryItem, error) {
	items, err := r.ItemsByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	var matched []*domain.InventoryItem
	for _, item := range items {
		if strings.EqualFold(item.Category, category) {
			matched = append(matched, item)
		}
	}
	return matched, nil
}

// ListUserIDs returns the distinct owners of inventory items
func (r *BadgerRepository) ListUserIDs(ctx context.Context) ([]string, error) {
	seen := make(map[string]bool)
	var userIDs []string

	err := r.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(itemKeyPrefix)
		opts.PrefetchValues = false

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			key := strings.TrimPrefix(string(it.Item().Key()), itemKeyPrefix)
			userID, _, found := strings.Cut(key, keySeparator)
			if !found || seen[userID] {
				continue
			}
			seen[userID] = true
			userIDs = append(userIDs, userID)
		}
		return nil
	})

	return userIDs, err
}
