package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.etcd.io/bbolt"

	"github.com/pantrysense/grocer-core/backend/internal/domain"
)

const (
	eventsBucket = "events"
	itemsBucket  = "items"
)

// BoltRepository implements Repository using BoltDB (bbolt).
// BoltDB keeps the whole store in one compact file, which suits a
// household-sized event log.
type BoltRepository struct {
	db *bbolt.DB
}

// NewBoltRepository creates a new BoltDB-backed repository
func NewBoltRepository(dbPath string) (*BoltRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create parent directory for bolt db: %w", err)
	}

	db, err := bbolt.Open(dbPath, 0600, &bbolt.Options{
		Timeout:      1 * time.Second,
		FreelistType: bbolt.FreelistMapType,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open bolt db: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		for _, bucket := range []string{eventsBucket, itemsBucket} {
			if _, err := tx.CreateBucketIfNotExists([]byte(bucket)); err != nil {
				return fmt.Errorf("failed to create bucket %s: %w", bucket, err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create buckets: %w", err)
	}

	return &BoltRepository{db: db}, nil
}

// Close closes the database connection
func (r *BoltRepository) Close() error {
	return r.db.Close()
}

// AddEvent appends a consumption event to the log
func (r *BoltRepository) AddEvent(ctx context.Context, event *domain.ConsumptionEvent) error {
	if event.ID == "" {
		event.ID = uuid.New().String()
	}

	return r.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(eventsBucket))
		if bucket == nil {
			return fmt.Errorf("%s bucket not found", eventsBucket)
		}

		data, err := json.Marshal(event)
		if err != nil {
			return fmt.Errorf("failed to marshal event: %w", err)
		}

		return bucket.Put([]byte(eventKey(event)), data)
	})
}

// LatestEvent retrieves the most recent event for a (user, item) pair.
// Returns (nil, nil) when the item has no history.
func (r *BoltRepository) LatestEvent(ctx context.Context, userID, itemName string) (*domain.ConsumptionEvent, error) {
	var latest *domain.ConsumptionEvent

	err := r.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(eventsBucket))
		if bucket == nil {
			return fmt.Errorf("%s bucket not found", eventsBucket)
		}

		prefix := []byte(eventPrefixFor(userID, itemName))
		cursor := bucket.Cursor()

		for key, value := cursor.Seek(prefix); key != nil && strings.HasPrefix(string(key), string(prefix)); key, value = cursor.Next() {
			var event domain.ConsumptionEvent
			if err := json.Unmarshal(value, &event); err != nil {
				continue
			}
			if latest == nil || event.Timestamp.After(latest.Timestamp) {
				latest = &event
			}
		}
		return nil
	})

	return latest, err
}

// EventsInWindow retrieves events from the given time onward, ascending
func (r *BoltRepository) EventsInWindow(ctx context.Context, userID, itemName string, since time.Time) ([]*domain.ConsumptionEvent, error) {
	var events []*domain.ConsumptionEvent

	err := r.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(eventsBucket))
		if bucket == nil {
			return fmt.Errorf("%s bucket not found", eventsBucket)
		}

		prefix := []byte(eventPrefixFor(userID, itemName))
		cursor := bucket.Cursor()

		for key, value := cursor.Seek(prefix); key != nil && strings.HasPrefix(string(key), string(prefix)); key, value = cursor.Next() {
			var event domain.ConsumptionEvent
			if err := json.Unmarshal(value, &event); err != nil {
				continue
			}
			if event.Timestamp.Before(since) {
				continue
			}
			events = append(events, &event)
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
func (r *BoltRepository) AddItem(ctx context.Context, item *domain.InventoryItem) error {
	if item.ID == "" {
		item.ID = uuid.New().String()
	}

	return r.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(itemsBucket))
		if bucket == nil {
			return fmt.Errorf("%s bucket not found", itemsBucket)
		}

		data, err := json.Marshal(item)
		if err != nil {
			return fmt.Errorf("failed to marshal item: %w", err)
		}

		return bucket.Put([]byte(itemKey(item.UserID, item.Name)), data)
	})
}

// GetItem retrieves an inventory item by owner and name
func (r *BoltRepository) GetItem(ctx context.Context, userID, name string) (*domain.InventoryItem, error) {
	var item *domain.InventoryItem

	err := r.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(itemsBucket))
		if bucket == nil {
			return fmt.Errorf("%s bucket not found", itemsBucket)
		}

		data := bucket.Get([]byte(itemKey(userID, name)))
		if data == nil {
			return &domain.ItemNotFoundError{UserID: userID, Name: name}
		}

		var found domain.InventoryItem
		if err := json.Unmarshal(data, &found); err != nil {
			return fmt.Errorf("failed to unmarshal item: %w", err)
		}

		item = &found
		return nil
	})

	return item, err
}

// UpdateItem updates an existing inventory item
func (r *BoltRepository) UpdateItem(ctx context.Context, item *domain.InventoryItem) error {
	return r.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(itemsBucket))
		if bucket == nil {
			return fmt.Errorf("%s bucket not found", itemsBucket)
		}

		key := []byte(itemKey(item.UserID, item.Name))
		if bucket.Get(key) == nil {
			return &domain.ItemNotFoundError{UserID: item.UserID, Name: item.Name}
		}

		data, err := json.Marshal(item)
		if err != nil {
			return fmt.Errorf("failed to marshal item: %w", err)
		}

		return bucket.Put(key, data)
	})
}

// ItemsByUser returns all inventory items owned by a user
func (r *BoltRepository) ItemsByUser(ctx context.Context, userID string) ([]*domain.InventoryItem, error) {
	var items []*domain.InventoryItem

	err := r.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(itemsBucket))
		if bucket == nil {
			return fmt.Errorf("%s bucket not found", itemsBucket)
		}

		prefix := []byte(userID + keySeparator)
		cursor := bucket.Cursor()

		for key, value := cursor.Seek(prefix); key != nil && strings.HasPrefix(string(key), string(prefix)); key, value = cursor.Next() {
			var item domain.InventoryItem
			if err := json.Unmarshal(value, &item); err != nil {
				continue
			}
			items = append(items, &item)
		}
		return nil
	})

	return items, err
}

// ItemsByCategory returns a user's items in the given category (case-insensitive)
func (r *BoltRepository) ItemsByCategory(ctx context.Context, userID, category string) ([]*domain.InventoryItem, error) {
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
func (r *BoltRepository) ListUserIDs(ctx context.Context) ([]string, error) {
	seen := make(map[string]bool)
	var userIDs []string

	err := r.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(itemsBucket))
		if bucket == nil {
			return fmt.Errorf("%s bucket not found", itemsBucket)
		}

		cursor := bucket.Cursor()
		for key, _ := cursor.First(); key != nil; key, _ = cursor.Next() {
			userID, _, found := strings.Cut(string(key), keySeparator)
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

const keySeparator = "\x00"

// eventKey builds a time-ordered key: userID, itemName, timestamp, event ID.
// The event ID suffix keeps same-instant events (e.g. a batch import) from
// overwriting each other.
func eventKey(event *domain.ConsumptionEvent) string {
	return strings.Join([]string{
		event.UserID,
		event.ItemName,
		event.Timestamp.UTC().Format(time.RFC3339Nano),
		event.ID,
	}, keySeparator)
}

func eventPrefixFor(userID, itemName string) string {
	return userID + keySeparator + itemName + keySeparator
}

func itemKey(userID, name string) string {
	return userID + keySeparator + name
}

// sortEventsChronologically orders events by timestamp ascending. Key order is
// nearly chronological already, but RFC3339Nano trims trailing zeros, so the
// lexicographic order of keys is not authoritative.
func sortEventsChronologically(events []*domain.ConsumptionEvent) {
	sort.SliceStable(events, func(i, j int) bool {
		return events[i].Timestamp.Before(events[j].Timestamp)
	})
}
