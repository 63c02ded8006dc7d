package service

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/pantrysense/grocer-core/backend/internal/domain"
	"github.com/pantrysense/grocer-core/backend/internal/events"
	"github.com/pantrysense/grocer-core/backend/internal/repository"
)

// setupTestService creates a learning service backed by a real BoltDB in a
// temp dir, with the clock pinned to a fixed instant that tests can advance.
func setupTestService(t *testing.T) (*LearningService, *fakeClock) {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "test.db")
	repo, err := repository.NewRepository(dbPath, repository.DatabaseTypeBolt)
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })

	logger := logrus.New()
	logger.SetLevel(logrus.WarnLevel) // Reduce noise in tests

	svc := NewLearningService(repo, events.NewPubSub(logger), logger)

	clock := &fakeClock{now: time.Date(2026, time.March, 2, 12, 0, 0, 0, time.UTC)}
	svc.now = clock.Now

	return svc, clock
}

// setupMockService creates a learning service over a MockRepository for
// error-path tests.
func setupMockService(t *testing.T) (*LearningService, *MockRepository) {
	t.Helper()

	mockRepo := &MockRepository{}

	logger := logrus.New()
	logger.SetLevel(logrus.WarnLevel)

	svc := NewLearningService(mockRepo, events.NewPubSub(logger), logger)
	svc.now = func() time.Time {
		return time.Date(2026, time.March, 2, 12, 0, 0, 0, time.UTC)
	}

	return svc, mockRepo
}

// fakeClock provides a controllable time source for deterministic tests
type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.now = c.now.Add(d)
}

// MockRepository is a testify mock of repository.Repository
type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) AddEvent(ctx context.Context, event *domain.ConsumptionEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

func (m *MockRepository) LatestEvent(ctx context.Context, userID, itemName string) (*domain.ConsumptionEvent, error) {
	args := m.Called(ctx, userID, itemName)
	event, _ := args.Get(0).(*domain.ConsumptionEvent)
	return event, args.Error(1)
}

func (m *MockRepository) EventsInWindow(ctx context.Context, userID, itemName string, since time.Time) ([]*domain.ConsumptionEvent, error) {
	args := m.Called(ctx, userID, itemName, since)
	eventsList, _ := args.Get(0).([]*domain.ConsumptionEvent)
	return eventsList, args.Error(1)
}

func (m *MockRepository) AddItem(ctx context.Context, item *domain.InventoryItem) error {
	args := m.Called(ctx, item)
	return args.Error(0)
}

func (m *MockRepository) GetItem(ctx context.Context, userID, name string) (*domain.InventoryItem, error) {
	args := m.Called(ctx, userID, name)
	item, _ := args.Get(0).(*domain.InventoryItem)
	return item, args.Error(1)
}

func (m *MockRepository) UpdateItem(ctx context.Context, item *domain.InventoryItem) error {
	args := m.Called(ctx, item)
	return args.Error(0)
}

func (m *MockRepository) ItemsByUser(ctx context.Context, userID string) ([]*domain.InventoryItem, error) {
	args := m.Called(ctx, userID)
	items, _ := args.Get(0).([]*domain.InventoryItem)
	return items, args.Error(1)
}

func (m *MockRepository) ItemsByCategory(ctx context.Context, userID, category string) ([]*domain.InventoryItem, error) {
	args := m.Called(ctx, userID, category)
	items, _ := args.Get(0).([]*domain.InventoryItem)
	return items, args.Error(1)
}

func (m *MockRepository) ListUserIDs(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	userIDs, _ := args.Get(0).([]string)
	return userIDs, args.Error(1)
}

func (m *MockRepository) Close() error {
	args := m.Called()
	return args.Error(0)
}
