package events

import (
	"context"
	"sync"

	"github.com/sirupsen/logrus"
)

// EventType represents different types of consumption notifications
type EventType string

const (
	EventConsumptionRecorded EventType = "consumption.recorded"
	EventRateUpdated         EventType = "consumption.rate_updated"
	EventBatchCompleted      EventType = "consumption.batch_completed"
)

// Event represents a system event
type Event struct {
	Type      EventType              `json:"type"`
	UserID    string                 `json:"user_id,omitempty"`
	ItemName  string                 `json:"item_name,omitempty"`
	Data      map[string]interface{} `json:"data,omitempty"`
	Timestamp int64                  `json:"timestamp"`
}

// Handler is a function that handles events
type Handler func(ctx context.Context, event Event) error

// PubSub provides simple in-memory publish/subscribe functionality, used to
// notify the surrounding application of recorded consumption and rate changes
// without coupling it to the learner.
type PubSub struct {
	mu       sync.RWMutex
	handlers map[EventType][]Handler
	logger   *logrus.Logger
}

// NewPubSub creates a new PubSub instance
func NewPubSub(logger *logrus.Logger) *PubSub {
	if logger == nil {
		logger = logrus.New()
	}

	return &PubSub{
		handlers: make(map[EventType][]Handler),
		logger:   logger,
	}
}

// Subscribe registers a handler for an event type
func (ps *PubSub) Subscribe(eventType EventType, handler Handler) {
	if handler == nil {
		ps.logger.WithField("event_type", eventType).Warn("attempted to subscribe nil handler")
		return
	}

	ps.mu.Lock()
	defer ps.mu.Unlock()

	ps.handlers[eventType] = append(ps.handlers[eventType], handler)
}

// Publish sends an event to all registered handlers. Handlers run in
// goroutines so a slow subscriber never blocks a recording or learning call.
func (ps *PubSub) Publish(ctx context.Context, event Event) {
	if event.Type == "" {
		ps.logger.Warn("attempted to publish event with empty type")
		return
	}

	ps.mu.RLock()
	handlers := ps.handlers[event.Type]
	ps.mu.RUnlock()

	if len(handlers) == 0 {
		return
	}

	ps.logger.WithFields(logrus.Fields{
		"event_type":    event.Type,
		"handler_count": len(handlers),
		"user_id":       event.UserID,
	}).Debug("publishing event")

	for _, handler := range handlers {
		go func(h Handler) {
			if err := h(ctx, event); err != nil {
				ps.logger.WithFields(logrus.Fields{
					"event_type": event.Type,
					"user_id":    event.UserID,
				}).WithError(err).Error("handler failed to process event")
			}
		}(handler)
	}
}

// HandlerCount returns the number of handlers for an event type
func (ps *PubSub) HandlerCount(eventType EventType) int {
	ps.mu.RLock()
	defer ps.mu.RUnlock()

	return len(ps.handlers[eventType])
}
