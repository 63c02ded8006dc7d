package events

import (
	"context"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestPubSub() *PubSub {
	logger := logrus.New()
	logger.SetLevel(logrus.WarnLevel)
	return NewPubSub(logger)
}

func TestPublishDeliversToSubscriber(t *testing.T) {
	ps := newTestPubSub()
	received := make(chan Event, 1)

	ps.Subscribe(EventConsumptionRecorded, func(ctx context.Context, event Event) error {
		received <- event
		return nil
	})

	ps.Publish(context.Background(), Event{
		Type:     EventConsumptionRecorded,
		UserID:   "user-1",
		ItemName: "Milk",
	})

	select {
	case event := <-received:
		assert.Equal(t, "user-1", event.UserID)
		assert.Equal(t, "Milk", event.ItemName)
	case <-time.After(time.Second):
		t.Fatal("handler was not invoked")
	}
}

func TestPublishWithoutSubscribersIsNoop(t *testing.T) {
	ps := newTestPubSub()

	// Must not panic or block
	ps.Publish(context.Background(), Event{Type: EventRateUpdated})
}

func TestSubscribeNilHandlerIgnored(t *testing.T) {
	ps := newTestPubSub()

	ps.Subscribe(EventRateUpdated, nil)
	require.Equal(t, 0, ps.HandlerCount(EventRateUpdated))
}

func TestHandlerCount(t *testing.T) {
	ps := newTestPubSub()

	handler := func(ctx context.Context, event Event) error { return nil }
	ps.Subscribe(EventBatchCompleted, handler)
	ps.Subscribe(EventBatchCompleted, handler)

	assert.Equal(t, 2, ps.HandlerCount(EventBatchCompleted))
	assert.Equal(t, 0, ps.HandlerCount(EventRateUpdated))
}
