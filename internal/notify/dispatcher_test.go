package notify_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/neo-jack/1LoanManagemen/internal/notify"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestDispatcher_PublishesEvent 分发的事件能从总线上订阅到
func TestDispatcher_PublishesEvent(t *testing.T) {
	pubsub := gochannel.NewGoChannel(gochannel.Config{}, watermill.NopLogger{})
	defer pubsub.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	messages, err := pubsub.Subscribe(ctx, notify.TopicFlowEvents)
	require.NoError(t, err)

	dispatcher := notify.NewDispatcher(pubsub, logrus.New())
	dispatcher.Dispatch(notify.Event{
		Type:       notify.EventTaskCreated,
		TaskID:     7,
		InstanceID: 3,
		AssigneeID: 42,
	})

	select {
	case msg := <-messages:
		var evt notify.Event
		require.NoError(t, json.Unmarshal(msg.Payload, &evt))
		assert.Equal(t, notify.EventTaskCreated, evt.Type)
		assert.Equal(t, uint(7), evt.TaskID)
		assert.Equal(t, uint(42), evt.AssigneeID)
		assert.False(t, evt.OccurredAt.IsZero())
		msg.Ack()
	case <-ctx.Done():
		t.Fatal("expected a flow event on the bus")
	}
}

// TestNoopDispatcher 空分发器不做任何事
func TestNoopDispatcher(t *testing.T) {
	dispatcher := notify.NewNoopDispatcher()
	assert.NotPanics(t, func() {
		dispatcher.Dispatch(notify.Event{Type: notify.EventInstanceCompleted})
	})
}
