package notify

import (
	"context"
	"encoding/json"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/sirupsen/logrus"

	ws "github.com/neo-jack/1LoanManagemen/internal/websocket"
)

// Bridge 把消息总线上的流程事件转发到 WebSocket 连接
type Bridge struct {
	subscriber message.Subscriber
	hub        *ws.Hub
	logger     *logrus.Logger
}

// NewBridge 创建事件转发桥
func NewBridge(subscriber message.Subscriber, hub *ws.Hub, logger *logrus.Logger) *Bridge {
	return &Bridge{subscriber: subscriber, hub: hub, logger: logger}
}

// Run 消费流程事件并推送,直到 ctx 取消
func (b *Bridge) Run(ctx context.Context) error {
	messages, err := b.subscriber.Subscribe(ctx, TopicFlowEvents)
	if err != nil {
		return err
	}

	for msg := range messages {
		var evt Event
		if err := json.Unmarshal(msg.Payload, &evt); err != nil {
			b.logger.WithError(err).Warn("failed to decode flow event")
			msg.Ack()
			continue
		}

		if evt.AssigneeID > 0 {
			b.hub.SendToUser(evt.AssigneeID, msg.Payload)
		} else {
			b.hub.BroadcastAll(msg.Payload)
		}
		msg.Ack()
	}
	return nil
}
