package notify

import (
	"encoding/json"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/sirupsen/logrus"
)

// TopicFlowEvents 流程事件主题
const TopicFlowEvents = "flow.events"

// 事件类型
const (
	EventTaskCreated       = "task_created"       // 新任务分发
	EventTaskApproved      = "task_approved"      // 任务被同意
	EventTaskRejected      = "task_rejected"      // 任务被驳回
	EventInstanceCompleted = "instance_completed" // 流程走完
	EventInstanceRejected  = "instance_rejected"  // 流程被驳回
)

// Event 流程事件
// AssigneeID 非零时定向推送给该用户,为零时广播
type Event struct {
	Type         string    `json:"type"`
	TaskID       uint      `json:"task_id,omitempty"`
	InstanceID   uint      `json:"instance_id,omitempty"`
	NodeID       uint      `json:"node_id,omitempty"`
	AssigneeID   uint      `json:"assignee_id,omitempty"`
	BusinessType string    `json:"business_type,omitempty"`
	BusinessID   uint      `json:"business_id,omitempty"`
	OccurredAt   time.Time `json:"occurred_at"`
}

// Dispatcher 通知分发器
// 纯旁路通道:发布失败只记日志,绝不回滚已提交的流程流转,
// 因此只能在事务提交之后调用
type Dispatcher interface {
	Dispatch(evt Event)
}

// busDispatcher 基于 watermill 消息总线的分发器实现
type busDispatcher struct {
	publisher message.Publisher
	logger    *logrus.Logger
}

// NewDispatcher 创建消息总线分发器
func NewDispatcher(publisher message.Publisher, logger *logrus.Logger) Dispatcher {
	return &busDispatcher{publisher: publisher, logger: logger}
}

// Dispatch 发布流程事件
func (d *busDispatcher) Dispatch(evt Event) {
	if evt.OccurredAt.IsZero() {
		evt.OccurredAt = time.Now()
	}

	payload, err := json.Marshal(evt)
	if err != nil {
		d.logger.WithError(err).WithField("event", evt.Type).Warn("failed to marshal flow event")
		return
	}

	msg := message.NewMessage(watermill.NewUUID(), payload)
	if err := d.publisher.Publish(TopicFlowEvents, msg); err != nil {
		d.logger.WithError(err).WithField("event", evt.Type).Warn("failed to publish flow event")
	}
}

// noopDispatcher 空分发器(测试用)
type noopDispatcher struct{}

// NewNoopDispatcher 创建空分发器
func NewNoopDispatcher() Dispatcher {
	return &noopDispatcher{}
}

// Dispatch 丢弃事件
func (d *noopDispatcher) Dispatch(Event) {}
