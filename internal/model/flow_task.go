package model

import (
	"errors"
	"time"
)

// TaskType 任务类型
type TaskType string

const (
	TaskTypeAudit TaskType = "audit" // 审核任务
	TaskTypeCC    TaskType = "cc"    // 抄送任务
)

// TaskStatus 任务状态
type TaskStatus string

const (
	TaskStatusPending   TaskStatus = "pending"   // 待处理
	TaskStatusApproved  TaskStatus = "approved"  // 已同意
	TaskStatusRejected  TaskStatus = "rejected"  // 已驳回
	TaskStatusCancelled TaskStatus = "cancelled" // 已取消(同组其他人已处理)
)

// FlowTask 流程任务数据模型(待办/已办)
// 同一 (instance_id, node_id) 下的任务构成一个任务组,由第一个决定者整组解决:
// 最多一条任务以 approved/rejected 收尾,其余全部 cancelled
type FlowTask struct {
	ID         uint       `gorm:"primaryKey" json:"id"`
	InstanceID uint       `gorm:"not null;index" json:"instance_id"`                  // 流程实例 ID
	NodeID     uint       `gorm:"not null;index" json:"node_id"`                      // 节点 ID
	TaskType   TaskType   `gorm:"type:varchar(32);not null;default:'audit'" json:"task_type"` // 任务类型
	AssigneeID uint       `gorm:"not null;index" json:"assignee_id"`                  // 处理人 ID
	Status     TaskStatus `gorm:"type:varchar(32);not null;default:'pending';index" json:"status"` // 状态
	Comment    string     `gorm:"type:text" json:"comment"`                           // 审批意见
	HandleTime *time.Time `json:"handle_time"`                                        // 处理时间
	CreatedAt  time.Time  `gorm:"not null;index" json:"created_at"`
	UpdatedAt  time.Time  `gorm:"not null" json:"updated_at"`
}

// TableName 指定表名
func (FlowTask) TableName() string {
	return "flow_tasks"
}

// Validate 验证任务模型
func (t *FlowTask) Validate() error {
	if t.InstanceID == 0 {
		return errors.New("instance ID is required")
	}
	if t.NodeID == 0 {
		return errors.New("node ID is required")
	}
	if t.AssigneeID == 0 {
		return errors.New("assignee ID is required")
	}
	return nil
}

// Resolved 判断任务是否已被处理(含被取消)
func (t *FlowTask) Resolved() bool {
	return t.Status != TaskStatusPending
}
