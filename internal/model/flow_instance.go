package model

import (
	"errors"
	"time"
)

// InstanceStatus 流程实例状态
type InstanceStatus string

const (
	InstanceStatusRunning   InstanceStatus = "running"   // 进行中
	InstanceStatusCompleted InstanceStatus = "completed" // 已通过
	InstanceStatusRejected  InstanceStatus = "rejected"  // 已驳回
	InstanceStatusCancelled InstanceStatus = "cancelled" // 已取消
)

// FlowInstance 流程实例数据模型
// 同一 (business_type, business_id) 最多只允许一个 running 状态的实例
type FlowInstance struct {
	ID            uint           `gorm:"primaryKey" json:"id"`
	FlowID        uint           `gorm:"not null;index" json:"flow_id"`                       // 流程配置 ID
	BusinessType  string         `gorm:"type:varchar(50);not null" json:"business_type"`      // 业务类型
	BusinessID    uint           `gorm:"not null" json:"business_id"`                         // 业务 ID(如申请 ID)
	CurrentNodeID uint           `json:"current_node_id"`                                     // 当前节点 ID
	Status        InstanceStatus `gorm:"type:varchar(32);not null;default:'running';index" json:"status"` // 状态
	InitiatorID   uint           `gorm:"not null;index" json:"initiator_id"`                  // 发起人 ID
	StartTime     time.Time      `gorm:"not null" json:"start_time"`                          // 开始时间
	EndTime       *time.Time     `json:"end_time"`                                            // 结束时间(进行中为空)
	CreatedAt     time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt     time.Time      `gorm:"not null" json:"updated_at"`
}

// TableName 指定表名
func (FlowInstance) TableName() string {
	return "flow_instances"
}

// Validate 验证流程实例模型
func (i *FlowInstance) Validate() error {
	if i.FlowID == 0 {
		return errors.New("flow ID is required")
	}
	if i.BusinessType == "" {
		return errors.New("business type is required")
	}
	if i.BusinessID == 0 {
		return errors.New("business ID is required")
	}
	if i.InitiatorID == 0 {
		return errors.New("initiator ID is required")
	}
	return nil
}

// Terminal 判断实例是否处于终态
func (i *FlowInstance) Terminal() bool {
	return i.Status != InstanceStatusRunning
}
