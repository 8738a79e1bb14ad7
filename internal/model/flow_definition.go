package model

import (
	"errors"
	"time"
)

// DefinitionStatus 流程配置状态
type DefinitionStatus string

const (
	DefinitionStatusDraft    DefinitionStatus = "draft"    // 草稿
	DefinitionStatusPending  DefinitionStatus = "pending"  // 待审核
	DefinitionStatusActive   DefinitionStatus = "active"   // 已启用
	DefinitionStatusInactive DefinitionStatus = "inactive" // 已停用
)

// FlowDefinition 流程配置数据模型
type FlowDefinition struct {
	ID           uint             `gorm:"primaryKey" json:"id"`
	FlowName     string           `gorm:"type:varchar(100);not null" json:"flow_name"`            // 流程名称
	BusinessType string           `gorm:"type:varchar(50);not null;index" json:"business_type"`   // 业务类型(如贷款类型)
	Description  string           `gorm:"type:text" json:"description"`                           // 描述
	Status       DefinitionStatus `gorm:"type:varchar(32);not null;default:'draft'" json:"status"` // 状态
	CreatedBy    uint             `gorm:"index" json:"created_by"`                                // 创建人 ID
	CreatedAt    time.Time        `gorm:"not null" json:"created_at"`
	UpdatedAt    time.Time        `gorm:"not null" json:"updated_at"`
}

// TableName 指定表名
func (FlowDefinition) TableName() string {
	return "flow_definitions"
}

// Validate 验证流程配置模型
func (d *FlowDefinition) Validate() error {
	if d.FlowName == "" {
		return errors.New("flow name is required")
	}
	if d.BusinessType == "" {
		return errors.New("business type is required")
	}
	return nil
}
