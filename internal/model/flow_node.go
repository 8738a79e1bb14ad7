package model

import (
	"errors"
	"time"
)

// NodeType 节点类型
type NodeType string

const (
	NodeTypeStart NodeType = "start" // 开始节点
	NodeTypeAudit NodeType = "audit" // 审核节点
	NodeTypeEnd   NodeType = "end"   // 结束节点
)

// AuditorType 审核人指定方式
type AuditorType string

const (
	AuditorTypeUser AuditorType = "user" // 指定单个用户
	AuditorTypeRole AuditorType = "role" // 指定角色(该角色下所有用户)
)

// FlowNode 流程节点数据模型
// 节点通过 sort_order 形成单链,后继节点在读取时按顺序计算,不落库
type FlowNode struct {
	ID          uint        `gorm:"primaryKey" json:"id"`
	FlowID      uint        `gorm:"not null;index" json:"flow_id"`                    // 所属流程配置 ID
	NodeName    string      `gorm:"type:varchar(100);not null" json:"node_name"`      // 节点名称
	NodeType    NodeType    `gorm:"type:varchar(32);not null" json:"node_type"`       // 节点类型
	AuditorType AuditorType `gorm:"type:varchar(32);default:'role'" json:"auditor_type"` // 审核人类型
	AuditorID   uint        `json:"auditor_id"`                                       // 审核人用户 ID(auditor_type=user 时生效)
	AuditorRole string      `gorm:"type:varchar(50)" json:"auditor_role"`             // 审核人角色(auditor_type=role 时生效)
	SortOrder   int         `gorm:"not null;default:0" json:"sort_order"`             // 节点顺序
	CreatedAt   time.Time   `gorm:"not null" json:"created_at"`
	UpdatedAt   time.Time   `gorm:"not null" json:"updated_at"`
}

// TableName 指定表名
func (FlowNode) TableName() string {
	return "flow_nodes"
}

// Validate 验证节点模型
func (n *FlowNode) Validate() error {
	if n.NodeName == "" {
		return errors.New("node name is required")
	}
	switch n.NodeType {
	case NodeTypeStart, NodeTypeAudit, NodeTypeEnd:
	default:
		return errors.New("invalid node type")
	}
	if n.NodeType == NodeTypeAudit {
		switch n.AuditorType {
		case AuditorTypeUser:
			if n.AuditorID == 0 {
				return errors.New("auditor user ID is required")
			}
		case AuditorTypeRole:
			if n.AuditorRole == "" {
				return errors.New("auditor role is required")
			}
		default:
			return errors.New("invalid auditor type")
		}
	}
	return nil
}
