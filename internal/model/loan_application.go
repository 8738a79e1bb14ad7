package model

import (
	"errors"
	"time"
)

// LoanStatus 贷款申请状态
type LoanStatus string

const (
	LoanStatusDraft     LoanStatus = "draft"     // 草稿
	LoanStatusPending   LoanStatus = "pending"   // 已提交待审核
	LoanStatusAuditing  LoanStatus = "auditing"  // 审核中
	LoanStatusApproved  LoanStatus = "approved"  // 已通过
	LoanStatusRejected  LoanStatus = "rejected"  // 已驳回
	LoanStatusCompleted LoanStatus = "completed" // 已完成
)

// LoanApplication 贷款申请数据模型
// 申请的状态与当前节点只通过流程引擎的业务同步回调写入,业务代码不直接改写
type LoanApplication struct {
	ID            uint       `gorm:"primaryKey" json:"id"`
	ApplicationNo string     `gorm:"type:varchar(50);not null;uniqueIndex" json:"application_no"` // 申请编号
	UserID        uint       `gorm:"not null;index" json:"user_id"`                               // 申请人 ID(学生)
	LoanType      string     `gorm:"type:varchar(50);not null" json:"loan_type"`                  // 贷款类型
	Amount        float64    `gorm:"type:decimal(10,2);not null" json:"amount"`                   // 申请金额
	Purpose       string     `gorm:"type:text" json:"purpose"`                                    // 贷款用途
	FormData      []byte     `gorm:"type:jsonb" json:"form_data"`                                 // 表单数据(动态字段)
	Status        LoanStatus `gorm:"type:varchar(32);not null;default:'draft';index" json:"status"` // 状态
	CurrentNodeID uint       `json:"current_node_id"`                                             // 当前流程节点 ID
	SubmitTime    *time.Time `json:"submit_time"`                                                 // 提交时间
	CreatedAt     time.Time  `gorm:"not null;index" json:"created_at"`
	UpdatedAt     time.Time  `gorm:"not null" json:"updated_at"`
}

// TableName 指定表名
func (LoanApplication) TableName() string {
	return "loan_applications"
}

// Validate 验证贷款申请模型
func (a *LoanApplication) Validate() error {
	if a.ApplicationNo == "" {
		return errors.New("application no is required")
	}
	if a.UserID == 0 {
		return errors.New("user ID is required")
	}
	if a.LoanType == "" {
		return errors.New("loan type is required")
	}
	if a.Amount <= 0 {
		return errors.New("amount must be positive")
	}
	return nil
}
