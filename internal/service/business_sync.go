package service

import (
	"github.com/neo-jack/1LoanManagemen/internal/flow"
	"github.com/neo-jack/1LoanManagemen/internal/model"
	"gorm.io/gorm"
)

// loanSync 贷款申请的业务同步适配器
// 在引擎事务内把流程状态与当前节点写回 loan_applications,
// 写回失败会令整个流转回滚
type loanSync struct{}

// NewLoanSync 创建贷款申请业务同步适配器
func NewLoanSync() flow.BusinessSync {
	return &loanSync{}
}

// OnInstanceSubmitted 申请进入待审核
func (s *loanSync) OnInstanceSubmitted(tx *gorm.DB, businessType string, businessID, nodeID uint) error {
	if businessType != flow.BusinessTypeLoanApplication {
		return nil
	}
	return s.update(tx, businessID, map[string]interface{}{
		"status":          model.LoanStatusPending,
		"current_node_id": nodeID,
	})
}

// OnInstanceAdvanced 申请进入下一审核环节
func (s *loanSync) OnInstanceAdvanced(tx *gorm.DB, businessType string, businessID, nodeID uint) error {
	if businessType != flow.BusinessTypeLoanApplication {
		return nil
	}
	return s.update(tx, businessID, map[string]interface{}{
		"status":          model.LoanStatusAuditing,
		"current_node_id": nodeID,
	})
}

// OnInstanceCompleted 申请审批通过
func (s *loanSync) OnInstanceCompleted(tx *gorm.DB, businessType string, businessID uint) error {
	if businessType != flow.BusinessTypeLoanApplication {
		return nil
	}
	return s.update(tx, businessID, map[string]interface{}{
		"status": model.LoanStatusApproved,
	})
}

// OnInstanceRejected 申请被驳回
func (s *loanSync) OnInstanceRejected(tx *gorm.DB, businessType string, businessID uint) error {
	if businessType != flow.BusinessTypeLoanApplication {
		return nil
	}
	return s.update(tx, businessID, map[string]interface{}{
		"status": model.LoanStatusRejected,
	})
}

func (s *loanSync) update(tx *gorm.DB, businessID uint, values map[string]interface{}) error {
	result := tx.Model(&model.LoanApplication{}).Where("id = ?", businessID).Updates(values)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return flow.NotFoundf("loan application %d not found", businessID)
	}
	return nil
}
