package flow

import "gorm.io/gorm"

// BusinessTypeLoanApplication 贷款申请业务类型
const BusinessTypeLoanApplication = "loan_application"

// BusinessSync 业务同步适配器
// 引擎在每次流转中同步调用,把流程状态与当前节点推回业务记录。
// 回调与流转处于同一事务:回调失败则整个流转回滚,
// 业务记录不会与流程实例出现状态分裂
type BusinessSync interface {
	// OnInstanceSubmitted 实例创建后调用
	OnInstanceSubmitted(tx *gorm.DB, businessType string, businessID, nodeID uint) error
	// OnInstanceAdvanced 实例流转到下一审核节点后调用
	OnInstanceAdvanced(tx *gorm.DB, businessType string, businessID, nodeID uint) error
	// OnInstanceCompleted 实例走完全部审核节点后调用
	OnInstanceCompleted(tx *gorm.DB, businessType string, businessID uint) error
	// OnInstanceRejected 实例被驳回后调用
	OnInstanceRejected(tx *gorm.DB, businessType string, businessID uint) error
}
