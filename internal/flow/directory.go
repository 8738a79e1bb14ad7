package flow

import (
	"fmt"

	"github.com/neo-jack/1LoanManagemen/internal/model"
	"gorm.io/gorm"
)

// Directory 用户目录接口
// 审核人分配在每次任务分发时实时解析,不在节点上缓存,
// 引擎对身份存储没有表结构依赖,任何目录实现均可替换
type Directory interface {
	// ResolveByRole 返回当前持有指定贷款审核角色的全部用户 ID
	ResolveByRole(role string) ([]uint, error)
	// ResolveByID 判断用户是否存在
	ResolveByID(userID uint) (bool, error)
}

// gormDirectory 基于用户表的目录实现
type gormDirectory struct {
	db *gorm.DB
}

// NewDirectory 创建基于数据库用户表的目录
func NewDirectory(db *gorm.DB) Directory {
	return &gormDirectory{db: db}
}

// ResolveByRole 按贷款审核角色解析用户 ID 列表
func (d *gormDirectory) ResolveByRole(role string) ([]uint, error) {
	var ids []uint
	err := d.db.Model(&model.User{}).Where("loan_role = ?", role).Pluck("id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("failed to resolve role %q: %w", role, err)
	}
	return ids, nil
}

// ResolveByID 判断用户是否存在
func (d *gormDirectory) ResolveByID(userID uint) (bool, error) {
	var count int64
	err := d.db.Model(&model.User{}).Where("id = ?", userID).Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to resolve user %d: %w", userID, err)
	}
	return count > 0, nil
}
