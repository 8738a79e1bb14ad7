package repository

import (
	"errors"

	"github.com/neo-jack/1LoanManagemen/internal/model"
	"gorm.io/gorm"
)

// InstanceRepository 流程实例仓储接口
// 实例只增不删,终态实例作为历史保留
type InstanceRepository interface {
	Create(tx *gorm.DB, instance *model.FlowInstance) error
	Save(tx *gorm.DB, instance *model.FlowInstance) error
	FindByID(id uint) (*model.FlowInstance, error)
	FindByIDForUpdate(tx *gorm.DB, id uint) (*model.FlowInstance, error)
	FindRunning(tx *gorm.DB, businessType string, businessID uint) (*model.FlowInstance, error)
	FindByBusiness(businessType string, businessID uint) (*model.FlowInstance, error)
}

// instanceRepository 流程实例仓储实现
type instanceRepository struct {
	db *gorm.DB
}

// NewInstanceRepository 创建流程实例仓储
func NewInstanceRepository(db *gorm.DB) InstanceRepository {
	return &instanceRepository{db: db}
}

// Create 创建流程实例
func (r *instanceRepository) Create(tx *gorm.DB, instance *model.FlowInstance) error {
	return tx.Create(instance).Error
}

// Save 保存流程实例
func (r *instanceRepository) Save(tx *gorm.DB, instance *model.FlowInstance) error {
	return tx.Save(instance).Error
}

// FindByID 根据 ID 查找流程实例
func (r *instanceRepository) FindByID(id uint) (*model.FlowInstance, error) {
	var instance model.FlowInstance
	if err := r.db.Where("id = ?", id).First(&instance).Error; err != nil {
		return nil, err
	}
	return &instance, nil
}

// FindByIDForUpdate 在事务中根据 ID 查找流程实例
func (r *instanceRepository) FindByIDForUpdate(tx *gorm.DB, id uint) (*model.FlowInstance, error) {
	var instance model.FlowInstance
	if err := tx.Where("id = ?", id).First(&instance).Error; err != nil {
		return nil, err
	}
	return &instance, nil
}

// FindRunning 在事务中查找业务键下进行中的实例,不存在时返回 (nil, nil)
func (r *instanceRepository) FindRunning(tx *gorm.DB, businessType string, businessID uint) (*model.FlowInstance, error) {
	var instance model.FlowInstance
	err := tx.Where("business_type = ? AND business_id = ? AND status = ?",
		businessType, businessID, model.InstanceStatusRunning).First(&instance).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &instance, nil
}

// FindByBusiness 查找业务键最近的实例,不存在时返回 (nil, nil)
func (r *instanceRepository) FindByBusiness(businessType string, businessID uint) (*model.FlowInstance, error) {
	var instance model.FlowInstance
	err := r.db.Where("business_type = ? AND business_id = ?", businessType, businessID).
		Order("created_at DESC").First(&instance).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &instance, nil
}
