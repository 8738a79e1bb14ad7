package repository

import (
	"github.com/neo-jack/1LoanManagemen/internal/model"
	"gorm.io/gorm"
)

// DefinitionRepository 流程配置仓储接口
type DefinitionRepository interface {
	Save(def *model.FlowDefinition) error
	FindByID(id uint) (*model.FlowDefinition, error)
	FindAll() ([]*model.FlowDefinition, error)
	FindActiveByBusinessType(businessType string) (*model.FlowDefinition, error)
}

// definitionRepository 流程配置仓储实现
type definitionRepository struct {
	db *gorm.DB
}

// NewDefinitionRepository 创建流程配置仓储
func NewDefinitionRepository(db *gorm.DB) DefinitionRepository {
	return &definitionRepository{db: db}
}

// Save 保存流程配置
func (r *definitionRepository) Save(def *model.FlowDefinition) error {
	return r.db.Save(def).Error
}

// FindByID 根据 ID 查找流程配置
func (r *definitionRepository) FindByID(id uint) (*model.FlowDefinition, error) {
	var def model.FlowDefinition
	if err := r.db.Where("id = ?", id).First(&def).Error; err != nil {
		return nil, err
	}
	return &def, nil
}

// FindAll 查找所有流程配置
func (r *definitionRepository) FindAll() ([]*model.FlowDefinition, error) {
	var defs []*model.FlowDefinition
	err := r.db.Order("created_at DESC").Find(&defs).Error
	return defs, err
}

// FindActiveByBusinessType 查找指定业务类型下已启用的流程配置
func (r *definitionRepository) FindActiveByBusinessType(businessType string) (*model.FlowDefinition, error) {
	var def model.FlowDefinition
	err := r.db.Where("business_type = ? AND status = ?", businessType, model.DefinitionStatusActive).
		Order("updated_at DESC").First(&def).Error
	if err != nil {
		return nil, err
	}
	return &def, nil
}
