package repository

import (
	"github.com/neo-jack/1LoanManagemen/internal/model"
	"gorm.io/gorm"
)

// LoanRepository 贷款申请仓储接口
type LoanRepository interface {
	Create(app *model.LoanApplication) error
	Save(tx *gorm.DB, app *model.LoanApplication) error
	FindByID(id uint) (*model.LoanApplication, error)
	FindByIDForUpdate(tx *gorm.DB, id uint) (*model.LoanApplication, error)
	FindByUser(userID uint, status *model.LoanStatus) ([]*model.LoanApplication, error)
}

// loanRepository 贷款申请仓储实现
type loanRepository struct {
	db *gorm.DB
}

// NewLoanRepository 创建贷款申请仓储
func NewLoanRepository(db *gorm.DB) LoanRepository {
	return &loanRepository{db: db}
}

// Create 创建贷款申请
func (r *loanRepository) Create(app *model.LoanApplication) error {
	return r.db.Create(app).Error
}

// Save 保存贷款申请
func (r *loanRepository) Save(tx *gorm.DB, app *model.LoanApplication) error {
	return tx.Save(app).Error
}

// FindByID 根据 ID 查找贷款申请
func (r *loanRepository) FindByID(id uint) (*model.LoanApplication, error) {
	var app model.LoanApplication
	if err := r.db.Where("id = ?", id).First(&app).Error; err != nil {
		return nil, err
	}
	return &app, nil
}

// FindByIDForUpdate 在事务中根据 ID 查找贷款申请
func (r *loanRepository) FindByIDForUpdate(tx *gorm.DB, id uint) (*model.LoanApplication, error) {
	var app model.LoanApplication
	if err := tx.Where("id = ?", id).First(&app).Error; err != nil {
		return nil, err
	}
	return &app, nil
}

// FindByUser 查找用户的贷款申请列表,可按状态过滤
func (r *loanRepository) FindByUser(userID uint, status *model.LoanStatus) ([]*model.LoanApplication, error) {
	var apps []*model.LoanApplication
	query := r.db.Where("user_id = ?", userID)
	if status != nil {
		query = query.Where("status = ?", *status)
	}
	err := query.Order("created_at DESC").Find(&apps).Error
	return apps, err
}
