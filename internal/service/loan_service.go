package service

import (
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/neo-jack/1LoanManagemen/internal/flow"
	"github.com/neo-jack/1LoanManagemen/internal/model"
	"github.com/neo-jack/1LoanManagemen/internal/notify"
	"github.com/neo-jack/1LoanManagemen/internal/repository"
	"gorm.io/gorm"
)

// LoanService 贷款申请服务
// 申请本身是被流程引擎治理的业务记录:提交申请会发起流程实例,
// 之后申请的状态只通过业务同步适配器改变
type LoanService interface {
	Create(userID uint, req *CreateLoanRequest) (*model.LoanApplication, error)
	Submit(userID, applicationID uint) (*model.LoanApplication, error)
	ListByUser(userID uint, status string) ([]*model.LoanApplication, error)
	Detail(applicationID uint) (*LoanDetail, error)
}

// CreateLoanRequest 创建贷款申请请求
type CreateLoanRequest struct {
	LoanType string          `json:"loan_type" binding:"required"`   // 贷款类型
	Amount   float64         `json:"amount" binding:"required,gt=0"` // 申请金额
	Purpose  string          `json:"purpose"`                        // 贷款用途
	FormData json.RawMessage `json:"form_data"`                      // 表单数据
}

// LoanDetail 贷款申请详情
type LoanDetail struct {
	Application *model.LoanApplication `json:"application"`
	Instance    *model.FlowInstance    `json:"instance,omitempty"`
	Tasks       []*model.FlowTask      `json:"tasks,omitempty"`
	Nodes       []*model.FlowNode      `json:"nodes,omitempty"`
}

// loanService 贷款申请服务实现
type loanService struct {
	db          *gorm.DB
	loanRepo    repository.LoanRepository
	defRepo     repository.DefinitionRepository
	instRepo    repository.InstanceRepository
	taskRepo    repository.TaskRepository
	nodeRepo    repository.NodeRepository
	instanceSvc InstanceService
	dispatcher  notify.Dispatcher
}

// NewLoanService 创建贷款申请服务
func NewLoanService(
	db *gorm.DB,
	loanRepo repository.LoanRepository,
	defRepo repository.DefinitionRepository,
	instRepo repository.InstanceRepository,
	taskRepo repository.TaskRepository,
	nodeRepo repository.NodeRepository,
	instanceSvc InstanceService,
	dispatcher notify.Dispatcher,
) LoanService {
	return &loanService{
		db:          db,
		loanRepo:    loanRepo,
		defRepo:     defRepo,
		instRepo:    instRepo,
		taskRepo:    taskRepo,
		nodeRepo:    nodeRepo,
		instanceSvc: instanceSvc,
		dispatcher:  dispatcher,
	}
}

// Create 创建贷款申请草稿
func (s *loanService) Create(userID uint, req *CreateLoanRequest) (*model.LoanApplication, error) {
	app := &model.LoanApplication{
		ApplicationNo: generateApplicationNo(),
		UserID:        userID,
		LoanType:      req.LoanType,
		Amount:        req.Amount,
		Purpose:       req.Purpose,
		FormData:      req.FormData,
		Status:        model.LoanStatusDraft,
	}
	if err := app.Validate(); err != nil {
		return nil, flow.WrapError(flow.KindValidation, "invalid loan application", err)
	}
	if err := s.loanRepo.Create(app); err != nil {
		return nil, err
	}
	return app, nil
}

// Submit 提交贷款申请,发起审批流程
// 仅草稿可提交;按贷款类型匹配已启用的流程配置
func (s *loanService) Submit(userID, applicationID uint) (*model.LoanApplication, error) {
	app, err := s.loanRepo.FindByID(applicationID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, flow.NotFoundf("loan application %d not found", applicationID)
		}
		return nil, err
	}
	if app.UserID != userID {
		return nil, flow.NotFoundf("loan application %d not found", applicationID)
	}
	if app.Status != model.LoanStatusDraft {
		return nil, flow.Conflictf("only draft applications can be submitted (current status: %s)", app.Status)
	}

	def, err := s.defRepo.FindActiveByBusinessType(app.LoanType)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, flow.NotFoundf("no active approval flow for loan type %q", app.LoanType)
		}
		return nil, err
	}

	var (
		instance *model.FlowInstance
		newTasks []*model.FlowTask
	)
	err = s.db.Transaction(func(tx *gorm.DB) error {
		instance, newTasks, err = s.instanceSvc.Instantiate(
			tx, def.ID, flow.BusinessTypeLoanApplication, app.ID, userID)
		if err != nil {
			return err
		}
		// 状态与当前节点由业务同步回调写入,提交时间是贷款模块自己的字段
		return tx.Model(&model.LoanApplication{}).
			Where("id = ?", app.ID).Update("submit_time", time.Now()).Error
	})
	if err != nil {
		return nil, err
	}

	for _, t := range newTasks {
		s.dispatcher.Dispatch(notify.Event{
			Type:         notify.EventTaskCreated,
			TaskID:       t.ID,
			InstanceID:   instance.ID,
			NodeID:       t.NodeID,
			AssigneeID:   t.AssigneeID,
			BusinessType: flow.BusinessTypeLoanApplication,
			BusinessID:   app.ID,
		})
	}

	return s.loanRepo.FindByID(app.ID)
}

// ListByUser 获取用户的申请列表,可按状态过滤
func (s *loanService) ListByUser(userID uint, status string) ([]*model.LoanApplication, error) {
	var statusFilter *model.LoanStatus
	if status != "" {
		ls := model.LoanStatus(status)
		statusFilter = &ls
	}
	return s.loanRepo.FindByUser(userID, statusFilter)
}

// Detail 获取申请详情及流程快照
func (s *loanService) Detail(applicationID uint) (*LoanDetail, error) {
	app, err := s.loanRepo.FindByID(applicationID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, flow.NotFoundf("loan application %d not found", applicationID)
		}
		return nil, err
	}

	detail := &LoanDetail{Application: app}

	instance, err := s.instRepo.FindByBusiness(flow.BusinessTypeLoanApplication, app.ID)
	if err != nil {
		return nil, err
	}
	if instance == nil {
		return detail, nil
	}
	detail.Instance = instance

	if detail.Tasks, err = s.taskRepo.FindByInstance(instance.ID); err != nil {
		return nil, err
	}
	if detail.Nodes, err = s.nodeRepo.FindByFlowID(instance.FlowID); err != nil {
		return nil, err
	}
	return detail, nil
}

// generateApplicationNo 生成申请编号: LOAN + 日期 + 4 位随机数
func generateApplicationNo() string {
	return fmt.Sprintf("LOAN%s%04d", time.Now().Format("20060102"), rand.Intn(10000))
}
