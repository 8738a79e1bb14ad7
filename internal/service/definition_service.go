package service

import (
	"errors"

	"github.com/neo-jack/1LoanManagemen/internal/flow"
	"github.com/neo-jack/1LoanManagemen/internal/model"
	"github.com/neo-jack/1LoanManagemen/internal/repository"
	"gorm.io/gorm"
)

// DefinitionService 流程配置服务
// 配置由管理员维护,引擎只读共享,运行中的实例不受配置状态变更影响
type DefinitionService interface {
	List() ([]*model.FlowDefinition, error)
	GetWithNodes(id uint) (*DefinitionDetail, error)
	Create(userID uint, req *CreateDefinitionRequest) (*model.FlowDefinition, error)
	Update(id uint, req *UpdateDefinitionRequest) (*model.FlowDefinition, error)
	ReplaceNodes(id uint, specs []NodeSpec) ([]*model.FlowNode, error)
	SubmitForReview(id uint) (*model.FlowDefinition, error)
	Approve(id uint) (*model.FlowDefinition, error)
	Deactivate(id uint) (*model.FlowDefinition, error)
}

// CreateDefinitionRequest 创建流程配置请求
type CreateDefinitionRequest struct {
	FlowName     string `json:"flow_name" binding:"required"`     // 流程名称
	BusinessType string `json:"business_type" binding:"required"` // 业务类型
	Description  string `json:"description"`                      // 描述
}

// UpdateDefinitionRequest 更新流程配置请求
type UpdateDefinitionRequest struct {
	FlowName    string `json:"flow_name"`   // 流程名称
	Description string `json:"description"` // 描述
}

// NodeSpec 节点定义
// 保存时按数组顺序整体替换,顺序即节点链
type NodeSpec struct {
	NodeName    string            `json:"node_name" binding:"required"` // 节点名称
	NodeType    model.NodeType    `json:"node_type" binding:"required"` // 节点类型
	AuditorType model.AuditorType `json:"auditor_type"`                 // 审核人类型
	AuditorID   uint              `json:"auditor_id"`                   // 审核人用户 ID
	AuditorRole string            `json:"auditor_role"`                 // 审核人角色
}

// DefinitionDetail 流程配置详情
type DefinitionDetail struct {
	Definition *model.FlowDefinition `json:"definition"`
	Nodes      []*model.FlowNode     `json:"nodes"`
}

// definitionService 流程配置服务实现
type definitionService struct {
	db       *gorm.DB
	defRepo  repository.DefinitionRepository
	nodeRepo repository.NodeRepository
}

// NewDefinitionService 创建流程配置服务
func NewDefinitionService(db *gorm.DB, defRepo repository.DefinitionRepository, nodeRepo repository.NodeRepository) DefinitionService {
	return &definitionService{db: db, defRepo: defRepo, nodeRepo: nodeRepo}
}

// List 获取所有流程配置
func (s *definitionService) List() ([]*model.FlowDefinition, error) {
	return s.defRepo.FindAll()
}

// GetWithNodes 获取流程配置详情及节点链
func (s *definitionService) GetWithNodes(id uint) (*DefinitionDetail, error) {
	def, err := s.load(id)
	if err != nil {
		return nil, err
	}
	nodes, err := s.nodeRepo.FindByFlowID(def.ID)
	if err != nil {
		return nil, err
	}
	return &DefinitionDetail{Definition: def, Nodes: nodes}, nil
}

// Create 创建流程配置,初始为草稿
func (s *definitionService) Create(userID uint, req *CreateDefinitionRequest) (*model.FlowDefinition, error) {
	def := &model.FlowDefinition{
		FlowName:     req.FlowName,
		BusinessType: req.BusinessType,
		Description:  req.Description,
		Status:       model.DefinitionStatusDraft,
		CreatedBy:    userID,
	}
	if err := def.Validate(); err != nil {
		return nil, flow.WrapError(flow.KindValidation, "invalid flow definition", err)
	}
	if err := s.defRepo.Save(def); err != nil {
		return nil, err
	}
	return def, nil
}

// Update 更新流程配置基本信息
func (s *definitionService) Update(id uint, req *UpdateDefinitionRequest) (*model.FlowDefinition, error) {
	def, err := s.load(id)
	if err != nil {
		return nil, err
	}
	if req.FlowName != "" {
		def.FlowName = req.FlowName
	}
	if req.Description != "" {
		def.Description = req.Description
	}
	if err := s.defRepo.Save(def); err != nil {
		return nil, err
	}
	return def, nil
}

// ReplaceNodes 整体替换节点链
// 节点列表必须至少包含一个审核节点和一个结束节点
func (s *definitionService) ReplaceNodes(id uint, specs []NodeSpec) ([]*model.FlowNode, error) {
	def, err := s.load(id)
	if err != nil {
		return nil, err
	}

	nodes := make([]*model.FlowNode, 0, len(specs))
	auditCount, endCount := 0, 0
	for _, spec := range specs {
		node := &model.FlowNode{
			FlowID:      def.ID,
			NodeName:    spec.NodeName,
			NodeType:    spec.NodeType,
			AuditorType: spec.AuditorType,
			AuditorID:   spec.AuditorID,
			AuditorRole: spec.AuditorRole,
		}
		if node.NodeType == model.NodeTypeAudit && node.AuditorType == "" {
			node.AuditorType = model.AuditorTypeRole
		}
		if err := node.Validate(); err != nil {
			return nil, flow.WrapError(flow.KindValidation, "invalid node spec", err)
		}
		switch node.NodeType {
		case model.NodeTypeAudit:
			auditCount++
		case model.NodeTypeEnd:
			endCount++
		}
		nodes = append(nodes, node)
	}
	if auditCount == 0 || endCount == 0 {
		return nil, flow.Validationf("node list must contain at least one audit node and one end node")
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		return s.nodeRepo.ReplaceAll(tx, def.ID, nodes)
	})
	if err != nil {
		return nil, err
	}
	return nodes, nil
}

// SubmitForReview 提交流程配置审核,仅草稿可提交
func (s *definitionService) SubmitForReview(id uint) (*model.FlowDefinition, error) {
	return s.transition(id, model.DefinitionStatusDraft, model.DefinitionStatusPending,
		"only draft definitions can be submitted for review")
}

// Approve 审核通过流程配置,仅待审核可通过
func (s *definitionService) Approve(id uint) (*model.FlowDefinition, error) {
	return s.transition(id, model.DefinitionStatusPending, model.DefinitionStatusActive,
		"only pending definitions can be approved")
}

// Deactivate 停用流程配置,不影响已发起的实例
func (s *definitionService) Deactivate(id uint) (*model.FlowDefinition, error) {
	return s.transition(id, model.DefinitionStatusActive, model.DefinitionStatusInactive,
		"only active definitions can be deactivated")
}

// transition 流程配置状态迁移
func (s *definitionService) transition(id uint, from, to model.DefinitionStatus, conflictMsg string) (*model.FlowDefinition, error) {
	def, err := s.load(id)
	if err != nil {
		return nil, err
	}
	if def.Status != from {
		return nil, flow.Conflictf("%s (current status: %s)", conflictMsg, def.Status)
	}
	def.Status = to
	if err := s.defRepo.Save(def); err != nil {
		return nil, err
	}
	return def, nil
}

// load 加载流程配置
func (s *definitionService) load(id uint) (*model.FlowDefinition, error) {
	def, err := s.defRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, flow.NotFoundf("flow definition %d not found", id)
		}
		return nil, err
	}
	return def, nil
}
