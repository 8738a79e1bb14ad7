package service

import (
	"errors"
	"time"

	"github.com/neo-jack/1LoanManagemen/internal/flow"
	"github.com/neo-jack/1LoanManagemen/internal/metrics"
	"github.com/neo-jack/1LoanManagemen/internal/model"
	"github.com/neo-jack/1LoanManagemen/internal/repository"
	"gorm.io/gorm"
)

// InstanceService 流程实例生命周期管理
// 所有方法都在调用方事务内执行:实例写入、任务分发、业务同步
// 要么一起提交要么一起回滚,实例不会停在"已解决但未流转"的节点上
type InstanceService interface {
	// Instantiate 针对一条业务记录发起流程实例并分发首个审核节点的任务
	Instantiate(tx *gorm.DB, definitionID uint, businessType string, businessID, initiatorID uint) (*model.FlowInstance, []*model.FlowTask, error)
	// Advance 审批通过后把实例推进到 resolvedNodeID 的后继节点
	Advance(tx *gorm.DB, instance *model.FlowInstance, resolvedNodeID uint) ([]*model.FlowTask, error)
	// TerminateRejected 审批驳回后终止实例
	TerminateRejected(tx *gorm.DB, instance *model.FlowInstance) error
}

// instanceService 流程实例生命周期实现
type instanceService struct {
	defRepo  repository.DefinitionRepository
	nodeRepo repository.NodeRepository
	instRepo repository.InstanceRepository
	fanOut   FanOutService
	sync     flow.BusinessSync
}

// NewInstanceService 创建流程实例服务
func NewInstanceService(
	defRepo repository.DefinitionRepository,
	nodeRepo repository.NodeRepository,
	instRepo repository.InstanceRepository,
	fanOut FanOutService,
	sync flow.BusinessSync,
) InstanceService {
	return &instanceService{
		defRepo:  defRepo,
		nodeRepo: nodeRepo,
		instRepo: instRepo,
		fanOut:   fanOut,
		sync:     sync,
	}
}

// Instantiate 发起流程实例
// 前置条件:流程配置已启用,且该业务键下没有进行中的实例
func (s *instanceService) Instantiate(tx *gorm.DB, definitionID uint, businessType string, businessID, initiatorID uint) (*model.FlowInstance, []*model.FlowTask, error) {
	def, err := s.defRepo.FindByID(definitionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, flow.NotFoundf("flow definition %d not found", definitionID)
		}
		return nil, nil, err
	}
	if def.Status != model.DefinitionStatusActive {
		return nil, nil, flow.Conflictf("flow definition %d is not active", definitionID)
	}

	existing, err := s.instRepo.FindRunning(tx, businessType, businessID)
	if err != nil {
		return nil, nil, err
	}
	if existing != nil {
		return nil, nil, flow.Conflictf("a running instance already exists for %s/%d", businessType, businessID)
	}

	firstNode, err := s.nodeRepo.FirstAuditNode(def.ID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, flow.Configf("flow definition %d has no audit node", def.ID)
		}
		return nil, nil, err
	}

	instance := &model.FlowInstance{
		FlowID:        def.ID,
		BusinessType:  businessType,
		BusinessID:    businessID,
		CurrentNodeID: firstNode.ID,
		Status:        model.InstanceStatusRunning,
		InitiatorID:   initiatorID,
		StartTime:     time.Now(),
	}
	if err := s.instRepo.Create(tx, instance); err != nil {
		return nil, nil, err
	}

	tasks, err := s.fanOut.FanOut(tx, instance, firstNode)
	if err != nil {
		return nil, nil, err
	}

	if err := s.sync.OnInstanceSubmitted(tx, businessType, businessID, firstNode.ID); err != nil {
		return nil, nil, err
	}

	metrics.RecordInstanceStarted()
	return instance, tasks, nil
}

// Advance 推进实例
// 后继是结束节点则实例走完,后继是审核节点则移动当前节点并分发新任务,
// 链上没有后继说明配置损坏,属于不可重试的配置错误
func (s *instanceService) Advance(tx *gorm.DB, instance *model.FlowInstance, resolvedNodeID uint) ([]*model.FlowTask, error) {
	node, err := s.nodeRepo.FindByID(resolvedNodeID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, flow.Configf("resolved node %d of instance %d no longer exists", resolvedNodeID, instance.ID)
		}
		return nil, err
	}

	next, err := s.nodeRepo.Successor(node)
	if err != nil {
		return nil, err
	}
	if next == nil {
		return nil, flow.Configf("node %d of flow %d has no successor", node.ID, node.FlowID)
	}

	switch next.NodeType {
	case model.NodeTypeEnd:
		now := time.Now()
		instance.Status = model.InstanceStatusCompleted
		instance.CurrentNodeID = next.ID
		instance.EndTime = &now
		if err := s.instRepo.Save(tx, instance); err != nil {
			return nil, err
		}
		if err := s.sync.OnInstanceCompleted(tx, instance.BusinessType, instance.BusinessID); err != nil {
			return nil, err
		}
		return nil, nil

	case model.NodeTypeAudit:
		instance.CurrentNodeID = next.ID
		if err := s.instRepo.Save(tx, instance); err != nil {
			return nil, err
		}
		tasks, err := s.fanOut.FanOut(tx, instance, next)
		if err != nil {
			return nil, err
		}
		if err := s.sync.OnInstanceAdvanced(tx, instance.BusinessType, instance.BusinessID, next.ID); err != nil {
			return nil, err
		}
		return tasks, nil

	default:
		return nil, flow.Configf("node %d of flow %d has unexpected successor type %q", node.ID, node.FlowID, next.NodeType)
	}
}

// TerminateRejected 驳回终止实例
func (s *instanceService) TerminateRejected(tx *gorm.DB, instance *model.FlowInstance) error {
	now := time.Now()
	instance.Status = model.InstanceStatusRejected
	instance.EndTime = &now
	if err := s.instRepo.Save(tx, instance); err != nil {
		return err
	}
	return s.sync.OnInstanceRejected(tx, instance.BusinessType, instance.BusinessID)
}
