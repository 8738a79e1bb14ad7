package service

import (
	"github.com/neo-jack/1LoanManagemen/internal/flow"
	"github.com/neo-jack/1LoanManagemen/internal/metrics"
	"github.com/neo-jack/1LoanManagemen/internal/model"
	"github.com/neo-jack/1LoanManagemen/internal/repository"
	"gorm.io/gorm"
)

// FanOutService 任务分发服务
// 节点激活时按审核人配置解析出具体处理人,一人创建一条待办任务
type FanOutService interface {
	FanOut(tx *gorm.DB, instance *model.FlowInstance, node *model.FlowNode) ([]*model.FlowTask, error)
}

// fanOutService 任务分发服务实现
type fanOutService struct {
	taskRepo  repository.TaskRepository
	directory flow.Directory
}

// NewFanOutService 创建任务分发服务
func NewFanOutService(taskRepo repository.TaskRepository, directory flow.Directory) FanOutService {
	return &fanOutService{taskRepo: taskRepo, directory: directory}
}

// FanOut 为节点的全部处理人分发待办任务
// 同一 (instance, node) 只允许分发一次,重复分发返回 Conflict,
// 静默重复会制造违反任务组约束的多余待办
func (s *fanOutService) FanOut(tx *gorm.DB, instance *model.FlowInstance, node *model.FlowNode) ([]*model.FlowTask, error) {
	count, err := s.taskRepo.CountByGroup(tx, instance.ID, node.ID)
	if err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, flow.Conflictf("tasks already fanned out for node %d of instance %d", node.ID, instance.ID)
	}

	assignees, err := s.resolveAssignees(node)
	if err != nil {
		return nil, err
	}

	tasks := make([]*model.FlowTask, 0, len(assignees))
	for _, assigneeID := range assignees {
		tasks = append(tasks, &model.FlowTask{
			InstanceID: instance.ID,
			NodeID:     node.ID,
			TaskType:   model.TaskTypeAudit,
			AssigneeID: assigneeID,
			Status:     model.TaskStatusPending,
		})
	}
	if err := s.taskRepo.CreateBatch(tx, tasks); err != nil {
		return nil, err
	}

	metrics.RecordFanOut(len(tasks))
	return tasks, nil
}

// resolveAssignees 解析节点审核人配置为具体用户 ID 集合
// 每次分发实时查询用户目录,配置后发生的人员变动在运行期生效
func (s *fanOutService) resolveAssignees(node *model.FlowNode) ([]uint, error) {
	switch node.AuditorType {
	case model.AuditorTypeUser:
		exists, err := s.directory.ResolveByID(node.AuditorID)
		if err != nil {
			return nil, err
		}
		if !exists {
			return nil, flow.Configf("auditor user %d of node %d does not exist", node.AuditorID, node.ID)
		}
		return []uint{node.AuditorID}, nil

	case model.AuditorTypeRole:
		ids, err := s.directory.ResolveByRole(node.AuditorRole)
		if err != nil {
			return nil, err
		}
		if len(ids) == 0 {
			return nil, flow.Configf("no user holds auditor role %q for node %d", node.AuditorRole, node.ID)
		}
		return ids, nil

	default:
		return nil, flow.Configf("node %d has invalid auditor type %q", node.ID, node.AuditorType)
	}
}
