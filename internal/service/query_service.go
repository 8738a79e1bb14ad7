package service

import (
	"errors"

	"github.com/neo-jack/1LoanManagemen/internal/flow"
	"github.com/neo-jack/1LoanManagemen/internal/model"
	"github.com/neo-jack/1LoanManagemen/internal/repository"
	"gorm.io/gorm"
)

// TaskBucket 任务列表分类
type TaskBucket string

const (
	BucketTodo TaskBucket = "todo" // 待办
	BucketDone TaskBucket = "done" // 已办
	BucketCC   TaskBucket = "cc"   // 抄送
)

// TaskView 任务列表项,附带业务快照
type TaskView struct {
	Task     *model.FlowTask        `json:"task"`
	Instance *model.FlowInstance    `json:"instance,omitempty"`
	Business *model.LoanApplication `json:"business,omitempty"`
	Node     *model.FlowNode        `json:"node,omitempty"`
}

// TaskDetail 任务详情:任务 + 实例 + 业务快照 + 完整节点链
type TaskDetail struct {
	Task     *model.FlowTask        `json:"task"`
	Instance *model.FlowInstance    `json:"instance"`
	Business *model.LoanApplication `json:"business,omitempty"`
	AllTasks []*model.FlowTask      `json:"all_tasks"`
	Nodes    []*model.FlowNode      `json:"nodes"`
}

// InstanceDetail 流程实例详情
type InstanceDetail struct {
	Instance *model.FlowInstance    `json:"instance"`
	Business *model.LoanApplication `json:"business,omitempty"`
	Tasks    []*model.FlowTask      `json:"tasks"`
	Nodes    []*model.FlowNode      `json:"nodes"`
}

// QueryService 流程查询服务
type QueryService interface {
	TasksByAssignee(assigneeID uint, bucket TaskBucket) ([]*TaskView, error)
	TaskDetail(taskID uint) (*TaskDetail, error)
	InstanceDetail(instanceID uint) (*InstanceDetail, error)
}

// queryService 流程查询服务实现
type queryService struct {
	taskRepo repository.TaskRepository
	instRepo repository.InstanceRepository
	nodeRepo repository.NodeRepository
	loanRepo repository.LoanRepository
}

// NewQueryService 创建流程查询服务
func NewQueryService(
	taskRepo repository.TaskRepository,
	instRepo repository.InstanceRepository,
	nodeRepo repository.NodeRepository,
	loanRepo repository.LoanRepository,
) QueryService {
	return &queryService{
		taskRepo: taskRepo,
		instRepo: instRepo,
		nodeRepo: nodeRepo,
		loanRepo: loanRepo,
	}
}

// TasksByAssignee 按分类获取处理人的任务列表
func (s *queryService) TasksByAssignee(assigneeID uint, bucket TaskBucket) ([]*TaskView, error) {
	var (
		tasks []*model.FlowTask
		err   error
	)
	switch bucket {
	case BucketTodo:
		tasks, err = s.taskRepo.FindTodoByAssignee(assigneeID)
	case BucketDone:
		tasks, err = s.taskRepo.FindDoneByAssignee(assigneeID)
	case BucketCC:
		tasks, err = s.taskRepo.FindCCByAssignee(assigneeID)
	default:
		return nil, flow.Validationf("unknown task bucket %q", bucket)
	}
	if err != nil {
		return nil, err
	}

	views := make([]*TaskView, 0, len(tasks))
	for _, task := range tasks {
		view := &TaskView{Task: task}
		if err := s.enrich(view); err != nil {
			return nil, err
		}
		views = append(views, view)
	}
	return views, nil
}

// TaskDetail 获取任务详情
func (s *queryService) TaskDetail(taskID uint) (*TaskDetail, error) {
	task, err := s.taskRepo.FindByID(taskID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, flow.NotFoundf("task %d not found", taskID)
		}
		return nil, err
	}

	instance, err := s.instRepo.FindByID(task.InstanceID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, flow.NotFoundf("instance %d of task %d not found", task.InstanceID, taskID)
		}
		return nil, err
	}

	detail := &TaskDetail{Task: task, Instance: instance}
	if detail.Business, err = s.business(instance); err != nil {
		return nil, err
	}
	if detail.AllTasks, err = s.taskRepo.FindByInstance(instance.ID); err != nil {
		return nil, err
	}
	if detail.Nodes, err = s.nodeRepo.FindByFlowID(instance.FlowID); err != nil {
		return nil, err
	}
	return detail, nil
}

// InstanceDetail 获取流程实例详情
func (s *queryService) InstanceDetail(instanceID uint) (*InstanceDetail, error) {
	instance, err := s.instRepo.FindByID(instanceID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, flow.NotFoundf("instance %d not found", instanceID)
		}
		return nil, err
	}

	detail := &InstanceDetail{Instance: instance}
	if detail.Business, err = s.business(instance); err != nil {
		return nil, err
	}
	if detail.Tasks, err = s.taskRepo.FindByInstance(instance.ID); err != nil {
		return nil, err
	}
	if detail.Nodes, err = s.nodeRepo.FindByFlowID(instance.FlowID); err != nil {
		return nil, err
	}
	return detail, nil
}

// enrich 为任务列表项补充实例、业务与节点信息
func (s *queryService) enrich(view *TaskView) error {
	instance, err := s.instRepo.FindByID(view.Task.InstanceID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return err
	}
	view.Instance = instance

	if view.Business, err = s.business(instance); err != nil {
		return err
	}

	node, err := s.nodeRepo.FindByID(view.Task.NodeID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return err
	}
	view.Node = node
	return nil
}

// business 加载实例治理的业务记录
func (s *queryService) business(instance *model.FlowInstance) (*model.LoanApplication, error) {
	if instance.BusinessType != flow.BusinessTypeLoanApplication {
		return nil, nil
	}
	app, err := s.loanRepo.FindByID(instance.BusinessID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return app, nil
}
