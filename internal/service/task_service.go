package service

import (
	"errors"
	"strings"
	"time"

	"github.com/neo-jack/1LoanManagemen/internal/flow"
	"github.com/neo-jack/1LoanManagemen/internal/metrics"
	"github.com/neo-jack/1LoanManagemen/internal/model"
	"github.com/neo-jack/1LoanManagemen/internal/notify"
	"github.com/neo-jack/1LoanManagemen/internal/repository"
	"gorm.io/gorm"
)

// TaskService 审批决定引擎
// 任务组由第一个落定的决定整组解决:条件更新抢到 pending 的人胜出,
// 其余并发尝试拿到 Conflict,调用方应提示"已被他人处理,请刷新"而不是重试
type TaskService interface {
	Approve(taskID, actorID uint, comment string) (*model.FlowTask, error)
	Reject(taskID, actorID uint, comment string) (*model.FlowTask, error)
}

// taskService 审批决定引擎实现
type taskService struct {
	db          *gorm.DB
	taskRepo    repository.TaskRepository
	instRepo    repository.InstanceRepository
	instanceSvc InstanceService
	dispatcher  notify.Dispatcher
}

// NewTaskService 创建审批决定服务
func NewTaskService(
	db *gorm.DB,
	taskRepo repository.TaskRepository,
	instRepo repository.InstanceRepository,
	instanceSvc InstanceService,
	dispatcher notify.Dispatcher,
) TaskService {
	return &taskService{
		db:          db,
		taskRepo:    taskRepo,
		instRepo:    instRepo,
		instanceSvc: instanceSvc,
		dispatcher:  dispatcher,
	}
}

// Approve 审批同意
// 任务落定、同组任务取消、实例推进与业务同步在一个事务内完成
func (s *taskService) Approve(taskID, actorID uint, comment string) (*model.FlowTask, error) {
	task, err := s.loadOwnedTask(taskID, actorID)
	if err != nil {
		return nil, err
	}

	var (
		instance *model.FlowInstance
		newTasks []*model.FlowTask
		now      = time.Now()
	)
	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := s.resolve(tx, task, model.TaskStatusApproved, comment, now); err != nil {
			return err
		}

		instance, err = s.instRepo.FindByIDForUpdate(tx, task.InstanceID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return flow.NotFoundf("instance %d of task %d not found", task.InstanceID, task.ID)
			}
			return err
		}

		newTasks, err = s.instanceSvc.Advance(tx, instance, task.NodeID)
		return err
	})
	if err != nil {
		return nil, err
	}

	task.Status = model.TaskStatusApproved
	task.Comment = comment
	task.HandleTime = &now

	metrics.RecordDecision("approve")
	s.dispatchDecision(notify.EventTaskApproved, task, instance)
	for _, t := range newTasks {
		s.dispatchTaskCreated(t, instance)
	}
	if instance.Status == model.InstanceStatusCompleted {
		s.dispatchInstanceFinished(notify.EventInstanceCompleted, instance)
	}
	return task, nil
}

// Reject 审批驳回,意见必填
func (s *taskService) Reject(taskID, actorID uint, comment string) (*model.FlowTask, error) {
	if strings.TrimSpace(comment) == "" {
		return nil, flow.Validationf("reject comment is required")
	}

	task, err := s.loadOwnedTask(taskID, actorID)
	if err != nil {
		return nil, err
	}

	var (
		instance *model.FlowInstance
		now      = time.Now()
	)
	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := s.resolve(tx, task, model.TaskStatusRejected, comment, now); err != nil {
			return err
		}

		instance, err = s.instRepo.FindByIDForUpdate(tx, task.InstanceID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return flow.NotFoundf("instance %d of task %d not found", task.InstanceID, task.ID)
			}
			return err
		}

		return s.instanceSvc.TerminateRejected(tx, instance)
	})
	if err != nil {
		return nil, err
	}

	task.Status = model.TaskStatusRejected
	task.Comment = comment
	task.HandleTime = &now

	metrics.RecordDecision("reject")
	s.dispatchDecision(notify.EventTaskRejected, task, instance)
	s.dispatchInstanceFinished(notify.EventInstanceRejected, instance)
	return task, nil
}

// loadOwnedTask 加载任务并校验操作人
func (s *taskService) loadOwnedTask(taskID, actorID uint) (*model.FlowTask, error) {
	task, err := s.taskRepo.FindByID(taskID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, flow.NotFoundf("task %d not found", taskID)
		}
		return nil, err
	}
	if task.AssigneeID != actorID {
		return nil, flow.Authorizationf("user %d is not the assignee of task %d", actorID, taskID)
	}
	return task, nil
}

// resolve 条件落定任务并取消同组其余待办
// 0 行受影响说明任务组已被其他处理人抢先解决
func (s *taskService) resolve(tx *gorm.DB, task *model.FlowTask, to model.TaskStatus, comment string, now time.Time) error {
	rows, err := s.taskRepo.ResolvePending(tx, task.ID, to, comment, now)
	if err != nil {
		return err
	}
	if rows == 0 {
		return flow.Conflictf("task %d has already been resolved", task.ID)
	}
	return s.taskRepo.CancelPendingSiblings(tx, task.InstanceID, task.NodeID, task.ID)
}

// dispatchDecision 决定事件通知发起人
func (s *taskService) dispatchDecision(eventType string, task *model.FlowTask, instance *model.FlowInstance) {
	s.dispatcher.Dispatch(notify.Event{
		Type:         eventType,
		TaskID:       task.ID,
		InstanceID:   instance.ID,
		NodeID:       task.NodeID,
		AssigneeID:   instance.InitiatorID,
		BusinessType: instance.BusinessType,
		BusinessID:   instance.BusinessID,
	})
}

// dispatchTaskCreated 新任务通知处理人
func (s *taskService) dispatchTaskCreated(task *model.FlowTask, instance *model.FlowInstance) {
	s.dispatcher.Dispatch(notify.Event{
		Type:         notify.EventTaskCreated,
		TaskID:       task.ID,
		InstanceID:   instance.ID,
		NodeID:       task.NodeID,
		AssigneeID:   task.AssigneeID,
		BusinessType: instance.BusinessType,
		BusinessID:   instance.BusinessID,
	})
}

// dispatchInstanceFinished 终态事件通知发起人
func (s *taskService) dispatchInstanceFinished(eventType string, instance *model.FlowInstance) {
	s.dispatcher.Dispatch(notify.Event{
		Type:         eventType,
		InstanceID:   instance.ID,
		AssigneeID:   instance.InitiatorID,
		BusinessType: instance.BusinessType,
		BusinessID:   instance.BusinessID,
	})
}
