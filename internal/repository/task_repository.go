package repository

import (
	"time"

	"github.com/neo-jack/1LoanManagemen/internal/model"
	"gorm.io/gorm"
)

// TaskRepository 流程任务仓储接口
type TaskRepository interface {
	CreateBatch(tx *gorm.DB, tasks []*model.FlowTask) error
	FindByID(id uint) (*model.FlowTask, error)
	FindByInstance(instanceID uint) ([]*model.FlowTask, error)
	FindTodoByAssignee(assigneeID uint) ([]*model.FlowTask, error)
	FindDoneByAssignee(assigneeID uint) ([]*model.FlowTask, error)
	FindCCByAssignee(assigneeID uint) ([]*model.FlowTask, error)
	CountByGroup(tx *gorm.DB, instanceID, nodeID uint) (int64, error)
	ResolvePending(tx *gorm.DB, taskID uint, to model.TaskStatus, comment string, handleTime time.Time) (int64, error)
	CancelPendingSiblings(tx *gorm.DB, instanceID, nodeID, excludeTaskID uint) error
}

// taskRepository 流程任务仓储实现
type taskRepository struct {
	db *gorm.DB
}

// NewTaskRepository 创建流程任务仓储
func NewTaskRepository(db *gorm.DB) TaskRepository {
	return &taskRepository{db: db}
}

// CreateBatch 批量创建任务(分发时一人一条)
func (r *taskRepository) CreateBatch(tx *gorm.DB, tasks []*model.FlowTask) error {
	return tx.Create(&tasks).Error
}

// FindByID 根据 ID 查找任务
func (r *taskRepository) FindByID(id uint) (*model.FlowTask, error) {
	var task model.FlowTask
	if err := r.db.Where("id = ?", id).First(&task).Error; err != nil {
		return nil, err
	}
	return &task, nil
}

// FindByInstance 查找实例的全部任务,按创建时间升序
func (r *taskRepository) FindByInstance(instanceID uint) ([]*model.FlowTask, error) {
	var tasks []*model.FlowTask
	err := r.db.Where("instance_id = ?", instanceID).Order("created_at ASC").Find(&tasks).Error
	return tasks, err
}

// FindTodoByAssignee 查找处理人的待办审核任务
func (r *taskRepository) FindTodoByAssignee(assigneeID uint) ([]*model.FlowTask, error) {
	var tasks []*model.FlowTask
	err := r.db.Where("assignee_id = ? AND status = ? AND task_type = ?",
		assigneeID, model.TaskStatusPending, model.TaskTypeAudit).
		Order("created_at DESC").Find(&tasks).Error
	return tasks, err
}

// FindDoneByAssignee 查找处理人的已办任务
func (r *taskRepository) FindDoneByAssignee(assigneeID uint) ([]*model.FlowTask, error) {
	var tasks []*model.FlowTask
	err := r.db.Where("assignee_id = ? AND status IN ?",
		assigneeID, []model.TaskStatus{model.TaskStatusApproved, model.TaskStatusRejected}).
		Order("handle_time DESC").Find(&tasks).Error
	return tasks, err
}

// FindCCByAssignee 查找抄送给处理人的任务
func (r *taskRepository) FindCCByAssignee(assigneeID uint) ([]*model.FlowTask, error) {
	var tasks []*model.FlowTask
	err := r.db.Where("assignee_id = ? AND task_type = ?", assigneeID, model.TaskTypeCC).
		Order("created_at DESC").Find(&tasks).Error
	return tasks, err
}

// CountByGroup 统计任务组 (instance_id, node_id) 内已有的任务数
// 分发幂等性检查依赖该计数
func (r *taskRepository) CountByGroup(tx *gorm.DB, instanceID, nodeID uint) (int64, error) {
	var count int64
	err := tx.Model(&model.FlowTask{}).
		Where("instance_id = ? AND node_id = ?", instanceID, nodeID).Count(&count).Error
	return count, err
}

// ResolvePending 条件更新:仅当任务仍为 pending 时写入终态
// 返回受影响行数,0 行表示任务组已被其他处理人抢先解决。
// 任务组的先到先得语义建立在这一条 UPDATE 上,不允许改成先读后写
func (r *taskRepository) ResolvePending(tx *gorm.DB, taskID uint, to model.TaskStatus, comment string, handleTime time.Time) (int64, error) {
	result := tx.Model(&model.FlowTask{}).
		Where("id = ? AND status = ?", taskID, model.TaskStatusPending).
		Updates(map[string]interface{}{
			"status":      to,
			"comment":     comment,
			"handle_time": handleTime,
		})
	return result.RowsAffected, result.Error
}

// CancelPendingSiblings 取消同任务组内其余待处理任务
func (r *taskRepository) CancelPendingSiblings(tx *gorm.DB, instanceID, nodeID, excludeTaskID uint) error {
	return tx.Model(&model.FlowTask{}).
		Where("instance_id = ? AND node_id = ? AND status = ? AND id <> ?",
			instanceID, nodeID, model.TaskStatusPending, excludeTaskID).
		Update("status", model.TaskStatusCancelled).Error
}
