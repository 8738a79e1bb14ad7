package repository_test

import (
	"testing"
	"time"

	"github.com/neo-jack/1LoanManagemen/internal/database"
	"github.com/neo-jack/1LoanManagemen/internal/model"
	"github.com/neo-jack/1LoanManagemen/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// setupTestDB 创建测试数据库
func setupTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	return db
}

// seedTaskGroup 写入一个任务组:同一实例同一节点下三个待办
func seedTaskGroup(t *testing.T, db *gorm.DB, instanceID, nodeID uint, assignees []uint) []*model.FlowTask {
	repo := repository.NewTaskRepository(db)
	tasks := make([]*model.FlowTask, 0, len(assignees))
	for _, assignee := range assignees {
		tasks = append(tasks, &model.FlowTask{
			InstanceID: instanceID,
			NodeID:     nodeID,
			TaskType:   model.TaskTypeAudit,
			AssigneeID: assignee,
			Status:     model.TaskStatusPending,
		})
	}
	require.NoError(t, repo.CreateBatch(db, tasks))
	return tasks
}

// TestTaskRepository_ResolvePending 测试条件落定
func TestTaskRepository_ResolvePending(t *testing.T) {
	db := setupTestDB(t)
	repo := repository.NewTaskRepository(db)
	tasks := seedTaskGroup(t, db, 1, 10, []uint{101, 102, 103})

	now := time.Now()
	rows, err := repo.ResolvePending(db, tasks[0].ID, model.TaskStatusApproved, "同意", now)
	require.NoError(t, err)
	assert.Equal(t, int64(1), rows)

	var saved model.FlowTask
	require.NoError(t, db.First(&saved, tasks[0].ID).Error)
	assert.Equal(t, model.TaskStatusApproved, saved.Status)
	assert.Equal(t, "同意", saved.Comment)
	assert.NotNil(t, saved.HandleTime)
}

// TestTaskRepository_ResolvePending_AlreadyResolved 测试重复落定返回 0 行
// 先到先得语义的基础:第二次条件更新必须不命中
func TestTaskRepository_ResolvePending_AlreadyResolved(t *testing.T) {
	db := setupTestDB(t)
	repo := repository.NewTaskRepository(db)
	tasks := seedTaskGroup(t, db, 1, 10, []uint{101})

	rows, err := repo.ResolvePending(db, tasks[0].ID, model.TaskStatusApproved, "", time.Now())
	require.NoError(t, err)
	require.Equal(t, int64(1), rows)

	rows, err = repo.ResolvePending(db, tasks[0].ID, model.TaskStatusRejected, "驳回", time.Now())
	require.NoError(t, err)
	assert.Equal(t, int64(0), rows)

	// 第一次写入的终态不被覆盖
	var saved model.FlowTask
	require.NoError(t, db.First(&saved, tasks[0].ID).Error)
	assert.Equal(t, model.TaskStatusApproved, saved.Status)
}

// TestTaskRepository_CancelPendingSiblings 测试取消同组其余待办
func TestTaskRepository_CancelPendingSiblings(t *testing.T) {
	db := setupTestDB(t)
	repo := repository.NewTaskRepository(db)
	tasks := seedTaskGroup(t, db, 1, 10, []uint{101, 102, 103})
	// 另一个节点的任务不受影响
	other := seedTaskGroup(t, db, 1, 11, []uint{104})

	_, err := repo.ResolvePending(db, tasks[0].ID, model.TaskStatusApproved, "", time.Now())
	require.NoError(t, err)
	require.NoError(t, repo.CancelPendingSiblings(db, 1, 10, tasks[0].ID))

	var group []*model.FlowTask
	require.NoError(t, db.Where("instance_id = ? AND node_id = ?", 1, 10).Find(&group).Error)
	statusCount := map[model.TaskStatus]int{}
	for _, task := range group {
		statusCount[task.Status]++
	}
	assert.Equal(t, 1, statusCount[model.TaskStatusApproved])
	assert.Equal(t, 2, statusCount[model.TaskStatusCancelled])

	var untouched model.FlowTask
	require.NoError(t, db.First(&untouched, other[0].ID).Error)
	assert.Equal(t, model.TaskStatusPending, untouched.Status)
}

// TestTaskRepository_CountByGroup 测试任务组计数
func TestTaskRepository_CountByGroup(t *testing.T) {
	db := setupTestDB(t)
	repo := repository.NewTaskRepository(db)

	count, err := repo.CountByGroup(db, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(0), count)

	seedTaskGroup(t, db, 1, 10, []uint{101, 102})
	count, err = repo.CountByGroup(db, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
}

// TestTaskRepository_FindTodoByAssignee 测试待办列表
func TestTaskRepository_FindTodoByAssignee(t *testing.T) {
	db := setupTestDB(t)
	repo := repository.NewTaskRepository(db)
	tasks := seedTaskGroup(t, db, 1, 10, []uint{101, 102})

	// 101 的待办只有自己的一条
	todos, err := repo.FindTodoByAssignee(101)
	require.NoError(t, err)
	require.Len(t, todos, 1)
	assert.Equal(t, tasks[0].ID, todos[0].ID)

	// 处理后从待办消失,进入已办
	_, err = repo.ResolvePending(db, tasks[0].ID, model.TaskStatusApproved, "同意", time.Now())
	require.NoError(t, err)

	todos, err = repo.FindTodoByAssignee(101)
	require.NoError(t, err)
	assert.Empty(t, todos)

	done, err := repo.FindDoneByAssignee(101)
	require.NoError(t, err)
	require.Len(t, done, 1)
	assert.Equal(t, model.TaskStatusApproved, done[0].Status)

	// 被取消的任务既不在待办也不在已办
	require.NoError(t, repo.CancelPendingSiblings(db, 1, 10, tasks[0].ID))
	todos, err = repo.FindTodoByAssignee(102)
	require.NoError(t, err)
	assert.Empty(t, todos)
	done, err = repo.FindDoneByAssignee(102)
	require.NoError(t, err)
	assert.Empty(t, done)
}
