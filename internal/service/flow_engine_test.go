package service_test

import (
	"testing"

	"github.com/neo-jack/1LoanManagemen/internal/database"
	"github.com/neo-jack/1LoanManagemen/internal/flow"
	"github.com/neo-jack/1LoanManagemen/internal/model"
	"github.com/neo-jack/1LoanManagemen/internal/notify"
	"github.com/neo-jack/1LoanManagemen/internal/repository"
	"github.com/neo-jack/1LoanManagemen/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// engineFixture 组装完整的引擎:仓储、分发、实例、决定、贷款服务
type engineFixture struct {
	db          *gorm.DB
	defRepo     repository.DefinitionRepository
	nodeRepo    repository.NodeRepository
	instRepo    repository.InstanceRepository
	taskRepo    repository.TaskRepository
	loanRepo    repository.LoanRepository
	fanOutSvc   service.FanOutService
	instanceSvc service.InstanceService
	taskSvc     service.TaskService
	loanSvc     service.LoanService
	querySvc    service.QueryService
}

// 测试用户:1001 为申请人,2001/2002 持 auditor 角色,3001 持 superAuditor 角色
const (
	applicantID     = uint(1001)
	auditorOneID    = uint(2001)
	auditorTwoID    = uint(2002)
	superAuditorID  = uint(3001)
	studentLoanType = "student_loan"
)

// newEngineFixture 创建测试引擎及标准数据
func newEngineFixture(t *testing.T) *engineFixture {
	// 命名共享内存库:连接池的每个连接都拿到同一个库,普通 :memory: 每个连接是独立空库
	db, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))

	seedUsers(t, db)

	defRepo := repository.NewDefinitionRepository(db)
	nodeRepo := repository.NewNodeRepository(db)
	instRepo := repository.NewInstanceRepository(db)
	taskRepo := repository.NewTaskRepository(db)
	loanRepo := repository.NewLoanRepository(db)

	directory := flow.NewDirectory(db)
	dispatcher := notify.NewNoopDispatcher()

	fanOutSvc := service.NewFanOutService(taskRepo, directory)
	instanceSvc := service.NewInstanceService(defRepo, nodeRepo, instRepo, fanOutSvc, service.NewLoanSync())
	taskSvc := service.NewTaskService(db, taskRepo, instRepo, instanceSvc, dispatcher)
	loanSvc := service.NewLoanService(db, loanRepo, defRepo, instRepo, taskRepo, nodeRepo, instanceSvc, dispatcher)
	querySvc := service.NewQueryService(taskRepo, instRepo, nodeRepo, loanRepo)

	return &engineFixture{
		db:          db,
		defRepo:     defRepo,
		nodeRepo:    nodeRepo,
		instRepo:    instRepo,
		taskRepo:    taskRepo,
		loanRepo:    loanRepo,
		fanOutSvc:   fanOutSvc,
		instanceSvc: instanceSvc,
		taskSvc:     taskSvc,
		loanSvc:     loanSvc,
		querySvc:    querySvc,
	}
}

// seedUsers 写入测试用户
func seedUsers(t *testing.T, db *gorm.DB) {
	users := []*model.User{
		{ID: applicantID, Username: "student01", Name: "学生一", Role: "student"},
		{ID: auditorOneID, Username: "auditor01", Name: "审核员一", Role: "staff", LoanRole: "auditor"},
		{ID: auditorTwoID, Username: "auditor02", Name: "审核员二", Role: "staff", LoanRole: "auditor"},
		{ID: superAuditorID, Username: "super01", Name: "高级审核员", Role: "staff", LoanRole: "superAuditor"},
	}
	require.NoError(t, db.Create(&users).Error)
}

// seedActiveDefinition 写入已启用的两级审核流程:开始 → 初审(auditor) → 终审(superAuditor) → 结束
func (f *engineFixture) seedActiveDefinition(t *testing.T) *model.FlowDefinition {
	def := &model.FlowDefinition{
		FlowName:     "助学贷款两级审批",
		BusinessType: studentLoanType,
		Status:       model.DefinitionStatusActive,
	}
	require.NoError(t, f.defRepo.Save(def))

	require.NoError(t, f.nodeRepo.ReplaceAll(f.db, def.ID, []*model.FlowNode{
		{NodeName: "开始", NodeType: model.NodeTypeStart},
		{NodeName: "初审", NodeType: model.NodeTypeAudit, AuditorType: model.AuditorTypeRole, AuditorRole: "auditor"},
		{NodeName: "终审", NodeType: model.NodeTypeAudit, AuditorType: model.AuditorTypeRole, AuditorRole: "superAuditor"},
		{NodeName: "结束", NodeType: model.NodeTypeEnd},
	}))
	return def
}

// submitLoan 创建并提交一笔贷款申请
func (f *engineFixture) submitLoan(t *testing.T) *model.LoanApplication {
	app, err := f.loanSvc.Create(applicantID, &service.CreateLoanRequest{
		LoanType: studentLoanType,
		Amount:   8000,
		Purpose:  "学费",
	})
	require.NoError(t, err)

	app, err = f.loanSvc.Submit(applicantID, app.ID)
	require.NoError(t, err)
	return app
}

// pendingTasks 读取实例当前的待办任务
func (f *engineFixture) pendingTasks(t *testing.T, instanceID uint) []*model.FlowTask {
	var tasks []*model.FlowTask
	require.NoError(t, f.db.Where("instance_id = ? AND status = ?",
		instanceID, model.TaskStatusPending).Order("assignee_id ASC").Find(&tasks).Error)
	return tasks
}

// TestSubmit_FansOutFirstAuditTasks 提交申请后分发首个审核节点的任务
func TestSubmit_FansOutFirstAuditTasks(t *testing.T) {
	f := newEngineFixture(t)
	f.seedActiveDefinition(t)
	app := f.submitLoan(t)

	// 业务同步:申请进入待审核
	assert.Equal(t, model.LoanStatusPending, app.Status)
	assert.NotNil(t, app.SubmitTime)
	assert.NotZero(t, app.CurrentNodeID)

	instance, err := f.instRepo.FindByBusiness(flow.BusinessTypeLoanApplication, app.ID)
	require.NoError(t, err)
	require.NotNil(t, instance)
	assert.Equal(t, model.InstanceStatusRunning, instance.Status)
	assert.Equal(t, applicantID, instance.InitiatorID)

	// 持 auditor 角色的两人各得一条待办
	tasks := f.pendingTasks(t, instance.ID)
	require.Len(t, tasks, 2)
	assert.Equal(t, auditorOneID, tasks[0].AssigneeID)
	assert.Equal(t, auditorTwoID, tasks[1].AssigneeID)
	for _, task := range tasks {
		assert.Equal(t, model.TaskTypeAudit, task.TaskType)
		assert.Equal(t, instance.CurrentNodeID, task.NodeID)
	}
}

// TestSubmit_OnlyDraftCanBeSubmitted 重复提交同一申请报冲突
func TestSubmit_OnlyDraftCanBeSubmitted(t *testing.T) {
	f := newEngineFixture(t)
	f.seedActiveDefinition(t)
	app := f.submitLoan(t)

	_, err := f.loanSvc.Submit(applicantID, app.ID)
	assert.True(t, flow.IsKind(err, flow.KindConflict))
}

// TestSubmit_NoActiveDefinition 没有启用的流程配置时提交失败
func TestSubmit_NoActiveDefinition(t *testing.T) {
	f := newEngineFixture(t)

	app, err := f.loanSvc.Create(applicantID, &service.CreateLoanRequest{
		LoanType: "house_loan",
		Amount:   100000,
	})
	require.NoError(t, err)

	_, err = f.loanSvc.Submit(applicantID, app.ID)
	assert.True(t, flow.IsKind(err, flow.KindNotFound))

	// 申请仍是草稿
	saved, err := f.loanRepo.FindByID(app.ID)
	require.NoError(t, err)
	assert.Equal(t, model.LoanStatusDraft, saved.Status)
}

// TestSubmit_NotOwner 他人的申请不可提交
func TestSubmit_NotOwner(t *testing.T) {
	f := newEngineFixture(t)
	f.seedActiveDefinition(t)

	app, err := f.loanSvc.Create(applicantID, &service.CreateLoanRequest{
		LoanType: studentLoanType,
		Amount:   8000,
	})
	require.NoError(t, err)

	_, err = f.loanSvc.Submit(auditorOneID, app.ID)
	assert.True(t, flow.IsKind(err, flow.KindNotFound))
}

// TestApprove_AdvancesAndCancelsSiblings 同意后推进实例并取消同组待办
func TestApprove_AdvancesAndCancelsSiblings(t *testing.T) {
	f := newEngineFixture(t)
	f.seedActiveDefinition(t)
	app := f.submitLoan(t)

	instance, err := f.instRepo.FindByBusiness(flow.BusinessTypeLoanApplication, app.ID)
	require.NoError(t, err)
	firstNodeID := instance.CurrentNodeID
	tasks := f.pendingTasks(t, instance.ID)
	require.Len(t, tasks, 2)

	resolved, err := f.taskSvc.Approve(tasks[0].ID, auditorOneID, "材料齐全")
	require.NoError(t, err)
	assert.Equal(t, model.TaskStatusApproved, resolved.Status)
	assert.Equal(t, "材料齐全", resolved.Comment)
	assert.NotNil(t, resolved.HandleTime)

	// 同组另一人的任务被取消
	var sibling model.FlowTask
	require.NoError(t, f.db.First(&sibling, tasks[1].ID).Error)
	assert.Equal(t, model.TaskStatusCancelled, sibling.Status)

	// 实例推进到终审节点,分发给 superAuditor
	instance, err = f.instRepo.FindByID(instance.ID)
	require.NoError(t, err)
	assert.Equal(t, model.InstanceStatusRunning, instance.Status)
	assert.NotEqual(t, firstNodeID, instance.CurrentNodeID)

	next := f.pendingTasks(t, instance.ID)
	require.Len(t, next, 1)
	assert.Equal(t, superAuditorID, next[0].AssigneeID)

	// 业务同步:申请进入审核中
	saved, err := f.loanRepo.FindByID(app.ID)
	require.NoError(t, err)
	assert.Equal(t, model.LoanStatusAuditing, saved.Status)
	assert.Equal(t, instance.CurrentNodeID, saved.CurrentNodeID)
}

// TestApprove_FinalNodeCompletesInstance 末级审核通过后实例走完
func TestApprove_FinalNodeCompletesInstance(t *testing.T) {
	f := newEngineFixture(t)
	f.seedActiveDefinition(t)
	app := f.submitLoan(t)

	instance, err := f.instRepo.FindByBusiness(flow.BusinessTypeLoanApplication, app.ID)
	require.NoError(t, err)

	tasks := f.pendingTasks(t, instance.ID)
	_, err = f.taskSvc.Approve(tasks[0].ID, auditorOneID, "")
	require.NoError(t, err)

	tasks = f.pendingTasks(t, instance.ID)
	require.Len(t, tasks, 1)
	_, err = f.taskSvc.Approve(tasks[0].ID, superAuditorID, "通过")
	require.NoError(t, err)

	instance, err = f.instRepo.FindByID(instance.ID)
	require.NoError(t, err)
	assert.Equal(t, model.InstanceStatusCompleted, instance.Status)
	assert.NotNil(t, instance.EndTime)

	// 没有遗留待办
	assert.Empty(t, f.pendingTasks(t, instance.ID))

	// 业务同步:申请通过
	saved, err := f.loanRepo.FindByID(app.ID)
	require.NoError(t, err)
	assert.Equal(t, model.LoanStatusApproved, saved.Status)
}

// TestReject_TerminatesInstance 任一环节驳回即终止实例
func TestReject_TerminatesInstance(t *testing.T) {
	f := newEngineFixture(t)
	f.seedActiveDefinition(t)
	app := f.submitLoan(t)

	instance, err := f.instRepo.FindByBusiness(flow.BusinessTypeLoanApplication, app.ID)
	require.NoError(t, err)
	tasks := f.pendingTasks(t, instance.ID)

	resolved, err := f.taskSvc.Reject(tasks[0].ID, auditorOneID, "材料不全")
	require.NoError(t, err)
	assert.Equal(t, model.TaskStatusRejected, resolved.Status)

	// 同组待办取消,实例驳回终止
	var sibling model.FlowTask
	require.NoError(t, f.db.First(&sibling, tasks[1].ID).Error)
	assert.Equal(t, model.TaskStatusCancelled, sibling.Status)

	instance, err = f.instRepo.FindByID(instance.ID)
	require.NoError(t, err)
	assert.Equal(t, model.InstanceStatusRejected, instance.Status)
	assert.NotNil(t, instance.EndTime)

	// 业务同步:申请驳回
	saved, err := f.loanRepo.FindByID(app.ID)
	require.NoError(t, err)
	assert.Equal(t, model.LoanStatusRejected, saved.Status)
}

// TestReject_RequiresComment 驳回必须填写意见,且不产生任何变更
func TestReject_RequiresComment(t *testing.T) {
	f := newEngineFixture(t)
	f.seedActiveDefinition(t)
	app := f.submitLoan(t)

	instance, err := f.instRepo.FindByBusiness(flow.BusinessTypeLoanApplication, app.ID)
	require.NoError(t, err)
	tasks := f.pendingTasks(t, instance.ID)

	_, err = f.taskSvc.Reject(tasks[0].ID, auditorOneID, "   ")
	assert.True(t, flow.IsKind(err, flow.KindValidation))

	// 任务与实例均未变化
	var task model.FlowTask
	require.NoError(t, f.db.First(&task, tasks[0].ID).Error)
	assert.Equal(t, model.TaskStatusPending, task.Status)

	instance, err = f.instRepo.FindByID(instance.ID)
	require.NoError(t, err)
	assert.Equal(t, model.InstanceStatusRunning, instance.Status)
}

// TestDecision_SecondDeciderGetsConflict 任务组已解决后,后续决定拿到冲突
func TestDecision_SecondDeciderGetsConflict(t *testing.T) {
	f := newEngineFixture(t)
	f.seedActiveDefinition(t)
	app := f.submitLoan(t)

	instance, err := f.instRepo.FindByBusiness(flow.BusinessTypeLoanApplication, app.ID)
	require.NoError(t, err)
	tasks := f.pendingTasks(t, instance.ID)
	require.Len(t, tasks, 2)

	_, err = f.taskSvc.Approve(tasks[0].ID, auditorOneID, "")
	require.NoError(t, err)

	// 第二人的任务已被取消,条件更新不命中
	_, err = f.taskSvc.Approve(tasks[1].ID, auditorTwoID, "")
	assert.True(t, flow.IsKind(err, flow.KindConflict))

	_, err = f.taskSvc.Reject(tasks[1].ID, auditorTwoID, "驳回")
	assert.True(t, flow.IsKind(err, flow.KindConflict))
}

// TestDecision_OnlyAssigneeCanDecide 非处理人操作任务报越权
func TestDecision_OnlyAssigneeCanDecide(t *testing.T) {
	f := newEngineFixture(t)
	f.seedActiveDefinition(t)
	app := f.submitLoan(t)

	instance, err := f.instRepo.FindByBusiness(flow.BusinessTypeLoanApplication, app.ID)
	require.NoError(t, err)
	tasks := f.pendingTasks(t, instance.ID)

	_, err = f.taskSvc.Approve(tasks[0].ID, superAuditorID, "")
	assert.True(t, flow.IsKind(err, flow.KindAuthorization))
}

// TestInstantiate_DuplicateRunningConflicts 同一业务键下只允许一个进行中的实例
func TestInstantiate_DuplicateRunningConflicts(t *testing.T) {
	f := newEngineFixture(t)
	def := f.seedActiveDefinition(t)
	app := f.submitLoan(t)

	err := f.db.Transaction(func(tx *gorm.DB) error {
		_, _, err := f.instanceSvc.Instantiate(tx, def.ID, flow.BusinessTypeLoanApplication, app.ID, applicantID)
		return err
	})
	assert.True(t, flow.IsKind(err, flow.KindConflict))
}

// TestInstantiate_InactiveDefinition 未启用的配置不可发起实例
func TestInstantiate_InactiveDefinition(t *testing.T) {
	f := newEngineFixture(t)

	def := &model.FlowDefinition{
		FlowName:     "草稿流程",
		BusinessType: studentLoanType,
		Status:       model.DefinitionStatusDraft,
	}
	require.NoError(t, f.defRepo.Save(def))

	err := f.db.Transaction(func(tx *gorm.DB) error {
		_, _, err := f.instanceSvc.Instantiate(tx, def.ID, flow.BusinessTypeLoanApplication, 1, applicantID)
		return err
	})
	assert.True(t, flow.IsKind(err, flow.KindConflict))
}

// TestFanOut_DuplicateIsConflict 同一节点重复分发报冲突
func TestFanOut_DuplicateIsConflict(t *testing.T) {
	f := newEngineFixture(t)
	f.seedActiveDefinition(t)
	app := f.submitLoan(t)

	instance, err := f.instRepo.FindByBusiness(flow.BusinessTypeLoanApplication, app.ID)
	require.NoError(t, err)
	node, err := f.nodeRepo.FindByID(instance.CurrentNodeID)
	require.NoError(t, err)

	_, err = f.fanOutSvc.FanOut(f.db, instance, node)
	assert.True(t, flow.IsKind(err, flow.KindConflict))
}

// TestFanOut_EmptyRoleIsConfigError 角色下没有用户属于配置错误
func TestFanOut_EmptyRoleIsConfigError(t *testing.T) {
	f := newEngineFixture(t)
	def := f.seedActiveDefinition(t)

	// 把初审节点的角色改成没人持有的角色
	require.NoError(t, f.nodeRepo.ReplaceAll(f.db, def.ID, []*model.FlowNode{
		{NodeName: "开始", NodeType: model.NodeTypeStart},
		{NodeName: "初审", NodeType: model.NodeTypeAudit, AuditorType: model.AuditorTypeRole, AuditorRole: "ghostRole"},
		{NodeName: "结束", NodeType: model.NodeTypeEnd},
	}))

	app, err := f.loanSvc.Create(applicantID, &service.CreateLoanRequest{
		LoanType: studentLoanType,
		Amount:   8000,
	})
	require.NoError(t, err)

	_, err = f.loanSvc.Submit(applicantID, app.ID)
	assert.True(t, flow.IsKind(err, flow.KindConfig))

	// 整个事务回滚:没有实例也没有任务,申请仍是草稿
	instance, err := f.instRepo.FindByBusiness(flow.BusinessTypeLoanApplication, app.ID)
	require.NoError(t, err)
	assert.Nil(t, instance)

	saved, err := f.loanRepo.FindByID(app.ID)
	require.NoError(t, err)
	assert.Equal(t, model.LoanStatusDraft, saved.Status)
}

// TestQuery_TaskBuckets 待办/已办桶随决定流转
func TestQuery_TaskBuckets(t *testing.T) {
	f := newEngineFixture(t)
	f.seedActiveDefinition(t)
	app := f.submitLoan(t)

	todos, err := f.querySvc.TasksByAssignee(auditorOneID, service.BucketTodo)
	require.NoError(t, err)
	require.Len(t, todos, 1)
	require.NotNil(t, todos[0].Business)
	assert.Equal(t, app.ID, todos[0].Business.ID)

	_, err = f.taskSvc.Approve(todos[0].Task.ID, auditorOneID, "同意")
	require.NoError(t, err)

	todos, err = f.querySvc.TasksByAssignee(auditorOneID, service.BucketTodo)
	require.NoError(t, err)
	assert.Empty(t, todos)

	done, err := f.querySvc.TasksByAssignee(auditorOneID, service.BucketDone)
	require.NoError(t, err)
	require.Len(t, done, 1)
	assert.Equal(t, model.TaskStatusApproved, done[0].Task.Status)

	_, err = f.querySvc.TasksByAssignee(auditorOneID, service.TaskBucket("archive"))
	assert.True(t, flow.IsKind(err, flow.KindValidation))
}

// TestLoanDetail_IncludesFlowSnapshot 申请详情带流程快照
func TestLoanDetail_IncludesFlowSnapshot(t *testing.T) {
	f := newEngineFixture(t)
	f.seedActiveDefinition(t)
	app := f.submitLoan(t)

	detail, err := f.loanSvc.Detail(app.ID)
	require.NoError(t, err)
	require.NotNil(t, detail.Instance)
	assert.Len(t, detail.Tasks, 2)
	assert.Len(t, detail.Nodes, 4)
}
