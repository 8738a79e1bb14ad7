package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/neo-jack/1LoanManagemen/internal/service"
)

// TaskController 审批任务控制器
type TaskController struct {
	taskService  service.TaskService
	queryService service.QueryService
}

// NewTaskController 创建审批任务控制器
func NewTaskController(taskService service.TaskService, queryService service.QueryService) *TaskController {
	return &TaskController{
		taskService:  taskService,
		queryService: queryService,
	}
}

// DecisionRequest 审批决定请求
type DecisionRequest struct {
	Comment string `json:"comment"` // 审批意见,驳回时必填
}

// List 获取当前用户的任务列表
// bucket 取值: todo(待办,默认)、done(已办)、cc(抄送)
func (c *TaskController) List(ctx *gin.Context) {
	bucket := service.TaskBucket(ctx.DefaultQuery("bucket", string(service.BucketTodo)))

	views, err := c.queryService.TasksByAssignee(CurrentUserID(ctx), bucket)
	if err != nil {
		RespondError(ctx, err)
		return
	}
	Success(ctx, views)
}

// Get 获取任务详情
func (c *TaskController) Get(ctx *gin.Context) {
	id, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}

	detail, err := c.queryService.TaskDetail(id)
	if err != nil {
		RespondError(ctx, err)
		return
	}
	Success(ctx, detail)
}

// Approve 审批同意
func (c *TaskController) Approve(ctx *gin.Context) {
	id, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}

	// 同意时意见可省略,允许空请求体
	var req DecisionRequest
	_ = ctx.ShouldBindJSON(&req)

	task, err := c.taskService.Approve(id, CurrentUserID(ctx), req.Comment)
	if err != nil {
		RespondError(ctx, err)
		return
	}
	Success(ctx, task)
}

// Reject 审批驳回
func (c *TaskController) Reject(ctx *gin.Context) {
	id, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}

	var req DecisionRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		Error(ctx, http.StatusBadRequest, "invalid request", err.Error())
		return
	}

	task, err := c.taskService.Reject(id, CurrentUserID(ctx), req.Comment)
	if err != nil {
		RespondError(ctx, err)
		return
	}
	Success(ctx, task)
}
