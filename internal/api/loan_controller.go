package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/neo-jack/1LoanManagemen/internal/service"
)

// LoanController 贷款申请控制器
type LoanController struct {
	loanService service.LoanService
}

// NewLoanController 创建贷款申请控制器
func NewLoanController(loanService service.LoanService) *LoanController {
	return &LoanController{
		loanService: loanService,
	}
}

// Create 创建贷款申请草稿
func (c *LoanController) Create(ctx *gin.Context) {
	var req service.CreateLoanRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		Error(ctx, http.StatusBadRequest, "invalid request", err.Error())
		return
	}

	app, err := c.loanService.Create(CurrentUserID(ctx), &req)
	if err != nil {
		RespondError(ctx, err)
		return
	}
	Success(ctx, app)
}

// Submit 提交贷款申请,发起审批流程
func (c *LoanController) Submit(ctx *gin.Context) {
	id, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}

	app, err := c.loanService.Submit(CurrentUserID(ctx), id)
	if err != nil {
		RespondError(ctx, err)
		return
	}
	Success(ctx, app)
}

// List 获取当前用户的申请列表,可按 status 过滤
func (c *LoanController) List(ctx *gin.Context) {
	apps, err := c.loanService.ListByUser(CurrentUserID(ctx), ctx.Query("status"))
	if err != nil {
		RespondError(ctx, err)
		return
	}
	Success(ctx, apps)
}

// Get 获取申请详情及流程快照
func (c *LoanController) Get(ctx *gin.Context) {
	id, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}

	detail, err := c.loanService.Detail(id)
	if err != nil {
		RespondError(ctx, err)
		return
	}
	Success(ctx, detail)
}
