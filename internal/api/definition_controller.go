package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/neo-jack/1LoanManagemen/internal/service"
)

// DefinitionController 流程配置控制器
type DefinitionController struct {
	definitionService service.DefinitionService
}

// NewDefinitionController 创建流程配置控制器
func NewDefinitionController(definitionService service.DefinitionService) *DefinitionController {
	return &DefinitionController{
		definitionService: definitionService,
	}
}

// List 获取流程配置列表
func (c *DefinitionController) List(ctx *gin.Context) {
	definitions, err := c.definitionService.List()
	if err != nil {
		RespondError(ctx, err)
		return
	}
	Success(ctx, definitions)
}

// Get 获取流程配置详情及节点链
func (c *DefinitionController) Get(ctx *gin.Context) {
	id, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}

	detail, err := c.definitionService.GetWithNodes(id)
	if err != nil {
		RespondError(ctx, err)
		return
	}
	Success(ctx, detail)
}

// Create 创建流程配置
func (c *DefinitionController) Create(ctx *gin.Context) {
	var req service.CreateDefinitionRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		Error(ctx, http.StatusBadRequest, "invalid request", err.Error())
		return
	}

	definition, err := c.definitionService.Create(CurrentUserID(ctx), &req)
	if err != nil {
		RespondError(ctx, err)
		return
	}
	Success(ctx, definition)
}

// Update 更新流程配置基本信息
func (c *DefinitionController) Update(ctx *gin.Context) {
	id, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}

	var req service.UpdateDefinitionRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		Error(ctx, http.StatusBadRequest, "invalid request", err.Error())
		return
	}

	definition, err := c.definitionService.Update(id, &req)
	if err != nil {
		RespondError(ctx, err)
		return
	}
	Success(ctx, definition)
}

// ReplaceNodes 整体替换节点链
func (c *DefinitionController) ReplaceNodes(ctx *gin.Context) {
	id, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}

	var specs []service.NodeSpec
	if err := ctx.ShouldBindJSON(&specs); err != nil {
		Error(ctx, http.StatusBadRequest, "invalid request", err.Error())
		return
	}

	nodes, err := c.definitionService.ReplaceNodes(id, specs)
	if err != nil {
		RespondError(ctx, err)
		return
	}
	Success(ctx, nodes)
}

// SubmitForReview 提交流程配置审核
func (c *DefinitionController) SubmitForReview(ctx *gin.Context) {
	id, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}

	definition, err := c.definitionService.SubmitForReview(id)
	if err != nil {
		RespondError(ctx, err)
		return
	}
	Success(ctx, definition)
}

// Approve 审核通过流程配置
func (c *DefinitionController) Approve(ctx *gin.Context) {
	id, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}

	definition, err := c.definitionService.Approve(id)
	if err != nil {
		RespondError(ctx, err)
		return
	}
	Success(ctx, definition)
}

// Deactivate 停用流程配置
func (c *DefinitionController) Deactivate(ctx *gin.Context) {
	id, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}

	definition, err := c.definitionService.Deactivate(id)
	if err != nil {
		RespondError(ctx, err)
		return
	}
	Success(ctx, definition)
}
