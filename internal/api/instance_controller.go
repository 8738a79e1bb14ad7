package api

import (
	"github.com/gin-gonic/gin"
	"github.com/neo-jack/1LoanManagemen/internal/service"
)

// InstanceController 流程实例控制器
type InstanceController struct {
	queryService service.QueryService
}

// NewInstanceController 创建流程实例控制器
func NewInstanceController(queryService service.QueryService) *InstanceController {
	return &InstanceController{
		queryService: queryService,
	}
}

// Get 获取流程实例详情:实例、业务快照、任务与节点链
func (c *InstanceController) Get(ctx *gin.Context) {
	id, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}

	detail, err := c.queryService.InstanceDetail(id)
	if err != nil {
		RespondError(ctx, err)
		return
	}
	Success(ctx, detail)
}
