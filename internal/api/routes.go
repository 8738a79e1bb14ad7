package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/neo-jack/1LoanManagemen/internal/auth"
	"github.com/neo-jack/1LoanManagemen/internal/config"
	"github.com/neo-jack/1LoanManagemen/internal/websocket"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// Controllers 路由依赖的全部控制器
type Controllers struct {
	Definition *DefinitionController
	Task       *TaskController
	Instance   *InstanceController
	Loan       *LoanController
}

// SetupRoutes 配置路由
func SetupRoutes(
	cfg *config.Config,
	logger *logrus.Logger,
	db *gorm.DB,
	hub *websocket.Hub,
	validator *auth.TokenValidator,
	controllers *Controllers,
) *gin.Engine {
	if config.IsProduction(cfg) {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())

	// 中间件
	router.Use(RequestIDMiddleware())
	router.Use(RequestLogMiddleware(logger))
	router.Use(CORSMiddleware(cfg.CORS.AllowedOrigins))
	router.Use(RateLimitMiddleware(cfg.RateLimit.RPS, cfg.RateLimit.Burst))

	// 健康检查
	healthController := NewHealthController(db, hub)
	router.GET("/health", healthController.Check)

	// Prometheus 指标端点
	router.GET("/metrics", MetricsHandler)

	// WebSocket 路由
	if hub != nil && validator != nil {
		router.GET("/ws/notifications", websocket.WebSocketHandler(hub, validator))
	}

	// API v1 路由组,全部需要认证
	v1 := router.Group("/api/v1")
	v1.Use(AuthMiddleware(validator))
	{
		// 流程配置管理路由
		definitions := v1.Group("/definitions")
		{
			definitions.GET("", controllers.Definition.List)
			definitions.POST("", controllers.Definition.Create)
			definitions.GET("/:id", controllers.Definition.Get)
			definitions.PUT("/:id", controllers.Definition.Update)
			definitions.PUT("/:id/nodes", controllers.Definition.ReplaceNodes)
			definitions.POST("/:id/submit", controllers.Definition.SubmitForReview)
			definitions.POST("/:id/approve", controllers.Definition.Approve)
			definitions.POST("/:id/deactivate", controllers.Definition.Deactivate)
		}

		// 审批任务路由
		tasks := v1.Group("/tasks")
		{
			tasks.GET("", controllers.Task.List)
			tasks.GET("/:id", controllers.Task.Get)
			tasks.POST("/:id/approve", controllers.Task.Approve)
			tasks.POST("/:id/reject", controllers.Task.Reject)
		}

		// 流程实例路由
		instances := v1.Group("/instances")
		{
			instances.GET("/:id", controllers.Instance.Get)
		}

		// 贷款申请路由
		loans := v1.Group("/loans")
		{
			loans.POST("", controllers.Loan.Create)
			loans.GET("", controllers.Loan.List)
			loans.GET("/:id", controllers.Loan.Get)
			loans.POST("/:id/submit", controllers.Loan.Submit)
		}
	}

	// 未匹配的路由返回 JSON 格式的 404
	router.NoRoute(func(c *gin.Context) {
		Error(c, http.StatusNotFound, "route not found", "the requested route does not exist")
	})

	return router
}
