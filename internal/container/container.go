package container

import (
	"context"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/neo-jack/1LoanManagemen/internal/api"
	"github.com/neo-jack/1LoanManagemen/internal/auth"
	"github.com/neo-jack/1LoanManagemen/internal/config"
	"github.com/neo-jack/1LoanManagemen/internal/database"
	"github.com/neo-jack/1LoanManagemen/internal/flow"
	"github.com/neo-jack/1LoanManagemen/internal/metrics"
	"github.com/neo-jack/1LoanManagemen/internal/notify"
	"github.com/neo-jack/1LoanManagemen/internal/repository"
	"github.com/neo-jack/1LoanManagemen/internal/service"
	"github.com/neo-jack/1LoanManagemen/internal/websocket"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// Container 依赖注入容器
// 管理数据库、消息总线、WebSocket Hub 与全部服务的装配和生命周期
type Container struct {
	cfg        *config.Config
	db         *gorm.DB
	logger     *logrus.Logger
	pubsub     *gochannel.GoChannel
	hub        *websocket.Hub
	bridge     *notify.Bridge
	dispatcher notify.Dispatcher
	validator  *auth.TokenValidator

	definitionSvc service.DefinitionService
	taskSvc       service.TaskService
	querySvc      service.QueryService
	loanSvc       service.LoanService

	cancel context.CancelFunc
}

// NewContainer 创建依赖注入容器
// 根据配置初始化所有依赖组件
func NewContainer(cfg *config.Config) (*Container, error) {
	// 1. 初始化日志
	logger, err := api.NewLoggerFromConfig(&cfg.Log)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	// 2. 初始化数据库（带重试机制）
	// 默认重试 3 次,初始间隔 1 秒,指数退避
	db, err := database.ConnectWithRetry(cfg.Database, 3, time.Second)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	// 执行数据库迁移
	if err := database.Migrate(db); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	// 3. 注册 Prometheus 指标
	metrics.Register()

	// 4. 初始化进程内消息总线与 WebSocket Hub
	pubsub := gochannel.NewGoChannel(
		gochannel.Config{
			Persistent:                     false,
			BlockPublishUntilSubscriberAck: false,
		},
		watermill.NopLogger{},
	)
	hub := websocket.NewHub()
	bridge := notify.NewBridge(pubsub, hub, logger)
	dispatcher := notify.NewDispatcher(pubsub, logger)

	// 5. 初始化 JWT 验证器
	validator := auth.NewTokenValidator(cfg.JWT.Secret)

	// 6. 装配仓储与服务
	defRepo := repository.NewDefinitionRepository(db)
	nodeRepo := repository.NewNodeRepository(db)
	instRepo := repository.NewInstanceRepository(db)
	taskRepo := repository.NewTaskRepository(db)
	loanRepo := repository.NewLoanRepository(db)

	directory := flow.NewDirectory(db)
	loanSync := service.NewLoanSync()

	fanOutSvc := service.NewFanOutService(taskRepo, directory)
	instanceSvc := service.NewInstanceService(defRepo, nodeRepo, instRepo, fanOutSvc, loanSync)
	definitionSvc := service.NewDefinitionService(db, defRepo, nodeRepo)
	taskSvc := service.NewTaskService(db, taskRepo, instRepo, instanceSvc, dispatcher)
	querySvc := service.NewQueryService(taskRepo, instRepo, nodeRepo, loanRepo)
	loanSvc := service.NewLoanService(db, loanRepo, defRepo, instRepo, taskRepo, nodeRepo, instanceSvc, dispatcher)

	return &Container{
		cfg:           cfg,
		db:            db,
		logger:        logger,
		pubsub:        pubsub,
		hub:           hub,
		bridge:        bridge,
		dispatcher:    dispatcher,
		validator:     validator,
		definitionSvc: definitionSvc,
		taskSvc:       taskSvc,
		querySvc:      querySvc,
		loanSvc:       loanSvc,
	}, nil
}

// Start 启动后台组件:WebSocket Hub 与事件转发桥
func (c *Container) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	c.cancel = cancel

	go c.hub.Run()
	go func() {
		if err := c.bridge.Run(ctx); err != nil && ctx.Err() == nil {
			c.logger.WithError(err).Error("notify bridge stopped")
		}
	}()

	// 周期性上报数据库连接池指标
	go func() {
		ticker := time.NewTicker(15 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				metrics.UpdateDBStats(c.db)
			case <-ctx.Done():
				return
			}
		}
	}()
}

// DB 获取数据库连接
func (c *Container) DB() *gorm.DB {
	return c.db
}

// Logger 获取日志记录器
func (c *Container) Logger() *logrus.Logger {
	return c.logger
}

// Hub 获取 WebSocket Hub
func (c *Container) Hub() *websocket.Hub {
	return c.hub
}

// Dispatcher 获取通知分发器
func (c *Container) Dispatcher() notify.Dispatcher {
	return c.dispatcher
}

// TokenValidator 获取 JWT 验证器
func (c *Container) TokenValidator() *auth.TokenValidator {
	return c.validator
}

// DefinitionService 获取流程配置服务
func (c *Container) DefinitionService() service.DefinitionService {
	return c.definitionSvc
}

// TaskService 获取审批决定服务
func (c *Container) TaskService() service.TaskService {
	return c.taskSvc
}

// QueryService 获取流程查询服务
func (c *Container) QueryService() service.QueryService {
	return c.querySvc
}

// LoanService 获取贷款申请服务
func (c *Container) LoanService() service.LoanService {
	return c.loanSvc
}

// Close 关闭容器,清理资源
func (c *Container) Close() error {
	if c.cancel != nil {
		c.cancel()
	}

	if c.pubsub != nil {
		if err := c.pubsub.Close(); err != nil {
			c.logger.WithError(err).Warn("failed to close message bus")
		}
	}

	if c.db != nil {
		sqlDB, err := c.db.DB()
		if err != nil {
			return fmt.Errorf("failed to get sql.DB: %w", err)
		}
		if err := sqlDB.Close(); err != nil {
			return fmt.Errorf("failed to close database: %w", err)
		}
	}

	return nil
}
