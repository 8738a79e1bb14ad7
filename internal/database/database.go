package database

import (
	"context"
	"fmt"
	"time"

	"github.com/neo-jack/1LoanManagemen/internal/config"
	"github.com/neo-jack/1LoanManagemen/internal/model"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// PoolConfig 连接池配置
type PoolConfig struct {
	MaxIdleConns    int
	MaxOpenConns    int
	ConnMaxLifetime int // 秒
	ConnMaxIdleTime int // 秒
}

// BuildDSN 构建 PostgreSQL DSN
func BuildDSN(cfg config.DatabaseConfig) string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.DBName, cfg.SSLMode)
}

// GetPoolConfig 获取连接池配置
func GetPoolConfig() *PoolConfig {
	return &PoolConfig{
		MaxIdleConns:    10,
		MaxOpenConns:    100,
		ConnMaxLifetime: 3600, // 1 小时
		ConnMaxIdleTime: 600,  // 10 分钟
	}
}

// Connect 连接数据库
func Connect(cfg config.DatabaseConfig) (*gorm.DB, error) {
	dsn := BuildDSN(cfg)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to connect database: %w", err)
	}

	// 配置连接池
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB: %w", err)
	}

	// 从配置中读取连接池参数,如果没有配置则使用默认值
	poolConfig := GetPoolConfig()
	if cfg.MaxIdleConns > 0 {
		poolConfig.MaxIdleConns = cfg.MaxIdleConns
	}
	if cfg.MaxOpenConns > 0 {
		poolConfig.MaxOpenConns = cfg.MaxOpenConns
	}
	if cfg.ConnMaxLifetime > 0 {
		poolConfig.ConnMaxLifetime = cfg.ConnMaxLifetime
	}
	if cfg.ConnMaxIdleTime > 0 {
		poolConfig.ConnMaxIdleTime = cfg.ConnMaxIdleTime
	}

	sqlDB.SetMaxIdleConns(poolConfig.MaxIdleConns)
	sqlDB.SetMaxOpenConns(poolConfig.MaxOpenConns)
	sqlDB.SetConnMaxLifetime(time.Duration(poolConfig.ConnMaxLifetime) * time.Second)
	sqlDB.SetConnMaxIdleTime(time.Duration(poolConfig.ConnMaxIdleTime) * time.Second)

	return db, nil
}

// ConnectWithRetry 带重试的数据库连接
func ConnectWithRetry(cfg config.DatabaseConfig, maxRetries int, retryInterval time.Duration) (*gorm.DB, error) {
	var db *gorm.DB
	var err error

	for i := 0; i < maxRetries; i++ {
		db, err = Connect(cfg)
		if err == nil {
			return db, nil
		}

		// 如果不是最后一次重试,等待后重试
		if i < maxRetries-1 {
			time.Sleep(retryInterval)
			retryInterval *= 2 // 指数退避
		}
	}

	return nil, fmt.Errorf("failed to connect database after %d retries: %w", maxRetries, err)
}

// Migrate 执行数据库迁移
func Migrate(db *gorm.DB) error {
	// 检测数据库类型
	dialector := db.Dialector.Name()

	// SQLite 不支持 jsonb,需要手动创建表
	// GORM SQLite dialector 的名称可能是 "sqlite" 或 "sqlite3"
	if dialector == "sqlite" || dialector == "sqlite3" {
		if err := createSQLiteTables(db); err != nil {
			return fmt.Errorf("failed to create SQLite tables: %w", err)
		}
	} else {
		// PostgreSQL 等其他数据库使用 AutoMigrate
		if err := db.AutoMigrate(
			&model.FlowDefinition{},
			&model.FlowNode{},
			&model.FlowInstance{},
			&model.FlowTask{},
			&model.LoanApplication{},
			&model.User{},
		); err != nil {
			return fmt.Errorf("failed to auto migrate: %w", err)
		}
	}

	// 创建索引
	if err := CreateIndexes(db); err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}

	return nil
}

// createSQLiteTables 为 SQLite 手动创建表(使用 TEXT 替代 jsonb)
func createSQLiteTables(db *gorm.DB) error {
	// 创建 flow_definitions 表
	if err := db.Exec(`
		CREATE TABLE IF NOT EXISTS flow_definitions (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			flow_name VARCHAR(100) NOT NULL,
			business_type VARCHAR(50) NOT NULL,
			description TEXT,
			status VARCHAR(32) NOT NULL DEFAULT 'draft',
			created_by INTEGER,
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL
		)
	`).Error; err != nil {
		return fmt.Errorf("failed to create flow_definitions table: %w", err)
	}

	// 创建 flow_nodes 表
	if err := db.Exec(`
		CREATE TABLE IF NOT EXISTS flow_nodes (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			flow_id INTEGER NOT NULL,
			node_name VARCHAR(100) NOT NULL,
			node_type VARCHAR(32) NOT NULL,
			auditor_type VARCHAR(32) DEFAULT 'role',
			auditor_id INTEGER,
			auditor_role VARCHAR(50),
			sort_order INTEGER NOT NULL DEFAULT 0,
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL
		)
	`).Error; err != nil {
		return fmt.Errorf("failed to create flow_nodes table: %w", err)
	}

	// 创建 flow_instances 表
	if err := db.Exec(`
		CREATE TABLE IF NOT EXISTS flow_instances (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			flow_id INTEGER NOT NULL,
			business_type VARCHAR(50) NOT NULL,
			business_id INTEGER NOT NULL,
			current_node_id INTEGER,
			status VARCHAR(32) NOT NULL DEFAULT 'running',
			initiator_id INTEGER NOT NULL,
			start_time DATETIME NOT NULL,
			end_time DATETIME,
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL
		)
	`).Error; err != nil {
		return fmt.Errorf("failed to create flow_instances table: %w", err)
	}

	// 创建 flow_tasks 表
	if err := db.Exec(`
		CREATE TABLE IF NOT EXISTS flow_tasks (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			instance_id INTEGER NOT NULL,
			node_id INTEGER NOT NULL,
			task_type VARCHAR(32) NOT NULL DEFAULT 'audit',
			assignee_id INTEGER NOT NULL,
			status VARCHAR(32) NOT NULL DEFAULT 'pending',
			comment TEXT,
			handle_time DATETIME,
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL
		)
	`).Error; err != nil {
		return fmt.Errorf("failed to create flow_tasks table: %w", err)
	}

	// 创建 loan_applications 表
	if err := db.Exec(`
		CREATE TABLE IF NOT EXISTS loan_applications (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			application_no VARCHAR(50) NOT NULL UNIQUE,
			user_id INTEGER NOT NULL,
			loan_type VARCHAR(50) NOT NULL,
			amount DECIMAL(10,2) NOT NULL,
			purpose TEXT,
			form_data TEXT,
			status VARCHAR(32) NOT NULL DEFAULT 'draft',
			current_node_id INTEGER,
			submit_time DATETIME,
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL
		)
	`).Error; err != nil {
		return fmt.Errorf("failed to create loan_applications table: %w", err)
	}

	// 创建 users 表
	if err := db.Exec(`
		CREATE TABLE IF NOT EXISTS users (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			username VARCHAR(50) NOT NULL UNIQUE,
			name VARCHAR(50),
			role VARCHAR(50),
			loan_role VARCHAR(50),
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL
		)
	`).Error; err != nil {
		return fmt.Errorf("failed to create users table: %w", err)
	}

	return nil
}

// CreateIndexes 创建数据库索引
func CreateIndexes(db *gorm.DB) error {
	// flow_definitions 表索引
	if err := db.Exec("CREATE INDEX IF NOT EXISTS idx_definitions_business_type ON flow_definitions(business_type, status)").Error; err != nil {
		return fmt.Errorf("failed to create idx_definitions_business_type: %w", err)
	}

	// flow_nodes 表索引
	if err := db.Exec("CREATE INDEX IF NOT EXISTS idx_nodes_flow_order ON flow_nodes(flow_id, sort_order)").Error; err != nil {
		return fmt.Errorf("failed to create idx_nodes_flow_order: %w", err)
	}

	// flow_instances 表索引
	if err := db.Exec("CREATE INDEX IF NOT EXISTS idx_instances_business ON flow_instances(business_type, business_id)").Error; err != nil {
		return fmt.Errorf("failed to create idx_instances_business: %w", err)
	}
	// 同一业务键同时只允许一个进行中的实例,部分唯一索引兜底
	if err := db.Exec("CREATE UNIQUE INDEX IF NOT EXISTS idx_instances_one_running ON flow_instances(business_type, business_id) WHERE status = 'running'").Error; err != nil {
		return fmt.Errorf("failed to create idx_instances_one_running: %w", err)
	}

	// flow_tasks 表索引
	if err := db.Exec("CREATE INDEX IF NOT EXISTS idx_tasks_group ON flow_tasks(instance_id, node_id)").Error; err != nil {
		return fmt.Errorf("failed to create idx_tasks_group: %w", err)
	}
	if err := db.Exec("CREATE INDEX IF NOT EXISTS idx_tasks_assignee_status ON flow_tasks(assignee_id, status)").Error; err != nil {
		return fmt.Errorf("failed to create idx_tasks_assignee_status: %w", err)
	}

	// loan_applications 表索引
	if err := db.Exec("CREATE INDEX IF NOT EXISTS idx_loans_user_status ON loan_applications(user_id, status)").Error; err != nil {
		return fmt.Errorf("failed to create idx_loans_user_status: %w", err)
	}

	// users 表索引
	if err := db.Exec("CREATE INDEX IF NOT EXISTS idx_users_loan_role ON users(loan_role)").Error; err != nil {
		return fmt.Errorf("failed to create idx_users_loan_role: %w", err)
	}

	return nil
}

// CheckHealth 检查数据库连接健康状态
func CheckHealth(db *gorm.DB) bool {
	if db == nil {
		return false
	}

	sqlDB, err := db.DB()
	if err != nil {
		return false
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := sqlDB.PingContext(ctx); err != nil {
		return false
	}

	return true
}
