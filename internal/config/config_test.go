package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/neo-jack/1LoanManagemen/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestDefault 测试默认配置
func TestDefault(t *testing.T) {
	cfg := config.Default()

	assert.Equal(t, "development", cfg.Env)
	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "localhost", cfg.Database.Host)
	assert.Equal(t, 5432, cfg.Database.Port)
	assert.Equal(t, "loanflow", cfg.Database.DBName)
	assert.Equal(t, 24, cfg.JWT.ExpireHours)
	assert.Equal(t, 100.0, cfg.RateLimit.RPS)
	assert.Equal(t, 200, cfg.RateLimit.Burst)
	// 开发环境默认 debug/text 日志
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "text", cfg.Log.Format)
	assert.False(t, config.IsProduction(cfg))
}

// TestLoad_FromFile 测试从配置文件加载
func TestLoad_FromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
env: production
server:
  host: 127.0.0.1
  port: 9090
database:
  host: db.internal
  dbname: loanflow_prod
jwt:
  secret: prod-secret
log:
  format: json
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, "production", cfg.Env)
	assert.True(t, config.IsProduction(cfg))
	assert.Equal(t, "127.0.0.1", cfg.Server.Host)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "db.internal", cfg.Database.Host)
	assert.Equal(t, "loanflow_prod", cfg.Database.DBName)
	assert.Equal(t, "prod-secret", cfg.JWT.Secret)
	assert.Equal(t, "json", cfg.Log.Format)
	// 文件未覆盖的字段回落到默认值
	assert.Equal(t, 5432, cfg.Database.Port)
}

// TestLoad_MissingFile 指定的配置文件不存在时报错
func TestLoad_MissingFile(t *testing.T) {
	_, err := config.Load("/nonexistent/config.yaml")
	assert.Error(t, err)
}

// TestLoad_EnvOverride 环境变量覆盖配置
func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("APP_SERVER_PORT", "18080")

	cfg, err := config.Load("")
	require.NoError(t, err)
	assert.Equal(t, 18080, cfg.Server.Port)
}
