package metrics

import (
	"fmt"
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"
)

var (
	// API 请求计数器
	apiRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "path", "status"},
	)

	// API 请求响应时间
	apiRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	// 流程实例发起数
	instancesStartedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "flow_instances_started_total",
			Help: "Total number of flow instances started",
		},
	)

	// 审批决定数
	decisionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "flow_decisions_total",
			Help: "Total number of approval decisions",
		},
		[]string{"action"}, // approve, reject
	)

	// 分发出去的任务数
	tasksFannedOutTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "flow_tasks_fanned_out_total",
			Help: "Total number of tasks fanned out to assignees",
		},
	)

	// 数据库连接数
	databaseConnectionsActive = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "database_connections_active",
			Help: "Number of active database connections",
		},
	)

	databaseConnectionsIdle = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "database_connections_idle",
			Help: "Number of idle database connections",
		},
	)

	registerOnce sync.Once
)

// Register 注册所有指标
func Register() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			apiRequestsTotal,
			apiRequestDuration,
			instancesStartedTotal,
			decisionsTotal,
			tasksFannedOutTotal,
			databaseConnectionsActive,
			databaseConnectionsIdle,
		)
	})
}

// RecordAPIRequest 记录 API 请求指标
func RecordAPIRequest(method, path string, status int, durationSeconds float64) {
	apiRequestsTotal.WithLabelValues(method, path, fmt.Sprintf("%d", status)).Inc()
	apiRequestDuration.WithLabelValues(method, path).Observe(durationSeconds)
}

// RecordInstanceStarted 记录流程实例发起
func RecordInstanceStarted() {
	instancesStartedTotal.Inc()
}

// RecordDecision 记录审批决定
func RecordDecision(action string) {
	decisionsTotal.WithLabelValues(action).Inc()
}

// RecordFanOut 记录任务分发
func RecordFanOut(count int) {
	tasksFannedOutTotal.Add(float64(count))
}

// UpdateDBStats 更新数据库连接池指标
func UpdateDBStats(db *gorm.DB) {
	if db == nil {
		return
	}
	sqlDB, err := db.DB()
	if err != nil {
		return
	}
	stats := sqlDB.Stats()
	databaseConnectionsActive.Set(float64(stats.InUse))
	databaseConnectionsIdle.Set(float64(stats.Idle))
}

// Handler 返回 Prometheus 指标处理器
func Handler() http.Handler {
	return promhttp.Handler()
}
