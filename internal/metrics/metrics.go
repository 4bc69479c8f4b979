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

	// 报告状态转换数
	reportTransitionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "report_transitions_total",
			Help: "Total number of report state transitions",
		},
		[]string{"action", "to"},
	)

	// 被拒绝的操作（冲突、越权、超过重新提交上限等）
	reportRejectionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "report_operation_failures_total",
			Help: "Total number of report operations refused by the workflow rules",
		},
		[]string{"action", "reason"},
	)

	// 预约提交激活数
	scheduledActivationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scheduled_activations_total",
			Help: "Total number of scheduled reports processed by the activator",
		},
		[]string{"result"}, // activated, failed
	)

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

	databaseConnectionsMax = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "database_connections_max",
			Help: "Maximum number of database connections",
		},
	)

	// 报告状态分布
	reportsByStatus = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "reports_by_status",
			Help: "Number of reports by status",
		},
		[]string{"status"},
	)
)

var (
	once sync.Once
)

func init() {
	prometheus.MustRegister(apiRequestsTotal)
	prometheus.MustRegister(apiRequestDuration)
	prometheus.MustRegister(reportTransitionsTotal)
	prometheus.MustRegister(reportRejectionsTotal)
	prometheus.MustRegister(scheduledActivationsTotal)
	prometheus.MustRegister(databaseConnectionsActive)
	prometheus.MustRegister(databaseConnectionsIdle)
	prometheus.MustRegister(databaseConnectionsMax)
	prometheus.MustRegister(reportsByStatus)

	// Go 运行时指标只注册一次,已注册时忽略错误
	once.Do(func() {
		_ = prometheus.Register(prometheus.NewGoCollector())
		_ = prometheus.Register(prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}))
	})
}

// Handler 返回 Prometheus 指标处理器
func Handler() http.Handler {
	return promhttp.Handler()
}

// RecordAPIRequest 记录 API 请求
func RecordAPIRequest(method, path string, status int, duration float64) {
	statusText := http.StatusText(status)
	if statusText == "" {
		statusText = fmt.Sprintf("%d", status)
	}
	apiRequestsTotal.WithLabelValues(method, path, statusText).Inc()
	apiRequestDuration.WithLabelValues(method, path).Observe(duration)
}

// RecordTransition 记录一次成功的状态转换
func RecordTransition(action, to string) {
	reportTransitionsTotal.WithLabelValues(action, to).Inc()
}

// RecordRefusal 记录被规则拒绝的操作
func RecordRefusal(action, reason string) {
	reportRejectionsTotal.WithLabelValues(action, reason).Inc()
}

// RecordActivation 记录预约激活结果
func RecordActivation(result string) {
	scheduledActivationsTotal.WithLabelValues(result).Inc()
}

// UpdateDatabaseConnections 更新数据库连接数指标
func UpdateDatabaseConnections(db *gorm.DB) error {
	if db == nil {
		return fmt.Errorf("database connection is nil")
	}

	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get sql.DB: %w", err)
	}

	stats := sqlDB.Stats()
	databaseConnectionsActive.Set(float64(stats.OpenConnections - stats.Idle))
	databaseConnectionsIdle.Set(float64(stats.Idle))
	databaseConnectionsMax.Set(float64(stats.MaxOpenConnections))

	return nil
}

// UpdateReportsByStatus 按状态统计报告数量
func UpdateReportsByStatus(db *gorm.DB) error {
	if db == nil {
		return fmt.Errorf("database connection is nil")
	}
	var rows []struct {
		Status string
		Count  int64
	}
	if err := db.Table("reports").Select("status, COUNT(*) AS count").Group("status").Scan(&rows).Error; err != nil {
		return fmt.Errorf("failed to count reports by status: %w", err)
	}
	reportsByStatus.Reset()
	for _, r := range rows {
		reportsByStatus.WithLabelValues(r.Status).Set(float64(r.Count))
	}
	return nil
}
