package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// SLAConfig SLA 配置
type SLAConfig struct {
	SubmissionMaxTime time.Duration // 保存、提交、预约、重新提交
	DecisionMaxTime   time.Duration // 审批、撤回、取消预约
	QueryMaxTime      time.Duration // 报告和模板查询
}

// DefaultSLAConfig 返回默认 SLA 配置
func DefaultSLAConfig() *SLAConfig {
	return &SLAConfig{
		SubmissionMaxTime: 2 * time.Second,
		DecisionMaxTime:   1 * time.Second,
		QueryMaxTime:      500 * time.Millisecond,
	}
}

// getOperation 按路由模板和方法判断操作类型
func getOperation(c *gin.Context) string {
	route := c.FullPath()
	if !strings.HasPrefix(route, "/api/v1/") {
		return "unknown"
	}
	if c.Request.Method == http.MethodGet {
		return "query"
	}
	switch {
	case strings.HasSuffix(route, "/approvals"),
		strings.HasSuffix(route, "/recall"),
		strings.HasSuffix(route, "/schedule/cancel"):
		return "decision"
	case strings.HasPrefix(route, "/api/v1/reports"):
		return "submission"
	}
	return "unknown"
}

// expectedDuration 获取期望的响应时间,0 表示不检查
func expectedDuration(operation string, config *SLAConfig) time.Duration {
	switch operation {
	case "submission":
		return config.SubmissionMaxTime
	case "decision":
		return config.DecisionMaxTime
	case "query":
		return config.QueryMaxTime
	default:
		return 0
	}
}

// CheckSLA 检查 SLA
func CheckSLA(operation string, duration time.Duration, config *SLAConfig) bool {
	expected := expectedDuration(operation, config)
	return expected == 0 || duration <= expected
}

// SLAMonitorMiddleware SLA 监控中间件,超时的请求记录告警日志
func SLAMonitorMiddleware(config *SLAConfig, logger logrus.FieldLogger) gin.HandlerFunc {
	if config == nil {
		config = DefaultSLAConfig()
	}
	if logger == nil {
		logger = GetLogger()
	}

	return func(c *gin.Context) {
		start := time.Now()
		operation := getOperation(c)

		c.Next()

		duration := time.Since(start)
		if CheckSLA(operation, duration, config) {
			return
		}
		expected := expectedDuration(operation, config)
		logger.WithFields(logrus.Fields{
			"request_id": c.GetString("request_id"),
			"operation":  operation,
			"route":      c.FullPath(),
			"duration":   duration.String(),
			"expected":   expected.String(),
		}).Warn("SLA violation")
	}
}
