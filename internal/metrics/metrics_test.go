package metrics_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/kimjiwon0450/Front-HRHub-sub000/internal/config"
	"github.com/kimjiwon0450/Front-HRHub-sub000/internal/database"
	"github.com/kimjiwon0450/Front-HRHub-sub000/internal/metrics"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestHandler_ExposesReportMetrics 测试指标端点输出报告相关指标
func TestHandler_ExposesReportMetrics(t *testing.T) {
	metrics.RecordTransition("submit", "IN_PROGRESS")
	metrics.RecordRefusal("approve", "already_resolved")
	metrics.RecordActivation("activated")
	metrics.RecordAPIRequest("GET", "/api/v1/reports/:id", 200, 0.01)

	rec := httptest.NewRecorder()
	metrics.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body := rec.Body.String()
	assert.Contains(t, body, `report_transitions_total{action="submit",to="IN_PROGRESS"}`)
	assert.Contains(t, body, `report_operation_failures_total{action="approve",reason="already_resolved"}`)
	assert.Contains(t, body, `scheduled_activations_total{result="activated"}`)
	assert.Contains(t, body, "api_requests_total")
}

// TestCollector_ReportsByStatus 测试状态分布采集
func TestCollector_ReportsByStatus(t *testing.T) {
	db, err := database.Connect(config.DatabaseConfig{Driver: "sqlite", Path: ":memory:"})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	require.NoError(t, db.Exec(`INSERT INTO reports (id, title, content, status, writer_id, version, cycle, created_at, updated_at)
		VALUES ('r1', 't', '{}', 'DRAFT', 'w1', 1, 0, ?, ?)`, time.Now(), time.Now()).Error)

	c := metrics.NewCollector(db, time.Hour)
	c.CollectOnce()

	rec := httptest.NewRecorder()
	metrics.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	lines := strings.Split(rec.Body.String(), "\n")
	found := false
	for _, l := range lines {
		if strings.HasPrefix(l, `reports_by_status{status="DRAFT"} 1`) {
			found = true
		}
	}
	assert.True(t, found)
}
