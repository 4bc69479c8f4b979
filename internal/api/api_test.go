package api_test

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/kimjiwon0450/Front-HRHub-sub000/internal/api"
	"github.com/kimjiwon0450/Front-HRHub-sub000/internal/auth"
	"github.com/kimjiwon0450/Front-HRHub-sub000/internal/config"
	"github.com/kimjiwon0450/Front-HRHub-sub000/internal/database"
	"github.com/kimjiwon0450/Front-HRHub-sub000/internal/repository"
	"github.com/kimjiwon0450/Front-HRHub-sub000/internal/service"
	"github.com/kimjiwon0450/Front-HRHub-sub000/internal/storage"
	"github.com/kimjiwon0450/Front-HRHub-sub000/internal/workflow"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// envelope 统一响应,data 延迟解析
type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Detail  string          `json:"detail"`
	Reason  string          `json:"reason"`
	Data    json.RawMessage `json:"data"`
}

// testServer 基于内存 SQLite 的完整路由
type testServer struct {
	router    *gin.Engine
	scheduler *workflow.Scheduler
	now       time.Time
}

func newTestServer(t *testing.T) *testServer {
	gin.SetMode(gin.TestMode)

	db, err := database.Connect(config.DatabaseConfig{Driver: "sqlite", Path: ":memory:"})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))

	store, err := storage.NewLocalStore(t.TempDir())
	require.NoError(t, err)

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	s := &testServer{now: time.Date(2024, 3, 4, 1, 7, 0, 0, time.UTC)}
	s.scheduler = workflow.NewScheduler(workflow.DefaultUTCOffsetHours, workflow.DefaultGranularity)
	s.scheduler.Now = func() time.Time { return s.now }

	relations := auth.NewMemoryRelationStore()
	audit := service.NewAuditLogService(repository.NewAuditLogRepository(db))
	cfg := config.Default()
	cfg.RateLimit.Enabled = false

	s.router = api.SetupRoutes(api.RouterOptions{
		Config: cfg,
		DB:     db,
		Logger: logger,
		Reports: service.NewReportService(db, service.ReportServiceConfig{
			Scheduler: s.scheduler,
			Store:     store,
			Relations: relations,
			AuditLog:  audit,
			Logger:    logger,
		}),
		Queries:   service.NewQueryService(db),
		Templates: service.NewTemplateService(db, audit, relations),
		Auth:      auth.HeaderAuthMiddleware(),
	})
	return s
}

// do 以 employee 身份发送 JSON 请求
func (s *testServer) do(t *testing.T, method, path, employee string, body interface{}) (*httptest.ResponseRecorder, envelope) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return s.serve(t, req, employee)
}

// multipart 以 metadata + files 形式发送请求
func (s *testServer) multipart(t *testing.T, path, employee string, metadata interface{}, files map[string][]byte) (*httptest.ResponseRecorder, envelope) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	data, err := json.Marshal(metadata)
	require.NoError(t, err)
	require.NoError(t, w.WriteField(api.FormMetadata, string(data)))
	for name, content := range files {
		part, err := w.CreateFormFile(api.FormFiles, name)
		require.NoError(t, err)
		_, err = part.Write(content)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return s.serve(t, req, employee)
}

func (s *testServer) serve(t *testing.T, req *http.Request, employee string) (*httptest.ResponseRecorder, envelope) {
	if employee != "" {
		req.Header.Set(auth.HeaderEmployeeID, employee)
		req.Header.Set(auth.HeaderEmployeeName, "name-"+employee)
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)

	var env envelope
	if json.Valid(rec.Body.Bytes()) {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	}
	return rec, env
}

func decode(t *testing.T, env envelope) *workflow.ReportDocument {
	var doc workflow.ReportDocument
	require.NoError(t, json.Unmarshal(env.Data, &doc))
	return &doc
}

func draftBody(approvers ...string) map[string]interface{} {
	line := make([]map[string]interface{}, len(approvers))
	for i, a := range approvers {
		line[i] = map[string]interface{}{"employeeId": a, "name": "name-" + a, "sequencePosition": i}
	}
	return map[string]interface{}{
		"title":        "분기 실적 보고",
		"content":      map[string]interface{}{"body": "<p>1분기 매출 요약</p>"},
		"approvalLine": line,
		"references":   []map[string]interface{}{{"employeeId": "c1", "name": "name-c1"}},
	}
}

// TestReportAPI_SaveSubmitApprove 测试 multipart 保存、提交和依次审批
func TestReportAPI_SaveSubmitApprove(t *testing.T) {
	s := newTestServer(t)

	rec, env := s.multipart(t, "/api/v1/reports/save", "w1", draftBody("a1", "a2"), map[string][]byte{
		"plan.txt": []byte("출장 계획"),
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	draft := decode(t, env)
	assert.Equal(t, workflow.StatusDraft, draft.Status)
	assert.Equal(t, "w1", draft.WriterID)
	require.Len(t, draft.Attachments, 1)
	assert.NotEmpty(t, rec.Header().Get(api.HeaderRequestID))

	// 草稿只有作者可见
	rec, env = s.do(t, http.MethodGet, "/api/v1/reports/"+draft.ID, "a1", nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, workflow.ReasonForbidden, env.Reason)

	body := draftBody("a1", "a2")
	body["status"] = workflow.StatusInProgress
	body["version"] = draft.Version
	body["attachments"] = draft.Attachments
	rec, env = s.do(t, http.MethodPut, "/api/v1/reports/"+draft.ID, "w1", body)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	submitted := decode(t, env)
	assert.Equal(t, workflow.StatusInProgress, submitted.Status)
	require.Len(t, submitted.Attachments, 1)

	// 第二位审批人不能越过第一位
	rec, env = s.do(t, http.MethodPost, "/api/v1/reports/"+draft.ID+"/approvals", "a2", map[string]interface{}{
		"approvalStatus": "approved",
	})
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, workflow.ReasonForbidden, env.Reason)

	rec, env = s.do(t, http.MethodPost, "/api/v1/reports/"+draft.ID+"/approvals", "a1", map[string]interface{}{
		"approvalStatus": "approved",
		"comment":        "확인했습니다",
		"version":        submitted.Version,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	afterFirst := decode(t, env)
	assert.Equal(t, workflow.StatusInProgress, afterFirst.Status)

	// 过期版本被拒绝
	rec, env = s.do(t, http.MethodPost, "/api/v1/reports/"+draft.ID+"/approvals", "a2", map[string]interface{}{
		"approvalStatus": "APPROVED",
		"version":        submitted.Version,
	})
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, workflow.ReasonVersionConflict, env.Reason)
	assert.NotEmpty(t, env.Message)

	rec, env = s.do(t, http.MethodPost, "/api/v1/reports/"+draft.ID+"/approvals", "a2", map[string]interface{}{
		"approvalStatus": "APPROVED",
		"version":        afterFirst.Version,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, workflow.StatusApproved, decode(t, env).Status)

	// 已结束的报告不能再审批
	rec, _ = s.do(t, http.MethodPost, "/api/v1/reports/"+draft.ID+"/approvals", "a2", map[string]interface{}{
		"approvalStatus": "APPROVED",
	})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec, env = s.do(t, http.MethodGet, "/api/v1/reports/"+draft.ID+"/history", "c1", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var history []workflow.HistoryEvent
	require.NoError(t, json.Unmarshal(env.Data, &history))
	require.Len(t, history, 3)
	assert.Equal(t, workflow.ActionSubmitted, history[0].Action)
	assert.Equal(t, workflow.ActionApproved, history[2].Action)

	rec, env = s.do(t, http.MethodGet, "/api/v1/reports/"+draft.ID+"/transitions", "w1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var transitions []map[string]interface{}
	require.NoError(t, json.Unmarshal(env.Data, &transitions))
	assert.NotEmpty(t, transitions)

	rec, _ = s.do(t, http.MethodGet, "/api/v1/reports/"+draft.ID, "x1", nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

// TestReportAPI_RejectResubmitRecall 测试驳回、重新提交和撤回
func TestReportAPI_RejectResubmitRecall(t *testing.T) {
	s := newTestServer(t)

	rec, env := s.do(t, http.MethodPost, "/api/v1/reports/submit", "w1", draftBody("a1"))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	doc := decode(t, env)

	rec, env = s.do(t, http.MethodPost, "/api/v1/reports/"+doc.ID+"/resubmit", "w1", draftBody("a1"))
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, workflow.ReasonIllegalTransition, env.Reason)

	rec, _ = s.do(t, http.MethodPost, "/api/v1/reports/"+doc.ID+"/approvals", "a1", map[string]interface{}{
		"approvalStatus": "REJECTED",
		"comment":        "예산 근거 보완",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec, env = s.do(t, http.MethodPost, "/api/v1/reports/"+doc.ID+"/resubmit", "a1", draftBody("a1"))
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, workflow.ReasonForbidden, env.Reason)

	rec, env = s.do(t, http.MethodPost, "/api/v1/reports/"+doc.ID+"/resubmit", "w1", draftBody("a1"))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	resubmitted := decode(t, env)
	assert.Equal(t, workflow.StatusInProgress, resubmitted.Status)
	assert.Equal(t, workflow.ApprovalPending, resubmitted.ApprovalLine[0].ApprovalStatus)

	// 空请求体撤回
	req := httptest.NewRequest(http.MethodPost, "/api/v1/reports/"+doc.ID+"/recall", nil)
	rec, env = s.serve(t, req, "w1")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, workflow.StatusRecalled, decode(t, env).Status)
}

// TestReportAPI_RetryCeiling 测试重新提交次数上限返回 422
func TestReportAPI_RetryCeiling(t *testing.T) {
	s := newTestServer(t)

	rec, env := s.do(t, http.MethodPost, "/api/v1/reports/submit", "w1", draftBody("a1"))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	id := decode(t, env).ID

	reject := func() {
		rec, _ := s.do(t, http.MethodPost, "/api/v1/reports/"+id+"/approvals", "a1", map[string]interface{}{
			"approvalStatus": "REJECTED",
			"comment":        "반려",
		})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		s.now = s.now.Add(time.Minute)
	}

	for i := 0; i < workflow.MaxResubmissions; i++ {
		reject()
		rec, _ := s.do(t, http.MethodPost, "/api/v1/reports/"+id+"/resubmit", "w1", draftBody("a1"))
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		s.now = s.now.Add(time.Minute)
	}
	reject()

	rec, env = s.do(t, http.MethodPost, "/api/v1/reports/"+id+"/resubmit", "w1", draftBody("a1"))
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, workflow.ReasonRetryCeiling, env.Reason)
}

// TestReportAPI_Schedule 测试预约提交和取消
func TestReportAPI_Schedule(t *testing.T) {
	s := newTestServer(t)

	body := draftBody("a1")
	body["scheduledDate"] = "2024-03-04"
	body["scheduledTime"] = "10:05"
	rec, env := s.do(t, http.MethodPost, "/api/v1/reports/schedule", "w1", body)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, workflow.ReasonValidation, env.Reason)

	body["scheduledTime"] = "10:10"
	rec, env = s.do(t, http.MethodPost, "/api/v1/reports/schedule", "w1", body)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	doc := decode(t, env)
	assert.Equal(t, workflow.StatusScheduled, doc.Status)
	require.NotNil(t, doc.ScheduledAt)
	assert.True(t, doc.ScheduledAt.Equal(time.Date(2024, 3, 4, 1, 10, 0, 0, time.UTC)))

	rec, env = s.do(t, http.MethodGet, "/api/v1/reports?box=scheduled", "w1", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var summaries []map[string]interface{}
	require.NoError(t, json.Unmarshal(env.Data, &summaries))
	assert.Len(t, summaries, 1)

	rec, env = s.do(t, http.MethodPost, "/api/v1/reports/"+doc.ID+"/schedule/cancel", "w1", map[string]interface{}{
		"version": doc.Version,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, workflow.StatusDraft, decode(t, env).Status)
}

// TestReportAPI_ListAndCounts 测试列表分类和数量统计
func TestReportAPI_ListAndCounts(t *testing.T) {
	s := newTestServer(t)

	rec, _ := s.do(t, http.MethodPost, "/api/v1/reports/submit", "w1", draftBody("a1"))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	rec, _ = s.do(t, http.MethodPost, "/api/v1/reports/save", "w1", draftBody("a1"))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec, env := s.do(t, http.MethodGet, "/api/v1/reports?box=inbox", "a1", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var page struct {
		Data       []map[string]interface{} `json:"data"`
		Pagination api.PaginationInfo        `json:"pagination"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &page))
	require.Len(t, page.Data, 1)
	assert.Equal(t, int64(1), page.Pagination.Total)
	assert.Equal(t, string(workflow.StatusInProgress), page.Data[0]["status"])

	rec, env = s.do(t, http.MethodGet, "/api/v1/reports?box=unknown", "a1", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, workflow.ReasonValidation, env.Reason)

	rec, env = s.do(t, http.MethodGet, "/api/v1/me/report-counts", "w1", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var counts map[string]int64
	require.NoError(t, json.Unmarshal(env.Data, &counts))
	assert.Equal(t, int64(1), counts[string(workflow.StatusDraft)])
	assert.Equal(t, int64(1), counts[string(workflow.StatusInProgress)])
}

// TestReportAPI_Attachment 测试附件下载和权限
func TestReportAPI_Attachment(t *testing.T) {
	s := newTestServer(t)

	rec, env := s.multipart(t, "/api/v1/reports/submit", "w1", draftBody("a1"), map[string][]byte{
		"영수증.txt": []byte("택시 12,000원"),
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	doc := decode(t, env)
	require.Len(t, doc.Attachments, 1)
	url := doc.Attachments[0].URL
	assert.True(t, strings.HasPrefix(url, service.AttachmentURLPrefix))

	rec, _ = s.do(t, http.MethodGet, url, "a1", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "택시 12,000원", rec.Body.String())
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "attachment")

	rec, _ = s.do(t, http.MethodGet, url, "x1", nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec, env = s.do(t, http.MethodGet, service.AttachmentURLPrefix+"missing", "w1", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, workflow.ReasonNotFound, env.Reason)
}

// TestReportAPI_RequestErrors 测试认证、ID 和请求体错误
func TestReportAPI_RequestErrors(t *testing.T) {
	s := newTestServer(t)

	rec, _ := s.do(t, http.MethodGet, "/api/v1/reports", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec, env := s.do(t, http.MethodGet, "/api/v1/reports/bad.id", "w1", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, workflow.ReasonValidation, env.Reason)

	rec, env = s.do(t, http.MethodGet, "/api/v1/reports/00000000-0000-0000-0000-000000000000", "w1", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, workflow.ReasonNotFound, env.Reason)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/reports/save", strings.NewReader("{not json"))
	req.Header.Set("Content-Type", "application/json")
	rec, env = s.serve(t, req, "w1")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, workflow.ReasonValidation, env.Reason)

	rec, env = s.do(t, http.MethodPost, "/api/v1/reports/submit", "w1", map[string]interface{}{"title": "내용 없음"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, workflow.ReasonValidation, env.Reason)
}

// TestTemplateAPI 测试模板增删改查和版本
func TestTemplateAPI(t *testing.T) {
	s := newTestServer(t)

	fields := []map[string]interface{}{
		{"key": "destination", "label": "출장지", "kind": "text", "required": true},
		{"key": "period", "label": "기간", "kind": "period", "required": true},
	}
	rec, env := s.do(t, http.MethodPost, "/api/v1/templates", "w1", map[string]interface{}{
		"name":   "출장 보고서",
		"fields": fields,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var tpl service.Template
	require.NoError(t, json.Unmarshal(env.Data, &tpl))
	assert.Equal(t, 1, tpl.Version)

	rec, _ = s.do(t, http.MethodPut, "/api/v1/templates/"+tpl.ID, "w1", map[string]interface{}{
		"description": "국내 출장용",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec, env = s.do(t, http.MethodGet, "/api/v1/templates/"+tpl.ID+"/versions", "w1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var versions []int
	require.NoError(t, json.Unmarshal(env.Data, &versions))
	assert.ElementsMatch(t, []int{1, 2}, versions)

	rec, env = s.do(t, http.MethodGet, "/api/v1/templates/"+tpl.ID+"?version=1", "w1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(env.Data, &tpl))
	assert.Empty(t, tpl.Description)

	rec, _ = s.do(t, http.MethodGet, "/api/v1/templates?search=출장", "w1", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec, _ = s.do(t, http.MethodDelete, "/api/v1/templates/"+tpl.ID, "w1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	rec, _ = s.do(t, http.MethodGet, "/api/v1/templates/"+tpl.ID, "w1", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

// TestHealthAndMetrics 测试健康检查和指标端点
func TestHealthAndMetrics(t *testing.T) {
	s := newTestServer(t)

	rec, _ := s.do(t, http.MethodGet, "/health", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var health map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &health))
	assert.Equal(t, "healthy", health["status"])

	rec, _ = s.do(t, http.MethodGet, "/metrics", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}
