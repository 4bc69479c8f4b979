package client_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/kimjiwon0450/Front-HRHub-sub000/internal/client"
	"github.com/kimjiwon0450/Front-HRHub-sub000/internal/config"
	"github.com/kimjiwon0450/Front-HRHub-sub000/internal/workflow"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newClient(t *testing.T, handler http.HandlerFunc) *client.Client {
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return client.New(config.ClientConfig{BaseURL: srv.URL},
		client.WithSession(workflow.Session{EmployeeID: "w1", Name: "김작성"}),
		client.WithLogger(logger),
	)
}

func writeError(w http.ResponseWriter, status int, message, reason string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"code":    status,
		"message": message,
		"reason":  reason,
	})
}

// TestClient_RetryCeilingLimit 测试重新提交上限取自服务端消息
func TestClient_RetryCeilingLimit(t *testing.T) {
	server := &workflow.RetryCeilingExceededError{Count: 5, Limit: 5}
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusUnprocessableEntity, server.Error(), workflow.ReasonRetryCeiling)
	})
	_, err := c.GetReport(context.Background(), "r1")
	var ceiling *workflow.RetryCeilingExceededError
	require.True(t, errors.As(err, &ceiling))
	assert.Equal(t, 5, ceiling.Count)
	assert.Equal(t, 5, ceiling.Limit)
	assert.Equal(t, server.Error(), err.Error())
}

// TestClient_ErrorMapping 测试错误响应还原为工作流错误并原样保留 message
func TestClient_ErrorMapping(t *testing.T) {
	tests := []struct {
		name   string
		status int
		reason string
		check  func(t *testing.T, err error)
	}{
		{"validation", http.StatusBadRequest, workflow.ReasonValidation, func(t *testing.T, err error) {
			assert.True(t, workflow.IsValidation(err))
		}},
		{"forbidden", http.StatusForbidden, workflow.ReasonForbidden, func(t *testing.T, err error) {
			assert.True(t, workflow.IsForbidden(err))
		}},
		{"already resolved", http.StatusConflict, workflow.ReasonAlreadyResolved, func(t *testing.T, err error) {
			var resolved *workflow.AlreadyResolvedError
			assert.True(t, errors.As(err, &resolved))
			assert.True(t, workflow.IsConflict(err))
		}},
		{"version conflict", http.StatusConflict, workflow.ReasonVersionConflict, func(t *testing.T, err error) {
			var conflict *workflow.ConflictError
			require.True(t, errors.As(err, &conflict))
			assert.Equal(t, "r1", conflict.ReportID)
		}},
		{"retry ceiling", http.StatusUnprocessableEntity, workflow.ReasonRetryCeiling, func(t *testing.T, err error) {
			var ceiling *workflow.RetryCeilingExceededError
			require.True(t, errors.As(err, &ceiling))
			assert.Zero(t, ceiling.Limit)
		}},
		{"illegal transition", http.StatusConflict, workflow.ReasonIllegalTransition, func(t *testing.T, err error) {
			var illegal *workflow.IllegalTransitionError
			assert.True(t, errors.As(err, &illegal))
		}},
		{"not found without reason", http.StatusNotFound, "", func(t *testing.T, err error) {
			assert.True(t, workflow.IsNotFound(err))
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
				writeError(w, tt.status, "결재 처리 중 오류가 발생했습니다", tt.reason)
			})
			_, err := c.GetReport(context.Background(), "r1")
			require.Error(t, err)
			assert.Equal(t, "결재 처리 중 오류가 발생했습니다", err.Error())

			var respErr *client.ResponseError
			require.True(t, errors.As(err, &respErr))
			assert.Equal(t, tt.status, respErr.StatusCode)
			tt.check(t, err)
		})
	}
}

// TestClient_NetworkErrors 测试 5xx 和传输失败返回 NetworkError
func TestClient_NetworkErrors(t *testing.T) {
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusServiceUnavailable, "maintenance", "")
	})
	_, err := c.GetReport(context.Background(), "r1")
	var netErr *workflow.NetworkError
	require.True(t, errors.As(err, &netErr))
	assert.Equal(t, http.StatusServiceUnavailable, netErr.StatusCode)

	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()
	dead := client.New(config.ClientConfig{BaseURL: srv.URL})
	_, err = dead.History(context.Background(), "r1")
	require.True(t, errors.As(err, &netErr))
	assert.Zero(t, netErr.StatusCode)
	assert.NotNil(t, netErr.Unwrap())
}

// TestClient_Requests 测试请求头、multipart 正文和响应解析
func TestClient_Requests(t *testing.T) {
	var seen *http.Request
	var metadata client.ReportRequest
	var fileBody string
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		seen = r
		if r.URL.Path == "/api/v1/reports/save" {
			assert.NoError(t, r.ParseMultipartForm(1<<20))
			assert.NoError(t, json.Unmarshal([]byte(r.FormValue("metadata")), &metadata))
			if f, _, err := r.FormFile("files"); assert.NoError(t, err) {
				data, _ := io.ReadAll(f)
				fileBody = string(data)
			}
		}
		if r.URL.Path == "/api/v1/reports" {
			_ = json.NewEncoder(w).Encode(map[string]interface{}{
				"code":       0,
				"data":       []client.ReportSummary{},
				"pagination": client.Pagination{Page: 2, PageSize: 20},
			})
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"code":    0,
			"message": "success",
			"data":    workflow.ReportDocument{ID: "r1", Title: "주간 보고", Status: workflow.StatusDraft, Version: 1},
		})
	})

	doc, err := c.SaveDraft(context.Background(), &client.ReportRequest{
		Draft: workflow.Draft{Title: "주간 보고", Content: workflow.TextContent("<p>진행 현황</p>")},
	}, client.File{Name: "memo.txt", Reader: strings.NewReader("첨부 내용")})
	require.NoError(t, err)
	assert.Equal(t, "r1", doc.ID)
	assert.Equal(t, int64(1), doc.Version)
	assert.Equal(t, "w1", seen.Header.Get("X-Employee-ID"))
	assert.Equal(t, "주간 보고", metadata.Title)
	assert.Equal(t, "첨부 내용", fileBody)

	v := int64(3)
	_, err = c.Recall(context.Background(), "r1", &v)
	require.NoError(t, err)
	assert.Equal(t, "/api/v1/reports/r1/recall", seen.URL.Path)
	assert.Equal(t, http.MethodPost, seen.Method)

	page, err := c.ListReports(context.Background(), client.ListOptions{Box: "inbox", Status: workflow.StatusInProgress, Page: 2})
	require.NoError(t, err)
	assert.Equal(t, 2, page.Pagination.Page)
	assert.Equal(t, "inbox", seen.URL.Query().Get("box"))
	assert.Equal(t, "IN_PROGRESS", seen.URL.Query().Get("status"))
	assert.Equal(t, "2", seen.URL.Query().Get("page"))
}
