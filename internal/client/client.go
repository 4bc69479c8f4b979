package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
	"time"

	"github.com/kimjiwon0450/Front-HRHub-sub000/internal/config"
	"github.com/kimjiwon0450/Front-HRHub-sub000/internal/workflow"
	"github.com/sirupsen/logrus"
)

const (
	// apiPrefix 服务端 API 前缀
	apiPrefix = "/api/v1"

	headerEmployeeID   = "X-Employee-ID"
	headerEmployeeName = "X-Employee-Name"
	headerRequestID    = "X-Request-ID"
)

// Client 报告存储客户端,对应服务端 /api/v1 的每个操作
type Client struct {
	baseURL    string
	token      string
	session    workflow.Session
	httpClient *http.Client
	logger     logrus.FieldLogger
}

// Option 客户端选项
type Option func(*Client)

// WithHTTPClient 使用自定义 http.Client（测试中指向 httptest 服务）
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithSession header 认证模式下以该员工身份发送请求
func WithSession(s workflow.Session) Option {
	return func(c *Client) {
		c.session = s
	}
}

// WithToken 使用 Bearer token
func WithToken(token string) Option {
	return func(c *Client) {
		c.token = token
	}
}

// WithLogger 设置日志
func WithLogger(logger logrus.FieldLogger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// New 创建客户端
func New(cfg config.ClientConfig, opts ...Option) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	c := &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		token:   cfg.Token,
		session: workflow.Session{EmployeeID: cfg.EmployeeID, Name: cfg.Name},
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Session 当前调用者身份
func (c *Client) Session() workflow.Session {
	return c.session
}

// envelope 服务端统一响应
type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Detail  string          `json:"detail"`
	Reason  string          `json:"reason"`
	Data    json.RawMessage `json:"data"`
}

// File 随请求上传的附件
type File struct {
	Name        string
	ContentType string
	Reader      io.Reader
}

// doJSON 发送 JSON 请求并把 data 解析到 result
func (c *Client) doJSON(ctx context.Context, method, path string, body, result interface{}) error {
	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}
	req, err := c.newRequest(ctx, method, path, bodyReader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return c.do(req, path, result)
}

// doMultipart 以 metadata JSON + files 发送请求
func (c *Client) doMultipart(ctx context.Context, path string, metadata interface{}, files []File, result interface{}) error {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	data, err := json.Marshal(metadata)
	if err != nil {
		return fmt.Errorf("failed to encode metadata: %w", err)
	}
	if err := w.WriteField("metadata", string(data)); err != nil {
		return fmt.Errorf("failed to write metadata: %w", err)
	}
	for _, f := range files {
		contentType := f.ContentType
		if contentType == "" {
			contentType = "application/octet-stream"
		}
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="files"; filename=%q`, f.Name))
		h.Set("Content-Type", contentType)
		part, err := w.CreatePart(h)
		if err != nil {
			return fmt.Errorf("failed to create part for %s: %w", f.Name, err)
		}
		if _, err := io.Copy(part, f.Reader); err != nil {
			return fmt.Errorf("failed to read %s: %w", f.Name, err)
		}
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("failed to finish multipart body: %w", err)
	}

	req, err := c.newRequest(ctx, http.MethodPost, path, &buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", w.FormDataContentType())
	return c.do(req, path, result)
}

func (c *Client) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	url := path
	if !strings.HasPrefix(path, "http://") && !strings.HasPrefix(path, "https://") {
		url = c.baseURL + path
	}
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	if c.session.EmployeeID != "" {
		req.Header.Set(headerEmployeeID, c.session.EmployeeID)
		if c.session.Name != "" {
			req.Header.Set(headerEmployeeName, c.session.Name)
		}
	}
	return req, nil
}

// send 发送请求,传输失败转为 NetworkError
func (c *Client) send(req *http.Request) (*http.Response, error) {
	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.WithFields(logrus.Fields{
			"method": req.Method,
			"path":   req.URL.Path,
		}).WithError(err).Warn("request failed")
		return nil, &workflow.NetworkError{Err: err}
	}
	c.logger.WithFields(logrus.Fields{
		"method":     req.Method,
		"path":       req.URL.Path,
		"status":     resp.StatusCode,
		"latency_ms": time.Since(start).Milliseconds(),
		"request_id": resp.Header.Get(headerRequestID),
	}).Debug("request completed")
	return resp, nil
}

func (c *Client) do(req *http.Request, path string, result interface{}) error {
	body, status, err := c.exchange(req, path)
	if err != nil {
		return err
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return &workflow.NetworkError{StatusCode: status, Message: "malformed response", Err: err}
	}
	if result == nil || len(env.Data) == 0 || string(env.Data) == "null" {
		return nil
	}
	if err := json.Unmarshal(env.Data, result); err != nil {
		return &workflow.NetworkError{StatusCode: status, Message: "malformed response data", Err: err}
	}
	return nil
}

// doPage 分页响应的 data 和 pagination 在同一层
func (c *Client) doPage(ctx context.Context, path string, result interface{}) error {
	req, err := c.newRequest(ctx, http.MethodGet, path, nil)
	if err != nil {
		return err
	}
	body, status, err := c.exchange(req, path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, result); err != nil {
		return &workflow.NetworkError{StatusCode: status, Message: "malformed response", Err: err}
	}
	return nil
}

// exchange 发送请求并读取响应体,非 2xx 转为工作流错误
func (c *Client) exchange(req *http.Request, path string) ([]byte, int, error) {
	resp, err := c.send(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, &workflow.NetworkError{StatusCode: resp.StatusCode, Err: err}
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return nil, resp.StatusCode, decodeError(resp.StatusCode, body, resourceID(path))
	}
	return body, resp.StatusCode, nil
}

// resourceID 取路径中 /reports/ 之后的 ID,用于错误信息
func resourceID(path string) string {
	const marker = "/reports/"
	i := strings.Index(path, marker)
	if i < 0 {
		return ""
	}
	rest := path[i+len(marker):]
	if j := strings.IndexAny(rest, "/?"); j >= 0 {
		rest = rest[:j]
	}
	return rest
}
