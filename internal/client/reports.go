package client

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"github.com/kimjiwon0450/Front-HRHub-sub000/internal/workflow"
)

func reportPath(id string, suffix ...string) string {
	p := apiPrefix + "/reports/" + url.PathEscape(id)
	for _, s := range suffix {
		p += "/" + s
	}
	return p
}

// GetReport 获取报告
func (c *Client) GetReport(ctx context.Context, id string) (*workflow.ReportDocument, error) {
	var doc workflow.ReportDocument
	if err := c.doJSON(ctx, http.MethodGet, reportPath(id), nil, &doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

// History 获取审批历史
func (c *Client) History(ctx context.Context, id string) ([]workflow.HistoryEvent, error) {
	var events []workflow.HistoryEvent
	if err := c.doJSON(ctx, http.MethodGet, reportPath(id, "history"), nil, &events); err != nil {
		return nil, err
	}
	return events, nil
}

// Transitions 获取状态变更记录
func (c *Client) Transitions(ctx context.Context, id string) ([]StateTransition, error) {
	var transitions []StateTransition
	if err := c.doJSON(ctx, http.MethodGet, reportPath(id, "transitions"), nil, &transitions); err != nil {
		return nil, err
	}
	return transitions, nil
}

// SaveDraft 保存草稿,req.ID 为空时新建
func (c *Client) SaveDraft(ctx context.Context, req *ReportRequest, files ...File) (*workflow.ReportDocument, error) {
	return c.edit(ctx, "save", req, files)
}

// Submit 提交审批
func (c *Client) Submit(ctx context.Context, req *ReportRequest, files ...File) (*workflow.ReportDocument, error) {
	return c.edit(ctx, "submit", req, files)
}

// Schedule 预约提交,req 需包含 ScheduledAt 或 ScheduledDate + ScheduledTime
func (c *Client) Schedule(ctx context.Context, req *ReportRequest, files ...File) (*workflow.ReportDocument, error) {
	return c.edit(ctx, "schedule", req, files)
}

func (c *Client) edit(ctx context.Context, action string, req *ReportRequest, files []File) (*workflow.ReportDocument, error) {
	var doc workflow.ReportDocument
	if err := c.doMultipart(ctx, apiPrefix+"/reports/"+action, req, files, &doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

// Update 更新 DRAFT/RECALLED 报告,req.Status 选择保存或提交
func (c *Client) Update(ctx context.Context, id string, req *ReportRequest) (*workflow.ReportDocument, error) {
	var doc workflow.ReportDocument
	if err := c.doJSON(ctx, http.MethodPut, reportPath(id), req, &doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

// Resubmit 驳回后重新提交
func (c *Client) Resubmit(ctx context.Context, id string, req *ReportRequest) (*workflow.ReportDocument, error) {
	var doc workflow.ReportDocument
	if err := c.doJSON(ctx, http.MethodPost, reportPath(id, "resubmit"), req, &doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

// Recall 撤回,version 为 nil 时不做版本校验
func (c *Client) Recall(ctx context.Context, id string, version *int64) (*workflow.ReportDocument, error) {
	var doc workflow.ReportDocument
	if err := c.doJSON(ctx, http.MethodPost, reportPath(id, "recall"), versionBody{Version: version}, &doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

// CancelSchedule 取消预约
func (c *Client) CancelSchedule(ctx context.Context, id string, version *int64) (*workflow.ReportDocument, error) {
	var doc workflow.ReportDocument
	if err := c.doJSON(ctx, http.MethodPost, reportPath(id, "schedule", "cancel"), versionBody{Version: version}, &doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

// Decide 审批
func (c *Client) Decide(ctx context.Context, id string, d Decision) (*workflow.ReportDocument, error) {
	var doc workflow.ReportDocument
	if err := c.doJSON(ctx, http.MethodPost, reportPath(id, "approvals"), d, &doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

// ListReports 分页列出报告
func (c *Client) ListReports(ctx context.Context, opts ListOptions) (*ReportPage, error) {
	q := url.Values{}
	if opts.Box != "" {
		q.Set("box", opts.Box)
	}
	if opts.Status != "" {
		q.Set("status", string(opts.Status))
	}
	if opts.TemplateID != "" {
		q.Set("template_id", opts.TemplateID)
	}
	if opts.Keyword != "" {
		q.Set("keyword", opts.Keyword)
	}
	if opts.Page > 0 {
		q.Set("page", strconv.Itoa(opts.Page))
	}
	if opts.PageSize > 0 {
		q.Set("page_size", strconv.Itoa(opts.PageSize))
	}
	path := apiPrefix + "/reports"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}

	var page ReportPage
	if err := c.doPage(ctx, path, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// Counts 调用者各状态的报告数量
func (c *Client) Counts(ctx context.Context) (map[workflow.Status]int64, error) {
	counts := make(map[workflow.Status]int64)
	if err := c.doJSON(ctx, http.MethodGet, apiPrefix+"/me/report-counts", nil, &counts); err != nil {
		return nil, err
	}
	return counts, nil
}

// DownloadAttachment 把附件内容写入 w,返回写入的字节数
func (c *Client) DownloadAttachment(ctx context.Context, attachment workflow.Attachment, w io.Writer) (int64, error) {
	req, err := c.newRequest(ctx, http.MethodGet, attachment.URL, nil)
	if err != nil {
		return 0, err
	}
	resp, err := c.send(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		body, _ := io.ReadAll(resp.Body)
		return 0, decodeError(resp.StatusCode, body, "")
	}
	n, err := io.Copy(w, resp.Body)
	if err != nil {
		return n, &workflow.NetworkError{StatusCode: resp.StatusCode, Message: fmt.Sprintf("failed to download %s", attachment.Name), Err: err}
	}
	return n, nil
}
