package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/kimjiwon0450/Front-HRHub-sub000/internal/auth"
	"github.com/kimjiwon0450/Front-HRHub-sub000/internal/service"
	"github.com/kimjiwon0450/Front-HRHub-sub000/internal/utils"
	"github.com/kimjiwon0450/Front-HRHub-sub000/internal/workflow"
)

const (
	// FormMetadata multipart 请求中的报告 JSON 字段
	FormMetadata = "metadata"
	// FormFiles multipart 请求中的附件字段
	FormFiles = "files"
)

// ReportController 报告控制器
type ReportController struct {
	reportService service.ReportService
	queryService  service.QueryService
	maxUploadSize int64
}

// NewReportController 创建报告控制器
func NewReportController(reportService service.ReportService, queryService service.QueryService, maxUploadSize int64) *ReportController {
	if maxUploadSize <= 0 {
		maxUploadSize = 32 << 20
	}
	return &ReportController{
		reportService: reportService,
		queryService:  queryService,
		maxUploadSize: maxUploadSize,
	}
}

// ListReportsQuery 报告列表查询参数
type ListReportsQuery struct {
	Box        string `form:"box"`
	Status     string `form:"status"`
	TemplateID string `form:"template_id"`
	Keyword    string `form:"keyword"`
	Page       int    `form:"page"`
	PageSize   int    `form:"page_size"`
}

// session 取出调用者身份,没有时返回 401
func session(ctx *gin.Context) (workflow.Session, bool) {
	s, ok := auth.SessionFromContext(ctx)
	if !ok || s.EmployeeID == "" {
		Error(ctx, http.StatusUnauthorized, "authentication required", "")
		return workflow.Session{}, false
	}
	return s, true
}

// reportID 读取并校验路径中的报告 ID
func reportID(ctx *gin.Context) (string, bool) {
	id := ctx.Param("id")
	if err := utils.ValidateID(id); err != nil {
		ErrorWithReason(ctx, http.StatusBadRequest, "invalid report id", err.Error(), workflow.ReasonValidation)
		return "", false
	}
	return id, true
}

// List 列出报告
// @Summary      按分类分页列出报告
// @Tags         报告
// @Produce      json
// @Param        box query string false "分类" Enums(drafts, sent, inbox, scheduled)
// @Param        status query string false "状态"
// @Param        page query int false "页码" default(1)
// @Param        page_size query int false "每页数量" default(20)
// @Success      200  {object}  PaginatedResponse
// @Router       /reports [get]
// @Security     BearerAuth
func (c *ReportController) List(ctx *gin.Context) {
	caller, ok := session(ctx)
	if !ok {
		return
	}
	var q ListReportsQuery
	if err := ctx.ShouldBindQuery(&q); err != nil {
		ErrorWithReason(ctx, http.StatusBadRequest, "invalid query parameters", err.Error(), workflow.ReasonValidation)
		return
	}

	filter := &service.ListReportsFilter{Box: q.Box, Page: q.Page, PageSize: q.PageSize}
	if q.Status != "" {
		status := workflow.Status(strings.ToUpper(q.Status))
		filter.Status = &status
	}
	if q.TemplateID != "" {
		filter.TemplateID = &q.TemplateID
	}
	if q.Keyword != "" {
		filter.Keyword = &q.Keyword
	}

	response, err := c.queryService.ListReports(ctx, caller, filter)
	if err != nil {
		RespondError(ctx, err)
		return
	}

	Paginated(ctx, response.Data, PaginationInfo{
		Page:      response.Pagination.Page,
		PageSize:  response.Pagination.PageSize,
		Total:     response.Pagination.Total,
		TotalPage: response.Pagination.TotalPage,
	})
}

// Counts 统计调用者各状态的报告数量
// @Summary      我的报告数量
// @Tags         报告
// @Produce      json
// @Success      200  {object}  Response
// @Router       /me/report-counts [get]
// @Security     BearerAuth
func (c *ReportController) Counts(ctx *gin.Context) {
	caller, ok := session(ctx)
	if !ok {
		return
	}
	counts, err := c.queryService.CountByStatus(ctx, caller)
	if err != nil {
		RespondError(ctx, err)
		return
	}
	Success(ctx, counts)
}

// Get 获取报告
// @Summary      获取报告
// @Tags         报告
// @Produce      json
// @Param        id path string true "报告 ID"
// @Success      200  {object}  Response
// @Failure      403  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Router       /reports/{id} [get]
// @Security     BearerAuth
func (c *ReportController) Get(ctx *gin.Context) {
	caller, ok := session(ctx)
	if !ok {
		return
	}
	id, ok := reportID(ctx)
	if !ok {
		return
	}

	doc, err := c.reportService.Get(ctx, caller, id)
	if err != nil {
		RespondError(ctx, err)
		return
	}
	Success(ctx, doc)
}

// History 获取审批历史
// @Summary      获取审批历史
// @Tags         报告
// @Produce      json
// @Param        id path string true "报告 ID"
// @Success      200  {object}  Response
// @Router       /reports/{id}/history [get]
// @Security     BearerAuth
func (c *ReportController) History(ctx *gin.Context) {
	caller, ok := session(ctx)
	if !ok {
		return
	}
	id, ok := reportID(ctx)
	if !ok {
		return
	}

	history, err := c.reportService.History(ctx, caller, id)
	if err != nil {
		RespondError(ctx, err)
		return
	}
	Success(ctx, history)
}

// Transitions 获取状态变更记录
// @Summary      获取状态变更记录
// @Tags         报告
// @Produce      json
// @Param        id path string true "报告 ID"
// @Success      200  {object}  Response
// @Router       /reports/{id}/transitions [get]
// @Security     BearerAuth
func (c *ReportController) Transitions(ctx *gin.Context) {
	caller, ok := session(ctx)
	if !ok {
		return
	}
	id, ok := reportID(ctx)
	if !ok {
		return
	}

	transitions, err := c.reportService.Transitions(ctx, caller, id)
	if err != nil {
		RespondError(ctx, err)
		return
	}
	Success(ctx, transitions)
}

// SaveDraft 保存草稿
// @Summary      保存草稿（metadata JSON + files）
// @Tags         报告
// @Accept       multipart/form-data
// @Produce      json
// @Success      200  {object}  Response
// @Failure      400  {object}  ErrorResponse
// @Router       /reports/save [post]
// @Security     BearerAuth
func (c *ReportController) SaveDraft(ctx *gin.Context) {
	c.edit(ctx, c.reportService.SaveDraft)
}

// Submit 提交审批
// @Summary      提交审批（metadata JSON + files）
// @Tags         报告
// @Accept       multipart/form-data
// @Produce      json
// @Success      200  {object}  Response
// @Failure      400  {object}  ErrorResponse
// @Router       /reports/submit [post]
// @Security     BearerAuth
func (c *ReportController) Submit(ctx *gin.Context) {
	c.edit(ctx, c.reportService.Submit)
}

// Schedule 预约提交
// @Summary      预约提交（metadata 中包含 scheduledAt 或 scheduledDate + scheduledTime）
// @Tags         报告
// @Accept       multipart/form-data
// @Produce      json
// @Success      200  {object}  Response
// @Failure      400  {object}  ErrorResponse
// @Router       /reports/schedule [post]
// @Security     BearerAuth
func (c *ReportController) Schedule(ctx *gin.Context) {
	c.edit(ctx, c.reportService.Schedule)
}

type editFunc func(ctx context.Context, session workflow.Session, req *service.ReportRequest, uploads []*service.Upload) (*workflow.ReportDocument, error)

// edit 解析 multipart 或 JSON 请求后调用保存/提交/预约
func (c *ReportController) edit(ctx *gin.Context, fn editFunc) {
	caller, ok := session(ctx)
	if !ok {
		return
	}

	req, uploads, closeFiles, err := c.parseEditRequest(ctx)
	if err != nil {
		ErrorWithReason(ctx, http.StatusBadRequest, "invalid request", err.Error(), workflow.ReasonValidation)
		return
	}
	defer closeFiles()

	if req.ID != "" {
		if err := utils.ValidateID(req.ID); err != nil {
			ErrorWithReason(ctx, http.StatusBadRequest, "invalid report id", err.Error(), workflow.ReasonValidation)
			return
		}
	}

	doc, err := fn(ctx, caller, req, uploads)
	if err != nil {
		RespondError(ctx, err)
		return
	}
	Success(ctx, doc)
}

// parseEditRequest multipart 请求读取 metadata 和 files,其余按 JSON 解析
func (c *ReportController) parseEditRequest(ctx *gin.Context) (*service.ReportRequest, []*service.Upload, func(), error) {
	noop := func() {}
	var req service.ReportRequest

	mediaType, _, _ := mime.ParseMediaType(ctx.ContentType())
	if mediaType != "multipart/form-data" {
		if err := ctx.ShouldBindJSON(&req); err != nil {
			return nil, nil, noop, err
		}
		return &req, nil, noop, nil
	}

	ctx.Request.Body = http.MaxBytesReader(ctx.Writer, ctx.Request.Body, c.maxUploadSize)
	form, err := ctx.MultipartForm()
	if err != nil {
		return nil, nil, noop, fmt.Errorf("failed to parse multipart form: %w", err)
	}

	metadata := form.Value[FormMetadata]
	if len(metadata) == 0 {
		return nil, nil, noop, errors.New("missing " + FormMetadata + " field")
	}
	if err := json.Unmarshal([]byte(metadata[0]), &req); err != nil {
		return nil, nil, noop, fmt.Errorf("invalid %s: %w", FormMetadata, err)
	}

	var files []multipart.File
	closeFiles := func() {
		for _, f := range files {
			f.Close()
		}
	}
	uploads := make([]*service.Upload, 0, len(form.File[FormFiles]))
	for _, header := range form.File[FormFiles] {
		f, err := header.Open()
		if err != nil {
			closeFiles()
			return nil, nil, noop, fmt.Errorf("failed to open %s: %w", header.Filename, err)
		}
		files = append(files, f)
		contentType := header.Header.Get("Content-Type")
		if contentType == "" {
			contentType = "application/octet-stream"
		}
		uploads = append(uploads, &service.Upload{
			Name:        header.Filename,
			ContentType: contentType,
			Size:        header.Size,
			Reader:      f,
		})
	}
	return &req, uploads, closeFiles, nil
}

// Update 更新报告
// @Summary      更新 DRAFT/RECALLED 报告,status 为 DRAFT 保存、IN_PROGRESS 提交
// @Tags         报告
// @Accept       json
// @Produce      json
// @Param        id path string true "报告 ID"
// @Param        request body service.ReportRequest true "报告内容"
// @Success      200  {object}  Response
// @Failure      409  {object}  ErrorResponse
// @Router       /reports/{id} [put]
// @Security     BearerAuth
func (c *ReportController) Update(ctx *gin.Context) {
	caller, ok := session(ctx)
	if !ok {
		return
	}
	id, ok := reportID(ctx)
	if !ok {
		return
	}
	var req service.ReportRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ErrorWithReason(ctx, http.StatusBadRequest, "invalid request", err.Error(), workflow.ReasonValidation)
		return
	}

	doc, err := c.reportService.Update(ctx, caller, id, &req)
	if err != nil {
		RespondError(ctx, err)
		return
	}
	Success(ctx, doc)
}

// Resubmit 重新提交
// @Summary      驳回后重新提交
// @Tags         报告
// @Accept       json
// @Produce      json
// @Param        id path string true "报告 ID"
// @Success      200  {object}  Response
// @Failure      422  {object}  ErrorResponse
// @Router       /reports/{id}/resubmit [post]
// @Security     BearerAuth
func (c *ReportController) Resubmit(ctx *gin.Context) {
	caller, ok := session(ctx)
	if !ok {
		return
	}
	id, ok := reportID(ctx)
	if !ok {
		return
	}
	var req service.ReportRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ErrorWithReason(ctx, http.StatusBadRequest, "invalid request", err.Error(), workflow.ReasonValidation)
		return
	}

	doc, err := c.reportService.Resubmit(ctx, caller, id, &req)
	if err != nil {
		RespondError(ctx, err)
		return
	}
	Success(ctx, doc)
}

// Recall 撤回
// @Summary      撤回进行中的审批
// @Tags         报告
// @Accept       json
// @Produce      json
// @Param        id path string true "报告 ID"
// @Success      200  {object}  Response
// @Failure      403  {object}  ErrorResponse
// @Router       /reports/{id}/recall [post]
// @Security     BearerAuth
func (c *ReportController) Recall(ctx *gin.Context) {
	c.versioned(ctx, c.reportService.Recall)
}

// CancelSchedule 取消预约
// @Summary      取消预约,回到草稿
// @Tags         报告
// @Accept       json
// @Produce      json
// @Param        id path string true "报告 ID"
// @Success      200  {object}  Response
// @Router       /reports/{id}/schedule/cancel [post]
// @Security     BearerAuth
func (c *ReportController) CancelSchedule(ctx *gin.Context) {
	c.versioned(ctx, c.reportService.CancelSchedule)
}

type versionedFunc func(ctx context.Context, session workflow.Session, id string, version *int64) (*workflow.ReportDocument, error)

// versioned 请求体只有可选的 version
func (c *ReportController) versioned(ctx *gin.Context, fn versionedFunc) {
	caller, ok := session(ctx)
	if !ok {
		return
	}
	id, ok := reportID(ctx)
	if !ok {
		return
	}
	var req service.VersionRequest
	if err := bindOptionalJSON(ctx, &req); err != nil {
		ErrorWithReason(ctx, http.StatusBadRequest, "invalid request", err.Error(), workflow.ReasonValidation)
		return
	}

	doc, err := fn(ctx, caller, id, req.Version)
	if err != nil {
		RespondError(ctx, err)
		return
	}
	Success(ctx, doc)
}

// Decide 审批
// @Summary      当前审批人同意或驳回
// @Tags         报告
// @Accept       json
// @Produce      json
// @Param        id path string true "报告 ID"
// @Param        request body service.DecisionRequest true "审批结果"
// @Success      200  {object}  Response
// @Failure      403  {object}  ErrorResponse
// @Failure      409  {object}  ErrorResponse
// @Router       /reports/{id}/approvals [post]
// @Security     BearerAuth
func (c *ReportController) Decide(ctx *gin.Context) {
	caller, ok := session(ctx)
	if !ok {
		return
	}
	id, ok := reportID(ctx)
	if !ok {
		return
	}
	var req service.DecisionRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ErrorWithReason(ctx, http.StatusBadRequest, "invalid request", err.Error(), workflow.ReasonValidation)
		return
	}
	req.ApprovalStatus = workflow.ApprovalStatus(strings.ToUpper(string(req.ApprovalStatus)))

	doc, err := c.reportService.Decide(ctx, caller, id, &req)
	if err != nil {
		RespondError(ctx, err)
		return
	}
	Success(ctx, doc)
}

// DownloadAttachment 下载附件
// @Summary      下载附件
// @Tags         报告
// @Produce      octet-stream
// @Param        id path string true "附件 ID"
// @Success      200
// @Failure      404  {object}  ErrorResponse
// @Router       /attachments/{id} [get]
// @Security     BearerAuth
func (c *ReportController) DownloadAttachment(ctx *gin.Context) {
	caller, ok := session(ctx)
	if !ok {
		return
	}
	id := ctx.Param("id")
	if err := utils.ValidateID(id); err != nil {
		ErrorWithReason(ctx, http.StatusBadRequest, "invalid attachment id", err.Error(), workflow.ReasonValidation)
		return
	}

	rc, attachment, err := c.reportService.OpenAttachment(ctx, caller, id)
	if err != nil {
		RespondError(ctx, err)
		return
	}
	defer rc.Close()

	contentType := attachment.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	disposition := mime.FormatMediaType("attachment", map[string]string{"filename": attachment.Name})
	ctx.DataFromReader(http.StatusOK, attachment.Size, contentType, rc, map[string]string{
		"Content-Disposition": disposition,
	})
}

// bindOptionalJSON 请求体可以为空
func bindOptionalJSON(ctx *gin.Context, obj interface{}) error {
	if ctx.Request.Body == nil || ctx.Request.ContentLength == 0 {
		return nil
	}
	if err := json.NewDecoder(ctx.Request.Body).Decode(obj); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}
