package client

import (
	"time"

	"github.com/kimjiwon0450/Front-HRHub-sub000/internal/workflow"
)

// ReportRequest 保存、提交、预约、更新和重新提交的请求体
type ReportRequest struct {
	workflow.Draft
	ID            string          `json:"id,omitempty"`
	Version       *int64          `json:"version,omitempty"`
	Status        workflow.Status `json:"status,omitempty"`
	ScheduledAt   *time.Time      `json:"scheduledAt,omitempty"`
	ScheduledDate string          `json:"scheduledDate,omitempty"`
	ScheduledTime string          `json:"scheduledTime,omitempty"`
}

// RequestFor 以文档当前内容和版本构造请求
func RequestFor(doc *workflow.ReportDocument) *ReportRequest {
	v := doc.Version
	return &ReportRequest{
		Draft:   workflow.DraftOf(doc),
		ID:      doc.ID,
		Version: &v,
	}
}

// Decision 审批请求
type Decision struct {
	ApprovalStatus workflow.ApprovalStatus `json:"approvalStatus"`
	Comment        string                  `json:"comment,omitempty"`
	Version        *int64                  `json:"version,omitempty"`
}

type versionBody struct {
	Version *int64 `json:"version,omitempty"`
}

// ListOptions 报告列表查询条件
type ListOptions struct {
	Box        string
	Status     workflow.Status
	TemplateID string
	Keyword    string
	Page       int
	PageSize   int
}

// ReportSummary 列表中的报告摘要
type ReportSummary struct {
	ID              string                      `json:"id"`
	Title           string                      `json:"title"`
	Status          workflow.Status             `json:"status"`
	TemplateID      string                      `json:"templateId,omitempty"`
	WriterID        string                      `json:"writerId"`
	WriterName      string                      `json:"writerName"`
	CurrentApprover *workflow.ApprovalLineEntry `json:"currentApprover,omitempty"`
	Version         int64                       `json:"version"`
	ScheduledAt     *time.Time                  `json:"scheduledAt,omitempty"`
	SubmittedAt     *time.Time                  `json:"submittedAt,omitempty"`
	UpdatedAt       time.Time                   `json:"updatedAt"`
}

// Pagination 分页信息
type Pagination struct {
	Page      int   `json:"page"`
	PageSize  int   `json:"page_size"`
	Total     int64 `json:"total"`
	TotalPage int   `json:"total_page"`
}

// ReportPage 一页报告摘要
type ReportPage struct {
	Data       []ReportSummary `json:"data"`
	Pagination Pagination      `json:"pagination"`
}

// StateTransition 状态变更记录
type StateTransition struct {
	ID        string    `json:"id"`
	ReportID  string    `json:"reportId"`
	FromState string    `json:"fromState"`
	ToState   string    `json:"toState"`
	Reason    string    `json:"reason"`
	Operator  string    `json:"operator"`
	CreatedAt time.Time `json:"createdAt"`
}

// Template 报告模板
type Template struct {
	ID          string               `json:"id"`
	Version     int                  `json:"version"`
	Name        string               `json:"name"`
	Description string               `json:"description"`
	Fields      []workflow.FieldSpec `json:"fields"`
	CreatedAt   time.Time            `json:"createdAt"`
	UpdatedAt   time.Time            `json:"updatedAt"`
}

// TemplateInput 创建或更新模板的请求体
type TemplateInput struct {
	Name        string               `json:"name,omitempty"`
	Description string               `json:"description,omitempty"`
	Fields      []workflow.FieldSpec `json:"fields,omitempty"`
}
