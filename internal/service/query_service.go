package service

import (
	"context"
	"fmt"
	"time"

	"github.com/kimjiwon0450/Front-HRHub-sub000/internal/repository"
	"github.com/kimjiwon0450/Front-HRHub-sub000/internal/workflow"
	"gorm.io/gorm"
)

// QueryService 查询服务接口
type QueryService interface {
	ListReports(ctx context.Context, session workflow.Session, filter *ListReportsFilter) (*ReportListResponse, error)
	CountByStatus(ctx context.Context, session workflow.Session) (map[workflow.Status]int64, error)
}

// ListReportsFilter 报告列表查询过滤器
type ListReportsFilter struct {
	Box        string
	Status     *workflow.Status
	TemplateID *string
	Keyword    *string
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
	WriterName      string                      `json:"writerName,omitempty"`
	CurrentApprover *workflow.ApprovalLineEntry `json:"currentApprover,omitempty"`
	Version         int64                       `json:"version"`
	ScheduledAt     *time.Time                  `json:"scheduledAt,omitempty"`
	SubmittedAt     *time.Time                  `json:"submittedAt,omitempty"`
	UpdatedAt       time.Time                   `json:"updatedAt"`
}

// ReportListResponse 报告列表响应
type ReportListResponse struct {
	Data       []*ReportSummary
	Pagination PaginationInfo
}

var boxes = map[string]bool{
	"":                      true,
	repository.BoxDrafts:    true,
	repository.BoxSent:      true,
	repository.BoxScheduled: true,
	repository.BoxInbox:     true,
}

// queryService 查询服务实现
type queryService struct {
	db *gorm.DB
}

// NewQueryService 创建查询服务
func NewQueryService(db *gorm.DB) QueryService {
	return &queryService{db: db}
}

// ListReports 按分类列出调用者相关的报告
func (s *queryService) ListReports(ctx context.Context, session workflow.Session, filter *ListReportsFilter) (*ReportListResponse, error) {
	if session.EmployeeID == "" {
		return nil, &workflow.ForbiddenError{Action: "list", Reason: "no authenticated employee"}
	}
	if filter == nil {
		filter = &ListReportsFilter{}
	}
	if !boxes[filter.Box] {
		return nil, &workflow.ValidationError{Field: "box", Message: fmt.Sprintf("unknown box %q", filter.Box)}
	}
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 20
	}
	if filter.PageSize > 100 {
		filter.PageSize = 100
	}

	repoFilter := &repository.ReportFilter{
		EmployeeID: session.EmployeeID,
		Box:        filter.Box,
		TemplateID: filter.TemplateID,
		Keyword:    filter.Keyword,
		Page:       filter.Page,
		PageSize:   filter.PageSize,
	}
	if filter.Status != nil {
		if !filter.Status.IsValid() {
			return nil, &workflow.ValidationError{Field: "status", Message: fmt.Sprintf("unknown status %q", *filter.Status)}
		}
		status := string(*filter.Status)
		repoFilter.Status = &status
	}

	models, total, err := repository.NewReportRepository(s.db.WithContext(ctx)).List(repoFilter)
	if err != nil {
		return nil, fmt.Errorf("failed to list reports: %w", err)
	}

	summaries := make([]*ReportSummary, 0, len(models))
	for _, m := range models {
		doc := m.ToDocument()
		summary := &ReportSummary{
			ID:          doc.ID,
			Title:       doc.Title,
			Status:      doc.Status,
			TemplateID:  doc.TemplateID,
			WriterID:    doc.WriterID,
			WriterName:  doc.WriterName,
			Version:     doc.Version,
			ScheduledAt: doc.ScheduledAt,
			SubmittedAt: doc.SubmittedAt,
			UpdatedAt:   doc.UpdatedAt,
		}
		if doc.Status == workflow.StatusInProgress {
			if current, ok := workflow.CurrentApprover(doc.ApprovalLine); ok {
				summary.CurrentApprover = &current
			}
		}
		summaries = append(summaries, summary)
	}

	totalPage := int(total) / filter.PageSize
	if int(total)%filter.PageSize > 0 {
		totalPage++
	}

	return &ReportListResponse{
		Data: summaries,
		Pagination: PaginationInfo{
			Page:      filter.Page,
			PageSize:  filter.PageSize,
			Total:     total,
			TotalPage: totalPage,
		},
	}, nil
}

// CountByStatus 统计调用者作为作者的报告数量
func (s *queryService) CountByStatus(ctx context.Context, session workflow.Session) (map[workflow.Status]int64, error) {
	if session.EmployeeID == "" {
		return nil, &workflow.ForbiddenError{Action: "count", Reason: "no authenticated employee"}
	}
	var rows []struct {
		Status string
		Count  int64
	}
	err := s.db.WithContext(ctx).Table("reports").
		Select("status, COUNT(*) AS count").
		Where("writer_id = ?", session.EmployeeID).
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to count reports: %w", err)
	}
	counts := make(map[workflow.Status]int64, len(rows))
	for _, r := range rows {
		counts[workflow.Status(r.Status)] = r.Count
	}
	return counts, nil
}
