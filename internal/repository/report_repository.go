package repository

import (
	"time"

	"github.com/google/uuid"
	"github.com/kimjiwon0450/Front-HRHub-sub000/internal/model"
	"github.com/kimjiwon0450/Front-HRHub-sub000/internal/utils"
	"github.com/kimjiwon0450/Front-HRHub-sub000/internal/workflow"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// 列表分类
const (
	BoxDrafts    = "drafts"    // 我的草稿（DRAFT、RECALLED）
	BoxSent      = "sent"      // 我提交的（IN_PROGRESS、APPROVED、REJECTED）
	BoxScheduled = "scheduled" // 我预约的（SCHEDULED）
	BoxInbox     = "inbox"     // 轮到我审批的
)

// ReportRepository 报告仓储接口
type ReportRepository interface {
	Create(report *model.ReportModel, line []workflow.ApprovalLineEntry) error
	FindByID(id string) (*model.ReportModel, error)
	UpdateWithVersion(report *model.ReportModel, expected int64) error
	ReplaceLine(reportID string, line []workflow.ApprovalLineEntry) error
	List(filter *ReportFilter) ([]*model.ReportModel, int64, error)
	FindDueScheduled(now time.Time, limit int) ([]*model.ReportModel, error)
}

// ReportFilter 报告查询过滤器
type ReportFilter struct {
	EmployeeID string
	Box        string
	Status     *string
	TemplateID *string
	Keyword    *string
	Page       int
	PageSize   int
}

// reportRepository 报告仓储实现
type reportRepository struct {
	db *gorm.DB
}

// NewReportRepository 创建报告仓储
func NewReportRepository(db *gorm.DB) ReportRepository {
	return &reportRepository{db: db}
}

// Create 新建报告及其审批线
func (r *reportRepository) Create(report *model.ReportModel, line []workflow.ApprovalLineEntry) error {
	if err := report.Validate(); err != nil {
		return err
	}
	if err := r.db.Omit(clause.Associations).Create(report).Error; err != nil {
		return err
	}
	return r.ReplaceLine(report.ID, line)
}

// FindByID 根据 ID 查找报告,预加载审批线和附件
func (r *reportRepository) FindByID(id string) (*model.ReportModel, error) {
	var report model.ReportModel
	err := r.db.
		Preload("ApprovalLine", func(db *gorm.DB) *gorm.DB {
			return db.Order("sequence_position ASC")
		}).
		Preload("Attachments", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC")
		}).
		Where("id = ?", id).
		First(&report).Error
	if err != nil {
		return nil, err
	}
	return &report, nil
}

// UpdateWithVersion 按版本号更新报告,版本不匹配返回 ConflictError
// 成功后 report.Version 为新版本
func (r *reportRepository) UpdateWithVersion(report *model.ReportModel, expected int64) error {
	if err := report.Validate(); err != nil {
		return err
	}
	next := expected + 1
	result := r.db.Model(&model.ReportModel{}).
		Where("id = ? AND version = ?", report.ID, expected).
		Select("title", "content", "template_id", "status", "writer_name", "reference_list",
			"scheduled_at", "version", "cycle", "updated_at", "submitted_at").
		Updates(map[string]interface{}{
			"title":          report.Title,
			"content":        report.Content,
			"template_id":    report.TemplateID,
			"status":         report.Status,
			"writer_name":    report.WriterName,
			"reference_list": report.References,
			"scheduled_at":   report.ScheduledAt,
			"version":        next,
			"cycle":          report.Cycle,
			"updated_at":     report.UpdatedAt,
			"submitted_at":   report.SubmittedAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return &workflow.ConflictError{ReportID: report.ID, Expected: expected}
	}
	report.Version = next
	return nil
}

// ReplaceLine 整体替换审批线
func (r *reportRepository) ReplaceLine(reportID string, line []workflow.ApprovalLineEntry) error {
	if err := r.db.Where("report_id = ?", reportID).Delete(&model.ApprovalLineModel{}).Error; err != nil {
		return err
	}
	if len(line) == 0 {
		return nil
	}
	rows := make([]model.ApprovalLineModel, 0, len(line))
	for _, e := range line {
		row := model.NewApprovalLineModel(uuid.New().String(), reportID, e)
		if err := row.Validate(); err != nil {
			return err
		}
		rows = append(rows, row)
	}
	return r.db.Create(&rows).Error
}

// List 按分类分页查询报告
func (r *reportRepository) List(filter *ReportFilter) ([]*model.ReportModel, int64, error) {
	query := r.db.Model(&model.ReportModel{})

	if filter != nil {
		switch filter.Box {
		case BoxDrafts:
			query = query.Where("writer_id = ? AND status IN ?", filter.EmployeeID,
				[]string{string(workflow.StatusDraft), string(workflow.StatusRecalled)})
		case BoxSent:
			query = query.Where("writer_id = ? AND status IN ?", filter.EmployeeID,
				[]string{string(workflow.StatusInProgress), string(workflow.StatusApproved), string(workflow.StatusRejected)})
		case BoxScheduled:
			query = query.Where("writer_id = ? AND status = ?", filter.EmployeeID, string(workflow.StatusScheduled))
		case BoxInbox:
			// 当前审批人：PENDING 且之前的条目全部 APPROVED
			query = query.Where("status = ?", string(workflow.StatusInProgress)).
				Where(`id IN (SELECT al.report_id FROM approval_lines al
					WHERE al.employee_id = ? AND al.approval_status = ?
					AND NOT EXISTS (SELECT 1 FROM approval_lines p
						WHERE p.report_id = al.report_id
						AND p.sequence_position < al.sequence_position
						AND p.approval_status <> ?))`,
					filter.EmployeeID, string(workflow.ApprovalPending), string(workflow.ApprovalApproved))
		default:
			// 他人的草稿和预约不可见
			query = query.Where("writer_id = ? OR (status NOT IN ? AND id IN (SELECT report_id FROM approval_lines WHERE employee_id = ?))",
				filter.EmployeeID, []string{string(workflow.StatusDraft), string(workflow.StatusScheduled)}, filter.EmployeeID)
		}
		if filter.Status != nil {
			query = query.Where("status = ?", *filter.Status)
		}
		if filter.TemplateID != nil {
			query = query.Where("template_id = ?", *filter.TemplateID)
		}
		if filter.Keyword != nil && *filter.Keyword != "" {
			query = query.Where(`title LIKE ? ESCAPE '\'`, utils.ContainsPattern(*filter.Keyword))
		}
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	page, pageSize := 1, 20
	if filter != nil {
		if filter.Page > 0 {
			page = filter.Page
		}
		if filter.PageSize > 0 {
			pageSize = filter.PageSize
		}
	}

	var reports []*model.ReportModel
	err := query.
		Preload("ApprovalLine", func(db *gorm.DB) *gorm.DB {
			return db.Order("sequence_position ASC")
		}).
		Order("updated_at DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&reports).Error
	return reports, total, err
}

// FindDueScheduled 查找预约时间已到的报告
func (r *reportRepository) FindDueScheduled(now time.Time, limit int) ([]*model.ReportModel, error) {
	var reports []*model.ReportModel
	query := r.db.
		Where("status = ? AND scheduled_at <= ?", string(workflow.StatusScheduled), now.UTC()).
		Order("scheduled_at ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	err := query.Find(&reports).Error
	return reports, err
}
