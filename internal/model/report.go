package model

import (
	"errors"
	"time"

	"github.com/kimjiwon0450/Front-HRHub-sub000/internal/workflow"
	"gorm.io/datatypes"
)

// ReportModel 报告文档数据模型
type ReportModel struct {
	ID           string                                  `gorm:"primaryKey;type:varchar(64)"`
	Title        string                                  `gorm:"type:varchar(255);not null"`
	Content      datatypes.JSONType[workflow.Content]    `gorm:"not null"`
	TemplateID   string                                  `gorm:"type:varchar(64);index"`
	Status       string                                  `gorm:"type:varchar(32);not null;index"`
	WriterID     string                                  `gorm:"type:varchar(64);not null;index"`
	WriterName   string                                  `gorm:"type:varchar(255)"`
	References   datatypes.JSONSlice[workflow.Reference] `gorm:"column:reference_list"`
	ScheduledAt  *time.Time                              `gorm:"index"` // 仅 SCHEDULED 状态有值
	Version      int64                                   `gorm:"not null;default:1"` // 乐观锁版本号
	Cycle        int                                     `gorm:"not null;default:0"` // 审批轮次
	CreatedAt    time.Time                               `gorm:"not null;index"`
	UpdatedAt    time.Time                               `gorm:"not null;index"`
	SubmittedAt  *time.Time                              `gorm:"index"`
	ApprovalLine []ApprovalLineModel                     `gorm:"foreignKey:ReportID;references:ID"`
	Attachments  []AttachmentModel                       `gorm:"foreignKey:ReportID;references:ID"`
}

// TableName 指定表名
func (ReportModel) TableName() string {
	return "reports"
}

// Validate 验证报告模型
func (rm *ReportModel) Validate() error {
	if rm.ID == "" {
		return errors.New("report ID is required")
	}
	if rm.WriterID == "" {
		return errors.New("writer ID is required")
	}
	if !workflow.Status(rm.Status).IsValid() {
		return errors.New("report status is invalid")
	}
	if (rm.Status == string(workflow.StatusScheduled)) != (rm.ScheduledAt != nil) {
		return errors.New("scheduled_at must be set exactly when the report is scheduled")
	}
	return nil
}

// ToDocument 转换为工作流文档
func (rm *ReportModel) ToDocument() *workflow.ReportDocument {
	doc := &workflow.ReportDocument{
		ID:          rm.ID,
		Title:       rm.Title,
		Content:     rm.Content.Data(),
		TemplateID:  rm.TemplateID,
		Status:      workflow.Status(rm.Status),
		WriterID:    rm.WriterID,
		WriterName:  rm.WriterName,
		References:  append([]workflow.Reference{}, rm.References...),
		ScheduledAt: rm.ScheduledAt,
		Version:     rm.Version,
		Cycle:       rm.Cycle,
		CreatedAt:   rm.CreatedAt,
		UpdatedAt:   rm.UpdatedAt,
		SubmittedAt: rm.SubmittedAt,
	}
	doc.ApprovalLine = make([]workflow.ApprovalLineEntry, 0, len(rm.ApprovalLine))
	for _, l := range rm.ApprovalLine {
		doc.ApprovalLine = append(doc.ApprovalLine, l.ToEntry())
	}
	doc.ApprovalLine = doc.SortedLine()
	doc.Attachments = make([]workflow.Attachment, 0, len(rm.Attachments))
	for _, a := range rm.Attachments {
		doc.Attachments = append(doc.Attachments, a.ToAttachment())
	}
	return doc
}

// NewReportModel 由工作流文档构造数据模型（不含审批线和附件）
func NewReportModel(doc *workflow.ReportDocument) *ReportModel {
	return &ReportModel{
		ID:          doc.ID,
		Title:       doc.Title,
		Content:     datatypes.NewJSONType(doc.Content),
		TemplateID:  doc.TemplateID,
		Status:      string(doc.Status),
		WriterID:    doc.WriterID,
		WriterName:  doc.WriterName,
		References:  datatypes.JSONSlice[workflow.Reference](doc.References),
		ScheduledAt: doc.ScheduledAt,
		Version:     doc.Version,
		Cycle:       doc.Cycle,
		CreatedAt:   doc.CreatedAt,
		UpdatedAt:   doc.UpdatedAt,
		SubmittedAt: doc.SubmittedAt,
	}
}
