package model

import (
	"errors"
	"time"

	"github.com/kimjiwon0450/Front-HRHub-sub000/internal/workflow"
)

// ApprovalLineModel 审批线条目数据模型,每轮提交整体替换
type ApprovalLineModel struct {
	ID               string     `gorm:"primaryKey;type:varchar(64)"`
	ReportID         string     `gorm:"type:varchar(64);not null;index"`
	EmployeeID       string     `gorm:"type:varchar(64);not null;index"`
	Name             string     `gorm:"type:varchar(255)"`
	SequencePosition int        `gorm:"not null"`
	ApprovalStatus   string     `gorm:"type:varchar(32);not null"` // PENDING/APPROVED/REJECTED
	Comment          string     `gorm:"type:text"`
	ApprovalDateTime *time.Time
}

// TableName 指定表名
func (ApprovalLineModel) TableName() string {
	return "approval_lines"
}

// Validate 验证审批线条目
func (m *ApprovalLineModel) Validate() error {
	if m.ReportID == "" {
		return errors.New("report ID is required")
	}
	if m.EmployeeID == "" {
		return errors.New("employee ID is required")
	}
	if !workflow.ApprovalStatus(m.ApprovalStatus).IsValid() {
		return errors.New("approval status is invalid")
	}
	return nil
}

// ToEntry 转换为工作流审批条目
func (m ApprovalLineModel) ToEntry() workflow.ApprovalLineEntry {
	return workflow.ApprovalLineEntry{
		EmployeeID:       m.EmployeeID,
		Name:             m.Name,
		SequencePosition: m.SequencePosition,
		ApprovalStatus:   workflow.ApprovalStatus(m.ApprovalStatus),
		Comment:          m.Comment,
		ApprovalDateTime: m.ApprovalDateTime,
	}
}

// NewApprovalLineModel 由工作流审批条目构造数据模型
func NewApprovalLineModel(id, reportID string, e workflow.ApprovalLineEntry) ApprovalLineModel {
	status := e.ApprovalStatus
	if status == "" {
		status = workflow.ApprovalPending
	}
	return ApprovalLineModel{
		ID:               id,
		ReportID:         reportID,
		EmployeeID:       e.EmployeeID,
		Name:             e.Name,
		SequencePosition: e.SequencePosition,
		ApprovalStatus:   string(status),
		Comment:          e.Comment,
		ApprovalDateTime: e.ApprovalDateTime,
	}
}
