package model

import (
	"errors"
	"time"

	"github.com/kimjiwon0450/Front-HRHub-sub000/internal/workflow"
)

// HistoryEventModel 审批历史事件,只追加不修改
type HistoryEventModel struct {
	ID        string    `gorm:"primaryKey;type:varchar(64)"`
	ReportID  string    `gorm:"type:varchar(64);not null;index"`
	Seq       int       `gorm:"not null;default:0"` // 报告内的追加顺序
	Cycle     int       `gorm:"not null;default:0"`
	Action    string    `gorm:"type:varchar(32);not null;index"`
	ActorID   string    `gorm:"type:varchar(64);not null"`
	ActorName string    `gorm:"type:varchar(255)"`
	Comment   string    `gorm:"type:text"`
	CreatedAt time.Time `gorm:"not null;index"`
}

// TableName 指定表名
func (HistoryEventModel) TableName() string {
	return "history_events"
}

// Validate 验证历史事件
func (m *HistoryEventModel) Validate() error {
	if m.ID == "" {
		return errors.New("event ID is required")
	}
	if m.ReportID == "" {
		return errors.New("report ID is required")
	}
	if m.Action == "" {
		return errors.New("event action is required")
	}
	if m.ActorID == "" {
		return errors.New("actor ID is required")
	}
	return nil
}

// ToEvent 转换为工作流历史事件
func (m *HistoryEventModel) ToEvent() workflow.HistoryEvent {
	return workflow.HistoryEvent{
		ID:        m.ID,
		ReportID:  m.ReportID,
		Cycle:     m.Cycle,
		Action:    workflow.HistoryAction(m.Action),
		ActorID:   m.ActorID,
		ActorName: m.ActorName,
		Comment:   m.Comment,
		CreatedAt: m.CreatedAt,
	}
}
