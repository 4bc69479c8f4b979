package repository

import (
	"github.com/kimjiwon0450/Front-HRHub-sub000/internal/model"
	"gorm.io/gorm"
)

// HistoryRepository 审批历史仓储接口,只支持追加和读取
type HistoryRepository interface {
	Append(event *model.HistoryEventModel) error
	FindByReportID(reportID string) ([]*model.HistoryEventModel, error)
}

// historyRepository 审批历史仓储实现
type historyRepository struct {
	db *gorm.DB
}

// NewHistoryRepository 创建审批历史仓储
func NewHistoryRepository(db *gorm.DB) HistoryRepository {
	return &historyRepository{db: db}
}

// Append 追加历史事件,Seq 为报告内的下一个序号
func (r *historyRepository) Append(event *model.HistoryEventModel) error {
	if err := event.Validate(); err != nil {
		return err
	}
	var last int
	err := r.db.Model(&model.HistoryEventModel{}).
		Where("report_id = ?", event.ReportID).
		Select("COALESCE(MAX(seq), 0)").
		Scan(&last).Error
	if err != nil {
		return err
	}
	event.Seq = last + 1
	return r.db.Create(event).Error
}

// FindByReportID 按时间顺序返回报告的历史事件
func (r *historyRepository) FindByReportID(reportID string) ([]*model.HistoryEventModel, error) {
	var events []*model.HistoryEventModel
	err := r.db.Where("report_id = ?", reportID).Order("seq ASC").Find(&events).Error
	return events, err
}
