package repository

import (
	"github.com/kimjiwon0450/Front-HRHub-sub000/internal/model"
	"gorm.io/gorm"
)

// AttachmentRepository 附件元数据仓储接口
type AttachmentRepository interface {
	Save(attachment *model.AttachmentModel) error
	FindByID(id string) (*model.AttachmentModel, error)
	FindByReportID(reportID string) ([]*model.AttachmentModel, error)
	Delete(id string) error
}

// attachmentRepository 附件元数据仓储实现
type attachmentRepository struct {
	db *gorm.DB
}

// NewAttachmentRepository 创建附件仓储
func NewAttachmentRepository(db *gorm.DB) AttachmentRepository {
	return &attachmentRepository{db: db}
}

// Save 保存附件元数据
func (r *attachmentRepository) Save(attachment *model.AttachmentModel) error {
	if err := attachment.Validate(); err != nil {
		return err
	}
	return r.db.Save(attachment).Error
}

// FindByID 根据 ID 查找附件
func (r *attachmentRepository) FindByID(id string) (*model.AttachmentModel, error) {
	var attachment model.AttachmentModel
	if err := r.db.Where("id = ?", id).First(&attachment).Error; err != nil {
		return nil, err
	}
	return &attachment, nil
}

// FindByReportID 查找报告的所有附件
func (r *attachmentRepository) FindByReportID(reportID string) ([]*model.AttachmentModel, error) {
	var attachments []*model.AttachmentModel
	err := r.db.Where("report_id = ?", reportID).Order("created_at ASC").Find(&attachments).Error
	return attachments, err
}

// Delete 删除附件元数据
func (r *attachmentRepository) Delete(id string) error {
	return r.db.Where("id = ?", id).Delete(&model.AttachmentModel{}).Error
}
