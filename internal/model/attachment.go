package model

import (
	"errors"
	"time"

	"github.com/kimjiwon0450/Front-HRHub-sub000/internal/workflow"
)

// AttachmentModel 附件元数据,文件内容保存在对象存储中
type AttachmentModel struct {
	ID          string    `gorm:"primaryKey;type:varchar(64)"`
	ReportID    string    `gorm:"type:varchar(64);not null;index"`
	Name        string    `gorm:"type:varchar(255);not null"`
	ObjectKey   string    `gorm:"type:varchar(512);not null"`
	URL         string    `gorm:"type:varchar(1024);not null"`
	ContentType string    `gorm:"type:varchar(128)"`
	Size        int64     `gorm:"not null"`
	CreatedAt   time.Time `gorm:"not null"`
}

// TableName 指定表名
func (AttachmentModel) TableName() string {
	return "attachments"
}

// Validate 验证附件模型
func (m *AttachmentModel) Validate() error {
	if m.ReportID == "" {
		return errors.New("report ID is required")
	}
	if m.Name == "" {
		return errors.New("attachment name is required")
	}
	if m.URL == "" {
		return errors.New("attachment url is required")
	}
	return nil
}

// ToAttachment 转换为工作流附件描述
func (m AttachmentModel) ToAttachment() workflow.Attachment {
	return workflow.Attachment{Name: m.Name, URL: m.URL, Size: m.Size}
}
