package model

import (
	"errors"
	"time"

	"github.com/kimjiwon0450/Front-HRHub-sub000/internal/workflow"
	"gorm.io/datatypes"
)

// TemplateModel 报告模板数据模型,每次修改生成新版本
type TemplateModel struct {
	ID          string                                  `gorm:"primaryKey;type:varchar(64)"`
	Version     int                                     `gorm:"primaryKey;type:int;not null;default:1"` // 主键组合 (id, version)
	Name        string                                  `gorm:"type:varchar(255);not null;index"`
	Description string                                  `gorm:"type:text"`
	Fields      datatypes.JSONSlice[workflow.FieldSpec] `gorm:"not null"`
	CreatedAt   time.Time                               `gorm:"not null;index"`
	UpdatedAt   time.Time                               `gorm:"not null"`
	CreatedBy   string                                  `gorm:"type:varchar(64)"`
	UpdatedBy   string                                  `gorm:"type:varchar(64)"`
}

// TableName 指定表名
func (TemplateModel) TableName() string {
	return "templates"
}

// Validate 验证模板模型
func (tm *TemplateModel) Validate() error {
	if tm.ID == "" {
		return errors.New("template ID is required")
	}
	if tm.Name == "" {
		return errors.New("template name is required")
	}
	return workflow.ValidateFieldSpecs(tm.Fields)
}
