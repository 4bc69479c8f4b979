package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/kimjiwon0450/Front-HRHub-sub000/internal/auth"
	"github.com/kimjiwon0450/Front-HRHub-sub000/internal/model"
	"github.com/kimjiwon0450/Front-HRHub-sub000/internal/repository"
	"github.com/kimjiwon0450/Front-HRHub-sub000/internal/utils"
	"github.com/kimjiwon0450/Front-HRHub-sub000/internal/workflow"
	"gorm.io/gorm"
)

// TemplateService 模板服务接口
type TemplateService interface {
	Create(ctx context.Context, req *CreateTemplateRequest) (*Template, error)
	Get(id string, version int) (*Template, error)
	Update(ctx context.Context, id string, req *UpdateTemplateRequest) (*Template, error)
	Delete(ctx context.Context, id string) error
	List(filter *TemplateListFilter) (*TemplateListResponse, error)
	ListVersions(id string) ([]int, error)
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
	CreatedBy   string               `json:"createdBy,omitempty"`
	UpdatedBy   string               `json:"updatedBy,omitempty"`
}

// CreateTemplateRequest 创建模板请求
type CreateTemplateRequest struct {
	Name        string               `json:"name" binding:"required"`
	Description string               `json:"description"`
	Fields      []workflow.FieldSpec `json:"fields" binding:"required"`
}

// UpdateTemplateRequest 更新模板请求,每次更新生成新版本
type UpdateTemplateRequest struct {
	Name        string               `json:"name"`
	Description string               `json:"description"`
	Fields      []workflow.FieldSpec `json:"fields"`
}

// TemplateListFilter 模板列表查询过滤器
type TemplateListFilter struct {
	Page     int    `form:"page"`
	PageSize int    `form:"page_size"`
	Search   string `form:"search"`
	SortBy   string `form:"sort_by"`
	Order    string `form:"order"` // asc/desc
}

// TemplateListResponse 模板列表响应
type TemplateListResponse struct {
	Data       []*Template
	Pagination PaginationInfo
}

// PaginationInfo 分页信息
type PaginationInfo struct {
	Page      int
	PageSize  int
	Total     int64
	TotalPage int
}

var templateSortFields = []string{"created_at", "updated_at", "name"}

// templateCacheEntry 模板缓存条目
type templateCacheEntry struct {
	template  *Template
	expiresAt time.Time
}

// templateService 模板服务实现
type templateService struct {
	db          *gorm.DB
	repo        repository.TemplateRepository
	relations   auth.RelationStore
	auditLogSvc AuditLogService
	cache       *sync.Map
	cacheTTL    time.Duration
}

// NewTemplateService 创建模板服务
func NewTemplateService(db *gorm.DB, auditLogSvc AuditLogService, relations ...auth.RelationStore) TemplateService {
	var rel auth.RelationStore
	if len(relations) > 0 {
		rel = relations[0]
	}
	return &templateService{
		db:          db,
		repo:        repository.NewTemplateRepository(db),
		relations:   rel,
		auditLogSvc: auditLogSvc,
		cache:       &sync.Map{},
		cacheTTL:    5 * time.Minute, // 默认缓存 5 分钟
	}
}

// generateTemplateID 生成模板 ID
func generateTemplateID() string {
	return fmt.Sprintf("tpl-%d", time.Now().UnixNano())
}

// Create 创建模板
func (s *templateService) Create(ctx context.Context, req *CreateTemplateRequest) (*Template, error) {
	if err := validateTemplate(req.Name, req.Fields); err != nil {
		return nil, err
	}

	userID := getUserIDFromContext(ctx)
	now := time.Now()
	m := &model.TemplateModel{
		ID:          generateTemplateID(),
		Version:     1,
		Name:        strings.TrimSpace(req.Name),
		Description: req.Description,
		Fields:      req.Fields,
		CreatedAt:   now,
		UpdatedAt:   now,
		CreatedBy:   userID,
		UpdatedBy:   userID,
	}
	if err := m.Validate(); err != nil {
		return nil, &workflow.ValidationError{Field: "fields", Message: err.Error()}
	}
	if err := s.repo.Save(m); err != nil {
		return nil, fmt.Errorf("failed to create template: %w", err)
	}

	if s.relations != nil && userID != "" {
		_ = s.relations.SetRelation(ctx, userID, auth.RelationOwner, auth.ObjectTemplate, m.ID)
	}
	s.audit(ctx, "create", m)

	return toTemplate(m), nil
}

// Get 获取模板（带缓存）,version 为 0 表示最新版本
func (s *templateService) Get(id string, version int) (*Template, error) {
	cacheKey := fmt.Sprintf("%s:%d", id, version)

	if val, found := s.cache.Load(cacheKey); found {
		entry := val.(*templateCacheEntry)
		if time.Now().Before(entry.expiresAt) {
			return entry.template, nil
		}
		s.cache.Delete(cacheKey)
	}

	m, err := s.repo.FindByID(id, version)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, &workflow.NotFoundError{Resource: "template", ID: id}
	}
	if err != nil {
		return nil, err
	}

	tpl := toTemplate(m)
	s.cache.Store(cacheKey, &templateCacheEntry{
		template:  tpl,
		expiresAt: time.Now().Add(s.cacheTTL),
	})
	return tpl, nil
}

// Update 更新模板,旧版本保留供已有报告引用
func (s *templateService) Update(ctx context.Context, id string, req *UpdateTemplateRequest) (*Template, error) {
	current, err := s.repo.FindByID(id, 0)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, &workflow.NotFoundError{Resource: "template", ID: id}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get current template: %w", err)
	}

	name := req.Name
	if name == "" {
		name = current.Name
	}
	fields := req.Fields
	if fields == nil {
		fields = current.Fields
	}
	description := req.Description
	if description == "" {
		description = current.Description
	}
	if err := validateTemplate(name, fields); err != nil {
		return nil, err
	}

	next := &model.TemplateModel{
		ID:          current.ID,
		Version:     current.Version + 1,
		Name:        strings.TrimSpace(name),
		Description: description,
		Fields:      fields,
		CreatedAt:   current.CreatedAt,
		UpdatedAt:   time.Now(),
		CreatedBy:   current.CreatedBy,
		UpdatedBy:   getUserIDFromContext(ctx),
	}
	if err := s.repo.Save(next); err != nil {
		return nil, fmt.Errorf("failed to update template: %w", err)
	}

	s.clearTemplateCache(id)
	s.audit(ctx, "update", next)

	return toTemplate(next), nil
}

// Delete 删除模板
func (s *templateService) Delete(ctx context.Context, id string) error {
	current, err := s.repo.FindByID(id, 0)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &workflow.NotFoundError{Resource: "template", ID: id}
	}
	if err != nil {
		return err
	}

	s.clearTemplateCache(id)
	if err := s.repo.Delete(id); err != nil {
		return err
	}

	s.audit(ctx, "delete", current)
	return nil
}

// List 查询模板列表（每个模板的最新版本）
func (s *templateService) List(filter *TemplateListFilter) (*TemplateListResponse, error) {
	if filter == nil {
		filter = &TemplateListFilter{}
	}
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 20
	}
	if filter.SortBy == "" {
		filter.SortBy = "created_at"
	}
	if filter.Order == "" {
		filter.Order = "desc"
	}
	orderBy, err := utils.OrderClause(filter.SortBy, filter.Order, templateSortFields...)
	if err != nil {
		return nil, &workflow.ValidationError{Field: "sort_by", Message: err.Error()}
	}

	latest := s.db.Model(&model.TemplateModel{}).
		Select("id, MAX(version) AS version").
		Group("id")
	query := s.db.Model(&model.TemplateModel{}).
		Joins("JOIN (?) AS latest ON latest.id = templates.id AND latest.version = templates.version", latest)

	if filter.Search != "" {
		searchPattern := utils.ContainsPattern(filter.Search)
		query = query.Where(`templates.name LIKE ? ESCAPE '\' OR templates.description LIKE ? ESCAPE '\'`, searchPattern, searchPattern)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, fmt.Errorf("failed to count templates: %w", err)
	}

	var models []*model.TemplateModel
	err = query.Select("templates.*").
		Order("templates." + orderBy).
		Offset((filter.Page - 1) * filter.PageSize).
		Limit(filter.PageSize).
		Find(&models).Error
	if err != nil {
		return nil, fmt.Errorf("failed to find templates: %w", err)
	}

	templates := make([]*Template, 0, len(models))
	for _, m := range models {
		templates = append(templates, toTemplate(m))
	}

	totalPage := int(total) / filter.PageSize
	if int(total)%filter.PageSize > 0 {
		totalPage++
	}

	return &TemplateListResponse{
		Data: templates,
		Pagination: PaginationInfo{
			Page:      filter.Page,
			PageSize:  filter.PageSize,
			Total:     total,
			TotalPage: totalPage,
		},
	}, nil
}

// ListVersions 列出模板版本
func (s *templateService) ListVersions(id string) ([]int, error) {
	models, err := s.repo.FindVersions(id)
	if err != nil {
		return nil, err
	}
	if len(models) == 0 {
		return nil, &workflow.NotFoundError{Resource: "template", ID: id}
	}
	versions := make([]int, 0, len(models))
	for _, m := range models {
		versions = append(versions, m.Version)
	}
	return versions, nil
}

func (s *templateService) audit(ctx context.Context, action string, m *model.TemplateModel) {
	if s.auditLogSvc == nil {
		return
	}
	userID := getUserIDFromContext(ctx)
	if userID == "" {
		return
	}
	details := map[string]interface{}{
		"template_id": m.ID,
		"name":        m.Name,
		"version":     m.Version,
	}
	_ = s.auditLogSvc.RecordAction(ctx, userID, action, "template", m.ID, details)
}

func validateTemplate(name string, fields []workflow.FieldSpec) error {
	if err := utils.ValidateTemplateName(name); err != nil {
		return &workflow.ValidationError{Field: "name", Message: err.Error()}
	}
	return workflow.ValidateFieldSpecs(fields)
}

func toTemplate(m *model.TemplateModel) *Template {
	return &Template{
		ID:          m.ID,
		Version:     m.Version,
		Name:        m.Name,
		Description: m.Description,
		Fields:      append([]workflow.FieldSpec(nil), m.Fields...),
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
		CreatedBy:   m.CreatedBy,
		UpdatedBy:   m.UpdatedBy,
	}
}

// getUserIDFromContext 从 context 中获取用户ID
func getUserIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	// 从 context 中获取用户ID（由认证中间件设置）
	if userID, ok := ctx.Value("user_id").(string); ok {
		return userID
	}
	return ""
}

// clearTemplateCache 清除模板所有版本的缓存
func (s *templateService) clearTemplateCache(id string) {
	s.cache.Range(func(key, value interface{}) bool {
		keyStr := key.(string)
		if strings.HasPrefix(keyStr, id+":") {
			s.cache.Delete(key)
		}
		return true
	})
}
