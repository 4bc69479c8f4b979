package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/kimjiwon0450/Front-HRHub-sub000/internal/service"
	"github.com/kimjiwon0450/Front-HRHub-sub000/internal/utils"
)

// TemplateController 模板控制器
type TemplateController struct {
	templateService service.TemplateService
}

// NewTemplateController 创建模板控制器
func NewTemplateController(templateService service.TemplateService) *TemplateController {
	return &TemplateController{
		templateService: templateService,
	}
}

// Create 创建模板
// @Summary      创建报告模板
// @Tags         模板管理
// @Accept       json
// @Produce      json
// @Param        request body service.CreateTemplateRequest true "模板信息"
// @Success      200  {object}  Response
// @Failure      400  {object}  ErrorResponse
// @Router       /templates [post]
// @Security     BearerAuth
func (c *TemplateController) Create(ctx *gin.Context) {
	var req service.CreateTemplateRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		Error(ctx, http.StatusBadRequest, "invalid request", err.Error())
		return
	}

	template, err := c.templateService.Create(ctx, &req)
	if err != nil {
		RespondError(ctx, err)
		return
	}

	Success(ctx, template)
}

// Get 获取模板
// @Summary      获取模板详情,支持版本查询
// @Tags         模板管理
// @Produce      json
// @Param        id path string true "模板 ID"
// @Param        version query int false "版本号,不传则获取最新版本"
// @Success      200  {object}  Response
// @Failure      404  {object}  ErrorResponse
// @Router       /templates/{id} [get]
// @Security     BearerAuth
func (c *TemplateController) Get(ctx *gin.Context) {
	id, ok := templateID(ctx)
	if !ok {
		return
	}

	version := 0
	if versionStr := ctx.Query("version"); versionStr != "" {
		var err error
		version, err = strconv.Atoi(versionStr)
		if err != nil || version < 0 {
			Error(ctx, http.StatusBadRequest, "invalid version", versionStr)
			return
		}
	}

	template, err := c.templateService.Get(id, version)
	if err != nil {
		RespondError(ctx, err)
		return
	}

	Success(ctx, template)
}

// Update 更新模板（创建新版本）
// @Summary      更新报告模板
// @Tags         模板管理
// @Accept       json
// @Produce      json
// @Param        id path string true "模板 ID"
// @Param        request body service.UpdateTemplateRequest true "模板信息"
// @Success      200  {object}  Response
// @Failure      400  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Router       /templates/{id} [put]
// @Security     BearerAuth
func (c *TemplateController) Update(ctx *gin.Context) {
	id, ok := templateID(ctx)
	if !ok {
		return
	}

	var req service.UpdateTemplateRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		Error(ctx, http.StatusBadRequest, "invalid request", err.Error())
		return
	}

	template, err := c.templateService.Update(ctx, id, &req)
	if err != nil {
		RespondError(ctx, err)
		return
	}

	Success(ctx, template)
}

// Delete 删除模板
// @Summary      删除报告模板（所有版本）
// @Tags         模板管理
// @Produce      json
// @Param        id path string true "模板 ID"
// @Success      200  {object}  Response
// @Failure      404  {object}  ErrorResponse
// @Router       /templates/{id} [delete]
// @Security     BearerAuth
func (c *TemplateController) Delete(ctx *gin.Context) {
	id, ok := templateID(ctx)
	if !ok {
		return
	}

	if err := c.templateService.Delete(ctx, id); err != nil {
		RespondError(ctx, err)
		return
	}

	Success(ctx, nil)
}

// List 列出模板
// @Summary      分页获取模板列表,支持搜索和排序
// @Tags         模板管理
// @Produce      json
// @Param        page query int false "页码" default(1)
// @Param        page_size query int false "每页数量" default(20)
// @Param        search query string false "搜索关键词"
// @Param        sort_by query string false "排序字段" Enums(created_at, updated_at, name)
// @Param        order query string false "排序方向" Enums(asc, desc)
// @Success      200  {object}  PaginatedResponse
// @Router       /templates [get]
// @Security     BearerAuth
func (c *TemplateController) List(ctx *gin.Context) {
	var filter service.TemplateListFilter
	if err := ctx.ShouldBindQuery(&filter); err != nil {
		Error(ctx, http.StatusBadRequest, "invalid query parameters", err.Error())
		return
	}

	response, err := c.templateService.List(&filter)
	if err != nil {
		RespondError(ctx, err)
		return
	}

	Paginated(ctx, response.Data, PaginationInfo{
		Page:      response.Pagination.Page,
		PageSize:  response.Pagination.PageSize,
		Total:     response.Pagination.Total,
		TotalPage: response.Pagination.TotalPage,
	})
}

// ListVersions 列出模板版本
// @Summary      获取模板的所有版本号
// @Tags         模板管理
// @Produce      json
// @Param        id path string true "模板 ID"
// @Success      200  {object}  Response
// @Failure      404  {object}  ErrorResponse
// @Router       /templates/{id}/versions [get]
// @Security     BearerAuth
func (c *TemplateController) ListVersions(ctx *gin.Context) {
	id, ok := templateID(ctx)
	if !ok {
		return
	}

	versions, err := c.templateService.ListVersions(id)
	if err != nil {
		RespondError(ctx, err)
		return
	}

	Success(ctx, versions)
}

// templateID 读取并校验路径中的模板 ID
func templateID(ctx *gin.Context) (string, bool) {
	id := ctx.Param("id")
	if err := utils.ValidateID(id); err != nil {
		Error(ctx, http.StatusBadRequest, "invalid template id", err.Error())
		return "", false
	}
	return id, true
}
