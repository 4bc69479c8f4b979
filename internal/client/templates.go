package client

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
)

func templatePath(id string) string {
	return apiPrefix + "/templates/" + url.PathEscape(id)
}

// CreateTemplate 创建模板
func (c *Client) CreateTemplate(ctx context.Context, in *TemplateInput) (*Template, error) {
	var tpl Template
	if err := c.doJSON(ctx, http.MethodPost, apiPrefix+"/templates", in, &tpl); err != nil {
		return nil, err
	}
	return &tpl, nil
}

// GetTemplate 获取模板,version 为 0 时取最新版本
func (c *Client) GetTemplate(ctx context.Context, id string, version int) (*Template, error) {
	path := templatePath(id)
	if version > 0 {
		path += "?version=" + strconv.Itoa(version)
	}
	var tpl Template
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &tpl); err != nil {
		return nil, err
	}
	return &tpl, nil
}

// UpdateTemplate 更新模板,生成新版本
func (c *Client) UpdateTemplate(ctx context.Context, id string, in *TemplateInput) (*Template, error) {
	var tpl Template
	if err := c.doJSON(ctx, http.MethodPut, templatePath(id), in, &tpl); err != nil {
		return nil, err
	}
	return &tpl, nil
}

// DeleteTemplate 删除模板
func (c *Client) DeleteTemplate(ctx context.Context, id string) error {
	return c.doJSON(ctx, http.MethodDelete, templatePath(id), nil, nil)
}

// ListTemplates 列出模板最新版本
func (c *Client) ListTemplates(ctx context.Context, search string, page, pageSize int) ([]Template, *Pagination, error) {
	q := url.Values{}
	if search != "" {
		q.Set("search", search)
	}
	if page > 0 {
		q.Set("page", strconv.Itoa(page))
	}
	if pageSize > 0 {
		q.Set("page_size", strconv.Itoa(pageSize))
	}
	path := apiPrefix + "/templates"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}

	var result struct {
		Data       []Template `json:"data"`
		Pagination Pagination `json:"pagination"`
	}
	if err := c.doPage(ctx, path, &result); err != nil {
		return nil, nil, err
	}
	return result.Data, &result.Pagination, nil
}

// TemplateVersions 列出模板的所有版本号
func (c *Client) TemplateVersions(ctx context.Context, id string) ([]int, error) {
	var versions []int
	if err := c.doJSON(ctx, http.MethodGet, templatePath(id)+"/versions", nil, &versions); err != nil {
		return nil, err
	}
	return versions, nil
}
