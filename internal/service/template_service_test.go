package service_test

import (
	"context"
	"testing"

	"github.com/kimjiwon0450/Front-HRHub-sub000/internal/auth"
	"github.com/kimjiwon0450/Front-HRHub-sub000/internal/service"
	"github.com/kimjiwon0450/Front-HRHub-sub000/internal/workflow"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var expenseFields = []workflow.FieldSpec{
	{Key: "amount", Label: "금액", Kind: workflow.KindText, Required: true},
	{Key: "detail", Label: "내역", Kind: workflow.KindEditor},
}

// TestTemplateService_CreateAndVersions 测试创建模板、更新生成新版本
func TestTemplateService_CreateAndVersions(t *testing.T) {
	f := newFixture(t)
	ctx := context.WithValue(context.Background(), "user_id", "hr-admin")

	tpl, err := f.templates.Create(ctx, &service.CreateTemplateRequest{Name: "경비 청구서", Fields: expenseFields})
	require.NoError(t, err)
	assert.Equal(t, 1, tpl.Version)
	assert.Equal(t, "hr-admin", tpl.CreatedBy)

	owner, err := f.relations.CheckPermission(ctx, "hr-admin", auth.RelationOwner, auth.ObjectTemplate, tpl.ID)
	require.NoError(t, err)
	assert.True(t, owner)

	// 先读一次进入缓存,更新后缓存失效
	cached, err := f.templates.Get(tpl.ID, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, cached.Version)

	updated, err := f.templates.Update(ctx, tpl.ID, &service.UpdateTemplateRequest{Name: "경비 청구서 v2"})
	require.NoError(t, err)
	assert.Equal(t, 2, updated.Version)
	assert.Equal(t, expenseFields, updated.Fields)

	latest, err := f.templates.Get(tpl.ID, 0)
	require.NoError(t, err)
	assert.Equal(t, "경비 청구서 v2", latest.Name)

	first, err := f.templates.Get(tpl.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, "경비 청구서", first.Name)

	versions, err := f.templates.ListVersions(tpl.ID)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2}, versions)

	logs, err := f.audit.ListByResource("template", tpl.ID)
	require.NoError(t, err)
	assert.Len(t, logs, 2)
}

// TestTemplateService_Validation 测试模板名称和字段定义校验
func TestTemplateService_Validation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	tests := []struct {
		name string
		req  *service.CreateTemplateRequest
	}{
		{"empty name", &service.CreateTemplateRequest{Name: " ", Fields: expenseFields}},
		{"dangerous name", &service.CreateTemplateRequest{Name: "<script>", Fields: expenseFields}},
		{"no fields", &service.CreateTemplateRequest{Name: "빈 양식"}},
		{"unknown kind", &service.CreateTemplateRequest{Name: "잘못된 양식", Fields: []workflow.FieldSpec{{Key: "a", Kind: "color"}}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.templates.Create(ctx, tt.req)
			assert.True(t, workflow.IsValidation(err))
		})
	}
}

// TestTemplateService_ListAndDelete 测试列表只返回最新版本,删除后不存在
func TestTemplateService_ListAndDelete(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	a, err := f.templates.Create(ctx, &service.CreateTemplateRequest{Name: "경비 청구서", Fields: expenseFields})
	require.NoError(t, err)
	_, err = f.templates.Update(ctx, a.ID, &service.UpdateTemplateRequest{Description: "2024년 개정"})
	require.NoError(t, err)
	_, err = f.templates.Create(ctx, &service.CreateTemplateRequest{Name: "휴가 신청서", Fields: expenseFields})
	require.NoError(t, err)

	list, err := f.templates.List(&service.TemplateListFilter{SortBy: "name", Order: "asc"})
	require.NoError(t, err)
	assert.Equal(t, int64(2), list.Pagination.Total)
	require.Len(t, list.Data, 2)
	assert.Equal(t, "경비 청구서", list.Data[0].Name)
	assert.Equal(t, 2, list.Data[0].Version)

	search, err := f.templates.List(&service.TemplateListFilter{Search: "휴가"})
	require.NoError(t, err)
	require.Len(t, search.Data, 1)
	assert.Equal(t, "휴가 신청서", search.Data[0].Name)

	wildcard, err := f.templates.List(&service.TemplateListFilter{Search: "%"})
	require.NoError(t, err)
	assert.Empty(t, wildcard.Data)

	_, err = f.templates.List(&service.TemplateListFilter{SortBy: "id; DROP TABLE templates"})
	assert.True(t, workflow.IsValidation(err))

	require.NoError(t, f.templates.Delete(ctx, a.ID))
	_, err = f.templates.Get(a.ID, 0)
	assert.True(t, workflow.IsNotFound(err))
	assert.True(t, workflow.IsNotFound(f.templates.Delete(ctx, a.ID)))
}
