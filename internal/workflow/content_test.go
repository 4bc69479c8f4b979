package workflow_test

import (
	"encoding/json"
	"testing"

	"github.com/kimjiwon0450/Front-HRHub-sub000/internal/workflow"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var leaveTemplate = []workflow.FieldSpec{
	{Key: "reason", Label: "Reason", Kind: workflow.KindTextarea, Required: true},
	{Key: "period", Label: "Period", Kind: workflow.KindPeriod, Required: true},
	{Key: "note", Label: "Note", Kind: workflow.KindEditor},
}

// TestContent_JSON 测试字段按 kind 还原具体类型
func TestContent_JSON(t *testing.T) {
	c := workflow.Content{Fields: []workflow.Field{
		{Key: "reason", Label: "Reason", Value: workflow.TextareaField{Value: "family"}},
		{Key: "period", Value: workflow.PeriodField{Start: "2025-03-10", End: "2025-03-11"}},
	}}
	data, err := json.Marshal(c)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"kind":"period"`)

	var out workflow.Content
	require.NoError(t, json.Unmarshal(data, &out))
	assert.Equal(t, c, out)

	err = json.Unmarshal([]byte(`{"fields":[{"key":"x","kind":"color","value":{}}]}`), &out)
	assert.Error(t, err)
}

// TestContent_ValidateAgainst 测试按模板定义校验内容
func TestContent_ValidateAgainst(t *testing.T) {
	valid := workflow.Content{Fields: []workflow.Field{
		{Key: "reason", Value: workflow.TextareaField{Value: "family"}},
		{Key: "period", Value: workflow.PeriodField{Start: "2025-03-10", End: "2025-03-11"}},
	}}
	assert.NoError(t, valid.ValidateAgainst(leaveTemplate))

	tests := []struct {
		name    string
		content workflow.Content
	}{
		{"missing required", workflow.Content{Fields: []workflow.Field{
			{Key: "reason", Value: workflow.TextareaField{Value: "x"}},
		}}},
		{"wrong kind", workflow.Content{Fields: []workflow.Field{
			{Key: "reason", Value: workflow.TextField{Value: "x"}},
			{Key: "period", Value: workflow.PeriodField{Start: "2025-03-10", End: "2025-03-11"}},
		}}},
		{"reversed period", workflow.Content{Fields: []workflow.Field{
			{Key: "reason", Value: workflow.TextareaField{Value: "x"}},
			{Key: "period", Value: workflow.PeriodField{Start: "2025-03-11", End: "2025-03-10"}},
		}}},
		{"unknown field", workflow.Content{Fields: []workflow.Field{
			{Key: "reason", Value: workflow.TextareaField{Value: "x"}},
			{Key: "period", Value: workflow.PeriodField{Start: "2025-03-10", End: "2025-03-11"}},
			{Key: "extra", Value: workflow.TextField{Value: "x"}},
		}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, workflow.IsValidation(tt.content.ValidateAgainst(leaveTemplate)))
		})
	}
}

// TestContent_IsEmpty 测试富文本可见内容判断
func TestContent_IsEmpty(t *testing.T) {
	assert.True(t, workflow.TextContent("").IsEmpty())
	assert.True(t, workflow.TextContent("<p><br></p>").IsEmpty())
	assert.False(t, workflow.TextContent(`<p><img src="a.png"></p>`).IsEmpty())
	assert.False(t, workflow.TextContent("1 day").IsEmpty())

	assert.True(t, workflow.Content{Fields: []workflow.Field{
		{Key: "d", Value: workflow.DateField{}},
	}}.IsEmpty())
}

// TestContent_PlainText 测试纯文本渲染
func TestContent_PlainText(t *testing.T) {
	assert.Equal(t, "hello world", workflow.TextContent("<b>hello</b> world").PlainText())

	c := workflow.Content{Fields: []workflow.Field{
		{Key: "reason", Label: "Reason", Value: workflow.TextField{Value: "family"}},
		{Key: "period", Value: workflow.PeriodField{Start: "2025-03-10", End: "2025-03-11"}},
	}}
	assert.Equal(t, "Reason: family\nperiod: 2025-03-10 ~ 2025-03-11", c.PlainText())
}

// TestValidateFieldSpecs 测试模板字段定义校验
func TestValidateFieldSpecs(t *testing.T) {
	assert.NoError(t, workflow.ValidateFieldSpecs(leaveTemplate))
	assert.Error(t, workflow.ValidateFieldSpecs(nil))
	assert.Error(t, workflow.ValidateFieldSpecs([]workflow.FieldSpec{{Key: "a", Kind: "color"}}))
	assert.Error(t, workflow.ValidateFieldSpecs([]workflow.FieldSpec{
		{Key: "a", Kind: workflow.KindText}, {Key: "a", Kind: workflow.KindDate},
	}))
}
