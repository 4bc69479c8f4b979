package workflow

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"golang.org/x/net/html"
)

// FieldKind 模板字段类型
type FieldKind string

const (
	KindText     FieldKind = "text"
	KindTextarea FieldKind = "textarea"
	KindDate     FieldKind = "date"
	KindPeriod   FieldKind = "period"
	KindEditor   FieldKind = "editor"
)

// DateLayout 日期字段格式
const DateLayout = "2006-01-02"

// IsValid 判断字段类型是否合法
func (k FieldKind) IsValid() bool {
	switch k {
	case KindText, KindTextarea, KindDate, KindPeriod, KindEditor:
		return true
	}
	return false
}

// FieldValue 模板字段值,封闭集合,只有本包内的类型实现
type FieldValue interface {
	Kind() FieldKind
	isFieldValue()
}

// TextField 单行文本
type TextField struct {
	Value string `json:"value"`
}

// TextareaField 多行文本
type TextareaField struct {
	Value string `json:"value"`
}

// DateField 日期（2006-01-02）
type DateField struct {
	Value string `json:"value"`
}

// PeriodField 起止日期
type PeriodField struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// EditorField 富文本（HTML）
type EditorField struct {
	HTML string `json:"html"`
}

func (TextField) Kind() FieldKind     { return KindText }
func (TextareaField) Kind() FieldKind { return KindTextarea }
func (DateField) Kind() FieldKind     { return KindDate }
func (PeriodField) Kind() FieldKind   { return KindPeriod }
func (EditorField) Kind() FieldKind   { return KindEditor }

func (TextField) isFieldValue()     {}
func (TextareaField) isFieldValue() {}
func (DateField) isFieldValue()     {}
func (PeriodField) isFieldValue()   {}
func (EditorField) isFieldValue()   {}

// Field 模板实例中的一个字段
type Field struct {
	Key   string
	Label string
	Value FieldValue
}

type fieldJSON struct {
	Key   string          `json:"key"`
	Label string          `json:"label,omitempty"`
	Kind  FieldKind       `json:"kind"`
	Value json.RawMessage `json:"value"`
}

// MarshalJSON 以 kind 作为判别字段序列化
func (f Field) MarshalJSON() ([]byte, error) {
	if f.Value == nil {
		return nil, fmt.Errorf("field %q has no value", f.Key)
	}
	raw, err := json.Marshal(f.Value)
	if err != nil {
		return nil, err
	}
	return json.Marshal(fieldJSON{Key: f.Key, Label: f.Label, Kind: f.Value.Kind(), Value: raw})
}

// UnmarshalJSON 根据 kind 还原具体字段类型
func (f *Field) UnmarshalJSON(data []byte) error {
	var fj fieldJSON
	if err := json.Unmarshal(data, &fj); err != nil {
		return err
	}
	var value FieldValue
	switch fj.Kind {
	case KindText:
		var v TextField
		if err := unmarshalValue(fj.Value, &v); err != nil {
			return err
		}
		value = v
	case KindTextarea:
		var v TextareaField
		if err := unmarshalValue(fj.Value, &v); err != nil {
			return err
		}
		value = v
	case KindDate:
		var v DateField
		if err := unmarshalValue(fj.Value, &v); err != nil {
			return err
		}
		value = v
	case KindPeriod:
		var v PeriodField
		if err := unmarshalValue(fj.Value, &v); err != nil {
			return err
		}
		value = v
	case KindEditor:
		var v EditorField
		if err := unmarshalValue(fj.Value, &v); err != nil {
			return err
		}
		value = v
	default:
		return fmt.Errorf("unknown field kind %q for field %q", fj.Kind, fj.Key)
	}
	f.Key = fj.Key
	f.Label = fj.Label
	f.Value = value
	return nil
}

func unmarshalValue(raw json.RawMessage, v interface{}) error {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	return json.Unmarshal(raw, v)
}

// Content 文档内容：自由富文本或模板实例
type Content struct {
	Body   string  `json:"body,omitempty"`
	Fields []Field `json:"fields,omitempty"`
}

// TextContent 构造自由格式内容
func TextContent(body string) Content {
	return Content{Body: body}
}

// Clone 拷贝内容
func (c Content) Clone() Content {
	out := Content{Body: c.Body}
	if c.Fields != nil {
		out.Fields = append([]Field(nil), c.Fields...)
	}
	return out
}

// IsTemplated 是否为模板内容
func (c Content) IsTemplated() bool {
	return len(c.Fields) > 0
}

// IsEmpty 判断内容是否没有任何可见文本
func (c Content) IsEmpty() bool {
	if !c.IsTemplated() {
		return htmlText(c.Body) == ""
	}
	for _, f := range c.Fields {
		if !fieldEmpty(f.Value) {
			return false
		}
	}
	return true
}

// Validate 校验每个字段的格式
func (c Content) Validate() error {
	seen := make(map[string]bool, len(c.Fields))
	for _, f := range c.Fields {
		if f.Key == "" {
			return validationf("content", "template field without key")
		}
		if seen[f.Key] {
			return validationf("content."+f.Key, "duplicate field")
		}
		seen[f.Key] = true
		if err := validateField(f); err != nil {
			return err
		}
	}
	return nil
}

// ValidateAgainst 按模板字段定义校验内容
func (c Content) ValidateAgainst(specs []FieldSpec) error {
	if err := c.Validate(); err != nil {
		return err
	}
	byKey := make(map[string]Field, len(c.Fields))
	for _, f := range c.Fields {
		byKey[f.Key] = f
	}
	known := make(map[string]bool, len(specs))
	for _, spec := range specs {
		known[spec.Key] = true
		f, ok := byKey[spec.Key]
		if !ok {
			if spec.Required {
				return validationf("content."+spec.Key, "%s is required", spec.label())
			}
			continue
		}
		if f.Value.Kind() != spec.Kind {
			return validationf("content."+spec.Key, "expected %s field, got %s", spec.Kind, f.Value.Kind())
		}
		if spec.Required && fieldEmpty(f.Value) {
			return validationf("content."+spec.Key, "%s is required", spec.label())
		}
	}
	for _, f := range c.Fields {
		if !known[f.Key] {
			return validationf("content."+f.Key, "field is not part of the template")
		}
	}
	return nil
}

// PlainText 渲染为纯文本（用于列表摘要和审计）
func (c Content) PlainText() string {
	if !c.IsTemplated() {
		return htmlText(c.Body)
	}
	lines := make([]string, 0, len(c.Fields))
	for _, f := range c.Fields {
		label := f.Label
		if label == "" {
			label = f.Key
		}
		lines = append(lines, label+": "+renderField(f.Value))
	}
	return strings.Join(lines, "\n")
}

func validateField(f Field) error {
	name := "content." + f.Key
	switch v := f.Value.(type) {
	case TextField, TextareaField, EditorField:
		return nil
	case DateField:
		if v.Value == "" {
			return nil
		}
		if _, err := time.Parse(DateLayout, v.Value); err != nil {
			return validationf(name, "invalid date %q", v.Value)
		}
		return nil
	case PeriodField:
		if v.Start == "" && v.End == "" {
			return nil
		}
		start, err := time.Parse(DateLayout, v.Start)
		if err != nil {
			return validationf(name, "invalid start date %q", v.Start)
		}
		end, err := time.Parse(DateLayout, v.End)
		if err != nil {
			return validationf(name, "invalid end date %q", v.End)
		}
		if end.Before(start) {
			return validationf(name, "period ends before it starts")
		}
		return nil
	case nil:
		return validationf(name, "field has no value")
	default:
		return validationf(name, "unsupported field type %T", v)
	}
}

func fieldEmpty(value FieldValue) bool {
	switch v := value.(type) {
	case TextField:
		return strings.TrimSpace(v.Value) == ""
	case TextareaField:
		return strings.TrimSpace(v.Value) == ""
	case DateField:
		return strings.TrimSpace(v.Value) == ""
	case PeriodField:
		return strings.TrimSpace(v.Start) == "" || strings.TrimSpace(v.End) == ""
	case EditorField:
		return htmlText(v.HTML) == ""
	default:
		return true
	}
}

func renderField(value FieldValue) string {
	switch v := value.(type) {
	case TextField:
		return v.Value
	case TextareaField:
		return v.Value
	case DateField:
		return v.Value
	case PeriodField:
		return v.Start + " ~ " + v.End
	case EditorField:
		return htmlText(v.HTML)
	default:
		return ""
	}
}

// htmlText 提取 HTML 中的可见文本,图片计为内容
func htmlText(s string) string {
	if strings.TrimSpace(s) == "" {
		return ""
	}
	z := html.NewTokenizer(strings.NewReader(s))
	var b strings.Builder
	for {
		switch z.Next() {
		case html.ErrorToken:
			return strings.TrimSpace(b.String())
		case html.TextToken:
			b.Write(z.Text())
		case html.StartTagToken, html.SelfClosingTagToken:
			name, _ := z.TagName()
			switch string(name) {
			case "img":
				b.WriteString("[image]")
			case "br", "p", "div", "li":
				b.WriteString(" ")
			}
		}
	}
}

// FieldSpec 模板字段定义
type FieldSpec struct {
	Key      string    `json:"key"`
	Label    string    `json:"label"`
	Kind     FieldKind `json:"kind"`
	Required bool      `json:"required"`
}

func (s FieldSpec) label() string {
	if s.Label != "" {
		return s.Label
	}
	return s.Key
}

// ValidateFieldSpecs 校验模板字段定义
func ValidateFieldSpecs(specs []FieldSpec) error {
	if len(specs) == 0 {
		return validationf("fields", "template needs at least one field")
	}
	seen := make(map[string]bool, len(specs))
	for _, s := range specs {
		if strings.TrimSpace(s.Key) == "" {
			return validationf("fields", "field key is required")
		}
		if seen[s.Key] {
			return validationf("fields."+s.Key, "duplicate field key")
		}
		seen[s.Key] = true
		if !s.Kind.IsValid() {
			return validationf("fields."+s.Key, "unknown field kind %q", s.Kind)
		}
	}
	return nil
}
