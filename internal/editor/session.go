package editor

import (
	"context"
	"sync"

	"github.com/kimjiwon0450/Front-HRHub-sub000/internal/client"
	"github.com/kimjiwon0450/Front-HRHub-sub000/internal/workflow"
)

// Persister 保存和提交编辑内容,由 engine.Engine 实现
type Persister interface {
	SaveDraft(ctx context.Context, doc *workflow.ReportDocument, d workflow.Draft, files ...client.File) (*workflow.ReportDocument, error)
	Submit(ctx context.Context, doc *workflow.ReportDocument, d workflow.Draft, files ...client.File) (*workflow.ReportDocument, error)
}

// Session 编辑会话：工作副本、基线和脏标记
// 任何字段修改都会置脏,保存、提交成功或放弃修改后清除
type Session struct {
	mu        sync.Mutex
	persister Persister
	doc       *workflow.ReportDocument
	baseline  workflow.Draft
	draft     workflow.Draft
	files     []client.File
	dirty     bool
}

// NewSession 打开编辑会话,doc 为 nil 时编辑新文档
func NewSession(p Persister, doc *workflow.ReportDocument) *Session {
	s := &Session{persister: p}
	s.reset(doc)
	return s
}

func (s *Session) reset(doc *workflow.ReportDocument) {
	s.doc = doc
	if doc != nil {
		s.baseline = workflow.DraftOf(doc)
	} else {
		s.baseline = workflow.Draft{}
	}
	s.draft = cloneDraft(s.baseline)
	s.files = nil
	s.dirty = false
}

func cloneDraft(d workflow.Draft) workflow.Draft {
	return workflow.DraftOf(&workflow.ReportDocument{
		Title:        d.Title,
		Content:      d.Content,
		TemplateID:   d.TemplateID,
		ApprovalLine: d.ApprovalLine,
		References:   d.References,
		Attachments:  d.Attachments,
	})
}

// mutate 修改工作副本并置脏
func (s *Session) mutate(fn func(d *workflow.Draft)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(&s.draft)
	s.dirty = true
}

// SetTitle 修改标题
func (s *Session) SetTitle(title string) {
	s.mutate(func(d *workflow.Draft) { d.Title = title })
}

// SetContent 修改内容
func (s *Session) SetContent(c workflow.Content) {
	s.mutate(func(d *workflow.Draft) { d.Content = c.Clone() })
}

// SetTemplate 切换模板
func (s *Session) SetTemplate(templateID string) {
	s.mutate(func(d *workflow.Draft) { d.TemplateID = templateID })
}

// SetApprovalLine 修改审批线
func (s *Session) SetApprovalLine(line []workflow.ApprovalLineEntry) {
	s.mutate(func(d *workflow.Draft) { d.ApprovalLine = append([]workflow.ApprovalLineEntry(nil), line...) })
}

// SetReferences 修改参照人
func (s *Session) SetReferences(refs []workflow.Reference) {
	s.mutate(func(d *workflow.Draft) { d.References = append([]workflow.Reference(nil), refs...) })
}

// AddFile 添加待上传的附件
func (s *Session) AddFile(f client.File) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.files = append(s.files, f)
	s.dirty = true
}

// RemoveAttachment 移除已上传的附件
func (s *Session) RemoveAttachment(url string) {
	s.mutate(func(d *workflow.Draft) {
		kept := d.Attachments[:0:0]
		for _, a := range d.Attachments {
			if a.URL != url {
				kept = append(kept, a)
			}
		}
		d.Attachments = kept
	})
}

// Dirty 是否有未保存的修改
func (s *Session) Dirty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dirty
}

// Draft 工作副本
func (s *Session) Draft() workflow.Draft {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneDraft(s.draft)
}

// Doc 最近一次从服务端得到的文档,新文档未保存时为 nil
func (s *Session) Doc() *workflow.ReportDocument {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.doc
}

// Save 保存为草稿,成功后以服务端文档为新的基线
func (s *Session) Save(ctx context.Context) (*workflow.ReportDocument, error) {
	return s.persist(ctx, s.persister.SaveDraft)
}

// Submit 提交审批,成功后清除脏标记
func (s *Session) Submit(ctx context.Context) (*workflow.ReportDocument, error) {
	return s.persist(ctx, s.persister.Submit)
}

type persistFunc func(ctx context.Context, doc *workflow.ReportDocument, d workflow.Draft, files ...client.File) (*workflow.ReportDocument, error)

func (s *Session) persist(ctx context.Context, fn persistFunc) (*workflow.ReportDocument, error) {
	s.mu.Lock()
	doc, draft, files := s.doc, cloneDraft(s.draft), append([]client.File(nil), s.files...)
	s.mu.Unlock()

	saved, err := fn(ctx, doc, draft, files...)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.reset(saved)
	s.mu.Unlock()
	return saved, nil
}

// Discard 放弃修改,回到基线
func (s *Session) Discard() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.draft = cloneDraft(s.baseline)
	s.files = nil
	s.dirty = false
}
