package workflow

import (
	"sort"
	"time"
)

// Status 报告文档状态
type Status string

const (
	StatusDraft      Status = "DRAFT"
	StatusScheduled  Status = "SCHEDULED"
	StatusInProgress Status = "IN_PROGRESS"
	StatusApproved   Status = "APPROVED"
	StatusRejected   Status = "REJECTED"
	StatusRecalled   Status = "RECALLED"
)

var validStatuses = map[Status]bool{
	StatusDraft:      true,
	StatusScheduled:  true,
	StatusInProgress: true,
	StatusApproved:   true,
	StatusRejected:   true,
	StatusRecalled:   true,
}

// IsValid 判断状态是否合法
func (s Status) IsValid() bool {
	return validStatuses[s]
}

// IsTerminal 判断是否为终态（REJECTED 可通过重新提交重新打开,不算终态）
func (s Status) IsTerminal() bool {
	return s == StatusApproved || s == StatusRecalled
}

func (s Status) String() string {
	return string(s)
}

// ApprovalStatus 审批线条目状态
type ApprovalStatus string

const (
	ApprovalPending  ApprovalStatus = "PENDING"
	ApprovalApproved ApprovalStatus = "APPROVED"
	ApprovalRejected ApprovalStatus = "REJECTED"
)

// IsValid 判断审批状态是否合法
func (s ApprovalStatus) IsValid() bool {
	return s == ApprovalPending || s == ApprovalApproved || s == ApprovalRejected
}

// ApprovalLineEntry 审批线条目
type ApprovalLineEntry struct {
	EmployeeID       string         `json:"employeeId"`
	Name             string         `json:"name"`
	SequencePosition int            `json:"sequencePosition"`
	ApprovalStatus   ApprovalStatus `json:"approvalStatus"`
	Comment          string         `json:"comment,omitempty"`
	ApprovalDateTime *time.Time     `json:"approvalDateTime,omitempty"`
}

// IsResolved 条目是否已离开 PENDING
func (e ApprovalLineEntry) IsResolved() bool {
	return e.ApprovalStatus != ApprovalPending
}

// Reference 参阅人（只接收通知,没有审批权限）
type Reference struct {
	EmployeeID string `json:"employeeId"`
	Name       string `json:"name,omitempty"`
}

// Attachment 附件描述,对工作流引擎不透明
type Attachment struct {
	Name string `json:"name"`
	URL  string `json:"url"`
	Size int64  `json:"size"`
}

// ReportDocument 报告文档
type ReportDocument struct {
	ID           string              `json:"id,omitempty"`
	Title        string              `json:"title"`
	Content      Content             `json:"content"`
	TemplateID   string              `json:"templateId,omitempty"`
	Status       Status              `json:"status"`
	WriterID     string              `json:"writerId"`
	WriterName   string              `json:"writerName,omitempty"`
	ApprovalLine []ApprovalLineEntry `json:"approvalLine"`
	References   []Reference         `json:"references"`
	Attachments  []Attachment        `json:"attachments"`
	ScheduledAt  *time.Time          `json:"scheduledAt,omitempty"`
	Version      int64               `json:"version"`
	Cycle        int                 `json:"cycle"`
	CreatedAt    time.Time           `json:"createdAt"`
	UpdatedAt    time.Time           `json:"updatedAt"`
	SubmittedAt  *time.Time          `json:"submittedAt,omitempty"`
}

// Clone 深拷贝文档,规则函数只在副本上修改
func (d *ReportDocument) Clone() *ReportDocument {
	if d == nil {
		return nil
	}
	out := *d
	out.Content = d.Content.Clone()
	if d.ApprovalLine != nil {
		out.ApprovalLine = make([]ApprovalLineEntry, len(d.ApprovalLine))
		for i, e := range d.ApprovalLine {
			out.ApprovalLine[i] = e
			out.ApprovalLine[i].ApprovalDateTime = cloneTime(e.ApprovalDateTime)
		}
	}
	if d.References != nil {
		out.References = append([]Reference(nil), d.References...)
	}
	if d.Attachments != nil {
		out.Attachments = append([]Attachment(nil), d.Attachments...)
	}
	out.ScheduledAt = cloneTime(d.ScheduledAt)
	out.SubmittedAt = cloneTime(d.SubmittedAt)
	return &out
}

// SortedLine 按审批顺序返回审批线副本
func (d *ReportDocument) SortedLine() []ApprovalLineEntry {
	line := make([]ApprovalLineEntry, len(d.ApprovalLine))
	copy(line, d.ApprovalLine)
	sort.SliceStable(line, func(i, j int) bool {
		return line[i].SequencePosition < line[j].SequencePosition
	})
	return line
}

// IsWriter 判断调用者是否为文档作者
func (d *ReportDocument) IsWriter(s Session) bool {
	return s.EmployeeID != "" && s.EmployeeID == d.WriterID
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}

// Session 显式的调用者身份,所有工作流操作都需要传入
type Session struct {
	EmployeeID string   `json:"employeeId"`
	Name       string   `json:"name"`
	Roles      []string `json:"roles,omitempty"`
}

// HasRole 判断是否拥有角色
func (s Session) HasRole(role string) bool {
	for _, r := range s.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// HistoryAction 历史事件动作
type HistoryAction string

const (
	ActionSubmitted   HistoryAction = "SUBMITTED"
	ActionScheduled   HistoryAction = "SCHEDULED"
	ActionActivated   HistoryAction = "ACTIVATED"
	ActionApproved    HistoryAction = "APPROVED"
	ActionRejected    HistoryAction = "REJECTED"
	ActionRecalled    HistoryAction = "RECALLED"
	ActionResubmitted HistoryAction = "RESUBMITTED"
)

// HistoryEvent 只追加的审批历史事件
type HistoryEvent struct {
	ID        string        `json:"id"`
	ReportID  string        `json:"reportId"`
	Cycle     int           `json:"cycle"`
	Action    HistoryAction `json:"action"`
	ActorID   string        `json:"actorId"`
	ActorName string        `json:"actorName,omitempty"`
	Comment   string        `json:"comment,omitempty"`
	CreatedAt time.Time     `json:"createdAt"`
}

// Draft 作者可编辑的字段集合,保存/提交/重新提交共用
type Draft struct {
	Title        string              `json:"title"`
	Content      Content             `json:"content"`
	TemplateID   string              `json:"templateId,omitempty"`
	ApprovalLine []ApprovalLineEntry `json:"approvalLine"`
	References   []Reference         `json:"references"`
	Attachments  []Attachment        `json:"attachments"`
}

// DraftOf 从文档中提取可编辑字段
func DraftOf(d *ReportDocument) Draft {
	c := d.Clone()
	return Draft{
		Title:        c.Title,
		Content:      c.Content,
		TemplateID:   c.TemplateID,
		ApprovalLine: c.ApprovalLine,
		References:   c.References,
		Attachments:  c.Attachments,
	}
}
