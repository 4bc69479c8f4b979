package workflow

import (
	"strings"
	"time"
)

// transitions 合法状态转换表,表外的转换一律视为非法
var transitions = map[Status][]Status{
	StatusDraft:      {StatusDraft, StatusInProgress, StatusScheduled},
	StatusScheduled:  {StatusInProgress, StatusDraft},
	StatusInProgress: {StatusApproved, StatusRejected, StatusRecalled},
	StatusRejected:   {StatusInProgress},
	StatusRecalled:   {StatusDraft, StatusInProgress, StatusScheduled},
	StatusApproved:   {},
}

// CanTransition 判断 from -> to 是否在转换表中
func CanTransition(from, to Status) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// NextStatuses 返回 from 状态可以到达的状态
func NextStatuses(from Status) []Status {
	return append([]Status(nil), transitions[from]...)
}

// IsEditable 作者可以直接编辑的状态
func IsEditable(s Status) bool {
	return s == StatusDraft || s == StatusRecalled
}

func checkTransition(from, to Status, action string) error {
	if !CanTransition(from, to) {
		return &IllegalTransitionError{From: from, To: to, Action: action}
	}
	return nil
}

// ValidateForSave 保存草稿只要求标题
func ValidateForSave(d Draft) error {
	if strings.TrimSpace(d.Title) == "" {
		return validationf("title", "title is required")
	}
	if err := d.Content.Validate(); err != nil {
		return err
	}
	if err := validateDraftLine(d.ApprovalLine); err != nil {
		return err
	}
	return validateReferences(d.References)
}

// validateDraftLine 草稿的审批线可以为空,非空时审批人必须有员工号且不重复
func validateDraftLine(line []ApprovalLineEntry) error {
	seen := make(map[string]bool, len(line))
	for i, e := range line {
		if strings.TrimSpace(e.EmployeeID) == "" {
			return validationf("approvalLine", "approver at position %d has no employee id", i)
		}
		if seen[e.EmployeeID] {
			return validationf("approvalLine", "approver %s appears more than once", e.EmployeeID)
		}
		seen[e.EmployeeID] = true
	}
	return nil
}

// ValidateForSubmit 提交要求标题、内容和至少一位审批人
func ValidateForSubmit(d Draft, writerID string) error {
	if strings.TrimSpace(d.Title) == "" {
		return validationf("title", "title is required")
	}
	if d.Content.IsEmpty() {
		return validationf("content", "content is required")
	}
	if err := d.Content.Validate(); err != nil {
		return err
	}
	if err := ValidateLine(d.ApprovalLine, writerID); err != nil {
		return err
	}
	return validateReferences(d.References)
}

func validateReferences(refs []Reference) error {
	seen := make(map[string]bool, len(refs))
	for _, r := range refs {
		if strings.TrimSpace(r.EmployeeID) == "" {
			return validationf("references", "reference without employee id")
		}
		if seen[r.EmployeeID] {
			return validationf("references", "reference %s appears more than once", r.EmployeeID)
		}
		seen[r.EmployeeID] = true
	}
	return nil
}

// SaveDraft 新建或更新草稿,doc 为 nil 表示新文档
func SaveDraft(doc *ReportDocument, d Draft, caller Session, at time.Time) (*ReportDocument, error) {
	next, err := editable(doc, caller, StatusDraft, "save")
	if err != nil {
		return nil, err
	}
	if err := ValidateForSave(d); err != nil {
		return nil, err
	}
	apply(next, d, at)
	if len(next.ApprovalLine) > 0 {
		next.ApprovalLine = NormalizeLine(next.ApprovalLine)
	}
	next.Status = StatusDraft
	next.ScheduledAt = nil
	return next, nil
}

// Submit 提交审批,进入 IN_PROGRESS
func Submit(doc *ReportDocument, d Draft, caller Session, at time.Time) (*ReportDocument, error) {
	next, err := editable(doc, caller, StatusInProgress, "submit")
	if err != nil {
		return nil, err
	}
	if err := ValidateForSubmit(d, next.WriterID); err != nil {
		return nil, err
	}
	startCycle(next, d, at)
	next.Status = StatusInProgress
	next.ScheduledAt = nil
	return next, nil
}

// ScheduleSubmit 预约提交,instant 由 Scheduler 校验
func ScheduleSubmit(doc *ReportDocument, d Draft, caller Session, sched *Scheduler, instant time.Time) (*ReportDocument, error) {
	next, err := editable(doc, caller, StatusScheduled, "schedule")
	if err != nil {
		return nil, err
	}
	if err := ValidateForSubmit(d, next.WriterID); err != nil {
		return nil, err
	}
	if err := sched.Validate(instant); err != nil {
		return nil, err
	}
	at := sched.now()
	apply(next, d, at)
	next.ApprovalLine = NormalizeLine(d.ApprovalLine)
	ts := instant.UTC()
	next.ScheduledAt = &ts
	next.Status = StatusScheduled
	return next, nil
}

// Activate 预约时间到达后转为 IN_PROGRESS
func Activate(doc *ReportDocument, at time.Time) (*ReportDocument, error) {
	if doc.Status != StatusScheduled {
		return nil, &IllegalTransitionError{From: doc.Status, To: StatusInProgress, Action: "activate"}
	}
	if doc.ScheduledAt != nil && at.Before(*doc.ScheduledAt) {
		return nil, validationf("scheduledAt", "report is scheduled for %s", doc.ScheduledAt.UTC().Format(time.RFC3339))
	}
	next := doc.Clone()
	startCycle(next, DraftOf(doc), at)
	next.Status = StatusInProgress
	next.ScheduledAt = nil
	return next, nil
}

// CancelSchedule 作者取消预约,文档回到草稿
func CancelSchedule(doc *ReportDocument, caller Session, at time.Time) (*ReportDocument, error) {
	if !doc.IsWriter(caller) {
		return nil, &ForbiddenError{Action: "cancel schedule", Reason: "only the writer can cancel a scheduled submission"}
	}
	if doc.Status != StatusScheduled {
		return nil, &IllegalTransitionError{From: doc.Status, To: StatusDraft, Action: "cancel schedule"}
	}
	next := doc.Clone()
	next.Status = StatusDraft
	next.ScheduledAt = nil
	next.UpdatedAt = at
	return next, nil
}

// Update 更新已有的 DRAFT/RECALLED 文档,target 选择保存为草稿还是直接提交
func Update(doc *ReportDocument, d Draft, caller Session, target Status, at time.Time) (*ReportDocument, error) {
	if doc == nil {
		return nil, &NotFoundError{Resource: "report"}
	}
	switch target {
	case StatusDraft:
		return SaveDraft(doc, d, caller, at)
	case StatusInProgress:
		return Submit(doc, d, caller, at)
	default:
		return nil, validationf("status", "status must be %s or %s", StatusDraft, StatusInProgress)
	}
}

// editable 校验作者身份和源状态,返回可修改的副本
func editable(doc *ReportDocument, caller Session, to Status, action string) (*ReportDocument, error) {
	if strings.TrimSpace(caller.EmployeeID) == "" {
		return nil, &ForbiddenError{Action: action, Reason: "no authenticated employee"}
	}
	if doc == nil {
		return &ReportDocument{
			Status:     StatusDraft,
			WriterID:   caller.EmployeeID,
			WriterName: caller.Name,
		}, nil
	}
	if !doc.IsWriter(caller) {
		return nil, &ForbiddenError{Action: action, Reason: "only the writer can edit this report"}
	}
	if !IsEditable(doc.Status) {
		return nil, &IllegalTransitionError{From: doc.Status, To: to, Action: action}
	}
	if err := checkTransition(doc.Status, to, action); err != nil {
		return nil, err
	}
	return doc.Clone(), nil
}

func apply(doc *ReportDocument, d Draft, at time.Time) {
	doc.Title = strings.TrimSpace(d.Title)
	doc.Content = d.Content.Clone()
	doc.TemplateID = d.TemplateID
	doc.ApprovalLine = append([]ApprovalLineEntry(nil), d.ApprovalLine...)
	doc.References = append([]Reference(nil), d.References...)
	doc.Attachments = append([]Attachment(nil), d.Attachments...)
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = at
	}
	doc.UpdatedAt = at
}

// startCycle 开始新的审批轮次：新的审批线,从位置 0 开始
func startCycle(doc *ReportDocument, d Draft, at time.Time) {
	apply(doc, d, at)
	doc.ApprovalLine = NormalizeLine(d.ApprovalLine)
	if doc.SubmittedAt != nil {
		doc.Cycle++
	}
	ts := at
	doc.SubmittedAt = &ts
}
