package workflow

import (
	"strings"
	"time"
)

// CurrentApprover 返回当前轮到的审批人
// 当前审批人是按顺序第一个 PENDING 条目,且其之前的条目全部 APPROVED
func CurrentApprover(line []ApprovalLineEntry) (ApprovalLineEntry, bool) {
	for _, e := range sortLine(line) {
		switch e.ApprovalStatus {
		case ApprovalApproved:
			continue
		case ApprovalPending:
			return e, true
		default:
			return ApprovalLineEntry{}, false
		}
	}
	return ApprovalLineEntry{}, false
}

// IsContiguousPrefix 判断已处理条目是否构成审批顺序上的连续前缀
func IsContiguousPrefix(line []ApprovalLineEntry) bool {
	pendingSeen := false
	for _, e := range sortLine(line) {
		if e.ApprovalStatus == ApprovalPending {
			pendingSeen = true
			continue
		}
		if pendingSeen {
			return false
		}
	}
	return true
}

// HasApproval 判断审批线中是否已有人同意
func HasApproval(line []ApprovalLineEntry) bool {
	for _, e := range line {
		if e.ApprovalStatus == ApprovalApproved {
			return true
		}
	}
	return false
}

// ValidateLine 校验新的审批线：非空、无重复、位置为 0..n-1、全部 PENDING、不包含作者本人
func ValidateLine(line []ApprovalLineEntry, writerID string) error {
	if len(line) == 0 {
		return validationf("approvalLine", "at least one approver is required")
	}
	seen := make(map[string]bool, len(line))
	for i, e := range sortLine(line) {
		if strings.TrimSpace(e.EmployeeID) == "" {
			return validationf("approvalLine", "approver at position %d has no employee id", i)
		}
		if seen[e.EmployeeID] {
			return validationf("approvalLine", "approver %s appears more than once", e.EmployeeID)
		}
		seen[e.EmployeeID] = true
		if e.SequencePosition != i {
			return validationf("approvalLine", "sequence positions must be 0..%d without gaps", len(line)-1)
		}
		if e.ApprovalStatus != "" && e.ApprovalStatus != ApprovalPending {
			return validationf("approvalLine", "new approval line entries must be PENDING")
		}
		if writerID != "" && e.EmployeeID == writerID {
			return validationf("approvalLine", "the writer cannot approve their own report")
		}
	}
	return nil
}

// NormalizeLine 按位置排序,重置为全新的 PENDING 审批线
func NormalizeLine(line []ApprovalLineEntry) []ApprovalLineEntry {
	out := sortLine(line)
	for i := range out {
		out[i].SequencePosition = i
		out[i].ApprovalStatus = ApprovalPending
		out[i].Comment = ""
		out[i].ApprovalDateTime = nil
	}
	return out
}

// Approve 当前审批人同意,返回新的文档副本
func Approve(doc *ReportDocument, caller Session, comment string, at time.Time) (*ReportDocument, error) {
	return decide(doc, caller, ApprovalApproved, comment, at)
}

// Reject 当前审批人驳回,返回新的文档副本
func Reject(doc *ReportDocument, caller Session, comment string, at time.Time) (*ReportDocument, error) {
	return decide(doc, caller, ApprovalRejected, comment, at)
}

// CheckTurn 校验调用者是否可以对文档执行审批动作（不修改文档）
func CheckTurn(doc *ReportDocument, caller Session) (ApprovalLineEntry, error) {
	for _, e := range doc.ApprovalLine {
		if e.EmployeeID == caller.EmployeeID && e.IsResolved() {
			return ApprovalLineEntry{}, &AlreadyResolvedError{EmployeeID: e.EmployeeID, Status: e.ApprovalStatus}
		}
	}
	if doc.Status != StatusInProgress {
		return ApprovalLineEntry{}, &IllegalTransitionError{From: doc.Status, Action: "approve or reject"}
	}
	current, ok := CurrentApprover(doc.ApprovalLine)
	if !ok {
		return ApprovalLineEntry{}, &IllegalTransitionError{From: doc.Status, Action: "approve or reject"}
	}
	if current.EmployeeID != caller.EmployeeID {
		return ApprovalLineEntry{}, &ForbiddenError{Action: "approval", Reason: "it is not your turn to act on this report"}
	}
	return current, nil
}

func decide(doc *ReportDocument, caller Session, result ApprovalStatus, comment string, at time.Time) (*ReportDocument, error) {
	current, err := CheckTurn(doc, caller)
	if err != nil {
		return nil, err
	}

	next := doc.Clone()
	next.ApprovalLine = sortLine(next.ApprovalLine)
	last := true
	for i := range next.ApprovalLine {
		e := &next.ApprovalLine[i]
		if e.SequencePosition == current.SequencePosition {
			ts := at
			e.ApprovalStatus = result
			e.Comment = comment
			e.ApprovalDateTime = &ts
			continue
		}
		if e.SequencePosition > current.SequencePosition {
			last = false
		}
	}

	switch result {
	case ApprovalRejected:
		next.Status = StatusRejected
	case ApprovalApproved:
		if last {
			next.Status = StatusApproved
		}
	}
	next.UpdatedAt = at
	return next, nil
}

func sortLine(line []ApprovalLineEntry) []ApprovalLineEntry {
	d := ReportDocument{ApprovalLine: line}
	return d.SortedLine()
}

// LineOf 按给定顺序构造全新的审批线
func LineOf(approvers ...Reference) []ApprovalLineEntry {
	line := make([]ApprovalLineEntry, len(approvers))
	for i, a := range approvers {
		line[i] = ApprovalLineEntry{
			EmployeeID:       a.EmployeeID,
			Name:             a.Name,
			SequencePosition: i,
			ApprovalStatus:   ApprovalPending,
		}
	}
	return line
}
