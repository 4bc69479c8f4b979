package workflow

import "time"

// CanRecall 作者在任何审批人同意之前可以撤回
func CanRecall(doc *ReportDocument, caller Session) (bool, error) {
	if !doc.IsWriter(caller) {
		return false, &ForbiddenError{Action: "recall", Reason: "only the writer can recall this report"}
	}
	if doc.Status != StatusInProgress {
		return false, &IllegalTransitionError{From: doc.Status, To: StatusRecalled, Action: "recall"}
	}
	if HasApproval(doc.ApprovalLine) {
		return false, &ForbiddenError{Action: "recall", Reason: "an approver has already approved this report"}
	}
	return true, nil
}

// Recall 撤回进行中的审批
func Recall(doc *ReportDocument, caller Session, at time.Time) (*ReportDocument, error) {
	if _, err := CanRecall(doc, caller); err != nil {
		return nil, err
	}
	next := doc.Clone()
	next.Status = StatusRecalled
	next.UpdatedAt = at
	return next, nil
}
