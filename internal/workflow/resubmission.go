package workflow

import (
	"sort"
	"time"
)

// MaxResubmissions 默认的重新提交次数上限
const MaxResubmissions = 3

// ResubmitCount 按时间顺序扫描历史,统计"驳回之后又开始了新一轮"的次数
// 只要 REJECTED 之后还有任何事件（RESUBMITTED、新的审批等）就计一次
func ResubmitCount(history []HistoryEvent) int {
	events := append([]HistoryEvent(nil), history...)
	sort.SliceStable(events, func(i, j int) bool {
		return events[i].CreatedAt.Before(events[j].CreatedAt)
	})
	count := 0
	rejected := false
	for _, ev := range events {
		if rejected {
			count++
			rejected = false
		}
		if ev.Action == ActionRejected {
			rejected = true
		}
	}
	return count
}

// CanResubmit 判断调用者能否重新提交,不能时返回原因
func CanResubmit(doc *ReportDocument, history []HistoryEvent, caller Session, limit int) (bool, error) {
	if limit <= 0 {
		limit = MaxResubmissions
	}
	if !doc.IsWriter(caller) {
		return false, &ForbiddenError{Action: "resubmit", Reason: "only the writer can resubmit this report"}
	}
	if doc.Status != StatusRejected {
		return false, &IllegalTransitionError{From: doc.Status, To: StatusInProgress, Action: "resubmit"}
	}
	if count := ResubmitCount(history); count >= limit {
		return false, &RetryCeilingExceededError{Count: count, Limit: limit}
	}
	return true, nil
}

// Resubmit 驳回后重新提交：新的审批线从位置 0 开始,不沿用上一轮的决定
func Resubmit(doc *ReportDocument, history []HistoryEvent, d Draft, caller Session, limit int, at time.Time) (*ReportDocument, error) {
	if _, err := CanResubmit(doc, history, caller, limit); err != nil {
		return nil, err
	}
	if err := ValidateForSubmit(d, doc.WriterID); err != nil {
		return nil, err
	}
	next := doc.Clone()
	startCycle(next, d, at)
	next.Status = StatusInProgress
	return next, nil
}
