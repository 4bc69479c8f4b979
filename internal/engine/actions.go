package engine

import (
	"context"
	"time"

	"github.com/kimjiwon0450/Front-HRHub-sub000/internal/client"
	"github.com/kimjiwon0450/Front-HRHub-sub000/internal/workflow"
	"github.com/sirupsen/logrus"
)

// Snapshot 文档及其历史,以及调用者当前可执行的动作
type Snapshot struct {
	Doc             *workflow.ReportDocument
	History         []workflow.HistoryEvent
	CurrentApprover *workflow.ApprovalLineEntry
	ResubmitCount   int
	CanApprove      bool
	CanRecall       bool
	CanResubmit     bool
	CanEdit         bool
}

// Load 获取文档和历史
func (e *Engine) Load(ctx context.Context, id string) (*Snapshot, error) {
	doc, err := e.store.GetReport(ctx, id)
	if err != nil {
		return nil, err
	}
	history, err := e.store.History(ctx, id)
	if err != nil {
		return nil, err
	}
	return e.snapshot(doc, history), nil
}

func (e *Engine) snapshot(doc *workflow.ReportDocument, history []workflow.HistoryEvent) *Snapshot {
	s := &Snapshot{
		Doc:           doc,
		History:       history,
		ResubmitCount: workflow.ResubmitCount(history),
		CanEdit:       doc.IsWriter(e.session) && workflow.IsEditable(doc.Status),
	}
	if doc.Status == workflow.StatusInProgress {
		if current, ok := workflow.CurrentApprover(doc.ApprovalLine); ok {
			s.CurrentApprover = &current
		}
	}
	_, err := workflow.CheckTurn(doc, e.session)
	s.CanApprove = err == nil
	s.CanRecall, _ = workflow.CanRecall(doc, e.session)
	s.CanResubmit, _ = workflow.CanResubmit(doc, history, e.session, e.maxResubmissions)
	return s
}

// SaveDraft 保存草稿,doc 为 nil 时新建
func (e *Engine) SaveDraft(ctx context.Context, doc *workflow.ReportDocument, d workflow.Draft, files ...client.File) (*workflow.ReportDocument, error) {
	if _, err := workflow.SaveDraft(doc, d, e.session, e.now()); err != nil {
		return nil, err
	}
	req := e.request(doc, d)
	return e.edit(ctx, "save", doc, func() (*workflow.ReportDocument, error) {
		return e.store.SaveDraft(ctx, req, files...)
	})
}

// Submit 提交审批
func (e *Engine) Submit(ctx context.Context, doc *workflow.ReportDocument, d workflow.Draft, files ...client.File) (*workflow.ReportDocument, error) {
	if _, err := workflow.Submit(doc, d, e.session, e.now()); err != nil {
		return nil, err
	}
	req := e.request(doc, d)
	return e.edit(ctx, "submit", doc, func() (*workflow.ReportDocument, error) {
		return e.store.Submit(ctx, req, files...)
	})
}

// Schedule 按参考时区的日期和时刻预约提交
func (e *Engine) Schedule(ctx context.Context, doc *workflow.ReportDocument, d workflow.Draft, date, clock string, files ...client.File) (*workflow.ReportDocument, error) {
	instant, err := e.scheduler.Resolve(date, clock)
	if err != nil {
		return nil, err
	}
	if _, err := workflow.ScheduleSubmit(doc, d, e.session, e.scheduler, instant); err != nil {
		return nil, err
	}
	req := e.request(doc, d)
	req.ScheduledAt = &instant
	return e.edit(ctx, "schedule", doc, func() (*workflow.ReportDocument, error) {
		return e.store.Schedule(ctx, req, files...)
	})
}

// Update 更新 DRAFT/RECALLED 文档,target 为 DRAFT 保存、IN_PROGRESS 提交
func (e *Engine) Update(ctx context.Context, doc *workflow.ReportDocument, d workflow.Draft, target workflow.Status) (*workflow.ReportDocument, error) {
	if _, err := workflow.Update(doc, d, e.session, target, e.now()); err != nil {
		return nil, err
	}
	req := e.request(doc, d)
	req.Status = target
	return e.edit(ctx, "update", doc, func() (*workflow.ReportDocument, error) {
		return e.store.Update(ctx, doc.ID, req)
	})
}

// CancelSchedule 取消预约
func (e *Engine) CancelSchedule(ctx context.Context, doc *workflow.ReportDocument) (*workflow.ReportDocument, error) {
	if _, err := workflow.CancelSchedule(doc, e.session, e.now()); err != nil {
		return nil, err
	}
	version := doc.Version
	return e.edit(ctx, "cancel_schedule", doc, func() (*workflow.ReportDocument, error) {
		return e.store.CancelSchedule(ctx, doc.ID, &version)
	})
}

// Recall 撤回：本地确认没有审批人同意过,再带版本号发送
func (e *Engine) Recall(ctx context.Context, doc *workflow.ReportDocument) (*workflow.ReportDocument, error) {
	if _, err := workflow.CanRecall(doc, e.session); err != nil {
		return nil, err
	}
	version := doc.Version
	return e.edit(ctx, "recall", doc, func() (*workflow.ReportDocument, error) {
		return e.store.Recall(ctx, doc.ID, &version)
	})
}

// Resubmit 驳回后重新提交,按快照中的历史在发送前检查次数上限
func (e *Engine) Resubmit(ctx context.Context, snap *Snapshot, d workflow.Draft) (*workflow.ReportDocument, error) {
	if _, err := workflow.Resubmit(snap.Doc, snap.History, d, e.session, e.maxResubmissions, e.now()); err != nil {
		return nil, err
	}
	req := e.request(snap.Doc, d)
	return e.edit(ctx, "resubmit", snap.Doc, func() (*workflow.ReportDocument, error) {
		return e.store.Resubmit(ctx, snap.Doc.ID, req)
	})
}

// Approve 当前审批人同意
func (e *Engine) Approve(ctx context.Context, id, comment string) (*workflow.ReportDocument, error) {
	return e.decide(ctx, id, workflow.ApprovalApproved, comment)
}

// Reject 当前审批人驳回
func (e *Engine) Reject(ctx context.Context, id, comment string) (*workflow.ReportDocument, error) {
	return e.decide(ctx, id, workflow.ApprovalRejected, comment)
}

// decide 先重新获取文档并在本地检查轮次,发送后再获取一次服务端结果
// 冲突时返回最新文档和错误
func (e *Engine) decide(ctx context.Context, id string, result workflow.ApprovalStatus, comment string) (*workflow.ReportDocument, error) {
	release, err := e.acquire("decide", id)
	if err != nil {
		return nil, err
	}
	defer release()

	log := e.logger.WithFields(logrus.Fields{"action": "decide", "report_id": id, "result": result})

	doc, err := e.store.GetReport(ctx, id)
	if err != nil {
		return nil, err
	}
	if _, err := workflow.CheckTurn(doc, e.session); err != nil {
		log.WithError(err).Debug("local turn check failed")
		return doc, err
	}

	version := doc.Version
	if _, err := e.store.Decide(ctx, id, client.Decision{
		ApprovalStatus: result,
		Comment:        comment,
		Version:        &version,
	}); err != nil {
		return e.refetchOnConflict(ctx, "decide", id, err)
	}

	fresh, err := e.store.GetReport(ctx, id)
	if err != nil {
		return nil, err
	}
	log.WithField("status", fresh.Status).Info("decision recorded")
	return fresh, nil
}

// edit 占用动作、发送请求,冲突时重新获取
func (e *Engine) edit(ctx context.Context, action string, doc *workflow.ReportDocument, send func() (*workflow.ReportDocument, error)) (*workflow.ReportDocument, error) {
	id := ""
	if doc != nil {
		id = doc.ID
	}
	release, err := e.acquire(action, id)
	if err != nil {
		return nil, err
	}
	defer release()

	start := time.Now()
	next, err := send()
	if err != nil {
		return e.refetchOnConflict(ctx, action, id, err)
	}
	e.logger.WithFields(logrus.Fields{
		"action":     action,
		"report_id":  next.ID,
		"status":     next.Status,
		"version":    next.Version,
		"latency_ms": time.Since(start).Milliseconds(),
	}).Info("report updated")
	return next, nil
}

// request 构造请求,已有文档时带上 ID 和版本
func (e *Engine) request(doc *workflow.ReportDocument, d workflow.Draft) *client.ReportRequest {
	req := &client.ReportRequest{Draft: d}
	if doc != nil && doc.ID != "" {
		v := doc.Version
		req.ID = doc.ID
		req.Version = &v
	}
	return req
}
