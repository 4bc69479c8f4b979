package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/kimjiwon0450/Front-HRHub-sub000/internal/auth"
	"github.com/kimjiwon0450/Front-HRHub-sub000/internal/metrics"
	"github.com/kimjiwon0450/Front-HRHub-sub000/internal/model"
	"github.com/kimjiwon0450/Front-HRHub-sub000/internal/repository"
	"github.com/kimjiwon0450/Front-HRHub-sub000/internal/storage"
	"github.com/kimjiwon0450/Front-HRHub-sub000/internal/workflow"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// AttachmentURLPrefix 附件下载地址前缀
const AttachmentURLPrefix = "/api/v1/attachments/"

// ReportService 报告服务接口
type ReportService interface {
	Get(ctx context.Context, session workflow.Session, id string) (*workflow.ReportDocument, error)
	History(ctx context.Context, session workflow.Session, id string) ([]workflow.HistoryEvent, error)
	Transitions(ctx context.Context, session workflow.Session, id string) ([]*StateHistory, error)
	SaveDraft(ctx context.Context, session workflow.Session, req *ReportRequest, uploads []*Upload) (*workflow.ReportDocument, error)
	Submit(ctx context.Context, session workflow.Session, req *ReportRequest, uploads []*Upload) (*workflow.ReportDocument, error)
	Schedule(ctx context.Context, session workflow.Session, req *ReportRequest, uploads []*Upload) (*workflow.ReportDocument, error)
	Update(ctx context.Context, session workflow.Session, id string, req *ReportRequest) (*workflow.ReportDocument, error)
	Resubmit(ctx context.Context, session workflow.Session, id string, req *ReportRequest) (*workflow.ReportDocument, error)
	Recall(ctx context.Context, session workflow.Session, id string, version *int64) (*workflow.ReportDocument, error)
	CancelSchedule(ctx context.Context, session workflow.Session, id string, version *int64) (*workflow.ReportDocument, error)
	Decide(ctx context.Context, session workflow.Session, id string, req *DecisionRequest) (*workflow.ReportDocument, error)
	OpenAttachment(ctx context.Context, session workflow.Session, attachmentID string) (io.ReadCloser, *model.AttachmentModel, error)
	ActivateDue(ctx context.Context, now time.Time) (int, error)
}

// ReportRequest 保存/提交/预约/更新/重新提交的请求体
// 带 id 时表示继续编辑已有的 DRAFT/RECALLED 文档
type ReportRequest struct {
	workflow.Draft
	ID            string          `json:"id,omitempty"`
	Version       *int64          `json:"version,omitempty"`
	Status        workflow.Status `json:"status,omitempty"`        // PUT 时的目标状态
	ScheduledAt   *time.Time      `json:"scheduledAt,omitempty"`   // 绝对时间
	ScheduledDate string          `json:"scheduledDate,omitempty"` // 或参考时区的日期 + 时刻
	ScheduledTime string          `json:"scheduledTime,omitempty"`
}

// DecisionRequest 审批请求
type DecisionRequest struct {
	ApprovalStatus workflow.ApprovalStatus `json:"approvalStatus"`
	Comment        string                  `json:"comment"`
	Version        *int64                  `json:"version,omitempty"`
}

// VersionRequest 只携带版本号的请求（撤回、取消预约）
type VersionRequest struct {
	Version *int64 `json:"version,omitempty"`
}

// Upload 随请求上传的文件
type Upload struct {
	Name        string
	ContentType string
	Size        int64
	Reader      io.Reader
}

// StateHistory 状态历史
type StateHistory struct {
	ID        string    `json:"id"`
	ReportID  string    `json:"reportId"`
	FromState string    `json:"fromState"`
	ToState   string    `json:"toState"`
	Reason    string    `json:"reason"`
	Operator  string    `json:"operator"`
	CreatedAt time.Time `json:"createdAt"`
}

// ReportServiceConfig 报告服务依赖
type ReportServiceConfig struct {
	Scheduler        *workflow.Scheduler
	MaxResubmissions int
	Store            storage.Store
	Relations        auth.RelationStore
	AuditLog         AuditLogService
	Logger           logrus.FieldLogger
}

// reportService 报告服务实现
type reportService struct {
	db               *gorm.DB
	scheduler        *workflow.Scheduler
	maxResubmissions int
	store            storage.Store
	relations        auth.RelationStore
	auditLogSvc      AuditLogService
	logger           logrus.FieldLogger
}

// NewReportService 创建报告服务
func NewReportService(db *gorm.DB, cfg ReportServiceConfig) ReportService {
	if cfg.Scheduler == nil {
		cfg.Scheduler = workflow.NewScheduler(workflow.DefaultUTCOffsetHours, workflow.DefaultGranularity)
	}
	if cfg.MaxResubmissions <= 0 {
		cfg.MaxResubmissions = workflow.MaxResubmissions
	}
	if cfg.Logger == nil {
		cfg.Logger = logrus.StandardLogger()
	}
	return &reportService{
		db:               db,
		scheduler:        cfg.Scheduler,
		maxResubmissions: cfg.MaxResubmissions,
		store:            cfg.Store,
		relations:        cfg.Relations,
		auditLogSvc:      cfg.AuditLog,
		logger:           cfg.Logger.WithField("component", "report_service"),
	}
}

func (s *reportService) now() time.Time {
	if s.scheduler.Now != nil {
		return s.scheduler.Now().UTC()
	}
	return time.Now().UTC()
}

// transition 一次状态变更的描述
type transition struct {
	action           string
	event            workflow.HistoryAction
	comment          string
	expected         *int64
	editsAttachments bool // 按请求体中的 attachments 保留旧附件并保存新上传的文件
	attachments      []workflow.Attachment
	uploads          []*Upload
	draft            *workflow.Draft // 非空时按模板字段定义校验内容
	actor            workflow.Session
}

type rule func(before *workflow.ReportDocument, history []workflow.HistoryEvent, at time.Time) (*workflow.ReportDocument, error)

// Get 获取报告
func (s *reportService) Get(ctx context.Context, session workflow.Session, id string) (*workflow.ReportDocument, error) {
	doc, err := s.load(s.db.WithContext(ctx), id)
	if err != nil {
		return nil, err
	}
	if err := s.authorizeView(ctx, session, doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// History 获取审批历史
func (s *reportService) History(ctx context.Context, session workflow.Session, id string) ([]workflow.HistoryEvent, error) {
	if _, err := s.Get(ctx, session, id); err != nil {
		return nil, err
	}
	return s.loadHistory(s.db.WithContext(ctx), id)
}

// Transitions 获取状态变更记录
func (s *reportService) Transitions(ctx context.Context, session workflow.Session, id string) ([]*StateHistory, error) {
	if _, err := s.Get(ctx, session, id); err != nil {
		return nil, err
	}
	models, err := repository.NewStateHistoryRepository(s.db.WithContext(ctx)).FindByReportID(id)
	if err != nil {
		return nil, fmt.Errorf("failed to get state history: %w", err)
	}
	histories := make([]*StateHistory, 0, len(models))
	for _, m := range models {
		histories = append(histories, &StateHistory{
			ID:        m.ID,
			ReportID:  m.ReportID,
			FromState: m.FromState,
			ToState:   m.ToState,
			Reason:    m.Reason,
			Operator:  m.Operator,
			CreatedAt: m.CreatedAt,
		})
	}
	return histories, nil
}

// SaveDraft 保存草稿
func (s *reportService) SaveDraft(ctx context.Context, session workflow.Session, req *ReportRequest, uploads []*Upload) (*workflow.ReportDocument, error) {
	t := s.editTransition("save", "", session, req, uploads)
	return s.apply(ctx, req.ID, t, func(before *workflow.ReportDocument, _ []workflow.HistoryEvent, at time.Time) (*workflow.ReportDocument, error) {
		return workflow.SaveDraft(before, req.Draft, session, at)
	})
}

// Submit 提交审批
func (s *reportService) Submit(ctx context.Context, session workflow.Session, req *ReportRequest, uploads []*Upload) (*workflow.ReportDocument, error) {
	t := s.editTransition("submit", workflow.ActionSubmitted, session, req, uploads)
	return s.apply(ctx, req.ID, t, func(before *workflow.ReportDocument, _ []workflow.HistoryEvent, at time.Time) (*workflow.ReportDocument, error) {
		return workflow.Submit(before, req.Draft, session, at)
	})
}

// Schedule 预约提交
func (s *reportService) Schedule(ctx context.Context, session workflow.Session, req *ReportRequest, uploads []*Upload) (*workflow.ReportDocument, error) {
	instant, err := s.resolveSchedule(req)
	if err != nil {
		s.refuse("schedule", err)
		return nil, err
	}
	t := s.editTransition("schedule", workflow.ActionScheduled, session, req, uploads)
	t.comment = s.scheduler.Format(instant)
	return s.apply(ctx, req.ID, t, func(before *workflow.ReportDocument, _ []workflow.HistoryEvent, _ time.Time) (*workflow.ReportDocument, error) {
		return workflow.ScheduleSubmit(before, req.Draft, session, s.scheduler, instant)
	})
}

// Update 更新已有报告（DRAFT 或 RECALLED),status 决定保存还是提交
func (s *reportService) Update(ctx context.Context, session workflow.Session, id string, req *ReportRequest) (*workflow.ReportDocument, error) {
	action, event := "save", workflow.HistoryAction("")
	if req.Status == workflow.StatusInProgress {
		action, event = "submit", workflow.ActionSubmitted
	}
	t := s.editTransition(action, event, session, req, nil)
	return s.apply(ctx, id, t, func(before *workflow.ReportDocument, _ []workflow.HistoryEvent, at time.Time) (*workflow.ReportDocument, error) {
		return workflow.Update(before, req.Draft, session, req.Status, at)
	})
}

// Resubmit 驳回后重新提交
func (s *reportService) Resubmit(ctx context.Context, session workflow.Session, id string, req *ReportRequest) (*workflow.ReportDocument, error) {
	t := s.editTransition("resubmit", workflow.ActionResubmitted, session, req, nil)
	return s.apply(ctx, id, t, func(before *workflow.ReportDocument, history []workflow.HistoryEvent, at time.Time) (*workflow.ReportDocument, error) {
		return workflow.Resubmit(before, history, req.Draft, session, s.maxResubmissions, at)
	})
}

// Recall 撤回
func (s *reportService) Recall(ctx context.Context, session workflow.Session, id string, version *int64) (*workflow.ReportDocument, error) {
	t := transition{action: "recall", event: workflow.ActionRecalled, expected: version, actor: session}
	return s.apply(ctx, id, t, func(before *workflow.ReportDocument, _ []workflow.HistoryEvent, at time.Time) (*workflow.ReportDocument, error) {
		return workflow.Recall(before, session, at)
	})
}

// CancelSchedule 取消预约
func (s *reportService) CancelSchedule(ctx context.Context, session workflow.Session, id string, version *int64) (*workflow.ReportDocument, error) {
	t := transition{action: "cancel_schedule", expected: version, actor: session}
	return s.apply(ctx, id, t, func(before *workflow.ReportDocument, _ []workflow.HistoryEvent, at time.Time) (*workflow.ReportDocument, error) {
		return workflow.CancelSchedule(before, session, at)
	})
}

// Decide 当前审批人同意或驳回
func (s *reportService) Decide(ctx context.Context, session workflow.Session, id string, req *DecisionRequest) (*workflow.ReportDocument, error) {
	var (
		action string
		event  workflow.HistoryAction
		decide func(*workflow.ReportDocument, workflow.Session, string, time.Time) (*workflow.ReportDocument, error)
	)
	switch req.ApprovalStatus {
	case workflow.ApprovalApproved:
		action, event, decide = "approve", workflow.ActionApproved, workflow.Approve
	case workflow.ApprovalRejected:
		action, event, decide = "reject", workflow.ActionRejected, workflow.Reject
	default:
		err := &workflow.ValidationError{Field: "approvalStatus", Message: "approvalStatus must be APPROVED or REJECTED"}
		s.refuse("decide", err)
		return nil, err
	}
	t := transition{action: action, event: event, comment: req.Comment, expected: req.Version, actor: session}
	return s.apply(ctx, id, t, func(before *workflow.ReportDocument, _ []workflow.HistoryEvent, at time.Time) (*workflow.ReportDocument, error) {
		return decide(before, session, req.Comment, at)
	})
}

// OpenAttachment 读取附件内容
func (s *reportService) OpenAttachment(ctx context.Context, session workflow.Session, attachmentID string) (io.ReadCloser, *model.AttachmentModel, error) {
	attachment, err := repository.NewAttachmentRepository(s.db.WithContext(ctx)).FindByID(attachmentID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil, &workflow.NotFoundError{Resource: "attachment", ID: attachmentID}
	}
	if err != nil {
		return nil, nil, err
	}
	if _, err := s.Get(ctx, session, attachment.ReportID); err != nil {
		return nil, nil, err
	}
	if s.store == nil {
		return nil, nil, errors.New("attachment storage is not configured")
	}
	rc, _, err := s.store.Get(ctx, attachment.ObjectKey)
	if errors.Is(err, storage.ErrObjectNotFound) {
		return nil, nil, &workflow.NotFoundError{Resource: "attachment", ID: attachmentID}
	}
	if err != nil {
		return nil, nil, err
	}
	return rc, attachment, nil
}

// ActivateDue 把预约时间已到的报告转为 IN_PROGRESS,返回激活数量
func (s *reportService) ActivateDue(ctx context.Context, now time.Time) (int, error) {
	due, err := repository.NewReportRepository(s.db.WithContext(ctx)).FindDueScheduled(now, 100)
	if err != nil {
		return 0, fmt.Errorf("failed to find scheduled reports: %w", err)
	}
	activated := 0
	for _, m := range due {
		if ctx.Err() != nil {
			return activated, ctx.Err()
		}
		expected := m.Version
		actor := workflow.Session{EmployeeID: m.WriterID, Name: m.WriterName}
		t := transition{action: "activate", event: workflow.ActionActivated, expected: &expected, actor: actor}
		_, err := s.apply(ctx, m.ID, t, func(before *workflow.ReportDocument, _ []workflow.HistoryEvent, _ time.Time) (*workflow.ReportDocument, error) {
			return workflow.Activate(before, now.UTC())
		})
		switch {
		case err == nil:
			activated++
			metrics.RecordActivation("activated")
		case workflow.Reason(err) != "":
			// 同一时刻被取消或已被其他实例激活
			metrics.RecordActivation("skipped")
			s.logger.WithField("report_id", m.ID).WithError(err).Info("scheduled report skipped")
		default:
			metrics.RecordActivation("failed")
			s.logger.WithField("report_id", m.ID).WithError(err).Error("failed to activate scheduled report")
		}
	}
	return activated, nil
}

func (s *reportService) editTransition(action string, event workflow.HistoryAction, session workflow.Session, req *ReportRequest, uploads []*Upload) transition {
	return transition{
		action:           action,
		event:            event,
		expected:         req.Version,
		editsAttachments: true,
		attachments:      req.Attachments,
		uploads:          uploads,
		draft:            &req.Draft,
		actor:            session,
	}
}

func (s *reportService) resolveSchedule(req *ReportRequest) (time.Time, error) {
	if req.ScheduledAt != nil {
		return req.ScheduledAt.UTC(), nil
	}
	return s.scheduler.Resolve(req.ScheduledDate, req.ScheduledTime)
}

// apply 在事务中读取文档、执行规则、按版本号写回,并追加历史
func (s *reportService) apply(ctx context.Context, id string, t transition, fn rule) (*workflow.ReportDocument, error) {
	now := s.now()
	var before, after *workflow.ReportDocument
	// uploaded 在失败时清理,removed 在提交成功后才删除
	var uploaded, removed []string

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		reports := repository.NewReportRepository(tx)
		var history []workflow.HistoryEvent
		if id != "" {
			doc, err := s.load(tx, id)
			if err != nil {
				return err
			}
			if t.expected != nil && *t.expected != doc.Version {
				return &workflow.ConflictError{ReportID: id, Expected: *t.expected}
			}
			history, err = s.loadHistory(tx, id)
			if err != nil {
				return err
			}
			before = doc
		}

		next, err := fn(before, history, now)
		if err != nil {
			return err
		}
		if t.draft != nil {
			if err := s.checkTemplate(tx, *t.draft); err != nil {
				return err
			}
		}

		if before == nil {
			next.ID = uuid.New().String()
			next.Version = 1
			next.CreatedAt = now
			next.UpdatedAt = now
			if err := reports.Create(model.NewReportModel(next), next.ApprovalLine); err != nil {
				return fmt.Errorf("failed to create report: %w", err)
			}
		} else {
			m := model.NewReportModel(next)
			if err := reports.UpdateWithVersion(m, before.Version); err != nil {
				return err
			}
			next.Version = m.Version
			if !sameLine(before.ApprovalLine, next.ApprovalLine) {
				if err := reports.ReplaceLine(next.ID, next.ApprovalLine); err != nil {
					return fmt.Errorf("failed to replace approval line: %w", err)
				}
			}
		}

		if t.editsAttachments {
			attachments, keys, dropped, err := s.syncAttachments(ctx, tx, next.ID, t.attachments, t.uploads, now)
			uploaded, removed = keys, dropped
			if err != nil {
				return err
			}
			next.Attachments = attachments
		} else if before != nil {
			next.Attachments = before.Attachments
		}

		if t.event != "" {
			event := &model.HistoryEventModel{
				ID:        uuid.New().String(),
				ReportID:  next.ID,
				Cycle:     next.Cycle,
				Action:    string(t.event),
				ActorID:   t.actor.EmployeeID,
				ActorName: t.actor.Name,
				Comment:   t.comment,
				CreatedAt: now,
			}
			if err := repository.NewHistoryRepository(tx).Append(event); err != nil {
				return fmt.Errorf("failed to append history: %w", err)
			}
		}

		from := ""
		if before != nil {
			from = string(before.Status)
		}
		if from != string(next.Status) {
			state := &model.StateHistoryModel{
				ID:        uuid.New().String(),
				ReportID:  next.ID,
				FromState: from,
				ToState:   string(next.Status),
				Reason:    t.action,
				Operator:  t.actor.EmployeeID,
				CreatedAt: now,
			}
			if err := repository.NewStateHistoryRepository(tx).Save(state); err != nil {
				return fmt.Errorf("failed to save state history: %w", err)
			}
		}

		after = next
		return nil
	})
	if err != nil {
		s.deleteObjects(uploaded)
		s.refuse(t.action, err)
		return nil, err
	}

	s.deleteObjects(removed)
	metrics.RecordTransition(t.action, string(after.Status))
	s.afterCommit(ctx, t, before, after)
	return after, nil
}

func (s *reportService) afterCommit(ctx context.Context, t transition, before, after *workflow.ReportDocument) {
	entry := s.logger.WithFields(logrus.Fields{
		"report_id": after.ID,
		"action":    t.action,
		"status":    after.Status,
		"version":   after.Version,
		"actor":     t.actor.EmployeeID,
	})
	entry.Info("report transition")

	if s.relations != nil {
		if err := auth.SyncReportRelations(ctx, s.relations, before, after); err != nil {
			entry.WithError(err).Warn("failed to sync report relations")
		}
	}

	if s.auditLogSvc != nil {
		details := map[string]interface{}{
			"report_id": after.ID,
			"status":    after.Status,
			"version":   after.Version,
			"cycle":     after.Cycle,
		}
		if before != nil {
			details["from"] = before.Status
		}
		if t.comment != "" {
			details["comment"] = t.comment
		}
		if err := s.auditLogSvc.RecordAction(ctx, t.actor.EmployeeID, t.action, "report", after.ID, details); err != nil {
			entry.WithError(err).Warn("failed to record audit log")
		}
	}
}

func (s *reportService) refuse(action string, err error) {
	reason := workflow.Reason(err)
	if reason == "" {
		reason = "internal"
		s.logger.WithField("action", action).WithError(err).Error("report operation failed")
	}
	metrics.RecordRefusal(action, reason)
}

// syncAttachments 保留请求中列出的旧附件,删除其余附件记录,保存新上传的文件
// 返回新上传和被移除的对象 key；被移除的对象由调用方在提交后删除
func (s *reportService) syncAttachments(ctx context.Context, tx *gorm.DB, reportID string, keep []workflow.Attachment, uploads []*Upload, now time.Time) ([]workflow.Attachment, []string, []string, error) {
	repo := repository.NewAttachmentRepository(tx)
	existing, err := repo.FindByReportID(reportID)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to load attachments: %w", err)
	}

	byURL := make(map[string]*model.AttachmentModel, len(existing))
	for _, a := range existing {
		byURL[a.URL] = a
	}
	kept := make(map[string]bool, len(keep))
	for _, a := range keep {
		if _, ok := byURL[a.URL]; !ok {
			return nil, nil, nil, &workflow.ValidationError{Field: "attachments", Message: fmt.Sprintf("unknown attachment %q", a.Name)}
		}
		kept[a.URL] = true
	}

	result := make([]workflow.Attachment, 0, len(kept)+len(uploads))
	var removed []string
	for _, a := range existing {
		if kept[a.URL] {
			result = append(result, a.ToAttachment())
			continue
		}
		if err := repo.Delete(a.ID); err != nil {
			return nil, nil, nil, fmt.Errorf("failed to delete attachment: %w", err)
		}
		removed = append(removed, a.ObjectKey)
	}

	if len(uploads) > 0 && s.store == nil {
		return result, nil, nil, errors.New("attachment storage is not configured")
	}
	var keys []string
	for _, u := range uploads {
		id := uuid.New().String()
		key := storage.ObjectKey(reportID, u.Name, now)
		info, err := s.store.Put(ctx, key, u.Reader, u.Size, u.ContentType)
		if err != nil {
			return result, keys, nil, err
		}
		keys = append(keys, key)
		m := &model.AttachmentModel{
			ID:          id,
			ReportID:    reportID,
			Name:        u.Name,
			ObjectKey:   key,
			URL:         AttachmentURLPrefix + id,
			ContentType: u.ContentType,
			Size:        info.Size,
			CreatedAt:   now,
		}
		if err := repo.Save(m); err != nil {
			return result, keys, nil, fmt.Errorf("failed to save attachment: %w", err)
		}
		result = append(result, m.ToAttachment())
	}
	return result, keys, removed, nil
}

// deleteObjects 删除存储中的对象,失败只记录日志
func (s *reportService) deleteObjects(keys []string) {
	if s.store == nil {
		return
	}
	for _, key := range keys {
		if err := s.store.Delete(context.Background(), key); err != nil {
			s.logger.WithField("object_key", key).WithError(err).Warn("failed to delete attachment object")
		}
	}
}

// checkTemplate 模板内容需要符合模板的字段定义
func (s *reportService) checkTemplate(tx *gorm.DB, d workflow.Draft) error {
	if d.TemplateID == "" {
		return nil
	}
	tpl, err := repository.NewTemplateRepository(tx).FindByID(d.TemplateID, 0)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &workflow.ValidationError{Field: "templateId", Message: fmt.Sprintf("template %s does not exist", d.TemplateID)}
	}
	if err != nil {
		return err
	}
	if !d.Content.IsTemplated() {
		return nil
	}
	return d.Content.ValidateAgainst(tpl.Fields)
}

// authorizeView 草稿和预约中的文档只有作者可见,其余对作者、审批人、参阅人可见
func (s *reportService) authorizeView(ctx context.Context, session workflow.Session, doc *workflow.ReportDocument) error {
	if doc.IsWriter(session) || session.HasRole("admin") {
		return nil
	}
	if doc.Status != workflow.StatusDraft && doc.Status != workflow.StatusScheduled {
		if _, member := auth.ReportTuples(doc)[session.EmployeeID]; member {
			return nil
		}
		if s.relations != nil {
			allowed, err := s.relations.CheckPermission(ctx, session.EmployeeID, auth.RelationViewer, auth.ObjectReport, doc.ID)
			if err != nil {
				s.logger.WithField("report_id", doc.ID).WithError(err).Warn("permission check failed")
			} else if allowed {
				return nil
			}
		}
	}
	return &workflow.ForbiddenError{Action: "view", Reason: "you are not a participant of this report"}
}

func (s *reportService) load(db *gorm.DB, id string) (*workflow.ReportDocument, error) {
	m, err := repository.NewReportRepository(db).FindByID(id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, &workflow.NotFoundError{Resource: "report", ID: id}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load report: %w", err)
	}
	return m.ToDocument(), nil
}

func (s *reportService) loadHistory(db *gorm.DB, id string) ([]workflow.HistoryEvent, error) {
	models, err := repository.NewHistoryRepository(db).FindByReportID(id)
	if err != nil {
		return nil, fmt.Errorf("failed to load history: %w", err)
	}
	events := make([]workflow.HistoryEvent, 0, len(models))
	for _, m := range models {
		events = append(events, m.ToEvent())
	}
	return events, nil
}

func sameLine(a, b []workflow.ApprovalLineEntry) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		x, y := a[i], b[i]
		if x.EmployeeID != y.EmployeeID || x.Name != y.Name || x.SequencePosition != y.SequencePosition ||
			x.ApprovalStatus != y.ApprovalStatus || x.Comment != y.Comment {
			return false
		}
		if (x.ApprovalDateTime == nil) != (y.ApprovalDateTime == nil) {
			return false
		}
		if x.ApprovalDateTime != nil && !x.ApprovalDateTime.Equal(*y.ApprovalDateTime) {
			return false
		}
	}
	return true
}
