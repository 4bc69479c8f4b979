package engine

import (
	"context"
	"errors"
	"io"
	"sync"
	"time"

	"github.com/kimjiwon0450/Front-HRHub-sub000/internal/client"
	"github.com/kimjiwon0450/Front-HRHub-sub000/internal/workflow"
	"github.com/sirupsen/logrus"
)

// ErrActionInFlight 同一文档的同一动作已有请求未完成
var ErrActionInFlight = errors.New("another request for this action is still in flight")

// Store 报告存储,由 client.Client 实现
type Store interface {
	GetReport(ctx context.Context, id string) (*workflow.ReportDocument, error)
	History(ctx context.Context, id string) ([]workflow.HistoryEvent, error)
	SaveDraft(ctx context.Context, req *client.ReportRequest, files ...client.File) (*workflow.ReportDocument, error)
	Submit(ctx context.Context, req *client.ReportRequest, files ...client.File) (*workflow.ReportDocument, error)
	Schedule(ctx context.Context, req *client.ReportRequest, files ...client.File) (*workflow.ReportDocument, error)
	Update(ctx context.Context, id string, req *client.ReportRequest) (*workflow.ReportDocument, error)
	Resubmit(ctx context.Context, id string, req *client.ReportRequest) (*workflow.ReportDocument, error)
	Recall(ctx context.Context, id string, version *int64) (*workflow.ReportDocument, error)
	CancelSchedule(ctx context.Context, id string, version *int64) (*workflow.ReportDocument, error)
	Decide(ctx context.Context, id string, d client.Decision) (*workflow.ReportDocument, error)
	DownloadAttachment(ctx context.Context, attachment workflow.Attachment, w io.Writer) (int64, error)
}

// Config 引擎配置
type Config struct {
	Scheduler        *workflow.Scheduler
	MaxResubmissions int
	Logger           logrus.FieldLogger
}

// Engine 客户端审批引擎
// 每个动作先在本地校验,同一 (动作, 文档) 同时只允许一个请求；
// 冲突时重新获取文档并连同错误一起返回,不自动重试
type Engine struct {
	store            Store
	session          workflow.Session
	scheduler        *workflow.Scheduler
	maxResubmissions int
	logger           logrus.FieldLogger

	mu       sync.Mutex
	inflight map[string]struct{}
}

// New 创建引擎
func New(store Store, session workflow.Session, cfg Config) *Engine {
	if cfg.Scheduler == nil {
		cfg.Scheduler = workflow.NewScheduler(workflow.DefaultUTCOffsetHours, workflow.DefaultGranularity)
	}
	if cfg.MaxResubmissions <= 0 {
		cfg.MaxResubmissions = workflow.MaxResubmissions
	}
	if cfg.Logger == nil {
		cfg.Logger = logrus.StandardLogger()
	}
	return &Engine{
		store:            store,
		session:          session,
		scheduler:        cfg.Scheduler,
		maxResubmissions: cfg.MaxResubmissions,
		logger:           cfg.Logger.WithField("employee_id", session.EmployeeID),
		inflight:         make(map[string]struct{}),
	}
}

// Session 引擎的调用者身份
func (e *Engine) Session() workflow.Session {
	return e.session
}

// Scheduler 引擎使用的预约调度器
func (e *Engine) Scheduler() *workflow.Scheduler {
	return e.scheduler
}

// acquire 占用 (action, id),返回释放函数
func (e *Engine) acquire(action, id string) (func(), error) {
	key := action + ":" + id
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, busy := e.inflight[key]; busy {
		return nil, ErrActionInFlight
	}
	e.inflight[key] = struct{}{}
	return func() {
		e.mu.Lock()
		delete(e.inflight, key)
		e.mu.Unlock()
	}, nil
}

// InFlight 判断动作是否有未完成的请求
func (e *Engine) InFlight(action, id string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	_, busy := e.inflight[action+":"+id]
	return busy
}

// refetchOnConflict 冲突时重新获取文档,返回最新文档和原始错误
func (e *Engine) refetchOnConflict(ctx context.Context, action, id string, err error) (*workflow.ReportDocument, error) {
	if !workflow.IsConflict(err) || id == "" {
		return nil, err
	}
	log := e.logger.WithFields(logrus.Fields{"action": action, "report_id": id})
	log.WithError(err).Info("conflict, refetching report")
	fresh, ferr := e.store.GetReport(ctx, id)
	if ferr != nil {
		log.WithError(ferr).Warn("refetch after conflict failed")
		return nil, err
	}
	return fresh, err
}

func (e *Engine) now() time.Time {
	if e.scheduler.Now != nil {
		return e.scheduler.Now()
	}
	return time.Now()
}
