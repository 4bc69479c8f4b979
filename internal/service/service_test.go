package service_test

import (
	"io"
	"testing"
	"time"

	"github.com/kimjiwon0450/Front-HRHub-sub000/internal/auth"
	"github.com/kimjiwon0450/Front-HRHub-sub000/internal/config"
	"github.com/kimjiwon0450/Front-HRHub-sub000/internal/database"
	"github.com/kimjiwon0450/Front-HRHub-sub000/internal/repository"
	"github.com/kimjiwon0450/Front-HRHub-sub000/internal/service"
	"github.com/kimjiwon0450/Front-HRHub-sub000/internal/storage"
	"github.com/kimjiwon0450/Front-HRHub-sub000/internal/workflow"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

var (
	writer    = workflow.Session{EmployeeID: "w1", Name: "김작성"}
	approver1 = workflow.Session{EmployeeID: "a1", Name: "이팀장"}
	approver2 = workflow.Session{EmployeeID: "a2", Name: "박부장"}
	reference = workflow.Session{EmployeeID: "c1", Name: "최참조"}
	outsider  = workflow.Session{EmployeeID: "x1", Name: "외부인"}
)

// fixture 报告服务测试环境,时钟固定在参考时区 2024-03-04 10:07
type fixture struct {
	db        *gorm.DB
	now       time.Time
	scheduler *workflow.Scheduler
	relations *auth.MemoryRelationStore
	audit     service.AuditLogService
	reports   service.ReportService
	templates service.TemplateService
	queries   service.QueryService
	logger    *logrus.Logger
}

// setupTestDB 创建迁移完成的内存数据库
func setupTestDB(t *testing.T) *gorm.DB {
	db, err := database.Connect(config.DatabaseConfig{Driver: "sqlite", Path: ":memory:"})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	return db
}

func newFixture(t *testing.T) *fixture {
	db := setupTestDB(t)
	f := &fixture{
		db:  db,
		now: time.Date(2024, 3, 4, 1, 7, 0, 0, time.UTC),
	}
	f.scheduler = workflow.NewScheduler(workflow.DefaultUTCOffsetHours, workflow.DefaultGranularity)
	f.scheduler.Now = func() time.Time { return f.now }

	store, err := storage.NewLocalStore(t.TempDir())
	require.NoError(t, err)

	f.logger = logrus.New()
	f.logger.SetOutput(io.Discard)
	f.relations = auth.NewMemoryRelationStore()
	f.audit = service.NewAuditLogService(repository.NewAuditLogRepository(db))
	f.reports = service.NewReportService(db, service.ReportServiceConfig{
		Scheduler: f.scheduler,
		Store:     store,
		Relations: f.relations,
		AuditLog:  f.audit,
		Logger:    f.logger,
	})
	f.templates = service.NewTemplateService(db, f.audit, f.relations)
	f.queries = service.NewQueryService(db)
	return f
}

// advance 推进测试时钟
func (f *fixture) advance(d time.Duration) {
	f.now = f.now.Add(d)
}

func reportRequest(approvers ...workflow.Session) *service.ReportRequest {
	refs := make([]workflow.Reference, len(approvers))
	for i, a := range approvers {
		refs[i] = workflow.Reference{EmployeeID: a.EmployeeID, Name: a.Name}
	}
	return &service.ReportRequest{
		Draft: workflow.Draft{
			Title:        "부산 출장 보고",
			Content:      workflow.TextContent("<p>3월 부산 지사 방문 결과</p>"),
			ApprovalLine: workflow.LineOf(refs...),
			References:   []workflow.Reference{{EmployeeID: reference.EmployeeID, Name: reference.Name}},
		},
	}
}

func version(v int64) *int64 {
	return &v
}

func actions(events []workflow.HistoryEvent) []workflow.HistoryAction {
	out := make([]workflow.HistoryAction, len(events))
	for i, e := range events {
		out[i] = e.Action
	}
	return out
}
