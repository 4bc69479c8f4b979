package container

import (
	"context"
	"fmt"
	"time"

	"github.com/kimjiwon0450/Front-HRHub-sub000/internal/api"
	"github.com/kimjiwon0450/Front-HRHub-sub000/internal/auth"
	"github.com/kimjiwon0450/Front-HRHub-sub000/internal/config"
	"github.com/kimjiwon0450/Front-HRHub-sub000/internal/database"
	"github.com/kimjiwon0450/Front-HRHub-sub000/internal/metrics"
	"github.com/kimjiwon0450/Front-HRHub-sub000/internal/repository"
	"github.com/kimjiwon0450/Front-HRHub-sub000/internal/service"
	"github.com/kimjiwon0450/Front-HRHub-sub000/internal/storage"
	"github.com/kimjiwon0450/Front-HRHub-sub000/internal/workflow"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// Container 依赖注入容器
// 管理所有应用依赖,包括数据库、存储、权限关系和服务
type Container struct {
	cfg       *config.Config
	db        *gorm.DB
	store     storage.Store
	relations auth.RelationStore
	scheduler *workflow.Scheduler
	checkers  map[string]api.HealthChecker

	auditLog  service.AuditLogService
	reports   service.ReportService
	templates service.TemplateService
	queries   service.QueryService
	activator *service.ScheduleActivator
	collector *metrics.Collector
}

// NewContainer 创建依赖注入容器
// 根据配置初始化所有依赖组件
func NewContainer(cfg *config.Config, logger logrus.FieldLogger) (*Container, error) {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	c := &Container{cfg: cfg, checkers: make(map[string]api.HealthChecker)}

	// 1. 初始化数据库（带重试机制）
	// 默认重试 3 次，初始间隔 1 秒，指数退避
	db, err := database.ConnectWithRetry(cfg.Database, 3, time.Second)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	if err := database.Migrate(db); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	c.db = db

	// 2. 附件存储,MinIO 时确保 bucket 存在
	if err := c.initStorage(); err != nil {
		return nil, err
	}

	// 3. 权限关系：启用 OpenFGA 时使用远端,否则使用内存实现；两者都加一层缓存
	if err := c.initRelations(logger); err != nil {
		return nil, err
	}

	// 4. 服务
	c.scheduler = workflow.NewScheduler(cfg.Scheduler.UTCOffsetHours, cfg.Scheduler.Granularity())
	c.auditLog = service.NewAuditLogService(repository.NewAuditLogRepository(db))
	c.reports = service.NewReportService(db, service.ReportServiceConfig{
		Scheduler:        c.scheduler,
		MaxResubmissions: cfg.Workflow.MaxResubmissions,
		Store:            c.store,
		Relations:        c.relations,
		AuditLog:         c.auditLog,
		Logger:           logger,
	})
	c.templates = service.NewTemplateService(db, c.auditLog, c.relations)
	c.queries = service.NewQueryService(db)

	// 5. 后台任务
	c.activator = service.NewScheduleActivator(c.reports, cfg.Scheduler.ActivationInterval, logger)
	c.activator.SetClock(c.scheduler.Now)
	c.collector = metrics.NewCollector(db, 30*time.Second)

	return c, nil
}

func (c *Container) initStorage() error {
	store, err := storage.New(c.cfg.Storage)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	if m, ok := store.(*storage.MinIOStore); ok {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := m.EnsureBucket(ctx); err != nil {
			return fmt.Errorf("failed to prepare bucket %s: %w", c.cfg.Storage.Bucket, err)
		}
		c.checkers["storage"] = m
	}
	c.store = store
	return nil
}

func (c *Container) initRelations(logger logrus.FieldLogger) error {
	var store auth.RelationStore
	if c.cfg.OpenFGA.Enabled {
		// 默认重试 3 次，初始间隔 1 秒，指数退避
		fga, err := auth.NewOpenFGAClientWithRetry(c.cfg.OpenFGA, 3, time.Second)
		if err != nil {
			return fmt.Errorf("failed to initialize OpenFGA client: %w", err)
		}
		c.checkers["openfga"] = fga
		store = fga
	} else {
		logger.Info("OpenFGA disabled, keeping report relations in memory")
		store = auth.NewMemoryRelationStore()
	}
	c.relations = auth.NewCachedRelationStore(store, auth.NewPermissionCache(time.Minute))
	return nil
}

// DB 获取数据库连接
func (c *Container) DB() *gorm.DB {
	return c.db
}

// Scheduler 预约调度器
func (c *Container) Scheduler() *workflow.Scheduler {
	return c.scheduler
}

// Reports 报告服务
func (c *Container) Reports() service.ReportService {
	return c.reports
}

// Templates 模板服务
func (c *Container) Templates() service.TemplateService {
	return c.templates
}

// Queries 查询服务
func (c *Container) Queries() service.QueryService {
	return c.queries
}

// AuditLog 审计日志服务
func (c *Container) AuditLog() service.AuditLogService {
	return c.auditLog
}

// HealthCheckers 外部依赖的健康检查
func (c *Container) HealthCheckers() map[string]api.HealthChecker {
	return c.checkers
}

// Activator 预约激活器
func (c *Container) Activator() *service.ScheduleActivator {
	return c.activator
}

// Collector 指标收集器
func (c *Container) Collector() *metrics.Collector {
	return c.collector
}

// Close 关闭容器,清理资源
func (c *Container) Close() error {
	if c.db != nil {
		sqlDB, err := c.db.DB()
		if err == nil {
			return sqlDB.Close()
		}
	}
	return nil
}
