package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/kimjiwon0450/Front-HRHub-sub000/internal/auth"
	"github.com/kimjiwon0450/Front-HRHub-sub000/internal/config"
	"github.com/kimjiwon0450/Front-HRHub-sub000/internal/service"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// RouterOptions 路由依赖
type RouterOptions struct {
	Config         *config.Config
	DB             *gorm.DB
	Logger         *logrus.Logger
	Reports        service.ReportService
	Queries        service.QueryService
	Templates      service.TemplateService
	HealthCheckers map[string]HealthChecker
	// Auth 为空时按 Config.Auth 选择认证中间件
	Auth gin.HandlerFunc
}

// SetupRoutes 配置路由
func SetupRoutes(opts RouterOptions) *gin.Engine {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.Default()
	}
	logger := opts.Logger
	if logger == nil {
		logger = GetLogger()
	}
	if config.IsProduction(cfg) {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// 中间件
	router.Use(gin.Recovery())
	router.Use(RequestIDMiddleware())
	router.Use(RequestLogMiddleware(logger))
	router.Use(SecurityHeadersMiddleware(config.IsProduction(cfg)))
	router.Use(CORSMiddleware(cfg.CORS))
	router.Use(VersionMiddleware())
	if cfg.Tracing.Enabled {
		router.Use(TracingMiddleware(cfg.Tracing))
	}
	router.Use(SLAMonitorMiddleware(nil, logger))
	router.Use(ErrorHandlerMiddleware())

	// 健康检查
	healthController := NewHealthController(opts.DB, opts.HealthCheckers)
	router.GET("/health", healthController.Check)

	// Prometheus 指标端点
	router.GET("/metrics", MetricsHandler)

	authMiddleware := opts.Auth
	if authMiddleware == nil {
		authMiddleware = auth.Middleware(cfg.Auth)
	}

	// API v1 路由组
	v1 := router.Group("/api/v1")
	v1.Use(authMiddleware)
	if cfg.RateLimit.Enabled {
		v1.Use(RateLimitMiddleware(cfg.RateLimit.RPS, cfg.RateLimit.Burst))
	}
	{
		reportController := NewReportController(opts.Reports, opts.Queries, cfg.Server.MaxUploadSize)

		reports := v1.Group("/reports")
		{
			reports.GET("", reportController.List)
			reports.POST("/save", reportController.SaveDraft)
			reports.POST("/submit", reportController.Submit)
			reports.POST("/schedule", reportController.Schedule)
			reports.GET("/:id", reportController.Get)
			reports.PUT("/:id", reportController.Update)
			reports.GET("/:id/history", reportController.History)
			reports.GET("/:id/transitions", reportController.Transitions)
			reports.POST("/:id/resubmit", reportController.Resubmit)
			reports.POST("/:id/recall", reportController.Recall)
			reports.POST("/:id/approvals", reportController.Decide)
			reports.POST("/:id/schedule/cancel", reportController.CancelSchedule)
		}

		v1.GET("/attachments/:id", reportController.DownloadAttachment)
		v1.GET("/me/report-counts", reportController.Counts)

		// 模板管理路由
		if opts.Templates != nil {
			templateController := NewTemplateController(opts.Templates)
			templates := v1.Group("/templates")
			{
				templates.POST("", templateController.Create)
				templates.GET("", templateController.List)
				templates.GET("/:id", templateController.Get)
				templates.PUT("/:id", templateController.Update)
				templates.DELETE("/:id", templateController.Delete)
				templates.GET("/:id/versions", templateController.ListVersions)
			}
		}
	}

	// 必须在所有业务路由注册之后设置,未匹配的路由返回 JSON
	router.NoRoute(func(c *gin.Context) {
		Error(c, http.StatusNotFound, "route not found", "the requested route does not exist")
	})

	return router
}
