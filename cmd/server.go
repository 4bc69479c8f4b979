package cmd

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kimjiwon0450/Front-HRHub-sub000/internal/api"
	"github.com/kimjiwon0450/Front-HRHub-sub000/internal/auth"
	"github.com/kimjiwon0450/Front-HRHub-sub000/internal/config"
	"github.com/kimjiwon0450/Front-HRHub-sub000/internal/container"
	"github.com/spf13/cobra"
)

// serverCmd represents the server command
var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Start the API server",
	Long: `Start the approval API server.
The server will listen on the configured host and port,
and provide REST API interfaces for reports, approvals and templates.
Scheduled submissions are activated in the background.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		// 1. 加载配置
		cfg, err := LoadConfig()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		if cmd.Flags().Changed("host") {
			cfg.Server.Host, _ = cmd.Flags().GetString("host")
		}
		if cmd.Flags().Changed("port") {
			cfg.Server.Port, _ = cmd.Flags().GetInt("port")
		}

		// 2. 日志与链路追踪
		logger, err := api.NewLoggerFromConfig(&cfg.Log)
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		api.SetLogger(logger)
		if err := api.InitTracing(cfg.Tracing); err != nil {
			logger.WithError(err).Warn("tracing disabled")
		}

		// 3. 初始化容器
		ctr, err := container.NewContainer(cfg, logger)
		if err != nil {
			return fmt.Errorf("failed to initialize container: %w", err)
		}
		defer ctr.Close()

		// 4. 设置路由
		router := api.SetupRoutes(api.RouterOptions{
			Config:         cfg,
			DB:             ctr.DB(),
			Logger:         logger,
			Reports:        ctr.Reports(),
			Queries:        ctr.Queries(),
			Templates:      ctr.Templates(),
			HealthCheckers: ctr.HealthCheckers(),
			Auth:           auth.Middleware(cfg.Auth),
		})

		// 5. 后台任务
		ctx, stop := context.WithCancel(context.Background())
		defer stop()
		ctr.Activator().Start(ctx)
		defer ctr.Activator().Stop()
		ctr.Collector().Start()
		defer ctr.Collector().Stop()

		if configPath != "" {
			watcher := config.NewConfigWatcher(cfg, configPath, logger)
			watcher.OnConfigChange(config.LogLevelUpdater(logger))
			if err := watcher.Start(); err != nil {
				logger.WithError(err).Warn("config hot reload disabled")
			} else {
				defer watcher.Stop()
			}
		}

		// 6. 启动服务器
		addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
		srv := &http.Server{
			Addr:              addr,
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		}

		serveErr := make(chan error, 1)
		go func() {
			logger.WithField("addr", addr).Info("server starting")
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				serveErr <- err
			}
			close(serveErr)
		}()

		// 等待中断信号
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		select {
		case <-quit:
		case err := <-serveErr:
			if err != nil {
				return fmt.Errorf("failed to start server: %w", err)
			}
		}

		logger.Info("shutting down server")

		// 优雅关闭
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server forced to shutdown: %w", err)
		}
		if err := api.ShutdownTracing(shutdownCtx); err != nil {
			logger.WithError(err).Warn("failed to flush traces")
		}

		logger.Info("server exited")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(serverCmd)

	// 服务器配置标志
	serverCmd.Flags().String("host", "0.0.0.0", "Server host")
	serverCmd.Flags().Int("port", 8080, "Server port")
}
