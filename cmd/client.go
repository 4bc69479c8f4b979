package cmd

import (
	"encoding/json"
	"fmt"
	"mime"
	"os"
	"path/filepath"

	"github.com/kimjiwon0450/Front-HRHub-sub000/internal/api"
	"github.com/kimjiwon0450/Front-HRHub-sub000/internal/client"
	"github.com/kimjiwon0450/Front-HRHub-sub000/internal/config"
	"github.com/kimjiwon0450/Front-HRHub-sub000/internal/engine"
	"github.com/kimjiwon0450/Front-HRHub-sub000/internal/workflow"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// clientFlags 客户端子命令共用的连接参数
type clientFlags struct {
	server   string
	employee string
	name     string
	token    string
}

var clientOpts clientFlags

func addClientFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().StringVar(&clientOpts.server, "server", "", "API base URL (default: client.base_url)")
	cmd.PersistentFlags().StringVar(&clientOpts.employee, "employee", "", "Employee ID sent in header auth mode")
	cmd.PersistentFlags().StringVar(&clientOpts.name, "name", "", "Employee display name")
	cmd.PersistentFlags().StringVar(&clientOpts.token, "token", "", "Bearer token for keycloak auth mode")
}

// newEngine 按配置和命令行参数创建客户端引擎
func newEngine() (*engine.Engine, *config.Config, error) {
	cfg, err := LoadConfig()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}
	cc, err := clientConfig(cfg)
	if err != nil {
		return nil, nil, err
	}

	logger, err := api.NewLoggerFromConfig(&cfg.Log)
	if err != nil {
		return nil, nil, err
	}
	// 客户端日志写到 stderr,stdout 只输出结果
	logger.SetOutput(os.Stderr)
	api.SetLogger(logger)

	c := client.New(cc, client.WithLogger(logger))
	e := engine.New(c, c.Session(), engine.Config{
		Scheduler:        workflow.NewScheduler(cfg.Scheduler.UTCOffsetHours, cfg.Scheduler.Granularity()),
		MaxResubmissions: cfg.Workflow.MaxResubmissions,
		Logger:           logger.WithField("component", "cli"),
	})
	return e, cfg, nil
}

// clientConfig 合并配置文件和命令行中的连接参数
func clientConfig(cfg *config.Config) (config.ClientConfig, error) {
	cc := cfg.Client
	if clientOpts.server != "" {
		cc.BaseURL = clientOpts.server
	}
	if clientOpts.employee != "" {
		cc.EmployeeID = clientOpts.employee
	}
	if clientOpts.name != "" {
		cc.Name = clientOpts.name
	}
	if clientOpts.token != "" {
		cc.Token = clientOpts.token
	}
	if cc.BaseURL == "" {
		return cc, fmt.Errorf("no server configured, set client.base_url or --server")
	}
	return cc, nil
}

// readDraft 从 JSON 文件读取报告内容,path 为 "-" 时读标准输入
func readDraft(path string) (workflow.Draft, error) {
	var d workflow.Draft
	f := os.Stdin
	if path != "-" {
		var err error
		f, err = os.Open(path)
		if err != nil {
			return d, err
		}
		defer f.Close()
	}
	if err := json.NewDecoder(f).Decode(&d); err != nil {
		return d, fmt.Errorf("invalid draft file %s: %w", path, err)
	}
	return d, nil
}

// openFiles 打开待上传的附件,返回的 closer 负责关闭全部文件
func openFiles(paths []string) ([]client.File, func(), error) {
	var opened []*os.File
	closeAll := func() {
		for _, f := range opened {
			f.Close()
		}
	}
	files := make([]client.File, 0, len(paths))
	for _, p := range paths {
		f, err := os.Open(p)
		if err != nil {
			closeAll()
			return nil, nil, err
		}
		opened = append(opened, f)
		files = append(files, client.File{
			Name:        filepath.Base(p),
			ContentType: mime.TypeByExtension(filepath.Ext(p)),
			Reader:      f,
		})
	}
	return files, closeAll, nil
}

// printJSON 以缩进 JSON 输出结果
func printJSON(cmd *cobra.Command, v interface{}) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// logDoc 记录操作后的文档状态
func logDoc(action string, doc *workflow.ReportDocument) {
	if doc == nil {
		return
	}
	api.GetLogger().WithFields(logrus.Fields{
		"action":    action,
		"report_id": doc.ID,
		"status":    doc.Status,
		"version":   doc.Version,
	}).Debug("report updated")
}
