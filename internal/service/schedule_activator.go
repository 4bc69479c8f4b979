package service

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// ScheduleActivator 定期把到期的预约报告转为 IN_PROGRESS
type ScheduleActivator struct {
	reports  ReportService
	interval time.Duration
	now      func() time.Time
	logger   logrus.FieldLogger
	stopChan chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// NewScheduleActivator 创建预约激活器
func NewScheduleActivator(reports ReportService, interval time.Duration, logger logrus.FieldLogger) *ScheduleActivator {
	if interval <= 0 {
		interval = time.Minute
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &ScheduleActivator{
		reports:  reports,
		interval: interval,
		now:      time.Now,
		logger:   logger.WithField("component", "schedule_activator"),
		stopChan: make(chan struct{}),
	}
}

// Start 启动激活循环,启动时立即检查一次
func (a *ScheduleActivator) Start(ctx context.Context) {
	a.wg.Add(1)
	go a.run(ctx)
}

// Stop 停止激活循环并等待退出
func (a *ScheduleActivator) Stop() {
	a.stopOnce.Do(func() { close(a.stopChan) })
	a.wg.Wait()
}

// SetClock 替换时钟,与报告服务共用同一个 Scheduler 时钟
func (a *ScheduleActivator) SetClock(now func() time.Time) {
	if now != nil {
		a.now = now
	}
}

// Interval 获取检查间隔
func (a *ScheduleActivator) Interval() time.Duration {
	return a.interval
}

func (a *ScheduleActivator) run(ctx context.Context) {
	defer a.wg.Done()
	ticker := time.NewTicker(a.interval)
	defer ticker.Stop()

	a.RunOnce(ctx)

	for {
		select {
		case <-ticker.C:
			a.RunOnce(ctx)
		case <-a.stopChan:
			return
		case <-ctx.Done():
			return
		}
	}
}

// RunOnce 执行一次激活
func (a *ScheduleActivator) RunOnce(ctx context.Context) int {
	n, err := a.reports.ActivateDue(ctx, a.now())
	if err != nil {
		a.logger.WithError(err).Error("failed to activate scheduled reports")
	}
	if n > 0 {
		a.logger.WithField("count", n).Info("scheduled reports activated")
	}
	return n
}
