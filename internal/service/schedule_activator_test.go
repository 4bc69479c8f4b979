package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/kimjiwon0450/Front-HRHub-sub000/internal/service"
	"github.com/kimjiwon0450/Front-HRHub-sub000/internal/workflow"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestScheduleActivator_RunOnce 测试激活器按时钟激活到期报告
func TestScheduleActivator_RunOnce(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	req := reportRequest(approver1)
	req.ScheduledDate, req.ScheduledTime = "2024-03-04", "10:20"
	doc, err := f.reports.Schedule(ctx, writer, req, nil)
	require.NoError(t, err)

	activator := service.NewScheduleActivator(f.reports, time.Hour, f.logger)
	activator.SetClock(f.scheduler.Now)
	assert.Equal(t, time.Hour, activator.Interval())

	assert.Equal(t, 0, activator.RunOnce(ctx))

	f.advance(13 * time.Minute)
	assert.Equal(t, 1, activator.RunOnce(ctx))

	got, err := f.reports.Get(ctx, approver1, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, workflow.StatusInProgress, got.Status)
}

// TestScheduleActivator_StartStop 测试启动后立即检查一次,Stop 可重复调用
func TestScheduleActivator_StartStop(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	req := reportRequest(approver1)
	req.ScheduledDate, req.ScheduledTime = "2024-03-04", "10:10"
	doc, err := f.reports.Schedule(ctx, writer, req, nil)
	require.NoError(t, err)
	f.advance(5 * time.Minute)

	activator := service.NewScheduleActivator(f.reports, time.Hour, f.logger)
	activator.SetClock(f.scheduler.Now)
	activator.Start(ctx)

	assert.Eventually(t, func() bool {
		got, err := f.reports.Get(ctx, writer, doc.ID)
		return err == nil && got.Status == workflow.StatusInProgress
	}, 2*time.Second, 10*time.Millisecond)

	activator.Stop()
	activator.Stop()
}
