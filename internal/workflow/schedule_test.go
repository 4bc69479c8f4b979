package workflow_test

import (
	"testing"
	"time"

	"github.com/kimjiwon0450/Front-HRHub-sub000/internal/workflow"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fixedScheduler 返回 "现在" 固定为参考时区 2025-03-03 hh:mm 的调度器
func fixedScheduler(hour, minute int) *workflow.Scheduler {
	s := workflow.NewScheduler(workflow.DefaultUTCOffsetHours, workflow.DefaultGranularity)
	now := time.Date(2025, 3, 3, hour, minute, 0, 0, s.Location)
	s.Now = func() time.Time { return now }
	return s
}

// TestScheduler_Resolve 测试 10:07 时 10:10 可以预约,10:05 和 10:00 被拒绝
func TestScheduler_Resolve(t *testing.T) {
	s := fixedScheduler(10, 7)

	instant, err := s.Resolve("2025-03-03", "10:10")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 3, 3, 1, 10, 0, 0, time.UTC), instant)
	assert.Equal(t, time.UTC, instant.Location())

	for _, clock := range []string{"10:05", "10:00"} {
		_, err := s.Resolve("2025-03-03", clock)
		assert.True(t, workflow.IsValidation(err), clock)
	}
}

// TestScheduler_Earliest 测试整点时最早可预约时间为下一个边界
func TestScheduler_Earliest(t *testing.T) {
	s := fixedScheduler(10, 0)
	assert.Equal(t, "2025-03-03 10:10", s.Format(s.Earliest()))

	_, err := s.Resolve("2025-03-03", "10:00")
	assert.Error(t, err)
	_, err = s.Resolve("2025-03-03", "10:10")
	assert.NoError(t, err)
}

// TestScheduler_Invalid 测试格式错误和非粒度边界
func TestScheduler_Invalid(t *testing.T) {
	s := fixedScheduler(10, 7)

	_, err := s.Resolve("", "")
	assert.True(t, workflow.IsValidation(err))
	_, err = s.Resolve("2025/03/03", "11:00")
	assert.True(t, workflow.IsValidation(err))
	_, err = s.Resolve("2025-03-03", "11:03")
	assert.True(t, workflow.IsValidation(err))
	assert.True(t, workflow.IsValidation(s.Validate(time.Time{})))
}

// TestScheduler_NextDay 测试跨日预约
func TestScheduler_NextDay(t *testing.T) {
	s := fixedScheduler(23, 55)
	instant, err := s.Resolve("2025-03-04", "00:00")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 3, 3, 15, 0, 0, 0, time.UTC), instant)
}
