package workflow

import (
	"fmt"
	"strings"
	"time"
)

const (
	// DefaultUTCOffsetHours 预约时间的参考时区（UTC+9）
	DefaultUTCOffsetHours = 9
	// DefaultGranularity 预约时间粒度
	DefaultGranularity = 10 * time.Minute
	// ClockLayout 预约时刻格式
	ClockLayout = "15:04"
)

// Scheduler 把本地日期和时刻换算成绝对时间并校验
type Scheduler struct {
	Location    *time.Location
	Granularity time.Duration
	Now         func() time.Time
}

// NewScheduler 创建固定时区的调度器
func NewScheduler(offsetHours int, granularity time.Duration) *Scheduler {
	if granularity <= 0 {
		granularity = DefaultGranularity
	}
	return &Scheduler{
		Location:    time.FixedZone(zoneName(offsetHours), offsetHours*3600),
		Granularity: granularity,
		Now:         time.Now,
	}
}

func zoneName(offsetHours int) string {
	return fmt.Sprintf("UTC%+d", offsetHours)
}

func (s *Scheduler) now() time.Time {
	if s.Now == nil {
		return time.Now()
	}
	return s.Now()
}

// Earliest 最早可接受的预约时间：严格晚于当前时间的下一个粒度边界
func (s *Scheduler) Earliest() time.Time {
	now := s.now().In(s.Location)
	return now.Truncate(s.Granularity).Add(s.Granularity)
}

// Resolve 把参考时区的日期和时刻换算为 UTC 时间并校验
func (s *Scheduler) Resolve(date, clock string) (time.Time, error) {
	date, clock = strings.TrimSpace(date), strings.TrimSpace(clock)
	if date == "" || clock == "" {
		return time.Time{}, validationf("scheduledAt", "date and time are required")
	}
	local, err := time.ParseInLocation(DateLayout+" "+ClockLayout, date+" "+clock, s.Location)
	if err != nil {
		return time.Time{}, validationf("scheduledAt", "invalid date or time %q %q", date, clock)
	}
	if err := s.Validate(local); err != nil {
		return time.Time{}, err
	}
	return local.UTC(), nil
}

// Validate 校验预约时间在粒度边界上且不早于 Earliest
func (s *Scheduler) Validate(instant time.Time) error {
	if instant.IsZero() {
		return validationf("scheduledAt", "scheduled time is required")
	}
	local := instant.In(s.Location)
	if !local.Truncate(s.Granularity).Equal(local) {
		return validationf("scheduledAt", "scheduled time must be on a %s boundary", s.Granularity)
	}
	earliest := s.Earliest()
	if local.Before(earliest) {
		return validationf("scheduledAt", "scheduled time must be %s or later", earliest.Format(DateLayout+" "+ClockLayout))
	}
	return nil
}

// Format 以参考时区显示预约时间
func (s *Scheduler) Format(instant time.Time) string {
	return instant.In(s.Location).Format(DateLayout + " " + ClockLayout)
}
