package data

import "time"

// TimeProvider supplies the created_at and updated_at stamps written by RoleRepo.
type TimeProvider interface {
	Now() time.Time
}

// RealTimeProvider reads the system clock.
type RealTimeProvider struct{}

func (*RealTimeProvider) Now() time.Time { return time.Now() }

// FixedTimeProvider is a manual clock for repository tests.
type FixedTimeProvider struct {
	now time.Time
}

// NewFixedTimeProvider starts the clock at t.
func NewFixedTimeProvider(t time.Time) *FixedTimeProvider {
	return &FixedTimeProvider{now: t}
}

func (f *FixedTimeProvider) Now() time.Time { return f.now }

// AddTime moves the clock forward by d.
func (f *FixedTimeProvider) AddTime(d time.Duration) {
	f.now = f.now.Add(d)
}
