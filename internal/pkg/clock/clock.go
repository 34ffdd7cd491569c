package clock

import "time"

// Clock is the time source used wherever "today" matters
type Clock interface {
	Now() time.Time
}

// RealClock reads the system time
type RealClock struct{}

// NewRealClock creates a new RealClock
func NewRealClock() Clock {
	return RealClock{}
}

// Now returns the current system time
func (RealClock) Now() time.Time {
	return time.Now()
}

// MockClock is a settable clock for tests
type MockClock struct {
	current time.Time
}

// NewMockClock creates a MockClock frozen at t
func NewMockClock(t time.Time) *MockClock {
	return &MockClock{current: t}
}

func (m *MockClock) Now() time.Time {
	return m.current
}

// Set moves the clock to t
func (m *MockClock) Set(t time.Time) {
	m.current = t
}

// Advance moves the clock forward by d
func (m *MockClock) Advance(d time.Duration) {
	m.current = m.current.Add(d)
}

// Day truncates t to its calendar day in loc, returned as midnight UTC so
// that days from different zones compare by date alone.
func Day(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
