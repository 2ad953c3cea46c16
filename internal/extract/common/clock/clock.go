package clock

import "time"

// Clock supplies the current time. Manifest timestamps and run durations go
// through it so tests can pin them.
type Clock interface {
	Now() time.Time
}

type RealClock struct{}

func (c RealClock) Now() time.Time {
	return time.Now()
}

// MockClock is a manually advanced Clock for tests.
type MockClock struct {
	CurrentTime time.Time
}

// NewMockClock returns a MockClock pinned at t.
func NewMockClock(t time.Time) *MockClock {
	return &MockClock{CurrentTime: t}
}

func (c *MockClock) Now() time.Time {
	return c.CurrentTime
}

func (c *MockClock) Advance(d time.Duration) {
	c.CurrentTime = c.CurrentTime.Add(d)
}
