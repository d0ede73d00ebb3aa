package scoring

import "time"

// Clock provides the current time, allowing tests to control time
type Clock interface {
	Now() time.Time
}

// RealClock uses the actual system time
type RealClock struct{}

func (RealClock) Now() time.Time {
	return time.Now()
}

// MockClock allows tests to set a specific time
type MockClock struct {
	CurrentTime time.Time
}

func (m *MockClock) Now() time.Time {
	return m.CurrentTime
}

// clock is the package-level clock, defaulting to real time
var clock Clock = RealClock{}

// SetClock sets the clock (used in tests)
func SetClock(c Clock) {
	clock = c
}

// ResetClock resets to the real clock
func ResetClock() {
	clock = RealClock{}
}
