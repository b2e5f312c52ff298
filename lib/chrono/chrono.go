package chrono

import "time"

// API abstracts wall-clock time and sleeping so protocol code that
// has to wait on slow vendor backends stays testable without real
// waiting.
type API interface {
	Now() time.Time
	Sleep(d time.Duration)
}

type StandardImpl struct{}

func (StandardImpl) Now() time.Time {
	return time.Now()
}

func (StandardImpl) Sleep(d time.Duration) {
	time.Sleep(d)
}
