package suggest

import "time"

// CancelFunc cancels a scheduled callback. Cancelling one that already
// fired or was already cancelled is a no-op.
type CancelFunc func()

// Scheduler defers a callback by a fixed interval. The engine debounces
// through this interface so tests can drive time by hand instead of
// sleeping. Implementations must not invoke fn before Schedule returns.
type Scheduler interface {
	Schedule(d time.Duration, fn func()) CancelFunc
}

// TimerScheduler schedules on real wall-clock timers.
type TimerScheduler struct{}

// Schedule runs fn after d on a timer goroutine.
func (TimerScheduler) Schedule(d time.Duration, fn func()) CancelFunc {
	t := time.AfterFunc(d, fn)
	return func() { t.Stop() }
}
