package history

import "time"

// Clock schedules the debounce timer. Tests substitute a manual clock.
type Clock interface {
	AfterFunc(d time.Duration, f func()) Timer
}

// Timer is a pending callback scheduled by a [Clock].
type Timer interface {
	Stop() bool
}

// SystemClock schedules callbacks with [time.AfterFunc].
type SystemClock struct{}

// AfterFunc implements [Clock].
func (SystemClock) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}
