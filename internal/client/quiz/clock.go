package quiz

import "time"

// Clock abstracts time for the quiz machine. The reconnect grace delay and
// the offline timeout both measure against it, so tests run on a fake.
type Clock interface {
	Now() time.Time
	AfterFunc(d time.Duration, fn func()) Timer
}

// Timer is the subset of time.Timer the machine uses.
type Timer interface {
	Stop() bool
}

// SystemClock is the production Clock backed by the time package.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

func (SystemClock) AfterFunc(d time.Duration, fn func()) Timer {
	return time.AfterFunc(d, fn)
}
