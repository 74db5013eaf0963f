package httpapi

import (
	"sync"

	"golang.org/x/time/rate"
)

// loginLimiter throttles login attempts per username+IP pair, so one noisy
// address cannot lock a user out and one username cannot be brute-forced
// from many addresses at full speed.
type loginLimiter struct {
	mu       sync.Mutex
	perMin   rate.Limit
	burst    int
	limiters map[string]*rate.Limiter
}

func newLoginLimiter(perMinute, burst int) *loginLimiter {
	return &loginLimiter{
		perMin:   rate.Limit(float64(perMinute) / 60.0),
		burst:    burst,
		limiters: make(map[string]*rate.Limiter),
	}
}

func (l *loginLimiter) Allow(key string) bool {
	l.mu.Lock()
	lim, ok := l.limiters[key]
	if !ok {
		lim = rate.NewLimiter(l.perMin, l.burst)
		l.limiters[key] = lim
	}
	l.mu.Unlock()
	return lim.Allow()
}
