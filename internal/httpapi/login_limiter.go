package httpapi

import (
	"sync"
	"time"
)

// loginLimiter throttles credential-guessing endpoints (login, external
// sign-in, forgot-password). Keys are caller-chosen, e.g. "ip:1.2.3.4" or
// "forgot:email:a@b.c", so one limiter covers several dimensions.
type loginLimiter struct {
	mu      sync.Mutex
	window  time.Duration
	max     int
	entries map[string][]time.Time
}

func newLoginLimiter(window time.Duration, max int) *loginLimiter {
	return &loginLimiter{
		window:  window,
		max:     max,
		entries: make(map[string][]time.Time),
	}
}

func (l *loginLimiter) Allow(key string, now time.Time) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	cutoff := now.Add(-l.window)
	kept := l.entries[key][:0]
	for _, t := range l.entries[key] {
		if t.After(cutoff) {
			kept = append(kept, t)
		}
	}

	if len(kept) >= l.max {
		l.entries[key] = kept
		return false
	}

	l.entries[key] = append(kept, now)
	return true
}
