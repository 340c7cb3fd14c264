package ratelimit

import (
	"sync"
	"time"
)

// Limiter enforces a sliding-window upload quota per client identifier.
// The window slides with each check; it is not aligned to clock buckets.
//
// The client map is never shrunk: a long-idle client's timestamps are pruned
// the next time that client shows up, but the entry itself stays. Memory
// therefore grows with the number of distinct clients ever seen.
type Limiter struct {
	mu      sync.Mutex
	windows map[string][]time.Time
	max     int
	window  time.Duration
}

// New creates a limiter admitting at most max events per client within window.
func New(max int, window time.Duration) *Limiter {
	return &Limiter{
		windows: make(map[string][]time.Time),
		max:     max,
		window:  window,
	}
}

// Allow reports whether the client may proceed at instant now, and records
// the event if so. Check and record happen under one lock, so two concurrent
// requests cannot both claim the last remaining slot.
func (l *Limiter) Allow(clientID string, now time.Time) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	cutoff := now.Add(-l.window)

	// Drop events that have slid out of the window
	recent := l.windows[clientID][:0]
	for _, t := range l.windows[clientID] {
		if t.After(cutoff) {
			recent = append(recent, t)
		}
	}

	if len(recent) >= l.max {
		l.windows[clientID] = recent
		return false
	}

	l.windows[clientID] = append(recent, now)
	return true
}

// Tracked returns the number of distinct clients currently held in memory.
func (l *Limiter) Tracked() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.windows)
}
