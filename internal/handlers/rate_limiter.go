package handlers

import (
	"strings"
	"sync"
	"time"
)

type rateLimiter interface {
	Allow(key string) bool
}

// simpleRateLimiter counts requests per caller inside a fixed window. It
// protects the public quote endpoint from scripted fee probing; state is
// in-process only, which is enough for a single API instance.
type simpleRateLimiter struct {
	limit  int
	window time.Duration
	clock  func() time.Time

	mu      sync.Mutex
	windows map[string]*callerWindow
	sweeps  int
}

type callerWindow struct {
	count   int
	startAt time.Time
}

// sweepEvery bounds how often expired caller windows are scanned away.
const sweepEvery = 64

func newSimpleRateLimiter(limit int, window time.Duration, clock func() time.Time) rateLimiter {
	if limit <= 0 || window <= 0 {
		return nil
	}
	if clock == nil {
		clock = time.Now
	}
	return &simpleRateLimiter{
		limit:   limit,
		window:  window,
		clock:   clock,
		windows: make(map[string]*callerWindow),
	}
}

func (l *simpleRateLimiter) Allow(key string) bool {
	if l == nil {
		return true
	}
	caller := strings.TrimSpace(key)
	if caller == "" {
		caller = "anonymous"
	}
	now := l.clock()

	l.mu.Lock()
	defer l.mu.Unlock()

	l.sweeps++
	if l.sweeps >= sweepEvery {
		l.sweeps = 0
		for k, w := range l.windows {
			if now.Sub(w.startAt) >= l.window {
				delete(l.windows, k)
			}
		}
	}

	w, ok := l.windows[caller]
	if !ok || now.Sub(w.startAt) >= l.window {
		l.windows[caller] = &callerWindow{count: 1, startAt: now}
		return true
	}
	if w.count >= l.limit {
		return false
	}
	w.count++
	return true
}
