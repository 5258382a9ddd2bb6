package guard

import (
	"sync"
	"time"
)

type window struct {
	count int
	start time.Time
}

type identityWindows struct {
	minute   window
	hour     window
	lastSeen time.Time
}

// RateLimiter tracks per-identity request counts over fixed minute and hour
// windows. Windows are created lazily on first use and reset in place when
// their span elapses. Safe for concurrent use.
type RateLimiter struct {
	mu        sync.Mutex
	perMinute int
	perHour   int
	idents    map[string]*identityWindows
	now       func() time.Time
}

// NewRateLimiter creates a limiter allowing perMinute requests per rolling
// minute window and perHour per hour window, per identity.
func NewRateLimiter(perMinute, perHour int) *RateLimiter {
	return &RateLimiter{
		perMinute: perMinute,
		perHour:   perHour,
		idents:    make(map[string]*identityWindows),
		now:       time.Now,
	}
}

// Allow records one request for id and reports whether it stays within both
// thresholds. The request is counted even when rejected.
func (l *RateLimiter) Allow(id string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	iw, ok := l.idents[id]
	if !ok {
		iw = &identityWindows{
			minute: window{start: now},
			hour:   window{start: now},
		}
		l.idents[id] = iw
	}
	iw.lastSeen = now

	if now.Sub(iw.minute.start) >= time.Minute {
		iw.minute = window{start: now}
	}
	if now.Sub(iw.hour.start) >= time.Hour {
		iw.hour = window{start: now}
	}
	iw.minute.count++
	iw.hour.count++

	return iw.minute.count <= l.perMinute && iw.hour.count <= l.perHour
}

// Prune removes identities with no requests since the idle cutoff and
// reports how many were dropped.
func (l *RateLimiter) Prune(idle time.Duration) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	cutoff := l.now().Add(-idle)
	removed := 0
	for id, iw := range l.idents {
		if iw.lastSeen.Before(cutoff) {
			delete(l.idents, id)
			removed++
		}
	}
	return removed
}

// Len reports the number of tracked identities.
func (l *RateLimiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.idents)
}
