// Package ratelimit implements a per-client sliding-window limiter.
//
// State is process-local and best-effort: it is lost on restart and is not
// shared between replicas.
package ratelimit

import (
	"sync"
	"time"

	"github.com/developia-II/feedback-analyzer-backend/internal/clock"
)

// Named limits applied by the HTTP layer.
const (
	TranslateLimit  = 30
	TranslateWindow = time.Minute
	FeedbackLimit   = 10
	FeedbackWindow  = time.Minute
)

type bucketKey struct {
	client  string
	limiter string
}

// Limiter admits at most limit calls per window for each (client, limiter)
// pair. Safe for concurrent use.
type Limiter struct {
	mu      sync.Mutex
	clock   clock.Clock
	buckets map[bucketKey][]time.Time
}

func New(c clock.Clock) *Limiter {
	if c == nil {
		c = clock.Real{}
	}
	return &Limiter{
		clock:   c,
		buckets: make(map[bucketKey][]time.Time),
	}
}

// Admit records a call for clientKey under limiterName and reports whether
// it is allowed. Rejected calls are not recorded.
func (l *Limiter) Admit(clientKey, limiterName string, limit int, window time.Duration) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.clock.Now()
	cutoff := now.Add(-window)
	key := bucketKey{client: clientKey, limiter: limiterName}

	stamps := l.buckets[key]
	kept := stamps[:0]
	for _, ts := range stamps {
		if !ts.Before(cutoff) {
			kept = append(kept, ts)
		}
	}

	if len(kept) >= limit {
		l.store(key, kept)
		return false
	}
	l.buckets[key] = append(kept, now)
	return true
}

func (l *Limiter) store(key bucketKey, stamps []time.Time) {
	if len(stamps) == 0 {
		delete(l.buckets, key)
		return
	}
	l.buckets[key] = stamps
}

// Reset forgets every recorded call.
func (l *Limiter) Reset() {
	l.mu.Lock()
	l.buckets = make(map[bucketKey][]time.Time)
	l.mu.Unlock()
}

// Len returns the number of tracked buckets.
func (l *Limiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.buckets)
}
