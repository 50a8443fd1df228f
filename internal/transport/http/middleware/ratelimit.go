package middleware

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

type keyedEntry struct {
	lim      *rate.Limiter
	lastSeen time.Time
}

// KeyedLimiter keeps one token bucket per key, e.g. per (channel, sender).
// Buckets idle for longer than the idle window are swept.
type KeyedLimiter struct {
	mu        sync.Mutex
	m         map[string]*keyedEntry
	r         rate.Limit
	b         int
	idle      time.Duration
	lastSweep time.Time
	now       func() time.Time
}

func NewKeyedLimiter(perSecond float64, burst int, idle time.Duration) *KeyedLimiter {
	return &KeyedLimiter{
		m:    make(map[string]*keyedEntry),
		r:    rate.Limit(perSecond),
		b:    burst,
		idle: idle,
		now:  time.Now,
	}
}

// Allow reports whether one more event for key fits in its bucket right now.
func (kl *KeyedLimiter) Allow(key string) bool {
	kl.mu.Lock()
	defer kl.mu.Unlock()

	now := kl.now()
	if now.Sub(kl.lastSweep) >= kl.idle {
		kl.sweep(now)
	}

	e, ok := kl.m[key]
	if !ok {
		e = &keyedEntry{lim: rate.NewLimiter(kl.r, kl.b)}
		kl.m[key] = e
	}
	e.lastSeen = now
	return e.lim.AllowN(now, 1)
}

// Len returns the number of live buckets.
func (kl *KeyedLimiter) Len() int {
	kl.mu.Lock()
	defer kl.mu.Unlock()
	return len(kl.m)
}

// sweep drops buckets unused for the idle window. Such a bucket has refilled
// completely whenever idle >= burst/rate, so dropping it changes nothing.
func (kl *KeyedLimiter) sweep(now time.Time) {
	for key, e := range kl.m {
		if now.Sub(e.lastSeen) >= kl.idle {
			delete(kl.m, key)
		}
	}
	kl.lastSweep = now
}
