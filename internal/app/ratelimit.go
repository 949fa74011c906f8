package app

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const limiterIdleTimeout = 15 * time.Minute

type callerLimit struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// callerLimiter keeps one token bucket per caller. Buckets idle for longer
// than limiterIdleTimeout are dropped during the next sweep.
type callerLimiter struct {
	mu        sync.Mutex
	rps       float64
	burst     int
	callers   map[string]*callerLimit
	lastSweep time.Time
}

func newCallerLimiter(cfg RateLimitConfig) *callerLimiter {
	return &callerLimiter{
		rps:       cfg.RPS,
		burst:     cfg.Burst,
		callers:   make(map[string]*callerLimit),
		lastSweep: time.Now(),
	}
}

func (l *callerLimiter) Allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()

	if now.Sub(l.lastSweep) > limiterIdleTimeout {
		for k, c := range l.callers {
			if now.Sub(c.lastSeen) > limiterIdleTimeout {
				delete(l.callers, k)
			}
		}

		l.lastSweep = now
	}

	c, found := l.callers[key]
	if !found {
		c = &callerLimit{
			limiter: rate.NewLimiter(rate.Limit(l.rps), l.burst),
		}
		l.callers[key] = c
	}

	c.lastSeen = now

	return c.limiter.Allow()
}
