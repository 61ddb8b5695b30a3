package httpx

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

type keyLimiter struct {
	limiter *rate.Limiter
	last    time.Time
}

// Limiter hands out one token bucket per key, e.g. per user. Buckets idle
// for longer than idleAfter are dropped.
type Limiter struct {
	mu        sync.Mutex
	keys      map[string]*keyLimiter
	limit     rate.Limit
	burst     int
	idleAfter time.Duration
	swept     time.Time
}

// NewLimiter allows perMinute events per key, in bursts of up to perMinute.
func NewLimiter(perMinute int) *Limiter {
	if perMinute <= 0 {
		perMinute = 1
	}
	return &Limiter{
		keys:      map[string]*keyLimiter{},
		limit:     rate.Every(time.Minute / time.Duration(perMinute)),
		burst:     perMinute,
		idleAfter: 30 * time.Minute,
	}
}

func (l *Limiter) Allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	now := time.Now()
	if now.Sub(l.swept) > l.idleAfter {
		for k, kl := range l.keys {
			if now.Sub(kl.last) > l.idleAfter {
				delete(l.keys, k)
			}
		}
		l.swept = now
	}
	kl, ok := l.keys[key]
	if !ok {
		kl = &keyLimiter{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.keys[key] = kl
	}
	kl.last = now
	return kl.limiter.Allow()
}
