package bot

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// visitor holds one user's bucket and the last time it was used.
type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// Limiter is a per-user token bucket. Idle buckets are evicted after ttl
// during an opportunistic sweep every 5000 lookups.
//
// Safe for concurrent use.
type Limiter struct {
	rps   rate.Limit
	burst int
	ttl   time.Duration

	mu       sync.Mutex
	visitors map[int64]*visitor
	lookups  uint64
	now      func() time.Time
}

// NewLimiter returns a Limiter. A non-positive rps disables limiting;
// burst <= 0 is coerced to 1.
func NewLimiter(rps float64, burst int) *Limiter {
	if burst <= 0 {
		burst = 1
	}
	return &Limiter{
		rps:      rate.Limit(rps),
		burst:    burst,
		ttl:      10 * time.Minute,
		visitors: make(map[int64]*visitor),
		now:      time.Now,
	}
}

// Allow reports whether userID may be served now.
func (l *Limiter) Allow(userID int64) bool {
	if l == nil || l.rps <= 0 {
		return true
	}
	return l.get(userID).AllowN(l.now(), 1)
}

func (l *Limiter) get(userID int64) *rate.Limiter {
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	// Sweep before touching the requested entry so a stale bucket for this
	// user is replaced rather than refreshed.
	l.lookups++
	if l.lookups >= 5000 {
		for k, v := range l.visitors {
			if now.Sub(v.lastSeen) >= l.ttl {
				delete(l.visitors, k)
			}
		}
		l.lookups = 0
	}

	if v, ok := l.visitors[userID]; ok {
		v.lastSeen = now
		return v.limiter
	}
	lim := rate.NewLimiter(l.rps, l.burst)
	l.visitors[userID] = &visitor{limiter: lim, lastSeen: now}
	return lim
}

// Len reports how many buckets are tracked.
func (l *Limiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.visitors)
}
