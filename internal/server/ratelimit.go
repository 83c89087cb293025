package server

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// DefaultLimiterIdle is how long a client's bucket survives without a
// command before it is evicted.
const DefaultLimiterIdle = time.Minute

type clientBucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// ClientLimiter hands out one token bucket per client address. Buckets idle
// for longer than the idle period are evicted on later calls.
type ClientLimiter struct {
	clients   map[string]*clientBucket
	mu        sync.Mutex
	r         rate.Limit
	b         int
	idle      time.Duration
	lastSweep time.Time
	now       func() time.Time
}

func NewClientLimiter(r rate.Limit, b int) *ClientLimiter {
	idle := DefaultLimiterIdle
	// an evicted bucket must come back no fuller than it would have refilled
	if r > 0 {
		if refill := time.Duration(float64(b) / float64(r) * float64(time.Second)); refill > idle {
			idle = refill
		}
	}
	return &ClientLimiter{
		clients: make(map[string]*clientBucket),
		r:       r,
		b:       b,
		idle:    idle,
		now:     time.Now,
	}
}

func (l *ClientLimiter) GetLimiter(client string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	l.sweep(now)

	bucket, exists := l.clients[client]
	if !exists {
		bucket = &clientBucket{limiter: rate.NewLimiter(l.r, l.b)}
		l.clients[client] = bucket
	}
	bucket.lastSeen = now

	return bucket.limiter
}

// sweep drops idle buckets at most once per idle period. Callers hold mu.
func (l *ClientLimiter) sweep(now time.Time) {
	if now.Sub(l.lastSweep) < l.idle {
		return
	}
	l.lastSweep = now
	for client, bucket := range l.clients {
		if now.Sub(bucket.lastSeen) >= l.idle {
			delete(l.clients, client)
		}
	}
}

// Allow reports whether client may issue one more command now.
func (l *ClientLimiter) Allow(client string) bool {
	return l.GetLimiter(client).Allow()
}

// Forget drops a client's bucket once it disconnects.
func (l *ClientLimiter) Forget(client string) {
	l.mu.Lock()
	delete(l.clients, client)
	l.mu.Unlock()
}

// Len returns the number of tracked clients.
func (l *ClientLimiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.clients)
}
