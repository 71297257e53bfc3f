package transcript

import (
	"net"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// clientIdleTimeout is how long a client is remembered after its last request.
const clientIdleTimeout = 10 * time.Minute

type client struct {
	limiter *rate.Limiter
	seen    time.Time
}

// Limiter rate limits requests per client address.
type Limiter struct {
	limit rate.Limit
	burst int
	now   func() time.Time

	mut       sync.Mutex
	clients   map[string]*client
	lastPrune time.Time
}

// NewLimiter creates a Limiter giving every client its own token bucket.
func NewLimiter(limit rate.Limit, burst int) *Limiter {
	return &Limiter{
		limit:   limit,
		burst:   burst,
		now:     time.Now,
		clients: make(map[string]*client),
	}
}

// Allow reports whether the client at addr may make a request now. The port of addr is ignored.
func (l *Limiter) Allow(addr string) bool {
	host := clientHost(addr)
	now := l.now()

	l.mut.Lock()
	defer l.mut.Unlock()

	if now.Sub(l.lastPrune) > clientIdleTimeout {
		l.prune(now)
	}

	c, ok := l.clients[host]
	if !ok {
		c = &client{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.clients[host] = c
	}
	c.seen = now
	return c.limiter.AllowN(now, 1)
}

// prune must be called with the lock held.
func (l *Limiter) prune(now time.Time) {
	for host, c := range l.clients {
		if now.Sub(c.seen) > clientIdleTimeout {
			delete(l.clients, host)
		}
	}
	l.lastPrune = now
}

func clientHost(addr string) string {
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		return addr
	}
	return host
}
