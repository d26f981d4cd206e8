package server

import (
	"net"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const limiterIdleTTL = 10 * time.Minute

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// clientLimiter applies a token bucket per client address to login initiation.
type clientLimiter struct {
	mu        sync.Mutex
	perMinute int
	clients   map[string]*limiterEntry
	lastSweep time.Time
	nowTime   func() time.Time
}

// newClientLimiter returns nil when perMinute is not positive, which disables limiting.
func newClientLimiter(perMinute int, nowTime func() time.Time) *clientLimiter {
	if perMinute <= 0 {
		return nil
	}
	return &clientLimiter{
		perMinute: perMinute,
		clients:   make(map[string]*limiterEntry),
		nowTime:   nowTime,
	}
}

func (l *clientLimiter) allow(r *http.Request) bool {
	if l == nil {
		return true
	}
	now := l.nowTime()
	key := clientAddress(r)

	l.mu.Lock()
	defer l.mu.Unlock()

	l.sweep(now)
	entry, ok := l.clients[key]
	if !ok {
		entry = &limiterEntry{
			limiter: rate.NewLimiter(rate.Every(time.Minute/time.Duration(l.perMinute)), l.perMinute),
		}
		l.clients[key] = entry
	}
	entry.lastSeen = now
	return entry.limiter.AllowN(now, 1)
}

// sweep drops idle clients. Called with mu held.
func (l *clientLimiter) sweep(now time.Time) {
	if now.Sub(l.lastSweep) < time.Minute {
		return
	}
	l.lastSweep = now
	for key, entry := range l.clients {
		if now.Sub(entry.lastSeen) > limiterIdleTTL {
			delete(l.clients, key)
		}
	}
}

// clientAddress is the peer address. Forwarded headers are not trusted.
func clientAddress(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
