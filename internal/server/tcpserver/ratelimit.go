package tcpserver

import (
	"net"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// commandLimiter gates command execution on one connection.
type commandLimiter interface {
	Allow() bool
}

// ipLimiters holds one token bucket per client IP. Connections from
// the same IP share a bucket, so a client cannot raise its budget by
// opening more connections.
type ipLimiters struct {
	mu       sync.Mutex
	limiters map[string]*ipLimiter
	limit    rate.Limit
	burst    int
}

type ipLimiter struct {
	*rate.Limiter
	lastSeen time.Time
}

// staleAfter is how long an idle IP entry survives before pruning.
const staleAfter = 10 * time.Minute

func newIPLimiters(commandsPerSecond int) *ipLimiters {
	return &ipLimiters{
		limiters: make(map[string]*ipLimiter),
		limit:    rate.Limit(commandsPerSecond),
		burst:    commandsPerSecond,
	}
}

// forAddr returns the shared limiter for the address's IP, creating it
// on first sight. Stale entries are pruned opportunistically.
func (l *ipLimiters) forAddr(addr net.Addr) commandLimiter {
	ip := addr.String()
	if host, _, err := net.SplitHostPort(ip); err == nil {
		ip = host
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	lim, ok := l.limiters[ip]
	if !ok {
		if len(l.limiters) > 1024 {
			l.pruneLocked(now)
		}
		lim = &ipLimiter{Limiter: rate.NewLimiter(l.limit, l.burst)}
		l.limiters[ip] = lim
	}
	lim.lastSeen = now

	return lim
}

func (l *ipLimiters) pruneLocked(now time.Time) {
	for ip, lim := range l.limiters {
		if now.Sub(lim.lastSeen) > staleAfter {
			delete(l.limiters, ip)
		}
	}
}
