package gateway

import (
	"context"
	"net"
	"sync"
	"time"
)

const (
	authWindow   = 5 * time.Minute
	authMaxFails = 10
	authMaxHosts = 10000
)

// authLimiter blocks a host after authMaxFails failed authorizations inside
// a sliding window. The turn API and the WebSocket handshake share one.
type authLimiter struct {
	mu       sync.Mutex
	window   time.Duration
	maxFails int
	maxHosts int
	now      func() time.Time
	failures map[string][]time.Time // host -> failure times, oldest first
}

func newAuthLimiter() *authLimiter {
	return &authLimiter{
		window:   authWindow,
		maxFails: authMaxFails,
		maxHosts: authMaxHosts,
		now:      time.Now,
		failures: make(map[string][]time.Time),
	}
}

// hostOf strips the port from a remote address.
func hostOf(remoteAddr string) string {
	if host, _, err := net.SplitHostPort(remoteAddr); err == nil {
		return host
	}
	return remoteAddr
}

// allow reports whether remoteAddr may try to authenticate.
func (l *authLimiter) allow(remoteAddr string) bool {
	host := hostOf(remoteAddr)
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.recentLocked(host, l.now())) < l.maxFails
}

// fail records one failed authorization from remoteAddr.
func (l *authLimiter) fail(remoteAddr string) {
	host := hostOf(remoteAddr)
	now := l.now()
	l.mu.Lock()
	defer l.mu.Unlock()

	recent := l.recentLocked(host, now)
	if recent == nil && len(l.failures) >= l.maxHosts {
		l.pruneLocked(now)
		if len(l.failures) >= l.maxHosts {
			l.evictLocked()
		}
	}
	l.failures[host] = append(recent, now)
}

// recentLocked drops host failures older than the window and returns the
// rest. A host left with none is forgotten.
func (l *authLimiter) recentLocked(host string, now time.Time) []time.Time {
	times := l.failures[host]
	cutoff := now.Add(-l.window)
	i := 0
	for i < len(times) && !times[i].After(cutoff) {
		i++
	}
	if i == len(times) {
		delete(l.failures, host)
		return nil
	}
	times = times[i:]
	l.failures[host] = times
	return times
}

func (l *authLimiter) pruneLocked(now time.Time) {
	for host := range l.failures {
		l.recentLocked(host, now)
	}
}

// evictLocked forgets the host whose last failure is oldest.
func (l *authLimiter) evictLocked() {
	var victim string
	var last time.Time
	for host, times := range l.failures {
		t := times[len(times)-1]
		if victim == "" || t.Before(last) {
			victim, last = host, t
		}
	}
	delete(l.failures, victim)
}

// prune expires stale entries and returns the number of tracked hosts.
func (l *authLimiter) prune() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.pruneLocked(l.now())
	return len(l.failures)
}

// run prunes every interval until ctx is done.
func (l *authLimiter) run(ctx context.Context, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			l.prune()
		}
	}
}
