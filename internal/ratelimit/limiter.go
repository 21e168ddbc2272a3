// Package ratelimit implements sliding-window admission control keyed by
// client identity. Windows are pruned lazily on each check; there is no
// background sweeper.
package ratelimit

import (
	"sync"
	"time"
)

// Clock supplies the current time; tests inject a fake.
type Clock func() time.Time

type Config struct {
	// MaxRequests is the admission ceiling per trailing window. Zero or
	// negative disables limiting.
	MaxRequests int
	// Window is the trailing window length. Zero or negative disables
	// limiting.
	Window time.Duration
}

// Decision is the outcome of one admission check.
type Decision struct {
	Allowed    bool
	Remaining  int
	RetryAfter time.Duration
}

// Limiter tracks per-client request timestamps. Admission checks for the same
// client are linearized by a per-window mutex; different clients only contend
// on the brief registry lookup.
type Limiter struct {
	cfg   Config
	clock Clock

	mu      sync.Mutex
	clients map[string]*clientWindow
}

type clientWindow struct {
	mu   sync.Mutex
	hits []time.Time
}

func New(cfg Config, clock Clock) *Limiter {
	if clock == nil {
		clock = time.Now
	}
	return &Limiter{
		cfg:     cfg,
		clock:   clock,
		clients: make(map[string]*clientWindow),
	}
}

// Admit reports whether the client may proceed now. An admitted request is
// recorded; a rejected attempt is not, so hammering a closed window does not
// extend it.
func (l *Limiter) Admit(clientID string) Decision {
	if l.cfg.MaxRequests <= 0 || l.cfg.Window <= 0 {
		return Decision{Allowed: true}
	}

	window := l.window(clientID)
	now := l.clock()
	cutoff := now.Add(-l.cfg.Window)

	window.mu.Lock()
	defer window.mu.Unlock()

	kept := window.hits[:0]
	for _, hit := range window.hits {
		if !hit.Before(cutoff) {
			kept = append(kept, hit)
		}
	}
	window.hits = kept

	if len(window.hits) >= l.cfg.MaxRequests {
		retryAfter := l.cfg.Window - now.Sub(window.hits[0])
		if retryAfter < 0 {
			retryAfter = 0
		}
		return Decision{Allowed: false, RetryAfter: retryAfter}
	}

	window.hits = append(window.hits, now)
	return Decision{Allowed: true, Remaining: l.cfg.MaxRequests - len(window.hits)}
}

// Reset drops all recorded windows.
func (l *Limiter) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.clients = make(map[string]*clientWindow)
}

func (l *Limiter) window(clientID string) *clientWindow {
	l.mu.Lock()
	defer l.mu.Unlock()
	window, ok := l.clients[clientID]
	if !ok {
		window = &clientWindow{}
		l.clients[clientID] = window
	}
	return window
}
