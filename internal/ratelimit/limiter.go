package ratelimit

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Limiter rate-limits requests per client key, each key with its own
// token bucket.
type Limiter struct {
	limit   rate.Limit
	burst   int
	idleTTL time.Duration
	enabled bool

	mu      sync.Mutex
	clients map[string]*client

	// Statistics
	totalRequests   int64
	blockedRequests int64
}

type client struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// Config holds rate limiter configuration.
type Config struct {
	Enabled           bool
	RequestsPerMinute int
	BurstSize         int
	IdleTTL           time.Duration // Forget clients idle for this long
}

// DefaultConfig returns the default rate limiter configuration.
func DefaultConfig() Config {
	return Config{
		Enabled:           true,
		RequestsPerMinute: 60,
		BurstSize:         10,
		IdleTTL:           10 * time.Minute,
	}
}

// NewLimiter creates a new rate limiter with the given configuration.
func NewLimiter(cfg Config) *Limiter {
	burst := cfg.BurstSize
	if burst < 1 {
		burst = 1
	}
	if cfg.IdleTTL <= 0 {
		cfg.IdleTTL = 10 * time.Minute
	}

	return &Limiter{
		limit:   rate.Limit(float64(cfg.RequestsPerMinute) / 60.0),
		burst:   burst,
		idleTTL: cfg.IdleTTL,
		enabled: cfg.Enabled && cfg.RequestsPerMinute > 0,
		clients: make(map[string]*client),
	}
}

// Allow reports whether a request from key may proceed now.
func (l *Limiter) Allow(key string) bool {
	if !l.enabled {
		return true
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	l.totalRequests++
	now := time.Now()
	c, ok := l.clients[key]
	if !ok {
		c = &client{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.clients[key] = c
	}
	c.lastSeen = now

	if !c.limiter.AllowN(now, 1) {
		l.blockedRequests++
		return false
	}
	return true
}

// Cleanup forgets clients that have been idle longer than the idle TTL and
// returns how many were removed.
func (l *Limiter) Cleanup() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	cutoff := time.Now().Add(-l.idleTTL)
	removed := 0
	for key, c := range l.clients {
		if c.lastSeen.Before(cutoff) {
			delete(l.clients, key)
			removed++
		}
	}
	return removed
}

// Stats holds rate limiter statistics.
type Stats struct {
	Enabled         bool  `json:"enabled"`
	Clients         int   `json:"clients"`
	TotalRequests   int64 `json:"total_requests"`
	BlockedRequests int64 `json:"blocked_requests"`
}

// Stats returns rate limiter statistics.
func (l *Limiter) Stats() Stats {
	l.mu.Lock()
	defer l.mu.Unlock()

	return Stats{
		Enabled:         l.enabled,
		Clients:         len(l.clients),
		TotalRequests:   l.totalRequests,
		BlockedRequests: l.blockedRequests,
	}
}
