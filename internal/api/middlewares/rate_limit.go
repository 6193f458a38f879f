package middlewares

import (
	"net"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/babylonchain/asset-staking-service/internal/config"
	"github.com/babylonchain/asset-staking-service/internal/types"
)

// Limiters of clients that sent nothing for this long are dropped.
const idleLimiterTTL = 5 * time.Minute

// ErrorWriter answers a rejected request.
type ErrorWriter func(w http.ResponseWriter, r *http.Request, err *types.Error)

// RateLimitMiddleware limits requests per client address with a token bucket.
// A rate of 0 disables it.
func RateLimitMiddleware(cfg *config.Config, writeError ErrorWriter) func(http.Handler) http.Handler {
	if cfg.Server.RateLimit <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}
	limiters := newClientLimiters(rate.Limit(cfg.Server.RateLimit), cfg.Server.RateLimitBurst, time.Now)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiters.get(clientAddress(r)).Allow() {
				writeError(w, r, types.NewTooManyRequestsError("too many requests, slow down"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

type clientLimiters struct {
	mu        sync.Mutex
	limit     rate.Limit
	burst     int
	now       func() time.Time
	lastSweep time.Time
	limiters  map[string]*clientLimiter
}

func newClientLimiters(limit rate.Limit, burst int, now func() time.Time) *clientLimiters {
	return &clientLimiters{
		limit:     limit,
		burst:     burst,
		now:       now,
		lastSweep: now(),
		limiters:  make(map[string]*clientLimiter),
	}
}

func (c *clientLimiters) get(client string) *rate.Limiter {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	if now.Sub(c.lastSweep) >= idleLimiterTTL {
		c.sweep(now)
	}
	entry, ok := c.limiters[client]
	if !ok {
		entry = &clientLimiter{limiter: rate.NewLimiter(c.limit, c.burst)}
		c.limiters[client] = entry
	}
	entry.lastSeen = now
	return entry.limiter
}

func (c *clientLimiters) sweep(now time.Time) {
	for client, entry := range c.limiters {
		if now.Sub(entry.lastSeen) >= idleLimiterTTL {
			delete(c.limiters, client)
		}
	}
	c.lastSweep = now
}

func clientAddress(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
