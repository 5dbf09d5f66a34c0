package middleware

import (
	"context"
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"storefront-catalog/pkg/logger"
	"storefront-catalog/pkg/utils"

	"golang.org/x/time/rate"
)

// Scope groups requests that share one token bucket per client.
type Scope string

const (
	// ScopeRead covers listings, categories and session snapshots.
	ScopeRead Scope = "read"
	// ScopeWrite covers session mutations; most of them trigger a catalog fetch.
	ScopeWrite Scope = "write"
)

// ScopeLimit is the sustained rate and burst of one scope.
type ScopeLimit struct {
	Limit rate.Limit
	Burst int
}

// RequestScope puts safe methods in the read scope and everything else in
// the write scope.
func RequestScope(r *http.Request) Scope {
	switch r.Method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return ScopeRead
	}
	return ScopeWrite
}

// ClientKey identifies the caller: the X-Client-ID header when present,
// otherwise the client IP.
func ClientKey(r *http.Request) string {
	if id := r.Header.Get("X-Client-ID"); id != "" {
		return "client:" + id
	}
	return "ip:" + getClientIP(r)
}

type client struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter keeps one token bucket per client and scope. Idle buckets are
// dropped after clientTTL. Requests in a scope without a limit pass through.
type RateLimiter struct {
	clients       map[string]*client
	mu            sync.Mutex
	scopes        map[Scope]ScopeLimit
	cleanupPeriod time.Duration
	clientTTL     time.Duration
	ctx           context.Context
	cancel        context.CancelFunc
}

// NewRateLimiter starts a limiter with background cleanup
// scopes: bucket settings per scope
// cleanupPeriod: how often to remove stale buckets
// clientTTL: how long before a bucket is considered stale
func NewRateLimiter(ctx context.Context, scopes map[Scope]ScopeLimit, cleanupPeriod, clientTTL time.Duration) *RateLimiter {
	rl := &RateLimiter{
		clients:       make(map[string]*client),
		scopes:        scopes,
		cleanupPeriod: cleanupPeriod,
		clientTTL:     clientTTL,
	}
	rl.ctx, rl.cancel = context.WithCancel(ctx)
	go rl.cleanupLoop()
	return rl
}

// Middleware returns the HTTP middleware handler
func (rl *RateLimiter) Middleware() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			scope := RequestScope(r)
			limit, ok := rl.scopes[scope]
			if !ok {
				next.ServeHTTP(w, r)
				return
			}

			key := ClientKey(r)
			if !rl.bucket(scope, key, limit).Allow() {
				logger.WithContext(r.Context()).Warn().
					Str("client", key).
					Str("scope", string(scope)).
					Str("path", r.URL.Path).
					Msg("rate limited")
				w.Header().Set("Retry-After", retryAfter(limit.Limit))
				utils.WriteError(w, http.StatusTooManyRequests, "Too Many Requests")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func (rl *RateLimiter) bucket(scope Scope, key string, limit ScopeLimit) *rate.Limiter {
	id := string(scope) + "|" + key

	rl.mu.Lock()
	defer rl.mu.Unlock()

	c, exists := rl.clients[id]
	if !exists {
		c = &client{limiter: rate.NewLimiter(limit.Limit, limit.Burst)}
		rl.clients[id] = c
	}
	c.lastSeen = time.Now()
	return c.limiter
}

// retryAfter is the wait for one token, in whole seconds and at least 1.
func retryAfter(limit rate.Limit) string {
	if limit <= 0 || limit == rate.Inf {
		return "1"
	}
	secs := int(math.Ceil(1 / float64(limit)))
	return strconv.Itoa(max(secs, 1))
}

// cleanupLoop drops stale buckets until the limiter is shut down
func (rl *RateLimiter) cleanupLoop() {
	ticker := time.NewTicker(rl.cleanupPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if n := rl.cleanup(); n > 0 {
				logger.Debug().Int("removed", n).Msg("rate limiter cleanup")
			}
		case <-rl.ctx.Done():
			return
		}
	}
}

func (rl *RateLimiter) cleanup() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	removed := 0
	for id, c := range rl.clients {
		if time.Since(c.lastSeen) > rl.clientTTL {
			delete(rl.clients, id)
			removed++
		}
	}
	return removed
}

// Shutdown stops the cleanup goroutine
func (rl *RateLimiter) Shutdown() {
	rl.cancel()
}
