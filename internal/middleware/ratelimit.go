package middleware

import (
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"
)

type bucket struct {
	count       int
	windowStart time.Time
}

// RateLimiter is a fixed-window per-address limiter sized for the auth
// endpoints: low limits, short windows, a small keyspace. Buckets are keyed
// on the client IP with the ephemeral port stripped, so a client that
// reconnects between attempts keeps draining the same bucket. RealIP runs
// earlier in the chain, so proxied requests are keyed on the originating
// address rather than the proxy's.
type RateLimiter struct {
	mu      sync.Mutex
	buckets map[string]*bucket
	limit   int
	window  time.Duration
}

func NewRateLimiter(limit int, window time.Duration) *RateLimiter {
	rl := &RateLimiter{
		buckets: make(map[string]*bucket),
		limit:   limit,
		window:  window,
	}
	go rl.cleanup()
	return rl
}

func (rl *RateLimiter) cleanup() {
	for {
		time.Sleep(rl.window)
		rl.mu.Lock()
		now := time.Now()
		for key, b := range rl.buckets {
			if now.Sub(b.windowStart) > rl.window {
				delete(rl.buckets, key)
			}
		}
		rl.mu.Unlock()
	}
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := clientIP(r)
		now := time.Now()

		rl.mu.Lock()
		b, ok := rl.buckets[key]
		if !ok || now.Sub(b.windowStart) >= rl.window {
			b = &bucket{windowStart: now}
			rl.buckets[key] = b
		}
		b.count++
		count := b.count
		retryAfter := b.windowStart.Add(rl.window).Sub(now)
		rl.mu.Unlock()

		if count > rl.limit {
			w.Header().Set("Retry-After", strconv.Itoa(int(retryAfter.Seconds())+1))
			writeError(w, http.StatusTooManyRequests, "RATE_LIMITED",
				"Too many attempts from this address. Wait a moment and try again.", r)
			return
		}

		next.ServeHTTP(w, r)
	})
}
