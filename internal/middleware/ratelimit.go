package middleware

import (
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"
)

// LoginLimiter throttles credential attempts per source address. Buckets
// live in a go-cache so idle addresses age out on their own.
type LoginLimiter struct {
	cache    *cache.Cache
	capacity int
	window   time.Duration
}

type tokenBucket struct {
	capacity   int
	tokens     int
	window     time.Duration
	lastRefill time.Time
	mu         sync.Mutex
}

func newTokenBucket(capacity int, window time.Duration) *tokenBucket {
	return &tokenBucket{
		capacity:   capacity,
		tokens:     capacity,
		window:     window,
		lastRefill: time.Now(),
	}
}

func (tb *tokenBucket) tryConsume() bool {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	if time.Since(tb.lastRefill) >= tb.window {
		tb.tokens = tb.capacity
		tb.lastRefill = time.Now()
	}

	if tb.tokens > 0 {
		tb.tokens--
		return true
	}
	return false
}

func NewLoginLimiter(attemptsPerMinute int) *LoginLimiter {
	return &LoginLimiter{
		cache:    cache.New(1*time.Hour, 2*time.Hour),
		capacity: attemptsPerMinute,
		window:   time.Minute,
	}
}

func (l *LoginLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		bucket := l.getOrCreateBucket(remoteHost(r))

		if !bucket.tryConsume() {
			w.Header().Set("Retry-After", fmt.Sprintf("%d", int(l.window.Seconds())))
			http.Error(w, "Too many login attempts", http.StatusTooManyRequests)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (l *LoginLimiter) getOrCreateBucket(host string) *tokenBucket {
	key := "login:" + host

	if cached, found := l.cache.Get(key); found {
		return cached.(*tokenBucket)
	}

	bucket := newTokenBucket(l.capacity, l.window)
	l.cache.Set(key, bucket, cache.DefaultExpiration)
	return bucket
}

func remoteHost(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
