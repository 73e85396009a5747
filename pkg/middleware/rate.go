// Package middleware provides the HTTP middleware chain for GiftBid.
package middleware

import (
	"net/http"
	"sync"
	"time"
)

// visitor holds the fixed-window counter for a single client IP.
type visitor struct {
	mu       sync.Mutex
	hits     int
	windowAt time.Time
}

// take consumes one slot in the current window, rolling the window forward
// once it has elapsed. Reports whether the request still fits.
func (v *visitor) take(max int, window time.Duration) bool {
	v.mu.Lock()
	defer v.mu.Unlock()

	if now := time.Now(); now.After(v.windowAt) {
		v.hits = 0
		v.windowAt = now.Add(window)
	}
	v.hits++
	return v.hits <= max
}

// limiter tracks per-IP visitors and evicts stale ones in the background.
type limiter struct {
	mu       sync.Mutex
	visitors map[string]*visitor
}

func newLimiter() *limiter {
	l := &limiter{visitors: map[string]*visitor{}}
	go l.evictLoop()
	return l
}

func (l *limiter) visitor(ip string) *visitor {
	l.mu.Lock()
	defer l.mu.Unlock()

	v, ok := l.visitors[ip]
	if !ok {
		v = &visitor{windowAt: time.Now().Add(time.Minute)}
		l.visitors[ip] = v
	}
	return v
}

// evictLoop drops visitors whose window has expired so the map cannot grow
// without bound on a long-running server.
func (l *limiter) evictLoop() {
	for range time.Tick(time.Minute) {
		now := time.Now()
		l.mu.Lock()
		for ip, v := range l.visitors {
			v.mu.Lock()
			stale := now.After(v.windowAt)
			v.mu.Unlock()
			if stale {
				delete(l.visitors, ip)
			}
		}
		l.mu.Unlock()
	}
}

func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		return fwd
	}
	return r.RemoteAddr
}

// RateLimit caps each client IP at max requests per window. GiftBid mounts it
// on the public contact relay, which would otherwise be an open mail gateway.
//
//	api.Post("/contact", "contact", ctl.Contact, middleware.RateLimit(10, time.Minute))
func RateLimit(max int, window time.Duration) func(http.Handler) http.Handler {
	l := newLimiter()
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !l.visitor(clientIP(r)).take(max, window) {
				http.Error(w, `{"status":429,"message":"Too Many Requests"}`, http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
