package middleware

import (
	"net/http"
	"sync"
	"time"
)

type sendWindow struct {
	count    int
	lastSeen time.Time
}

// RateLimiter caps sends per authenticated user within a sliding window.
// Unauthenticated requests fall back to the remote address as the key.
type RateLimiter struct {
	mu      sync.Mutex
	windows map[string]*sendWindow
	limit   int
	window  time.Duration
}

func NewRateLimiter(limit int, window time.Duration) *RateLimiter {
	rl := &RateLimiter{
		windows: make(map[string]*sendWindow),
		limit:   limit,
		window:  window,
	}

	// Cleanup goroutine
	go func() {
		for {
			time.Sleep(window)
			rl.mu.Lock()
			for key, v := range rl.windows {
				if time.Since(v.lastSeen) > window {
					delete(rl.windows, key)
				}
			}
			rl.mu.Unlock()
		}
	}()

	return rl
}

func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := r.RemoteAddr
		if sess := GetSession(r.Context()); sess != nil {
			key = sess.UserID.String()
		}

		if !rl.allow(key) {
			writeError(w, http.StatusTooManyRequests, "RATE_LIMITED", "Too many requests. Please try again later.", r)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (rl *RateLimiter) allow(key string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	v, exists := rl.windows[key]
	if !exists || time.Since(v.lastSeen) > rl.window {
		rl.windows[key] = &sendWindow{count: 1, lastSeen: time.Now()}
		return true
	}

	v.count++
	v.lastSeen = time.Now()
	return v.count <= rl.limit
}
