package api

import (
	"net/http"
	"sync"

	"golang.org/x/time/rate"
)

// Limiter keeps one token bucket per principal.
type Limiter struct {
	mu      sync.Mutex
	buckets map[string]*rate.Limiter
	limit   rate.Limit
	burst   int
}

func NewLimiter(limit rate.Limit, burst int) *Limiter {
	return &Limiter{buckets: map[string]*rate.Limiter{}, limit: limit, burst: burst}
}

func (l *Limiter) Allow(key string) bool {

	l.mu.Lock()
	b, ok := l.buckets[key]
	if !ok {
		b = rate.NewLimiter(l.limit, l.burst)
		l.buckets[key] = b
	}
	l.mu.Unlock()

	return b.Allow()

}

// RateLimit rejects requests once the session's bucket is empty. It must run
// inside AuthMiddleware.
func (h *Handler) RateLimit(l *Limiter, f http.HandlerFunc) http.HandlerFunc {

	return func(w http.ResponseWriter, r *http.Request) {
		session, ok := SessionFrom(r.Context())
		if l != nil && ok && !l.Allow(session.Uid) {
			h.Res(&ResParams{W: w, R: r, Code: http.StatusTooManyRequests, ResData: Flag("rateLimited")})
			return
		}
		f(w, r)
	}

}
