package middleware

import (
	"net/http"
	"strconv"

	"github.com/AnshRaj112/diary-backend/internal/services"
	"github.com/AnshRaj112/diary-backend/pkg/clientip"
	"golang.org/x/time/rate"
)

// Entry write limits. Signed-in users are keyed by user id, so one account
// cannot spread writes over many addresses. Auth: 30/min burst 20.
// Anonymous: 10/min burst 5.
const (
	writeAuthRPS    = 0.5
	writeAuthBurst  = 20
	writeAnonRPS    = 0.17
	writeAnonBurst  = 5
	writeLimitScope = "write:"
)

// WriteLimiter throttles entry creation and deletion.
type WriteLimiter struct {
	auth *IPLimiter
	anon *IPLimiter
}

// NewWriteLimiter creates a limiter with the default write limits.
func NewWriteLimiter() *WriteLimiter {
	return &WriteLimiter{
		auth: NewIPLimiter(rate.Limit(writeAuthRPS), writeAuthBurst),
		anon: NewIPLimiter(rate.Limit(writeAnonRPS), writeAnonBurst),
	}
}

// Middleware returns 429 with rate limit headers once the caller's bucket is empty.
// It must run after Authenticate.
func (l *WriteLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		limiter, key, limit := l.anon, "anon:"+clientip.RealClientIP(r), writeAnonBurst
		if p, ok := services.PrincipalFromContext(r.Context()); ok {
			limiter, key, limit = l.auth, "user:"+p.UserID, writeAuthBurst
		}

		w.Header().Set("X-RateLimit-Limit", strconv.Itoa(limit))
		if !limiter.Allow(writeLimitScope + key) {
			w.Header().Set("Content-Type", "application/json")
			w.Header().Set("X-RateLimit-Remaining", "0")
			w.WriteHeader(http.StatusTooManyRequests)
			w.Write([]byte(`{"success":false,"message":"Too many entry changes. Please slow down."}`))
			return
		}
		next.ServeHTTP(w, r)
	})
}
