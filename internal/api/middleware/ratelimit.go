package middleware

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/render"
	"github.com/google/uuid"

	"github.com/alifh/alifh/internal/identity"
)

// Counter counts hits in a fixed window.
type Counter interface {
	Hit(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error)
}

// RateLimit allows limit requests per window for each caller. Signed-in
// callers are keyed by user id, everyone else by client address. Counter
// failures let the request through.
func RateLimit(counter Counter, limit int, window time.Duration, scope string) func(http.Handler) http.Handler {
	ceiling := int64(limit)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := "ratelimit:" + scope + ":" + callerKey(r)
			count, ttl, err := counter.Hit(r.Context(), key, window)
			if err != nil {
				slog.Warn("rate limiter unavailable", "key", key, "error", err)
				next.ServeHTTP(w, r)
				return
			}

			w.Header().Set("X-RateLimit-Limit", strconv.FormatInt(ceiling, 10))
			if count > ceiling {
				retry := int(ttl.Round(time.Second).Seconds())
				if retry < 1 {
					retry = 1
				}
				w.Header().Set("X-RateLimit-Remaining", "0")
				w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(time.Now().Add(ttl).Unix(), 10))
				w.Header().Set("Retry-After", strconv.Itoa(retry))

				render.Status(r, http.StatusTooManyRequests)
				render.JSON(w, r, map[string]any{
					"error":       "rate limit exceeded",
					"limit":       limit,
					"retry_after": retry,
				})
				return
			}

			w.Header().Set("X-RateLimit-Remaining", strconv.FormatInt(ceiling-count, 10))
			next.ServeHTTP(w, r)
		})
	}
}

func callerKey(r *http.Request) string {
	if id := identity.UserIDFromContext(r.Context()); id != uuid.Nil {
		return "user:" + id.String()
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	return "ip:" + host
}
