package httpmiddleware

import (
	"net/http"

	"tiben-mcp/backend/go/internal/models"
	"tiben-mcp/backend/go/pkg/logger"
	"tiben-mcp/backend/go/pkg/ratelimiter"
)

// RateLimit is a middleware that rejects requests with 429 once the limiter runs dry.
func RateLimit(limiter ratelimiter.RateLimiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiter.Allow() {
				http.Error(w, "Too Many Requests", http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequestLog logs every inbound request at debug level.
func RequestLog(log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			log.WithRequest(models.RequestInfo{
				Method:     r.Method,
				Path:       r.URL.Path,
				RemoteAddr: r.RemoteAddr,
				UserAgent:  r.UserAgent(),
			}).Debug("inbound request")
			next.ServeHTTP(w, r)
		})
	}
}
