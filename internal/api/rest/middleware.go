package rest

import (
	"log/slog"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/cardguard/cardguard-backend/internal/infrastructure/cache"
	"github.com/cardguard/cardguard-backend/internal/metrics"
)

// Middleware wraps an http.Handler
type Middleware func(http.Handler) http.Handler

// chain applies middlewares so the first listed runs outermost.
func chain(h http.Handler, middlewares ...Middleware) http.Handler {
	for i := len(middlewares) - 1; i >= 0; i-- {
		h = middlewares[i](h)
	}
	return h
}

// basicResponseWriter captures the status code for logging
type basicResponseWriter struct {
	http.ResponseWriter
	status  int
	written bool
}

func (w *basicResponseWriter) WriteHeader(status int) {
	if !w.written {
		w.status = status
		w.written = true
	}
	w.ResponseWriter.WriteHeader(status)
}

// loggingMiddleware logs all HTTP requests
func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		wrapped := &basicResponseWriter{ResponseWriter: w, status: 200}
		next.ServeHTTP(wrapped, r)

		slog.InfoContext(r.Context(), "http_request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", wrapped.status,
			"duration_ms", time.Since(start).Milliseconds(),
			"remote_addr", r.RemoteAddr,
		)
	})
}

// recoveryMiddleware recovers from panics and returns 500 errors
func recoveryMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				slog.ErrorContext(r.Context(), "panic recovered",
					"error", err,
					"stack", string(debug.Stack()),
					"path", r.URL.Path,
				)

				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusInternalServerError)
				w.Write([]byte(`{"error":{"code":"INTERNAL_ERROR","message":"An internal error occurred"}}`))
			}
		}()

		next.ServeHTTP(w, r)
	})
}

// metricsMiddleware records request duration and count.
func metricsMiddleware(registry *metrics.Registry) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if registry == nil {
				next.ServeHTTP(w, r)
				return
			}

			start := time.Now()
			wrapped := &basicResponseWriter{ResponseWriter: w, status: 200}
			next.ServeHTTP(wrapped, r)

			registry.RecordAPIRequest(r.Context(),
				float64(time.Since(start).Microseconds())/1000.0,
				r.Method, r.URL.Path, wrapped.status)
		})
	}
}

// rateLimitMiddleware rejects callers over the per-user request budget.
// The key is the authenticated user when present, the remote address
// otherwise.
func rateLimitMiddleware(limiter cache.RateLimiter, requestsPerMinute int) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if limiter == nil || requestsPerMinute <= 0 {
				next.ServeHTTP(w, r)
				return
			}

			key := r.RemoteAddr
			if userID, ok := UserIDFromContext(r.Context()); ok {
				key = userID.String()
			}

			allowed, err := limiter.Allow(r.Context(), key, requestsPerMinute, time.Minute)
			if err != nil {
				// Rate limiting is advisory; an unavailable limiter
				// must not take the API down with it.
				slog.WarnContext(r.Context(), "rate limiter unavailable", "error", err)
				next.ServeHTTP(w, r)
				return
			}
			if !allowed {
				w.Header().Set("Content-Type", "application/json")
				w.Header().Set("Retry-After", "60")
				w.WriteHeader(http.StatusTooManyRequests)
				w.Write([]byte(`{"error":{"code":"RATE_LIMIT_EXCEEDED","message":"Too many requests"}}`))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
