package api

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"runtime/debug"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"
)

func recoverMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func(ctx context.Context) {
			if err := recover(); err != nil {
				slog.ErrorContext(
					ctx,
					"recovered from panic",
					"error",
					err,
					"stack",
					string(debug.Stack()),
				)

				respondFail(w, http.StatusInternalServerError, nil, "internal server error")
			}
		}(r.Context())

		next.ServeHTTP(w, r)
	})
}

type statusRecorder struct {
	http.ResponseWriter

	status int
}

func (rec *statusRecorder) WriteHeader(statusCode int) {
	rec.status = statusCode
	rec.ResponseWriter.WriteHeader(statusCode)
}

func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		start := time.Now()

		next.ServeHTTP(rec, r)

		slog.InfoContext(
			r.Context(),
			"request handled",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration", time.Since(start),
		)
	})
}

// rateLimitMiddleware throttles mutating requests per client IP. Safe
// methods pass through untouched.
func (h *Handler) rateLimitMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet, http.MethodHead, http.MethodOptions:
			next.ServeHTTP(w, r)

			return
		}

		if !h.limiterFor(clientIP(r)).Allow() {
			respondFail(w, http.StatusTooManyRequests, nil, "too many requests")

			return
		}

		next.ServeHTTP(w, r)
	})
}

func (h *Handler) limiterFor(ip string) *rate.Limiter {
	if cached, found := h.limiters.Get(ip); found {
		if limiter, ok := cached.(*rate.Limiter); ok {
			return limiter
		}
	}

	limiter := rate.NewLimiter(h.writeRate, h.writeBurst)
	h.limiters.Set(ip, limiter, gocache.DefaultExpiration)

	return limiter
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}

	return host
}
