// Package server provides HTTP middleware shared by the search transports.
package server

import (
	"log/slog"
	"net/http"
	"strings"
	"time"
)

// CORSConfig holds CORS middleware configuration.
type CORSConfig struct {
	AllowedOrigins []string // empty = allow all (*)
}

// CORSMiddleware allows every origin.
func CORSMiddleware(next http.Handler) http.Handler {
	return CORSMiddlewareWithConfig(CORSConfig{}, next)
}

// CORSMiddlewareWithConfig adds CORS headers to responses.
// With an empty AllowedOrigins every origin is allowed with "*". Otherwise
// only listed origins receive headers and preflights from others get 403.
func CORSMiddlewareWithConfig(cfg CORSConfig, next http.Handler) http.Handler {
	allowAll := len(cfg.AllowedOrigins) == 0
	for _, o := range cfg.AllowedOrigins {
		if o == "*" {
			allowAll = true
		}
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")

		allowedOrigin := "*"
		if !allowAll {
			allowed := false
			for _, o := range cfg.AllowedOrigins {
				if strings.EqualFold(origin, o) {
					allowed = true
					allowedOrigin = origin
					break
				}
			}
			if !allowed {
				if r.Method == http.MethodOptions {
					w.WriteHeader(http.StatusForbidden)
					return
				}
				next.ServeHTTP(w, r)
				return
			}
			w.Header().Add("Vary", "Origin")
		}

		w.Header().Set("Access-Control-Allow-Origin", allowedOrigin)
		w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, If-None-Match, X-Request-ID")
		w.Header().Set("Access-Control-Expose-Headers", "ETag, X-Request-ID")

		if allowedOrigin != "*" {
			w.Header().Set("Access-Control-Allow-Credentials", "true")
		}

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// SecurityHeadersMiddleware adds the API security headers to all responses.
func SecurityHeadersMiddleware(next http.Handler) http.Handler {
	return SecurityHeadersWithCSP(APICSPConfig(), next)
}

// TimingMiddleware logs requests slower than threshold at warn level.
func TimingMiddleware(logger *slog.Logger, threshold time.Duration, next http.Handler) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		if d := time.Since(start); d > threshold {
			logger.Warn("slow request", "method", r.Method, "path", r.URL.Path, "duration_ms", d.Milliseconds())
		}
	})
}
