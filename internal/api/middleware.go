package api

import (
	"context"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/nerrad567/raspicam-bridge/internal/auth"
)

// maxRequestBodySize caps request bodies at 1 MiB.
const maxRequestBodySize = 1 << 20

const (
	defaultCORSMethods = "GET, POST, PUT, OPTIONS"
	defaultCORSHeaders = "Authorization, Content-Type, X-Request-ID"
)

type contextKey struct{ name string }

var ctxKeyClaims = &contextKey{"claims"}

// requestIDMiddleware echoes the caller's X-Request-ID, or a fresh UUID,
// and stores it where middleware.GetReqID finds it.
func (s *Server) requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(middleware.RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(middleware.RequestIDHeader, id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), middleware.RequestIDKey, id)))
	})
}

// loggingMiddleware logs one record per request. The route is the chi
// pattern, so /properties/{name} is logged once for every property.
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		args := []any{
			"method", r.Method,
			"route", chi.RouteContext(r.Context()).RoutePattern(),
			"status", status,
			"bytes", ww.BytesWritten(),
			"duration_ms", time.Since(start).Milliseconds(),
			"request_id", middleware.GetReqID(r.Context()),
		}
		if status >= http.StatusInternalServerError {
			s.logger.Warn("http request", args...)
			return
		}
		s.logger.Info("http request", args...)
	})
}

// recoveryMiddleware turns a handler panic into a 500 JSON error.
func (s *Server) recoveryMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if rec == http.ErrAbortHandler { //nolint:errorlint // sentinel panic value
				panic(rec)
			}
			s.logger.Error("http handler panicked",
				"panic", rec,
				"path", r.URL.Path,
				"request_id", middleware.GetReqID(r.Context()),
			)
			writeInternalError(w, "internal server error")
		}()
		next.ServeHTTP(w, r)
	})
}

// corsMiddleware answers preflight requests with 204 and sets the CORS
// headers for allowed origins. No configured origins means any origin.
func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	cors := s.cfg.CORS
	methods := defaultCORSMethods
	if len(cors.AllowedMethods) > 0 {
		methods = strings.Join(cors.AllowedMethods, ", ")
	}
	headers := defaultCORSHeaders
	if len(cors.AllowedHeaders) > 0 {
		headers = strings.Join(cors.AllowedHeaders, ", ")
	}
	allowed := func(origin string) bool {
		return len(cors.AllowedOrigins) == 0 ||
			slices.Contains(cors.AllowedOrigins, "*") ||
			slices.Contains(cors.AllowedOrigins, origin)
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if origin := r.Header.Get("Origin"); origin != "" && allowed(origin) {
			h := w.Header()
			h.Set("Access-Control-Allow-Origin", origin)
			h.Set("Access-Control-Allow-Methods", methods)
			h.Set("Access-Control-Allow-Headers", headers)
			h.Set("Access-Control-Max-Age", "86400")
			h.Add("Vary", "Origin")
		}
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// authMiddleware requires a valid bearer token and stores its claims in
// the request context.
func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		if !ok || token == "" {
			writeUnauthorized(w, "missing bearer token")
			return
		}
		claims, err := auth.ParseToken(token, s.secCfg.JWT.Secret)
		if err != nil {
			writeUnauthorized(w, "invalid or expired token")
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxKeyClaims, claims)))
	})
}

// requirePermission rejects callers whose role lacks perm. It must run
// after authMiddleware.
func (s *Server) requirePermission(perm auth.Permission) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if claims := claimsFromContext(r.Context()); claims == nil || !auth.HasPermission(claims.Role, perm) {
				writeForbidden(w, "insufficient permissions")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func claimsFromContext(ctx context.Context) *auth.CustomClaims {
	claims, _ := ctx.Value(ctxKeyClaims).(*auth.CustomClaims) //nolint:errcheck // nil when absent
	return claims
}
