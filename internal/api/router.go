package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/nerrad567/raspicam-bridge/internal/auth"
)

// buildRouter creates the HTTP router with all routes and middleware.
func (s *Server) buildRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(s.requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoveryMiddleware)
	r.Use(s.corsMiddleware)
	r.Use(middleware.RequestSize(maxRequestBodySize))

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", s.handleHealth)
		r.Post("/auth/login", s.handleLogin)

		// WebSocket authenticates with a ticket, checked in the handler.
		r.Get(s.wsPath(), s.handleWebSocket)

		r.Group(func(r chi.Router) {
			r.Use(s.authMiddleware)

			r.Get("/auth/me", s.handleMe)
			r.Post("/auth/ws-ticket", s.handleWSTicket)
			r.Get("/metrics", s.handleMetrics)

			r.Route("/camera", func(r chi.Router) {
				r.With(s.requirePermission(auth.PermCameraRead)).Get("/", s.handleGetCamera)
				r.With(s.requirePermission(auth.PermCameraRead)).Get("/modes", s.handleListModes)
				r.With(s.requirePermission(auth.PermHistoryRead)).Get("/history", s.handleHistory)
				r.With(s.requirePermission(auth.PermHistoryRead)).Get("/telemetry", s.handleTelemetry)

				r.Route("/properties", func(r chi.Router) {
					r.With(s.requirePermission(auth.PermCameraRead)).Get("/", s.handleGetProperties)
					r.With(s.requirePermission(auth.PermCameraWrite)).Post("/", s.handleSetProperties)
					r.With(s.requirePermission(auth.PermCameraRead)).Get("/{name}", s.handleGetProperty)
					r.With(s.requirePermission(auth.PermCameraWrite)).Put("/{name}", s.handleSetProperty)
				})
			})
		})
	})

	return r
}

func (s *Server) wsPath() string {
	if s.wsCfg.Path == "" {
		return "/ws"
	}
	return s.wsCfg.Path
}

// handleHealth returns the server health status.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"version": s.version,
	})
}
