// Package server wires HTTP handlers into a chi router for the relay.
package server

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// SetupRoutes configures the application router: health check, WebSocket
// endpoint, and test page.
func SetupRoutes(hub *Hub, cfg *Config, log *slog.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/", HealthHandler)
	r.Get("/ws", NewWebSocketHandler(hub, cfg, log))
	r.Get("/test", TestPageHandler)
	return r
}
