package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/acp-protocol/bridge/internal/api/middleware"
	"github.com/acp-protocol/bridge/internal/config"
	"github.com/acp-protocol/bridge/internal/handlers"
	"github.com/acp-protocol/bridge/internal/relay"
)

// NewRouter creates and configures the HTTP router. The mode picks which
// /send and /messages surface is exposed: the ACP envelope bridge or the
// chat API backed by the relay.
func NewRouter(logger zerolog.Logger, h *handlers.Handler, hub *relay.Hub, mode string) *chi.Mux {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)

	// The websocket endpoint stays outside the API middleware: the metrics
	// wrapper does not implement http.Hijacker, which the upgrade needs.
	if hub != nil {
		r.Get("/ws", hub.ServeWS)
	}

	r.Group(func(r chi.Router) {
		r.Use(middleware.Metrics)
		r.Use(middleware.SecurityHeaders)
		r.Use(middleware.MaxBodySize(64 * 1024))
		r.Use(middleware.RequireJSON)
		r.Use(middleware.Logger(logger))

		// CORS - allow all origins (agents and browsers call from anywhere)
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   []string{"*"},
			AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Content-Type"},
			AllowCredentials: false,
			MaxAge:           300,
		}))

		r.Handle("/metrics", promhttp.Handler())
		r.Get("/health", h.Health)

		switch mode {
		case config.ModeChat:
			r.Post("/send", h.ChatSend)
			r.Get("/messages", h.ChatMessages)
		default:
			r.Get("/status", h.Status)
			r.Get("/messages", h.Messages)
			r.Post("/send", h.Send)
		}
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	return r
}
