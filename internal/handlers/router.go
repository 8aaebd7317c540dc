package handlers

import (
	"net/http"
	"time"

	"github.com/XavierBriggs/fortuna/services/chess-dashboard/internal/middleware"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"
)

// NewRouter mounts every dashboard route behind the standard middleware stack
func NewRouter(h *Handler, corsOrigins []string, logger *zap.SugaredLogger) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logger(logger))
	r.Use(chimiddleware.Recoverer)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   corsOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Get("/health", h.HealthCheck)
	r.Get("/metrics", h.Metrics)

	// Websocket connections are long-lived and must not sit behind the timeout
	r.Get("/ws", h.HandleWebSocket)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(chimiddleware.Timeout(30 * time.Second))

		r.Get("/leaderboards", h.GetLeaderboards)

		r.Get("/board", h.GetBoard)
		r.Put("/board/category", h.SelectCategory)
		r.Post("/board/more", h.LoadMore)

		r.Get("/search", h.GetSearch)
		r.Post("/search", h.Search)

		r.Get("/players/{username}", h.GetPlayer)
		r.Post("/players/{username}/toggle", h.TogglePlayer)
	})

	return r
}
