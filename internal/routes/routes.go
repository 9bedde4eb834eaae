package routes

import (
	"github.com/AnshRaj112/diary-backend/internal/handlers"
	"github.com/AnshRaj112/diary-backend/internal/middleware"
	"github.com/go-chi/chi/v5"
)

// SetupRoutes registers the API. The router must already run Authenticate.
func SetupRoutes(r chi.Router, h *handlers.Handler) {
	writes := middleware.NewWriteLimiter()

	// Health check
	r.Get("/health", handlers.Health)

	// Entry routes
	r.Get("/api/entries", h.ListEntries)
	r.With(writes.Middleware).Post("/api/entries", h.CreateEntry)
	r.With(writes.Middleware).Post("/api/entries/delete", h.DeleteEntries)
	r.Get("/api/entries/{id}", h.GetEntry)
	r.With(writes.Middleware).Delete("/api/entries/{id}", h.DeleteEntry)

	// Feeling routes
	r.Get("/api/feelings", handlers.FeelingOptions)
	r.Get("/api/stats/feelings", h.FeelingStats)

	// Profile summary
	r.Get("/api/me", h.Me)

	// Live entry list
	r.Get("/ws/entries", h.EntriesFeed)
}
