package http

import (
	"github.com/go-chi/chi/v5"
)

// MountRoutes registers all hook routes on the given chi router.
func MountRoutes(r chi.Router, h *Handlers) {
	r.Get("/health", h.Health)

	r.Route("/api/v1/hooks", func(r chi.Router) {
		r.Post("/issues/created", h.IssueCreated)
		r.Post("/issues/updated", h.IssueUpdated)
		r.Post("/time-entries/created", h.TimeEntryCreated)
		r.Post("/time-entries/updated", h.TimeEntryUpdated)
	})
}
