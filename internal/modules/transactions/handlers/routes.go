package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers all transaction routes. The fixed paths are
// registered before the {firmId} wildcard so "latest" and "details" are
// never treated as firm IDs.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/transactions", func(r chi.Router) {
		r.Get("/", h.HandleListTransactions)
		r.Post("/", h.HandleCreateTransaction)
		r.Get("/latest", h.HandleLatestTransactions)
		r.Get("/details/{id}", h.HandleGetTransaction)
		r.Get("/{firmId}", h.HandleFirmTransactions)
		r.Put("/{id}", h.HandleUpdateTransaction)
		r.Delete("/{id}", h.HandleDeleteTransaction)
	})
}
