package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers all firm routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/firms", func(r chi.Router) {
		r.Get("/", h.HandleListFirms)
		r.Post("/", h.HandleCreateFirm)
		r.Get("/{id}", h.HandleGetFirm)
		r.Put("/{id}", h.HandleUpdateFirm)
		r.Delete("/{id}", h.HandleDeleteFirm)
	})
}
