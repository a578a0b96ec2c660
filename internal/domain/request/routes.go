package request

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// Routes returns request router. Response sub-routes are mounted separately
// so the response handler stays in its own package.
func (h *Handler) Routes(authMiddleware func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(authMiddleware)

	r.Post("/", h.Create)
	r.Get("/{id}", h.Get)
	r.Patch("/{id}/status", h.UpdateStatus)
	r.Get("/{id}/history", h.History)

	return r
}
