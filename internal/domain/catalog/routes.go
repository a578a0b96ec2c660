package catalog

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// Routes returns catalog router
func (h *Handler) Routes(authMiddleware func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(authMiddleware)

	r.Get("/search", h.Search)

	return r
}
