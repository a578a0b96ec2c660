package response

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// Routes returns the response router mounted at /responses
func (h *Handler) Routes(authMiddleware func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(authMiddleware)

	r.Get("/{id}", h.Get)
	r.Patch("/{id}", h.Update)

	r.Post("/{id}/items", h.AddItem)
	r.Patch("/{id}/items/{itemID}", h.UpdateItem)
	r.Delete("/{id}/items/{itemID}", h.DeleteItem)

	r.Post("/{id}/submit", h.Submit)
	r.Post("/{id}/approve", h.Approve)
	r.Post("/{id}/mark-sent", h.MarkSent)
	r.Post("/{id}/send-email", h.SendEmail)
	r.Post("/{id}/decline", h.Decline)
	r.Post("/{id}/cancel", h.Cancel)

	return r
}

// RequestRoutes returns the response routes nested under /requests/{id}
func (h *Handler) RequestRoutes(authMiddleware func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(authMiddleware)

	r.Post("/", h.Generate)
	r.Get("/", h.ListByRequest)

	return r
}
