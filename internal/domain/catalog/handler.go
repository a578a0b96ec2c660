package catalog

import (
	"net/http"
	"strconv"

	"github.com/abbis/abbis-api/internal/pkg/response"
)

// Handler handles catalog HTTP requests
type Handler struct {
	repo Repository
}

// NewHandler creates catalog handler
func NewHandler(repo Repository) *Handler {
	return &Handler{repo: repo}
}

// Search handles GET /catalog/search
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if q == "" {
		response.BadRequest(w, "Missing search query")
		return
	}

	limit := 20
	if l := r.URL.Query().Get("limit"); l != "" {
		if v, err := strconv.Atoi(l); err == nil && v > 0 && v <= 100 {
			limit = v
		}
	}

	items, err := h.repo.Search(r.Context(), q, limit)
	if err != nil {
		response.InternalError(w)
		return
	}

	response.OK(w, items)
}
