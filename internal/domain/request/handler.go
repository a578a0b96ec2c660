package request

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/abbis/abbis-api/internal/middleware"
	"github.com/abbis/abbis-api/internal/pkg/response"
	"github.com/abbis/abbis-api/internal/pkg/validator"
)

// Handler handles request HTTP requests
type Handler struct {
	service *Service
}

// NewHandler creates request handler
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Create handles POST /requests
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid JSON body")
		return
	}

	if errs := validator.Validate(&req); errs != nil {
		response.ValidationError(w, errs)
		return
	}

	userID := middleware.GetUserID(r.Context())
	created, err := h.service.Create(r.Context(), userID, &req)
	if err != nil {
		response.InternalError(w)
		return
	}

	response.Created(w, RequestResponseFromEntity(created))
}

// Get handles GET /requests/{id}
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "Invalid request ID")
		return
	}

	req, err := h.service.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, ErrRequestNotFound) {
			response.NotFound(w, "Request not found")
			return
		}
		response.InternalError(w)
		return
	}

	response.OK(w, RequestResponseFromEntity(req))
}

// UpdateStatus handles PATCH /requests/{id}/status
func (h *Handler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "Invalid request ID")
		return
	}

	var req UpdateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid JSON body")
		return
	}

	if errs := validator.Validate(&req); errs != nil {
		response.ValidationError(w, errs)
		return
	}

	userID := middleware.GetUserID(r.Context())
	updated, err := h.service.UpdateStatus(r.Context(), id, Status(req.Status), userID, req.Note)
	if err != nil {
		switch {
		case errors.Is(err, ErrRequestNotFound):
			response.NotFound(w, "Request not found")
		case errors.Is(err, ErrInvalidStatusTransition):
			response.Conflict(w, err.Error())
		default:
			response.InternalError(w)
		}
		return
	}

	response.OK(w, RequestResponseFromEntity(updated))
}

// History handles GET /requests/{id}/history
func (h *Handler) History(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "Invalid request ID")
		return
	}

	entries, err := h.service.History(r.Context(), id)
	if err != nil {
		if errors.Is(err, ErrRequestNotFound) {
			response.NotFound(w, "Request not found")
			return
		}
		response.InternalError(w)
		return
	}

	items := make([]*HistoryEntryResponse, len(entries))
	for i, e := range entries {
		items[i] = HistoryEntryFromEntity(e)
	}

	response.OK(w, items)
}
