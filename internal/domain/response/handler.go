package response

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/abbis/abbis-api/internal/domain/request"
	"github.com/abbis/abbis-api/internal/middleware"
	httpresponse "github.com/abbis/abbis-api/internal/pkg/response"
	"github.com/abbis/abbis-api/internal/pkg/validator"
)

// Handler handles response HTTP requests
type Handler struct {
	service *Service
}

// NewHandler creates response handler
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Generate handles POST /requests/{id}/responses
func (h *Handler) Generate(w http.ResponseWriter, r *http.Request) {
	requestID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpresponse.BadRequest(w, "Invalid request ID")
		return
	}

	var req GenerateRequest
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httpresponse.BadRequest(w, "Invalid JSON body")
			return
		}
		if errs := validator.Validate(&req); errs != nil {
			httpresponse.ValidationError(w, errs)
			return
		}
	}

	userID := middleware.GetUserID(r.Context())
	resp, items, err := h.service.Generate(r.Context(), requestID, userID, &GenerateOptions{
		Subject:          req.Subject,
		Intro:            req.Intro,
		Terms:            req.Terms,
		Currency:         req.Currency,
		ApprovalRequired: req.ApprovalRequired,
	})
	if err != nil {
		if errors.Is(err, request.ErrRequestNotFound) {
			httpresponse.NotFound(w, "Request not found")
			return
		}
		httpresponse.InternalError(w)
		return
	}

	httpresponse.Created(w, NewResponseWithItems(resp, items))
}

// ListByRequest handles GET /requests/{id}/responses
func (h *Handler) ListByRequest(w http.ResponseWriter, r *http.Request) {
	requestID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpresponse.BadRequest(w, "Invalid request ID")
		return
	}

	page := queryInt(r, "page", 1)
	limit := queryInt(r, "limit", 20)

	responses, total, err := h.service.ListByRequest(r.Context(), requestID, page, limit)
	if err != nil {
		if errors.Is(err, request.ErrRequestNotFound) {
			httpresponse.NotFound(w, "Request not found")
			return
		}
		httpresponse.InternalError(w)
		return
	}

	items := make([]*ResponseResponse, len(responses))
	for i, resp := range responses {
		items[i] = ResponseFromEntity(resp)
	}

	httpresponse.WithMeta(w, items, httpresponse.NewMeta(total, page, limit))
}

func queryInt(r *http.Request, name string, def int) int {
	v, err := strconv.Atoi(r.URL.Query().Get(name))
	if err != nil || v < 1 {
		return def
	}
	return v
}

// Get handles GET /responses/{id}
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpresponse.BadRequest(w, "Invalid response ID")
		return
	}

	resp, items, err := h.service.GetWithItems(r.Context(), id)
	if err != nil {
		if errors.Is(err, ErrResponseNotFound) {
			httpresponse.NotFound(w, "Response not found")
			return
		}
		httpresponse.InternalError(w)
		return
	}

	httpresponse.OK(w, NewResponseWithItems(resp, items))
}

// Update handles PATCH /responses/{id}
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpresponse.BadRequest(w, "Invalid response ID")
		return
	}

	var req UpdateResponseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpresponse.BadRequest(w, "Invalid JSON body")
		return
	}

	if errs := validator.Validate(&req); errs != nil {
		httpresponse.ValidationError(w, errs)
		return
	}

	userID := middleware.GetUserID(r.Context())
	updated, err := h.service.UpdateDetails(r.Context(), id, &req, userID)
	if err != nil {
		if errors.Is(err, ErrResponseNotFound) {
			httpresponse.NotFound(w, "Response not found")
			return
		}
		httpresponse.InternalError(w)
		return
	}

	httpresponse.OK(w, ResponseFromEntity(updated))
}

// AddItem handles POST /responses/{id}/items
func (h *Handler) AddItem(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpresponse.BadRequest(w, "Invalid response ID")
		return
	}

	var req AddItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpresponse.BadRequest(w, "Invalid JSON body")
		return
	}

	if errs := validator.Validate(&req); errs != nil {
		httpresponse.ValidationError(w, errs)
		return
	}

	userID := middleware.GetUserID(r.Context())
	resp, items, err := h.service.AddItem(r.Context(), id, &req, userID)
	if err != nil {
		if errors.Is(err, ErrResponseNotFound) {
			httpresponse.NotFound(w, "Response not found")
			return
		}
		httpresponse.InternalError(w)
		return
	}

	httpresponse.Created(w, NewResponseWithItems(resp, items))
}

// UpdateItem handles PATCH /responses/{id}/items/{itemID}
func (h *Handler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpresponse.BadRequest(w, "Invalid response ID")
		return
	}

	itemID, err := uuid.Parse(chi.URLParam(r, "itemID"))
	if err != nil {
		httpresponse.BadRequest(w, "Invalid item ID")
		return
	}

	var req UpdateItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpresponse.BadRequest(w, "Invalid JSON body")
		return
	}

	if errs := validator.Validate(&req); errs != nil {
		httpresponse.ValidationError(w, errs)
		return
	}

	userID := middleware.GetUserID(r.Context())
	resp, items, err := h.service.UpdateItem(r.Context(), id, itemID, &req, userID)
	if err != nil {
		switch {
		case errors.Is(err, ErrItemNotFound):
			httpresponse.NotFound(w, "Item not found")
		case errors.Is(err, ErrResponseNotFound):
			httpresponse.NotFound(w, "Response not found")
		default:
			httpresponse.InternalError(w)
		}
		return
	}

	httpresponse.OK(w, NewResponseWithItems(resp, items))
}

// DeleteItem handles DELETE /responses/{id}/items/{itemID}
func (h *Handler) DeleteItem(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpresponse.BadRequest(w, "Invalid response ID")
		return
	}

	itemID, err := uuid.Parse(chi.URLParam(r, "itemID"))
	if err != nil {
		httpresponse.BadRequest(w, "Invalid item ID")
		return
	}

	userID := middleware.GetUserID(r.Context())
	resp, items, err := h.service.DeleteItem(r.Context(), id, itemID, userID)
	if err != nil {
		switch {
		case errors.Is(err, ErrItemNotFound):
			httpresponse.NotFound(w, "Item not found")
		case errors.Is(err, ErrResponseNotFound):
			httpresponse.NotFound(w, "Response not found")
		default:
			httpresponse.InternalError(w)
		}
		return
	}

	httpresponse.OK(w, NewResponseWithItems(resp, items))
}

// Submit handles POST /responses/{id}/submit
func (h *Handler) Submit(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpresponse.BadRequest(w, "Invalid response ID")
		return
	}

	userID := middleware.GetUserID(r.Context())
	resp, err := h.service.SubmitForApproval(r.Context(), id, userID)
	if err != nil {
		switch {
		case errors.Is(err, ErrResponseNotFound):
			httpresponse.NotFound(w, "Response not found")
		case errors.Is(err, ErrOnlyDraftSubmittable):
			httpresponse.Conflict(w, err.Error())
		default:
			httpresponse.InternalError(w)
		}
		return
	}

	httpresponse.OK(w, ResponseFromEntity(resp))
}

// Approve handles POST /responses/{id}/approve
func (h *Handler) Approve(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpresponse.BadRequest(w, "Invalid response ID")
		return
	}

	userID := middleware.GetUserID(r.Context())
	resp, err := h.service.Approve(r.Context(), id, userID)
	if err != nil {
		switch {
		case errors.Is(err, ErrResponseNotFound):
			httpresponse.NotFound(w, "Response not found")
		case errors.Is(err, ErrNotApprovable):
			httpresponse.Conflict(w, err.Error())
		default:
			httpresponse.InternalError(w)
		}
		return
	}

	httpresponse.OK(w, ResponseFromEntity(resp))
}

// MarkSent handles POST /responses/{id}/mark-sent
func (h *Handler) MarkSent(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpresponse.BadRequest(w, "Invalid response ID")
		return
	}

	var req MarkSentRequest
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httpresponse.BadRequest(w, "Invalid JSON body")
			return
		}
		if errs := validator.Validate(&req); errs != nil {
			httpresponse.ValidationError(w, errs)
			return
		}
	}

	userID := middleware.GetUserID(r.Context())
	resp, err := h.service.MarkSent(r.Context(), id, userID, req.Recipients, req.Note)
	if err != nil {
		if errors.Is(err, ErrResponseNotFound) {
			httpresponse.NotFound(w, "Response not found")
			return
		}
		httpresponse.InternalError(w)
		return
	}

	httpresponse.OK(w, ResponseFromEntity(resp))
}

// SendEmail handles POST /responses/{id}/send-email
func (h *Handler) SendEmail(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpresponse.BadRequest(w, "Invalid response ID")
		return
	}

	var req SendEmailRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpresponse.BadRequest(w, "Invalid JSON body")
		return
	}

	if errs := validator.Validate(&req); errs != nil {
		httpresponse.ValidationError(w, errs)
		return
	}

	userID := middleware.GetUserID(r.Context())
	resp, err := h.service.SendEmail(r.Context(), id, req.To, userID, &SendEmailOptions{
		Subject: req.Subject,
		Message: req.Message,
		CC:      req.CC,
		BCC:     req.BCC,
	})
	if err != nil {
		switch {
		case errors.Is(err, ErrResponseNotFound):
			httpresponse.NotFound(w, "Response not found")
		case errors.Is(err, request.ErrRequestNotFound):
			httpresponse.NotFound(w, "Request not found")
		case errors.Is(err, ErrInvalidRecipient):
			httpresponse.BadRequest(w, "Invalid recipient email")
		case errors.Is(err, ErrSendFailed):
			httpresponse.BadGateway(w, "Failed to send email")
		default:
			httpresponse.InternalError(w)
		}
		return
	}

	httpresponse.OK(w, ResponseFromEntity(resp))
}

// Decline handles POST /responses/{id}/decline
func (h *Handler) Decline(w http.ResponseWriter, r *http.Request) {
	h.closeResponse(w, r, h.service.Decline)
}

// Cancel handles POST /responses/{id}/cancel
func (h *Handler) Cancel(w http.ResponseWriter, r *http.Request) {
	h.closeResponse(w, r, h.service.Cancel)
}

func (h *Handler) closeResponse(w http.ResponseWriter, r *http.Request, fn func(ctx context.Context, id uuid.UUID, userID uuid.UUID, note string) (*Response, error)) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpresponse.BadRequest(w, "Invalid response ID")
		return
	}

	var req CloseRequest
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httpresponse.BadRequest(w, "Invalid JSON body")
			return
		}
		if errs := validator.Validate(&req); errs != nil {
			httpresponse.ValidationError(w, errs)
			return
		}
	}

	userID := middleware.GetUserID(r.Context())
	resp, err := fn(r.Context(), id, userID, req.Note)
	if err != nil {
		switch {
		case errors.Is(err, ErrResponseNotFound):
			httpresponse.NotFound(w, "Response not found")
		case errors.Is(err, ErrResponseClosed):
			httpresponse.Conflict(w, err.Error())
		default:
			httpresponse.InternalError(w)
		}
		return
	}

	httpresponse.OK(w, ResponseFromEntity(resp))
}
