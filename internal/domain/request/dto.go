package request

import (
	"time"

	"github.com/google/uuid"

	"github.com/abbis/abbis-api/internal/domain/history"
)

// CreateRequest for POST /requests
type CreateRequest struct {
	Type        string `json:"type" validate:"required,request_type"`
	ClientName  string `json:"client_name" validate:"required,max=200"`
	ClientEmail string `json:"client_email" validate:"required,email"`
	ClientPhone string `json:"client_phone" validate:"omitempty,max=40"`
	Location    string `json:"location" validate:"omitempty,max=300"`

	IncludeDrilling  bool `json:"include_drilling"`
	IncludePump      bool `json:"include_pump"`
	IncludePlumbing  bool `json:"include_plumbing"`
	IncludeTankTower bool `json:"include_tank_tower"`

	Notes string `json:"notes" validate:"omitempty,max=2000"`
}

// UpdateStatusRequest for PATCH /requests/{id}/status
type UpdateStatusRequest struct {
	Status string `json:"status" validate:"required,max=40"`
	Note   string `json:"note" validate:"omitempty,max=2000"`
}

// RequestResponse represents a request in API responses
type RequestResponse struct {
	ID          uuid.UUID `json:"id"`
	Type        string    `json:"type"`
	Status      string    `json:"status"`
	ClientName  string    `json:"client_name"`
	ClientEmail string    `json:"client_email"`
	ClientPhone *string   `json:"client_phone,omitempty"`
	Location    *string   `json:"location,omitempty"`

	IncludeDrilling  bool `json:"include_drilling"`
	IncludePump      bool `json:"include_pump"`
	IncludePlumbing  bool `json:"include_plumbing"`
	IncludeTankTower bool `json:"include_tank_tower"`

	Notes     *string `json:"notes,omitempty"`
	CreatedAt string  `json:"created_at"`
	UpdatedAt string  `json:"updated_at"`
}

// RequestResponseFromEntity converts entity to response DTO
func RequestResponseFromEntity(r *Request) *RequestResponse {
	resp := &RequestResponse{
		ID:               r.ID,
		Type:             string(r.Type),
		Status:           string(r.Status),
		ClientName:       r.ClientName,
		ClientEmail:      r.ClientEmail,
		IncludeDrilling:  r.IncludeDrilling,
		IncludePump:      r.IncludePump,
		IncludePlumbing:  r.IncludePlumbing,
		IncludeTankTower: r.IncludeTankTower,
		CreatedAt:        r.CreatedAt.Format(time.RFC3339),
		UpdatedAt:        r.UpdatedAt.Format(time.RFC3339),
	}

	if r.ClientPhone.Valid {
		resp.ClientPhone = &r.ClientPhone.String
	}
	if r.Location.Valid {
		resp.Location = &r.Location.String
	}
	if r.Notes.Valid {
		resp.Notes = &r.Notes.String
	}

	return resp
}

// HistoryEntryResponse represents one audit-trail row in API responses
type HistoryEntryResponse struct {
	ID         uuid.UUID `json:"id"`
	EntityType string    `json:"entity_type"`
	EntityID   uuid.UUID `json:"entity_id"`
	OldStatus  *string   `json:"old_status,omitempty"`
	NewStatus  string    `json:"new_status"`
	ActorID    uuid.UUID `json:"actor_id"`
	Note       *string   `json:"note,omitempty"`
	CreatedAt  string    `json:"created_at"`
}

// HistoryEntryFromEntity converts a history entry to its DTO
func HistoryEntryFromEntity(e *history.Entry) *HistoryEntryResponse {
	resp := &HistoryEntryResponse{
		ID:         e.ID,
		EntityType: e.EntityType,
		EntityID:   e.EntityID,
		NewStatus:  e.NewStatus,
		ActorID:    e.ActorID,
		CreatedAt:  e.CreatedAt.Format(time.RFC3339),
	}
	if e.OldStatus.Valid {
		resp.OldStatus = &e.OldStatus.String
	}
	if e.Note.Valid {
		resp.Note = &e.Note.String
	}
	return resp
}
