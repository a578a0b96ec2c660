package request

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/abbis/abbis-api/internal/domain/history"
)

// Service handles request business logic
type Service struct {
	repo     Repository
	histRepo history.Repository
}

// NewService creates request service
func NewService(repo Repository, histRepo history.Repository) *Service {
	return &Service{repo: repo, histRepo: histRepo}
}

// Create registers a new request. New requests always enter at status new;
// the transition table allows no other entry point.
func (s *Service) Create(ctx context.Context, userID uuid.UUID, req *CreateRequest) (*Request, error) {
	now := time.Now()
	entity := &Request{
		ID:               uuid.New(),
		Type:             Type(req.Type),
		Status:           StatusNew,
		ClientName:       req.ClientName,
		ClientEmail:      req.ClientEmail,
		IncludeDrilling:  req.IncludeDrilling,
		IncludePump:      req.IncludePump,
		IncludePlumbing:  req.IncludePlumbing,
		IncludeTankTower: req.IncludeTankTower,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if req.ClientPhone != "" {
		entity.ClientPhone = sql.NullString{String: req.ClientPhone, Valid: true}
	}
	if req.Location != "" {
		entity.Location = sql.NullString{String: req.Location, Valid: true}
	}
	if req.Notes != "" {
		entity.Notes = sql.NullString{String: req.Notes, Valid: true}
	}

	if err := s.repo.Create(ctx, entity); err != nil {
		return nil, err
	}

	entry := history.NewEntry(string(entity.Type), entity.ID, "", string(StatusNew), userID, "request created")
	if err := s.histRepo.Record(ctx, entry); err != nil {
		return nil, err
	}

	return entity, nil
}

// GetByID returns a request by ID
func (s *Service) GetByID(ctx context.Context, id uuid.UUID) (*Request, error) {
	req, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if req == nil {
		return nil, ErrRequestNotFound
	}
	return req, nil
}

// UpdateStatus moves a request to target if the type's transition table
// allows it. On rejection neither the stored status nor the history change.
func (s *Service) UpdateStatus(ctx context.Context, id uuid.UUID, target Status, userID uuid.UUID, note string) (*Request, error) {
	req, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if !req.CanBeUpdatedTo(target) {
		return nil, &InvalidTransitionError{From: req.Status, To: target}
	}

	oldStatus := req.Status
	if err := s.repo.UpdateStatus(ctx, id, target); err != nil {
		return nil, err
	}

	req.Status = target
	req.UpdatedAt = time.Now()

	entry := history.NewEntry(string(req.Type), req.ID, string(oldStatus), string(target), userID, note)
	if err := s.histRepo.Record(ctx, entry); err != nil {
		return nil, err
	}

	return req, nil
}

// History returns the status transition trail for a request, newest first
func (s *Service) History(ctx context.Context, id uuid.UUID) ([]*history.Entry, error) {
	req, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.histRepo.ListByEntity(ctx, string(req.Type), req.ID)
}
