package response

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/abbis/abbis-api/internal/domain/catalog"
	"github.com/abbis/abbis-api/internal/domain/history"
	"github.com/abbis/abbis-api/internal/domain/request"
	"github.com/abbis/abbis-api/internal/pkg/mail"
	"github.com/abbis/abbis-api/internal/pkg/validator"
)

// fallbackItemName names the placeholder line item created when a parent
// request selects no services at all
const fallbackItemName = "General borehole works"

// Service handles response business logic
type Service struct {
	repo        Repository
	requestRepo request.Repository
	requestSvc  *request.Service
	catalog     catalog.Matcher
	histRepo    history.Repository

	mailer          mail.Sender
	defaultCurrency string
	defaultTaxRate  float64
}

// NewService creates response service
func NewService(repo Repository, requestRepo request.Repository, requestSvc *request.Service, matcher catalog.Matcher, histRepo history.Repository) *Service {
	return &Service{
		repo:        repo,
		requestRepo: requestRepo,
		requestSvc:  requestSvc,
		catalog:     matcher,
		histRepo:    histRepo,
	}
}

// SetMailer sets the outbound mail transport (optional; SendEmail fails
// without one)
func (s *Service) SetMailer(mailer mail.Sender) {
	s.mailer = mailer
}

// SetPricingDefaults sets the currency and tax rate applied to generated
// responses
func (s *Service) SetPricingDefaults(currency string, taxRate float64) {
	s.defaultCurrency = currency
	s.defaultTaxRate = taxRate
}

// GenerateOptions carries the optional document fields for Generate
type GenerateOptions struct {
	Subject          string
	Intro            string
	Terms            string
	Currency         string
	ApprovalRequired bool
}

func generateCode(t request.Type) string {
	prefix := "Q"
	if t == request.TypeRig {
		prefix = "R"
	}
	return fmt.Sprintf("%s-%s-%04d", prefix, time.Now().Format("20060102"), rand.Intn(10000))
}

// Generate creates a draft response for a request, pricing line items from
// the catalog. The parent's request type decides whether a quote or a rig
// proposal is produced. The created response always has at least one item.
func (s *Service) Generate(ctx context.Context, requestID uuid.UUID, userID uuid.UUID, opts *GenerateOptions) (*Response, []*Item, error) {
	req, err := s.requestRepo.GetByID(ctx, requestID)
	if err != nil {
		return nil, nil, err
	}
	if req == nil {
		return nil, nil, request.ErrRequestNotFound
	}

	if opts == nil {
		opts = &GenerateOptions{}
	}

	now := time.Now()
	resp := &Response{
		ID:               uuid.New(),
		RequestType:      req.Type,
		RequestID:        req.ID,
		Code:             generateCode(req.Type),
		Status:           StatusDraft,
		Currency:         s.defaultCurrency,
		ApprovalRequired: opts.ApprovalRequired,
		CreatedBy:        userID,
		UpdatedBy:        userID,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if opts.Subject != "" {
		resp.Subject = sql.NullString{String: opts.Subject, Valid: true}
	}
	if opts.Intro != "" {
		resp.Intro = sql.NullString{String: opts.Intro, Valid: true}
	}
	if opts.Terms != "" {
		resp.Terms = sql.NullString{String: opts.Terms, Valid: true}
	}
	if opts.Currency != "" {
		resp.Currency = opts.Currency
	}

	items, err := s.deriveItems(ctx, req, resp.ID, now)
	if err != nil {
		return nil, nil, err
	}

	for _, item := range items {
		item.LineTotal = ItemLineTotal(item)
	}
	totals := ComputeTotals(items)
	resp.Subtotal = totals.Subtotal
	resp.DiscountTotal = totals.DiscountTotal
	resp.TaxTotal = totals.TaxTotal
	resp.Total = totals.Total

	if err := s.repo.CreateWithItems(ctx, resp, items); err != nil {
		return nil, nil, err
	}

	entry := history.NewEntry(history.EntityResponse, resp.ID, "", string(StatusDraft), userID, "response "+resp.Code+" created")
	if err := s.histRepo.Record(ctx, entry); err != nil {
		return nil, nil, err
	}

	return resp, items, nil
}

// deriveItems prices the parent's selected services from the catalog. A
// service without a catalog match becomes a zero-priced custom placeholder;
// a request with no services at all gets a single fallback item.
func (s *Service) deriveItems(ctx context.Context, req *request.Request, responseID uuid.UUID, now time.Time) ([]*Item, error) {
	var items []*Item

	for i, sel := range req.SelectedServices() {
		item := &Item{
			ID:         uuid.New(),
			ResponseID: responseID,
			Quantity:   1,
			SortOrder:  i,
			CreatedAt:  now,
			UpdatedAt:  now,
		}

		match, err := s.catalog.FindBestMatch(ctx, sel.Keywords)
		if err != nil {
			return nil, err
		}

		if match != nil {
			item.CatalogItemID = uuid.NullUUID{UUID: match.ID, Valid: true}
			item.Name = match.Name
			item.UnitPrice = match.EffectivePrice()
			if match.Notes != "" {
				item.Description = sql.NullString{String: match.Notes, Valid: true}
			}
			if match.Taxable {
				item.TaxRate = s.defaultTaxRate
			}
		} else {
			item.IsCustom = true
			item.Name = sel.Label
		}

		items = append(items, item)
	}

	if len(items) == 0 {
		items = append(items, &Item{
			ID:         uuid.New(),
			ResponseID: responseID,
			IsCustom:   true,
			Name:       fallbackItemName,
			Quantity:   1,
			CreatedAt:  now,
			UpdatedAt:  now,
		})
	}

	return items, nil
}

// GetWithItems returns a response and its line items
func (s *Service) GetWithItems(ctx context.Context, id uuid.UUID) (*Response, []*Item, error) {
	resp, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if resp == nil {
		return nil, nil, ErrResponseNotFound
	}

	items, err := s.repo.GetItems(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	return resp, items, nil
}

// ListByRequest returns one page of responses for a request, newest first,
// plus the total count
func (s *Service) ListByRequest(ctx context.Context, requestID uuid.UUID, page, limit int) ([]*Response, int, error) {
	req, err := s.requestRepo.GetByID(ctx, requestID)
	if err != nil {
		return nil, 0, err
	}
	if req == nil {
		return nil, 0, request.ErrRequestNotFound
	}

	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}

	total, err := s.repo.CountByRequest(ctx, requestID)
	if err != nil {
		return nil, 0, err
	}

	responses, err := s.repo.ListByRequest(ctx, requestID, limit, (page-1)*limit)
	if err != nil {
		return nil, 0, err
	}
	return responses, total, nil
}

// RecalculateTotals rereads the response's items, rewrites each line total
// and then the response aggregates. Idempotent: unchanged inputs produce
// unchanged outputs.
func (s *Service) RecalculateTotals(ctx context.Context, responseID uuid.UUID) error {
	items, err := s.repo.GetItems(ctx, responseID)
	if err != nil {
		return err
	}

	for _, item := range items {
		lineTotal := ItemLineTotal(item)
		if lineTotal != item.LineTotal {
			if err := s.repo.UpdateItemTotal(ctx, item.ID, lineTotal); err != nil {
				return err
			}
			item.LineTotal = lineTotal
		}
	}

	return s.repo.UpdateTotals(ctx, responseID, ComputeTotals(items))
}

// AddItem adds a line item to a response and recomputes its totals. Items
// without a catalog reference are custom.
func (s *Service) AddItem(ctx context.Context, responseID uuid.UUID, req *AddItemRequest, userID uuid.UUID) (*Response, []*Item, error) {
	resp, err := s.repo.GetByID(ctx, responseID)
	if err != nil {
		return nil, nil, err
	}
	if resp == nil {
		return nil, nil, ErrResponseNotFound
	}

	existing, err := s.repo.GetItems(ctx, responseID)
	if err != nil {
		return nil, nil, err
	}

	now := time.Now()
	item := &Item{
		ID:             uuid.New(),
		ResponseID:     responseID,
		IsCustom:       true,
		Name:           req.Name,
		Quantity:       req.Quantity,
		UnitPrice:      req.UnitPrice,
		DiscountAmount: req.DiscountAmount,
		TaxRate:        req.TaxRate,
		SortOrder:      len(existing),
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if item.Quantity < MinQuantity {
		item.Quantity = MinQuantity
	}
	if req.Description != "" {
		item.Description = sql.NullString{String: req.Description, Valid: true}
	}
	if req.CatalogItemID != nil {
		item.CatalogItemID = uuid.NullUUID{UUID: *req.CatalogItemID, Valid: true}
		item.IsCustom = false
	}
	if len(req.Metadata) > 0 {
		data, err := json.Marshal(req.Metadata)
		if err != nil {
			return nil, nil, err
		}
		item.Metadata = data
	}
	item.LineTotal = ItemLineTotal(item)

	if err := s.repo.InsertItem(ctx, item); err != nil {
		return nil, nil, err
	}

	if err := s.RecalculateTotals(ctx, responseID); err != nil {
		return nil, nil, err
	}

	return s.GetWithItems(ctx, responseID)
}

// UpdateItem applies a partial update to a line item and recomputes totals
func (s *Service) UpdateItem(ctx context.Context, responseID, itemID uuid.UUID, req *UpdateItemRequest, userID uuid.UUID) (*Response, []*Item, error) {
	item, err := s.repo.GetItem(ctx, itemID)
	if err != nil {
		return nil, nil, err
	}
	if item == nil || item.ResponseID != responseID {
		return nil, nil, ErrItemNotFound
	}

	if req.Name != nil {
		item.Name = *req.Name
	}
	if req.Description != nil {
		item.Description = sql.NullString{String: *req.Description, Valid: *req.Description != ""}
	}
	if req.Quantity != nil {
		item.Quantity = *req.Quantity
		if item.Quantity < MinQuantity {
			item.Quantity = MinQuantity
		}
	}
	if req.UnitPrice != nil {
		item.UnitPrice = *req.UnitPrice
	}
	if req.DiscountAmount != nil {
		item.DiscountAmount = *req.DiscountAmount
	}
	if req.TaxRate != nil {
		item.TaxRate = *req.TaxRate
	}
	if req.SortOrder != nil {
		item.SortOrder = *req.SortOrder
	}
	if req.Metadata != nil {
		data, err := json.Marshal(req.Metadata)
		if err != nil {
			return nil, nil, err
		}
		item.Metadata = data
	}
	item.LineTotal = ItemLineTotal(item)

	if err := s.repo.UpdateItem(ctx, item); err != nil {
		return nil, nil, err
	}

	if err := s.RecalculateTotals(ctx, responseID); err != nil {
		return nil, nil, err
	}

	return s.GetWithItems(ctx, responseID)
}

// DeleteItem removes a line item and recomputes the owning response's totals
func (s *Service) DeleteItem(ctx context.Context, responseID, itemID uuid.UUID, userID uuid.UUID) (*Response, []*Item, error) {
	item, err := s.repo.GetItem(ctx, itemID)
	if err != nil {
		return nil, nil, err
	}
	if item == nil || item.ResponseID != responseID {
		return nil, nil, ErrItemNotFound
	}

	deleted, err := s.repo.DeleteItem(ctx, itemID)
	if err != nil {
		return nil, nil, err
	}
	if !deleted {
		return nil, nil, ErrItemNotFound
	}

	if err := s.RecalculateTotals(ctx, responseID); err != nil {
		return nil, nil, err
	}

	return s.GetWithItems(ctx, responseID)
}

// UpdateDetails patches document text fields (subject, intro, terms,
// currency, notes)
func (s *Service) UpdateDetails(ctx context.Context, id uuid.UUID, req *UpdateResponseRequest, userID uuid.UUID) (*Response, error) {
	resp, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if resp == nil {
		return nil, ErrResponseNotFound
	}

	if req.Subject != nil {
		resp.Subject = sql.NullString{String: *req.Subject, Valid: *req.Subject != ""}
	}
	if req.Intro != nil {
		resp.Intro = sql.NullString{String: *req.Intro, Valid: *req.Intro != ""}
	}
	if req.Terms != nil {
		resp.Terms = sql.NullString{String: *req.Terms, Valid: *req.Terms != ""}
	}
	if req.Currency != nil && *req.Currency != "" {
		resp.Currency = *req.Currency
	}
	if req.InternalNote != nil {
		resp.InternalNote = sql.NullString{String: *req.InternalNote, Valid: *req.InternalNote != ""}
	}
	if req.ExternalNote != nil {
		resp.ExternalNote = sql.NullString{String: *req.ExternalNote, Valid: *req.ExternalNote != ""}
	}
	resp.UpdatedBy = userID

	if err := s.repo.UpdateDetails(ctx, resp); err != nil {
		return nil, err
	}

	return resp, nil
}

// SubmitForApproval moves a draft response to pending_approval
func (s *Service) SubmitForApproval(ctx context.Context, id uuid.UUID, userID uuid.UUID) (*Response, error) {
	resp, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if resp == nil {
		return nil, ErrResponseNotFound
	}

	if !resp.IsDraft() {
		return nil, ErrOnlyDraftSubmittable
	}

	now := time.Now()
	if err := s.repo.SetSubmitted(ctx, id, userID, now); err != nil {
		return nil, err
	}

	oldStatus := resp.Status
	resp.Status = StatusPendingApproval
	resp.ApprovalRequestedBy = uuid.NullUUID{UUID: userID, Valid: true}
	resp.ApprovalRequestedAt = sql.NullTime{Time: now, Valid: true}

	entry := history.NewEntry(history.EntityResponse, id, string(oldStatus), string(StatusPendingApproval), userID, "")
	if err := s.histRepo.Record(ctx, entry); err != nil {
		return nil, err
	}

	return resp, nil
}

// Approve approves a response from draft or pending_approval
func (s *Service) Approve(ctx context.Context, id uuid.UUID, userID uuid.UUID) (*Response, error) {
	resp, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if resp == nil {
		return nil, ErrResponseNotFound
	}

	if !resp.CanBeApproved() {
		return nil, ErrNotApprovable
	}

	now := time.Now()
	if err := s.repo.SetApproved(ctx, id, userID, now); err != nil {
		return nil, err
	}

	oldStatus := resp.Status
	resp.Status = StatusApproved
	resp.ApprovalRequired = false
	resp.ApprovedBy = uuid.NullUUID{UUID: userID, Valid: true}
	resp.ApprovedAt = sql.NullTime{Time: now, Valid: true}

	entry := history.NewEntry(history.EntityResponse, id, string(oldStatus), string(StatusApproved), userID, "")
	if err := s.histRepo.Record(ctx, entry); err != nil {
		return nil, err
	}

	return resp, nil
}

// MarkSent stamps dispatch metadata and forwards the parent request to its
// post-send status. There is deliberately no guard requiring prior
// approval; stakeholders treat approval as advisory.
func (s *Service) MarkSent(ctx context.Context, id uuid.UUID, userID uuid.UUID, recipients []string, note string) (*Response, error) {
	resp, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if resp == nil {
		return nil, ErrResponseNotFound
	}

	now := time.Now()
	joined := strings.Join(recipients, ",")
	if err := s.repo.SetSent(ctx, id, userID, joined, now); err != nil {
		return nil, err
	}

	oldStatus := resp.Status
	resp.Status = StatusSent
	resp.SentBy = uuid.NullUUID{UUID: userID, Valid: true}
	resp.SentTo = sql.NullString{String: joined, Valid: true}
	resp.SentAt = sql.NullTime{Time: now, Valid: true}

	entry := history.NewEntry(history.EntityResponse, id, string(oldStatus), string(StatusSent), userID, note)
	if err := s.histRepo.Record(ctx, entry); err != nil {
		return nil, err
	}

	s.forwardRequestStatus(ctx, resp, userID)

	return resp, nil
}

// forwardRequestStatus advances the parent request after a send. A parent
// deleted concurrently or already past the target status is skipped, never
// an error: the send itself already happened.
func (s *Service) forwardRequestStatus(ctx context.Context, resp *Response, userID uuid.UUID) {
	req, err := s.requestRepo.GetByID(ctx, resp.RequestID)
	if err != nil {
		log.Error().Err(err).Str("request_id", resp.RequestID.String()).Msg("Failed to load parent request after send")
		return
	}
	if req == nil {
		log.Warn().Str("request_id", resp.RequestID.String()).Msg("Parent request gone, skipping status forward")
		return
	}

	target := request.SentStatus(req.Type)
	if req.Status == target || !req.CanBeUpdatedTo(target) {
		return
	}

	if _, err := s.requestSvc.UpdateStatus(ctx, req.ID, target, userID, "response "+resp.Code+" sent"); err != nil {
		log.Error().Err(err).
			Str("request_id", req.ID.String()).
			Str("target", string(target)).
			Msg("Failed to forward request status after send")
	}
}

// SendEmailOptions carries optional fields for SendEmail
type SendEmailOptions struct {
	Subject string
	Message string
	CC      []string
	BCC     []string
}

// SendEmail renders the response and dispatches it through the mail
// transport, then marks the response sent.
func (s *Service) SendEmail(ctx context.Context, id uuid.UUID, recipient string, userID uuid.UUID, opts *SendEmailOptions) (*Response, error) {
	if err := validator.ValidateVar(recipient, "required,email"); err != nil {
		return nil, ErrInvalidRecipient
	}
	if opts == nil {
		opts = &SendEmailOptions{}
	}

	resp, items, err := s.GetWithItems(ctx, id)
	if err != nil {
		return nil, err
	}

	req, err := s.requestRepo.GetByID(ctx, resp.RequestID)
	if err != nil {
		return nil, err
	}
	if req == nil {
		return nil, request.ErrRequestNotFound
	}

	html, err := RenderEmail(resp, items, req, RenderOptions{Message: opts.Message})
	if err != nil {
		return nil, err
	}

	subject := opts.Subject
	if subject == "" && resp.Subject.Valid {
		subject = resp.Subject.String
	}
	if subject == "" {
		subject = "Your quotation " + resp.Code
		if resp.RequestType == request.TypeRig {
			subject = "Rig deployment proposal " + resp.Code
		}
	}

	label := "quote_response"
	if resp.RequestType == request.TypeRig {
		label = "rig_response"
	}

	if s.mailer == nil {
		return nil, fmt.Errorf("%w: mail transport not configured", ErrSendFailed)
	}

	msg := &mail.Message{
		To:       recipient,
		ToName:   req.ClientName,
		CC:       opts.CC,
		BCC:      opts.BCC,
		Subject:  subject,
		HTMLBody: html,
		Label:    label,
	}
	if err := s.mailer.Send(ctx, msg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSendFailed, err)
	}

	return s.MarkSent(ctx, id, userID, []string{recipient}, "response emailed")
}

// Decline moves a non-terminal response to declined
func (s *Service) Decline(ctx context.Context, id uuid.UUID, userID uuid.UUID, note string) (*Response, error) {
	return s.close(ctx, id, userID, StatusDeclined, note)
}

// Cancel moves a non-terminal response to cancelled
func (s *Service) Cancel(ctx context.Context, id uuid.UUID, userID uuid.UUID, note string) (*Response, error) {
	return s.close(ctx, id, userID, StatusCancelled, note)
}

func (s *Service) close(ctx context.Context, id uuid.UUID, userID uuid.UUID, target Status, note string) (*Response, error) {
	resp, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if resp == nil {
		return nil, ErrResponseNotFound
	}

	if resp.IsTerminal() {
		return nil, ErrResponseClosed
	}

	if err := s.repo.UpdateStatus(ctx, id, target, userID); err != nil {
		return nil, err
	}

	oldStatus := resp.Status
	resp.Status = target

	entry := history.NewEntry(history.EntityResponse, id, string(oldStatus), string(target), userID, note)
	if err := s.histRepo.Record(ctx, entry); err != nil {
		return nil, err
	}

	return resp, nil
}
