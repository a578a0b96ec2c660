package response

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx/types"

	"github.com/abbis/abbis-api/internal/domain/request"
)

// Status represents response status (matches response_status enum)
type Status string

const (
	StatusDraft           Status = "draft"
	StatusPendingApproval Status = "pending_approval"
	StatusApproved        Status = "approved"
	StatusSent            Status = "sent"
	StatusDeclined        Status = "declined"
	StatusCancelled       Status = "cancelled"
)

// MinQuantity is the smallest quantity a line item may carry
const MinQuantity = 0.001

// Response represents a priced proposal against exactly one parent request
// (matches responses table)
type Response struct {
	ID        uuid.UUID `db:"id"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`

	// Parent request
	RequestType request.Type `db:"request_type"`
	RequestID   uuid.UUID    `db:"request_id"`

	// Code is the human-readable unique code, e.g. Q-20260828-4821
	Code   string `db:"code"`
	Status Status `db:"status"`

	// Document text
	Subject  sql.NullString `db:"subject"`
	Intro    sql.NullString `db:"intro"`
	Terms    sql.NullString `db:"terms"`
	Currency string         `db:"currency"`

	// Computed totals; rewritten on every item mutation
	Subtotal      float64 `db:"subtotal"`
	DiscountTotal float64 `db:"discount_total"`
	TaxTotal      float64 `db:"tax_total"`
	Total         float64 `db:"total"`

	// Approval metadata
	ApprovalRequired    bool          `db:"approval_required"`
	ApprovalRequestedBy uuid.NullUUID `db:"approval_requested_by"`
	ApprovalRequestedAt sql.NullTime  `db:"approval_requested_at"`
	ApprovedBy          uuid.NullUUID `db:"approved_by"`
	ApprovedAt          sql.NullTime  `db:"approved_at"`

	// Dispatch metadata
	SentBy uuid.NullUUID  `db:"sent_by"`
	SentTo sql.NullString `db:"sent_to"`
	SentAt sql.NullTime   `db:"sent_at"`

	// Notes
	InternalNote sql.NullString `db:"internal_note"`
	ExternalNote sql.NullString `db:"external_note"`

	// Audit
	CreatedBy uuid.UUID `db:"created_by"`
	UpdatedBy uuid.UUID `db:"updated_by"`
}

// IsDraft returns true if the response has not left draft
func (r *Response) IsDraft() bool {
	return r.Status == StatusDraft
}

// IsTerminal returns true for sent, declined and cancelled responses
func (r *Response) IsTerminal() bool {
	switch r.Status {
	case StatusSent, StatusDeclined, StatusCancelled:
		return true
	}
	return false
}

// CanBeApproved checks the approval precondition: approval may happen from
// draft directly or after submission.
func (r *Response) CanBeApproved() bool {
	return r.Status == StatusDraft || r.Status == StatusPendingApproval
}

// Item represents one priced row within a response
// (matches response_items table)
type Item struct {
	ID        uuid.UUID `db:"id"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`

	ResponseID uuid.UUID `db:"response_id"`

	// CatalogItemID links catalog-derived items; custom items carry none
	CatalogItemID uuid.NullUUID `db:"catalog_item_id"`
	IsCustom      bool          `db:"is_custom"`

	Name        string         `db:"name"`
	Description sql.NullString `db:"description"`

	Quantity       float64 `db:"quantity"`
	UnitPrice      float64 `db:"unit_price"`
	DiscountAmount float64 `db:"discount_amount"`
	TaxRate        float64 `db:"tax_rate"` // percent

	// LineTotal is recomputed on every mutation of the item or its parent
	LineTotal float64 `db:"line_total"`

	SortOrder int            `db:"sort_order"`
	Metadata  types.JSONText `db:"metadata"`
}
