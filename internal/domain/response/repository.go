package response

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// Repository defines response and line-item data access interface
type Repository interface {
	// CreateWithItems inserts the response and its initial items in one
	// transaction so a crash cannot leave a response without items.
	CreateWithItems(ctx context.Context, resp *Response, items []*Item) error
	GetByID(ctx context.Context, id uuid.UUID) (*Response, error)
	ListByRequest(ctx context.Context, requestID uuid.UUID, limit, offset int) ([]*Response, error)
	CountByRequest(ctx context.Context, requestID uuid.UUID) (int, error)
	UpdateDetails(ctx context.Context, resp *Response) error
	UpdateStatus(ctx context.Context, id uuid.UUID, status Status, updatedBy uuid.UUID) error
	SetSubmitted(ctx context.Context, id uuid.UUID, by uuid.UUID, at time.Time) error
	SetApproved(ctx context.Context, id uuid.UUID, by uuid.UUID, at time.Time) error
	SetSent(ctx context.Context, id uuid.UUID, by uuid.UUID, recipients string, at time.Time) error
	UpdateTotals(ctx context.Context, id uuid.UUID, t Totals) error

	GetItem(ctx context.Context, itemID uuid.UUID) (*Item, error)
	GetItems(ctx context.Context, responseID uuid.UUID) ([]*Item, error)
	InsertItem(ctx context.Context, item *Item) error
	UpdateItem(ctx context.Context, item *Item) error
	UpdateItemTotal(ctx context.Context, itemID uuid.UUID, lineTotal float64) error
	// DeleteItem reports whether a row was actually removed
	DeleteItem(ctx context.Context, itemID uuid.UUID) (bool, error)
}

type repository struct {
	db *sqlx.DB
}

// NewRepository creates new response repository
func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

const insertItemQuery = `
	INSERT INTO response_items (
		id, response_id, catalog_item_id, is_custom, name, description,
		quantity, unit_price, discount_amount, tax_rate, line_total,
		sort_order, metadata, created_at, updated_at
	)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
`

func itemArgs(item *Item) []interface{} {
	return []interface{}{
		item.ID,
		item.ResponseID,
		item.CatalogItemID,
		item.IsCustom,
		item.Name,
		item.Description,
		item.Quantity,
		item.UnitPrice,
		item.DiscountAmount,
		item.TaxRate,
		item.LineTotal,
		item.SortOrder,
		item.Metadata,
		item.CreatedAt,
		item.UpdatedAt,
	}
}

func (r *repository) CreateWithItems(ctx context.Context, resp *Response, items []*Item) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	query := `
		INSERT INTO responses (
			id, request_type, request_id, code, status,
			subject, intro, terms, currency,
			subtotal, discount_total, tax_total, total,
			approval_required, internal_note, external_note,
			created_by, updated_by, created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20)
	`

	_, err = tx.ExecContext(ctx, query,
		resp.ID,
		resp.RequestType,
		resp.RequestID,
		resp.Code,
		resp.Status,
		resp.Subject,
		resp.Intro,
		resp.Terms,
		resp.Currency,
		resp.Subtotal,
		resp.DiscountTotal,
		resp.TaxTotal,
		resp.Total,
		resp.ApprovalRequired,
		resp.InternalNote,
		resp.ExternalNote,
		resp.CreatedBy,
		resp.UpdatedBy,
		resp.CreatedAt,
		resp.UpdatedAt,
	)
	if err != nil {
		return err
	}

	for _, item := range items {
		if _, err := tx.ExecContext(ctx, insertItemQuery, itemArgs(item)...); err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (r *repository) GetByID(ctx context.Context, id uuid.UUID) (*Response, error) {
	query := `SELECT * FROM responses WHERE id = $1`

	var resp Response
	err := r.db.GetContext(ctx, &resp, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	return &resp, nil
}

func (r *repository) ListByRequest(ctx context.Context, requestID uuid.UUID, limit, offset int) ([]*Response, error) {
	query := `
		SELECT * FROM responses
		WHERE request_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`

	responses := []*Response{}
	if err := r.db.SelectContext(ctx, &responses, query, requestID, limit, offset); err != nil {
		return nil, err
	}

	return responses, nil
}

func (r *repository) CountByRequest(ctx context.Context, requestID uuid.UUID) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM responses WHERE request_id = $1`, requestID)
	return count, err
}

func (r *repository) UpdateDetails(ctx context.Context, resp *Response) error {
	query := `
		UPDATE responses
		SET subject = $2, intro = $3, terms = $4, currency = $5,
		    internal_note = $6, external_note = $7,
		    updated_by = $8, updated_at = NOW()
		WHERE id = $1
	`
	_, err := r.db.ExecContext(ctx, query,
		resp.ID,
		resp.Subject,
		resp.Intro,
		resp.Terms,
		resp.Currency,
		resp.InternalNote,
		resp.ExternalNote,
		resp.UpdatedBy,
	)
	return err
}

func (r *repository) UpdateStatus(ctx context.Context, id uuid.UUID, status Status, updatedBy uuid.UUID) error {
	query := `UPDATE responses SET status = $2, updated_by = $3, updated_at = NOW() WHERE id = $1`
	_, err := r.db.ExecContext(ctx, query, id, status, updatedBy)
	return err
}

func (r *repository) SetSubmitted(ctx context.Context, id uuid.UUID, by uuid.UUID, at time.Time) error {
	query := `
		UPDATE responses
		SET status = $2, approval_requested_by = $3, approval_requested_at = $4,
		    updated_by = $3, updated_at = NOW()
		WHERE id = $1
	`
	_, err := r.db.ExecContext(ctx, query, id, StatusPendingApproval, by, at)
	return err
}

func (r *repository) SetApproved(ctx context.Context, id uuid.UUID, by uuid.UUID, at time.Time) error {
	query := `
		UPDATE responses
		SET status = $2, approval_required = FALSE, approved_by = $3, approved_at = $4,
		    updated_by = $3, updated_at = NOW()
		WHERE id = $1
	`
	_, err := r.db.ExecContext(ctx, query, id, StatusApproved, by, at)
	return err
}

func (r *repository) SetSent(ctx context.Context, id uuid.UUID, by uuid.UUID, recipients string, at time.Time) error {
	query := `
		UPDATE responses
		SET status = $2, sent_by = $3, sent_to = $4, sent_at = $5,
		    updated_by = $3, updated_at = NOW()
		WHERE id = $1
	`
	_, err := r.db.ExecContext(ctx, query, id, StatusSent, by, recipients, at)
	return err
}

func (r *repository) UpdateTotals(ctx context.Context, id uuid.UUID, t Totals) error {
	query := `
		UPDATE responses
		SET subtotal = $2, discount_total = $3, tax_total = $4, total = $5, updated_at = NOW()
		WHERE id = $1
	`
	_, err := r.db.ExecContext(ctx, query, id, t.Subtotal, t.DiscountTotal, t.TaxTotal, t.Total)
	return err
}

func (r *repository) GetItem(ctx context.Context, itemID uuid.UUID) (*Item, error) {
	query := `SELECT * FROM response_items WHERE id = $1`

	var item Item
	err := r.db.GetContext(ctx, &item, query, itemID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	return &item, nil
}

func (r *repository) GetItems(ctx context.Context, responseID uuid.UUID) ([]*Item, error) {
	query := `SELECT * FROM response_items WHERE response_id = $1 ORDER BY sort_order, created_at`

	items := []*Item{}
	if err := r.db.SelectContext(ctx, &items, query, responseID); err != nil {
		return nil, err
	}

	return items, nil
}

func (r *repository) InsertItem(ctx context.Context, item *Item) error {
	_, err := r.db.ExecContext(ctx, insertItemQuery, itemArgs(item)...)
	return err
}

func (r *repository) UpdateItem(ctx context.Context, item *Item) error {
	query := `
		UPDATE response_items
		SET catalog_item_id = $2, is_custom = $3, name = $4, description = $5,
		    quantity = $6, unit_price = $7, discount_amount = $8, tax_rate = $9,
		    line_total = $10, sort_order = $11, metadata = $12, updated_at = NOW()
		WHERE id = $1
	`
	_, err := r.db.ExecContext(ctx, query,
		item.ID,
		item.CatalogItemID,
		item.IsCustom,
		item.Name,
		item.Description,
		item.Quantity,
		item.UnitPrice,
		item.DiscountAmount,
		item.TaxRate,
		item.LineTotal,
		item.SortOrder,
		item.Metadata,
	)
	return err
}

func (r *repository) UpdateItemTotal(ctx context.Context, itemID uuid.UUID, lineTotal float64) error {
	// A concurrently deleted row makes this a no-op, which is fine: the
	// recompute that follows the delete sees the final item set.
	query := `UPDATE response_items SET line_total = $2, updated_at = NOW() WHERE id = $1`
	_, err := r.db.ExecContext(ctx, query, itemID, lineTotal)
	return err
}

func (r *repository) DeleteItem(ctx context.Context, itemID uuid.UUID) (bool, error) {
	query := `DELETE FROM response_items WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, itemID)
	if err != nil {
		return false, err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}
