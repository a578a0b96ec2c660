package history

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// Repository defines status history data access interface.
// Entries are append-only; there are no update or delete operations.
type Repository interface {
	Record(ctx context.Context, entry *Entry) error
	ListByEntity(ctx context.Context, entityType string, entityID uuid.UUID) ([]*Entry, error)
}

type repository struct {
	db *sqlx.DB
}

// NewRepository creates new history repository
func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Record(ctx context.Context, entry *Entry) error {
	query := `
		INSERT INTO status_history (id, entity_type, entity_id, old_status, new_status, actor_id, note, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := r.db.ExecContext(ctx, query,
		entry.ID,
		entry.EntityType,
		entry.EntityID,
		entry.OldStatus,
		entry.NewStatus,
		entry.ActorID,
		entry.Note,
		entry.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to record status history: %w", err)
	}
	return nil
}

func (r *repository) ListByEntity(ctx context.Context, entityType string, entityID uuid.UUID) ([]*Entry, error) {
	query := `
		SELECT * FROM status_history
		WHERE entity_type = $1 AND entity_id = $2
		ORDER BY created_at DESC
	`

	entries := []*Entry{}
	if err := r.db.SelectContext(ctx, &entries, query, entityType, entityID); err != nil {
		return nil, err
	}

	return entries, nil
}
