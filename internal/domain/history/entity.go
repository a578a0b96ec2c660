package history

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
)

// Entity kinds recorded in the audit trail.
const (
	EntityQuote    = "quote"
	EntityRig      = "rig"
	EntityResponse = "response"
)

// Entry is one immutable status-transition record
// (matches status_history table)
type Entry struct {
	ID        uuid.UUID `db:"id"`
	CreatedAt time.Time `db:"created_at"`

	// EntityType is one of the Entity* constants
	EntityType string    `db:"entity_type"`
	EntityID   uuid.UUID `db:"entity_id"`

	// OldStatus is null for the first entry of an entity
	OldStatus sql.NullString `db:"old_status"`
	NewStatus string         `db:"new_status"`

	ActorID uuid.UUID      `db:"actor_id"`
	Note    sql.NullString `db:"note"`
}

// NewEntry builds an entry for a transition. oldStatus may be empty for
// the first transition of an entity.
func NewEntry(entityType string, entityID uuid.UUID, oldStatus, newStatus string, actorID uuid.UUID, note string) *Entry {
	e := &Entry{
		ID:         uuid.New(),
		EntityType: entityType,
		EntityID:   entityID,
		NewStatus:  newStatus,
		ActorID:    actorID,
		CreatedAt:  time.Now(),
	}
	if oldStatus != "" {
		e.OldStatus = sql.NullString{String: oldStatus, Valid: true}
	}
	if note != "" {
		e.Note = sql.NullString{String: note, Valid: true}
	}
	return e
}
