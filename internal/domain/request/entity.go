package request

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
)

// Type represents the kind of inbound request (matches request_type enum)
type Type string

const (
	TypeQuote Type = "quote"
	TypeRig   Type = "rig"
)

// Status represents request status (matches request_status enum).
// Quote and rig requests share the value space but each type has its own
// transition table.
type Status string

const (
	StatusNew Status = "new"

	// Quote pipeline
	StatusContacted Status = "contacted"
	StatusQuoted    Status = "quoted"
	StatusConverted Status = "converted"
	StatusRejected  Status = "rejected"

	// Rig deployment pipeline
	StatusUnderReview Status = "under_review"
	StatusNegotiating Status = "negotiating"
	StatusDispatched  Status = "dispatched"
	StatusCompleted   Status = "completed"
	StatusDeclined    Status = "declined"
	StatusCancelled   Status = "cancelled"
)

var quoteTransitions = map[Status][]Status{
	StatusNew:       {StatusContacted, StatusQuoted, StatusRejected},
	StatusContacted: {StatusQuoted, StatusRejected},
	StatusQuoted:    {StatusConverted, StatusRejected},
	StatusConverted: {}, // Final state
	StatusRejected:  {StatusContacted},
}

var rigTransitions = map[Status][]Status{
	StatusNew:         {StatusUnderReview, StatusNegotiating, StatusDeclined},
	StatusUnderReview: {StatusNegotiating, StatusDeclined},
	StatusNegotiating: {StatusDispatched, StatusDeclined, StatusCancelled},
	StatusDispatched:  {StatusCompleted, StatusCancelled},
	StatusCompleted:   {}, // Final state
	StatusDeclined:    {}, // Final state
	StatusCancelled:   {}, // Final state
}

// Transitions returns the allowed-transition table for a request type
func Transitions(t Type) map[Status][]Status {
	if t == TypeRig {
		return rigTransitions
	}
	return quoteTransitions
}

// CanTransition reports whether from may move to target under the type's
// transition table. An empty from means "no request yet" and may only move
// to new.
func CanTransition(t Type, from, target Status) bool {
	if from == "" {
		return target == StatusNew
	}

	allowed, ok := Transitions(t)[from]
	if !ok {
		return false
	}
	for _, s := range allowed {
		if s == target {
			return true
		}
	}
	return false
}

// SentStatus returns the status a parent request moves to when its
// response is marked sent.
func SentStatus(t Type) Status {
	if t == TypeRig {
		return StatusDispatched
	}
	return StatusQuoted
}

// Request represents a quote or rig-deployment request (matches requests table)
type Request struct {
	ID        uuid.UUID `db:"id"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`

	Type   Type   `db:"request_type"`
	Status Status `db:"status"`

	// Client details
	ClientName  string         `db:"client_name"`
	ClientEmail string         `db:"client_email"`
	ClientPhone sql.NullString `db:"client_phone"`
	Location    sql.NullString `db:"location"`

	// Requested services, priced from the catalog on response generation
	IncludeDrilling  bool `db:"include_drilling"`
	IncludePump      bool `db:"include_pump"`
	IncludePlumbing  bool `db:"include_plumbing"`
	IncludeTankTower bool `db:"include_tank_tower"`

	Notes sql.NullString `db:"notes"`
}

// CanBeUpdatedTo checks if a status transition is valid for this request
func (r *Request) CanBeUpdatedTo(target Status) bool {
	return CanTransition(r.Type, r.Status, target)
}

// IsTerminal returns true when no further transitions are allowed
func (r *Request) IsTerminal() bool {
	return len(Transitions(r.Type)[r.Status]) == 0
}

// ServiceSelection maps one requested service to catalog search keywords
type ServiceSelection struct {
	Label    string
	Keywords []string
}

// SelectedServices returns the services the client asked for, in a stable
// order. Labels double as placeholder line-item names when the catalog has
// no match.
func (r *Request) SelectedServices() []ServiceSelection {
	var selections []ServiceSelection
	if r.IncludeDrilling {
		selections = append(selections, ServiceSelection{
			Label:    "Borehole drilling",
			Keywords: []string{"drilling", "borehole"},
		})
	}
	if r.IncludePump {
		selections = append(selections, ServiceSelection{
			Label:    "Pump installation",
			Keywords: []string{"pump"},
		})
	}
	if r.IncludePlumbing {
		selections = append(selections, ServiceSelection{
			Label:    "Plumbing works",
			Keywords: []string{"plumbing", "pipe"},
		})
	}
	if r.IncludeTankTower {
		selections = append(selections, ServiceSelection{
			Label:    "Tank and tower installation",
			Keywords: []string{"tank", "tower"},
		})
	}
	return selections
}
