package response

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// GenerateRequest is the payload for generating a response from a request
type GenerateRequest struct {
	Subject          string `json:"subject" validate:"omitempty,max=255"`
	Intro            string `json:"intro" validate:"omitempty,max=5000"`
	Terms            string `json:"terms" validate:"omitempty,max=10000"`
	Currency         string `json:"currency" validate:"omitempty,currency"`
	ApprovalRequired bool   `json:"approval_required"`
}

// AddItemRequest is the payload for adding a line item
type AddItemRequest struct {
	CatalogItemID  *uuid.UUID             `json:"catalog_item_id"`
	Name           string                 `json:"name" validate:"required,max=255"`
	Description    string                 `json:"description" validate:"omitempty,max=2000"`
	Quantity       float64                `json:"quantity" validate:"required,gt=0"`
	UnitPrice      float64                `json:"unit_price" validate:"gte=0"`
	DiscountAmount float64                `json:"discount_amount" validate:"gte=0"`
	TaxRate        float64                `json:"tax_rate" validate:"gte=0,lte=100"`
	Metadata       map[string]interface{} `json:"metadata"`
}

// UpdateItemRequest is the payload for a partial line item update
type UpdateItemRequest struct {
	Name           *string                `json:"name" validate:"omitempty,max=255"`
	Description    *string                `json:"description" validate:"omitempty,max=2000"`
	Quantity       *float64               `json:"quantity" validate:"omitempty,gt=0"`
	UnitPrice      *float64               `json:"unit_price" validate:"omitempty,gte=0"`
	DiscountAmount *float64               `json:"discount_amount" validate:"omitempty,gte=0"`
	TaxRate        *float64               `json:"tax_rate" validate:"omitempty,gte=0,lte=100"`
	SortOrder      *int                   `json:"sort_order" validate:"omitempty,gte=0"`
	Metadata       map[string]interface{} `json:"metadata"`
}

// UpdateResponseRequest is the payload for patching document fields
type UpdateResponseRequest struct {
	Subject      *string `json:"subject" validate:"omitempty,max=255"`
	Intro        *string `json:"intro" validate:"omitempty,max=5000"`
	Terms        *string `json:"terms" validate:"omitempty,max=10000"`
	Currency     *string `json:"currency" validate:"omitempty,currency"`
	InternalNote *string `json:"internal_note" validate:"omitempty,max=5000"`
	ExternalNote *string `json:"external_note" validate:"omitempty,max=5000"`
}

// MarkSentRequest is the payload for recording an out-of-band send
type MarkSentRequest struct {
	Recipients []string `json:"recipients" validate:"omitempty,dive,email"`
	Note       string   `json:"note" validate:"omitempty,max=2000"`
}

// SendEmailRequest is the payload for emailing a response to a client
type SendEmailRequest struct {
	To      string   `json:"to" validate:"required,email"`
	Subject string   `json:"subject" validate:"omitempty,max=255"`
	Message string   `json:"message" validate:"omitempty,max=5000"`
	CC      []string `json:"cc" validate:"omitempty,dive,email"`
	BCC     []string `json:"bcc" validate:"omitempty,dive,email"`
}

// CloseRequest is the payload for declining or cancelling a response
type CloseRequest struct {
	Note string `json:"note" validate:"omitempty,max=2000"`
}

// ItemResponse is the API representation of a line item
type ItemResponse struct {
	ID             uuid.UUID       `json:"id"`
	CatalogItemID  *uuid.UUID      `json:"catalog_item_id,omitempty"`
	IsCustom       bool            `json:"is_custom"`
	Name           string          `json:"name"`
	Description    string          `json:"description,omitempty"`
	Quantity       float64         `json:"quantity"`
	UnitPrice      float64         `json:"unit_price"`
	DiscountAmount float64         `json:"discount_amount"`
	TaxRate        float64         `json:"tax_rate"`
	LineTotal      float64         `json:"line_total"`
	SortOrder      int             `json:"sort_order"`
	Metadata       json.RawMessage `json:"metadata,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// ItemResponseFromEntity converts an item entity to its API representation
func ItemResponseFromEntity(item *Item) *ItemResponse {
	out := &ItemResponse{
		ID:             item.ID,
		IsCustom:       item.IsCustom,
		Name:           item.Name,
		Quantity:       item.Quantity,
		UnitPrice:      item.UnitPrice,
		DiscountAmount: item.DiscountAmount,
		TaxRate:        item.TaxRate,
		LineTotal:      item.LineTotal,
		SortOrder:      item.SortOrder,
		CreatedAt:      item.CreatedAt,
		UpdatedAt:      item.UpdatedAt,
	}
	if item.CatalogItemID.Valid {
		id := item.CatalogItemID.UUID
		out.CatalogItemID = &id
	}
	if item.Description.Valid {
		out.Description = item.Description.String
	}
	if len(item.Metadata) > 0 {
		out.Metadata = json.RawMessage(item.Metadata)
	}
	return out
}

// ResponseResponse is the API representation of a response document
type ResponseResponse struct {
	ID               uuid.UUID  `json:"id"`
	RequestType      string     `json:"request_type"`
	RequestID        uuid.UUID  `json:"request_id"`
	Code             string     `json:"code"`
	Status           string     `json:"status"`
	Subject          string     `json:"subject,omitempty"`
	Intro            string     `json:"intro,omitempty"`
	Terms            string     `json:"terms,omitempty"`
	Currency         string     `json:"currency"`
	Subtotal         float64    `json:"subtotal"`
	DiscountTotal    float64    `json:"discount_total"`
	TaxTotal         float64    `json:"tax_total"`
	Total            float64    `json:"total"`
	ApprovalRequired bool       `json:"approval_required"`
	ApprovedBy       *uuid.UUID `json:"approved_by,omitempty"`
	ApprovedAt       *time.Time `json:"approved_at,omitempty"`
	SentBy           *uuid.UUID `json:"sent_by,omitempty"`
	SentAt           *time.Time `json:"sent_at,omitempty"`
	SentTo           string     `json:"sent_to,omitempty"`
	InternalNote     string     `json:"internal_note,omitempty"`
	ExternalNote     string     `json:"external_note,omitempty"`
	CreatedBy        uuid.UUID  `json:"created_by"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

// ResponseFromEntity converts a response entity to its API representation
func ResponseFromEntity(resp *Response) *ResponseResponse {
	out := &ResponseResponse{
		ID:               resp.ID,
		RequestType:      string(resp.RequestType),
		RequestID:        resp.RequestID,
		Code:             resp.Code,
		Status:           string(resp.Status),
		Currency:         resp.Currency,
		Subtotal:         resp.Subtotal,
		DiscountTotal:    resp.DiscountTotal,
		TaxTotal:         resp.TaxTotal,
		Total:            resp.Total,
		ApprovalRequired: resp.ApprovalRequired,
		CreatedBy:        resp.CreatedBy,
		CreatedAt:        resp.CreatedAt,
		UpdatedAt:        resp.UpdatedAt,
	}
	if resp.Subject.Valid {
		out.Subject = resp.Subject.String
	}
	if resp.Intro.Valid {
		out.Intro = resp.Intro.String
	}
	if resp.Terms.Valid {
		out.Terms = resp.Terms.String
	}
	if resp.ApprovedBy.Valid {
		id := resp.ApprovedBy.UUID
		out.ApprovedBy = &id
	}
	if resp.ApprovedAt.Valid {
		t := resp.ApprovedAt.Time
		out.ApprovedAt = &t
	}
	if resp.SentBy.Valid {
		id := resp.SentBy.UUID
		out.SentBy = &id
	}
	if resp.SentAt.Valid {
		t := resp.SentAt.Time
		out.SentAt = &t
	}
	if resp.SentTo.Valid {
		out.SentTo = resp.SentTo.String
	}
	if resp.InternalNote.Valid {
		out.InternalNote = resp.InternalNote.String
	}
	if resp.ExternalNote.Valid {
		out.ExternalNote = resp.ExternalNote.String
	}
	return out
}

// ResponseWithItems bundles a response with its line items
type ResponseWithItems struct {
	Response *ResponseResponse `json:"response"`
	Items    []*ItemResponse   `json:"items"`
}

// NewResponseWithItems builds the combined API representation
func NewResponseWithItems(resp *Response, items []*Item) *ResponseWithItems {
	out := &ResponseWithItems{
		Response: ResponseFromEntity(resp),
		Items:    make([]*ItemResponse, 0, len(items)),
	}
	for _, item := range items {
		out.Items = append(out.Items, ItemResponseFromEntity(item))
	}
	return out
}
