package catalog

import (
	"time"

	"github.com/google/uuid"
)

// Item represents a sellable product or service in the catalog
// (matches catalog_items table)
type Item struct {
	ID        uuid.UUID `db:"id" json:"id"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`

	Name  string `db:"name" json:"name"`
	Notes string `db:"notes" json:"notes"`

	// SellPrice is the regular price, SalePrice an optional promotional
	// price. Matching prefers the higher-priced row (sale first).
	SellPrice float64 `db:"sell_price" json:"sell_price"`
	SalePrice float64 `db:"sale_price" json:"sale_price"`

	Taxable    bool `db:"taxable" json:"taxable"`
	IsActive   bool `db:"is_active" json:"is_active"`
	IsSellable bool `db:"is_sellable" json:"is_sellable"`
}

// EffectivePrice returns the price a new line item should carry
func (i *Item) EffectivePrice() float64 {
	if i.SalePrice > 0 {
		return i.SalePrice
	}
	return i.SellPrice
}
