package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Location is where a product is stocked
type Location string

const (
	LocationLocal     Location = "local"
	LocationWarehouse Location = "warehouse"
)

// DefaultLocation is applied to new drafts and to an unset location
const DefaultLocation = LocationLocal

// Valid reports whether l is one of the known storage locations
func (l Location) Valid() bool {
	return l == LocationLocal || l == LocationWarehouse
}

// Product represents an inventory product record
type Product struct {
	ID           uuid.UUID       `json:"id" db:"id"`
	Name         string          `json:"product_name" db:"name"`
	CategoryID   uuid.UUID       `json:"category_id" db:"category_id"`
	Category     string          `json:"category" db:"-"`
	ExpiryDate   *time.Time      `json:"expiry_date,omitempty" db:"expiry_date"`
	Price        decimal.Decimal `json:"price" db:"price"`
	Units        decimal.Decimal `json:"units" db:"units"`
	ReorderLevel decimal.Decimal `json:"reorder_level" db:"reorder_level"`
	Location     Location        `json:"location" db:"location"`
	CreatedAt    time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at" db:"updated_at"`
}

// NeedsReorder reports whether stock has fallen to the reorder threshold
func (p *Product) NeedsReorder() bool {
	return p.Units.LessThanOrEqual(p.ReorderLevel)
}

// Category represents a product category
type Category struct {
	ID          uuid.UUID `json:"id" db:"id"`
	Name        string    `json:"name" db:"name"`
	Description string    `json:"description" db:"description"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}
