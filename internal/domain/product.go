package domain

import (
	"time"

	"github.com/google/uuid"
)

// Stock status labels derived from a product's stock level
const (
	StatusInStock    = "In Stock"
	StatusLowStock   = "Low Stock"
	StatusOutOfStock = "Out of Stock"
)

// DefaultLowStockThreshold is applied when a product is created without one
const DefaultLowStockThreshold = 10

// Product represents an item tracked in the shop inventory
type Product struct {
	ID                uuid.UUID  `json:"id" db:"id"`
	Name              string     `json:"name" db:"name"`
	SKU               string     `json:"sku" db:"sku"`
	Description       string     `json:"description" db:"description"`
	Price             float64    `json:"price" db:"price"`
	CategoryID        *uuid.UUID `json:"category_id" db:"category_id"`
	Stock             int        `json:"stock" db:"stock"`
	LowStockThreshold int        `json:"low_stock_threshold" db:"low_stock_threshold"`
	CreatedAt         time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at" db:"updated_at"`
}

// Status derives the stock status label from the current stock level
func (p *Product) Status() string {
	switch {
	case p.Stock == 0:
		return StatusOutOfStock
	case p.Stock <= p.LowStockThreshold:
		return StatusLowStock
	default:
		return StatusInStock
	}
}

// Category represents a product category
type Category struct {
	ID          uuid.UUID `json:"id" db:"id"`
	Name        string    `json:"name" db:"name"`
	Description string    `json:"description" db:"description"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}
