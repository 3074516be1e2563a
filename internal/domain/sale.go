package domain

import (
	"time"

	"github.com/google/uuid"
)

// Sale represents a completed point-of-sale transaction
type Sale struct {
	ID            uuid.UUID  `json:"id" db:"id"`
	UserID        uuid.UUID  `json:"user_id" db:"user_id"`
	TotalAmount   float64    `json:"total_amount" db:"total_amount"`
	PaymentMethod string     `json:"payment_method" db:"payment_method"`
	CreatedAt     time.Time  `json:"created_at" db:"created_at"`
	Items         []SaleItem `json:"items"`
}

// SaleItem represents one product line within a completed sale.
// PriceAtSale snapshots the product price at checkout so later price
// changes do not rewrite sale history.
type SaleItem struct {
	ID          uuid.UUID `json:"id" db:"id"`
	SaleID      uuid.UUID `json:"sale_id" db:"sale_id"`
	ProductID   uuid.UUID `json:"product_id" db:"product_id"`
	ProductName string    `json:"product_name" db:"product_name"`
	Quantity    int       `json:"quantity" db:"quantity"`
	PriceAtSale float64   `json:"price" db:"price_at_sale"`
}

// Subtotal returns the line total for this sale item
func (i *SaleItem) Subtotal() float64 {
	return float64(i.Quantity) * i.PriceAtSale
}
