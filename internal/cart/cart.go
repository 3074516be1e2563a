package cart

import (
	"errors"

	"github.com/nicknicole23/small-inventory-system/internal/domain"

	"github.com/google/uuid"
)

var (
	ErrOutOfStock      = errors.New("product is out of stock")
	ErrStockExceeded   = errors.New("not enough stock available")
	ErrInvalidQuantity = errors.New("quantity must be at least 1")
	ErrEmptyCart       = errors.New("cart has no items")
)

// LineItem represents one product within an in-progress sale. Name,
// UnitPrice and MaxStock are snapshotted from the product at add-time.
type LineItem struct {
	ProductID uuid.UUID `json:"product_id"`
	Name      string    `json:"name"`
	UnitPrice float64   `json:"unit_price"`
	Quantity  int       `json:"quantity"`
	MaxStock  int       `json:"max_stock"`
}

// Subtotal returns the line total for this item
func (l *LineItem) Subtotal() float64 {
	return l.UnitPrice * float64(l.Quantity)
}

// SaleLine is the projection of a line item sent to sale creation.
// Only the product ID and quantity are sent; the server re-derives
// authoritative pricing.
type SaleLine struct {
	ProductID uuid.UUID `json:"product_id"`
	Quantity  int       `json:"quantity"`
}

// Cart holds the line items of a single in-progress sale. Line items are
// kept in insertion order and keyed by product ID. A cart has a single
// owner per checkout session; it is not safe for concurrent use.
//
// Every mutation is all-or-nothing: either the invariant-checked change
// applies in full, or the cart is left unchanged and an error is returned.
// The invariant 1 <= Quantity <= MaxStock holds for every line after
// every successful call.
type Cart struct {
	items []LineItem
}

// New creates an empty cart for a new checkout session
func New() *Cart {
	return &Cart{}
}

func (c *Cart) find(productID uuid.UUID) *LineItem {
	for i := range c.items {
		if c.items[i].ProductID == productID {
			return &c.items[i]
		}
	}
	return nil
}

// AddItem adds one unit of the given product to the cart. If the product
// is already present its quantity is incremented by 1, failing with
// ErrStockExceeded when the new quantity would exceed the stock ceiling
// captured at add-time. If absent, a new line item with quantity 1 is
// inserted, failing with ErrOutOfStock when the product has no stock.
func (c *Cart) AddItem(product *domain.Product) error {
	if item := c.find(product.ID); item != nil {
		if item.Quantity+1 > item.MaxStock {
			return ErrStockExceeded
		}
		item.Quantity++
		return nil
	}

	if product.Stock <= 0 {
		return ErrOutOfStock
	}

	c.items = append(c.items, LineItem{
		ProductID: product.ID,
		Name:      product.Name,
		UnitPrice: product.Price,
		Quantity:  1,
		MaxStock:  product.Stock,
	})
	return nil
}

// SetQuantity replaces the quantity of an existing line item. It fails
// with ErrInvalidQuantity for quantities below 1 and ErrStockExceeded for
// quantities above the line's stock ceiling. Unknown product IDs are a
// no-op.
func (c *Cart) SetQuantity(productID uuid.UUID, quantity int) error {
	if quantity < 1 {
		return ErrInvalidQuantity
	}

	item := c.find(productID)
	if item == nil {
		return nil
	}

	if quantity > item.MaxStock {
		return ErrStockExceeded
	}

	item.Quantity = quantity
	return nil
}

// RemoveItem deletes the line for the given product. Removing a product
// that is not in the cart is a no-op, not an error.
func (c *Cart) RemoveItem(productID uuid.UUID) {
	for i := range c.items {
		if c.items[i].ProductID == productID {
			c.items = append(c.items[:i], c.items[i+1:]...)
			return
		}
	}
}

// Total returns the sum of unit price times quantity over all lines. It
// is recomputed from the current line items on every call so it can never
// drift from them.
func (c *Cart) Total() float64 {
	var total float64
	for i := range c.items {
		total += c.items[i].Subtotal()
	}
	return total
}

// Items returns a snapshot of the current line items in insertion order
func (c *Cart) Items() []LineItem {
	items := make([]LineItem, len(c.items))
	copy(items, c.items)
	return items
}

// Len returns the number of line items in the cart
func (c *Cart) Len() int {
	return len(c.items)
}

// Clear empties the cart after a successful submission
func (c *Cart) Clear() {
	c.items = nil
}

// ToSalePayload projects the cart into the sale-creation request shape.
// It fails with ErrEmptyCart when there is nothing to submit.
func (c *Cart) ToSalePayload() ([]SaleLine, error) {
	if len(c.items) == 0 {
		return nil, ErrEmptyCart
	}

	lines := make([]SaleLine, 0, len(c.items))
	for i := range c.items {
		lines = append(lines, SaleLine{
			ProductID: c.items[i].ProductID,
			Quantity:  c.items[i].Quantity,
		})
	}
	return lines, nil
}
