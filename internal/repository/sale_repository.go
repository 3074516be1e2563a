package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/nicknicole23/small-inventory-system/internal/domain"

	"github.com/google/uuid"
)

var (
	ErrSaleNotFound      = errors.New("sale not found")
	ErrInsufficientStock = errors.New("insufficient stock for sale item")
)

// SaleRepository defines the interface for sale data access
type SaleRepository interface {
	// Create persists a sale with its items and decrements product stock
	// in a single transaction. The whole transaction is rolled back when
	// any item would drive a product's stock below zero.
	Create(ctx context.Context, sale *domain.Sale) error
	FindByID(ctx context.Context, id uuid.UUID) (*domain.Sale, error)
	List(ctx context.Context) ([]*domain.Sale, error)
	ListSince(ctx context.Context, since time.Time) ([]*domain.Sale, error)
}

type saleRepository struct {
	db *sql.DB
}

// NewSaleRepository creates a new instance of SaleRepository
func NewSaleRepository(db *sql.DB) SaleRepository {
	return &saleRepository{db: db}
}

// Create inserts the sale, its items and the stock decrements atomically
func (r *saleRepository) Create(ctx context.Context, sale *domain.Sale) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin sale transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(
		ctx,
		`INSERT INTO sales (id, user_id, total_amount, payment_method, created_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		sale.ID,
		sale.UserID,
		sale.TotalAmount,
		sale.PaymentMethod,
		sale.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create sale: %w", err)
	}

	for i := range sale.Items {
		item := &sale.Items[i]

		_, err = tx.ExecContext(
			ctx,
			`INSERT INTO sale_items (id, sale_id, product_id, quantity, price_at_sale)
			 VALUES ($1, $2, $3, $4, $5)`,
			item.ID,
			sale.ID,
			item.ProductID,
			item.Quantity,
			item.PriceAtSale,
		)
		if err != nil {
			return fmt.Errorf("failed to create sale item: %w", err)
		}

		// The stock guard in the WHERE clause makes the decrement the
		// authoritative check under concurrent checkouts.
		result, err := tx.ExecContext(
			ctx,
			`UPDATE products SET stock = stock - $2, updated_at = $3
			 WHERE id = $1 AND stock >= $2`,
			item.ProductID,
			item.Quantity,
			sale.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to decrement stock: %w", err)
		}

		rowsAffected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to get rows affected: %w", err)
		}
		if rowsAffected == 0 {
			return ErrInsufficientStock
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit sale transaction: %w", err)
	}

	return nil
}

// FindByID retrieves a sale with its items
func (r *saleRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Sale, error) {
	query := `
		SELECT id, user_id, total_amount, payment_method, created_at
		FROM sales
		WHERE id = $1
	`

	sale := &domain.Sale{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&sale.ID,
		&sale.UserID,
		&sale.TotalAmount,
		&sale.PaymentMethod,
		&sale.CreatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrSaleNotFound
		}
		return nil, fmt.Errorf("failed to find sale by ID: %w", err)
	}

	items, err := r.itemsForSales(ctx, []uuid.UUID{sale.ID})
	if err != nil {
		return nil, err
	}
	sale.Items = items[sale.ID]

	return sale, nil
}

// List retrieves all sales with their items, newest first
func (r *saleRepository) List(ctx context.Context) ([]*domain.Sale, error) {
	return r.list(ctx, time.Time{})
}

// ListSince retrieves the sales created at or after the given time,
// newest first. Used by the report service to bound the rows it loads.
func (r *saleRepository) ListSince(ctx context.Context, since time.Time) ([]*domain.Sale, error) {
	return r.list(ctx, since)
}

func (r *saleRepository) list(ctx context.Context, since time.Time) ([]*domain.Sale, error) {
	query := `
		SELECT id, user_id, total_amount, payment_method, created_at
		FROM sales
	`
	args := []any{}
	if !since.IsZero() {
		query += ` WHERE created_at >= $1`
		args = append(args, since)
	}
	query += ` ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list sales: %w", err)
	}
	defer rows.Close()

	sales := []*domain.Sale{}
	ids := []uuid.UUID{}
	for rows.Next() {
		sale := &domain.Sale{}
		err := rows.Scan(
			&sale.ID,
			&sale.UserID,
			&sale.TotalAmount,
			&sale.PaymentMethod,
			&sale.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan sale: %w", err)
		}
		sales = append(sales, sale)
		ids = append(ids, sale.ID)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating sales: %w", err)
	}

	if len(ids) == 0 {
		return sales, nil
	}

	items, err := r.itemsForSales(ctx, ids)
	if err != nil {
		return nil, err
	}
	for _, sale := range sales {
		sale.Items = items[sale.ID]
	}

	return sales, nil
}

// itemsForSales loads the items for the given sale IDs in one query,
// joined with the product name for display.
func (r *saleRepository) itemsForSales(ctx context.Context, saleIDs []uuid.UUID) (map[uuid.UUID][]domain.SaleItem, error) {
	query := `
		SELECT si.id, si.sale_id, si.product_id, COALESCE(p.name, 'Unknown Product'), si.quantity, si.price_at_sale
		FROM sale_items si
		LEFT JOIN products p ON p.id = si.product_id
		WHERE si.sale_id = ANY($1::uuid[])
		ORDER BY si.id
	`

	ids := make([]string, 0, len(saleIDs))
	for _, id := range saleIDs {
		ids = append(ids, id.String())
	}

	rows, err := r.db.QueryContext(ctx, query, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to list sale items: %w", err)
	}
	defer rows.Close()

	items := map[uuid.UUID][]domain.SaleItem{}
	for rows.Next() {
		item := domain.SaleItem{}
		err := rows.Scan(
			&item.ID,
			&item.SaleID,
			&item.ProductID,
			&item.ProductName,
			&item.Quantity,
			&item.PriceAtSale,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan sale item: %w", err)
		}
		items[item.SaleID] = append(items[item.SaleID], item)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating sale items: %w", err)
	}

	return items, nil
}
