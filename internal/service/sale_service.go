package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/nicknicole23/small-inventory-system/internal/cart"
	"github.com/nicknicole23/small-inventory-system/internal/domain"
	"github.com/nicknicole23/small-inventory-system/internal/repository"

	"github.com/google/uuid"
)

// DefaultPaymentMethod is recorded when a checkout omits one
const DefaultPaymentMethod = "cash"

// ErrDuplicateLine is returned when a checkout payload lists the same
// product more than once. The client owns merging quantities into one
// line, so a duplicate means the payload is malformed.
var ErrDuplicateLine = errors.New("duplicate product in sale")

// SaleService defines the interface for checkout and sale history logic
type SaleService interface {
	// Checkout validates the requested lines against the live catalog,
	// rebuilds the sale as a cart so the stock-ceiling invariants apply,
	// and persists it with price snapshots and stock decrements.
	Checkout(ctx context.Context, userID uuid.UUID, lines []cart.SaleLine, paymentMethod string) (*domain.Sale, error)
	GetSale(ctx context.Context, id uuid.UUID) (*domain.Sale, error)
	ListSales(ctx context.Context) ([]*domain.Sale, error)
}

type saleService struct {
	saleRepo    repository.SaleRepository
	productRepo repository.ProductRepository
	now         func() time.Time
}

// NewSaleService creates a new instance of SaleService
func NewSaleService(saleRepo repository.SaleRepository, productRepo repository.ProductRepository) SaleService {
	return &saleService{
		saleRepo:    saleRepo,
		productRepo: productRepo,
		now:         time.Now,
	}
}

// Checkout turns a submitted sale payload into a persisted sale.
//
// The client's cart is not trusted: each line is re-checked against the
// product's current stock and price by replaying it through a fresh
// cart, so the same invariants gate both the interactive cart and the
// final submission. The repository's transactional stock decrement is
// the last word under concurrent checkouts.
func (s *saleService) Checkout(ctx context.Context, userID uuid.UUID, lines []cart.SaleLine, paymentMethod string) (*domain.Sale, error) {
	if len(lines) == 0 {
		return nil, cart.ErrEmptyCart
	}
	if paymentMethod == "" {
		paymentMethod = DefaultPaymentMethod
	}

	seen := make(map[uuid.UUID]struct{}, len(lines))
	for _, line := range lines {
		if _, ok := seen[line.ProductID]; ok {
			return nil, ErrDuplicateLine
		}
		seen[line.ProductID] = struct{}{}
	}

	checkout := cart.New()
	for _, line := range lines {
		product, err := s.productRepo.FindByID(ctx, line.ProductID)
		if err != nil {
			return nil, err
		}

		if err := checkout.AddItem(product); err != nil {
			return nil, fmt.Errorf("%s: %w", product.Name, err)
		}
		if err := checkout.SetQuantity(product.ID, line.Quantity); err != nil {
			return nil, fmt.Errorf("%s: %w", product.Name, err)
		}
	}

	now := s.now()
	sale := &domain.Sale{
		ID:            uuid.New(),
		UserID:        userID,
		TotalAmount:   checkout.Total(),
		PaymentMethod: paymentMethod,
		CreatedAt:     now,
	}

	for _, item := range checkout.Items() {
		sale.Items = append(sale.Items, domain.SaleItem{
			ID:          uuid.New(),
			SaleID:      sale.ID,
			ProductID:   item.ProductID,
			ProductName: item.Name,
			Quantity:    item.Quantity,
			PriceAtSale: item.UnitPrice,
		})
	}

	if err := s.saleRepo.Create(ctx, sale); err != nil {
		return nil, err
	}

	return sale, nil
}

// GetSale retrieves a single sale with its items
func (s *saleService) GetSale(ctx context.Context, id uuid.UUID) (*domain.Sale, error) {
	return s.saleRepo.FindByID(ctx, id)
}

// ListSales retrieves all sales, newest first
func (s *saleService) ListSales(ctx context.Context) ([]*domain.Sale, error) {
	return s.saleRepo.List(ctx)
}
