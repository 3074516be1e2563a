package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/nicknicole23/small-inventory-system/internal/domain"
	"github.com/nicknicole23/small-inventory-system/internal/report"
	"github.com/nicknicole23/small-inventory-system/internal/repository"

	"github.com/google/uuid"
)

var ErrCategoryInUse = errors.New("cannot delete category with associated products")

// CreateProductInput carries the fields for creating a product
type CreateProductInput struct {
	Name              string
	SKU               string
	Description       string
	Price             float64
	CategoryID        *uuid.UUID
	Stock             int
	LowStockThreshold *int
}

// UpdateProductInput carries a partial product update; nil fields keep
// their current value
type UpdateProductInput struct {
	Name              *string
	SKU               *string
	Description       *string
	Price             *float64
	CategoryID        *uuid.UUID
	Stock             *int
	LowStockThreshold *int
}

// DashboardStats combines stock counts with the revenue and units-sold
// figures of the current week versus the previous one. Derived on
// demand, never stored.
type DashboardStats struct {
	TotalProducts  int           `json:"total_products"`
	InStock        int           `json:"in_stock"`
	LowStock       int           `json:"low_stock"`
	OutOfStock     int           `json:"out_of_stock"`
	InventoryValue float64       `json:"inventory_value"`
	Revenue        report.Metric `json:"revenue"`
	UnitsSold      report.Metric `json:"units_sold"`
}

// InventoryService defines the interface for product and category
// business logic
type InventoryService interface {
	CreateProduct(ctx context.Context, input CreateProductInput) (*domain.Product, error)
	UpdateProduct(ctx context.Context, id uuid.UUID, input UpdateProductInput) (*domain.Product, error)
	DeleteProduct(ctx context.Context, id uuid.UUID) error
	GetProduct(ctx context.Context, id uuid.UUID) (*domain.Product, error)
	ListProducts(ctx context.Context, categoryID *uuid.UUID, search string) ([]*domain.Product, error)
	Stats(ctx context.Context) (*DashboardStats, error)

	CreateCategory(ctx context.Context, name, description string) (*domain.Category, error)
	UpdateCategory(ctx context.Context, id uuid.UUID, name, description *string) (*domain.Category, error)
	DeleteCategory(ctx context.Context, id uuid.UUID) error
	ListCategories(ctx context.Context) ([]*domain.Category, error)
}

type inventoryService struct {
	productRepo  repository.ProductRepository
	categoryRepo repository.CategoryRepository
	saleRepo     repository.SaleRepository
	now          func() time.Time
}

// NewInventoryService creates a new instance of InventoryService
func NewInventoryService(
	productRepo repository.ProductRepository,
	categoryRepo repository.CategoryRepository,
	saleRepo repository.SaleRepository,
) InventoryService {
	return &inventoryService{
		productRepo:  productRepo,
		categoryRepo: categoryRepo,
		saleRepo:     saleRepo,
		now:          time.Now,
	}
}

// CreateProduct validates the category reference and inserts the product
func (s *inventoryService) CreateProduct(ctx context.Context, input CreateProductInput) (*domain.Product, error) {
	if input.CategoryID != nil {
		if _, err := s.categoryRepo.FindByID(ctx, *input.CategoryID); err != nil {
			return nil, err
		}
	}

	threshold := domain.DefaultLowStockThreshold
	if input.LowStockThreshold != nil {
		threshold = *input.LowStockThreshold
	}

	product := &domain.Product{
		ID:                uuid.New(),
		Name:              input.Name,
		SKU:               input.SKU,
		Description:       input.Description,
		Price:             input.Price,
		CategoryID:        input.CategoryID,
		Stock:             input.Stock,
		LowStockThreshold: threshold,
		CreatedAt:         s.now(),
		UpdatedAt:         s.now(),
	}

	if err := s.productRepo.Create(ctx, product); err != nil {
		return nil, err
	}

	return product, nil
}

// UpdateProduct applies a partial update to an existing product
func (s *inventoryService) UpdateProduct(ctx context.Context, id uuid.UUID, input UpdateProductInput) (*domain.Product, error) {
	product, err := s.productRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		product.Name = *input.Name
	}
	if input.SKU != nil {
		product.SKU = *input.SKU
	}
	if input.Description != nil {
		product.Description = *input.Description
	}
	if input.Price != nil {
		product.Price = *input.Price
	}
	if input.CategoryID != nil {
		if _, err := s.categoryRepo.FindByID(ctx, *input.CategoryID); err != nil {
			return nil, err
		}
		product.CategoryID = input.CategoryID
	}
	if input.Stock != nil {
		product.Stock = *input.Stock
	}
	if input.LowStockThreshold != nil {
		product.LowStockThreshold = *input.LowStockThreshold
	}
	product.UpdatedAt = s.now()

	if err := s.productRepo.Update(ctx, product); err != nil {
		return nil, err
	}

	return product, nil
}

// DeleteProduct removes a product from the catalog
func (s *inventoryService) DeleteProduct(ctx context.Context, id uuid.UUID) error {
	return s.productRepo.Delete(ctx, id)
}

// GetProduct retrieves a single product
func (s *inventoryService) GetProduct(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	return s.productRepo.FindByID(ctx, id)
}

// ListProducts lists products, filtered by category or a free-text
// search over name and SKU
func (s *inventoryService) ListProducts(ctx context.Context, categoryID *uuid.UUID, search string) ([]*domain.Product, error) {
	if search != "" {
		return s.productRepo.Search(ctx, search)
	}
	return s.productRepo.List(ctx, categoryID)
}

// Stats computes the dashboard figures: stock counts plus week-over-week
// revenue and units sold, both derived from the same sale rows the
// report endpoint uses so the two can never diverge.
func (s *inventoryService) Stats(ctx context.Context) (*DashboardStats, error) {
	counts, err := s.productRepo.Counts(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load inventory counts: %w", err)
	}

	now := s.now()
	window := report.WindowWeek
	sales, err := s.saleRepo.ListSince(ctx, now.Add(-2*window.Duration()))
	if err != nil {
		return nil, fmt.Errorf("failed to load sales for stats: %w", err)
	}

	stats := report.Compute(dereferenceSales(sales), window, now)

	return &DashboardStats{
		TotalProducts:  counts.TotalProducts,
		InStock:        counts.InStock,
		LowStock:       counts.LowStock,
		OutOfStock:     counts.OutOfStock,
		InventoryValue: counts.InventoryValue,
		Revenue:        stats.TotalRevenue,
		UnitsSold:      stats.TotalProductsSold,
	}, nil
}

// CreateCategory inserts a new category
func (s *inventoryService) CreateCategory(ctx context.Context, name, description string) (*domain.Category, error) {
	category := &domain.Category{
		ID:          uuid.New(),
		Name:        name,
		Description: description,
		CreatedAt:   s.now(),
	}

	if err := s.categoryRepo.Create(ctx, category); err != nil {
		return nil, err
	}

	return category, nil
}

// UpdateCategory applies a partial update to an existing category
func (s *inventoryService) UpdateCategory(ctx context.Context, id uuid.UUID, name, description *string) (*domain.Category, error) {
	category, err := s.categoryRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if name != nil {
		category.Name = *name
	}
	if description != nil {
		category.Description = *description
	}

	if err := s.categoryRepo.Update(ctx, category); err != nil {
		return nil, err
	}

	return category, nil
}

// DeleteCategory removes a category unless products still reference it
func (s *inventoryService) DeleteCategory(ctx context.Context, id uuid.UUID) error {
	count, err := s.productRepo.CountByCategory(ctx, id)
	if err != nil {
		return err
	}
	if count > 0 {
		return ErrCategoryInUse
	}

	return s.categoryRepo.Delete(ctx, id)
}

// ListCategories retrieves all categories
func (s *inventoryService) ListCategories(ctx context.Context) ([]*domain.Category, error) {
	return s.categoryRepo.List(ctx)
}

func dereferenceSales(sales []*domain.Sale) []domain.Sale {
	out := make([]domain.Sale, 0, len(sales))
	for _, s := range sales {
		out = append(out, *s)
	}
	return out
}
