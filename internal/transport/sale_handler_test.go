package transport

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/nicknicole23/small-inventory-system/internal/domain"
	"github.com/nicknicole23/small-inventory-system/internal/middleware"
	"github.com/nicknicole23/small-inventory-system/internal/repository"
	"github.com/nicknicole23/small-inventory-system/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type mockProductRepository struct {
	products map[uuid.UUID]*domain.Product
}

func newMockProductRepository() *mockProductRepository {
	return &mockProductRepository{products: make(map[uuid.UUID]*domain.Product)}
}

func (m *mockProductRepository) add(product *domain.Product) *domain.Product {
	m.products[product.ID] = product
	return product
}

func (m *mockProductRepository) Create(ctx context.Context, product *domain.Product) error {
	m.products[product.ID] = product
	return nil
}

func (m *mockProductRepository) Update(ctx context.Context, product *domain.Product) error {
	if _, ok := m.products[product.ID]; !ok {
		return repository.ErrProductNotFound
	}
	m.products[product.ID] = product
	return nil
}

func (m *mockProductRepository) Delete(ctx context.Context, id uuid.UUID) error {
	if _, ok := m.products[id]; !ok {
		return repository.ErrProductNotFound
	}
	delete(m.products, id)
	return nil
}

func (m *mockProductRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	product, ok := m.products[id]
	if !ok {
		return nil, repository.ErrProductNotFound
	}
	clone := *product
	return &clone, nil
}

func (m *mockProductRepository) FindBySKU(ctx context.Context, sku string) (*domain.Product, error) {
	for _, product := range m.products {
		if product.SKU == sku {
			clone := *product
			return &clone, nil
		}
	}
	return nil, repository.ErrProductNotFound
}

func (m *mockProductRepository) List(ctx context.Context, categoryID *uuid.UUID) ([]*domain.Product, error) {
	var out []*domain.Product
	for _, product := range m.products {
		out = append(out, product)
	}
	return out, nil
}

func (m *mockProductRepository) Search(ctx context.Context, query string) ([]*domain.Product, error) {
	return nil, nil
}

func (m *mockProductRepository) CountByCategory(ctx context.Context, categoryID uuid.UUID) (int, error) {
	count := 0
	for _, product := range m.products {
		if product.CategoryID != nil && *product.CategoryID == categoryID {
			count++
		}
	}
	return count, nil
}

func (m *mockProductRepository) Counts(ctx context.Context) (*repository.InventoryCounts, error) {
	return &repository.InventoryCounts{TotalProducts: len(m.products)}, nil
}

type mockSaleRepository struct {
	sales []*domain.Sale
}

func (m *mockSaleRepository) Create(ctx context.Context, sale *domain.Sale) error {
	m.sales = append(m.sales, sale)
	return nil
}

func (m *mockSaleRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Sale, error) {
	for _, sale := range m.sales {
		if sale.ID == id {
			return sale, nil
		}
	}
	return nil, repository.ErrSaleNotFound
}

func (m *mockSaleRepository) List(ctx context.Context) ([]*domain.Sale, error) {
	return m.sales, nil
}

func (m *mockSaleRepository) ListSince(ctx context.Context, since time.Time) ([]*domain.Sale, error) {
	var out []*domain.Sale
	for _, sale := range m.sales {
		if !sale.CreatedAt.Before(since) {
			out = append(out, sale)
		}
	}
	return out, nil
}

type saleTestEnv struct {
	router      chi.Router
	productRepo *mockProductRepository
	saleRepo    *mockSaleRepository
	accessToken string
}

func newSaleTestEnv(t *testing.T) *saleTestEnv {
	t.Helper()

	logger := zap.NewNop()
	productRepo := newMockProductRepository()
	saleRepo := &mockSaleRepository{}

	userService := service.NewUserService(newMockUserRepository(), newMockRefreshTokenRepository(), testJWTSecret)
	saleService := service.NewSaleService(saleRepo, productRepo)
	reportService := service.NewReportService(saleRepo)

	router := chi.NewRouter()
	authMW := middleware.AuthMiddleware(testJWTSecret, logger)
	NewSaleHandler(saleService, logger).RegisterRoutes(router, authMW)
	NewReportHandler(reportService, logger).RegisterRoutes(router, authMW)

	ctx := context.Background()
	if _, err := userService.Register(ctx, "cashier@shop.com", "password123", "Cash", "Ier"); err != nil {
		t.Fatalf("could not register user: %v", err)
	}
	accessToken, _, _, err := userService.Login(ctx, "cashier@shop.com", "password123")
	if err != nil {
		t.Fatalf("could not log in: %v", err)
	}

	return &saleTestEnv{
		router:      router,
		productRepo: productRepo,
		saleRepo:    saleRepo,
		accessToken: accessToken,
	}
}

func (e *saleTestEnv) stockProduct(name string, price float64, stock int) *domain.Product {
	return e.productRepo.add(&domain.Product{
		ID:                uuid.New(),
		Name:              name,
		SKU:               "SKU-" + uuid.NewString()[:8],
		Price:             price,
		Stock:             stock,
		LowStockThreshold: domain.DefaultLowStockThreshold,
	})
}

func TestCreateSaleOverHTTP(t *testing.T) {
	env := newSaleTestEnv(t)

	coffee := env.stockProduct("Coffee", 12.50, 40)
	filters := env.stockProduct("Filters", 3.25, 100)

	rec := doJSON(env.router, http.MethodPost, "/api/sales", env.accessToken, CreateSaleRequest{
		Items: []SaleItemRequest{
			{ProductID: coffee.ID.String(), Quantity: 2},
			{ProductID: filters.ID.String(), Quantity: 4},
		},
		PaymentMethod: "card",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("sale creation returned %d: %s", rec.Code, rec.Body.String())
	}

	var response SaleResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &response); err != nil {
		t.Fatalf("could not decode sale response: %v", err)
	}
	if response.ItemsCount != 2 {
		t.Errorf("expected 2 items, got %d", response.ItemsCount)
	}
	want := 2*12.50 + 4*3.25
	if diff := response.TotalAmount - want; diff < -1e-9 || diff > 1e-9 {
		t.Errorf("expected total %f, got %f", want, response.TotalAmount)
	}
	if len(env.saleRepo.sales) != 1 {
		t.Fatalf("expected 1 persisted sale, got %d", len(env.saleRepo.sales))
	}
}

func TestCreateSaleRequiresAuthentication(t *testing.T) {
	env := newSaleTestEnv(t)
	product := env.stockProduct("Locked", 1.00, 10)

	rec := doJSON(env.router, http.MethodPost, "/api/sales", "", CreateSaleRequest{
		Items: []SaleItemRequest{{ProductID: product.ID.String(), Quantity: 1}},
	})
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("unauthenticated sale returned %d, want %d", rec.Code, http.StatusUnauthorized)
	}
}

func TestCreateSaleRejectsEmptyItems(t *testing.T) {
	env := newSaleTestEnv(t)

	rec := doJSON(env.router, http.MethodPost, "/api/sales", env.accessToken, CreateSaleRequest{
		Items: []SaleItemRequest{},
	})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("empty sale returned %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestCreateSaleRejectsQuantityAboveStock(t *testing.T) {
	env := newSaleTestEnv(t)
	product := env.stockProduct("Scarce", 9.00, 3)

	rec := doJSON(env.router, http.MethodPost, "/api/sales", env.accessToken, CreateSaleRequest{
		Items: []SaleItemRequest{{ProductID: product.ID.String(), Quantity: 4}},
	})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("overselling returned %d, want %d", rec.Code, http.StatusBadRequest)
	}
	if len(env.saleRepo.sales) != 0 {
		t.Errorf("expected no persisted sales, got %d", len(env.saleRepo.sales))
	}
}

func TestCreateSaleRejectsDuplicateProductLines(t *testing.T) {
	env := newSaleTestEnv(t)
	product := env.stockProduct("Beans", 12.50, 40)

	rec := doJSON(env.router, http.MethodPost, "/api/sales", env.accessToken, CreateSaleRequest{
		Items: []SaleItemRequest{
			{ProductID: product.ID.String(), Quantity: 2},
			{ProductID: product.ID.String(), Quantity: 3},
		},
	})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("duplicate product lines returned %d, want %d", rec.Code, http.StatusBadRequest)
	}
	if len(env.saleRepo.sales) != 0 {
		t.Errorf("expected no persisted sales, got %d", len(env.saleRepo.sales))
	}
}

func TestCreateSaleRejectsUnknownProduct(t *testing.T) {
	env := newSaleTestEnv(t)

	rec := doJSON(env.router, http.MethodPost, "/api/sales", env.accessToken, CreateSaleRequest{
		Items: []SaleItemRequest{{ProductID: uuid.NewString(), Quantity: 1}},
	})
	if rec.Code != http.StatusNotFound {
		t.Errorf("unknown product returned %d, want %d", rec.Code, http.StatusNotFound)
	}
}

func TestGetSaleNotFound(t *testing.T) {
	env := newSaleTestEnv(t)

	rec := doJSON(env.router, http.MethodGet, "/api/sales/"+uuid.NewString(), env.accessToken, nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("unknown sale returned %d, want %d", rec.Code, http.StatusNotFound)
	}

	rec = doJSON(env.router, http.MethodGet, "/api/sales/not-a-uuid", env.accessToken, nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("malformed sale ID returned %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestReportSummaryOverHTTP(t *testing.T) {
	env := newSaleTestEnv(t)
	now := time.Now()

	env.saleRepo.sales = []*domain.Sale{
		{
			ID:          uuid.New(),
			TotalAmount: 100,
			CreatedAt:   now.Add(-3 * 24 * time.Hour),
			Items:       []domain.SaleItem{{Quantity: 2}},
		},
		{
			ID:          uuid.New(),
			TotalAmount: 50,
			CreatedAt:   now.Add(-8 * 24 * time.Hour),
			Items:       []domain.SaleItem{{Quantity: 1}},
		},
	}

	rec := doJSON(env.router, http.MethodGet, "/api/reports/summary", env.accessToken, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("report summary returned %d: %s", rec.Code, rec.Body.String())
	}

	var stats struct {
		Window       string `json:"window"`
		TotalRevenue struct {
			Current  float64 `json:"current"`
			Previous float64 `json:"previous"`
			Trend    float64 `json:"trend"`
		} `json:"total_revenue"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &stats); err != nil {
		t.Fatalf("could not decode report: %v", err)
	}
	if stats.Window != "week" {
		t.Errorf("expected default window week, got %q", stats.Window)
	}
	if stats.TotalRevenue.Current != 100 || stats.TotalRevenue.Previous != 50 {
		t.Errorf("unexpected revenue partition: %+v", stats.TotalRevenue)
	}
	if diff := stats.TotalRevenue.Trend - 100; diff < -1e-9 || diff > 1e-9 {
		t.Errorf("expected revenue trend 100, got %f", stats.TotalRevenue.Trend)
	}
}

func TestReportSummaryRejectsUnknownRange(t *testing.T) {
	env := newSaleTestEnv(t)

	rec := doJSON(env.router, http.MethodGet, "/api/reports/summary?range=fortnight", env.accessToken, nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("unknown range returned %d, want %d", rec.Code, http.StatusBadRequest)
	}

	for _, valid := range []string{"week", "month", "year"} {
		rec := doJSON(env.router, http.MethodGet, "/api/reports/summary?range="+valid, env.accessToken, nil)
		if rec.Code != http.StatusOK {
			t.Errorf("range %q returned %d, want %d", valid, rec.Code, http.StatusOK)
		}
	}
}
