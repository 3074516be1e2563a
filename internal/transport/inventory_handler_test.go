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

type mockCategoryRepository struct {
	categories map[uuid.UUID]*domain.Category
}

func newMockCategoryRepository() *mockCategoryRepository {
	return &mockCategoryRepository{categories: make(map[uuid.UUID]*domain.Category)}
}

func (m *mockCategoryRepository) Create(ctx context.Context, category *domain.Category) error {
	for _, existing := range m.categories {
		if existing.Name == category.Name {
			return repository.ErrCategoryAlreadyExists
		}
	}
	m.categories[category.ID] = category
	return nil
}

func (m *mockCategoryRepository) Update(ctx context.Context, category *domain.Category) error {
	if _, ok := m.categories[category.ID]; !ok {
		return repository.ErrCategoryNotFound
	}
	m.categories[category.ID] = category
	return nil
}

func (m *mockCategoryRepository) Delete(ctx context.Context, id uuid.UUID) error {
	if _, ok := m.categories[id]; !ok {
		return repository.ErrCategoryNotFound
	}
	delete(m.categories, id)
	return nil
}

func (m *mockCategoryRepository) List(ctx context.Context) ([]*domain.Category, error) {
	var out []*domain.Category
	for _, category := range m.categories {
		out = append(out, category)
	}
	return out, nil
}

func (m *mockCategoryRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Category, error) {
	category, ok := m.categories[id]
	if !ok {
		return nil, repository.ErrCategoryNotFound
	}
	return category, nil
}

type inventoryTestEnv struct {
	router       chi.Router
	productRepo  *mockProductRepository
	categoryRepo *mockCategoryRepository
	saleRepo     *mockSaleRepository
	accessToken  string
}

func newInventoryTestEnv(t *testing.T) *inventoryTestEnv {
	t.Helper()

	logger := zap.NewNop()
	productRepo := newMockProductRepository()
	categoryRepo := newMockCategoryRepository()
	saleRepo := &mockSaleRepository{}

	userService := service.NewUserService(newMockUserRepository(), newMockRefreshTokenRepository(), testJWTSecret)
	inventoryService := service.NewInventoryService(productRepo, categoryRepo, saleRepo)

	router := chi.NewRouter()
	authMW := middleware.AuthMiddleware(testJWTSecret, logger)
	NewInventoryHandler(inventoryService, logger).RegisterRoutes(router, authMW)
	NewCategoryHandler(inventoryService, logger).RegisterRoutes(router, authMW)

	ctx := context.Background()
	if _, err := userService.Register(ctx, "manager@shop.com", "password123", "Man", "Ager"); err != nil {
		t.Fatalf("could not register user: %v", err)
	}
	accessToken, _, _, err := userService.Login(ctx, "manager@shop.com", "password123")
	if err != nil {
		t.Fatalf("could not log in: %v", err)
	}

	return &inventoryTestEnv{
		router:       router,
		productRepo:  productRepo,
		categoryRepo: categoryRepo,
		saleRepo:     saleRepo,
		accessToken:  accessToken,
	}
}

func TestCreateAndGetProductOverHTTP(t *testing.T) {
	env := newInventoryTestEnv(t)

	rec := doJSON(env.router, http.MethodPost, "/api/inventory", env.accessToken, CreateProductRequest{
		Name:  "Espresso Beans",
		SKU:   "BEAN-001",
		Price: 14.90,
		Stock: 25,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("product creation returned %d: %s", rec.Code, rec.Body.String())
	}

	var created ProductResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatalf("could not decode product: %v", err)
	}
	if created.Status != domain.StatusInStock {
		t.Errorf("expected status %q, got %q", domain.StatusInStock, created.Status)
	}
	if created.Category != "Uncategorized" {
		t.Errorf("expected category Uncategorized, got %q", created.Category)
	}

	rec = doJSON(env.router, http.MethodGet, "/api/inventory/"+created.ID, env.accessToken, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("product get returned %d: %s", rec.Code, rec.Body.String())
	}
}

func TestCreateProductRejectsUnknownCategoryOverHTTP(t *testing.T) {
	env := newInventoryTestEnv(t)

	missing := uuid.NewString()
	rec := doJSON(env.router, http.MethodPost, "/api/inventory", env.accessToken, CreateProductRequest{
		Name:       "Orphan",
		SKU:        "ORP-001",
		Price:      1.00,
		CategoryID: &missing,
	})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("unknown category returned %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestUpdateProductPartiallyOverHTTP(t *testing.T) {
	env := newInventoryTestEnv(t)

	product := env.productRepo.add(&domain.Product{
		ID:                uuid.New(),
		Name:              "Original",
		SKU:               "ORIG-01",
		Price:             10.00,
		Stock:             2,
		LowStockThreshold: domain.DefaultLowStockThreshold,
	})

	newStock := 0
	rec := doJSON(env.router, http.MethodPut, "/api/inventory/"+product.ID.String(), env.accessToken, UpdateProductRequest{
		Stock: &newStock,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("product update returned %d: %s", rec.Code, rec.Body.String())
	}

	var updated ProductResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &updated); err != nil {
		t.Fatalf("could not decode product: %v", err)
	}
	if updated.Name != "Original" {
		t.Errorf("name must survive a partial update, got %q", updated.Name)
	}
	if updated.Status != domain.StatusOutOfStock {
		t.Errorf("expected status %q at zero stock, got %q", domain.StatusOutOfStock, updated.Status)
	}
}

func TestInventoryStatsOverHTTP(t *testing.T) {
	env := newInventoryTestEnv(t)

	env.productRepo.add(&domain.Product{ID: uuid.New(), Name: "A", SKU: "A-1", Price: 5, Stock: 50, LowStockThreshold: 10})
	env.saleRepo.sales = []*domain.Sale{
		{
			ID:          uuid.New(),
			TotalAmount: 75,
			CreatedAt:   time.Now().Add(-24 * time.Hour),
			Items:       []domain.SaleItem{{Quantity: 5}},
		},
	}

	rec := doJSON(env.router, http.MethodGet, "/api/inventory/stats", env.accessToken, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("stats returned %d: %s", rec.Code, rec.Body.String())
	}

	var stats struct {
		TotalProducts int `json:"total_products"`
		Revenue       struct {
			Current float64 `json:"current"`
			Trend   float64 `json:"trend"`
		} `json:"revenue"`
		UnitsSold struct {
			Current float64 `json:"current"`
		} `json:"units_sold"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &stats); err != nil {
		t.Fatalf("could not decode stats: %v", err)
	}
	if stats.TotalProducts != 1 {
		t.Errorf("expected 1 product, got %d", stats.TotalProducts)
	}
	if stats.Revenue.Current != 75 {
		t.Errorf("expected current revenue 75, got %f", stats.Revenue.Current)
	}
	if stats.Revenue.Trend != 100 {
		t.Errorf("expected revenue trend 100 on growth from zero, got %f", stats.Revenue.Trend)
	}
	if stats.UnitsSold.Current != 5 {
		t.Errorf("expected 5 units sold, got %f", stats.UnitsSold.Current)
	}
}

func TestCategoryLifecycleOverHTTP(t *testing.T) {
	env := newInventoryTestEnv(t)

	rec := doJSON(env.router, http.MethodPost, "/api/categories", env.accessToken, map[string]string{
		"name":        "Beverages",
		"description": "Hot and cold drinks",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("category creation returned %d: %s", rec.Code, rec.Body.String())
	}

	var created domain.Category
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatalf("could not decode category: %v", err)
	}

	// A referenced category must not be deletable
	env.productRepo.add(&domain.Product{
		ID:         uuid.New(),
		Name:       "Latte",
		SKU:        "LAT-01",
		Price:      4.50,
		Stock:      10,
		CategoryID: &created.ID,
	})

	rec = doJSON(env.router, http.MethodDelete, "/api/categories/"+created.ID.String(), env.accessToken, nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("deleting a referenced category returned %d, want %d", rec.Code, http.StatusBadRequest)
	}
}
