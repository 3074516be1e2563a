package transport

import (
	"errors"
	"net/http"
	"time"

	"github.com/nicknicole23/small-inventory-system/internal/domain"
	"github.com/nicknicole23/small-inventory-system/internal/middleware"
	"github.com/nicknicole23/small-inventory-system/internal/repository"
	"github.com/nicknicole23/small-inventory-system/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CreateProductRequest represents the product creation payload
type CreateProductRequest struct {
	Name              string  `json:"name" validate:"required"`
	SKU               string  `json:"sku" validate:"required"`
	Description       string  `json:"description"`
	Price             float64 `json:"price" validate:"required,gte=0"`
	CategoryID        *string `json:"category_id" validate:"omitempty,uuid"`
	Stock             int     `json:"stock" validate:"gte=0"`
	LowStockThreshold *int    `json:"low_stock_threshold" validate:"omitempty,gte=0"`
}

// UpdateProductRequest represents a partial product update payload
type UpdateProductRequest struct {
	Name              *string  `json:"name"`
	SKU               *string  `json:"sku"`
	Description       *string  `json:"description"`
	Price             *float64 `json:"price" validate:"omitempty,gte=0"`
	CategoryID        *string  `json:"category_id" validate:"omitempty,uuid"`
	Stock             *int     `json:"stock" validate:"omitempty,gte=0"`
	LowStockThreshold *int     `json:"low_stock_threshold" validate:"omitempty,gte=0"`
}

// ProductResponse represents a product as served to clients, with the
// derived stock status and resolved category name
type ProductResponse struct {
	ID                string    `json:"id"`
	Name              string    `json:"name"`
	SKU               string    `json:"sku"`
	Description       string    `json:"description"`
	Price             float64   `json:"price"`
	Category          string    `json:"category"`
	CategoryID        *string   `json:"category_id"`
	Stock             int       `json:"stock"`
	LowStockThreshold int       `json:"low_stock_threshold"`
	Status            string    `json:"status"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// InventoryHandler handles HTTP requests for products and stats
type InventoryHandler struct {
	inventoryService service.InventoryService
	logger           *zap.Logger
}

// NewInventoryHandler creates a new InventoryHandler
func NewInventoryHandler(inventoryService service.InventoryService, logger *zap.Logger) *InventoryHandler {
	return &InventoryHandler{
		inventoryService: inventoryService,
		logger:           logger,
	}
}

// RegisterRoutes registers all inventory routes
func (h *InventoryHandler) RegisterRoutes(r chi.Router, authMiddleware func(http.Handler) http.Handler) {
	r.Route("/api/inventory", func(r chi.Router) {
		r.Use(authMiddleware)
		r.Get("/", h.List)
		r.Post("/", h.Create)
		r.Get("/stats", h.Stats)
		r.Get("/{id}", h.Get)
		r.Put("/{id}", h.Update)
		r.Delete("/{id}", h.Delete)
	})
}

// List handles listing products, with optional category and search filters
func (h *InventoryHandler) List(w http.ResponseWriter, r *http.Request) {
	var categoryID *uuid.UUID
	if raw := r.URL.Query().Get("category_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			middleware.RespondWithError(w, http.StatusBadRequest, "invalid category ID")
			return
		}
		categoryID = &id
	}

	products, err := h.inventoryService.ListProducts(r.Context(), categoryID, r.URL.Query().Get("search"))
	if err != nil {
		h.logger.Error("Failed to list products", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to list products")
		return
	}

	names, err := h.categoryNames(r)
	if err != nil {
		h.logger.Error("Failed to resolve category names", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to list products")
		return
	}

	response := make([]ProductResponse, 0, len(products))
	for _, product := range products {
		response = append(response, productResponse(product, names))
	}

	middleware.RespondWithJSON(w, http.StatusOK, response)
}

// Create handles adding a product to the inventory
func (h *InventoryHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateProductRequest

	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		if validationErrors := middleware.FormatValidationErrors(err); len(validationErrors) > 0 {
			middleware.RespondWithValidationErrors(w, validationErrors)
			return
		}

		middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	categoryID, err := parseOptionalUUID(req.CategoryID)
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid category ID")
		return
	}

	product, err := h.inventoryService.CreateProduct(r.Context(), service.CreateProductInput{
		Name:              req.Name,
		SKU:               req.SKU,
		Description:       req.Description,
		Price:             req.Price,
		CategoryID:        categoryID,
		Stock:             req.Stock,
		LowStockThreshold: req.LowStockThreshold,
	})
	if err != nil {
		h.respondProductError(w, err, "failed to create product")
		return
	}

	names, err := h.categoryNames(r)
	if err != nil {
		names = map[uuid.UUID]string{}
	}

	h.logger.Info("Product created", zap.String("product_id", product.ID.String()), zap.String("sku", product.SKU))
	middleware.RespondWithJSON(w, http.StatusCreated, productResponse(product, names))
}

// Get handles retrieving a single product
func (h *InventoryHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid product ID")
		return
	}

	product, err := h.inventoryService.GetProduct(r.Context(), id)
	if err != nil {
		h.respondProductError(w, err, "failed to get product")
		return
	}

	names, err := h.categoryNames(r)
	if err != nil {
		names = map[uuid.UUID]string{}
	}

	middleware.RespondWithJSON(w, http.StatusOK, productResponse(product, names))
}

// Update handles a partial product update
func (h *InventoryHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid product ID")
		return
	}

	var req UpdateProductRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		if validationErrors := middleware.FormatValidationErrors(err); len(validationErrors) > 0 {
			middleware.RespondWithValidationErrors(w, validationErrors)
			return
		}

		middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	categoryID, err := parseOptionalUUID(req.CategoryID)
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid category ID")
		return
	}

	product, err := h.inventoryService.UpdateProduct(r.Context(), id, service.UpdateProductInput{
		Name:              req.Name,
		SKU:               req.SKU,
		Description:       req.Description,
		Price:             req.Price,
		CategoryID:        categoryID,
		Stock:             req.Stock,
		LowStockThreshold: req.LowStockThreshold,
	})
	if err != nil {
		h.respondProductError(w, err, "failed to update product")
		return
	}

	names, err := h.categoryNames(r)
	if err != nil {
		names = map[uuid.UUID]string{}
	}

	middleware.RespondWithJSON(w, http.StatusOK, productResponse(product, names))
}

// Delete handles removing a product
func (h *InventoryHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid product ID")
		return
	}

	if err := h.inventoryService.DeleteProduct(r.Context(), id); err != nil {
		h.respondProductError(w, err, "failed to delete product")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, map[string]string{"message": "product deleted successfully"})
}

// Stats handles the pre-aggregated dashboard figures
func (h *InventoryHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.inventoryService.Stats(r.Context())
	if err != nil {
		h.logger.Error("Failed to compute inventory stats", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to compute inventory stats")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, stats)
}

func (h *InventoryHandler) respondProductError(w http.ResponseWriter, err error, fallback string) {
	switch {
	case errors.Is(err, repository.ErrProductNotFound):
		middleware.RespondWithError(w, http.StatusNotFound, "product not found")
	case errors.Is(err, repository.ErrCategoryNotFound):
		middleware.RespondWithError(w, http.StatusBadRequest, "category not found")
	case errors.Is(err, repository.ErrSKUAlreadyExists):
		middleware.RespondWithError(w, http.StatusConflict, "SKU already exists")
	default:
		h.logger.Error(fallback, zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, fallback)
	}
}

func (h *InventoryHandler) categoryNames(r *http.Request) (map[uuid.UUID]string, error) {
	categories, err := h.inventoryService.ListCategories(r.Context())
	if err != nil {
		return nil, err
	}

	names := make(map[uuid.UUID]string, len(categories))
	for _, category := range categories {
		names[category.ID] = category.Name
	}
	return names, nil
}

func productResponse(product *domain.Product, categoryNames map[uuid.UUID]string) ProductResponse {
	categoryName := "Uncategorized"
	var categoryID *string
	if product.CategoryID != nil {
		id := product.CategoryID.String()
		categoryID = &id
		if name, ok := categoryNames[*product.CategoryID]; ok {
			categoryName = name
		}
	}

	return ProductResponse{
		ID:                product.ID.String(),
		Name:              product.Name,
		SKU:               product.SKU,
		Description:       product.Description,
		Price:             product.Price,
		Category:          categoryName,
		CategoryID:        categoryID,
		Stock:             product.Stock,
		LowStockThreshold: product.LowStockThreshold,
		Status:            product.Status(),
		CreatedAt:         product.CreatedAt,
		UpdatedAt:         product.UpdatedAt,
	}
}

func parseOptionalUUID(raw *string) (*uuid.UUID, error) {
	if raw == nil || *raw == "" {
		return nil, nil
	}
	id, err := uuid.Parse(*raw)
	if err != nil {
		return nil, err
	}
	return &id, nil
}
