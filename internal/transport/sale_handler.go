package transport

import (
	"errors"
	"net/http"
	"time"

	"github.com/nicknicole23/small-inventory-system/internal/cart"
	"github.com/nicknicole23/small-inventory-system/internal/domain"
	"github.com/nicknicole23/small-inventory-system/internal/middleware"
	"github.com/nicknicole23/small-inventory-system/internal/repository"
	"github.com/nicknicole23/small-inventory-system/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// SaleItemRequest represents one line of a sale creation payload
type SaleItemRequest struct {
	ProductID string `json:"product_id" validate:"required,uuid"`
	Quantity  int    `json:"quantity" validate:"required,gte=1"`
}

// CreateSaleRequest represents the sale creation payload
type CreateSaleRequest struct {
	Items         []SaleItemRequest `json:"items" validate:"required,min=1,dive"`
	PaymentMethod string            `json:"payment_method"`
}

// SaleItemResponse represents one line of a sale as served to clients
type SaleItemResponse struct {
	ID          string  `json:"id"`
	ProductID   string  `json:"product_id"`
	ProductName string  `json:"product_name"`
	Quantity    int     `json:"quantity"`
	Price       float64 `json:"price"`
	Subtotal    float64 `json:"subtotal"`
}

// SaleResponse represents a sale as served to clients
type SaleResponse struct {
	ID            string             `json:"id"`
	TotalAmount   float64            `json:"total_amount"`
	PaymentMethod string             `json:"payment_method"`
	ItemsCount    int                `json:"items_count"`
	CreatedAt     time.Time          `json:"created_at"`
	Items         []SaleItemResponse `json:"items"`
}

// SaleHandler handles HTTP requests for sales
type SaleHandler struct {
	saleService service.SaleService
	logger      *zap.Logger
}

// NewSaleHandler creates a new SaleHandler
func NewSaleHandler(saleService service.SaleService, logger *zap.Logger) *SaleHandler {
	return &SaleHandler{
		saleService: saleService,
		logger:      logger,
	}
}

// RegisterRoutes registers all sale routes
func (h *SaleHandler) RegisterRoutes(r chi.Router, authMiddleware func(http.Handler) http.Handler) {
	r.Route("/api/sales", func(r chi.Router) {
		r.Use(authMiddleware)
		r.Get("/", h.List)
		r.Post("/", h.Create)
		r.Get("/{id}", h.Get)
	})
}

// List handles listing all sales, newest first
func (h *SaleHandler) List(w http.ResponseWriter, r *http.Request) {
	sales, err := h.saleService.ListSales(r.Context())
	if err != nil {
		h.logger.Error("Failed to list sales", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to list sales")
		return
	}

	response := make([]SaleResponse, 0, len(sales))
	for _, sale := range sales {
		response = append(response, saleResponse(sale))
	}

	middleware.RespondWithJSON(w, http.StatusOK, response)
}

// Create handles recording a new sale from a submitted cart payload
func (h *SaleHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := authenticatedUserID(r, h.logger)
	if !ok {
		middleware.RespondWithError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req CreateSaleRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		if validationErrors := middleware.FormatValidationErrors(err); len(validationErrors) > 0 {
			middleware.RespondWithValidationErrors(w, validationErrors)
			return
		}

		middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	lines := make([]cart.SaleLine, 0, len(req.Items))
	for _, item := range req.Items {
		productID, err := uuid.Parse(item.ProductID)
		if err != nil {
			middleware.RespondWithError(w, http.StatusBadRequest, "invalid product ID")
			return
		}
		lines = append(lines, cart.SaleLine{ProductID: productID, Quantity: item.Quantity})
	}

	sale, err := h.saleService.Checkout(r.Context(), userID, lines, req.PaymentMethod)
	if err != nil {
		h.respondSaleError(w, err)
		return
	}

	h.logger.Info("Sale recorded",
		zap.String("sale_id", sale.ID.String()),
		zap.Float64("total_amount", sale.TotalAmount),
		zap.Int("items", len(sale.Items)),
	)
	middleware.RespondWithJSON(w, http.StatusCreated, saleResponse(sale))
}

// Get handles retrieving a single sale
func (h *SaleHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid sale ID")
		return
	}

	sale, err := h.saleService.GetSale(r.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrSaleNotFound) {
			middleware.RespondWithError(w, http.StatusNotFound, "sale not found")
			return
		}

		h.logger.Error("Failed to get sale", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to get sale")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, saleResponse(sale))
}

func (h *SaleHandler) respondSaleError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, cart.ErrEmptyCart):
		middleware.RespondWithError(w, http.StatusBadRequest, "no items in sale")
	case errors.Is(err, cart.ErrOutOfStock),
		errors.Is(err, cart.ErrStockExceeded),
		errors.Is(err, cart.ErrInvalidQuantity),
		errors.Is(err, service.ErrDuplicateLine),
		errors.Is(err, repository.ErrInsufficientStock):
		middleware.RespondWithError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, repository.ErrProductNotFound):
		middleware.RespondWithError(w, http.StatusNotFound, "product not found")
	default:
		h.logger.Error("Failed to create sale", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to create sale")
	}
}

func saleResponse(sale *domain.Sale) SaleResponse {
	items := make([]SaleItemResponse, 0, len(sale.Items))
	for i := range sale.Items {
		item := &sale.Items[i]
		items = append(items, SaleItemResponse{
			ID:          item.ID.String(),
			ProductID:   item.ProductID.String(),
			ProductName: item.ProductName,
			Quantity:    item.Quantity,
			Price:       item.PriceAtSale,
			Subtotal:    item.Subtotal(),
		})
	}

	return SaleResponse{
		ID:            sale.ID.String(),
		TotalAmount:   sale.TotalAmount,
		PaymentMethod: sale.PaymentMethod,
		ItemsCount:    len(sale.Items),
		CreatedAt:     sale.CreatedAt,
		Items:         items,
	}
}
