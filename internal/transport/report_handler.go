package transport

import (
	"errors"
	"net/http"

	"github.com/nicknicole23/small-inventory-system/internal/middleware"
	"github.com/nicknicole23/small-inventory-system/internal/report"
	"github.com/nicknicole23/small-inventory-system/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// ReportHandler handles HTTP requests for comparative sales reports
type ReportHandler struct {
	reportService service.ReportService
	logger        *zap.Logger
}

// NewReportHandler creates a new ReportHandler
func NewReportHandler(reportService service.ReportService, logger *zap.Logger) *ReportHandler {
	return &ReportHandler{
		reportService: reportService,
		logger:        logger,
	}
}

// RegisterRoutes registers all report routes
func (h *ReportHandler) RegisterRoutes(r chi.Router, authMiddleware func(http.Handler) http.Handler) {
	r.Route("/api/reports", func(r chi.Router) {
		r.Use(authMiddleware)
		r.Get("/summary", h.Summary)
	})
}

// Summary handles the period statistics for the selected window.
// Defaults to the weekly window when none is given.
func (h *ReportHandler) Summary(w http.ResponseWriter, r *http.Request) {
	window := report.WindowWeek
	if raw := r.URL.Query().Get("range"); raw != "" {
		parsed, err := report.ParseWindow(raw)
		if err != nil {
			if errors.Is(err, report.ErrInvalidWindow) {
				middleware.RespondWithError(w, http.StatusBadRequest, "range must be one of week, month, year")
				return
			}
			middleware.RespondWithError(w, http.StatusBadRequest, "invalid range")
			return
		}
		window = parsed
	}

	stats, err := h.reportService.Summary(r.Context(), window)
	if err != nil {
		h.logger.Error("Failed to compute report summary", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to compute report summary")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, stats)
}
