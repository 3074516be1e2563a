package service

import (
	"context"
	"fmt"
	"time"

	"github.com/nicknicole23/small-inventory-system/internal/report"
	"github.com/nicknicole23/small-inventory-system/internal/repository"
)

// ReportService defines the interface for comparative sales reporting
type ReportService interface {
	Summary(ctx context.Context, window report.Window) (*report.PeriodStats, error)
}

type reportService struct {
	saleRepo repository.SaleRepository
	now      func() time.Time
}

// NewReportService creates a new instance of ReportService
func NewReportService(saleRepo repository.SaleRepository) ReportService {
	return &reportService{
		saleRepo: saleRepo,
		now:      time.Now,
	}
}

// Summary loads the sales covering the current and previous period and
// runs the report aggregation over them. A failed load is a single
// terminal error for this refresh; the caller re-triggers at will.
func (s *reportService) Summary(ctx context.Context, window report.Window) (*report.PeriodStats, error) {
	now := s.now()
	sales, err := s.saleRepo.ListSince(ctx, now.Add(-2*window.Duration()))
	if err != nil {
		return nil, fmt.Errorf("failed to load sales for report: %w", err)
	}

	stats := report.Compute(dereferenceSales(sales), window, now)
	return &stats, nil
}
