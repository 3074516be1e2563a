package report

import (
	"errors"
	"math"
	"time"

	"github.com/nicknicole23/small-inventory-system/internal/domain"
)

var ErrInvalidWindow = errors.New("invalid report window")

// Window selects the length of the reporting period
type Window string

const (
	WindowWeek  Window = "week"
	WindowMonth Window = "month"
	WindowYear  Window = "year"
)

// ParseWindow converts a query-string value into a Window
func ParseWindow(s string) (Window, error) {
	switch Window(s) {
	case WindowWeek, WindowMonth, WindowYear:
		return Window(s), nil
	}
	return "", ErrInvalidWindow
}

// Duration returns the length of the window: 7, 30 or 365 days
func (w Window) Duration() time.Duration {
	switch w {
	case WindowMonth:
		return 30 * 24 * time.Hour
	case WindowYear:
		return 365 * 24 * time.Hour
	default:
		return 7 * 24 * time.Hour
	}
}

// Metric holds one statistic for the current and previous period together
// with the signed percentage change between them.
type Metric struct {
	Current  float64 `json:"current"`
	Previous float64 `json:"previous"`
	Trend    float64 `json:"trend"`
}

// PeriodStats is the derived, ephemeral report for one window. It carries
// no persistent identity and is recomputed on every refresh.
type PeriodStats struct {
	Window            Window    `json:"window"`
	PeriodStart       time.Time `json:"period_start"`
	PeriodEnd         time.Time `json:"period_end"`
	TotalRevenue      Metric    `json:"total_revenue"`
	TotalSales        Metric    `json:"total_sales"`
	AverageOrderValue Metric    `json:"average_order_value"`
	TotalProductsSold Metric    `json:"total_products_sold"`
}

// Trend computes the signed percentage change between two consecutive
// periods. Both zero yields 0; growth from zero is reported as 100.
func Trend(current, previous float64) float64 {
	if previous == 0 {
		if current == 0 {
			return 0
		}
		return 100
	}
	return (current - previous) / previous * 100
}

// amount coerces a sale total into a usable number. A single corrupt
// record must not abort the aggregation of the rest, so NaN and infinite
// values collapse to 0.
func amount(s *domain.Sale) float64 {
	if math.IsNaN(s.TotalAmount) || math.IsInf(s.TotalAmount, 0) {
		return 0
	}
	return s.TotalAmount
}

type partition struct {
	revenue float64
	count   int
	units   int
}

func (p partition) averageOrder() float64 {
	if p.count == 0 {
		return 0
	}
	return p.revenue / float64(p.count)
}

// Compute partitions the given sales into the current window ending at
// now and the immediately preceding window of equal length, and derives
// revenue, order count, average order value and units sold for each,
// with the trend between the two periods. It is a pure, idempotent
// transform: callers re-run it on every window change or data refresh.
func Compute(sales []domain.Sale, window Window, now time.Time) PeriodStats {
	length := window.Duration()
	currentStart := now.Add(-length)
	previousStart := now.Add(-2 * length)

	var current, previous partition
	for i := range sales {
		s := &sales[i]
		switch {
		case !s.CreatedAt.Before(currentStart) && !s.CreatedAt.After(now):
			current.revenue += amount(s)
			current.count++
			for j := range s.Items {
				current.units += s.Items[j].Quantity
			}
		case !s.CreatedAt.Before(previousStart) && s.CreatedAt.Before(currentStart):
			previous.revenue += amount(s)
			previous.count++
			for j := range s.Items {
				previous.units += s.Items[j].Quantity
			}
		}
	}

	return PeriodStats{
		Window:      window,
		PeriodStart: currentStart,
		PeriodEnd:   now,
		TotalRevenue: Metric{
			Current:  current.revenue,
			Previous: previous.revenue,
			Trend:    Trend(current.revenue, previous.revenue),
		},
		TotalSales: Metric{
			Current:  float64(current.count),
			Previous: float64(previous.count),
			Trend:    Trend(float64(current.count), float64(previous.count)),
		},
		AverageOrderValue: Metric{
			Current:  current.averageOrder(),
			Previous: previous.averageOrder(),
			Trend:    Trend(current.averageOrder(), previous.averageOrder()),
		},
		TotalProductsSold: Metric{
			Current:  float64(current.units),
			Previous: float64(previous.units),
			Trend:    Trend(float64(current.units), float64(previous.units)),
		},
	}
}
