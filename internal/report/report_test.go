package report

import (
	"math"
	"testing"
	"time"

	"github.com/nicknicole23/small-inventory-system/internal/domain"

	"github.com/google/uuid"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTrend(t *testing.T) {
	tests := []struct {
		name     string
		current  float64
		previous float64
		want     float64
	}{
		{"both zero", 0, 0, 0},
		{"growth from zero", 42, 0, 100},
		{"doubled", 10, 5, 100},
		{"halved", 5, 10, -50},
		{"unchanged", 7, 7, 0},
		{"dropped to zero", 0, 80, -100},
		{"fractional decline", 75, 100, -25},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, Trend(tt.current, tt.previous), 1e-9)
		})
	}
}

func TestParseWindow(t *testing.T) {
	for _, s := range []string{"week", "month", "year"} {
		w, err := ParseWindow(s)
		require.NoError(t, err)
		assert.Equal(t, Window(s), w)
	}

	for _, s := range []string{"", "day", "WEEK", "fortnight"} {
		_, err := ParseWindow(s)
		assert.ErrorIs(t, err, ErrInvalidWindow, "input %q", s)
	}
}

func TestWindowDuration(t *testing.T) {
	assert.Equal(t, 7*24*time.Hour, WindowWeek.Duration())
	assert.Equal(t, 30*24*time.Hour, WindowMonth.Duration())
	assert.Equal(t, 365*24*time.Hour, WindowYear.Duration())
}

func saleAt(total float64, createdAt time.Time, quantities ...int) domain.Sale {
	s := domain.Sale{
		ID:          uuid.New(),
		UserID:      uuid.New(),
		TotalAmount: total,
		CreatedAt:   createdAt,
	}
	for _, q := range quantities {
		s.Items = append(s.Items, domain.SaleItem{
			ID:        uuid.New(),
			SaleID:    s.ID,
			ProductID: uuid.New(),
			Quantity:  q,
		})
	}
	return s
}

func TestComputePartitionsIntoCurrentAndPreviousPeriod(t *testing.T) {
	now := time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)

	sales := []domain.Sale{
		saleAt(100, now.Add(-3*24*time.Hour), 2), // current week
		saleAt(50, now.Add(-8*24*time.Hour), 1),  // previous week
	}

	stats := Compute(sales, WindowWeek, now)

	assert.Equal(t, WindowWeek, stats.Window)
	assert.Equal(t, now.Add(-7*24*time.Hour), stats.PeriodStart)
	assert.Equal(t, now, stats.PeriodEnd)

	assert.Equal(t, 100.0, stats.TotalRevenue.Current)
	assert.Equal(t, 50.0, stats.TotalRevenue.Previous)
	assert.InDelta(t, 100.0, stats.TotalRevenue.Trend, 1e-9)

	assert.Equal(t, 1.0, stats.TotalSales.Current)
	assert.Equal(t, 1.0, stats.TotalSales.Previous)
	assert.InDelta(t, 0.0, stats.TotalSales.Trend, 1e-9)

	assert.Equal(t, 100.0, stats.AverageOrderValue.Current)
	assert.Equal(t, 50.0, stats.AverageOrderValue.Previous)

	assert.Equal(t, 2.0, stats.TotalProductsSold.Current)
	assert.Equal(t, 1.0, stats.TotalProductsSold.Previous)
	assert.InDelta(t, 100.0, stats.TotalProductsSold.Trend, 1e-9)
}

func TestComputeIgnoresSalesOutsideBothPeriods(t *testing.T) {
	now := time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)

	sales := []domain.Sale{
		saleAt(10, now.Add(-20*24*time.Hour), 1), // older than two weeks
		saleAt(30, now.Add(time.Hour), 1),        // in the future
		saleAt(25, now.Add(-24*time.Hour), 1),    // current week
	}

	stats := Compute(sales, WindowWeek, now)

	assert.Equal(t, 25.0, stats.TotalRevenue.Current)
	assert.Equal(t, 0.0, stats.TotalRevenue.Previous)
	assert.Equal(t, 1.0, stats.TotalSales.Current)
}

func TestComputeWithNoSales(t *testing.T) {
	now := time.Now()
	stats := Compute(nil, WindowMonth, now)

	assert.Equal(t, 0.0, stats.TotalRevenue.Current)
	assert.Equal(t, 0.0, stats.TotalRevenue.Trend)
	assert.Equal(t, 0.0, stats.AverageOrderValue.Current)
	assert.Equal(t, 0.0, stats.AverageOrderValue.Trend)
	assert.Equal(t, 0.0, stats.TotalProductsSold.Trend)
}

func TestComputeCoercesCorruptAmountsToZero(t *testing.T) {
	now := time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)

	sales := []domain.Sale{
		saleAt(math.NaN(), now.Add(-24*time.Hour), 1),
		saleAt(math.Inf(1), now.Add(-2*24*time.Hour), 1),
		saleAt(40, now.Add(-3*24*time.Hour), 1),
	}

	stats := Compute(sales, WindowWeek, now)

	assert.Equal(t, 40.0, stats.TotalRevenue.Current)
	assert.Equal(t, 3.0, stats.TotalSales.Current)
	assert.False(t, math.IsNaN(stats.AverageOrderValue.Current))
	assert.InDelta(t, 40.0/3.0, stats.AverageOrderValue.Current, 1e-9)
}

func TestProperty_TrendSignMatchesDirectionOfChange(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("the trend is positive exactly when the metric grew", prop.ForAll(
		func(current float64, previous float64) bool {
			trend := Trend(current, previous)
			switch {
			case current > previous && trend <= 0:
				t.Logf("FAIL: Grew from %f to %f but trend is %f", previous, current, trend)
				return false
			case current < previous && trend >= 0:
				t.Logf("FAIL: Shrank from %f to %f but trend is %f", previous, current, trend)
				return false
			case current == previous && trend != 0:
				t.Logf("FAIL: Unchanged at %f but trend is %f", current, trend)
				return false
			}
			return true
		},
		gen.Float64Range(0, 100000),
		gen.Float64Range(0, 100000),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

func TestProperty_ComputeNeverProducesNaN(t *testing.T) {
	properties := gopter.NewProperties(nil)

	now := time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)

	properties.Property("every derived metric is a finite number", prop.ForAll(
		func(totals []float64, offsets []int) bool {
			var sales []domain.Sale
			for i, total := range totals {
				offset := 0
				if len(offsets) > 0 {
					offset = offsets[i%len(offsets)]
				}
				sales = append(sales, saleAt(total, now.Add(-time.Duration(offset)*time.Hour), 1))
			}

			stats := Compute(sales, WindowWeek, now)
			for _, metric := range []Metric{
				stats.TotalRevenue,
				stats.TotalSales,
				stats.AverageOrderValue,
				stats.TotalProductsSold,
			} {
				for _, v := range []float64{metric.Current, metric.Previous, metric.Trend} {
					if math.IsNaN(v) || math.IsInf(v, 0) {
						t.Logf("FAIL: Non-finite value %f in %+v", v, metric)
						return false
					}
				}
			}
			return true
		},
		gen.SliceOf(gen.OneGenOf(
			gen.Float64Range(0, 10000),
			gen.Const(math.NaN()),
			gen.Const(math.Inf(1)),
		)),
		gen.SliceOf(gen.IntRange(0, 500)),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

func TestProperty_PartitionsAreDisjointAndExhaustiveInRange(t *testing.T) {
	properties := gopter.NewProperties(nil)

	now := time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)

	properties.Property("every in-range sale is counted exactly once", prop.ForAll(
		func(offsets []int) bool {
			var sales []domain.Sale
			inRange := 0
			length := WindowWeek.Duration()
			for _, offset := range offsets {
				createdAt := now.Add(-time.Duration(offset) * time.Hour)
				sales = append(sales, saleAt(1, createdAt, 1))
				if !createdAt.Before(now.Add(-2*length)) && !createdAt.After(now) {
					inRange++
				}
			}

			stats := Compute(sales, WindowWeek, now)
			counted := int(stats.TotalSales.Current + stats.TotalSales.Previous)
			if counted != inRange {
				t.Logf("FAIL: %d sales in range but %d counted", inRange, counted)
				return false
			}
			return true
		},
		gen.SliceOf(gen.IntRange(0, 24*21)),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}
