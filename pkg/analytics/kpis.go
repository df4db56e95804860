// pkg/analytics/kpis.go
package analytics

import (
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/eltahawyomar001-eng/salla-analytics/pkg/table"
)

// KPIs are the headline metrics of one validated dataset.
type KPIs struct {
	TotalRevenue    float64
	TotalOrders     int
	UniqueCustomers int
	AverageOrder    float64
	MedianOrder     float64
	MinOrder        float64
	MaxOrder        float64
	// RepeatRate is the percentage of customers with more than one
	// order.
	RepeatRate float64
	// OrdersPerCustomer is the mean order count per customer.
	OrdersPerCustomer float64
	FirstOrder        time.Time
	LastOrder         time.Time
}

// KPICalculator computes headline metrics over a validated canonical
// table. Orders with missing or non-positive totals are skipped.
type KPICalculator struct {
	logger *zap.Logger
}

// NewKPICalculator creates a KPICalculator.
func NewKPICalculator(logger *zap.Logger) *KPICalculator {
	return &KPICalculator{logger: logger}
}

// Calculate computes the KPI set.
func (c *KPICalculator) Calculate(t *table.Table) (*KPIs, error) {
	for _, col := range []string{"customer_id", "order_date", "order_total"} {
		if !t.HasColumn(col) {
			return nil, fmt.Errorf("kpi calculation requires column %q", col)
		}
	}

	kpis := &KPIs{}
	totals := []float64{}
	ordersPer := make(map[string]int)

	for _, row := range t.Rows() {
		id, date, total, ok := validOrder(row)
		if !ok {
			continue
		}

		kpis.TotalOrders++
		kpis.TotalRevenue += total
		totals = append(totals, total)
		ordersPer[id]++

		if kpis.FirstOrder.IsZero() || date.Before(kpis.FirstOrder) {
			kpis.FirstOrder = date
		}
		if date.After(kpis.LastOrder) {
			kpis.LastOrder = date
		}
	}

	if kpis.TotalOrders == 0 {
		return kpis, nil
	}

	kpis.UniqueCustomers = len(ordersPer)
	kpis.AverageOrder = kpis.TotalRevenue / float64(kpis.TotalOrders)
	kpis.OrdersPerCustomer = float64(kpis.TotalOrders) / float64(kpis.UniqueCustomers)

	sort.Float64s(totals)
	kpis.MinOrder = totals[0]
	kpis.MaxOrder = totals[len(totals)-1]
	kpis.MedianOrder = median(totals)

	repeat := 0
	for _, n := range ordersPer {
		if n > 1 {
			repeat++
		}
	}
	kpis.RepeatRate = float64(repeat) / float64(kpis.UniqueCustomers) * 100

	c.logger.Info("kpi calculation complete",
		zap.Int("orders", kpis.TotalOrders),
		zap.Int("customers", kpis.UniqueCustomers),
		zap.Float64("total_revenue", kpis.TotalRevenue),
	)
	return kpis, nil
}

// median expects a sorted slice.
func median(sorted []float64) float64 {
	n := len(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}
