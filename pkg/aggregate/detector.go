// pkg/aggregate/detector.go
package aggregate

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/eltahawyomar001-eng/salla-analytics/pkg/converter"
	"github.com/eltahawyomar001-eng/salla-analytics/pkg/model"
	"github.com/eltahawyomar001-eng/salla-analytics/pkg/table"
)

// Canonical column groups used as granularity indicators.
var (
	productColumns  = []string{"product_id", "product_name", "sku"}
	lineItemColumns = []string{"quantity", "line_item_id", "item_total"}
)

// avgRowsThreshold is the mean row count per (customer, date) pair
// above which rows are unlikely to be whole orders.
const avgRowsThreshold = 1.5

// Detector decides whether a canonical table holds order-level or
// line-item-level rows, from weak behavioral signals counted together.
type Detector struct {
	logger *zap.Logger
}

// NewDetector creates a granularity detector.
func NewDetector(logger *zap.Logger) *Detector {
	return &Detector{logger: logger}
}

// Detect counts the satisfied line-item indicators on a canonical
// table. Two or more indicators classify the data as line-item level
// with confidence min(0.95, count*0.25); otherwise the data is taken to
// be order level at a fixed 0.8 confidence.
func (d *Detector) Detect(t *table.Table) model.Detection {
	det := model.Detection{Level: model.LevelUnknown}

	if hasAnyColumn(t, productColumns) {
		det.Indicators = append(det.Indicators, "has product/item columns")
	}
	if hasAnyColumn(t, lineItemColumns) {
		det.Indicators = append(det.Indicators, "has line-item columns")
	}
	if avg, ok := avgRowsPerCustomerDate(t); ok {
		det.AvgRowsPerOrder = avg
		if avg > avgRowsThreshold {
			det.Indicators = append(det.Indicators,
				fmt.Sprintf("avg %.1f rows per customer-date pair", avg))
		}
	}
	if t.HasColumn("line_item_id") && !t.HasColumn("order_id") {
		det.Indicators = append(det.Indicators, "has order-item identifier but no order identifier")
	}

	if len(det.Indicators) >= 2 {
		det.Level = model.LevelLineItem
		det.Confidence = float64(len(det.Indicators)) * 0.25
		if det.Confidence > 0.95 {
			det.Confidence = 0.95
		}
		det.RequiresAggregation = true
		det.Strategy = d.recommendStrategy(t)
	} else {
		det.Level = model.LevelOrder
		det.Confidence = 0.8
		det.Strategy = model.StrategyNone
	}

	d.logger.Info("Detected data granularity",
		zap.String("level", det.Level.String()),
		zap.Float64("confidence", det.Confidence),
		zap.Strings("indicators", det.Indicators),
		zap.String("strategy", det.Strategy.String()))

	return det
}

// recommendStrategy picks the aggregation strategy from the columns at
// hand. An existing order identifier always wins. Without one, an item
// sequence column enables boundary scanning, which groups more
// precisely than collapsing whole customer-days.
func (d *Detector) recommendStrategy(t *table.Table) model.AggregationStrategy {
	if t.HasColumn("order_id") {
		return model.StrategyByOrderID
	}

	hasCustomerDate := t.HasColumn("customer_id") && t.HasColumn("order_date")
	if hasCustomerDate && t.HasColumn("line_item_id") {
		return model.StrategyBySequentialBoundary
	}
	if hasCustomerDate {
		return model.StrategyByCustomerDate
	}
	return model.StrategyNone
}

func hasAnyColumn(t *table.Table, names []string) bool {
	for _, name := range names {
		if t.HasColumn(name) {
			return true
		}
	}
	return false
}

// avgRowsPerCustomerDate computes the mean row count per (customer,
// date) pair. Reports ok=false when the needed columns are absent or
// the table is empty.
func avgRowsPerCustomerDate(t *table.Table) (float64, bool) {
	if !t.HasColumn("customer_id") || !t.HasColumn("order_date") || t.Len() == 0 {
		return 0, false
	}

	groups := make(map[string]int)
	for _, row := range t.Rows() {
		key := converter.ToString(row["customer_id"]) + "\x00" + dayKey(row["order_date"])
		groups[key]++
	}
	return float64(t.Len()) / float64(len(groups)), true
}

// dayKey reduces a date value to a calendar-day key. Unparseable values
// fall back to their raw string form so that equal raw values still
// group together.
func dayKey(value interface{}) string {
	if t, err := converter.ToTime(value); err == nil {
		return t.Format("20060102")
	}
	return converter.ToString(value)
}
