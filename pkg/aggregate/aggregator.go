// pkg/aggregate/aggregator.go
package aggregate

import (
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/eltahawyomar001-eng/salla-analytics/pkg/converter"
	"github.com/eltahawyomar001-eng/salla-analytics/pkg/model"
	"github.com/eltahawyomar001-eng/salla-analytics/pkg/table"
)

// priceColumns are checked in order when choosing the price-bearing
// column whose group sums become order_total. An explicit order_total
// column is authoritative when present.
var priceColumns = []string{"order_total", "item_total"}

// sumColumns are the monetary/quantity fields summed across a group.
// Everything else takes the first non-null value in the group.
var sumColumns = map[string]bool{
	"item_total":    true,
	"order_total":   true,
	"quantity":      true,
	"discounts":     true,
	"shipping":      true,
	"taxes":         true,
	"refund_amount": true,
}

// AggregationError reports that line-item data cannot be collapsed
// because no column satisfies the chosen strategy's minimum
// requirement. It is fatal; the pipeline halts.
type AggregationError struct {
	Strategy model.AggregationStrategy
	Missing  string
}

func (e *AggregationError) Error() string {
	return fmt.Sprintf("aggregation with strategy %s impossible: missing %s", e.Strategy, e.Missing)
}

// Aggregator collapses line-item rows into canonical order rows.
type Aggregator struct {
	logger *zap.Logger
}

// NewAggregator creates an Aggregator.
func NewAggregator(logger *zap.Logger) *Aggregator {
	return &Aggregator{logger: logger}
}

// Aggregate groups a canonical line-item table into one row per order
// using the given strategy. No source rows are dropped and the summed
// monetary value is conserved; dropping rows is the cleaner's job.
func (a *Aggregator) Aggregate(t *table.Table, strategy model.AggregationStrategy) (*table.Table, *model.AggregationSummary, error) {
	priceCol := ""
	for _, col := range priceColumns {
		if t.HasColumn(col) {
			priceCol = col
			break
		}
	}
	if priceCol == "" {
		return nil, nil, &AggregationError{Strategy: strategy, Missing: "price column (item_total or order_total)"}
	}

	var keys []string
	var err error
	switch strategy {
	case model.StrategyByOrderID:
		keys, err = orderIDKeys(t)
	case model.StrategyByCustomerDate:
		keys, err = customerDateKeys(t)
	case model.StrategyBySequentialBoundary:
		return a.aggregateSequential(t, priceCol)
	default:
		return nil, nil, &AggregationError{Strategy: strategy, Missing: "usable identity column"}
	}
	if err != nil {
		return nil, nil, err
	}

	return a.collapse(t, keys, priceCol, strategy)
}

// orderIDKeys groups rows on the existing order identifier.
func orderIDKeys(t *table.Table) ([]string, error) {
	if !t.HasColumn("order_id") {
		return nil, &AggregationError{Strategy: model.StrategyByOrderID, Missing: "order_id column"}
	}

	keys := make([]string, t.Len())
	for i, row := range t.Rows() {
		keys[i] = converter.ToString(row["order_id"])
	}
	return keys, nil
}

// customerDateKeys synthesizes one order per customer per calendar day.
func customerDateKeys(t *table.Table) ([]string, error) {
	if !t.HasColumn("customer_id") || !t.HasColumn("order_date") {
		return nil, &AggregationError{Strategy: model.StrategyByCustomerDate, Missing: "customer_id and order_date columns"}
	}

	keys := make([]string, t.Len())
	for i, row := range t.Rows() {
		keys[i] = converter.ToString(row["customer_id"]) + "_" + dayKey(row["order_date"])
	}
	return keys, nil
}

// aggregateSequential sorts rows by (customer, date, item sequence) and
// starts a new synthetic order whenever customer or date differs from
// the immediately preceding row. Synthetic order ids are the cumulative
// boundary count.
func (a *Aggregator) aggregateSequential(t *table.Table, priceCol string) (*table.Table, *model.AggregationSummary, error) {
	if !t.HasColumn("customer_id") || !t.HasColumn("order_date") {
		return nil, nil, &AggregationError{Strategy: model.StrategyBySequentialBoundary, Missing: "customer_id and order_date columns"}
	}

	type sortableRow struct {
		customer string
		day      string
		sequence string
		row      map[string]interface{}
	}

	rows := make([]sortableRow, t.Len())
	for i, row := range t.Rows() {
		rows[i] = sortableRow{
			customer: converter.ToString(row["customer_id"]),
			day:      dayKey(row["order_date"]),
			sequence: converter.ToString(row["line_item_id"]),
			row:      row,
		}
	}

	// Stable: sort-key ties keep original row order.
	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].customer != rows[j].customer {
			return rows[i].customer < rows[j].customer
		}
		if rows[i].day != rows[j].day {
			return rows[i].day < rows[j].day
		}
		return rows[i].sequence < rows[j].sequence
	})

	sorted := table.New(t.Columns())
	keys := make([]string, len(rows))
	orderCount := 0
	for i, sr := range rows {
		if i == 0 || sr.customer != rows[i-1].customer || sr.day != rows[i-1].day {
			orderCount++
		}
		keys[i] = fmt.Sprintf("ORD_%d", orderCount)
		sorted.Append(sr.row)
	}

	return a.collapse(sorted, keys, priceCol, model.StrategyBySequentialBoundary)
}

// collapse groups rows by precomputed per-row keys: first non-null for
// identity and descriptive fields, sums for monetary and quantity
// fields, group size as item_count, and order_total recomputed from the
// summed price column.
func (a *Aggregator) collapse(t *table.Table, keys []string, priceCol string, strategy model.AggregationStrategy) (*table.Table, *model.AggregationSummary, error) {
	type group struct {
		first  map[string]interface{}
		sums   map[string]float64
		summed map[string]bool
		size   int
	}

	var order []string
	groups := make(map[string]*group)
	for i, row := range t.Rows() {
		key := keys[i]
		g, ok := groups[key]
		if !ok {
			g = &group{
				first:  make(map[string]interface{}),
				sums:   make(map[string]float64),
				summed: make(map[string]bool),
			}
			groups[key] = g
			order = append(order, key)
		}
		g.size++

		for _, col := range t.Columns() {
			value := row[col]
			if converter.IsNull(value) {
				continue
			}
			if sumColumns[col] {
				if f, err := converter.ToFloat(value); err == nil {
					g.sums[col] += f
					g.summed[col] = true
				}
				continue
			}
			if _, seen := g.first[col]; !seen {
				g.first[col] = value
			}
		}
	}

	outColumns := t.Columns()
	if !t.HasColumn("order_id") {
		outColumns = append([]string{"order_id"}, outColumns...)
	}
	if !containsString(outColumns, "order_total") {
		outColumns = append(outColumns, "order_total")
	}
	outColumns = append(outColumns, "item_count")

	out := table.New(outColumns)
	summary := &model.AggregationSummary{
		OriginalRows:   t.Len(),
		AggregatedRows: len(order),
	}

	for _, key := range order {
		g := groups[key]
		row := make(map[string]interface{})
		for col, v := range g.first {
			row[col] = v
		}
		for col := range g.summed {
			row[col] = g.sums[col]
		}
		row["order_id"] = key
		row["order_total"] = g.sums[priceCol]
		row["item_count"] = float64(g.size)

		summary.TotalRevenue += g.sums[priceCol]
		if summary.MinItemsPerOrder == 0 || g.size < summary.MinItemsPerOrder {
			summary.MinItemsPerOrder = g.size
		}
		if g.size > summary.MaxItemsPerOrder {
			summary.MaxItemsPerOrder = g.size
		}

		out.Append(row)
	}

	if summary.AggregatedRows > 0 {
		summary.ReductionRatio = float64(summary.OriginalRows) / float64(summary.AggregatedRows)
		summary.AvgItemsPerOrder = summary.ReductionRatio
	}

	a.logger.Info("Aggregated line items into orders",
		zap.String("strategy", strategy.String()),
		zap.Int("lineItems", summary.OriginalRows),
		zap.Int("orders", summary.AggregatedRows),
		zap.Float64("avgItemsPerOrder", summary.AvgItemsPerOrder))

	return out, summary, nil
}

func containsString(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}
