// pkg/model/detection.go
package model

import "fmt"

// DataLevel describes the granularity of the rows in a raw dataset.
type DataLevel int

const (
	// LevelUnknown means detection has not run yet.
	LevelUnknown DataLevel = iota
	// LevelOrder means each row already represents one completed order.
	LevelOrder
	// LevelLineItem means each row represents one purchased item and the
	// dataset must be aggregated before analysis.
	LevelLineItem
)

// String returns a string representation of the data level.
func (l DataLevel) String() string {
	switch l {
	case LevelOrder:
		return "order"
	case LevelLineItem:
		return "line_item"
	default:
		return "unknown"
	}
}

// AggregationStrategy selects how line-item rows are collapsed into orders.
// It is chosen once per dataset and never changes afterwards.
type AggregationStrategy int

const (
	// StrategyNone means no aggregation is required.
	StrategyNone AggregationStrategy = iota
	// StrategyByOrderID groups rows on an existing order identifier column.
	StrategyByOrderID
	// StrategyByCustomerDate synthesizes one order per customer per
	// calendar day.
	StrategyByCustomerDate
	// StrategyBySequentialBoundary detects order boundaries while scanning
	// rows sorted by customer, date and item sequence.
	StrategyBySequentialBoundary
)

// String returns a string representation of the aggregation strategy.
func (s AggregationStrategy) String() string {
	switch s {
	case StrategyNone:
		return "none"
	case StrategyByOrderID:
		return "group_by_order_id"
	case StrategyByCustomerDate:
		return "group_by_customer_date"
	case StrategyBySequentialBoundary:
		return "group_by_customer_date_sequential"
	default:
		return fmt.Sprintf("Unknown(%d)", s)
	}
}

// Detection is the result of granularity detection on a raw dataset.
type Detection struct {
	Level               DataLevel
	Confidence          float64
	Indicators          []string // Human-readable satisfied indicators
	RequiresAggregation bool
	Strategy            AggregationStrategy
	// AvgRowsPerOrder is the mean row count per (customer, date) pair,
	// populated when such columns are available.
	AvgRowsPerOrder float64
}

// AggregationSummary describes the effect of collapsing line items
// into orders.
type AggregationSummary struct {
	OriginalRows     int
	AggregatedRows   int
	ReductionRatio   float64
	MinItemsPerOrder int
	MaxItemsPerOrder int
	AvgItemsPerOrder float64
	TotalRevenue     float64
}
