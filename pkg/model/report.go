// pkg/model/report.go
package model

import "time"

// FieldStats holds per-field quality statistics computed during validation.
type FieldStats struct {
	TotalRows        int
	NullCount        int
	NullPercentage   float64
	UniqueCount      int
	UniquePercentage float64
	InferredType     string  // Observed value type after coercion
	QualityScore     float64 // [0,1], see ValidationReport.QualityScore
	SampleValues     []string
}

// DuplicateCheck records one duplicate-detection pass.
type DuplicateCheck struct {
	Kind       string // "order_id" or "line_item"
	Count      int
	Percentage float64
	Columns    []string // Columns forming the duplicate key
}

// CurrencyInfo summarizes the currency column, when present.
type CurrencyInfo struct {
	Distribution    map[string]int
	CurrenciesFound []string
	MissingCount    int
	Mixed           bool
	// DefaultCurrency is the most frequent currency, used for display
	// formatting downstream. Empty means currency-agnostic formatting.
	DefaultCurrency string
}

// DateRange summarizes the order_date column, when present.
type DateRange struct {
	MinDate      time.Time
	MaxDate      time.Time
	SpanDays     int
	TotalOrders  int
	OrdersPerDay float64
}

// ValidationReport is the write-once result of validating a canonical
// order table.
type ValidationReport struct {
	IsValid         bool
	TotalRows       int
	Errors          []string
	Warnings        []string
	FieldStats      map[string]FieldStats
	CoercionsLog    []string // Human-readable conversions applied
	DuplicatesFound int
	Duplicates      []DuplicateCheck
	InvalidRows     int
	Currency        CurrencyInfo
	DateRange       DateRange
	// QualityScore is the arithmetic mean of all mapped fields'
	// individual quality scores.
	QualityScore float64
}

// CleaningSummary is the write-once result of the opt-in cleaning pass.
type CleaningSummary struct {
	OriginalRows int
	RemovedRows  int
	Steps        []string // Ordered human-readable removal steps
	FinalRows    int
}
