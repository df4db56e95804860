// pkg/validate/validator.go
package validate

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/eltahawyomar001-eng/salla-analytics/pkg/converter"
	"github.com/eltahawyomar001-eng/salla-analytics/pkg/model"
	"github.com/eltahawyomar001-eng/salla-analytics/pkg/schema"
	"github.com/eltahawyomar001-eng/salla-analytics/pkg/table"
)

// Config holds validation thresholds.
type Config struct {
	// ErrorCeiling halts validation once the accumulated error count
	// crosses it. Below the ceiling every error is collected and
	// surfaced together.
	ErrorCeiling int

	// NullErrorPct and NullWarnPct grade a required field's missing
	// values: above the first is an error, above the second a warning.
	NullErrorPct float64
	NullWarnPct  float64

	// SparsePct flags any field this empty, required or not.
	SparsePct float64

	// SampleLimit caps the example values kept per field.
	SampleLimit int

	// MinOrderDate is the floor of the sane historical window for
	// order dates. Dates after time.Now() are flagged symmetrically.
	MinOrderDate time.Time
}

// DefaultConfig returns the standard thresholds.
func DefaultConfig() Config {
	return Config{
		ErrorCeiling: 20,
		NullErrorPct: 50.0,
		NullWarnPct:  20.0,
		SparsePct:    95.0,
		SampleLimit:  5,
		MinOrderDate: time.Date(2000, time.January, 1, 0, 0, 0, 0, time.UTC),
	}
}

// textOnlyKeywords marks columns that must never go through numeric
// coercion, even when their values look numeric. Phone numbers and
// postal codes are the usual offenders.
var textOnlyKeywords = []string{
	"country", "city", "state", "province", "region",
	"name", "email", "phone",
	"sku", "category", "status", "method",
}

// CeilingError is returned when the accumulated error count crosses
// the configured ceiling. The report is still populated up to the
// point validation stopped.
type CeilingError struct {
	Count   int
	Ceiling int
}

func (e *CeilingError) Error() string {
	return fmt.Sprintf("validation stopped: %d errors exceeds ceiling of %d", e.Count, e.Ceiling)
}

// Validator checks a canonical order table for coverage, type, and
// business-rule problems, producing a coerced table and a report.
type Validator struct {
	logger *zap.Logger
	config Config
}

// New creates a Validator with default thresholds.
func New(logger *zap.Logger) *Validator {
	return NewWithConfig(logger, DefaultConfig())
}

// NewWithConfig creates a Validator with explicit thresholds.
func NewWithConfig(logger *zap.Logger, config Config) *Validator {
	return &Validator{logger: logger, config: config}
}

// Validate runs every check against a canonical-mapped table. The
// returned table carries the applied type coercions; the input is not
// modified. A non-nil error means the error ceiling was crossed, not
// that the data merely failed checks; failed checks live in the report.
func (v *Validator) Validate(t *table.Table, ps *schema.PlatformSchema) (*table.Table, *model.ValidationReport, error) {
	report := &model.ValidationReport{
		TotalRows:  t.Len(),
		FieldStats: make(map[string]model.FieldStats),
	}

	v.checkRequiredCoverage(t, ps, report)
	coerced := v.coerceTypes(t, ps, report)
	v.computeFieldStats(coerced, ps, report)
	v.detectDuplicates(coerced, report)
	v.checkBusinessRules(coerced, report)
	v.analyzeCurrency(coerced, report)
	v.analyzeDateRange(coerced, report)

	report.QualityScore = overallQuality(report.FieldStats)
	report.IsValid = len(report.Errors) == 0

	v.logger.Info("validation complete",
		zap.Int("rows", report.TotalRows),
		zap.Int("errors", len(report.Errors)),
		zap.Int("warnings", len(report.Warnings)),
		zap.Float64("quality_score", report.QualityScore),
	)

	if len(report.Errors) > v.config.ErrorCeiling {
		return coerced, report, &CeilingError{Count: len(report.Errors), Ceiling: v.config.ErrorCeiling}
	}
	return coerced, report, nil
}

func (v *Validator) checkRequiredCoverage(t *table.Table, ps *schema.PlatformSchema, report *model.ValidationReport) {
	for _, field := range ps.RequiredFields() {
		if !t.HasColumn(field) {
			report.Errors = append(report.Errors,
				fmt.Sprintf("required field %q is not mapped", field))
			continue
		}
		if t.Len() == 0 {
			continue
		}

		nulls := 0
		for _, vv := range t.Column(field) {
			if converter.IsNull(vv) {
				nulls++
			}
		}
		pct := float64(nulls) / float64(t.Len()) * 100

		switch {
		case pct > v.config.NullErrorPct:
			report.Errors = append(report.Errors,
				fmt.Sprintf("required field %q has too many missing values (%.1f%%)", field, pct))
		case pct > v.config.NullWarnPct:
			report.Warnings = append(report.Warnings,
				fmt.Sprintf("required field %q has %.1f%% missing values", field, pct))
		}
	}
}

// coerceTypes converts each typed column through the cascade, grading
// the attempt: below 50% success the column stays untouched and an
// error is recorded, 50-80% converts with induced nulls and a warning,
// above 80% converts silently.
func (v *Validator) coerceTypes(t *table.Table, ps *schema.PlatformSchema, report *model.ValidationReport) *table.Table {
	out := t
	for _, name := range ps.FieldNames() {
		field, _ := ps.Field(name)
		if !out.HasColumn(name) {
			continue
		}

		switch field.Type {
		case schema.TypeFloat:
			if isTextOnly(name) {
				v.logger.Warn("skipping numeric coercion for text-like column",
					zap.String("field", name))
				continue
			}
			res := converter.EvaluateFloat(out.Column(name))
			out = v.applyCoercion(out, name, "numeric", res, report)

		case schema.TypeDateTime:
			layout, res := converter.EvaluateTime(out.Column(name))
			next := v.applyCoercion(out, name, "datetime", res, report)
			if next != out {
				v.logger.Debug("datetime layout selected",
					zap.String("field", name),
					zap.String("layout", layout),
					zap.Float64("success_rate", res.SuccessRate))
			}
			out = next

		case schema.TypeBoolean:
			res := converter.EvaluateBool(out.Column(name))
			out = v.applyCoercion(out, name, "boolean", res, report)
		}
	}
	return out
}

func (v *Validator) applyCoercion(t *table.Table, field, kind string, res converter.Result, report *model.ValidationReport) *table.Table {
	if res.NonNull == 0 {
		report.Warnings = append(report.Warnings,
			fmt.Sprintf("field %q has no non-null values", field))
		return t
	}

	switch {
	case res.SuccessRate < 0.5:
		report.Errors = append(report.Errors,
			fmt.Sprintf("field %q cannot be converted to %s (%.0f%% success rate)", field, kind, res.SuccessRate*100))
		return t
	case res.SuccessRate < 0.8:
		report.Warnings = append(report.Warnings,
			fmt.Sprintf("field %q has a low %s conversion rate (%.0f%%)", field, kind, res.SuccessRate*100))
		report.CoercionsLog = append(report.CoercionsLog,
			fmt.Sprintf("converted %q to %s (with some loss)", field, kind))
	default:
		report.CoercionsLog = append(report.CoercionsLog,
			fmt.Sprintf("converted %q to %s", field, kind))
	}
	return t.WithColumn(field, res.Converted)
}

func (v *Validator) computeFieldStats(t *table.Table, ps *schema.PlatformSchema, report *model.ValidationReport) {
	for _, col := range t.Columns() {
		values := t.Column(col)

		stats := model.FieldStats{TotalRows: len(values)}
		seen := make(map[string]bool)
		for _, vv := range values {
			if converter.IsNull(vv) {
				stats.NullCount++
				continue
			}
			s := converter.ToString(vv)
			if !seen[s] {
				seen[s] = true
				if len(stats.SampleValues) < v.config.SampleLimit {
					stats.SampleValues = append(stats.SampleValues, s)
				}
			}
		}
		stats.UniqueCount = len(seen)
		if len(values) > 0 {
			stats.NullPercentage = float64(stats.NullCount) / float64(len(values)) * 100
			stats.UniquePercentage = float64(stats.UniqueCount) / float64(len(values)) * 100
		}
		stats.InferredType = inferredType(values)
		stats.QualityScore = v.fieldQuality(col, ps, stats, report)

		if stats.NullPercentage > v.config.SparsePct {
			report.Warnings = append(report.Warnings,
				fmt.Sprintf("field %q is sparse (%.1f%% missing)", col, stats.NullPercentage))
		}

		report.FieldStats[col] = stats
	}
}

// fieldQuality starts each field at 1.0 and multiplies penalties down.
func (v *Validator) fieldQuality(col string, ps *schema.PlatformSchema, stats model.FieldStats, report *model.ValidationReport) float64 {
	score := 1.0

	switch {
	case stats.NullPercentage > v.config.NullErrorPct:
		score *= 0.5
	case stats.NullPercentage > v.config.NullWarnPct:
		score *= 0.8
	}

	// A typed field whose observed values stayed strings after
	// coercion failed conversion.
	if field, ok := ps.Field(col); ok && field.Type != schema.TypeString {
		if stats.InferredType == "string" && stats.NullCount < stats.TotalRows {
			score *= 0.7
		}
	}

	// An order identifier that repeats heavily is suspect even before
	// the duplicate check runs.
	if col == "order_id" && stats.TotalRows > 0 && stats.UniquePercentage < 95 {
		score *= 0.8
	}

	if score < 0 {
		score = 0
	}
	return score
}

func (v *Validator) detectDuplicates(t *table.Table, report *model.ValidationReport) {
	if t.Len() == 0 {
		return
	}

	if t.HasColumn("order_id") {
		seen := make(map[string]bool)
		dups := 0
		for _, vv := range t.Column("order_id") {
			key := converter.ToString(vv)
			if seen[key] {
				dups++
			}
			seen[key] = true
		}
		if dups > 0 {
			report.Duplicates = append(report.Duplicates, model.DuplicateCheck{
				Kind:       "order_id",
				Count:      dups,
				Percentage: float64(dups) / float64(t.Len()) * 100,
				Columns:    []string{"order_id"},
			})
		}
	}

	composite := []string{}
	for _, col := range []string{"order_id", "product_id", "line_item_id"} {
		if t.HasColumn(col) {
			composite = append(composite, col)
		}
	}
	if len(composite) >= 2 {
		seen := make(map[string]bool)
		dups := 0
		for _, row := range t.Rows() {
			parts := make([]string, len(composite))
			for i, col := range composite {
				parts[i] = converter.ToString(row[col])
			}
			key := strings.Join(parts, "\x1f")
			if seen[key] {
				dups++
			}
			seen[key] = true
		}
		if dups > 0 {
			report.Duplicates = append(report.Duplicates, model.DuplicateCheck{
				Kind:       "line_item",
				Count:      dups,
				Percentage: float64(dups) / float64(t.Len()) * 100,
				Columns:    composite,
			})
		}
	}

	for _, check := range report.Duplicates {
		report.DuplicatesFound += check.Count
	}
	if report.DuplicatesFound > 0 {
		report.Warnings = append(report.Warnings,
			fmt.Sprintf("found %d duplicate records", report.DuplicatesFound))
	}
}

func (v *Validator) checkBusinessRules(t *table.Table, report *model.ValidationReport) {
	invalid := 0

	if t.HasColumn("order_total") {
		negatives := 0
		for _, vv := range t.Column("order_total") {
			if f, ok := vv.(float64); ok && f < 0 {
				negatives++
			}
		}
		if negatives > 0 {
			report.Warnings = append(report.Warnings,
				fmt.Sprintf("found %d orders with negative totals", negatives))
			invalid += negatives
		}
	}

	if t.HasColumn("quantity") {
		nonPositive := 0
		for _, vv := range t.Column("quantity") {
			if f, ok := vv.(float64); ok && f <= 0 {
				nonPositive++
			}
		}
		if nonPositive > 0 {
			report.Warnings = append(report.Warnings,
				fmt.Sprintf("found %d line items with zero or negative quantity", nonPositive))
			invalid += nonPositive
		}
	}

	if t.HasColumn("order_date") {
		now := time.Now()
		future, ancient := 0, 0
		for _, vv := range t.Column("order_date") {
			ts, ok := vv.(time.Time)
			if !ok {
				continue
			}
			if ts.After(now) {
				future++
			}
			if ts.Before(v.config.MinOrderDate) {
				ancient++
			}
		}
		if future > 0 {
			report.Warnings = append(report.Warnings,
				fmt.Sprintf("found %d orders with future dates", future))
			invalid += future
		}
		if ancient > 0 {
			report.Warnings = append(report.Warnings,
				fmt.Sprintf("found %d orders dated before %s", ancient, v.config.MinOrderDate.Format("2006-01-02")))
			invalid += ancient
		}
	}

	for _, idField := range []string{"customer_id", "order_id"} {
		if !t.HasColumn(idField) {
			continue
		}
		empty := 0
		for _, vv := range t.Column(idField) {
			if converter.IsNull(vv) {
				continue
			}
			if strings.TrimSpace(converter.ToString(vv)) == "" {
				empty++
			}
		}
		if empty > 0 {
			report.Errors = append(report.Errors,
				fmt.Sprintf("found %d records with empty %s", empty, idField))
			invalid += empty
		}
	}

	report.InvalidRows = invalid
}

func (v *Validator) analyzeCurrency(t *table.Table, report *model.ValidationReport) {
	info := model.CurrencyInfo{Distribution: make(map[string]int)}

	if !t.HasColumn("currency") {
		report.Warnings = append(report.Warnings,
			"no currency column found, using generic currency format")
		report.Currency = info
		return
	}

	for _, vv := range t.Column("currency") {
		if converter.IsNull(vv) {
			info.MissingCount++
			continue
		}
		code := strings.TrimSpace(converter.ToString(vv))
		if code == "" {
			info.MissingCount++
			continue
		}
		info.Distribution[code]++
	}

	for code := range info.Distribution {
		info.CurrenciesFound = append(info.CurrenciesFound, code)
	}
	sort.Slice(info.CurrenciesFound, func(i, j int) bool {
		a, b := info.CurrenciesFound[i], info.CurrenciesFound[j]
		if info.Distribution[a] != info.Distribution[b] {
			return info.Distribution[a] > info.Distribution[b]
		}
		return a < b
	})

	if len(info.CurrenciesFound) > 1 {
		info.Mixed = true
		report.Warnings = append(report.Warnings,
			fmt.Sprintf("multiple currencies detected: %s", strings.Join(info.CurrenciesFound, ", ")))
	}
	if len(info.CurrenciesFound) > 0 {
		info.DefaultCurrency = info.CurrenciesFound[0]
	} else {
		report.Warnings = append(report.Warnings,
			"no currency values found, using generic currency format")
	}

	report.Currency = info
}

func (v *Validator) analyzeDateRange(t *table.Table, report *model.ValidationReport) {
	if !t.HasColumn("order_date") {
		return
	}

	var rng model.DateRange
	for _, vv := range t.Column("order_date") {
		ts, ok := vv.(time.Time)
		if !ok {
			continue
		}
		if rng.TotalOrders == 0 || ts.Before(rng.MinDate) {
			rng.MinDate = ts
		}
		if rng.TotalOrders == 0 || ts.After(rng.MaxDate) {
			rng.MaxDate = ts
		}
		rng.TotalOrders++
	}
	if rng.TotalOrders == 0 {
		return
	}

	rng.SpanDays = int(rng.MaxDate.Sub(rng.MinDate).Hours() / 24)
	span := rng.SpanDays
	if span < 1 {
		span = 1
	}
	rng.OrdersPerDay = float64(rng.TotalOrders) / float64(span)

	if rng.SpanDays < 1 {
		report.Warnings = append(report.Warnings, "all orders are from the same day")
	} else if rng.SpanDays > 365*5 {
		report.Warnings = append(report.Warnings,
			fmt.Sprintf("data spans %d days (%.1f years)", rng.SpanDays, float64(rng.SpanDays)/365))
	}

	report.DateRange = rng
}

// isTextOnly reports whether a column name contains any keyword that
// marks it as categorical or free text.
func isTextOnly(field string) bool {
	lower := strings.ToLower(field)
	for _, kw := range textOnlyKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// inferredType names the dominant observed Go type in a column.
func inferredType(values []interface{}) string {
	counts := map[string]int{}
	for _, vv := range values {
		switch vv.(type) {
		case nil:
		case float64, int, int64:
			counts["float"]++
		case time.Time:
			counts["datetime"]++
		case bool:
			counts["boolean"]++
		default:
			counts["string"]++
		}
	}

	best, bestCount := "null", 0
	for _, kind := range []string{"float", "datetime", "boolean", "string"} {
		if counts[kind] > bestCount {
			best, bestCount = kind, counts[kind]
		}
	}
	return best
}

func overallQuality(stats map[string]model.FieldStats) float64 {
	if len(stats) == 0 {
		return 0
	}
	total := 0.0
	for _, s := range stats {
		total += s.QualityScore
	}
	return total / float64(len(stats))
}
