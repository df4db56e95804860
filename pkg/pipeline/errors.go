// pkg/pipeline/errors.go
package pipeline

import (
	"fmt"
	"strings"

	"github.com/eltahawyomar001-eng/salla-analytics/pkg/model"
)

// Severity ranks pipeline problems. Anything at SeverityFatal or above
// halts the run; everything below is accumulated and surfaced in the
// validation report.
type Severity int

const (
	SeverityNone Severity = iota
	// SeverityWarning never halts the pipeline. Sparse fields, mixed
	// currencies, odd dates and duplicates live here.
	SeverityWarning
	// SeverityValidation accumulates per field; the run halts only when
	// the accumulated count crosses the configured ceiling.
	SeverityValidation
	// SeverityFatal halts the run immediately. Unmappable required
	// fields and impossible aggregations live here.
	SeverityFatal
)

// String returns a string representation of the severity.
func (s Severity) String() string {
	switch s {
	case SeverityNone:
		return "None"
	case SeverityWarning:
		return "Warning"
	case SeverityValidation:
		return "Validation"
	case SeverityFatal:
		return "Fatal"
	default:
		return fmt.Sprintf("Unknown(%d)", s)
	}
}

// SchemaError means one or more required fields could not be mapped
// with sufficient confidence. It carries each failed field's best
// candidate columns so an operator can supply a manual mapping.
type SchemaError struct {
	Platform string
	Fields   []string
	// Candidates holds, per failed field, the top-scoring source
	// columns considered.
	Candidates map[string][]model.Suggestion
}

func (e *SchemaError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "cannot map required fields %s for platform %q",
		strings.Join(e.Fields, ", "), e.Platform)
	for _, field := range e.Fields {
		suggestions := e.Candidates[field]
		if len(suggestions) == 0 {
			continue
		}
		parts := make([]string, len(suggestions))
		for i, s := range suggestions {
			parts[i] = fmt.Sprintf("%s (%.2f)", s.Column, s.Score)
		}
		fmt.Fprintf(&b, "; %s candidates: %s", field, strings.Join(parts, ", "))
	}
	return b.String()
}

// Severity classifies a SchemaError as fatal.
func (e *SchemaError) Severity() Severity { return SeverityFatal }
