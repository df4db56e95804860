// pkg/model/mapping.go
package model

import "sort"

// FieldMapping binds one canonical field to a source column with a
// matching confidence in [0,1].
type FieldMapping struct {
	Source     string  // Source column name as it appears in the raw table
	Confidence float64 // Match confidence, 1.0 means exact synonym match
}

// Suggestion is a candidate source column for an unmapped canonical field.
type Suggestion struct {
	Column string
	Score  float64
}

// Mapping is the result of schema matching for one raw dataset.
// It is computed once per dataset and treated as immutable afterwards.
type Mapping struct {
	Platform string                  // Detected source platform ("custom" when unknown)
	Fields   map[string]FieldMapping // Canonical field name -> source column
	// BestScores retains the best available score for every canonical
	// field, including fields that did not clear the confidence
	// threshold. Used for diagnostics and operator review.
	BestScores map[string]float64
	// Suggestions holds the top-scoring candidate columns for each
	// unmapped canonical field.
	Suggestions map[string][]Suggestion
	Warnings    []string
}

// Source returns the source column mapped to a canonical field.
func (m *Mapping) Source(field string) (string, bool) {
	fm, ok := m.Fields[field]
	if !ok {
		return "", false
	}
	return fm.Source, true
}

// Has reports whether a canonical field is mapped.
func (m *Mapping) Has(field string) bool {
	_, ok := m.Fields[field]
	return ok
}

// MappedFields returns the mapped canonical field names in sorted order.
func (m *Mapping) MappedFields() []string {
	fields := make([]string, 0, len(m.Fields))
	for field := range m.Fields {
		fields = append(fields, field)
	}
	sort.Strings(fields)
	return fields
}
