// pkg/mapper/mapper.go
package mapper

import (
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/adrg/strutil"
	"github.com/adrg/strutil/metrics"
	"go.uber.org/zap"

	"github.com/eltahawyomar001-eng/salla-analytics/pkg/model"
	"github.com/eltahawyomar001-eng/salla-analytics/pkg/schema"
)

// Matcher maps raw column headers to canonical fields using normalized
// and fuzzy similarity scoring against a platform's synonym lists.
type Matcher struct {
	logger *zap.Logger
	config Config
	lev    *metrics.Levenshtein
}

// Config provides tunables for schema matching.
type Config struct {
	// ConfidenceThreshold is the minimum score for a field to enter
	// the mapping.
	ConfidenceThreshold float64
	// SuggestionFloor is the minimum score for a column to appear in
	// the suggestions of an unmapped field.
	SuggestionFloor float64
	// SuggestionLimit caps suggestions per unmapped field.
	SuggestionLimit int
	// SubstringBonus is added when one normalized string contains the
	// other as a substring.
	SubstringBonus float64
	// MinSubstringLength guards the bonus against spurious short-token
	// containment.
	MinSubstringLength int
}

// DefaultConfig returns the default matcher configuration.
func DefaultConfig() Config {
	return Config{
		ConfidenceThreshold: 0.8,
		SuggestionFloor:     0.3,
		SuggestionLimit:     3,
		SubstringBonus:      0.1,
		MinSubstringLength:  4,
	}
}

// New creates a Matcher with default configuration.
func New(logger *zap.Logger) *Matcher {
	return NewWithConfig(logger, DefaultConfig())
}

// NewWithConfig creates a Matcher with custom configuration.
func NewWithConfig(logger *zap.Logger, config Config) *Matcher {
	return &Matcher{
		logger: logger,
		config: config,
		lev:    metrics.NewLevenshtein(),
	}
}

// Score computes the match score between one source header and a set of
// synonyms. An exact normalized match scores 1.0; otherwise the best of
// the character-similarity and token-order-insensitive ratios is taken,
// with a substring bonus, clamped to 1.0.
func (m *Matcher) Score(sourceHeader string, synonyms []string) float64 {
	sourceNorm := NormalizeHeader(sourceHeader)

	best := 0.0
	for _, synonym := range synonyms {
		synNorm := NormalizeHeader(synonym)

		if sourceNorm == synNorm && sourceNorm != "" {
			return 1.0
		}

		charRatio := strutil.Similarity(sourceNorm, synNorm, m.lev)
		tokenRatio := strutil.Similarity(tokenSort(sourceNorm), tokenSort(synNorm), m.lev)

		score := charRatio
		if tokenRatio > score {
			score = tokenRatio
		}
		if m.substringContained(sourceNorm, synNorm) {
			score += m.config.SubstringBonus
		}
		if score > 1.0 {
			score = 1.0
		}

		if score > best {
			best = score
		}
	}

	return best
}

// substringContained reports whether either normalized string contains
// the other, provided the contained string is long enough to rule out
// accidental short-token hits.
func (m *Matcher) substringContained(a, b string) bool {
	if a == "" || b == "" {
		return false
	}
	if len(a) <= len(b) {
		return utf8.RuneCountInString(a) >= m.config.MinSubstringLength && strings.Contains(b, a)
	}
	return utf8.RuneCountInString(b) >= m.config.MinSubstringLength && strings.Contains(a, b)
}

// candidate is one field's best matching column before conflict
// resolution.
type candidate struct {
	field  string
	column string
	score  float64
	order  int // Position in schema field order, for tie-breaks
}

// Match maps source columns to the canonical fields of a platform
// schema. Fields whose best score clears the confidence threshold enter
// the mapping; the rest keep their best score for diagnostics and
// receive up to three candidate suggestions. The result is free of
// duplicate source-column assignments.
func (m *Matcher) Match(columns []string, ps *schema.PlatformSchema) *model.Mapping {
	mapping := &model.Mapping{
		Fields:      make(map[string]model.FieldMapping),
		BestScores:  make(map[string]float64),
		Suggestions: make(map[string][]model.Suggestion),
	}

	candidates := make([]candidate, 0, len(ps.Fields))
	for i, field := range ps.Fields {
		synonyms := field.AllSynonyms()

		bestCol := ""
		bestScore := 0.0
		for _, col := range columns {
			if score := m.Score(col, synonyms); score > bestScore {
				bestScore = score
				bestCol = col
			}
		}

		mapping.BestScores[field.Name] = bestScore
		if bestCol != "" && bestScore >= m.config.ConfidenceThreshold {
			candidates = append(candidates, candidate{
				field:  field.Name,
				column: bestCol,
				score:  bestScore,
				order:  i,
			})
		}
	}

	for _, c := range m.resolveConflicts(candidates) {
		mapping.Fields[c.field] = model.FieldMapping{Source: c.column, Confidence: c.score}
	}

	m.substituteCustomerID(mapping, ps)
	m.suggest(mapping, columns, ps)

	m.logger.Info("Schema matching complete",
		zap.Int("sourceColumns", len(columns)),
		zap.Int("mappedFields", len(mapping.Fields)),
		zap.Int("unmappedFields", len(ps.Fields)-len(mapping.Fields)))

	return mapping
}

// resolveConflicts enforces the invariant that no two canonical fields
// claim the same source column: per column, the strictly highest score
// wins; exact ties go to the field earlier in schema order.
func (m *Matcher) resolveConflicts(candidates []candidate) []candidate {
	byColumn := make(map[string]candidate)
	for _, c := range candidates {
		existing, ok := byColumn[c.column]
		if !ok {
			byColumn[c.column] = c
			continue
		}
		if c.score > existing.score {
			m.logger.Warn("Mapping conflict resolved",
				zap.String("column", c.column),
				zap.String("kept", c.field),
				zap.String("dropped", existing.field))
			byColumn[c.column] = c
		} else {
			m.logger.Warn("Mapping conflict resolved",
				zap.String("column", c.column),
				zap.String("kept", existing.field),
				zap.String("dropped", c.field))
		}
	}

	resolved := make([]candidate, 0, len(byColumn))
	for _, c := range byColumn {
		resolved = append(resolved, c)
	}
	sort.Slice(resolved, func(i, j int) bool { return resolved[i].order < resolved[j].order })
	return resolved
}

// substituteCustomerID aliases customer_phone (preferred) or
// customer_email as customer_id when the latter is required but
// unmapped. The substitution widens identity semantics, so it is always
// surfaced as a warning, never applied silently.
func (m *Matcher) substituteCustomerID(mapping *model.Mapping, ps *schema.PlatformSchema) {
	field, ok := ps.Field("customer_id")
	if !ok || !field.Required || mapping.Has("customer_id") {
		return
	}

	for _, source := range []string{"customer_phone", "customer_email"} {
		fm, ok := mapping.Fields[source]
		if !ok {
			continue
		}
		mapping.Fields["customer_id"] = fm
		warning := fmt.Sprintf("Using %s column %q as customer_id (no dedicated customer ID column found)", source, fm.Source)
		mapping.Warnings = append(mapping.Warnings, warning)
		m.logger.Warn("Substituted customer identifier",
			zap.String("from", source),
			zap.String("column", fm.Source))
		return
	}
}

// suggest attaches the top-scoring candidate columns to every unmapped
// field so an operator can complete the mapping manually.
func (m *Matcher) suggest(mapping *model.Mapping, columns []string, ps *schema.PlatformSchema) {
	for _, field := range ps.Fields {
		if mapping.Has(field.Name) {
			continue
		}

		synonyms := field.AllSynonyms()
		var suggestions []model.Suggestion
		for _, col := range columns {
			if score := m.Score(col, synonyms); score > m.config.SuggestionFloor {
				suggestions = append(suggestions, model.Suggestion{Column: col, Score: score})
			}
		}

		sort.SliceStable(suggestions, func(i, j int) bool {
			return suggestions[i].Score > suggestions[j].Score
		})
		if len(suggestions) > m.config.SuggestionLimit {
			suggestions = suggestions[:m.config.SuggestionLimit]
		}
		if len(suggestions) > 0 {
			mapping.Suggestions[field.Name] = suggestions
		}
	}
}
