// pkg/schema/detect.go
package schema

import (
	"strings"

	"github.com/adrg/strutil"
	"github.com/adrg/strutil/metrics"
	"go.uber.org/zap"
)

// PlatformCustom classifies data whose headers match no known platform.
// It is not a registered platform; schema lookups on it fall back to
// the default platform without complaint.
const PlatformCustom = "custom"

const (
	// platformSynonymSimilarity is the minimum fuzzy similarity for a
	// synonym to count as present in the raw columns.
	platformSynonymSimilarity = 0.8
	// platformMatchFraction is the minimum fraction of a platform's
	// required fields that must match before the platform is trusted.
	platformMatchFraction = 0.3
)

// DetectPlatform guesses which platform produced a file from its raw
// column names. For each platform it computes the fraction of required
// fields whose synonym list fuzzy-matches at least one column; the best
// fraction wins if it reaches 0.3, otherwise the data is classified as
// "custom". Empty input defaults to the registry's default platform.
func (r *Registry) DetectPlatform(columns []string) string {
	if len(columns) == 0 {
		return r.defaultPlatform
	}

	lev := metrics.NewLevenshtein()

	bestPlatform := ""
	bestFraction := 0.0
	for _, name := range r.Platforms() {
		ps := r.platforms[name]

		matched := 0
		total := 0
		for _, field := range ps.Fields {
			if !field.Required {
				continue
			}
			total++
			if synonymMatchesAny(field.AllSynonyms(), columns, lev) {
				matched++
			}
		}
		if total == 0 {
			continue
		}

		fraction := float64(matched) / float64(total)
		if fraction > bestFraction {
			bestFraction = fraction
			bestPlatform = name
		}
	}

	if bestFraction >= platformMatchFraction {
		r.logger.Info("Detected source platform",
			zap.String("platform", bestPlatform),
			zap.Float64("requiredFieldCoverage", bestFraction))
		return bestPlatform
	}

	r.logger.Info("No platform matched column headers, classifying as custom",
		zap.Float64("bestCoverage", bestFraction))
	return PlatformCustom
}

func synonymMatchesAny(synonyms, columns []string, lev *metrics.Levenshtein) bool {
	for _, syn := range synonyms {
		for _, col := range columns {
			sim := strutil.Similarity(strings.ToLower(syn), strings.ToLower(col), lev)
			if sim >= platformSynonymSimilarity {
				return true
			}
		}
	}
	return false
}
