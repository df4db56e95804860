// pkg/mapper/normalize.go
package mapper

import (
	"regexp"
	"sort"
	"strings"
)

var (
	separatorPattern  = regexp.MustCompile(`[-\s.]+`)
	affixPattern      = regexp.MustCompile(`^(?:col|column|field)_|_(?:col|column|field)$`)
	disallowedPattern = regexp.MustCompile(`[^a-z0-9_\p{Arabic}]`)
)

// NormalizeHeader canonicalizes a raw column header for matching:
// lowercase, trimmed, separators collapsed to underscores, generic
// "col"/"column"/"field" affixes stripped, and characters outside the
// accepted alphanumeric/Arabic set removed.
func NormalizeHeader(header string) string {
	normalized := strings.ToLower(strings.TrimSpace(header))
	normalized = separatorPattern.ReplaceAllString(normalized, "_")
	normalized = affixPattern.ReplaceAllString(normalized, "")
	normalized = disallowedPattern.ReplaceAllString(normalized, "")
	return normalized
}

// tokenSort splits a normalized header into underscore-delimited tokens
// and rejoins them in sorted order, making comparison insensitive to
// word order ("date_order" vs "order_date").
func tokenSort(normalized string) string {
	tokens := strings.Split(normalized, "_")
	filtered := tokens[:0]
	for _, tok := range tokens {
		if tok != "" {
			filtered = append(filtered, tok)
		}
	}
	sort.Strings(filtered)
	return strings.Join(filtered, "_")
}
