// pkg/validate/cleaner.go
package validate

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/eltahawyomar001-eng/salla-analytics/pkg/converter"
	"github.com/eltahawyomar001-eng/salla-analytics/pkg/model"
	"github.com/eltahawyomar001-eng/salla-analytics/pkg/table"
)

// Cleaner removes rows a validated table cannot keep. It is a
// separate, opt-in pass: validation only reports, cleaning removes.
// Each step is removal-only, so running the pass on its own output is
// a no-op.
type Cleaner struct {
	logger *zap.Logger
}

// NewCleaner creates a Cleaner.
func NewCleaner(logger *zap.Logger) *Cleaner {
	return &Cleaner{logger: logger}
}

// Clean applies the removal steps in a fixed order and returns the
// cleaned table with a per-step summary. The input is not modified.
func (c *Cleaner) Clean(t *table.Table, requiredIDs []string) (*table.Table, *model.CleaningSummary) {
	summary := &model.CleaningSummary{OriginalRows: t.Len()}

	out := c.dropDuplicateOrders(t, summary)
	out = c.dropNegativeTotals(out, summary)
	out = c.dropEmptyIDs(out, requiredIDs, summary)

	summary.FinalRows = out.Len()
	summary.RemovedRows = summary.OriginalRows - summary.FinalRows

	c.logger.Info("cleaning complete",
		zap.Int("original_rows", summary.OriginalRows),
		zap.Int("removed_rows", summary.RemovedRows),
		zap.Strings("steps", summary.Steps),
	)
	return out, summary
}

// dropDuplicateOrders keeps the first row per order_id.
func (c *Cleaner) dropDuplicateOrders(t *table.Table, summary *model.CleaningSummary) *table.Table {
	if !t.HasColumn("order_id") {
		return t
	}

	seen := make(map[string]bool)
	out := t.Filter(func(row map[string]interface{}) bool {
		if converter.IsNull(row["order_id"]) {
			return true
		}
		key := converter.ToString(row["order_id"])
		if seen[key] {
			return false
		}
		seen[key] = true
		return true
	})

	if removed := t.Len() - out.Len(); removed > 0 {
		summary.Steps = append(summary.Steps,
			fmt.Sprintf("removed %d duplicate orders by order_id", removed))
	}
	return out
}

func (c *Cleaner) dropNegativeTotals(t *table.Table, summary *model.CleaningSummary) *table.Table {
	if !t.HasColumn("order_total") {
		return t
	}

	out := t.Filter(func(row map[string]interface{}) bool {
		f, ok := row["order_total"].(float64)
		return !ok || f >= 0
	})

	if removed := t.Len() - out.Len(); removed > 0 {
		summary.Steps = append(summary.Steps,
			fmt.Sprintf("removed %d rows with negative order_total", removed))
	}
	return out
}

func (c *Cleaner) dropEmptyIDs(t *table.Table, requiredIDs []string, summary *model.CleaningSummary) *table.Table {
	present := []string{}
	for _, id := range requiredIDs {
		if t.HasColumn(id) {
			present = append(present, id)
		}
	}
	if len(present) == 0 {
		return t
	}

	out := t.Filter(func(row map[string]interface{}) bool {
		for _, id := range present {
			if converter.IsNull(row[id]) {
				return false
			}
			if strings.TrimSpace(converter.ToString(row[id])) == "" {
				return false
			}
		}
		return true
	})

	if removed := t.Len() - out.Len(); removed > 0 {
		summary.Steps = append(summary.Steps,
			fmt.Sprintf("removed %d rows with empty required ids (%s)", removed, strings.Join(present, ", ")))
	}
	return out
}
