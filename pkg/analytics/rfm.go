// pkg/analytics/rfm.go
package analytics

import (
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/eltahawyomar001-eng/salla-analytics/pkg/table"
)

// minOrdersForRFM is the smallest dataset worth segmenting. Below it
// the quintile boundaries are noise.
const minOrdersForRFM = 10

// CustomerRFM holds one customer's raw metrics, quintile scores and
// assigned segment.
type CustomerRFM struct {
	CustomerID  string
	RecencyDays int
	Frequency   int
	Monetary    float64
	R, F, M     int
	Segment     string
}

// segmentRule pairs a predicate with a segment name. Rules are
// evaluated in order and the first match wins, so broader rules must
// come after narrower ones.
type segmentRule struct {
	name  string
	match func(r, f, m int) bool
}

var segmentRules = []segmentRule{
	{"Champions", func(r, f, m int) bool { return r >= 4 && f >= 4 && m >= 4 }},
	{"Loyal Customers", func(r, f, m int) bool { return r >= 3 && f >= 4 && m >= 3 }},
	{"Potential Loyalists", func(r, f, m int) bool { return r >= 4 && f >= 2 && m >= 3 }},
	{"New Customers", func(r, f, m int) bool { return r >= 4 && f <= 2 && m <= 2 }},
	{"Promising", func(r, f, m int) bool { return r >= 3 && f <= 2 && m <= 2 }},
	{"Need Attention", func(r, f, m int) bool { return r >= 3 && f >= 3 && m <= 2 }},
	{"Cannot Lose Them", func(r, f, m int) bool { return r <= 2 && f >= 4 && m >= 4 }},
	{"At Risk", func(r, f, m int) bool { return r <= 2 && f >= 3 && m >= 3 }},
	{"About to Sleep", func(r, f, m int) bool { return r <= 2 && f >= 2 && m >= 2 }},
	{"Hibernating", func(r, f, m int) bool { return r <= 2 && f <= 2 && m >= 2 }},
	{"Lost", func(r, f, m int) bool { return true }},
}

// RFMAnalyzer segments customers by recency, frequency and monetary
// value on a validated canonical table.
type RFMAnalyzer struct {
	logger *zap.Logger
}

// NewRFMAnalyzer creates an RFMAnalyzer.
func NewRFMAnalyzer(logger *zap.Logger) *RFMAnalyzer {
	return &RFMAnalyzer{logger: logger}
}

// Analyze computes per-customer RFM scores. analysisDate anchors
// recency; the zero value means the latest order date in the data.
// Results are sorted by customer id for deterministic output.
func (a *RFMAnalyzer) Analyze(t *table.Table, analysisDate time.Time) ([]CustomerRFM, error) {
	for _, col := range []string{"customer_id", "order_date", "order_total"} {
		if !t.HasColumn(col) {
			return nil, fmt.Errorf("rfm analysis requires column %q", col)
		}
	}

	type accum struct {
		lastOrder time.Time
		orders    int
		revenue   float64
	}
	customers := make(map[string]*accum)

	valid := 0
	var maxDate time.Time
	for _, row := range t.Rows() {
		id, date, total, ok := validOrder(row)
		if !ok {
			continue
		}
		valid++
		if date.After(maxDate) {
			maxDate = date
		}

		c := customers[id]
		if c == nil {
			c = &accum{}
			customers[id] = c
		}
		c.orders++
		c.revenue += total
		if date.After(c.lastOrder) {
			c.lastOrder = date
		}
	}

	if valid < minOrdersForRFM {
		return nil, fmt.Errorf("rfm analysis needs at least %d valid orders, got %d", minOrdersForRFM, valid)
	}
	if analysisDate.IsZero() {
		analysisDate = maxDate
	}

	results := make([]CustomerRFM, 0, len(customers))
	for id, c := range customers {
		results = append(results, CustomerRFM{
			CustomerID:  id,
			RecencyDays: int(analysisDate.Sub(c.lastOrder).Hours() / 24),
			Frequency:   c.orders,
			Monetary:    c.revenue,
		})
	}
	sort.Slice(results, func(i, j int) bool {
		return results[i].CustomerID < results[j].CustomerID
	})

	scoreQuintiles(results)
	for i := range results {
		results[i].Segment = segmentFor(results[i].R, results[i].F, results[i].M)
	}

	a.logger.Info("rfm analysis complete",
		zap.Int("customers", len(results)),
		zap.Int("valid_orders", valid),
		zap.Time("analysis_date", analysisDate),
	)
	return results, nil
}

// SegmentCounts tallies customers per segment.
func SegmentCounts(results []CustomerRFM) map[string]int {
	counts := make(map[string]int)
	for _, r := range results {
		counts[r.Segment]++
	}
	return counts
}

// scoreQuintiles assigns 1-5 scores per dimension by rank position.
// Recency is reversed: fewer days since the last order scores higher.
func scoreQuintiles(results []CustomerRFM) {
	n := len(results)

	byRecency := rankOrder(n, func(i, j int) bool {
		return results[i].RecencyDays < results[j].RecencyDays
	})
	for pos, idx := range byRecency {
		results[idx].R = 6 - quintile(pos, n)
	}

	byFrequency := rankOrder(n, func(i, j int) bool {
		return results[i].Frequency < results[j].Frequency
	})
	for pos, idx := range byFrequency {
		results[idx].F = quintile(pos, n)
	}

	byMonetary := rankOrder(n, func(i, j int) bool {
		return results[i].Monetary < results[j].Monetary
	})
	for pos, idx := range byMonetary {
		results[idx].M = quintile(pos, n)
	}
}

// rankOrder returns indices sorted by less, keeping input order on
// ties so equal values spread across adjacent quintiles.
func rankOrder(n int, less func(i, j int) bool) []int {
	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return less(order[a], order[b])
	})
	return order
}

// quintile maps a 0-based rank position to a 1-5 bucket.
func quintile(pos, n int) int {
	q := pos*5/n + 1
	if q > 5 {
		q = 5
	}
	return q
}

func segmentFor(r, f, m int) string {
	for _, rule := range segmentRules {
		if rule.match(r, f, m) {
			return rule.name
		}
	}
	return "Lost"
}

// validOrder extracts the identity, date and total of one row when all
// three are usable. Orders with non-positive totals are excluded from
// analytics.
func validOrder(row map[string]interface{}) (string, time.Time, float64, bool) {
	id, ok := row["customer_id"].(string)
	if !ok || id == "" {
		if f, isNum := row["customer_id"].(float64); isNum {
			id = fmt.Sprintf("%v", f)
		} else {
			return "", time.Time{}, 0, false
		}
	}
	date, ok := row["order_date"].(time.Time)
	if !ok {
		return "", time.Time{}, 0, false
	}
	total, ok := row["order_total"].(float64)
	if !ok || total <= 0 {
		return "", time.Time{}, 0, false
	}
	return id, date, total, true
}
