// pkg/analytics/cohorts.go
package analytics

import (
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/eltahawyomar001-eng/salla-analytics/pkg/table"
)

// minCustomersForCohort hides cohorts too small to read as a rate.
const minCustomersForCohort = 5

// CohortRow is one acquisition month's retention curve.
type CohortRow struct {
	// Month is the acquisition month in "2006-01" form.
	Month string
	Size  int
	// Retention[k] is the fraction of the cohort active k months after
	// acquisition. Retention[0] is always 1 for a non-empty cohort.
	Retention []float64
}

// CohortAnalysis is the monthly retention matrix plus its headline
// metrics.
type CohortAnalysis struct {
	Cohorts []CohortRow
	// AvgRetentionByPeriod[k] averages month-k retention over all
	// cohorts old enough to have a month k.
	AvgRetentionByPeriod []float64
	TotalCustomers       int
}

// CohortAnalyzer builds monthly acquisition cohorts and their
// retention rates.
type CohortAnalyzer struct {
	logger *zap.Logger
}

// NewCohortAnalyzer creates a CohortAnalyzer.
func NewCohortAnalyzer(logger *zap.Logger) *CohortAnalyzer {
	return &CohortAnalyzer{logger: logger}
}

// Analyze groups customers by their first-order month and measures how
// many return in each following month. Cohorts smaller than the
// minimum size are dropped from the result.
func (a *CohortAnalyzer) Analyze(t *table.Table) (*CohortAnalysis, error) {
	for _, col := range []string{"customer_id", "order_date"} {
		if !t.HasColumn(col) {
			return nil, fmt.Errorf("cohort analysis requires column %q", col)
		}
	}

	// First pass: acquisition month per customer.
	acquisition := make(map[string]time.Time)
	for _, row := range t.Rows() {
		id, date, ok := customerAndDate(row)
		if !ok {
			continue
		}
		month := monthStart(date)
		if first, seen := acquisition[id]; !seen || month.Before(first) {
			acquisition[id] = month
		}
	}
	if len(acquisition) == 0 {
		return &CohortAnalysis{}, nil
	}

	// Second pass: distinct active customers per (cohort, month offset).
	activity := make(map[string]map[int]map[string]bool) // cohort month -> offset -> customers
	for _, row := range t.Rows() {
		id, date, ok := customerAndDate(row)
		if !ok {
			continue
		}
		cohort := acquisition[id]
		offset := monthsBetween(cohort, monthStart(date))
		if offset < 0 {
			continue
		}
		key := cohort.Format("2006-01")
		if activity[key] == nil {
			activity[key] = make(map[int]map[string]bool)
		}
		if activity[key][offset] == nil {
			activity[key][offset] = make(map[string]bool)
		}
		activity[key][offset][id] = true
	}

	months := make([]string, 0, len(activity))
	for m := range activity {
		months = append(months, m)
	}
	sort.Strings(months)

	analysis := &CohortAnalysis{TotalCustomers: len(acquisition)}
	maxOffset := 0
	for _, month := range months {
		size := len(activity[month][0])
		if size < minCustomersForCohort {
			continue
		}

		last := 0
		for offset := range activity[month] {
			if offset > last {
				last = offset
			}
		}
		if last > maxOffset {
			maxOffset = last
		}

		row := CohortRow{Month: month, Size: size, Retention: make([]float64, last+1)}
		for offset := 0; offset <= last; offset++ {
			row.Retention[offset] = float64(len(activity[month][offset])) / float64(size)
		}
		analysis.Cohorts = append(analysis.Cohorts, row)
	}

	analysis.AvgRetentionByPeriod = averageByPeriod(analysis.Cohorts, maxOffset)

	a.logger.Info("cohort analysis complete",
		zap.Int("cohorts", len(analysis.Cohorts)),
		zap.Int("customers", analysis.TotalCustomers),
	)
	return analysis, nil
}

func averageByPeriod(cohorts []CohortRow, maxOffset int) []float64 {
	if len(cohorts) == 0 {
		return nil
	}
	avg := make([]float64, maxOffset+1)
	for offset := 0; offset <= maxOffset; offset++ {
		sum, n := 0.0, 0
		for _, c := range cohorts {
			if offset < len(c.Retention) {
				sum += c.Retention[offset]
				n++
			}
		}
		if n > 0 {
			avg[offset] = sum / float64(n)
		}
	}
	return avg
}

func customerAndDate(row map[string]interface{}) (string, time.Time, bool) {
	id, ok := row["customer_id"].(string)
	if !ok || id == "" {
		return "", time.Time{}, false
	}
	date, ok := row["order_date"].(time.Time)
	if !ok {
		return "", time.Time{}, false
	}
	return id, date, true
}

func monthStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}

func monthsBetween(from, to time.Time) int {
	return (to.Year()-from.Year())*12 + int(to.Month()) - int(from.Month())
}
