// pkg/analytics/anomalies.go
package analytics

import (
	"fmt"
	"math"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/eltahawyomar001-eng/salla-analytics/pkg/table"
)

// zThreshold marks a daily revenue point anomalous.
const zThreshold = 2.5

// Anomaly is one flagged daily revenue point.
type Anomaly struct {
	Date     time.Time
	Revenue  float64
	ZScore   float64
	Severity string // "medium" or "high"
}

// AnomalyReport summarizes the daily revenue series and its outliers.
type AnomalyReport struct {
	Anomalies  []Anomaly
	DaysInData int
	MeanDaily  float64
	StdDaily   float64
}

// AnomalyDetector flags days whose revenue deviates sharply from the
// dataset's own daily distribution.
type AnomalyDetector struct {
	logger *zap.Logger
}

// NewAnomalyDetector creates an AnomalyDetector.
func NewAnomalyDetector(logger *zap.Logger) *AnomalyDetector {
	return &AnomalyDetector{logger: logger}
}

// Detect computes the daily revenue series and flags days whose
// z-score magnitude is at least 2.5. Results are in date order.
func (d *AnomalyDetector) Detect(t *table.Table) (*AnomalyReport, error) {
	for _, col := range []string{"order_date", "order_total"} {
		if !t.HasColumn(col) {
			return nil, fmt.Errorf("anomaly detection requires column %q", col)
		}
	}

	daily := make(map[time.Time]float64)
	for _, row := range t.Rows() {
		date, ok := row["order_date"].(time.Time)
		if !ok {
			continue
		}
		total, ok := row["order_total"].(float64)
		if !ok {
			continue
		}
		day := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC)
		daily[day] += total
	}

	report := &AnomalyReport{DaysInData: len(daily)}
	if len(daily) < 2 {
		return report, nil
	}

	days := make([]time.Time, 0, len(daily))
	sum := 0.0
	for day, revenue := range daily {
		days = append(days, day)
		sum += revenue
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Before(days[j]) })

	mean := sum / float64(len(daily))
	variance := 0.0
	for _, revenue := range daily {
		variance += (revenue - mean) * (revenue - mean)
	}
	std := math.Sqrt(variance / float64(len(daily)-1))

	report.MeanDaily = mean
	report.StdDaily = std
	if std == 0 {
		return report, nil
	}

	for _, day := range days {
		z := (daily[day] - mean) / std
		if math.Abs(z) < zThreshold {
			continue
		}
		severity := "medium"
		if math.Abs(z) > zThreshold*1.5 {
			severity = "high"
		}
		report.Anomalies = append(report.Anomalies, Anomaly{
			Date:     day,
			Revenue:  daily[day],
			ZScore:   z,
			Severity: severity,
		})
	}

	d.logger.Info("anomaly detection complete",
		zap.Int("days", report.DaysInData),
		zap.Int("anomalies", len(report.Anomalies)),
	)
	return report, nil
}
