package aggregate

import (
	"errors"
	"math"
	"testing"

	"go.uber.org/zap"

	"github.com/eltahawyomar001-eng/salla-analytics/pkg/converter"
	"github.com/eltahawyomar001-eng/salla-analytics/pkg/model"
	"github.com/eltahawyomar001-eng/salla-analytics/pkg/table"
)

func lineItemRow(customer, date, item, price string) map[string]interface{} {
	return map[string]interface{}{
		"customer_id": customer,
		"order_date":  date,
		"line_item_id": item,
		"item_total":  price,
	}
}

func sumColumn(t *testing.T, tbl *table.Table, col string) float64 {
	t.Helper()
	total := 0.0
	for _, row := range tbl.Rows() {
		if converter.IsNull(row[col]) {
			continue
		}
		f, err := converter.ToFloat(row[col])
		if err != nil {
			t.Fatalf("non-numeric %s value %v", col, row[col])
		}
		total += f
	}
	return total
}

func TestAggregateByOrderID(t *testing.T) {
	tbl := table.New([]string{"order_id", "customer_id", "order_date", "item_total", "quantity"})
	tbl.Append(map[string]interface{}{"order_id": "A1", "customer_id": "C1", "order_date": "2024-01-10", "item_total": "10.50", "quantity": "1"})
	tbl.Append(map[string]interface{}{"order_id": "A1", "customer_id": "C1", "order_date": "2024-01-10", "item_total": "4.50", "quantity": "2"})
	tbl.Append(map[string]interface{}{"order_id": "B2", "customer_id": "C2", "order_date": "2024-01-11", "item_total": "20", "quantity": "1"})

	agg := NewAggregator(zap.NewNop())
	out, summary, err := agg.Aggregate(tbl, model.StrategyByOrderID)
	if err != nil {
		t.Fatalf("Aggregate: %v", err)
	}

	if out.Len() != 2 {
		t.Fatalf("orders = %d, want 2", out.Len())
	}
	if summary.OriginalRows != 3 || summary.AggregatedRows != 2 {
		t.Errorf("summary rows = %d/%d, want 3/2", summary.OriginalRows, summary.AggregatedRows)
	}

	first := out.Row(0)
	if got, _ := converter.ToFloat(first["order_total"]); got != 15.0 {
		t.Errorf("order A1 total = %v, want 15.0", got)
	}
	if got, _ := converter.ToFloat(first["quantity"]); got != 3.0 {
		t.Errorf("order A1 quantity = %v, want 3", got)
	}
	if got, _ := converter.ToFloat(first["item_count"]); got != 2.0 {
		t.Errorf("order A1 item_count = %v, want 2", got)
	}
}

func TestAggregationConservesMoney(t *testing.T) {
	tbl := table.New([]string{"customer_id", "order_date", "line_item_id", "item_total"})
	prices := []string{"3.10", "4.95", "0.45", "120", "9.99", "15.01"}
	inputSum := 0.0
	for i, p := range prices {
		customer := "C1"
		if i >= 3 {
			customer = "C2"
		}
		tbl.Append(lineItemRow(customer, "2024-02-01", string(rune('a'+i)), p))
		f, _ := converter.ToFloat(p)
		inputSum += f
	}

	agg := NewAggregator(zap.NewNop())
	for _, strategy := range []model.AggregationStrategy{
		model.StrategyByCustomerDate,
		model.StrategyBySequentialBoundary,
	} {
		out, _, err := agg.Aggregate(tbl, strategy)
		if err != nil {
			t.Fatalf("%s: %v", strategy, err)
		}
		outputSum := sumColumn(t, out, "order_total")
		if math.Abs(outputSum-inputSum) > 1e-9 {
			t.Errorf("%s: output total %v != input total %v", strategy, outputSum, inputSum)
		}
	}
}

func TestSequentialBoundaryOrderCount(t *testing.T) {
	// (A,day1),(A,day1),(A,day2),(B,day2) must yield exactly 3 orders.
	tbl := table.New([]string{"customer_id", "order_date", "line_item_id", "item_total"})
	tbl.Append(lineItemRow("A", "2024-03-01", "1", "10"))
	tbl.Append(lineItemRow("A", "2024-03-01", "2", "20"))
	tbl.Append(lineItemRow("A", "2024-03-02", "3", "30"))
	tbl.Append(lineItemRow("B", "2024-03-02", "4", "40"))

	agg := NewAggregator(zap.NewNop())
	out, summary, err := agg.Aggregate(tbl, model.StrategyBySequentialBoundary)
	if err != nil {
		t.Fatalf("Aggregate: %v", err)
	}

	if out.Len() != 3 {
		t.Fatalf("orders = %d, want 3", out.Len())
	}
	if summary.MaxItemsPerOrder != 2 || summary.MinItemsPerOrder != 1 {
		t.Errorf("items per order min/max = %d/%d, want 1/2",
			summary.MinItemsPerOrder, summary.MaxItemsPerOrder)
	}

	ids := make(map[string]bool)
	for _, row := range out.Rows() {
		ids[converter.ToString(row["order_id"])] = true
	}
	for _, want := range []string{"ORD_1", "ORD_2", "ORD_3"} {
		if !ids[want] {
			t.Errorf("missing synthetic order id %s (got %v)", want, ids)
		}
	}
}

func TestAggregateMissingPriceColumn(t *testing.T) {
	tbl := table.New([]string{"customer_id", "order_date", "line_item_id"})
	tbl.Append(map[string]interface{}{"customer_id": "C1", "order_date": "2024-01-01", "line_item_id": "1"})

	agg := NewAggregator(zap.NewNop())
	_, _, err := agg.Aggregate(tbl, model.StrategyByCustomerDate)

	var aggErr *AggregationError
	if !errors.As(err, &aggErr) {
		t.Fatalf("expected AggregationError, got %v", err)
	}
	if aggErr.Strategy != model.StrategyByCustomerDate {
		t.Errorf("error strategy = %v", aggErr.Strategy)
	}
}

func TestAggregateMissingIdentityColumns(t *testing.T) {
	tbl := table.New([]string{"item_total"})
	tbl.Append(map[string]interface{}{"item_total": "5"})

	agg := NewAggregator(zap.NewNop())
	_, _, err := agg.Aggregate(tbl, model.StrategyByCustomerDate)

	var aggErr *AggregationError
	if !errors.As(err, &aggErr) {
		t.Fatalf("expected AggregationError, got %v", err)
	}
}

func TestDetectLineItemLevel(t *testing.T) {
	// order_item identifier without order identifier, quantity column,
	// and >1.5 rows per customer-date: at least 2 indicators.
	tbl := table.New([]string{"customer_id", "order_date", "line_item_id", "quantity", "item_total"})
	rows := []struct {
		customer, item string
	}{
		{"C1", "1"}, {"C1", "2"}, {"C1", "3"},
		{"C2", "4"}, {"C2", "5"},
	}
	for _, r := range rows {
		tbl.Append(map[string]interface{}{
			"customer_id":  r.customer,
			"order_date":   "2024-04-01",
			"line_item_id": r.item,
			"quantity":     "1",
			"item_total":   "9.99",
		})
	}

	det := NewDetector(zap.NewNop()).Detect(tbl)

	if det.Level != model.LevelLineItem {
		t.Fatalf("level = %v, want line_item", det.Level)
	}
	if !det.RequiresAggregation {
		t.Error("expected RequiresAggregation")
	}
	if len(det.Indicators) < 2 {
		t.Errorf("indicators = %v, want at least 2", det.Indicators)
	}
	if det.Confidence < 0.5 {
		t.Errorf("confidence = %v, want >= 0.5", det.Confidence)
	}
	if det.Strategy != model.StrategyBySequentialBoundary {
		t.Errorf("strategy = %v, want sequential boundary", det.Strategy)
	}
	if det.AvgRowsPerOrder != 2.5 {
		t.Errorf("avg rows per order = %v, want 2.5", det.AvgRowsPerOrder)
	}
}

func TestDetectOrderLevel(t *testing.T) {
	tbl := table.New([]string{"order_id", "customer_id", "order_date", "order_total"})
	tbl.Append(map[string]interface{}{"order_id": "A1", "customer_id": "C1", "order_date": "2024-01-10", "order_total": "99"})
	tbl.Append(map[string]interface{}{"order_id": "A2", "customer_id": "C2", "order_date": "2024-01-11", "order_total": "45"})

	det := NewDetector(zap.NewNop()).Detect(tbl)

	if det.Level != model.LevelOrder {
		t.Fatalf("level = %v, want order", det.Level)
	}
	if det.RequiresAggregation {
		t.Error("order-level data must not require aggregation")
	}
	if det.Confidence != 0.8 {
		t.Errorf("confidence = %v, want fixed 0.8", det.Confidence)
	}
}
