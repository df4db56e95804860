package pipeline

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"github.com/eltahawyomar001-eng/salla-analytics/pkg/model"
	"github.com/eltahawyomar001-eng/salla-analytics/pkg/schema"
	"github.com/eltahawyomar001-eng/salla-analytics/pkg/table"
)

// memStore is an in-memory cache.Store for tests.
type memStore struct {
	mappings map[string]*model.Mapping
	puts     int
}

func newMemStore() *memStore {
	return &memStore{mappings: make(map[string]*model.Mapping)}
}

func (s *memStore) Get(key string) (*model.Mapping, bool, error) {
	m, ok := s.mappings[key]
	return m, ok, nil
}

func (s *memStore) Put(key string, mapping *model.Mapping) error {
	s.mappings[key] = mapping
	s.puts++
	return nil
}

func (s *memStore) Close() error { return nil }

func newPipeline(t *testing.T, store *memStore) *Pipeline {
	t.Helper()
	reg, err := schema.Default(zap.NewNop())
	if err != nil {
		t.Fatalf("loading registry: %v", err)
	}
	if store == nil {
		return New(zap.NewNop(), reg, nil)
	}
	return New(zap.NewNop(), reg, store)
}

func orderLevelTable() *table.Table {
	t := table.New([]string{"Order Number", "Date", "Client ID", "Total"})
	t.Append(map[string]interface{}{"Order Number": "1001", "Date": "2024-01-05", "Client ID": "C1", "Total": "150.00"})
	t.Append(map[string]interface{}{"Order Number": "1002", "Date": "2024-01-06", "Client ID": "C2", "Total": "79.90"})
	t.Append(map[string]interface{}{"Order Number": "1003", "Date": "2024-01-07", "Client ID": "C1", "Total": "12.25"})
	return t
}

func lineItemTable() *table.Table {
	t := table.New([]string{"customer_id", "order_date", "line_item_id", "quantity", "item_total"})
	rows := []struct {
		customer, item, total string
	}{
		{"C1", "1", "10.00"},
		{"C1", "2", "5.50"},
		{"C1", "3", "7.25"},
		{"C2", "4", "42.00"},
		{"C2", "5", "3.10"},
	}
	for _, r := range rows {
		t.Append(map[string]interface{}{
			"customer_id":  r.customer,
			"order_date":   "2024-02-01",
			"line_item_id": r.item,
			"quantity":     "1",
			"item_total":   r.total,
		})
	}
	return t
}

func TestRunOrderLevelEndToEnd(t *testing.T) {
	p := newPipeline(t, nil)

	result, err := p.Run(context.Background(), orderLevelTable(), Options{})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	for _, field := range []string{"order_id", "order_date", "customer_id", "order_total"} {
		fm, ok := result.Mapping.Fields[field]
		if !ok {
			t.Fatalf("field %s not mapped", field)
		}
		if fm.Confidence < 0.8 {
			t.Errorf("field %s confidence = %v, want >= 0.8", field, fm.Confidence)
		}
	}
	if result.Mapping.Platform != "salla" {
		t.Errorf("mapping platform = %q, want salla", result.Mapping.Platform)
	}
	if result.Detection.Level != model.LevelOrder {
		t.Errorf("level = %v, want order", result.Detection.Level)
	}
	if result.Aggregation != nil {
		t.Error("order-level data must not be aggregated")
	}
	if !result.Report.IsValid {
		t.Errorf("report invalid: %v", result.Report.Errors)
	}
	if result.Table.Len() != 3 {
		t.Errorf("final rows = %d, want 3", result.Table.Len())
	}
	if result.RunID == "" {
		t.Error("missing run id")
	}
}

func TestRunLineItemEndToEnd(t *testing.T) {
	p := newPipeline(t, nil)

	result, err := p.Run(context.Background(), lineItemTable(), Options{})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if result.Detection.Level != model.LevelLineItem {
		t.Fatalf("level = %v, want line_item", result.Detection.Level)
	}
	if result.Aggregation == nil {
		t.Fatal("expected aggregation summary")
	}
	if result.Aggregation.OriginalRows != 5 {
		t.Errorf("original rows = %d, want 5", result.Aggregation.OriginalRows)
	}
	// C1 and C2 each collapse into one synthetic order on one day.
	if result.Table.Len() != 2 {
		t.Errorf("final rows = %d, want 2", result.Table.Len())
	}
	if !result.Table.HasColumn("order_id") {
		t.Error("aggregation must synthesize order_id")
	}
}

func TestRunAggregationDeclined(t *testing.T) {
	p := newPipeline(t, nil)

	var seen model.Detection
	result, err := p.Run(context.Background(), lineItemTable(), Options{
		ConfirmAggregation: func(d model.Detection) bool {
			seen = d
			return false
		},
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if !result.AggregationDeclined {
		t.Fatal("expected AggregationDeclined")
	}
	if result.Aggregation != nil {
		t.Error("declined aggregation must not run")
	}
	if result.Table.Len() != 5 {
		t.Errorf("rows = %d, want the original 5", result.Table.Len())
	}
	if seen.Strategy == model.StrategyNone {
		t.Error("gate must receive the recommended strategy")
	}
}

func TestRunUnmappableRequiredField(t *testing.T) {
	p := newPipeline(t, nil)

	tbl := table.New([]string{"zzqx1", "zzqx2"})
	tbl.Append(map[string]interface{}{"zzqx1": "a", "zzqx2": "b"})

	_, err := p.Run(context.Background(), tbl, Options{})

	var schemaErr *SchemaError
	if !errors.As(err, &schemaErr) {
		t.Fatalf("expected SchemaError, got %v", err)
	}
	if len(schemaErr.Fields) == 0 {
		t.Error("SchemaError must name the failed fields")
	}
	if schemaErr.Severity() != SeverityFatal {
		t.Errorf("severity = %v, want fatal", schemaErr.Severity())
	}
}

func TestRunMappingCache(t *testing.T) {
	store := newMemStore()
	p := newPipeline(t, store)
	opts := Options{CacheKey: "orders_1024_.csv"}

	first, err := p.Run(context.Background(), orderLevelTable(), opts)
	if err != nil {
		t.Fatalf("first Run: %v", err)
	}
	if store.puts != 1 {
		t.Fatalf("puts after first run = %d, want 1", store.puts)
	}

	second, err := p.Run(context.Background(), orderLevelTable(), opts)
	if err != nil {
		t.Fatalf("second Run: %v", err)
	}

	if got, want := second.Mapping.Fields["order_id"].Source, first.Mapping.Fields["order_id"].Source; got != want {
		t.Errorf("cached mapping source = %q, want %q", got, want)
	}
}

func TestRunCacheIgnoredWhenColumnsChange(t *testing.T) {
	store := newMemStore()
	store.mappings["stale_1_.csv"] = &model.Mapping{
		Platform: "salla",
		Fields: map[string]model.FieldMapping{
			"order_id": {Source: "gone_column", Confidence: 1.0},
		},
	}
	p := newPipeline(t, store)

	result, err := p.Run(context.Background(), orderLevelTable(), Options{CacheKey: "stale_1_.csv"})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if src := result.Mapping.Fields["order_id"].Source; src == "gone_column" {
		t.Error("stale cached mapping must be recomputed")
	}
}

func TestRunWithCleaning(t *testing.T) {
	tbl := orderLevelTable()
	tbl.Append(map[string]interface{}{"Order Number": "1001", "Date": "2024-01-05", "Client ID": "C1", "Total": "150.00"})

	p := newPipeline(t, nil)
	result, err := p.Run(context.Background(), tbl, Options{Clean: true})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if result.Cleaning == nil {
		t.Fatal("expected cleaning summary")
	}
	if result.Cleaning.RemovedRows != 1 {
		t.Errorf("removed = %d, want the duplicate order", result.Cleaning.RemovedRows)
	}
	if result.Table.Len() != 3 {
		t.Errorf("final rows = %d, want 3", result.Table.Len())
	}
}

func TestRunHonorsContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p := newPipeline(t, nil)
	_, err := p.Run(ctx, orderLevelTable(), Options{})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
