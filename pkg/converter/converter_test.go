package converter

import (
	"testing"
	"time"
)

func TestIsNull(t *testing.T) {
	tests := []struct {
		value interface{}
		want  bool
	}{
		{nil, true},
		{"", true},
		{"  ", true},
		{"null", true},
		{"NaN", true},
		{"0", false},
		{0.0, false},
		{"value", false},
	}

	for _, tt := range tests {
		if got := IsNull(tt.value); got != tt.want {
			t.Errorf("IsNull(%v) = %v, want %v", tt.value, got, tt.want)
		}
	}
}

func TestToFloat(t *testing.T) {
	tests := []struct {
		value   interface{}
		want    float64
		wantErr bool
	}{
		{"150.00", 150, false},
		{"1,024.50", 1024.5, false},
		{" 42 ", 42, false},
		{int64(7), 7, false},
		{true, 1, false},
		{"abc", 0, true},
		{nil, 0, true},
	}

	for _, tt := range tests {
		got, err := ToFloat(tt.value)
		if (err != nil) != tt.wantErr {
			t.Errorf("ToFloat(%v) error = %v, wantErr %v", tt.value, err, tt.wantErr)
			continue
		}
		if !tt.wantErr && got != tt.want {
			t.Errorf("ToFloat(%v) = %v, want %v", tt.value, got, tt.want)
		}
	}
}

func TestToTimeLayouts(t *testing.T) {
	tests := []struct {
		value string
		want  time.Time
	}{
		{"2024-01-05", time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC)},
		{"05/01/2024", time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC)},
		{"2024/01/05", time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC)},
		{"05.01.2024", time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC)},
		{"2024-01-05 13:30:00", time.Date(2024, 1, 5, 13, 30, 0, 0, time.UTC)},
	}

	for _, tt := range tests {
		got, err := ToTime(tt.value)
		if err != nil {
			t.Errorf("ToTime(%q): %v", tt.value, err)
			continue
		}
		if !got.Equal(tt.want) {
			t.Errorf("ToTime(%q) = %v, want %v", tt.value, got, tt.want)
		}
	}

	if _, err := ToTime("definitely not a date"); err == nil {
		t.Error("expected error for unparseable date")
	}
}

func TestEvaluateFloat(t *testing.T) {
	values := []interface{}{"10", "20", "junk", nil, "40"}

	res := EvaluateFloat(values)

	if res.NonNull != 4 {
		t.Errorf("NonNull = %d, want 4 (nil excluded)", res.NonNull)
	}
	if res.SuccessRate != 0.75 {
		t.Errorf("SuccessRate = %v, want 0.75", res.SuccessRate)
	}
	if res.Converted[0] != 10.0 || res.Converted[4] != 40.0 {
		t.Errorf("converted = %v", res.Converted)
	}
	if res.Converted[2] != nil || res.Converted[3] != nil {
		t.Errorf("failures and nulls must stay nil: %v", res.Converted)
	}
}

func TestEvaluateFloatAllNull(t *testing.T) {
	res := EvaluateFloat([]interface{}{nil, "", "null"})
	if res.NonNull != 0 {
		t.Errorf("NonNull = %d, want 0", res.NonNull)
	}
	if res.SuccessRate != 1.0 {
		t.Errorf("SuccessRate = %v, want 1.0 for an empty column", res.SuccessRate)
	}
}

func TestEvaluateTimePicksBestLayout(t *testing.T) {
	// Day-first dates where the day exceeds 12: only the European
	// layout can parse all of them.
	values := []interface{}{"25/01/2024", "26/01/2024", "27/01/2024"}

	layout, res := EvaluateTime(values)

	if res.SuccessRate != 1.0 {
		t.Fatalf("SuccessRate = %v, want 1.0", res.SuccessRate)
	}
	if layout == LayoutAuto {
		// Auto also reaches 1.0 here since the European layout is in
		// its fallback list; either winner must convert every value.
		t.Log("auto candidate won, acceptable")
	}
	for i, v := range res.Converted {
		ts, ok := v.(time.Time)
		if !ok {
			t.Fatalf("Converted[%d] = %v, want time.Time", i, v)
		}
		if ts.Day() != 25+i || ts.Month() != time.January {
			t.Errorf("Converted[%d] = %v, want day %d of January", i, ts, 25+i)
		}
	}
}

func TestEvaluateTimeMixedFormats(t *testing.T) {
	// Half ISO, half European: no single candidate exceeds the early
	// stop, the best one still wins.
	values := []interface{}{"2024-01-05", "2024-01-06", "31/01/2024", "30/01/2024"}

	_, res := EvaluateTime(values)

	if res.SuccessRate < 0.5 {
		t.Errorf("SuccessRate = %v, want at least the larger fraction", res.SuccessRate)
	}
}

func TestEvaluateTimeAllJunk(t *testing.T) {
	values := []interface{}{"x", "y", "z"}

	_, res := EvaluateTime(values)

	if res.SuccessRate != 0 {
		t.Errorf("SuccessRate = %v, want 0", res.SuccessRate)
	}
	for _, v := range res.Converted {
		if v != nil {
			t.Errorf("junk input converted to %v", v)
		}
	}
}
