// pkg/converter/cascade.go
package converter

// The coercion cascade replaces try/fail fallback chains with an
// explicit ranked-candidate evaluation: each candidate converts the
// whole column and is scored by its success rate; the best one wins.

// LayoutAuto marks the auto-detecting datetime candidate, which tries
// every known layout per value.
const LayoutAuto = "auto"

// earlyStopRate ends the datetime cascade once a candidate is good
// enough that later candidates cannot meaningfully improve on it.
const earlyStopRate = 0.95

// Result holds one candidate's conversion of a column.
type Result struct {
	// Converted mirrors the input positionally. Failed conversions and
	// source nulls are nil (induced nulls).
	Converted []interface{}
	// NonNull is the number of non-null source values.
	NonNull int
	// SuccessRate is the fraction of non-null source values that
	// converted. 1.0 for a column with no non-null values.
	SuccessRate float64
}

// EvaluateFloat converts a column to float64 and scores the attempt.
func EvaluateFloat(values []interface{}) Result {
	res := Result{Converted: make([]interface{}, len(values))}

	converted := 0
	for i, v := range values {
		if IsNull(v) {
			continue
		}
		res.NonNull++
		if f, err := ToFloat(v); err == nil {
			res.Converted[i] = f
			converted++
		}
	}

	res.SuccessRate = rate(converted, res.NonNull)
	return res
}

// EvaluateBool converts a column to bool and scores the attempt.
func EvaluateBool(values []interface{}) Result {
	res := Result{Converted: make([]interface{}, len(values))}

	converted := 0
	for i, v := range values {
		if IsNull(v) {
			continue
		}
		res.NonNull++
		if b, err := ToBool(v); err == nil {
			res.Converted[i] = b
			converted++
		}
	}

	res.SuccessRate = rate(converted, res.NonNull)
	return res
}

// EvaluateTime runs the datetime cascade over a column: the
// auto-detecting candidate first, then each explicit layout, keeping
// the candidate with the highest success rate and stopping early once
// one exceeds 95%. Returns the winning layout alongside its result.
func EvaluateTime(values []interface{}) (string, Result) {
	bestLayout := LayoutAuto
	best := evaluateTimeCandidate(values, LayoutAuto)
	if best.SuccessRate > earlyStopRate {
		return bestLayout, best
	}

	for _, layout := range DateLayouts {
		res := evaluateTimeCandidate(values, layout)
		if res.SuccessRate > best.SuccessRate {
			best = res
			bestLayout = layout
		}
		if best.SuccessRate > earlyStopRate {
			break
		}
	}

	return bestLayout, best
}

func evaluateTimeCandidate(values []interface{}, layout string) Result {
	res := Result{Converted: make([]interface{}, len(values))}

	converted := 0
	for i, v := range values {
		if IsNull(v) {
			continue
		}
		res.NonNull++

		var err error
		var t interface{}
		if layout == LayoutAuto {
			t, err = ToTime(v)
		} else {
			t, err = ToTimeLayout(v, layout)
		}
		if err == nil {
			res.Converted[i] = t
			converted++
		}
	}

	res.SuccessRate = rate(converted, res.NonNull)
	return res
}

func rate(converted, nonNull int) float64 {
	if nonNull == 0 {
		return 1.0
	}
	return float64(converted) / float64(nonNull)
}
