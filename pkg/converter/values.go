// pkg/converter/values.go
package converter

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// DateLayouts are the candidate formats tried by the datetime cascade,
// in ranked order: ISO first, then European, US and dotted conventions.
var DateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	time.RFC3339,
	"02/01/2006",
	"01/02/2006",
	"2006/01/02",
	"02-01-2006",
	"02.01.2006",
	"2006.01.02",
}

// IsNull determines if a value should be treated as NULL. Empty strings
// and textual null markers count.
func IsNull(value interface{}) bool {
	if value == nil {
		return true
	}
	if strVal, ok := value.(string); ok {
		switch strings.TrimSpace(strVal) {
		case "", "null", "NULL", "nil", "NIL", "NaN", "nan":
			return true
		}
	}
	return false
}

// ToString converts a value to its string form. Nil becomes "".
func ToString(value interface{}) string {
	if value == nil {
		return ""
	}
	switch v := value.(type) {
	case string:
		return v
	case []byte:
		return string(v)
	case time.Time:
		return v.Format(time.RFC3339)
	default:
		return fmt.Sprintf("%v", v)
	}
}

// ToFloat attempts to convert a value to float64. String values may
// carry thousands separators or surrounding whitespace.
func ToFloat(value interface{}) (float64, error) {
	if value == nil {
		return 0, errors.New("nil value")
	}

	switch v := value.(type) {
	case float64:
		return v, nil
	case float32:
		return float64(v), nil
	case int:
		return float64(v), nil
	case int32:
		return float64(v), nil
	case int64:
		return float64(v), nil
	case bool:
		if v {
			return 1, nil
		}
		return 0, nil
	case string:
		cleaned := strings.TrimSpace(v)
		if cleaned == "" {
			return 0, errors.New("empty string")
		}
		cleaned = strings.ReplaceAll(cleaned, ",", "")
		return strconv.ParseFloat(cleaned, 64)
	case []byte:
		return ToFloat(string(v))
	default:
		return 0, fmt.Errorf("cannot convert %T to float", value)
	}
}

// ToBool attempts to convert a value to bool.
func ToBool(value interface{}) (bool, error) {
	if value == nil {
		return false, errors.New("nil value")
	}

	switch v := value.(type) {
	case bool:
		return v, nil
	case int, int32, int64, float32, float64:
		f, _ := ToFloat(v)
		return f != 0, nil
	case string:
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "true", "t", "yes", "y", "1":
			return true, nil
		case "false", "f", "no", "n", "0":
			return false, nil
		default:
			return false, fmt.Errorf("cannot parse %q as boolean", v)
		}
	default:
		return false, fmt.Errorf("cannot convert %T to bool", value)
	}
}

// ToTime attempts to convert a value to time.Time, trying every known
// date layout. Use ToTimeLayout when the layout has been chosen by the
// cascade.
func ToTime(value interface{}) (time.Time, error) {
	if value == nil {
		return time.Time{}, errors.New("nil value")
	}

	switch v := value.(type) {
	case time.Time:
		return v, nil
	case string:
		cleaned := strings.TrimSpace(v)
		if cleaned == "" {
			return time.Time{}, errors.New("empty string")
		}
		for _, layout := range DateLayouts {
			if t, err := time.Parse(layout, cleaned); err == nil {
				return t, nil
			}
		}
		return time.Time{}, fmt.Errorf("cannot parse time from %q", cleaned)
	default:
		return time.Time{}, fmt.Errorf("cannot convert %T to time", value)
	}
}

// ToTimeLayout converts a value with one specific layout.
func ToTimeLayout(value interface{}, layout string) (time.Time, error) {
	if value == nil {
		return time.Time{}, errors.New("nil value")
	}
	if t, ok := value.(time.Time); ok {
		return t, nil
	}

	cleaned := strings.TrimSpace(ToString(value))
	if cleaned == "" {
		return time.Time{}, errors.New("empty string")
	}
	return time.Parse(layout, cleaned)
}
