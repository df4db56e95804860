// pkg/schema/fieldtype.go
package schema

import "strings"

// FieldType is the closed set of value types a canonical field can carry.
type FieldType int

const (
	// TypeString is free text. The default for unknown type tags.
	TypeString FieldType = iota
	// TypeFloat is a numeric value (monetary amounts, quantities).
	TypeFloat
	// TypeDateTime is a calendar timestamp.
	TypeDateTime
	// TypeBoolean is a true/false flag.
	TypeBoolean
)

// String returns the registry document spelling of the field type.
func (ft FieldType) String() string {
	switch ft {
	case TypeFloat:
		return "float"
	case TypeDateTime:
		return "datetime"
	case TypeBoolean:
		return "boolean"
	default:
		return "string"
	}
}

// ParseFieldType maps a registry type tag to a FieldType. Unknown tags
// report ok=false and default to TypeString; the caller decides whether
// to warn.
func ParseFieldType(s string) (FieldType, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "string", "text", "":
		return TypeString, true
	case "float", "numeric", "number", "decimal":
		return TypeFloat, true
	case "datetime", "date", "timestamp":
		return TypeDateTime, true
	case "boolean", "bool":
		return TypeBoolean, true
	default:
		return TypeString, false
	}
}
