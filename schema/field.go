package schema

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Type is the storage type of a model field.
type Type uint8

// Supported field types.
const (
	TypeInvalid Type = iota
	TypeString
	TypeInt
	TypeFloat
	TypeBool
	TypeTime
	TypeBytes
	TypeUUID
)

var typeNames = [...]string{
	TypeInvalid: "invalid",
	TypeString:  "string",
	TypeInt:     "int",
	TypeFloat:   "float",
	TypeBool:    "bool",
	TypeTime:    "time",
	TypeBytes:   "bytes",
	TypeUUID:    "uuid",
}

// String returns the type name.
func (t Type) String() string {
	if int(t) < len(typeNames) {
		return typeNames[t]
	}
	return fmt.Sprintf("invalid(%d)", t)
}

// Field describes a single column of a model.
type Field struct {
	// Name is the column name (snake_case by convention).
	Name string
	// Type is the field storage type.
	Type Type
	// Required marks the field as mandatory: validation fails when the
	// value is nil or an empty string.
	Required bool
	// MinLen and MaxLen bound string lengths. Zero means unbounded.
	MinLen int
	MaxLen int
	// Default, when set, is called by Model.New for fields absent from
	// the given attributes. Common values are time.Now and uuid.New.
	Default func() any
}

// Conforms reports whether v is an acceptable native value for t.
// A nil value conforms to every type; Required handles presence.
func (t Type) Conforms(v any) bool {
	if v == nil {
		return true
	}
	switch t {
	case TypeString:
		_, ok := v.(string)
		return ok
	case TypeInt:
		switch v.(type) {
		case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
			return true
		}
		return false
	case TypeFloat:
		switch v.(type) {
		case float32, float64, int, int64:
			return true
		}
		return false
	case TypeBool:
		_, ok := v.(bool)
		return ok
	case TypeTime:
		_, ok := v.(time.Time)
		return ok
	case TypeBytes:
		switch v.(type) {
		case []byte, string:
			return true
		}
		return false
	case TypeUUID:
		switch u := v.(type) {
		case uuid.UUID:
			return true
		case string:
			_, err := uuid.Parse(u)
			return err == nil
		}
		return false
	}
	return false
}

// Coerce converts a raw driver value into the native value for t.
// It is the wire-to-native half of value normalization: drivers hand
// back []byte for text, int64 for booleans, and strings for UUIDs.
func Coerce(t Type, v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	switch t {
	case TypeString:
		switch s := v.(type) {
		case string:
			return s, nil
		case []byte:
			return string(s), nil
		}
	case TypeInt:
		switch n := v.(type) {
		case int64:
			return n, nil
		case int:
			return int64(n), nil
		case int8:
			return int64(n), nil
		case int16:
			return int64(n), nil
		case int32:
			return int64(n), nil
		case uint64:
			return int64(n), nil
		case []byte:
			var parsed int64
			if _, err := fmt.Sscanf(string(n), "%d", &parsed); err == nil {
				return parsed, nil
			}
		}
	case TypeFloat:
		switch n := v.(type) {
		case float64:
			return n, nil
		case float32:
			return float64(n), nil
		case int64:
			return float64(n), nil
		case []byte:
			var f float64
			if _, err := fmt.Sscanf(string(n), "%g", &f); err == nil {
				return f, nil
			}
		}
	case TypeBool:
		switch b := v.(type) {
		case bool:
			return b, nil
		case int64:
			return b != 0, nil
		case []byte:
			return string(b) == "1" || string(b) == "true", nil
		}
	case TypeTime:
		switch ts := v.(type) {
		case time.Time:
			return ts, nil
		case string:
			if parsed, err := time.Parse(time.RFC3339Nano, ts); err == nil {
				return parsed, nil
			}
		case []byte:
			if parsed, err := time.Parse(time.RFC3339Nano, string(ts)); err == nil {
				return parsed, nil
			}
		}
	case TypeBytes:
		switch b := v.(type) {
		case []byte:
			return b, nil
		case string:
			return []byte(b), nil
		}
	case TypeUUID:
		switch u := v.(type) {
		case uuid.UUID:
			return u, nil
		case string:
			return uuid.Parse(u)
		case []byte:
			return uuid.ParseBytes(u)
		}
	}
	return nil, fmt.Errorf("schema: cannot coerce %T into %s", v, t)
}
