package sql

import (
	"time"

	"github.com/google/uuid"
)

// denormalize converts a native argument list into the wire values a
// driver expects: times are normalized to UTC, UUIDs travel as strings,
// and nested collections are denormalized element-wise so expansion sees
// wire values. Everything database/sql handles natively passes through.
func denormalize(args []any) []any {
	out := make([]any, len(args))
	for i, v := range args {
		out[i] = denormalizeValue(v)
	}
	return out
}

func denormalizeValue(v any) any {
	switch v := v.(type) {
	case time.Time:
		return v.UTC()
	case uuid.UUID:
		return v.String()
	case []any:
		return denormalize(v)
	default:
		return v
	}
}

// normalizeRow converts one scanned driver row into uniform values.
// Drivers disagree on text columns ([]byte vs string); raw bytes are
// surfaced as strings so results look the same across dialects. Typed
// coercion into model field values is the model's concern, see
// schema.Model.FromRow.
func normalizeRow(row []any) []any {
	out := make([]any, len(row))
	for i, v := range row {
		if b, ok := v.([]byte); ok {
			out[i] = string(b)
			continue
		}
		out[i] = v
	}
	return out
}
