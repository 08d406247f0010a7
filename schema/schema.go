package schema

import (
	"fmt"
	"unicode/utf8"
)

// Record is an instance of a model: a mapping from field name to typed
// value. The primary-key field is nil until the record is persisted.
// Records are passed by value between pipeline stages; mutating helpers
// return copies.
type Record map[string]any

// Clone returns a shallow copy of the record.
func (r Record) Clone() Record {
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// Merge returns a copy of the record with attrs overlaid on top.
// A nil attrs map returns a plain clone.
func (r Record) Merge(attrs map[string]any) Record {
	out := r.Clone()
	for k, v := range attrs {
		out[k] = v
	}
	return out
}

// ColumnValue is one ordered column/value pair of a record.
type ColumnValue struct {
	Column string
	Value  any
}

// Model is the static descriptor of an entity type: table name, primary
// key column, and the ordered field list. The persistence layer only
// reads models; they are safe for concurrent use once defined.
type Model struct {
	// Table is the table name.
	Table string
	// PrimaryKey is the primary key column name.
	PrimaryKey string
	// Fields is the ordered field list, primary key included.
	Fields []Field
}

// Columns returns the field names in declaration order.
func (m *Model) Columns() []string {
	cols := make([]string, len(m.Fields))
	for i, f := range m.Fields {
		cols[i] = f.Name
	}
	return cols
}

// Field returns the field descriptor for the given column name.
func (m *Model) Field(name string) (Field, bool) {
	for _, f := range m.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// PrimaryKeyValue returns the record's primary key value, or nil when
// the record has not been persisted.
func (m *Model) PrimaryKeyValue(r Record) any {
	return r[m.PrimaryKey]
}

// New builds a record from the given attributes. Every declared field is
// populated: absent fields get their Default (when set) or nil, so a
// record always carries the model's full column list. Attributes for
// undeclared fields are dropped.
func (m *Model) New(attrs map[string]any) Record {
	rec := make(Record, len(m.Fields))
	for _, f := range m.Fields {
		v, ok := attrs[f.Name]
		switch {
		case ok:
			rec[f.Name] = v
		case f.Default != nil:
			rec[f.Name] = f.Default()
		default:
			rec[f.Name] = nil
		}
	}
	return rec
}

// ToList returns the record's values as ordered column/value pairs
// following the model's field order.
func (m *Model) ToList(r Record) []ColumnValue {
	out := make([]ColumnValue, len(m.Fields))
	for i, f := range m.Fields {
		out[i] = ColumnValue{Column: f.Name, Value: r[f.Name]}
	}
	return out
}

// FromRow builds a record from a raw driver row, coercing each value
// into the declared field type. Columns not declared on the model are
// kept as-is.
func (m *Model) FromRow(columns []string, row []any) (Record, error) {
	if len(columns) != len(row) {
		return nil, fmt.Errorf("schema: %d columns for %d values", len(columns), len(row))
	}
	rec := make(Record, len(columns))
	for i, col := range columns {
		f, ok := m.Field(col)
		if !ok {
			rec[col] = row[i]
			continue
		}
		v, err := Coerce(f.Type, row[i])
		if err != nil {
			return nil, fmt.Errorf("schema: column %q: %w", col, err)
		}
		rec[col] = v
	}
	return rec, nil
}

// Validate checks the record against the model's field rules: required
// presence, string length bounds, and type conformance. It returns the
// record untouched together with the accumulated reasons; an empty
// reason list means the record is valid. Validate makes every model
// usable as a pipeline validator.
func (m *Model) Validate(r Record) (Record, []string) {
	var reasons []string
	for _, f := range m.Fields {
		v := r[f.Name]
		if f.Required && isBlank(v) {
			reasons = append(reasons, fmt.Sprintf("%s is required", f.Name))
			continue
		}
		if v == nil {
			continue
		}
		if !f.Type.Conforms(v) {
			reasons = append(reasons, fmt.Sprintf("%s must be a %s", f.Name, f.Type))
			continue
		}
		if s, ok := v.(string); ok && f.Type == TypeString {
			n := utf8.RuneCountInString(s)
			if f.MinLen > 0 && n < f.MinLen {
				reasons = append(reasons, fmt.Sprintf("%s must be at least %d characters", f.Name, f.MinLen))
			}
			if f.MaxLen > 0 && n > f.MaxLen {
				reasons = append(reasons, fmt.Sprintf("%s must be at most %d characters", f.Name, f.MaxLen))
			}
		}
	}
	return r, reasons
}

func isBlank(v any) bool {
	if v == nil {
		return true
	}
	s, ok := v.(string)
	return ok && s == ""
}
