package sql

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
)

// Expand rewrites the positional placeholders of a query whose bound
// argument is itself a collection. The query is split on the placeholder
// character; for the i-th placeholder, if the i-th argument is a slice or
// array, the single placeholder is replaced with a comma-joined run of
// placeholders matching the collection's length and the collection's
// elements are flattened into the argument list in place. Scalar
// arguments pass through one-to-one, so argument order is preserved
// after flattening.
//
//	Expand("DELETE FROM t WHERE id IN (?)", []any{[]any{1, 2, 3}})
//	// => "DELETE FROM t WHERE id IN (?, ?, ?)", []any{1, 2, 3}
//
// A []byte argument is a scalar blob, never a collection. An empty
// collection cannot be expanded into valid SQL and returns an error;
// callers guard the empty set before building the statement.
func Expand(query string, args []any) (string, []any, error) {
	frags := strings.Split(query, "?")
	if n := len(frags) - 1; n != len(args) {
		return "", nil, fmt.Errorf("dialect/sql: %d placeholders for %d arguments", n, len(args))
	}
	var (
		b    strings.Builder
		flat = make([]any, 0, len(args))
	)
	for i, frag := range frags {
		b.WriteString(frag)
		if i == len(args) {
			break
		}
		elems, ok := collection(args[i])
		if !ok {
			b.WriteString("?")
			flat = append(flat, args[i])
			continue
		}
		if len(elems) == 0 {
			return "", nil, fmt.Errorf("dialect/sql: empty collection bound to placeholder %d", i+1)
		}
		b.WriteString("?")
		b.WriteString(strings.Repeat(", ?", len(elems)-1))
		flat = append(flat, elems...)
	}
	return b.String(), flat, nil
}

// collection returns the elements of v if it is a slice or array.
// Byte slices are treated as scalar values.
func collection(v any) ([]any, bool) {
	if _, ok := v.([]byte); ok {
		return nil, false
	}
	rv := reflect.ValueOf(v)
	if !rv.IsValid() || rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, false
	}
	elems := make([]any, rv.Len())
	for i := range elems {
		elems[i] = rv.Index(i).Interface()
	}
	return elems, true
}

// rebind rewrites "?" placeholders into the numbered "$n" form used by
// PostgreSQL. It runs after expansion, when the placeholder count is
// final. Statement text never carries string literals, so a bare scan
// over the query is safe.
func rebind(query string) string {
	var (
		b strings.Builder
		n int
	)
	b.Grow(len(query) + 8)
	for i := 0; i < len(query); i++ {
		if query[i] != '?' {
			b.WriteByte(query[i])
			continue
		}
		n++
		b.WriteByte('$')
		b.WriteString(strconv.Itoa(n))
	}
	return b.String()
}
