package sql

import (
	"errors"
	"strings"

	"github.com/stratadb/strata/schema"
)

// ErrEmptySet is returned by DeleteSet for a zero-length id list. There
// is no valid SQL for an empty IN clause; callers short-circuit to a
// no-op before executing.
var ErrEmptySet = errors.New("dialect/sql: empty id set")

// Statement is a prepared statement: SQL text with positional
// placeholders and the ordered values bound to them. The argument count
// equals the placeholder count before collection expansion.
type Statement struct {
	SQL  string
	Args []any
}

// Builder produces dialect-correct mutating statements for records.
// It only uses the adapter's quoting rules; execution stays with the
// adapter.
type Builder struct {
	adapter Adapter
}

// NewBuilder returns a Builder that quotes through the given adapter.
func NewBuilder(a Adapter) *Builder {
	return &Builder{adapter: a}
}

// Insert builds a single-row INSERT for the record. A nil primary key is
// excluded from the column list (the database generates it); a non-nil
// primary key is inserted explicitly. Argument order follows the column
// order.
func (b *Builder) Insert(rec schema.Record, m *schema.Model) Statement {
	list := m.ToList(rec)
	columns := make([]string, 0, len(list))
	args := make([]any, 0, len(list))
	for _, cv := range list {
		if cv.Column == m.PrimaryKey && cv.Value == nil {
			continue
		}
		columns = append(columns, cv.Column)
		args = append(args, cv.Value)
	}
	return Statement{
		SQL:  b.adapter.InsertSQL(m.Table, columns, m.PrimaryKey),
		Args: args,
	}
}

// Update builds an UPDATE-by-key for the record. The SET list follows
// the model's full field order, primary key included; the current
// primary key value is bound last for the WHERE clause.
func (b *Builder) Update(rec schema.Record, m *schema.Model) Statement {
	list := m.ToList(rec)
	set := make([]string, len(list))
	args := make([]any, 0, len(list)+1)
	for i, cv := range list {
		set[i] = b.adapter.QuoteColumn(cv.Column) + " = ?"
		args = append(args, cv.Value)
	}
	args = append(args, m.PrimaryKeyValue(rec))
	return Statement{
		SQL: "UPDATE " + b.adapter.QuoteTable(m.Table) +
			" SET " + strings.Join(set, ", ") +
			" WHERE " + b.adapter.QuoteNamespacedColumn(m.Table, m.PrimaryKey) + " = ?",
		Args: args,
	}
}

// Find builds a SELECT-by-key over the model's full column list.
func (b *Builder) Find(id any, m *schema.Model) Statement {
	cols := make([]string, len(m.Fields))
	for i, f := range m.Fields {
		cols[i] = b.adapter.QuoteColumn(f.Name)
	}
	return Statement{
		SQL: "SELECT " + strings.Join(cols, ", ") +
			" FROM " + b.adapter.QuoteTable(m.Table) +
			" WHERE " + b.adapter.QuoteNamespacedColumn(m.Table, m.PrimaryKey) + " = ?",
		Args: []any{id},
	}
}

// Delete builds a single-record DELETE-by-key.
func (b *Builder) Delete(rec schema.Record, m *schema.Model) Statement {
	return Statement{
		SQL: "DELETE FROM " + b.adapter.QuoteTable(m.Table) +
			" WHERE " + b.adapter.QuoteNamespacedColumn(m.Table, m.PrimaryKey) + " = ?",
		Args: []any{m.PrimaryKeyValue(rec)},
	}
}

// DeleteSet builds a set-based DELETE for the given primary key values.
// The statement carries a single argument slot holding the whole id
// list; the adapter's placeholder expansion turns the one placeholder
// into a run matching the list length at execute time.
func (b *Builder) DeleteSet(ids []any, m *schema.Model) (Statement, error) {
	if len(ids) == 0 {
		return Statement{}, ErrEmptySet
	}
	return Statement{
		SQL: "DELETE FROM " + b.adapter.QuoteTable(m.Table) +
			" WHERE " + b.adapter.QuoteNamespacedColumn(m.Table, m.PrimaryKey) + " IN (?)",
		Args: []any{ids},
	}, nil
}
