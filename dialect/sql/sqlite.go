package sql

import (
	"context"
	"errors"

	sqlite "modernc.org/sqlite"

	"github.com/stratadb/strata/dialect"
)

// SQLite is the Adapter implementation for the sqlite dialect, backed by
// the CGO-free modernc driver.
type SQLite struct {
	conn
}

// OpenSQLite connects to a SQLite database described by cfg.
func OpenSQLite(ctx context.Context, cfg Config) (*SQLite, error) {
	a, err := Connect(ctx, dialect.SQLite, cfg)
	if err != nil {
		return nil, err
	}
	return a.(*SQLite), nil
}

// QuoteColumn quotes a column identifier with backticks.
func (*SQLite) QuoteColumn(name string) string {
	return quoteIdent(name, "`")
}

// QuoteTable quotes a table identifier with backticks.
func (*SQLite) QuoteTable(name string) string {
	return quoteIdent(name, "`")
}

// QuoteNamespacedColumn quotes a table-qualified column.
func (a *SQLite) QuoteNamespacedColumn(table, column string) string {
	return a.QuoteTable(table) + "." + a.QuoteColumn(column)
}

// InsertSQL returns the single-row INSERT skeleton. The generated key is
// the rowid reported by the driver after execution.
func (a *SQLite) InsertSQL(table string, columns []string, _ string) string {
	return insertSkeleton(a, table, columns)
}

// Query runs a non-parameterized statement.
func (a *SQLite) Query(ctx context.Context, query string) (*Result, error) {
	res, err := a.conn.query(ctx, query, nil)
	return res, a.classify(err)
}

// Select runs a prepared row-returning statement.
func (a *SQLite) Select(ctx context.Context, query string, args []any) (*Result, error) {
	res, err := a.conn.selectQuery(ctx, query, args)
	return res, a.classify(err)
}

// Exec runs a prepared mutating statement.
func (a *SQLite) Exec(ctx context.Context, query string, args []any) (*Result, error) {
	res, _, err := a.conn.exec(ctx, query, args)
	return res, a.classify(err)
}

// Insert runs an INSERT and surfaces the last insert rowid as a
// synthetic pk-named column.
func (a *SQLite) Insert(ctx context.Context, query string, args []any, pk string) (*Result, error) {
	res, raw, err := a.conn.exec(ctx, query, args)
	if err != nil {
		return nil, a.classify(err)
	}
	if id, err := raw.LastInsertId(); err == nil && id != 0 {
		res.Columns = []string{pk}
		res.Rows = [][]any{{id}}
	}
	return res, nil
}

// classify maps driver errors onto the adapter taxonomy. The low byte of
// an extended sqlite result code carries the primary code; 19 is
// SQLITE_CONSTRAINT.
func (*SQLite) classify(err error) error {
	if err == nil {
		return nil
	}
	var se *sqlite.Error
	if errors.As(err, &se) && se.Code()&0xff == 19 {
		return &ConstraintError{msg: se.Error(), wrap: err}
	}
	return err
}

var _ Adapter = (*SQLite)(nil)
