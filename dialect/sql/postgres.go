package sql

import (
	"context"
	"errors"
	"strings"

	"github.com/lib/pq"

	"github.com/stratadb/strata/dialect"
)

// Postgres is the Adapter implementation for the postgres dialect.
// Statements are built with "?" placeholders and rebound to the "$n"
// form at execute time, after collection expansion.
type Postgres struct {
	conn
}

// OpenPostgres connects to a PostgreSQL database described by cfg.
func OpenPostgres(ctx context.Context, cfg Config) (*Postgres, error) {
	a, err := Connect(ctx, dialect.Postgres, cfg)
	if err != nil {
		return nil, err
	}
	return a.(*Postgres), nil
}

// QuoteColumn quotes a column identifier with double quotes.
func (*Postgres) QuoteColumn(name string) string {
	return quoteIdent(name, `"`)
}

// QuoteTable quotes a table identifier with double quotes.
func (*Postgres) QuoteTable(name string) string {
	return quoteIdent(name, `"`)
}

// QuoteNamespacedColumn quotes a table-qualified column.
func (a *Postgres) QuoteNamespacedColumn(table, column string) string {
	return a.QuoteTable(table) + "." + a.QuoteColumn(column)
}

// InsertSQL returns the single-row INSERT skeleton with a RETURNING
// clause for the primary key, which is how the generated key is
// surfaced on this dialect.
func (a *Postgres) InsertSQL(table string, columns []string, pk string) string {
	return insertSkeleton(a, table, columns) + " RETURNING " + a.QuoteColumn(pk)
}

// Query runs a non-parameterized statement.
func (a *Postgres) Query(ctx context.Context, query string) (*Result, error) {
	res, err := a.conn.query(ctx, query, nil)
	return res, a.classify(err)
}

// Select runs a prepared row-returning statement.
func (a *Postgres) Select(ctx context.Context, query string, args []any) (*Result, error) {
	res, err := a.conn.selectQuery(ctx, query, args)
	return res, a.classify(err)
}

// Exec runs a prepared mutating statement.
func (a *Postgres) Exec(ctx context.Context, query string, args []any) (*Result, error) {
	res, _, err := a.conn.exec(ctx, query, args)
	return res, a.classify(err)
}

// Insert runs an INSERT ... RETURNING and normalizes the returned key
// into the synthetic pk-named column shared by all dialects.
func (a *Postgres) Insert(ctx context.Context, query string, args []any, _ string) (*Result, error) {
	res, err := a.conn.selectQuery(ctx, query, args)
	if err != nil {
		return nil, a.classify(err)
	}
	res.Affected = NullInt64{Int64: int64(len(res.Rows)), Valid: true}
	return res, nil
}

// classify maps driver errors onto the adapter taxonomy.
// Class 23 covers integrity constraint violations.
func (*Postgres) classify(err error) error {
	if err == nil {
		return nil
	}
	var pe *pq.Error
	if errors.As(err, &pe) && strings.HasPrefix(string(pe.Code), "23") {
		return &ConstraintError{msg: pe.Message, wrap: err}
	}
	return err
}

var _ Adapter = (*Postgres)(nil)
