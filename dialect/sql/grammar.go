package sql

import (
	"context"
	"fmt"
	"strings"

	"github.com/stratadb/strata/dialect"
)

// Result is the uniform shape every adapter normalizes driver responses
// into. Affected is valid for mutating statements and invalid for
// row-returning queries. An insert that generates a key surfaces it as a
// synthetic single-column, single-row result named after the primary
// key, so callers reconcile generated keys uniformly across dialects.
type Result struct {
	Affected NullInt64
	Columns  []string
	Rows     [][]any
}

// GeneratedKey returns the generated key surfaced by an insert,
// or nil when the statement generated none.
func (r *Result) GeneratedKey() any {
	if len(r.Rows) == 1 && len(r.Rows[0]) == 1 {
		return r.Rows[0][0]
	}
	return nil
}

// Adapter is the dialect-specific surface of the persistence engine.
// Implementations share execution through the driver layer and differ in
// identifier quoting, insert skeletons, generated-key retrieval, and
// constraint-error classification. Callers can swap implementations
// without changing the statement builder or the repository.
type Adapter interface {
	// Dialect returns the dialect name.
	Dialect() string

	// QuoteColumn quotes a column identifier.
	QuoteColumn(name string) string
	// QuoteTable quotes a table identifier.
	QuoteTable(name string) string
	// QuoteNamespacedColumn quotes a table-qualified column.
	QuoteNamespacedColumn(table, column string) string
	// InsertSQL returns the dialect's single-row INSERT skeleton for the
	// given table and column list, one placeholder per column.
	InsertSQL(table string, columns []string, pk string) string

	// Query runs a non-parameterized, row-returning statement.
	Query(ctx context.Context, query string) (*Result, error)
	// Select denormalizes args, expands collection placeholders, and
	// runs a prepared row-returning statement.
	Select(ctx context.Context, query string, args []any) (*Result, error)
	// Exec denormalizes args, expands collection placeholders, and runs
	// a mutating statement.
	Exec(ctx context.Context, query string, args []any) (*Result, error)
	// Insert runs an INSERT built by InsertSQL and surfaces the
	// generated key for the pk column, when the dialect reports one.
	Insert(ctx context.Context, query string, args []any, pk string) (*Result, error)

	// Close closes the underlying driver.
	Close() error
}

// NewAdapter wraps an existing driver with the adapter for its dialect.
func NewAdapter(drv dialect.Driver) (Adapter, error) {
	switch d := drv.Dialect(); d {
	case dialect.MySQL:
		return &MySQL{conn{drv}}, nil
	case dialect.Postgres:
		return &Postgres{conn{drv}}, nil
	case dialect.SQLite:
		return &SQLite{conn{drv}}, nil
	default:
		return nil, fmt.Errorf("dialect/sql: unsupported dialect %q", d)
	}
}

// Connect opens a pooled connection for the given dialect and config,
// verifies it with a ping, and returns the dialect's adapter.
func Connect(ctx context.Context, d string, cfg Config) (Adapter, error) {
	dsn, err := cfg.DSN(d)
	if err != nil {
		return nil, err
	}
	drv, err := Open(d, dsn)
	if err != nil {
		return nil, fmt.Errorf("dialect/sql: connect: %w", err)
	}
	db := drv.DB()
	size := cfg.PoolSize
	if size <= 0 {
		size = defaultPoolSize
	}
	db.SetMaxOpenConns(size)
	db.SetMaxIdleConns(defaultMaxIdle)
	db.SetConnMaxLifetime(defaultMaxLifetime)
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("dialect/sql: connect: %w", err)
	}
	return NewAdapter(drv)
}

// conn is the execution half shared by all adapters.
type conn struct {
	drv dialect.Driver
}

// Dialect returns the dialect of the underlying driver.
func (c conn) Dialect() string { return c.drv.Dialect() }

// Close closes the underlying driver.
func (c conn) Close() error { return c.drv.Close() }

// query runs a statement through the driver layer and scans every row
// into a normalized Result.
func (c conn) query(ctx context.Context, query string, args []any) (*Result, error) {
	var rows Rows
	if err := c.drv.Query(ctx, query, args, &rows); err != nil {
		return nil, err
	}
	defer rows.Close()
	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("dialect/sql: columns: %w", err)
	}
	res := &Result{Columns: columns}
	for rows.Next() {
		values := make([]any, len(columns))
		ptrs := make([]any, len(columns))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("dialect/sql: scan: %w", err)
		}
		res.Rows = append(res.Rows, normalizeRow(values))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("dialect/sql: rows: %w", err)
	}
	return res, nil
}

// selectQuery runs a prepared row-returning statement: denormalize,
// expand, execute, scan.
func (c conn) selectQuery(ctx context.Context, query string, args []any) (*Result, error) {
	query, flat, err := Expand(query, denormalize(args))
	if err != nil {
		return nil, err
	}
	if c.drv.Dialect() == dialect.Postgres {
		query = rebind(query)
	}
	return c.query(ctx, query, flat)
}

// exec runs a prepared mutating statement: denormalize, expand, execute.
func (c conn) exec(ctx context.Context, query string, args []any) (*Result, SQLResult, error) {
	query, flat, err := Expand(query, denormalize(args))
	if err != nil {
		return nil, nil, err
	}
	if c.drv.Dialect() == dialect.Postgres {
		query = rebind(query)
	}
	var raw SQLResult
	if err := c.drv.Exec(ctx, query, flat, &raw); err != nil {
		return nil, nil, err
	}
	res := &Result{}
	if n, err := raw.RowsAffected(); err == nil {
		res.Affected = NullInt64{Int64: n, Valid: true}
	}
	return res, raw, nil
}

// quoteIdent wraps name in the dialect quote character, escaping any
// embedded quote by doubling. Identifiers come from static model
// metadata, so clean names pass through with a plain wrap.
func quoteIdent(name, q string) string {
	if isValidIdentifier(name) {
		return q + name + q
	}
	return q + strings.ReplaceAll(name, q, q+q) + q
}
