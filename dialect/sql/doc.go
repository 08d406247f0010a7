// Package sql provides the database/sql implementation of the strata
// dialect layer: the driver, per-dialect adapters, the statement
// builder, and placeholder expansion.
//
// # Adapters
//
// An Adapter bundles a dialect's identifier quoting, INSERT skeleton,
// generated-key retrieval, and constraint-error classification on top of
// a shared execution path. Adapters normalize every driver response into
// the single Result shape:
//
//	adapter, err := sql.Connect(ctx, dialect.Postgres, sql.Config{
//	    Host:     "localhost",
//	    Database: "app",
//	    Username: "app",
//	})
//	res, err := adapter.Exec(ctx, "DELETE FROM t WHERE id IN (?)", []any{[]any{1, 2}})
//
// # Statement building
//
// The Builder turns a record plus its model metadata into a Statement,
// using the adapter's quoting rules:
//
//	b := sql.NewBuilder(adapter)
//	st := b.Insert(rec, model)
//	res, err := adapter.Insert(ctx, st.SQL, st.Args, model.PrimaryKey)
//
// # Placeholder expansion
//
// A bound argument that is itself a collection expands its single
// placeholder into a run matching the collection length at execute time;
// see Expand. On PostgreSQL, placeholders are rebound to the $n form
// after expansion.
//
// # Instrumentation
//
// StatsDriver and DebugDriver wrap a Driver with counters and slog-based
// statement logging; adapters accept wrapped drivers through NewAdapter.
package sql
