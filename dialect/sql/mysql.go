package sql

import (
	"context"
	"errors"
	"strings"

	"github.com/go-sql-driver/mysql"

	"github.com/stratadb/strata/dialect"
)

// MySQL is the Adapter implementation for the mysql dialect.
type MySQL struct {
	conn
}

// OpenMySQL connects to a MySQL database described by cfg.
func OpenMySQL(ctx context.Context, cfg Config) (*MySQL, error) {
	a, err := Connect(ctx, dialect.MySQL, cfg)
	if err != nil {
		return nil, err
	}
	return a.(*MySQL), nil
}

// QuoteColumn quotes a column identifier with backticks.
func (*MySQL) QuoteColumn(name string) string {
	return quoteIdent(name, "`")
}

// QuoteTable quotes a table identifier with backticks.
func (*MySQL) QuoteTable(name string) string {
	return quoteIdent(name, "`")
}

// QuoteNamespacedColumn quotes a table-qualified column.
func (a *MySQL) QuoteNamespacedColumn(table, column string) string {
	return a.QuoteTable(table) + "." + a.QuoteColumn(column)
}

// InsertSQL returns the single-row INSERT skeleton. The generated key is
// read from the driver after execution, so no returning clause is added.
func (a *MySQL) InsertSQL(table string, columns []string, _ string) string {
	return insertSkeleton(a, table, columns)
}

// Query runs a non-parameterized statement.
func (a *MySQL) Query(ctx context.Context, query string) (*Result, error) {
	res, err := a.conn.query(ctx, query, nil)
	return res, a.classify(err)
}

// Select runs a prepared row-returning statement.
func (a *MySQL) Select(ctx context.Context, query string, args []any) (*Result, error) {
	res, err := a.conn.selectQuery(ctx, query, args)
	return res, a.classify(err)
}

// Exec runs a prepared mutating statement.
func (a *MySQL) Exec(ctx context.Context, query string, args []any) (*Result, error) {
	res, _, err := a.conn.exec(ctx, query, args)
	return res, a.classify(err)
}

// Insert runs an INSERT and surfaces LAST_INSERT_ID as a synthetic
// pk-named column. A zero id means the table generated no key (explicit
// primary key inserts).
func (a *MySQL) Insert(ctx context.Context, query string, args []any, pk string) (*Result, error) {
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

// classify maps driver errors onto the adapter taxonomy.
func (*MySQL) classify(err error) error {
	if err == nil {
		return nil
	}
	var me *mysql.MySQLError
	if errors.As(err, &me) {
		switch me.Number {
		// 1062: duplicate entry, 1048: column cannot be null,
		// 1451/1452: foreign key constraint fails.
		case 1062, 1048, 1451, 1452:
			return &ConstraintError{msg: me.Message, wrap: err}
		}
	}
	return err
}

// insertSkeleton builds "INSERT INTO <t> (<cols>) VALUES (<?s>)" with
// the adapter's quoting.
func insertSkeleton(a Adapter, table string, columns []string) string {
	quoted := make([]string, len(columns))
	for i, c := range columns {
		quoted[i] = a.QuoteColumn(c)
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(columns)), ", ")
	return "INSERT INTO " + a.QuoteTable(table) +
		" (" + strings.Join(quoted, ", ") + ") VALUES (" + placeholders + ")"
}

var _ Adapter = (*MySQL)(nil)
