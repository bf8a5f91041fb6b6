package adapter

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/marcboeker/go-duckdb"
)

// DuckDB owns the embedded DuckDB database and its single pinned connection.
type DuckDB struct {
	db     *sql.DB
	conn   *sql.Conn
	cfg    Config
	logger *slog.Logger
}

// NewDuckDB creates a new, unconnected DuckDB adapter.
// A nil logger discards all output.
func NewDuckDB(logger *slog.Logger) *DuckDB {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &DuckDB{logger: logger}
}

// Connect opens the database and pins one connection.
// Use an empty path or ":memory:" for an in-memory database.
func (a *DuckDB) Connect(ctx context.Context, cfg Config) error {
	path := cfg.Path
	if path == ":memory:" {
		path = ""
	}

	db, err := sql.Open("duckdb", path)
	if err != nil {
		return fmt.Errorf("failed to open duckdb connection: %w", err)
	}

	// Views and SET statements live on a connection, so everything must go through one.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to ping duckdb: %w", err)
	}

	conn, err := db.Conn(ctx)
	if err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to acquire duckdb connection: %w", err)
	}

	a.db = db
	a.conn = conn
	a.cfg = cfg

	for _, ext := range cfg.Extensions {
		a.logger.Debug("loading extension", "extension", ext)
		if err := a.Exec(ctx, fmt.Sprintf("INSTALL %s; LOAD %s;", ext, ext)); err != nil {
			_ = a.Close()
			return fmt.Errorf("failed to load extension %s: %w", ext, err)
		}
	}

	keys := make([]string, 0, len(cfg.Settings))
	for k := range cfg.Settings {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		stmt := fmt.Sprintf("SET %s = '%s'", k, strings.ReplaceAll(cfg.Settings[k], "'", "''"))
		if err := a.Exec(ctx, stmt); err != nil {
			_ = a.Close()
			return fmt.Errorf("failed to apply setting %s: %w", k, err)
		}
	}

	return nil
}

// Close releases the pinned connection and the database.
func (a *DuckDB) Close() error {
	var errs []error
	if a.conn != nil {
		a.logger.Debug("closing duckdb connection")
		errs = append(errs, a.conn.Close())
		a.conn = nil
	}
	if a.db != nil {
		errs = append(errs, a.db.Close())
		a.db = nil
	}
	return errors.Join(errs...)
}

// IsConnected returns true if the connection is established.
func (a *DuckDB) IsConnected() bool {
	return a.conn != nil
}

// Exec executes a statement that doesn't return rows.
func (a *DuckDB) Exec(ctx context.Context, sqlStr string) error {
	if a.conn == nil {
		return fmt.Errorf("database connection not established")
	}
	if _, err := a.conn.ExecContext(ctx, sqlStr); err != nil {
		return fmt.Errorf("failed to execute SQL: %w", err)
	}
	return nil
}

// QueryContext runs a query on the pinned connection.
func (a *DuckDB) QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	if a.conn == nil {
		return nil, fmt.Errorf("database connection not established")
	}
	//nolint:rowserrcheck // rows.Err() must be checked by caller after iteration completes
	return a.conn.QueryContext(ctx, query, args...)
}

// ExecContext runs a statement on the pinned connection.
func (a *DuckDB) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	if a.conn == nil {
		return nil, fmt.Errorf("database connection not established")
	}
	return a.conn.ExecContext(ctx, query, args...)
}

// Run prepares query once and executes its last statement on the pinned
// connection. Parser and binder errors come back unwrapped so callers can
// show them verbatim.
func (a *DuckDB) Run(ctx context.Context, query string, fn func(Result) error) error {
	if a.conn == nil {
		return fmt.Errorf("database connection not established")
	}

	return a.conn.Raw(func(driverConn any) error {
		pc, ok := driverConn.(driver.ConnPrepareContext)
		if !ok {
			return fmt.Errorf("unexpected driver connection %T", driverConn)
		}
		// go-duckdb executes all but the final statement while preparing.
		stmt, err := pc.PrepareContext(ctx, query)
		if err != nil {
			return err
		}
		defer func() { _ = stmt.Close() }()

		ds, ok := stmt.(*duckdb.Stmt)
		if !ok {
			return fmt.Errorf("unexpected driver statement %T", stmt)
		}
		st, err := ds.StatementType()
		if err != nil {
			return err
		}

		rows, err := ds.QueryContext(ctx, nil)
		if err != nil {
			return err
		}
		defer func() { _ = rows.Close() }()

		return fn(newResult(st, rows))
	})
}

type result struct {
	kind    StatementKind
	rows    driver.Rows
	columns []string
	types   []string
	buf     []driver.Value
}

func newResult(st duckdb.StmtType, rows driver.Rows) *result {
	columns := rows.Columns()
	types := make([]string, len(columns))
	if tn, ok := rows.(driver.RowsColumnTypeDatabaseTypeName); ok {
		for i := range columns {
			types[i] = tn.ColumnTypeDatabaseTypeName(i)
		}
	}
	return &result{
		kind:    kindOf(st, columns),
		rows:    rows,
		columns: columns,
		types:   types,
		buf:     make([]driver.Value, len(columns)),
	}
}

func (r *result) Kind() StatementKind   { return r.kind }
func (r *result) Columns() []string     { return r.columns }
func (r *result) ColumnTypes() []string { return r.types }

func (r *result) Next(dest []any) error {
	if err := r.rows.Next(r.buf); err != nil {
		return err
	}
	for i, v := range r.buf {
		dest[i] = v
	}
	return nil
}

// kindOf decides from the statement type and the columns it produced.
// Plain INSERT, UPDATE and DELETE report the affected row count in a single
// "Count" column; with RETURNING they produce the returned rows instead.
func kindOf(st duckdb.StmtType, columns []string) StatementKind {
	if len(columns) == 0 {
		return StatementCommand
	}
	switch st {
	case duckdb.STATEMENT_TYPE_SELECT,
		duckdb.STATEMENT_TYPE_EXPLAIN,
		duckdb.STATEMENT_TYPE_PRAGMA,
		duckdb.STATEMENT_TYPE_CALL,
		duckdb.STATEMENT_TYPE_RELATION:
		return StatementTabular
	case duckdb.STATEMENT_TYPE_INSERT,
		duckdb.STATEMENT_TYPE_UPDATE,
		duckdb.STATEMENT_TYPE_DELETE:
		if len(columns) == 1 && columns[0] == "Count" {
			return StatementCommand
		}
		return StatementTabular
	default:
		return StatementCommand
	}
}

// Append bulk-loads rows into an existing table through the DuckDB appender.
// Values must be driver-compatible (int64, float64, bool, string, time.Time or nil).
func (a *DuckDB) Append(ctx context.Context, schema, table string, rows [][]driver.Value) error {
	if a.conn == nil {
		return fmt.Errorf("database connection not established")
	}

	return a.conn.Raw(func(driverConn any) error {
		dc, ok := driverConn.(driver.Conn)
		if !ok {
			return fmt.Errorf("unexpected driver connection %T", driverConn)
		}
		app, err := duckdb.NewAppenderFromConn(dc, schema, table)
		if err != nil {
			return fmt.Errorf("failed to create appender for %s.%s: %w", schema, table, err)
		}
		for i, row := range rows {
			if err := ctx.Err(); err != nil {
				_ = app.Close()
				return err
			}
			if err := app.AppendRow(row...); err != nil {
				_ = app.Close()
				return fmt.Errorf("failed to append row %d: %w", i+1, err)
			}
		}
		if err := app.Close(); err != nil {
			return fmt.Errorf("failed to flush appender: %w", err)
		}
		return nil
	})
}

// QuoteIdent quotes an identifier for DuckDB.
func QuoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// QuoteLiteral quotes a string literal for DuckDB.
func QuoteLiteral(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}
