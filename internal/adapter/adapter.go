// Package adapter wraps the embedded DuckDB connection that backs a loql session.
//
// The adapter pins a single connection for the lifetime of the process so that
// views, tables and session settings created by one statement are visible to
// every later statement. It is not safe for concurrent use; the session
// controller is its only owner.
package adapter

import (
	"context"
	"database/sql"
)

// Config holds the configuration for opening the embedded database.
type Config struct {
	// Path is the database file. Empty or ":memory:" opens an in-memory database.
	Path string

	// Extensions to install and load after connecting (e.g. "httpfs").
	Extensions []string

	// Settings applied with SET after connecting (e.g. "threads": "4").
	Settings map[string]string
}

// Querier is the subset of *sql.Conn used by the catalog.
// Both *sql.DB and *sql.Conn satisfy it, which lets tests substitute sqlmock.
type Querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// StatementKind tells the executor whether a statement produced a result set.
type StatementKind int

const (
	// StatementTabular statements return rows (SELECT, EXPLAIN, PRAGMA, CALL,
	// and INSERT, UPDATE or DELETE with RETURNING).
	StatementTabular StatementKind = iota
	// StatementCommand statements return no result set (DDL, plain DML, SET, ...).
	StatementCommand
)

func (k StatementKind) String() string {
	switch k {
	case StatementTabular:
		return "tabular"
	case StatementCommand:
		return "command"
	default:
		return "unknown"
	}
}

// Result is the result of the last statement in a Run.
type Result interface {
	Kind() StatementKind
	Columns() []string
	// ColumnTypes returns the engine type name of each column, e.g. "DECIMAL(4,2)".
	ColumnTypes() []string
	// Next fills dest with the next row and returns io.EOF after the last one.
	Next(dest []any) error
}

// Runner executes statement text exactly once. Every statement but the last
// runs during preparation; fn receives the result of the last one and must
// not keep it after returning. Errors are returned exactly as the engine
// produced them.
type Runner interface {
	Run(ctx context.Context, query string, fn func(Result) error) error
}
