// Package catalog answers which views and tables currently exist in a session.
//
// The catalog holds no state of its own: every call reads the engine's
// metadata through a helper view. Callers that need to know what changed
// compare two snapshots with Diff.
package catalog

import (
	"context"
	"fmt"
	"strings"

	"github.com/dannyboland/loql/internal/adapter"
)

// HelperView is the name of the view used to enumerate the catalog.
// It never appears in List results.
const HelperView = "loql_catalog"

// IngestSchema holds tables materialized by generic ingestion. Views in the
// main schema expose them, so the schema itself is hidden from the catalog.
const IngestSchema = "loql_ingest"

// Kind distinguishes views from tables.
type Kind string

const (
	// KindView is a named query over a file or another relation.
	KindView Kind = "view"
	// KindTable is a relation with materialized storage.
	KindTable Kind = "table"
)

// View is a named, queryable object registered in the session.
type View struct {
	Name string `json:"name"`
	Kind Kind   `json:"kind"`
}

func (v View) String() string {
	return fmt.Sprintf("%s (%s)", v.Name, v.Kind)
}

// Column describes one column of a view's schema.
type Column struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// Snapshot is the catalog as of one completed operation.
type Snapshot []View

// Names returns the view names in snapshot order.
func (s Snapshot) Names() []string {
	names := make([]string, len(s))
	for i, v := range s {
		names[i] = v.Name
	}
	return names
}

// Contains reports whether a view with the given name exists.
func (s Snapshot) Contains(name string) bool {
	for _, v := range s {
		if v.Name == name {
			return true
		}
	}
	return false
}

// Setup creates the helper view. It is safe to call more than once.
func Setup(ctx context.Context, q adapter.Querier) error {
	ddl := fmt.Sprintf(`
		CREATE OR REPLACE VIEW %[1]s AS
		SELECT view_name AS name, 'view' AS kind
		FROM duckdb_views()
		WHERE NOT internal AND schema_name <> '%[2]s'
		UNION ALL
		SELECT table_name AS name, 'table' AS kind
		FROM duckdb_tables()
		WHERE schema_name <> '%[2]s'
	`, HelperView, IngestSchema)

	if _, err := q.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("failed to create catalog view: %w", err)
	}
	if _, err := q.ExecContext(ctx, "CREATE SCHEMA IF NOT EXISTS "+IngestSchema); err != nil {
		return fmt.Errorf("failed to create ingest schema: %w", err)
	}
	return nil
}

// List returns the current views and tables, excluding the helper view.
// Ordering is by name then kind so repeated calls are stable.
func List(ctx context.Context, q adapter.Querier) (Snapshot, error) {
	query := fmt.Sprintf(
		"SELECT name, kind FROM %s WHERE name <> '%s' ORDER BY name, kind",
		HelperView, HelperView,
	)

	rows, err := q.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list views: %w", err)
	}
	defer func() { _ = rows.Close() }()

	snap := Snapshot{}
	for rows.Next() {
		var v View
		var kind string
		if err := rows.Scan(&v.Name, &kind); err != nil {
			return nil, fmt.Errorf("failed to scan view: %w", err)
		}
		v.Kind = Kind(kind)
		snap = append(snap, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating views: %w", err)
	}
	return snap, nil
}

// Columns returns the schema of a view or table in ordinal order.
// Types are lower-cased for display.
func Columns(ctx context.Context, q adapter.Querier, view string) ([]Column, error) {
	query := `
		SELECT column_name, data_type
		FROM information_schema.columns
		WHERE table_name = ? AND table_schema <> ?
		ORDER BY ordinal_position
	`

	rows, err := q.QueryContext(ctx, query, view, IngestSchema)
	if err != nil {
		return nil, fmt.Errorf("failed to query column metadata: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var columns []Column
	for rows.Next() {
		var col Column
		if err := rows.Scan(&col.Name, &col.Type); err != nil {
			return nil, fmt.Errorf("failed to scan column metadata: %w", err)
		}
		col.Type = strings.ToLower(col.Type)
		columns = append(columns, col)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating column metadata: %w", err)
	}

	if len(columns) == 0 {
		return nil, fmt.Errorf("view %s not found", view)
	}
	return columns, nil
}
