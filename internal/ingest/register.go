package ingest

import (
	"context"
	"database/sql/driver"
	"fmt"
	"strings"

	"github.com/dannyboland/loql/internal/adapter"
	"github.com/dannyboland/loql/internal/catalog"
)

// Engine is what Register needs from the session connection.
type Engine interface {
	Exec(ctx context.Context, sql string) error
	Append(ctx context.Context, schema, table string, rows [][]driver.Value) error
}

// Register materializes frame in the ingest schema and exposes it as view
// name, replacing any previous view of that name.
func Register(ctx context.Context, db Engine, name string, frame *Frame) error {
	if err := frame.Validate(); err != nil {
		return err
	}

	table := catalog.IngestSchema + "." + adapter.QuoteIdent(name)
	defs := make([]string, len(frame.Columns))
	for i, col := range frame.Columns {
		defs[i] = adapter.QuoteIdent(col) + " " + frame.Types[i].SQL()
	}

	ddl := fmt.Sprintf("CREATE OR REPLACE TABLE %s (%s)", table, strings.Join(defs, ", "))
	if err := db.Exec(ctx, ddl); err != nil {
		return err
	}

	rows := make([][]driver.Value, len(frame.Rows))
	for i, row := range frame.Rows {
		values := make([]driver.Value, len(row))
		for j, v := range row {
			values[j] = v
		}
		rows[i] = values
	}
	if err := db.Append(ctx, catalog.IngestSchema, name, rows); err != nil {
		return err
	}

	view := fmt.Sprintf("CREATE OR REPLACE VIEW %s AS SELECT * FROM %s", adapter.QuoteIdent(name), table)
	return db.Exec(ctx, view)
}
