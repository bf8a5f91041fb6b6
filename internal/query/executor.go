package query

import (
	"context"
	"errors"
	"io"
	"log/slog"

	"github.com/dannyboland/loql/internal/adapter"
	"github.com/dannyboland/loql/internal/sqltext"
)

// DefaultRowLimit caps the rows returned for display.
const DefaultRowLimit = 1000

// Executor runs statements on the session connection.
type Executor struct {
	db       adapter.Runner
	rowLimit int
	logger   *slog.Logger
}

// NewExecutor creates an executor. A non-positive rowLimit uses DefaultRowLimit.
func NewExecutor(db adapter.Runner, rowLimit int, logger *slog.Logger) *Executor {
	if rowLimit <= 0 {
		rowLimit = DefaultRowLimit
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Executor{db: db, rowLimit: rowLimit, logger: logger}
}

// RowLimit returns the display limit in effect.
func (e *Executor) RowLimit() int {
	return e.rowLimit
}

// Execute runs text verbatim, exactly once. Only the last statement's result
// is kept. When save is set every row is read so the caller can export the
// full result; otherwise at most RowLimit rows are read.
func (e *Executor) Execute(ctx context.Context, text string, save bool) Outcome {
	if len(sqltext.Split(text)) == 0 {
		return Empty()
	}

	limit := e.rowLimit
	if save {
		limit = 0
	}

	var out Outcome
	err := e.db.Run(ctx, text, func(res adapter.Result) error {
		e.logger.Debug("executing statement", "kind", res.Kind().String(), "save", save)
		if res.Kind() == adapter.StatementCommand {
			out = Empty()
			return nil
		}
		rows, err := fetch(res, limit)
		if err != nil {
			return err
		}
		out = Rows(res.Columns(), rows, limit > 0 && len(rows) == limit)
		return nil
	})
	if err != nil {
		if isEmptyQuery(err) {
			return Empty()
		}
		return FromError(err)
	}
	return out
}

// fetch reads up to limit rows. A zero limit reads everything.
func fetch(res adapter.Result, limit int) ([][]any, error) {
	types := res.ColumnTypes()
	rows := [][]any{}
	for limit == 0 || len(rows) < limit {
		row := make([]any, len(res.Columns()))
		if err := res.Next(row); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, err
		}
		for i, v := range row {
			row[i] = NormalizeColumn(v, types[i])
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// isEmptyQuery matches the driver's error for text without any statement.
func isEmptyQuery(err error) bool {
	return err.Error() == "empty query"
}
