package commands

import (
	"errors"
	"fmt"
	"io"

	"github.com/dannyboland/loql/internal/catalog"
	"github.com/dannyboland/loql/internal/export"
	"github.com/dannyboland/loql/internal/query"
	json "github.com/goccy/go-json"
	"github.com/jedib0t/go-pretty/v6/table"
)

// Output formats accepted by --format.
const (
	FormatTable    = "table"
	FormatCSV      = "csv"
	FormatJSON     = "json"
	FormatMarkdown = "md"
)

// Formats lists the values accepted by --format, for completion.
var Formats = []string{FormatTable, FormatCSV, FormatJSON, FormatMarkdown}

// OutcomeError is returned when rendering an error outcome so headless
// callers exit non-zero with the engine's message.
type OutcomeError struct {
	Outcome query.Outcome
}

func (e *OutcomeError) Error() string {
	return e.Outcome.Message
}

// RenderOutcome writes out in the requested format. Error outcomes are
// returned as *OutcomeError.
func RenderOutcome(w io.Writer, out query.Outcome, format string) error {
	switch out.Kind {
	case query.KindError:
		return &OutcomeError{Outcome: out}
	case query.KindEmpty:
		if format == FormatJSON {
			return nil
		}
		_, _ = fmt.Fprintln(w, "OK")
		return nil
	case query.KindExported:
		_, _ = fmt.Fprintf(w, "Wrote %d rows to %s\n", out.RowCount, out.Path)
		return nil
	case query.KindRows:
		return renderRows(w, out, format)
	default:
		return fmt.Errorf("unknown outcome %q", out.Kind)
	}
}

func renderRows(w io.Writer, out query.Outcome, format string) error {
	switch format {
	case FormatJSON:
		return renderJSON(w, out.Columns, out.Rows)
	case FormatCSV:
		return export.Write(w, out.Columns, out.Rows)
	}

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)

	header := make(table.Row, len(out.Columns))
	for i, col := range out.Columns {
		header[i] = col
	}
	t.AppendHeader(header)

	for _, r := range out.Rows {
		row := make(table.Row, len(r))
		for i, v := range r {
			row[i] = query.FormatCell(v)
		}
		t.AppendRow(row)
	}

	switch format {
	case FormatMarkdown, "markdown":
		t.RenderMarkdown()
		return nil
	default:
		if len(out.Rows) == 0 {
			_, _ = fmt.Fprintln(w, "(0 rows)")
			return nil
		}
		t.Render()
	}

	suffix := ""
	if out.Truncated {
		suffix = ", truncated"
	}
	_, _ = fmt.Fprintf(w, "(%d rows%s)\n", len(out.Rows), suffix)
	return nil
}

func renderJSON(w io.Writer, cols []string, rows [][]any) error {
	results := make([]map[string]any, 0, len(rows))
	for _, r := range rows {
		row := make(map[string]any, len(cols))
		for i, col := range cols {
			row[col] = r[i]
		}
		results = append(results, row)
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(results)
}

// renderCatalog lists views and tables.
func renderCatalog(w io.Writer, snap catalog.Snapshot) {
	if len(snap) == 0 {
		_, _ = fmt.Fprintln(w, "(no views)")
		return
	}
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Name", "Kind"})
	for _, v := range snap {
		t.AppendRow(table.Row{v.Name, string(v.Kind)})
	}
	t.Render()
}

// renderColumns shows the schema of one view.
func renderColumns(w io.Writer, view string, cols []catalog.Column) {
	_, _ = fmt.Fprintf(w, "View: %s\n", view)
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Column", "Type"})
	for _, c := range cols {
		t.AppendRow(table.Row{c.Name, c.Type})
	}
	t.Render()
}

// isOutcomeError reports whether err came from an error outcome.
func isOutcomeError(err error) bool {
	var oe *OutcomeError
	return errors.As(err, &oe)
}
