// Package export writes query results to disk.
package export

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"os"

	"github.com/dannyboland/loql/internal/query"
)

// DefaultPath is where results are written when no path is configured.
const DefaultPath = "results.csv"

// Error is returned when the results file cannot be written.
type Error struct {
	Path string
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("failed to write %s: %v", e.Path, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Failure classifies export errors for the outcome taxonomy.
func (e *Error) Failure() query.Failure { return query.ExportFailure }

// WriteCSV writes a header row followed by one line per row, terminated
// with "\n". NULL values are written as empty fields. Cells are not truncated.
func WriteCSV(path string, columns []string, rows [][]any) (err error) {
	if path == "" {
		path = DefaultPath
	}

	f, err := os.Create(path) //nolint:gosec // path is chosen by the user
	if err != nil {
		return &Error{Path: path, Err: err}
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = &Error{Path: path, Err: cerr}
		}
	}()

	buf := bufio.NewWriter(f)
	if err := Write(buf, columns, rows); err != nil {
		return &Error{Path: path, Err: err}
	}
	if err := buf.Flush(); err != nil {
		return &Error{Path: path, Err: err}
	}
	return nil
}

// Write encodes columns and rows as CSV to w.
func Write(w io.Writer, columns []string, rows [][]any) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(columns); err != nil {
		return err
	}

	record := make([]string, len(columns))
	for _, row := range rows {
		for i := range record {
			record[i] = ""
			if i < len(row) {
				record[i] = query.FormatValue(row[i])
			}
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}
