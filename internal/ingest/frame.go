// Package ingest turns formats DuckDB cannot read natively into views.
//
// A reader decodes its input into a Frame. Register creates a table for the
// frame in the hidden ingest schema, bulk-loads it through the DuckDB
// appender, and exposes it under the requested name as a view.
package ingest

import (
	"fmt"
	"strings"
	"time"

	json "github.com/goccy/go-json"
)

// ColumnType is the storage type chosen for a frame column.
type ColumnType int

const (
	// TypeText stores values as VARCHAR.
	TypeText ColumnType = iota
	// TypeInteger stores values as BIGINT.
	TypeInteger
	// TypeReal stores values as DOUBLE.
	TypeReal
	// TypeBoolean stores values as BOOLEAN.
	TypeBoolean
	// TypeTimestamp stores values as TIMESTAMP.
	TypeTimestamp
)

// SQL returns the DuckDB type name.
func (t ColumnType) SQL() string {
	switch t {
	case TypeInteger:
		return "BIGINT"
	case TypeReal:
		return "DOUBLE"
	case TypeBoolean:
		return "BOOLEAN"
	case TypeTimestamp:
		return "TIMESTAMP"
	default:
		return "VARCHAR"
	}
}

func (t ColumnType) String() string {
	return strings.ToLower(t.SQL())
}

// Frame is a decoded table. Every value in a column has the Go type that
// matches the column's ColumnType (int64, float64, bool, time.Time or
// string) or is nil.
type Frame struct {
	Columns []string
	Types   []ColumnType
	Rows    [][]any
}

// Validate checks that the frame has columns and that rows match them.
func (f *Frame) Validate() error {
	if len(f.Columns) == 0 {
		return fmt.Errorf("no columns found")
	}
	if len(f.Types) != len(f.Columns) {
		return fmt.Errorf("have %d column types for %d columns", len(f.Types), len(f.Columns))
	}
	for i, row := range f.Rows {
		if len(row) != len(f.Columns) {
			return fmt.Errorf("row %d has %d values, expected %d", i+1, len(row), len(f.Columns))
		}
	}
	return nil
}

// FromValues builds a frame from typed values, choosing the narrowest type
// that holds every non-nil value in a column. Columns with mixed or nested
// values become text. Short rows are padded with nil.
func FromValues(columns []string, rows [][]any) *Frame {
	columns = uniqueNames(columns)
	types := make([]ColumnType, len(columns))
	for c := range columns {
		types[c] = resolveType(rows, c)
	}

	out := make([][]any, len(rows))
	for r, row := range rows {
		converted := make([]any, len(columns))
		for c := range columns {
			if c < len(row) {
				converted[c] = coerce(row[c], types[c])
			}
		}
		out[r] = converted
	}
	return &Frame{Columns: columns, Types: types, Rows: out}
}

type valueKind int

const (
	kindInt valueKind = 1 << iota
	kindFloat
	kindBool
	kindTime
	kindOther
)

func kindOfValue(v any) valueKind {
	switch x := v.(type) {
	case int64, int, int32:
		return kindInt
	case float64, float32:
		return kindFloat
	case json.Number:
		if _, err := x.Int64(); err == nil {
			return kindInt
		}
		return kindFloat
	case bool:
		return kindBool
	case time.Time:
		return kindTime
	default:
		return kindOther
	}
}

func resolveType(rows [][]any, col int) ColumnType {
	var seen valueKind
	for _, row := range rows {
		if col >= len(row) || row[col] == nil {
			continue
		}
		seen |= kindOfValue(row[col])
	}
	switch seen {
	case kindInt:
		return TypeInteger
	case kindFloat, kindInt | kindFloat:
		return TypeReal
	case kindBool:
		return TypeBoolean
	case kindTime:
		return TypeTimestamp
	default:
		return TypeText
	}
}

func coerce(v any, t ColumnType) any {
	if v == nil {
		return nil
	}
	switch t {
	case TypeInteger:
		switch x := v.(type) {
		case int64:
			return x
		case int:
			return int64(x)
		case int32:
			return int64(x)
		case json.Number:
			n, _ := x.Int64()
			return n
		}
	case TypeReal:
		switch x := v.(type) {
		case float64:
			return x
		case float32:
			return float64(x)
		case int64:
			return float64(x)
		case int:
			return float64(x)
		case int32:
			return float64(x)
		case json.Number:
			f, _ := x.Float64()
			return f
		}
	case TypeBoolean, TypeTimestamp:
		return v
	}
	return textOf(v)
}

func textOf(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case json.Number:
		return x.String()
	case time.Time:
		return x.Format(time.RFC3339Nano)
	case map[string]any, []any:
		b, err := json.Marshal(x)
		if err != nil {
			return fmt.Sprint(x)
		}
		return string(b)
	default:
		return fmt.Sprint(x)
	}
}

// uniqueNames fills blank names and suffixes duplicates so every column
// can be created. DuckDB identifiers are case-insensitive.
func uniqueNames(names []string) []string {
	out := make([]string, len(names))
	seen := make(map[string]struct{}, len(names))
	for i, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			name = fmt.Sprintf("column%d", i)
		}
		if _, dup := seen[strings.ToLower(name)]; dup {
			for n := 2; ; n++ {
				candidate := fmt.Sprintf("%s_%d", name, n)
				if _, taken := seen[strings.ToLower(candidate)]; !taken {
					name = candidate
					break
				}
			}
		}
		seen[strings.ToLower(name)] = struct{}{}
		out[i] = name
	}
	return out
}
