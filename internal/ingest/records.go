package ingest

import (
	"strconv"
	"strings"
	"time"
)

// timestampLayouts are tried in order when inferring timestamp columns.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
	time.DateOnly,
}

// FromRecords builds a frame from string cells, inferring a type per column.
// Empty cells are NULL. A column keeps its original text whenever any cell
// fails to parse as the inferred type, so "007" next to "abc" stays "007".
func FromRecords(header []string, records [][]string) *Frame {
	width := len(header)
	for _, rec := range records {
		if len(rec) > width {
			width = len(rec)
		}
	}
	names := make([]string, width)
	copy(names, header)
	names = uniqueNames(names)

	types := make([]ColumnType, width)
	for c := range types {
		types[c] = inferColumn(records, c)
	}

	rows := make([][]any, len(records))
	for r, rec := range records {
		row := make([]any, width)
		for c := 0; c < width && c < len(rec); c++ {
			row[c] = parseCell(rec[c], types[c])
		}
		rows[r] = row
	}
	return &Frame{Columns: names, Types: types, Rows: rows}
}

func inferColumn(records [][]string, col int) ColumnType {
	candidates := []ColumnType{TypeInteger, TypeReal, TypeBoolean, TypeTimestamp}
	nonEmpty := 0
	for _, rec := range records {
		if col >= len(rec) {
			continue
		}
		cell := strings.TrimSpace(rec[col])
		if cell == "" {
			continue
		}
		nonEmpty++
		kept := candidates[:0]
		for _, t := range candidates {
			if parseCell(cell, t) != nil {
				kept = append(kept, t)
			}
		}
		candidates = kept
		if len(candidates) == 0 {
			return TypeText
		}
	}
	if nonEmpty == 0 {
		return TypeText
	}
	return candidates[0]
}

// parseCell converts a cell to the Go value for t, or nil when it does not parse.
func parseCell(cell string, t ColumnType) any {
	if t == TypeText {
		if cell == "" {
			return nil
		}
		return cell
	}
	s := strings.TrimSpace(cell)
	if s == "" {
		return nil
	}
	switch t {
	case TypeInteger:
		if n, err := strconv.ParseInt(s, 10, 64); err == nil {
			return n
		}
	case TypeReal:
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return f
		}
	case TypeBoolean:
		switch strings.ToLower(s) {
		case "true":
			return true
		case "false":
			return false
		}
	case TypeTimestamp:
		for _, layout := range timestampLayouts {
			if ts, err := time.Parse(layout, s); err == nil {
				return ts
			}
		}
	}
	return nil
}

func isBlank(row []string) bool {
	for _, cell := range row {
		if cell != "" {
			return false
		}
	}
	return true
}
