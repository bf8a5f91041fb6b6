//go:build !loql_minimal

package ingest

import (
	"context"
	"errors"
	"fmt"
	"io"

	json "github.com/goccy/go-json"
)

func init() {
	RegisterReader(CodecJSON, readJSON)
	RegisterReader(CodecJSONLines, readJSONLines)
}

// record is one JSON object with its keys in document order.
type record struct {
	keys   []string
	values map[string]any
}

// collector accumulates records and remembers the first-seen column order.
type collector struct {
	columns []string
	known   map[string]struct{}
	records []record
}

func newCollector() *collector {
	return &collector{known: make(map[string]struct{})}
}

func (c *collector) add(rec record) {
	for _, k := range rec.keys {
		if _, ok := c.known[k]; !ok {
			c.known[k] = struct{}{}
			c.columns = append(c.columns, k)
		}
	}
	c.records = append(c.records, rec)
}

func (c *collector) frame() *Frame {
	rows := make([][]any, len(c.records))
	for i, rec := range c.records {
		row := make([]any, len(c.columns))
		for j, col := range c.columns {
			row[j] = rec.values[col]
		}
		rows[i] = row
	}
	return FromValues(c.columns, rows)
}

// readJSON accepts an array of records or a single record.
func readJSON(ctx context.Context, r io.Reader) (*Frame, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("failed to parse JSON: %w", err)
	}

	c := newCollector()
	switch tok {
	case json.Delim('['):
		for dec.More() {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			rec, err := decodeRecord(dec, len(c.records)+1)
			if err != nil {
				return nil, err
			}
			c.add(rec)
		}
		if _, err := dec.Token(); err != nil {
			return nil, fmt.Errorf("failed to parse JSON: %w", err)
		}
	case json.Delim('{'):
		rec, err := decodeObject(dec)
		if err != nil {
			return nil, fmt.Errorf("failed to parse JSON: %w", err)
		}
		c.add(rec)
	default:
		return nil, fmt.Errorf("expected an array of records or a single record")
	}

	if len(c.records) == 0 {
		return nil, fmt.Errorf("JSON file is empty or has no records")
	}
	return c.frame(), nil
}

// readJSONLines accepts one record per line.
func readJSONLines(ctx context.Context, r io.Reader) (*Frame, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()

	c := newCollector()
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		rec, err := decodeRecord(dec, len(c.records)+1)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		c.add(rec)
	}

	if len(c.records) == 0 {
		return nil, fmt.Errorf("JSON lines file has no records")
	}
	return c.frame(), nil
}

// decodeRecord reads the next value and requires it to be an object.
func decodeRecord(dec *json.Decoder, n int) (record, error) {
	tok, err := dec.Token()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return record{}, io.EOF
		}
		return record{}, fmt.Errorf("failed to parse record %d: %w", n, err)
	}
	if tok != json.Delim('{') {
		return record{}, fmt.Errorf("record %d is not an object", n)
	}
	rec, err := decodeObject(dec)
	if err != nil {
		return record{}, fmt.Errorf("failed to parse record %d: %w", n, err)
	}
	return rec, nil
}

// decodeObject reads the members of an object whose '{' was already consumed.
// Nested values are decoded whole and later stored as JSON text.
func decodeObject(dec *json.Decoder) (record, error) {
	rec := record{values: make(map[string]any)}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return rec, err
		}
		key, ok := tok.(string)
		if !ok {
			return rec, fmt.Errorf("unexpected object key %v", tok)
		}
		var v any
		if err := dec.Decode(&v); err != nil {
			return rec, err
		}
		if _, dup := rec.values[key]; !dup {
			rec.keys = append(rec.keys, key)
		}
		rec.values[key] = v
	}
	if _, err := dec.Token(); err != nil {
		return rec, err
	}
	return rec, nil
}
