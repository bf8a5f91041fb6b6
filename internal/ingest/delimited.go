package ingest

import (
	"bufio"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
)

func init() {
	RegisterReader(CodecDelimited, readDelimited)
}

// delimiters are the separators SniffDelimiter chooses between.
var delimiters = []rune{',', '\t', ';', '|'}

// SniffDelimiter picks the separator that occurs most often in the first
// line, preferring earlier entries in delimiters on ties. Defaults to comma.
func SniffDelimiter(line string) rune {
	best, bestCount := ',', 0
	for _, d := range delimiters {
		if n := strings.Count(line, string(d)); n > bestCount {
			best, bestCount = d, n
		}
	}
	return best
}

// readDelimited parses delimited text such as spreadsheet cells copied to
// the clipboard. The first line is the header.
func readDelimited(ctx context.Context, r io.Reader) (*Frame, error) {
	br := bufio.NewReader(r)
	first, err := br.Peek(4096)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, bufio.ErrBufferFull) {
		return nil, fmt.Errorf("failed to read delimited text: %w", err)
	}
	line, _, _ := strings.Cut(string(first), "\n")

	cr := csv.NewReader(br)
	cr.Comma = SniffDelimiter(line)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	var records [][]string
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to parse delimited text: %w", err)
		}
		records = append(records, rec)
	}
	if len(records) == 0 || isBlank(records[0]) {
		return nil, fmt.Errorf("no columns found")
	}
	return FromRecords(records[0], records[1:]), nil
}
