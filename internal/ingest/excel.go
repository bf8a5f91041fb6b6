//go:build !loql_minimal

package ingest

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/extrame/xls"
	"github.com/xuri/excelize/v2"
)

func init() {
	RegisterReader(CodecXLSX, readXLSX)
	RegisterReader(CodecXLS, readXLS)
}

// readXLSX reads the first sheet of a workbook. The first row is the header.
func readXLSX(_ context.Context, r io.Reader) (*Frame, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer func() { _ = f.Close() }()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("workbook has no sheets")
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %s: %w", sheets[0], err)
	}
	return recordsFrame(rows)
}

// readXLS reads the first sheet of a legacy BIFF workbook.
func readXLS(_ context.Context, r io.Reader) (frame *Frame, err error) {
	rs, ok := r.(io.ReadSeeker)
	if !ok {
		data, err := io.ReadAll(r)
		if err != nil {
			return nil, fmt.Errorf("failed to read workbook: %w", err)
		}
		rs = bytes.NewReader(data)
	}

	// The BIFF parser panics on some malformed input.
	defer func() {
		if p := recover(); p != nil {
			frame, err = nil, fmt.Errorf("failed to parse workbook: %v", p)
		}
	}()

	wb, err := xls.OpenReader(rs, "utf-8")
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	if wb == nil || wb.NumSheets() == 0 {
		return nil, fmt.Errorf("workbook has no sheets")
	}
	sheet := wb.GetSheet(0)
	if sheet == nil {
		return nil, fmt.Errorf("workbook has no sheets")
	}

	var rows [][]string
	for i := 0; i <= int(sheet.MaxRow); i++ {
		row := sheetRow(sheet, i)
		if row == nil {
			rows = append(rows, nil)
			continue
		}
		cells := make([]string, row.LastCol())
		for j := row.FirstCol(); j < row.LastCol(); j++ {
			cells[j] = row.Col(j)
		}
		rows = append(rows, cells)
	}
	return recordsFrame(rows)
}

// sheetRow returns nil for rows the sheet has no record of.
func sheetRow(sheet *xls.WorkSheet, i int) (row *xls.Row) {
	defer func() {
		if recover() != nil {
			row = nil
		}
	}()
	return sheet.Row(i)
}

// recordsFrame treats the first non-empty row as the header.
func recordsFrame(rows [][]string) (*Frame, error) {
	for len(rows) > 0 && isBlank(rows[0]) {
		rows = rows[1:]
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("sheet is empty")
	}
	return FromRecords(rows[0], rows[1:]), nil
}
