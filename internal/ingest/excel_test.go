//go:build !loql_minimal

package ingest

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestReadXLSX(t *testing.T) {
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	require.NoError(t, f.SetSheetRow(sheet, "A1", &[]any{"id", "city"}))
	require.NoError(t, f.SetSheetRow(sheet, "A2", &[]any{1, "Oslo"}))
	require.NoError(t, f.SetSheetRow(sheet, "A3", &[]any{2, "Lima"}))

	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf))
	require.NoError(t, f.Close())

	frame, err := Read(context.Background(), CodecXLSX, &buf)
	require.NoError(t, err)
	assert.Equal(t, []string{"id", "city"}, frame.Columns)
	assert.Equal(t, []ColumnType{TypeInteger, TypeText}, frame.Types)
	assert.Equal(t, [][]any{{int64(1), "Oslo"}, {int64(2), "Lima"}}, frame.Rows)
}

func TestReadXLSX_NotAWorkbook(t *testing.T) {
	_, err := Read(context.Background(), CodecXLSX, bytes.NewReader([]byte("plain text")))
	assert.Error(t, err)
}

func TestReadXLS_NotAWorkbook(t *testing.T) {
	_, err := Read(context.Background(), CodecXLS, bytes.NewReader([]byte("plain text")))
	assert.Error(t, err)
}

func TestRecordsFrame_SkipsLeadingBlankRows(t *testing.T) {
	frame, err := recordsFrame([][]string{{"", ""}, {"a", "b"}, {"1", "x"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, frame.Columns)

	_, err = recordsFrame([][]string{{""}})
	assert.EqualError(t, err, "sheet is empty")
}
