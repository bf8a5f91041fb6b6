//go:build !loql_minimal

package ingest

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/apache/arrow-go/v18/parquet"
	"github.com/apache/arrow-go/v18/parquet/pqarrow"
)

func init() {
	RegisterReader(CodecParquet, readParquet)
}

// readParquet decodes a parquet stream. Parquet needs random access, so
// non-seekable input (gzip, object storage) is buffered in memory first.
func readParquet(ctx context.Context, r io.Reader) (*Frame, error) {
	src, ok := r.(parquet.ReaderAtSeeker)
	if !ok {
		data, err := io.ReadAll(r)
		if err != nil {
			return nil, fmt.Errorf("failed to read parquet data: %w", err)
		}
		src = bytes.NewReader(data)
	}

	mem := memory.NewGoAllocator()
	table, err := pqarrow.ReadTable(ctx, src, parquet.NewReaderProperties(mem), pqarrow.ArrowReadProperties{}, mem)
	if err != nil {
		return nil, fmt.Errorf("failed to read parquet data: %w", err)
	}
	defer table.Release()

	numCols := int(table.NumCols())
	columns := make([]string, numCols)
	rows := make([][]any, table.NumRows())
	for i := range rows {
		rows[i] = make([]any, numCols)
	}

	for c := 0; c < numCols; c++ {
		col := table.Column(c)
		columns[c] = col.Name()
		offset := 0
		for _, chunk := range col.Data().Chunks() {
			for j := 0; j < chunk.Len(); j++ {
				rows[offset+j][c] = arrowValue(chunk, j)
			}
			offset += chunk.Len()
		}
	}

	return FromValues(columns, rows), nil
}

// arrowValue extracts element i as a Go value; unhandled types fall back to ValueStr.
func arrowValue(arr arrow.Array, i int) any {
	if arr.IsNull(i) {
		return nil
	}
	switch a := arr.(type) {
	case *array.Boolean:
		return a.Value(i)
	case *array.Int8:
		return int64(a.Value(i))
	case *array.Int16:
		return int64(a.Value(i))
	case *array.Int32:
		return int64(a.Value(i))
	case *array.Int64:
		return a.Value(i)
	case *array.Uint8:
		return int64(a.Value(i))
	case *array.Uint16:
		return int64(a.Value(i))
	case *array.Uint32:
		return int64(a.Value(i))
	case *array.Float32:
		return float64(a.Value(i))
	case *array.Float64:
		return a.Value(i)
	case *array.String:
		return a.Value(i)
	case *array.LargeString:
		return a.Value(i)
	case *array.Timestamp:
		unit := a.DataType().(*arrow.TimestampType).Unit
		return a.Value(i).ToTime(unit)
	case *array.Date32:
		return a.Value(i).ToTime()
	case *array.Date64:
		return a.Value(i).ToTime()
	default:
		return arr.ValueStr(i)
	}
}
