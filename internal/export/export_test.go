package export

import (
	"context"
	"errors"
	"math/big"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/dannyboland/loql/internal/adapter"
	"github.com/dannyboland/loql/internal/query"
	"github.com/marcboeker/go-duckdb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteCSV(t *testing.T) {
	tests := []struct {
		name    string
		columns []string
		rows    [][]any
		want    string
	}{
		{
			name:    "integers",
			columns: []string{"a", "b", "c"},
			rows:    [][]any{{int64(1), int64(2), int64(3)}, {int64(4), int64(5), int64(6)}},
			want:    "a,b,c\n1,2,3\n4,5,6\n",
		},
		{
			name:    "header only",
			columns: []string{"id"},
			rows:    nil,
			want:    "id\n",
		},
		{
			name:    "null and quoting",
			columns: []string{"name", "note"},
			rows:    [][]any{{"ada", nil}, {"b,c", `say "hi"`}},
			want:    "name,note\nada,\n\"b,c\",\"say \"\"hi\"\"\"\n",
		},
		{
			name:    "decimal",
			columns: []string{"price"},
			rows:    [][]any{{duckdb.Decimal{Width: 4, Scale: 2, Value: big.NewInt(1234)}}},
			want:    "price\n12.34\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "out.csv")
			require.NoError(t, WriteCSV(path, tt.columns, tt.rows))

			got, err := os.ReadFile(path)
			require.NoError(t, err)
			assert.Equal(t, tt.want, string(got))
		})
	}
}

func TestWriteCSV_LongCellsNotTruncated(t *testing.T) {
	long := make([]byte, query.MaxCellLength*3)
	for i := range long {
		long[i] = 'x'
	}
	path := filepath.Join(t.TempDir(), "long.csv")
	require.NoError(t, WriteCSV(path, []string{"v"}, [][]any{{string(long)}}))

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "v\n"+string(long)+"\n", string(got))
}

func TestWriteCSV_Failure(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing", "out.csv")
	err := WriteCSV(path, []string{"a"}, nil)
	require.Error(t, err)

	var exportErr *Error
	require.True(t, errors.As(err, &exportErr))
	assert.Equal(t, path, exportErr.Path)
	assert.Equal(t, query.ExportFailure, query.FromError(err).Failure)
}

func TestWrite(t *testing.T) {
	var buf strings.Builder
	require.NoError(t, Write(&buf, []string{"a", "b"}, [][]any{{int64(1), nil}, {"x,y", true}}))
	assert.Equal(t, "a,b\n1,\n\"x,y\",true\n", buf.String())
}

func TestWrite_DuckDBValues(t *testing.T) {
	ctx := context.Background()
	db := adapter.NewDuckDB(nil)
	require.NoError(t, db.Connect(ctx, adapter.Config{}))
	defer func() { _ = db.Close() }()

	out := query.NewExecutor(db, 0, nil).Execute(ctx,
		"SELECT 12.34 AS price, CAST(0.5 AS DECIMAL(5,3)) AS rate, [1, 2] AS tags", true)
	require.Equal(t, query.KindRows, out.Kind, out.Message)

	var b strings.Builder
	require.NoError(t, Write(&b, out.Columns, out.Rows))
	assert.Equal(t, "price,rate,tags\n12.34,0.500,\"[1, 2]\"\n", b.String())
}
