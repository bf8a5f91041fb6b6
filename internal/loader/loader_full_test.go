//go:build !loql_minimal

package loader

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/dannyboland/loql/internal/objstore"
	"github.com/dannyboland/loql/internal/testutil"
	"github.com/klauspost/compress/gzip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func writeParquet(t *testing.T, name string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	db := openDB(t)
	require.NoError(t, db.Exec(context.Background(),
		"COPY (SELECT range AS id, 'item ' || range AS label FROM range(4)) TO '"+path+"' (FORMAT PARQUET)"))
	return path
}

func gzipFile(t *testing.T, src, name string) string {
	t.Helper()
	raw, err := os.ReadFile(src)
	require.NoError(t, err)
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	_, err = zw.Write(raw)
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	return testutil.WriteFile(t, name, buf.String())
}

func writeXLSX(t *testing.T, name string) string {
	t.Helper()
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	require.NoError(t, f.SetSheetRow(sheet, "A1", &[]any{"id", "label"}))
	require.NoError(t, f.SetSheetRow(sheet, "A2", &[]any{1, "one"}))
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())
	return path
}

func TestLoad_AllLocalFormats(t *testing.T) {
	parquet := writeParquet(t, "Events.parquet")

	tests := []struct {
		name     string
		path     string
		wantView string
	}{
		{name: "csv", path: testutil.WriteFile(t, "Data.csv", "a,b\n1,2\n"), wantView: "data"},
		{name: "parquet", path: parquet, wantView: "events"},
		{name: "parquet.gz", path: gzipFile(t, parquet, "Trips.parquet.gz"), wantView: "trips"},
		{name: "json", path: testutil.WriteFile(t, "People.json", `[{"id": 1, "name": "ada"}]`), wantView: "people"},
		{name: "jsonl", path: testutil.WriteFile(t, "log.jsonl", "{\"level\": \"info\"}\n{\"level\": \"warn\"}\n"), wantView: "log"},
		{name: "xlsx", path: writeXLSX(t, "Sheet.xlsx"), wantView: "sheet"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			db := openDB(t)
			l := New(db, Capabilities{Ingest: true}, nil, testutil.NewTestLogger(t))

			name, err := l.Load(ctx, tt.path)
			require.NoError(t, err)
			assert.Equal(t, tt.wantView, name)
			assert.Equal(t, []string{tt.wantView}, views(t, db))

			again, err := l.Load(ctx, tt.path)
			require.NoError(t, err)
			assert.Equal(t, name, again)
			assert.Equal(t, []string{tt.wantView}, views(t, db))

			rows, err := db.QueryContext(ctx, "SELECT count(*) FROM "+name)
			require.NoError(t, err)
			defer func() { _ = rows.Close() }()
			require.True(t, rows.Next())
			var n int
			require.NoError(t, rows.Scan(&n))
			assert.Positive(t, n)
		})
	}
}

func TestLoad_MalformedJSON(t *testing.T) {
	db := openDB(t)
	l := New(db, Capabilities{Ingest: true}, nil, nil)

	_, err := l.Load(context.Background(), testutil.WriteFile(t, "bad.json", `[{"a": `))
	var loadErr *LoadError
	require.True(t, errors.As(err, &loadErr))
	assert.Empty(t, views(t, db))
}

type memStore map[string][]byte

func (m memStore) Open(_ context.Context, uri string) (io.ReadCloser, error) {
	data, ok := m[uri]
	if !ok {
		return nil, errors.New("NoSuchKey")
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (m memStore) List(context.Context, string) ([]objstore.Entry, error) {
	return nil, nil
}

func TestLoad_Remote(t *testing.T) {
	raw, err := os.ReadFile(writeParquet(t, "x.parquet"))
	require.NoError(t, err)

	db := openDB(t)
	store := memStore{"s3://bucket/data/Trips.parquet": raw}
	l := New(db, Capabilities{Ingest: true, ObjectStore: true}, store, nil)

	name, err := l.Load(context.Background(), "s3://bucket/data/Trips.parquet")
	require.NoError(t, err)
	assert.Equal(t, "trips", name)
	assert.Equal(t, []string{"trips"}, views(t, db))

	_, err = l.Load(context.Background(), "s3://bucket/data/missing.parquet")
	require.Error(t, err)
	assert.True(t, strings.HasPrefix(err.Error(), "failed to load missing.parquet"))
}
