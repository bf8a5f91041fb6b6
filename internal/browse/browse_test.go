package browse

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/dannyboland/loql/internal/objstore"
	"github.com/dannyboland/loql/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func touch(t *testing.T, dir, name string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o600))
}

func names(entries []Entry) []string {
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.Name)
	}
	return out
}

func TestBrowser_ListLocal(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"b.csv", "A.parquet", "notes.txt", "data.parquet.gz", "sheet.xlsx", ".hidden.csv"} {
		touch(t, dir, name)
	}
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub"), 0o755))
	require.NoError(t, os.Mkdir(filepath.Join(dir, ".git"), 0o755))

	tests := []struct {
		name string
		opts []Option
		want []string
	}{
		{name: "recognized only", want: []string{"sub", "A.parquet", "b.csv", "data.parquet.gz", "sheet.xlsx"}},
		{name: "all files", opts: []Option{WithAllFiles()}, want: []string{"sub", "A.parquet", "b.csv", "data.parquet.gz", "notes.txt", "sheet.xlsx"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entries, err := New(tt.opts...).List(context.Background(), dir)
			require.NoError(t, err)
			assert.Equal(t, tt.want, names(entries))
			assert.True(t, entries[0].Dir)
			assert.Equal(t, filepath.Join(dir, "sub"), entries[0].Path)
			assert.Equal(t, int64(1), entries[1].Size)
		})
	}
}

func TestBrowser_ListMissing(t *testing.T) {
	_, err := New().List(context.Background(), filepath.Join(t.TempDir(), "nope"))
	assert.Error(t, err)
}

type fakeStore struct {
	entries []objstore.Entry
	err     error
	listed  string
}

func (f *fakeStore) Open(context.Context, string) (io.ReadCloser, error) {
	return nil, errors.New("not implemented")
}

func (f *fakeStore) List(_ context.Context, uri string) ([]objstore.Entry, error) {
	f.listed = uri
	return f.entries, f.err
}

func TestBrowser_ListRemote(t *testing.T) {
	store := &fakeStore{entries: []objstore.Entry{
		{Name: "part.parquet", URI: "s3://b/x/part.parquet", Size: 10},
		{Name: "raw.csv", URI: "s3://b/x/raw.csv"},
		{Name: "nested/", URI: "s3://b/x/nested/", Dir: true},
		{Name: "old.parquet.gz", URI: "s3://b/x/old.parquet.gz"},
	}}

	entries, err := New(WithStore(store)).List(context.Background(), "s3://b/x")
	require.NoError(t, err)
	assert.Equal(t, "s3://b/x/", store.listed)
	assert.Equal(t, []string{"nested/", "old.parquet.gz", "part.parquet"}, names(entries))

	_, err = New().List(context.Background(), "s3://b/x/")
	assert.ErrorIs(t, err, ErrNoStore)

	store.err = errors.New("access denied")
	_, err = New(WithStore(store)).List(context.Background(), "s3://b/x/")
	assert.ErrorContains(t, err, "access denied")
}

func TestParent(t *testing.T) {
	assert.Equal(t, "/tmp", Parent("/tmp/data"))
	assert.Equal(t, "/", Parent("/"))
	assert.Equal(t, "s3://b/", Parent("s3://b/x/"))
}

func TestRoot(t *testing.T) {
	dir := t.TempDir()
	file := testutil.WriteFile(t, "data.csv", "a\n1\n")

	got, err := Root(dir)
	require.NoError(t, err)
	assert.Equal(t, dir, got)

	got, err = Root(file)
	require.NoError(t, err)
	assert.Equal(t, filepath.Dir(file), got)

	got, err = Root("s3://bucket/prefix/")
	require.NoError(t, err)
	assert.Equal(t, "s3://bucket/prefix/", got)

	got, err = Root("s3://bucket/prefix/part.parquet")
	require.NoError(t, err)
	assert.Equal(t, "s3://bucket/prefix/", got)

	_, err = Root(filepath.Join(dir, "missing"))
	assert.Error(t, err)
}

func TestHumanSize(t *testing.T) {
	assert.Equal(t, "512 B", HumanSize(512))
	assert.Equal(t, "1.5 KiB", HumanSize(1536))
	assert.Equal(t, "2.0 MiB", HumanSize(2*1024*1024))
}

func TestWatcher(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	w, err := NewWatcher(ctx, testutil.NewTestLogger(t))
	require.NoError(t, err)
	defer func() { _ = w.Close() }()

	dir := t.TempDir()
	require.NoError(t, w.Watch(dir))
	require.NoError(t, w.Watch("s3://bucket/"))
	require.NoError(t, w.Watch(dir))

	touch(t, dir, "new.csv")

	select {
	case got := <-w.C():
		assert.Equal(t, dir, got)
	case <-time.After(10 * time.Second):
		t.Fatal("no change reported")
	}
}
