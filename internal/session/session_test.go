package session

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/dannyboland/loql/internal/catalog"
	"github.com/dannyboland/loql/internal/query"
	"github.com/dannyboland/loql/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openSession(t *testing.T, opts Options) *Session {
	t.Helper()
	s, err := Open(context.Background(), opts, testutil.NewTestLogger(t))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func do(t *testing.T, c Controller, req Request) Response {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	resp, err := c.Do(ctx, req)
	require.NoError(t, err)
	require.False(t, resp.Cancelled)
	return resp
}

func TestScenario_ExportCSV(t *testing.T) {
	results := filepath.Join(t.TempDir(), "results.csv")
	s := openSession(t, Options{ResultsPath: results})

	resp := do(t, s, OpenRequest{Path: testutil.WriteFile(t, "data.csv", "a,b,c\n1,2,3\n4,5,6\n")})
	require.Equal(t, query.KindEmpty, resp.Outcome.Kind, resp.Outcome.Message)
	assert.Equal(t, "data", resp.ViewName)
	assert.Equal(t, catalog.Snapshot{{Name: "data", Kind: catalog.KindView}}, resp.Catalog)

	resp = do(t, s, QueryRequest{Text: "select * from data"})
	require.Equal(t, query.KindRows, resp.Outcome.Kind, resp.Outcome.Message)
	assert.Equal(t, []string{"a", "b", "c"}, resp.Outcome.Columns)
	assert.Len(t, resp.Outcome.Rows, 2)

	resp = do(t, s, QueryRequest{Text: "select * from data", Save: true})
	require.Equal(t, query.KindExported, resp.Outcome.Kind, resp.Outcome.Message)
	assert.Equal(t, results, resp.Outcome.Path)
	assert.Equal(t, 2, resp.Outcome.RowCount)

	got, err := os.ReadFile(results)
	require.NoError(t, err)
	assert.Equal(t, "a,b,c\n1,2,3\n4,5,6\n", string(got))
}

func TestScenario_JoinIntoTable(t *testing.T) {
	results := filepath.Join(t.TempDir(), "results.csv")
	s := openSession(t, Options{ResultsPath: results})

	do(t, s, OpenRequest{Path: testutil.WriteFile(t, "data1.csv", "id,value_a\n1,hello\n2,hi\n")})
	do(t, s, OpenRequest{Path: testutil.WriteFile(t, "data2.csv", "id,value_b\n1,world\n2,there\n")})

	resp := do(t, s, QueryRequest{Text: "create table data3 as (select * from data1 join data2 on data1.id = data2.id)"})
	assert.Equal(t, query.KindEmpty, resp.Outcome.Kind, resp.Outcome.Message)
	assert.Contains(t, resp.Catalog, catalog.View{Name: "data3", Kind: catalog.KindTable})

	resp = do(t, s, QueryRequest{Text: "select value_a,value_b from data3 order by value_a", Save: true})
	require.Equal(t, query.KindExported, resp.Outcome.Kind, resp.Outcome.Message)

	got, err := os.ReadFile(results)
	require.NoError(t, err)
	assert.Equal(t, "value_a,value_b\nhello,world\nhi,there\n", string(got))
}

func TestSession_Truncation(t *testing.T) {
	results := filepath.Join(t.TempDir(), "all.csv")
	s := openSession(t, Options{RowLimit: 3, ResultsPath: results})

	do(t, s, QueryRequest{Text: "create table nums as select range as n from range(10)"})

	resp := do(t, s, QueryRequest{Text: "select * from nums"})
	assert.Len(t, resp.Outcome.Rows, 3)
	assert.True(t, resp.Outcome.Truncated)

	resp = do(t, s, QueryRequest{Text: "select * from nums", Save: true})
	assert.Equal(t, 10, resp.Outcome.RowCount)

	got, err := os.ReadFile(results)
	require.NoError(t, err)
	assert.Equal(t, "n\n0\n1\n2\n3\n4\n5\n6\n7\n8\n9\n", string(got))
}

func TestSession_MalformedQueryLeavesCatalog(t *testing.T) {
	s := openSession(t, Options{})
	before := do(t, s, OpenRequest{Path: testutil.WriteFile(t, "data.csv", "a\n1\n")}).Catalog

	resp := do(t, s, QueryRequest{Text: "selec * form data"})
	require.True(t, resp.Outcome.IsError())
	assert.Equal(t, query.QueryFailure, resp.Outcome.Failure)
	assert.Contains(t, resp.Outcome.Message, "syntax error")
	assert.Equal(t, before, resp.Catalog)
}

func TestSession_UnsupportedFormat(t *testing.T) {
	s := openSession(t, Options{})

	resp := do(t, s, OpenRequest{Path: testutil.WriteFile(t, "notes.txt", "hello")})
	require.True(t, resp.Outcome.IsError())
	assert.Equal(t, query.UnsupportedFormat, resp.Outcome.Failure)
	assert.Empty(t, resp.ViewName)
	assert.Empty(t, resp.Catalog)
}

func TestSession_ReloadIsIdempotent(t *testing.T) {
	s := openSession(t, Options{})
	path := testutil.WriteFile(t, "Data.csv", "a\n1\n")

	first := do(t, s, OpenRequest{Path: path})
	second := do(t, s, OpenRequest{Path: path})
	assert.Equal(t, "data", first.ViewName)
	assert.Equal(t, first.ViewName, second.ViewName)
	assert.Equal(t, catalog.Snapshot{{Name: "data", Kind: catalog.KindView}}, second.Catalog)
}

func TestSession_Describe(t *testing.T) {
	s := openSession(t, Options{})
	do(t, s, OpenRequest{Path: testutil.WriteFile(t, "people.csv", "id,name\n1,ada\n")})

	resp := do(t, s, DescribeRequest{View: "people"})
	assert.Equal(t, "people", resp.ViewName)
	assert.Equal(t, []catalog.Column{{Name: "id", Type: "bigint"}, {Name: "name", Type: "varchar"}}, resp.Columns)

	resp = do(t, s, DescribeRequest{View: "missing"})
	assert.True(t, resp.Outcome.IsError())
}

func TestSession_DropRemovesFromCatalog(t *testing.T) {
	s := openSession(t, Options{})
	do(t, s, QueryRequest{Text: "create table t as select 1 as x"})

	resp := do(t, s, QueryRequest{Text: "drop table t"})
	assert.Empty(t, resp.Catalog)

	resp = do(t, s, CatalogRequest{})
	assert.Empty(t, resp.Catalog)
}

func TestSession_ExportFailure(t *testing.T) {
	s := openSession(t, Options{ResultsPath: filepath.Join(t.TempDir(), "missing", "out.csv")})

	resp := do(t, s, QueryRequest{Text: "select 1 as x", Save: true})
	require.True(t, resp.Outcome.IsError())
	assert.Equal(t, query.ExportFailure, resp.Outcome.Failure)
}

func TestSession_MultipleStatementsRunOnce(t *testing.T) {
	s := openSession(t, Options{})
	do(t, s, QueryRequest{Text: "create table t(x int)"})

	resp := do(t, s, QueryRequest{Text: "insert into t values (1); select count(*) as n from t"})
	require.Equal(t, query.KindRows, resp.Outcome.Kind, resp.Outcome.Message)
	assert.Equal(t, [][]any{{int64(1)}}, resp.Outcome.Rows)

	resp = do(t, s, QueryRequest{Text: "select count(*) as n from t"})
	assert.Equal(t, [][]any{{int64(1)}}, resp.Outcome.Rows)

	resp = do(t, s, QueryRequest{Text: "create table t1 as select 1 as a; select * from t1"})
	require.Equal(t, query.KindRows, resp.Outcome.Kind, resp.Outcome.Message)
	assert.Equal(t, [][]any{{int64(1)}}, resp.Outcome.Rows)
	assert.Contains(t, resp.Catalog, catalog.View{Name: "t1", Kind: catalog.KindTable})
}

func TestSession_ReturningYieldsRows(t *testing.T) {
	s := openSession(t, Options{})
	do(t, s, QueryRequest{Text: "create table t2(x int)"})

	resp := do(t, s, QueryRequest{Text: "insert into t2 values (1),(2),(3) returning *"})
	require.Equal(t, query.KindRows, resp.Outcome.Kind, resp.Outcome.Message)
	assert.Equal(t, [][]any{{int64(1)}, {int64(2)}, {int64(3)}}, resp.Outcome.Rows)
}

func TestSession_DecimalExport(t *testing.T) {
	results := filepath.Join(t.TempDir(), "results.csv")
	s := openSession(t, Options{ResultsPath: results})

	resp := do(t, s, QueryRequest{Text: "select 12.34 as price", Save: true})
	require.Equal(t, query.KindExported, resp.Outcome.Kind, resp.Outcome.Message)

	got, err := os.ReadFile(results)
	require.NoError(t, err)
	assert.Equal(t, "price\n12.34\n", string(got))
}

func TestSession_CommentOnlyQuery(t *testing.T) {
	s := openSession(t, Options{})
	resp := do(t, s, QueryRequest{Text: "-- nothing here\n"})
	assert.Equal(t, query.Empty(), resp.Outcome)
}

func TestSession_EmptyQuery(t *testing.T) {
	s := openSession(t, Options{})
	resp := do(t, s, QueryRequest{Text: "  \n"})
	assert.Equal(t, query.Empty(), resp.Outcome)
}

// holdWorker gates the worker so the next job blocks before it reaches the
// database. A job cancelled while blocked is released at once.
func holdWorker(t *testing.T, s *Session) func() {
	t.Helper()
	open := make(chan struct{})
	s.gate = func(ctx context.Context) error {
		select {
		case <-open:
			return ctx.Err()
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	var once sync.Once
	release := func() { once.Do(func() { close(open) }) }
	t.Cleanup(release)
	return release
}

func receive(t *testing.T, ch <-chan Response) Response {
	t.Helper()
	select {
	case resp := <-ch:
		return resp
	case <-time.After(30 * time.Second):
		t.Fatal("timed out waiting for response")
		return Response{}
	}
}

func TestSession_LatestWins(t *testing.T) {
	s := openSession(t, Options{})
	release := holdWorker(t, s)

	ctx := context.Background()
	first := s.Submit(ctx, QueryRequest{Text: "select 1 as x"})
	other := s.Submit(ctx, DescribeRequest{View: "nothing"})
	second := s.Submit(ctx, QueryRequest{Text: "select 2 as x"})

	resp := receive(t, first)
	assert.True(t, resp.Cancelled, "superseded query is cancelled")

	release()

	resp = receive(t, other)
	assert.False(t, resp.Cancelled, "a different class is not superseded")

	resp = receive(t, second)
	require.False(t, resp.Cancelled)
	assert.Equal(t, [][]any{{int64(2)}}, resp.Outcome.Rows)
}

func TestSession_CancelAll(t *testing.T) {
	s := openSession(t, Options{})
	release := holdWorker(t, s)

	ctx := context.Background()
	a := s.Submit(ctx, QueryRequest{Text: "select 1"})
	b := s.Submit(ctx, OpenRequest{Path: "x.csv"})
	s.CancelAll()
	release()

	assert.True(t, receive(t, a).Cancelled)
	assert.True(t, receive(t, b).Cancelled)

	resp := do(t, s, QueryRequest{Text: "select 3 as x"})
	assert.Equal(t, [][]any{{int64(3)}}, resp.Outcome.Rows)
}

func TestSession_CallerContextCancelled(t *testing.T) {
	s := openSession(t, Options{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	resp := receive(t, s.Submit(ctx, QueryRequest{Text: "select 1"}))
	assert.True(t, resp.Cancelled)
	assert.NotEmpty(t, resp.ID)
}

func TestSession_CloseIsIdempotent(t *testing.T) {
	s, err := Open(context.Background(), Options{}, nil)
	require.NoError(t, err)

	require.NoError(t, s.Close())
	require.NoError(t, s.Close())

	resp := receive(t, s.Submit(context.Background(), QueryRequest{Text: "select 1"}))
	assert.True(t, resp.Cancelled)
}

func TestSession_CloseCancelsQueued(t *testing.T) {
	s, err := Open(context.Background(), Options{}, nil)
	require.NoError(t, err)
	release := holdWorker(t, s)

	ch := s.Submit(context.Background(), QueryRequest{Text: "select 1"})
	go func() {
		time.Sleep(10 * time.Millisecond)
		release()
	}()
	require.NoError(t, s.Close())
	assert.True(t, receive(t, ch).Cancelled)
}

func stubClipboard(t *testing.T, supported bool, text string, err error) {
	t.Helper()
	origRead, origSupported := readClipboard, clipboardSupported
	readClipboard = func() (string, error) { return text, err }
	clipboardSupported = func() bool { return supported }
	t.Cleanup(func() {
		readClipboard, clipboardSupported = origRead, origSupported
	})
}

func TestSession_Clipboard(t *testing.T) {
	stubClipboard(t, true, "item\tqty\nwidget\t3\n", nil)
	s := openSession(t, Options{Clipboard: true})

	assert.True(t, s.Capabilities().Clipboard)
	resp := do(t, s, QueryRequest{Text: "select * from clipboard"})
	require.Equal(t, query.KindRows, resp.Outcome.Kind, resp.Outcome.Message)
	assert.Equal(t, []string{"item", "qty"}, resp.Outcome.Columns)
	assert.Equal(t, [][]any{{"widget", int64(3)}}, resp.Outcome.Rows)
}

func TestSession_ClipboardFailureReportedOnFirstQuery(t *testing.T) {
	stubClipboard(t, true, "", errors.New("xclip: not found"))
	s := openSession(t, Options{Clipboard: true})

	resp := do(t, s, QueryRequest{Text: "select 1 as x"})
	require.True(t, resp.Outcome.IsError())
	assert.Equal(t, query.LoadFailure, resp.Outcome.Failure)
	assert.Contains(t, resp.Outcome.Message, "xclip: not found")

	resp = do(t, s, QueryRequest{Text: "select 1 as x"})
	assert.Equal(t, query.KindRows, resp.Outcome.Kind, "only the first query reports the failure")
}

func TestSession_ClipboardFailureSurvivesCancelledQuery(t *testing.T) {
	stubClipboard(t, true, "", errors.New("xclip: not found"))
	s := openSession(t, Options{Clipboard: true})

	// Cancel the first query after it has started running.
	var once sync.Once
	s.gate = func(context.Context) error {
		once.Do(s.CancelAll)
		return nil
	}

	resp := receive(t, s.Submit(context.Background(), QueryRequest{Text: "select 1 as x"}))
	require.True(t, resp.Cancelled)

	resp = do(t, s, QueryRequest{Text: "select 1 as x"})
	require.True(t, resp.Outcome.IsError())
	assert.Equal(t, query.LoadFailure, resp.Outcome.Failure)

	resp = do(t, s, QueryRequest{Text: "select 1 as x"})
	assert.Equal(t, query.KindRows, resp.Outcome.Kind)
}

func TestSession_ClipboardUnsupported(t *testing.T) {
	stubClipboard(t, false, "", nil)
	s := openSession(t, Options{Clipboard: true})

	resp := do(t, s, QueryRequest{Text: "select * from clipboard"})
	assert.Equal(t, query.MissingDependency, resp.Outcome.Failure)
}

func TestOpen_Fatal(t *testing.T) {
	_, err := Open(context.Background(), Options{Settings: map[string]string{"no_such_setting": "1"}}, nil)
	var fatal *FatalError
	require.True(t, errors.As(err, &fatal))
}
