package adapter

import (
	"context"
	"database/sql/driver"
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func connect(t *testing.T) *DuckDB {
	t.Helper()
	adp := NewDuckDB(nil)
	require.NoError(t, adp.Connect(context.Background(), Config{Path: ":memory:"}))
	t.Cleanup(func() { _ = adp.Close() })
	return adp
}

func TestDuckDB_Connect(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{name: "in-memory", cfg: Config{Path: ":memory:"}},
		{name: "empty path", cfg: Config{}},
		{name: "with settings", cfg: Config{Settings: map[string]string{"threads": "2"}}},
		{name: "bad setting", cfg: Config{Settings: map[string]string{"no_such_setting": "1"}}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			adp := NewDuckDB(nil)
			err := adp.Connect(context.Background(), tt.cfg)
			if tt.wantErr {
				assert.Error(t, err)
				assert.False(t, adp.IsConnected())
				return
			}
			require.NoError(t, err)
			assert.True(t, adp.IsConnected())
			assert.NoError(t, adp.Close())
		})
	}
}

func TestDuckDB_NotConnected(t *testing.T) {
	ctx := context.Background()
	adp := NewDuckDB(nil)

	assert.Error(t, adp.Exec(ctx, "SELECT 1"))
	_, err := adp.QueryContext(ctx, "SELECT 1")
	assert.Error(t, err)
	err = adp.Run(ctx, "SELECT 1", func(Result) error { return nil })
	assert.Error(t, err)
	assert.NoError(t, adp.Close())
}

func TestDuckDB_SessionStatePersists(t *testing.T) {
	ctx := context.Background()
	adp := connect(t)

	require.NoError(t, adp.Exec(ctx, "CREATE TEMP TABLE scratch AS SELECT 42 AS answer"))

	var answer int
	require.NoError(t, adp.conn.QueryRowContext(ctx, "SELECT answer FROM scratch").Scan(&answer))
	assert.Equal(t, 42, answer)
}

// collect runs query and drains its result.
func collect(t *testing.T, adp *DuckDB, query string) (StatementKind, []string, [][]any, error) {
	t.Helper()
	var (
		kind    StatementKind
		columns []string
		rows    [][]any
	)
	err := adp.Run(context.Background(), query, func(res Result) error {
		kind = res.Kind()
		columns = res.Columns()
		for {
			row := make([]any, len(columns))
			if err := res.Next(row); err != nil {
				if errors.Is(err, io.EOF) {
					return nil
				}
				return err
			}
			rows = append(rows, row)
		}
	})
	return kind, columns, rows, err
}

func TestDuckDB_RunKind(t *testing.T) {
	adp := connect(t)
	ctx := context.Background()
	require.NoError(t, adp.Exec(ctx, "CREATE TABLE t (i INTEGER)"))

	tests := []struct {
		query   string
		want    StatementKind
		wantErr bool
	}{
		{query: "SELECT 1", want: StatementTabular},
		{query: "EXPLAIN SELECT 1", want: StatementTabular},
		{query: "PRAGMA version", want: StatementTabular},
		{query: "CREATE TABLE u AS SELECT 1 AS x", want: StatementCommand},
		{query: "INSERT INTO t VALUES (1)", want: StatementCommand},
		{query: "INSERT INTO t VALUES (2), (3) RETURNING *", want: StatementTabular},
		{query: "UPDATE t SET i = i + 1 WHERE i = 3", want: StatementCommand},
		{query: "DELETE FROM t WHERE i = 4 RETURNING i", want: StatementTabular},
		{query: "SET threads = 2", want: StatementCommand},
		{query: "DROP TABLE u", want: StatementCommand},
		{query: "SELEC 1", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			got, _, _, err := collect(t, adp, tt.query)
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), "syntax error")
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDuckDB_RunReturning(t *testing.T) {
	adp := connect(t)
	require.NoError(t, adp.Exec(context.Background(), "CREATE TABLE t (i INTEGER)"))

	kind, columns, rows, err := collect(t, adp, "INSERT INTO t VALUES (1), (2), (3) RETURNING *")
	require.NoError(t, err)
	assert.Equal(t, StatementTabular, kind)
	assert.Equal(t, []string{"i"}, columns)
	assert.Equal(t, [][]any{{int32(1)}, {int32(2)}, {int32(3)}}, rows)
}

func TestDuckDB_RunMultipleStatementsOnce(t *testing.T) {
	adp := connect(t)
	require.NoError(t, adp.Exec(context.Background(), "CREATE TABLE t (x INTEGER)"))

	kind, columns, rows, err := collect(t, adp, "INSERT INTO t VALUES (1); SELECT count(*) AS n FROM t")
	require.NoError(t, err)
	assert.Equal(t, StatementTabular, kind)
	assert.Equal(t, []string{"n"}, columns)
	assert.Equal(t, [][]any{{int64(1)}}, rows)

	_, _, rows, err = collect(t, adp, "CREATE TABLE t1 AS SELECT 1 AS a; SELECT * FROM t1")
	require.NoError(t, err)
	assert.Equal(t, [][]any{{int32(1)}}, rows)

	_, _, rows, err = collect(t, adp, "SELECT count(*) FROM t")
	require.NoError(t, err)
	assert.Equal(t, [][]any{{int64(1)}}, rows)
}

func TestDuckDB_RunColumnTypes(t *testing.T) {
	adp := connect(t)
	err := adp.Run(context.Background(), "SELECT 12.34 AS price, 'x' AS s", func(res Result) error {
		assert.Equal(t, []string{"DECIMAL(4,2)", "VARCHAR"}, res.ColumnTypes())
		return nil
	})
	require.NoError(t, err)
}

func TestDuckDB_Append(t *testing.T) {
	ctx := context.Background()
	adp := connect(t)
	require.NoError(t, adp.Exec(ctx, "CREATE TABLE people (id BIGINT, name VARCHAR, score DOUBLE)"))

	rows := [][]driver.Value{
		{int64(1), "ada", 9.5},
		{int64(2), nil, 7.25},
	}
	require.NoError(t, adp.Append(ctx, "main", "people", rows))

	var count int
	require.NoError(t, adp.conn.QueryRowContext(ctx, "SELECT count(*) FROM people WHERE name IS NULL").Scan(&count))
	assert.Equal(t, 1, count)

	err := adp.Append(ctx, "main", "missing", rows)
	assert.Error(t, err)
}

func TestQuoting(t *testing.T) {
	assert.Equal(t, `"my ""view"""`, QuoteIdent(`my "view"`))
	assert.Equal(t, `'it''s'`, QuoteLiteral("it's"))
	assert.Equal(t, "tabular", StatementTabular.String())
	assert.Equal(t, "command", StatementCommand.String())
}
