package tui

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dannyboland/loql/internal/catalog"
	"github.com/dannyboland/loql/internal/query"
)

func TestFailureTitle(t *testing.T) {
	tests := []struct {
		failure query.Failure
		want    string
	}{
		{query.LoadFailure, "Load Failure"},
		{query.MissingDependency, "Missing Dependency"},
		{query.UnsupportedFormat, "Unsupported Format"},
		{query.ExportFailure, "Export Failure"},
		{query.FailureNone, "Error"},
	}
	for _, tt := range tests {
		t.Run(string(tt.failure), func(t *testing.T) {
			assert.Equal(t, tt.want, failureTitle(tt.failure))
		})
	}
}

func TestNotifier(t *testing.T) {
	var n notifier
	_, ok := n.latest()
	assert.False(t, ok)

	for _, msg := range []string{"one", "two", "three", "four"} {
		assert.NotNil(t, n.push(levelInfo, "Info", msg))
	}
	assert.Len(t, n.notices, maxNotices)

	nt, _ := n.latest()
	assert.Equal(t, "four", nt.message)

	n.expire(nt.id)
	nt, _ = n.latest()
	assert.Equal(t, "three", nt.message)

	n.expire(999)
	assert.Len(t, n.notices, 2)

	line := n.view(newStyles(true), 80)
	assert.Contains(t, line, "Info: ")
	assert.Contains(t, line, "three")
}

func TestSourcesPanel_Apply(t *testing.T) {
	var p sourcesPanel
	added, removed := p.apply(snapshot("a", "b", "c"))
	assert.Len(t, added, 3)
	assert.Empty(t, removed)

	p.selectView("b")
	p.setColumns("b", []catalog.Column{{Name: "x", Type: "integer"}})

	added, removed = p.apply(snapshot("b", "c", "d"))
	assert.Equal(t, []catalog.View{{Name: "d", Kind: catalog.KindView}}, added)
	assert.Equal(t, []catalog.View{{Name: "a", Kind: catalog.KindView}}, removed)
	assert.Equal(t, "b", p.selected(), "cursor follows the selected view")
	assert.Equal(t, "b", p.described)

	p.apply(snapshot("c"))
	assert.Equal(t, "c", p.selected())
	assert.Empty(t, p.described, "schema clears when its view is dropped")
	assert.Nil(t, p.columns)

	p.moveUp()
	p.moveDown()
	assert.Equal(t, "c", p.selected())
}

func TestWindow(t *testing.T) {
	tests := []struct {
		name                string
		total, cursor, size int
		want                []int
	}{
		{name: "empty", total: 0, cursor: 0, size: 5, want: nil},
		{name: "fits", total: 3, cursor: 1, size: 5, want: []int{0, 1, 2}},
		{name: "scrolled", total: 10, cursor: 7, size: 3, want: []int{5, 6, 7}},
		{name: "no room", total: 4, cursor: 0, size: 0, want: nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, window(tt.total, tt.cursor, tt.size))
		})
	}
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "long…", truncate("longer text", 5))
	assert.Equal(t, "", truncate("anything", 0))
}

func TestIsDark(t *testing.T) {
	assert.True(t, isDark("dark", nil))
	assert.False(t, isDark("light", nil))
	assert.True(t, isDark("auto", nil))
}

func TestResultsGrid(t *testing.T) {
	st := newStyles(false)
	g := newResultsGrid(false)
	g.setSize(60, 10, st)
	assert.Contains(t, g.View(), "Execute query")
	assert.Equal(t, "", g.summary())

	g.set(query.Rows([]string{"n"}, [][]any{{int64(42)}}, false), st)
	assert.Contains(t, g.View(), "42")
	assert.Equal(t, "1 row", g.summary())

	g.clear(st)
	assert.Equal(t, "", g.summary())
}
