package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/dannyboland/loql/internal/catalog"
)

// sourcesPanel lists the views in the session. The selected view's columns
// are shown in the schema panel below it.
type sourcesPanel struct {
	views  catalog.Snapshot
	cursor int

	described string
	columns   []catalog.Column
}

// apply replaces the catalog and keeps the cursor on the same view when it
// still exists. It returns the views added and removed since the last apply.
func (p *sourcesPanel) apply(snap catalog.Snapshot) (added, removed []catalog.View) {
	added, removed = catalog.Diff(p.views, snap)

	selected := p.selected()
	p.views = snap
	p.cursor = 0
	for i, v := range snap {
		if v.Name == selected {
			p.cursor = i
			break
		}
	}

	if p.described != "" && !snap.Contains(p.described) {
		p.described = ""
		p.columns = nil
	}
	return added, removed
}

func (p *sourcesPanel) selected() string {
	if p.cursor < 0 || p.cursor >= len(p.views) {
		return ""
	}
	return p.views[p.cursor].Name
}

func (p *sourcesPanel) moveUp() {
	if p.cursor > 0 {
		p.cursor--
	}
}

func (p *sourcesPanel) moveDown() {
	if p.cursor < len(p.views)-1 {
		p.cursor++
	}
}

// selectView moves the cursor to name, if present.
func (p *sourcesPanel) selectView(name string) {
	for i, v := range p.views {
		if v.Name == name {
			p.cursor = i
			return
		}
	}
}

func (p *sourcesPanel) setColumns(view string, cols []catalog.Column) {
	p.described = view
	p.columns = cols
}

func (p *sourcesPanel) viewSources(st styles, height int, focused bool) string {
	var b strings.Builder
	b.WriteString(st.Title.Render("Data Sources"))
	if len(p.views) == 0 {
		b.WriteString("\n" + st.Muted.Render("(none, ^o to open)"))
	}
	for _, v := range window(len(p.views), p.cursor, height-1) {
		line := p.views[v].String()
		switch {
		case v == p.cursor && focused:
			line = st.Selected.Render("> " + line)
		case v == p.cursor:
			line = st.Item.Render("> " + line)
		default:
			line = st.Item.Render("  " + line)
		}
		b.WriteString("\n" + line)
	}
	return b.String()
}

func (p *sourcesPanel) viewSchema(st styles, height int) string {
	var b strings.Builder
	title := "Schema"
	if p.described != "" {
		title = fmt.Sprintf("Schema: %s", p.described)
	}
	b.WriteString(st.Title.Render(title))
	if p.described == "" {
		b.WriteString("\n" + st.Muted.Render("(select a view)"))
		return b.String()
	}
	rows := len(p.columns)
	if limit := height - 1; limit > 0 && rows > limit {
		rows = limit
	}
	for _, c := range p.columns[:rows] {
		b.WriteString("\n" + st.Item.Render(c.Name) + " " + st.Muted.Render(c.Type))
	}
	return b.String()
}

// window returns the indexes of at most size items around cursor.
func window(total, cursor, size int) []int {
	if size <= 0 || total == 0 {
		return nil
	}
	start := 0
	if cursor >= size {
		start = cursor - size + 1
	}
	end := min(start+size, total)
	idx := make([]int, 0, end-start)
	for i := start; i < end; i++ {
		idx = append(idx, i)
	}
	return idx
}

// truncate shortens s to width cells.
func truncate(s string, width int) string {
	if width <= 0 {
		return ""
	}
	if lipgloss.Width(s) <= width {
		return s
	}
	r := []rune(s)
	for len(r) > 0 && lipgloss.Width(string(r))+1 > width {
		r = r[:len(r)-1]
	}
	return string(r) + "…"
}
