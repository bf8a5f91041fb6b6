package tui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/dannyboland/loql/internal/query"
)

// resultsGrid shows the last result set in a scrollable viewport.
type resultsGrid struct {
	vp       viewport.Model
	rowLines bool

	columns   []string
	rows      [][]string
	truncated bool
	hasResult bool
}

func newResultsGrid(rowLines bool) resultsGrid {
	vp := viewport.New(0, 0)
	vp.SetHorizontalStep(4)
	return resultsGrid{vp: vp, rowLines: rowLines}
}

// set replaces the displayed result. Cells are formatted once here.
func (g *resultsGrid) set(out query.Outcome, st styles) {
	g.columns = out.Columns
	g.rows = make([][]string, len(out.Rows))
	for i, row := range out.Rows {
		cells := make([]string, len(row))
		for j, v := range row {
			cells[j] = query.FormatCell(v)
		}
		g.rows[i] = cells
	}
	g.truncated = out.Truncated
	g.hasResult = true
	g.render(st)
	g.vp.GotoTop()
	g.vp.SetXOffset(0)
}

func (g *resultsGrid) clear(st styles) {
	g.columns = nil
	g.rows = nil
	g.truncated = false
	g.hasResult = false
	g.render(st)
}

func (g *resultsGrid) setSize(width, height int, st styles) {
	g.vp.Width = max(width, 0)
	g.vp.Height = max(height, 0)
	g.render(st)
}

func (g *resultsGrid) render(st styles) {
	if !g.hasResult {
		g.vp.SetContent(st.Muted.Render(commandsHelp))
		return
	}
	if len(g.columns) == 0 {
		g.vp.SetContent(st.Muted.Render("(no columns)"))
		return
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(st.GridBorder).
		BorderRow(g.rowLines).
		Wrap(false).
		Headers(g.columns...).
		Rows(g.rows...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return st.Header
			}
			return st.Cell
		})

	g.vp.SetContent(t.String())
}

// summary is the one-line description shown under the grid.
func (g *resultsGrid) summary() string {
	if !g.hasResult {
		return ""
	}
	s := fmt.Sprintf("%d rows", len(g.rows))
	if len(g.rows) == 1 {
		s = "1 row"
	}
	if g.truncated {
		s += " (truncated)"
	}
	return s
}

func (g resultsGrid) Update(msg tea.Msg) (resultsGrid, tea.Cmd) {
	var cmd tea.Cmd
	g.vp, cmd = g.vp.Update(msg)
	return g, cmd
}

func (g resultsGrid) View() string {
	return g.vp.View()
}

const commandsHelp = `Commands        Keys
Open file       ^o
Execute query   ^r
Write results   ^s
Toggle theme    ^t
Help            f1
Quit            ^q`
