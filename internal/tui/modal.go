package tui

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/dannyboland/loql/internal/browse"
	"github.com/dannyboland/loql/internal/objstore"
)

type modalActionKind int

const (
	modalNone modalActionKind = iota
	modalClose
	modalOpen
	modalList
)

// modalAction tells the app what the modal wants done.
type modalAction struct {
	kind modalActionKind
	path string
}

// openModal lets the user pick a file from a directory listing or type a path.
type openModal struct {
	input   textinput.Model
	keys    modalKeys
	dir     string
	entries []browse.Entry
	cursor  int
	loading bool
	err     error
}

func newOpenModal() openModal {
	in := textinput.New()
	in.Prompt = "path: "
	in.Placeholder = "file or directory, local or s3://"
	return openModal{input: in, keys: defaultModalKeys()}
}

// show resets the modal to dir and returns the command that focuses the input.
func (m *openModal) show(dir string) tea.Cmd {
	m.input.SetValue(dir)
	m.input.CursorEnd()
	m.cursor = 0
	m.err = nil
	return m.input.Focus()
}

func (m *openModal) setListing(msg DirLoadedMsg) {
	m.loading = false
	if msg.Error != nil {
		m.err = msg.Error
		return
	}
	if m.dir != msg.Dir {
		m.cursor = 0
	}
	m.dir = msg.Dir
	m.entries = msg.Entries
	m.err = nil
	if m.cursor >= len(m.entries) {
		m.cursor = max(len(m.entries)-1, 0)
	}
	m.input.SetValue(msg.Dir)
	m.input.CursorEnd()
}

func (m openModal) Update(msg tea.KeyMsg) (openModal, modalAction, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Cancel):
		m.input.Blur()
		return m, modalAction{kind: modalClose}, nil
	case key.Matches(msg, m.keys.Clear):
		m.input.Reset()
		return m, modalAction{}, nil
	case key.Matches(msg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
		return m, modalAction{}, nil
	case key.Matches(msg, m.keys.Down):
		if m.cursor < len(m.entries)-1 {
			m.cursor++
		}
		return m, modalAction{}, nil
	case key.Matches(msg, m.keys.Parent):
		return m, m.navigate(browse.Parent(m.dir)), nil
	case key.Matches(msg, m.keys.Select):
		return m, m.submit(), nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, modalAction{}, cmd
}

// submit acts on the typed path when it was edited, otherwise on the
// highlighted entry.
func (m *openModal) submit() modalAction {
	typed := strings.TrimSpace(m.input.Value())
	if typed != "" && typed != m.dir {
		return m.resolve(typed)
	}
	if m.cursor < len(m.entries) {
		e := m.entries[m.cursor]
		if e.Dir {
			return m.navigate(e.Path)
		}
		return modalAction{kind: modalOpen, path: e.Path}
	}
	return modalAction{}
}

func (m *openModal) resolve(path string) modalAction {
	if objstore.IsRemote(path) {
		if strings.HasSuffix(path, "/") {
			return m.navigate(path)
		}
		return modalAction{kind: modalOpen, path: path}
	}
	info, err := os.Stat(path)
	if err != nil {
		m.err = fmt.Errorf("no such file or directory: %s", path)
		return modalAction{}
	}
	if info.IsDir() {
		return m.navigate(path)
	}
	return modalAction{kind: modalOpen, path: path}
}

func (m *openModal) navigate(dir string) modalAction {
	m.loading = true
	m.err = nil
	return modalAction{kind: modalList, path: dir}
}

func (m openModal) View(st styles, width, height int) string {
	var b strings.Builder
	b.WriteString(st.Title.Render("Select a file:"))
	b.WriteString("\n" + m.input.View() + "\n\n")

	inner := max(width-8, 10)
	rows := max(height-8, 1)

	switch {
	case m.err != nil:
		b.WriteString(st.Error.Render(m.err.Error()) + "\n")
	case m.loading:
		b.WriteString(st.Muted.Render("loading...") + "\n")
	case len(m.entries) == 0:
		b.WriteString(st.Muted.Render("(no readable files)") + "\n")
	}

	for _, i := range window(len(m.entries), m.cursor, rows) {
		e := m.entries[i]
		name := e.Name
		size := ""
		if e.Dir {
			name += "/"
		} else {
			size = browse.HumanSize(e.Size)
		}
		line := truncate(name, inner-10)
		line = fmt.Sprintf("%-*s %9s", inner-10, line, size)
		if i == m.cursor {
			b.WriteString(st.Selected.Render("> "+line) + "\n")
		} else {
			b.WriteString(st.Item.Render("  "+line) + "\n")
		}
	}

	return st.Modal.Width(width).Render(strings.TrimRight(b.String(), "\n"))
}
