// Package tui is the interactive terminal interface: a sidebar of views and
// their schemas, a SQL editor, a results grid and an open-file dialog.
//
// Every database operation goes through a session.Controller. Submissions
// return immediately and their responses arrive later as ResponseMsg, so
// the interface never blocks on a query.
package tui

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/dannyboland/loql/internal/browse"
	"github.com/dannyboland/loql/internal/catalog"
	"github.com/dannyboland/loql/internal/query"
	"github.com/dannyboland/loql/internal/session"
	"github.com/dannyboland/loql/internal/sqltext"
)

// Options configure the interface.
type Options struct {
	Controller session.Controller
	Browser    *browse.Browser
	// Root is the directory the open-file dialog starts in.
	Root string
	// Open is a file to load on startup.
	Open      string
	RowLines  bool
	Theme     string
	Clipboard bool
	Logger    *slog.Logger
}

type focus int

const (
	focusEditor focus = iota
	focusResults
	focusSources
)

const (
	minSidebarWidth = 24
	maxSidebarWidth = 40
)

// App is the root Bubble Tea model.
type App struct {
	ctx     context.Context
	ctrl    session.Controller
	browser *browse.Browser
	watcher *browse.Watcher
	logger  *slog.Logger

	keys    keyMap
	help    help.Model
	styles  styles
	spinner spinner.Model

	editor  textarea.Model
	sources sourcesPanel
	grid    resultsGrid
	modal   openModal
	notes   notifier

	focus     focus
	showModal bool
	seq       int
	inflight  map[session.Class]int // newest submission per class
	clipboard bool
	startup   string
	root      string

	width  int
	height int
}

// New creates the model. The watcher may be nil.
func New(ctx context.Context, opts Options, watcher *browse.Watcher, dark bool) *App {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	br := opts.Browser
	if br == nil {
		br = browse.New()
	}

	ed := textarea.New()
	ed.Placeholder = "select * from ..."
	ed.ShowLineNumbers = true
	ed.Focus()

	st := newStyles(dark)
	sp := spinner.New(spinner.WithSpinner(spinner.Dot), spinner.WithStyle(st.Title))

	return &App{
		ctx:       ctx,
		ctrl:      opts.Controller,
		browser:   br,
		watcher:   watcher,
		logger:    logger,
		keys:      defaultKeyMap(),
		help:      help.New(),
		styles:    st,
		spinner:   sp,
		editor:    ed,
		grid:      newResultsGrid(opts.RowLines),
		modal:     newOpenModal(),
		inflight:  make(map[session.Class]int),
		clipboard: opts.Clipboard,
		startup:   opts.Open,
		root:      opts.Root,
	}
}

// Run starts the program and blocks until the user quits.
func Run(ctx context.Context, opts Options) error {
	output := termenv.DefaultOutput()
	dark := isDark(opts.Theme, output)

	watcher, err := browse.NewWatcher(ctx, opts.Logger)
	if err != nil {
		if opts.Logger != nil {
			opts.Logger.Warn("directory watching disabled", "error", err)
		}
		watcher = nil
	}
	if watcher != nil {
		defer func() { _ = watcher.Close() }()
	}

	app := New(ctx, opts, watcher, dark)
	p := tea.NewProgram(app, tea.WithAltScreen(), tea.WithContext(ctx))
	_, err = p.Run()
	if err != nil && ctx.Err() != nil {
		return nil
	}
	return err
}

// Init implements tea.Model
func (a *App) Init() tea.Cmd {
	cmds := []tea.Cmd{textarea.Blink, a.submit(session.CatalogRequest{})}
	if a.startup != "" {
		cmds = append(cmds, a.submit(session.OpenRequest{Path: a.startup}))
	}
	cmds = append(cmds, a.waitForChange())
	return tea.Batch(cmds...)
}

// Update implements tea.Model
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.layout()
		return a, nil

	case ResponseMsg:
		return a, a.handleResponse(msg)

	case DirLoadedMsg:
		a.modal.setListing(msg)
		if msg.Error == nil && a.watcher != nil {
			if err := a.watcher.Watch(msg.Dir); err != nil {
				a.logger.Debug("cannot watch directory", "dir", msg.Dir, "error", err)
			}
		}
		return a, nil

	case DirChangedMsg:
		cmds := []tea.Cmd{a.waitForChange()}
		if a.showModal && msg.Dir == a.modal.dir {
			cmds = append(cmds, a.list(msg.Dir))
		}
		return a, tea.Batch(cmds...)

	case noticeExpiredMsg:
		a.notes.expire(msg.id)
		return a, nil

	case spinner.TickMsg:
		if !a.isBusy() {
			return a, nil
		}
		var cmd tea.Cmd
		a.spinner, cmd = a.spinner.Update(msg)
		return a, cmd

	case tea.KeyMsg:
		if a.showModal {
			return a, a.handleModalKey(msg)
		}
		if cmd, handled := a.handleGlobalKey(msg); handled {
			return a, cmd
		}
		return a, a.updateFocused(msg)
	}

	// Cursor blinks and other component messages.
	var cmd tea.Cmd
	if a.showModal {
		a.modal.input, cmd = a.modal.input.Update(msg)
		return a, cmd
	}
	a.editor, cmd = a.editor.Update(msg)
	return a, cmd
}

func (a *App) handleGlobalKey(msg tea.KeyMsg) (tea.Cmd, bool) {
	switch {
	case key.Matches(msg, a.keys.Quit):
		a.ctrl.CancelAll()
		return tea.Quit, true
	case key.Matches(msg, a.keys.Help):
		a.help.ShowAll = !a.help.ShowAll
		a.layout()
		return nil, true
	case key.Matches(msg, a.keys.ToggleTheme):
		a.styles = newStyles(!a.styles.Dark)
		a.spinner.Style = a.styles.Title
		a.grid.render(a.styles)
		return nil, true
	case key.Matches(msg, a.keys.Open):
		return a.openModal(), true
	case key.Matches(msg, a.keys.Execute):
		return a.execute(false), true
	case key.Matches(msg, a.keys.Save):
		return a.execute(true), true
	case key.Matches(msg, a.keys.Clear):
		if a.focus == focusEditor {
			a.editor.Reset()
		}
		a.ctrl.CancelAll()
		return nil, true
	case key.Matches(msg, a.keys.Focus):
		a.setFocus((a.focus + 1) % 3)
		return nil, true
	}
	return nil, false
}

func (a *App) updateFocused(msg tea.KeyMsg) tea.Cmd {
	switch a.focus {
	case focusSources:
		switch msg.String() {
		case "up", "k":
			a.sources.moveUp()
		case "down", "j":
			a.sources.moveDown()
		case "enter":
			if name := a.sources.selected(); name != "" {
				return a.submit(session.DescribeRequest{View: name})
			}
		}
		return nil
	case focusResults:
		var cmd tea.Cmd
		a.grid, cmd = a.grid.Update(msg)
		return cmd
	default:
		var cmd tea.Cmd
		a.editor, cmd = a.editor.Update(msg)
		return cmd
	}
}

func (a *App) setFocus(f focus) {
	a.focus = f
	if f == focusEditor {
		a.editor.Focus()
	} else {
		a.editor.Blur()
	}
}

func (a *App) openModal() tea.Cmd {
	a.showModal = true
	dir := a.modal.dir
	if dir == "" {
		dir = a.root
	}
	a.modal.loading = true
	return tea.Batch(a.modal.show(dir), a.list(dir))
}

func (a *App) handleModalKey(msg tea.KeyMsg) tea.Cmd {
	var (
		act modalAction
		cmd tea.Cmd
	)
	a.modal, act, cmd = a.modal.Update(msg)

	switch act.kind {
	case modalClose:
		a.showModal = false
	case modalList:
		return tea.Batch(cmd, a.list(act.path))
	case modalOpen:
		a.showModal = false
		a.modal.input.Blur()
		return tea.Batch(cmd, a.submit(session.OpenRequest{Path: act.path}))
	}
	return cmd
}

// execute submits the editor contents as a query.
func (a *App) execute(save bool) tea.Cmd {
	text := strings.TrimSpace(a.editor.Value())
	if len(sqltext.Split(text)) == 0 {
		return a.notes.push(levelWarning, "Warning", "Nothing to execute.")
	}
	return a.submit(session.QueryRequest{Text: text, Save: save})
}

// submit hands req to the controller and returns a command that waits for
// its response.
func (a *App) submit(req session.Request) tea.Cmd {
	wasBusy := a.isBusy()
	a.seq++
	seq := a.seq
	a.inflight[req.Class()] = seq
	ch := a.ctrl.Submit(a.ctx, req)
	wait := func() tea.Msg {
		return ResponseMsg{Request: req, Response: <-ch, seq: seq}
	}
	if wasBusy {
		return wait
	}
	return tea.Batch(wait, a.spinner.Tick)
}

func (a *App) list(dir string) tea.Cmd {
	ctx, br := a.ctx, a.browser
	return func() tea.Msg {
		entries, err := br.List(ctx, dir)
		return DirLoadedMsg{Dir: dir, Entries: entries, Error: err}
	}
}

func (a *App) waitForChange() tea.Cmd {
	if a.watcher == nil {
		return nil
	}
	ch := a.watcher.C()
	return func() tea.Msg {
		dir, ok := <-ch
		if !ok {
			return nil
		}
		return DirChangedMsg{Dir: dir}
	}
}

func (a *App) isBusy() bool {
	return len(a.inflight) > 0
}

func (a *App) handleResponse(msg ResponseMsg) tea.Cmd {
	// A superseded request answers while its replacement is still running.
	if a.inflight[msg.Request.Class()] == msg.seq {
		delete(a.inflight, msg.Request.Class())
	}
	resp := msg.Response
	if resp.Cancelled {
		a.logger.Debug("request cancelled", "class", msg.Request.Class())
		return nil
	}

	added, removed := a.sources.apply(resp.Catalog)
	out := resp.Outcome

	if out.IsError() {
		return a.notes.push(levelError, failureTitle(out.Failure), out.Message)
	}

	switch req := msg.Request.(type) {
	case session.OpenRequest:
		a.sources.selectView(resp.ViewName)
		return tea.Batch(
			a.notes.push(levelSuccess, "Success", fmt.Sprintf("Opened %s as %s", req.Path, resp.ViewName)),
			a.submit(session.DescribeRequest{View: resp.ViewName}),
		)

	case session.DescribeRequest:
		a.sources.setColumns(resp.ViewName, resp.Columns)
		return nil

	case session.CatalogRequest:
		if a.clipboard && resp.Catalog.Contains(session.ClipboardView) {
			a.clipboard = false
			a.sources.selectView(session.ClipboardView)
			return a.submit(session.DescribeRequest{View: session.ClipboardView})
		}
		return nil

	case session.QueryRequest:
		return a.handleQuery(out, added, removed)
	}
	return nil
}

func (a *App) handleQuery(out query.Outcome, added, removed []catalog.View) tea.Cmd {
	switch out.Kind {
	case query.KindRows:
		a.grid.set(out, a.styles)
		if out.Truncated {
			return a.notes.push(levelWarning, "Warning", fmt.Sprintf("Results limited to %d rows.", len(out.Rows)))
		}
		return nil
	case query.KindExported:
		return a.notes.push(levelSuccess, "Success", fmt.Sprintf("Results written to %s (%d rows)", out.Path, out.RowCount))
	default:
		msg := "Statement successful"
		for _, v := range added {
			msg += fmt.Sprintf(", created %s", v.Name)
		}
		for _, v := range removed {
			msg += fmt.Sprintf(", dropped %s", v.Name)
		}
		return a.notes.push(levelSuccess, "Success", msg)
	}
}

// layout sizes the components to the window.
func (a *App) layout() {
	if a.width == 0 || a.height == 0 {
		return
	}
	mainW := a.width - a.sidebarWidth()
	body := a.bodyHeight()

	edH := max(body/3, 5)
	resH := max(body-edH, 4)

	a.editor.SetWidth(max(mainW-4, 1))
	a.editor.SetHeight(max(edH-2, 1))
	// Border and summary line.
	a.grid.setSize(mainW-4, resH-3, a.styles)
	a.help.Width = a.width
}

func (a *App) sidebarWidth() int {
	return min(max(a.width/4, minSidebarWidth), maxSidebarWidth)
}

// bodyHeight is the height left after the status and help lines.
func (a *App) bodyHeight() int {
	return max(a.height-1-lipgloss.Height(a.help.View(a.keys)), 4)
}

// View implements tea.Model
func (a *App) View() string {
	if a.width == 0 || a.height == 0 {
		return ""
	}

	st := a.styles
	side := a.sidebarWidth()
	mainW := a.width - side
	body := a.bodyHeight()

	var content string
	if a.showModal {
		modalW := min(a.width-4, 80)
		content = lipgloss.Place(a.width, body, lipgloss.Center, lipgloss.Center,
			a.modal.View(st, modalW, body-2))
	} else {
		srcH := body / 2
		schH := body - srcH
		left := lipgloss.JoinVertical(lipgloss.Left,
			a.panel(focusSources, side, srcH).Render(a.sources.viewSources(st, srcH-2, a.focus == focusSources)),
			st.Panel.Width(side-2).Height(schH-2).Render(a.sources.viewSchema(st, schH-2)),
		)

		edH := max(body/3, 5)
		resH := max(body-edH, 4)
		results := lipgloss.JoinVertical(lipgloss.Left,
			a.grid.View(),
			st.Muted.Render(a.grid.summary()),
		)
		right := lipgloss.JoinVertical(lipgloss.Left,
			a.panel(focusEditor, mainW, edH).Render(a.editor.View()),
			a.panel(focusResults, mainW, resH).Render(results),
		)
		content = lipgloss.JoinHorizontal(lipgloss.Top, left, right)
	}

	return lipgloss.JoinVertical(lipgloss.Left, content, a.statusBar(), a.help.View(a.helpKeys()))
}

func (a *App) helpKeys() help.KeyMap {
	if a.showModal {
		return a.modal.keys
	}
	return a.keys
}

// panel returns the border style for a pane of the given outer size.
func (a *App) panel(f focus, width, height int) lipgloss.Style {
	s := a.styles.Panel
	if a.focus == f && !a.showModal {
		s = a.styles.PanelFocused
	}
	return s.Width(max(width-2, 0)).Height(max(height-2, 0))
}

func (a *App) statusBar() string {
	left := ""
	if a.isBusy() {
		left = a.spinner.View() + " running "
	}
	note := a.notes.view(a.styles, a.width-lipgloss.Width(left)-2)
	return a.styles.StatusBar.Width(a.width).MaxHeight(1).Render(left + note)
}
