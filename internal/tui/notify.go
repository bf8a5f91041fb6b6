package tui

import (
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/dannyboland/loql/internal/query"
)

type level int

const (
	levelInfo level = iota
	levelSuccess
	levelWarning
	levelError
)

const (
	noticeTTL  = 4 * time.Second
	errorTTL   = 8 * time.Second
	maxNotices = 3
)

var titleCaser = cases.Title(language.English)

type notice struct {
	id      int
	level   level
	title   string
	message string
}

// notifier keeps the short-lived messages shown in the status bar.
type notifier struct {
	next    int
	notices []notice
}

// push adds a notice and returns the command that expires it.
func (n *notifier) push(lvl level, title, message string) tea.Cmd {
	n.next++
	id := n.next
	n.notices = append(n.notices, notice{id: id, level: lvl, title: title, message: message})
	if len(n.notices) > maxNotices {
		n.notices = n.notices[len(n.notices)-maxNotices:]
	}

	ttl := noticeTTL
	if lvl == levelError {
		ttl = errorTTL
	}
	return tea.Tick(ttl, func(time.Time) tea.Msg {
		return noticeExpiredMsg{id: id}
	})
}

func (n *notifier) expire(id int) {
	for i, nt := range n.notices {
		if nt.id == id {
			n.notices = append(n.notices[:i], n.notices[i+1:]...)
			return
		}
	}
}

// latest returns the newest notice still on screen.
func (n *notifier) latest() (notice, bool) {
	if len(n.notices) == 0 {
		return notice{}, false
	}
	return n.notices[len(n.notices)-1], true
}

// view renders the newest notice on one line of at most width cells.
func (n *notifier) view(st styles, width int) string {
	nt, ok := n.latest()
	if !ok {
		return ""
	}
	msg := strings.Join(strings.Fields(nt.message), " ")
	title := nt.title + ": "
	return st.Notice[nt.level].Render(title) + st.Item.Render(truncate(msg, width-lipgloss.Width(title)))
}

// failureTitle turns a failure class such as "load_failure" into "Load Failure".
func failureTitle(f query.Failure) string {
	if f == query.FailureNone {
		return "Error"
	}
	return titleCaser.String(strings.ReplaceAll(string(f), "_", " "))
}
