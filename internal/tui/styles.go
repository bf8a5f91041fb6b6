package tui

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// palette is the set of colours a theme is built from.
type palette struct {
	Foreground    lipgloss.Color
	Muted         lipgloss.Color
	Accent        lipgloss.Color
	Border        lipgloss.Color
	BorderFocused lipgloss.Color
	Header        lipgloss.Color
	Success       lipgloss.Color
	Warning       lipgloss.Color
	Error         lipgloss.Color
}

var darkPalette = palette{
	Foreground:    lipgloss.Color("#E6E6E6"),
	Muted:         lipgloss.Color("#7F848E"),
	Accent:        lipgloss.Color("#61AFEF"),
	Border:        lipgloss.Color("#3E4451"),
	BorderFocused: lipgloss.Color("#61AFEF"),
	Header:        lipgloss.Color("#E5C07B"),
	Success:       lipgloss.Color("#98C379"),
	Warning:       lipgloss.Color("#E5C07B"),
	Error:         lipgloss.Color("#E06C75"),
}

var lightPalette = palette{
	Foreground:    lipgloss.Color("#24292F"),
	Muted:         lipgloss.Color("#6E7781"),
	Accent:        lipgloss.Color("#0969DA"),
	Border:        lipgloss.Color("#D0D7DE"),
	BorderFocused: lipgloss.Color("#0969DA"),
	Header:        lipgloss.Color("#953800"),
	Success:       lipgloss.Color("#1A7F37"),
	Warning:       lipgloss.Color("#9A6700"),
	Error:         lipgloss.Color("#CF222E"),
}

// styles are derived from a palette once per theme change.
type styles struct {
	Dark bool

	Panel        lipgloss.Style
	PanelFocused lipgloss.Style
	Title        lipgloss.Style
	Item         lipgloss.Style
	Selected     lipgloss.Style
	Muted        lipgloss.Style
	Error        lipgloss.Style
	Header       lipgloss.Style
	Cell         lipgloss.Style
	GridBorder   lipgloss.Style
	StatusBar    lipgloss.Style
	Modal        lipgloss.Style
	Notice       map[level]lipgloss.Style
}

func newStyles(dark bool) styles {
	p := lightPalette
	if dark {
		p = darkPalette
	}

	panel := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(p.Border).
		Padding(0, 1)

	notice := func(c lipgloss.Color) lipgloss.Style {
		return lipgloss.NewStyle().Bold(true).Foreground(c)
	}

	return styles{
		Dark:         dark,
		Panel:        panel,
		PanelFocused: panel.BorderForeground(p.BorderFocused),
		Title:        lipgloss.NewStyle().Bold(true).Foreground(p.Accent),
		Item:         lipgloss.NewStyle().Foreground(p.Foreground),
		Selected:     lipgloss.NewStyle().Bold(true).Foreground(p.Accent),
		Muted:        lipgloss.NewStyle().Foreground(p.Muted),
		Error:        lipgloss.NewStyle().Foreground(p.Error),
		Header:       lipgloss.NewStyle().Bold(true).Foreground(p.Header).Padding(0, 1),
		Cell:         lipgloss.NewStyle().Foreground(p.Foreground).Padding(0, 1),
		GridBorder:   lipgloss.NewStyle().Foreground(p.Border),
		StatusBar:    lipgloss.NewStyle().Foreground(p.Muted).Padding(0, 1),
		Modal: lipgloss.NewStyle().
			Border(lipgloss.DoubleBorder()).
			BorderForeground(p.BorderFocused).
			Padding(1, 2),
		Notice: map[level]lipgloss.Style{
			levelInfo:    notice(p.Accent),
			levelSuccess: notice(p.Success),
			levelWarning: notice(p.Warning),
			levelError:   notice(p.Error),
		},
	}
}

// isDark resolves a theme name. "auto" asks the terminal for its background.
func isDark(theme string, output *termenv.Output) bool {
	switch theme {
	case "dark":
		return true
	case "light":
		return false
	default:
		if output == nil {
			return true
		}
		return output.HasDarkBackground()
	}
}
