package tui

import "github.com/charmbracelet/bubbles/key"

// keyMap holds the global bindings. It implements help.KeyMap.
type keyMap struct {
	Execute     key.Binding
	Save        key.Binding
	Open        key.Binding
	Clear       key.Binding
	Focus       key.Binding
	ToggleTheme key.Binding
	Help        key.Binding
	Quit        key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Execute: key.NewBinding(
			key.WithKeys("ctrl+r"),
			key.WithHelp("^r", "execute query"),
		),
		Save: key.NewBinding(
			key.WithKeys("ctrl+s"),
			key.WithHelp("^s", "write results"),
		),
		Open: key.NewBinding(
			key.WithKeys("ctrl+o"),
			key.WithHelp("^o", "open file"),
		),
		Clear: key.NewBinding(
			key.WithKeys("ctrl+c"),
			key.WithHelp("^c", "clear/cancel"),
		),
		Focus: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("tab", "next pane"),
		),
		ToggleTheme: key.NewBinding(
			key.WithKeys("ctrl+t"),
			key.WithHelp("^t", "toggle theme"),
		),
		Help: key.NewBinding(
			key.WithKeys("f1"),
			key.WithHelp("f1", "help"),
		),
		Quit: key.NewBinding(
			key.WithKeys("ctrl+q"),
			key.WithHelp("^q", "quit"),
		),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Open, k.Execute, k.Save, k.Help, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Open, k.Execute, k.Save},
		{k.Focus, k.Clear, k.ToggleTheme},
		{k.Help, k.Quit},
	}
}

// modalKeys are active while the open-file modal is shown.
type modalKeys struct {
	Up     key.Binding
	Down   key.Binding
	Select key.Binding
	Parent key.Binding
	Clear  key.Binding
	Cancel key.Binding
}

func defaultModalKeys() modalKeys {
	return modalKeys{
		Up:     key.NewBinding(key.WithKeys("up", "ctrl+p"), key.WithHelp("↑", "up")),
		Down:   key.NewBinding(key.WithKeys("down", "ctrl+n"), key.WithHelp("↓", "down")),
		Select: key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "open")),
		Parent: key.NewBinding(key.WithKeys("ctrl+u"), key.WithHelp("^u", "parent dir")),
		Clear:  key.NewBinding(key.WithKeys("ctrl+c"), key.WithHelp("^c", "clear")),
		Cancel: key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "cancel")),
	}
}

func (k modalKeys) ShortHelp() []key.Binding {
	return []key.Binding{k.Up, k.Down, k.Select, k.Parent, k.Cancel}
}

func (k modalKeys) FullHelp() [][]key.Binding {
	return [][]key.Binding{k.ShortHelp(), {k.Clear}}
}
