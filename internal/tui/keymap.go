package tui

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines all key bindings for the case list view.
type KeyMap struct {
	// Navigation
	Up   key.Binding
	Down key.Binding

	// Actions
	Open        key.Binding
	OpenBrowser key.Binding
	Search      key.Binding
	Refresh     key.Binding
	SwitchTab   key.Binding
	SortMode    key.Binding
	GroupBy     key.Binding
	ToggleGroup key.Binding
	NewCase     key.Binding
	Help        key.Binding
	Quit        key.Binding
}

// DefaultKeyMap returns the default key bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "previous row"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "next row"),
		),
		Open: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "open case"),
		),
		OpenBrowser: key.NewBinding(
			key.WithKeys("o"),
			key.WithHelp("o", "open in portal"),
		),
		Search: key.NewBinding(
			key.WithKeys("/"),
			key.WithHelp("/", "search cases"),
		),
		Refresh: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "refresh"),
		),
		SwitchTab: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("tab", "switch my/team"),
		),
		SortMode: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s", "sort by column"),
		),
		GroupBy: key.NewBinding(
			key.WithKeys("f"),
			key.WithHelp("f", "group by field"),
		),
		ToggleGroup: key.NewBinding(
			key.WithKeys(" "),
			key.WithHelp("space", "collapse/expand group"),
		),
		NewCase: key.NewBinding(
			key.WithKeys("N"),
			key.WithHelp("N", "new case"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "toggle help"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q"),
			key.WithHelp("q", "quit"),
		),
	}
}

// ShortHelp returns key bindings to be shown in the mini help view.
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Help, k.Quit}
}

// FullHelp returns key bindings for the expanded help view.
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Open, k.OpenBrowser},
		{k.Search, k.SortMode, k.GroupBy, k.ToggleGroup},
		{k.SwitchTab, k.Refresh, k.NewCase, k.Quit},
	}
}
