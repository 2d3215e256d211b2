package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines all keyboard bindings for the application.
type keyMap struct {
	// Global
	Quit           key.Binding
	Help           key.Binding
	CycleTheme     key.Binding
	SwitchStore    key.Binding
	Back           key.Binding
	HistoryBack    key.Binding
	HistoryForward key.Binding
	Home           key.Binding
	Refresh        key.Binding

	// Lists
	Up          key.Binding
	Down        key.Binding
	Top         key.Binding
	Bottom      key.Binding
	PageUp      key.Binding
	PageDown    key.Binding
	Select      key.Binding
	Search      key.Binding
	CycleFilter key.Binding

	// App actions
	Install   key.Binding
	Remove    key.Binding
	Configure key.Binding

	// Config form
	NextField    key.Binding
	PrevField    key.Binding
	Toggle       key.Binding
	OptionNext   key.Binding
	OptionPrev   key.Binding
	Save         key.Binding
	Cancel       key.Binding
	DismissError key.Binding

	// Dialogs and inputs
	Confirm key.Binding
	Deny    key.Binding
	Escape  key.Binding
}

// DefaultKeyMap returns the default key bindings.
func DefaultKeyMap() keyMap {
	return keyMap{
		Quit: key.NewBinding(
			key.WithKeys("ctrl+c", "q"),
			key.WithHelp("q", "Quit"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "Toggle help"),
		),
		CycleTheme: key.NewBinding(
			key.WithKeys("T"),
			key.WithHelp("T", "Cycle theme"),
		),
		SwitchStore: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s", "Switch store"),
		),
		Back: key.NewBinding(
			key.WithKeys("esc", "backspace"),
			key.WithHelp("esc", "Back"),
		),
		HistoryBack: key.NewBinding(
			key.WithKeys("[", "alt+left"),
			key.WithHelp("[", "History back"),
		),
		HistoryForward: key.NewBinding(
			key.WithKeys("]", "alt+right"),
			key.WithHelp("]", "History forward"),
		),
		Home: key.NewBinding(
			key.WithKeys("H"),
			key.WithHelp("H", "Store overview"),
		),
		Refresh: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "Reload store"),
		),

		Up: key.NewBinding(
			key.WithKeys("k", "up"),
			key.WithHelp("k/up", "Move up"),
		),
		Down: key.NewBinding(
			key.WithKeys("j", "down"),
			key.WithHelp("j/down", "Move down"),
		),
		Top: key.NewBinding(
			key.WithKeys("g", "home"),
			key.WithHelp("g", "Go to top"),
		),
		Bottom: key.NewBinding(
			key.WithKeys("G", "end"),
			key.WithHelp("G", "Go to bottom"),
		),
		PageUp: key.NewBinding(
			key.WithKeys("pgup", "ctrl+u"),
			key.WithHelp("pgup", "Page up"),
		),
		PageDown: key.NewBinding(
			key.WithKeys("pgdown", "ctrl+d"),
			key.WithHelp("pgdown", "Page down"),
		),
		Select: key.NewBinding(
			key.WithKeys("enter", "l", "right"),
			key.WithHelp("enter", "Open"),
		),
		Search: key.NewBinding(
			key.WithKeys("/"),
			key.WithHelp("/", "Search"),
		),
		CycleFilter: key.NewBinding(
			key.WithKeys("f"),
			key.WithHelp("f", "Cycle filter"),
		),

		Install: key.NewBinding(
			key.WithKeys("i"),
			key.WithHelp("i", "Install"),
		),
		Remove: key.NewBinding(
			key.WithKeys("u"),
			key.WithHelp("u", "Remove"),
		),
		Configure: key.NewBinding(
			key.WithKeys("c"),
			key.WithHelp("c", "Configure"),
		),

		NextField: key.NewBinding(
			key.WithKeys("tab", "down"),
			key.WithHelp("tab", "Next field"),
		),
		PrevField: key.NewBinding(
			key.WithKeys("shift+tab", "up"),
			key.WithHelp("shift+tab", "Previous field"),
		),
		Toggle: key.NewBinding(
			key.WithKeys(" "),
			key.WithHelp("space", "Toggle"),
		),
		OptionNext: key.NewBinding(
			key.WithKeys("right"),
			key.WithHelp("right", "Next option"),
		),
		OptionPrev: key.NewBinding(
			key.WithKeys("left"),
			key.WithHelp("left", "Previous option"),
		),
		Save: key.NewBinding(
			key.WithKeys("ctrl+s"),
			key.WithHelp("ctrl+s", "Save"),
		),
		Cancel: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "Discard changes"),
		),
		DismissError: key.NewBinding(
			key.WithKeys("ctrl+x"),
			key.WithHelp("ctrl+x", "Dismiss error"),
		),

		Confirm: key.NewBinding(
			key.WithKeys("enter", "y"),
			key.WithHelp("enter", "Confirm"),
		),
		Deny: key.NewBinding(
			key.WithKeys("n"),
			key.WithHelp("n", "No"),
		),
		Escape: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "Close"),
		),
	}
}

// ShortHelp returns key bindings for the short help view.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Help, k.Quit}
}

// FullHelp returns key bindings for the full help view.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Top, k.Bottom, k.PageUp, k.PageDown, k.Select},
		{k.Back, k.HistoryBack, k.HistoryForward, k.Home, k.SwitchStore},
		{k.Search, k.CycleFilter, k.Refresh},
		{k.Install, k.Remove, k.Configure},
		{k.NextField, k.Toggle, k.OptionNext, k.Save, k.Cancel, k.DismissError},
		{k.CycleTheme, k.Help, k.Quit},
	}
}

// routeKeys narrows the short help to the bindings that apply to the
// current screen.
type routeKeys struct {
	keyMap
	route string
	form  bool
}

func (k routeKeys) ShortHelp() []key.Binding {
	switch {
	case k.form:
		return []key.Binding{k.NextField, k.Toggle, k.OptionNext, k.Save, k.Cancel}
	case k.route == "app":
		return []key.Binding{k.Install, k.Remove, k.Configure, k.Back, k.Help}
	case k.route == "category":
		return []key.Binding{k.Select, k.Search, k.CycleFilter, k.Back, k.Help}
	}
	return []key.Binding{k.Select, k.Search, k.CycleFilter, k.SwitchStore, k.Help}
}
