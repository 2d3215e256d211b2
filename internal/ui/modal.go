package ui

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/hatlabs/cockpit-container-apps/internal/backend"
)

// Modal is the interface for modal dialogs.
// The Update method returns the updated modal, a command, and a bool indicating if the modal should close.
type Modal interface {
	Update(msg tea.Msg, keys keyMap) (Modal, tea.Cmd, bool)
	View(theme Theme, width, height int) string
}

// storeSwitcher lists the configured stores.
type storeSwitcher struct {
	stores []backend.Store
	active string
	cursor int
}

func newStoreSwitcher(stores []backend.Store, active string) storeSwitcher {
	s := storeSwitcher{stores: stores, active: active}
	for i, st := range stores {
		if st.ID == active {
			s.cursor = i
		}
	}
	return s
}

func (s storeSwitcher) Update(msg tea.Msg, keys keyMap) (Modal, tea.Cmd, bool) {
	km, ok := msg.(tea.KeyMsg)
	if !ok {
		return s, nil, false
	}
	switch {
	case key.Matches(km, keys.Escape), key.Matches(km, keys.SwitchStore):
		return s, nil, true
	case key.Matches(km, keys.Up):
		if s.cursor > 0 {
			s.cursor--
		}
	case key.Matches(km, keys.Down):
		if s.cursor < len(s.stores)-1 {
			s.cursor++
		}
	case key.Matches(km, keys.Confirm):
		if len(s.stores) == 0 {
			return s, nil, true
		}
		id := s.stores[s.cursor].ID
		return s, func() tea.Msg { return storeSelectedMsg{id: id} }, true
	}
	return s, nil, false
}

func (s storeSwitcher) View(theme Theme, width, height int) string {
	styles := theme.Styles()
	var b strings.Builder
	b.WriteString(styles.Text.Bold(true).Render("Switch store"))
	b.WriteString("\n\n")
	if len(s.stores) == 0 {
		b.WriteString(styles.MutedText.Render("No stores are configured."))
	}
	for i, st := range s.stores {
		name := st.Name
		if name == "" {
			name = st.ID
		}
		marker := "  "
		if st.ID == s.active {
			marker = "● "
		}
		line := marker + name
		if i == s.cursor {
			line = styles.Selected.Render(line)
		} else {
			line = styles.Text.Render(line)
		}
		b.WriteString(line)
		if st.Description != "" {
			b.WriteString("\n   " + styles.FaintText.Render(truncate(st.Description, 50)))
		}
		b.WriteString("\n")
	}
	return overlay(theme, width, height, b.String(), 60)
}

// confirmDialog asks before a destructive action and emits onConfirm when
// the user agrees.
type confirmDialog struct {
	prompt    string
	onConfirm tea.Msg
}

func (c confirmDialog) Update(msg tea.Msg, keys keyMap) (Modal, tea.Cmd, bool) {
	km, ok := msg.(tea.KeyMsg)
	if !ok {
		return c, nil, false
	}
	switch {
	case key.Matches(km, keys.Confirm):
		out := c.onConfirm
		return c, func() tea.Msg { return out }, true
	case key.Matches(km, keys.Deny), key.Matches(km, keys.Escape):
		return c, nil, true
	}
	return c, nil, false
}

func (c confirmDialog) View(theme Theme, width, height int) string {
	styles := theme.Styles()
	body := styles.WarningText.Bold(true).Render(c.prompt) + "\n\n" +
		styles.MutedText.Render("y/enter confirm · n/esc cancel")
	return overlay(theme, width, height, body, 50)
}

// overlay centers content in a bordered box.
func overlay(theme Theme, width, height int, content string, boxWidth int) string {
	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(theme.Accent)).
		Padding(1, 2).
		Width(min(boxWidth, max(width-4, 20))).
		Render(content)
	return lipgloss.Place(
		width,
		height,
		lipgloss.Center,
		lipgloss.Center,
		box,
		lipgloss.WithWhitespaceChars(" "),
		lipgloss.WithWhitespaceForeground(lipgloss.Color(theme.Background)),
	)
}
