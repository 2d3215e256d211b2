package ui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/hatlabs/cockpit-container-apps/internal/backend"
	"github.com/hatlabs/cockpit-container-apps/internal/configform"
	"github.com/hatlabs/cockpit-container-apps/internal/prefs"
	"github.com/hatlabs/cockpit-container-apps/internal/router"
	"github.com/hatlabs/cockpit-container-apps/internal/state"
)

// allCategory is the pseudo category listing every package of the store.
const allCategory = "all"

type entryKind int

const (
	entryCategory entryKind = iota
	entryPackage
)

// listEntry is one selectable row of the store or category view.
type listEntry struct {
	kind   entryKind
	id     string
	label  string
	detail string
	count  int
	pkg    backend.Package
}

// entries derives the rows of the current list view from the cache. It
// reports false when the store is not loaded yet.
func (m Model) entries() ([]listEntry, bool) {
	filter := m.router.Filter()
	switch st := m.router.State().(type) {
	case router.StoreRoute:
		if m.query != "" {
			view, ok := m.storeView(state.Query{Install: filter, Search: m.query})
			return packageEntries(view.Packages), ok
		}
		view, ok := m.storeView(state.Query{Install: filter})
		if !ok {
			return nil, false
		}
		out := make([]listEntry, 0, len(view.Categories)+1)
		out = append(out, listEntry{kind: entryCategory, id: allCategory, label: "All apps", count: len(view.Packages)})
		for _, c := range view.Categories {
			label := c.Label
			if label == "" {
				label = c.ID
			}
			out = append(out, listEntry{kind: entryCategory, id: c.ID, label: label, detail: c.Description, count: c.Count})
		}
		return out, true
	case router.CategoryRoute:
		view, ok := m.storeView(state.Query{Category: categoryQuery(st.Category), Install: filter, Search: m.query})
		return packageEntries(view.Packages), ok
	}
	return nil, false
}

func categoryQuery(id string) string {
	if id == allCategory {
		return ""
	}
	return id
}

func packageEntries(pkgs []backend.Package) []listEntry {
	out := make([]listEntry, len(pkgs))
	for i, p := range pkgs {
		out[i] = listEntry{kind: entryPackage, id: p.Name, label: p.Name, detail: p.Summary, pkg: p}
	}
	return out
}

// handleKey processes keyboard input.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return m, tea.Quit
	}

	// Any key closes help
	if m.showHelp {
		m.showHelp = false
		return m, nil
	}

	if m.modal != nil {
		modal, cmd, done := m.modal.Update(msg, m.keys)
		if done {
			m.modal = nil
		} else {
			m.modal = modal
		}
		return m, cmd
	}

	switch m.focus {
	case focusSearch:
		return m.handleSearchKey(msg)
	case focusForm:
		return m.handleFormKey(msg)
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Help):
		m.showHelp = true
		return m, nil

	case key.Matches(msg, m.keys.CycleTheme):
		m.cycleTheme()
		return m, nil

	case key.Matches(msg, m.keys.SwitchStore):
		if len(m.stores) == 0 {
			m.notice = "No stores are configured"
			return m, nil
		}
		id, _ := m.activeStore()
		m.modal = newStoreSwitcher(m.stores, id)
		return m, nil

	case key.Matches(msg, m.keys.HistoryBack):
		m.router.Back()
		return m, nil

	case key.Matches(msg, m.keys.HistoryForward):
		m.router.Forward()
		return m, nil

	case key.Matches(msg, m.keys.Home):
		m.router.Home()
		return m, nil

	case key.Matches(msg, m.keys.Refresh):
		cmd := m.reload()
		return m, cmd

	case key.Matches(msg, m.keys.Back):
		m.goBack()
		return m, nil
	}

	if app, ok := m.router.State().(router.AppRoute); ok {
		return m.handleAppKey(msg, app)
	}
	return m.handleListKey(msg)
}

// goBack clears an active search first, then walks the history, and falls
// back to the store overview when there is nothing to go back to.
func (m *Model) goBack() {
	if _, isApp := m.router.State().(router.AppRoute); !isApp && (m.query != "" || m.search.Value() != "") {
		m.clearSearch()
		return
	}
	if m.router.Back() {
		return
	}
	if _, ok := m.router.State().(router.StoreRoute); !ok {
		m.router.Home()
	}
}

func (m Model) handleListKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Search):
		m.focus = focusSearch
		cmd := m.search.Focus()
		return m, cmd
	case key.Matches(msg, m.keys.CycleFilter):
		m.router.SetFilter(m.router.Filter().Next())
		return m, nil
	}

	entries, _ := m.entries()
	n := len(entries)
	if n == 0 {
		return m, nil
	}
	cur := min(m.cursor(), n-1)

	switch {
	case key.Matches(msg, m.keys.Up):
		m.setCursor(cur - 1)
	case key.Matches(msg, m.keys.Down):
		m.setCursor(min(cur+1, n-1))
	case key.Matches(msg, m.keys.Top):
		m.setCursor(0)
	case key.Matches(msg, m.keys.Bottom):
		m.setCursor(n - 1)
	case key.Matches(msg, m.keys.PageUp):
		m.setCursor(cur - m.listHeight())
	case key.Matches(msg, m.keys.PageDown):
		m.setCursor(min(cur+m.listHeight(), n-1))
	case key.Matches(msg, m.keys.Select):
		e := entries[cur]
		if e.kind == entryCategory {
			m.router.SelectCategory(e.id)
		} else {
			m.router.SelectApp(e.id)
		}
	}
	return m, nil
}

func (m Model) handleAppKey(msg tea.KeyMsg, app router.AppRoute) (tea.Model, tea.Cmd) {
	pkg := app.Package
	if pkg == nil {
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Install):
		if pkg.Installed && !pkg.Upgradable {
			m.notice = pkg.Name + " is already installed"
			return m, nil
		}
		cmd := m.beginOperation(opInstall, pkg.Name)
		return m, cmd

	case key.Matches(msg, m.keys.Remove):
		if !pkg.Installed {
			m.notice = pkg.Name + " is not installed"
			return m, nil
		}
		m.modal = confirmDialog{
			prompt:    fmt.Sprintf("Remove %s?", pkg.Name),
			onConfirm: startOperationMsg{kind: opRemove, pkg: pkg.Name},
		}
		return m, nil

	case key.Matches(msg, m.keys.Configure), key.Matches(msg, m.keys.Select):
		if !pkg.Installed {
			m.notice = "Install " + pkg.Name + " to configure it"
			return m, nil
		}
		cmd := m.openConfig(pkg.Name, true)
		return m, cmd
	}
	return m, nil
}

func (m Model) handleSearchKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEnter:
		m.search.Blur()
		m.focus = focusList
		m.searchSeq++
		m.applySearch(m.search.Value())
		cmd := m.ensureStore()
		return m, cmd
	case tea.KeyEsc:
		m.clearSearch()
		return m, nil
	}

	prev := m.search.Value()
	var cmd tea.Cmd
	m.search, cmd = m.search.Update(msg)
	if m.search.Value() == prev {
		return m, cmd
	}
	searchCmd := m.searchChanged()
	return m, tea.Batch(cmd, searchCmd)
}

func (m *Model) clearSearch() {
	m.search.SetValue("")
	m.search.Blur()
	m.focus = focusList
	m.searchSeq++
	m.applySearch("")
}

func (m Model) handleFormKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.editor == nil {
		m.focus = focusList
		return m, nil
	}
	form := m.editor.form

	switch {
	case key.Matches(msg, m.keys.Save):
		if form.Status() == configform.StatusSaving {
			return m, nil
		}
		m.notice = ""
		return m, saveConfigCmd(m.ctx, form)

	case key.Matches(msg, m.keys.Cancel):
		if form.Dirty() {
			m.notice = "Changes discarded"
		}
		form.Cancel()
		m.editor.syncInputs()
		m.focus = focusList
		return m, nil

	case key.Matches(msg, m.keys.DismissError):
		form.DismissSaveError()
		return m, nil
	}

	return m, m.editor.update(msg, m.keys)
}

func (m *Model) cycleTheme() {
	m.theme = GetTheme(NextTheme(m.theme.Name))
	width := m.progress.Width
	m.progress = progress.New(progress.WithSolidFill(m.theme.Accent))
	m.progress.Width = width
	name := m.theme.Name
	m.persist(func(p *prefs.Prefs) { p.Theme = name })
}

// listHeight is the number of list rows that fit below the header.
func (m Model) listHeight() int {
	return max(m.height-7, 3)
}
