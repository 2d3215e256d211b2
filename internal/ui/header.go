package ui

import (
	"fmt"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/hatlabs/cockpit-container-apps/internal/backend"
	"github.com/hatlabs/cockpit-container-apps/internal/router"
)

// renderHeader renders the status bar: store, filter, package count and the
// load state.
func (m Model) renderHeader() string {
	styles := m.theme.Styles().WithBackground(m.theme.Surface)
	bg := newBgStyle(m.theme.Surface)
	compact := m.width < 100

	parts := []string{bg.Render("container-apps", styles.Logo)}

	if name := m.storeName(); name != "" {
		parts = append(parts, bg.Render("Store:", styles.MutedText)+bg.Space()+bg.Render(name, styles.Text))
	}
	parts = append(parts,
		bg.Render("Filter:", styles.MutedText)+bg.Space()+bg.Render(m.router.Filter().Label(), styles.AccentText))

	if m.snapshot.Cached && !compact {
		parts = append(parts,
			bg.Render("Apps:", styles.MutedText)+bg.Space()+
				bg.Render(fmt.Sprintf("%d", len(m.snapshot.Data.Packages)), styles.Text))
	}

	switch {
	case m.loading:
		parts = append(parts, bg.Render(m.spinner.View()+" Loading", styles.WarningText))
	case m.snapshot.LastError != nil:
		maxErr := 80
		if compact {
			maxErr = 40
		}
		parts = append(parts,
			bg.Render("ERROR", styles.DangerText)+bg.Space()+
				bg.Render(truncate(backend.UserMessage(m.snapshot.LastError), maxErr), styles.DangerText))
	case !m.snapshot.LastUpdated.IsZero():
		parts = append(parts, bg.Render(m.formatTimestamp(), styles.MutedText))
	}

	if m.storesErr != "" && !compact {
		parts = append(parts, bg.Render("stores: "+truncate(m.storesErr, 40), styles.WarningText))
	}

	return styles.Header.Width(m.width).Render(bg.Join(parts, "  "))
}

// formatTimestamp formats the last load time with a relative indicator.
func (m Model) formatTimestamp() string {
	last := m.snapshot.LastUpdated
	return fmt.Sprintf("%s (%s ago)", last.Format("15:04:05"), humanizeDuration(time.Since(last)))
}

// storeName is the display name of the active store.
func (m Model) storeName() string {
	id, ok := m.activeStore()
	if !ok {
		return ""
	}
	if id == "" {
		return "All packages"
	}
	if m.snapshot.Cached && m.snapshot.ActiveStore == id && m.snapshot.Data.Store.Name != "" {
		return m.snapshot.Data.Store.Name
	}
	for _, s := range m.stores {
		if s.ID == id && s.Name != "" {
			return s.Name
		}
	}
	return id
}

// renderBreadcrumb renders the navigation path of the current route.
func (m Model) renderBreadcrumb() string {
	styles := m.theme.Styles()
	sep := styles.FaintText.Render(" › ")
	crumbs := []string{styles.AccentText.Render(m.storeNameOr("Store"))}

	switch st := m.router.State().(type) {
	case router.CategoryRoute:
		crumbs = append(crumbs, styles.Text.Bold(true).Render(m.categoryLabel(st.Category)))
	case router.AppRoute:
		crumbs = append(crumbs, styles.Text.Bold(true).Render(st.AppName))
	}
	if m.query != "" {
		crumbs = append(crumbs, styles.WarningText.Render(fmt.Sprintf("search %q", m.query)))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, joinWith(crumbs, sep)...)
}

func (m Model) storeNameOr(fallback string) string {
	if name := m.storeName(); name != "" {
		return name
	}
	return fallback
}

func (m Model) categoryLabel(id string) string {
	if id == allCategory {
		return "All apps"
	}
	for _, c := range m.snapshot.Data.Categories {
		if c.ID == id && c.Label != "" {
			return c.Label
		}
	}
	return id
}

func joinWith(parts []string, sep string) []string {
	out := make([]string, 0, len(parts)*2)
	for i, p := range parts {
		if i > 0 {
			out = append(out, sep)
		}
		out = append(out, p)
	}
	return out
}

// renderFooter renders the notice line and the context key help.
func (m Model) renderFooter() string {
	styles := m.theme.Styles()
	bg := newBgStyle(m.theme.Surface)

	keys := routeKeys{keyMap: m.keys, route: m.router.State().Route(), form: m.focus == focusForm}
	helpLine := m.help.ShortHelpView(keys.ShortHelp())
	themeHint := bg.Render("T", styles.WarningText) + bg.Space() + bg.Render(m.theme.Name, styles.MutedText)
	gap := max(m.width-lipgloss.Width(helpLine)-lipgloss.Width(themeHint)-2, 1)
	bar := bg.FillLine(helpLine+bg.Spaces(gap)+themeHint, m.width)

	if m.notice == "" {
		return bar
	}
	return styles.InfoText.Render(truncate(m.notice, m.width)) + "\n" + bar
}
