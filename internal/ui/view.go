package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/hatlabs/cockpit-container-apps/internal/backend"
	"github.com/hatlabs/cockpit-container-apps/internal/router"
)

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	if m.showHelp {
		return m.renderHelp()
	}
	if m.modal != nil {
		return m.modal.View(m.theme, m.width, m.height)
	}
	return m.renderMain()
}

func (m Model) renderMain() string {
	header := m.renderHeader()
	footer := m.renderFooter()
	crumbs := m.renderBreadcrumb()

	bodyHeight := max(m.height-lipgloss.Height(header)-lipgloss.Height(footer)-lipgloss.Height(crumbs)-1, 1)
	body := lipgloss.NewStyle().
		Width(m.width).
		Height(bodyHeight).
		MaxHeight(bodyHeight).
		Padding(0, 1).
		Render(m.renderContent())

	return lipgloss.JoinVertical(lipgloss.Left, header, " "+crumbs, body, footer)
}

func (m Model) renderContent() string {
	if app, ok := m.router.State().(router.AppRoute); ok {
		return m.renderApp(app)
	}
	var b strings.Builder
	if m.focus == focusSearch || m.search.Value() != "" {
		b.WriteString(m.search.View())
		if m.search.Value() != m.query {
			b.WriteString(" " + m.theme.Styles().FaintText.Render(m.spinner.View()))
		}
		b.WriteString("\n")
	}
	b.WriteString(m.renderList())
	return b.String()
}

// renderList renders the category or package rows around the cursor.
func (m Model) renderList() string {
	styles := m.theme.Styles()
	entries, ok := m.entries()
	if !ok {
		return m.renderStoreState()
	}
	if len(entries) == 0 {
		msg := "No apps match the " + strings.ToLower(m.router.Filter().Label()) + " filter"
		if m.query != "" {
			msg += fmt.Sprintf(" and search %q", m.query)
		}
		return styles.MutedText.Render(msg)
	}

	height := m.listHeight()
	cur := min(m.cursor(), len(entries)-1)
	start := 0
	if cur >= height {
		start = cur - height + 1
	}
	end := min(start+height, len(entries))

	nameWidth := 0
	for _, e := range entries[start:end] {
		nameWidth = max(nameWidth, lipgloss.Width(e.label))
	}
	nameWidth = min(nameWidth, max(m.width/3, 12))

	var b strings.Builder
	for i := start; i < end; i++ {
		b.WriteString(m.renderRow(entries[i], i == cur, nameWidth))
		b.WriteString("\n")
	}
	if end < len(entries) || start > 0 {
		b.WriteString(styles.FaintText.Render(fmt.Sprintf("%d-%d of %d", start+1, end, len(entries))))
	}
	return b.String()
}

func (m Model) renderRow(e listEntry, selected bool, nameWidth int) string {
	styles := m.theme.Styles()
	name := lipgloss.NewStyle().Width(nameWidth + 2).Render(truncate(e.label, nameWidth))
	if selected {
		name = styles.Selected.Render(name)
	} else {
		name = styles.Text.Render(name)
	}

	var middle string
	if e.kind == entryCategory {
		countStyle := styles.AccentText
		if e.count == 0 {
			countStyle = styles.FaintText
		}
		middle = countStyle.Width(6).Align(lipgloss.Right).Render(fmt.Sprintf("%d", e.count)) + "  "
	} else {
		status := packageStatus(e.pkg, m.op)
		middle = styles.StatusStyle(status).Width(12).Render(status) + "  "
	}

	detailWidth := max(m.width-nameWidth-lipgloss.Width(middle)-6, 0)
	return name + middle + styles.MutedText.Render(truncate(e.detail, detailWidth))
}

// renderStoreState explains why there is no list yet.
func (m Model) renderStoreState() string {
	styles := m.theme.Styles()
	switch {
	case m.loading:
		return styles.WarningText.Render(m.spinner.View() + " Loading store…")
	case m.snapshot.LastError != nil:
		return styles.DangerText.Render("Could not load the store: "+backend.UserMessage(m.snapshot.LastError)) +
			"\n" + styles.FaintText.Render("Press r to retry.")
	}
	return styles.MutedText.Render(m.spinner.View() + " Waiting for the store list…")
}

func (m Model) renderApp(app router.AppRoute) string {
	styles := m.theme.Styles()
	if app.Package == nil {
		if m.loading || !m.snapshot.Cached {
			return m.renderStoreState()
		}
		return styles.DangerText.Render(fmt.Sprintf("%s is not available in this store", app.AppName)) +
			"\n" + styles.FaintText.Render("Press esc to go back.")
	}
	pkg := *app.Package

	var b strings.Builder
	status := packageStatus(pkg, m.op)
	b.WriteString(styles.Text.Bold(true).Render(pkg.Name) + "  " + styles.StatusStyle(status).Render(status) + "\n")
	meta := []string{}
	if pkg.Version != "" {
		meta = append(meta, styles.MutedText.Render("Version ")+styles.Text.Render(pkg.Version))
	}
	if pkg.Section != "" {
		meta = append(meta, styles.MutedText.Render("Section ")+styles.Text.Render(pkg.Section))
	}
	if len(pkg.Categories) > 0 {
		labels := make([]string, len(pkg.Categories))
		for i, c := range pkg.Categories {
			labels[i] = m.categoryLabel(c)
		}
		meta = append(meta, styles.MutedText.Render("Categories ")+styles.Text.Render(strings.Join(labels, ", ")))
	}
	if len(meta) > 0 {
		b.WriteString(strings.Join(meta, "   ") + "\n")
	}
	if pkg.Summary != "" {
		b.WriteString("\n" + lipgloss.NewStyle().Width(max(m.width-4, 20)).Render(styles.Text.Render(pkg.Summary)) + "\n")
	}

	b.WriteString("\n" + m.renderActions(pkg) + "\n")

	if m.op != nil && m.op.pkg == pkg.Name {
		b.WriteString("\n" + m.progress.ViewAs(float64(m.op.percent)/100) + "\n")
		msg := m.op.message
		if msg == "" {
			msg = m.op.kind.verb() + "…"
		}
		b.WriteString(styles.MutedText.Render(m.spinner.View()+" "+truncate(msg, max(m.width-8, 10))) + "\n")
	}
	if m.opErr != "" {
		b.WriteString("\n" + styles.DangerText.Render("Operation failed: "+m.opErr) + "\n")
	}

	if cfg := m.renderConfig(pkg); cfg != "" {
		b.WriteString("\n" + cfg)
	}
	return b.String()
}

func (m Model) renderActions(pkg backend.Package) string {
	styles := m.theme.Styles()
	action := func(k, label string, enabled bool) string {
		if !enabled {
			return styles.FaintText.Render(k + " " + label)
		}
		return styles.WarningText.Render(k) + " " + styles.Text.Render(label)
	}
	idle := m.op == nil
	installLabel := "Install"
	if pkg.Upgradable {
		installLabel = "Upgrade"
	}
	return strings.Join([]string{
		action("i", installLabel, idle && (!pkg.Installed || pkg.Upgradable)),
		action("u", "Remove", idle && pkg.Installed),
		action("c", "Configure", pkg.Installed),
	}, styles.FaintText.Render("  ·  "))
}

func (m Model) renderConfig(pkg backend.Package) string {
	if m.configPkg != pkg.Name {
		return ""
	}
	styles := m.theme.Styles()
	title := styles.AccentText.Bold(true).Render("Configuration")
	switch {
	case m.configLoading:
		return title + "\n" + styles.MutedText.Render(m.spinner.View()+" Loading configuration…")
	case m.configErr != "":
		return title + "\n" + styles.DangerText.Render(m.configErr)
	case m.configEmpty:
		return title + "\n" + styles.MutedText.Render("This app has no configurable settings.")
	case m.editor == nil:
		return ""
	}
	panel := styles.Panel
	if m.focus == focusForm {
		panel = styles.FocusPanel
	} else {
		title += styles.FaintText.Render("  (c to edit)")
	}
	width := max(m.width-6, 20)
	return title + "\n" + panel.Width(width).Render(strings.TrimRight(m.editor.view(styles, width-4), "\n"))
}

// renderHelp renders the help overlay.
func (m Model) renderHelp() string {
	styles := m.theme.Styles()
	content := styles.Text.Bold(true).Render("Keyboard Shortcuts") + "\n\n" +
		m.help.FullHelpView(m.keys.FullHelp()) + "\n\n" +
		styles.FaintText.Render("Press any key to close")
	return overlay(m.theme, m.width, m.height, content, max(m.width-8, 40))
}
