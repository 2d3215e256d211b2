package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/hatlabs/cockpit-container-apps/internal/backend"
)

var (
	dimStyle     = lipgloss.NewStyle().Faint(true)
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("2")) // green
	warnStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("3")) // yellow
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("1")) // red
)

// newProgressWriter prints one line per progress event. Repeated events
// with the same percentage and message are collapsed.
func newProgressWriter(w io.Writer) backend.ProgressFunc {
	lastPct, lastMsg := -1, ""
	return func(pct int, msg string) {
		msg = strings.TrimSpace(msg)
		if pct == lastPct && msg == lastMsg {
			return
		}
		lastPct, lastMsg = pct, msg
		fmt.Fprintf(w, "  %s %s\n", dimStyle.Render(fmt.Sprintf("[%3d%%]", pct)), msg)
	}
}
