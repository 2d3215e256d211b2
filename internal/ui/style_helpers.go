package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// bgStyle renders segments on a shared background. lipgloss resets between
// styled segments, which otherwise leaves unpainted gaps at every space.
type bgStyle struct {
	bg    lipgloss.Color
	space string
}

func newBgStyle(bgColor string) bgStyle {
	bg := lipgloss.Color(bgColor)
	return bgStyle{
		bg:    bg,
		space: lipgloss.NewStyle().Background(bg).Render(" "),
	}
}

// Render paints every word of text with style and joins them with painted
// spaces.
func (b bgStyle) Render(text string, style lipgloss.Style) string {
	if text == "" {
		return ""
	}
	wordStyle := style.Background(b.bg)
	if !strings.Contains(text, " ") {
		return wordStyle.Render(text)
	}
	words := strings.Split(text, " ")
	for i, w := range words {
		if w != "" {
			words[i] = wordStyle.Render(w)
		}
	}
	return strings.Join(words, b.space)
}

func (b bgStyle) Space() string { return b.space }

func (b bgStyle) Spaces(n int) string {
	if n <= 0 {
		return ""
	}
	return lipgloss.NewStyle().Background(b.bg).Render(strings.Repeat(" ", n))
}

// Join joins parts with a painted separator.
func (b bgStyle) Join(parts []string, sep string) string {
	return strings.Join(parts, lipgloss.NewStyle().Background(b.bg).Render(sep))
}

// FillLine pads content to width with the background color.
func (b bgStyle) FillLine(content string, width int) string {
	return lipgloss.NewStyle().Background(b.bg).Width(width).Render(content)
}
