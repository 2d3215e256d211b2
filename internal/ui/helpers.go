package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/hatlabs/cockpit-container-apps/internal/backend"
)

func humanizeDuration(d time.Duration) string {
	if d < time.Second {
		return "now"
	}
	switch {
	case d < time.Minute:
		return fmt.Sprintf("%ds", int(d.Seconds()))
	case d < time.Hour:
		return fmt.Sprintf("%dm", int(d.Minutes()))
	case d < 24*time.Hour:
		h := int(d.Hours())
		if m := int(d.Minutes()) % 60; m > 0 {
			return fmt.Sprintf("%dh %dm", h, m)
		}
		return fmt.Sprintf("%dh", h)
	}
	return fmt.Sprintf("%dd", int(d.Hours())/24)
}

// truncate shortens s to limit runes, marking the cut with an ellipsis.
func truncate(s string, limit int) string {
	if limit <= 0 {
		return ""
	}
	r := []rune(s)
	if len(r) <= limit {
		return s
	}
	if limit <= 1 {
		return string(r[:limit])
	}
	return string(r[:limit-1]) + "…"
}

// truncateMiddle keeps both ends of value, which suits paths and ids.
func truncateMiddle(value string, limit int) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return ""
	}
	r := []rune(value)
	if len(r) <= limit {
		return value
	}
	if limit <= 3 {
		return string(r[:limit])
	}
	head := (limit - 1) / 2
	tail := limit - 1 - head
	return string(r[:head]) + "…" + string(r[len(r)-tail:])
}

// packageStatus is the badge key for p; a running operation wins.
func packageStatus(p backend.Package, op *operation) string {
	if op != nil && op.pkg == p.Name {
		if op.kind == opRemove {
			return "removing"
		}
		return "installing"
	}
	switch {
	case p.Upgradable:
		return "upgradable"
	case p.Installed:
		return "installed"
	}
	return "available"
}
