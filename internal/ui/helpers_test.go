package ui

import (
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/hatlabs/cockpit-container-apps/internal/backend"
)

var ansiPattern = regexp.MustCompile(`\x1b\[[0-9;]*m`)

func containsText(rendered, want string) bool {
	return strings.Contains(ansiPattern.ReplaceAllString(rendered, ""), want)
}

func TestHumanizeDuration(t *testing.T) {
	tests := []struct {
		in   time.Duration
		want string
	}{
		{500 * time.Millisecond, "now"},
		{42 * time.Second, "42s"},
		{5 * time.Minute, "5m"},
		{2 * time.Hour, "2h"},
		{2*time.Hour + 15*time.Minute, "2h 15m"},
		{72 * time.Hour, "3d"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, humanizeDuration(tt.in), "humanizeDuration(%v)", tt.in)
	}
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "signal…", truncate("signalk-server", 7))
	assert.Equal(t, "short", truncate("short", 10))
	assert.Empty(t, truncate("anything", 0))
	assert.Equal(t, "/var/…/data", truncateMiddle("/var/lib/container-apps/data", 11))
}

func TestPackageStatus(t *testing.T) {
	pkg := backend.Package{Name: "grafana", Installed: true}
	assert.Equal(t, "installed", packageStatus(pkg, nil))
	pkg.Upgradable = true
	assert.Equal(t, "upgradable", packageStatus(pkg, nil))
	assert.Equal(t, "removing", packageStatus(pkg, &operation{kind: opRemove, pkg: "grafana"}))
	assert.Equal(t, "available", packageStatus(backend.Package{Name: "opencpn"}, &operation{kind: opInstall, pkg: "grafana"}),
		"another package's operation")
}

func TestPickStore(t *testing.T) {
	stores := []backend.Store{{ID: "marine"}, {ID: "dev"}}
	tests := []struct {
		name, last, configured, want string
	}{
		{"last wins", "dev", "marine", "dev"},
		{"configured when last is gone", "removed", "dev", "dev"},
		{"first otherwise", "", "", "marine"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, pickStore(stores, tt.last, tt.configured))
		})
	}
	assert.Empty(t, pickStore(nil, "dev", "marine"))
}
