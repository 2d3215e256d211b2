package backend

import "github.com/hatlabs/cockpit-container-apps/internal/schema"

// Package is a container-app package as reported by the backend. Name is its
// stable identity.
type Package struct {
	Name       string   `json:"name"`
	Version    string   `json:"version"`
	Summary    string   `json:"summary"`
	Section    string   `json:"section"`
	Installed  bool     `json:"installed"`
	Upgradable bool     `json:"upgradable"`
	Categories []string `json:"categories"`
}

// HasCategory reports whether the package is tagged with id.
func (p Package) HasCategory(id string) bool {
	for _, c := range p.Categories {
		if c == id {
			return true
		}
	}
	return false
}

// StoreFilters mirrors the store's package selection rules.
type StoreFilters struct {
	IncludeOrigins  []string `json:"include_origins"`
	IncludeSections []string `json:"include_sections"`
	IncludeTags     []string `json:"include_tags"`
	IncludePackages []string `json:"include_packages"`
}

// CategoryMetadata overrides auto-derived category labels.
type CategoryMetadata struct {
	ID          string `json:"id"`
	Label       string `json:"label"`
	Description string `json:"description,omitempty"`
	Icon        string `json:"icon,omitempty"`
}

// Store is a curated, filter-defined collection of packages.
type Store struct {
	ID               string             `json:"id"`
	Name             string             `json:"name"`
	Description      string             `json:"description,omitempty"`
	Icon             string             `json:"icon,omitempty"`
	Banner           string             `json:"banner,omitempty"`
	Filters          StoreFilters       `json:"filters"`
	CategoryMetadata []CategoryMetadata `json:"category_metadata,omitempty"`
}

// Category groups packages within a store. The three counts are precomputed
// per install-status bucket; Count is the backend's all-packages count.
type Category struct {
	ID             string `json:"id"`
	Label          string `json:"label"`
	Icon           string `json:"icon,omitempty"`
	Description    string `json:"description,omitempty"`
	Count          int    `json:"count"`
	CountAll       int    `json:"count_all"`
	CountAvailable int    `json:"count_available"`
	CountInstalled int    `json:"count_installed"`
}

// StoreData is the consolidated get-store-data response.
type StoreData struct {
	Store      Store      `json:"store"`
	Packages   []Package  `json:"packages"`
	Categories []Category `json:"categories"`
}

// FilterQuery configures filter-packages.
type FilterQuery struct {
	Store    string
	Repo     string
	Category string
	Tab      string // "installed" or "upgradable"
	Search   string
	Limit    int
}

// FilterResult mirrors filter-packages output.
type FilterResult struct {
	Packages       []Package `json:"packages"`
	TotalCount     int       `json:"total_count"`
	AppliedFilters []string  `json:"applied_filters"`
	Limit          int       `json:"limit"`
	Limited        bool      `json:"limited"`
}

// SaveResult is the outcome of a successful set-config. Warning is set when
// the values were persisted but a follow-up step (service restart) failed.
type SaveResult struct {
	Warning string `json:"warning,omitempty"`
}

// VersionInfo mirrors the version command.
type VersionInfo struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

type schemaResponse struct {
	Success bool          `json:"success"`
	Schema  schema.Schema `json:"schema"`
}

type configResponse struct {
	Success bool          `json:"success"`
	Config  schema.Values `json:"config"`
}

type setConfigResponse struct {
	Success bool   `json:"success"`
	Warning string `json:"warning,omitempty"`
}
