package state

import (
	"sort"
	"strings"

	"github.com/hatlabs/cockpit-container-apps/internal/backend"
)

// InstallFilter is the three-way install-status view filter.
type InstallFilter string

const (
	FilterAll       InstallFilter = "all"
	FilterAvailable InstallFilter = "available"
	FilterInstalled InstallFilter = "installed"
)

var installFilters = []InstallFilter{FilterAll, FilterAvailable, FilterInstalled}

// ParseInstallFilter reads s. Empty or unknown values yield FilterAll and
// false.
func ParseInstallFilter(s string) (InstallFilter, bool) {
	for _, f := range installFilters {
		if strings.EqualFold(strings.TrimSpace(s), string(f)) {
			return f, true
		}
	}
	return FilterAll, false
}

// Next cycles all -> available -> installed -> all.
func (f InstallFilter) Next() InstallFilter {
	for i, known := range installFilters {
		if known == f {
			return installFilters[(i+1)%len(installFilters)]
		}
	}
	return FilterAll
}

func (f InstallFilter) String() string {
	if f == "" {
		return string(FilterAll)
	}
	return string(f)
}

// Label is the human-readable name.
func (f InstallFilter) Label() string {
	switch f {
	case FilterAvailable:
		return "Available"
	case FilterInstalled:
		return "Installed"
	}
	return "All"
}

func (f InstallFilter) keep(p backend.Package) bool {
	switch f {
	case FilterAvailable:
		return !p.Installed
	case FilterInstalled:
		return p.Installed
	}
	return true
}

// Query selects a derived view. Empty fields do not filter.
type Query struct {
	Category string
	Install  InstallFilter
	Search   string
}

// Derive applies category, install-status and search filtering, in that
// order, and sorts the result by name. The input is not modified.
func Derive(packages []backend.Package, q Query) []backend.Package {
	search := strings.ToLower(strings.TrimSpace(q.Search))
	out := make([]backend.Package, 0, len(packages))
	for _, p := range packages {
		if q.Category != "" && !p.HasCategory(q.Category) {
			continue
		}
		if !q.Install.keep(p) {
			continue
		}
		if search != "" &&
			!strings.Contains(strings.ToLower(p.Name), search) &&
			!strings.Contains(strings.ToLower(p.Summary), search) {
			continue
		}
		out = append(out, clonePackage(p))
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// CategoryCount selects the precomputed count for f. Categories from sources
// that only report a single count fall back to it for FilterAll.
func CategoryCount(c backend.Category, f InstallFilter) int {
	switch f {
	case FilterAvailable:
		return c.CountAvailable
	case FilterInstalled:
		return c.CountInstalled
	}
	if c.CountAll == 0 && c.CountAvailable == 0 && c.CountInstalled == 0 {
		return c.Count
	}
	return c.CountAll
}

// WithCounts returns copies of cats with Count set for f.
func WithCounts(cats []backend.Category, f InstallFilter) []backend.Category {
	out := make([]backend.Category, len(cats))
	for i, c := range cats {
		c.Count = CategoryCount(c, f)
		out[i] = c
	}
	return out
}

func clonePackage(p backend.Package) backend.Package {
	if p.Categories != nil {
		p.Categories = append([]string(nil), p.Categories...)
	}
	return p
}
