package router

import (
	"net/url"
	"strings"

	"github.com/hatlabs/cockpit-container-apps/internal/backend"
)

// Location is the external, durable form of the navigation state: path
// segments plus the store and filter query parameters.
type Location struct {
	Path   []string
	Store  string
	Filter string
}

// ParseLocation reads a location such as "/category/navigation?store=marine".
// Malformed input yields the root location.
func ParseLocation(raw string) Location {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return Location{}
	}
	var loc Location
	for _, seg := range strings.Split(u.EscapedPath(), "/") {
		if seg == "" {
			continue
		}
		if unescaped, err := url.PathUnescape(seg); err == nil {
			seg = unescaped
		}
		loc.Path = append(loc.Path, seg)
	}
	q := u.Query()
	loc.Store = strings.TrimSpace(q.Get("store"))
	loc.Filter = strings.TrimSpace(q.Get("filter"))
	return loc
}

// String renders l with escaped path segments. Empty query parameters are
// omitted.
func (l Location) String() string {
	var b strings.Builder
	for _, seg := range l.Path {
		b.WriteByte('/')
		b.WriteString(url.PathEscape(seg))
	}
	if b.Len() == 0 {
		b.WriteByte('/')
	}
	q := url.Values{}
	if l.Store != "" {
		q.Set("store", l.Store)
	}
	if l.Filter != "" {
		q.Set("filter", l.Filter)
	}
	if len(q) > 0 {
		b.WriteByte('?')
		b.WriteString(q.Encode())
	}
	return b.String()
}

// Equal reports whether both locations address the same view.
func (l Location) Equal(o Location) bool {
	if l.Store != o.Store || l.Filter != o.Filter || len(l.Path) != len(o.Path) {
		return false
	}
	for i := range l.Path {
		if l.Path[i] != o.Path[i] {
			return false
		}
	}
	return true
}

// State is the navigation state. It is implemented only by StoreRoute,
// CategoryRoute and AppRoute.
type State interface {
	// Route names the variant: "store", "category" or "app".
	Route() string
	sealed()
}

// StoreRoute is the store's category overview.
type StoreRoute struct{}

// CategoryRoute lists the packages of one category.
type CategoryRoute struct {
	Category string
}

// AppRoute shows one package. Package is filled lazily once the package is
// in the cache and may be nil right after navigation.
type AppRoute struct {
	AppName string
	Package *backend.Package
}

func (StoreRoute) Route() string    { return "store" }
func (CategoryRoute) Route() string { return "category" }
func (AppRoute) Route() string      { return "app" }

func (StoreRoute) sealed()    {}
func (CategoryRoute) sealed() {}
func (AppRoute) sealed()      {}

// Parse maps path segments to a State. Unknown shapes and missing
// identifiers fall back to StoreRoute.
func Parse(path []string) State {
	if len(path) != 2 || strings.TrimSpace(path[1]) == "" {
		return StoreRoute{}
	}
	switch path[0] {
	case "category":
		return CategoryRoute{Category: path[1]}
	case "app":
		return AppRoute{AppName: path[1]}
	}
	return StoreRoute{}
}

// Build is the inverse of Parse. A category or app state without its
// identifier builds the store path.
func Build(s State) []string {
	switch st := s.(type) {
	case CategoryRoute:
		if strings.TrimSpace(st.Category) != "" {
			return []string{"category", st.Category}
		}
	case AppRoute:
		if strings.TrimSpace(st.AppName) != "" {
			return []string{"app", st.AppName}
		}
	}
	return nil
}
