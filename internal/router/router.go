package router

import (
	"sync"

	"github.com/hatlabs/cockpit-container-apps/internal/backend"
	"github.com/hatlabs/cockpit-container-apps/internal/state"
)

// LookupFunc finds a package in the cache.
type LookupFunc func(name string) (backend.Package, bool)

// Change describes the router after a transition.
type Change struct {
	State        State
	Store        string
	Filter       state.InstallFilter
	StoreChanged bool
	// External is set when the change came from a location notification
	// rather than a navigation method.
	External bool
}

// Options configure a Router.
type Options struct {
	// Lookup resolves app routes from the cache. Nil never resolves.
	Lookup LookupFunc
	// NeedPackage is called when an app route names a package that is not
	// cached. The callee loads it and then calls Resolve.
	NeedPackage func(name string)
}

// Router keeps the navigation state and the external location in sync.
type Router struct {
	mu      sync.Mutex
	history *History
	opts    Options

	state  State
	store  string
	filter state.InstallFilter

	subs     map[int]func(Change)
	nextSub  int
	unlisten func()
}

// New builds a router over h and applies h's current location.
func New(h *History, opts Options) *Router {
	r := &Router{
		history: h,
		opts:    opts,
		state:   StoreRoute{},
		filter:  state.FilterAll,
		subs:    make(map[int]func(Change)),
	}
	loc := h.Current()
	st, _ := r.resolveLocked(Parse(loc.Path))
	r.state = st
	r.store = loc.Store
	r.filter, _ = state.ParseInstallFilter(loc.Filter)
	r.unlisten = h.Listen(func(Location) { r.onLocationChanged() })
	return r
}

// Close stops listening to the history.
func (r *Router) Close() {
	if r.unlisten != nil {
		r.unlisten()
	}
}

// State returns the current state.
func (r *Router) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// Store returns the store id from the location.
func (r *Router) Store() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.store
}

// Filter returns the install filter from the location.
func (r *Router) Filter() state.InstallFilter {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.filter
}

// Location returns the location the current state builds.
func (r *Router) Location() Location {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.locationLocked()
}

func (r *Router) locationLocked() Location {
	loc := Location{Path: Build(r.state), Store: r.store}
	if r.filter != state.FilterAll && r.filter != "" {
		loc.Filter = string(r.filter)
	}
	return loc
}

// Subscribe registers fn for every state change and returns a function
// that removes it.
func (r *Router) Subscribe(fn func(Change)) (unsubscribe func()) {
	r.mu.Lock()
	defer r.mu.Unlock()
	id := r.nextSub
	r.nextSub++
	r.subs[id] = fn
	return func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		delete(r.subs, id)
	}
}

// Home navigates to the store overview.
func (r *Router) Home() { r.navigate(StoreRoute{}, nil, nil) }

// SelectCategory navigates to a category's package list.
func (r *Router) SelectCategory(id string) { r.navigate(CategoryRoute{Category: id}, nil, nil) }

// SelectApp navigates to a package's detail view.
func (r *Router) SelectApp(name string) { r.navigate(AppRoute{AppName: name}, nil, nil) }

// SwitchStore makes id the active store and returns to its overview.
func (r *Router) SwitchStore(id string) { r.navigate(StoreRoute{}, &id, nil) }

// SetFilter changes the install filter and keeps the current view.
func (r *Router) SetFilter(f state.InstallFilter) {
	r.mu.Lock()
	st := r.state
	r.mu.Unlock()
	r.navigate(st, nil, &f)
}

// Back moves to the previous location. The change arrives through the
// history notification.
func (r *Router) Back() bool { return r.history.Back() }

// Forward moves to the next location.
func (r *Router) Forward() bool { return r.history.Forward() }

func (r *Router) navigate(next State, store *string, filter *state.InstallFilter) {
	r.mu.Lock()
	change := Change{}
	if store != nil && *store != r.store {
		r.store = *store
		change.StoreChanged = true
	}
	if filter != nil {
		r.filter = *filter
	}
	st, missing := r.resolveLocked(next)
	r.state = st
	loc := r.locationLocked()
	change.State, change.Store, change.Filter = r.state, r.store, r.filter
	r.mu.Unlock()

	r.history.Push(loc)
	r.publish(change)
	r.requestPackage(missing)
}

// onLocationChanged re-reads the history's current location, never the
// router's own state.
func (r *Router) onLocationChanged() {
	loc := r.history.Current()
	filter, _ := state.ParseInstallFilter(loc.Filter)

	r.mu.Lock()
	change := Change{External: true, StoreChanged: loc.Store != r.store}
	r.store = loc.Store
	r.filter = filter
	st, missing := r.resolveLocked(Parse(loc.Path))
	r.state = st
	change.State, change.Store, change.Filter = r.state, r.store, r.filter
	r.mu.Unlock()

	r.publish(change)
	r.requestPackage(missing)
}

// resolveLocked fills AppRoute.Package from the cache. It returns the name
// of a package that still has to be loaded, or "".
func (r *Router) resolveLocked(s State) (State, string) {
	app, ok := s.(AppRoute)
	if !ok || app.Package != nil {
		return s, ""
	}
	if r.opts.Lookup != nil {
		if pkg, found := r.opts.Lookup(app.AppName); found {
			app.Package = &pkg
			return app, ""
		}
	}
	return app, app.AppName
}

// Resolve fills the current app route's package once the cache has it. It
// does not touch the history. It reports whether the state changed.
func (r *Router) Resolve(lookup LookupFunc) bool {
	r.mu.Lock()
	app, ok := r.state.(AppRoute)
	if !ok || lookup == nil {
		r.mu.Unlock()
		return false
	}
	pkg, found := lookup(app.AppName)
	if !found {
		r.mu.Unlock()
		return false
	}
	app.Package = &pkg
	r.state = app
	change := Change{State: r.state, Store: r.store, Filter: r.filter}
	r.mu.Unlock()

	r.publish(change)
	return true
}

func (r *Router) requestPackage(name string) {
	if name != "" && r.opts.NeedPackage != nil {
		r.opts.NeedPackage(name)
	}
}

func (r *Router) publish(c Change) {
	r.mu.Lock()
	fns := make([]func(Change), 0, len(r.subs))
	for id := 0; id < r.nextSub; id++ {
		if fn, ok := r.subs[id]; ok {
			fns = append(fns, fn)
		}
	}
	r.mu.Unlock()
	for _, fn := range fns {
		fn(c)
	}
}
