package state

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/hatlabs/cockpit-container-apps/internal/backend"
)

// ErrStale is returned by Fetch when a newer request superseded this one.
// The result was discarded.
var ErrStale = errors.New("store data superseded by a newer request")

// Loader fetches the complete package set of one store.
type Loader func(ctx context.Context, storeID string) (backend.StoreData, error)

// Ticket identifies one store-level request.
type Ticket struct {
	seq   uint64
	store string
}

// Store returns the store id the ticket was issued for.
func (t Ticket) Store() string { return t.store }

// Snapshot is a point-in-time copy of the cache state.
type Snapshot struct {
	ActiveStore         string
	Data                backend.StoreData
	Cached              bool
	Loading             bool
	LastUpdated         time.Time
	LastError           error
	ConsecutiveFailures int
}

// View is a filtered view derived from the cached store data.
type View struct {
	Store      backend.Store
	Packages   []backend.Package
	Categories []backend.Category // Count selected by the install filter
	Total      int                // packages in the store before filtering
}

// Store caches unfiltered store data keyed by store id. Only the active
// store is ever cached; switching stores drops the cache.
type Store struct {
	mu          sync.RWMutex
	active      string
	seq         uint64
	cache       map[string]backend.StoreData
	loading     bool
	lastUpdated time.Time
	lastErr     error
	failures    int
}

// Active returns the active store id.
func (s *Store) Active() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.active
}

// Switch makes id the active store. It reports whether the store changed;
// a change drops the cache and supersedes requests in flight.
func (s *Store) Switch(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.switchLocked(id)
}

func (s *Store) switchLocked(id string) bool {
	if id == s.active && s.cache != nil {
		return false
	}
	changed := id != s.active
	s.active = id
	s.cache = make(map[string]backend.StoreData)
	if changed {
		s.seq++
		s.loading = false
	}
	return changed
}

// Cached reports whether id's data is in the cache.
func (s *Store) Cached(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.cache[id]
	return ok
}

// Begin starts a request for id, making it the active store. Earlier tickets
// become stale.
func (s *Store) Begin(id string) Ticket {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.switchLocked(id)
	s.seq++
	s.loading = true
	return Ticket{seq: s.seq, store: id}
}

// Apply stores data for t. It returns false, leaving the cache untouched,
// when t has been superseded.
func (s *Store) Apply(t Ticket, data backend.StoreData) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.currentLocked(t) {
		return false
	}
	s.cache[t.store] = cloneStoreData(data)
	s.loading = false
	s.lastErr = nil
	s.lastUpdated = time.Now()
	s.failures = 0
	return true
}

// Fail records err for t. Cached data is kept. It returns false when t has
// been superseded.
func (s *Store) Fail(t Ticket, err error) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.currentLocked(t) {
		return false
	}
	s.loading = false
	s.lastErr = err
	s.lastUpdated = time.Now()
	s.failures++
	return true
}

func (s *Store) currentLocked(t Ticket) bool {
	return t.seq == s.seq && t.store == s.active
}

// Fetch loads id through load and applies the result. A superseded result
// is dropped and ErrStale returned.
func (s *Store) Fetch(ctx context.Context, load Loader, id string) (backend.StoreData, error) {
	t := s.Begin(id)
	data, err := load(ctx, id)
	if err != nil {
		if !s.Fail(t, err) {
			return backend.StoreData{}, ErrStale
		}
		return backend.StoreData{}, fmt.Errorf("load store %q: %w", id, err)
	}
	if !s.Apply(t, data) {
		return backend.StoreData{}, ErrStale
	}
	return data, nil
}

// View derives a filtered view of the active store. It returns false when
// the active store is not cached; no fetch is ever issued here.
func (s *Store) View(q Query) (View, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	data, ok := s.cache[s.active]
	if !ok {
		return View{}, false
	}
	return View{
		Store:      data.Store,
		Packages:   Derive(data.Packages, q),
		Categories: WithCounts(data.Categories, q.Install),
		Total:      len(data.Packages),
	}, true
}

// Lookup finds a package by name in the active store's cache.
func (s *Store) Lookup(name string) (backend.Package, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	data, ok := s.cache[s.active]
	if !ok {
		return backend.Package{}, false
	}
	for _, p := range data.Packages {
		if p.Name == name {
			return clonePackage(p), true
		}
	}
	return backend.Package{}, false
}

// Invalidate drops id's cached data, for example after an install changed
// the installed set. Requests in flight for it become stale.
func (s *Store) Invalidate(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.cache, id)
	if id == s.active {
		s.seq++
		s.loading = false
	}
}

// Snapshot returns a copy of the current state.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := Snapshot{
		ActiveStore:         s.active,
		Loading:             s.loading,
		LastUpdated:         s.lastUpdated,
		ConsecutiveFailures: s.failures,
	}
	if data, ok := s.cache[s.active]; ok {
		snap.Data = cloneStoreData(data)
		snap.Cached = true
	}
	if s.lastErr != nil {
		snap.LastError = fmt.Errorf("%w", s.lastErr)
	}
	return snap
}

func cloneStoreData(d backend.StoreData) backend.StoreData {
	out := d
	if d.Packages != nil {
		out.Packages = make([]backend.Package, len(d.Packages))
		for i, p := range d.Packages {
			out.Packages[i] = clonePackage(p)
		}
	}
	if d.Categories != nil {
		out.Categories = append([]backend.Category(nil), d.Categories...)
	}
	return out
}
