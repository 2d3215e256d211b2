// Package state caches store data for the UI and derives filtered views
// from it.
//
// # Overview
//
// The first view of a store fetches its complete, unfiltered package set and
// category metadata in one backend round trip. Every later change to the
// category, install-status or search filter is answered from the cache by
// re-deriving a view in-process. Switching the active store drops the cache.
//
// # Core Types
//
// Store:
//   - Thread-safe cache keyed by store id, plus the active store id
//   - Uses sync.RWMutex; views and lookups take the read lock
//   - Zero value is ready to use
//
// Snapshot:
//   - Copy of the active store's data, loading flag and last error
//   - Returned by value with cloned slices
//
// View:
//   - Packages filtered and sorted by name
//   - Categories with Count selected for the install filter
//
// # Request Sequencing
//
// Store-level fetches are asynchronous and may overlap when the user
// switches stores quickly. Each Begin issues a Ticket with a monotonically
// increasing sequence number; Apply and Fail only take effect for the most
// recent ticket of the active store:
//
//	t := store.Begin("marine")
//	data, err := client.GetStoreData(ctx, "marine")
//	if err != nil {
//		store.Fail(t, err)
//		return
//	}
//	if !store.Apply(t, data) {
//		// superseded by a newer request; dropped
//	}
//
// Fetch wraps the three calls and returns ErrStale for dropped results.
//
// # Derivation Rules
//
// Filters are conjunctive and applied in a fixed order:
//
//  1. Category: keep packages tagged with the category id
//  2. Install status: all, available (not installed) or installed
//  3. Search: case-insensitive substring of name or summary
//
// Category counts are never recomputed. The backend precomputes
// count_all, count_available and count_installed; the view selects one.
//
// # Error Propagation
//
// A failed fetch keeps the previously cached data and records the error,
// so the UI can keep showing the last good list next to the failure.
package state
