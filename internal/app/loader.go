package app

import (
	"context"
	"fmt"

	"github.com/hatlabs/cockpit-container-apps/internal/backend"
	"github.com/hatlabs/cockpit-container-apps/internal/state"
)

// StoreLoader returns the cache loader for client. Named stores come from
// get-store-data in one call. The empty store id, used when the system has
// no store definitions, lists every container package instead.
func StoreLoader(client backend.API) state.Loader {
	return func(ctx context.Context, storeID string) (backend.StoreData, error) {
		if storeID != "" {
			return client.GetStoreData(ctx, storeID)
		}
		return loadAll(ctx, client)
	}
}

func loadAll(ctx context.Context, client backend.API) (backend.StoreData, error) {
	result, err := client.FilterPackages(ctx, backend.FilterQuery{})
	if err != nil {
		return backend.StoreData{}, fmt.Errorf("list packages: %w", err)
	}
	cats, err := client.ListCategories(ctx, "")
	if err != nil {
		return backend.StoreData{}, fmt.Errorf("list categories: %w", err)
	}
	return backend.StoreData{
		Packages:   result.Packages,
		Categories: countCategories(cats, result.Packages),
	}, nil
}

// countCategories fills the per-filter counts that list-categories does not
// report, from the packages that were actually returned.
func countCategories(cats []backend.Category, pkgs []backend.Package) []backend.Category {
	out := make([]backend.Category, len(cats))
	for i, c := range cats {
		c.CountAll, c.CountAvailable, c.CountInstalled = 0, 0, 0
		for _, p := range pkgs {
			if !p.HasCategory(c.ID) {
				continue
			}
			c.CountAll++
			if p.Installed {
				c.CountInstalled++
			} else {
				c.CountAvailable++
			}
		}
		out[i] = c
	}
	return out
}

// Stores lists the configured stores, or nil when the system has none.
func Stores(ctx context.Context, client backend.API) ([]backend.Store, error) {
	stores, err := client.ListStores(ctx)
	if err != nil {
		return nil, fmt.Errorf("list stores: %w", err)
	}
	return stores, nil
}

// LoadView loads storeID into a fresh cache and derives q from it, for the
// headless commands.
func LoadView(ctx context.Context, client backend.API, storeID string, q state.Query) (state.View, error) {
	cache := new(state.Store)
	cache.Switch(storeID)
	if _, err := cache.Fetch(ctx, StoreLoader(client), storeID); err != nil {
		return state.View{}, err
	}
	view, ok := cache.View(q)
	if !ok {
		return state.View{}, fmt.Errorf("store %q is not loaded", storeID)
	}
	return view, nil
}
