// Package app is the composition root of the container-apps TUI.
//
// # Overview
//
// Run loads the configuration, opens the log file and the preferences
// store, builds the backend client and hands everything to ui.Run. Nothing
// else in the tree reads config or constructs a gateway.
//
// # Startup
//
//  1. config.Load reads ~/.config/container-apps/config.toml and the
//     CONTAINER_APPS_* environment overrides
//  2. logging.File opens the JSON log; the terminal belongs to the UI
//  3. prefs.Open loads theme, install filter and last store
//  4. NewClient wraps a backend.Gateway around the backend command
//  5. StartLocation turns the deep link into the first history entry
//  6. ui.Run blocks until the user quits or the context is cancelled
//
// # Loading Stores
//
// StoreLoader is the state.Loader given to the UI. A named store is loaded
// with a single get-store-data call. The empty store id is used when the
// system has no store definitions; it combines filter-packages and
// list-categories and computes the per-filter category counts locally.
//
// LoadView and Stores serve the headless subcommands in cmd/container-apps,
// which share the same cache and filter engine as the UI.
package app
