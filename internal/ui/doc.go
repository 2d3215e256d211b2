// Package ui provides the terminal interface for browsing and managing
// container apps.
//
// # Architecture Overview
//
// The UI is a single Bubble Tea model. Backend calls run as tea.Cmd
// closures and report back through typed messages, so Update never blocks.
// Navigation goes through a router.Router over a router.History; router
// notifications are queued in a small inbox and handled after each update.
//
// # Package Structure
//
//   - model.go: Model, Options, Init/Update and the message handlers
//   - input_handlers.go: key handling per focus area and route
//   - view.go: store, category and app screens
//   - header.go: status bar, breadcrumb and footer
//   - form_view.go: widgets for the configuration form
//   - modal.go: store switcher and confirmation dialog
//   - operation.go: streaming install and remove
//   - theme.go, style_helpers.go, keys.go: styling and key bindings
//
// # Screens
//
//   - Store: categories with counts selected by the install filter, plus an
//     "All apps" entry. A search lists matching packages instead.
//   - Category: the derived package list for one category.
//   - App: details, install and remove with a progress bar, and the
//     configuration form.
//
// # Data Flow
//
// The active store's data is fetched once into a state.Store; filter,
// category and search changes are derived from the cache without another
// backend call. While the cache is cold, search input waits for typing to
// settle before it is applied. Installs and removes invalidate the cache
// and trigger a reload.
//
// # Preferences
//
// Theme, install filter and last store are written through a prefs.Store
// as they change.
package ui
