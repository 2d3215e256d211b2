package ui

import (
	"context"
	"errors"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/hatlabs/cockpit-container-apps/internal/backend"
	"github.com/hatlabs/cockpit-container-apps/internal/configform"
	"github.com/hatlabs/cockpit-container-apps/internal/schema"
	"github.com/hatlabs/cockpit-container-apps/internal/state"
)

// Messages

type storesMsg struct {
	stores []backend.Store
	err    error
}

type storeDataMsg struct {
	store string
	err   error
}

type searchTickMsg struct {
	seq int
}

type progressMsg struct {
	seq     int
	percent int
	message string
}

type operationDoneMsg struct {
	seq  int
	kind opKind
	pkg  string
	err  error
}

type configLoadedMsg struct {
	pkg       string
	schema    schema.Schema
	values    schema.Values
	schemaErr error // schema could not be read; treated as no settings
	err       error
}

type configSavedMsg struct {
	pkg    string
	result backend.SaveResult
	err    error
}

type storeSelectedMsg struct {
	id string
}

type startOperationMsg struct {
	kind opKind
	pkg  string
}

// Commands

func listStoresCmd(ctx context.Context, client backend.API) tea.Cmd {
	return func() tea.Msg {
		stores, err := client.ListStores(ctx)
		return storesMsg{stores: stores, err: err}
	}
}

func fetchStoreCmd(ctx context.Context, cache *state.Store, load state.Loader, id string) tea.Cmd {
	return func() tea.Msg {
		_, err := cache.Fetch(ctx, load, id)
		if errors.Is(err, state.ErrStale) {
			return nil
		}
		return storeDataMsg{store: id, err: err}
	}
}

func loadConfigCmd(ctx context.Context, client backend.API, pkg string) tea.Cmd {
	return func() tea.Msg {
		s, err := client.GetConfigSchema(ctx, pkg)
		if err != nil {
			return configLoadedMsg{pkg: pkg, schemaErr: err}
		}
		if s.Empty() {
			return configLoadedMsg{pkg: pkg, schema: s}
		}
		values, err := client.GetConfig(ctx, pkg)
		return configLoadedMsg{pkg: pkg, schema: s, values: values, err: err}
	}
}

func saveConfigCmd(ctx context.Context, form *configform.Form) tea.Cmd {
	return func() tea.Msg {
		res, err := form.Save(ctx)
		return configSavedMsg{pkg: form.Package(), result: res, err: err}
	}
}

// waitForEvent reads the next message of a running operation.
func waitForEvent(events <-chan tea.Msg) tea.Cmd {
	return func() tea.Msg {
		msg, ok := <-events
		if !ok {
			return nil
		}
		return msg
	}
}
