package app

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/hatlabs/cockpit-container-apps/internal/backend"
	"github.com/hatlabs/cockpit-container-apps/internal/config"
	"github.com/hatlabs/cockpit-container-apps/internal/logging"
	"github.com/hatlabs/cockpit-container-apps/internal/prefs"
	"github.com/hatlabs/cockpit-container-apps/internal/router"
	"github.com/hatlabs/cockpit-container-apps/internal/state"
	"github.com/hatlabs/cockpit-container-apps/internal/ui"
)

// Options configure the container-apps TUI.
type Options struct {
	ConfigPath string
	PrefsPath  string // empty uses ~/.config/container-apps/prefs.toml
	Store      string // overrides the store of Location
	Location   string // deep link such as "/app/signalk-server?store=marine"
}

// Run boots the TUI until the user quits or the context is cancelled.
func Run(ctx context.Context, opts Options) error {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log, logCloser, err := logging.File(cfg.LogFile, cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("open log: %w", err)
	}
	defer logCloser.Close()

	prefsPath := opts.PrefsPath
	if prefsPath == "" {
		prefsPath = prefs.DefaultPath()
	}
	userPrefs := prefs.Open(prefsPath)
	defer func() {
		if err := userPrefs.Close(); err != nil {
			log.Warn().Err(err).Msg("flush preferences")
		}
	}()

	client := NewClient(cfg, log)
	loc := StartLocation(opts.Location, opts.Store, userPrefs.Get())
	log.Info().
		Str("backend", cfg.BackendCommand).
		Str("location", loc.String()).
		Msg("starting")

	return ui.Run(ui.Options{
		Context:        ctx,
		Client:         client,
		Cache:          new(state.Store),
		Loader:         StoreLoader(client),
		History:        router.NewHistory(loc),
		Prefs:          userPrefs,
		Logger:         log,
		DefaultStore:   cfg.DefaultStore,
		SearchDebounce: cfg.SearchDebounce,
	})
}

// NewClient builds the backend client described by cfg.
func NewClient(cfg config.Config, log zerolog.Logger) *backend.Client {
	gwLog := log.With().Str("component", "gateway").Logger()
	return backend.NewClient(backend.NewGateway(backend.GatewayOptions{
		Command:   cfg.BackendCommand,
		Superuser: cfg.SuperuserCommand,
		Timeout:   cfg.CommandTimeout,
		Logger:    &gwLog,
	}))
}

// StartLocation is the first history entry: the deep link, with the store
// override applied and the saved install filter filled in when the link
// names none.
func StartLocation(raw, store string, p prefs.Prefs) router.Location {
	loc := router.ParseLocation(raw)
	if store != "" {
		loc.Store = store
	}
	if loc.Filter == "" {
		if f, ok := state.ParseInstallFilter(p.InstallFilter); ok && f != state.FilterAll {
			loc.Filter = f.String()
		}
	}
	return loc
}
