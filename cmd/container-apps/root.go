package main

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/hatlabs/cockpit-container-apps/internal/app"
	"github.com/hatlabs/cockpit-container-apps/internal/backend"
	"github.com/hatlabs/cockpit-container-apps/internal/config"
	"github.com/hatlabs/cockpit-container-apps/internal/logging"
)

// env carries what every subcommand needs. Tests replace newAPI and runTUI.
type env struct {
	configPath string
	newAPI     func(cfg config.Config, log zerolog.Logger) backend.API
	runTUI     func(ctx context.Context, opts app.Options) error
}

func defaultEnv() *env {
	return &env{
		newAPI: func(cfg config.Config, log zerolog.Logger) backend.API { return app.NewClient(cfg, log) },
		runTUI: app.Run,
	}
}

// setup loads the config and builds a client that logs to stderr.
func (e *env) setup(cmd *cobra.Command) (config.Config, backend.API, zerolog.Logger, error) {
	cfg, err := config.Load(e.configPath)
	if err != nil {
		return config.Config{}, nil, zerolog.Nop(), fmt.Errorf("load config: %w", err)
	}
	log := logging.Console(cmd.ErrOrStderr(), cfg.LogLevel)
	return cfg, e.newAPI(cfg, log), log, nil
}

func newRootCmd(e *env) *cobra.Command {
	var opts app.Options
	root := &cobra.Command{
		Use:   "container-apps",
		Short: "Browse, install and configure container apps",
		Long: "container-apps is a terminal front end for the cockpit-container-apps backend.\n" +
			"Without a subcommand it starts the interactive browser.",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.ConfigPath = e.configPath
			return e.runTUI(cmd.Context(), opts)
		},
	}
	root.PersistentFlags().StringVar(&e.configPath, "config", "", "config file (default "+config.DefaultPath()+")")
	root.Flags().StringVar(&opts.PrefsPath, "prefs", "", "preferences file")
	root.Flags().StringVar(&opts.Store, "store", "", "store to open")
	root.Flags().StringVar(&opts.Location, "location", "", `start location, e.g. "/app/signalk-server?store=marine"`)

	root.AddCommand(
		newStoresCmd(e),
		newAppsCmd(e),
		newOperationCmd(e, opInstall),
		newOperationCmd(e, opRemove),
		newConfigCmd(e),
		newSchemaCmd(),
		newVersionCmd(e),
	)
	return root
}
