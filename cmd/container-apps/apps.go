package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hatlabs/cockpit-container-apps/internal/app"
	"github.com/hatlabs/cockpit-container-apps/internal/backend"
	"github.com/hatlabs/cockpit-container-apps/internal/state"
)

func newAppsCmd(e *env) *cobra.Command {
	var store, category, filter, search string
	cmd := &cobra.Command{
		Use:   "apps",
		Short: "List the apps of a store",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			install, ok := state.ParseInstallFilter(filter)
			if !ok && filter != "" {
				return fmt.Errorf("unknown filter %q (want all, available or installed)", filter)
			}
			cfg, api, log, err := e.setup(cmd)
			if err != nil {
				return err
			}
			if store == "" {
				if store, err = defaultStore(cmd.Context(), api, cfg.DefaultStore); err != nil {
					return err
				}
			}
			log.Debug().Str("store", store).Str("category", category).Str("filter", install.String()).Msg("listing apps")

			view, err := app.LoadView(cmd.Context(), api, store, state.Query{
				Category: category,
				Install:  install,
				Search:   search,
			})
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for _, p := range view.Packages {
				fmt.Fprintf(out, "%-28s %s %s\n", p.Name, statusBadge(p), dimStyle.Render(p.Summary))
			}
			fmt.Fprintln(out, dimStyle.Render(fmt.Sprintf("%d of %d apps", len(view.Packages), view.Total)))
			return nil
		},
	}
	cmd.Flags().StringVar(&store, "store", "", "store id (default: configured default, then the first store)")
	cmd.Flags().StringVar(&category, "category", "", "only apps in this category")
	cmd.Flags().StringVar(&filter, "filter", "all", "install status: all, available or installed")
	cmd.Flags().StringVar(&search, "search", "", "match name or summary")
	return cmd
}

// defaultStore picks the configured store when it exists, else the first
// store, else "" for systems without stores.
func defaultStore(ctx context.Context, api backend.API, configured string) (string, error) {
	stores, err := app.Stores(ctx, api)
	if err != nil {
		return "", err
	}
	for _, s := range stores {
		if s.ID == configured {
			return configured, nil
		}
	}
	if len(stores) > 0 {
		return stores[0].ID, nil
	}
	return "", nil
}

func statusBadge(p backend.Package) string {
	switch {
	case p.Upgradable:
		return warnStyle.Render(fmt.Sprintf("%-11s", "upgradable"))
	case p.Installed:
		return successStyle.Render(fmt.Sprintf("%-11s", "installed"))
	}
	return dimStyle.Render(fmt.Sprintf("%-11s", "available"))
}
