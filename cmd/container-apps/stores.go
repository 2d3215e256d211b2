package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hatlabs/cockpit-container-apps/internal/app"
)

func newStoresCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "stores",
		Short: "List the configured stores",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, api, _, err := e.setup(cmd)
			if err != nil {
				return err
			}
			stores, err := app.Stores(cmd.Context(), api)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(stores) == 0 {
				fmt.Fprintln(out, dimStyle.Render("No stores configured; all container packages are listed."))
				return nil
			}
			for _, s := range stores {
				mark := " "
				if s.ID == cfg.DefaultStore {
					mark = "*"
				}
				fmt.Fprintf(out, "%s %-20s %-28s %s\n", mark, s.ID, s.Name, dimStyle.Render(s.Description))
			}
			return nil
		},
	}
}
