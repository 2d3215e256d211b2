package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hatlabs/cockpit-container-apps/internal/backend"
)

var Version = "dev"

type versioner interface {
	Version(ctx context.Context) (backend.VersionInfo, error)
}

func newVersionCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the client and backend versions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "container-apps %s\n", Version)

			_, api, _, err := e.setup(cmd)
			if err != nil {
				return err
			}
			v, ok := api.(versioner)
			if !ok {
				return nil
			}
			info, err := v.Version(cmd.Context())
			if err != nil {
				fmt.Fprintf(out, "backend: %s\n", dimStyle.Render("unavailable ("+backend.UserMessage(err)+")"))
				return nil
			}
			fmt.Fprintf(out, "backend: %s %s\n", info.Name, info.Version)
			return nil
		},
	}
}
