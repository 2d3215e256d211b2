package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

type opKind int

const (
	opInstall opKind = iota
	opRemove
)

func newOperationCmd(e *env, kind opKind) *cobra.Command {
	use, short, verb := "install PACKAGE", "Install an app", "Installing"
	if kind == opRemove {
		use, short, verb = "remove PACKAGE", "Remove an app", "Removing"
	}
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, api, log, err := e.setup(cmd)
			if err != nil {
				return err
			}
			name := args[0]
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s %s\n", verb, name)

			progress := newProgressWriter(out)
			if kind == opRemove {
				err = api.Remove(cmd.Context(), name, progress)
			} else {
				err = api.Install(cmd.Context(), name, progress)
			}
			if err != nil {
				fmt.Fprintf(out, "%s %s failed\n", errorStyle.Render("✗"), name)
				log.Debug().Err(err).Str("package", name).Msg("operation failed")
				return err
			}
			fmt.Fprintf(out, "%s %s\n", successStyle.Render("✓"), name)
			return nil
		},
	}
}
