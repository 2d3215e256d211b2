package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hatlabs/cockpit-container-apps/internal/schema"
)

func newSchemaCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "schema",
		Short: "Work with config.yml schemas",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "check FILE",
		Short: "Lint a config.yml schema",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := schema.LoadFile(args[0])
			if err != nil {
				return err
			}
			if err := s.Check(); err != nil {
				return fmt.Errorf("%s:\n%w", args[0], err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s: %d groups, %d fields\n",
				successStyle.Render("✓"), args[0], len(s.Groups), len(s.Fields()))
			return nil
		},
	})
	return cmd
}
