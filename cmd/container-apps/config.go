package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/hatlabs/cockpit-container-apps/internal/configform"
	"github.com/hatlabs/cockpit-container-apps/internal/schema"
)

func newConfigCmd(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show or change an installed app's configuration",
	}
	cmd.AddCommand(newConfigGetCmd(e), newConfigSetCmd(e))
	return cmd
}

func newConfigGetCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "get PACKAGE",
		Short: "Print the current configuration",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, api, _, err := e.setup(cmd)
			if err != nil {
				return err
			}
			pkg := args[0]
			s, err := api.GetConfigSchema(cmd.Context(), pkg)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if s.Empty() {
				fmt.Fprintf(out, "%s has no configurable settings\n", pkg)
				return nil
			}
			values, err := api.GetConfig(cmd.Context(), pkg)
			if err != nil {
				return err
			}
			values = schema.MergeDefaults(values, s)

			for _, g := range s.Groups {
				label := g.Label
				if label == "" {
					label = g.ID
				}
				fmt.Fprintln(out, label)
				for _, f := range g.Fields {
					fmt.Fprintf(out, "  %-24s %s\n", f.ID, configform.Display(f, values[f.ID]))
				}
			}
			return nil
		},
	}
}

func newConfigSetCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "set PACKAGE KEY=VALUE...",
		Short: "Validate and save configuration values",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			pkg, assignments := args[0], args[1:]
			// Parse before touching the backend so typos fail fast.
			changes := make([][2]string, 0, len(assignments))
			for _, a := range assignments {
				key, value, ok := strings.Cut(a, "=")
				if !ok || strings.TrimSpace(key) == "" {
					return fmt.Errorf("expected KEY=VALUE, got %q", a)
				}
				changes = append(changes, [2]string{strings.TrimSpace(key), value})
			}

			_, api, log, err := e.setup(cmd)
			if err != nil {
				return err
			}
			s, err := api.GetConfigSchema(cmd.Context(), pkg)
			if err != nil {
				return err
			}
			if s.Empty() {
				return fmt.Errorf("%s has no configurable settings", pkg)
			}
			current, err := api.GetConfig(cmd.Context(), pkg)
			if err != nil {
				return err
			}

			form := configform.New(pkg, s, current, api, configform.WithLogger(log))
			for _, c := range changes {
				if _, ok := s.Field(c[0]); !ok {
					return fmt.Errorf("%s has no setting %q", pkg, c[0])
				}
				form.SetFieldValue(c[0], c[1])
			}

			out := cmd.OutOrStdout()
			if form.Values().Equal(schema.MergeDefaults(current, s)) {
				fmt.Fprintln(out, "No changes.")
				return nil
			}
			res, err := form.Save(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "%s saved configuration for %s\n", successStyle.Render("✓"), pkg)
			if res.Warning != "" {
				fmt.Fprintf(out, "%s %s\n", warnStyle.Render("warning:"), res.Warning)
			}
			return nil
		},
	}
}
