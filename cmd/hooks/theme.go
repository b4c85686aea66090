package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vango-dev/hooks/internal/errors"
	"github.com/vango-dev/hooks/pkg/reactive"
	"github.com/vango-dev/hooks/pkg/synced"
	"github.com/vango-dev/hooks/pkg/theme"
)

func themeCmd(opts *rootOptions) *cobra.Command {
	var prefersDark bool

	cmd := &cobra.Command{
		Use:   "theme [dark|light|toggle]",
		Short: "Show or change the dark mode preference",
		Long: `Without arguments, print the stored theme. When nothing is stored the
--prefers-dark flag stands in for the system preference.

Examples:
  hooks theme
  hooks theme toggle
  hooks theme dark`,
		Args:      cobra.MaximumNArgs(1),
		ValidArgs: []string{"dark", "light", "toggle"},
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := opts.open(cmd.Context())
			if err != nil {
				return err
			}
			defer e.close()

			owner := reactive.NewOwner(nil)
			defer owner.Dispose()

			var pref *theme.Preference
			reactive.WithOwner(owner, func() {
				pref, err = theme.New(cmd.Context(), e.medium, theme.Static(prefersDark), synced.WithLogger(e.logger))
			})
			if err != nil {
				return err
			}

			if len(args) == 1 {
				switch args[0] {
				case "dark":
					err = pref.Set(cmd.Context(), true)
				case "light":
					err = pref.Set(cmd.Context(), false)
				case "toggle":
					err = pref.Toggle(cmd.Context())
				default:
					return errors.New("E310").WithDetail("expected dark, light or toggle, got " + args[0])
				}
				if err != nil {
					return err
				}
			}

			fmt.Fprintln(cmd.OutOrStdout(), pref.Mode())
			return nil
		},
	}

	cmd.Flags().BoolVar(&prefersDark, "prefers-dark", false, "Assume the system prefers a dark color scheme")

	return cmd
}
