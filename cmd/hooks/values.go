package main

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vango-dev/hooks/internal/config"
	"github.com/vango-dev/hooks/internal/errors"
	"github.com/vango-dev/hooks/pkg/merge"
	"github.com/vango-dev/hooks/pkg/storage"
	"github.com/vango-dev/hooks/pkg/synced"
)

func initCmd(opts *rootOptions) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a hooks.json",
		Long: `Write a hooks.json in the --dir directory using the --backend and
--path flags (default: the file backend in .hooks/storage.json).`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if config.Exists(opts.dir) && !force {
				return errors.New("E310").
					WithDetail("hooks.json already exists in " + opts.dir).
					WithSuggestion("Pass --force to overwrite it")
			}

			cfg := config.New()
			cfg.Storage.Backend = storage.BackendFile
			if opts.backend != "" {
				cfg.Storage.Backend = opts.backend
			}
			cfg.Storage.Path = opts.path
			if err := cfg.Validate(); err != nil {
				return err
			}

			path := filepath.Join(opts.dir, config.ConfigFileName)
			if err := cfg.SaveTo(path); err != nil {
				return err
			}
			success(cmd.OutOrStdout(), "wrote %s (%s backend)", path, cfg.Storage.Backend)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "Overwrite an existing hooks.json")

	return cmd
}

func getCmd(opts *rootOptions) *cobra.Command {
	var def string

	cmd := &cobra.Command{
		Use:   "get KEY",
		Short: "Print a stored value",
		Long: `Print the value stored under KEY as indented JSON.

With --default, the default is printed when nothing is stored; it is
not written back.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var defaultValue *any
			if def != "" {
				v, err := parseValue(def, false)
				if err != nil {
					return err
				}
				defaultValue = &v
			}

			e, err := opts.open(cmd.Context())
			if err != nil {
				return err
			}
			defer e.close()

			v, err := synced.New(cmd.Context(), e.medium, args[0], defaultValue, synced.WithLogger(e.logger))
			if err != nil {
				return err
			}
			value, ok := v.Lookup()
			if !ok {
				return errors.Newf(errors.CategoryStorage, "no value stored").WithKey(args[0])
			}
			return printJSON(cmd, value)
		},
	}

	cmd.Flags().StringVarP(&def, "default", "d", "", "JSON value printed when the key is absent")

	return cmd
}

func setCmd(opts *rootOptions) *cobra.Command {
	var (
		asString bool
		patch    bool
	)

	cmd := &cobra.Command{
		Use:   "set KEY VALUE",
		Short: "Store a value",
		Long: `Store VALUE under KEY. VALUE is parsed as JSON unless --string is given.

With --merge, VALUE must be an object; its fields replace the same
fields of the stored object and every other field is kept.

Examples:
  hooks set theme '"dark"'
  hooks set name --string Ada
  hooks set prefs --merge '{"lang":"en"}'`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			key := args[0]
			value, err := parseValue(args[1], asString)
			if err != nil {
				return err
			}
			obj, isObject := value.(map[string]any)
			if patch && !isObject {
				return errors.New("E310").WithDetail("--merge needs a JSON object value")
			}

			e, err := opts.open(cmd.Context())
			if err != nil {
				return err
			}
			defer e.close()

			v, err := synced.New[any](cmd.Context(), e.medium, key, nil, synced.WithLogger(e.logger))
			if err != nil {
				return err
			}

			if patch {
				err = v.Update(cmd.Context(), func(prev any) any {
					base, _ := prev.(map[string]any)
					return merge.Shallow(base, obj)
				})
			} else {
				err = v.Set(cmd.Context(), value)
			}
			if err != nil {
				return err
			}
			success(cmd.OutOrStdout(), "set %s", key)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&asString, "string", "s", false, "Store VALUE as a JSON string")
	cmd.Flags().BoolVarP(&patch, "merge", "m", false, "Shallow-merge VALUE into the stored object")

	return cmd
}

func rmCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:     "rm KEY...",
		Aliases: []string{"remove", "delete"},
		Short:   "Remove stored values",
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := opts.open(cmd.Context())
			if err != nil {
				return err
			}
			defer e.close()

			for _, key := range args {
				if err := e.medium.Remove(cmd.Context(), key); err != nil {
					return errors.New("E104").WithKey(key).Wrap(err)
				}
				success(cmd.OutOrStdout(), "removed %s", key)
			}
			return nil
		},
	}
}

func lsCmd(opts *rootOptions) *cobra.Command {
	var prefix string

	cmd := &cobra.Command{
		Use:     "ls",
		Aliases: []string{"list"},
		Short:   "List stored keys",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := opts.open(cmd.Context())
			if err != nil {
				return err
			}
			defer e.close()

			keys, err := storage.Keys(cmd.Context(), e.medium)
			if err != nil {
				return errors.New("E103").Wrap(err)
			}
			for _, k := range keys {
				if strings.HasPrefix(k, prefix) {
					fmt.Fprintln(cmd.OutOrStdout(), k)
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&prefix, "prefix", "p", "", "Only list keys with this prefix")

	return cmd
}

// parseValue parses a command-line value as JSON, or takes it verbatim
// when asString is set.
func parseValue(s string, asString bool) (any, error) {
	if asString {
		return s, nil
	}
	var v any
	if err := json.Unmarshal([]byte(s), &v); err != nil {
		return nil, errors.New("E310").
			WithDetail("value is not valid JSON: " + err.Error()).
			WithSuggestion("Quote strings as JSON ('\"text\"') or pass --string")
	}
	return v, nil
}

func printJSON(cmd *cobra.Command, v any) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return errors.New("E102").Wrap(err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(out))
	return nil
}
