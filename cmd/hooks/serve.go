package main

import (
	"github.com/spf13/cobra"

	"github.com/vango-dev/hooks/pkg/server"
)

func serveCmd(opts *rootOptions) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the demo server",
		Long: `Serve the configured storage over HTTP: the value API, the theme
preference, the query-param search page, a websocket change feed and
Prometheus metrics on /metrics.

The change feed needs a medium that can watch for changes, which is
the memory backend.

Examples:
  hooks serve
  hooks serve --addr=0.0.0.0:9000 --backend=pebble --path=./data`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := opts.open(cmd.Context())
			if err != nil {
				return err
			}
			defer e.close()

			if addr == "" {
				addr = e.cfg.Server.Addr
			}
			srv := server.New(e.medium, &server.Config{Address: addr},
				server.WithLogger(e.logger.With("component", "server")),
				server.WithRegistry(e.registry),
			)
			return srv.Run(cmd.Context())
		},
	}

	cmd.Flags().StringVarP(&addr, "addr", "a", "", "Listen address (default from hooks.json)")

	return cmd
}
