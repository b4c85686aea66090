package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vango-dev/hooks/internal/errors"
	"github.com/vango-dev/hooks/pkg/fetch"
	"github.com/vango-dev/hooks/pkg/reactive"
)

func fetchCmd(opts *rootOptions) *cobra.Command {
	var headers []string

	cmd := &cobra.Command{
		Use:   "fetch URL",
		Short: "GET a JSON resource",
		Long: `GET URL, decode the response as JSON and print it.

Failures are reported the way the fetch hook reports them: non-2xx
responses become "Error fetching data: <status text>" along with the
status code.

Examples:
  hooks fetch https://api.example.com/users/1
  hooks fetch -H "Authorization=Bearer $TOKEN" https://api.example.com/me`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := opts.open(cmd.Context())
			if err != nil {
				return err
			}
			defer e.close()

			fetchOpts := []fetch.Option{
				fetch.WithTimeout(e.cfg.FetchTimeout()),
				fetch.WithMetrics(e.metrics),
				fetch.WithLogger(e.logger),
			}
			for _, h := range headers {
				name, value, ok := strings.Cut(h, "=")
				if !ok {
					return errors.New("E310").WithDetail("header " + h + " is not NAME=VALUE")
				}
				fetchOpts = append(fetchOpts, fetch.WithHeader(name, value))
			}

			loop := reactive.NewLoop(reactive.WithLoopLogger(e.logger))
			defer loop.Close()

			var res *fetch.Resource[any]
			reactive.WithOwner(loop.Owner(), func() {
				res = fetch.New[any](loop, args[0], fetchOpts...)
			})
			for res.Loading() {
				if err := loop.RunOne(cmd.Context()); err != nil {
					return err
				}
			}

			result := res.Result()
			if result.State == fetch.Failed {
				he := errors.New("E201").WithKey(args[0]).WithDetail(result.Err)
				if result.StatusCode != 0 {
					he.WithSuggestion(fmt.Sprintf("The server answered %d", result.StatusCode))
				}
				return he
			}
			return printJSON(cmd, result.Data)
		},
	}

	cmd.Flags().StringArrayVarP(&headers, "header", "H", nil, "Request header as NAME=VALUE (repeatable)")

	return cmd
}
