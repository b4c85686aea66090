package main

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/vango-dev/hooks/internal/config"
	"github.com/vango-dev/hooks/internal/errors"
	"github.com/vango-dev/hooks/pkg/storage"
	"github.com/vango-dev/hooks/pkg/telemetry"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		printError(os.Stderr, err)
		os.Exit(1)
	}
}

// rootOptions are the persistent flags shared by every command.
type rootOptions struct {
	dir     string
	backend string
	path    string
	verbose bool
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	rootCmd := &cobra.Command{
		Use:   "hooks",
		Short: "Inspect and serve synced UI state",
		Long: `hooks works with the values that synced hooks mirror to storage.

Values are stored as JSON under string keys in the medium configured
in hooks.json (memory, file, pebble or s3). The CLI can read and write
them, fetch JSON resources the way the fetch hook does, flip the theme
preference and run the demo server.

Examples:
  hooks init --backend=file
  hooks set prefs '{"dense":true}'
  hooks set prefs --merge '{"lang":"en"}'
  hooks get prefs
  hooks serve --addr=:8080`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := slog.LevelInfo
			if opts.verbose {
				level = slog.LevelDebug
			}
			slog.SetDefault(slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level})))
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&opts.dir, "dir", "C", ".", "Directory containing hooks.json")
	flags.StringVar(&opts.backend, "backend", "", "Storage backend override (memory, file, pebble, s3)")
	flags.StringVar(&opts.path, "path", "", "Storage path override for the file and pebble backends")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "Enable debug logging")

	rootCmd.AddCommand(
		initCmd(opts),
		getCmd(opts),
		setCmd(opts),
		rmCmd(opts),
		lsCmd(opts),
		fetchCmd(opts),
		themeCmd(opts),
		serveCmd(opts),
		versionCmd(),
	)

	return rootCmd
}

// loadConfig loads hooks.json and applies the flag overrides.
func (o *rootOptions) loadConfig() (*config.Config, error) {
	cfg, err := config.Load(o.dir)
	if err != nil {
		return nil, err
	}
	if o.backend != "" {
		cfg.Storage.Backend = o.backend
	}
	if o.path != "" {
		cfg.Storage.Path = o.path
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// env is what a command needs to work with stored values.
type env struct {
	cfg      *config.Config
	medium   storage.Medium
	registry *prometheus.Registry
	metrics  *telemetry.Metrics
	logger   *slog.Logger
	close    func() error
}

func (o *rootOptions) open(ctx context.Context) (*env, error) {
	cfg, err := o.loadConfig()
	if err != nil {
		return nil, err
	}

	reg := prometheus.NewRegistry()
	metrics := telemetry.NewMetrics(
		telemetry.WithRegistry(reg),
		telemetry.WithNamespace(cfg.Metrics.Namespace),
	)

	medium, closeFn, err := storage.Open(ctx, cfg.Storage, metrics)
	if err != nil {
		return nil, err
	}

	logger := slog.Default().With("backend", cfg.Storage.Backend)
	logger.Debug("storage opened", "path", cfg.Storage.Path)

	return &env{
		cfg:      cfg,
		medium:   medium,
		registry: reg,
		metrics:  metrics,
		logger:   logger,
		close:    closeFn,
	}, nil
}

// printError prints HookErrors with their full formatting, wherever they
// sit in the chain.
func printError(w io.Writer, err error) {
	var he *errors.HookError
	if stderrors.As(err, &he) {
		errors.PrintError(w, he)
		return
	}
	errors.PrintError(w, err)
}

// success prints a success message.
func success(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, "\033[32m✓\033[0m %s\n", fmt.Sprintf(format, args...))
}
