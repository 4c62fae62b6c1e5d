package cli

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/roach88/spinpick/internal/catalog"
	"github.com/roach88/spinpick/internal/httpapi"
	"github.com/roach88/spinpick/internal/reveal"
	"github.com/roach88/spinpick/internal/selection"
)

// ServeOptions holds flags for the serve command.
type ServeOptions struct {
	*RootOptions
	Addr  string
	Watch bool
}

// NewServeCommand creates the serve command.
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ServeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the catalog and reveal API over HTTP",
		Long: `Run the HTTP API.

The catalog endpoints (/api/movies, /api/tags) serve the local catalog, so
another spinpick can use this server as its --provider-url. The reveal
endpoints drive one shared wheel. Logs are JSON on stderr.`,
		Example: `  spinpick serve --addr :8080
  spinpick serve --catalog movies.yaml --watch`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.Addr, "addr", "", "listen address (env SPINPICK_ADDR)")
	cmd.Flags().BoolVar(&opts.Watch, "watch", false, "reload the catalog file when it changes (env SPINPICK_WATCH)")

	return cmd
}

func runServe(cmd *cobra.Command, opts *ServeOptions) error {
	cfg := opts.Config
	if cmd.Flags().Changed("addr") {
		cfg.Addr = opts.Addr
	}
	if cmd.Flags().Changed("watch") {
		cfg.Watch = opts.Watch
	}

	logger := setupLogging(cmd.ErrOrStderr(), opts.logLevel(), true)

	rng, err := selection.NewRNG()
	if err != nil {
		return WrapExitError(ExitCommandError, "seed rng", err)
	}
	local, err := openCatalog(cfg, rng)
	if err != nil {
		return WrapExitError(ExitCommandError, "open catalog", err)
	}
	provider := reveal.Provider(local)
	if cfg.ProviderURL != "" {
		if provider, err = openProvider(cfg, rng); err != nil {
			return WrapExitError(ExitCommandError, "open provider", err)
		}
	}
	if cfg.Watch && local.Path() == "" {
		return NewExitError(ExitCommandError, "--watch needs a catalog file")
	}

	backend, err := openStore(cfg)
	if err != nil {
		return WrapExitError(ExitCommandError, "open store", err)
	}
	defer backend.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ctrl, err := reveal.New(ctx, provider, backend, controllerOptions(cfg, rng)...)
	if err != nil {
		return WrapExitError(ExitCommandError, "start reveal controller", err)
	}
	server := httpapi.New(local, ctrl, logger)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		// Run reports the cancellation that ends a normal shutdown.
		if err := ctrl.Run(gctx); err != nil && gctx.Err() == nil {
			return err
		}
		return nil
	})
	g.Go(func() error {
		return server.Serve(gctx, cfg.Addr)
	})
	if cfg.Watch {
		g.Go(func() error {
			return catalog.Watch(gctx, local, nil)
		})
	}

	if err := g.Wait(); err != nil {
		return WrapExitError(ExitCommandError, "serve", err)
	}
	return nil
}
