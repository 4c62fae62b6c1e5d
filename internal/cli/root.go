package cli

import (
	"fmt"
	"io"
	"log/slog"
	"slices"

	"github.com/spf13/cobra"

	"github.com/roach88/spinpick/internal/config"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose bool
	Format  string // "json" | "text"

	DB          string
	Store       string
	Catalog     string
	ProviderURL string

	// Config is loaded from the environment, then overridden by flags.
	Config config.Config
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the spinpick CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "spinpick",
		Short: "spinpick - spin a wheel, pick a movie",
		Long: `Pick a movie at random with a spinning wheel.

Candidates come from a YAML or CUE catalog (or a remote spinpick server),
the wheel lands on a uniformly chosen winner, and the last pick is kept
until it is reset.

Settings are read from SPINPICK_* environment variables; flags win.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return NewExitError(ExitCommandError,
					fmt.Sprintf("invalid format %q: must be one of %v", opts.Format, ValidFormats))
			}
			if err := opts.loadConfig(cmd); err != nil {
				return WrapExitError(ExitCommandError, "invalid configuration", err)
			}
			setupLogging(cmd.ErrOrStderr(), opts.logLevel(), false)
			return nil
		},
	}

	// Global flags
	pf := cmd.PersistentFlags()
	pf.BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	pf.StringVar(&opts.Format, "format", "text", "output format (json|text)")
	pf.StringVar(&opts.DB, "db", "", "result store path (env SPINPICK_DB)")
	pf.StringVar(&opts.Store, "store", "", "result store backend: sqlite|file|memory (env SPINPICK_STORE)")
	pf.StringVar(&opts.Catalog, "catalog", "", "movie catalog file, .yaml or .cue (env SPINPICK_CATALOG)")
	pf.StringVar(&opts.ProviderURL, "provider-url", "", "fetch candidates from a spinpick server (env SPINPICK_PROVIDER_URL)")

	cmd.AddCommand(NewSpinCommand(opts))
	cmd.AddCommand(NewShowCommand(opts))
	cmd.AddCommand(NewResetCommand(opts))
	cmd.AddCommand(NewServeCommand(opts))
	cmd.AddCommand(NewCatalogCommand(opts))
	cmd.AddCommand(NewScenarioCommand(opts))

	return cmd
}

// loadConfig reads the environment and applies the persistent flag
// overrides that were set explicitly.
func (o *RootOptions) loadConfig(cmd *cobra.Command) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	if flags.Changed("db") {
		cfg.DBPath = o.DB
	}
	if flags.Changed("store") {
		cfg.Store = o.Store
	}
	if flags.Changed("catalog") {
		cfg.Catalog = o.Catalog
	}
	if flags.Changed("provider-url") {
		cfg.ProviderURL = o.ProviderURL
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	o.Config = cfg
	return nil
}

func (o *RootOptions) logLevel() slog.Level {
	if o.Verbose {
		return slog.LevelDebug
	}
	return o.Config.LogLevel
}

func (o *RootOptions) formatter(cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    o.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(), // Verbose logs go to stderr to avoid corrupting JSON
		Verbose:   o.Verbose,
	}
}

// setupLogging installs the default slog logger.
func setupLogging(w io.Writer, level slog.Level, asJSON bool) *slog.Logger {
	hopts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler = slog.NewTextHandler(w, hopts)
	if asJSON {
		handler = slog.NewJSONHandler(w, hopts)
	}
	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	return slices.Contains(ValidFormats, format)
}
