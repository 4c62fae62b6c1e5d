package cli

import (
	"github.com/spf13/cobra"

	"github.com/roach88/spinpick/internal/presenter"
)

// ShowOptions holds flags for the show command.
type ShowOptions struct {
	*RootOptions
	Share bool
}

// NewShowCommand creates the show command.
func NewShowCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ShowOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show the last pick",
		Long: `Print the last saved pick without spinning.

With --share the share text is printed instead of the movie card.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runShow(cmd, opts)
		},
	}

	cmd.Flags().BoolVar(&opts.Share, "share", false, "print the share text")
	return cmd
}

func runShow(cmd *cobra.Command, opts *ShowOptions) error {
	formatter := opts.formatter(cmd)

	backend, err := openStore(opts.Config)
	if err != nil {
		return WrapExitError(ExitCommandError, "open store", err)
	}
	defer backend.Close()

	o, ok, err := backend.Load(cmd.Context())
	if err != nil {
		return WrapExitError(ExitCommandError, "load last pick", err)
	}
	if !ok {
		formatter.Error(CodeNotFound, "no saved pick yet", nil)
		return NewExitError(ExitFailure, "no saved pick")
	}

	switch {
	case opts.Share && formatter.Format == "json":
		return formatter.Success(presenter.SharePayload(o.Winner))
	case opts.Share:
		return formatter.Success(presenter.SharePayload(o.Winner).Text)
	case formatter.Format == "json":
		return formatter.Success(newOutcomeView(o))
	default:
		return formatter.Success(presenter.NewRenderer().Card(o.Winner))
	}
}

// NewResetCommand creates the reset command.
func NewResetCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Forget the last pick",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := rootOpts.formatter(cmd)

			backend, err := openStore(rootOpts.Config)
			if err != nil {
				return WrapExitError(ExitCommandError, "open store", err)
			}
			defer backend.Close()

			if err := backend.Clear(cmd.Context()); err != nil {
				return WrapExitError(ExitCommandError, "clear last pick", err)
			}
			return formatter.Text("Last pick cleared.", map[string]bool{"cleared": true})
		},
	}
}
