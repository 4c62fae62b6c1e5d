package cli

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/roach88/spinpick/internal/presenter"
	"github.com/roach88/spinpick/internal/reveal"
	"github.com/roach88/spinpick/internal/selection"
)

// SpinOptions holds flags for the spin command.
type SpinOptions struct {
	*RootOptions
	Tags     []string
	Count    int
	Duration time.Duration
	TUI      bool
}

// NewSpinCommand creates the spin command.
func NewSpinCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SpinOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "spin",
		Short: "Spin the wheel and pick a movie",
		Long: `Fetch candidates, spin the wheel and print the winner.

Candidates match any of the given tags (genres or moods). The winner is
saved as the last pick and replaces the previous one.

With --tui the wheel runs interactively: space spins, x aborts,
r resets, s shares and q quits.`,
		Example: `  spinpick spin
  spinpick spin --tags Horror,Tense --count 6
  spinpick spin --format json --duration 500ms
  spinpick spin --tui`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSpin(cmd, opts)
		},
	}

	cmd.Flags().StringSliceVar(&opts.Tags, "tags", nil, "filter tags, any match (env SPINPICK_TAGS)")
	cmd.Flags().IntVar(&opts.Count, "count", 0, "candidates on the wheel (env SPINPICK_CANDIDATES)")
	cmd.Flags().DurationVar(&opts.Duration, "duration", 0, "spin duration (env SPINPICK_SPIN_DURATION)")
	cmd.Flags().BoolVar(&opts.TUI, "tui", false, "interactive wheel")

	return cmd
}

func runSpin(cmd *cobra.Command, opts *SpinOptions) error {
	formatter := opts.formatter(cmd)

	cfg := opts.Config
	flags := cmd.Flags()
	if flags.Changed("tags") {
		cfg.Tags = opts.Tags
	}
	if flags.Changed("count") {
		cfg.Candidates = opts.Count
	}
	if flags.Changed("duration") {
		cfg.SpinDuration = opts.Duration
	}
	if err := cfg.Validate(); err != nil {
		return WrapExitError(ExitCommandError, "invalid flags", err)
	}

	rng, err := selection.NewRNG()
	if err != nil {
		return WrapExitError(ExitCommandError, "seed rng", err)
	}
	provider, err := openProvider(cfg, rng)
	if err != nil {
		return WrapExitError(ExitCommandError, "open catalog", err)
	}
	backend, err := openStore(cfg)
	if err != nil {
		return WrapExitError(ExitCommandError, "open store", err)
	}
	defer backend.Close()

	// Handle signals for graceful shutdown
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ctrl, err := reveal.New(ctx, provider, backend, controllerOptions(cfg, rng)...)
	if err != nil {
		return WrapExitError(ExitCommandError, "start reveal controller", err)
	}
	go func() { _ = ctrl.Run(ctx) }()
	defer func() {
		ctrl.Stop()
		<-ctrl.Done()
	}()

	if opts.TUI {
		return runTUI(ctx, cmd, ctrl, cfg.Tags, cfg.SpinDuration)
	}

	final := make(chan reveal.State, 1)
	unsub := ctrl.Subscribe(func(st reveal.State) {
		if st.Phase == reveal.PhaseSettled || (st.Phase == reveal.PhaseIdle && st.Err != nil) {
			select {
			case final <- st:
			default:
			}
		}
	})
	defer unsub()

	if _, accepted, err := ctrl.TryReveal(ctx, cfg.Tags); err != nil || !accepted {
		if err == nil {
			err = errors.New("request ignored")
		}
		return WrapExitError(ExitCommandError, "request reveal", err)
	}
	formatter.VerboseLog("Spinning%s...", tagList(cfg.Tags))

	select {
	case st := <-final:
		return reportSpin(formatter, st)
	case <-ctx.Done():
		ctrl.Abort()
		formatter.Error(CodeInterrupted, "spin interrupted", nil)
		return NewExitError(ExitFailure, "spin interrupted")
	}
}

func reportSpin(formatter *OutputFormatter, st reveal.State) error {
	if st.Phase == reveal.PhaseSettled && st.Outcome != nil {
		if formatter.Format == "json" {
			return formatter.Success(newOutcomeView(*st.Outcome))
		}
		return formatter.Success(presenter.NewRenderer().Card(st.Outcome.Winner))
	}

	var re *reveal.RevealError
	if errors.As(st.Err, &re) {
		formatter.Error(string(re.Code), re.Message, map[string]any{"tags": re.Tags})
		return WrapExitError(ExitFailure, "no pick", st.Err)
	}
	formatter.Error("ERROR", st.Err.Error(), nil)
	return WrapExitError(ExitFailure, "no pick", st.Err)
}

func runTUI(ctx context.Context, cmd *cobra.Command, ctrl *reveal.Controller, tags []string, spinDur time.Duration) error {
	if spinDur <= 0 {
		spinDur = reveal.DefaultSpinDuration
	}
	model := presenter.NewModel(ctrl, tags, spinDur)
	defer model.Close()

	p := tea.NewProgram(model,
		tea.WithContext(ctx),
		tea.WithInput(cmd.InOrStdin()),
		tea.WithOutput(cmd.OutOrStdout()),
	)
	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return WrapExitError(ExitCommandError, "run tui", err)
	}
	return nil
}

func tagList(tags []string) string {
	if len(tags) == 0 {
		return ""
	}
	return " (tags: " + strings.Join(tags, ", ") + ")"
}
