package cli

import (
	"errors"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/roach88/spinpick/internal/catalog"
	"github.com/roach88/spinpick/internal/presenter"
	"github.com/roach88/spinpick/internal/selection"
)

// NewCatalogCommand creates the catalog command group.
func NewCatalogCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Inspect and validate movie catalogs",
	}

	cmd.AddCommand(newCatalogListCommand(rootOpts))
	cmd.AddCommand(newCatalogTagsCommand(rootOpts))
	cmd.AddCommand(newCatalogCheckCommand(rootOpts))
	return cmd
}

func newCatalogListCommand(rootOpts *RootOptions) *cobra.Command {
	var tags []string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List catalog movies, optionally filtered by tags",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := rootOpts.formatter(cmd)
			cfg := rootOpts.Config

			var movies []catalog.Movie
			if cfg.ProviderURL != "" {
				client, err := catalog.NewClient(cfg.ProviderURL, nil)
				if err != nil {
					return WrapExitError(ExitCommandError, "open provider", err)
				}
				set, err := client.FetchCandidates(cmd.Context(), tags, catalog.MaxRequestCount)
				if err != nil {
					return WrapExitError(ExitCommandError, "list movies", err)
				}
				movies = catalog.Movies(set)
			} else {
				local, err := openCatalog(cfg, selection.NewSeededRNG(0, 0))
				if err != nil {
					return WrapExitError(ExitCommandError, "open catalog", err)
				}
				movies = local.Filter(tags)
			}

			if formatter.Format == "json" {
				if movies == nil {
					movies = []catalog.Movie{}
				}
				return formatter.Success(catalog.MoviesResponse{Movies: movies})
			}
			return writeMovieTable(formatter, movies)
		},
	}

	cmd.Flags().StringSliceVar(&tags, "tags", nil, "filter tags, any match")
	return cmd
}

func writeMovieTable(formatter *OutputFormatter, movies []catalog.Movie) error {
	if len(movies) == 0 {
		return formatter.Success("No movies match.")
	}

	tw := tabwriter.NewWriter(formatter.Writer, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTITLE\tYEAR\tRATING\tTAGS")
	for _, m := range movies {
		year := "-"
		if m.Year > 0 {
			year = fmt.Sprint(m.Year)
		}
		tags := append(append([]string(nil), m.Genres...), m.Moods...)
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
			m.ID, m.Title, year, presenter.FormatRating(m.Rating), strings.Join(tags, ", "))
	}
	return tw.Flush()
}

func newCatalogTagsCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "tags",
		Short: "List the genres and moods available for filtering",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := rootOpts.formatter(cmd)
			cfg := rootOpts.Config

			var idx catalog.TagIndex
			if cfg.ProviderURL != "" {
				client, err := catalog.NewClient(cfg.ProviderURL, nil)
				if err != nil {
					return WrapExitError(ExitCommandError, "open provider", err)
				}
				if idx, err = client.Tags(cmd.Context()); err != nil {
					return WrapExitError(ExitCommandError, "fetch tags", err)
				}
			} else {
				local, err := openCatalog(cfg, selection.NewSeededRNG(0, 0))
				if err != nil {
					return WrapExitError(ExitCommandError, "open catalog", err)
				}
				idx = local.Tags()
			}

			text := fmt.Sprintf("Genres: %s\nMoods:  %s",
				strings.Join(idx.Genres, ", "), strings.Join(idx.Moods, ", "))
			return formatter.Text(text, idx)
		},
	}
}

// CheckResult is the outcome of checking one catalog file.
type CheckResult struct {
	File    string `json:"file"`
	Valid   bool   `json:"valid"`
	Movies  int    `json:"movies,omitempty"`
	Field   string `json:"field,omitempty"`
	Line    int    `json:"line,omitempty"`
	Column  int    `json:"column,omitempty"`
	Message string `json:"message,omitempty"`
}

func newCatalogCheckCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "check <file>...",
		Short: "Validate catalog files against the catalog schema",
		Long: `Validate YAML, JSON or CUE catalog files.

Exits 1 when a file fails validation and 2 when a file cannot be read.`,
		Example: `  spinpick catalog check movies.yaml
  spinpick catalog check --format json catalogs/*.cue`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCatalogCheck(rootOpts.formatter(cmd), args)
		},
	}
}

func runCatalogCheck(formatter *OutputFormatter, files []string) error {
	results := make([]CheckResult, 0, len(files))
	exitCode := ExitSuccess

	for _, file := range files {
		res := CheckResult{File: file}
		movies, err := catalog.LoadFile(file)

		var ve *catalog.ValidationError
		switch {
		case err == nil:
			res.Valid = true
			res.Movies = len(movies)
		case errors.As(err, &ve):
			res.Field = ve.Field
			res.Message = ve.Message
			if ve.Pos.IsValid() {
				res.Line = ve.Pos.Line()
				res.Column = ve.Pos.Column()
			}
			exitCode = max(exitCode, ExitFailure)
		default:
			res.Message = err.Error()
			exitCode = ExitCommandError
		}
		results = append(results, res)
	}

	if formatter.Format == "json" {
		if err := formatter.Success(results); err != nil {
			return err
		}
	} else {
		for _, res := range results {
			fmt.Fprintln(formatter.Writer, checkLine(res))
		}
	}

	switch exitCode {
	case ExitFailure:
		return NewExitError(ExitFailure, "invalid catalog")
	case ExitCommandError:
		return NewExitError(ExitCommandError, "unreadable catalog")
	}
	return nil
}

func checkLine(res CheckResult) string {
	switch {
	case res.Valid:
		return fmt.Sprintf("✓ %s (%d movies)", res.File, res.Movies)
	case res.Line > 0:
		return fmt.Sprintf("✗ %s:%d:%d: %s: %s", res.File, res.Line, res.Column, res.Field, res.Message)
	case res.Field != "":
		return fmt.Sprintf("✗ %s: %s: %s", res.File, res.Field, res.Message)
	default:
		return fmt.Sprintf("✗ %s: %s", res.File, res.Message)
	}
}
