package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/spinpick/internal/catalog"
	"github.com/roach88/spinpick/internal/httpapi"
	"github.com/roach88/spinpick/internal/selection"
)

var smallCatalog = filepath.Join("..", "catalog", "testdata", "small.yaml")

type response[T any] struct {
	Status string    `json:"status"`
	Data   T         `json:"data"`
	Error  *CLIError `json:"error"`
}

// isolate points the store at a temp dir so tests never touch the
// user's config directory.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("SPINPICK_STORE", "sqlite")
	t.Setenv("SPINPICK_DB", filepath.Join(dir, "picks.db"))
	return dir
}

func execute(t *testing.T, ctx context.Context, args ...string) (string, string, error) {
	t.Helper()
	stdout, stderr := &bytes.Buffer{}, &bytes.Buffer{}
	cmd := NewRootCommand()
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(ctx)
	return stdout.String(), stderr.String(), err
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	out, _, err := execute(t, context.Background(), args...)
	return out, err
}

func decode[T any](t *testing.T, out string) response[T] {
	t.Helper()
	var resp response[T]
	require.NoError(t, json.Unmarshal([]byte(out), &resp), "output: %s", out)
	return resp
}

func TestRoot_RejectsBadFlags(t *testing.T) {
	isolate(t)

	tests := []struct {
		name string
		args []string
	}{
		{"format", []string{"show", "--format", "xml"}},
		{"store", []string{"show", "--store", "redis"}},
		{"catalog and provider", []string{"catalog", "tags", "--catalog", smallCatalog, "--provider-url", "http://localhost:1"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := run(t, tt.args...)
			require.Error(t, err)
			assert.Equal(t, ExitCommandError, GetExitCode(err))
		})
	}
}

func TestRoot_EnvConfigured(t *testing.T) {
	isolate(t)
	t.Setenv("SPINPICK_CATALOG", smallCatalog)

	out, err := run(t, "catalog", "list", "--format", "json")
	require.NoError(t, err)
	assert.Len(t, decode[catalog.MoviesResponse](t, out).Data.Movies, 3)
}

func TestSpin_SaveShowShareReset(t *testing.T) {
	isolate(t)

	out, err := run(t, "spin", "--catalog", smallCatalog, "--duration", "10ms", "--format", "json")
	require.NoError(t, err)

	spun := decode[OutcomeView](t, out)
	assert.Equal(t, "ok", spun.Status)
	assert.Contains(t, []string{"m1", "m2", "m3"}, spun.Data.Winner.ID)
	assert.Len(t, spun.Data.Candidates, 3)
	assert.NotEmpty(t, spun.Data.ID)
	assert.Contains(t, spun.Data.Share.Text, spun.Data.Winner.Title)

	out, err = run(t, "show", "--format", "json")
	require.NoError(t, err)
	shown := decode[OutcomeView](t, out)
	assert.Equal(t, spun.Data.ID, shown.Data.ID)
	assert.Equal(t, spun.Data.Rotation, shown.Data.Rotation)

	out, err = run(t, "show", "--share")
	require.NoError(t, err)
	assert.Contains(t, out, spun.Data.Winner.Title)
	assert.Contains(t, out, "/10")

	out, err = run(t, "reset")
	require.NoError(t, err)
	assert.Contains(t, out, "Last pick cleared.")

	out, err = run(t, "show")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "Error [NOT_FOUND]")
}

func TestSpin_TextCard(t *testing.T) {
	isolate(t)

	out, err := run(t, "spin", "--catalog", smallCatalog, "--duration", "10ms", "--tags", "Comedy")
	require.NoError(t, err)
	assert.Contains(t, out, "Groundhog Day (1993)")
}

func TestSpin_NoCandidates(t *testing.T) {
	isolate(t)

	out, err := run(t, "spin", "--catalog", smallCatalog, "--duration", "10ms", "--tags", "Western", "--format", "json")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	resp := decode[any](t, out)
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "NO_CANDIDATES", resp.Error.Code)

	_, err = run(t, "show")
	assert.Error(t, err, "a failed spin saves nothing")
}

func TestSpin_StoreBackends(t *testing.T) {
	for _, backend := range []string{"file", "memory"} {
		t.Run(backend, func(t *testing.T) {
			dir := isolate(t)
			t.Setenv("SPINPICK_DB", filepath.Join(dir, "last.json"))

			out, err := run(t, "spin", "--store", backend, "--catalog", smallCatalog, "--duration", "10ms", "--format", "json")
			require.NoError(t, err)
			assert.Equal(t, "ok", decode[OutcomeView](t, out).Status)

			_, err = os.Stat(filepath.Join(dir, "last.json"))
			if backend == "file" {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, os.ErrNotExist)
			}
		})
	}
}

func TestSpin_RemoteProvider(t *testing.T) {
	isolate(t)

	movies, err := catalog.LoadFile(smallCatalog)
	require.NoError(t, err)
	local := catalog.NewLocal(movies, selection.NewSeededRNG(3, 4))
	srv := httptest.NewServer(httpapi.New(local, nil, nil).Handler())
	defer srv.Close()

	out, err := run(t, "spin", "--provider-url", srv.URL, "--tags", "Tense", "--duration", "10ms", "--format", "json")
	require.NoError(t, err)
	assert.Contains(t, []string{"m1", "m3"}, decode[OutcomeView](t, out).Data.Winner.ID)

	out, err = run(t, "catalog", "tags", "--provider-url", srv.URL, "--format", "json")
	require.NoError(t, err)
	assert.Equal(t, []string{"Feel-Good", "Tense"}, decode[catalog.TagIndex](t, out).Data.Moods)
}

func TestCatalogList(t *testing.T) {
	isolate(t)

	out, err := run(t, "catalog", "list", "--catalog", smallCatalog, "--tags", "tense")
	require.NoError(t, err)
	assert.Contains(t, out, "TITLE")
	assert.Contains(t, out, "Alien")
	assert.Contains(t, out, "Heat")
	assert.NotContains(t, out, "Groundhog Day")

	out, err = run(t, "catalog", "list", "--catalog", smallCatalog, "--tags", "Western")
	require.NoError(t, err)
	assert.Contains(t, out, "No movies match.")
}

func TestCatalogTags_BuiltIn(t *testing.T) {
	isolate(t)

	out, err := run(t, "catalog", "tags", "--format", "json")
	require.NoError(t, err)
	idx := decode[catalog.TagIndex](t, out).Data
	assert.NotEmpty(t, idx.Genres)
	assert.NotEmpty(t, idx.Moods)
}

func TestCatalogCheck(t *testing.T) {
	isolate(t)
	dir := t.TempDir()

	dup := filepath.Join(dir, "dup.yaml")
	require.NoError(t, os.WriteFile(dup, []byte("movies:\n  - {id: a, title: A}\n  - {id: a, title: B}\n"), 0o644))
	odd := filepath.Join(dir, "movies.txt")
	require.NoError(t, os.WriteFile(odd, []byte("Alien"), 0o644))

	tests := []struct {
		name     string
		files    []string
		wantCode int
		want     string
	}{
		{"valid", []string{smallCatalog}, ExitSuccess, "✓ " + smallCatalog + " (3 movies)"},
		{"duplicate id", []string{smallCatalog, dup}, ExitFailure, "movies[1].id: duplicate id"},
		{"missing file", []string{filepath.Join(dir, "nope.yaml")}, ExitCommandError, "read catalog"},
		{"unsupported format", []string{odd}, ExitCommandError, "unsupported catalog format"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := run(t, append([]string{"catalog", "check"}, tt.files...)...)
			assert.Equal(t, tt.wantCode, GetExitCode(err))
			assert.Contains(t, out, tt.want)
		})
	}
}

func TestCatalogCheck_JSON(t *testing.T) {
	isolate(t)

	out, err := run(t, "catalog", "check", "--format", "json", smallCatalog)
	require.NoError(t, err)
	results := decode[[]CheckResult](t, out).Data
	require.Len(t, results, 1)
	assert.True(t, results[0].Valid)
	assert.Equal(t, 3, results[0].Movies)
}

var scenariosDir = filepath.Join("..", "harness", "testdata", "scenarios")

func TestScenario_RunsHarnessScenarios(t *testing.T) {
	isolate(t)

	out, err := run(t, "scenario", scenariosDir)
	require.NoError(t, err, "output: %s", out)
	assert.Contains(t, out, "✓ happy_path")
	assert.Contains(t, out, "0 failed")
}

func TestScenario_FilterAndJSON(t *testing.T) {
	isolate(t)

	out, err := run(t, "scenario", scenariosDir, "--filter", "abort*", "--format", "json")
	require.NoError(t, err)
	summary := decode[ScenarioSummary](t, out).Data
	assert.Equal(t, 1, summary.Total)
	assert.Equal(t, "abort_then_retry", summary.Scenarios[0].Name)
}

func TestScenario_UpdateThenCompare(t *testing.T) {
	isolate(t)
	golden := t.TempDir()

	_, err := run(t, "scenario", scenariosDir, "--filter", "happy_path", "--golden-dir", golden, "--update")
	require.NoError(t, err)
	require.FileExists(t, filepath.Join(golden, "happy_path.golden"))

	_, err = run(t, "scenario", scenariosDir, "--filter", "happy_path", "--golden-dir", golden)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(golden, "happy_path.golden"), []byte("{}\n"), 0o644))
	out, err := run(t, "scenario", scenariosDir, "--filter", "happy_path", "--golden-dir", golden)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "golden file mismatch")
}

func TestScenario_MissingDir(t *testing.T) {
	isolate(t)

	_, err := run(t, "scenario", filepath.Join(t.TempDir(), "missing"))
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestServe_StopsOnCancel(t *testing.T) {
	isolate(t)

	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()

	_, stderr, err := execute(t, ctx, "serve", "--addr", "127.0.0.1:0", "--store", "memory", "--catalog", smallCatalog, "--watch")
	require.NoError(t, err)
	assert.Contains(t, stderr, `"msg":"starting server"`)
}

func TestServe_WatchNeedsFile(t *testing.T) {
	isolate(t)

	_, _, err := execute(t, context.Background(), "serve", "--addr", "127.0.0.1:0", "--store", "memory", "--watch")
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

// A zero --duration falls back to the default spin, so examples that set
// the flag must pick a positive value.
func TestSpin_ExampleDurationsArePositive(t *testing.T) {
	spin, _, err := NewRootCommand().Find([]string{"spin"})
	require.NoError(t, err)
	lines := strings.Split(spin.Example, "\n")
	require.NotEmpty(t, lines)

	for _, line := range lines {
		args := strings.Fields(line)
		require.GreaterOrEqual(t, len(args), 2, line)
		require.Equal(t, []string{"spinpick", "spin"}, args[:2], line)

		t.Run(strings.Join(args[2:], " "), func(t *testing.T) {
			cmd, _, err := NewRootCommand().Find([]string{"spin"})
			require.NoError(t, err)
			require.NoError(t, cmd.ParseFlags(args[2:]))
			if !cmd.Flags().Changed("duration") {
				return
			}
			d, err := cmd.Flags().GetDuration("duration")
			require.NoError(t, err)
			assert.Positive(t, d)
		})
	}
}
