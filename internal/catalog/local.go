package catalog

import (
	"context"
	_ "embed"
	"fmt"
	"log/slog"
	"sync"

	"github.com/roach88/spinpick/internal/ir"
	"github.com/roach88/spinpick/internal/selection"
)

// Local is an in-process catalog. It implements reveal.Provider.
//
// Thread-safety: Local is safe for concurrent use. Reload swaps the movie
// list atomically under a write lock.
type Local struct {
	mu     sync.RWMutex
	movies []Movie
	path   string
	rng    selection.RNG
}

// NewLocal serves a fixed movie list. The list is copied.
func NewLocal(movies []Movie, rng selection.RNG) *Local {
	return &Local{
		movies: append([]Movie(nil), movies...),
		rng:    rng,
	}
}

// OpenLocal loads a catalog file. The file can be reloaded with Reload.
func OpenLocal(path string, rng selection.RNG) (*Local, error) {
	movies, err := LoadFile(path)
	if err != nil {
		return nil, err
	}
	l := NewLocal(movies, rng)
	l.path = path
	return l, nil
}

// Path returns the catalog file, or "" for a fixed list.
func (l *Local) Path() string { return l.path }

// Len returns the number of movies.
func (l *Local) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.movies)
}

// Movies returns a copy of the whole catalog.
func (l *Local) Movies() []Movie {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return append([]Movie(nil), l.movies...)
}

// Tags returns the catalog's distinct genres and moods.
func (l *Local) Tags() TagIndex {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return IndexTags(l.movies)
}

// Filter returns the movies matching any of tags, in catalog order.
func (l *Local) Filter(tags []string) []Movie {
	l.mu.RLock()
	defer l.mu.RUnlock()

	var out []Movie
	for _, m := range l.movies {
		if m.Matches(tags) {
			out = append(out, m)
		}
	}
	return out
}

// Sample returns a uniform random sample of at most desired matching
// movies. desired <= 0 returns every match in random order.
func (l *Local) Sample(tags []string, desired int) []Movie {
	matches := l.Filter(tags)
	k := desired
	if k <= 0 || k > len(matches) {
		k = len(matches)
	}

	idx := selection.Sample(l.rng, len(matches), k)
	out := make([]Movie, len(idx))
	for i, j := range idx {
		out[i] = matches[j]
	}
	return out
}

// FetchCandidates implements reveal.Provider.
func (l *Local) FetchCandidates(ctx context.Context, tags []string, desired int) (ir.CandidateSet, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return Candidates(l.Sample(tags, desired)), nil
}

// Reload re-reads the catalog file. On failure the current list is kept.
func (l *Local) Reload() error {
	if l.path == "" {
		return fmt.Errorf("reload: catalog has no backing file")
	}
	movies, err := LoadFile(l.path)
	if err != nil {
		return err
	}

	l.mu.Lock()
	l.movies = movies
	l.mu.Unlock()

	slog.Info("catalog reloaded", "path", l.path, "movies", len(movies))
	return nil
}

//go:embed default.yaml
var defaultCatalog []byte

// Default returns the built-in catalog used when no file is configured.
func Default(rng selection.RNG) (*Local, error) {
	movies, err := Parse("default.yaml", defaultCatalog)
	if err != nil {
		return nil, fmt.Errorf("built-in catalog: %w", err)
	}
	return NewLocal(movies, rng), nil
}
