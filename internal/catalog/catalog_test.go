package catalog

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/spinpick/internal/selection"
)

func TestLoadFile_YAMLAndCUEAgree(t *testing.T) {
	fromYAML, err := LoadFile("testdata/small.yaml")
	require.NoError(t, err)
	fromCUE, err := LoadFile("testdata/small.cue")
	require.NoError(t, err)

	require.Len(t, fromYAML, 3)
	assert.Equal(t, fromYAML, fromCUE)
	assert.Equal(t, "Groundhog Day", fromYAML[1].Title)
	assert.Equal(t, 8.0, fromCUE[1].Rating)
	assert.Equal(t, []string{"Crime", "Thriller"}, fromYAML[2].Genres)
}

func TestDefault_IsValid(t *testing.T) {
	l, err := Default(selection.NewSeededRNG(1, 2))
	require.NoError(t, err)
	assert.GreaterOrEqual(t, l.Len(), 8)
	assert.Contains(t, l.Tags().Genres, "Comedy")
}

func TestParse_ValidationErrors(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		src     string
		wantMsg string
	}{
		{
			name: "rating above ten",
			file: "bad.yaml",
			src:  "movies:\n  - {id: a, title: A, rating: 11}\n",
		},
		{
			name: "negative rating",
			file: "bad.cue",
			src:  `movies: [{id: "a", title: "A", rating: -1}]`,
		},
		{
			name: "year before cinema",
			file: "bad.yaml",
			src:  "movies:\n  - {id: a, title: A, year: 1700}\n",
		},
		{
			name: "empty title",
			file: "bad.yaml",
			src:  "movies:\n  - {id: a, title: \"\"}\n",
		},
		{
			name: "missing id",
			file: "bad.cue",
			src:  `movies: [{title: "A"}]`,
		},
		{
			name: "unknown field in cue",
			file: "bad.cue",
			src:  `movies: [{id: "a", title: "A", director: "X"}]`,
		},
		{
			name:    "unknown field in yaml",
			file:    "bad.yaml",
			src:     "movies:\n  - {id: a, title: A, director: X}\n",
			wantMsg: "director",
		},
		{
			name:    "duplicate ids",
			file:    "bad.yaml",
			src:     "movies:\n  - {id: a, title: A}\n  - {id: a, title: B}\n",
			wantMsg: `duplicate id "a"`,
		},
		{
			name: "cue syntax error",
			file: "bad.cue",
			src:  `movies: [`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.file, []byte(tt.src))
			require.Error(t, err)

			var ve *ValidationError
			require.True(t, errors.As(err, &ve), "got %T: %v", err, err)
			if tt.wantMsg != "" {
				assert.Contains(t, err.Error(), tt.wantMsg)
			}
		})
	}
}

func TestParse_EmptyYAML(t *testing.T) {
	movies, err := Parse("empty.yaml", nil)
	require.NoError(t, err)
	assert.Empty(t, movies)
}

func TestParse_UnsupportedFormat(t *testing.T) {
	_, err := Parse("movies.toml", []byte("x = 1"))
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestLoadFile_Missing(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestMovie_Matches(t *testing.T) {
	m := Movie{Genres: []string{"Sci-Fi"}, Moods: []string{"Tense"}}

	assert.True(t, m.Matches(nil))
	assert.True(t, m.Matches([]string{"sci-fi"}), "case-insensitive")
	assert.True(t, m.Matches([]string{"Comedy", "tense"}), "any tag")
	assert.False(t, m.Matches([]string{"Comedy"}))
}

func TestMovie_CandidateRoundTrip(t *testing.T) {
	m := Movie{
		ID: "m1", Title: "Alien", Year: 1979, Rating: 8.5,
		Genres: []string{"Horror"}, Moods: []string{"Tense"},
		Description: "In space.", PosterURL: "https://img/alien.jpg", TrailerURL: "https://yt/alien",
	}
	c := m.Candidate()
	assert.Equal(t, "m1", c.ID)
	assert.Equal(t, 1979, c.Payload.Year)
	assert.Equal(t, m, MovieFromCandidate(c))
}

func TestIndexTags(t *testing.T) {
	idx := IndexTags([]Movie{
		{Genres: []string{"Sci-Fi", "horror"}, Moods: []string{"Tense"}},
		{Genres: []string{"Comedy", "Horror"}, Moods: []string{"tense", "Fun"}},
	})
	assert.Equal(t, []string{"Comedy", "horror", "Sci-Fi"}, idx.Genres)
	assert.Equal(t, []string{"Fun", "Tense"}, idx.Moods)

	empty := IndexTags(nil)
	assert.NotNil(t, empty.Genres, "encodes as [] rather than null")
}

func TestLocal_FilterAndSample(t *testing.T) {
	movies, err := LoadFile("testdata/small.yaml")
	require.NoError(t, err)
	l := NewLocal(movies, selection.NewSeededRNG(3, 4))

	tense := l.Filter([]string{"tense"})
	require.Len(t, tense, 2)
	assert.Equal(t, "m1", tense[0].ID)
	assert.Equal(t, "m3", tense[1].ID)

	assert.Len(t, l.Sample(nil, 2), 2)
	assert.Len(t, l.Sample(nil, 10), 3, "desired is an upper bound")
	assert.Len(t, l.Sample(nil, 0), 3)
	assert.Empty(t, l.Sample([]string{"Western"}, 8))

	seen := map[string]bool{}
	for _, m := range l.Sample(nil, 3) {
		seen[m.ID] = true
	}
	assert.Len(t, seen, 3, "sample has no repeats")
}

func TestLocal_SampleIsUniform(t *testing.T) {
	movies, err := LoadFile("testdata/small.yaml")
	require.NoError(t, err)
	l := NewLocal(movies, selection.NewSeededRNG(9, 9))

	const trials = 30000
	counts := map[string]int{}
	for i := 0; i < trials; i++ {
		counts[l.Sample(nil, 1)[0].ID]++
	}
	for id, n := range counts {
		assert.InEpsilon(t, trials/3, n, 0.05, id)
	}
}

func TestLocal_FetchCandidates(t *testing.T) {
	l, err := OpenLocal("testdata/small.yaml", selection.NewSeededRNG(1, 1))
	require.NoError(t, err)

	set, err := l.FetchCandidates(context.Background(), []string{"Comedy"}, 8)
	require.NoError(t, err)
	require.Equal(t, 1, set.Len())
	assert.Equal(t, "Groundhog Day", set[0].Title)
	assert.Equal(t, []string{"Feel-Good"}, set[0].Payload.Moods)

	set, err = l.FetchCandidates(context.Background(), []string{"Western"}, 8)
	require.NoError(t, err)
	assert.Equal(t, 0, set.Len())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = l.FetchCandidates(ctx, nil, 8)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestLocal_Reload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "movies.yaml")
	require.NoError(t, os.WriteFile(path, []byte("movies:\n  - {id: a, title: A}\n"), 0o644))

	l, err := OpenLocal(path, selection.NewSeededRNG(1, 1))
	require.NoError(t, err)
	require.Equal(t, 1, l.Len())

	require.NoError(t, os.WriteFile(path, []byte("movies:\n  - {id: a, title: A}\n  - {id: b, title: B}\n"), 0o644))
	require.NoError(t, l.Reload())
	assert.Equal(t, 2, l.Len())

	// A broken file keeps the last good catalog.
	require.NoError(t, os.WriteFile(path, []byte("movies:\n  - {id: a, rating: 99}\n"), 0o644))
	assert.Error(t, l.Reload())
	assert.Equal(t, 2, l.Len())

	assert.Error(t, NewLocal(nil, nil).Reload(), "fixed lists cannot reload")
}
