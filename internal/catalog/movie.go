package catalog

import (
	"sort"
	"strings"

	"github.com/roach88/spinpick/internal/ir"
)

// Movie is one catalog entry, in file and wire layout.
type Movie struct {
	ID          string   `json:"id" yaml:"id"`
	Title       string   `json:"title" yaml:"title"`
	Year        int      `json:"year,omitempty" yaml:"year,omitempty"`
	Rating      float64  `json:"rating,omitempty" yaml:"rating,omitempty"`
	Genres      []string `json:"genres,omitempty" yaml:"genres,omitempty"`
	Moods       []string `json:"moods,omitempty" yaml:"moods,omitempty"`
	Description string   `json:"description,omitempty" yaml:"description,omitempty"`
	PosterURL   string   `json:"poster_url,omitempty" yaml:"poster_url,omitempty"`
	TrailerURL  string   `json:"trailer_url,omitempty" yaml:"trailer_url,omitempty"`
}

// Document is the top-level layout of a catalog file.
type Document struct {
	Movies []Movie `json:"movies" yaml:"movies"`
}

// Candidate converts the movie for the reveal engine.
func (m Movie) Candidate() ir.Candidate {
	return ir.Candidate{
		ID:    m.ID,
		Title: m.Title,
		Payload: ir.Payload{
			Year:        m.Year,
			Rating:      m.Rating,
			Genres:      m.Genres,
			Moods:       m.Moods,
			Description: m.Description,
			PosterURL:   m.PosterURL,
			TrailerURL:  m.TrailerURL,
		},
	}
}

// MovieFromCandidate is the inverse of Movie.Candidate.
func MovieFromCandidate(c ir.Candidate) Movie {
	return Movie{
		ID:          c.ID,
		Title:       c.Title,
		Year:        c.Payload.Year,
		Rating:      c.Payload.Rating,
		Genres:      c.Payload.Genres,
		Moods:       c.Payload.Moods,
		Description: c.Payload.Description,
		PosterURL:   c.Payload.PosterURL,
		TrailerURL:  c.Payload.TrailerURL,
	}
}

// Candidates converts a movie list.
func Candidates(movies []Movie) ir.CandidateSet {
	set := make(ir.CandidateSet, len(movies))
	for i, m := range movies {
		set[i] = m.Candidate()
	}
	return set
}

// Movies converts a candidate set.
func Movies(set ir.CandidateSet) []Movie {
	out := make([]Movie, len(set))
	for i, c := range set {
		out[i] = MovieFromCandidate(c)
	}
	return out
}

// Matches reports whether any tag names one of the movie's genres or moods.
// An empty tag list matches everything.
func (m Movie) Matches(tags []string) bool {
	if len(tags) == 0 {
		return true
	}
	for _, t := range tags {
		for _, g := range m.Genres {
			if strings.EqualFold(t, g) {
				return true
			}
		}
		for _, md := range m.Moods {
			if strings.EqualFold(t, md) {
				return true
			}
		}
	}
	return false
}

// TagIndex lists the distinct genres and moods of a catalog.
type TagIndex struct {
	Genres []string `json:"genres"`
	Moods  []string `json:"moods"`
}

// IndexTags collects distinct tags, keeping the first spelling seen and
// sorting case-insensitively.
func IndexTags(movies []Movie) TagIndex {
	return TagIndex{
		Genres: distinct(movies, func(m Movie) []string { return m.Genres }),
		Moods:  distinct(movies, func(m Movie) []string { return m.Moods }),
	}
}

func distinct(movies []Movie, field func(Movie) []string) []string {
	seen := make(map[string]struct{})
	out := []string{}
	for _, m := range movies {
		for _, tag := range field(m) {
			key := strings.ToLower(tag)
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}
			out = append(out, tag)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return strings.ToLower(out[i]) < strings.ToLower(out[j])
	})
	return out
}
