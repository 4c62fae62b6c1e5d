package ir

import "time"

// Candidate is an item eligible to be the outcome of a reveal.
type Candidate struct {
	ID      string  `json:"id" yaml:"id"`
	Title   string  `json:"title" yaml:"title"`
	Payload Payload `json:"payload" yaml:"payload"`
}

// Payload carries the domain fields shown by presenters.
// The selection engine and controller never read it.
type Payload struct {
	Year        int      `json:"year,omitempty" yaml:"year,omitempty"`
	Rating      float64  `json:"rating,omitempty" yaml:"rating,omitempty"`
	Genres      []string `json:"genres,omitempty" yaml:"genres,omitempty"`
	Moods       []string `json:"moods,omitempty" yaml:"moods,omitempty"`
	Description string   `json:"description,omitempty" yaml:"description,omitempty"`
	PosterURL   string   `json:"poster_url,omitempty" yaml:"poster_url,omitempty"`
	TrailerURL  string   `json:"trailer_url,omitempty" yaml:"trailer_url,omitempty"`
}

// CandidateSet is an ordered sequence of candidates produced fresh per reveal.
type CandidateSet []Candidate

// Len returns the number of candidates.
func (s CandidateSet) Len() int { return len(s) }

// IndexOf returns the position of the candidate with the given ID, or -1.
func (s CandidateSet) IndexOf(id string) int {
	for i, c := range s {
		if c.ID == id {
			return i
		}
	}
	return -1
}

// Contains reports whether a candidate with the given ID is in the set.
func (s CandidateSet) Contains(id string) bool {
	return s.IndexOf(id) >= 0
}

// IDs returns candidate IDs in set order.
func (s CandidateSet) IDs() []string {
	ids := make([]string, len(s))
	for i, c := range s {
		ids[i] = c.ID
	}
	return ids
}

// Clone returns a copy that shares no backing array with s.
// Payload slices are shared; payloads are treated as read-only.
func (s CandidateSet) Clone() CandidateSet {
	if s == nil {
		return nil
	}
	out := make(CandidateSet, len(s))
	copy(out, s)
	return out
}

// Outcome is the settled result of one reveal.
type Outcome struct {
	ID        string       `json:"id"`
	Winner    Candidate    `json:"winner"`
	Source    CandidateSet `json:"source_set"`
	Rotation  float64      `json:"rotation"`
	Timestamp time.Time    `json:"timestamp"`
}

// WinnerIndex returns the winner's position in the source set, or -1.
func (o Outcome) WinnerIndex() int {
	return o.Source.IndexOf(o.Winner.ID)
}
