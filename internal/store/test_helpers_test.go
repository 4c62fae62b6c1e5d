package store

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/roach88/spinpick/internal/ir"
)

// createTestStore opens a SQLite store in a temp directory.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// testBackends returns one fresh instance of every backend.
func testBackends(t *testing.T) map[string]Backend {
	t.Helper()
	return map[string]Backend{
		"sqlite": createTestStore(t),
		"file":   NewFileStore(filepath.Join(t.TempDir(), "last.json")),
		"memory": NewMemoryStore(),
	}
}

// testOutcome returns a fixed outcome with the second candidate winning.
func testOutcome() ir.Outcome {
	heat := ir.Candidate{
		ID:    "m2",
		Title: "Heat",
		Payload: ir.Payload{
			Year:   1995,
			Rating: 8.3,
			Genres: []string{"Crime", "Thriller"},
		},
	}
	return ir.Outcome{
		ID:     "01890a5d-ac96-774b-bcce-b302099a8057",
		Winner: heat,
		Source: ir.CandidateSet{
			{ID: "m1", Title: "Arrival", Payload: ir.Payload{Year: 2016, Rating: 7.9}},
			heat,
		},
		Rotation:  1935,
		Timestamp: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}
}
