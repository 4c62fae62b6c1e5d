package store

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/roach88/spinpick/internal/ir"
)

// Namespace is the fixed key of the result slot.
const Namespace = "spinpick/last-outcome/v1"

// snapshotVersion is bumped when the snapshot layout changes incompatibly.
const snapshotVersion = 1

// ErrCorruptSnapshot marks a stored payload that cannot be trusted.
// Backends never return it from Load; it is logged and the slot is cleared.
var ErrCorruptSnapshot = errors.New("corrupt result snapshot")

// snapshot is the durable layout of an outcome.
type snapshot struct {
	Version     int             `json:"version"`
	ID          string          `json:"id"`
	Winner      ir.Candidate    `json:"winner"`
	SourceSet   ir.CandidateSet `json:"source_set"`
	Fingerprint string          `json:"fingerprint"`
	Rotation    float64         `json:"rotation"`
	Timestamp   time.Time       `json:"timestamp"`
}

// encodeSnapshot serializes an outcome as indented JSON.
func encodeSnapshot(o ir.Outcome) ([]byte, error) {
	if len(o.Source) == 0 {
		return nil, fmt.Errorf("encode snapshot: empty source set")
	}
	if !o.Source.Contains(o.Winner.ID) {
		return nil, fmt.Errorf("encode snapshot: winner %q not in source set", o.Winner.ID)
	}

	// JSON replaces invalid UTF-8, which would break the fingerprint on load.
	for i, c := range o.Source {
		if !utf8.ValidString(c.ID) || !utf8.ValidString(c.Title) {
			return nil, fmt.Errorf("encode snapshot: candidate %d has invalid UTF-8 in its id or title", i)
		}
	}

	fp, err := o.Source.Fingerprint()
	if err != nil {
		return nil, fmt.Errorf("encode snapshot: %w", err)
	}

	snap := snapshot{
		Version:     snapshotVersion,
		ID:          o.ID,
		Winner:      o.Winner,
		SourceSet:   o.Source,
		Fingerprint: fp,
		Rotation:    o.Rotation,
		Timestamp:   o.Timestamp.UTC(),
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(snap); err != nil {
		return nil, fmt.Errorf("encode snapshot: %w", err)
	}
	return buf.Bytes(), nil
}

// decodeSnapshot parses and validates a stored payload.
// Every failure wraps ErrCorruptSnapshot.
func decodeSnapshot(data []byte) (ir.Outcome, error) {
	var snap snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return ir.Outcome{}, fmt.Errorf("%w: %v", ErrCorruptSnapshot, err)
	}

	if snap.Version != snapshotVersion {
		return ir.Outcome{}, fmt.Errorf("%w: unsupported version %d", ErrCorruptSnapshot, snap.Version)
	}
	if len(snap.SourceSet) == 0 {
		return ir.Outcome{}, fmt.Errorf("%w: empty source set", ErrCorruptSnapshot)
	}

	idx := snap.SourceSet.IndexOf(snap.Winner.ID)
	if snap.Winner.ID == "" || idx < 0 {
		return ir.Outcome{}, fmt.Errorf("%w: winner %q not in source set", ErrCorruptSnapshot, snap.Winner.ID)
	}
	if snap.SourceSet[idx].Title != snap.Winner.Title {
		return ir.Outcome{}, fmt.Errorf("%w: winner title does not match source set", ErrCorruptSnapshot)
	}

	fp, err := snap.SourceSet.Fingerprint()
	if err != nil {
		return ir.Outcome{}, fmt.Errorf("%w: %v", ErrCorruptSnapshot, err)
	}
	if fp != snap.Fingerprint {
		return ir.Outcome{}, fmt.Errorf("%w: fingerprint mismatch", ErrCorruptSnapshot)
	}

	return ir.Outcome{
		ID:        snap.ID,
		Winner:    snap.Winner,
		Source:    snap.SourceSet,
		Rotation:  snap.Rotation,
		Timestamp: snap.Timestamp,
	}, nil
}
