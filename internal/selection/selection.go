package selection

import (
	"errors"
	"math"

	"github.com/roach88/spinpick/internal/ir"
)

// Full-turn bounds layered on top of the previous rotation.
const (
	MinExtraTurns = 5
	MaxExtraTurns = 8

	FullTurn = 360.0
)

// ErrEmptyCandidateSet is returned when Select is called with no candidates.
// Reaching it means the caller skipped its own non-empty guard.
var ErrEmptyCandidateSet = errors.New("selection: empty candidate set")

// Plan describes one spin: who wins and how far the wheel turns to get there.
type Plan struct {
	WinningIndex   int     `json:"winning_index"`
	SegmentCount   int     `json:"segment_count"`
	SegmentAngle   float64 `json:"segment_angle"`
	WinningAngle   float64 `json:"winning_angle"`
	ExtraTurns     int     `json:"extra_turns"`
	StartRotation  float64 `json:"start_rotation"`
	TargetRotation float64 `json:"target_rotation"`
}

// Select draws a winner uniformly from candidates and plans the spin from
// previousRotation.
func Select(rng RNG, candidates ir.CandidateSet, previousRotation float64) (Plan, error) {
	n := len(candidates)
	if n == 0 {
		return Plan{}, ErrEmptyCandidateSet
	}

	index := rng.IntN(n)
	turns := MinExtraTurns + rng.IntN(MaxExtraTurns-MinExtraTurns+1)

	return PlanFor(index, n, previousRotation, turns), nil
}

// PlanFor builds the deterministic part of a Plan for a known winner.
func PlanFor(index, n int, previousRotation float64, extraTurns int) Plan {
	mid := SegmentMidpoint(index, n)
	return Plan{
		WinningIndex:   index,
		SegmentCount:   n,
		SegmentAngle:   SegmentAngle(n),
		WinningAngle:   mid,
		ExtraTurns:     extraTurns,
		StartRotation:  previousRotation,
		TargetRotation: TargetRotation(previousRotation, mid, extraTurns),
	}
}

// SegmentAngle returns the angular width of each of n segments.
func SegmentAngle(n int) float64 {
	if n <= 0 {
		return 0
	}
	return FullTurn / float64(n)
}

// SegmentMidpoint returns the center angle of segment index out of n.
func SegmentMidpoint(index, n int) float64 {
	return (float64(index) + 0.5) * SegmentAngle(n)
}

// SegmentAt returns the segment that covers wheel angle theta.
func SegmentAt(theta float64, n int) int {
	if n <= 0 {
		return -1
	}
	i := int(normalize(theta) / SegmentAngle(n))
	if i >= n {
		i = n - 1
	}
	return i
}

// TargetRotation returns the cumulative rotation that rests the pointer on
// winningAngle after extraTurns full turns past previous.
// The result is strictly greater than previous.
func TargetRotation(previous, winningAngle float64, extraTurns int) float64 {
	landing := normalize(FullTurn - winningAngle)
	delta := normalize(landing - normalize(previous))
	return previous + float64(extraTurns)*FullTurn + delta
}

// PointerAngle returns the wheel angle under the pointer at the given rotation.
func PointerAngle(rotation float64) float64 {
	return normalize(-rotation)
}

// normalize maps an angle into [0, 360).
func normalize(deg float64) float64 {
	r := math.Mod(deg, FullTurn)
	if r < 0 {
		r += FullTurn
	}
	// math.Mod can return values a hair under 360 for tiny negatives
	if r >= FullTurn {
		r = 0
	}
	return r
}
