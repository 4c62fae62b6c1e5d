package selection

import (
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/spinpick/internal/ir"
)

// fixedRNG always returns val modulo n.
type fixedRNG struct{ val int }

func (r fixedRNG) IntN(n int) int { return r.val % n }

// sequenceRNG returns values from a pre-set sequence.
type sequenceRNG struct {
	values []int
	idx    int
}

func (r *sequenceRNG) IntN(n int) int {
	v := r.values[r.idx%len(r.values)] % n
	r.idx++
	return v
}

func candidates(n int) ir.CandidateSet {
	set := make(ir.CandidateSet, n)
	for i := range n {
		set[i] = ir.Candidate{
			ID:    fmt.Sprintf("m%d", i),
			Title: fmt.Sprintf("Movie %c", 'A'+i),
		}
	}
	return set
}

const epsilon = 1e-6

func TestSelect_EmptySet(t *testing.T) {
	_, err := Select(fixedRNG{}, ir.CandidateSet{}, 0)
	assert.ErrorIs(t, err, ErrEmptyCandidateSet)

	_, err = Select(fixedRNG{}, nil, 0)
	assert.ErrorIs(t, err, ErrEmptyCandidateSet)
}

func TestSelect_FourCandidatesIndexTwo(t *testing.T) {
	plan, err := Select(fixedRNG{val: 2}, candidates(4), 0)
	require.NoError(t, err)

	assert.Equal(t, 2, plan.WinningIndex)
	assert.Equal(t, 4, plan.SegmentCount)
	assert.InDelta(t, 90.0, plan.SegmentAngle, epsilon)
	assert.InDelta(t, 225.0, plan.WinningAngle, epsilon)
	assert.InDelta(t, 225.0, PointerAngle(plan.TargetRotation), epsilon)
}

func TestSelect_ExtraTurnsWithinBounds(t *testing.T) {
	for v := 0; v < 10; v++ {
		rng := &sequenceRNG{values: []int{0, v}}
		plan, err := Select(rng, candidates(3), 0)
		require.NoError(t, err)

		assert.GreaterOrEqual(t, plan.ExtraTurns, MinExtraTurns)
		assert.LessOrEqual(t, plan.ExtraTurns, MaxExtraTurns)
		// Rotation delta covers the extra turns plus less than one alignment turn.
		delta := plan.TargetRotation - plan.StartRotation
		assert.GreaterOrEqual(t, delta, float64(plan.ExtraTurns)*FullTurn)
		assert.Less(t, delta, float64(plan.ExtraTurns+1)*FullTurn)
	}
}

func TestSelect_IndexAlwaysInRange(t *testing.T) {
	rng := NewSeededRNG(7, 11)
	for n := 1; n <= 12; n++ {
		set := candidates(n)
		for trial := 0; trial < 200; trial++ {
			plan, err := Select(rng, set, 0)
			require.NoError(t, err)
			require.GreaterOrEqual(t, plan.WinningIndex, 0)
			require.Less(t, plan.WinningIndex, n)
		}
	}
}

func TestSelect_UniformDistribution(t *testing.T) {
	const trials = 40000

	for _, n := range []int{2, 4, 7} {
		t.Run(fmt.Sprintf("n=%d", n), func(t *testing.T) {
			rng := NewSeededRNG(42, 1337)
			set := candidates(n)
			counts := make([]int, n)

			for i := 0; i < trials; i++ {
				plan, err := Select(rng, set, 0)
				require.NoError(t, err)
				counts[plan.WinningIndex]++
			}

			expected := float64(trials) / float64(n)
			for i, c := range counts {
				assert.InEpsilon(t, expected, float64(c), 0.05,
					"index %d drawn %d times, expected about %.0f", i, c, expected)
			}

			// Chi-square against the uniform distribution stays well under
			// the 0.999 critical value for n-1 <= 6 degrees of freedom.
			var chi2 float64
			for _, c := range counts {
				d := float64(c) - expected
				chi2 += d * d / expected
			}
			assert.Less(t, chi2, 22.46)
		})
	}
}

func TestSegmentMidpoint(t *testing.T) {
	tests := []struct {
		index, n int
		want     float64
	}{
		{0, 1, 180},
		{0, 4, 45},
		{2, 4, 225},
		{3, 4, 315},
		{0, 3, 60},
		{1, 8, 67.5},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("%d_of_%d", tt.index, tt.n), func(t *testing.T) {
			assert.InDelta(t, tt.want, SegmentMidpoint(tt.index, tt.n), epsilon)
		})
	}
}

func TestSegmentMidpoint_MatchesFormulaForAllN(t *testing.T) {
	for n := 1; n <= 36; n++ {
		for i := 0; i < n; i++ {
			want := (float64(i) + 0.5) * 360 / float64(n)
			require.InDelta(t, want, SegmentMidpoint(i, n), epsilon)
			require.Equal(t, i, SegmentAt(SegmentMidpoint(i, n), n))
		}
	}
}

func TestSegmentAngle_NonPositive(t *testing.T) {
	assert.Equal(t, 0.0, SegmentAngle(0))
	assert.Equal(t, 0.0, SegmentAngle(-3))
	assert.Equal(t, -1, SegmentAt(10, 0))
}

func TestSegmentAt_Boundaries(t *testing.T) {
	assert.Equal(t, 0, SegmentAt(0, 4))
	assert.Equal(t, 0, SegmentAt(89.999, 4))
	assert.Equal(t, 1, SegmentAt(90, 4))
	assert.Equal(t, 3, SegmentAt(359.999, 4))
	assert.Equal(t, 0, SegmentAt(360, 4))
	assert.Equal(t, 3, SegmentAt(-1, 4))
}

func TestTargetRotation_LandsOnMidpoint(t *testing.T) {
	for _, prev := range []float64{0, 17.5, 359.9, 1935, 100000.25} {
		for n := 1; n <= 9; n++ {
			for i := 0; i < n; i++ {
				mid := SegmentMidpoint(i, n)
				target := TargetRotation(prev, mid, MinExtraTurns)
				require.Greater(t, target, prev)
				require.InDelta(t, mid, PointerAngle(target), epsilon,
					"prev=%v n=%d i=%d", prev, n, i)
			}
		}
	}
}

func TestTargetRotation_KnownValue(t *testing.T) {
	// From rest, 5 turns, winner centered at 225 degrees: 1800 + 135.
	assert.InDelta(t, 1935.0, TargetRotation(0, 225, 5), epsilon)
}

func TestRotation_StrictlyIncreasingAcrossReveals(t *testing.T) {
	rng := NewSeededRNG(3, 5)
	set := candidates(6)

	rotation := 0.0
	for i := 0; i < 250; i++ {
		plan, err := Select(rng, set, rotation)
		require.NoError(t, err)
		require.Equal(t, rotation, plan.StartRotation)
		require.Greater(t, plan.TargetRotation, rotation, "reveal %d snapped back", i)
		require.Equal(t, plan.WinningIndex, SegmentAt(PointerAngle(plan.TargetRotation), len(set)))
		rotation = plan.TargetRotation
	}
}

func TestPointerAngle(t *testing.T) {
	assert.InDelta(t, 0.0, PointerAngle(0), epsilon)
	assert.InDelta(t, 270.0, PointerAngle(90), epsilon)
	assert.InDelta(t, 270.0, PointerAngle(450), epsilon)
	assert.InDelta(t, 90.0, PointerAngle(-90), epsilon)
	assert.False(t, math.IsNaN(PointerAngle(1e12)))
}

func TestPlanFor_Deterministic(t *testing.T) {
	a := PlanFor(1, 5, 720, 6)
	b := PlanFor(1, 5, 720, 6)
	assert.Equal(t, a, b)
	assert.Equal(t, 720.0, a.StartRotation)
	assert.InDelta(t, 108.0, a.WinningAngle, epsilon)
}
