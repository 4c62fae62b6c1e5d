package reveal

import (
	"fmt"

	"github.com/roach88/spinpick/internal/ir"
	"github.com/roach88/spinpick/internal/selection"
)

// Phase is the tag of the live State.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseLoading
	PhaseReady
	PhaseAnimating
	PhaseSettled
)

var phaseNames = [...]string{
	PhaseIdle:      "idle",
	PhaseLoading:   "loading",
	PhaseReady:     "ready",
	PhaseAnimating: "animating",
	PhaseSettled:   "settled",
}

func (p Phase) String() string {
	if p < 0 || int(p) >= len(phaseNames) {
		return fmt.Sprintf("phase(%d)", int(p))
	}
	return phaseNames[p]
}

// MarshalText encodes the phase by name.
func (p Phase) MarshalText() ([]byte, error) {
	if p < 0 || int(p) >= len(phaseNames) {
		return nil, fmt.Errorf("unknown phase %d", int(p))
	}
	return []byte(p.String()), nil
}

// UnmarshalText decodes a phase name.
func (p *Phase) UnmarshalText(text []byte) error {
	parsed, err := ParsePhase(string(text))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

// ParsePhase returns the phase with the given name.
func ParsePhase(name string) (Phase, error) {
	for i, n := range phaseNames {
		if n == name {
			return Phase(i), nil
		}
	}
	return PhaseIdle, fmt.Errorf("unknown phase %q", name)
}

// State is the controller's single source of truth.
//
// A State is never mutated after it is published; slices it carries are
// shared and must be treated as read-only.
type State struct {
	Phase Phase

	// Version counts transitions. Two reads with the same Version observed
	// the same State.
	Version int64

	// Generation identifies the reveal attempt this state belongs to.
	Generation int64

	Tags       []string
	Candidates ir.CandidateSet

	// Plan is set while Animating.
	Plan *selection.Plan

	// Rotation is the cumulative wheel rotation in degrees. While Animating
	// it is the rotation the wheel is heading to.
	Rotation float64

	// Outcome is set while Settled.
	Outcome *ir.Outcome

	// Err reports why the last reveal returned to Idle.
	Err error
}

// InFlight reports whether a reveal is loading or spinning.
func (s State) InFlight() bool {
	return s.Phase == PhaseLoading || s.Phase == PhaseAnimating
}

// Busy reports whether a new reveal request would be ignored.
func (s State) Busy() bool {
	return s.InFlight() || s.Phase == PhaseReady
}

// Winner returns the settled winner, if any.
func (s State) Winner() (ir.Candidate, bool) {
	if s.Phase != PhaseSettled || s.Outcome == nil {
		return ir.Candidate{}, false
	}
	return s.Outcome.Winner, true
}
