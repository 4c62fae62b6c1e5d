package harness

import (
	"errors"
	"strconv"

	"github.com/roach88/spinpick/internal/reveal"
)

// Trace event types.
const (
	EventStep  = "step"
	EventState = "state"
)

// TraceEvent is either a scenario step or a state the controller published.
type TraceEvent struct {
	Seq  int64  `json:"seq"`
	Type string `json:"type"`

	// Step fields.
	Action   string   `json:"action,omitempty"`
	Tags     []string `json:"tags,omitempty"`
	Hold     bool     `json:"hold,omitempty"`
	Duration string   `json:"duration,omitempty"`
	Message  string   `json:"message,omitempty"`

	// State fields. Angles are decimal strings so traces stay float-free.
	Phase          string   `json:"phase,omitempty"`
	Generation     int64    `json:"generation,omitempty"`
	Candidates     []string `json:"candidates,omitempty"`
	WinningIndex   *int     `json:"winning_index,omitempty"`
	ExtraTurns     int      `json:"extra_turns,omitempty"`
	TargetRotation string   `json:"target_rotation,omitempty"`
	Rotation       string   `json:"rotation,omitempty"`
	Winner         string   `json:"winner,omitempty"`
	OutcomeID      string   `json:"outcome_id,omitempty"`
	ErrorCode      string   `json:"error_code,omitempty"`
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass is true if every assertion held.
	Pass bool `json:"pass"`

	Trace  []TraceEvent `json:"trace"`
	Errors []string     `json:"errors,omitempty"`

	// Final is the controller state after the last step.
	Final reveal.State `json:"-"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []TraceEvent{},
		Errors: []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// Phases returns the published phases in trace order.
func (r *Result) Phases() []string {
	var out []string
	for _, ev := range r.Trace {
		if ev.Type == EventState {
			out = append(out, ev.Phase)
		}
	}
	return out
}

func stepEvent(step Step) TraceEvent {
	ev := TraceEvent{Type: EventStep, Action: step.Action()}
	switch {
	case step.Request != nil:
		ev.Tags = step.Request.Tags
		ev.Hold = step.Request.Hold
	case step.Advance != "":
		ev.Duration = step.Advance
	case step.FailNext != "":
		ev.Message = step.FailNext
	}
	return ev
}

func stateEvent(st reveal.State) TraceEvent {
	ev := TraceEvent{
		Type:       EventState,
		Phase:      st.Phase.String(),
		Generation: st.Generation,
		Tags:       st.Tags,
		Candidates: st.Candidates.IDs(),
		Rotation:   formatAngle(st.Rotation),
	}
	if st.Plan != nil {
		idx := st.Plan.WinningIndex
		ev.WinningIndex = &idx
		ev.ExtraTurns = st.Plan.ExtraTurns
		ev.TargetRotation = formatAngle(st.Plan.TargetRotation)
	}
	if st.Outcome != nil {
		ev.Winner = st.Outcome.Winner.ID
		ev.OutcomeID = st.Outcome.ID
	}
	var re *reveal.RevealError
	if errors.As(st.Err, &re) {
		ev.ErrorCode = string(re.Code)
	}
	return ev
}

func formatAngle(deg float64) string {
	return strconv.FormatFloat(deg, 'f', -1, 64)
}

// canonical converts the event for ir.MarshalCanonical, dropping empty fields.
func (ev TraceEvent) canonical() map[string]any {
	m := map[string]any{
		"seq":  ev.Seq,
		"type": ev.Type,
	}
	putString := func(k, v string) {
		if v != "" {
			m[k] = v
		}
	}
	putStrings := func(k string, v []string) {
		if len(v) > 0 {
			m[k] = v
		}
	}

	putString("action", ev.Action)
	putStrings("tags", ev.Tags)
	if ev.Hold {
		m["hold"] = true
	}
	putString("duration", ev.Duration)
	putString("message", ev.Message)

	if ev.Type == EventState {
		m["phase"] = ev.Phase
		m["generation"] = ev.Generation
		m["rotation"] = ev.Rotation
	}
	putStrings("candidates", ev.Candidates)
	if ev.WinningIndex != nil {
		m["winning_index"] = *ev.WinningIndex
		m["extra_turns"] = ev.ExtraTurns
		m["target_rotation"] = ev.TargetRotation
	}
	putString("winner", ev.Winner)
	putString("outcome_id", ev.OutcomeID)
	putString("error_code", ev.ErrorCode)
	return m
}
