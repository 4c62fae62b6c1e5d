package harness

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/roach88/spinpick/internal/reveal"
	"github.com/roach88/spinpick/internal/store"
)

// AssertionContext carries what assertions may inspect beyond the trace.
type AssertionContext struct {
	Ctx     context.Context
	Store   store.Backend
	Fetches int
}

// AssertionError is returned when an assertion fails.
type AssertionError struct {
	Type     string
	Expected string
	Actual   string
	Phases   []string
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder
	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s", e.Actual)
	if len(e.Phases) > 0 {
		fmt.Fprintf(&buf, "\n  Phases: %s", strings.Join(e.Phases, " -> "))
	}
	return buf.String()
}

// EvaluateAssertions runs every assertion and returns failure messages.
func EvaluateAssertions(result *Result, assertions []Assertion, actx *AssertionContext) []string {
	var failures []string
	for i, a := range assertions {
		if err := evaluate(result, a, actx); err != nil {
			failures = append(failures, fmt.Sprintf("assertions[%d]: %v", i, err))
		}
	}
	return failures
}

func evaluate(result *Result, a Assertion, actx *AssertionContext) error {
	switch a.Type {
	case AssertFinalPhase:
		return assertFinalPhase(result, a)
	case AssertPhaseCount:
		return assertPhaseCount(result, a)
	case AssertPhaseOrder:
		return assertPhaseOrder(result, a)
	case AssertWinner:
		return assertWinner(result, a)
	case AssertStored, AssertStoreEmpty:
		return assertStored(a, actx)
	case AssertErrorCode:
		return assertErrorCode(result, a)
	case AssertFetchCount:
		if actx.Fetches != a.Count {
			return &AssertionError{
				Type:     a.Type,
				Expected: fmt.Sprintf("%d fetches", a.Count),
				Actual:   fmt.Sprintf("%d fetches", actx.Fetches),
			}
		}
		return nil
	default:
		return fmt.Errorf("unknown assertion type: %s", a.Type)
	}
}

func assertFinalPhase(result *Result, a Assertion) error {
	got := result.Final.Phase.String()
	if got != a.Phase {
		return &AssertionError{
			Type:     a.Type,
			Expected: a.Phase,
			Actual:   got,
			Phases:   result.Phases(),
		}
	}
	return nil
}

func assertPhaseCount(result *Result, a Assertion) error {
	n := 0
	for _, p := range result.Phases() {
		if p == a.Phase {
			n++
		}
	}
	if n != a.Count {
		return &AssertionError{
			Type:     a.Type,
			Expected: fmt.Sprintf("%s published %d times", a.Phase, a.Count),
			Actual:   fmt.Sprintf("%d times", n),
			Phases:   result.Phases(),
		}
	}
	return nil
}

// assertPhaseOrder checks that phases appear in order; other phases may
// appear between them.
func assertPhaseOrder(result *Result, a Assertion) error {
	phases := result.Phases()
	next := 0
	for _, p := range phases {
		if next < len(a.Phases) && p == a.Phases[next] {
			next++
		}
	}
	if next < len(a.Phases) {
		return &AssertionError{
			Type:     a.Type,
			Expected: strings.Join(a.Phases, " -> "),
			Actual:   fmt.Sprintf("%q not found after %v", a.Phases[next], a.Phases[:next]),
			Phases:   phases,
		}
	}
	return nil
}

func assertWinner(result *Result, a Assertion) error {
	winner, ok := result.Final.Winner()
	if !ok {
		return &AssertionError{
			Type:     a.Type,
			Expected: fmt.Sprintf("settled winner %s", a.ID),
			Actual:   fmt.Sprintf("final phase %s", result.Final.Phase),
			Phases:   result.Phases(),
		}
	}
	if winner.ID != a.ID {
		return &AssertionError{Type: a.Type, Expected: a.ID, Actual: winner.ID}
	}
	return nil
}

func assertStored(a Assertion, actx *AssertionContext) error {
	o, ok, err := actx.Store.Load(actx.Ctx)
	if err != nil {
		return fmt.Errorf("load stored outcome: %w", err)
	}

	if a.Type == AssertStoreEmpty {
		if ok {
			return &AssertionError{Type: a.Type, Expected: "no stored outcome", Actual: o.Winner.ID}
		}
		return nil
	}

	if !ok {
		return &AssertionError{Type: a.Type, Expected: a.ID, Actual: "no stored outcome"}
	}
	if o.Winner.ID != a.ID {
		return &AssertionError{Type: a.Type, Expected: a.ID, Actual: o.Winner.ID}
	}
	return nil
}

func assertErrorCode(result *Result, a Assertion) error {
	var re *reveal.RevealError
	if !errors.As(result.Final.Err, &re) {
		return &AssertionError{Type: a.Type, Expected: a.Code, Actual: "no reveal error"}
	}
	if string(re.Code) != a.Code {
		return &AssertionError{Type: a.Type, Expected: a.Code, Actual: string(re.Code)}
	}
	return nil
}
