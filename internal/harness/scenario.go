package harness

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/roach88/spinpick/internal/catalog"
	"github.com/roach88/spinpick/internal/reveal"
)

// Scenario describes one deterministic reveal run.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	Description string `yaml:"description"`

	// Store selects the result backend: "memory" (default) or "sqlite".
	Store string `yaml:"store,omitempty"`

	// RNG lists the scripted values drawn by the selection engine.
	// Defaults to [0].
	RNG []int `yaml:"rng,omitempty"`

	// SpinDuration defaults to reveal.DefaultSpinDuration.
	SpinDuration string `yaml:"spin_duration,omitempty"`

	// Desired caps candidate sets. Defaults to reveal.DefaultDesiredCount.
	Desired int `yaml:"desired,omitempty"`

	ManualBegin bool `yaml:"manual_begin,omitempty"`

	// Catalog is served in file order, filtered by the requested tags.
	Catalog []catalog.Movie `yaml:"catalog"`

	Steps      []Step      `yaml:"steps"`
	Assertions []Assertion `yaml:"assertions"`
}

// Step is one action against the controller. Exactly one field is set.
type Step struct {
	Request      *RequestStep `yaml:"request,omitempty"`
	Release      bool         `yaml:"release,omitempty"`
	Begin        bool         `yaml:"begin,omitempty"`
	Abort        bool         `yaml:"abort,omitempty"`
	Reset        bool         `yaml:"reset,omitempty"`
	Advance      string       `yaml:"advance,omitempty"`
	FailNext     string       `yaml:"fail_next,omitempty"`
	Restart      bool         `yaml:"restart,omitempty"`
	CorruptStore bool         `yaml:"corrupt_store,omitempty"`
}

// RequestStep asks for a reveal. With Hold the fetch blocks until a
// release step or an abort.
type RequestStep struct {
	Tags []string `yaml:"tags,omitempty"`
	Hold bool     `yaml:"hold,omitempty"`
}

// Action names the step kind.
func (s Step) Action() string {
	switch {
	case s.Request != nil:
		return "request"
	case s.Release:
		return "release"
	case s.Begin:
		return "begin"
	case s.Abort:
		return "abort"
	case s.Reset:
		return "reset"
	case s.Advance != "":
		return "advance"
	case s.FailNext != "":
		return "fail_next"
	case s.Restart:
		return "restart"
	case s.CorruptStore:
		return "corrupt_store"
	}
	return ""
}

func (s Step) count() int {
	n := 0
	for _, set := range []bool{
		s.Request != nil, s.Release, s.Begin, s.Abort, s.Reset,
		s.Advance != "", s.FailNext != "", s.Restart, s.CorruptStore,
	} {
		if set {
			n++
		}
	}
	return n
}

// Assertion validates the trace or final state.
type Assertion struct {
	Type   string       `yaml:"type"`
	Phase  string       `yaml:"phase,omitempty"`
	Phases []string     `yaml:"phases,omitempty"`
	Count  int          `yaml:"count,omitempty"`
	ID     string       `yaml:"id,omitempty"`
	Code   string       `yaml:"code,omitempty"`
}

// Assertion type constants.
const (
	AssertFinalPhase = "final_phase"
	AssertPhaseCount = "phase_count"
	AssertPhaseOrder = "phase_order"
	AssertWinner     = "winner"
	AssertStored     = "stored"
	AssertStoreEmpty = "store_empty"
	AssertErrorCode  = "error_code"
	AssertFetchCount = "fetch_count"
)

// LoadScenario reads and validates a scenario file.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario decodes a scenario, rejecting unknown fields.
func ParseScenario(data []byte) (*Scenario, error) {
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("failed to parse YAML: empty scenario")
		}
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	switch s.Store {
	case "", "memory", "sqlite":
	default:
		return fmt.Errorf("store: unknown backend %q", s.Store)
	}
	if s.SpinDuration != "" {
		if _, err := time.ParseDuration(s.SpinDuration); err != nil {
			return fmt.Errorf("spin_duration: %w", err)
		}
	}
	if s.Desired < 0 {
		return fmt.Errorf("desired must be non-negative")
	}
	if len(s.Steps) == 0 {
		return fmt.Errorf("at least one step is required")
	}
	for i, step := range s.Steps {
		if err := validateStep(i, step); err != nil {
			return err
		}
	}
	for i, a := range s.Assertions {
		if err := validateAssertion(i, a); err != nil {
			return err
		}
	}
	return nil
}

func validateStep(index int, s Step) error {
	switch s.count() {
	case 0:
		return fmt.Errorf("steps[%d]: no action set", index)
	case 1:
	default:
		return fmt.Errorf("steps[%d]: more than one action set", index)
	}
	if s.Advance != "" {
		d, err := time.ParseDuration(s.Advance)
		if err != nil {
			return fmt.Errorf("steps[%d]: advance: %w", index, err)
		}
		if d < 0 {
			return fmt.Errorf("steps[%d]: advance must not be negative", index)
		}
	}
	return nil
}

func validateAssertion(index int, a Assertion) error {
	switch a.Type {
	case AssertFinalPhase, AssertPhaseCount:
		if _, err := reveal.ParsePhase(a.Phase); err != nil {
			return fmt.Errorf("assertions[%d]: %w", index, err)
		}
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for phase_count", index)
		}
	case AssertPhaseOrder:
		if len(a.Phases) == 0 {
			return fmt.Errorf("assertions[%d]: phases list is required for phase_order", index)
		}
		for _, p := range a.Phases {
			if _, err := reveal.ParsePhase(p); err != nil {
				return fmt.Errorf("assertions[%d]: %w", index, err)
			}
		}
	case AssertWinner, AssertStored:
		if a.ID == "" {
			return fmt.Errorf("assertions[%d]: id is required for %s", index, a.Type)
		}
	case AssertStoreEmpty:
	case AssertErrorCode:
		if a.Code == "" {
			return fmt.Errorf("assertions[%d]: code is required for error_code", index)
		}
	case AssertFetchCount:
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for fetch_count", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}
