package harness

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/roach88/spinpick/internal/catalog"
	"github.com/roach88/spinpick/internal/ir"
	"github.com/roach88/spinpick/internal/reveal"
	"github.com/roach88/spinpick/internal/store"
	"github.com/roach88/spinpick/internal/testutil"
)

// Epoch is the virtual time every scenario starts at.
var Epoch = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

// quiesceTimeout bounds the wait for a fetch to post its result.
const quiesceTimeout = 5 * time.Second

// Harness executes one scenario with deterministic collaborators.
type Harness struct {
	scenario *Scenario
	opts     []reveal.Option

	backend  store.Backend
	mem      *store.MemoryStore
	db       *store.Store
	provider *scenarioProvider
	sched    *testutil.ManualScheduler

	ctrl  *reveal.Controller
	unsub func()
	held  bool

	mu     sync.Mutex
	seq    int64
	result *Result
}

// Run executes a scenario and returns the result.
//
// Each scenario runs against a fresh store, so scenarios are isolated.
// Execution flow:
// 1. Open the store and build the controller
// 2. Execute steps, waiting for the controller to go quiet after each
// 3. Evaluate assertions against the trace and final state
func Run(scenario *Scenario) (*Result, error) {
	return RunContext(context.Background(), scenario)
}

// RunContext is Run with a caller-supplied context.
func RunContext(ctx context.Context, scenario *Scenario) (*Result, error) {
	h, err := newHarness(scenario)
	if err != nil {
		return nil, err
	}
	defer h.close()

	if err := h.start(ctx); err != nil {
		return nil, err
	}

	for i, step := range scenario.Steps {
		if err := h.execute(ctx, step); err != nil {
			return nil, fmt.Errorf("steps[%d] (%s): %w", i, step.Action(), err)
		}
	}

	h.result.Final = h.ctrl.State()
	actx := &AssertionContext{
		Ctx:     ctx,
		Store:   h.backend,
		Fetches: h.provider.Calls(),
	}
	for _, msg := range EvaluateAssertions(h.result, scenario.Assertions, actx) {
		h.result.AddError(msg)
	}
	return h.result, nil
}

func newHarness(s *Scenario) (*Harness, error) {
	h := &Harness{
		scenario: s,
		provider: &scenarioProvider{movies: s.Catalog},
		sched:    testutil.NewManualScheduler(Epoch),
		result:   NewResult(),
	}

	switch s.Store {
	case "sqlite":
		db, err := store.Open(":memory:")
		if err != nil {
			return nil, fmt.Errorf("failed to create in-memory store: %w", err)
		}
		h.db, h.backend = db, db
	default:
		h.mem = store.NewMemoryStore()
		h.backend = h.mem
	}

	h.opts = []reveal.Option{
		reveal.WithScheduler(h.sched),
		reveal.WithRNG(testutil.NewScriptedRNG(s.RNG...)),
		reveal.WithIDGenerator(testutil.NewSequenceIDGenerator("outcome")),
		reveal.WithNow(h.sched.Now),
	}
	if s.SpinDuration != "" {
		d, _ := time.ParseDuration(s.SpinDuration) // validated on load
		h.opts = append(h.opts, reveal.WithSpinDuration(d))
	}
	if s.Desired > 0 {
		h.opts = append(h.opts, reveal.WithDesiredCount(s.Desired))
	}
	if s.ManualBegin {
		h.opts = append(h.opts, reveal.WithManualBegin())
	}
	return h, nil
}

// start builds a controller over the current store and records the state
// it restored.
func (h *Harness) start(ctx context.Context) error {
	ctrl, err := reveal.New(ctx, h.provider, h.backend, h.opts...)
	if err != nil {
		return fmt.Errorf("failed to create controller: %w", err)
	}
	h.ctrl = ctrl
	h.record(stateEvent(ctrl.State()))
	h.unsub = ctrl.Subscribe(func(st reveal.State) {
		h.record(stateEvent(st))
	})
	go ctrl.Run(context.WithoutCancel(ctx))
	return nil
}

func (h *Harness) stop() {
	if h.ctrl == nil {
		return
	}
	h.provider.release()
	h.ctrl.Stop()
	<-h.ctrl.Done()
	h.unsub()
	h.ctrl = nil
}

func (h *Harness) close() {
	h.stop()
	_ = h.backend.Close()
}

func (h *Harness) record(ev TraceEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.seq++
	ev.Seq = h.seq
	h.result.Trace = append(h.result.Trace, ev)
}

func (h *Harness) execute(ctx context.Context, step Step) error {
	h.record(stepEvent(step))

	switch {
	case step.Request != nil:
		if step.Request.Hold {
			h.provider.holdNext()
			h.held = true
		}
		_, accepted, err := h.ctrl.TryReveal(ctx, step.Request.Tags)
		if err != nil {
			return err
		}
		if !accepted && step.Request.Hold {
			h.provider.release()
			h.held = false
		}

	case step.Release:
		h.provider.release()
		h.held = false

	case step.Begin:
		h.ctrl.Begin()

	case step.Abort:
		h.ctrl.Abort()
		h.provider.release()
		h.held = false

	case step.Reset:
		h.ctrl.Reset()

	case step.Advance != "":
		d, _ := time.ParseDuration(step.Advance)
		h.sched.Advance(d)

	case step.FailNext != "":
		h.provider.failWith(step.FailNext)

	case step.Restart:
		h.stop()
		return h.start(ctx)

	case step.CorruptStore:
		return h.corruptStore(ctx)
	}

	return h.quiesce(ctx)
}

// quiesce waits until every queued event is handled and no unheld fetch is
// outstanding.
func (h *Harness) quiesce(ctx context.Context) error {
	deadline := time.Now().Add(quiesceTimeout)
	for {
		if err := h.ctrl.Flush(ctx); err != nil {
			return err
		}
		if h.ctrl.State().Phase != reveal.PhaseLoading || h.held {
			return nil
		}
		if time.Now().After(deadline) {
			return errors.New("timed out waiting for candidates")
		}
		time.Sleep(time.Millisecond)
	}
}

func (h *Harness) corruptStore(ctx context.Context) error {
	const garbage = `{"version": 1, "winner": `
	if h.mem != nil {
		h.mem.SetRaw([]byte(garbage))
		return nil
	}
	_, err := h.db.DB().ExecContext(ctx,
		`INSERT INTO result_slots (namespace, payload, saved_at) VALUES (?, ?, ?)
		 ON CONFLICT(namespace) DO UPDATE SET payload = excluded.payload`,
		store.Namespace, garbage, Epoch.Format(time.RFC3339Nano))
	return err
}

// scenarioProvider serves the scenario catalog in file order.
type scenarioProvider struct {
	mu     sync.Mutex
	movies []catalog.Movie
	calls  int
	fail   string
	hold   bool
	gate   chan struct{}
}

func (p *scenarioProvider) FetchCandidates(ctx context.Context, tags []string, desired int) (ir.CandidateSet, error) {
	p.mu.Lock()
	p.calls++
	fail := p.fail
	p.fail = ""
	var gate chan struct{}
	if p.hold {
		gate = p.gate
		p.hold = false
	}
	p.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if fail != "" {
		return nil, errors.New(fail)
	}

	var matched []catalog.Movie
	for _, m := range p.movies {
		if desired > 0 && len(matched) == desired {
			break
		}
		if m.Matches(tags) {
			matched = append(matched, m)
		}
	}
	return catalog.Candidates(matched), nil
}

func (p *scenarioProvider) holdNext() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.hold = true
	p.gate = make(chan struct{})
}

func (p *scenarioProvider) release() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.hold = false
	if p.gate != nil {
		close(p.gate)
		p.gate = nil
	}
}

func (p *scenarioProvider) failWith(msg string) {
	p.mu.Lock()
	p.fail = msg
	p.mu.Unlock()
}

// Calls returns how many fetches were made.
func (p *scenarioProvider) Calls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls
}
