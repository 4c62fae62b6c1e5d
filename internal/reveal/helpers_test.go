package reveal

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/roach88/spinpick/internal/ir"
	"github.com/roach88/spinpick/internal/store"
	"github.com/roach88/spinpick/internal/testutil"
)

var epoch = time.Date(2026, 3, 14, 20, 0, 0, 0, time.UTC)

func abcd() ir.CandidateSet {
	return ir.CandidateSet{
		{ID: "a", Title: "Alien", Payload: ir.Payload{Year: 1979, Rating: 8.5}},
		{ID: "b", Title: "Brazil", Payload: ir.Payload{Year: 1985, Rating: 7.9}},
		{ID: "c", Title: "Casablanca", Payload: ir.Payload{Year: 1942, Rating: 8.5}},
		{ID: "d", Title: "Dune", Payload: ir.Payload{Year: 2021, Rating: 8.0}},
	}
}

// fakeProvider records calls and answers through fn.
// With a gate, every call blocks until the gate is closed or ctx ends.
type fakeProvider struct {
	mu      sync.Mutex
	calls   int
	tags    [][]string
	desired []int
	gate    chan struct{}
	fn      func(call int, tags []string) (ir.CandidateSet, error)
}

func staticProvider(set ir.CandidateSet) *fakeProvider {
	return &fakeProvider{fn: func(int, []string) (ir.CandidateSet, error) { return set, nil }}
}

func (p *fakeProvider) FetchCandidates(ctx context.Context, tags []string, desired int) (ir.CandidateSet, error) {
	p.mu.Lock()
	p.calls++
	call := p.calls
	p.tags = append(p.tags, tags)
	p.desired = append(p.desired, desired)
	gate := p.gate
	p.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return p.fn(call, tags)
}

func (p *fakeProvider) Calls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls
}

// failingStore fails every Save but otherwise behaves like a MemoryStore.
type failingStore struct {
	*store.MemoryStore
}

func (failingStore) Save(context.Context, ir.Outcome) error {
	return errors.New("disk full")
}

// recorder collects every state a controller publishes.
type recorder struct {
	mu     sync.Mutex
	states []State
}

func (r *recorder) record(s State) {
	r.mu.Lock()
	r.states = append(r.states, s)
	r.mu.Unlock()
}

func (r *recorder) Phases() []Phase {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Phase, len(r.states))
	for i, s := range r.states {
		out[i] = s.Phase
	}
	return out
}

func (r *recorder) Count(p Phase) int {
	n := 0
	for _, got := range r.Phases() {
		if got == p {
			n++
		}
	}
	return n
}

type harness struct {
	ctrl  *Controller
	sched *testutil.ManualScheduler
	store ResultStore
	rec   *recorder
}

// startController builds a controller with virtual time, a scripted RNG
// (index 2, five extra turns) and sequential outcome IDs, and runs its loop
// until the test ends.
func startController(t *testing.T, p Provider, s ResultStore, opts ...Option) *harness {
	t.Helper()
	if s == nil {
		s = store.NewMemoryStore()
	}
	sched := testutil.NewManualScheduler(epoch)
	base := []Option{
		WithScheduler(sched),
		WithRNG(testutil.NewScriptedRNG(2, 0)),
		WithIDGenerator(testutil.NewSequenceIDGenerator("outcome")),
		WithNow(sched.Now),
	}

	ctrl, err := New(context.Background(), p, s, append(base, opts...)...)
	require.NoError(t, err)

	rec := &recorder{}
	ctrl.Subscribe(rec.record)

	go ctrl.Run(context.Background())
	t.Cleanup(func() {
		ctrl.Stop()
		<-ctrl.Done()
	})

	return &harness{ctrl: ctrl, sched: sched, store: s, rec: rec}
}

func (h *harness) flush(t *testing.T) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, h.ctrl.Flush(ctx))
}

// waitUntil polls the live state until cond holds.
func (h *harness) waitUntil(t *testing.T, cond func(State) bool) State {
	t.Helper()
	require.Eventually(t, func() bool {
		return cond(h.ctrl.State())
	}, 2*time.Second, time.Millisecond)
	return h.ctrl.State()
}

func (h *harness) waitPhase(t *testing.T, p Phase) State {
	t.Helper()
	return h.waitUntil(t, func(s State) bool { return s.Phase == p })
}

// settle advances virtual time past the spin and waits for Settled.
func (h *harness) settle(t *testing.T) State {
	t.Helper()
	h.sched.Advance(DefaultSpinDuration)
	h.flush(t)
	return h.waitPhase(t, PhaseSettled)
}

func (p *fakeProvider) Tags() [][]string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([][]string(nil), p.tags...)
}

func (p *fakeProvider) Desired() []int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]int(nil), p.desired...)
}
