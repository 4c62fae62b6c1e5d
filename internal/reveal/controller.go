package reveal

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"
	"unicode/utf8"

	"github.com/roach88/spinpick/internal/ir"
	"github.com/roach88/spinpick/internal/selection"
)

// Controller is the single-writer reveal state machine.
//
// Thread-safety model:
//   - RequestReveal, TryReveal, Begin, Abort, Reset, TryReset, Flush: safe from any goroutine
//   - State, Subscribe: safe from any goroutine
//   - Run: must be called from exactly one goroutine
//
// INVARIANTS:
//   - at most one reveal is Loading, Ready or Animating at a time
//   - Animating always carries a non-empty set and a winning index inside it
//   - each generation settles at most once
type Controller struct {
	provider Provider
	store    ResultStore

	rng         selection.RNG
	sched       Scheduler
	ids         IDGenerator
	now         func() time.Time
	spin        time.Duration
	desired     int
	manualBegin bool

	clock   *Clock
	queue   *eventQueue
	state   atomic.Pointer[State]
	running atomic.Bool
	stopped chan struct{}

	subMu   sync.Mutex
	subs    map[int]func(State)
	nextSub int

	// Owned by the loop goroutine.
	cancelFetch context.CancelFunc
	fetches     sync.WaitGroup
}

// New creates a controller and restores the last persisted outcome.
// A restored outcome puts the controller in Settled at generation 0.
// Only I/O failures from the store are returned; corrupt snapshots are
// handled by the store and read as absent.
func New(ctx context.Context, provider Provider, store ResultStore, opts ...Option) (*Controller, error) {
	c := &Controller{
		provider: provider,
		store:    store,
		sched:    TimerScheduler{},
		ids:      UUIDv7Generator{},
		now:      time.Now,
		spin:     DefaultSpinDuration,
		desired:  DefaultDesiredCount,
		clock:    NewClock(),
		queue:    newEventQueue(),
		stopped:  make(chan struct{}),
		subs:     make(map[int]func(State)),
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.rng == nil {
		rng, err := selection.NewRNG()
		if err != nil {
			return nil, fmt.Errorf("create rng: %w", err)
		}
		c.rng = rng
	}

	initial := State{Phase: PhaseIdle}
	o, ok, err := store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("restore last outcome: %w", err)
	}
	if ok {
		initial = State{
			Phase:      PhaseSettled,
			Candidates: o.Source,
			Rotation:   o.Rotation,
			Outcome:    &o,
		}
		slog.Info("restored last outcome",
			"outcome_id", o.ID,
			"winner_id", o.Winner.ID,
			"candidates", o.Source.Len(),
		)
	}
	c.state.Store(&initial)

	return c, nil
}

// State returns the live state.
func (c *Controller) State() State {
	return *c.state.Load()
}

// Subscribe registers fn to receive every new State. fn runs on the loop
// goroutine and must not block; it may call the controller's enqueueing
// methods but not Flush, TryReveal or TryReset.
// The returned function removes the subscription.
func (c *Controller) Subscribe(fn func(State)) (cancel func()) {
	c.subMu.Lock()
	id := c.nextSub
	c.nextSub++
	c.subs[id] = fn
	c.subMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			c.subMu.Lock()
			delete(c.subs, id)
			c.subMu.Unlock()
		})
	}
}

// RequestReveal asks for a new reveal with the given filter tags.
// It is ignored while a reveal is Loading, Ready or Animating.
// Returns false if the controller has been stopped.
func (c *Controller) RequestReveal(tags []string) bool {
	return c.queue.Enqueue(event{kind: evRequest, tags: normalizeTags(tags)})
}

// TryReveal is RequestReveal that waits for the guard decision.
// It returns the state right after the request was handled and whether a
// new reveal was started.
func (c *Controller) TryReveal(ctx context.Context, tags []string) (State, bool, error) {
	return c.await(ctx, event{kind: evRequest, tags: normalizeTags(tags)})
}

// TryReset is Reset that waits for the decision. It returns the state right
// after the reset was handled and whether it was applied.
func (c *Controller) TryReset(ctx context.Context) (State, bool, error) {
	return c.await(ctx, event{kind: evReset})
}

// await enqueues ev with a reply channel and waits for the loop's answer.
func (c *Controller) await(ctx context.Context, ev event) (State, bool, error) {
	reply := make(chan requestReply, 1)
	ev.reply = reply
	if !c.queue.Enqueue(ev) {
		return c.State(), false, ErrStopped
	}

	select {
	case r := <-reply:
		return r.state, r.accepted, nil
	case <-ctx.Done():
		return c.State(), false, ctx.Err()
	case <-c.stopped:
		// The loop may have answered just before exiting.
		select {
		case r := <-reply:
			return r.state, r.accepted, nil
		default:
			return c.State(), false, ErrStopped
		}
	}
}

// Begin starts the spin from Ready. Only needed with WithManualBegin.
func (c *Controller) Begin() bool {
	return c.queue.Enqueue(event{kind: evBegin})
}

// Abort abandons a Loading, Ready or Animating reveal and returns to Idle.
// Pending fetches and timers of the abandoned reveal become no-ops.
func (c *Controller) Abort() bool {
	return c.queue.Enqueue(event{kind: evAbort})
}

// Reset returns to Idle and clears the result store.
// It is ignored while a reveal is Loading or Animating.
func (c *Controller) Reset() bool {
	return c.queue.Enqueue(event{kind: evReset})
}

// Flush blocks until every event enqueued before the call has been handled.
func (c *Controller) Flush(ctx context.Context) error {
	done := make(chan struct{})
	if !c.queue.Enqueue(event{kind: evBarrier, done: done}) {
		return ErrStopped
	}

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-c.stopped:
		select {
		case <-done:
			return nil
		default:
			return ErrStopped
		}
	}
}

// Stop closes the event queue. Run handles the events already queued,
// waits for in-flight fetches to return, then exits.
func (c *Controller) Stop() {
	c.queue.Close()
}

// Done is closed once Run has returned.
func (c *Controller) Done() <-chan struct{} {
	return c.stopped
}

// Run starts the single-writer event loop.
// Blocks until ctx is cancelled or Stop() is called.
//
// CRITICAL: Must be called from exactly ONE goroutine.
func (c *Controller) Run(ctx context.Context) error {
	if !c.running.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}

	ctx, cancel := context.WithCancel(ctx)
	defer func() {
		cancel()
		c.fetches.Wait()
		close(c.stopped)
	}()

	slog.Info("reveal controller starting", "phase", c.State().Phase)

	for {
		ev, ok := c.queue.TryDequeue()
		if ok {
			c.handle(ctx, ev)
			continue
		}

		select {
		case <-ctx.Done():
			slog.Info("reveal controller stopping: context cancelled")
			c.queue.Close()
			return ctx.Err()

		case <-c.queue.Wait():
			// The signal channel closes with the queue.
			if c.queue.Drained() {
				slog.Info("reveal controller stopping: queue closed")
				return nil
			}
		}
	}
}

// handle routes an event to its transition.
// CRITICAL: Called only from Run() goroutine.
func (c *Controller) handle(ctx context.Context, ev event) {
	switch ev.kind {
	case evRequest:
		c.onRequest(ctx, ev)
	case evFetched:
		c.onFetched(ev)
	case evBegin:
		c.onBegin()
	case evTimer:
		c.onTimer(ctx, ev.gen)
	case evAbort:
		c.onAbort()
	case evReset:
		c.onReset(ctx, ev)
	case evBarrier:
		close(ev.done)
	default:
		slog.Error("unknown reveal event", "kind", int(ev.kind))
	}
}

func (c *Controller) onRequest(ctx context.Context, ev event) {
	cur := c.State()
	if cur.Busy() {
		slog.Debug("reveal request ignored",
			"phase", cur.Phase,
			"generation", cur.Generation,
		)
		if ev.reply != nil {
			ev.reply <- requestReply{accepted: false, state: cur}
		}
		return
	}

	gen := c.clock.Next()
	fetchCtx, cancel := context.WithCancel(ctx)
	c.cancelFetch = cancel

	next := c.transition(State{
		Phase:      PhaseLoading,
		Generation: gen,
		Tags:       ev.tags,
		Rotation:   cur.Rotation,
	})
	slog.Info("reveal requested", "generation", gen, "tags", ev.tags)

	c.fetches.Add(1)
	go c.fetch(fetchCtx, gen, ev.tags)

	if ev.reply != nil {
		ev.reply <- requestReply{accepted: true, state: next}
	}
}

// fetch runs off the loop and posts its result back.
func (c *Controller) fetch(ctx context.Context, gen int64, tags []string) {
	defer c.fetches.Done()

	set, err := c.provider.FetchCandidates(ctx, tags, c.desired)
	c.queue.Enqueue(event{kind: evFetched, gen: gen, set: set, err: err})
}

func (c *Controller) onFetched(ev event) {
	cur := c.State()
	if cur.Phase != PhaseLoading || cur.Generation != ev.gen {
		slog.Debug("stale candidates dropped",
			"generation", ev.gen,
			"current_generation", cur.Generation,
			"phase", cur.Phase,
		)
		return
	}
	c.releaseFetch()

	idle := State{
		Phase:      PhaseIdle,
		Generation: cur.Generation,
		Tags:       cur.Tags,
		Rotation:   cur.Rotation,
	}

	if ev.err != nil {
		slog.Warn("candidate fetch failed", "generation", ev.gen, "error", ev.err)
		idle.Err = NewFetchError(ev.gen, cur.Tags, ev.err)
		c.transition(idle)
		return
	}
	if len(ev.set) == 0 {
		slog.Info("no candidates matched", "generation", ev.gen, "tags", cur.Tags)
		idle.Err = NewNoCandidatesError(ev.gen, cur.Tags)
		c.transition(idle)
		return
	}
	if err := validateSet(ev.set); err != nil {
		slog.Warn("provider returned an unusable set", "generation", ev.gen, "error", err)
		idle.Err = NewFetchError(ev.gen, cur.Tags, err)
		c.transition(idle)
		return
	}

	c.transition(State{
		Phase:      PhaseReady,
		Generation: cur.Generation,
		Tags:       cur.Tags,
		Candidates: ev.set.Clone(),
		Rotation:   cur.Rotation,
	})

	if !c.manualBegin {
		c.onBegin()
	}
}

func (c *Controller) onBegin() {
	cur := c.State()
	if cur.Phase != PhaseReady {
		slog.Debug("begin ignored", "phase", cur.Phase)
		return
	}

	plan, err := selection.Select(c.rng, cur.Candidates, cur.Rotation)
	if err != nil {
		// Unreachable while onFetched rejects empty sets.
		slog.Error("selection failed", "generation", cur.Generation, "error", err)
		c.transition(State{
			Phase:      PhaseIdle,
			Generation: cur.Generation,
			Tags:       cur.Tags,
			Rotation:   cur.Rotation,
			Err:        NewSelectionError(cur.Generation, err),
		})
		return
	}

	// The timer event cannot be handled before this one returns, so it is
	// safe to schedule before Animating is published.
	gen := cur.Generation
	c.sched.AfterFunc(c.spin, func() {
		c.queue.Enqueue(event{kind: evTimer, gen: gen})
	})
	slog.Debug("spin scheduled",
		"generation", gen,
		"winning_index", plan.WinningIndex,
		"target_rotation", plan.TargetRotation,
		"duration", c.spin,
	)

	c.transition(State{
		Phase:      PhaseAnimating,
		Generation: gen,
		Tags:       cur.Tags,
		Candidates: cur.Candidates,
		Plan:       &plan,
		Rotation:   plan.TargetRotation,
	})
}

func (c *Controller) onTimer(ctx context.Context, gen int64) {
	cur := c.State()
	if cur.Phase != PhaseAnimating || cur.Generation != gen {
		slog.Debug("stale completion ignored",
			"generation", gen,
			"current_generation", cur.Generation,
			"phase", cur.Phase,
		)
		return
	}

	winner := cur.Candidates[cur.Plan.WinningIndex]
	o := ir.Outcome{
		ID:        c.ids.Generate(),
		Winner:    winner,
		Source:    cur.Candidates,
		Rotation:  cur.Plan.TargetRotation,
		Timestamp: c.now().UTC(),
	}

	// A failed save still settles; the outcome is just not restorable.
	if err := c.store.Save(ctx, o); err != nil {
		slog.Error("save outcome failed", "generation", gen, "outcome_id", o.ID, "error", err)
	}

	c.transition(State{
		Phase:      PhaseSettled,
		Generation: gen,
		Tags:       cur.Tags,
		Candidates: cur.Candidates,
		Rotation:   o.Rotation,
		Outcome:    &o,
	})
	slog.Info("reveal settled",
		"generation", gen,
		"outcome_id", o.ID,
		"winner_id", winner.ID,
		"winner_title", winner.Title,
	)
}

func (c *Controller) onAbort() {
	cur := c.State()
	if !cur.Busy() {
		slog.Debug("abort ignored", "phase", cur.Phase)
		return
	}
	c.releaseFetch()

	gen := c.clock.Next()
	c.transition(State{
		Phase:      PhaseIdle,
		Generation: gen,
		Rotation:   cur.Rotation,
	})
	slog.Info("reveal aborted", "aborted_generation", cur.Generation, "generation", gen)
}

func (c *Controller) onReset(ctx context.Context, ev event) {
	cur := c.State()
	if cur.InFlight() {
		slog.Debug("reset ignored", "phase", cur.Phase, "generation", cur.Generation)
		if ev.reply != nil {
			ev.reply <- requestReply{accepted: false, state: cur}
		}
		return
	}

	if err := c.store.Clear(ctx); err != nil {
		slog.Error("clear outcome failed", "error", err)
	}

	next := c.transition(State{
		Phase:      PhaseIdle,
		Generation: cur.Generation,
		Rotation:   cur.Rotation,
	})
	if ev.reply != nil {
		ev.reply <- requestReply{accepted: true, state: next}
	}
}

// transition publishes next as the live state and notifies subscribers.
func (c *Controller) transition(next State) State {
	prev := c.State()
	next.Version = prev.Version + 1
	c.state.Store(&next)

	slog.Debug("reveal transition",
		"from", prev.Phase,
		"to", next.Phase,
		"generation", next.Generation,
		"version", next.Version,
	)

	c.subMu.Lock()
	fns := make([]func(State), 0, len(c.subs))
	ids := make([]int, 0, len(c.subs))
	for id := range c.subs {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	for _, id := range ids {
		fns = append(fns, c.subs[id])
	}
	c.subMu.Unlock()

	for _, fn := range fns {
		fn(next)
	}
	return next
}

func (c *Controller) releaseFetch() {
	if c.cancelFetch != nil {
		c.cancelFetch()
		c.cancelFetch = nil
	}
}

// validateSet rejects sets whose candidates cannot be told apart or
// would not survive a save and restore.
func validateSet(set ir.CandidateSet) error {
	seen := make(map[string]struct{}, len(set))
	for i, cand := range set {
		if cand.ID == "" {
			return fmt.Errorf("candidate %d has an empty id", i)
		}
		if !utf8.ValidString(cand.ID) || !utf8.ValidString(cand.Title) {
			return fmt.Errorf("candidate %d has invalid UTF-8 in its id or title", i)
		}
		if _, dup := seen[cand.ID]; dup {
			return fmt.Errorf("duplicate candidate id %q", cand.ID)
		}
		seen[cand.ID] = struct{}{}
	}
	return nil
}

// normalizeTags trims, drops empty and duplicate tags, and sorts the rest.
func normalizeTags(tags []string) []string {
	if len(tags) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(tags))
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	if len(out) == 0 {
		return nil
	}
	sort.Strings(out)
	return out
}
