package reveal

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/roach88/spinpick/internal/ir"
	"github.com/roach88/spinpick/internal/selection"
)

const (
	// DefaultSpinDuration matches the length of the wheel animation.
	DefaultSpinDuration = 4000 * time.Millisecond

	// DefaultDesiredCount is the number of wheel segments requested per reveal.
	DefaultDesiredCount = 8
)

// Provider supplies candidates for a reveal.
//
// Tags are unordered. desired is an upper bound; fewer items, including
// none, may be returned. Implementations must return promptly once ctx is
// cancelled.
type Provider interface {
	FetchCandidates(ctx context.Context, tags []string, desired int) (ir.CandidateSet, error)
}

// ResultStore persists the last settled outcome.
// Implemented by store.Store, store.FileStore and store.MemoryStore.
type ResultStore interface {
	Save(ctx context.Context, o ir.Outcome) error
	Load(ctx context.Context) (ir.Outcome, bool, error)
	Clear(ctx context.Context) error
}

// Scheduler runs fn once after d. Scheduled callbacks are never cancelled.
type Scheduler interface {
	AfterFunc(d time.Duration, fn func())
}

// IDGenerator generates outcome IDs.
// Implemented by UUIDv7Generator (production) and testutil.SequenceIDGenerator.
type IDGenerator interface {
	Generate() string
}

// TimerScheduler schedules callbacks on real timers.
type TimerScheduler struct{}

// AfterFunc implements Scheduler with time.AfterFunc.
func (TimerScheduler) AfterFunc(d time.Duration, fn func()) {
	time.AfterFunc(d, fn)
}

// UUIDv7Generator generates time-sortable UUIDv7 outcome IDs.
//
// Thread-safety: UUIDv7Generator is stateless and safe for concurrent use.
type UUIDv7Generator struct{}

// Generate creates a new UUIDv7 and returns it as a hyphenated string.
// Panics if UUID generation fails (should never happen in practice).
func (UUIDv7Generator) Generate() string {
	return uuid.Must(uuid.NewV7()).String()
}

// Option configures a Controller.
type Option func(*Controller)

// WithScheduler sets the timer scheduler. Default: TimerScheduler.
func WithScheduler(s Scheduler) Option {
	return func(c *Controller) { c.sched = s }
}

// WithRNG sets the randomness source for selection.
// Default: selection.NewRNG (seeded from crypto/rand).
func WithRNG(r selection.RNG) Option {
	return func(c *Controller) { c.rng = r }
}

// WithSpinDuration sets how long Animating lasts. Non-positive values are ignored.
func WithSpinDuration(d time.Duration) Option {
	return func(c *Controller) {
		if d > 0 {
			c.spin = d
		}
	}
}

// WithDesiredCount sets the candidate count requested per reveal.
// Non-positive values are ignored.
func WithDesiredCount(n int) Option {
	return func(c *Controller) {
		if n > 0 {
			c.desired = n
		}
	}
}

// WithManualBegin keeps the controller in Ready until Begin is called.
func WithManualBegin() Option {
	return func(c *Controller) { c.manualBegin = true }
}

// WithIDGenerator sets the outcome ID generator. Default: UUIDv7Generator.
func WithIDGenerator(g IDGenerator) Option {
	return func(c *Controller) { c.ids = g }
}

// WithNow sets the wall clock used for outcome timestamps.
func WithNow(now func() time.Time) Option {
	return func(c *Controller) { c.now = now }
}
