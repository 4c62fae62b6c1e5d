package testutil

import (
	"sort"
	"sync"
	"time"
)

// ManualScheduler is a virtual-time scheduler for tests.
//
// AfterFunc records callbacks instead of starting real timers. Callbacks run
// only when the test advances time, on the test's goroutine.
//
// Thread-safety: All methods are safe for concurrent use via internal mutex.
// Callbacks are invoked without the lock held.
type ManualScheduler struct {
	mu      sync.Mutex
	now     time.Time
	seq     int
	pending []scheduled
}

type scheduled struct {
	due time.Time
	seq int
	fn  func()
}

// NewManualScheduler creates a scheduler whose virtual clock starts at start.
func NewManualScheduler(start time.Time) *ManualScheduler {
	return &ManualScheduler{now: start}
}

// AfterFunc records fn to run once virtual time reaches now+d.
func (s *ManualScheduler) AfterFunc(d time.Duration, fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	s.pending = append(s.pending, scheduled{due: s.now.Add(d), seq: s.seq, fn: fn})
}

// Now returns the current virtual time.
func (s *ManualScheduler) Now() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.now
}

// Pending returns the number of callbacks not yet fired.
func (s *ManualScheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}

// Advance moves virtual time forward by d and fires every callback that has
// come due, in due order (ties broken by scheduling order).
// Returns the number of callbacks fired.
func (s *ManualScheduler) Advance(d time.Duration) int {
	s.mu.Lock()
	s.now = s.now.Add(d)
	due := s.takeDueLocked()
	s.mu.Unlock()

	for _, p := range due {
		p.fn()
	}
	return len(due)
}

// FireAll fires every pending callback regardless of due time and moves the
// virtual clock to the latest due time.
func (s *ManualScheduler) FireAll() int {
	s.mu.Lock()
	for _, p := range s.pending {
		if p.due.After(s.now) {
			s.now = p.due
		}
	}
	due := s.takeDueLocked()
	s.mu.Unlock()

	for _, p := range due {
		p.fn()
	}
	return len(due)
}

func (s *ManualScheduler) takeDueLocked() []scheduled {
	var due, rest []scheduled
	for _, p := range s.pending {
		if !p.due.After(s.now) {
			due = append(due, p)
		} else {
			rest = append(rest, p)
		}
	}
	s.pending = rest

	sort.Slice(due, func(i, j int) bool {
		if !due[i].due.Equal(due[j].due) {
			return due[i].due.Before(due[j].due)
		}
		return due[i].seq < due[j].seq
	})
	return due
}
