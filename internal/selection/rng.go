package selection

import (
	crand "crypto/rand"
	"encoding/binary"
	"fmt"
	"math/rand/v2"
	"sync"
)

// RNG abstracts random number generation for deterministic testing.
// *rand.Rand from math/rand/v2 satisfies it.
type RNG interface {
	// IntN returns a non-negative random int in [0, n). Panics if n <= 0.
	IntN(n int) int
}

// LockedRNG serializes access to an underlying *rand.Rand.
// The controller loop and catalog fetches may draw concurrently.
type LockedRNG struct {
	mu  sync.Mutex
	src *rand.Rand
}

// NewSeededRNG returns a deterministic RNG for the given seed pair.
func NewSeededRNG(seed1, seed2 uint64) *LockedRNG {
	return &LockedRNG{src: rand.New(rand.NewPCG(seed1, seed2))}
}

// NewRNG returns an RNG seeded from crypto/rand.
// Fairness is presentation-only; the seed just avoids identical runs.
func NewRNG() (*LockedRNG, error) {
	var b [16]byte
	if _, err := crand.Read(b[:]); err != nil {
		return nil, fmt.Errorf("read random seed: %w", err)
	}
	return NewSeededRNG(
		binary.LittleEndian.Uint64(b[:8]),
		binary.LittleEndian.Uint64(b[8:]),
	), nil
}

// IntN implements RNG.
func (r *LockedRNG) IntN(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.src.IntN(n)
}

// Sample returns k distinct indices drawn uniformly from [0, n) using a
// partial Fisher-Yates shuffle. If k >= n every index is returned in
// shuffled order. k <= 0 yields nil.
func Sample(rng RNG, n, k int) []int {
	if k <= 0 || n <= 0 {
		return nil
	}
	if k > n {
		k = n
	}

	indices := make([]int, n)
	for i := range indices {
		indices[i] = i
	}
	// Only the first k positions need to be settled.
	for i := 0; i < k; i++ {
		j := i + rng.IntN(n-i)
		indices[i], indices[j] = indices[j], indices[i]
	}
	return indices[:k]
}
