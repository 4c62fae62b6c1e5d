package testutil

import "sync"

// ScriptedRNG replays a fixed list of values, cycling when exhausted.
// Each value is reduced modulo n so a script stays valid for any set size.
//
// Thread-safety: ScriptedRNG is safe for concurrent use via internal mutex.
type ScriptedRNG struct {
	mu     sync.Mutex
	values []int
	idx    int
}

// NewScriptedRNG creates an RNG returning values in order.
// With no values it always returns 0.
func NewScriptedRNG(values ...int) *ScriptedRNG {
	return &ScriptedRNG{values: values}
}

// IntN returns the next scripted value modulo n.
func (r *ScriptedRNG) IntN(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.values) == 0 || n <= 0 {
		return 0
	}
	v := r.values[r.idx%len(r.values)]
	r.idx++
	v %= n
	if v < 0 {
		v += n
	}
	return v
}

// Calls returns how many values have been drawn.
func (r *ScriptedRNG) Calls() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.idx
}
