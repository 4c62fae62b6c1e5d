// Package reveal implements the reveal controller: the state machine that
// fetches candidates, drives a timed spin toward a uniformly selected winner,
// settles exactly once, and persists the outcome.
//
// ARCHITECTURE:
//
// Single-Writer Event Loop:
// Every transition runs on the goroutine that called Run. Public methods
// (RequestReveal, Begin, Abort, Reset) only enqueue events, so no two
// transitions ever interleave.
//
// Generations:
// Each reveal attempt is stamped with a value from a monotonic logical clock.
// Candidate fetches and spin timers run off the loop and post their results
// back tagged with the generation that started them. The loop drops any
// result whose generation (or expected phase) no longer matches the live
// state. Timers are never cancelled, only outdated.
//
// State:
// The live State is an immutable value replaced wholesale on every
// transition. State() may be called from any goroutine. Subscribers are
// invoked synchronously on the loop goroutine, in transition order.
//
//	Idle|Settled --RequestReveal--> Loading
//	Loading --candidates--> Ready --begin--> Animating --timer--> Settled
//	Loading --empty|error--> Idle
//	Loading|Ready|Animating --Abort--> Idle
//	Idle|Ready|Settled --Reset--> Idle (clears the result store)
package reveal
