// Package harness runs reveal scenarios against the real controller.
//
// # Scenario Format
//
// Scenarios are YAML files:
//
//	name: abort_then_retry
//	description: "An aborted spin never settles"
//	rng: [2, 0]
//	catalog:
//	  - { id: a, title: Alien, genres: [Horror] }
//	  - { id: b, title: Brazil, genres: [Comedy] }
//	steps:
//	  - request: { tags: [Horror], hold: true }
//	  - abort: true
//	  - request: {}
//	  - advance: 4s
//	assertions:
//	  - type: final_phase
//	    phase: settled
//	  - type: phase_count
//	    phase: settled
//	    count: 1
//
// # Determinism
//
// Every run uses virtual time (testutil.ManualScheduler), a scripted RNG
// (testutil.ScriptedRNG), sequential outcome IDs and a provider that
// returns the matching catalog entries in file order. The harness waits
// for the controller to go quiet after each step, so the same scenario
// always yields the same trace.
//
// # Assertion Types
//
//   - final_phase: the phase after the last step
//   - phase_count: how many times a phase was published
//   - phase_order: phases appear in this order (gaps allowed)
//   - winner: the final settled winner's id
//   - stored: the id of the outcome in the result store
//   - store_empty: the result store holds nothing
//   - error_code: the final state's RevealError code
//   - fetch_count: how many times candidates were fetched
package harness
