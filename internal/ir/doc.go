// Package ir provides the foundational value types for spinpick.
//
// This package contains type definitions and pure helpers only. All other
// internal packages import ir; ir imports nothing internal.
//
// Key design constraints:
//   - Candidates are identified by ID; the engine never inspects the Payload
//   - CandidateSet order drives segment assignment, never selection fairness
//   - Outcomes are immutable once created
//   - All JSON tags use snake_case
//   - Identity hashing uses canonical JSON (NFC strings, sorted keys, no floats)
package ir
