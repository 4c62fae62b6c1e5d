// Package store persists the most recent settled reveal outcome.
//
// Every backend holds a single named slot (Namespace) containing a JSON
// snapshot of { winner, source_set, fingerprint, rotation, timestamp }.
// The snapshot is indented JSON so the slot can be inspected by hand.
//
// # Backends
//
//   - SQLite (Open): durable default, one row in result_slots
//   - File (NewFileStore): one JSON file, written via temp file + rename
//   - Memory (NewMemoryStore): process-local, used by tests and the harness
//
// # Corruption
//
// Load treats any snapshot that fails to decode or validate as absent:
//   - malformed JSON or unknown version
//   - empty source set
//   - winner missing from the source set
//   - fingerprint mismatch (source set edited after save)
//
// The slot is cleared, a warning is logged, and Load reports "no prior
// result" with a nil error. Only I/O failures are returned as errors.
//
// # SQLite Configuration
//
//   - WAL mode: concurrent reads during writes
//   - synchronous=NORMAL: balance durability/performance
//   - busy_timeout=5000: wait for locks up to 5 seconds
package store
