// Package store provides SQLite-backed durable storage for search results.
//
// A store file is one search "project". It holds:
//   - Summary: a single record describing the search space (canonical JSON
//     plus fingerprint), the objective, and the resource schedule inputs
//   - Runs: one record per search run, keyed by run token
//   - Trials: one record per executed trial (configuration, budget granted,
//     resource consumed, objective, status)
//
// Trials are append-only during a run: records are inserted when a trial is
// scheduled and updated exactly once to a terminal status. Nothing is deleted.
//
// Resume semantics: a configuration fingerprint plus budget identifies a
// previously evaluated trial. Reopening a store against a search space whose
// fingerprint differs from the stored summary fails with StateError, as does
// any unreadable persisted record - prior results are never silently
// discarded.
//
// Deterministic queries: list and best-trial queries order by explicit
// columns with trial ID as the final tie-break, so identical stored state
// always yields identical results.
//
// Database configuration:
//   - WAL mode: concurrent reads during writes
//   - synchronous=NORMAL: balance durability/performance
//   - busy_timeout=5000: wait for locks up to 5 seconds
//   - foreign_keys=ON: enforce referential integrity
//   - single connection: SQLite allows one writer; trials may execute
//     concurrently but their result writes serialize here
package store
