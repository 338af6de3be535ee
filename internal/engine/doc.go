// Package engine implements the bracketed successive-halving search loop.
//
// A search runs a set of brackets computed from a maximum per-trial resource
// budget and a reduction factor. Each bracket starts many configurations on a
// small budget and repeatedly keeps only the top 1/factor fraction, giving
// survivors factor-times more resource each round. Aggressive brackets (large
// s) try many configurations briefly; conservative brackets (s=0) train few
// configurations to the full budget.
//
// ARCHITECTURE
//
// Single-writer search loop: Search() owns all store writes. Trials within a
// round are independent and fan out on a bounded worker pool, but their
// records are inserted before the round starts and finalized after the pool
// drains, in trial-ID order, so the persisted log is deterministic given
// deterministic objectives.
//
// Trial execution flow:
//  1. Plan() computes the bracket table (pure, validated up front)
//  2. Each bracket samples its initial configurations
//  3. Each round runs survivors for the round budget via the Trainable
//     collaborator, with optional per-unit early stopping
//  4. Scored trials are ranked (direction-aware, ties to the lowest trial
//     ID) and the top floor(n/factor) advance
//  5. Failed trials are excluded from ranking and the round continues
//
// Resume: previously scored configurations at the same budget are reused
// from the store instead of re-run, unless overwrite is enabled.
//
// Trial IDs come from a monotonic logical clock resumed at the store's
// maximum ID, never from wall-clock time.
package engine
