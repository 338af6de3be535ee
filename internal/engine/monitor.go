package engine

import "github.com/sievehq/sieve/internal/store"

// EarlyStopping is a patience-based improvement monitor.
//
// The runner feeds it one observation per resource unit. When the objective
// has not improved by at least MinDelta for Patience consecutive units, the
// monitor signals the trial to stop; the trial then reports the best value
// observed so far.
//
// One monitor per trial. Not safe for concurrent use.
type EarlyStopping struct {
	patience int
	minDelta float64
	mode     store.Mode

	best float64
	wait int
	seen bool
}

// NewEarlyStopping creates a monitor for the given objective direction.
// Patience is measured in resource units; minDelta is the minimum change
// that counts as an improvement.
func NewEarlyStopping(mode store.Mode, patience int, minDelta float64) *EarlyStopping {
	return &EarlyStopping{patience: patience, minDelta: minDelta, mode: mode}
}

// Observe records one objective observation.
func (m *EarlyStopping) Observe(objective float64) {
	if !m.seen {
		m.seen = true
		m.best = objective
		return
	}

	improved := false
	switch m.mode {
	case store.ModeMax:
		improved = objective > m.best+m.minDelta
	default:
		improved = objective < m.best-m.minDelta
	}

	if improved {
		m.wait = 0
	} else {
		m.wait++
	}
	if m.mode.Better(objective, m.best) {
		m.best = objective
	}
}

// ShouldStop reports whether patience is exhausted.
func (m *EarlyStopping) ShouldStop() bool {
	return m.seen && m.wait >= m.patience
}

// Best returns the best objective observed so far.
// Only meaningful after at least one observation.
func (m *EarlyStopping) Best() float64 {
	return m.best
}
