package store

import (
	"github.com/sievehq/sieve/internal/space"
)

// Status is the lifecycle state of a trial.
type Status string

const (
	// StatusPending marks a trial that is scheduled but not yet running.
	StatusPending Status = "pending"
	// StatusRunning marks a trial whose collaborator is training.
	StatusRunning Status = "running"
	// StatusCompleted marks a trial that exhausted its budget.
	StatusCompleted Status = "completed"
	// StatusFailed marks a trial whose collaborator returned an error.
	// Failed trials carry no objective and are excluded from ranking.
	StatusFailed Status = "failed"
	// StatusStoppedEarly marks a trial terminated by the early-stopping
	// monitor. Its objective is the best value observed before stopping.
	StatusStoppedEarly Status = "stopped_early"
)

// Terminal reports whether the status is a terminal state.
func (s Status) Terminal() bool {
	switch s {
	case StatusCompleted, StatusFailed, StatusStoppedEarly:
		return true
	}
	return false
}

// Scored reports whether trials in this status carry a usable objective.
func (s Status) Scored() bool {
	return s == StatusCompleted || s == StatusStoppedEarly
}

// Mode is the optimization direction of the objective.
type Mode string

const (
	// ModeMin ranks lower objectives as better (e.g. validation loss).
	ModeMin Mode = "min"
	// ModeMax ranks higher objectives as better (e.g. validation accuracy).
	ModeMax Mode = "max"
)

// Valid reports whether the mode is a known direction.
func (m Mode) Valid() bool {
	return m == ModeMin || m == ModeMax
}

// Better reports whether objective a beats objective b under the mode.
func (m Mode) Better(a, b float64) bool {
	if m == ModeMax {
		return a > b
	}
	return a < b
}

// Trial is one evaluation of a configuration at a resource budget.
type Trial struct {
	// ID is assigned from the search's logical clock, strictly increasing
	// within a store. Ranking ties resolve to the lower ID.
	ID int64

	// RunToken identifies the search run that scheduled this trial.
	RunToken string

	// Bracket is the aggressiveness level s of the owning bracket.
	Bracket int

	// Round is the successive-halving round index within the bracket.
	Round int

	// Config is the evaluated configuration.
	Config space.Configuration

	// ConfigHash is the configuration's content-addressed fingerprint.
	ConfigHash string

	// Budget is the resource granted for this trial.
	Budget int

	// ResourceUsed is the resource actually consumed. Less than Budget
	// when the trial stopped early or failed mid-training.
	ResourceUsed int

	// Objective is the trial's final objective value.
	// Only meaningful when Status.Scored() is true.
	Objective float64

	// Status is the trial's lifecycle state.
	Status Status
}

// Summary is the persisted search-space summary record.
type Summary struct {
	// Space is the enumerated parameter declarations.
	Space *space.Space

	// SpaceHash is the space's content-addressed fingerprint.
	SpaceHash string

	// Objective names the metric trials report (e.g. "val_accuracy").
	Objective string

	// Mode is the objective's optimization direction.
	Mode Mode

	// MaxResource is the maximum per-trial resource budget.
	MaxResource int

	// Factor is the successive-halving reduction factor.
	Factor int
}
