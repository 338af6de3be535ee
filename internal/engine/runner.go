package engine

import (
	"context"
	"log/slog"

	"github.com/sievehq/sieve/internal/space"
	"github.com/sievehq/sieve/internal/store"
)

// Trainable is the external training collaborator for one trial.
// The search core treats it as opaque: all model construction, gradient
// computation, and metric bookkeeping live behind this interface.
type Trainable interface {
	// Train trains for budget additional resource units and returns the
	// objective value after them. Called repeatedly on the same model
	// when early stopping is active, once otherwise.
	Train(ctx context.Context, budget int) (float64, error)

	// Evaluate returns the model's final metrics.
	Evaluate(ctx context.Context) (map[string]float64, error)
}

// ModelBuilder constructs a Trainable from an explicit configuration.
//
// Builders must be pure: same configuration in, equivalent model out, with
// no hidden sampling state. Safe for concurrent calls when trials run in
// parallel.
type ModelBuilder func(cfg space.Configuration) (Trainable, error)

// trialOutcome is the in-memory result of executing one trial.
type trialOutcome struct {
	objective float64
	used      int
	status    store.Status
	err       error // cause, for failed trials
}

// runTrial executes one trainable for up to budget resource units.
//
// Without a monitor the whole budget goes to a single Train call. With a
// monitor, training proceeds one unit at a time so the monitor sees every
// observation; when patience runs out the trial stops and reports the best
// objective observed.
//
// A Trainable error marks the trial failed; the caller excludes it from
// ranking and continues the round.
func runTrial(ctx context.Context, trainable Trainable, budget int, monitor *EarlyStopping) trialOutcome {
	if monitor == nil {
		objective, err := trainable.Train(ctx, budget)
		if err != nil {
			return trialOutcome{status: store.StatusFailed, err: err}
		}
		logMetrics(ctx, trainable)
		return trialOutcome{objective: objective, used: budget, status: store.StatusCompleted}
	}

	for unit := 1; unit <= budget; unit++ {
		objective, err := trainable.Train(ctx, 1)
		if err != nil {
			return trialOutcome{used: unit - 1, status: store.StatusFailed, err: err}
		}

		monitor.Observe(objective)
		if monitor.ShouldStop() && unit < budget {
			logMetrics(ctx, trainable)
			return trialOutcome{
				objective: monitor.Best(),
				used:      unit,
				status:    store.StatusStoppedEarly,
			}
		}
	}

	logMetrics(ctx, trainable)
	return trialOutcome{objective: monitor.Best(), used: budget, status: store.StatusCompleted}
}

// logMetrics records the collaborator's final metrics at debug level.
// Metric failures are not trial failures - training already produced an
// objective.
func logMetrics(ctx context.Context, trainable Trainable) {
	metrics, err := trainable.Evaluate(ctx)
	if err != nil {
		slog.Warn("trial metric evaluation failed", "error", err)
		return
	}
	if len(metrics) > 0 {
		args := make([]any, 0, len(metrics)*2)
		for k, v := range metrics {
			args = append(args, k, v)
		}
		slog.Debug("trial metrics", args...)
	}
}
