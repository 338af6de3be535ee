package engine

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sievehq/sieve/internal/store"
)

// scriptedTrainable returns predetermined objectives, one per Train call.
// With unit-by-unit training each call consumes one scripted value; the
// last value repeats once the script runs out.
type scriptedTrainable struct {
	script  []float64
	failAt  int // fail on the Nth Train call (1-based), 0 disables
	calls   int
	metrics map[string]float64
	evalErr error
}

func (f *scriptedTrainable) Train(ctx context.Context, budget int) (float64, error) {
	f.calls++
	if f.failAt > 0 && f.calls >= f.failAt {
		return 0, errors.New("training exploded")
	}
	idx := f.calls - 1
	if idx >= len(f.script) {
		idx = len(f.script) - 1
	}
	return f.script[idx], nil
}

func (f *scriptedTrainable) Evaluate(ctx context.Context) (map[string]float64, error) {
	return f.metrics, f.evalErr
}

func TestRunTrialFullBudget(t *testing.T) {
	f := &scriptedTrainable{script: []float64{0.42}}

	out := runTrial(context.Background(), f, 10, nil)
	assert.Equal(t, store.StatusCompleted, out.status)
	assert.Equal(t, 0.42, out.objective)
	assert.Equal(t, 10, out.used)
	assert.Equal(t, 1, f.calls, "no monitor: one Train call for the whole budget")
}

func TestRunTrialFailure(t *testing.T) {
	f := &scriptedTrainable{failAt: 1}

	out := runTrial(context.Background(), f, 10, nil)
	assert.Equal(t, store.StatusFailed, out.status)
	require.Error(t, out.err)
	assert.Equal(t, 0, out.used)
}

func TestRunTrialEarlyStop(t *testing.T) {
	// Loss improves twice then plateaus; patience 2 stops at unit 5 of 10.
	f := &scriptedTrainable{script: []float64{1.0, 0.8, 0.6, 0.7, 0.65}}
	monitor := NewEarlyStopping(store.ModeMin, 2, 0)

	out := runTrial(context.Background(), f, 10, monitor)
	assert.Equal(t, store.StatusStoppedEarly, out.status)
	assert.Equal(t, 0.6, out.objective, "stopped trial reports the best observed value")
	assert.Equal(t, 5, out.used)
	assert.Equal(t, 5, f.calls, "monitored training runs one unit per call")
}

func TestRunTrialMonitorExhaustsBudget(t *testing.T) {
	// Steady improvement: the monitor never fires and the trial completes.
	f := &scriptedTrainable{script: []float64{1.0, 0.9, 0.8, 0.7}}
	monitor := NewEarlyStopping(store.ModeMin, 2, 0)

	out := runTrial(context.Background(), f, 4, monitor)
	assert.Equal(t, store.StatusCompleted, out.status)
	assert.Equal(t, 0.7, out.objective)
	assert.Equal(t, 4, out.used)
}

func TestRunTrialStopAtFinalUnit(t *testing.T) {
	// Patience runs out exactly on the last unit: the trial used its whole
	// budget, so it completes rather than stopping early.
	f := &scriptedTrainable{script: []float64{0.5, 0.6, 0.7}}
	monitor := NewEarlyStopping(store.ModeMin, 2, 0)

	out := runTrial(context.Background(), f, 3, monitor)
	assert.Equal(t, store.StatusCompleted, out.status)
	assert.Equal(t, 0.5, out.objective)
	assert.Equal(t, 3, out.used)
}

func TestRunTrialMonitoredFailure(t *testing.T) {
	f := &scriptedTrainable{script: []float64{1.0, 0.9}, failAt: 3}
	monitor := NewEarlyStopping(store.ModeMin, 5, 0)

	out := runTrial(context.Background(), f, 10, monitor)
	assert.Equal(t, store.StatusFailed, out.status)
	require.Error(t, out.err)
	assert.Equal(t, 2, out.used)
}

func TestRunTrialEvalErrorIsNotFatal(t *testing.T) {
	f := &scriptedTrainable{script: []float64{0.3}, evalErr: errors.New("no metrics")}

	out := runTrial(context.Background(), f, 5, nil)
	assert.Equal(t, store.StatusCompleted, out.status)
	assert.Equal(t, 0.3, out.objective)
}
