package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"github.com/sourcegraph/conc/pool"

	"github.com/sievehq/sieve/internal/space"
	"github.com/sievehq/sieve/internal/store"
)

// Engine drives a full bracketed search against one result store.
//
// All store writes happen on the Search goroutine. Trials fan out on a
// bounded worker pool but report back through in-memory outcomes that are
// finalized sequentially, in trial-ID order.
type Engine struct {
	store    *store.Store
	summary  store.Summary
	builder  ModelBuilder
	tokenGen TokenGenerator
	clock    *Clock

	parallelism int
	patience    int     // early stopping; 0 disables
	minDelta    float64 // minimum improvement for the monitor
	overwrite   bool    // re-run configurations already scored
	seed        int64
}

// Option configures an Engine.
type Option func(*Engine)

// WithParallelism sets the number of trials that may train concurrently
// within a round. Values below 1 are treated as 1 (sequential).
func WithParallelism(n int) Option {
	return func(e *Engine) {
		if n < 1 {
			n = 1
		}
		e.parallelism = n
	}
}

// WithEarlyStopping enables the patience-based monitor: a trial stops once
// the objective fails to improve by minDelta for patience resource units.
func WithEarlyStopping(patience int, minDelta float64) Option {
	return func(e *Engine) {
		e.patience = patience
		e.minDelta = minDelta
	}
}

// WithOverwrite forces re-running configurations that already have a stored
// result. Default is to reuse stored objectives.
func WithOverwrite(overwrite bool) Option {
	return func(e *Engine) {
		e.overwrite = overwrite
	}
}

// WithSeed fixes the sampling seed for reproducible configuration draws.
func WithSeed(seed int64) Option {
	return func(e *Engine) {
		e.seed = seed
	}
}

// WithTokenGenerator overrides the run token generator (for testing).
func WithTokenGenerator(g TokenGenerator) Option {
	return func(e *Engine) {
		e.tokenGen = g
	}
}

// New creates an Engine for the given store, summary, and model builder.
//
// Validation is fail-fast: an invalid search space, objective mode, or
// resource schedule returns a ConfigurationError here, before any trial
// runs.
func New(st *store.Store, summary store.Summary, builder ModelBuilder, opts ...Option) (*Engine, error) {
	if st == nil {
		return nil, errors.New("engine: store is required")
	}
	if summary.Space == nil {
		return nil, &space.ConfigurationError{Reason: "search space is required"}
	}
	if builder == nil {
		return nil, errors.New("engine: model builder is required")
	}
	if !summary.Mode.Valid() {
		return nil, &space.ConfigurationError{
			Reason: fmt.Sprintf("objective mode must be %q or %q, got %q", store.ModeMin, store.ModeMax, summary.Mode),
		}
	}
	// Validates factor and max resource.
	if _, err := Plan(summary.MaxResource, summary.Factor); err != nil {
		return nil, err
	}

	e := &Engine{
		store:       st,
		summary:     summary,
		builder:     builder,
		tokenGen:    UUIDv7Generator{},
		parallelism: 1,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Search runs all brackets to completion and returns the best trial.
//
// Resuming: the engine verifies the store's summary, continues trial IDs
// from the store's maximum, and (unless overwrite is set) reuses stored
// objectives for configurations already scored at the same budget. The
// returned best trial considers every scored trial in the store, including
// those from previous runs.
func (e *Engine) Search(ctx context.Context) (store.Trial, error) {
	brackets, err := Plan(e.summary.MaxResource, e.summary.Factor)
	if err != nil {
		return store.Trial{}, err
	}

	if err := e.store.EnsureSummary(ctx, e.summary); err != nil {
		return store.Trial{}, err
	}

	maxID, err := e.store.MaxTrialID(ctx)
	if err != nil {
		return store.Trial{}, err
	}
	e.clock = NewClockAt(maxID)

	runToken := e.tokenGen.Generate()
	if err := e.store.RegisterRun(ctx, runToken, e.seed, e.clock.Current()); err != nil {
		return store.Trial{}, err
	}

	slog.Info("search starting",
		"run", runToken,
		"brackets", len(brackets),
		"max_resource", e.summary.MaxResource,
		"factor", e.summary.Factor,
		"objective", e.summary.Objective,
		"mode", e.summary.Mode,
	)

	sampler := space.NewSampler(e.seed)
	for _, bracket := range brackets {
		if err := e.runBracket(ctx, runToken, sampler, bracket); err != nil {
			return store.Trial{}, err
		}
	}

	best, ok, err := e.store.BestTrial(ctx, e.summary.Mode)
	if err != nil {
		return store.Trial{}, err
	}
	if !ok {
		return store.Trial{}, errors.New("search produced no scored trials")
	}

	slog.Info("search complete",
		"run", runToken,
		"best_trial", best.ID,
		"objective", best.Objective,
	)
	return best, nil
}

// candidate tracks one configuration's progress through a bracket.
type candidate struct {
	cfg       space.Configuration
	hash      string
	trialID   int64
	objective float64
	scored    bool
}

// runBracket executes all rounds of one bracket.
func (e *Engine) runBracket(ctx context.Context, runToken string, sampler *space.Sampler, bracket Bracket) error {
	slog.Info("bracket starting",
		"s", bracket.S,
		"configs", bracket.Rounds[0].Configs,
		"rounds", len(bracket.Rounds),
	)

	candidates := make([]*candidate, 0, bracket.Rounds[0].Configs)
	for i := 0; i < bracket.Rounds[0].Configs; i++ {
		cfg := sampler.Sample(e.summary.Space)
		hash, err := space.Fingerprint(cfg)
		if err != nil {
			return fmt.Errorf("bracket %d: %w", bracket.S, err)
		}
		candidates = append(candidates, &candidate{cfg: cfg, hash: hash})
	}

	for i, round := range bracket.Rounds {
		// Survivors are ranked best-first; keep the round's quota.
		if len(candidates) > round.Configs {
			candidates = candidates[:round.Configs]
		}

		if err := e.runRound(ctx, runToken, bracket.S, i, round.Resource, candidates); err != nil {
			return err
		}

		scored := rankCandidates(candidates, e.summary.Mode)
		if len(scored) == 0 {
			// Every trial in the round failed. Abandon the bracket
			// and let the remaining brackets continue the search.
			slog.Warn("bracket abandoned: no scored trials",
				"s", bracket.S,
				"round", i,
			)
			return nil
		}
		candidates = scored
	}
	return nil
}

// runRound evaluates every candidate at the round budget.
//
// Reused results are resolved first, then the remaining trials are inserted
// (status running), executed on the worker pool, and finalized in trial-ID
// order.
func (e *Engine) runRound(ctx context.Context, runToken string, s, roundIdx, budget int, candidates []*candidate) error {
	type execution struct {
		cand    *candidate
		trial   *store.Trial
		outcome trialOutcome
	}

	var execs []*execution
	for _, cand := range candidates {
		cand.scored = false

		if !e.overwrite {
			prior, ok, err := e.store.LookupScored(ctx, cand.hash, budget)
			if err != nil {
				return err
			}
			if ok {
				cand.trialID = prior.ID
				cand.objective = prior.Objective
				cand.scored = true
				slog.Debug("reusing stored trial",
					"trial", prior.ID,
					"budget", budget,
					"objective", prior.Objective,
				)
				continue
			}
		}

		trial := &store.Trial{
			ID:       e.clock.Next(),
			RunToken: runToken,
			Bracket:  s,
			Round:    roundIdx,
			Config:   cand.cfg,
			Budget:   budget,
			Status:   store.StatusPending,
		}
		if err := e.store.InsertTrial(ctx, trial); err != nil {
			return err
		}
		execs = append(execs, &execution{cand: cand, trial: trial})
	}

	if len(execs) == 0 {
		return nil
	}

	slog.Debug("round starting",
		"bracket", s,
		"round", roundIdx,
		"budget", budget,
		"trials", len(execs),
		"reused", len(candidates)-len(execs),
	)

	// Pending trials flip to running as a batch here, still on the Search
	// goroutine; pool workers never write to the store.
	for _, ex := range execs {
		if err := e.store.MarkRunning(ctx, ex.trial.ID); err != nil {
			return err
		}
		ex.trial.Status = store.StatusRunning
	}

	p := pool.New().WithMaxGoroutines(e.parallelism)
	for _, ex := range execs {
		ex := ex
		p.Go(func() {
			ex.outcome = e.executeTrial(ctx, ex.cand.cfg, budget)
		})
	}
	p.Wait()

	// Finalize sequentially in trial-ID order - single store writer,
	// deterministic log.
	for _, ex := range execs {
		out := ex.outcome
		if out.err != nil {
			slog.Warn("trial failed",
				"trial", ex.trial.ID,
				"config", ex.cand.cfg.String(),
				"error", out.err,
			)
		}
		if err := e.store.FinishTrial(ctx, ex.trial.ID, out.status, out.objective, out.used); err != nil {
			return err
		}
		if out.status.Scored() {
			ex.cand.trialID = ex.trial.ID
			ex.cand.objective = out.objective
			ex.cand.scored = true
			slog.Debug("trial finished",
				"trial", ex.trial.ID,
				"status", out.status,
				"objective", out.objective,
				"resource_used", out.used,
			)
		}
	}

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("search cancelled: %w", err)
	}
	return nil
}

// executeTrial builds the model and trains it for the round budget.
// Runs on a pool goroutine; touches no shared state.
func (e *Engine) executeTrial(ctx context.Context, cfg space.Configuration, budget int) trialOutcome {
	trainable, err := e.builder(cfg)
	if err != nil {
		return trialOutcome{status: store.StatusFailed, err: fmt.Errorf("build model: %w", err)}
	}

	var monitor *EarlyStopping
	if e.patience > 0 {
		monitor = NewEarlyStopping(e.summary.Mode, e.patience, e.minDelta)
	}
	return runTrial(ctx, trainable, budget, monitor)
}

// rankCandidates returns the scored candidates ordered best-first.
// Equal objectives resolve to the lower trial ID.
func rankCandidates(candidates []*candidate, mode store.Mode) []*candidate {
	scored := make([]*candidate, 0, len(candidates))
	for _, c := range candidates {
		if c.scored {
			scored = append(scored, c)
		}
	}

	sort.SliceStable(scored, func(i, j int) bool {
		if scored[i].objective == scored[j].objective {
			return scored[i].trialID < scored[j].trialID
		}
		return mode.Better(scored[i].objective, scored[j].objective)
	})
	return scored
}
