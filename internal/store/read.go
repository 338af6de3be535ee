package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/sievehq/sieve/internal/space"
)

// ReadSummary returns the stored search-space summary.
// The second return is false when no summary has been written yet.
// An unparseable stored space fails with StateError.
func (s *Store) ReadSummary(ctx context.Context) (Summary, bool, error) {
	var (
		spaceHash, spaceJSON, objective, mode string
		maxResource, factor                   int
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT space_hash, space_json, objective, mode, max_resource, factor
		FROM summary WHERE id = 1
	`).Scan(&spaceHash, &spaceJSON, &objective, &mode, &maxResource, &factor)
	if errors.Is(err, sql.ErrNoRows) {
		return Summary{}, false, nil
	}
	if err != nil {
		return Summary{}, false, fmt.Errorf("read summary: %w", err)
	}

	sp, err := space.UnmarshalSpace([]byte(spaceJSON))
	if err != nil {
		return Summary{}, false, &StateError{Message: "stored search space is unreadable", Err: err}
	}

	return Summary{
		Space:       sp,
		SpaceHash:   spaceHash,
		Objective:   objective,
		Mode:        Mode(mode),
		MaxResource: maxResource,
		Factor:      factor,
	}, true, nil
}

// trialColumns is the column list every trial query selects, in scan order.
const trialColumns = `id, run_token, bracket, round, config_hash, config_json, budget, resource_used, objective, status`

// BestTrial returns the single best scored trial under the given mode.
//
// Tie-break is deterministic: equal objectives resolve to the lowest trial
// ID, so repeated queries on identical stored state return the same trial.
// The second return is false when no scored trial exists.
func (s *Store) BestTrial(ctx context.Context, mode Mode) (Trial, bool, error) {
	if !mode.Valid() {
		return Trial{}, false, fmt.Errorf("best trial: invalid mode %q", mode)
	}

	order := "ASC"
	if mode == ModeMax {
		order = "DESC"
	}

	// Objective direction first, then lowest ID for determinism.
	row := s.db.QueryRowContext(ctx, fmt.Sprintf(`
		SELECT %s FROM trials
		WHERE status IN ('completed', 'stopped_early') AND objective IS NOT NULL
		ORDER BY objective %s, id ASC
		LIMIT 1
	`, trialColumns, order))

	t, err := scanTrial(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Trial{}, false, nil
	}
	if err != nil {
		return Trial{}, false, err
	}
	return t, true, nil
}

// ListTrials returns all trials in ID order.
// Pass an empty status to list every trial.
func (s *Store) ListTrials(ctx context.Context, status Status) ([]Trial, error) {
	query := fmt.Sprintf(`SELECT %s FROM trials ORDER BY id ASC`, trialColumns)
	args := []any{}
	if status != "" {
		query = fmt.Sprintf(`SELECT %s FROM trials WHERE status = ? ORDER BY id ASC`, trialColumns)
		args = append(args, string(status))
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list trials: %w", err)
	}
	defer rows.Close()

	trials := []Trial{}
	for rows.Next() {
		t, err := scanTrial(rows)
		if err != nil {
			return nil, err
		}
		trials = append(trials, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate trials: %w", err)
	}
	return trials, nil
}

// LookupScored finds a previously scored trial for the configuration
// fingerprint at exactly the given budget. Used by resume: with overwrite
// disabled the stored objective is reused instead of re-running the trial.
//
// Stopped-early trials qualify - their objective is the best observed before
// the monitor fired, which is what a re-run would report.
func (s *Store) LookupScored(ctx context.Context, configHash string, budget int) (Trial, bool, error) {
	row := s.db.QueryRowContext(ctx, fmt.Sprintf(`
		SELECT %s FROM trials
		WHERE config_hash = ? AND budget = ?
		  AND status IN ('completed', 'stopped_early') AND objective IS NOT NULL
		ORDER BY id ASC
		LIMIT 1
	`, trialColumns), configHash, budget)

	t, err := scanTrial(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Trial{}, false, nil
	}
	if err != nil {
		return Trial{}, false, err
	}
	return t, true, nil
}

// MaxTrialID returns the highest assigned trial ID, 0 for an empty store.
// The search clock resumes from this value so IDs stay strictly increasing
// across runs.
func (s *Store) MaxTrialID(ctx context.Context) (int64, error) {
	var id sql.NullInt64
	if err := s.db.QueryRowContext(ctx, `SELECT MAX(id) FROM trials`).Scan(&id); err != nil {
		return 0, fmt.Errorf("max trial id: %w", err)
	}
	if !id.Valid {
		return 0, nil
	}
	return id.Int64, nil
}

// CountTrials returns the total number of stored trials.
func (s *Store) CountTrials(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM trials`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count trials: %w", err)
	}
	return n, nil
}

// rowScanner abstracts sql.Row and sql.Rows for shared scanning.
type rowScanner interface {
	Scan(dest ...any) error
}

// scanTrial scans one trial record, decoding the stored configuration.
// An unreadable stored configuration fails with StateError.
func scanTrial(row rowScanner) (Trial, error) {
	var (
		t          Trial
		configJSON string
		objective  sql.NullFloat64
		status     string
	)
	err := row.Scan(
		&t.ID,
		&t.RunToken,
		&t.Bracket,
		&t.Round,
		&t.ConfigHash,
		&configJSON,
		&t.Budget,
		&t.ResourceUsed,
		&objective,
		&status,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return Trial{}, err
	}
	if err != nil {
		return Trial{}, fmt.Errorf("scan trial: %w", err)
	}

	cfg, err := space.UnmarshalConfig([]byte(configJSON))
	if err != nil {
		return Trial{}, &StateError{
			Message: fmt.Sprintf("trial %d has unreadable configuration", t.ID),
			Err:     err,
		}
	}

	t.Config = cfg
	t.Objective = scanNullFloat(objective)
	t.Status = Status(status)
	return t, nil
}
