package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/sievehq/sieve/internal/space"
)

// EnsureSummary writes the search-space summary on first use, or verifies it
// against the stored record on resume.
//
// A stored summary whose space fingerprint, objective, or resource schedule
// differs from the one provided means the store belongs to a different
// search; that fails with StateError rather than mixing incompatible trials.
func (s *Store) EnsureSummary(ctx context.Context, sum Summary) error {
	if !sum.Mode.Valid() {
		return fmt.Errorf("ensure summary: invalid mode %q", sum.Mode)
	}

	spaceJSON, err := space.MarshalSpace(sum.Space)
	if err != nil {
		return fmt.Errorf("ensure summary: %w", err)
	}
	spaceHash, err := space.SpaceFingerprint(sum.Space)
	if err != nil {
		return fmt.Errorf("ensure summary: %w", err)
	}

	stored, ok, err := s.ReadSummary(ctx)
	if err != nil {
		return err
	}
	if !ok {
		_, err = s.db.ExecContext(ctx, `
			INSERT INTO summary (id, space_hash, space_json, objective, mode, max_resource, factor)
			VALUES (1, ?, ?, ?, ?, ?, ?)
		`, spaceHash, string(spaceJSON), sum.Objective, string(sum.Mode), sum.MaxResource, sum.Factor)
		if err != nil {
			return fmt.Errorf("write summary: %w", err)
		}
		return nil
	}

	if stored.SpaceHash != spaceHash {
		return &StateError{Message: fmt.Sprintf(
			"stored search space %s does not match provided space %s",
			shortHash(stored.SpaceHash), shortHash(spaceHash),
		)}
	}
	if stored.Objective != sum.Objective || stored.Mode != sum.Mode {
		return &StateError{Message: fmt.Sprintf(
			"stored objective %s(%s) does not match provided %s(%s)",
			stored.Objective, stored.Mode, sum.Objective, sum.Mode,
		)}
	}
	if stored.MaxResource != sum.MaxResource || stored.Factor != sum.Factor {
		return &StateError{Message: fmt.Sprintf(
			"stored schedule (max_resource=%d, factor=%d) does not match provided (max_resource=%d, factor=%d)",
			stored.MaxResource, stored.Factor, sum.MaxResource, sum.Factor,
		)}
	}
	return nil
}

// RegisterRun records a search run.
// Idempotent: re-registering the same token is a no-op.
func (s *Store) RegisterRun(ctx context.Context, runToken string, seed int64, startedSeq int64) error {
	if runToken == "" {
		return fmt.Errorf("register run: empty run token")
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO runs (run_token, seed, started_seq)
		VALUES (?, ?, ?)
		ON CONFLICT(run_token) DO NOTHING
	`, runToken, seed, startedSeq)
	if err != nil {
		return fmt.Errorf("register run: %w", err)
	}
	return nil
}

// InsertTrial inserts a trial record.
// The configuration is serialized to canonical JSON; its fingerprint is
// computed here so callers cannot insert a hash that disagrees with the
// stored configuration.
func (s *Store) InsertTrial(ctx context.Context, t *Trial) error {
	configJSON, err := space.MarshalConfig(t.Config)
	if err != nil {
		return fmt.Errorf("insert trial %d: %w", t.ID, err)
	}
	hash, err := space.Fingerprint(t.Config)
	if err != nil {
		return fmt.Errorf("insert trial %d: %w", t.ID, err)
	}
	t.ConfigHash = hash

	var objective any
	if t.Status.Scored() {
		objective = t.Objective
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO trials
		(id, run_token, bracket, round, config_hash, config_json, budget, resource_used, objective, status)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		t.ID,
		t.RunToken,
		t.Bracket,
		t.Round,
		t.ConfigHash,
		string(configJSON),
		t.Budget,
		t.ResourceUsed,
		objective,
		string(t.Status),
	)
	if err != nil {
		return fmt.Errorf("insert trial %d: %w", t.ID, err)
	}
	return nil
}

// FinishTrial updates a trial to a terminal status exactly once.
//
// For failed trials the objective column stays NULL; failed trials never
// participate in ranking. Returns an error if the trial does not exist or is
// already terminal.
func (s *Store) FinishTrial(ctx context.Context, id int64, status Status, objective float64, resourceUsed int) error {
	if !status.Terminal() {
		return fmt.Errorf("finish trial %d: non-terminal status %q", id, status)
	}

	var obj any
	if status.Scored() {
		obj = objective
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE trials
		SET status = ?, objective = ?, resource_used = ?
		WHERE id = ? AND status IN ('pending', 'running')
	`, string(status), obj, resourceUsed, id)
	if err != nil {
		return fmt.Errorf("finish trial %d: %w", id, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("finish trial %d: rows affected: %w", id, err)
	}
	if affected == 0 {
		return fmt.Errorf("finish trial %d: trial missing or already terminal", id)
	}
	return nil
}

// MarkRunning transitions a pending trial to running.
func (s *Store) MarkRunning(ctx context.Context, id int64) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE trials SET status = 'running' WHERE id = ? AND status = 'pending'
	`, id)
	if err != nil {
		return fmt.Errorf("mark trial %d running: %w", id, err)
	}
	return nil
}

// scanNullFloat converts a nullable objective column.
func scanNullFloat(v sql.NullFloat64) float64 {
	if v.Valid {
		return v.Float64
	}
	return 0
}

// shortHash abbreviates a fingerprint for error messages.
func shortHash(h string) string {
	if len(h) > 12 {
		return h[:12]
	}
	return h
}
