package state

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
)

const runColumns = `id, project_path, status, gif_count, error, started_at, completed_at`

var _ Store = (*SQLiteStore)(nil)

// CreateRun records a new running run for projectPath.
func (s *SQLiteStore) CreateRun(ctx context.Context, projectPath string) (*Run, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}

	run := &Run{
		ID:          generateID(),
		ProjectPath: projectPath,
		Status:      RunStatusRunning,
		StartedAt:   s.now().UTC(),
	}

	s.logger.Debug("creating run", slog.String("id", run.ID), slog.String("project", projectPath))

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (id, project_path, status, gif_count, started_at) VALUES (?, ?, ?, 0, ?)`,
		run.ID, run.ProjectPath, string(run.Status), formatTime(run.StartedAt),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create run: %w", err)
	}

	return run, nil
}

// CompleteRun marks a run as finished.
func (s *SQLiteStore) CompleteRun(ctx context.Context, id string, status RunStatus, gifCount int, errMsg string) error {
	if s.db == nil {
		return fmt.Errorf("database not opened")
	}

	var errorPtr *string
	if errMsg != "" {
		errorPtr = &errMsg
	}

	result, err := s.db.ExecContext(ctx,
		`UPDATE runs SET status = ?, gif_count = ?, error = ?, completed_at = ? WHERE id = ?`,
		string(status), gifCount, errorPtr, formatTime(s.now()), id,
	)
	if err != nil {
		return fmt.Errorf("failed to complete run: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to complete run: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}

	return nil
}

// GetRun retrieves a run by ID.
func (s *SQLiteStore) GetRun(ctx context.Context, id string) (*Run, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}

	row := s.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs WHERE id = ?`, id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}
	return run, nil
}

// LatestRun returns the most recent run for projectPath, or nil when the
// project has none.
func (s *SQLiteStore) LatestRun(ctx context.Context, projectPath string) (*Run, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}

	row := s.db.QueryRowContext(ctx,
		`SELECT `+runColumns+` FROM runs WHERE project_path = ? ORDER BY started_at DESC, id DESC LIMIT 1`,
		projectPath,
	)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get latest run: %w", err)
	}
	return run, nil
}

// ListRuns returns up to limit runs, newest first. limit <= 0 means all.
func (s *SQLiteStore) ListRuns(ctx context.Context, limit int) ([]*Run, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}
	if limit <= 0 {
		limit = -1
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+runColumns+` FROM runs ORDER BY started_at DESC, id DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var runs []*Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	return runs, nil
}

// FailStaleRuns marks every run still in the running state as failed with
// reason. It is called at startup, when no run can be in flight.
func (s *SQLiteStore) FailStaleRuns(ctx context.Context, reason string) (int64, error) {
	if s.db == nil {
		return 0, fmt.Errorf("database not opened")
	}

	result, err := s.db.ExecContext(ctx,
		`UPDATE runs SET status = ?, error = ?, completed_at = ? WHERE status = ?`,
		string(RunStatusFailed), reason, formatTime(s.now()), string(RunStatusRunning),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to fail stale runs: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to fail stale runs: %w", err)
	}
	if n > 0 {
		s.logger.Info("marked interrupted runs as failed", slog.Int64("count", n))
	}
	return n, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (*Run, error) {
	var (
		run         Run
		status      string
		errMsg      sql.NullString
		startedAt   string
		completedAt sql.NullString
	)
	if err := row.Scan(&run.ID, &run.ProjectPath, &status, &run.GIFCount, &errMsg, &startedAt, &completedAt); err != nil {
		return nil, err
	}

	run.Status = RunStatus(status)
	if errMsg.Valid {
		run.Error = errMsg.String
	}

	t, err := parseTime(startedAt)
	if err != nil {
		return nil, fmt.Errorf("bad started_at %q: %w", startedAt, err)
	}
	run.StartedAt = t

	if completedAt.Valid {
		t, err := parseTime(completedAt.String)
		if err != nil {
			return nil, fmt.Errorf("bad completed_at %q: %w", completedAt.String, err)
		}
		run.CompletedAt = &t
	}
	return &run, nil
}
