// Package state records GIF creation runs in a SQLite database.
package state

import (
	"context"
	"errors"
	"time"

	"github.com/sidewinder5675/tm-photo-tools/pkg/api"
)

// ErrRunNotFound is returned when a run id is unknown.
var ErrRunNotFound = errors.New("run not found")

// RunStatus is the lifecycle state of a run.
type RunStatus string

// Run statuses.
const (
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
	RunStatusFailed    RunStatus = "failed"
)

// Run is one request to build GIFs for a project.
type Run struct {
	ID          string
	ProjectPath string
	Status      RunStatus
	GIFCount    int
	Error       string
	StartedAt   time.Time
	CompletedAt *time.Time
}

// Duration returns how long the run took, or zero while it is running.
func (r *Run) Duration() time.Duration {
	if r.CompletedAt == nil {
		return 0
	}
	return r.CompletedAt.Sub(r.StartedAt)
}

// Summary converts r for the JSON API.
func (r *Run) Summary() api.RunSummary {
	return api.RunSummary{
		ID:          r.ID,
		ProjectPath: r.ProjectPath,
		Status:      string(r.Status),
		GIFCount:    r.GIFCount,
		Error:       r.Error,
		StartedAt:   r.StartedAt,
		CompletedAt: r.CompletedAt,
	}
}

// Store persists runs.
type Store interface {
	CreateRun(ctx context.Context, projectPath string) (*Run, error)
	CompleteRun(ctx context.Context, id string, status RunStatus, gifCount int, errMsg string) error
	GetRun(ctx context.Context, id string) (*Run, error)
	LatestRun(ctx context.Context, projectPath string) (*Run, error)
	ListRuns(ctx context.Context, limit int) ([]*Run, error)
	FailStaleRuns(ctx context.Context, reason string) (int64, error)
	Close() error
}
