// Package api defines the JSON wire types shared by the trigger client and
// the GIF service.
package api

import "time"

// Endpoint paths served by the GIF service.
const (
	CreateGIFPath     = "/create_gif"
	ProjectsPath      = "/api/projects"
	RunsPath          = "/api/runs"
	HealthPath        = "/health"
	ContentTypeJSON   = "application/json"
	HeaderContentType = "Content-Type"
)

// CreateGIFRequest is the body posted to CreateGIFPath.
// ProjectPath is passed through verbatim; the client never validates it.
type CreateGIFRequest struct {
	ProjectPath string `json:"projectPath"`
}

// CreateGIFResponse is returned by the service. The trigger client does not
// read it.
type CreateGIFResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
	GIFs    int    `json:"gifs,omitempty"`
	RunID   string `json:"runId,omitempty"`
}

// ProjectSummary describes one project directory.
type ProjectSummary struct {
	Name    string `json:"name"`
	Date    string `json:"date"`
	Path    string `json:"path"`
	HasGIFs bool   `json:"hasGifs"`
	// LastRun is the most recent GIF run for the project, if any.
	LastRun *RunSummary `json:"lastRun,omitempty"`
}

// RunSummary describes one GIF creation run.
type RunSummary struct {
	ID          string     `json:"id"`
	ProjectPath string     `json:"projectPath"`
	Status      string     `json:"status"`
	GIFCount    int        `json:"gifCount"`
	Error       string     `json:"error,omitempty"`
	StartedAt   time.Time  `json:"startedAt"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
}
