package server

import (
	"bytes"
	"context"
	"net/http"

	"github.com/a-h/templ"

	"github.com/sidewinder5675/tm-photo-tools/internal/project"
	"github.com/sidewinder5675/tm-photo-tools/internal/state"
	"github.com/sidewinder5675/tm-photo-tools/pkg/api"
)

const (
	sessionName    = "tmphoto"
	flashError     = "error"
	recentRunLimit = 10
)

// render buffers c so a failed render still yields a clean 500.
func (s *Server) render(w http.ResponseWriter, r *http.Request, status int, c templ.Component) {
	var buf bytes.Buffer
	if err := c.Render(r.Context(), &buf); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

// popFlashes reads and clears the session's flash messages.
func (s *Server) popFlashes(w http.ResponseWriter, r *http.Request) (notices, errs []string) {
	session, _ := s.sessionStore.Get(r, sessionName)
	for _, f := range session.Flashes() {
		if msg, ok := f.(string); ok {
			notices = append(notices, msg)
		}
	}
	for _, f := range session.Flashes(flashError) {
		if msg, ok := f.(string); ok {
			errs = append(errs, msg)
		}
	}
	if len(notices) > 0 || len(errs) > 0 {
		if err := session.Save(r, w); err != nil {
			s.logger.Warn("failed to save session", "error", err)
		}
	}
	return notices, errs
}

func (s *Server) addFlash(w http.ResponseWriter, r *http.Request, msg string, vars ...string) {
	session, _ := s.sessionStore.Get(r, sessionName)
	session.AddFlash(msg, vars...)
	if err := session.Save(r, w); err != nil {
		s.logger.Warn("failed to save session", "error", err)
	}
}

// projectSummaries lists the workspace with each project's latest run.
func (s *Server) projectSummaries(ctx context.Context) ([]api.ProjectSummary, error) {
	projects, err := s.workspace.List()
	if err != nil {
		return nil, err
	}
	return s.summarizeProjects(ctx, projects)
}

func (s *Server) summarizeProjects(ctx context.Context, projects []project.Project) ([]api.ProjectSummary, error) {
	out := make([]api.ProjectSummary, 0, len(projects))
	for _, p := range projects {
		summary := p.Summary()
		run, err := s.store.LatestRun(ctx, p.Path)
		if err != nil {
			return nil, err
		}
		if run != nil {
			last := run.Summary()
			summary.LastRun = &last
		}
		out = append(out, summary)
	}
	return out, nil
}

func summarizeRuns(runs []*state.Run) []api.RunSummary {
	out := make([]api.RunSummary, 0, len(runs))
	for _, r := range runs {
		out = append(out, r.Summary())
	}
	return out
}
