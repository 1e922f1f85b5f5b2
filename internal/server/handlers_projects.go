package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/starfederation/datastar-go/datastar"

	"github.com/sidewinder5675/tm-photo-tools/internal/project"
	"github.com/sidewinder5675/tm-photo-tools/internal/server/components"
	"github.com/sidewinder5675/tm-photo-tools/internal/server/notifier"
	"github.com/sidewinder5675/tm-photo-tools/internal/server/pages"
	"github.com/sidewinder5675/tm-photo-tools/pkg/api"
)

const invalidInputMessage = "Please enter valid inputs."

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	projects, runs, err := s.dashboard(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	s.render(w, r, http.StatusOK, pages.Index(s.page(w, r, "Home"), projects, runs))
}

func (s *Server) handleViewProjects(w http.ResponseWriter, r *http.Request) {
	projects, err := s.projectSummaries(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	s.render(w, r, http.StatusOK, pages.ViewProjects(s.page(w, r, "Projects"), projects))
}

func (s *Server) handleCreateProjectForm(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, http.StatusOK, pages.CreateProject(s.page(w, r, "New project"), pages.ProjectForm{}))
}

// handleCreateProject creates the project folder and, when a memory card is
// configured, copies its images into RAWs/Card 1. The import outlives the
// request so a closed tab does not leave a half-copied card.
func (s *Server) handleCreateProject(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	date := r.PostForm.Get("date")
	name := r.PostForm.Get("project_name")

	dir, err := s.workspace.Create(date, name)
	if errors.Is(err, project.ErrInvalidInput) {
		s.render(w, r, http.StatusBadRequest, pages.CreateProject(
			pages.Page{Title: "New project", Error: invalidInputMessage},
			pages.ProjectForm{Date: date, Name: name},
		))
		return
	}
	if err != nil {
		s.logger.Error("failed to create project", "error", err)
		s.addFlash(w, r, err.Error(), flashError)
		http.Redirect(w, r, "/create_project", http.StatusSeeOther)
		return
	}

	folder := filepath.Base(dir)
	msg := fmt.Sprintf("Created project %s.", folder)
	if s.cardPath != "" {
		ctx := context.WithoutCancel(r.Context())
		res, err := project.ImportImages(ctx, s.cardPath, dir, folder, nil)
		if err != nil {
			s.logger.Error("failed to import images", "project", folder, "error", err)
			s.addFlash(w, r, fmt.Sprintf("Created project %s but the import failed: %v", folder, err), flashError)
			s.notifier.Broadcast(notifier.TopicProjects)
			http.Redirect(w, r, "/", http.StatusSeeOther)
			return
		}
		msg = fmt.Sprintf("Created project %s and imported %d images.", folder, res.Files)
	}

	s.logger.Info("project created", "path", dir)
	s.notifier.Broadcast(notifier.TopicProjects)
	s.addFlash(w, r, msg)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) handleAPIProjects(w http.ResponseWriter, r *http.Request) {
	projects, err := s.projectSummaries(r.Context())
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, projects)
}

func (s *Server) handleAPIRuns(w http.ResponseWriter, r *http.Request) {
	runs, err := s.store.ListRuns(r.Context(), recentRunLimit)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, summarizeRuns(runs))
}

// handleUpdates is the long-lived SSE endpoint behind every page. It sends
// nothing up front; the page is already rendered. The topics query
// parameter names the sections the page has.
func (s *Server) handleUpdates(w http.ResponseWriter, r *http.Request) {
	wanted := parseTopics(r.URL.Query().Get("topics"))
	sse := datastar.NewSSE(w, r)

	sub := s.notifier.Subscribe()
	defer s.notifier.Unsubscribe(sub)

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case <-sub.C:
			topics := sub.Topics() & wanted
			if topics == 0 {
				continue
			}
			if err := s.sendUpdates(ctx, sse, topics); err != nil {
				_ = sse.ConsoleError(err)
			}
		}
	}
}

// parseTopics reads a comma separated list of section ids. Empty or
// unknown input means every section.
func parseTopics(raw string) notifier.Topic {
	var t notifier.Topic
	for _, name := range strings.Split(raw, ",") {
		switch strings.TrimSpace(name) {
		case components.ProjectsID:
			t |= notifier.TopicProjects
		case components.RunsID:
			t |= notifier.TopicRuns
		}
	}
	if t == 0 {
		return notifier.TopicAll
	}
	return t
}

func (s *Server) sendUpdates(ctx context.Context, sse *datastar.ServerSentEventGenerator, topics notifier.Topic) error {
	if topics.Has(notifier.TopicProjects) {
		projects, err := s.projectSummaries(ctx)
		if err != nil {
			return err
		}
		if err := sse.PatchElementTempl(components.ProjectsTable(projects)); err != nil {
			return err
		}
	}
	if topics.Has(notifier.TopicRuns) {
		runs, err := s.store.ListRuns(ctx, recentRunLimit)
		if err != nil {
			return err
		}
		if err := sse.PatchElementTempl(components.RunsTable(summarizeRuns(runs))); err != nil {
			return err
		}
	}
	return nil
}

func (s *Server) dashboard(ctx context.Context) ([]api.ProjectSummary, []api.RunSummary, error) {
	projects, err := s.projectSummaries(ctx)
	if err != nil {
		return nil, nil, err
	}
	runs, err := s.store.ListRuns(ctx, recentRunLimit)
	if err != nil {
		return nil, nil, err
	}
	return projects, summarizeRuns(runs), nil
}

// page pops the session flashes into the page chrome.
func (s *Server) page(w http.ResponseWriter, r *http.Request, title string) pages.Page {
	notices, errs := s.popFlashes(w, r)
	return pages.Page{Title: title, Notices: notices, Error: strings.Join(errs, " ")}
}
