package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/sidewinder5675/tm-photo-tools/internal/burst"
	"github.com/sidewinder5675/tm-photo-tools/internal/fsutil"
	"github.com/sidewinder5675/tm-photo-tools/internal/server/notifier"
	"github.com/sidewinder5675/tm-photo-tools/internal/state"
	"github.com/sidewinder5675/tm-photo-tools/pkg/api"
)

const maxRequestBody = 1 << 20

var errBusy = errors.New("gif creation is already running for this project")

// handleCreateGIF builds the GIFs for the posted project and answers once
// they are written. Processing outlives a dropped connection so the run
// record is always completed.
func (s *Server) handleCreateGIF(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBody)

	var req api.CreateGIFRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, api.CreateGIFResponse{Error: "invalid request body"})
		return
	}

	projectPath := strings.TrimSpace(req.ProjectPath)
	if projectPath == "" {
		writeJSON(w, http.StatusBadRequest, api.CreateGIFResponse{Error: "projectPath is required"})
		return
	}
	projectPath = filepath.Clean(fsutil.ExpandHome(projectPath))

	if s.restrictToRoot && !within(s.workspace.Root, projectPath) {
		writeJSON(w, http.StatusForbidden, api.CreateGIFResponse{
			Error: fmt.Sprintf("project is outside %s", s.workspace.Root),
		})
		return
	}

	release, err := s.acquire(projectPath)
	if err != nil {
		writeJSON(w, http.StatusConflict, api.CreateGIFResponse{Error: err.Error()})
		return
	}
	defer release()

	ctx := context.WithoutCancel(r.Context())
	logger := s.logger.With("project", projectPath)

	run, err := s.store.CreateRun(ctx, projectPath)
	if err != nil {
		logger.Error("failed to record run", "error", err)
		writeJSON(w, http.StatusInternalServerError, api.CreateGIFResponse{Error: err.Error()})
		return
	}
	s.notifier.Broadcast(notifier.TopicRuns)

	logger.Info("creating gifs", "run", run.ID)
	report, procErr := s.processor.Process(ctx, projectPath, filepath.Join(projectPath, burst.RawsDir))

	status, errMsg := state.RunStatusCompleted, ""
	if procErr != nil {
		status, errMsg = state.RunStatusFailed, procErr.Error()
	}
	if err := s.store.CompleteRun(ctx, run.ID, status, len(report.GIFs), errMsg); err != nil {
		logger.Error("failed to complete run", "run", run.ID, "error", err)
	}
	s.notifier.Broadcast(notifier.TopicAll)

	if procErr != nil {
		logger.Error("gif creation failed", "run", run.ID, "error", procErr)
		writeJSON(w, http.StatusInternalServerError, api.CreateGIFResponse{Error: errMsg, RunID: run.ID})
		return
	}

	logger.Info("gif creation finished", "run", run.ID, "gifs", len(report.GIFs))
	writeJSON(w, http.StatusOK, api.CreateGIFResponse{Success: true, GIFs: len(report.GIFs), RunID: run.ID})
}

// acquire claims projectPath for one run at a time.
func (s *Server) acquire(projectPath string) (func(), error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, busy := s.inflight[projectPath]; busy {
		return nil, errBusy
	}
	s.inflight[projectPath] = struct{}{}
	return func() {
		s.mu.Lock()
		delete(s.inflight, projectPath)
		s.mu.Unlock()
	}, nil
}

// within reports whether path is root or below it.
func within(root, path string) bool {
	rel, err := filepath.Rel(filepath.Clean(root), path)
	if err != nil {
		return false
	}
	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set(api.HeaderContentType, api.ContentTypeJSON)
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
