package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sidewinder5675/tm-photo-tools/internal/server/resources"
	"github.com/sidewinder5675/tm-photo-tools/pkg/api"
)

func (s *Server) routes(r chi.Router) {
	r.Handle("/static/*", resources.Handler())

	r.Get("/", s.handleIndex)
	r.Get("/view_projects", s.handleViewProjects)
	r.Get("/create_project", s.handleCreateProjectForm)
	r.Post("/create_project", s.handleCreateProject)
	r.Get("/updates", s.handleUpdates)

	r.Post(api.CreateGIFPath, s.handleCreateGIF)
	r.Get(api.ProjectsPath, s.handleAPIProjects)
	r.Get(api.RunsPath, s.handleAPIRuns)

	r.Get(api.HealthPath, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set(api.HeaderContentType, "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("OK"))
	})
}
