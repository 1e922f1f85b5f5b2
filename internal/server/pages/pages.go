// Package pages renders the full HTML pages of the web UI.
package pages

import (
	"context"
	"io"

	"github.com/a-h/templ"

	"github.com/sidewinder5675/tm-photo-tools/internal/server/components"
	"github.com/sidewinder5675/tm-photo-tools/internal/server/resources"
	"github.com/sidewinder5675/tm-photo-tools/pkg/api"
)

// UpdatesPath is the SSE endpoint live pages subscribe to. The topics query
// parameter limits which sections get patched.
const UpdatesPath = "/updates"

const datastarScript = "https://cdn.jsdelivr.net/gh/starfederation/datastar@v1.0.0-RC.6/bundles/datastar.js"

// Page is what every page shows around its content.
type Page struct {
	Title   string
	Notices []string
	Error   string
}

// ProjectForm holds the values of the new project form.
type ProjectForm struct {
	Date string
	Name string
}

// Layout wraps body in the document shell with navigation and flashes.
func Layout(p Page, body templ.Component) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		m := components.NewMarkup(w)
		m.Raw(`<!doctype html><html lang="en"><head><meta charset="utf-8"><title>`)
		m.Text(p.Title)
		m.Raw(` - Photo Tools</title>`)
		m.Raw(`<link rel="stylesheet" href="` + resources.StaticPath("style.css") + `">`)
		m.Raw(`<script type="module" src="` + datastarScript + `"></script>`)
		m.Raw(`<script src="` + resources.StaticPath("create_gif.js") + `"></script>`)
		m.Raw(`</head><body><nav><a href="/">Home</a><a href="/view_projects">Projects</a><a href="/create_project">New project</a></nav>`)
		m.Render(ctx, components.Flashes(p.Notices, p.Error))
		m.Render(ctx, body)
		m.Raw(`</body></html>`)
		return m.Err()
	})
}

// Index is the dashboard: projects with their create-GIF buttons and the
// recent runs, both kept live over SSE.
func Index(p Page, projects []api.ProjectSummary, runs []api.RunSummary) templ.Component {
	return Layout(p, templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		m := components.NewMarkup(w)
		m.Raw(`<h1>Photo Tools</h1><div data-init="@get('` + UpdatesPath + `')">`)
		m.Render(ctx, components.ProjectsTable(projects))
		m.Render(ctx, components.RunsTable(runs))
		m.Raw(`</div>`)
		return m.Err()
	}))
}

// ViewProjects lists the projects by date. It only listens for project
// changes since it has no runs section.
func ViewProjects(p Page, projects []api.ProjectSummary) templ.Component {
	return Layout(p, templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		m := components.NewMarkup(w)
		m.Raw(`<h1>Projects</h1><div data-init="@get('` + UpdatesPath + `?topics=` + components.ProjectsID + `')">`)
		m.Render(ctx, components.ProjectsTable(projects))
		m.Raw(`</div>`)
		return m.Err()
	}))
}

// CreateProject is the new project form, refilled with form on errors.
func CreateProject(p Page, form ProjectForm) templ.Component {
	return Layout(p, templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		m := components.NewMarkup(w)
		m.Raw(`<h1>New project</h1><form method="post" action="/create_project">`)
		m.Raw(`<label>Date <input type="date" name="date" value="`)
		m.Text(form.Date)
		m.Raw(`"></label><label>Project name <input type="text" name="project_name" value="`)
		m.Text(form.Name)
		m.Raw(`"></label><p><button type="submit">Create</button></p></form>`)
		return m.Err()
	}))
}
