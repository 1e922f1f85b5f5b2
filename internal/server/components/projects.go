package components

import (
	"context"
	"io"

	"github.com/a-h/templ"

	"github.com/sidewinder5675/tm-photo-tools/pkg/api"
)

// ProjectsID is the element id patched when projects change.
const ProjectsID = "projects"

// ProjectsTable lists projects with a button that calls the browser
// createGif trigger for each one.
func ProjectsTable(projects []api.ProjectSummary) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		m := NewMarkup(w)
		m.Raw(`<section id="` + ProjectsID + `"><h2>Projects</h2>`)
		if len(projects) == 0 {
			m.Raw(`<p>No projects yet.</p></section>`)
			return m.Err()
		}

		m.Raw(`<table><thead><tr><th>Date</th><th>Name</th><th>GIFs</th><th>Last run</th><th></th></tr></thead><tbody>`)
		for _, p := range projects {
			m.Raw(`<tr><td>`)
			m.Text(p.Date)
			m.Raw(`</td><td>`)
			m.Text(p.Name)
			m.Raw(`</td><td>`)
			m.Text(yesNo(p.HasGIFs))
			m.Raw(`</td><td>`)
			if p.LastRun != nil {
				m.Render(ctx, RunStatus(p.LastRun.Status))
				m.Raw(` `)
				m.Text(p.LastRun.StartedAt.Format(timeLayout))
			} else {
				m.Raw(`never`)
			}
			m.Raw(`</td><td><button type="button" data-project-path="`)
			m.Text(p.Path)
			m.Raw(`" onclick="createGif(this.dataset.projectPath)">Create GIF</button></td></tr>`)
		}
		m.Raw(`</tbody></table></section>`)
		return m.Err()
	})
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
