package components

import (
	"context"
	"io"
	"strconv"

	"github.com/a-h/templ"

	"github.com/sidewinder5675/tm-photo-tools/pkg/api"
)

// RunsID is the element id patched when runs change.
const RunsID = "runs"

const timeLayout = "2006-01-02 15:04:05"

// RunsTable lists recent GIF runs, newest first.
func RunsTable(runs []api.RunSummary) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		m := NewMarkup(w)
		m.Raw(`<section id="` + RunsID + `"><h2>Recent runs</h2>`)
		if len(runs) == 0 {
			m.Raw(`<p>No runs yet.</p></section>`)
			return m.Err()
		}

		m.Raw(`<table><thead><tr><th>Started</th><th>Project</th><th>Status</th><th>GIFs</th><th>Error</th></tr></thead><tbody>`)
		for _, r := range runs {
			m.Raw(`<tr><td>`)
			m.Text(r.StartedAt.Format(timeLayout))
			m.Raw(`</td><td>`)
			m.Text(r.ProjectPath)
			m.Raw(`</td><td>`)
			m.Render(ctx, RunStatus(r.Status))
			m.Raw(`</td><td>`)
			m.Raw(strconv.Itoa(r.GIFCount))
			m.Raw(`</td><td>`)
			m.Text(r.Error)
			m.Raw(`</td></tr>`)
		}
		m.Raw(`</tbody></table></section>`)
		return m.Err()
	})
}

// RunStatus is a status label styled by its value.
func RunStatus(status string) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		m := NewMarkup(w)
		m.Raw(`<span class="status-`)
		m.Text(status)
		m.Raw(`">`)
		m.Text(status)
		m.Raw(`</span>`)
		return m.Err()
	})
}
