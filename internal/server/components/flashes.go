package components

import (
	"context"
	"io"

	"github.com/a-h/templ"
)

// Flashes shows one-time notices and an optional error line.
func Flashes(notices []string, errMsg string) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		m := NewMarkup(w)
		for _, n := range notices {
			m.Raw(`<p class="flash">`)
			m.Text(n)
			m.Raw(`</p>`)
		}
		if errMsg != "" {
			m.Raw(`<p class="error">`)
			m.Text(errMsg)
			m.Raw(`</p>`)
		}
		return m.Err()
	})
}
