// Package components holds the templ components shared by every page and
// patched into live pages over SSE.
package components

import (
	"context"
	"io"

	"github.com/a-h/templ"
)

// Markup writes HTML and keeps the first error, so a component body reads
// top to bottom and checks Err once.
type Markup struct {
	w   io.Writer
	err error
}

// NewMarkup wraps w.
func NewMarkup(w io.Writer) *Markup {
	return &Markup{w: w}
}

// Raw writes trusted markup as is.
func (m *Markup) Raw(s string) {
	if m.err == nil {
		_, m.err = io.WriteString(m.w, s)
	}
}

// Text writes s escaped for element text and quoted attribute values.
func (m *Markup) Text(s string) {
	m.Raw(templ.EscapeString(s))
}

// Render writes a child component.
func (m *Markup) Render(ctx context.Context, c templ.Component) {
	if m.err == nil {
		m.err = c.Render(ctx, m.w)
	}
}

// Err returns the first write error.
func (m *Markup) Err() error {
	return m.err
}
