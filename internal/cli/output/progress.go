package output

import (
	"io"
	"sync"
	"time"

	"github.com/jedib0t/go-pretty/v6/progress"
)

// Progress shows labelled progress bars on a terminal. It satisfies the
// Start/Advance/Done progress interfaces of the burst and project packages.
// Off a terminal it only prints each label once finished.
type Progress struct {
	w   io.Writer
	tty bool

	mu      sync.Mutex
	pw      progress.Writer
	tracker *progress.Tracker
	label   string
}

// NewProgress returns a Progress writing to the renderer's error output.
func (r *Renderer) NewProgress() *Progress {
	return &Progress{w: r.errOut, tty: r.isTTY && r.EffectiveMode() == ModeText}
}

// Start begins a new bar, finishing any previous one.
func (p *Progress) Start(label string, total int) {
	p.Done()

	p.mu.Lock()
	defer p.mu.Unlock()
	p.label = label
	if !p.tty {
		return
	}

	pw := progress.NewWriter()
	pw.SetOutputWriter(p.w)
	pw.SetAutoStop(true)
	pw.SetTrackerLength(30)
	pw.SetUpdateFrequency(100 * time.Millisecond)
	pw.SetStyle(progress.StyleBlocks)
	pw.Style().Visibility.ETA = true
	pw.Style().Visibility.Percentage = true

	tracker := &progress.Tracker{Message: label, Total: int64(total), Units: progress.UnitsDefault}
	pw.AppendTracker(tracker)
	go pw.Render()

	p.pw = pw
	p.tracker = tracker
}

// Advance moves the current bar forward by n.
func (p *Progress) Advance(n int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.tracker != nil {
		p.tracker.Increment(int64(n))
	}
}

// Done finishes the current bar.
func (p *Progress) Done() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.tracker != nil {
		p.tracker.MarkAsDone()
		for p.pw.IsRenderInProgress() {
			time.Sleep(10 * time.Millisecond)
		}
		p.tracker, p.pw = nil, nil
	} else if p.label != "" && !p.tty {
		_, _ = io.WriteString(p.w, p.label+": done\n")
	}
	p.label = ""
}
