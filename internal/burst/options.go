// Package burst finds bursts of consecutive captures in a folder of raw
// images and renders each burst as an animated GIF.
package burst

import (
	"runtime"
	"strings"
	"time"
)

// Default tuning values.
const (
	DefaultMaxGap            = time.Second
	DefaultMinFrames         = 20
	DefaultMinTrailingFrames = 10
	DefaultFrameDelay        = 100 * time.Millisecond
	DefaultMaxSize           = 512
)

// DefaultExtensions are the frame file extensions scanned by default.
var DefaultExtensions = []string{".cr3"}

// Options tunes burst detection and rendering.
type Options struct {
	// MaxGap is the largest capture-time gap between two frames of one burst.
	MaxGap time.Duration
	// MinFrames is the smallest burst kept when a later gap closes it.
	MinFrames int
	// MinTrailingFrames is the smallest burst kept at the end of the scan.
	MinTrailingFrames int
	// FrameDelay is the display time of each GIF frame.
	FrameDelay time.Duration
	// MaxSize bounds the longer side of each frame, in pixels.
	MaxSize int
	// Extensions lists frame file extensions, matched case-insensitively.
	Extensions []string
	// Workers bounds concurrent frame decoding.
	Workers int
}

// DefaultOptions returns the stock tuning.
func DefaultOptions() Options {
	return Options{
		MaxGap:            DefaultMaxGap,
		MinFrames:         DefaultMinFrames,
		MinTrailingFrames: DefaultMinTrailingFrames,
		FrameDelay:        DefaultFrameDelay,
		MaxSize:           DefaultMaxSize,
		Extensions:        DefaultExtensions,
		Workers:           runtime.NumCPU(),
	}
}

// withDefaults fills zero fields from DefaultOptions.
func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.MaxGap == 0 {
		o.MaxGap = d.MaxGap
	}
	if o.MinFrames <= 0 {
		o.MinFrames = d.MinFrames
	}
	if o.MinTrailingFrames <= 0 {
		o.MinTrailingFrames = d.MinTrailingFrames
	}
	if o.FrameDelay <= 0 {
		o.FrameDelay = d.FrameDelay
	}
	if o.MaxSize <= 0 {
		o.MaxSize = d.MaxSize
	}
	if len(o.Extensions) == 0 {
		o.Extensions = d.Extensions
	}
	if o.Workers <= 0 {
		o.Workers = d.Workers
	}
	o.Extensions = normalizeExtensions(o.Extensions)
	return o
}

func normalizeExtensions(exts []string) []string {
	out := make([]string, 0, len(exts))
	for _, ext := range exts {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		out = append(out, ext)
	}
	return out
}
