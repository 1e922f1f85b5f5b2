package burst

import "fmt"

// Sequence is one kept burst. Index is 1-based in scan order.
type Sequence struct {
	Index  int
	Frames []Frame
}

// Name is the folder name used for the burst's copies and exports.
func (s Sequence) Name() string {
	return fmt.Sprintf("GIF%d | %d images", s.Index, len(s.Frames))
}

// FileName is the name of the rendered GIF.
func (s Sequence) FileName() string {
	return fmt.Sprintf("GIF%d.gif", s.Index)
}

// Group splits frames, already in scan order and carrying capture times,
// into bursts. A frame joins the current burst when its capture time is at
// most opts.MaxGap after the previous frame's; earlier timestamps also join.
// A burst closed by a larger gap is kept with at least opts.MinFrames
// frames, the final burst with at least opts.MinTrailingFrames.
func Group(frames []Frame, opts Options) []Sequence {
	opts = opts.withDefaults()

	var (
		kept    []Sequence
		current []Frame
	)
	keep := func(least int) {
		if len(current) >= least {
			kept = append(kept, Sequence{Index: len(kept) + 1, Frames: current})
		}
	}

	for i, f := range frames {
		if i == 0 || f.CaptureTime.Sub(frames[i-1].CaptureTime) <= opts.MaxGap {
			current = append(current, f)
			continue
		}
		keep(opts.MinFrames)
		current = []Frame{f}
	}
	keep(opts.MinTrailingFrames)

	return kept
}
