package burst

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"slices"
	"strings"
	"time"
)

// Frame is one captured image.
type Frame struct {
	Path        string
	ModTime     time.Time
	CaptureTime time.Time
}

// Name returns the frame's file name.
func (f Frame) Name() string {
	return filepath.Base(f.Path)
}

// FindFrames walks root recursively and returns every file whose extension
// is in exts, ordered by modification time (ties by path).
func FindFrames(root string, exts []string) ([]Frame, error) {
	exts = normalizeExtensions(exts)

	var frames []Frame
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !hasExtension(path, exts) {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		frames = append(frames, Frame{Path: path, ModTime: info.ModTime()})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", root, err)
	}

	slices.SortStableFunc(frames, func(a, b Frame) int {
		if c := a.ModTime.Compare(b.ModTime); c != 0 {
			return c
		}
		return strings.Compare(a.Path, b.Path)
	})
	return frames, nil
}

func hasExtension(path string, exts []string) bool {
	return slices.Contains(exts, strings.ToLower(filepath.Ext(path)))
}
