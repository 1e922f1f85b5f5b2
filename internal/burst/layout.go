package burst

import (
	"fmt"
	"os"
	"path/filepath"
)

// Folder names of the GIF output tree.
const (
	GIFsDir         = "GIFs"
	RawGIFsDir      = "RAW_GIFs"
	GIFExportsDir   = "GIF_EXPORTS"
	FinishedGIFsDir = "FINISHED_GIFs"
	UnstabilizedDir = "UNSTABILIZED_GIF_EXPORTS"
	RawsDir         = "RAWs"
)

// Layout is the GIF output tree under a project.
type Layout struct {
	Root         string
	RawGIFs      string
	GIFExports   string
	FinishedGIFs string
	Unstabilized string
}

// NewLayout returns the layout rooted at outputPath/GIFs without touching
// the filesystem.
func NewLayout(outputPath string) Layout {
	root := filepath.Join(outputPath, GIFsDir)
	return Layout{
		Root:         root,
		RawGIFs:      filepath.Join(root, RawGIFsDir),
		GIFExports:   filepath.Join(root, GIFExportsDir),
		FinishedGIFs: filepath.Join(root, FinishedGIFsDir),
		Unstabilized: filepath.Join(root, UnstabilizedDir),
	}
}

// MakeLayout creates every folder of the layout under outputPath.
func MakeLayout(outputPath string) (Layout, error) {
	l := NewLayout(outputPath)
	for _, dir := range []string{l.Root, l.RawGIFs, l.GIFExports, l.FinishedGIFs, l.Unstabilized} {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return Layout{}, fmt.Errorf("create %s: %w", dir, err)
		}
	}
	return l, nil
}
