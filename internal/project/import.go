package project

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/sidewinder5675/tm-photo-tools/internal/fsutil"
)

// ImageExtensions are the file types copied off a memory card.
var ImageExtensions = []string{".jpg", ".jpeg", ".png", ".cr2", ".cr3", ".nef", ".arw"}

// CardFolder is where the first card's images land inside a project.
var CardFolder = filepath.Join("RAWs", "Card 1")

// Progress receives per-file import progress.
type Progress interface {
	Start(label string, total int)
	Advance(n int)
	Done()
}

// ImportResult summarizes an import.
type ImportResult struct {
	Files int
	Bytes int64
	Dest  string
}

// ImportImages copies the image files at the top level of cardPath into
// workingDir/RAWs/Card 1, renaming each to "<projectName> | <file>" and
// keeping modification times. progress may be nil.
func ImportImages(ctx context.Context, cardPath, workingDir, projectName string, progress Progress) (ImportResult, error) {
	dest := filepath.Join(workingDir, CardFolder)
	result := ImportResult{Dest: dest}

	if err := os.MkdirAll(dest, 0o750); err != nil {
		return result, fmt.Errorf("create %s: %w", dest, err)
	}

	entries, err := os.ReadDir(cardPath)
	if err != nil {
		return result, fmt.Errorf("read memory card: %w", err)
	}

	var files []string
	for _, e := range entries {
		if e.Type().IsRegular() && slices.Contains(ImageExtensions, strings.ToLower(filepath.Ext(e.Name()))) {
			files = append(files, e.Name())
		}
	}

	if progress != nil {
		progress.Start("Copying images", len(files))
		defer progress.Done()
	}

	for _, name := range files {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		n, err := fsutil.CopyFile(filepath.Join(cardPath, name), filepath.Join(dest, projectName+" | "+name))
		if err != nil {
			return result, err
		}
		result.Files++
		result.Bytes += n
		if progress != nil {
			progress.Advance(1)
		}
	}
	return result, nil
}
