// Package project manages dated project folders: creating them, importing
// images from a memory card and listing them in date order.
package project

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"golang.org/x/text/unicode/norm"

	"github.com/sidewinder5675/tm-photo-tools/internal/burst"
	"github.com/sidewinder5675/tm-photo-tools/internal/fsutil"
	"github.com/sidewinder5675/tm-photo-tools/pkg/api"
)

// DateLayout is the date prefix of a project folder name.
const DateLayout = "2006-01-02"

// ErrInvalidInput is returned when a project date or name is missing.
var ErrInvalidInput = errors.New("please enter valid inputs")

// Project is one "<YYYY-MM-DD> <name>" folder.
type Project struct {
	Name string
	Date time.Time
	Path string
}

// HasFolder reports whether the project contains a sub-folder called name.
func (p Project) HasFolder(name string) bool {
	return fsutil.IsDir(filepath.Join(p.Path, name))
}

// HasGIFs reports whether GIFs have been created for the project.
func (p Project) HasGIFs() bool {
	return p.HasFolder(burst.GIFsDir)
}

// Summary converts p for the JSON API.
func (p Project) Summary() api.ProjectSummary {
	return api.ProjectSummary{
		Name:    p.Name,
		Date:    p.Date.Format(DateLayout),
		Path:    p.Path,
		HasGIFs: p.HasGIFs(),
	}
}

// Workspace is the folder holding all projects.
type Workspace struct {
	Root string
}

// NewWorkspace returns a workspace rooted at root; "~" is expanded.
func NewWorkspace(root string) *Workspace {
	return &Workspace{Root: fsutil.ExpandHome(root)}
}

// FolderName builds the folder name for a project. Slashes in the date
// become dashes and the result must be a YYYY-MM-DD date so that List
// finds the project again. The name is NFC normalized and may not contain
// path separators.
func FolderName(date, name string) (string, error) {
	date = strings.ReplaceAll(strings.TrimSpace(date), "/", "-")
	name = strings.TrimSpace(name)
	if date == "" || name == "" {
		return "", ErrInvalidInput
	}
	if _, err := time.Parse(DateLayout, date); err != nil {
		return "", ErrInvalidInput
	}
	if strings.ContainsAny(name, `/\`) || strings.ContainsRune(name, 0) {
		return "", ErrInvalidInput
	}

	folder := date + " " + norm.NFC.String(name)
	if filepath.Base(folder) != folder {
		return "", ErrInvalidInput
	}
	return folder, nil
}

// Create makes the working directory for a project and returns its path.
// Creating an existing project is not an error.
func (w *Workspace) Create(date, name string) (string, error) {
	folder, err := FolderName(date, name)
	if err != nil {
		return "", err
	}
	dir := filepath.Join(w.Root, folder)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return "", fmt.Errorf("create project %q: %w", folder, err)
	}
	return dir, nil
}

// List returns the projects under the workspace root ordered by date, then
// by name. Folders that do not start with a YYYY-MM-DD date followed by a
// space and a name are skipped. A missing root yields no projects.
func (w *Workspace) List() ([]Project, error) {
	entries, err := os.ReadDir(w.Root)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}

	var projects []Project
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		p, ok := parseFolder(e.Name())
		if !ok {
			continue
		}
		p.Path = filepath.Join(w.Root, e.Name())
		projects = append(projects, p)
	}

	slices.SortStableFunc(projects, func(a, b Project) int {
		if c := a.Date.Compare(b.Date); c != 0 {
			return c
		}
		return strings.Compare(a.Name, b.Name)
	})
	return projects, nil
}

func parseFolder(folder string) (Project, bool) {
	datePart, name, ok := strings.Cut(folder, " ")
	if !ok || strings.TrimSpace(name) == "" {
		return Project{}, false
	}
	date, err := time.Parse(DateLayout, datePart)
	if err != nil {
		return Project{}, false
	}
	return Project{Name: name, Date: date}, true
}
