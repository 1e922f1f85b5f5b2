package project

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFolderName(t *testing.T) {
	tests := []struct {
		name    string
		date    string
		project string
		want    string
		wantErr bool
	}{
		{name: "dashed date", date: "2024-05-01", project: "Harbor", want: "2024-05-01 Harbor"},
		{name: "slashed date", date: "2024/05/01", project: "Harbor", want: "2024-05-01 Harbor"},
		{name: "trims whitespace", date: " 2024-05-01 ", project: " Harbor Lights ", want: "2024-05-01 Harbor Lights"},
		{name: "nfc normalizes", date: "2024-05-01", project: "Cafe\u0301", want: "2024-05-01 Caf\u00e9"},
		{name: "missing date", date: "", project: "Harbor", wantErr: true},
		{name: "missing name", date: "2024-05-01", project: "   ", wantErr: true},
		{name: "month first date", date: "05/01/2024", project: "Harbor", wantErr: true},
		{name: "not a date", date: "yesterday", project: "Harbor", wantErr: true},
		{name: "impossible date", date: "2024-02-30", project: "Harbor", wantErr: true},
		{name: "slash in name", date: "2024-05-01", project: "x/../../escaped", wantErr: true},
		{name: "backslash in name", date: "2024-05-01", project: `..\escaped`, wantErr: true},
		{name: "dots only", date: "2024-05-01", project: "..", want: "2024-05-01 .."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := FolderName(tt.date, tt.project)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidInput)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestWorkspace_Create(t *testing.T) {
	ws := NewWorkspace(t.TempDir())

	dir, err := ws.Create("2024/05/01", "Harbor")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(ws.Root, "2024-05-01 Harbor"), dir)
	assert.DirExists(t, dir)

	again, err := ws.Create("2024/05/01", "Harbor")
	require.NoError(t, err)
	assert.Equal(t, dir, again)

	_, err = ws.Create("", "Harbor")
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestWorkspace_CreateStaysInsideRoot(t *testing.T) {
	parent := t.TempDir()
	ws := NewWorkspace(filepath.Join(parent, "root"))

	_, err := ws.Create("2024-01-01", "x/../../escaped")
	require.ErrorIs(t, err, ErrInvalidInput)
	assert.NoDirExists(t, filepath.Join(parent, "escaped"))
	assert.NoDirExists(t, ws.Root)
}

func TestWorkspace_CreatedProjectsAreListed(t *testing.T) {
	ws := NewWorkspace(t.TempDir())

	_, err := ws.Create("05/01/2024", "Trip")
	require.ErrorIs(t, err, ErrInvalidInput)

	dir, err := ws.Create("2024/05/01", "Trip")
	require.NoError(t, err)

	projects, err := ws.List()
	require.NoError(t, err)
	require.Len(t, projects, 1)
	assert.Equal(t, dir, projects[0].Path)
}

func TestWorkspace_List(t *testing.T) {
	root := t.TempDir()
	for _, name := range []string{
		"2024-06-10 Summer",
		"2023-12-31 Fireworks",
		"2024-06-10 Beach",
		"not a project",
		"2024-13-01 Bad Month",
		"2024-01-01",
	} {
		require.NoError(t, os.MkdirAll(filepath.Join(root, name), 0o750))
	}
	require.NoError(t, os.WriteFile(filepath.Join(root, "2024-01-02 file.txt"), nil, 0o600))
	require.NoError(t, os.MkdirAll(filepath.Join(root, "2024-06-10 Beach", "GIFs"), 0o750))

	projects, err := NewWorkspace(root).List()
	require.NoError(t, err)

	var names []string
	for _, p := range projects {
		names = append(names, p.Name)
	}
	assert.Equal(t, []string{"Fireworks", "Beach", "Summer"}, names)

	assert.Equal(t, time.Date(2023, 12, 31, 0, 0, 0, 0, time.UTC), projects[0].Date)
	assert.Equal(t, filepath.Join(root, "2024-06-10 Beach"), projects[1].Path)
	assert.True(t, projects[1].HasFolder("GIFs"))
	assert.False(t, projects[2].HasFolder("GIFs"))
}

func TestWorkspace_ListMissingRoot(t *testing.T) {
	projects, err := NewWorkspace(filepath.Join(t.TempDir(), "missing")).List()
	assert.NoError(t, err)
	assert.Empty(t, projects)
}

type countingProgress struct {
	total, advanced, done int
}

func (p *countingProgress) Start(_ string, total int) { p.total = total }
func (p *countingProgress) Advance(n int)             { p.advanced += n }
func (p *countingProgress) Done()                     { p.done++ }

func TestImportImages(t *testing.T) {
	card := t.TempDir()
	mtime := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	for _, name := range []string{"IMG_0001.CR3", "IMG_0002.jpg", "DSC_0003.NEF", "README.txt", ".hidden"} {
		path := filepath.Join(card, name)
		require.NoError(t, os.WriteFile(path, []byte(name), 0o600))
		require.NoError(t, os.Chtimes(path, mtime, mtime))
	}
	require.NoError(t, os.MkdirAll(filepath.Join(card, "DCIM.cr3"), 0o750))

	work := t.TempDir()
	progress := &countingProgress{}

	res, err := ImportImages(context.Background(), card, work, "Harbor", progress)
	require.NoError(t, err)

	assert.Equal(t, 3, res.Files)
	assert.Equal(t, int64(len("IMG_0001.CR3")+len("IMG_0002.jpg")+len("DSC_0003.NEF")), res.Bytes)
	assert.Equal(t, filepath.Join(work, "RAWs", "Card 1"), res.Dest)

	copied := filepath.Join(res.Dest, "Harbor | IMG_0001.CR3")
	assert.FileExists(t, copied)
	assert.FileExists(t, filepath.Join(res.Dest, "Harbor | DSC_0003.NEF"))
	assert.NoFileExists(t, filepath.Join(res.Dest, "Harbor | README.txt"))

	info, err := os.Stat(copied)
	require.NoError(t, err)
	assert.True(t, info.ModTime().Equal(mtime))

	assert.Equal(t, 3, progress.total)
	assert.Equal(t, 3, progress.advanced)
	assert.Equal(t, 1, progress.done)
}

func TestImportImages_MissingCard(t *testing.T) {
	_, err := ImportImages(context.Background(), filepath.Join(t.TempDir(), "nope"), t.TempDir(), "Harbor", nil)
	assert.ErrorContains(t, err, "read memory card")
}
