package server

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sidewinder5675/tm-photo-tools/internal/burst"
	"github.com/sidewinder5675/tm-photo-tools/internal/project"
	"github.com/sidewinder5675/tm-photo-tools/internal/server/notifier"
	"github.com/sidewinder5675/tm-photo-tools/internal/state"
	"github.com/sidewinder5675/tm-photo-tools/internal/testutil"
	"github.com/sidewinder5675/tm-photo-tools/pkg/api"
	"github.com/sidewinder5675/tm-photo-tools/pkg/trigger"
)

// =============================================================================
// Test Setup Helpers
// =============================================================================

type processCall struct {
	OutputPath string
	RawsPath   string
}

type fakeProcessor struct {
	mu      sync.Mutex
	calls   []processCall
	gifs    int
	err     error
	started chan struct{}
	release chan struct{}
}

func (f *fakeProcessor) Process(_ context.Context, outputPath, rawsPath string) (burst.Report, error) {
	f.mu.Lock()
	f.calls = append(f.calls, processCall{OutputPath: outputPath, RawsPath: rawsPath})
	f.mu.Unlock()

	if f.started != nil {
		f.started <- struct{}{}
	}
	if f.release != nil {
		<-f.release
	}

	report := burst.Report{}
	for i := range f.gifs {
		report.GIFs = append(report.GIFs, filepath.Join(outputPath, burst.GIFsDir, burst.FinishedGIFsDir, fmt.Sprintf("GIF%d.gif", i+1)))
	}
	return report, f.err
}

func (f *fakeProcessor) Calls() []processCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]processCall(nil), f.calls...)
}

type fixture struct {
	Server *Server
	Store  *state.SQLiteStore
	Root   string
}

func setupTestServer(t *testing.T, proc Processor, configure ...func(*Config)) *fixture {
	t.Helper()

	store, err := state.OpenStore(":memory:", testutil.NewTestLogger(t))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	root := t.TempDir()
	cfg := Config{
		Processor:     proc,
		Store:         store,
		Workspace:     project.NewWorkspace(root),
		SessionSecret: "test-secret-key-32-bytes-long!!",
		Logger:        testutil.NewTestLogger(t),
	}
	for _, fn := range configure {
		fn(&cfg)
	}

	s, err := New(cfg)
	require.NoError(t, err)
	return &fixture{Server: s, Store: store, Root: root}
}

func TestNew_RequiresDependencies(t *testing.T) {
	store, err := state.OpenStore(":memory:", nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	ws := project.NewWorkspace(t.TempDir())

	tests := []struct {
		name string
		cfg  Config
		want string
	}{
		{"processor", Config{Store: store, Workspace: ws}, "processor is required"},
		{"store", Config{Processor: &fakeProcessor{}, Workspace: ws}, "store is required"},
		{"workspace", Config{Processor: &fakeProcessor{}, Store: store}, "workspace is required"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.cfg)
			assert.ErrorContains(t, err, tt.want)
		})
	}
}

func postJSON(t *testing.T, h http.Handler, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeGIFResponse(t *testing.T, rec *httptest.ResponseRecorder) api.CreateGIFResponse {
	t.Helper()
	var resp api.CreateGIFResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp), rec.Body.String())
	return resp
}

// =============================================================================
// /create_gif
// =============================================================================

func TestCreateGIF(t *testing.T) {
	tests := []struct {
		name       string
		body       func(root string) string
		procErr    error
		restrict   bool
		wantStatus int
		wantError  string
		wantCalls  int
		wantRun    state.RunStatus
	}{
		{
			name:       "malformed json",
			body:       func(string) string { return `{"projectPath":` },
			wantStatus: http.StatusBadRequest,
			wantError:  "invalid request body",
		},
		{
			name:       "empty path",
			body:       func(string) string { return `{"projectPath":"  "}` },
			wantStatus: http.StatusBadRequest,
			wantError:  "projectPath is required",
		},
		{
			name:       "outside projects root",
			body:       func(string) string { return `{"projectPath":"/somewhere/else"}` },
			restrict:   true,
			wantStatus: http.StatusForbidden,
			wantError:  "project is outside",
		},
		{
			name:       "processing fails",
			body:       func(root string) string { return jsonBody(filepath.Join(root, "2024-05-01 Trip")) },
			procErr:    errors.New("raw images folder does not exist"),
			wantStatus: http.StatusInternalServerError,
			wantError:  "raw images folder does not exist",
			wantCalls:  1,
			wantRun:    state.RunStatusFailed,
		},
		{
			name:       "success",
			body:       func(root string) string { return jsonBody(filepath.Join(root, "2024-05-01 Trip")) },
			restrict:   true,
			wantStatus: http.StatusOK,
			wantCalls:  1,
			wantRun:    state.RunStatusCompleted,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			proc := &fakeProcessor{gifs: 2, err: tt.procErr}
			f := setupTestServer(t, proc, func(c *Config) { c.RestrictToRoot = tt.restrict })

			rec := postJSON(t, f.Server.Handler(), "/create_gif", tt.body(f.Root))

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
			resp := decodeGIFResponse(t, rec)
			assert.Equal(t, tt.wantStatus == http.StatusOK, resp.Success)
			if tt.wantError != "" {
				assert.Contains(t, resp.Error, tt.wantError)
			}
			require.Len(t, proc.Calls(), tt.wantCalls)

			if tt.wantCalls == 0 {
				assert.Empty(t, resp.RunID)
				return
			}

			projectPath := filepath.Join(f.Root, "2024-05-01 Trip")
			assert.Equal(t, processCall{OutputPath: projectPath, RawsPath: filepath.Join(projectPath, "RAWs")}, proc.Calls()[0])

			run, err := f.Store.GetRun(context.Background(), resp.RunID)
			require.NoError(t, err)
			assert.Equal(t, tt.wantRun, run.Status)
			assert.Equal(t, projectPath, run.ProjectPath)
			assert.NotNil(t, run.CompletedAt)
			if tt.wantRun == state.RunStatusCompleted {
				assert.Equal(t, 2, resp.GIFs)
				assert.Equal(t, 2, run.GIFCount)
			} else {
				assert.Equal(t, tt.wantError, run.Error)
			}
		})
	}
}

func jsonBody(path string) string {
	b, _ := json.Marshal(api.CreateGIFRequest{ProjectPath: path})
	return string(b)
}

func TestCreateGIF_RejectsConcurrentRunForSameProject(t *testing.T) {
	proc := &fakeProcessor{started: make(chan struct{}, 1), release: make(chan struct{})}
	f := setupTestServer(t, proc)
	h := f.Server.Handler()
	body := jsonBody(filepath.Join(f.Root, "p"))

	first := make(chan *httptest.ResponseRecorder, 1)
	go func() { first <- postJSON(t, h, "/create_gif", body) }()

	select {
	case <-proc.started:
	case <-time.After(5 * time.Second):
		t.Fatal("processor never started")
	}

	second := postJSON(t, h, "/create_gif", body)
	assert.Equal(t, http.StatusConflict, second.Code)

	close(proc.release)
	assert.Equal(t, http.StatusOK, (<-first).Code)

	// The project is free again once the first run finishes.
	proc.release = nil
	third := postJSON(t, h, "/create_gif", body)
	<-proc.started
	assert.Equal(t, http.StatusOK, third.Code)
}

func TestCreateGIF_BroadcastsRunChanges(t *testing.T) {
	f := setupTestServer(t, &fakeProcessor{gifs: 1})
	sub := f.Server.Notifier().Subscribe()
	defer f.Server.Notifier().Unsubscribe(sub)

	rec := postJSON(t, f.Server.Handler(), "/create_gif", jsonBody(filepath.Join(f.Root, "p")))
	require.Equal(t, http.StatusOK, rec.Code)

	select {
	case <-sub.C:
	case <-time.After(time.Second):
		t.Fatal("no broadcast")
	}
	assert.Equal(t, notifier.TopicAll, sub.Topics())
}

func TestCreateGIF_WithTriggerClient(t *testing.T) {
	tests := []struct {
		name     string
		procErr  error
		wantOK   bool
		wantLogs int
	}{
		{name: "success logs once", wantOK: true, wantLogs: 1},
		{name: "failure is silent", procErr: errors.New("boom"), wantOK: false, wantLogs: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := setupTestServer(t, &fakeProcessor{gifs: 1, err: tt.procErr})
			srv := httptest.NewServer(f.Server.Handler())
			t.Cleanup(srv.Close)

			logger, logs := testutil.NewCaptureLogger()
			client := trigger.NewClient(srv.URL, trigger.WithLogger(logger))

			var res trigger.Result
			select {
			case res = <-client.CreateGIF(context.Background(), filepath.Join(f.Root, "p")):
			case <-time.After(5 * time.Second):
				t.Fatal("timed out waiting for trigger result")
			}

			assert.Equal(t, tt.wantOK, res.OK())
			assert.Equal(t, tt.wantLogs, logs.Count(trigger.SuccessMessage))
		})
	}
}

func TestWithin(t *testing.T) {
	tests := []struct {
		root, path string
		want       bool
	}{
		{"/p", "/p", true},
		{"/p", "/p/2024-05-01 Trip", true},
		{"/p", "/p/a/b", true},
		{"/p", "/pictures", false},
		{"/p", "/", false},
		{"/p", "/p/../q", false},
		{"/p", "/p/..hidden", true},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.want, within(tt.root, filepath.Clean(tt.path)))
		})
	}
}

// =============================================================================
// Pages
// =============================================================================

func TestPages(t *testing.T) {
	tests := []struct {
		name     string
		path     string
		wantBody []string
	}{
		{
			name: "index",
			path: "/",
			wantBody: []string{
				"<!doctype html>",
				"<title>Home - Photo Tools</title>",
				"/static/create_gif.js",
				"data-init",
				"/updates",
				`id="projects"`,
				`id="runs"`,
				"2024-05-01",
				"Trip",
				"createGif(",
				`data-project-path="`,
			},
		},
		{
			name: "view projects",
			path: "/view_projects",
			wantBody: []string{
				"<title>Projects - Photo Tools</title>",
				"Trip",
				"Party",
				"/updates?topics=projects",
			},
		},
		{
			name:     "create project form",
			path:     "/create_project",
			wantBody: []string{`name="date"`, `name="project_name"`, `action="/create_project"`},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := setupTestServer(t, &fakeProcessor{})
			require.NoError(t, os.MkdirAll(filepath.Join(f.Root, "2024-05-01 Trip"), 0o750))
			require.NoError(t, os.MkdirAll(filepath.Join(f.Root, "2023-12-31 Party"), 0o750))

			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			rec := httptest.NewRecorder()
			f.Server.Handler().ServeHTTP(rec, req)

			assert.Equal(t, http.StatusOK, rec.Code)
			body := rec.Body.String()
			for _, want := range tt.wantBody {
				assert.Contains(t, body, want)
			}
		})
	}
}

func TestViewProjects_SortedByDate(t *testing.T) {
	f := setupTestServer(t, &fakeProcessor{})
	require.NoError(t, os.MkdirAll(filepath.Join(f.Root, "2024-05-01 Trip"), 0o750))
	require.NoError(t, os.MkdirAll(filepath.Join(f.Root, "2023-12-31 Party"), 0o750))

	rec := httptest.NewRecorder()
	f.Server.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/view_projects", nil))

	body := rec.Body.String()
	assert.Less(t, strings.Index(body, "Party"), strings.Index(body, "Trip"))
}

func TestCreateProject(t *testing.T) {
	card := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(card, "IMG_0001.CR3"), []byte("raw"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(card, "notes.txt"), []byte("skip"), 0o600))

	f := setupTestServer(t, &fakeProcessor{}, func(c *Config) { c.CardPath = card })
	srv := httptest.NewServer(f.Server.Handler())
	t.Cleanup(srv.Close)

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	client := &http.Client{Jar: jar}

	resp, err := client.PostForm(srv.URL+"/create_project", url.Values{
		"date":         {"2024-05-01"},
		"project_name": {"Trip"},
	})
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	// Redirected to the index, which shows the flash once.
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "/", resp.Request.URL.Path)
	body := readAll(t, resp)
	assert.Contains(t, body, "Created project 2024-05-01 Trip and imported 1 images.")

	dir := filepath.Join(f.Root, "2024-05-01 Trip")
	assert.FileExists(t, filepath.Join(dir, "RAWs", "Card 1", "2024-05-01 Trip | IMG_0001.CR3"))
	assert.NoFileExists(t, filepath.Join(dir, "RAWs", "Card 1", "2024-05-01 Trip | notes.txt"))

	again, err := client.Get(srv.URL + "/")
	require.NoError(t, err)
	defer func() { _ = again.Body.Close() }()
	assert.NotContains(t, readAll(t, again), "Created project")
}

func TestCreateProject_ImportOutlivesRequest(t *testing.T) {
	card := t.TempDir()
	for _, name := range []string{"IMG_0001.CR3", "IMG_0002.CR3"} {
		require.NoError(t, os.WriteFile(filepath.Join(card, name), []byte("raw"), 0o600))
	}
	f := setupTestServer(t, &fakeProcessor{}, func(c *Config) { c.CardPath = card })

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	form := url.Values{"date": {"2024-05-01"}, "project_name": {"Trip"}}
	req := httptest.NewRequest(http.MethodPost, "/create_project", strings.NewReader(form.Encode())).WithContext(ctx)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	f.Server.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/", rec.Header().Get("Location"))
	cardDir := filepath.Join(f.Root, "2024-05-01 Trip", "RAWs", "Card 1")
	assert.FileExists(t, filepath.Join(cardDir, "2024-05-01 Trip | IMG_0001.CR3"))
	assert.FileExists(t, filepath.Join(cardDir, "2024-05-01 Trip | IMG_0002.CR3"))
}

func TestCreateProject_InvalidInput(t *testing.T) {
	tests := []struct {
		name string
		form url.Values
	}{
		{name: "missing date", form: url.Values{"project_name": {"Trip"}}},
		{name: "missing name", form: url.Values{"date": {"2024-05-01"}}},
		{name: "blank name", form: url.Values{"date": {"2024-05-01"}, "project_name": {"   "}}},
		{name: "month first date", form: url.Values{"date": {"05/01/2024"}, "project_name": {"Trip"}}},
		{name: "path in name", form: url.Values{"date": {"2024-05-01"}, "project_name": {"x/../../escaped"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := setupTestServer(t, &fakeProcessor{})

			req := httptest.NewRequest(http.MethodPost, "/create_project", strings.NewReader(tt.form.Encode()))
			req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
			rec := httptest.NewRecorder()
			f.Server.Handler().ServeHTTP(rec, req)

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Contains(t, rec.Body.String(), "Please enter valid inputs.")

			entries, err := os.ReadDir(f.Root)
			require.NoError(t, err)
			assert.Empty(t, entries)
			assert.NoDirExists(t, filepath.Join(filepath.Dir(f.Root), "escaped"))
		})
	}
}

// =============================================================================
// JSON API and assets
// =============================================================================

func TestAPIProjects(t *testing.T) {
	f := setupTestServer(t, &fakeProcessor{})
	dir := filepath.Join(f.Root, "2024-05-01 Trip")
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "GIFs"), 0o750))
	require.NoError(t, os.MkdirAll(filepath.Join(f.Root, "not a project"), 0o750))

	rec := httptest.NewRecorder()
	f.Server.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/projects", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var got []api.ProjectSummary
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, []api.ProjectSummary{{Name: "Trip", Date: "2024-05-01", Path: dir, HasGIFs: true}}, got)
}

func TestAPIProjects_LastRun(t *testing.T) {
	f := setupTestServer(t, &fakeProcessor{gifs: 2})
	dir := filepath.Join(f.Root, "2024-05-01 Trip")
	require.NoError(t, os.MkdirAll(dir, 0o750))
	require.Equal(t, http.StatusOK, postJSON(t, f.Server.Handler(), "/create_gif", jsonBody(dir)).Code)

	rec := httptest.NewRecorder()
	f.Server.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/projects", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var got []api.ProjectSummary
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Len(t, got, 1)
	require.NotNil(t, got[0].LastRun)
	assert.Equal(t, "completed", got[0].LastRun.Status)
	assert.Equal(t, 2, got[0].LastRun.GIFCount)

	page := httptest.NewRecorder()
	f.Server.Handler().ServeHTTP(page, httptest.NewRequest(http.MethodGet, "/view_projects", nil))
	assert.Contains(t, page.Body.String(), `<span class="status-completed">completed</span>`)
}

func TestAPIRuns(t *testing.T) {
	f := setupTestServer(t, &fakeProcessor{gifs: 3})
	path := filepath.Join(f.Root, "p")
	require.Equal(t, http.StatusOK, postJSON(t, f.Server.Handler(), "/create_gif", jsonBody(path)).Code)

	rec := httptest.NewRecorder()
	f.Server.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/runs", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var got []api.RunSummary
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Len(t, got, 1)
	assert.Equal(t, path, got[0].ProjectPath)
	assert.Equal(t, "completed", got[0].Status)
	assert.Equal(t, 3, got[0].GIFCount)
}

func TestHealthAndStatic(t *testing.T) {
	f := setupTestServer(t, &fakeProcessor{})
	h := f.Server.Handler()

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OK", rec.Body.String())

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/static/create_gif.js", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "GIF creation successful!")
	assert.Contains(t, rec.Body.String(), `"/create_gif"`)
}

// =============================================================================
// SSE
// =============================================================================

// subscribeUpdates opens /updates with query and streams its lines.
func subscribeUpdates(t *testing.T, f *fixture, query string) <-chan string {
	t.Helper()
	srv := httptest.NewServer(f.Server.Handler())
	t.Cleanup(srv.Close)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/updates"+query, nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/event-stream")

	require.Eventually(t, func() bool { return f.Server.Notifier().Len() == 1 }, 2*time.Second, 10*time.Millisecond)

	lines := make(chan string)
	go func() {
		sc := bufio.NewScanner(resp.Body)
		for sc.Scan() {
			select {
			case lines <- sc.Text():
			case <-ctx.Done():
				return
			}
		}
	}()
	return lines
}

// nextPatch returns the first streamed line that carries a section id.
func nextPatch(t *testing.T, lines <-chan string) string {
	t.Helper()
	deadline := time.After(5 * time.Second)
	for {
		select {
		case line := <-lines:
			if strings.Contains(line, `id="projects"`) || strings.Contains(line, `id="runs"`) {
				return line
			}
		case <-deadline:
			t.Fatal("no patch received")
			return ""
		}
	}
}

func TestUpdates_PatchesProjectsOnBroadcast(t *testing.T) {
	f := setupTestServer(t, &fakeProcessor{})
	require.NoError(t, os.MkdirAll(filepath.Join(f.Root, "2024-05-01 Trip"), 0o750))
	lines := subscribeUpdates(t, f, "")

	f.Server.Notifier().Broadcast(notifier.TopicProjects)

	line := nextPatch(t, lines)
	assert.Contains(t, line, `id="projects"`)
	assert.Contains(t, line, "Trip")
	assert.NotContains(t, line, `id="runs"`)
}

func TestUpdates_TopicsLimitPatches(t *testing.T) {
	f := setupTestServer(t, &fakeProcessor{})
	lines := subscribeUpdates(t, f, "?topics=projects")

	// Runs have no section on the projects page, so only the second
	// broadcast may produce a patch.
	f.Server.Notifier().Broadcast(notifier.TopicRuns)
	f.Server.Notifier().Broadcast(notifier.TopicProjects)

	line := nextPatch(t, lines)
	assert.Contains(t, line, `id="projects"`)
}

func TestParseTopics(t *testing.T) {
	tests := []struct {
		raw  string
		want notifier.Topic
	}{
		{"", notifier.TopicAll},
		{"projects", notifier.TopicProjects},
		{"runs", notifier.TopicRuns},
		{"projects, runs", notifier.TopicAll},
		{"bogus", notifier.TopicAll},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			assert.Equal(t, tt.want, parseTopics(tt.raw))
		})
	}
}

func readAll(t *testing.T, resp *http.Response) string {
	t.Helper()
	var sb strings.Builder
	sc := bufio.NewScanner(resp.Body)
	for sc.Scan() {
		sb.WriteString(sc.Text())
		sb.WriteByte('\n')
	}
	require.NoError(t, sc.Err())
	return sb.String()
}
