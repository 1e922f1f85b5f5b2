// Package server runs the web UI and the /create_gif endpoint that turns a
// project's raw bursts into GIFs.
package server

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net"
	"net/http"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/sessions"
	"golang.org/x/sync/errgroup"

	"github.com/sidewinder5675/tm-photo-tools/internal/burst"
	"github.com/sidewinder5675/tm-photo-tools/internal/project"
	"github.com/sidewinder5675/tm-photo-tools/internal/server/notifier"
	"github.com/sidewinder5675/tm-photo-tools/internal/state"
)

// Processor builds GIFs for a project.
type Processor interface {
	Process(ctx context.Context, outputPath, rawsPath string) (burst.Report, error)
}

// Server is the web server.
type Server struct {
	processor      Processor
	store          state.Store
	workspace      *project.Workspace
	sessionStore   *sessions.CookieStore
	host           string
	port           int
	watch          bool
	cardPath       string
	restrictToRoot bool
	logger         *slog.Logger
	notifier       *notifier.Notifier

	mu       sync.Mutex
	inflight map[string]struct{}
}

// Config holds configuration for the server.
type Config struct {
	Processor     Processor
	Store         state.Store
	Workspace     *project.Workspace
	Host          string
	Port          int
	Watch         bool
	SessionSecret string
	Logger        *slog.Logger
	// CardPath is the memory card imported into new projects. Empty skips
	// the import.
	CardPath string
	// RestrictToRoot rejects /create_gif paths outside the workspace root.
	RestrictToRoot bool
}

// New creates a server. Processor, Store and Workspace are required.
func New(cfg Config) (*Server, error) {
	switch {
	case cfg.Processor == nil:
		return nil, errors.New("server: processor is required")
	case cfg.Store == nil:
		return nil, errors.New("server: store is required")
	case cfg.Workspace == nil:
		return nil, errors.New("server: workspace is required")
	}

	sessionStore := sessions.NewCookieStore([]byte(cfg.SessionSecret))
	sessionStore.MaxAge(86400 * 30) // 30 days
	sessionStore.Options.Path = "/"
	sessionStore.Options.HttpOnly = true
	sessionStore.Options.SameSite = http.SameSiteLaxMode

	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	return &Server{
		processor:      cfg.Processor,
		store:          cfg.Store,
		workspace:      cfg.Workspace,
		sessionStore:   sessionStore,
		host:           cfg.Host,
		port:           cfg.Port,
		watch:          cfg.Watch,
		cardPath:       cfg.CardPath,
		restrictToRoot: cfg.RestrictToRoot,
		logger:         logger,
		notifier:       notifier.New(),
		inflight:       make(map[string]struct{}),
	}, nil
}

// Addr returns the listen address.
func (s *Server) Addr() string {
	return net.JoinHostPort(s.host, fmt.Sprint(s.port))
}

// Notifier returns the server's notifier for SSE updates.
func (s *Server) Notifier() *notifier.Notifier {
	return s.notifier
}

// Handler returns the routed HTTP handler.
func (s *Server) Handler() http.Handler {
	r := chi.NewMux()
	r.Use(
		middleware.RequestID,
		middleware.Logger,
		middleware.Recoverer,
		middleware.Compress(5),
	)
	s.routes(r)
	return r
}

// Serve starts the server and blocks until the context is cancelled.
func (s *Server) Serve(ctx context.Context) error {
	if n, err := s.store.FailStaleRuns(ctx, "interrupted by server restart"); err != nil {
		s.logger.Warn("failed to close stale runs", "error", err)
	} else if n > 0 {
		s.logger.Info("closed stale runs", "count", n)
	}

	host := s.host
	if host == "" {
		host = "localhost"
	}
	s.logger.Info("starting server", "addr", fmt.Sprintf("http://%s", net.JoinHostPort(host, fmt.Sprint(s.port))))

	eg, egctx := errgroup.WithContext(ctx)

	srv := &http.Server{
		Addr:    s.Addr(),
		Handler: s.Handler(),
		BaseContext: func(_ net.Listener) context.Context {
			return egctx
		},
		ReadHeaderTimeout: 10 * time.Second,
	}

	if s.watch {
		eg.Go(func() error {
			return s.watchProjects(egctx)
		})
	}

	eg.Go(func() error {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	eg.Go(func() error {
		<-egctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		s.logger.Debug("shutting down server...")
		return srv.Shutdown(shutdownCtx)
	})

	return eg.Wait()
}

// watchProjects broadcasts project changes until ctx is done. The root and
// each project folder are watched; GIF output lands deeper and is announced
// by the handler instead.
func (s *Server) watchProjects(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer func() { _ = watcher.Close() }()

	if err := watchDirs(watcher, s.workspace.Root, 1); err != nil {
		s.logger.Error("failed to watch projects directory", "error", err)
	}

	var debounce *time.Timer
	defer func() {
		if debounce != nil {
			debounce.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			if event.Op&fsnotify.Create != 0 && filepath.Dir(event.Name) == s.workspace.Root {
				_ = watcher.Add(event.Name)
			}

			if debounce != nil {
				debounce.Stop()
			}
			debounce = time.AfterFunc(100*time.Millisecond, func() {
				s.logger.Debug("projects changed", "path", event.Name)
				s.notifier.Broadcast(notifier.TopicProjects)
			})

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			s.logger.Error("watcher error", "error", err)
		}
	}
}

// watchDirs adds dir and its sub-directories down to depth levels.
func watchDirs(watcher *fsnotify.Watcher, dir string, depth int) error {
	base := strings.Count(filepath.Clean(dir), string(filepath.Separator))
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if strings.Count(filepath.Clean(path), string(filepath.Separator))-base > depth {
			return filepath.SkipDir
		}
		return watcher.Add(path)
	})
}
