package commands

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/sidewinder5675/tm-photo-tools/internal/server"
)

// ServeOptions holds options for the serve command.
type ServeOptions struct {
	Host     string
	Port     int
	Watch    bool
	Restrict bool
}

// NewServeCommand creates the serve command.
func NewServeCommand() *cobra.Command {
	opts := &ServeOptions{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the GIF server and web UI",
		Long: `Start a local web server that creates GIFs on POST /create_gif and
serves a small UI for creating and browsing projects.

The UI provides:
- Project list with a Create GIF button per project
- New project form with memory card import
- Live run history`,
		Example: `  # Serve on the default port (5003)
  tmphoto serve

  # Listen on all interfaces on port 8080
  tmphoto serve --host 0.0.0.0 --port 8080

  # Only accept projects inside the projects folder
  tmphoto serve --restrict`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.Host, "host", "", "Host to listen on (default: localhost)")
	cmd.Flags().IntVar(&opts.Port, "port", 0, "Port to serve on (default: 5003)")
	cmd.Flags().BoolVar(&opts.Watch, "watch", true, "Watch the projects folder for changes")
	cmd.Flags().BoolVar(&opts.Restrict, "restrict", false, "Reject projects outside the projects folder")

	return cmd
}

func runServe(cmd *cobra.Command, opts *ServeOptions) error {
	c := NewCommandContext(cmd)
	cfg := c.Cfg

	// CLI flags override config file
	host := cfg.Server.Host
	if opts.Host != "" {
		host = opts.Host
	}
	port := cfg.Server.Port
	if opts.Port != 0 {
		port = opts.Port
	}
	watch := cfg.Server.Watch
	if cmd.Flags().Changed("watch") {
		watch = opts.Watch
	}
	restrict := cfg.Server.RestrictToRoot || opts.Restrict

	store, err := c.OpenStore()
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	srv, err := server.New(server.Config{
		Processor:      c.NewProcessor(nil),
		Store:          store,
		Workspace:      c.Workspace(),
		Host:           host,
		Port:           port,
		Watch:          watch,
		SessionSecret:  sessionSecret(cfg),
		Logger:         c.Logger,
		CardPath:       cfg.SDCardPath,
		RestrictToRoot: restrict,
	})
	if err != nil {
		return err
	}

	if err := c.ExifTool().Check(); err != nil {
		c.Logger.Warn("GIF creation will fail until exiftool is available", "error", err)
		c.Renderer.Warning(err.Error())
	}

	c.Renderer.Printf("Serving projects from %s on http://%s\n", cfg.ProjectsDir, srv.Addr())
	c.Renderer.Muted("Press Ctrl+C to stop")

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := srv.Serve(ctx); err != nil && ctx.Err() == nil {
		return fmt.Errorf("server stopped: %w", err)
	}
	return nil
}
