package commands

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/sidewinder5675/tm-photo-tools/internal/burst"
	"github.com/sidewinder5675/tm-photo-tools/internal/cli/config"
	"github.com/sidewinder5675/tm-photo-tools/internal/cli/output"
	"github.com/sidewinder5675/tm-photo-tools/internal/project"
	"github.com/sidewinder5675/tm-photo-tools/internal/state"
)

// CommandContext holds common dependencies for CLI commands.
type CommandContext struct {
	Cfg      *config.Config
	Logger   *slog.Logger
	Renderer *output.Renderer
}

// NewCommandContext creates a CommandContext for cmd.
func NewCommandContext(cmd *cobra.Command) *CommandContext {
	cfg := getConfig()
	logger := config.GetLogger(cmd.Context())
	r := output.NewRenderer(cmd.OutOrStdout(), cmd.ErrOrStderr(), output.Mode(cfg.OutputFormat))

	return &CommandContext{
		Cfg:      cfg,
		Logger:   logger,
		Renderer: r,
	}
}

// OpenStore opens the run history database.
// The caller must close the returned store.
func (c *CommandContext) OpenStore() (*state.SQLiteStore, error) {
	store, err := state.OpenStore(c.Cfg.StatePath, c.Logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open state database: %w", err)
	}
	return store, nil
}

// Workspace returns the configured projects folder.
func (c *CommandContext) Workspace() *project.Workspace {
	return project.NewWorkspace(c.Cfg.ProjectsDir)
}

// ExifTool returns the configured exiftool reader.
func (c *CommandContext) ExifTool() burst.ExifTool {
	return burst.ExifTool{Path: c.Cfg.Burst.ExifTool}
}

// NewProcessor builds a burst processor from the configuration.
func (c *CommandContext) NewProcessor(progress burst.Progress) *burst.Processor {
	return burst.NewProcessor(burst.Config{
		Reader:   c.ExifTool(),
		Options:  c.Cfg.BurstOptions(),
		Logger:   c.Logger,
		Progress: progress,
	})
}

// getConfig returns the loaded configuration, or defaults when none was loaded.
func getConfig() *config.Config {
	if cfg := config.GetCurrentConfig(); cfg != nil {
		return cfg
	}
	return config.Default()
}

// sessionSecret returns the configured secret or a random one for this process.
func sessionSecret(cfg *config.Config) string {
	if cfg.Server.SessionSecret != "" {
		return cfg.Server.SessionSecret
	}
	b := make([]byte, 32)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}
