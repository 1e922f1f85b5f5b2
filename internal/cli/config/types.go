// Package config loads tmphoto configuration from defaults, a YAML file,
// TMPHOTO_ environment variables and command-line flags.
package config

import (
	"time"

	"github.com/sidewinder5675/tm-photo-tools/internal/burst"
)

// Config holds all CLI configuration options.
type Config struct {
	ProjectsDir  string        `koanf:"projects_dir" yaml:"projects_dir"`
	StatePath    string        `koanf:"state_path" yaml:"state_path"`
	SDCardPath   string        `koanf:"sd_card_path" yaml:"sd_card_path"`
	LogLevel     string        `koanf:"log_level" yaml:"log_level"`
	LogFormat    string        `koanf:"log_format" yaml:"log_format"`
	Verbose      bool          `koanf:"verbose" yaml:"verbose"`
	OutputFormat string        `koanf:"output" yaml:"output"`
	Server       ServerConfig  `koanf:"server" yaml:"server"`
	Burst        BurstConfig   `koanf:"burst" yaml:"burst"`
	Trigger      TriggerConfig `koanf:"trigger" yaml:"trigger"`
}

// ServerConfig holds configuration for the web server.
type ServerConfig struct {
	Host           string `koanf:"host" yaml:"host"`
	Port           int    `koanf:"port" yaml:"port"`
	Watch          bool   `koanf:"watch" yaml:"watch"`
	SessionSecret  string `koanf:"session_secret" yaml:"session_secret,omitempty"`
	RestrictToRoot bool   `koanf:"restrict_to_root" yaml:"restrict_to_root"`
}

// BurstConfig tunes burst detection and GIF rendering.
type BurstConfig struct {
	MaxGap            time.Duration `koanf:"max_gap" yaml:"max_gap"`
	MinFrames         int           `koanf:"min_frames" yaml:"min_frames"`
	MinTrailingFrames int           `koanf:"min_trailing_frames" yaml:"min_trailing_frames"`
	FrameDelay        time.Duration `koanf:"frame_delay" yaml:"frame_delay"`
	MaxSize           int           `koanf:"max_size" yaml:"max_size"`
	Extensions        []string      `koanf:"extensions" yaml:"extensions"`
	Workers           int           `koanf:"workers" yaml:"workers"`
	ExifTool          string        `koanf:"exiftool" yaml:"exiftool"`
}

// TriggerConfig holds configuration for the trigger command.
type TriggerConfig struct {
	ServerURL string `koanf:"server_url" yaml:"server_url"`
}

// Default configuration values.
const (
	DefaultProjectsDir = "~/Pictures"
	DefaultStateFile   = "~/.tmphoto/state.db"
	DefaultLogLevel    = "info"
	DefaultLogFormat   = "text"
	DefaultOutput      = "auto" // Auto-detect: TTY=text, non-TTY=markdown
	DefaultHost        = "localhost"
	DefaultPort        = 5003
	DefaultServerURL   = "http://localhost:5003"
)

// defaults is loaded first so every key exists for env and flag overrides.
func defaults() map[string]any {
	opts := burst.DefaultOptions()
	return map[string]any{
		"projects_dir":              DefaultProjectsDir,
		"state_path":                DefaultStateFile,
		"sd_card_path":              "",
		"log_level":                 DefaultLogLevel,
		"log_format":                DefaultLogFormat,
		"verbose":                   false,
		"output":                    DefaultOutput,
		"server.host":               DefaultHost,
		"server.port":               DefaultPort,
		"server.watch":              true,
		"server.restrict_to_root":   false,
		"burst.max_gap":             opts.MaxGap.String(),
		"burst.min_frames":          opts.MinFrames,
		"burst.min_trailing_frames": opts.MinTrailingFrames,
		"burst.frame_delay":         opts.FrameDelay.String(),
		"burst.max_size":            opts.MaxSize,
		"burst.extensions":          opts.Extensions,
		"burst.workers":             0,
		"burst.exiftool":            "",
		"trigger.server_url":        DefaultServerURL,
	}
}

// BurstOptions converts the burst section for the processor. Zero values
// fall back to the processor defaults.
func (c *Config) BurstOptions() burst.Options {
	return burst.Options{
		MaxGap:            c.Burst.MaxGap,
		MinFrames:         c.Burst.MinFrames,
		MinTrailingFrames: c.Burst.MinTrailingFrames,
		FrameDelay:        c.Burst.FrameDelay,
		MaxSize:           c.Burst.MaxSize,
		Extensions:        c.Burst.Extensions,
		Workers:           c.Burst.Workers,
	}
}
