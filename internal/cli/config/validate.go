package config

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

var (
	logLevels  = []string{"debug", "info", "warn", "error"}
	logFormats = []string{"text", "json"}
	outputs    = []string{"auto", "text", "markdown", "json"}
)

// Validate checks if the configuration is valid. Every problem is reported.
func (c *Config) Validate() error {
	var errs []error

	if strings.TrimSpace(c.ProjectsDir) == "" {
		errs = append(errs, errors.New("projects_dir is required"))
	}
	if strings.TrimSpace(c.StatePath) == "" {
		errs = append(errs, errors.New("state_path is required"))
	}
	if !slices.Contains(logLevels, strings.ToLower(c.LogLevel)) {
		errs = append(errs, fmt.Errorf("log_level must be one of %s, got %q", strings.Join(logLevels, ", "), c.LogLevel))
	}
	if !slices.Contains(logFormats, strings.ToLower(c.LogFormat)) {
		errs = append(errs, fmt.Errorf("log_format must be one of %s, got %q", strings.Join(logFormats, ", "), c.LogFormat))
	}
	if c.OutputFormat != "" && !slices.Contains(outputs, c.OutputFormat) {
		errs = append(errs, fmt.Errorf("output must be one of %s, got %q", strings.Join(outputs, ", "), c.OutputFormat))
	}
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port out of range: %d", c.Server.Port))
	}

	b := c.Burst
	if b.MaxGap < 0 || b.FrameDelay < 0 {
		errs = append(errs, errors.New("burst durations must not be negative"))
	}
	if b.MinFrames < 0 || b.MinTrailingFrames < 0 || b.MaxSize < 0 || b.Workers < 0 {
		errs = append(errs, errors.New("burst counts must not be negative"))
	}

	return errors.Join(errs...)
}
