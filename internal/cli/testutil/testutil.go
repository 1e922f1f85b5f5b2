// Package testutil provides test utilities for CLI testing.
package testutil

import (
	"bytes"
	"context"
	"path/filepath"
	"regexp"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"

	"github.com/sidewinder5675/tm-photo-tools/internal/cli/config"
	"github.com/sidewinder5675/tm-photo-tools/internal/testutil"
)

// TestEnv describes an isolated CLI environment.
type TestEnv struct {
	Home        string
	ProjectsDir string
	StatePath   string
}

// SetupTestEnv isolates a test from the user's home, config files and
// working directory, and points projects and state into a temp dir. Extra
// TMPHOTO_ variables in env are set before the config is loaded.
func SetupTestEnv(t *testing.T, env map[string]string) *TestEnv {
	t.Helper()

	home := t.TempDir()
	t.Chdir(home)
	t.Setenv("HOME", home)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(home, ".config"))

	te := &TestEnv{
		Home:        home,
		ProjectsDir: filepath.Join(home, "Pictures"),
		StatePath:   filepath.Join(home, ".tmphoto", "state.db"),
	}
	t.Setenv(config.EnvPrefix+"PROJECTS_DIR", te.ProjectsDir)
	t.Setenv(config.EnvPrefix+"STATE_PATH", te.StatePath)
	for k, v := range env {
		t.Setenv(k, v)
	}

	config.ResetConfig()
	t.Cleanup(config.ResetConfig)
	return te
}

// LoadConfig loads the config for the current test environment.
func LoadConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg, err := config.LoadConfig("", nil)
	require.NoError(t, err)
	return cfg
}

// Execute runs cmd with args and a test logger, returning captured output.
func Execute(t *testing.T, cmd *cobra.Command, args ...string) (stdout, stderr string, err error) {
	t.Helper()

	out, errOut := &bytes.Buffer{}, &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(errOut)
	cmd.SetArgs(args)

	ctx := context.WithValue(context.Background(), config.LoggerKey(), testutil.NewTestLogger(t))
	err = cmd.ExecuteContext(ctx)
	return out.String(), errOut.String(), err
}

// ansiPattern matches ANSI escape codes.
var ansiPattern = regexp.MustCompile(`\x1b\[[0-9;]*[a-zA-Z]`)

// AssertNoANSI checks that a string contains no ANSI escape codes.
func AssertNoANSI(t *testing.T, s string) {
	t.Helper()
	if ansiPattern.MatchString(s) {
		t.Errorf("string contains ANSI escape codes: %q", s)
	}
}
