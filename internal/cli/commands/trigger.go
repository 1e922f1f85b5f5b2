package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sidewinder5675/tm-photo-tools/internal/cli/output"
	"github.com/sidewinder5675/tm-photo-tools/pkg/trigger"
)

// NewTriggerCommand creates the trigger command.
func NewTriggerCommand() *cobra.Command {
	var serverURL string

	cmd := &cobra.Command{
		Use:   "trigger <project-path>",
		Short: "Ask a running server to create GIFs for a project",
		Long: `Send the project path to a running tmphoto server's /create_gif endpoint
and wait for it to finish. "GIF creation successful!" is logged when the
server answers with status 200; any other outcome exits non-zero.

The path is sent exactly as given and resolved on the server.`,
		Example: `  tmphoto trigger "$HOME/Pictures/2024-05-01 Trip"
  tmphoto trigger --server http://studio.local:5003 "/Volumes/Photos/2024-05-01 Trip"`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTrigger(cmd, serverURL, args[0])
		},
	}

	cmd.Flags().StringVar(&serverURL, "server", "", "Server base URL (default: trigger.server_url)")

	return cmd
}

func runTrigger(cmd *cobra.Command, serverURL, projectPath string) error {
	c := NewCommandContext(cmd)
	if serverURL == "" {
		serverURL = c.Cfg.Trigger.ServerURL
	}

	client := trigger.NewClient(serverURL,
		trigger.WithLogger(c.Logger),
		trigger.WithStateObserver(func(s trigger.State) {
			c.Logger.Debug("request state", "state", s.String())
		}),
	)

	c.Logger.Debug("triggering gif creation", "endpoint", client.Endpoint(), "project", projectPath)
	res := <-client.CreateGIF(cmd.Context(), projectPath)

	r := c.Renderer
	if r.EffectiveMode() == output.ModeJSON {
		errMsg := ""
		if res.Err != nil {
			errMsg = res.Err.Error()
		}
		if err := r.JSON(map[string]any{
			"success": res.OK(),
			"status":  res.StatusCode,
			"error":   errMsg,
		}); err != nil {
			return err
		}
	}

	if !res.OK() {
		return fmt.Errorf("gif creation failed: %w", res.Err)
	}
	return nil
}
