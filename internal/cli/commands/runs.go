package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sidewinder5675/tm-photo-tools/internal/cli/output"
	"github.com/sidewinder5675/tm-photo-tools/pkg/api"
)

// NewRunsCommand creates the runs command.
func NewRunsCommand() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "runs",
		Short: "Show GIF creation history",
		Long:  `List recent GIF creation runs from the server and the process command, newest first.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runRuns(cmd, limit)
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Number of runs to show (0 for all)")

	return cmd
}

func runRuns(cmd *cobra.Command, limit int) error {
	c := NewCommandContext(cmd)
	r := c.Renderer

	store, err := c.OpenStore()
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	runs, err := store.ListRuns(cmd.Context(), limit)
	if err != nil {
		return err
	}

	if r.EffectiveMode() == output.ModeJSON {
		out := make([]api.RunSummary, 0, len(runs))
		for _, run := range runs {
			out = append(out, run.Summary())
		}
		return r.JSON(out)
	}

	if len(runs) == 0 {
		r.Muted("No runs yet")
		return nil
	}

	styles := r.Styles()
	rows := make([][]string, 0, len(runs))
	for _, run := range runs {
		status := string(run.Status)
		if r.EffectiveMode() == output.ModeText {
			status = styles.StatusStyle(status).Render(status)
		}
		rows = append(rows, []string{
			shortID(run.ID),
			run.ProjectPath,
			status,
			fmt.Sprintf("%d", run.GIFCount),
			output.FormatAgo(run.StartedAt),
			output.FormatDuration(run.Duration()),
			run.Error,
		})
	}
	r.Table([]string{"Run", "Project", "Status", "GIFs", "Started", "Took", "Error"}, rows)
	return nil
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
