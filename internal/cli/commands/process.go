package commands

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/sidewinder5675/tm-photo-tools/internal/burst"
	"github.com/sidewinder5675/tm-photo-tools/internal/cli/output"
	"github.com/sidewinder5675/tm-photo-tools/internal/fsutil"
	"github.com/sidewinder5675/tm-photo-tools/internal/state"
)

// ProcessOutput is the JSON form of a finished process run.
type ProcessOutput struct {
	RunID      string   `json:"runId,omitempty"`
	Project    string   `json:"project"`
	Frames     int      `json:"frames"`
	Sequences  int      `json:"sequences"`
	GIFs       []string `json:"gifs"`
	DurationMS int64    `json:"durationMs"`
}

// NewProcessCommand creates the process command.
func NewProcessCommand() *cobra.Command {
	var rawsDir string

	cmd := &cobra.Command{
		Use:   "process <project-path>",
		Short: "Create GIFs for a project without a server",
		Long: `Scan the project's RAWs folder, group frames shot less than a second apart
into bursts, and write one GIF per burst to GIFs/FINISHED_GIFs.

A burst needs at least 20 frames, or 10 when it is the last one. Capture
times and previews are read with exiftool.`,
		Example: `  tmphoto process "$HOME/Pictures/2024-05-01 Trip"
  tmphoto process . --raws /Volumes/EOS/DCIM`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runProcess(cmd, args[0], rawsDir)
		},
	}

	cmd.Flags().StringVar(&rawsDir, "raws", "", "Folder with the raw frames (default: <project>/RAWs)")

	return cmd
}

func runProcess(cmd *cobra.Command, projectPath, rawsDir string) error {
	c := NewCommandContext(cmd)
	r := c.Renderer

	projectPath, err := filepath.Abs(fsutil.ExpandHome(projectPath))
	if err != nil {
		return err
	}
	if rawsDir == "" {
		rawsDir = filepath.Join(projectPath, burst.RawsDir)
	}

	store, err := c.OpenStore()
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	ctx := cmd.Context()
	run, err := store.CreateRun(ctx, projectPath)
	if err != nil {
		return err
	}

	proc := c.NewProcessor(r.NewProgress())
	report, procErr := proc.Process(ctx, projectPath, rawsDir)

	status, errMsg := state.RunStatusCompleted, ""
	if procErr != nil {
		status, errMsg = state.RunStatusFailed, procErr.Error()
	}
	if err := store.CompleteRun(ctx, run.ID, status, len(report.GIFs), errMsg); err != nil {
		c.Logger.Warn("failed to record run", "run", run.ID, "error", err)
	}
	if procErr != nil {
		return procErr
	}

	switch r.EffectiveMode() {
	case output.ModeJSON:
		return r.JSON(ProcessOutput{
			RunID:      run.ID,
			Project:    projectPath,
			Frames:     report.Frames,
			Sequences:  len(report.Sequences),
			GIFs:       nonNil(report.GIFs),
			DurationMS: report.Duration.Milliseconds(),
		})
	case output.ModeMarkdown:
		r.Println(output.FormatHeader(1, "GIF creation"))
		r.Println("")
		r.Println(output.FormatKeyValue("Project", projectPath))
		r.Println(output.FormatKeyValue("Frames", output.FormatCount(report.Frames)))
		r.Println(output.FormatKeyValue("GIFs", fmt.Sprintf("%d", len(report.GIFs))))
		r.Println(output.FormatKeyValue("Duration", output.FormatDuration(report.Duration)))
		for i, gif := range report.GIFs {
			r.Printf("%d. %s (%d frames)\n", i+1, gif, len(report.Sequences[i].Frames))
		}
	default:
		r.Success(fmt.Sprintf("Created %d GIFs from %s frames in %s",
			len(report.GIFs), output.FormatCount(report.Frames), output.FormatDuration(report.Duration)))
		for i, gif := range report.GIFs {
			r.StatusLine(filepath.Base(gif), "success", fmt.Sprintf("%d frames", len(report.Sequences[i].Frames)))
		}
	}
	return nil
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
