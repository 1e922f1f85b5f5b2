package commands

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/sidewinder5675/tm-photo-tools/internal/cli/output"
	"github.com/sidewinder5675/tm-photo-tools/internal/project"
	"github.com/sidewinder5675/tm-photo-tools/pkg/api"
)

// ProjectNewOptions holds options for the project new command.
type ProjectNewOptions struct {
	Date     string
	Name     string
	CardPath string
	NoImport bool
}

// NewProjectCommand creates the project command group.
func NewProjectCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "project",
		Short: "Create and list projects",
		Long: `Projects are folders named "<YYYY-MM-DD> <name>" inside the projects
folder (projects_dir, default ~/Pictures).`,
	}

	cmd.AddCommand(newProjectNewCommand())
	cmd.AddCommand(newProjectListCommand())

	return cmd
}

func newProjectNewCommand() *cobra.Command {
	opts := &ProjectNewOptions{}

	cmd := &cobra.Command{
		Use:   "new",
		Short: "Create a project and import its images",
		Long: `Create "<date> <name>" in the projects folder. When a memory card path is
configured (sd_card_path or --sd-card), its images are copied into
RAWs/Card 1 and renamed "<project> | <file>".`,
		Example: `  tmphoto project new --name Trip
  tmphoto project new --date 2024-05-01 --name Trip --sd-card /Volumes/EOS_DIGITAL/DCIM/100CANON`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runProjectNew(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.Date, "date", "", "Project date, YYYY-MM-DD (default: today)")
	cmd.Flags().StringVar(&opts.Name, "name", "", "Project name")
	cmd.Flags().StringVar(&opts.CardPath, "sd-card", "", "Memory card folder to import from (default: sd_card_path)")
	cmd.Flags().BoolVar(&opts.NoImport, "no-import", false, "Skip the memory card import")

	return cmd
}

func runProjectNew(cmd *cobra.Command, opts *ProjectNewOptions) error {
	c := NewCommandContext(cmd)
	r := c.Renderer

	date := opts.Date
	if date == "" {
		date = time.Now().Format(project.DateLayout)
	}
	card := opts.CardPath
	if card == "" {
		card = c.Cfg.SDCardPath
	}

	dir, err := c.Workspace().Create(date, opts.Name)
	if err != nil {
		return err
	}
	c.Logger.Info("project created", "path", dir)

	var imported project.ImportResult
	if card != "" && !opts.NoImport {
		imported, err = project.ImportImages(cmd.Context(), card, dir, filepath.Base(dir), r.NewProgress())
		if err != nil {
			return fmt.Errorf("project created at %s but the import failed: %w", dir, err)
		}
	}

	if r.EffectiveMode() == output.ModeJSON {
		return r.JSON(map[string]any{
			"path":     dir,
			"imported": imported.Files,
			"bytes":    imported.Bytes,
		})
	}

	r.Success("Created " + dir)
	if imported.Files > 0 {
		r.KeyValue("Imported", fmt.Sprintf("%s images (%s) into %s",
			output.FormatCount(imported.Files), output.FormatBytes(imported.Bytes), imported.Dest))
	}
	return nil
}

func newProjectListCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List projects by date",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runProjectList(cmd)
		},
	}
}

func runProjectList(cmd *cobra.Command) error {
	c := NewCommandContext(cmd)
	r := c.Renderer

	projects, err := c.Workspace().List()
	if err != nil {
		return err
	}

	if r.EffectiveMode() == output.ModeJSON {
		out := make([]api.ProjectSummary, 0, len(projects))
		for _, p := range projects {
			out = append(out, p.Summary())
		}
		return r.JSON(out)
	}

	if len(projects) == 0 {
		r.Muted(fmt.Sprintf("No projects in %s", c.Cfg.ProjectsDir))
		return nil
	}

	if r.EffectiveMode() == output.ModeText {
		r.Header(1, fmt.Sprintf("Projects (%d total)", len(projects)))
	} else {
		r.Println(output.FormatHeader(1, fmt.Sprintf("Projects (%d total)", len(projects))))
		r.Println("")
	}

	rows := make([][]string, 0, len(projects))
	for _, p := range projects {
		gifs := "no"
		if p.HasGIFs() {
			gifs = "yes"
		}
		rows = append(rows, []string{p.Date.Format(project.DateLayout), p.Name, gifs, p.Path})
	}
	r.Table([]string{"Date", "Name", "GIFs", "Path"}, rows)
	return nil
}
