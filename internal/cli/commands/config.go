package commands

import (
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/sidewinder5675/tm-photo-tools/internal/cli/config"
	"github.com/sidewinder5675/tm-photo-tools/internal/cli/output"
)

// NewConfigCommand creates the config command group.
func NewConfigCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect configuration",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration as YAML",
		Long: `Print the configuration after merging defaults, the config file,
TMPHOTO_ environment variables and flags. Secrets are masked.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runConfigShow(cmd)
		},
	})

	return cmd
}

func runConfigShow(cmd *cobra.Command) error {
	c := NewCommandContext(cmd)
	r := c.Renderer

	shown := *c.Cfg
	if shown.Server.SessionSecret != "" {
		shown.Server.SessionSecret = "********"
	}

	if r.EffectiveMode() == output.ModeJSON {
		return r.JSON(map[string]any{
			"config_file": config.GetConfigFileUsed(),
			"config":      shown,
		})
	}

	if file := config.GetConfigFileUsed(); file != "" {
		r.Printf("# config file: %s\n", file)
	} else {
		r.Println("# config file: none (defaults)")
	}

	enc := yaml.NewEncoder(r.Writer())
	enc.SetIndent(2)
	if err := enc.Encode(shown); err != nil {
		return err
	}
	return enc.Close()
}
