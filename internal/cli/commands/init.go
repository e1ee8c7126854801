package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/leapschema/internal/cli/output"
	intconfig "github.com/leapstack-labs/leapschema/internal/config"
)

// NewInitCommand creates the init command.
func NewInitCommand() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init [directory]",
		Short: "Initialize a new leapschema project",
		Long: `Initialize a new leapschema project with a configuration file and a
starter mapping document.

This creates:
  - leapschema.yaml configuration file (sqlite target by default)
  - mapping.yml with empty global rules and no tables
  - db/schema/ and models/ output directories`,
		Example: `  # Initialize in current directory
  leapschema init

  # Initialize in a new directory
  leapschema init my-project

  # Force overwrite existing files
  leapschema init --force`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) > 0 {
				dir = args[0]
			}

			r := NewCommandContextWithoutEngine(cmd).Renderer
			return runInit(r, dir, force)
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Overwrite existing files")

	return cmd
}

func runInit(r *output.Renderer, dir string, force bool) error {
	// Create directory if specified and doesn't exist
	if dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	// Check if config already exists
	configPath := filepath.Join(dir, intconfig.ConfigFileName)
	if _, err := os.Stat(configPath); err == nil && !force {
		return fmt.Errorf("%s already exists. Use --force to overwrite", intconfig.ConfigFileName)
	}

	if err := copyTemplate("minimal", dir, force); err != nil {
		return fmt.Errorf("failed to initialize project: %w", err)
	}

	// List created files
	files, _ := listTemplateFiles("minimal")
	for _, f := range files {
		r.StatusLine(true, f, "")
	}

	r.Println("")
	r.Success("leapschema project initialized!")
	r.Println("")
	r.Println("Next steps:")
	r.Println("  1. Point the target in leapschema.yaml at your database")
	r.Println("  2. Run 'leapschema tables' to see the live tables")
	r.Println("  3. Configure each table in mapping.yml")
	r.Println("  4. Run 'leapschema validate' until it reports no discrepancies")

	return nil
}
