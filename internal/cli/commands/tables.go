package commands

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
)

// NewTablesCommand creates the tables command.
func NewTablesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "tables",
		Short: "List the live tables of the target",
		Long: `List the base tables of the configured target schema with their column
counts and primary keys, exactly as validation sees them.`,
		Example: `  # List tables of the default target
  leapschema tables

  # List tables of the prod environment as JSON
  leapschema tables -t prod -o json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runTables(cmd)
		},
	}
}

// TableInfo is one entry of the tables command output.
type TableInfo struct {
	Name        string   `json:"name" yaml:"name"`
	Columns     int      `json:"columns" yaml:"columns"`
	PrimaryKeys []string `json:"primary_keys,omitempty" yaml:"primary_keys,omitempty"`
}

// TablesOutput is the structured output of the tables command.
type TablesOutput struct {
	Target string      `json:"target" yaml:"target"`
	Schema string      `json:"schema" yaml:"schema"`
	Tables []TableInfo `json:"tables" yaml:"tables"`
}

func runTables(cmd *cobra.Command) error {
	cmdCtx, cleanup, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	snap, err := cmdCtx.Engine.Snapshot(cmd.Context())
	if err != nil {
		return err
	}

	out := TablesOutput{
		Target: cmdCtx.Cfg.Target.Type,
		Schema: cmdCtx.Cfg.Target.Schema,
		Tables: []TableInfo{},
	}
	for _, name := range snap.Tables() {
		out.Tables = append(out.Tables, TableInfo{
			Name:        name,
			Columns:     len(snap.Columns(name)),
			PrimaryKeys: snap.PrimaryKeys(name),
		})
	}

	r := cmdCtx.Renderer
	if wrote, err := r.Structured(out); wrote || err != nil {
		return err
	}

	r.Header(1, fmt.Sprintf("Tables in %s.%s (%d total)", out.Target, out.Schema, len(out.Tables)))

	rows := make([][]string, len(out.Tables))
	for i, t := range out.Tables {
		rows[i] = []string{t.Name, strconv.Itoa(t.Columns), strings.Join(t.PrimaryKeys, ", ")}
	}
	r.Table([]string{"Table", "Columns", "Primary key"}, rows)
	return nil
}
