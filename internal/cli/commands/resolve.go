package commands

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/leapschema/internal/cli/output"
	"github.com/leapstack-labs/leapschema/internal/engine"
	"github.com/leapstack-labs/leapschema/pkg/core"
)

// NewResolveCommand creates the resolve command.
func NewResolveCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "resolve [document]",
		Short: "Resolve a mapping document into the table model",
		Long: `Validate a mapping document and, when it is clean, print the resolved
tables: their columns with canonical datatypes, nullability, lengths and
primary keys, and the configured indexes.

Discrepancies are printed as by 'leapschema validate' and nothing is
resolved.`,
		Example: `  # Show the resolved model
  leapschema resolve

  # Emit the model as YAML for another tool
  leapschema resolve db/mapping.yml -o yaml`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runResolve(cmd, args)
		},
	}
	return cmd
}

// ResolveOutput is the structured output of the resolve command.
type ResolveOutput struct {
	Document string       `json:"document" yaml:"document"`
	RunID    string       `json:"run_id" yaml:"run_id"`
	Tables   []core.Table `json:"tables" yaml:"tables"`
}

func runResolve(cmd *cobra.Command, args []string) error {
	cmdCtx, cleanup, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	path, err := documentPath(cmdCtx.Cfg, args)
	if err != nil {
		return err
	}

	r := cmdCtx.Renderer
	run, err := cmdCtx.Engine.Resolve(cmd.Context(), path)
	recordRun(cmd.Context(), cmdCtx, "resolve", path, run, err)
	var failed *engine.ValidationFailedError
	var unknown *core.UnknownDatatypeError
	switch {
	case errors.As(err, &failed):
		if rerr := renderReport(r, run); rerr != nil {
			return rerr
		}
		return err
	case errors.As(err, &unknown):
		return fmt.Errorf("internal error: %w", err)
	case err != nil:
		return err
	}

	return renderTables(r, ResolveOutput{Document: run.DocumentPath, RunID: run.ID, Tables: nonNil(run.Tables)})
}

func renderTables(r *output.Renderer, out ResolveOutput) error {
	if wrote, err := r.Structured(out); wrote || err != nil {
		return err
	}

	markdown := r.EffectiveMode() == output.ModeMarkdown
	r.Header(1, fmt.Sprintf("Tables (%d total)", len(out.Tables)))

	for _, t := range out.Tables {
		title := t.Name
		if t.SourceName != t.Name {
			title += " (copy of " + t.SourceName + ")"
		}
		r.Println("")
		r.Header(2, title)

		rows := make([][]string, len(t.Columns))
		for i, c := range t.Columns {
			rows[i] = []string{c.Name, string(c.Datatype), yesNo(c.Nullable), maxLength(c.MaxLength), yesNo(c.IsPrimaryKey)}
		}
		r.Table([]string{"Column", "Datatype", "Nullable", "Max length", "Primary key"}, rows)

		for _, idx := range t.Indexes {
			line := fmt.Sprintf("index %s on (%s)", idx.Name, strings.Join(idx.ColumnNames, ", "))
			if idx.Unique {
				line = "unique " + line
			}
			if idx.Condition != "" {
				line += " where " + idx.Condition
			}
			if markdown {
				r.Println(output.FormatKeyValue("Index", line))
			} else {
				r.Muted("   " + line)
			}
		}
	}
	return nil
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func maxLength(n *int) string {
	if n == nil {
		return ""
	}
	return strconv.Itoa(*n)
}
