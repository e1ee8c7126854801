package commands

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/leapschema/internal/cli/output"
	"github.com/leapstack-labs/leapschema/internal/engine"
	"github.com/leapstack-labs/leapschema/internal/state"
)

const defaultHistoryLimit = 20

// HistoryOptions holds options for the history command.
type HistoryOptions struct {
	Limit int
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand() *cobra.Command {
	opts := &HistoryOptions{}
	cmd := &cobra.Command{
		Use:   "history [run-id]",
		Short: "Show recorded validation runs",
		Long: `Show the validate and resolve runs recorded in the project's state
database, newest first. With a run id, show that run's discrepancies.

Runs are recorded at state_path (default .leapschema/state.db); set
state_path to "" to stop recording.`,
		Example: `  # Recent runs
  leapschema history

  # One run in detail
  leapschema history 6f1c2a4e-...`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistory(cmd, args, opts)
		},
	}

	cmd.Flags().IntVarP(&opts.Limit, "limit", "n", defaultHistoryLimit, "Maximum number of runs to show")

	return cmd
}

// HistoryOutput is the structured output of the history command.
type HistoryOutput struct {
	Runs []*state.Run `json:"runs" yaml:"runs"`
}

func runHistory(cmd *cobra.Command, args []string, opts *HistoryOptions) error {
	cmdCtx := NewCommandContextWithoutEngine(cmd)
	r := cmdCtx.Renderer

	if cmdCtx.Cfg.StatePath == "" {
		return fmt.Errorf("run history is disabled\nHint: set state_path in leapschema.yaml")
	}

	store := state.NewSQLiteStore(cmdCtx.Logger)
	if err := store.Open(cmdCtx.Cfg.StatePath); err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	ctx := cmd.Context()
	if len(args) == 1 {
		run, err := store.GetRun(ctx, args[0])
		if err != nil {
			return err
		}
		return renderRun(r, run)
	}

	runs, err := store.ListRuns(ctx, opts.Limit)
	if err != nil {
		return err
	}
	return renderHistory(r, HistoryOutput{Runs: nonNil(runs)})
}

func renderHistory(r *output.Renderer, out HistoryOutput) error {
	if wrote, err := r.Structured(out); wrote || err != nil {
		return err
	}

	r.Header(1, fmt.Sprintf("Run history (%d runs)", len(out.Runs)))
	if len(out.Runs) == 0 {
		r.Muted("No runs recorded yet.")
		return nil
	}

	rows := make([][]string, len(out.Runs))
	for i, run := range out.Runs {
		rows[i] = []string{
			run.StartedAt.Local().Format(time.DateTime),
			run.Command,
			filepath.Base(run.Document),
			string(run.Status),
			fmt.Sprintf("%d", run.DiscrepancyCount),
			run.ID,
		}
	}
	r.Table([]string{"Started", "Command", "Document", "Status", "Discrepancies", "Run"}, rows)
	return nil
}

func renderRun(r *output.Renderer, run *state.Run) error {
	if wrote, err := r.Structured(run); wrote || err != nil {
		return err
	}

	r.Header(1, "Run "+run.ID)
	r.Println(output.FormatKeyValue("Command", run.Command))
	r.Println(output.FormatKeyValue("Document", run.Document))
	if run.Environment != "" {
		r.Println(output.FormatKeyValue("Environment", run.Environment))
	}
	r.Println(output.FormatKeyValue("Status", string(run.Status)))
	r.Println(output.FormatKeyValue("Started", run.StartedAt.Local().Format(time.DateTime)))
	r.Println(output.FormatKeyValue("Duration", run.CompletedAt.Sub(run.StartedAt).Round(time.Millisecond).String()))
	if run.Error != "" {
		r.Println(output.FormatKeyValue("Error", run.Error))
	}

	if len(run.Discrepancies) > 0 {
		r.Println("")
		r.Header(2, "Discrepancies")
		for _, d := range run.Discrepancies {
			r.Println("- " + d.Message)
		}
	}
	return nil
}

// recordRun stores the outcome of a validate or resolve pass in the state
// database. Failing to record is logged and never fails the command.
func recordRun(ctx context.Context, cmdCtx *CommandContext, command, path string, run *engine.Run, runErr error) {
	if cmdCtx.Cfg.StatePath == "" {
		return
	}

	rec := &state.Run{
		Command:     command,
		Document:    path,
		Environment: cmdCtx.Cfg.Environment,
		Status:      state.RunStatusPassed,
		StartedAt:   time.Now(),
	}
	if run != nil {
		rec.ID = run.ID
		rec.StartedAt = run.StartedAt
		rec.CompletedAt = run.CompletedAt
		if run.Report != nil {
			for _, d := range run.Report.Discrepancies {
				rec.Discrepancies = append(rec.Discrepancies, state.RunDiscrepancy{
					Code:    string(d.Code),
					Table:   d.Table,
					Message: d.Message(),
				})
			}
			if !run.Report.OK() {
				rec.Status = state.RunStatusFailed
			}
		}
	}
	var failed *engine.ValidationFailedError
	if runErr != nil && !errors.As(runErr, &failed) {
		rec.Status = state.RunStatusErrored
		rec.Error = runErr.Error()
	}

	store := state.NewSQLiteStore(cmdCtx.Logger)
	if err := store.Open(cmdCtx.Cfg.StatePath); err != nil {
		cmdCtx.Logger.Warn("failed to open state store", "path", cmdCtx.Cfg.StatePath, "error", err)
		return
	}
	defer func() { _ = store.Close() }()

	if err := store.RecordRun(ctx, rec); err != nil {
		cmdCtx.Logger.Warn("failed to record run", "error", err)
	}
}
