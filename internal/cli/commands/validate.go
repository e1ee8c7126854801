package commands

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/leapstack-labs/leapschema/internal/cli/output"
	"github.com/leapstack-labs/leapschema/internal/engine"
	"github.com/leapstack-labs/leapschema/internal/validation"
)

// watchDebounce coalesces the bursts of events editors produce on save.
const watchDebounce = 200 * time.Millisecond

// ValidateOptions holds options for the validate command.
type ValidateOptions struct {
	Watch bool
}

// NewValidateCommand creates the validate command.
func NewValidateCommand() *cobra.Command {
	opts := &ValidateOptions{}
	cmd := &cobra.Command{
		Use:   "validate [document]",
		Short: "Validate a mapping document against the live database",
		Long: `Validate a mapping document against the structural schema, the live
database metadata and the active components.

Every discrepancy is reported; the command exits with status 1 when there
is at least one.

Output adapts to environment:
  - Terminal: Styled, colored output
  - Piped/Scripted: Markdown format (agent-friendly)

Use --output to override: auto, text, markdown, json, yaml`,
		Example: `  # Validate the configured document
  leapschema validate

  # Validate a specific document as JSON
  leapschema validate db/mapping.yml --output json

  # Re-validate on every save
  leapschema validate --watch`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(cmd, args, opts)
		},
	}

	cmd.Flags().BoolVarP(&opts.Watch, "watch", "w", false, "Re-run validation whenever the document changes")

	return cmd
}

// ValidateOutput is the structured output of the validate command.
type ValidateOutput struct {
	Document      string                   `json:"document" yaml:"document"`
	RunID         string                   `json:"run_id" yaml:"run_id"`
	Valid         bool                     `json:"valid" yaml:"valid"`
	Structural    bool                     `json:"structural" yaml:"structural"`
	Discrepancies []validation.Discrepancy `json:"discrepancies" yaml:"discrepancies"`
	Messages      []string                 `json:"messages" yaml:"messages"`
}

func runValidate(cmd *cobra.Command, args []string, opts *ValidateOptions) error {
	cmdCtx, cleanup, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	path, err := documentPath(cmdCtx.Cfg, args)
	if err != nil {
		return err
	}

	if opts.Watch {
		return watchDocument(cmd.Context(), cmdCtx, path)
	}

	run, err := cmdCtx.Engine.Validate(cmd.Context(), path)
	recordRun(cmd.Context(), cmdCtx, "validate", path, run, err)
	if err != nil {
		return err
	}
	if err := renderReport(cmdCtx.Renderer, run); err != nil {
		return err
	}
	if !run.Report.OK() {
		return &engine.ValidationFailedError{Count: len(run.Report.Discrepancies)}
	}
	return nil
}

// renderReport writes the report of run in the renderer's mode.
func renderReport(r *output.Renderer, run *engine.Run) error {
	report := run.Report
	if wrote, err := r.Structured(ValidateOutput{
		Document:      run.DocumentPath,
		RunID:         run.ID,
		Valid:         report.OK(),
		Structural:    report.Structural,
		Discrepancies: nonNil(report.Discrepancies),
		Messages:      validation.Messages(report.Discrepancies),
	}); wrote || err != nil {
		return err
	}

	name := filepath.Base(run.DocumentPath)
	if r.EffectiveMode() == output.ModeMarkdown {
		r.Println(output.FormatHeader(1, "Validation of "+name))
		r.Println("")
		if report.OK() {
			r.Println("No discrepancies found.")
			return nil
		}
		for _, g := range groupByCode(report.Discrepancies) {
			r.Println(output.FormatHeader(2, g.title))
			r.Println("")
			for _, d := range g.items {
				r.Println("- " + d.Message())
			}
			r.Println("")
		}
		r.Printf("%d discrepancies found.\n", len(report.Discrepancies))
		return nil
	}

	if report.OK() {
		r.Success(name + " is valid")
		return nil
	}

	styles := r.Styles()
	r.Header(1, fmt.Sprintf("%s: %d discrepancies", name, len(report.Discrepancies)))
	for _, g := range groupByCode(report.Discrepancies) {
		r.Println("")
		r.Println(styles.Bold.Render("   " + g.title))
		for _, d := range g.items {
			r.Println("   " + styles.StatusFailed.String() + " " + d.Message())
		}
	}
	r.Println("")
	r.Muted(fmt.Sprintf("run %s in %s", run.ID, run.Duration().Round(time.Millisecond)))
	return nil
}

type discrepancyGroup struct {
	title string
	items []validation.Discrepancy
}

// groupByCode groups consecutive runs of the same code, keeping report order.
func groupByCode(ds []validation.Discrepancy) []discrepancyGroup {
	titleCaser := cases.Title(language.English)

	var groups []discrepancyGroup
	for _, d := range ds {
		if n := len(groups); n > 0 && groups[n-1].items[0].Code == d.Code {
			groups[n-1].items = append(groups[n-1].items, d)
			continue
		}
		groups = append(groups, discrepancyGroup{
			title: titleCaser.String(d.Code.Label()),
			items: []validation.Discrepancy{d},
		})
	}
	return groups
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

// watchDocument validates once and again after every change of the
// document until ctx is cancelled. Failed runs are reported and watching
// continues.
func watchDocument(ctx context.Context, cmdCtx *CommandContext, path string) error {
	r := cmdCtx.Renderer
	logger := cmdCtx.Logger

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer func() { _ = watcher.Close() }()

	// Watch the directory: editors often replace the file on save.
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		return fmt.Errorf("failed to watch %s: %w", filepath.Dir(path), err)
	}

	validateOnce := func() {
		run, err := cmdCtx.Engine.Validate(ctx, path)
		recordRun(ctx, cmdCtx, "validate", path, run, err)
		if err != nil {
			r.Error(err.Error())
			return
		}
		if err := renderReport(r, run); err != nil {
			r.Error(err.Error())
		}
	}

	validateOnce()
	r.Muted("watching " + path + " (Ctrl+C to stop)")

	var debounce <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != filepath.Clean(path) {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Rename) {
				logger.Debug("document changed", "event", event.Op.String())
				debounce = time.After(watchDebounce)
			}
		case <-debounce:
			debounce = nil
			r.Println("")
			validateOnce()
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			if errors.Is(err, fsnotify.ErrEventOverflow) {
				debounce = time.After(watchDebounce)
				continue
			}
			logger.Warn("watch error", "error", err)
		}
	}
}
