package engine

// run.go - one validation or resolution pass over a mapping document

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/leapstack-labs/leapschema/internal/catalog"
	"github.com/leapstack-labs/leapschema/internal/mapping"
	"github.com/leapstack-labs/leapschema/internal/validation"
	"github.com/leapstack-labs/leapschema/pkg/core"
)

// Run is the outcome of one pass.
type Run struct {
	ID           string
	DocumentPath string
	StartedAt    time.Time
	CompletedAt  time.Time
	Report       *validation.Report
	// Tables is set by Resolve after a clean validation.
	Tables []core.Table
	// Snapshot is the metadata the run validated against.
	Snapshot *catalog.Snapshot
}

// Duration returns how long the run took.
func (r *Run) Duration() time.Duration {
	return r.CompletedAt.Sub(r.StartedAt)
}

// ValidationFailedError is returned by Resolve when the document has
// discrepancies. The run carrying the report is returned alongside it.
type ValidationFailedError struct {
	Count int
}

func (e *ValidationFailedError) Error() string {
	return fmt.Sprintf("mapping document has %d discrepancies", e.Count)
}

// Validate loads the document at path, captures one metadata snapshot and
// the active components, and validates. Discrepancies are in the run's
// report; an error means the run could not be carried out.
func (e *Engine) Validate(ctx context.Context, path string) (*Run, error) {
	run := &Run{ID: uuid.NewString(), DocumentPath: path, StartedAt: time.Now()}
	logger := e.logger.With(slog.String("run_id", run.ID))

	logger.Info("starting validation", "document", path)

	src, err := mapping.Load(path)
	if err != nil {
		return nil, err
	}

	snap, err := e.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	run.Snapshot = snap

	active, err := e.components.ActiveNames(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read active components: %w", err)
	}

	report, err := e.validator.Validate(src, snap, active)
	if err != nil {
		return nil, err
	}
	run.Report = report
	run.CompletedAt = time.Now()

	logger.Info("validation finished",
		"discrepancies", len(report.Discrepancies),
		"structural", report.Structural,
		"duration", run.Duration())
	return run, nil
}

// Resolve validates the document and, when it is clean, resolves it into
// the table model. A document with discrepancies yields the run together
// with a *ValidationFailedError. An unmapped datatype yields a
// *core.UnknownDatatypeError and no tables.
func (e *Engine) Resolve(ctx context.Context, path string) (*Run, error) {
	run, err := e.Validate(ctx, path)
	if err != nil {
		return nil, err
	}
	logger := e.logger.With(slog.String("run_id", run.ID))

	if !run.Report.OK() {
		return run, &ValidationFailedError{Count: len(run.Report.Discrepancies)}
	}

	tables, err := e.loader.Resolve(run.Report.Document, run.Report.Globals, run.Snapshot)
	if err != nil {
		logger.Error("resolution failed", "error", err)
		return run, err
	}
	run.Tables = tables
	run.CompletedAt = time.Now()

	logger.Info("resolution finished", "tables", len(tables), "duration", run.Duration())
	return run, nil
}
