package validation

import (
	"fmt"
	"log/slog"

	"github.com/leapstack-labs/leapschema/internal/mapping"
	"github.com/leapstack-labs/leapschema/pkg/core"
)

// Metadata is the read-only view of the live database a run validates
// against. It is captured once per run.
type Metadata interface {
	Tables() []string
	HasTable(name string) bool
	Columns(table string) []core.ColumnInfo
}

// Report is the outcome of one validation run.
type Report struct {
	Discrepancies []Discrepancy `json:"discrepancies" yaml:"discrepancies"`
	// Structural is true when the run stopped at the structural gate.
	Structural bool `json:"structural" yaml:"structural"`
	// Document and Globals are set once the structural gate passes.
	Document *mapping.Document `json:"-" yaml:"-"`
	Globals  *mapping.Globals  `json:"-" yaml:"-"`
}

// OK reports whether the run found nothing.
func (r *Report) OK() bool {
	return len(r.Discrepancies) == 0
}

// Validator runs the structural gate and then every semantic validator in
// a fixed order.
type Validator struct {
	structural    *StructuralValidator
	output        *OutputValidator
	tables        TableSetValidator
	globalColumns GlobalColumnsValidator
	columns       ColumnSetValidator
	components    ComponentValidator
	logger        *slog.Logger
}

// Option configures a Validator.
type Option func(*Validator)

// WithLogger sets the logger used for progress messages.
func WithLogger(logger *slog.Logger) Option {
	return func(v *Validator) {
		if logger != nil {
			v.logger = logger
		}
	}
}

// WithStat replaces the filesystem lookup used by the output checks.
func WithStat(stat StatFunc) Option {
	return func(v *Validator) {
		v.output = NewOutputValidator(stat)
	}
}

// New creates a Validator.
func New(opts ...Option) (*Validator, error) {
	structural, err := NewStructuralValidator()
	if err != nil {
		return nil, err
	}

	v := &Validator{
		structural: structural,
		output:     NewOutputValidator(nil),
		logger:     slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(v)
	}
	return v, nil
}

// Validate checks src against meta and the active component names.
// Discrepancies are returned in the report; an error means the run could
// not be carried out.
func (v *Validator) Validate(src *mapping.Source, meta Metadata, active []string) (*Report, error) {
	structural, err := v.structural.Check(src.Raw)
	if err != nil {
		return nil, err
	}
	if len(structural) > 0 {
		v.logger.Debug("structural check failed", slog.Int("violations", len(structural)))
		return &Report{Discrepancies: structural, Structural: true}, nil
	}

	doc, err := src.Decode()
	if err != nil {
		return nil, err
	}

	g, patternErrs := mapping.BuildGlobals(doc.Schema.Global)
	report := &Report{Document: doc, Globals: g}

	for _, pe := range patternErrs {
		report.Discrepancies = append(report.Discrepancies, Discrepancy{
			Code:   CodeInvalidNameRegex,
			Names:  []string{pe.Pattern},
			Detail: pe.Err.Error(),
		})
	}

	outputIssues, err := v.output.Check(doc.Output, src.Dir)
	if err != nil {
		return nil, fmt.Errorf("failed to check output paths: %w", err)
	}
	report.Discrepancies = append(report.Discrepancies, outputIssues...)

	report.Discrepancies = append(report.Discrepancies, v.tables.Check(doc, g, meta.Tables())...)
	report.Discrepancies = append(report.Discrepancies, v.globalColumns.Check(doc, g, meta)...)

	for _, name := range doc.SortedTableNames() {
		table := doc.Schema.Tables[name]
		if table.IsCopy() || g.IsTableExcluded(name) || !meta.HasTable(name) {
			continue
		}
		v.logger.Debug("checking columns", slog.String("table", name))
		report.Discrepancies = append(report.Discrepancies, v.columns.Check(name, table.Columns, g, meta.Columns(name))...)
	}

	report.Discrepancies = append(report.Discrepancies, v.components.Check(doc.Components, active)...)

	v.logger.Debug("validation finished", slog.Int("discrepancies", len(report.Discrepancies)))
	return report, nil
}
