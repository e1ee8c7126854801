// Package resolver turns a validated mapping document into the normalized
// table, column and index model.
package resolver

import (
	"errors"
	"log/slog"

	"github.com/leapstack-labs/leapschema/internal/mapping"
	"github.com/leapstack-labs/leapschema/pkg/core"
)

// Metadata is the live metadata the loader reads columns and keys from.
type Metadata interface {
	HasTable(name string) bool
	Columns(table string) []core.ColumnInfo
	PrimaryKeys(table string) []string
}

// Loader resolves documents. It must only be given documents that passed
// validation without discrepancies.
type Loader struct {
	logger *slog.Logger
}

// NewLoader creates a Loader. If logger is nil, a discard logger is used.
func NewLoader(logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Loader{logger: logger}
}

// Resolve builds one Table per configured, non-excluded table, sorted by
// output name. Copy aliases read their source's metadata and directives.
//
// A datatype without a canonical mapping aborts resolution with a
// *core.UnknownDatatypeError and no partial model.
func (l *Loader) Resolve(doc *mapping.Document, g *mapping.Globals, meta Metadata) ([]core.Table, error) {
	var tables []core.Table

	for _, name := range doc.SortedTableNames() {
		cfg := doc.Schema.Tables[name]

		source := name
		directives := cfg.Columns
		indexes := cfg.Indexes
		if cfg.IsCopy() {
			source = cfg.CopyOf
			directives = nil
			indexes = nil
			if src, ok := doc.Schema.Tables[source]; ok && !src.IsCopy() {
				directives = src.Columns
			}
		} else if g.IsTableExcluded(name) {
			continue
		}

		if !meta.HasTable(source) {
			l.logger.Warn("skipping table missing from database", slog.String("table", name), slog.String("source", source))
			continue
		}

		table, err := l.table(name, source, directives, indexes, g, meta)
		if err != nil {
			return nil, err
		}
		tables = append(tables, table)
	}

	l.logger.Debug("resolved tables", slog.Int("count", len(tables)))
	return tables, nil
}

func (l *Loader) table(name, source string, d *mapping.ColumnDirectives, specs []mapping.IndexSpec, g *mapping.Globals, meta Metadata) (core.Table, error) {
	pks := meta.PrimaryKeys(source)
	isPK := make(map[string]bool, len(pks))
	for _, pk := range pks {
		isPK[pk] = true
	}

	var columns []core.Column
	for _, info := range selectColumns(meta.Columns(source), d, g) {
		dt, err := canonical(datatypeFor(info, d, g), name, info.Name)
		if err != nil {
			return core.Table{}, err
		}

		col := core.Column{
			Name:         info.Name,
			Datatype:     dt,
			Nullable:     info.Nullable || info.HasDefault,
			IsPrimaryKey: isPK[info.Name],
		}
		// Any column landing on text keeps its live length, varchar included.
		if dt == core.DatatypeText {
			col.MaxLength = info.Limit
		}
		columns = append(columns, col)
	}

	if d != nil {
		for _, spec := range d.Add {
			col, err := addedColumn(name, spec)
			if err != nil {
				return core.Table{}, err
			}
			columns = append(columns, col)
		}
	}

	return core.Table{
		Name:            name,
		SourceName:      source,
		Columns:         columns,
		Indexes:         toIndexes(specs),
		PrimaryKeyNames: pks,
	}, nil
}

// selectColumns applies the directive and the global exclusions to the live
// columns, keeping their ordinal order. A nil directive selects everything
// that is not globally excluded.
func selectColumns(live []core.ColumnInfo, d *mapping.ColumnDirectives, g *mapping.Globals) []core.ColumnInfo {
	var keep func(string) bool
	switch {
	case d == nil:
		keep = func(string) bool { return true }
	case d.Mode == mapping.ModeExclude:
		excluded := nameSet(d.Exclude)
		keep = func(n string) bool { return !excluded[n] }
	default:
		included := nameSet(append(append([]string{}, d.Include...), d.ModifiedNames()...))
		keep = func(n string) bool { return included[n] }
	}

	var out []core.ColumnInfo
	for _, c := range live {
		if g.IsColumnExcluded(c.Name) || !keep(c.Name) {
			continue
		}
		out = append(out, c)
	}
	return out
}

// datatypeFor picks the type name of a live column: a table-level modify
// wins over a global override, which wins over the native type.
func datatypeFor(info core.ColumnInfo, d *mapping.ColumnDirectives, g *mapping.Globals) string {
	if d != nil {
		if dt, ok := d.ModifyFor(info.Name); ok {
			return dt
		}
	}
	if dt, ok := g.OverrideFor(info.Name); ok {
		return dt
	}
	return string(info.NativeType)
}

func addedColumn(table string, spec mapping.ColumnSpec) (core.Column, error) {
	dt, err := canonical(spec.Datatype, table, spec.Name)
	if err != nil {
		return core.Column{}, err
	}

	col := core.Column{Name: spec.Name, Datatype: dt, Nullable: true}
	if spec.Nullable != nil {
		col.Nullable = *spec.Nullable
	}
	if dt == core.DatatypeText {
		col.MaxLength = spec.MaxLength
	}
	return col, nil
}

func canonical(name, table, column string) (core.Datatype, error) {
	dt, err := core.Canonicalize(name)
	var unknown *core.UnknownDatatypeError
	if errors.As(err, &unknown) {
		unknown.Table = table
		unknown.Column = column
		return "", unknown
	}
	return dt, err
}

func toIndexes(specs []mapping.IndexSpec) []core.Index {
	if len(specs) == 0 {
		return nil
	}
	out := make([]core.Index, len(specs))
	for i, s := range specs {
		out[i] = core.Index{
			Name:        s.Name,
			ColumnNames: append([]string(nil), s.Columns...),
			Unique:      s.Unique,
			Condition:   s.Condition,
		}
	}
	return out
}

func nameSet(names []string) map[string]bool {
	set := make(map[string]bool, len(names))
	for _, n := range names {
		set[n] = true
	}
	return set
}
