// Package catalog captures the live metadata of a database once per run.
package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/leapstack-labs/leapschema/pkg/core"
)

// Snapshot is an immutable copy of the tables, columns and primary keys of
// one schema. Every lookup during a run is served from it, so validation
// and resolution see one consistent state.
type Snapshot struct {
	tables      []string
	columns     map[string][]core.ColumnInfo
	primaryKeys map[string][]string
}

// TableMetadata is the metadata of one table, used to build snapshots
// without a database.
type TableMetadata struct {
	Columns     []core.ColumnInfo
	PrimaryKeys []string
}

// New builds a snapshot from already known metadata.
func New(tables map[string]TableMetadata) *Snapshot {
	s := &Snapshot{
		columns:     make(map[string][]core.ColumnInfo, len(tables)),
		primaryKeys: make(map[string][]string, len(tables)),
	}
	for name, md := range tables {
		s.tables = append(s.tables, name)
		s.columns[name] = append([]core.ColumnInfo(nil), md.Columns...)
		s.primaryKeys[name] = append([]string(nil), md.PrimaryKeys...)
	}
	sort.Strings(s.tables)
	return s
}

// Capture queries the table list and then the columns and primary keys of
// every table, each exactly once. Any query failure aborts the capture.
func Capture(ctx context.Context, src core.MetadataSource, logger *slog.Logger) (*Snapshot, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	tables, err := src.Tables(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to capture tables: %w", err)
	}

	md := make(map[string]TableMetadata, len(tables))
	for _, table := range tables {
		cols, err := src.Columns(ctx, table)
		if err != nil {
			return nil, fmt.Errorf("failed to capture columns of %s: %w", table, err)
		}
		pks, err := src.PrimaryKeys(ctx, table)
		if err != nil {
			return nil, fmt.Errorf("failed to capture primary keys of %s: %w", table, err)
		}
		md[table] = TableMetadata{Columns: cols, PrimaryKeys: pks}
		logger.Debug("captured table", slog.String("table", table), slog.Int("columns", len(cols)))
	}

	return New(md), nil
}

// Tables returns the table names, sorted.
func (s *Snapshot) Tables() []string {
	return append([]string(nil), s.tables...)
}

// HasTable reports whether the table exists.
func (s *Snapshot) HasTable(name string) bool {
	_, ok := s.columns[name]
	return ok
}

// Columns returns the columns of a table in ordinal order, or nil for an
// unknown table.
func (s *Snapshot) Columns(table string) []core.ColumnInfo {
	return append([]core.ColumnInfo(nil), s.columns[table]...)
}

// PrimaryKeys returns the primary key column names of a table in key order.
func (s *Snapshot) PrimaryKeys(table string) []string {
	return append([]string(nil), s.primaryKeys[table]...)
}
