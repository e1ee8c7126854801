// Package duckdb provides a DuckDB metadata adapter for LeapSchema.
package duckdb

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"

	"github.com/leapstack-labs/leapschema/pkg/adapter"
	"github.com/leapstack-labs/leapschema/pkg/core"

	_ "github.com/marcboeker/go-duckdb" // duckdb driver
)

// DefaultSchema is inspected when the target does not name a schema.
const DefaultSchema = "main"

// Adapter implements the adapter.Adapter interface for DuckDB.
type Adapter struct {
	adapter.BaseSQLAdapter
}

// New creates a new DuckDB adapter instance.
// If logger is nil, a discard logger is used.
func New(logger *slog.Logger) *Adapter {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Adapter{
		BaseSQLAdapter: adapter.BaseSQLAdapter{Logger: logger},
	}
}

// DefaultSchema returns the schema used when none is configured.
func (a *Adapter) DefaultSchema() string {
	return DefaultSchema
}

// Connect establishes a connection to DuckDB.
// Use ":memory:" as the path for an in-memory database.
func (a *Adapter) Connect(ctx context.Context, cfg adapter.Config) error {
	dsn := buildDSN(cfg)

	a.Logger.Debug("connecting to duckdb", slog.String("dsn", dsn))

	db, err := sql.Open("duckdb", dsn)
	if err != nil {
		return fmt.Errorf("failed to open duckdb connection: %w", err)
	}

	// Test the connection
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to ping duckdb: %w", err)
	}

	a.DB = db
	a.Cfg = cfg

	return nil
}

// buildDSN appends the access_mode option to file databases so that
// inspection can run against a database another process holds open.
func buildDSN(cfg adapter.Config) string {
	path := cfg.Path
	if path == "" || path == ":memory:" {
		return ""
	}
	if mode, ok := cfg.Options["access_mode"]; ok {
		return path + "?access_mode=" + mode
	}
	return path
}

// Tables lists the base tables of the configured schema.
func (a *Adapter) Tables(ctx context.Context) ([]string, error) {
	return a.TablesCommon(ctx, a.SchemaOr(DefaultSchema), adapter.QuestionPlaceholder)
}

// Columns returns the columns of a table in ordinal order.
func (a *Adapter) Columns(ctx context.Context, table string) ([]core.ColumnInfo, error) {
	return a.ColumnsCommon(ctx, a.SchemaOr(DefaultSchema), table, adapter.QuestionPlaceholder, classifyType)
}

// PrimaryKeys returns the primary key columns of a table in key order.
func (a *Adapter) PrimaryKeys(ctx context.Context, table string) ([]string, error) {
	query := `
		SELECT unnest(constraint_column_names)
		FROM duckdb_constraints()
		WHERE schema_name = ? AND table_name = ? AND constraint_type = 'PRIMARY KEY'
	`
	keys, err := a.QueryStrings(ctx, query, a.SchemaOr(DefaultSchema), table)
	if err != nil {
		return nil, fmt.Errorf("failed to query primary keys of %s: %w", table, err)
	}
	return keys, nil
}

// classifyType maps a DuckDB logical type name onto a native type.
func classifyType(raw string) core.NativeType {
	t := strings.ToUpper(strings.TrimSpace(raw))
	switch {
	case strings.HasPrefix(t, "DECIMAL"), strings.HasPrefix(t, "NUMERIC"):
		return core.NativeNumeric
	case strings.HasPrefix(t, "ENUM"):
		return core.NativeEnum
	case strings.HasPrefix(t, "TIMESTAMP"):
		return core.NativeDatetime
	}

	switch t {
	case "TINYINT", "SMALLINT", "INTEGER", "BIGINT", "HUGEINT",
		"UTINYINT", "USMALLINT", "UINTEGER", "UBIGINT":
		return core.NativeInteger
	case "VARCHAR":
		return core.NativeString
	case "BOOLEAN":
		return core.NativeBoolean
	case "DATE":
		return core.NativeDate
	case "FLOAT", "REAL", "DOUBLE":
		return core.NativeFloat
	case "BLOB":
		return core.NativeBinary
	case "UUID":
		return core.NativeUUID
	case "JSON":
		return core.NativeJSON
	default:
		return core.NativeType(strings.ToLower(t))
	}
}

// Ensure Adapter implements adapter.Adapter interface
var _ adapter.Adapter = (*Adapter)(nil)
