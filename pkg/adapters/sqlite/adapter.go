// Package sqlite provides a SQLite metadata adapter for LeapSchema.
//
// SQLite has no information_schema, so metadata is read from sqlite_master
// and the table_info pragma instead of the shared BaseSQLAdapter queries.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"regexp"
	"sort"
	"strconv"
	"strings"

	_ "modernc.org/sqlite" // pure Go sqlite driver

	"github.com/leapstack-labs/leapschema/pkg/adapter"
	"github.com/leapstack-labs/leapschema/pkg/core"
)

// DefaultSchema is the name SQLite gives the primary database.
const DefaultSchema = "main"

var lengthPattern = regexp.MustCompile(`\(\s*(\d+)\s*\)`)

// Adapter implements the adapter.Adapter interface for SQLite.
type Adapter struct {
	adapter.BaseSQLAdapter
}

// New creates a new SQLite adapter instance.
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

// Connect opens the database file at cfg.Path.
func (a *Adapter) Connect(ctx context.Context, cfg adapter.Config) error {
	path := cfg.Path
	if path == "" {
		path = ":memory:"
	}

	a.Logger.Debug("connecting to sqlite", slog.String("path", path))

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return fmt.Errorf("failed to open sqlite connection: %w", err)
	}

	// Metadata reads are sequential; one connection keeps :memory: coherent.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to ping sqlite: %w", err)
	}

	a.DB = db
	a.Cfg = cfg
	return nil
}

// Tables lists user tables, skipping SQLite's internal sqlite_ tables.
func (a *Adapter) Tables(ctx context.Context) ([]string, error) {
	query := `
		SELECT name
		FROM sqlite_master
		WHERE type = 'table' AND name NOT LIKE 'sqlite_%'
		ORDER BY name
	`
	tables, err := a.QueryStrings(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list tables: %w", err)
	}
	return tables, nil
}

type tableInfo struct {
	column core.ColumnInfo
	pk     int
}

func (a *Adapter) tableInfo(ctx context.Context, table string) ([]tableInfo, error) {
	if a.DB == nil {
		return nil, adapter.ErrNotConnected
	}

	rows, err := a.DB.QueryContext(ctx,
		`SELECT cid, name, type, "notnull", dflt_value, pk FROM pragma_table_info(?) ORDER BY cid`, table)
	if err != nil {
		return nil, fmt.Errorf("failed to query column metadata: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var infos []tableInfo
	for rows.Next() {
		var (
			info     tableInfo
			cid      int
			notNull  int
			defaultV sql.NullString
		)
		if err := rows.Scan(&cid, &info.column.Name, &info.column.RawType, &notNull, &defaultV, &info.pk); err != nil {
			return nil, fmt.Errorf("failed to scan column metadata: %w", err)
		}
		info.column.Position = cid + 1
		info.column.Nullable = notNull == 0
		info.column.HasDefault = defaultV.Valid
		info.column.Limit = parseLimit(info.column.RawType)
		info.column.NativeType = classifyType(info.column.RawType)
		infos = append(infos, info)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating column metadata: %w", err)
	}
	if len(infos) == 0 {
		return nil, fmt.Errorf("table %s not found", table)
	}
	return infos, nil
}

// Columns returns the columns of a table in declaration order.
func (a *Adapter) Columns(ctx context.Context, table string) ([]core.ColumnInfo, error) {
	infos, err := a.tableInfo(ctx, table)
	if err != nil {
		return nil, err
	}
	cols := make([]core.ColumnInfo, len(infos))
	for i, info := range infos {
		cols[i] = info.column
	}
	return cols, nil
}

// PrimaryKeys returns the primary key columns of a table in key order.
func (a *Adapter) PrimaryKeys(ctx context.Context, table string) ([]string, error) {
	infos, err := a.tableInfo(ctx, table)
	if err != nil {
		return nil, fmt.Errorf("failed to query primary keys of %s: %w", table, err)
	}

	var pks []tableInfo
	for _, info := range infos {
		if info.pk > 0 {
			pks = append(pks, info)
		}
	}
	sort.Slice(pks, func(i, j int) bool { return pks[i].pk < pks[j].pk })

	keys := make([]string, len(pks))
	for i, info := range pks {
		keys[i] = info.column.Name
	}
	return keys, nil
}

// parseLimit extracts n from declarations like VARCHAR(n).
func parseLimit(raw string) *int {
	m := lengthPattern.FindStringSubmatch(raw)
	if m == nil || strings.Contains(raw, ",") {
		return nil
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return nil
	}
	return &n
}

// classifyType maps a declared column type onto a native type. Well known
// declarations are matched first; anything else falls back to SQLite's
// column affinity rules.
func classifyType(raw string) core.NativeType {
	t := strings.ToUpper(strings.TrimSpace(raw))
	if i := strings.IndexByte(t, '('); i >= 0 {
		t = strings.TrimSpace(t[:i])
	}

	switch t {
	case "BOOLEAN", "BOOL":
		return core.NativeBoolean
	case "DATE":
		return core.NativeDate
	case "DATETIME", "TIMESTAMP":
		return core.NativeDatetime
	case "JSON":
		return core.NativeJSON
	case "UUID":
		return core.NativeUUID
	case "DECIMAL", "NUMERIC":
		return core.NativeNumeric
	case "VARCHAR", "CHARACTER VARYING", "NVARCHAR", "CHAR", "NCHAR":
		return core.NativeString
	}

	switch {
	case strings.Contains(t, "INT"):
		return core.NativeInteger
	case strings.Contains(t, "CHAR"), strings.Contains(t, "CLOB"), strings.Contains(t, "TEXT"):
		return core.NativeText
	case t == "", strings.Contains(t, "BLOB"):
		return core.NativeBinary
	case strings.Contains(t, "REAL"), strings.Contains(t, "FLOA"), strings.Contains(t, "DOUB"):
		return core.NativeFloat
	default:
		return core.NativeType(strings.ToLower(t))
	}
}

// Ensure Adapter implements adapter.Adapter interface
var _ adapter.Adapter = (*Adapter)(nil)
