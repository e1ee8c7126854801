// Package postgres provides a PostgreSQL metadata adapter for LeapSchema.
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib" // pgx database/sql driver

	"github.com/leapstack-labs/leapschema/pkg/adapter"
	"github.com/leapstack-labs/leapschema/pkg/core"
)

// DefaultSchema is inspected when the target does not name a schema.
const DefaultSchema = "public"

// Adapter implements the adapter.Adapter interface for PostgreSQL.
type Adapter struct {
	adapter.BaseSQLAdapter
}

// New creates a new PostgreSQL adapter instance.
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

// Connect establishes a connection to PostgreSQL.
func (a *Adapter) Connect(ctx context.Context, cfg adapter.Config) error {
	dsn := buildPostgresDSN(cfg)

	a.Logger.Debug("connecting to postgres", slog.String("host", cfg.Host), slog.String("database", cfg.Database))

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return fmt.Errorf("failed to open postgres connection: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to ping postgres: %w", err)
	}

	a.DB = db
	a.Cfg = cfg
	return nil
}

// buildPostgresDSN constructs a PostgreSQL connection string.
func buildPostgresDSN(cfg adapter.Config) string {
	// Build key=value format: host=localhost port=5432 user=postgres ...
	host := cfg.Host
	if host == "" {
		host = "localhost"
	}

	port := cfg.Port
	if port == 0 {
		port = 5432
	}

	sslmode := "disable"
	if mode, ok := cfg.Options["sslmode"]; ok {
		sslmode = mode
	}

	dsn := fmt.Sprintf("host=%s port=%d dbname=%s sslmode=%s",
		host, port, cfg.Database, sslmode)

	if cfg.Username != "" {
		dsn += fmt.Sprintf(" user=%s", cfg.Username)
	}
	if cfg.Password != "" {
		dsn += fmt.Sprintf(" password=%s", cfg.Password)
	}

	// Remaining options are passed through as libpq parameters
	keys := make([]string, 0, len(cfg.Options))
	for k := range cfg.Options {
		if k != "sslmode" {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	for _, k := range keys {
		dsn += fmt.Sprintf(" %s=%s", k, cfg.Options[k])
	}

	return dsn
}

// Tables lists the base tables of the configured schema.
func (a *Adapter) Tables(ctx context.Context) ([]string, error) {
	return a.TablesCommon(ctx, a.SchemaOr(DefaultSchema), adapter.DollarPlaceholder)
}

// columnsQuery reads information_schema.columns together with the kind of
// user-defined types, which data_type reports only as USER-DEFINED.
const columnsQuery = `
	SELECT
		c.column_name,
		c.data_type,
		c.udt_name,
		COALESCE(t.typtype::text, ''),
		c.is_nullable,
		c.column_default,
		c.character_maximum_length,
		c.ordinal_position
	FROM information_schema.columns c
	LEFT JOIN pg_catalog.pg_namespace n ON n.nspname = c.udt_schema
	LEFT JOIN pg_catalog.pg_type t ON t.typname = c.udt_name AND t.typnamespace = n.oid
	WHERE c.table_schema = $1 AND c.table_name = $2
	ORDER BY c.ordinal_position
`

// Columns returns the columns of a table in ordinal order. A table without
// columns yields an empty slice.
func (a *Adapter) Columns(ctx context.Context, table string) ([]core.ColumnInfo, error) {
	if a.DB == nil {
		return nil, adapter.ErrNotConnected
	}

	rows, err := a.DB.QueryContext(ctx, columnsQuery, a.SchemaOr(DefaultSchema), table)
	if err != nil {
		return nil, fmt.Errorf("failed to query column metadata: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var columns []core.ColumnInfo
	for rows.Next() {
		var (
			col       core.ColumnInfo
			dataType  string
			udtName   string
			typtype   string
			nullable  string
			defaultV  sql.NullString
			maxLength sql.NullInt64
		)
		if err := rows.Scan(&col.Name, &dataType, &udtName, &typtype, &nullable, &defaultV, &maxLength, &col.Position); err != nil {
			return nil, fmt.Errorf("failed to scan column metadata: %w", err)
		}
		col.Nullable = nullable == "YES"
		col.HasDefault = defaultV.Valid
		if maxLength.Valid {
			limit := int(maxLength.Int64)
			col.Limit = &limit
		}
		col.RawType = dataType
		col.NativeType = classifyType(dataType)
		if strings.EqualFold(dataType, userDefined) {
			col.RawType = udtName
			col.NativeType = classifyUserDefined(udtName, typtype)
		}
		columns = append(columns, col)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating column metadata: %w", err)
	}

	a.Logger.Debug("read columns", slog.String("table", table), slog.Int("count", len(columns)))
	return columns, nil
}

// PrimaryKeys returns the primary key columns of a table in key order.
func (a *Adapter) PrimaryKeys(ctx context.Context, table string) ([]string, error) {
	query := `
		SELECT kcu.column_name
		FROM information_schema.table_constraints tc
		JOIN information_schema.key_column_usage kcu
			ON tc.constraint_name = kcu.constraint_name
			AND tc.table_schema = kcu.table_schema
			AND tc.table_name = kcu.table_name
		WHERE tc.constraint_type = 'PRIMARY KEY'
			AND tc.table_schema = $1
			AND tc.table_name = $2
		ORDER BY kcu.ordinal_position
	`
	keys, err := a.QueryStrings(ctx, query, a.SchemaOr(DefaultSchema), table)
	if err != nil {
		return nil, fmt.Errorf("failed to query primary keys of %s: %w", table, err)
	}
	return keys, nil
}

// classifyType maps information_schema.columns.data_type onto a native type.
func classifyType(raw string) core.NativeType {
	switch t := strings.ToLower(raw); t {
	case "smallint", "integer", "bigint":
		return core.NativeInteger
	case "character varying", "character", "char":
		return core.NativeString
	case "text":
		return core.NativeText
	case "boolean":
		return core.NativeBoolean
	case "date":
		return core.NativeDate
	case "timestamp without time zone", "timestamp with time zone":
		return core.NativeDatetime
	case "real", "double precision":
		return core.NativeFloat
	case "numeric", "decimal":
		return core.NativeNumeric
	case "json":
		return core.NativeJSON
	case "jsonb":
		return core.NativeJSONB
	case "bytea":
		return core.NativeBinary
	case "uuid":
		return core.NativeUUID
	case "inet":
		return core.NativeInet
	default:
		return core.NativeType(t)
	}
}

// userDefined is the data_type Postgres reports for enums, domains over
// extension types and extension types such as hstore or citext.
const userDefined = "USER-DEFINED"

// classifyUserDefined maps a user-defined type by its pg_type kind and name.
// Only enums and citext are known; any other type keeps its udt name and
// fails canonicalization.
func classifyUserDefined(udtName, typtype string) core.NativeType {
	if typtype == "e" {
		return core.NativeEnum
	}
	name := strings.ToLower(udtName)
	if name == "citext" {
		return core.NativeString
	}
	return core.NativeType(name)
}

// Ensure Adapter implements adapter.Adapter interface
var _ adapter.Adapter = (*Adapter)(nil)
