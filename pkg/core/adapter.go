package core

import "context"

// MetadataSource is the read-only view of a live database that validation needs.
// Adapters in pkg/adapters implement it.
type MetadataSource interface {
	// Tables returns the names of all base tables in the configured schema.
	Tables(ctx context.Context) ([]string, error)

	// Columns returns the columns of a table in ordinal order.
	Columns(ctx context.Context, table string) ([]ColumnInfo, error)

	// PrimaryKeys returns the primary key column names of a table in key order.
	PrimaryKeys(ctx context.Context, table string) ([]string, error)
}

// AdapterConfig holds configuration for connecting to a database.
type AdapterConfig struct {
	Type     string
	Path     string
	Host     string
	Port     int
	Database string
	Username string
	Password string
	Schema   string
	Options  map[string]string
}

// ColumnInfo describes one live column as reported by an adapter.
type ColumnInfo struct {
	Name string
	// NativeType is the adapter-neutral classification of RawType.
	NativeType NativeType
	// RawType is the type name exactly as the database reported it.
	RawType    string
	Nullable   bool
	HasDefault bool
	// Limit is the declared maximum character length, if any.
	Limit    *int
	Position int
}
