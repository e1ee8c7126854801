package adapter

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/leapstack-labs/leapschema/pkg/core"
)

// ErrNotConnected is returned when a query is issued before Connect.
var ErrNotConnected = errors.New("database connection not established")

// TypeClassifier maps a raw database type name onto a native type.
type TypeClassifier func(rawType string) core.NativeType

// BaseSQLAdapter provides common database/sql functionality for adapters.
// Embed this struct in concrete adapter implementations to get standard
// Close and information_schema backed metadata queries.
type BaseSQLAdapter struct {
	DB     *sql.DB
	Cfg    core.AdapterConfig
	Logger *slog.Logger
}

// Close closes the database connection.
func (b *BaseSQLAdapter) Close() error {
	if b.DB != nil {
		if b.Logger != nil {
			b.Logger.Debug("closing database connection")
		}
		return b.DB.Close()
	}
	return nil
}

// IsConnected returns true if the database connection is established.
func (b *BaseSQLAdapter) IsConnected() bool {
	return b.DB != nil
}

// SchemaOr returns the configured schema, or fallback when none is set.
func (b *BaseSQLAdapter) SchemaOr(fallback string) string {
	if b.Cfg.Schema != "" {
		return b.Cfg.Schema
	}
	return fallback
}

// QueryStrings runs a query returning a single text column.
func (b *BaseSQLAdapter) QueryStrings(ctx context.Context, query string, args ...any) ([]string, error) {
	if b.DB == nil {
		return nil, ErrNotConnected
	}

	rows, err := b.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to execute query: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var values []string
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		values = append(values, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}
	return values, nil
}

// TablesCommon lists base tables of a schema via information_schema.tables.
// placeholder formats the n-th bind parameter for the driver ($1 or ?).
func (b *BaseSQLAdapter) TablesCommon(ctx context.Context, schema string, placeholder func(int) string) ([]string, error) {
	//nolint:gosec // Placeholders are safe - they come from the adapter
	query := fmt.Sprintf(`
		SELECT table_name
		FROM information_schema.tables
		WHERE table_schema = %s AND table_type = 'BASE TABLE'
		ORDER BY table_name
	`, placeholder(1))

	tables, err := b.QueryStrings(ctx, query, schema)
	if err != nil {
		return nil, fmt.Errorf("failed to list tables: %w", err)
	}
	return tables, nil
}

// ColumnsCommon provides a shared implementation of Columns.
// Uses information_schema.columns with driver-appropriate placeholders.
// A table without columns yields an empty result, not an error.
func (b *BaseSQLAdapter) ColumnsCommon(ctx context.Context, schema, table string, placeholder func(int) string, classify TypeClassifier) ([]core.ColumnInfo, error) {
	if b.DB == nil {
		return nil, ErrNotConnected
	}

	//nolint:gosec // Placeholders are safe - they come from the adapter
	query := fmt.Sprintf(`
		SELECT
			column_name,
			data_type,
			is_nullable,
			column_default,
			character_maximum_length,
			ordinal_position
		FROM information_schema.columns
		WHERE table_schema = %s AND table_name = %s
		ORDER BY ordinal_position
	`, placeholder(1), placeholder(2))

	rows, err := b.DB.QueryContext(ctx, query, schema, table)
	if err != nil {
		return nil, fmt.Errorf("failed to query column metadata: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var columns []core.ColumnInfo
	for rows.Next() {
		var (
			col       core.ColumnInfo
			nullable  string
			defaultV  sql.NullString
			maxLength sql.NullInt64
		)
		if err := rows.Scan(&col.Name, &col.RawType, &nullable, &defaultV, &maxLength, &col.Position); err != nil {
			return nil, fmt.Errorf("failed to scan column metadata: %w", err)
		}
		col.Nullable = nullable == "YES"
		col.HasDefault = defaultV.Valid
		if maxLength.Valid {
			limit := int(maxLength.Int64)
			col.Limit = &limit
		}
		col.NativeType = classify(col.RawType)
		columns = append(columns, col)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating column metadata: %w", err)
	}

	return columns, nil
}

// DollarPlaceholder formats PostgreSQL style bind parameters.
func DollarPlaceholder(n int) string {
	return fmt.Sprintf("$%d", n)
}

// QuestionPlaceholder formats bind parameters for drivers using '?'.
func QuestionPlaceholder(int) string {
	return "?"
}
