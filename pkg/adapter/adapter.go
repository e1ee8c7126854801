// Package adapter provides the database adapter contract for LeapSchema.
//
// An adapter is a read-only metadata source: it lists tables, columns and
// primary keys of one schema. Concrete adapter implementations are in
// pkg/adapters/ subdirectories and register themselves by name.
package adapter

import (
	"context"

	"github.com/leapstack-labs/leapschema/pkg/core"
)

// Config is an alias for core.AdapterConfig.
type Config = core.AdapterConfig

// Adapter defines the interface that all database adapters must implement.
type Adapter interface {
	core.MetadataSource

	// Connect establishes a connection to the database using the provided config.
	Connect(ctx context.Context, cfg Config) error

	// Close closes the database connection and releases resources.
	Close() error

	// DefaultSchema is the schema inspected when the config does not name one.
	DefaultSchema() string
}
