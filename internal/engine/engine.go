// Package engine runs validation and resolution of a mapping document
// against one live database.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/leapstack-labs/leapschema/internal/catalog"
	"github.com/leapstack-labs/leapschema/internal/component"
	"github.com/leapstack-labs/leapschema/internal/resolver"
	"github.com/leapstack-labs/leapschema/internal/validation"
	"github.com/leapstack-labs/leapschema/pkg/adapter"
)

// Engine validates and resolves mapping documents.
type Engine struct {
	// Database adapter (lazy initialized)
	db          adapter.Adapter
	dbConfig    adapter.Config
	dbConnected bool
	dbMu        sync.Mutex

	// Structured logger
	logger *slog.Logger

	components component.Registry
	validator  *validation.Validator
	loader     *resolver.Loader
}

// Config holds engine configuration.
type Config struct {
	// AdapterConfig selects and configures the database adapter.
	AdapterConfig adapter.Config
	// Components reports the active components. Defaults to an empty list.
	Components component.Registry
	// Logger is the structured logger (optional, uses discard if nil)
	Logger *slog.Logger
	// ValidationOptions are passed to the validator.
	ValidationOptions []validation.Option
}

// New creates a new engine with lazy database connection.
// The database adapter is only connected when a run needs metadata.
func New(cfg Config) (*Engine, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	if cfg.AdapterConfig.Type == "" {
		return nil, fmt.Errorf("target type is required")
	}
	if !adapter.IsRegistered(cfg.AdapterConfig.Type) {
		return nil, &adapter.UnknownAdapterError{Type: cfg.AdapterConfig.Type, Available: adapter.ListAdapters()}
	}

	components := cfg.Components
	if components == nil {
		components = component.Static(nil)
	}

	opts := append([]validation.Option{validation.WithLogger(logger)}, cfg.ValidationOptions...)
	v, err := validation.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create validator: %w", err)
	}

	logger.Debug("initializing engine", "adapter_type", cfg.AdapterConfig.Type)

	return &Engine{
		dbConfig:   cfg.AdapterConfig,
		logger:     logger,
		components: components,
		validator:  v,
		loader:     resolver.NewLoader(logger),
	}, nil
}

// ensureDBConnected lazily connects to the database.
func (e *Engine) ensureDBConnected(ctx context.Context) error {
	e.dbMu.Lock()
	defer e.dbMu.Unlock()

	if e.dbConnected {
		return nil
	}

	e.logger.Debug("connecting to database", "adapter_type", e.dbConfig.Type)

	db, err := adapter.NewAdapter(e.dbConfig, e.logger)
	if err != nil {
		return fmt.Errorf("failed to create database adapter: %w", err)
	}

	if err := db.Connect(ctx, e.dbConfig); err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	e.db = db
	e.dbConnected = true

	e.logger.Debug("database connected", "schema", e.schema())
	return nil
}

func (e *Engine) schema() string {
	if e.dbConfig.Schema != "" {
		return e.dbConfig.Schema
	}
	if e.db != nil {
		return e.db.DefaultSchema()
	}
	return ""
}

// Snapshot captures the live metadata of the target schema.
func (e *Engine) Snapshot(ctx context.Context) (*catalog.Snapshot, error) {
	if err := e.ensureDBConnected(ctx); err != nil {
		return nil, err
	}
	snap, err := catalog.Capture(ctx, e.db, e.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to read database metadata: %w", err)
	}
	return snap, nil
}

// Close releases the database connection.
func (e *Engine) Close() error {
	e.logger.Debug("closing engine")

	e.dbMu.Lock()
	defer e.dbMu.Unlock()

	if e.db == nil {
		return nil
	}
	err := e.db.Close()
	e.db = nil
	e.dbConnected = false
	if err != nil {
		return fmt.Errorf("errors closing engine: %w", err)
	}
	return nil
}
