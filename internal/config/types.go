// Package config provides configuration helpers shared by the CLI and the
// engine: target defaults and validation, and config file discovery.
package config

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/leapstack-labs/leapschema/pkg/adapter"
	"github.com/leapstack-labs/leapschema/pkg/core"
)

// DefaultSchemaForType returns the default schema for a database type.
// It asks the registered adapter; unknown types fall back to "public".
func DefaultSchemaForType(dbType string) string {
	if factory, ok := adapter.Get(strings.ToLower(dbType)); ok {
		if schema := factory(slog.New(slog.DiscardHandler)).DefaultSchema(); schema != "" {
			return schema
		}
	}
	return "public"
}

// ValidateTarget checks if the target configuration is valid.
// It uses the adapter registry to determine which adapter types are available.
func ValidateTarget(t *core.TargetConfig) error {
	if t == nil {
		return fmt.Errorf("target is required")
	}
	if t.Type == "" {
		return fmt.Errorf("target type is required")
	}

	// Use adapter registry as single source of truth
	if !adapter.IsRegistered(strings.ToLower(t.Type)) {
		return &adapter.UnknownAdapterError{
			Type:      t.Type,
			Available: adapter.ListAdapters(),
		}
	}

	if t.Type == "postgres" && t.Host == "" {
		return fmt.Errorf("target host is required for postgres")
	}
	return nil
}
