package config

import (
	"strings"

	"github.com/leapstack-labs/leapschema/pkg/core"
)

// Default configuration values.
const (
	DefaultDocument     = "mapping.yml"
	DefaultLogLevel     = "info"
	DefaultPostgresPort = 5432
)

// ApplyTargetDefaults applies default values to a TargetConfig based on the target type.
func ApplyTargetDefaults(t *core.TargetConfig) {
	if t == nil {
		return
	}
	t.Type = strings.ToLower(t.Type)

	// Apply default schema based on type
	if t.Schema == "" {
		t.Schema = DefaultSchemaForType(t.Type)
	}

	if t.Type == "postgres" && t.Port == 0 {
		t.Port = DefaultPostgresPort
	}
}
