package core

// TargetConfig holds database target configuration.
type TargetConfig struct {
	Type string `koanf:"type"` // postgres, duckdb, sqlite

	// File-based databases (DuckDB, SQLite)
	Database string `koanf:"database"` // file path or database name

	// Network databases
	Host     string `koanf:"host"`
	Port     int    `koanf:"port"`
	User     string `koanf:"user"`
	Password string `koanf:"password"`

	// Common
	Schema string `koanf:"schema"`

	// Additional driver-specific options
	Options map[string]string `koanf:"options"`
}

// AdapterConfig converts the target into the configuration adapters connect with.
func (t *TargetConfig) AdapterConfig() AdapterConfig {
	return AdapterConfig{
		Type:     t.Type,
		Path:     t.Database,
		Host:     t.Host,
		Port:     t.Port,
		Database: t.Database,
		Username: t.User,
		Password: t.Password,
		Schema:   t.Schema,
		Options:  t.Options,
	}
}

// ComponentsConfig describes where the list of active optional components comes from.
type ComponentsConfig struct {
	// Dir holds one subdirectory per installed component, each with a component.yaml.
	Dir string `koanf:"dir"`
	// Active lists active component names directly. Used when Dir is empty.
	Active []string `koanf:"active"`
}
