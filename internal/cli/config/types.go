// Package config provides configuration management for the leapschema CLI.
//
// The target and components sections reuse the shared types from pkg/core,
// re-exported here via type aliases.
package config

import (
	intconfig "github.com/leapstack-labs/leapschema/internal/config"
	"github.com/leapstack-labs/leapschema/pkg/core"
)

// TargetConfig is an alias for the shared target configuration.
type TargetConfig = core.TargetConfig

// ComponentsConfig is an alias for the shared components configuration.
type ComponentsConfig = core.ComponentsConfig

// Config holds all CLI configuration options.
type Config struct {
	// ProjectRoot is the directory relative paths are resolved against.
	ProjectRoot string `koanf:"-"`

	Document     string               `koanf:"document"`
	Environment  string               `koanf:"environment"`
	Verbose      bool                 `koanf:"verbose"`
	LogLevel     string               `koanf:"log_level"`
	OutputFormat string               `koanf:"output"`
	StatePath    string               `koanf:"state_path"`
	Target       *TargetConfig        `koanf:"target"`
	Components   ComponentsConfig     `koanf:"components"`
	Environments map[string]EnvConfig `koanf:"environments"`
}

// EnvConfig holds environment-specific configuration overrides.
type EnvConfig struct {
	Document string        `koanf:"document"`
	Target   *TargetConfig `koanf:"target"`
}

// Default configuration values - uses shared defaults from internal/config
const (
	DefaultDocument = intconfig.DefaultDocument
	DefaultLogLevel = intconfig.DefaultLogLevel
	DefaultEnv      = "dev"
	DefaultOutput   = "auto" // Auto-detect: TTY=text, non-TTY=markdown
)

// DefaultStatePath is where run history is recorded. An empty state_path
// disables recording.
const DefaultStatePath = ".leapschema/state.db"
