package config

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"

	intconfig "github.com/leapstack-labs/leapschema/internal/config"
	"github.com/leapstack-labs/leapschema/pkg/core"
)

// loggerKey is used to store logger in context.
type loggerKey struct{}

// EnvPrefix prefixes every environment variable the loader reads.
// A double underscore separates nested keys: LEAPSCHEMA_TARGET__HOST -> target.host.
const EnvPrefix = "LEAPSCHEMA_"

// Package-level koanf instance and config file tracking
var (
	k              = koanf.New(".")
	configFileUsed string
	currentConfig  *Config // Stores the loaded config for access by commands
)

// flagKeys maps flag names onto config keys where they differ.
var flagKeys = map[string]string{
	"database":       "target.database",
	"schema":         "target.schema",
	"components-dir": "components.dir",
	"env":            "environment",
	"state":          "state_path",
}

// inferProjectRoot determines the project root.
// Priority:
//  1. Explicit --project-dir flag
//  2. Directory of an explicit --config file
//  3. Search upward from CWD for leapschema.yaml
//  4. Current working directory
func inferProjectRoot(cfgFile string, flags *pflag.FlagSet) string {
	if flags != nil && flags.Lookup("project-dir") != nil && flags.Changed("project-dir") {
		if projectDir, _ := flags.GetString("project-dir"); projectDir != "" {
			if abs, err := filepath.Abs(projectDir); err == nil {
				return abs
			}
			return filepath.Clean(projectDir)
		}
	}

	if cfgFile != "" {
		if abs, err := filepath.Abs(cfgFile); err == nil {
			return filepath.Dir(abs)
		}
	}

	cwd, err := os.Getwd()
	if err != nil || cwd == "" {
		return "."
	}
	if root := intconfig.FindProjectRoot(cwd); root != "" {
		return root
	}
	return cwd
}

// resolvePathRelativeTo resolves a path relative to baseDir if it's not absolute.
// Returns the path unchanged if it's empty or already absolute.
func resolvePathRelativeTo(path, baseDir string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(baseDir, path)
}

// flagPath returns the absolute form of a path flag that was explicitly set.
// Flag paths are relative to the working directory, not the project root.
func flagPath(flags *pflag.FlagSet, name string) string {
	if flags == nil || flags.Lookup(name) == nil || !flags.Changed(name) {
		return ""
	}
	v, _ := flags.GetString(name)
	if v == "" || v == ":memory:" {
		return v
	}
	abs, err := filepath.Abs(v)
	if err != nil {
		return v
	}
	return abs
}

// ResetConfig resets the koanf instance. Used for testing.
func ResetConfig() {
	k = koanf.New(".")
	configFileUsed = ""
	currentConfig = nil
}

// LoadConfig loads configuration from file, environment variables, and flags.
// Precedence (highest to lowest): flags > env vars > config file > defaults
func LoadConfig(cfgFile string, flags *pflag.FlagSet) (*Config, error) {
	return LoadConfigWithTarget(cfgFile, "", flags)
}

// LoadConfigWithTarget loads configuration with an optional environment
// override selecting which environment's target to merge in.
func LoadConfigWithTarget(cfgFile string, targetOverride string, flags *pflag.FlagSet) (*Config, error) {
	// Reset koanf for fresh load
	k = koanf.New(".")
	configFileUsed = ""

	projectRoot := inferProjectRoot(cfgFile, flags)
	flagDocument := flagPath(flags, "document")
	flagDatabase := flagPath(flags, "database")
	flagComponentsDir := flagPath(flags, "components-dir")
	flagState := flagPath(flags, "state")

	// 1. Load defaults
	if err := k.Load(confmap.Provider(map[string]interface{}{
		"document":    DefaultDocument,
		"environment": DefaultEnv,
		"verbose":     false,
		"log_level":   DefaultLogLevel,
		"output":      DefaultOutput,
		"state_path":  DefaultStatePath,
	}, "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// 2. Find and load config file
	if cfgFile == "" {
		cfgFile = intconfig.FindConfigFile(projectRoot)
	}
	if cfgFile != "" {
		if err := k.Load(file.Provider(cfgFile), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", cfgFile, err)
		}
		configFileUsed = cfgFile
	}

	// 3. Load environment variables (LEAPSCHEMA_ prefix)
	// Transform: LEAPSCHEMA_LOG_LEVEL -> log_level, LEAPSCHEMA_TARGET__HOST -> target.host
	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		key := strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
		return strings.ReplaceAll(key, "__", ".")
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	// 4. Load flags (highest priority - overrides env vars and config file)
	if flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, interface{}) {
			// Only load flags that were explicitly set
			if !f.Changed {
				return "", nil
			}
			switch f.Name {
			case "config", "target", "project-dir", "watch":
				return "", nil
			}
			if key, ok := flagKeys[f.Name]; ok {
				return key, posflag.FlagVal(flags, f)
			}
			// Transform kebab-case to snake_case for config keys
			return strings.ReplaceAll(f.Name, "-", "_"), posflag.FlagVal(flags, f)
		}), nil); err != nil {
			return nil, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	// 5. Unmarshal into Config struct
	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}
	cfg.ProjectRoot = projectRoot

	// Determine which environment to use for target selection
	envForTarget := cfg.Environment
	if targetOverride != "" {
		envForTarget = targetOverride
		if _, ok := cfg.Environments[targetOverride]; !ok {
			return nil, fmt.Errorf("unknown environment %q", targetOverride)
		}
	}
	if envCfg, ok := cfg.Environments[envForTarget]; ok {
		if envCfg.Document != "" && flagDocument == "" {
			cfg.Document = envCfg.Document
		}
		if envCfg.Target != nil {
			cfg.Target = MergeTargetConfig(cfg.Target, envCfg.Target)
		}
	}

	// 6. Resolve relative paths against the project root.
	if flagDocument != "" {
		cfg.Document = flagDocument
	} else {
		cfg.Document = resolvePathRelativeTo(cfg.Document, projectRoot)
	}
	if flagComponentsDir != "" {
		cfg.Components.Dir = flagComponentsDir
	} else {
		cfg.Components.Dir = resolvePathRelativeTo(cfg.Components.Dir, projectRoot)
	}
	if flagState != "" {
		cfg.StatePath = flagState
	} else if cfg.StatePath != ":memory:" {
		cfg.StatePath = resolvePathRelativeTo(cfg.StatePath, projectRoot)
	}

	if cfg.Target != nil {
		intconfig.ApplyTargetDefaults(cfg.Target)
		expandTargetEnvVars(cfg.Target)

		if flagDatabase != "" {
			cfg.Target.Database = flagDatabase
		} else if isFileTarget(cfg.Target.Type) && cfg.Target.Database != ":memory:" {
			cfg.Target.Database = resolvePathRelativeTo(cfg.Target.Database, projectRoot)
		}

		if err := intconfig.ValidateTarget(cfg.Target); err != nil {
			return nil, fmt.Errorf("invalid target configuration: %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	// Store config for access by commands
	currentConfig = &cfg

	return &cfg, nil
}

func isFileTarget(dbType string) bool {
	return dbType == "sqlite" || dbType == "duckdb"
}

// GetConfigFileUsed returns the path to the config file being used, if any.
func GetConfigFileUsed() string {
	return configFileUsed
}

// GetCurrentConfig returns the currently loaded configuration.
// This is available after LoadConfig or LoadConfigWithTarget is called.
func GetCurrentConfig() *Config {
	return currentConfig
}

// LoggerKey returns the context key used for storing the logger.
// This allows the commands package to retrieve the logger from context
// without creating an import cycle with the cli package.
func LoggerKey() interface{} {
	return loggerKey{}
}

// WithLogger returns a copy of ctx carrying logger.
func WithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, loggerKey{}, logger)
}

// GetLogger retrieves the logger from the command context.
func GetLogger(ctx context.Context) *slog.Logger {
	if ctx != nil {
		if l, ok := ctx.Value(loggerKey{}).(*slog.Logger); ok {
			return l
		}
	}
	// Return discard logger as safe fallback
	return slog.New(slog.DiscardHandler)
}

var envVarPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

// expandEnvVars expands ${VAR} patterns in a string with environment variable values.
func expandEnvVars(s string) string {
	return envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		varName := match[2 : len(match)-1]
		if val := os.Getenv(varName); val != "" {
			return val
		}
		return match // Return original if not found
	})
}

// expandTargetEnvVars expands environment variables in sensitive target fields.
func expandTargetEnvVars(t *core.TargetConfig) {
	if t == nil {
		return
	}
	t.Password = expandEnvVars(t.Password)
	t.User = expandEnvVars(t.User)
	t.Host = expandEnvVars(t.Host)
	t.Database = expandEnvVars(t.Database)
}

// MergeTargetConfig merges two target configs, with override taking precedence.
func MergeTargetConfig(base, override *core.TargetConfig) *core.TargetConfig {
	if base == nil {
		return override
	}
	if override == nil {
		return base
	}

	// Start with a copy of base
	merged := &core.TargetConfig{
		Type:     base.Type,
		Database: base.Database,
		Host:     base.Host,
		Port:     base.Port,
		User:     base.User,
		Password: base.Password,
		Schema:   base.Schema,
		Options:  make(map[string]string, len(base.Options)+len(override.Options)),
	}
	for k, v := range base.Options {
		merged.Options[k] = v
	}

	// Apply overrides
	if override.Type != "" {
		merged.Type = override.Type
	}
	if override.Database != "" {
		merged.Database = override.Database
	}
	if override.Host != "" {
		merged.Host = override.Host
	}
	if override.Port != 0 {
		merged.Port = override.Port
	}
	if override.User != "" {
		merged.User = override.User
	}
	if override.Password != "" {
		merged.Password = override.Password
	}
	if override.Schema != "" {
		merged.Schema = override.Schema
	}
	for k, v := range override.Options {
		merged.Options[k] = v
	}

	return merged
}
