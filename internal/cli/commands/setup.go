package commands

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/leapschema/internal/cli/config"
	"github.com/leapstack-labs/leapschema/internal/cli/output"
	"github.com/leapstack-labs/leapschema/internal/component"
	intconfig "github.com/leapstack-labs/leapschema/internal/config"
	"github.com/leapstack-labs/leapschema/internal/engine"
)

// CommandContext holds common dependencies for CLI commands.
type CommandContext struct {
	Cfg      *config.Config
	Logger   *slog.Logger
	Engine   *engine.Engine
	Renderer *output.Renderer
}

// NewCommandContext creates a CommandContext with engine and renderer.
// Returns the context and a cleanup function that must be called (typically via defer).
func NewCommandContext(cmd *cobra.Command) (*CommandContext, func(), error) {
	cfg := getConfig()
	logger := config.GetLogger(cmd.Context())

	eng, err := createEngine(cfg, logger)
	if err != nil {
		return nil, nil, err
	}

	r := newRenderer(cmd, cfg)

	cleanup := func() {
		_ = eng.Close()
	}

	return &CommandContext{
		Cfg:      cfg,
		Logger:   logger,
		Engine:   eng,
		Renderer: r,
	}, cleanup, nil
}

// NewCommandContextWithoutEngine creates a CommandContext without an engine.
// Useful for commands that don't need database access.
func NewCommandContextWithoutEngine(cmd *cobra.Command) *CommandContext {
	cfg := getConfig()
	return &CommandContext{
		Cfg:      cfg,
		Logger:   config.GetLogger(cmd.Context()),
		Renderer: newRenderer(cmd, cfg),
	}
}

// Helper functions shared across commands

func newRenderer(cmd *cobra.Command, cfg *config.Config) *output.Renderer {
	return output.NewRenderer(cmd.OutOrStdout(), cmd.ErrOrStderr(), output.Mode(cfg.OutputFormat))
}

// getConfig returns the current configuration.
// It uses config.GetCurrentConfig() if available, otherwise falls back to environment variables.
func getConfig() *config.Config {
	if cfg := config.GetCurrentConfig(); cfg != nil {
		return cfg
	}

	cwd, _ := os.Getwd()
	return &config.Config{
		ProjectRoot:  cwd,
		Document:     getEnvOrDefault(config.EnvPrefix+"DOCUMENT", config.DefaultDocument),
		Environment:  getEnvOrDefault(config.EnvPrefix+"ENVIRONMENT", config.DefaultEnv),
		LogLevel:     getEnvOrDefault(config.EnvPrefix+"LOG_LEVEL", config.DefaultLogLevel),
		OutputFormat: getEnvOrDefault(config.EnvPrefix+"OUTPUT", config.DefaultOutput),
		StatePath:    filepath.Join(cwd, config.DefaultStatePath),
		Verbose:      os.Getenv(config.EnvPrefix+"VERBOSE") == "true",
	}
}

func getEnvOrDefault(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

// documentPath returns the document named on the command line, or the
// configured one.
func documentPath(cfg *config.Config, args []string) (string, error) {
	if len(args) == 0 {
		return cfg.Document, nil
	}
	path, err := filepath.Abs(args[0])
	if err != nil {
		return "", fmt.Errorf("invalid document path %s: %w", args[0], err)
	}
	return path, nil
}

// componentRegistry picks the directory registry when a components
// directory is configured, and the static list otherwise.
func componentRegistry(cfg *config.Config, logger *slog.Logger) component.Registry {
	if cfg.Components.Dir != "" {
		return component.NewDir(cfg.Components.Dir, logger)
	}
	return component.Static(cfg.Components.Active)
}

func createEngine(cfg *config.Config, logger *slog.Logger) (*engine.Engine, error) {
	if cfg.Target == nil {
		return nil, fmt.Errorf("no target configured\nHint: add a target section to %s or pass --database", intconfig.ConfigFileName)
	}

	return engine.New(engine.Config{
		AdapterConfig: cfg.Target.AdapterConfig(),
		Components:    componentRegistry(cfg, logger),
		Logger:        logger,
	})
}
