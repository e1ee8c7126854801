// Package cli provides the command-line interface for leapschema.
package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/leapschema/internal/cli/commands"
	"github.com/leapstack-labs/leapschema/internal/cli/config"
	"github.com/leapstack-labs/leapschema/internal/cli/output"
)

var (
	cfgFile    string
	targetFlag string
)

// Version information (set at build time).
var (
	Version   = "0.1.0"
	BuildDate = "unknown"
	GitCommit = "unknown"
)

// configKey is used to store config in context.
type configKey struct{}

// rendererKey is used to store renderer in context.
type rendererKey struct{}

// skipConfig lists commands that run without loading configuration.
var skipConfig = map[string]bool{
	"help":                    true,
	"completion":              true,
	cobra.ShellCompRequestCmd: true,
	"version":                 true,
}

// NewRootCmd creates and returns the root command.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "leapschema",
		Short: "leapschema - schema-mapping validator",
		Long: `leapschema checks a declarative mapping document against a live
PostgreSQL, DuckDB or SQLite database and resolves it into the table model
a downstream code generator consumes.

The document says which tables and columns are carried over, which are
dropped, which get a different datatype and which are added. Every
mismatch with the live database is reported in one pass.`,
		Version: Version,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			// Skip config loading for help, completion and version
			if skipConfig[cmd.Name()] {
				return nil
			}

			// Load configuration with optional environment override and CLI flags
			cfg, err := config.LoadConfigWithTarget(cfgFile, targetFlag, cmd.Root().PersistentFlags())
			if err != nil {
				return err
			}

			level, err := config.ParseLogLevel(cfg.LogLevel)
			if err != nil {
				return err
			}
			if cfg.Verbose {
				level = slog.LevelDebug
			}
			logger := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))

			// Store config, logger and renderer in context
			ctx := context.WithValue(cmd.Context(), configKey{}, cfg)
			ctx = config.WithLogger(ctx, logger)
			renderer := output.NewRenderer(cmd.OutOrStdout(), cmd.ErrOrStderr(), output.Mode(cfg.OutputFormat))
			ctx = context.WithValue(ctx, rendererKey{}, renderer)
			cmd.SetContext(ctx)

			if configFile := config.GetConfigFileUsed(); configFile != "" {
				logger.Debug("using config file", "path", configFile)
			}
			if targetFlag != "" {
				logger.Debug("using environment", "name", targetFlag)
			}

			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Set version template
	rootCmd.SetVersionTemplate(`{{.Name}} {{.Version}}
`)

	// Global persistent flags
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "config file (default: ./leapschema.yaml)")
	flags.StringVarP(&targetFlag, "target", "t", "", "Environment whose target to use (e.g., dev, staging, prod)")
	flags.String("project-dir", "", "Project root relative paths resolve against")
	flags.StringP("document", "d", "", "Path to the mapping document")
	flags.String("database", "", "Database file (sqlite, duckdb) or name (postgres)")
	flags.String("schema", "", "Database schema to inspect")
	flags.String("components-dir", "", "Directory of installed components")
	flags.String("env", "", "Environment name")
	flags.String("log-level", "", "Log level (debug|info|warn|error)")
	flags.BoolP("verbose", "v", false, "Verbose output")
	flags.StringP("output", "o", "", "Output format (auto|text|markdown|json|yaml)")
	flags.String("state", "", "Run history database (default: .leapschema/state.db)")

	// Register completion for output flag
	_ = rootCmd.RegisterFlagCompletionFunc("output", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{"auto", "text", "markdown", "json", "yaml"}, cobra.ShellCompDirectiveNoFileComp
	})

	// Register completion for target flag
	_ = rootCmd.RegisterFlagCompletionFunc("target", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		// Return common environment names
		return []string{"dev", "staging", "prod"}, cobra.ShellCompDirectiveNoFileComp
	})

	// Add subcommands
	rootCmd.AddCommand(commands.NewVersionCommand(Version))
	rootCmd.AddCommand(commands.NewValidateCommand())
	rootCmd.AddCommand(commands.NewResolveCommand())
	rootCmd.AddCommand(commands.NewTablesCommand())
	rootCmd.AddCommand(commands.NewDoctorCommand())
	rootCmd.AddCommand(commands.NewHistoryCommand())
	rootCmd.AddCommand(commands.NewInitCommand())
	rootCmd.AddCommand(NewCompletionCommand())

	return rootCmd
}

// Execute runs the root command. Interrupts cancel the command context.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rootCmd := NewRootCmd()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return err
	}
	return nil
}

// GetConfig retrieves the config from the command context.
func GetConfig(ctx context.Context) *config.Config {
	if c, ok := ctx.Value(configKey{}).(*config.Config); ok {
		return c
	}
	// Return default config if none in context
	return &config.Config{
		Document:     config.DefaultDocument,
		Environment:  config.DefaultEnv,
		LogLevel:     config.DefaultLogLevel,
		OutputFormat: config.DefaultOutput,
	}
}

// GetRenderer retrieves the renderer from the command context.
func GetRenderer(ctx context.Context) *output.Renderer {
	if r, ok := ctx.Value(rendererKey{}).(*output.Renderer); ok {
		return r
	}
	// Return default renderer if none in context
	return output.NewRenderer(os.Stdout, os.Stderr, output.ModeAuto)
}

// NewCompletionCommand creates the completion command.
func NewCompletionCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completion scripts",
		Long: `Generate shell completion scripts for leapschema.

To load completions:

Bash:
  $ source <(leapschema completion bash)

  # To load completions for each session, execute once:
  # Linux:
  $ leapschema completion bash > /etc/bash_completion.d/leapschema
  # macOS:
  $ leapschema completion bash > $(brew --prefix)/etc/bash_completion.d/leapschema

Zsh:
  # If shell completion is not already enabled in your environment,
  # you will need to enable it. Execute the following once:
  $ echo "autoload -U compinit; compinit" >> ~/.zshrc

  # To load completions for each session, execute once:
  $ leapschema completion zsh > "${fpath[1]}/_leapschema"

Fish:
  $ leapschema completion fish | source

  # To load completions for each session, execute once:
  $ leapschema completion fish > ~/.config/fish/completions/leapschema.fish

PowerShell:
  PS> leapschema completion powershell | Out-String | Invoke-Expression
`,
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			switch args[0] {
			case "bash":
				return cmd.Root().GenBashCompletion(out)
			case "zsh":
				return cmd.Root().GenZshCompletion(out)
			case "fish":
				return cmd.Root().GenFishCompletion(out, true)
			case "powershell":
				return cmd.Root().GenPowerShellCompletionWithDesc(out)
			}
			return nil
		},
	}
	return cmd
}
