package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/jam1garner/discord-forge/internal/config"
	"github.com/jam1garner/discord-forge/internal/convert"
	"github.com/jam1garner/discord-forge/internal/converters"
	forgefs "github.com/jam1garner/discord-forge/internal/fs"
	"github.com/jam1garner/discord-forge/internal/staging"
	"github.com/jam1garner/discord-forge/internal/toolrun"
)

const Version = "0.3.0"

type cliContextKey struct{}

// CLI represents the command-line interface
type CLI struct {
	rootCmd          *cobra.Command
	configManager    *config.ConfigManager
	fs               afero.Fs
	runner           toolrun.Runner
	terminalDetector TerminalDetector
	cfg              *config.Config
	now              func() time.Time
}

// NewCLI creates a new CLI instance working on the OS filesystem
func NewCLI() *CLI {
	return newCLI(forgefs.NewDefaultFactory().Production())
}

// newCLI creates a CLI over fsys; tests pass an in-memory filesystem
func newCLI(fsys afero.Fs) *CLI {
	slog.Debug("creating new CLI instance")

	rootCmd := &cobra.Command{
		Use:   "forge",
		Short: "Game asset converter",
		Long: "forge converts game assets between editable formats (xml, yaml, wav, zip...) and the engine's binary formats.\n" +
			"The input file is consumed by every conversion; use --keep to preserve it.",
		SilenceUsage:      true,
		PersistentPreRunE: loadConfigE,
		RunE:              runRootE,
	}

	rootCmd.PersistentFlags().String("config", "", "Path to config file (.json or .toml)")
	rootCmd.PersistentFlags().String("log-level", "", "Log level: debug, info, warn, error")
	rootCmd.PersistentFlags().String("staging-dir", "", "Shared scratch directory for intermediate files")
	rootCmd.Flags().BoolP("version", "v", false, "Show version information")

	rootCmd.AddCommand(newConfigCommand())
	rootCmd.AddCommand(newConvertCommand())
	rootCmd.AddCommand(newFormatsCommand())
	rootCmd.AddCommand(newLoopPointsCommand())
	rootCmd.AddCommand(newStagingCommand())

	return &CLI{
		rootCmd:       rootCmd,
		configManager: config.NewConfigManagerWithFilesystem(fsys),
		fs:            fsys,
		now:           time.Now,
	}
}

// contextWithCLI stores CLI instance in context for command handlers
func contextWithCLI(cli *CLI) context.Context {
	return context.WithValue(context.Background(), cliContextKey{}, cli)
}

// cliFromContext extracts CLI instance from context
func cliFromContext(ctx context.Context) *CLI {
	if cli, ok := ctx.Value(cliContextKey{}).(*CLI); ok {
		return cli
	}
	return nil
}

func runRootE(cmd *cobra.Command, args []string) error {
	if version, _ := cmd.Flags().GetBool("version"); version {
		printVersion(cmd.OutOrStdout())
		return nil
	}
	return cmd.Help()
}

func printVersion(w io.Writer) {
	fmt.Fprintf(w, "forge version %s\n", Version)
}

// loadConfigE loads configuration before any subcommand runs and sets up logging
func loadConfigE(cmd *cobra.Command, args []string) error {
	cli := cliFromContext(cmd.Context())
	if cli == nil {
		return fmt.Errorf("CLI not found in command context")
	}

	cfg, err := loadAndValidateConfig(cmd, cli)
	if err != nil {
		return err
	}
	cli.cfg = cfg

	setupLogging(cfg, cli.configManager, cmd.ErrOrStderr())
	return nil
}

// loadAndValidateConfig loads configuration from flags and files, applies overrides, and validates
func loadAndValidateConfig(cmd *cobra.Command, cli *CLI) (*config.Config, error) {
	configFile, _ := cmd.Flags().GetString("config")
	logLevel, _ := cmd.Flags().GetString("log-level")
	stagingDir, _ := cmd.Flags().GetString("staging-dir")

	var cfg *config.Config
	var err error
	if configFile != "" {
		cfg, err = cli.configManager.LoadFromFile(configFile)
		if err != nil {
			slog.Warn("config file not usable, using defaults", "file", configFile, "error", err)
			cmd.PrintErrf("Warning: %v; using defaults\n", err)
			cfg = cli.configManager.GetDefaultConfig()
		}
	} else {
		cfg, err = cli.configManager.LoadConfig()
		if err != nil {
			slog.Error("config load failed", "error", err)
			return nil, fmt.Errorf("error loading config: %w", err)
		}
	}

	cfg = cli.configManager.ApplyEnvironmentOverrides(cfg)

	if logLevel != "" {
		cfg.LogLevel = logLevel
		slog.Debug("log level override applied", "value", logLevel)
	}
	if stagingDir != "" {
		cfg.StagingDir = stagingDir
		slog.Debug("staging dir override applied", "value", stagingDir)
	}

	if err := cli.configManager.ValidateConfig(cfg); err != nil {
		slog.Error("config validation failed", "error", err)
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Run executes the CLI with the given arguments and I/O streams and returns
// the process exit code
func (c *CLI) Run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	slog.Debug("CLI run started", "args", args)

	if len(args) > 1 && (args[1] == "--version" || args[1] == "-v") {
		printVersion(stdout)
		return 0
	}

	c.rootCmd.SetArgs(args[1:])
	c.rootCmd.SetIn(stdin)
	c.rootCmd.SetOut(stdout)
	c.rootCmd.SetErr(stderr)
	c.rootCmd.SetContext(contextWithCLI(c))

	if err := c.rootCmd.Execute(); err != nil {
		slog.Error("command failed", "error", err)
		return 1
	}
	return 0
}

// stagingArea opens the shared scratch directory. On the OS filesystem the
// directory is guarded by a lock file so prune never races a conversion.
func (c *CLI) stagingArea() *staging.Area {
	var lock staging.Locker
	if _, ok := c.fs.(*afero.OsFs); ok {
		lock = staging.NewFileLock(filepath.Join(c.cfg.StagingDir, staging.LockFileName))
	}
	return staging.New(c.fs, c.cfg.StagingDir, lock)
}

// toolRunner returns the injected runner or one rooted at the tools dir
func (c *CLI) toolRunner() (toolrun.Runner, error) {
	if c.runner != nil {
		return c.runner, nil
	}
	dir, err := forgefs.ResolveToolsDir(c.cfg.ToolsDir)
	if err != nil {
		return nil, err
	}
	return toolrun.NewExecRunner(dir), nil
}

// registry builds the converter registry for the loaded configuration
func (c *CLI) registry() (*convert.Registry, error) {
	runner, err := c.toolRunner()
	if err != nil {
		return nil, err
	}
	return converters.NewDefaultRegistry(converters.Deps{
		Config:  c.cfg,
		Runner:  runner,
		Fs:      c.fs,
		Staging: c.stagingArea(),
	}), nil
}

// setupLogging installs the default logger. Without file logging, records
// at the configured level go to stderr. With it, the file receives the
// configured level and stderr only warnings and errors.
func setupLogging(cfg *config.Config, cm *config.ConfigManager, stderrWriter io.Writer) {
	level, err := config.ParseLogLevel(cfg.LogLevel)
	if err != nil {
		level = slog.LevelWarn
	}

	if cfg.FileLogging == nil || !cfg.FileLogging.Enabled {
		slog.SetDefault(slog.New(slog.NewTextHandler(stderrWriter, &slog.HandlerOptions{Level: level})))
		slog.Debug("logging setup completed", "level", level.String(), "file_enabled", false)
		return
	}

	logFilePath := cm.ResolveLogFilePath(cfg.FileLogging.Filename)
	logDir := filepath.Dir(logFilePath)
	if err := os.MkdirAll(logDir, 0755); err != nil {
		slog.SetDefault(slog.New(slog.NewTextHandler(stderrWriter, &slog.HandlerOptions{Level: level})))
		slog.Error("failed to create log directory", "path", logDir, "error", err)
		return
	}

	fileWriter := &lumberjack.Logger{
		Filename:   logFilePath,
		MaxSize:    cfg.FileLogging.MaxSizeMB,
		MaxBackups: cfg.FileLogging.MaxBackups,
		MaxAge:     cfg.FileLogging.MaxAgeDays,
		Compress:   cfg.FileLogging.Compress,
	}

	stderrLevel := max(level, slog.LevelWarn)
	handler := NewMultiLevelHandler(
		slog.NewTextHandler(fileWriter, &slog.HandlerOptions{Level: level}),
		slog.NewTextHandler(stderrWriter, &slog.HandlerOptions{Level: stderrLevel}),
	)
	slog.SetDefault(slog.New(handler))

	slog.Debug("logging setup completed",
		"level", level.String(),
		"stderr_level", stderrLevel.String(),
		"file", logFilePath)
}
