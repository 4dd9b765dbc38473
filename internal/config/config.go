package config

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/afero"
)

// Tool names looked up by the converters
const (
	ToolVGAudio       = "vgaudio"
	ToolParamXML      = "paramxml"
	ToolMotionList    = "motion_list"
	ToolMatLab        = "matlab"
	ToolLuaDecompiler = "lua_decompiler"
	ToolLuaCompiler   = "lua_compiler"
	ToolNutexb        = "nutexb"
	ToolMscDecompiler = "msc_decompiler"
	ToolMscCompiler   = "msc_compiler"
	ToolSqb           = "sqb"
	ToolYmlToByml     = "yml_to_byml"
	ToolBymlToYml     = "byml_to_yml"
)

// RequiredTools lists every tool a converter invokes
var RequiredTools = []string{
	ToolVGAudio, ToolParamXML, ToolMotionList, ToolMatLab,
	ToolLuaDecompiler, ToolLuaCompiler, ToolNutexb, ToolMscDecompiler,
	ToolMscCompiler, ToolSqb, ToolYmlToByml, ToolBymlToYml,
}

// Opus bitrate limits accepted by the encoder
const (
	MinBitrate = 6000
	MaxBitrate = 510000
)

// FileLoggingConfig represents file-based logging configuration
type FileLoggingConfig struct {
	Enabled    bool   `json:"enabled" toml:"enabled"`           // Whether file logging is enabled
	Filename   string `json:"filename" toml:"filename"`         // Log file path (empty = XDG cache path)
	MaxSizeMB  int    `json:"max_size_mb" toml:"max_size_mb"`   // Max file size in MB before rotation
	MaxBackups int    `json:"max_backups" toml:"max_backups"`   // Max number of backup files to keep
	MaxAgeDays int    `json:"max_age_days" toml:"max_age_days"` // Max age in days before deletion
	Compress   bool   `json:"compress" toml:"compress"`         // Whether to compress rotated files
}

// AudioConfig controls the nus3audio encode path
type AudioConfig struct {
	Bitrate         int `json:"bitrate" toml:"bitrate"`                   // Opus CBR bitrate in bits per second
	ResampleQuality int `json:"resample_quality" toml:"resample_quality"` // beep resampler quality, 1-64
}

// ToolConfig is the command line prefix for an external tool
type ToolConfig struct {
	Command string   `json:"command" toml:"command"`
	Args    []string `json:"args,omitempty" toml:"args,omitempty"`
}

// Argv returns the prefix arguments followed by extra
func (t ToolConfig) Argv(extra ...string) []string {
	argv := make([]string, 0, len(t.Args)+len(extra))
	argv = append(argv, t.Args...)
	return append(argv, extra...)
}

// Config represents discord-forge configuration
type Config struct {
	LogLevel    string                `json:"log_level" toml:"log_level"`                           // Log level (debug, info, warn, error)
	StagingDir  string                `json:"staging_dir" toml:"staging_dir"`                       // Shared scratch directory
	ToolsDir    string                `json:"tools_dir" toml:"tools_dir"`                           // Working directory for tools (empty = executable dir)
	Audio       AudioConfig           `json:"audio" toml:"audio"`                                   // Audio encoding settings
	Tools       map[string]ToolConfig `json:"tools" toml:"tools"`                                   // External tool commands
	FileLogging *FileLoggingConfig    `json:"file_logging,omitempty" toml:"file_logging,omitempty"` // File logging configuration
}

// Tool returns the configured command for name
func (c *Config) Tool(name string) ToolConfig {
	return c.Tools[name]
}

// XDGInterface locates config files and the cache dir; tests substitute fixed paths
type XDGInterface interface {
	GetConfigPaths(filename string) []string
	GetCachePath(purpose string) string
}

// ConfigManager handles loading, saving, and validating configuration
type ConfigManager struct {
	xdg XDGInterface
	fs  afero.Fs
}

// NewConfigManagerWithFilesystem creates a configuration manager reading through fsys
func NewConfigManagerWithFilesystem(fsys afero.Fs) *ConfigManager {
	slog.Debug("creating new config manager")
	return &ConfigManager{
		xdg: NewXDGDirs(),
		fs:  fsys,
	}
}

// DefaultTools returns the stock tool layout: tools are installed beside
// the executable and run through their interpreters
func DefaultTools() map[string]ToolConfig {
	return map[string]ToolConfig{
		ToolVGAudio:       {Command: "dotnet", Args: []string{"vgaudio/netcoreapp2.0/VGAudioCli.dll"}},
		ToolParamXML:      {Command: "dotnet", Args: []string{"paramxml/ParamXML.dll"}},
		ToolMotionList:    {Command: "yamlist"},
		ToolMatLab:        {Command: "dotnet", Args: []string{"matlab/MatLab.dll"}},
		ToolLuaDecompiler: {Command: "dotnet", Args: []string{"luadec/DSLuaDecompiler.dll"}},
		ToolLuaCompiler:   {Command: "luac"},
		ToolNutexb:        {Command: "ultimate_tex_cli"},
		ToolMscDecompiler: {Command: "python3", Args: []string{"mscdec/mscdec.py", "-x", "mscdec/mscinfo.xml"}},
		ToolMscCompiler:   {Command: "python3", Args: []string{"msclang/msclang.py", "-x", "msclang/mscinfo.xml"}},
		ToolSqb:           {Command: "sqb_yaml"},
		ToolYmlToByml:     {Command: "yml_to_byml"},
		ToolBymlToYml:     {Command: "byml_to_yml"},
	}
}

// GetDefaultConfig returns the default configuration
func (cm *ConfigManager) GetDefaultConfig() *Config {
	defaultConfig := &Config{
		LogLevel:   "warn",
		StagingDir: "/tmp/converter",
		ToolsDir:   "",
		Audio: AudioConfig{
			Bitrate:         64000,
			ResampleQuality: 4,
		},
		Tools: DefaultTools(),
		FileLogging: &FileLoggingConfig{
			Enabled:    false,
			Filename:   "", // Empty = XDG cache path
			MaxSizeMB:  10,
			MaxBackups: 5,
			MaxAgeDays: 30,
			Compress:   true,
		},
	}

	slog.Debug("generated default config",
		"log_level", defaultConfig.LogLevel,
		"staging_dir", defaultConfig.StagingDir,
		"bitrate", defaultConfig.Audio.Bitrate,
		"tools", len(defaultConfig.Tools))

	return defaultConfig
}

// LoadFromFile loads configuration from a specific file, as TOML when the
// name ends in .toml and JSON otherwise. Fields the file leaves out keep
// their default values; tools are merged by name.
func (cm *ConfigManager) LoadFromFile(filePath string) (*Config, error) {
	slog.Debug("loading config from file", "file_path", filePath)

	data, err := afero.ReadFile(cm.fs, filePath)
	if err != nil {
		slog.Error("failed to read config file", "file_path", filePath, "error", err)
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := cm.GetDefaultConfig()
	if filepath.Ext(filePath) == ".toml" {
		if err := toml.Unmarshal(data, config); err != nil {
			slog.Error("failed to parse config TOML", "file_path", filePath, "error", err)
			return nil, fmt.Errorf("failed to parse config TOML: %w", err)
		}
	} else if err := json.Unmarshal(data, config); err != nil {
		slog.Error("failed to parse config JSON", "file_path", filePath, "error", err)
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	if err := cm.ValidateConfig(config); err != nil {
		slog.Error("config validation failed", "file_path", filePath, "error", err)
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	slog.Debug("config loaded successfully",
		"file_path", filePath,
		"log_level", config.LogLevel,
		"staging_dir", config.StagingDir)

	return config, nil
}

// DefaultConfigPath is where config init writes when no path is given
func (cm *ConfigManager) DefaultConfigPath() string {
	return cm.xdg.GetConfigPaths("config.toml")[0]
}

// SaveToFile writes config to filePath, as TOML when the name ends in
// .toml and as JSON otherwise
func (cm *ConfigManager) SaveToFile(config *Config, filePath string) error {
	slog.Debug("saving config to file", "file_path", filePath)

	if err := cm.ValidateConfig(config); err != nil {
		slog.Error("cannot save invalid config", "error", err)
		return fmt.Errorf("cannot save invalid config: %w", err)
	}

	dir := filepath.Dir(filePath)
	if err := cm.fs.MkdirAll(dir, 0755); err != nil {
		slog.Error("failed to create config directory", "directory", dir, "error", err)
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	var data []byte
	var err error
	if strings.EqualFold(filepath.Ext(filePath), ".toml") {
		data, err = toml.Marshal(config)
	} else {
		data, err = json.MarshalIndent(config, "", "  ")
	}
	if err != nil {
		slog.Error("failed to marshal config", "error", err)
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := afero.WriteFile(cm.fs, filePath, data, 0644); err != nil {
		slog.Error("failed to write config file", "file_path", filePath, "error", err)
		return fmt.Errorf("failed to write config file: %w", err)
	}

	slog.Info("config saved successfully", "file_path", filePath)
	return nil
}

// LoadConfig loads configuration using XDG path discovery. In each
// directory config.json is preferred over config.toml.
func (cm *ConfigManager) LoadConfig() (*Config, error) {
	slog.Debug("loading config using XDG path discovery")

	configPaths := cm.xdg.GetConfigPaths("config.json")

	for i, jsonPath := range configPaths {
		tomlPath := strings.TrimSuffix(jsonPath, ".json") + ".toml"
		for _, configPath := range []string{jsonPath, tomlPath} {
			slog.Debug("checking config path", "path_index", i, "path", configPath)

			if exists, _ := afero.Exists(cm.fs, configPath); exists {
				slog.Debug("found config file", "path", configPath)
				return cm.LoadFromFile(configPath)
			}
		}
	}

	slog.Debug("no config file found, using defaults")
	return cm.GetDefaultConfig(), nil
}

// ValidateConfig validates configuration values, reporting every problem at once
func (cm *ConfigManager) ValidateConfig(config *Config) error {
	var errors []string

	validLogLevels := []string{"debug", "info", "warn", "error"}
	if config.LogLevel != "" {
		valid := false
		for _, level := range validLogLevels {
			if config.LogLevel == level {
				valid = true
				break
			}
		}
		if !valid {
			errors = append(errors, fmt.Sprintf("invalid log level '%s', must be one of: %s",
				config.LogLevel, strings.Join(validLogLevels, ", ")))
		}
	}

	if config.StagingDir == "" {
		errors = append(errors, "staging_dir cannot be empty")
	}

	if config.Audio.Bitrate < MinBitrate || config.Audio.Bitrate > MaxBitrate {
		errors = append(errors, fmt.Sprintf("audio bitrate must be between %d and %d, got %d",
			MinBitrate, MaxBitrate, config.Audio.Bitrate))
	}

	if config.Audio.ResampleQuality < 1 || config.Audio.ResampleQuality > 64 {
		errors = append(errors, fmt.Sprintf("audio resample_quality must be between 1 and 64, got %d",
			config.Audio.ResampleQuality))
	}

	var missing []string
	for _, name := range RequiredTools {
		if config.Tools[name].Command == "" {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		errors = append(errors, fmt.Sprintf("tools without a command: %s", strings.Join(missing, ", ")))
	}

	if config.FileLogging != nil {
		fileLogging := config.FileLogging

		if fileLogging.MaxSizeMB < 0 {
			errors = append(errors, fmt.Sprintf("file logging max_size_mb must be >= 0, got %d", fileLogging.MaxSizeMB))
		}

		if fileLogging.MaxBackups < 0 {
			errors = append(errors, fmt.Sprintf("file logging max_backups must be >= 0, got %d", fileLogging.MaxBackups))
		}

		if fileLogging.MaxAgeDays < 0 {
			errors = append(errors, fmt.Sprintf("file logging max_age_days must be >= 0, got %d", fileLogging.MaxAgeDays))
		}
	}

	if len(errors) > 0 {
		errMsg := strings.Join(errors, "; ")
		slog.Error("config validation failed", "errors", errMsg)
		return fmt.Errorf("config validation failed: %s", errMsg)
	}

	slog.Debug("config validation passed")
	return nil
}

// ApplyEnvironmentOverrides applies environment variable overrides to config
func (cm *ConfigManager) ApplyEnvironmentOverrides(config *Config) *Config {
	slog.Debug("applying environment variable overrides")

	result := *config

	// FORGE_LOG_LEVEL
	if logLevel := os.Getenv("FORGE_LOG_LEVEL"); logLevel != "" {
		result.LogLevel = logLevel
		slog.Debug("applied log level override from environment", "value", logLevel)
	}

	// FORGE_STAGING_DIR
	if stagingDir := os.Getenv("FORGE_STAGING_DIR"); stagingDir != "" {
		result.StagingDir = stagingDir
		slog.Debug("applied staging dir override from environment", "value", stagingDir)
	}

	// FORGE_TOOLS_DIR
	if toolsDir := os.Getenv("FORGE_TOOLS_DIR"); toolsDir != "" {
		result.ToolsDir = toolsDir
		slog.Debug("applied tools dir override from environment", "value", toolsDir)
	}

	// FORGE_AUDIO_BITRATE
	if bitrateStr := os.Getenv("FORGE_AUDIO_BITRATE"); bitrateStr != "" {
		if bitrate, err := strconv.Atoi(bitrateStr); err == nil {
			result.Audio.Bitrate = bitrate
			slog.Debug("applied bitrate override from environment", "value", bitrate)
		} else {
			slog.Warn("invalid FORGE_AUDIO_BITRATE environment variable", "value", bitrateStr, "error", err)
		}
	}

	slog.Debug("environment overrides applied")
	return &result
}

// ParseLogLevel converts a configured level name to a slog level
func ParseLogLevel(logLevel string) (slog.Level, error) {
	switch strings.ToLower(logLevel) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelWarn, fmt.Errorf("invalid log level '%s', must be one of: debug, info, warn, error", logLevel)
	}
}

// ResolveLogFilePath resolves the log file path using XDG cache directory when filename is empty
func (cm *ConfigManager) ResolveLogFilePath(filename string) string {
	if filename != "" {
		return filename
	}

	return filepath.Join(cm.xdg.GetCachePath("logs"), "forge.log")
}
