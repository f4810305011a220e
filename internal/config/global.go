package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/open-edge-platform/pkg-depscan/internal/config/validate"
	"github.com/open-edge-platform/pkg-depscan/internal/utils/logger"
	"github.com/open-edge-platform/pkg-depscan/internal/utils/security"
	"github.com/open-edge-platform/pkg-depscan/internal/utils/slice"
)

// GlobalConfig holds tool-level configuration parameters
type GlobalConfig struct {
	// Core tool settings
	Workers int `yaml:"workers" json:"workers"` // Number of concurrent scan workers (1-100, default: 8)

	// Report defaults; overridable per run on the command line
	Report ReportConfig `yaml:"report" json:"report"`

	// Logging configuration
	Logging LoggingConfig `yaml:"logging" json:"logging"` // Logging behavior settings
}

// ReportConfig controls how scan reports are written by default
type ReportConfig struct {
	Format string `yaml:"format" json:"format"`                 // Report serialization format: json (default) or yaml
	Path   string `yaml:"path,omitempty" json:"path,omitempty"` // Default report output path
}

// LoggingConfig controls basic logging behavior
type LoggingConfig struct {
	Level string `yaml:"level" json:"level"`                   // Log verbosity level: debug, info (default), warn, error
	File  string `yaml:"file,omitempty" json:"file,omitempty"` // Optional log file path for teeing output to disk
}

// Global singleton variables
var (
	globalInstance *GlobalConfig
	globalMutex    sync.RWMutex
	once           sync.Once
)

// SetGlobal sets the global config instance (call once at startup in main.go)
func SetGlobal(config *GlobalConfig) {
	globalMutex.Lock()
	defer globalMutex.Unlock()
	globalInstance = config
}

// Global returns the global config instance
func Global() *GlobalConfig {
	once.Do(func() {
		globalMutex.Lock()
		defer globalMutex.Unlock()
		if globalInstance == nil {
			globalInstance = DefaultGlobalConfig()
		}
	})

	globalMutex.RLock()
	defer globalMutex.RUnlock()
	return globalInstance
}

// Workers returns the configured worker count.
func Workers() int {
	return Global().Workers
}

// DefaultGlobalConfig returns a GlobalConfig with sensible defaults
func DefaultGlobalConfig() *GlobalConfig {
	return &GlobalConfig{
		Workers: 8,
		Report: ReportConfig{
			Format: "json",
		},
		Logging: LoggingConfig{
			Level: "info",
			File:  "",
		},
	}
}

// LoadGlobalConfig loads configuration from the specified path
func LoadGlobalConfig(configPath string) (*GlobalConfig, error) {
	// Start with defaults
	config := DefaultGlobalConfig()

	// If no config file specified or doesn't exist, return defaults
	if configPath == "" {
		return config, nil
	}

	if _, err := os.Stat(configPath); err != nil {
		if os.IsNotExist(err) {
			return config, nil // Return defaults if file doesn't exist
		}
		if errors.Is(err, os.ErrPermission) {
			logger.Logger().Warnf("Config file %s is not accessible (%v); using defaults", configPath, err)
			return config, nil
		}
		logger.Logger().Errorf("Error accessing config file %s: %v", configPath, err)
		return nil, fmt.Errorf("accessing config file %s: %w", configPath, err)
	}

	// Load and merge config file values with symlink protection
	data, err := security.SafeReadFile(configPath, security.RejectSymlinks)
	if err != nil {
		logger.Logger().Errorf("Error reading config file %s: %v", configPath, err)
		return nil, fmt.Errorf("reading config file %s: %w", configPath, err)
	}

	// Determine format by extension
	ext := strings.ToLower(filepath.Ext(configPath))
	switch ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, config); err != nil {
			logger.Logger().Errorf("Error parsing YAML config: %v", err)
			return nil, fmt.Errorf("parsing YAML config: %w", err)
		}

		// Convert to JSON for schema validation
		jsonData, err := json.Marshal(config)
		if err != nil {
			logger.Logger().Errorf("Error converting config to JSON for validation: %v", err)
			return nil, fmt.Errorf("converting config to JSON for validation: %w", err)
		}

		// Validate against schema
		if err := validate.ValidateConfigJSON(jsonData); err != nil {
			logger.Logger().Errorf("Schema validation failed: %v", err)
			return nil, fmt.Errorf("schema validation failed: %w", err)
		}

	default:
		logger.Logger().Errorf("Unsupported config file format: %s", ext)
		return nil, fmt.Errorf("unsupported config file format: %s (supported: .yaml, .yml)", ext)
	}

	// Validate the final configuration
	if err := config.Validate(); err != nil {
		logger.Logger().Errorf("Config validation failed: %v", err)
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return config, nil
}

// SaveGlobalConfig saves the configuration to the specified path
func (gc *GlobalConfig) SaveGlobalConfig(configPath string) error {
	// Ensure directory exists
	dir := filepath.Dir(configPath)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0700); err != nil {
			logger.Logger().Errorf("Failed to create config directory: %v", err)
			return fmt.Errorf("creating config directory: %w", err)
		}
	}

	// Convert to JSON for schema validation before saving
	jsonData, err := json.Marshal(gc)
	if err != nil {
		logger.Logger().Errorf("Error converting config to JSON for validation: %v", err)
		return fmt.Errorf("converting config to JSON for validation: %w", err)
	}

	if err := validate.ValidateConfigJSON(jsonData); err != nil {
		logger.Logger().Errorf("Config validation failed before save: %v", err)
		return fmt.Errorf("config validation failed before save: %w", err)
	}

	// Marshal to YAML
	data, err := yaml.Marshal(gc)
	if err != nil {
		logger.Logger().Errorf("Error marshaling config to YAML: %v", err)
		return fmt.Errorf("marshaling config to YAML: %w", err)
	}

	// Use safe write to prevent symlink attacks
	if err := security.SafeWriteFile(configPath, data, 0600, security.RejectSymlinks); err != nil {
		logger.Logger().Errorf("Error writing config file: %v", err)
		return fmt.Errorf("writing config file: %w", err)
	}

	return nil
}

// SaveGlobalConfigWithComments saves the configuration with descriptive
// comments. Primarily used by the CLI config init command to create a
// user-friendly starting file.
func (gc *GlobalConfig) SaveGlobalConfigWithComments(configPath string) error {
	if configPath == "" {
		return fmt.Errorf("config path is empty")
	}

	dir := filepath.Dir(configPath)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0700); err != nil {
			logger.Logger().Errorf("Failed to create config directory: %v", err)
			return fmt.Errorf("creating config directory: %w", err)
		}
	}

	jsonData, err := json.Marshal(gc)
	if err != nil {
		logger.Logger().Errorf("Error converting config to JSON for validation: %v", err)
		return fmt.Errorf("converting config to JSON for validation: %w", err)
	}

	if err := validate.ValidateConfigJSON(jsonData); err != nil {
		logger.Logger().Errorf("Config validation failed before save: %v", err)
		return fmt.Errorf("config validation failed before save: %w", err)
	}

	commented := gc.renderCommentedYAML()

	if err := security.SafeWriteFile(configPath, []byte(commented), 0600, security.RejectSymlinks); err != nil {
		logger.Logger().Errorf("Error writing config file: %v", err)
		return fmt.Errorf("writing config file: %w", err)
	}

	return nil
}

// renderCommentedYAML builds a YAML representation of the config with rich comments.
func (gc *GlobalConfig) renderCommentedYAML() string {
	var b strings.Builder

	b.WriteString("# pkg-depscan - Global Configuration\n")
	b.WriteString("# This file contains tool-level settings that apply across all scans.\n")
	b.WriteString("# Scan-specific parameters belong in the scan manifest.\n\n")

	b.WriteString("# Core tool settings\n")
	fmt.Fprintf(&b, "workers: %d\n", gc.Workers)
	b.WriteString("# Number of concurrent scan workers (1-100, default: 8)\n")
	b.WriteString("# Scanning is CPU- and IO-light per file; 8-16 suits most systems\n\n")

	b.WriteString("# Report defaults\n")
	b.WriteString("report:\n")
	fmt.Fprintf(&b, "  format: %q\n", gc.Report.Format)
	b.WriteString("  # Report serialization format: json (default) or yaml\n")
	if gc.Report.Path != "" {
		fmt.Fprintf(&b, "  path: %q\n", gc.Report.Path)
		b.WriteString("  # Default report output path; .gz/.zst/.xz extensions enable compression\n")
	}
	b.WriteString("\n")

	b.WriteString("# Logging configuration\n")
	b.WriteString("logging:\n")
	fmt.Fprintf(&b, "  level: %q\n", gc.Logging.Level)
	b.WriteString("  # Log verbosity level (default: info)\n")
	b.WriteString("  # - debug: Most verbose, shows every analyzed file\n")
	b.WriteString("  # - info:  Normal output, shows progress and important events\n")
	b.WriteString("  # - warn:  Only warnings and errors, minimal output\n")
	b.WriteString("  # - error: Only errors, very quiet operation\n")
	if gc.Logging.File != "" {
		fmt.Fprintf(&b, "  file: %q\n", gc.Logging.File)
		b.WriteString("  # Tee logs to this file in addition to stderr (overwritten on each run)\n")
	}

	return b.String()
}

// Validate checks the configuration for out-of-range values.
func (gc *GlobalConfig) Validate() error {
	// Validate workers range
	if gc.Workers <= 0 {
		logger.Logger().Errorf("Workers must be greater than 0, got %d", gc.Workers)
		return fmt.Errorf("workers must be greater than 0, got %d", gc.Workers)
	}
	if gc.Workers > 100 {
		logger.Logger().Errorf("Workers cannot exceed 100, got %d", gc.Workers)
		return fmt.Errorf("workers cannot exceed 100, got %d", gc.Workers)
	}

	// Validate report format
	validFormats := []string{"json", "yaml", "yml"}
	if !slice.Contains(validFormats, strings.ToLower(gc.Report.Format)) {
		return fmt.Errorf("invalid report format %q, must be one of: %s",
			gc.Report.Format, strings.Join(validFormats, ", "))
	}

	// Validate logging level
	validLevels := []string{"debug", "info", "warn", "warning", "error"}
	if !slice.Contains(validLevels, gc.Logging.Level) {
		return fmt.Errorf("invalid log level %q, must be one of: %s",
			gc.Logging.Level, strings.Join(validLevels, ", "))
	}

	gc.Logging.File = strings.TrimSpace(gc.Logging.File)

	return nil
}

// GetConfigPaths returns the standard configuration file paths to check
func GetConfigPaths() []string {
	homeDir, _ := os.UserHomeDir()

	paths := []string{
		"pkg-depscan.yml",   // Primary config location (root directory)
		".pkg-depscan.yml",  // Hidden file in current directory
		"pkg-depscan.yaml",  // Alternative extension
		".pkg-depscan.yaml", // Hidden file alternative
	}

	if homeDir != "" {
		paths = append(paths,
			filepath.Join(homeDir, ".pkg-depscan", "config.yml"),
			filepath.Join(homeDir, ".pkg-depscan", "config.yaml"),
			filepath.Join(homeDir, ".config", "pkg-depscan", "config.yml"),
			filepath.Join(homeDir, ".config", "pkg-depscan", "config.yaml"),
		)
	}

	// System-wide config paths
	paths = append(paths,
		"/etc/pkg-depscan/config.yml",
		"/etc/pkg-depscan/config.yaml",
	)

	return paths
}

// FindConfigFile searches for a configuration file in standard locations
func FindConfigFile() string {
	for _, path := range GetConfigPaths() {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}
