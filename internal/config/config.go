package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DefaultConfigPath is where the CLI looks for configuration by default.
const DefaultConfigPath = ".shelf/config.yaml"

// DefaultDotEnvPath is the optional dotenv file consulted for overrides.
const DefaultDotEnvPath = ".env"

// Config holds all shelf configuration.
type Config struct {
	// Core settings
	Name    string `yaml:"name"`
	Version string `yaml:"version"`

	// Persisted library document
	Library LibraryConfig `yaml:"library"`

	// Logging
	Logging LoggingConfig `yaml:"logging"`

	// Terminal rendering
	UI UIConfig `yaml:"ui"`
}

// LibraryConfig configures the persisted document.
type LibraryConfig struct {
	Path   string `yaml:"path"`
	Indent int    `yaml:"indent"` // spaces per level when saving
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Name:    "shelf",
		Version: "1.0.0",

		Library: LibraryConfig{
			Path:   "library.txt",
			Indent: 4,
		},

		Logging: LoggingConfig{
			Level:     "info",
			Format:    "text",
			Dir:       ".shelf/logs",
			DebugMode: false,
		},

		UI: UIConfig{
			Theme: ThemeAuto,
		},
	}
}

// Load loads configuration from a YAML file, then applies .env and
// environment overrides. A missing file yields the defaults.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	case os.IsNotExist(err):
		// defaults
	default:
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	dotenv, err := readDotEnv(DefaultDotEnvPath)
	if err != nil {
		return nil, err
	}
	cfg.applyEnvOverrides(dotenv)

	return cfg, nil
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

// readDotEnv parses a dotenv file without touching the process environment.
func readDotEnv(path string) (map[string]string, error) {
	vals, err := godotenv.Read(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return vals, nil
}

// applyEnvOverrides applies SHELF_* overrides. The process environment
// wins over values from the dotenv file.
func (c *Config) applyEnvOverrides(dotenv map[string]string) {
	lookup := func(key string) string {
		if v := os.Getenv(key); v != "" {
			return v
		}
		return dotenv[key]
	}

	if path := lookup("SHELF_LIBRARY"); path != "" {
		c.Library.Path = path
	}
	if v := lookup("SHELF_DEBUG"); v != "" {
		if on, err := strconv.ParseBool(v); err == nil {
			c.Logging.DebugMode = on
		}
	}
	if level := lookup("SHELF_LOG_LEVEL"); level != "" {
		c.Logging.Level = strings.ToLower(level)
	}
	if dir := lookup("SHELF_LOG_DIR"); dir != "" {
		c.Logging.Dir = dir
	}
	if theme := lookup("SHELF_THEME"); theme != "" {
		c.UI.Theme = Theme(strings.ToLower(theme))
	}
}

// ValidLogLevels lists the accepted logging levels.
var ValidLogLevels = []string{"debug", "info", "warn", "error"}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Library.Path) == "" {
		return fmt.Errorf("library path not configured (set library.path or SHELF_LIBRARY)")
	}
	if c.Library.Indent < 1 {
		return fmt.Errorf("invalid library indent: %d (must be at least 1)", c.Library.Indent)
	}

	validLevel := false
	for _, l := range ValidLogLevels {
		if c.Logging.Level == l {
			validLevel = true
			break
		}
	}
	if !validLevel {
		return fmt.Errorf("invalid log level: %s (valid: %v)", c.Logging.Level, ValidLogLevels)
	}

	if !c.UI.Theme.Valid() {
		return fmt.Errorf("invalid theme: %s (valid: light, dark, auto)", c.UI.Theme)
	}

	return nil
}
