package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/goccy/go-yaml"

	"github.com/neova-apexred/reportpdf/internal/dateutil"
	"github.com/neova-apexred/reportpdf/internal/fileutil"
)

// Sentinel errors for config operations.
var (
	ErrConfigNotFound  = errors.New("config file not found")
	ErrEmptyConfigName = errors.New("config name cannot be empty")
	ErrConfigParse     = errors.New("failed to parse config")
	ErrConfigTooLarge  = errors.New("config file too large")
	ErrFieldTooLong    = errors.New("field exceeds maximum length")
	ErrInvalidDuration = errors.New("invalid duration")
	ErrInvalidValue    = errors.New("invalid value")
)

// AppName names the user config directory.
const AppName = "reportpdf"

// MaxConfigSize bounds the config file read into memory.
const MaxConfigSize = 1 << 20

// Field length limits.
const (
	MaxTitleLength       = 200
	MaxPathLength        = 4096
	MaxAddrLength        = 256
	MaxPageSizeLength    = 10 // "letter", "a4", "legal"
	MaxOrientationLength = 10 // "portrait", "landscape"
	MaxDurationLength    = 20
	MaxModelLength       = 100
	MaxURLLength         = 2048
	MaxEnvNameLength     = 100
	MaxPromptLength      = 4000
	MaxOriginLength      = 256
)

// Worker and concurrency bounds.
const (
	MaxWorkers          = 8
	MaxConcurrentRender = 64
)

// Config holds all configuration for rendering, serving and the
// collaborators the server drives.
type Config struct {
	Render    RenderConfig    `yaml:"render"`
	Server    ServerConfig    `yaml:"server"`
	Simulator SimulatorConfig `yaml:"simulator"`
	Generator GeneratorConfig `yaml:"generator"`
}

// RenderConfig defines document options shared by the CLI and server.
type RenderConfig struct {
	Title      string     `yaml:"title"`      // Default title when a report has no level 1 heading
	OutputDir  string     `yaml:"outputDir"`  // Empty = next to the source file
	Workers    int        `yaml:"workers"`    // 0 = auto
	DateFormat string     `yaml:"dateFormat"` // Footer date: iso, european, us, long or tokens like DD/MM/YYYY
	Page       PageConfig `yaml:"page"`
}

// PageConfig defines PDF page settings. An empty size keeps the default geometry.
type PageConfig struct {
	Size        string  `yaml:"size"`        // "letter", "a4", "legal"
	Orientation string  `yaml:"orientation"` // "portrait", "landscape" (default: "portrait")
	Margin      float64 `yaml:"margin"`      // inches (default: 0.75)
}

// ServerConfig defines the HTTP server.
type ServerConfig struct {
	Addr          string   `yaml:"addr"`
	OutputDir     string   `yaml:"outputDir"`     // Where rendered reports are stored and served from
	MaxRenders    int      `yaml:"maxRenders"`    // Concurrent renders, 0 = auto
	AllowOrigins  []string `yaml:"allowOrigins"`  // CORS origins
	ShutdownGrace string   `yaml:"shutdownGrace"` // e.g. "10s"
}

// SimulatorConfig defines the attack simulator the server drives.
type SimulatorConfig struct {
	Dir             string `yaml:"dir"`             // Module directory, also the working directory of every run
	Binary          string `yaml:"binary"`          // Built binary, relative to dir
	Package         string `yaml:"package"`         // Package built when the binary is missing
	CleanupDelay    string `yaml:"cleanupDelay"`    // Wait between detonate and cleanup
	CommandTimeout  string `yaml:"commandTimeout"`  // Per command
	LogsDir         string `yaml:"logsDir"`         // Run logs, one JSON file per technique
	CredentialsFile string `yaml:"credentialsFile"` // KEY=VALUE file with AWS credentials
}

// GeneratorConfig defines the text generator used for prompt-based reports.
type GeneratorConfig struct {
	Model        string `yaml:"model"`
	BaseURL      string `yaml:"baseURL"`   // Empty = provider default
	APIKeyEnv    string `yaml:"apiKeyEnv"` // Environment variable holding the API key
	SystemPrompt string `yaml:"systemPrompt"`
	Timeout      string `yaml:"timeout"`
}

// DefaultConfig returns the configuration used when no file is given.
func DefaultConfig() *Config {
	return &Config{
		Render: RenderConfig{},
		Server: ServerConfig{
			Addr:          ":8000",
			OutputDir:     "reports",
			AllowOrigins:  []string{"*"},
			ShutdownGrace: "10s",
		},
		Simulator: SimulatorConfig{
			Dir:             "v2",
			Binary:          "neova-apexred",
			Package:         "./cmd/stratus",
			CleanupDelay:    "10s",
			CommandTimeout:  "10m",
			LogsDir:         "attack-logs",
			CredentialsFile: ".env",
		},
		Generator: GeneratorConfig{
			Model:     "gpt-4o-mini",
			APIKeyEnv: "OPENAI_API_KEY",
			SystemPrompt: "You write cloud attack simulation reports. Use '# ' for the title, '## ' for sections, " +
				"'- ' for bullets, **bold** for emphasis and pipe tables with a header row.",
			Timeout: "2m",
		},
	}
}

// Validate checks field lengths, enumerations and durations.
// Called automatically by LoadConfig, but available for consumers
// who construct Config manually.
func (c *Config) Validate() error {
	fields := []struct {
		name  string
		value string
		max   int
	}{
		{"render.title", c.Render.Title, MaxTitleLength},
		{"render.outputDir", c.Render.OutputDir, MaxPathLength},
		{"render.dateFormat", c.Render.DateFormat, dateutil.MaxDateFormatLength},
		{"render.page.size", c.Render.Page.Size, MaxPageSizeLength},
		{"render.page.orientation", c.Render.Page.Orientation, MaxOrientationLength},
		{"server.addr", c.Server.Addr, MaxAddrLength},
		{"server.outputDir", c.Server.OutputDir, MaxPathLength},
		{"server.shutdownGrace", c.Server.ShutdownGrace, MaxDurationLength},
		{"simulator.dir", c.Simulator.Dir, MaxPathLength},
		{"simulator.binary", c.Simulator.Binary, MaxPathLength},
		{"simulator.package", c.Simulator.Package, MaxPathLength},
		{"simulator.cleanupDelay", c.Simulator.CleanupDelay, MaxDurationLength},
		{"simulator.commandTimeout", c.Simulator.CommandTimeout, MaxDurationLength},
		{"simulator.logsDir", c.Simulator.LogsDir, MaxPathLength},
		{"simulator.credentialsFile", c.Simulator.CredentialsFile, MaxPathLength},
		{"generator.model", c.Generator.Model, MaxModelLength},
		{"generator.baseURL", c.Generator.BaseURL, MaxURLLength},
		{"generator.apiKeyEnv", c.Generator.APIKeyEnv, MaxEnvNameLength},
		{"generator.systemPrompt", c.Generator.SystemPrompt, MaxPromptLength},
		{"generator.timeout", c.Generator.Timeout, MaxDurationLength},
	}
	for _, f := range fields {
		if err := validateFieldLength(f.name, f.value, f.max); err != nil {
			return err
		}
	}
	for i, origin := range c.Server.AllowOrigins {
		if err := validateFieldLength(fmt.Sprintf("server.allowOrigins[%d]", i), origin, MaxOriginLength); err != nil {
			return err
		}
	}

	if c.Render.Workers < 0 || c.Render.Workers > MaxWorkers {
		return fmt.Errorf("%w: render.workers must be between 0 and %d, got %d", ErrInvalidValue, MaxWorkers, c.Render.Workers)
	}
	if c.Server.MaxRenders < 0 || c.Server.MaxRenders > MaxConcurrentRender {
		return fmt.Errorf("%w: server.maxRenders must be between 0 and %d, got %d", ErrInvalidValue, MaxConcurrentRender, c.Server.MaxRenders)
	}

	durations := []struct {
		name  string
		value string
	}{
		{"server.shutdownGrace", c.Server.ShutdownGrace},
		{"simulator.cleanupDelay", c.Simulator.CleanupDelay},
		{"simulator.commandTimeout", c.Simulator.CommandTimeout},
		{"generator.timeout", c.Generator.Timeout},
	}
	for _, d := range durations {
		if _, err := ParseDuration(d.name, d.value); err != nil {
			return err
		}
	}

	return nil
}

// ParseDuration parses a duration field. Empty means zero.
func ParseDuration(field, value string) (time.Duration, error) {
	if value == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("%w: %s: %v", ErrInvalidDuration, field, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("%w: %s: must not be negative, got %s", ErrInvalidDuration, field, value)
	}
	return d, nil
}

// validateFieldLength checks if a field exceeds its maximum allowed length.
func validateFieldLength(fieldName, value string, maxLength int) error {
	if len(value) > maxLength {
		return fmt.Errorf("%w: %s (%d chars, max %d)", ErrFieldTooLong, fieldName, len(value), maxLength)
	}
	return nil
}

// LoadConfig loads configuration from a file path or config name.
// If nameOrPath contains a path separator, it's treated as a file path.
// Otherwise, it's treated as a config name and searched in standard locations.
// Fields missing from the file keep their DefaultConfig values.
func LoadConfig(nameOrPath string) (*Config, error) {
	if nameOrPath == "" {
		return nil, ErrEmptyConfigName
	}

	var configPath string
	var err error

	if fileutil.IsFilePath(nameOrPath) {
		configPath = nameOrPath
	} else {
		configPath, err = resolveConfigPath(nameOrPath)
		if err != nil {
			return nil, err
		}
	}

	info, err := os.Stat(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, configPath)
		}
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	if info.Size() > MaxConfigSize {
		return nil, fmt.Errorf("%w: %s (%d bytes, max %d)", ErrConfigTooLarge, configPath, info.Size(), MaxConfigSize)
	}

	data, err := os.ReadFile(configPath) // #nosec G304 -- config path is user-provided
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg := DefaultConfig()
	if err := yaml.UnmarshalWithOptions(data, cfg, yaml.Strict()); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfigParse, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// SearchPaths lists where a config name is looked up, in order.
func SearchPaths(name string) []string {
	extensions := []string{".yaml", ".yml"}
	paths := make([]string, 0, len(extensions)*2)

	for _, ext := range extensions {
		paths = append(paths, name+ext)
	}
	if userConfigDir, err := os.UserConfigDir(); err == nil {
		for _, ext := range extensions {
			paths = append(paths, filepath.Join(userConfigDir, AppName, name+ext))
		}
	}
	return paths
}

// resolveConfigPath searches for a config file by name in standard locations:
// the current directory, then the user config directory.
func resolveConfigPath(name string) (string, error) {
	tried := SearchPaths(name)
	for _, p := range tried {
		if fileutil.FileExists(p) {
			return p, nil
		}
	}
	return "", fmt.Errorf("%w: tried %s", ErrConfigNotFound, strings.Join(tried, ", "))
}
