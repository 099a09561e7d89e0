package main

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/neova-apexred/reportpdf/internal/config"
	"github.com/neova-apexred/reportpdf/internal/hints"
)

const envPrefix = "REPORTPDF_"

// envConfig holds configuration from environment variables.
// Provides container-friendly overrides without requiring YAML files.
type envConfig struct {
	ConfigPath string // REPORTPDF_CONFIG: config file path
	OutputDir  string // REPORTPDF_OUTPUT_DIR: render output directory
	Title      string // REPORTPDF_TITLE: default report title
	PageSize   string // REPORTPDF_PAGE_SIZE: a4, letter, legal
	Workers    int    // REPORTPDF_WORKERS: parallel workers

	Addr         string // REPORTPDF_ADDR: server listen address
	ReportsDir   string // REPORTPDF_REPORTS_DIR: server report directory
	SimulatorDir string // REPORTPDF_SIMULATOR_DIR: attack simulator module
	Model        string // REPORTPDF_MODEL: generator model
}

// knownEnvVars lists valid REPORTPDF_* environment variables.
var knownEnvVars = map[string]bool{
	"REPORTPDF_CONFIG":        true,
	"REPORTPDF_OUTPUT_DIR":    true,
	"REPORTPDF_TITLE":         true,
	"REPORTPDF_PAGE_SIZE":     true,
	"REPORTPDF_WORKERS":       true,
	"REPORTPDF_ADDR":          true,
	"REPORTPDF_REPORTS_DIR":   true,
	"REPORTPDF_SIMULATOR_DIR": true,
	"REPORTPDF_MODEL":         true,
}

// loadEnvConfig reads configuration from getenv.
// Malformed worker counts are ignored.
func loadEnvConfig(getenv func(string) string) *envConfig {
	cfg := &envConfig{
		ConfigPath:   getenv("REPORTPDF_CONFIG"),
		OutputDir:    getenv("REPORTPDF_OUTPUT_DIR"),
		Title:        getenv("REPORTPDF_TITLE"),
		PageSize:     getenv("REPORTPDF_PAGE_SIZE"),
		Addr:         getenv("REPORTPDF_ADDR"),
		ReportsDir:   getenv("REPORTPDF_REPORTS_DIR"),
		SimulatorDir: getenv("REPORTPDF_SIMULATOR_DIR"),
		Model:        getenv("REPORTPDF_MODEL"),
	}

	if workers := getenv("REPORTPDF_WORKERS"); workers != "" {
		if w, err := strconv.Atoi(workers); err == nil && w > 0 {
			cfg.Workers = w
		}
	}

	return cfg
}

// warnUnknownEnvVars logs warnings for unrecognized REPORTPDF_* variables.
func warnUnknownEnvVars(w io.Writer, environ []string) {
	for _, env := range environ {
		if !strings.HasPrefix(env, envPrefix) {
			continue
		}
		name, _, _ := strings.Cut(env, "=")
		if !knownEnvVars[name] {
			fmt.Fprintf(w, "warning: unknown environment variable %s (typo?)\n", name)
		}
	}
}

// applyEnvConfig applies environment variable values to config.
// Env values win over the config file; CLI flags are merged later and
// win over both.
func applyEnvConfig(env *envConfig, cfg *config.Config) {
	if env.OutputDir != "" {
		cfg.Render.OutputDir = env.OutputDir
	}
	if env.Title != "" {
		cfg.Render.Title = env.Title
	}
	if env.PageSize != "" {
		cfg.Render.Page.Size = env.PageSize
	}
	if env.Workers > 0 {
		cfg.Render.Workers = env.Workers
	}

	if env.Addr != "" {
		cfg.Server.Addr = env.Addr
	}
	if env.ReportsDir != "" {
		cfg.Server.OutputDir = env.ReportsDir
	}
	if env.SimulatorDir != "" {
		cfg.Simulator.Dir = env.SimulatorDir
	}
	if env.Model != "" {
		cfg.Generator.Model = env.Model
	}
}

// loadConfig resolves the config file (flag first, then REPORTPDF_CONFIG),
// then layers environment overrides on top.
func loadConfig(flagConfig string, env *Environment) (*config.Config, error) {
	ec := loadEnvConfig(env.Getenv)
	warnUnknownEnvVars(env.Stderr, env.Environ())

	name := flagConfig
	if name == "" {
		name = ec.ConfigPath
	}

	cfg := config.DefaultConfig()
	if name != "" {
		loaded, err := config.LoadConfig(name)
		if errors.Is(err, config.ErrConfigNotFound) {
			return nil, fmt.Errorf("%w%s", err, hints.ForConfigNotFound(config.SearchPaths(name)))
		}
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	applyEnvConfig(ec, cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
