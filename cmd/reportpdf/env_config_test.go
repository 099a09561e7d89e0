package main

// Notes:
// - Environment lookups are injected, so these tests run in parallel
//   without t.Setenv.

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/neova-apexred/reportpdf/internal/config"
)

// ---------------------------------------------------------------------------
// TestLoadEnvConfig
// ---------------------------------------------------------------------------

func TestLoadEnvConfig(t *testing.T) {
	t.Parallel()

	vars := map[string]string{
		"REPORTPDF_CONFIG":        "/etc/reportpdf.yaml",
		"REPORTPDF_OUTPUT_DIR":    "/out",
		"REPORTPDF_TITLE":         "Weekly run",
		"REPORTPDF_PAGE_SIZE":     "a4",
		"REPORTPDF_WORKERS":       "3",
		"REPORTPDF_ADDR":          ":9000",
		"REPORTPDF_REPORTS_DIR":   "/srv/reports",
		"REPORTPDF_SIMULATOR_DIR": "/opt/sim",
		"REPORTPDF_MODEL":         "gpt-4o",
	}
	got := loadEnvConfig(func(k string) string { return vars[k] })

	want := envConfig{
		ConfigPath:   "/etc/reportpdf.yaml",
		OutputDir:    "/out",
		Title:        "Weekly run",
		PageSize:     "a4",
		Workers:      3,
		Addr:         ":9000",
		ReportsDir:   "/srv/reports",
		SimulatorDir: "/opt/sim",
		Model:        "gpt-4o",
	}
	if *got != want {
		t.Errorf("loadEnvConfig() = %+v, want %+v", *got, want)
	}
}

func TestLoadEnvConfig_InvalidWorkers(t *testing.T) {
	t.Parallel()

	for _, v := range []string{"abc", "-2", "0"} {
		got := loadEnvConfig(func(k string) string {
			if k == "REPORTPDF_WORKERS" {
				return v
			}
			return ""
		})
		if got.Workers != 0 {
			t.Errorf("REPORTPDF_WORKERS=%q: Workers = %d, want 0", v, got.Workers)
		}
	}
}

// ---------------------------------------------------------------------------
// TestWarnUnknownEnvVars
// ---------------------------------------------------------------------------

func TestWarnUnknownEnvVars(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	warnUnknownEnvVars(&buf, []string{
		"REPORTPDF_OUTPUT_DIR=/out",
		"REPORTPDF_OUTPT_DIR=/typo",
		"HOME=/root",
	})

	out := buf.String()
	if !strings.Contains(out, "REPORTPDF_OUTPT_DIR") {
		t.Errorf("expected warning for typo, got %q", out)
	}
	if strings.Contains(out, "REPORTPDF_OUTPUT_DIR") || strings.Contains(out, "HOME") {
		t.Errorf("unexpected warning: %q", out)
	}
}

// ---------------------------------------------------------------------------
// TestApplyEnvConfig
// ---------------------------------------------------------------------------

func TestApplyEnvConfig(t *testing.T) {
	t.Parallel()

	t.Run("env overrides config file", func(t *testing.T) {
		t.Parallel()

		cfg := config.DefaultConfig()
		cfg.Render.OutputDir = "from-file"
		applyEnvConfig(&envConfig{OutputDir: "from-env", Addr: ":9000", Workers: 2}, cfg)

		if cfg.Render.OutputDir != "from-env" {
			t.Errorf("Render.OutputDir = %q, want from-env", cfg.Render.OutputDir)
		}
		if cfg.Server.Addr != ":9000" {
			t.Errorf("Server.Addr = %q, want :9000", cfg.Server.Addr)
		}
		if cfg.Render.Workers != 2 {
			t.Errorf("Render.Workers = %d, want 2", cfg.Render.Workers)
		}
	})

	t.Run("empty env keeps config", func(t *testing.T) {
		t.Parallel()

		cfg := config.DefaultConfig()
		applyEnvConfig(&envConfig{}, cfg)

		if cfg.Server.Addr != ":8000" || cfg.Simulator.Dir != "v2" || cfg.Generator.Model != "gpt-4o-mini" {
			t.Errorf("defaults changed: %+v", cfg)
		}
	})
}

// ---------------------------------------------------------------------------
// TestLoadConfig
// ---------------------------------------------------------------------------

func TestLoadConfig(t *testing.T) {
	t.Parallel()

	t.Run("no config uses defaults", func(t *testing.T) {
		t.Parallel()

		env, _, _ := testEnv(nil)
		cfg, err := loadConfig("", env)
		if err != nil {
			t.Fatalf("loadConfig() error = %v", err)
		}
		if cfg.Server.Addr != ":8000" {
			t.Errorf("Server.Addr = %q", cfg.Server.Addr)
		}
	})

	t.Run("flag beats env for the config path", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		fromFlag := filepath.Join(dir, "flag.yaml")
		if err := os.WriteFile(fromFlag, []byte("server:\n  addr: \":7000\"\n"), 0o644); err != nil {
			t.Fatal(err)
		}
		env, _, _ := testEnv(map[string]string{"REPORTPDF_CONFIG": filepath.Join(dir, "missing.yaml")})

		cfg, err := loadConfig(fromFlag, env)
		if err != nil {
			t.Fatalf("loadConfig() error = %v", err)
		}
		if cfg.Server.Addr != ":7000" {
			t.Errorf("Server.Addr = %q, want :7000", cfg.Server.Addr)
		}
	})

	t.Run("env overrides file values", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "cfg.yaml")
		if err := os.WriteFile(path, []byte("render:\n  title: File\n"), 0o644); err != nil {
			t.Fatal(err)
		}
		env, _, stderr := testEnv(map[string]string{"REPORTPDF_TITLE": "Env", "REPORTPDF_TYPO": "x"})

		cfg, err := loadConfig(path, env)
		if err != nil {
			t.Fatal(err)
		}
		if cfg.Render.Title != "Env" {
			t.Errorf("Render.Title = %q, want Env", cfg.Render.Title)
		}
		if !strings.Contains(stderr.String(), "REPORTPDF_TYPO") {
			t.Errorf("stderr = %q, want unknown variable warning", stderr)
		}
	})

	t.Run("missing config carries a hint", func(t *testing.T) {
		t.Parallel()

		env, _, _ := testEnv(nil)
		_, err := loadConfig(filepath.Join(t.TempDir(), "nope.yaml"), env)
		if !errors.Is(err, config.ErrConfigNotFound) {
			t.Fatalf("loadConfig() error = %v, want ErrConfigNotFound", err)
		}
		if !strings.Contains(err.Error(), "hint:") {
			t.Errorf("error = %q, want a hint", err)
		}
	})

	t.Run("invalid env value fails validation", func(t *testing.T) {
		t.Parallel()

		env, _, _ := testEnv(map[string]string{"REPORTPDF_WORKERS": "99"})
		if _, err := loadConfig("", env); !errors.Is(err, config.ErrInvalidValue) {
			t.Errorf("loadConfig() error = %v, want ErrInvalidValue", err)
		}
	})
}
