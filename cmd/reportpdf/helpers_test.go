package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/neova-apexred/reportpdf"
	"github.com/neova-apexred/reportpdf/internal/config"
)

// ---------------------------------------------------------------------------
// Test Infrastructure
// ---------------------------------------------------------------------------

var fixedNow = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

// testEnv returns an Environment with captured output and vars as the only
// environment variables.
func testEnv(vars map[string]string) (*Environment, *bytes.Buffer, *bytes.Buffer) {
	stdout, stderr := &bytes.Buffer{}, &bytes.Buffer{}
	env := &Environment{
		Now:    func() time.Time { return fixedNow },
		Stdout: stdout,
		Stderr: stderr,
		Getenv: func(k string) string { return vars[k] },
		Environ: func() []string {
			out := make([]string, 0, len(vars))
			for k, v := range vars {
				out = append(out, k+"="+v)
			}
			return out
		},
		Config: config.DefaultConfig(),
	}
	return env, stdout, stderr
}

// setupTestDir creates a temp directory with the given file structure.
// Files map paths to content. Returns the temp directory path.
func setupTestDir(t *testing.T, files map[string]string) string {
	t.Helper()
	tempDir := t.TempDir()

	for path, content := range files {
		fullPath := filepath.Join(tempDir, path)
		if err := os.MkdirAll(filepath.Dir(fullPath), 0o750); err != nil {
			t.Fatalf("failed to create dir for %s: %v", path, err)
		}
		if err := os.WriteFile(fullPath, []byte(content), 0o644); err != nil {
			t.Fatalf("failed to write %s: %v", path, err)
		}
	}

	return tempDir
}

// fakeRenderer records inputs and fails for paths listed in fail.
type fakeRenderer struct {
	mu    sync.Mutex
	calls []reportpdf.Input
	fail  map[string]error
}

func (f *fakeRenderer) Render(_ context.Context, in reportpdf.Input) (*reportpdf.Artifact, error) {
	f.mu.Lock()
	f.calls = append(f.calls, in)
	f.mu.Unlock()

	if err := f.fail[in.Path]; err != nil {
		return nil, err
	}
	return &reportpdf.Artifact{Path: in.Path, PageCount: 2, Tier: reportpdf.TierRich}, nil
}

func (f *fakeRenderer) inputs() []reportpdf.Input {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]reportpdf.Input(nil), f.calls...)
}
