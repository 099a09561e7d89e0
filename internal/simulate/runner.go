// Package simulate drives the cloud attack simulator whose runs feed report
// generation: it builds the simulator binary on demand, runs technique
// lifecycles, persists their logs and manages the AWS credentials they use.
package simulate

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/neova-apexred/reportpdf/internal/fileutil"
	"github.com/neova-apexred/reportpdf/internal/process"
)

// waitDelay bounds how long Run waits for output pipes after the process
// group was killed.
const waitDelay = 5 * time.Second

// Result is the captured outcome of one command.
// A non-zero ExitCode is a result, not an error.
type Result struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// Runner executes simulator commands.
type Runner interface {
	// Build makes sure the simulator binary exists, building it if needed.
	Build(ctx context.Context) error
	// Run invokes the simulator with args. A nil env inherits the process
	// environment; an empty dir uses the runner's default directory.
	Run(ctx context.Context, args, env []string, dir string) (Result, error)
}

// ExecRunner runs the simulator as a child process. Each command runs in its
// own process group, killed as a whole on cancellation or timeout.
type ExecRunner struct {
	Dir     string        // Simulator module directory
	Binary  string        // Binary path, relative to Dir unless absolute
	Package string        // Package passed to go build
	Timeout time.Duration // Per command, 0 = none
	Log     logrus.FieldLogger

	buildMu sync.Mutex
}

var _ Runner = (*ExecRunner)(nil)

// BinaryPath returns the absolute or Dir-relative simulator binary path.
func (r *ExecRunner) BinaryPath() string {
	if filepath.IsAbs(r.Binary) {
		return r.Binary
	}
	return filepath.Join(r.Dir, r.Binary)
}

// Build compiles the simulator when its binary is missing.
// Concurrent callers wait for a single build.
func (r *ExecRunner) Build(ctx context.Context) error {
	r.buildMu.Lock()
	defer r.buildMu.Unlock()

	info, err := os.Stat(r.Dir)
	if err != nil || !info.IsDir() {
		return fmt.Errorf("%w: %s", ErrSimulatorDir, r.Dir)
	}

	bin := r.BinaryPath()
	if fileutil.FileExists(bin) {
		return nil
	}

	// go build runs inside Dir, so the output path must not be Dir-relative.
	out, err := filepath.Abs(bin)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrBuild, err)
	}

	log := r.logger().WithField("package", r.Package)
	log.Info("simulator binary not found, building")
	res, err := r.exec(ctx, r.Dir, nil, "go", "build", "-o", out, r.Package)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrBuild, err)
	}
	if res.ExitCode != 0 {
		log.WithField("stderr", res.Stderr).Error("simulator build failed")
		return fmt.Errorf("%w: exit code %d: %s", ErrBuild, res.ExitCode, res.Stderr)
	}
	if !fileutil.FileExists(bin) {
		return fmt.Errorf("%w: build succeeded but %s is missing", ErrBuild, bin)
	}
	log.Info("simulator build completed")
	return nil
}

// Run invokes the simulator binary with args.
func (r *ExecRunner) Run(ctx context.Context, args, env []string, dir string) (Result, error) {
	if dir == "" {
		dir = r.Dir
	}
	// Relative command paths resolve against cmd.Dir.
	bin, err := filepath.Abs(r.BinaryPath())
	if err != nil {
		return Result{ExitCode: -1}, fmt.Errorf("%w: %w", ErrCommand, err)
	}
	return r.exec(ctx, dir, env, bin, args...)
}

func (r *ExecRunner) exec(ctx context.Context, dir string, env []string, name string, args ...string) (Result, error) {
	if r.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.Timeout)
		defer cancel()
	}

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir
	cmd.Env = env
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	process.SetProcessGroup(cmd)
	cmd.Cancel = func() error {
		return process.KillProcessGroup(cmd.Process.Pid)
	}
	cmd.WaitDelay = waitDelay

	err := cmd.Run()
	res := Result{Stdout: stdout.String(), Stderr: stderr.String(), ExitCode: -1}
	if cmd.ProcessState != nil {
		res.ExitCode = cmd.ProcessState.ExitCode()
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) && ctx.Err() == nil {
		return res, nil
	}
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return res, fmt.Errorf("%w: %s: %w", ErrCommand, filepath.Base(name), ctxErr)
		}
		return res, fmt.Errorf("%w: %s: %w", ErrCommand, filepath.Base(name), err)
	}
	return res, nil
}

func (r *ExecRunner) logger() logrus.FieldLogger {
	if r.Log == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		return l
	}
	return r.Log
}
