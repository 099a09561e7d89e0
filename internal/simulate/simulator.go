package simulate

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/natefinch/atomic"
	"github.com/sirupsen/logrus"
)

// DefaultCleanupDelay is the wait between detonate and cleanup.
const DefaultCleanupDelay = 10 * time.Second

// Technique ids look like "aws.defense-evasion.cloudtrail-stop".
var techniqueID = regexp.MustCompile(`^[a-z0-9][a-z0-9.\-]*$`)

// RunLog records the three lifecycle phases of one technique run. Output is
// split into lines with surrounding whitespace trimmed.
type RunLog struct {
	TechniqueID    string   `json:"technique_id"`
	WarmupOutput   []string `json:"warmup_output"`
	WarmupError    []string `json:"warmup_error"`
	DetonateOutput []string `json:"detonate_output"`
	DetonateError  []string `json:"detonate_error"`
	CleanupOutput  []string `json:"cleanup_output"`
	CleanupError   []string `json:"cleanup_error"`
}

// RevertResult is the raw output of a revert.
type RevertResult struct {
	Output string `json:"output"`
	Error  string `json:"error"`
}

// Option configures a Simulator.
type Option func(*Simulator)

// WithLogsDir sets where run logs are written.
func WithLogsDir(dir string) Option {
	return func(s *Simulator) { s.logsDir = dir }
}

// WithCleanupDelay sets the wait between detonate and cleanup.
func WithCleanupDelay(d time.Duration) Option {
	return func(s *Simulator) { s.cleanupDelay = d }
}

// WithCredentials sets the credential store merged into every run's environment.
func WithCredentials(store *CredentialStore) Option {
	return func(s *Simulator) { s.creds = store }
}

// WithLogger sets the logger.
func WithLogger(l logrus.FieldLogger) Option {
	return func(s *Simulator) {
		if l != nil {
			s.log = l
		}
	}
}

// WithSleep replaces the cleanup wait, mainly for tests.
func WithSleep(sleep func(context.Context, time.Duration) error) Option {
	return func(s *Simulator) { s.sleep = sleep }
}

// Simulator runs technique lifecycles through a Runner. Runs of different
// techniques may proceed concurrently; a technique already in flight is
// refused with ErrBusy.
type Simulator struct {
	runner       Runner
	creds        *CredentialStore
	logsDir      string
	cleanupDelay time.Duration
	sleep        func(context.Context, time.Duration) error
	log          logrus.FieldLogger
	baseEnv      func() []string

	mu       sync.Mutex
	inFlight map[string]struct{}
}

// New returns a Simulator driving runner.
func New(runner Runner, opts ...Option) *Simulator {
	discard := logrus.New()
	discard.SetOutput(io.Discard)

	s := &Simulator{
		runner:       runner,
		logsDir:      "attack-logs",
		cleanupDelay: DefaultCleanupDelay,
		sleep:        sleepContext,
		log:          discard,
		baseEnv:      os.Environ,
		inFlight:     make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ValidateTechnique rejects ids that are empty or could smuggle flags or paths.
func ValidateTechnique(id string) error {
	if !techniqueID.MatchString(id) {
		return fmt.Errorf("%w: %q", ErrInvalidTechnique, id)
	}
	return nil
}

// Run executes warmup, detonate and cleanup for technique, waiting the
// cleanup delay between detonate and cleanup. Non-zero exits are recorded in
// the log, not returned. The log is saved to <logsDir>/<technique>.json.
func (s *Simulator) Run(ctx context.Context, technique string) (*RunLog, error) {
	if err := ValidateTechnique(technique); err != nil {
		return nil, err
	}
	release, err := s.acquire(technique)
	if err != nil {
		return nil, err
	}
	defer release()

	log := s.log.WithField("technique", technique)

	if err := s.runner.Build(ctx); err != nil {
		return nil, err
	}
	env, err := s.environment()
	if err != nil {
		return nil, err
	}

	phases := []string{"warmup", "detonate", "cleanup"}
	results := make([]Result, len(phases))
	for i, phase := range phases {
		if phase == "cleanup" {
			log.WithField("delay", s.cleanupDelay).Info("waiting before cleanup")
			if err := s.sleep(ctx, s.cleanupDelay); err != nil {
				return nil, err
			}
		}
		log.WithField("phase", phase).Info("running technique phase")
		res, err := s.runner.Run(ctx, []string{phase, technique}, env, "")
		if err != nil {
			return nil, fmt.Errorf("%s %s: %w", phase, technique, err)
		}
		if res.ExitCode != 0 {
			log.WithFields(logrus.Fields{"phase": phase, "exit_code": res.ExitCode}).Warn("technique phase exited non-zero")
		}
		results[i] = res
	}

	runLog := &RunLog{
		TechniqueID:    technique,
		WarmupOutput:   splitLines(results[0].Stdout),
		WarmupError:    splitLines(results[0].Stderr),
		DetonateOutput: splitLines(results[1].Stdout),
		DetonateError:  splitLines(results[1].Stderr),
		CleanupOutput:  splitLines(results[2].Stdout),
		CleanupError:   splitLines(results[2].Stderr),
	}

	path, err := s.saveLog(runLog)
	if err != nil {
		return nil, err
	}
	log.WithField("path", path).Info("attack log saved")
	return runLog, nil
}

// Revert undoes the persistent effects of technique.
func (s *Simulator) Revert(ctx context.Context, technique string) (*RevertResult, error) {
	if err := ValidateTechnique(technique); err != nil {
		return nil, err
	}
	if err := s.runner.Build(ctx); err != nil {
		return nil, err
	}
	env, err := s.environment()
	if err != nil {
		return nil, err
	}

	s.log.WithField("technique", technique).Info("reverting technique")
	res, err := s.runner.Run(ctx, []string{"revert", technique}, env, "")
	if err != nil {
		return nil, fmt.Errorf("revert %s: %w", technique, err)
	}
	return &RevertResult{Output: res.Stdout, Error: res.Stderr}, nil
}

// LogPath returns where the run log of technique is stored.
func (s *Simulator) LogPath(technique string) string {
	return filepath.Join(s.logsDir, technique+".json")
}

// LoadLog reads a saved run log.
func (s *Simulator) LoadLog(technique string) (*RunLog, error) {
	if err := ValidateTechnique(technique); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(s.LogPath(technique))
	if err != nil {
		return nil, fmt.Errorf("reading run log: %w", err)
	}
	var runLog RunLog
	if err := json.Unmarshal(data, &runLog); err != nil {
		return nil, fmt.Errorf("decoding run log: %w", err)
	}
	return &runLog, nil
}

// environment returns the process environment with stored credentials laid
// over it, and checks every required variable is present.
func (s *Simulator) environment() ([]string, error) {
	vars := map[string]string{}
	if s.creds != nil {
		loaded, err := s.creds.Load()
		if err != nil {
			return nil, err
		}
		for k, v := range loaded {
			if v != "" {
				vars[k] = v
			}
		}
	}
	env := mergeEnv(s.baseEnv(), vars)

	var absent []string
	for _, key := range requiredEnv {
		if lookupEnv(env, key) == "" {
			absent = append(absent, key)
		}
	}
	if len(absent) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrMissingCredentials, strings.Join(absent, ", "))
	}
	return env, nil
}

func (s *Simulator) acquire(technique string) (func(), error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.inFlight[technique]; ok {
		return nil, fmt.Errorf("%w: %s", ErrBusy, technique)
	}
	s.inFlight[technique] = struct{}{}
	return func() {
		s.mu.Lock()
		delete(s.inFlight, technique)
		s.mu.Unlock()
	}, nil
}

func (s *Simulator) saveLog(runLog *RunLog) (string, error) {
	if err := os.MkdirAll(s.logsDir, 0o750); err != nil {
		return "", fmt.Errorf("%w: %w", ErrRunLog, err)
	}
	data, err := json.MarshalIndent(runLog, "", "    ")
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrRunLog, err)
	}
	path := s.LogPath(runLog.TechniqueID)
	if err := atomic.WriteFile(path, bytes.NewReader(data)); err != nil {
		return "", fmt.Errorf("%w: %w", ErrRunLog, err)
	}
	return path, nil
}

// splitLines trims s and splits it into lines. Empty input gives an empty,
// non-nil slice so it encodes as [].
func splitLines(s string) []string {
	s = strings.TrimSpace(s)
	if s == "" {
		return []string{}
	}
	lines := strings.Split(strings.ReplaceAll(s, "\r\n", "\n"), "\n")
	for i, l := range lines {
		lines[i] = strings.TrimRight(l, "\r")
	}
	return lines
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
