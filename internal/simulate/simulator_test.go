package simulate

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

var awsEnv = []string{
	"PATH=/usr/bin",
	"AWS_ACCESS_KEY_ID=AKIAEXAMPLE",
	"AWS_SECRET_ACCESS_KEY=secret",
	"AWS_REGION=us-east-1",
}

func newTestSimulator(t *testing.T, runner Runner, env []string, opts ...Option) *Simulator {
	t.Helper()
	opts = append([]Option{
		WithLogsDir(filepath.Join(t.TempDir(), "attack-logs")),
		WithSleep(func(context.Context, time.Duration) error { return nil }),
	}, opts...)
	s := New(runner, opts...)
	s.baseEnv = func() []string { return env }
	return s
}

// ---------------------------------------------------------------------------
// TestSimulator_Run - Technique lifecycle
// ---------------------------------------------------------------------------

func TestSimulator_Run(t *testing.T) {
	t.Parallel()

	runner := &FakeRunner{Results: map[string]Result{
		"warmup":   {Stdout: "  warming\nready \n"},
		"detonate": {Stdout: "boom", Stderr: "warn: x\r\nwarn: y", ExitCode: 1},
	}}
	var slept time.Duration
	s := newTestSimulator(t, runner, awsEnv,
		WithCleanupDelay(3*time.Second),
		WithSleep(func(_ context.Context, d time.Duration) error { slept = d; return nil }),
	)

	got, err := s.Run(context.Background(), "aws.defense-evasion.cloudtrail-stop")
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	want := &RunLog{
		TechniqueID:    "aws.defense-evasion.cloudtrail-stop",
		WarmupOutput:   []string{"warming", "ready"},
		WarmupError:    []string{},
		DetonateOutput: []string{"boom"},
		DetonateError:  []string{"warn: x", "warn: y"},
		CleanupOutput:  []string{},
		CleanupError:   []string{},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Run() mismatch (-want +got):\n%s", diff)
	}
	if slept != 3*time.Second {
		t.Errorf("cleanup delay = %v, want 3s", slept)
	}
	if runner.Builds() != 1 {
		t.Errorf("Build called %d times, want 1", runner.Builds())
	}

	var phases []string
	for _, c := range runner.Calls() {
		phases = append(phases, c.Args[0])
		if c.Args[1] != "aws.defense-evasion.cloudtrail-stop" {
			t.Errorf("call %v has wrong technique", c.Args)
		}
	}
	if diff := cmp.Diff([]string{"warmup", "detonate", "cleanup"}, phases); diff != "" {
		t.Errorf("phase order mismatch (-want +got):\n%s", diff)
	}

	saved, err := s.LoadLog("aws.defense-evasion.cloudtrail-stop")
	if err != nil {
		t.Fatalf("LoadLog() error = %v", err)
	}
	if diff := cmp.Diff(want, saved); diff != "" {
		t.Errorf("saved log mismatch (-want +got):\n%s", diff)
	}
}

func TestSimulator_Run_LogEncodesEmptyAsArray(t *testing.T) {
	t.Parallel()

	s := newTestSimulator(t, &FakeRunner{}, awsEnv)
	if _, err := s.Run(context.Background(), "aws.x"); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	data, err := os.ReadFile(s.LogPath("aws.x"))
	if err != nil {
		t.Fatal(err)
	}
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatal(err)
	}
	if _, ok := raw["warmup_output"].([]any); !ok {
		t.Errorf("warmup_output = %#v, want an array", raw["warmup_output"])
	}
}

func TestSimulator_Run_Errors(t *testing.T) {
	t.Parallel()

	startErr := errors.New("exec format error")

	tests := []struct {
		name      string
		technique string
		runner    *FakeRunner
		env       []string
		wantErr   error
		wantCalls int
	}{
		{name: "empty id", technique: "", runner: &FakeRunner{}, env: awsEnv, wantErr: ErrInvalidTechnique},
		{name: "flag-like id", technique: "--help", runner: &FakeRunner{}, env: awsEnv, wantErr: ErrInvalidTechnique},
		{name: "path-like id", technique: "../x", runner: &FakeRunner{}, env: awsEnv, wantErr: ErrInvalidTechnique},
		{name: "build fails", technique: "aws.x", runner: &FakeRunner{BuildErr: ErrBuild}, env: awsEnv, wantErr: ErrBuild},
		{name: "no credentials", technique: "aws.x", runner: &FakeRunner{}, env: []string{"PATH=/usr/bin"}, wantErr: ErrMissingCredentials},
		{
			name: "detonate cannot start", technique: "aws.x",
			runner: &FakeRunner{Errs: map[string]error{"detonate": startErr}}, env: awsEnv,
			wantErr: startErr, wantCalls: 2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			s := newTestSimulator(t, tt.runner, tt.env)
			_, err := s.Run(context.Background(), tt.technique)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Run() error = %v, want %v", err, tt.wantErr)
			}
			if got := len(tt.runner.Calls()); got != tt.wantCalls {
				t.Errorf("runner calls = %d, want %d", got, tt.wantCalls)
			}
			if tt.technique != "" {
				if _, err := os.Stat(s.LogPath(tt.technique)); !os.IsNotExist(err) {
					t.Errorf("run log written on failure, stat error = %v", err)
				}
			}
		})
	}
}

func TestSimulator_Run_CanceledDuringDelay(t *testing.T) {
	t.Parallel()

	runner := &FakeRunner{}
	ctx, cancel := context.WithCancel(context.Background())
	s := newTestSimulator(t, runner, awsEnv, WithSleep(func(ctx context.Context, _ time.Duration) error {
		cancel()
		return ctx.Err()
	}))

	if _, err := s.Run(ctx, "aws.x"); !errors.Is(err, context.Canceled) {
		t.Errorf("Run() error = %v, want context.Canceled", err)
	}
	if got := len(runner.Calls()); got != 2 {
		t.Errorf("runner calls = %d, want 2 (cleanup skipped)", got)
	}
}

func TestSimulator_Run_Busy(t *testing.T) {
	t.Parallel()

	entered := make(chan struct{})
	release := make(chan struct{})
	s := newTestSimulator(t, &FakeRunner{}, awsEnv, WithSleep(func(context.Context, time.Duration) error {
		close(entered)
		<-release
		return nil
	}))

	var wg sync.WaitGroup
	wg.Add(1)
	var firstErr error
	go func() {
		defer wg.Done()
		_, firstErr = s.Run(context.Background(), "aws.x")
	}()
	<-entered

	if _, err := s.Run(context.Background(), "aws.x"); !errors.Is(err, ErrBusy) {
		t.Errorf("second Run() error = %v, want ErrBusy", err)
	}
	close(release)
	wg.Wait()
	if firstErr != nil {
		t.Errorf("first Run() error = %v", firstErr)
	}

	// Released after completion.
	s.sleep = func(context.Context, time.Duration) error { return nil }
	if _, err := s.Run(context.Background(), "aws.x"); err != nil {
		t.Errorf("Run() after release error = %v", err)
	}
}

// ---------------------------------------------------------------------------
// TestSimulator_Environment - Stored credentials overlay the process env
// ---------------------------------------------------------------------------

func TestSimulator_Environment(t *testing.T) {
	t.Parallel()

	store := NewCredentialStore(filepath.Join(t.TempDir(), ".env"))
	if err := store.Save(Credentials{AccessKeyID: "AKIAFILE", SecretAccessKey: "filesecret", Region: "eu-west-1"}); err != nil {
		t.Fatal(err)
	}

	runner := &FakeRunner{}
	s := newTestSimulator(t, runner, []string{"PATH=/usr/bin", "AWS_REGION=us-east-1", "HOME=/root"}, WithCredentials(store))
	if _, err := s.Run(context.Background(), "aws.x"); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	env := runner.Calls()[0].Env
	for key, want := range map[string]string{
		"AWS_ACCESS_KEY_ID": "AKIAFILE",
		"AWS_REGION":        "eu-west-1",
		"HOME":              "/root",
	} {
		if got := lookupEnv(env, key); got != want {
			t.Errorf("env %s = %q, want %q", key, got, want)
		}
	}
}

// ---------------------------------------------------------------------------
// TestSimulator_Revert
// ---------------------------------------------------------------------------

func TestSimulator_Revert(t *testing.T) {
	t.Parallel()

	runner := &FakeRunner{Results: map[string]Result{"revert": {Stdout: "reverted\n", Stderr: "note\n"}}}
	s := newTestSimulator(t, runner, awsEnv)

	got, err := s.Revert(context.Background(), "aws.exfiltration.ec2-share-ami")
	if err != nil {
		t.Fatalf("Revert() error = %v", err)
	}
	if diff := cmp.Diff(&RevertResult{Output: "reverted\n", Error: "note\n"}, got); diff != "" {
		t.Errorf("Revert() mismatch (-want +got):\n%s", diff)
	}
	if calls := runner.Calls(); len(calls) != 1 || calls[0].Args[0] != "revert" {
		t.Errorf("calls = %+v, want one revert", calls)
	}

	if _, err := s.Revert(context.Background(), "Bad Id"); !errors.Is(err, ErrInvalidTechnique) {
		t.Errorf("Revert(bad id) error = %v, want ErrInvalidTechnique", err)
	}
}

func TestSplitLines(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want []string
	}{
		{in: "", want: []string{}},
		{in: " \n\t", want: []string{}},
		{in: "a", want: []string{"a"}},
		{in: "a\r\nb\n\nc\n", want: []string{"a", "b", "", "c"}},
	}
	for _, tt := range tests {
		if diff := cmp.Diff(tt.want, splitLines(tt.in)); diff != "" {
			t.Errorf("splitLines(%q) mismatch (-want +got):\n%s", tt.in, diff)
		}
	}
}
