package simulate

import (
	"context"
	"sync"
)

// Call is one invocation recorded by FakeRunner.
type Call struct {
	Args []string
	Env  []string
	Dir  string
}

// FakeRunner is an in-memory Runner. Results are keyed by the first argument
// (the phase); phases without an entry succeed with empty output.
type FakeRunner struct {
	Results  map[string]Result
	Errs     map[string]error
	BuildErr error

	mu     sync.Mutex
	calls  []Call
	builds int
}

var _ Runner = (*FakeRunner)(nil)

// Build records the call and returns BuildErr.
func (f *FakeRunner) Build(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.builds++
	return f.BuildErr
}

// Run records the call and returns the configured result for args[0].
func (f *FakeRunner) Run(ctx context.Context, args, env []string, dir string) (Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, Call{Args: append([]string(nil), args...), Env: env, Dir: dir})

	var phase string
	if len(args) > 0 {
		phase = args[0]
	}
	if err := f.Errs[phase]; err != nil {
		return Result{ExitCode: -1}, err
	}
	if err := ctx.Err(); err != nil {
		return Result{ExitCode: -1}, err
	}
	return f.Results[phase], nil
}

// Calls returns the recorded Run invocations in order.
func (f *FakeRunner) Calls() []Call {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Call(nil), f.calls...)
}

// Builds returns how many times Build was called.
func (f *FakeRunner) Builds() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.builds
}

// FakeIdentity is an IdentityChecker with a fixed answer.
type FakeIdentity struct {
	Identity *Identity
	Err      error
}

var _ IdentityChecker = FakeIdentity{}

// CallerIdentity returns the configured identity or error.
func (f FakeIdentity) CallerIdentity(ctx context.Context, c Credentials) (*Identity, error) {
	return f.Identity, f.Err
}
