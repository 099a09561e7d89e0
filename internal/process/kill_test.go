package process

// Notes:
// - KillProcessGroup with a real group is exercised through the simulator
//   runner tests, which start a shell in its own group and cancel it.
// - Cannot test with PID 0 (kills current process group) or real PIDs here.

import (
	"os/exec"
	"testing"
)

// ---------------------------------------------------------------------------
// TestKillProcessGroup - Invalid PID Handling
// ---------------------------------------------------------------------------

func TestKillProcessGroup_InvalidPID(t *testing.T) {
	t.Parallel()

	if err := KillProcessGroup(999999999); err == nil {
		t.Error("KillProcessGroup(non-existent) returned nil, want error")
	}
}

func TestKillProcessGroup_NonPositivePID(t *testing.T) {
	t.Parallel()

	for _, pid := range []int{0, -1} {
		if err := KillProcessGroup(pid); err == nil {
			t.Errorf("KillProcessGroup(%d) returned nil, want error", pid)
		}
	}
}

func TestSetProcessGroup(t *testing.T) {
	t.Parallel()

	cmd := exec.Command("true")
	SetProcessGroup(cmd)
	if cmd.SysProcAttr == nil {
		t.Fatal("SysProcAttr not set")
	}
	// Idempotent on an existing attribute set.
	SetProcessGroup(cmd)
}
