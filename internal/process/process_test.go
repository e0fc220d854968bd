package process

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// selfName is the executable name of the running test binary
func selfName(t *testing.T) string {
	t.Helper()
	exe, err := os.Executable()
	if err != nil {
		t.Skipf("cannot resolve test binary: %v", err)
	}
	return filepath.Base(exe)
}

func TestFindSelf(t *testing.T) {
	name := selfName(t)

	info, found, err := Find("not-a-real-process", strings.ToUpper(name))
	if err != nil {
		t.Fatalf("Find() error = %v", err)
	}
	if !found {
		t.Fatalf("Find() did not find the test binary %q", name)
	}
	if info.PID <= 0 {
		t.Errorf("Find() PID = %d", info.PID)
	}
	if !strings.EqualFold(info.Name, name) {
		t.Errorf("Find() Name = %q, want %q", info.Name, name)
	}
}

func TestIsRunning(t *testing.T) {
	if !IsRunning(selfName(t)) {
		t.Error("IsRunning() = false for the test binary")
	}
	if IsRunning("nonexistent-process-12345.exe") {
		t.Error("IsRunning() = true for a made-up name")
	}
	if IsRunning() {
		t.Error("IsRunning() with no names should be false")
	}
}

func TestWaitForTermination_AlreadyTerminated(t *testing.T) {
	start := time.Now()
	if !WaitForTermination(2*time.Second, "nonexistent-process-12345.exe") {
		t.Error("WaitForTermination() should return true for non-running process")
	}
	if elapsed := time.Since(start); elapsed > 500*time.Millisecond {
		t.Errorf("WaitForTermination() took %v, should return quickly for non-running process", elapsed)
	}
}

func TestWaitForTermination_Timeout(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping timing test in short mode")
	}

	start := time.Now()
	if WaitForTermination(300*time.Millisecond, selfName(t)) {
		t.Error("WaitForTermination() returned true while the process runs")
	}
	elapsed := time.Since(start)
	if elapsed < 250*time.Millisecond {
		t.Errorf("WaitForTermination() returned too quickly: %v", elapsed)
	}
	if elapsed > 2*time.Second {
		t.Errorf("WaitForTermination() took too long: %v", elapsed)
	}
}
