//go:build !windows

package runlock

import (
	goerrors "errors"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"repomap/internal/errors"
)

func TestAcquireAndRelease(t *testing.T) {
	tmpDir := t.TempDir()

	lock, err := Acquire(tmpDir)
	if err != nil {
		t.Fatalf("Acquire failed: %v", err)
	}
	if lock == nil {
		t.Fatal("expected non-nil lock")
	}

	// Lock file should exist and contain our PID
	lockPath := filepath.Join(tmpDir, lockName)
	content, err := os.ReadFile(lockPath)
	if err != nil {
		t.Fatalf("failed to read lock file: %v", err)
	}

	pid, err := strconv.Atoi(string(content))
	if err != nil {
		t.Fatalf("lock file should contain PID: %v", err)
	}
	if pid != os.Getpid() {
		t.Errorf("PID: got %d, want %d", pid, os.Getpid())
	}

	lock.Release()

	if _, err := os.Stat(lockPath); !os.IsNotExist(err) {
		t.Error("lock file should be removed after release")
	}
}

func TestAcquire_AlreadyLocked(t *testing.T) {
	tmpDir := t.TempDir()

	lock1, err := Acquire(tmpDir)
	if err != nil {
		t.Fatalf("first Acquire failed: %v", err)
	}
	defer lock1.Release()

	lock2, err := Acquire(tmpDir)
	if err == nil {
		lock2.Release()
		t.Fatal("second Acquire should fail when already locked")
	}

	var mapErr *errors.MapError
	if !goerrors.As(err, &mapErr) {
		t.Fatalf("expected *errors.MapError, got %T", err)
	}
	if mapErr.Code != errors.RunInProgress {
		t.Errorf("error code: got %s, want %s", mapErr.Code, errors.RunInProgress)
	}
}

func TestAcquire_CreatesDirectory(t *testing.T) {
	tmpDir := t.TempDir()
	stateDir := filepath.Join(tmpDir, ".repomap")

	if _, err := os.Stat(stateDir); !os.IsNotExist(err) {
		t.Fatal("state directory should not exist yet")
	}

	lock, err := Acquire(stateDir)
	if err != nil {
		t.Fatalf("Acquire failed: %v", err)
	}
	defer lock.Release()

	if _, err := os.Stat(stateDir); os.IsNotExist(err) {
		t.Error("state directory should be created by Acquire")
	}
}

func TestRelease_NilSafe(t *testing.T) {
	// Should not panic
	var lock *Lock
	lock.Release()
}
