//go:build !windows

package runlock

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"

	"repomap/internal/errors"
)

const lockName = "run.lock"

// Lock represents an exclusive lock on a project's map generation.
type Lock struct {
	path string
	file *os.File
}

// Acquire attempts to take an exclusive lock on the project's state
// directory. Returns a RUN_IN_PROGRESS error if another process holds it.
func Acquire(stateDir string) (*Lock, error) {
	if err := os.MkdirAll(stateDir, 0755); err != nil {
		return nil, errors.New(errors.InternalError, "creating state directory", err)
	}

	path := filepath.Join(stateDir, lockName)

	file, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0644)
	if err != nil {
		return nil, errors.New(errors.InternalError, "opening lock file", err)
	}

	// Non-blocking: a generate triggered by a git hook must fail fast when
	// a watch session is already regenerating the map.
	if err := syscall.Flock(int(file.Fd()), syscall.LOCK_EX|syscall.LOCK_NB); err != nil {
		_ = file.Close()

		msg := "another map generation is already running"
		if content, readErr := os.ReadFile(path); readErr == nil && len(content) > 0 {
			pid := strings.TrimSpace(string(content))
			msg = fmt.Sprintf("another map generation is already running (PID %s)", pid)
		}
		return nil, errors.New(errors.RunInProgress, msg, nil)
	}

	if err := file.Truncate(0); err != nil {
		_ = syscall.Flock(int(file.Fd()), syscall.LOCK_UN)
		_ = file.Close()
		return nil, errors.New(errors.InternalError, "truncating lock file", err)
	}

	if _, err := file.Seek(0, 0); err != nil {
		_ = syscall.Flock(int(file.Fd()), syscall.LOCK_UN)
		_ = file.Close()
		return nil, errors.New(errors.InternalError, "seeking lock file", err)
	}

	if _, err := file.WriteString(strconv.Itoa(os.Getpid())); err != nil {
		_ = syscall.Flock(int(file.Fd()), syscall.LOCK_UN)
		_ = file.Close()
		return nil, errors.New(errors.InternalError, "writing PID to lock file", err)
	}

	return &Lock{path: path, file: file}, nil
}

// Release releases the lock and removes the lock file.
func (l *Lock) Release() {
	if l == nil || l.file == nil {
		return
	}

	_ = syscall.Flock(int(l.file.Fd()), syscall.LOCK_UN)
	_ = l.file.Close()
	_ = os.Remove(l.path)
}
