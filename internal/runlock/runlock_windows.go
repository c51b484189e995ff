//go:build windows

package runlock

import (
	"os"
	"path/filepath"
	"strconv"

	"repomap/internal/errors"
)

const lockName = "run.lock"

// Lock represents an exclusive lock on a project's map generation.
// Windows has no flock; this is a best-effort PID file.
type Lock struct {
	path string
	file *os.File
}

// Acquire attempts to take an exclusive lock on the project's state
// directory. On Windows the check is advisory only.
func Acquire(stateDir string) (*Lock, error) {
	if err := os.MkdirAll(stateDir, 0755); err != nil {
		return nil, errors.New(errors.InternalError, "creating state directory", err)
	}

	path := filepath.Join(stateDir, lockName)

	file, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR|os.O_TRUNC, 0644)
	if err != nil {
		return nil, errors.New(errors.InternalError, "opening lock file", err)
	}

	if _, err := file.WriteString(strconv.Itoa(os.Getpid())); err != nil {
		file.Close()
		return nil, errors.New(errors.InternalError, "writing PID to lock file", err)
	}

	return &Lock{path: path, file: file}, nil
}

// Release releases the lock and removes the lock file.
func (l *Lock) Release() {
	if l == nil || l.file == nil {
		return
	}

	l.file.Close()
	os.Remove(l.path)
}
