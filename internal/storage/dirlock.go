package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
)

// DirLockName is the file inside the data directory that marks it as owned.
const DirLockName = ".cinereview.lock"

// ErrDirLocked is returned when another process owns the data directory.
var ErrDirLocked = errors.New("data directory is locked by another process")

// DirLock is exclusive ownership of a data directory. The API server holds
// one for its whole lifetime so offline maintenance cannot interleave
// multi-document rewrites with live traffic.
type DirLock struct {
	lock *flock.Flock
}

// LockDir takes the data directory lock without waiting.
func LockDir(dir string) (*DirLock, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create %s: %w", dir, err)
	}

	path := filepath.Join(dir, DirLockName)
	lock := flock.New(path)
	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("lock %s: %w", path, err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrDirLocked, path)
	}
	return &DirLock{lock: lock}, nil
}

// Unlock releases the directory.
func (l *DirLock) Unlock() error {
	return l.lock.Unlock()
}
