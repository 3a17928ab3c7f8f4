// Package storage persists whole JSON documents on disk. Each Document owns
// one file and serialises its read-modify-write cycles with a mutex inside
// the process and an advisory file lock across processes; writes land in a
// temp file that is renamed over the target so readers never see a partially
// written document.
package storage

import (
	"bytes"
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/gofrs/flock"

	"github.com/cinereview/backend/internal/apperrors"
)

// Document is a JSON file holding a single value of type T.
type Document[T any] struct {
	path  string
	empty func() T
	mu    sync.RWMutex
	lock  *flock.Flock // <path>.lock, held for the length of an Update
}

// NewDocument returns a Document at path. empty produces the value used when
// the file does not exist yet.
func NewDocument[T any](path string, empty func() T) *Document[T] {
	return &Document[T]{path: path, empty: empty, lock: flock.New(path + ".lock")}
}

// Load reads the current value. A missing or empty file yields the empty
// value; unparseable content is reported as apperrors.ErrStorage.
func (d *Document[T]) Load() (T, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.read()
}

// Update loads the document, applies fn and writes the result back, all
// under the document lock. Other processes updating the same path wait for
// it. If fn returns an error nothing is written.
func (d *Document[T]) Update(fn func(v *T) error) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(d.path), 0o755); err != nil {
		return apperrors.Storage(err, "create %s", filepath.Dir(d.path))
	}
	if err := d.lock.Lock(); err != nil {
		return apperrors.Storage(err, "lock %s", d.path)
	}
	defer d.lock.Unlock()

	v, err := d.read()
	if err != nil {
		return err
	}
	if err := fn(&v); err != nil {
		return err
	}
	return d.write(v)
}

func (d *Document[T]) read() (T, error) {
	data, err := os.ReadFile(d.path)
	if errors.Is(err, fs.ErrNotExist) {
		return d.empty(), nil
	}
	if err != nil {
		return d.empty(), apperrors.Storage(err, "read %s", d.path)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return d.empty(), nil
	}

	v := d.empty()
	if err := json.Unmarshal(data, &v); err != nil {
		return d.empty(), apperrors.Storage(err, "decode %s", d.path)
	}
	return v, nil
}

func (d *Document[T]) write(v T) error {
	data, err := json.MarshalIndent(v, "", "    ")
	if err != nil {
		return apperrors.Storage(err, "encode %s", d.path)
	}
	return WriteFileAtomic(d.path, data, 0o644)
}

// WriteFileAtomic writes data to a temp file next to path, syncs it and
// renames it into place.
func WriteFileAtomic(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return apperrors.Storage(err, "create %s", dir)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return apperrors.Storage(err, "create temp file for %s", path)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) // no-op once renamed

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return apperrors.Storage(err, "write %s", tmpName)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return apperrors.Storage(err, "sync %s", tmpName)
	}
	if err := tmp.Close(); err != nil {
		return apperrors.Storage(err, "close %s", tmpName)
	}
	if err := os.Chmod(tmpName, perm); err != nil {
		return apperrors.Storage(err, "chmod %s", tmpName)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return apperrors.Storage(err, "replace %s", path)
	}
	return nil
}
