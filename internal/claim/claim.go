// Package claim provides at-most-once download intent per destination.
// A claim is a marker file created with O_EXCL, so the filesystem is the
// single point of mutual exclusion across workers and across runs.
// Exclusive-create atomicity is a local-filesystem assumption; it is not
// guaranteed on every network filesystem.
package claim

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/tanq16/grablist/internal/utils"
)

// Store is the atomic key-store behind the manager. TryCreate must be
// atomic with respect to concurrent callers for the same key: at most
// one caller observes (true, nil).
type Store interface {
	TryCreate(key string) (bool, error)
	Remove(key string) error
}

// Error reports a claim primitive failure other than "already exists".
type Error struct {
	Key string
	Err error
}

func (e *Error) Error() string {
	return fmt.Sprintf("claim failed for '%s': %v", e.Key, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func (e *Error) Kind() utils.ErrorKind {
	return utils.KindClaim
}

// FileStore keeps one marker file per key under its directory.
type FileStore struct {
	dir string
}

func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("error creating claim directory: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

func (s *FileStore) path(key string) string {
	return filepath.Join(s.dir, key+".claim")
}

func (s *FileStore) TryCreate(key string) (bool, error) {
	f, err := os.OpenFile(s.path(key), os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0644)
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			return false, nil
		}
		return false, err
	}
	f.Close()
	return true, nil
}

func (s *FileStore) Remove(key string) error {
	return os.Remove(s.path(key))
}

// Manager arbitrates which of possibly many tasks for the same
// destination performs the transfer.
type Manager struct {
	store Store
}

func NewManager(store Store) *Manager {
	return &Manager{store: store}
}

// Acquire claims destPath. It returns true when the caller won the
// claim, false when the destination is already claimed by this run or a
// previous one. Any other store failure comes back as *Error.
func (m *Manager) Acquire(destPath string) (bool, error) {
	key := filepath.Base(destPath)
	ok, err := m.store.TryCreate(key)
	if err != nil {
		return false, &Error{Key: key, Err: err}
	}
	return ok, nil
}

// Release removes the marker after a failed transfer so a later attempt
// can claim the destination again. Markers for successful transfers are
// never released; they are the durable record that the destination was
// produced.
func (m *Manager) Release(destPath string) error {
	key := filepath.Base(destPath)
	if err := m.store.Remove(key); err != nil {
		return &Error{Key: key, Err: err}
	}
	return nil
}
