//go:build windows

package fs

import (
	"errors"
	"fmt"
	"os"
)

// ErrLocked is returned when another process already holds the lock.
var ErrLocked = errors.New("already locked by another process")

// Lock is a held advisory lock. Close releases it.
type Lock struct {
	file *os.File
	path string
}

// Close releases the lock and removes the lock file. Idempotent.
func (l *Lock) Close() error {
	if l.file == nil {
		return nil
	}

	f := l.file
	l.file = nil

	err := f.Close()
	_ = os.Remove(l.path)

	return err
}

// AcquireLock creates the lock file exclusively. Windows has no flock;
// O_EXCL creation gives the same single-runner guarantee as long as the
// file is removed on release.
func AcquireLock(path string) (*Lock, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_RDWR, 0o644)
	if err != nil {
		if errors.Is(err, os.ErrExist) {
			return nil, fmt.Errorf("%s: %w", path, ErrLocked)
		}

		return nil, fmt.Errorf("opening lock file: %w", err)
	}

	return &Lock{file: f, path: path}, nil
}
