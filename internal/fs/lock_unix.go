//go:build unix

package fs

import (
	"errors"
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// ErrLocked is returned when another process already holds the lock.
var ErrLocked = errors.New("already locked by another process")

// Lock is a held advisory lock. Close releases it.
type Lock struct {
	file *os.File
}

// Close releases the lock and closes the lock file. Idempotent.
func (l *Lock) Close() error {
	if l.file == nil {
		return nil
	}

	f := l.file
	l.file = nil

	// Closing the descriptor drops the flock.
	return f.Close()
}

// AcquireLock takes a non-blocking exclusive flock on path, creating
// the file if needed. flock is advisory: it only guards against other
// cooperating osuprune processes, which is exactly the interleaved-
// deletion case it exists for.
func AcquireLock(path string) (*Lock, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0o644) //nolint:gosec // lock file inside the user's library
	if err != nil {
		return nil, fmt.Errorf("opening lock file: %w", err)
	}

	if err := unix.Flock(int(f.Fd()), unix.LOCK_EX|unix.LOCK_NB); err != nil {
		_ = f.Close()

		if errors.Is(err, unix.EWOULDBLOCK) {
			return nil, fmt.Errorf("%s: %w", path, ErrLocked)
		}

		return nil, fmt.Errorf("locking %s: %w", path, err)
	}

	return &Lock{file: f}, nil
}
