package fs

import (
	"errors"
	"os"
	"sync"
)

// InjectedError marks an error as intentionally injected by [Injected].
// It wraps the underlying error so errors.Is/As keep working.
type InjectedError struct {
	Err error
}

// Error returns the underlying error's message.
func (e *InjectedError) Error() string { return e.Err.Error() }

// Unwrap returns the underlying error.
func (e *InjectedError) Unwrap() error { return e.Err }

// IsInjected reports whether err (or any wrapped error) was injected.
func IsInjected(err error) bool {
	var injected *InjectedError

	return errors.As(err, &injected)
}

// Operation names accepted by [Injected.Fail].
const (
	OpReadFile        = "ReadFile"
	OpWriteFileAtomic = "WriteFileAtomic"
	OpReadDir         = "ReadDir"
	OpStat            = "Stat"
	OpRemove          = "Remove"
	OpRemoveAll       = "RemoveAll"
)

// Injected wraps another [FS] and fails selected (operation, path)
// pairs with a chosen error. Unregistered calls pass through.
//
// Safe for concurrent use.
type Injected struct {
	// Inner handles all calls that have no registered failure.
	Inner FS

	mu       sync.Mutex
	failures map[failureKey]error
}

type failureKey struct {
	op   string
	path string
}

// NewInjected wraps inner with no failures registered.
func NewInjected(inner FS) *Injected {
	return &Injected{
		Inner:    inner,
		failures: make(map[failureKey]error),
	}
}

// Fail registers err for the given operation and path. The error is
// returned (wrapped in [InjectedError]) on every matching call until
// [Injected.Clear].
func (i *Injected) Fail(op, path string, err error) {
	i.mu.Lock()
	defer i.mu.Unlock()

	i.failures[failureKey{op: op, path: path}] = err
}

// Clear removes all registered failures.
func (i *Injected) Clear() {
	i.mu.Lock()
	defer i.mu.Unlock()

	i.failures = make(map[failureKey]error)
}

func (i *Injected) injected(op, path string) error {
	i.mu.Lock()
	defer i.mu.Unlock()

	if err, ok := i.failures[failureKey{op: op, path: path}]; ok {
		return &InjectedError{Err: err}
	}

	return nil
}

func (i *Injected) ReadFile(path string) ([]byte, error) {
	if err := i.injected(OpReadFile, path); err != nil {
		return nil, err
	}

	return i.Inner.ReadFile(path)
}

func (i *Injected) WriteFileAtomic(path string, data []byte, perm os.FileMode) error {
	if err := i.injected(OpWriteFileAtomic, path); err != nil {
		return err
	}

	return i.Inner.WriteFileAtomic(path, data, perm)
}

func (i *Injected) ReadDir(path string) ([]os.DirEntry, error) {
	if err := i.injected(OpReadDir, path); err != nil {
		return nil, err
	}

	return i.Inner.ReadDir(path)
}

func (i *Injected) Stat(path string) (os.FileInfo, error) {
	if err := i.injected(OpStat, path); err != nil {
		return nil, err
	}

	return i.Inner.Stat(path)
}

func (i *Injected) Remove(path string) error {
	if err := i.injected(OpRemove, path); err != nil {
		return err
	}

	return i.Inner.Remove(path)
}

func (i *Injected) RemoveAll(path string) error {
	if err := i.injected(OpRemoveAll, path); err != nil {
		return err
	}

	return i.Inner.RemoveAll(path)
}
