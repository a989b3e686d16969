// Package fs provides the filesystem seam between the prune workflow
// and the operating system.
//
// Two implementations exist:
//   - [Real]: production passthrough to the [os] package
//   - [Injected]: wraps another FS and fails chosen operations, so
//     deletion-failure paths are testable without touching a real disk
//
// Recursive removal is the only mutating operation the cleaner performs
// on the library itself; the report file is written atomically.
package fs

import "os"

// FS defines the filesystem operations the cleaner needs.
type FS interface {
	// ReadFile reads an entire file into memory. See [os.ReadFile].
	ReadFile(path string) ([]byte, error)

	// WriteFileAtomic writes data via a temp file + rename so a crash
	// never leaves a partial file behind.
	WriteFileAtomic(path string, data []byte, perm os.FileMode) error

	// ReadDir reads a directory, entries sorted by name. See [os.ReadDir].
	ReadDir(path string) ([]os.DirEntry, error)

	// Stat returns file metadata. See [os.Stat].
	Stat(path string) (os.FileInfo, error)

	// Remove deletes a single file or empty directory. See [os.Remove].
	Remove(path string) error

	// RemoveAll deletes path and everything it contains.
	// See [os.RemoveAll]; note it reports nil for a missing path, so
	// callers that need "missing is an error" must Stat first.
	RemoveAll(path string) error
}
