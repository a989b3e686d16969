// Package collection decodes the osu! collection.db file into the set of
// difficulty checksums referenced by any named collection.
//
// Decoding is all-or-nothing: a partially read database would silently
// fail to protect mapsets it actually references, so any error aborts
// the whole decode.
package collection

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrUnsupportedVersion is returned when the database's format version
// is outside the range this decoder understands. The layout is rejected
// rather than guessed.
var ErrUnsupportedVersion = errors.New("unsupported collection.db version")

// The osu! client stamps collection.db with its yyyymmdd build date.
// Version 1 is the floor some very old exports used.
const (
	minVersion = 1
	maxVersion = 20991231
)

// Database is the decoded, read-only view of collection.db: which
// collections reference each difficulty checksum.
type Database struct {
	Version int32

	// byChecksum maps a difficulty's MD5 hex checksum to the names of
	// the collections referencing it.
	byChecksum map[string][]string

	collections int
}

// Decode parses the full contents of a collection.db file.
func Decode(data []byte) (*Database, error) {
	r := NewReader(data)

	version, err := r.Int32()
	if err != nil {
		return nil, fmt.Errorf("reading version: %w", err)
	}

	if version < minVersion || version > maxVersion {
		return nil, fmt.Errorf("version %d: %w", version, ErrUnsupportedVersion)
	}

	count, err := r.Int32()
	if err != nil {
		return nil, fmt.Errorf("reading collection count: %w", err)
	}

	if count < 0 {
		return nil, fmt.Errorf("collection count %d: %w", count, ErrMalformedRecord)
	}

	db := &Database{
		Version:     version,
		byChecksum:  make(map[string][]string),
		collections: int(count),
	}

	for i := int32(0); i < count; i++ {
		if err := db.decodeCollection(r); err != nil {
			return nil, fmt.Errorf("collection %d of %d: %w", i+1, count, err)
		}
	}

	return db, nil
}

func (db *Database) decodeCollection(r *Reader) error {
	name, err := r.String()
	if err != nil {
		return fmt.Errorf("reading name: %w", err)
	}

	entries, err := r.Int32()
	if err != nil {
		return fmt.Errorf("%q: reading entry count: %w", name, err)
	}

	if entries < 0 {
		return fmt.Errorf("%q: entry count %d: %w", name, entries, ErrMalformedRecord)
	}

	for j := int32(0); j < entries; j++ {
		sum, err := r.String()
		if err != nil {
			return fmt.Errorf("%q: entry %d: %w", name, j+1, err)
		}

		sum = strings.ToLower(strings.TrimSpace(sum))
		if sum == "" {
			continue
		}

		if !containsName(db.byChecksum[sum], name) {
			db.byChecksum[sum] = append(db.byChecksum[sum], name)
		}
	}

	return nil
}

func containsName(names []string, name string) bool {
	for _, n := range names {
		if n == name {
			return true
		}
	}

	return false
}

// Contains reports whether any collection references the checksum.
// Lookup is case-insensitive over the hex digits.
func (db *Database) Contains(checksum string) bool {
	_, ok := db.byChecksum[strings.ToLower(strings.TrimSpace(checksum))]

	return ok
}

// Collections returns the sorted names of the collections referencing
// the checksum, or nil if none do.
func (db *Database) Collections(checksum string) []string {
	names := db.byChecksum[strings.ToLower(strings.TrimSpace(checksum))]
	if len(names) == 0 {
		return nil
	}

	out := make([]string, len(names))
	copy(out, names)
	sort.Strings(out)

	return out
}

// Len returns the number of distinct referenced checksums.
func (db *Database) Len() int { return len(db.byChecksum) }

// CollectionCount returns the number of collections in the database,
// including empty ones.
func (db *Database) CollectionCount() int { return db.collections }
