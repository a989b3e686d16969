package prune

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"osuprune/internal/fs"
)

// ErrReportVersion is returned when a report file was written by an
// incompatible osuprune version.
var ErrReportVersion = errors.New("unsupported report version")

// reportVersion is bumped whenever the report layout changes.
const reportVersion = 1

// Report is the staged result of a scan, handed from `osuprune scan`
// to `osuprune apply`. It is a snapshot: apply re-checks the filesystem
// at execution time rather than trusting it.
type Report struct {
	Version      int          `json:"version"`
	CreatedAt    time.Time    `json:"created_at"`
	SongsDir     string       `json:"songs_dir"`
	CollectionDB string       `json:"collection_db,omitempty"`
	Criteria     Criteria     `json:"criteria"`
	Stats        Stats        `json:"stats"`
	Candidates   []*Candidate `json:"candidates"`
}

// NewReport snapshots a reviewed session.
func NewReport(songsDir, collectionDB string, crit Criteria, s *Session) *Report {
	return &Report{
		Version:      reportVersion,
		CreatedAt:    time.Now().UTC(),
		SongsDir:     songsDir,
		CollectionDB: collectionDB,
		Criteria:     crit,
		Stats:        s.Stats(),
		Candidates:   s.Candidates(),
	}
}

// WriteReport persists the report atomically.
func WriteReport(fsys fs.FS, path string, r *Report) error {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding report: %w", err)
	}

	data = append(data, '\n')

	if err := fsys.WriteFileAtomic(path, data, 0o644); err != nil {
		return fmt.Errorf("writing report %s: %w", path, err)
	}

	return nil
}

// LoadReport reads a report written by WriteReport.
func LoadReport(fsys fs.FS, path string) (*Report, error) {
	data, err := fsys.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading report %s: %w", path, err)
	}

	var r Report
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("decoding report %s: %w", path, err)
	}

	if r.Version != reportVersion {
		return nil, fmt.Errorf("report %s has version %d, want %d: %w",
			path, r.Version, reportVersion, ErrReportVersion)
	}

	return &r, nil
}
