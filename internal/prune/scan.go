package prune

import (
	"fmt"
	"path/filepath"
	"strings"

	"osuprune/internal/beatmap"
	"osuprune/internal/fs"
)

// Entry is one candidate mapset folder together with its difficulty
// file paths, as supplied by a [Source].
type Entry struct {
	Dir   string
	Files []string
}

// Source enumerates candidate mapset folders. The workflow consumes
// this stream instead of walking directories itself, so tests can feed
// synthetic libraries.
type Source interface {
	Entries() ([]Entry, error)
}

// DirSource enumerates the osu! Songs layout: one folder per mapset
// directly under Root, each containing .osu difficulty files. Folders
// without any .osu file are not mapsets and are left alone.
type DirSource struct {
	FS   fs.FS
	Root string
}

// Entries lists the mapset folders under Root in name order.
func (s *DirSource) Entries() ([]Entry, error) {
	dirs, err := s.FS.ReadDir(s.Root)
	if err != nil {
		return nil, fmt.Errorf("reading songs dir %s: %w", s.Root, err)
	}

	entries := make([]Entry, 0, len(dirs))

	for _, d := range dirs {
		if !d.IsDir() {
			continue
		}

		dir := filepath.Join(s.Root, d.Name())

		files, err := s.FS.ReadDir(dir)
		if err != nil {
			return nil, fmt.Errorf("reading mapset %s: %w", dir, err)
		}

		var osuFiles []string

		for _, f := range files {
			if f.IsDir() {
				continue
			}

			if strings.EqualFold(filepath.Ext(f.Name()), ".osu") {
				osuFiles = append(osuFiles, filepath.Join(dir, f.Name()))
			}
		}

		if len(osuFiles) > 0 {
			entries = append(entries, Entry{Dir: dir, Files: osuFiles})
		}
	}

	return entries, nil
}

// scanEntry parses and tempo-resolves every difficulty of one mapset.
// Per-file failures are recorded, never fatal: an unreadable difficulty
// cannot protect its mapset, but it must not abort the scan either.
func scanEntry(fsys fs.FS, e Entry, tolerance float64) *Mapset {
	m := &Mapset{Dir: e.Dir}
	resolver := beatmap.TempoResolver{Tolerance: tolerance}

	for _, path := range e.Files {
		data, err := fsys.ReadFile(path)
		if err != nil {
			m.Failures = append(m.Failures, ParseFailure{Path: path, Err: err})

			continue
		}

		d, err := beatmap.Parse(path, data)
		if err != nil {
			m.Failures = append(m.Failures, ParseFailure{Path: path, Err: err})

			continue
		}

		bpm, err := resolver.PrimaryBPM(d.TimingPoints, 0)
		if err != nil {
			m.Failures = append(m.Failures, ParseFailure{Path: path, Err: fmt.Errorf("%s: %w", path, err)})

			continue
		}

		m.Diffs = append(m.Diffs, DiffInfo{Difficulty: d, BPM: bpm})
	}

	return m
}
