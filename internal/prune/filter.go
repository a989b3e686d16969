package prune

import (
	"fmt"

	"osuprune/internal/collection"
)

// Kind distinguishes what a candidate stages for deletion.
type Kind string

const (
	// KindMapset stages a whole mapset folder.
	KindMapset Kind = "mapset"

	// KindDifficulty stages a single .osu file.
	KindDifficulty Kind = "difficulty"
)

// Status is a candidate's position in the deletion lifecycle.
type Status string

const (
	StatusPending   Status = "pending"
	StatusSkipped   Status = "skipped"
	StatusConfirmed Status = "confirmed"
	StatusDeleted   Status = "deleted"
	StatusFailed    Status = "failed"
)

// Candidate is one staged deletion with the reasons it matched.
type Candidate struct {
	// Kind says whether Path is a mapset folder or a single .osu file.
	Kind Kind `json:"kind"`

	// Path is what gets deleted.
	Path string `json:"path"`

	// MapsetDir is the owning mapset folder (equal to Path for
	// mapset-kind candidates).
	MapsetDir string `json:"mapset_dir"`

	// Label is a human-readable identity for review output
	// ("Artist - Title [Version]" when metadata is available).
	Label string `json:"label,omitempty"`

	// Reasons enumerate why the candidate matched.
	Reasons []string `json:"reasons"`

	// Uncertain marks candidates containing difficulties that could
	// not be evaluated; review should treat these with suspicion.
	Uncertain bool `json:"uncertain,omitempty"`

	// DiffCount is the number of difficulty files discovered in the
	// owning mapset, evaluated or not.
	DiffCount int `json:"difficulty_count"`

	Status Status `json:"status"`

	// Cause carries the failure detail once Status is failed.
	Cause string `json:"cause,omitempty"`
}

// Mapset is one scanned library folder with its evaluated difficulties
// and any per-file parse failures.
type Mapset struct {
	// Dir is the mapset folder path.
	Dir string

	// Diffs are the successfully parsed and tempo-resolved
	// difficulties, in discovery order.
	Diffs []DiffInfo

	// Failures records difficulty files that could not be evaluated.
	// They never protect the mapset, only flag it as uncertain.
	Failures []ParseFailure
}

// ParseFailure ties a parse or tempo error to its difficulty file.
type ParseFailure struct {
	Path string
	Err  error
}

// DiffCount returns the number of difficulty files seen in the mapset.
func (m *Mapset) DiffCount() int {
	return len(m.Diffs) + len(m.Failures)
}

// Evaluate applies the criteria to one mapset and returns the staged
// candidates (none when the mapset is protected).
//
// Mapset-level: the mapset is a candidate iff no evaluated difficulty
// is protected; a single protected difficulty keeps the whole folder.
// Difficulty-level: each unprotected difficulty is staged on its own
// and the folder is never staged.
func Evaluate(m *Mapset, crit Criteria, db *collection.Database) []*Candidate {
	if !crit.Active() || m.DiffCount() == 0 {
		return nil
	}

	if crit.mapsetLevel() {
		if c := evaluateMapset(m, crit, db); c != nil {
			return []*Candidate{c}
		}

		return nil
	}

	return evaluateDifficulties(m, crit, db)
}

func evaluateMapset(m *Mapset, crit Criteria, db *collection.Database) *Candidate {
	for _, d := range m.Diffs {
		if crit.protected(d, db) {
			return nil
		}
	}

	c := &Candidate{
		Kind:      KindMapset,
		Path:      m.Dir,
		MapsetDir: m.Dir,
		Label:     mapsetLabel(m),
		Reasons:   mapsetReasons(m, crit, db),
		Uncertain: len(m.Failures) > 0,
		DiffCount: m.DiffCount(),
		Status:    StatusPending,
	}

	return c
}

func evaluateDifficulties(m *Mapset, crit Criteria, db *collection.Database) []*Candidate {
	var out []*Candidate

	for _, d := range m.Diffs {
		reasons := crit.failedAxes(d, db)
		if len(reasons) == 0 {
			continue
		}

		out = append(out, &Candidate{
			Kind:      KindDifficulty,
			Path:      d.Path,
			MapsetDir: m.Dir,
			Label:     diffLabel(d),
			Reasons:   reasons,
			DiffCount: m.DiffCount(),
			Status:    StatusPending,
		})
	}

	return out
}

// mapsetReasons summarizes why no difficulty protected the mapset:
// every active axis that failed for all evaluated difficulties is
// named; when failures were mixed, a combined reason is reported.
func mapsetReasons(m *Mapset, crit Criteria, db *collection.Database) []string {
	var reasons []string

	if len(m.Diffs) > 0 {
		for _, a := range activeAxes(crit) {
			if axisFailsEverywhere(m.Diffs, a, crit, db) {
				reasons = append(reasons, universalReason(a, crit))
			}
		}

		if len(reasons) == 0 {
			reasons = append(reasons, "no difficulty passes all active filters")
		}
	} else {
		reasons = append(reasons, "no difficulty could be evaluated")
	}

	if n := len(m.Failures); n > 0 && len(m.Diffs) > 0 {
		reasons = append(reasons, fmt.Sprintf("%d difficulty file(s) could not be evaluated", n))
	}

	return reasons
}

func activeAxes(crit Criteria) []axis {
	var active []axis

	for _, a := range allAxes {
		switch a {
		case axisBPM:
			if crit.BPM == nil {
				continue
			}
		case axisAR:
			if crit.AR == nil {
				continue
			}
		case axisCS:
			if crit.CS == nil {
				continue
			}
		case axisCollection:
			if !crit.RequireCollection {
				continue
			}
		}

		active = append(active, a)
	}

	return active
}

func axisFailsEverywhere(diffs []DiffInfo, a axis, crit Criteria, db *collection.Database) bool {
	for _, d := range diffs {
		if crit.axisPass(a, d, db) {
			return false
		}
	}

	return true
}

func universalReason(a axis, crit Criteria) string {
	switch a {
	case axisBPM:
		return fmt.Sprintf("no difficulty in BPM range %s", crit.BPM)
	case axisAR:
		return fmt.Sprintf("no difficulty in AR range %s", crit.AR)
	case axisCS:
		return fmt.Sprintf("no difficulty in CS range %s", crit.CS)
	case axisCollection:
		return "not in any collection"
	default:
		return "no difficulty in " + a.name() + " range"
	}
}

func mapsetLabel(m *Mapset) string {
	if len(m.Diffs) == 0 {
		return ""
	}

	d := m.Diffs[0]
	if d.Artist == "" && d.Title == "" {
		return ""
	}

	return fmt.Sprintf("%s - %s", d.Artist, d.Title)
}

func diffLabel(d DiffInfo) string {
	if d.Artist == "" && d.Title == "" {
		return ""
	}

	return fmt.Sprintf("%s - %s [%s]", d.Artist, d.Title, d.Version)
}
