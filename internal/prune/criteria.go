// Package prune decides which mapsets (or single difficulties) of an
// osu! library are safe to delete and drives the staged scan → review →
// confirm → delete workflow.
package prune

import (
	"fmt"

	"osuprune/internal/beatmap"
	"osuprune/internal/collection"
)

// Range is an inclusive numeric interval. A nil *Range disables the
// corresponding axis entirely.
type Range struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// Contains reports whether v lies within the range, bounds included.
func (r Range) Contains(v float64) bool {
	return v >= r.Min && v <= r.Max
}

func (r Range) String() string {
	return fmt.Sprintf("[%g, %g]", r.Min, r.Max)
}

// Criteria is the active filter configuration. A difficulty is
// "protected" when every active axis passes; a mapset stays on disk as
// long as at least one of its difficulties is protected.
type Criteria struct {
	// BPM, AR, CS constrain the respective values when non-nil.
	BPM *Range `json:"bpm,omitempty"`
	AR  *Range `json:"ar,omitempty"`
	CS  *Range `json:"cs,omitempty"`

	// RequireCollection additionally demands that a difficulty's
	// checksum is referenced by at least one collection.
	RequireCollection bool `json:"require_collection,omitempty"`

	// WholeMapsets selects mapset-level staging: a mapset is staged
	// only when none of its difficulties are protected. When false,
	// failing difficulties are staged individually and mapset folders
	// are never touched. Collection-based filtering always stages whole
	// mapsets.
	WholeMapsets bool `json:"whole_mapsets,omitempty"`

	// BPMTolerance overrides the tempo merge tolerance
	// (default beatmap.DefaultBPMTolerance).
	BPMTolerance float64 `json:"bpm_tolerance,omitempty"`
}

// Active reports whether any filtering axis is enabled at all.
func (c Criteria) Active() bool {
	return c.BPM != nil || c.AR != nil || c.CS != nil || c.RequireCollection
}

// mapsetLevel reports whether staging happens at mapset granularity.
func (c Criteria) mapsetLevel() bool {
	return c.WholeMapsets || c.RequireCollection
}

// DiffInfo is one fully evaluated difficulty: its parsed metadata plus
// the resolved primary tempo.
type DiffInfo struct {
	*beatmap.Difficulty

	// BPM is the representative tempo from the tempo resolver.
	BPM float64
}

// axis identifies one filter dimension for reason reporting.
type axis int

const (
	axisBPM axis = iota
	axisAR
	axisCS
	axisCollection
)

func (a axis) name() string {
	switch a {
	case axisBPM:
		return "BPM"
	case axisAR:
		return "AR"
	case axisCS:
		return "CS"
	case axisCollection:
		return "collection"
	default:
		return "unknown"
	}
}

// axisPass evaluates one axis for one difficulty. Inactive axes always
// pass.
func (c Criteria) axisPass(a axis, d DiffInfo, db *collection.Database) bool {
	switch a {
	case axisBPM:
		return c.BPM == nil || c.BPM.Contains(d.BPM)
	case axisAR:
		return c.AR == nil || c.AR.Contains(d.AR)
	case axisCS:
		return c.CS == nil || c.CS.Contains(d.CS)
	case axisCollection:
		return !c.RequireCollection || (db != nil && db.Contains(d.Checksum))
	default:
		return true
	}
}

var allAxes = []axis{axisBPM, axisAR, axisCS, axisCollection}

// protected reports whether every active axis passes for d.
func (c Criteria) protected(d DiffInfo, db *collection.Database) bool {
	for _, a := range allAxes {
		if !c.axisPass(a, d, db) {
			return false
		}
	}

	return true
}

// failedAxes returns reason strings for each active axis d fails.
func (c Criteria) failedAxes(d DiffInfo, db *collection.Database) []string {
	var reasons []string

	if c.BPM != nil && !c.BPM.Contains(d.BPM) {
		reasons = append(reasons, fmt.Sprintf("BPM %.2f outside %s", d.BPM, c.BPM))
	}

	if c.AR != nil && !c.AR.Contains(d.AR) {
		reasons = append(reasons, fmt.Sprintf("AR %.1f outside %s", d.AR, c.AR))
	}

	if c.CS != nil && !c.CS.Contains(d.CS) {
		reasons = append(reasons, fmt.Sprintf("CS %.1f outside %s", d.CS, c.CS))
	}

	if c.RequireCollection && (db == nil || !db.Contains(d.Checksum)) {
		reasons = append(reasons, "not in any collection")
	}

	return reasons
}
