package beatmap

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
)

// ErrNoTempoDefined is returned when a difficulty has no uninherited
// timing point with a positive beat length, so no BPM can be derived.
var ErrNoTempoDefined = errors.New("no tempo defined")

// TimingPoint is one entry of a difficulty's [TimingPoints] section.
// Only uninherited ("red line") points define tempo; inherited points
// carry a velocity multiplier and never change the BPM.
type TimingPoint struct {
	// Offset is the point's position in milliseconds from map start.
	Offset int

	// BeatLen is the beat duration in milliseconds for uninherited
	// points, or a negative multiplier for inherited ones.
	BeatLen float64

	// Uninherited marks a tempo-defining point.
	Uninherited bool
}

// Timing-point line fields: offset,beatLen,meter,sampleSet,sampleIndex,
// volume,uninherited,effects. Old files may omit trailing fields.
const (
	tpFieldOffset      = 0
	tpFieldBeatLen     = 1
	tpFieldUninherited = 6
	tpMinFields        = 2
)

// parseTimingPoint parses one comma-separated timing-point line.
// Lines with fewer than two fields or non-numeric offset/beat length
// are malformed. When the uninherited flag field is missing, the sign
// convention decides: positive beat length means uninherited.
func parseTimingPoint(line string) (TimingPoint, error) {
	fields := strings.Split(line, ",")
	if len(fields) < tpMinFields {
		return TimingPoint{}, fmt.Errorf("timing point %q: %w", line, ErrMalformedLine)
	}

	// Offsets can carry a fractional part in some editor exports.
	offset, err := strconv.ParseFloat(strings.TrimSpace(fields[tpFieldOffset]), 64)
	if err != nil {
		return TimingPoint{}, fmt.Errorf("timing point offset %q: %w", fields[tpFieldOffset], ErrMalformedLine)
	}

	beatLen, err := strconv.ParseFloat(strings.TrimSpace(fields[tpFieldBeatLen]), 64)
	if err != nil {
		return TimingPoint{}, fmt.Errorf("timing point beat length %q: %w", fields[tpFieldBeatLen], ErrMalformedLine)
	}

	tp := TimingPoint{
		Offset:      int(offset),
		BeatLen:     beatLen,
		Uninherited: beatLen > 0,
	}

	if len(fields) > tpFieldUninherited {
		flag := strings.TrimSpace(fields[tpFieldUninherited])
		if flag != "" {
			tp.Uninherited = flag == "1"
		}
	}

	return tp, nil
}

// Milliseconds per minute; BPM = msPerMinute / beatLen.
const msPerMinute = 60000

// defaultTailMS is assumed for the final tempo segment when the map's
// known extent does not reach past its last red line.
const defaultTailMS = 60000

// DefaultBPMTolerance merges tempos within 0.01 BPM of each other, the
// finest step the editor exposes.
const DefaultBPMTolerance = 0.01

// TempoResolver derives a single representative BPM from a difficulty's
// timing points.
type TempoResolver struct {
	// Tolerance is the bucket width used to merge floating-point
	// near-duplicate tempos. Zero means DefaultBPMTolerance.
	Tolerance float64
}

// PrimaryBPM returns the tempo that is in effect for the longest total
// time across the map.
//
// The timeline is split into segments, each owned by an uninherited
// point until the next uninherited point, the last one running to
// endOfMap (pass a non-positive endOfMap to use the last timing point's
// offset). Durations accumulate per tempo bucket; the heaviest bucket
// wins, ties going to the numerically smallest BPM.
func (tr TempoResolver) PrimaryBPM(points []TimingPoint, endOfMap int) (float64, error) {
	tol := tr.Tolerance
	if tol <= 0 {
		tol = DefaultBPMTolerance
	}

	redlines := make([]TimingPoint, 0, len(points))
	last := 0

	for _, tp := range points {
		if tp.Offset > last {
			last = tp.Offset
		}

		if tp.Uninherited && tp.BeatLen > 0 {
			redlines = append(redlines, tp)
		}
	}

	if len(redlines) == 0 {
		return 0, ErrNoTempoDefined
	}

	sort.SliceStable(redlines, func(i, j int) bool {
		return redlines[i].Offset < redlines[j].Offset
	})

	if endOfMap <= 0 {
		endOfMap = last
	}

	weights := make(map[float64]float64, len(redlines))

	for i, rl := range redlines {
		var duration float64

		if i+1 < len(redlines) {
			duration = float64(redlines[i+1].Offset - rl.Offset)
		} else {
			duration = float64(endOfMap - rl.Offset)
			if duration <= 0 {
				duration = defaultTailMS
			}
		}

		if duration < 1 {
			duration = 1
		}

		bpm := math.Round(msPerMinute/rl.BeatLen/tol) * tol
		weights[bpm] += duration
	}

	var (
		bestBPM    float64
		bestWeight = -1.0
	)

	for bpm, weight := range weights {
		if weight > bestWeight || (weight == bestWeight && bpm < bestBPM) {
			bestBPM = bpm
			bestWeight = weight
		}
	}

	return bestBPM, nil
}
