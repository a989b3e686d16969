// Package beatmap parses .osu difficulty files into the metadata needed
// for filtering: identity, AR/CS ratings, content checksum, and the
// timing points that define tempo.
//
// Only the subset of the format used for those decisions is read; all
// other sections and keys pass through untouched.
package beatmap

import (
	"bufio"
	"bytes"
	"crypto/md5" //nolint:gosec // osu! identifies difficulties by MD5
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var (
	// ErrMissingSection is returned when [TimingPoints] is absent or
	// empty: such a difficulty has no defined tempo.
	ErrMissingSection = errors.New("missing section")

	// ErrMalformedLine is returned for a line that cannot be parsed and
	// cannot safely be skipped (ratings, timing points).
	ErrMalformedLine = errors.New("malformed line")
)

// defaultRating is the neutral value used when a rating key is absent.
// The osu! editor seeds new difficulties with 5 on every axis.
const defaultRating = 5.0

// Difficulty is the parsed, immutable view of one .osu file.
type Difficulty struct {
	// Path is the source file path, kept for reporting.
	Path string

	// Identity from [Metadata]; any field may be empty.
	Title   string
	Artist  string
	Creator string
	Version string

	// AR and CS from [Difficulty], defaulting to 5.0 when absent.
	AR float64
	CS float64

	// Checksum is the lowercase MD5 hex of the raw file bytes, the join
	// key against collection.db entries.
	Checksum string

	// TimingPoints in file order.
	TimingPoints []TimingPoint
}

// PrimaryBPM resolves the difficulty's representative tempo using the
// default merge tolerance.
func (d *Difficulty) PrimaryBPM() (float64, error) {
	return TempoResolver{}.PrimaryBPM(d.TimingPoints, 0)
}

// Parse decodes the raw contents of a .osu file.
//
// The checksum is computed over data exactly as given, so renamed
// copies of the same difficulty keep matching collection entries. A
// missing AR or CS key falls back to the neutral default; a present but
// non-numeric one fails the whole difficulty with [ErrMalformedLine].
func Parse(path string, data []byte) (*Difficulty, error) {
	sum := md5.Sum(data) //nolint:gosec // content identity, not security

	d := &Difficulty{
		Path:     path,
		AR:       defaultRating,
		CS:       defaultRating,
		Checksum: hex.EncodeToString(sum[:]),
	}

	var (
		section          string
		sawTimingSection bool
	)

	scanner := bufio.NewScanner(bytes.NewReader(stripBOM(data)))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "//") {
			continue
		}

		if strings.HasPrefix(line, "[") && strings.HasSuffix(line, "]") {
			section = line[1 : len(line)-1]
			if strings.EqualFold(section, "TimingPoints") {
				sawTimingSection = true
			}

			continue
		}

		var err error

		switch {
		case strings.EqualFold(section, "Metadata"):
			d.readMetadata(line)
		case strings.EqualFold(section, "Difficulty"):
			err = d.readRating(line)
		case strings.EqualFold(section, "TimingPoints"):
			err = d.readTimingPoint(line)
		}

		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	if !sawTimingSection || len(d.TimingPoints) == 0 {
		return nil, fmt.Errorf("%s: [TimingPoints]: %w", path, ErrMissingSection)
	}

	return d, nil
}

func (d *Difficulty) readMetadata(line string) {
	key, value, ok := cutKeyValue(line)
	if !ok {
		return
	}

	switch {
	case strings.EqualFold(key, "Title"):
		d.Title = value
	case strings.EqualFold(key, "Artist"):
		d.Artist = value
	case strings.EqualFold(key, "Creator"):
		d.Creator = value
	case strings.EqualFold(key, "Version"):
		d.Version = value
	}
}

func (d *Difficulty) readRating(line string) error {
	key, value, ok := cutKeyValue(line)
	if !ok {
		return nil
	}

	var target *float64

	switch {
	case strings.EqualFold(key, "ApproachRate"):
		target = &d.AR
	case strings.EqualFold(key, "CircleSize"):
		target = &d.CS
	default:
		return nil
	}

	v, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fmt.Errorf("%s %q: %w", key, value, ErrMalformedLine)
	}

	*target = v

	return nil
}

func (d *Difficulty) readTimingPoint(line string) error {
	tp, err := parseTimingPoint(line)
	if err != nil {
		return err
	}

	d.TimingPoints = append(d.TimingPoints, tp)

	return nil
}

// cutKeyValue splits "Key: value" lines; both halves are trimmed.
func cutKeyValue(line string) (key, value string, ok bool) {
	key, value, ok = strings.Cut(line, ":")

	return strings.TrimSpace(key), strings.TrimSpace(value), ok
}

func stripBOM(data []byte) []byte {
	return bytes.TrimPrefix(data, []byte{0xef, 0xbb, 0xbf})
}
