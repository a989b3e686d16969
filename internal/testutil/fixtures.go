// Package testutil builds synthetic osu! fixtures: .osu difficulty
// files and collection.db byte buffers, for tests across packages.
package testutil

import (
	"crypto/md5" //nolint:gosec // fixtures mirror osu!'s MD5 identity
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"
)

// Diff describes one synthetic difficulty file.
type Diff struct {
	// Name is the file name without the .osu extension.
	Name string

	// BeatLen is the uninherited timing point's beat duration in
	// milliseconds (500 => 120 BPM). Zero means "omit the red line",
	// producing a difficulty with no defined tempo.
	BeatLen float64

	AR float64
	CS float64

	// Version is the difficulty name in [Metadata].
	Version string
}

// OsuFile renders a minimal but well-formed .osu file.
func OsuFile(d Diff) []byte {
	var b strings.Builder

	b.WriteString("osu file format v14\n\n")
	b.WriteString("[General]\nAudioFilename: audio.mp3\n\n")
	b.WriteString("[Metadata]\nTitle:Fixture Song\nArtist:Fixture Artist\nCreator:fixture\n")
	fmt.Fprintf(&b, "Version:%s\n\n", d.Version)
	fmt.Fprintf(&b, "[Difficulty]\nCircleSize:%g\nApproachRate:%g\n\n", d.CS, d.AR)
	b.WriteString("[TimingPoints]\n")

	if d.BeatLen > 0 {
		fmt.Fprintf(&b, "0,%g,4,2,1,60,1,0\n", d.BeatLen)
		b.WriteString("30000,-100,4,2,1,60,0,0\n")
	} else {
		b.WriteString("0,-100,4,2,1,60,0,0\n")
	}

	return []byte(b.String())
}

// WriteMapset materializes a mapset folder with the given difficulties
// under root and returns its path.
func WriteMapset(t *testing.T, root, name string, diffs ...Diff) string {
	t.Helper()

	dir := filepath.Join(root, name)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("creating mapset dir: %v", err)
	}

	for _, d := range diffs {
		path := filepath.Join(dir, d.Name+".osu")
		if err := os.WriteFile(path, OsuFile(d), 0o644); err != nil {
			t.Fatalf("writing %s: %v", path, err)
		}
	}

	return dir
}

// Checksum returns the MD5 hex checksum of the rendered difficulty,
// i.e. what the parser will compute for it.
func Checksum(d Diff) string {
	sum := md5.Sum(OsuFile(d)) //nolint:gosec // content identity

	return hex.EncodeToString(sum[:])
}

// CollectionDB encodes a collection.db buffer mapping collection names
// to difficulty checksums.
func CollectionDB(version int32, collections map[string][]string) []byte {
	var buf []byte

	buf = binary.LittleEndian.AppendUint32(buf, uint32(version))
	buf = binary.LittleEndian.AppendUint32(buf, uint32(len(collections)))

	// Deterministic order keeps fixtures stable.
	names := make([]string, 0, len(collections))
	for name := range collections {
		names = append(names, name)
	}

	sort.Strings(names)

	for _, name := range names {
		buf = appendOsuString(buf, name)
		buf = binary.LittleEndian.AppendUint32(buf, uint32(len(collections[name])))

		for _, sum := range collections[name] {
			buf = appendOsuString(buf, sum)
		}
	}

	return buf
}

func appendOsuString(buf []byte, s string) []byte {
	buf = append(buf, 0x0b)
	buf = appendULEB128(buf, uint64(len(s)))

	return append(buf, s...)
}

func appendULEB128(buf []byte, v uint64) []byte {
	for {
		c := byte(v & 0x7f)

		v >>= 7
		if v != 0 {
			c |= 0x80
		}

		buf = append(buf, c)

		if v == 0 {
			return buf
		}
	}
}
