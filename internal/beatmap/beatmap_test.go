package beatmap_test

import (
	"crypto/md5"
	"encoding/hex"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"osuprune/internal/beatmap"
)

const sampleOsu = `osu file format v14

[General]
AudioFilename: audio.mp3
Mode: 0

[Metadata]
Title:Night of Knights
Artist:beatMARIO
Creator:alacat
Version:Insane

[Difficulty]
HPDrainRate:6
CircleSize:4.2
OverallDifficulty:8
ApproachRate:9.3
SliderMultiplier:1.8

[TimingPoints]
1000,333.333333333333,4,2,1,60,1,0
21000,-100,4,2,1,60,0,0
61000,250,4,2,1,70,1,0

[HitObjects]
256,192,1000,1,0,0:0:0:0:
`

func TestParseSample(t *testing.T) {
	t.Parallel()

	data := []byte(sampleOsu)

	d, err := beatmap.Parse("songs/1 set/map.osu", data)
	require.NoError(t, err)

	assert.Equal(t, "songs/1 set/map.osu", d.Path)
	assert.Equal(t, "Night of Knights", d.Title)
	assert.Equal(t, "beatMARIO", d.Artist)
	assert.Equal(t, "alacat", d.Creator)
	assert.Equal(t, "Insane", d.Version)
	assert.InDelta(t, 9.3, d.AR, 1e-9)
	assert.InDelta(t, 4.2, d.CS, 1e-9)

	sum := md5.Sum(data)
	assert.Equal(t, hex.EncodeToString(sum[:]), d.Checksum)

	require.Len(t, d.TimingPoints, 3)
	assert.True(t, d.TimingPoints[0].Uninherited)
	assert.False(t, d.TimingPoints[1].Uninherited)
	assert.Equal(t, 61000, d.TimingPoints[2].Offset)
}

func TestParseChecksumIgnoresPath(t *testing.T) {
	t.Parallel()

	data := []byte(sampleOsu)

	a, err := beatmap.Parse("a/original.osu", data)
	require.NoError(t, err)

	b, err := beatmap.Parse("b/renamed copy.osu", data)
	require.NoError(t, err)

	assert.Equal(t, a.Checksum, b.Checksum)
}

func TestParseDefaultsAndTolerance(t *testing.T) {
	t.Parallel()

	// No [Metadata], no AR/CS keys, BOM prefix, CRLF endings, odd
	// section-name casing.
	raw := "\xef\xbb\xbf[difficulty]\r\nHPDrainRate:5\r\n\r\n[timingpoints]\r\n0,500\r\n"

	d, err := beatmap.Parse("map.osu", []byte(raw))
	require.NoError(t, err)

	assert.InDelta(t, 5.0, d.AR, 0)
	assert.InDelta(t, 5.0, d.CS, 0)
	assert.Empty(t, d.Title)

	require.Len(t, d.TimingPoints, 1)
	assert.True(t, d.TimingPoints[0].Uninherited, "positive beat length implies uninherited")
}

func TestParseErrors(t *testing.T) {
	t.Parallel()

	for _, tt := range []struct {
		name    string
		content string
		wantErr error
	}{
		{
			name:    "no timing points section",
			content: "[Difficulty]\nApproachRate:9\n",
			wantErr: beatmap.ErrMissingSection,
		},
		{
			name:    "empty timing points section",
			content: "[TimingPoints]\n\n[HitObjects]\n",
			wantErr: beatmap.ErrMissingSection,
		},
		{
			name:    "non numeric approach rate",
			content: "[Difficulty]\nApproachRate:fast\n[TimingPoints]\n0,500,4,2,1,60,1,0\n",
			wantErr: beatmap.ErrMalformedLine,
		},
		{
			name:    "non numeric circle size",
			content: "[Difficulty]\nCircleSize:big\n[TimingPoints]\n0,500,4,2,1,60,1,0\n",
			wantErr: beatmap.ErrMalformedLine,
		},
		{
			name:    "garbage timing line",
			content: "[TimingPoints]\nnot-a-timing-point\n",
			wantErr: beatmap.ErrMalformedLine,
		},
		{
			name:    "non numeric timing offset",
			content: "[TimingPoints]\nsoon,500,4,2,1,60,1,0\n",
			wantErr: beatmap.ErrMalformedLine,
		},
	} {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := beatmap.Parse("bad.osu", []byte(tt.content))
			require.ErrorIs(t, err, tt.wantErr)
			assert.Contains(t, err.Error(), "bad.osu", "errors carry the offending path")
		})
	}
}

func TestParseSkipsCommentsAndBlanks(t *testing.T) {
	t.Parallel()

	content := strings.Join([]string{
		"// header comment",
		"[TimingPoints]",
		"",
		"// inline comment",
		"0,400,4,2,1,60,1,0",
	}, "\n")

	d, err := beatmap.Parse("map.osu", []byte(content))
	require.NoError(t, err)
	require.Len(t, d.TimingPoints, 1)
}
