package beatmap_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"osuprune/internal/beatmap"
)

func red(offset int, beatLen float64) beatmap.TimingPoint {
	return beatmap.TimingPoint{Offset: offset, BeatLen: beatLen, Uninherited: true}
}

func green(offset int, multiplier float64) beatmap.TimingPoint {
	return beatmap.TimingPoint{Offset: offset, BeatLen: multiplier, Uninherited: false}
}

func TestPrimaryBPM(t *testing.T) {
	t.Parallel()

	for _, tt := range []struct {
		name     string
		points   []beatmap.TimingPoint
		endOfMap int
		want     float64
	}{
		{
			name:   "single red line is exact",
			points: []beatmap.TimingPoint{red(0, 500)},
			want:   120,
		},
		{
			name:   "single red line odd beat length",
			points: []beatmap.TimingPoint{red(1000, 333.333333333333)},
			want:   180,
		},
		{
			name: "longer segment wins",
			points: []beatmap.TimingPoint{
				red(0, 500),     // 120 BPM for 60000ms
				red(60000, 250), // 240 BPM for 30000ms
			},
			endOfMap: 90000,
			want:     120,
		},
		{
			name: "inherited points do not define tempo",
			points: []beatmap.TimingPoint{
				red(0, 500),
				green(10000, -100),
				green(20000, -50),
			},
			endOfMap: 30000,
			want:     120,
		},
		{
			name: "end of map derived from last point of any kind",
			points: []beatmap.TimingPoint{
				red(0, 500),     // 120 BPM until 40000
				red(40000, 250), // 240 BPM until 100000
				green(100000, -100),
			},
			want: 240,
		},
		{
			name: "near duplicate tempos merge",
			points: []beatmap.TimingPoint{
				red(0, 500),
				red(10000, 500.001), // 119.99976 BPM, same 0.01 bucket as 120
				red(20000, 250),     // 240 BPM, shorter overall
			},
			endOfMap: 25000,
			want:     120,
		},
		{
			name: "tie goes to the smaller BPM",
			points: []beatmap.TimingPoint{
				red(0, 500),     // 120 BPM for 10000ms
				red(10000, 250), // 240 BPM for 10000ms
			},
			endOfMap: 20000,
			want:     120,
		},
		{
			name:   "unsorted input is sorted first",
			points: []beatmap.TimingPoint{red(60000, 250), red(0, 500)},

			endOfMap: 90000,
			want:     120,
		},
		{
			name: "red line past end of map gets the default tail",
			points: []beatmap.TimingPoint{
				red(0, 500),    // until 1000: 1000ms at 120 BPM
				red(1000, 250), // dangling: default 60s tail at 240 BPM
			},
			want: 240,
		},
		{
			name:   "negative beat length red line is ignored",
			points: []beatmap.TimingPoint{red(0, -100), red(500, 500)},
			want:   120,
		},
	} {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := beatmap.TempoResolver{}.PrimaryBPM(tt.points, tt.endOfMap)
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, beatmap.DefaultBPMTolerance)
		})
	}
}

func TestPrimaryBPMNoTempo(t *testing.T) {
	t.Parallel()

	for _, tt := range []struct {
		name   string
		points []beatmap.TimingPoint
	}{
		{name: "no points", points: nil},
		{name: "only inherited", points: []beatmap.TimingPoint{green(0, -100)}},
		{name: "uninherited with non-positive beat length", points: []beatmap.TimingPoint{red(0, -500)}},
	} {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := beatmap.TempoResolver{}.PrimaryBPM(tt.points, 0)
			require.ErrorIs(t, err, beatmap.ErrNoTempoDefined)
		})
	}
}

func TestPrimaryBPMCustomTolerance(t *testing.T) {
	t.Parallel()

	// 60000/500.1 = 119.976..; with a coarse 1 BPM tolerance this lands
	// in the same bucket as 120.
	points := []beatmap.TimingPoint{
		red(0, 500),
		red(30000, 500.1),
		red(60000, 250), // 240 BPM, 40000ms: heaviest single tempo
	}

	fine, err := beatmap.TempoResolver{Tolerance: 0.001}.PrimaryBPM(points, 100000)
	require.NoError(t, err)
	assert.InDelta(t, 240, fine, 0.001)

	coarse, err := beatmap.TempoResolver{Tolerance: 1}.PrimaryBPM(points, 100000)
	require.NoError(t, err)
	assert.InDelta(t, 120, coarse, 1)
}
