package stats

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hupe1980/trackio/archive"
	"github.com/hupe1980/trackio/lineage"
	"github.com/hupe1980/trackio/tensor"
)

// divisionDataset builds the Scenario B archive: 2 batches, one dividing
// lineage entry per batch.
func divisionDataset(t *testing.T) ([]lineage.Graph, *tensor.Volume, *tensor.Volume) {
	t.Helper()

	// (B=2, T=2, H=4, W=4, C=1)
	raw := tensor.NewFloat64(2, 2, 4, 4, 1)
	tracked := tensor.NewInt32(2, 2, 4, 4, 1)

	// Batch 0: label 1 in both frames.
	tracked.Ints()[0] = 1  // frame 0
	tracked.Ints()[16] = 1 // frame 1
	// Batch 1: label 4 in frame 0 only.
	tracked.Ints()[32] = 4

	lineages := []lineage.Graph{
		{1: {Label: 1, Frames: []int{0, 1}, Daughters: []int{2, 3}}},
		{4: {Label: 4, Frames: []int{0}, Daughters: []int{5}}},
	}
	return lineages, raw, tracked
}

func TestCompute_DivisionCounts(t *testing.T) {
	lineages, raw, tracked := divisionDataset(t)
	path := filepath.Join(t.TempDir(), "movie.trks")
	require.NoError(t, archive.Save(path, lineages, raw, tracked))

	report, err := Compute(path)
	require.NoError(t, err)

	require.Equal(t, 2, report.NumLineages)
	require.Equal(t, 2, report.TotalTracks)
	require.Equal(t, 2, report.TotalDivisions)
	require.Equal(t, []int{2, 2, 4, 4, 1}, report.ImageShape)
}

func TestCompute_ExtensionGuard(t *testing.T) {
	_, err := Compute("dataset.npz")
	var extErr *archive.InvalidExtensionError
	require.ErrorAs(t, err, &extErr)
}

func TestFromArchive_Density(t *testing.T) {
	// (B=1, T=2, H=10, W=10, C=1): 2 cells in frame 0, 4 in frame 1.
	raw := tensor.NewFloat64(1, 2, 10, 10, 1)
	tracked := tensor.NewInt32(1, 2, 10, 10, 1)
	f0 := tracked.Ints()[:100]
	f1 := tracked.Ints()[100:]
	f0[0], f0[1] = 1, 2
	f1[0], f1[1], f1[2], f1[3] = 3, 4, 5, 6

	report, err := FromArchive(&archive.Archive{
		Lineages: []lineage.Graph{{}},
		X:        raw,
		Y:        tracked,
	})
	require.NoError(t, err)

	// Mean cells per frame = 3; area = 100 -> 3 cells per 100 sq pixels.
	require.InDelta(t, 3.0, report.AvgCellDensity, 1e-9)
}

func TestFromArchive_TrackLength(t *testing.T) {
	// (B=1, T=3, H=2, W=2, C=1): label 1 in all 3 frames, label 2 in 1.
	raw := tensor.NewFloat64(1, 3, 2, 2, 1)
	tracked := tensor.NewInt32(1, 3, 2, 2, 1)
	tracked.Ints()[0] = 1
	tracked.Ints()[4] = 1
	tracked.Ints()[8] = 1
	tracked.Ints()[1] = 2

	report, err := FromArchive(&archive.Archive{
		Lineages: []lineage.Graph{{
			1: {Label: 1, Frames: []int{0, 1, 2}},
			2: {Label: 2, Frames: []int{0}},
		}},
		X: raw,
		Y: tracked,
	})
	require.NoError(t, err)

	// (3 + 1) / 2 tracks = 2 frames per track.
	require.InDelta(t, 2.0, report.AvgTrackLengthFrames, 1e-9)
	require.Equal(t, 2, report.TotalTracks)
	require.Zero(t, report.TotalDivisions)
}

func TestFromArchive_EmptyLineages(t *testing.T) {
	raw := tensor.NewFloat64(1, 1, 2, 2, 1)
	tracked := tensor.NewInt32(1, 1, 2, 2, 1)

	report, err := FromArchive(&archive.Archive{
		Lineages: []lineage.Graph{{}},
		X:        raw,
		Y:        tracked,
	})
	require.NoError(t, err)
	require.Zero(t, report.AvgTrackLengthFrames)
	require.Zero(t, report.AvgCellDensity)
}

func TestReport_String(t *testing.T) {
	r := &Report{
		NumLineages:          2,
		TotalTracks:          5,
		TotalDivisions:       1,
		AvgCellDensity:       0.25,
		AvgTrackLengthFrames: 3.5,
		ImageShape:           []int{2, 10, 64, 64, 1},
	}
	out := r.String()
	require.True(t, strings.Contains(out, "Dataset Statistics"))
	require.True(t, strings.Contains(out, "unique tracks (cells)      - 5"))
	require.True(t, strings.Contains(out, "divisions                  - 1"))
}
