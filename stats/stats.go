// Package stats computes aggregate dataset metrics from tracked archives.
//
// The track-length metric scans every frame once per lineage entry, which is
// quadratic in tracks x frames. That is fine for offline dataset reports and
// deliberately not optimized for hot paths.
package stats

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/RoaringBitmap/roaring/v2"
	"gonum.org/v1/gonum/stat"

	"github.com/hupe1980/trackio/archive"
	"github.com/hupe1980/trackio/tensor"
)

// Report summarizes one tracked dataset.
type Report struct {
	// NumLineages is the number of batch items.
	NumLineages int
	// TotalTracks is the total number of lineage entries across batches.
	TotalTracks int
	// TotalDivisions counts entries with a non-empty daughters list.
	TotalDivisions int
	// AvgCellDensity is the mean live-cell count per frame, normalized to
	// cells per 100 square pixels.
	AvgCellDensity float64
	// AvgTrackLengthFrames is the mean number of frames a track appears in,
	// averaged within each batch and then across batches.
	AvgTrackLengthFrames float64
	// ImageShape is the shape of the raw tensor.
	ImageShape []int
}

// String renders the report for terminal display.
func (r *Report) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Dataset Statistics:\n")
	fmt.Fprintf(&b, "Image data shape: %v\n", r.ImageShape)
	fmt.Fprintf(&b, "Number of lineages (should equal batch size): %d\n", r.NumLineages)
	fmt.Fprintf(&b, "Total number of unique tracks (cells)      - %d\n", r.TotalTracks)
	fmt.Fprintf(&b, "Total number of divisions                  - %d\n", r.TotalDivisions)
	fmt.Fprintf(&b, "Average cell density (cells/100 sq pixels) - %g\n", r.AvgCellDensity)
	fmt.Fprintf(&b, "Average number of frames per track         - %d\n", int(r.AvgTrackLengthFrames))
	return b.String()
}

// Compute loads the archive at path and summarizes it. The path must carry a
// .trk or .trks extension; anything else fails before any I/O.
func Compute(path string) (*Report, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case archive.ExtTrk, archive.ExtTrks:
	default:
		return nil, &archive.InvalidExtensionError{Path: path, Allowed: []string{archive.ExtTrk, archive.ExtTrks}}
	}

	a, err := archive.Load(path)
	if err != nil {
		return nil, err
	}
	return FromArchive(a)
}

// FromArchive summarizes an already-decoded archive.
func FromArchive(a *archive.Archive) (*Report, error) {
	if a.Y.DType() != tensor.Int32 {
		return nil, fmt.Errorf("tracked tensor must be int32 labels, got %s", a.Y.DType())
	}
	if a.X.Rank() < 4 {
		return nil, fmt.Errorf("archived tensors must be batched (rank >= 4), got rank %d", a.X.Rank())
	}

	report := &Report{
		NumLineages: len(a.Lineages),
		ImageShape:  a.X.Shape(),
	}

	// Frame area from the two spatial axes of the batched (B, T, H, W, ...)
	// raw tensor.
	frameArea := float64(a.X.Dim(2) * a.X.Dim(3))

	var batchDensities, batchTrackLengths []float64
	for b := 0; b < a.Y.Dim(0); b++ {
		batch, err := a.Y.Batch(b)
		if err != nil {
			return nil, err
		}

		// One distinct-label set per frame serves both metrics.
		numFrames := batch.NumFrames(tensor.ChannelsLast)
		frameLabels := make([]*roaring.Bitmap, numFrames)
		cellsPerFrame := make([]float64, numFrames)
		for t := 0; t < numFrames; t++ {
			labels := roaring.New()
			if err := batch.EachFrameBlock(t, tensor.ChannelsLast, func(lo, hi int) {
				for _, v := range batch.Ints()[lo:hi] {
					if v > 0 {
						labels.Add(uint32(v))
					}
				}
			}); err != nil {
				return nil, err
			}
			frameLabels[t] = labels
			cellsPerFrame[t] = float64(labels.GetCardinality())
		}
		batchDensities = append(batchDensities, mean(cellsPerFrame))

		if b >= len(a.Lineages) {
			continue
		}
		graph := a.Lineages[b]
		report.TotalTracks += len(graph)
		report.TotalDivisions += len(graph.Divisions())

		var trackLengths []float64
		for _, label := range graph.Labels() {
			count := 0
			for _, labels := range frameLabels {
				if label > 0 && labels.Contains(uint32(label)) {
					count++
				}
			}
			trackLengths = append(trackLengths, float64(count))
		}
		if len(trackLengths) > 0 {
			batchTrackLengths = append(batchTrackLengths, mean(trackLengths))
		}
	}

	report.AvgCellDensity = mean(batchDensities) / frameArea * 100
	report.AvgTrackLengthFrames = mean(batchTrackLengths)
	return report, nil
}

// mean is stat.Mean guarded against empty inputs (which would yield NaN).
func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	return stat.Mean(xs, nil)
}
