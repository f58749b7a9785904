// Package sampling estimates sample budgets for contrastive training on
// tracked cell data.
package sampling

import (
	"errors"
	"fmt"
	"math"

	"github.com/RoaringBitmap/roaring/v2"

	"github.com/hupe1980/trackio/tensor"
)

// ErrProbabilityRange is returned when sameProbability is outside (0, 1].
var ErrProbabilityRange = errors.New("same probability must be in (0, 1]")

// CountPairs estimates how many sample pairs a contrastive pipeline must draw
// from y to statistically observe every same-cell and different-cell pairing.
//
// y is a 5-D label tensor (batch plus a batchless layout). The estimate
// approximates every cell as present in every frame of its batch, which
// biases it low, and is a planning heuristic rather than an exact
// combinatorial count. Holding the data fixed, a smaller sameProbability
// never decreases the result.
func CountPairs(y *tensor.Volume, sameProbability float64, layout tensor.Layout) (int, error) {
	if sameProbability <= 0 || sameProbability > 1 {
		return 0, fmt.Errorf("%w: got %v", ErrProbabilityRange, sameProbability)
	}
	if y.DType() != tensor.Int32 {
		return 0, fmt.Errorf("label tensor must be int32, got %s", y.DType())
	}
	if y.Rank() != 5 {
		return 0, fmt.Errorf("label tensor must be 5-dimensional, got rank %d", y.Rank())
	}

	numBatches := y.Dim(0)
	totalPairs := 0
	for b := 0; b < numBatches; b++ {
		batch, err := y.Batch(b)
		if err != nil {
			return 0, err
		}

		numFrames := batch.NumFrames(layout)
		sum, maxCells := 0, 0
		for t := 0; t < numFrames; t++ {
			labels := roaring.New()
			if err := batch.EachFrameBlock(t, layout, func(lo, hi int) {
				for _, v := range batch.Ints()[lo:hi] {
					if v > 0 {
						labels.Add(uint32(v))
					}
				}
			}); err != nil {
				return 0, err
			}
			cells := int(labels.GetCardinality())
			sum += cells
			if cells > maxCells {
				maxCells = cells
			}
		}
		if numFrames == 0 {
			continue
		}

		// Non-self pairings dominate self pairings, so estimate those and
		// scale by the odds of drawing a non-self pair.
		avgCellsPerFrame := sum / numFrames
		nonSelfCellframes := (avgCellsPerFrame - 1) * numFrames
		nonSelfPairings := nonSelfCellframes * maxCells
		if nonSelfPairings <= 0 {
			// Empty or single-cell batches contribute nothing.
			continue
		}
		totalPairs += int(math.Floor(float64(nonSelfPairings) / sameProbability))
	}
	return totalPairs, nil
}
