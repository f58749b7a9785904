// Package relabel sanitizes annotation volumes so every instance label is
// unique across the whole volume rather than within one frame.
//
// Sanitize is not a tracker: it deliberately destroys cross-frame identity.
// A label that names the same cell in two input frames names two unrelated
// instances afterwards. Run it before archiving so lineage graphs can key
// records by label alone.
package relabel

import (
	"fmt"

	"github.com/RoaringBitmap/roaring/v2"

	"github.com/hupe1980/trackio/tensor"
)

// Options configures Sanitize.
type Options struct {
	// StartID is the first id assigned. If 0, the default heuristic is
	// used: 1 + the sum of per-frame distinct label counts. That heuristic
	// avoids collision with the count of labels, not their values, so
	// sparse inputs with very large pre-existing labels can in principle
	// still collide. Pass an explicit StartID to sidestep it.
	StartID int32
}

// DefaultOptions are the options used when none are given.
var DefaultOptions = Options{}

// WithStartID sets the first id assigned during relabeling.
func WithStartID(id int32) func(*Options) {
	return func(o *Options) {
		o.StartID = id
	}
}

// Sanitize rewrites y so every non-background label is unique across the
// whole volume. Frames are visited in time order and each frame's distinct
// labels in ascending order, so assignment is deterministic. Background (0)
// is left untouched. The input is not modified; the result is always Int32.
func Sanitize(y *tensor.Volume, layout tensor.Layout, optFns ...func(*Options)) (*tensor.Volume, error) {
	o := DefaultOptions
	for _, fn := range optFns {
		fn(&o)
	}

	if y.DType() != tensor.Int32 {
		return nil, fmt.Errorf("annotation volume must be int32 labels, got %s", y.DType())
	}
	if y.Rank() < 2 {
		return nil, fmt.Errorf("annotation volume must have a time axis, got rank %d", y.Rank())
	}

	numFrames := y.NumFrames(layout)
	frameLabels := make([]*roaring.Bitmap, numFrames)
	total := int32(0)
	for t := 0; t < numFrames; t++ {
		labels := roaring.New()
		if err := y.EachFrameBlock(t, layout, func(lo, hi int) {
			for _, v := range y.Ints()[lo:hi] {
				if v > 0 {
					labels.Add(uint32(v))
				}
			}
		}); err != nil {
			return nil, err
		}
		frameLabels[t] = labels
		total += int32(labels.GetCardinality())
	}

	uid := o.StartID
	if uid == 0 {
		uid = total + 1
	}

	out := tensor.NewInt32(y.Shape()...)
	for t := 0; t < numFrames; t++ {
		uid = relabelFrame(y, out, t, layout, frameLabels[t], uid)
	}
	return out, nil
}

// relabelFrame assigns fresh ids to one frame's labels in ascending label
// order and returns the next unused id. The counter is threaded explicitly so
// the step is referentially transparent.
func relabelFrame(src, dst *tensor.Volume, t int, layout tensor.Layout, labels *roaring.Bitmap, uid int32) int32 {
	remap := make(map[int32]int32, labels.GetCardinality())
	it := labels.Iterator()
	for it.HasNext() {
		remap[int32(it.Next())] = uid
		uid++
	}

	// Range already validated by the caller's label collection pass.
	_ = src.EachFrameBlock(t, layout, func(lo, hi int) {
		in, out := src.Ints()[lo:hi], dst.Ints()[lo:hi]
		for i, v := range in {
			if v > 0 {
				out[i] = remap[v]
			}
		}
	})
	return uid
}
