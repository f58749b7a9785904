package relabel

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hupe1980/trackio/tensor"
)

// scenario builds the reference volume: 2 frames of 4x4, frame 0 holds labels
// {1, 2}, frame 1 holds {1, 3}.
func scenario(t *testing.T) *tensor.Volume {
	t.Helper()

	y := tensor.NewInt32(2, 4, 4, 1)
	f0 := y.Ints()[:16]
	f1 := y.Ints()[16:]

	f0[0], f0[1] = 1, 1
	f0[5] = 2
	f1[2] = 1
	f1[10], f1[11] = 3, 3
	return y
}

func TestSanitize_ReferenceAssignment(t *testing.T) {
	y := scenario(t)

	out, err := Sanitize(y, tensor.ChannelsLast)
	require.NoError(t, err)

	// Default start id = 1 + (2 distinct in frame 0 + 2 distinct in frame 1) = 5.
	// Frame 0: {1 -> 5, 2 -> 6}; frame 1: {1 -> 7, 3 -> 8}.
	f0 := out.Ints()[:16]
	f1 := out.Ints()[16:]
	require.Equal(t, int32(5), f0[0])
	require.Equal(t, int32(5), f0[1])
	require.Equal(t, int32(6), f0[5])
	require.Equal(t, int32(7), f1[2])
	require.Equal(t, int32(8), f1[10])
	require.Equal(t, int32(8), f1[11])
}

func TestSanitize_ExplicitStartID(t *testing.T) {
	y := scenario(t)

	out, err := Sanitize(y, tensor.ChannelsLast, WithStartID(1))
	require.NoError(t, err)

	// Ids 1,2 to frame 0's {1,2}; ids 3,4 to frame 1's {1,3}, in that order.
	f0 := out.Ints()[:16]
	f1 := out.Ints()[16:]
	require.Equal(t, int32(1), f0[0])
	require.Equal(t, int32(2), f0[5])
	require.Equal(t, int32(3), f1[2])
	require.Equal(t, int32(4), f1[10])
}

func TestSanitize_BackgroundUntouched(t *testing.T) {
	y := scenario(t)

	out, err := Sanitize(y, tensor.ChannelsLast)
	require.NoError(t, err)

	for i, v := range y.Ints() {
		if v == 0 {
			require.Zero(t, out.Ints()[i], "background pixel %d rewritten", i)
		} else {
			require.NotZero(t, out.Ints()[i])
		}
	}
	// Input must not be modified.
	require.Equal(t, int32(1), y.Ints()[0])
}

func TestSanitize_GlobalUniquenessProperty(t *testing.T) {
	rng := rand.New(rand.NewSource(42))

	// Random volume: 6 frames of 8x8, labels drawn from a colliding range.
	y := tensor.NewInt32(6, 8, 8, 1)
	for i := range y.Ints() {
		if rng.Intn(3) == 0 {
			y.Ints()[i] = int32(rng.Intn(7)) // 0..6, 0 = background
		}
	}

	// Per-frame distinct input counts.
	wantDistinct := 0
	frameSize := 64
	for f := 0; f < 6; f++ {
		seen := map[int32]bool{}
		for _, v := range y.Ints()[f*frameSize : (f+1)*frameSize] {
			if v > 0 {
				seen[v] = true
			}
		}
		wantDistinct += len(seen)
	}

	out, err := Sanitize(y, tensor.ChannelsLast)
	require.NoError(t, err)

	// Every output label is unique to one frame; count equals the summed
	// per-frame distinct input counts.
	global := map[int32]int{}
	for f := 0; f < 6; f++ {
		seen := map[int32]bool{}
		for _, v := range out.Ints()[f*frameSize : (f+1)*frameSize] {
			if v > 0 {
				seen[v] = true
			}
		}
		for v := range seen {
			global[v]++
		}
	}
	for v, frames := range global {
		require.Equal(t, 1, frames, "label %d appears in %d frames", v, frames)
	}
	require.Len(t, global, wantDistinct)
}

func TestSanitize_ChannelsFirst(t *testing.T) {
	// (C=1, T=2, H=2, W=2)
	y, err := tensor.FromInt32([]int32{
		1, 0, 0, 2, // frame 0
		2, 2, 0, 0, // frame 1
	}, 1, 2, 2, 2)
	require.NoError(t, err)

	out, err := Sanitize(y, tensor.ChannelsFirst, WithStartID(10))
	require.NoError(t, err)
	require.Equal(t, []int32{10, 0, 0, 11, 12, 12, 0, 0}, out.Ints())
}

func TestSanitize_RejectsFloatVolume(t *testing.T) {
	_, err := Sanitize(tensor.NewFloat64(2, 4, 4, 1), tensor.ChannelsLast)
	require.Error(t, err)
}

func TestSanitize_EmptyVolume(t *testing.T) {
	out, err := Sanitize(tensor.NewInt32(3, 4, 4, 1), tensor.ChannelsLast)
	require.NoError(t, err)
	for _, v := range out.Ints() {
		require.Zero(t, v)
	}
}
