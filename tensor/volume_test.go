package tensor

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestVolume_ShapeAndLen(t *testing.T) {
	v := NewInt32(2, 3, 4)
	require.Equal(t, []int{2, 3, 4}, v.Shape())
	require.Equal(t, 3, v.Rank())
	require.Equal(t, 24, v.Len())
	require.Equal(t, Int32, v.DType())
	require.Len(t, v.Ints(), 24)
	require.Nil(t, v.Floats())
}

func TestFromInt32_LengthMismatch(t *testing.T) {
	_, err := FromInt32(make([]int32, 5), 2, 3)
	require.Error(t, err)
}

func TestVolume_Equal(t *testing.T) {
	a, err := FromInt32([]int32{1, 2, 3, 4}, 2, 2)
	require.NoError(t, err)
	b, err := FromInt32([]int32{1, 2, 3, 4}, 2, 2)
	require.NoError(t, err)
	require.True(t, a.Equal(b))

	b.Ints()[3] = 9
	require.False(t, a.Equal(b))

	c, err := FromInt32([]int32{1, 2, 3, 4}, 4)
	require.NoError(t, err)
	require.False(t, a.Equal(c))

	f, err := FromFloat64([]float64{1, 2, 3, 4}, 2, 2)
	require.NoError(t, err)
	require.False(t, a.Equal(f))
}

func TestVolume_Clone(t *testing.T) {
	a, err := FromFloat64([]float64{0.5, 1.5}, 2)
	require.NoError(t, err)
	b := a.Clone()
	require.True(t, a.Equal(b))
	b.Floats()[0] = 9
	require.Equal(t, 0.5, a.Floats()[0])
}

func TestVolume_BatchView(t *testing.T) {
	v, err := FromInt32([]int32{1, 2, 3, 4, 5, 6}, 2, 3)
	require.NoError(t, err)

	b1, err := v.Batch(1)
	require.NoError(t, err)
	require.Equal(t, []int{3}, b1.Shape())
	require.Equal(t, []int32{4, 5, 6}, b1.Ints())

	// Views share storage with the parent.
	b1.Ints()[0] = 40
	require.Equal(t, int32(40), v.Ints()[3])

	_, err = v.Batch(2)
	require.Error(t, err)
}

func TestVolume_EachFrameBlock_ChannelsLast(t *testing.T) {
	// (T=2, H=1, W=3, C=1)
	v, err := FromInt32([]int32{1, 2, 3, 4, 5, 6}, 2, 1, 3, 1)
	require.NoError(t, err)

	var got []int32
	err = v.EachFrameBlock(1, ChannelsLast, func(lo, hi int) {
		got = append(got, v.Ints()[lo:hi]...)
	})
	require.NoError(t, err)
	require.Equal(t, []int32{4, 5, 6}, got)
}

func TestVolume_EachFrameBlock_ChannelsFirst(t *testing.T) {
	// (C=2, T=2, H=1, W=2): channel blocks for one frame are discontiguous.
	v, err := FromInt32([]int32{
		1, 2, 3, 4, // channel 0, frames 0 and 1
		5, 6, 7, 8, // channel 1, frames 0 and 1
	}, 2, 2, 1, 2)
	require.NoError(t, err)

	var got []int32
	err = v.EachFrameBlock(1, ChannelsFirst, func(lo, hi int) {
		got = append(got, v.Ints()[lo:hi]...)
	})
	require.NoError(t, err)
	require.Equal(t, []int32{3, 4, 7, 8}, got)
}

func TestVolume_EachFrameBlock_Range(t *testing.T) {
	v := NewInt32(2, 2)
	require.Error(t, v.EachFrameBlock(2, ChannelsLast, func(lo, hi int) {}))
	require.Error(t, v.EachFrameBlock(-1, ChannelsLast, func(lo, hi int) {}))
}

func TestLayout_Axes(t *testing.T) {
	require.Equal(t, 0, ChannelsLast.TimeAxis())
	require.Equal(t, 1, ChannelsFirst.TimeAxis())
	require.Equal(t, 3, ChannelsLast.ChannelAxis(4))
	require.Equal(t, 0, ChannelsFirst.ChannelAxis(4))
}

func TestParseLayout(t *testing.T) {
	l, err := ParseLayout("channels_first")
	require.NoError(t, err)
	require.Equal(t, ChannelsFirst, l)

	l, err = ParseLayout("channels_last")
	require.NoError(t, err)
	require.Equal(t, ChannelsLast, l)

	_, err = ParseLayout("channels_middle")
	require.Error(t, err)

	require.Equal(t, "channels_last", ChannelsLast.String())
	require.Equal(t, "channels_first", ChannelsFirst.String())
}
