package tensor

import "fmt"

// Layout determines the position of the channel axis in a volume.
//
// ChannelsLast places channels on the trailing axis (T, H, W, C);
// ChannelsFirst places them on the leading axis (C, T, H, W). Batched
// tensors carry the batch axis in front of either layout.
type Layout uint8

const (
	// ChannelsLast is the default layout (T, H, W, C).
	ChannelsLast Layout = iota
	// ChannelsFirst is the (C, T, H, W) layout.
	ChannelsFirst
)

// String returns the canonical name of the layout.
func (l Layout) String() string {
	switch l {
	case ChannelsFirst:
		return "channels_first"
	default:
		return "channels_last"
	}
}

// ParseLayout converts a layout name to a Layout.
func ParseLayout(s string) (Layout, error) {
	switch s {
	case "channels_last":
		return ChannelsLast, nil
	case "channels_first":
		return ChannelsFirst, nil
	default:
		return ChannelsLast, fmt.Errorf("unknown layout %q", s)
	}
}

// TimeAxis returns the index of the time axis in a batchless volume.
func (l Layout) TimeAxis() int {
	if l == ChannelsFirst {
		return 1
	}
	return 0
}

// ChannelAxis returns the index of the channel axis in a rank-dimensional
// batchless volume.
func (l Layout) ChannelAxis(rank int) int {
	if l == ChannelsFirst {
		return 0
	}
	return rank - 1
}
