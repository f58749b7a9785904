package tensor

import "fmt"

// DType identifies the element type of a Volume.
type DType uint8

const (
	// Int32 stores signed 32-bit integers (label volumes).
	Int32 DType = iota
	// Float64 stores 64-bit floats (raw intensity volumes).
	Float64
)

// String returns the name of the dtype.
func (d DType) String() string {
	switch d {
	case Float64:
		return "float64"
	default:
		return "int32"
	}
}

// Volume is a dense n-dimensional array in row-major (C) order.
//
// Exactly one of the two backing slices is populated, selected by the dtype.
// Label data lives in Int32 volumes where 0 is background and every positive
// value names one cell instance; raw intensity data lives in Float64 volumes.
type Volume struct {
	shape  []int
	dtype  DType
	ints   []int32
	floats []float64
}

// NewInt32 allocates a zero-filled Int32 volume with the given shape.
func NewInt32(shape ...int) *Volume {
	return &Volume{
		shape: append([]int(nil), shape...),
		dtype: Int32,
		ints:  make([]int32, prod(shape)),
	}
}

// NewFloat64 allocates a zero-filled Float64 volume with the given shape.
func NewFloat64(shape ...int) *Volume {
	return &Volume{
		shape:  append([]int(nil), shape...),
		dtype:  Float64,
		floats: make([]float64, prod(shape)),
	}
}

// FromInt32 wraps an existing slice as an Int32 volume. The slice is not
// copied; it must have exactly prod(shape) elements.
func FromInt32(data []int32, shape ...int) (*Volume, error) {
	if len(data) != prod(shape) {
		return nil, fmt.Errorf("data length %d does not match shape %v", len(data), shape)
	}
	return &Volume{shape: append([]int(nil), shape...), dtype: Int32, ints: data}, nil
}

// FromFloat64 wraps an existing slice as a Float64 volume. The slice is not
// copied; it must have exactly prod(shape) elements.
func FromFloat64(data []float64, shape ...int) (*Volume, error) {
	if len(data) != prod(shape) {
		return nil, fmt.Errorf("data length %d does not match shape %v", len(data), shape)
	}
	return &Volume{shape: append([]int(nil), shape...), dtype: Float64, floats: data}, nil
}

// Shape returns a copy of the volume's shape.
func (v *Volume) Shape() []int { return append([]int(nil), v.shape...) }

// Dim returns the extent of axis i.
func (v *Volume) Dim(i int) int { return v.shape[i] }

// Rank returns the number of axes.
func (v *Volume) Rank() int { return len(v.shape) }

// Len returns the total number of elements.
func (v *Volume) Len() int { return prod(v.shape) }

// DType returns the element type.
func (v *Volume) DType() DType { return v.dtype }

// Ints returns the backing slice of an Int32 volume.
// Mutations are visible to every view sharing the storage.
func (v *Volume) Ints() []int32 { return v.ints }

// Floats returns the backing slice of a Float64 volume.
func (v *Volume) Floats() []float64 { return v.floats }

// Clone returns a deep copy of the volume.
func (v *Volume) Clone() *Volume {
	out := &Volume{shape: append([]int(nil), v.shape...), dtype: v.dtype}
	if v.dtype == Int32 {
		out.ints = append([]int32(nil), v.ints...)
	} else {
		out.floats = append([]float64(nil), v.floats...)
	}
	return out
}

// Equal reports whether two volumes have identical dtype, shape, and values.
func (v *Volume) Equal(o *Volume) bool {
	if v == nil || o == nil {
		return v == o
	}
	if v.dtype != o.dtype || len(v.shape) != len(o.shape) {
		return false
	}
	for i, d := range v.shape {
		if o.shape[i] != d {
			return false
		}
	}
	if v.dtype == Int32 {
		for i, x := range v.ints {
			if o.ints[i] != x {
				return false
			}
		}
		return true
	}
	for i, x := range v.floats {
		if o.floats[i] != x {
			return false
		}
	}
	return true
}

// SameShape reports whether two volumes have identical shapes.
func (v *Volume) SameShape(o *Volume) bool {
	if v.Rank() != o.Rank() {
		return false
	}
	for i, d := range v.shape {
		if o.shape[i] != d {
			return false
		}
	}
	return true
}

// Batch returns a zero-copy view of item i along the leading axis.
// The view shares storage with the parent volume.
func (v *Volume) Batch(i int) (*Volume, error) {
	if v.Rank() < 1 {
		return nil, fmt.Errorf("cannot slice a rank-0 volume")
	}
	if i < 0 || i >= v.shape[0] {
		return nil, fmt.Errorf("batch index %d out of range [0, %d)", i, v.shape[0])
	}
	size := prod(v.shape[1:])
	out := &Volume{shape: append([]int(nil), v.shape[1:]...), dtype: v.dtype}
	if v.dtype == Int32 {
		out.ints = v.ints[i*size : (i+1)*size]
	} else {
		out.floats = v.floats[i*size : (i+1)*size]
	}
	return out, nil
}

// NumFrames returns the time extent of a batchless volume under the layout.
func (v *Volume) NumFrames(layout Layout) int {
	return v.shape[layout.TimeAxis()]
}

// EachFrameBlock invokes fn for every contiguous [lo, hi) range of flat
// indices belonging to time step t of a batchless volume.
//
// Under ChannelsLast the time axis leads, so a frame is one contiguous block.
// Under ChannelsFirst the channel axis leads and each channel contributes one
// block per frame.
func (v *Volume) EachFrameBlock(t int, layout Layout, fn func(lo, hi int)) error {
	if v.Rank() < 2 {
		return fmt.Errorf("frame iteration needs rank >= 2, got %d", v.Rank())
	}
	if t < 0 || t >= v.NumFrames(layout) {
		return fmt.Errorf("frame %d out of range [0, %d)", t, v.NumFrames(layout))
	}
	if layout == ChannelsFirst {
		block := prod(v.shape[2:])
		for c := 0; c < v.shape[0]; c++ {
			lo := c*v.shape[1]*block + t*block
			fn(lo, lo+block)
		}
		return nil
	}
	size := prod(v.shape[1:])
	fn(t*size, (t+1)*size)
	return nil
}

func prod(shape []int) int {
	n := 1
	for _, d := range shape {
		n *= d
	}
	return n
}
