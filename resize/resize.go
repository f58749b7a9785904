// Package resize scales image frames to a target spatial shape.
//
// Two strategies exist behind one interface: a fast single-channel path built
// on the x/image scaler, and a general per-channel bilinear path for
// multi-channel data. For picks the strategy from the channel extent; Resize
// is the dispatching entry point most callers want.
package resize

import (
	"fmt"
	"image"
	"image/color"
	"math"

	"golang.org/x/image/draw"

	"github.com/hupe1980/trackio/tensor"
)

// Resizer scales one image volume to a target spatial shape.
type Resizer interface {
	Resize(data *tensor.Volume, height, width int, layout tensor.Layout) (*tensor.Volume, error)
}

// For selects the strategy for a channel extent: the fast single-channel
// path when channels == 1, otherwise the general multi-channel path.
func For(channels int) Resizer {
	if channels == 1 {
		return grayResizer{}
	}
	return multiChannelResizer{}
}

// Resize scales data, a rank-3 image (H, W, C) or (C, H, W) float volume,
// dispatching on its channel extent.
func Resize(data *tensor.Volume, height, width int, layout tensor.Layout) (*tensor.Volume, error) {
	if data.Rank() != 3 {
		return nil, fmt.Errorf("resize expects a rank-3 image volume, got rank %d", data.Rank())
	}
	channels := data.Dim(layout.ChannelAxis(data.Rank()))
	return For(channels).Resize(data, height, width, layout)
}

// grayResizer squeezes the singleton channel axis, scales the plane through
// the x/image bilinear scaler (quantized to 16 bits), and re-inserts the
// channel axis. The quantization is the cost of the fast path.
type grayResizer struct{}

func (grayResizer) Resize(data *tensor.Volume, height, width int, layout tensor.Layout) (*tensor.Volume, error) {
	srcH, srcW, err := spatialDims(data, layout)
	if err != nil {
		return nil, err
	}
	if data.Dim(layout.ChannelAxis(data.Rank())) != 1 {
		return nil, fmt.Errorf("single-channel resizer called with multi-channel data")
	}

	// The channel axis is singleton, so the plane is the whole storage in
	// either layout.
	pix := data.Floats()

	lo, hi := math.Inf(1), math.Inf(-1)
	for _, v := range pix {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}

	out := newImageVolume(height, width, 1, layout)
	if hi <= lo {
		for i := range out.Floats() {
			out.Floats()[i] = lo
		}
		return out, nil
	}

	src := image.NewGray16(image.Rect(0, 0, srcW, srcH))
	scale := 65535 / (hi - lo)
	for y := 0; y < srcH; y++ {
		for x := 0; x < srcW; x++ {
			src.SetGray16(x, y, color.Gray16{Y: uint16(math.Round((pix[y*srcW+x] - lo) * scale))})
		}
	}

	dst := image.NewGray16(image.Rect(0, 0, width, height))
	draw.BiLinear.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)

	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			out.Floats()[y*width+x] = lo + float64(dst.Gray16At(x, y).Y)/scale
		}
	}
	return out, nil
}

// multiChannelResizer interpolates each channel independently in float64,
// with no quantization.
type multiChannelResizer struct{}

func (multiChannelResizer) Resize(data *tensor.Volume, height, width int, layout tensor.Layout) (*tensor.Volume, error) {
	srcH, srcW, err := spatialDims(data, layout)
	if err != nil {
		return nil, err
	}
	channels := data.Dim(layout.ChannelAxis(data.Rank()))

	out := newImageVolume(height, width, channels, layout)
	for c := 0; c < channels; c++ {
		src := channelPlane(data, c, srcH, srcW, layout)
		dst := channelPlane(out, c, height, width, layout)
		bilinear(src, srcH, srcW, dst, height, width)
	}
	return out, nil
}

func spatialDims(data *tensor.Volume, layout tensor.Layout) (h, w int, err error) {
	if data.DType() != tensor.Float64 {
		return 0, 0, fmt.Errorf("resize expects a float64 volume, got %s", data.DType())
	}
	if layout == tensor.ChannelsFirst {
		return data.Dim(1), data.Dim(2), nil
	}
	return data.Dim(0), data.Dim(1), nil
}

func newImageVolume(height, width, channels int, layout tensor.Layout) *tensor.Volume {
	if layout == tensor.ChannelsFirst {
		return tensor.NewFloat64(channels, height, width)
	}
	return tensor.NewFloat64(height, width, channels)
}

// channelPlane describes where channel c's samples live: a contiguous block
// under ChannelsFirst, a strided view under ChannelsLast.
type plane struct {
	data   []float64
	offset int
	stride int
}

func channelPlane(v *tensor.Volume, c, h, w int, layout tensor.Layout) plane {
	if layout == tensor.ChannelsFirst {
		return plane{data: v.Floats()[c*h*w : (c+1)*h*w], offset: 0, stride: 1}
	}
	channels := v.Dim(2)
	return plane{data: v.Floats(), offset: c, stride: channels}
}

func (p plane) at(i int) float64     { return p.data[p.offset+i*p.stride] }
func (p plane) set(i int, v float64) { p.data[p.offset+i*p.stride] = v }

func bilinear(src plane, srcH, srcW int, dst plane, dstH, dstW int) {
	scaleY := float64(srcH) / float64(dstH)
	scaleX := float64(srcW) / float64(dstW)

	for y := 0; y < dstH; y++ {
		fy := (float64(y)+0.5)*scaleY - 0.5
		y0 := clamp(int(math.Floor(fy)), 0, srcH-1)
		y1 := clamp(y0+1, 0, srcH-1)
		wy := clamp01(fy - float64(y0))

		for x := 0; x < dstW; x++ {
			fx := (float64(x)+0.5)*scaleX - 0.5
			x0 := clamp(int(math.Floor(fx)), 0, srcW-1)
			x1 := clamp(x0+1, 0, srcW-1)
			wx := clamp01(fx - float64(x0))

			top := src.at(y0*srcW+x0)*(1-wx) + src.at(y0*srcW+x1)*wx
			bot := src.at(y1*srcW+x0)*(1-wx) + src.at(y1*srcW+x1)*wx
			dst.set(y*dstW+x, top*(1-wy)+bot*wy)
		}
	}
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
