// Package npy encodes and decodes tensors in the NPY binary format (v1.0).
//
// Encoding always emits little-endian C-order data: "<i4" for Int32 volumes
// and "<f8" for Float64 volumes. Decoding is dtype-driven and widens a range
// of integer and float descrs into the two storage classes, since archives
// written by other tools carry whatever dtype their tensors happened to have.
package npy

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/hupe1980/trackio/tensor"
)

var magic = []byte("\x93NUMPY")

const headerAlign = 64

// Encode writes v to w in NPY v1.0 format.
func Encode(w io.Writer, v *tensor.Volume) error {
	var descr string
	switch v.DType() {
	case tensor.Int32:
		descr = "<i4"
	case tensor.Float64:
		descr = "<f8"
	default:
		return fmt.Errorf("unsupported dtype %s", v.DType())
	}

	header := fmt.Sprintf("{'descr': '%s', 'fortran_order': False, 'shape': %s, }", descr, shapeTuple(v.Shape()))
	// Pad so the data section starts on a 64-byte boundary, newline last.
	unpadded := len(magic) + 2 + 2 + len(header) + 1
	pad := (headerAlign - unpadded%headerAlign) % headerAlign
	header += strings.Repeat(" ", pad) + "\n"

	if _, err := w.Write(magic); err != nil {
		return err
	}
	if _, err := w.Write([]byte{1, 0}); err != nil {
		return err
	}
	var hlen [2]byte
	binary.LittleEndian.PutUint16(hlen[:], uint16(len(header)))
	if _, err := w.Write(hlen[:]); err != nil {
		return err
	}
	if _, err := io.WriteString(w, header); err != nil {
		return err
	}
	return encodeData(w, v)
}

func encodeData(w io.Writer, v *tensor.Volume) error {
	const chunk = 8192
	if v.DType() == tensor.Int32 {
		buf := make([]byte, 4*chunk)
		data := v.Ints()
		for len(data) > 0 {
			n := min(len(data), chunk)
			for i, x := range data[:n] {
				binary.LittleEndian.PutUint32(buf[4*i:], uint32(x))
			}
			if _, err := w.Write(buf[:4*n]); err != nil {
				return err
			}
			data = data[n:]
		}
		return nil
	}
	buf := make([]byte, 8*chunk)
	data := v.Floats()
	for len(data) > 0 {
		n := min(len(data), chunk)
		for i, x := range data[:n] {
			binary.LittleEndian.PutUint64(buf[8*i:], math.Float64bits(x))
		}
		if _, err := w.Write(buf[:8*n]); err != nil {
			return err
		}
		data = data[n:]
	}
	return nil
}

var (
	descrRe   = regexp.MustCompile(`'descr':\s*'([^']+)'`)
	fortranRe = regexp.MustCompile(`'fortran_order':\s*(True|False)`)
	shapeRe   = regexp.MustCompile(`'shape':\s*\(([^)]*)\)`)
)

// Decode reads one NPY tensor from r.
//
// Integer descrs up to 64 bits decode into Int32 storage (values outside the
// int32 range are an error); float descrs decode into Float64 storage.
func Decode(r io.Reader) (*tensor.Volume, error) {
	head := make([]byte, 8)
	if _, err := io.ReadFull(r, head); err != nil {
		return nil, fmt.Errorf("read npy preamble: %w", err)
	}
	if string(head[:6]) != string(magic) {
		return nil, fmt.Errorf("bad npy magic %q", head[:6])
	}

	var hlen int
	switch head[6] {
	case 1:
		var b [2]byte
		if _, err := io.ReadFull(r, b[:]); err != nil {
			return nil, fmt.Errorf("read npy header length: %w", err)
		}
		hlen = int(binary.LittleEndian.Uint16(b[:]))
	case 2, 3:
		var b [4]byte
		if _, err := io.ReadFull(r, b[:]); err != nil {
			return nil, fmt.Errorf("read npy header length: %w", err)
		}
		hlen = int(binary.LittleEndian.Uint32(b[:]))
	default:
		return nil, fmt.Errorf("unsupported npy version %d.%d", head[6], head[7])
	}

	header := make([]byte, hlen)
	if _, err := io.ReadFull(r, header); err != nil {
		return nil, fmt.Errorf("read npy header: %w", err)
	}

	descr, shape, err := parseHeader(string(header))
	if err != nil {
		return nil, err
	}
	return decodeData(r, descr, shape)
}

func parseHeader(header string) (descr string, shape []int, err error) {
	m := descrRe.FindStringSubmatch(header)
	if m == nil {
		return "", nil, fmt.Errorf("npy header missing descr: %q", header)
	}
	descr = m[1]

	f := fortranRe.FindStringSubmatch(header)
	if f == nil {
		return "", nil, fmt.Errorf("npy header missing fortran_order: %q", header)
	}
	if f[1] == "True" {
		return "", nil, fmt.Errorf("fortran-order npy data is not supported")
	}

	s := shapeRe.FindStringSubmatch(header)
	if s == nil {
		return "", nil, fmt.Errorf("npy header missing shape: %q", header)
	}
	for _, part := range strings.Split(s[1], ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		d, err := strconv.Atoi(part)
		if err != nil {
			return "", nil, fmt.Errorf("bad npy shape element %q: %w", part, err)
		}
		shape = append(shape, d)
	}
	return descr, shape, nil
}

func decodeData(r io.Reader, descr string, shape []int) (*tensor.Volume, error) {
	count := 1
	for _, d := range shape {
		count *= d
	}

	kind, size, err := dtypeOf(descr)
	if err != nil {
		return nil, err
	}

	raw := make([]byte, count*size)
	if _, err := io.ReadFull(r, raw); err != nil {
		return nil, fmt.Errorf("read npy data (%s, %d elements): %w", descr, count, err)
	}

	if kind == tensor.Float64 {
		floats := make([]float64, count)
		for i := range floats {
			if size == 4 {
				floats[i] = float64(math.Float32frombits(binary.LittleEndian.Uint32(raw[4*i:])))
			} else {
				floats[i] = math.Float64frombits(binary.LittleEndian.Uint64(raw[8*i:]))
			}
		}
		return tensor.FromFloat64(floats, shape...)
	}

	ints := make([]int32, count)
	for i := range ints {
		v, err := readInt(raw, i, descr, size)
		if err != nil {
			return nil, err
		}
		ints[i] = v
	}
	return tensor.FromInt32(ints, shape...)
}

func readInt(raw []byte, i int, descr string, size int) (int32, error) {
	signed := strings.Contains(descr, "i")
	var v int64
	switch size {
	case 1:
		if signed {
			v = int64(int8(raw[i]))
		} else {
			v = int64(raw[i])
		}
	case 2:
		if signed {
			v = int64(int16(binary.LittleEndian.Uint16(raw[2*i:])))
		} else {
			v = int64(binary.LittleEndian.Uint16(raw[2*i:]))
		}
	case 4:
		if signed {
			v = int64(int32(binary.LittleEndian.Uint32(raw[4*i:])))
		} else {
			v = int64(binary.LittleEndian.Uint32(raw[4*i:]))
		}
	case 8:
		v = int64(binary.LittleEndian.Uint64(raw[8*i:]))
	}
	if v > math.MaxInt32 || v < math.MinInt32 {
		return 0, fmt.Errorf("label value %d overflows int32", v)
	}
	return int32(v), nil
}

// dtypeOf maps an npy descr to a storage class and element size.
func dtypeOf(descr string) (tensor.DType, int, error) {
	if strings.HasPrefix(descr, ">") {
		return 0, 0, fmt.Errorf("big-endian npy data is not supported (%s)", descr)
	}
	d := strings.TrimLeft(descr, "<|=")
	switch d {
	case "i1", "u1", "b1":
		return tensor.Int32, 1, nil
	case "i2", "u2":
		return tensor.Int32, 2, nil
	case "i4", "u4":
		return tensor.Int32, 4, nil
	case "i8":
		return tensor.Int32, 8, nil
	case "f4":
		return tensor.Float64, 4, nil
	case "f8":
		return tensor.Float64, 8, nil
	default:
		return 0, 0, fmt.Errorf("unsupported npy dtype %q", descr)
	}
}

func shapeTuple(shape []int) string {
	if len(shape) == 1 {
		return fmt.Sprintf("(%d,)", shape[0])
	}
	parts := make([]string, len(shape))
	for i, d := range shape {
		parts[i] = strconv.Itoa(d)
	}
	return "(" + strings.Join(parts, ", ") + ")"
}
