package npy

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hupe1980/trackio/tensor"
)

func TestRoundTrip_Int32(t *testing.T) {
	v, err := tensor.FromInt32([]int32{0, 1, -2, 3, 40000, 5}, 2, 3)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, v))

	// Data section must start 64-byte aligned.
	idx := bytes.IndexByte(buf.Bytes(), '\n')
	require.Equal(t, 63, idx)

	back, err := Decode(&buf)
	require.NoError(t, err)
	require.True(t, v.Equal(back))
}

func TestRoundTrip_Float64(t *testing.T) {
	v, err := tensor.FromFloat64([]float64{0, 0.25, -1.5, 3e10}, 1, 2, 2, 1)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, v))

	back, err := Decode(&buf)
	require.NoError(t, err)
	require.True(t, v.Equal(back))
}

func TestRoundTrip_Rank1(t *testing.T) {
	v, err := tensor.FromInt32([]int32{7, 8, 9}, 3)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, v))
	require.Contains(t, buf.String(), "(3,)")

	back, err := Decode(&buf)
	require.NoError(t, err)
	require.True(t, v.Equal(back))
}

// writeForeign builds an npy stream with an arbitrary descr, the way a Python
// writer would.
func writeForeign(t *testing.T, descr string, shape string, data []byte) []byte {
	t.Helper()

	header := fmt.Sprintf("{'descr': '%s', 'fortran_order': False, 'shape': %s, }", descr, shape)
	pad := (64 - (10+len(header)+1)%64) % 64
	header += strings.Repeat(" ", pad) + "\n"

	var buf bytes.Buffer
	buf.WriteString("\x93NUMPY")
	buf.Write([]byte{1, 0})
	var hlen [2]byte
	binary.LittleEndian.PutUint16(hlen[:], uint16(len(header)))
	buf.Write(hlen[:])
	buf.WriteString(header)
	buf.Write(data)
	return buf.Bytes()
}

func TestDecode_WidensUint16(t *testing.T) {
	data := make([]byte, 8)
	for i, x := range []uint16{0, 1, 2, 60000} {
		binary.LittleEndian.PutUint16(data[2*i:], x)
	}
	v, err := Decode(bytes.NewReader(writeForeign(t, "<u2", "(2, 2)", data)))
	require.NoError(t, err)
	require.Equal(t, tensor.Int32, v.DType())
	require.Equal(t, []int32{0, 1, 2, 60000}, v.Ints())
}

func TestDecode_WidensInt64(t *testing.T) {
	data := make([]byte, 16)
	binary.LittleEndian.PutUint64(data, uint64(42))
	binary.LittleEndian.PutUint64(data[8:], uint64(7))
	v, err := Decode(bytes.NewReader(writeForeign(t, "<i8", "(2,)", data)))
	require.NoError(t, err)
	require.Equal(t, []int32{42, 7}, v.Ints())
}

func TestDecode_Int64Overflow(t *testing.T) {
	data := make([]byte, 8)
	binary.LittleEndian.PutUint64(data, uint64(1<<40))
	_, err := Decode(bytes.NewReader(writeForeign(t, "<i8", "(1,)", data)))
	require.ErrorContains(t, err, "overflows int32")
}

func TestDecode_WidensFloat32(t *testing.T) {
	data := make([]byte, 8)
	binary.LittleEndian.PutUint32(data, 0x3f000000)   // 0.5
	binary.LittleEndian.PutUint32(data[4:], 0x40200000) // 2.5
	v, err := Decode(bytes.NewReader(writeForeign(t, "<f4", "(2,)", data)))
	require.NoError(t, err)
	require.Equal(t, tensor.Float64, v.DType())
	require.Equal(t, []float64{0.5, 2.5}, v.Floats())
}

func TestDecode_RejectsFortranOrder(t *testing.T) {
	stream := writeForeign(t, "<i4", "(1,)", make([]byte, 4))
	mangled := bytes.Replace(stream, []byte("'fortran_order': False"), []byte("'fortran_order': True "), 1)
	_, err := Decode(bytes.NewReader(mangled))
	require.ErrorContains(t, err, "fortran")
}

func TestDecode_RejectsUnknownDtype(t *testing.T) {
	_, err := Decode(bytes.NewReader(writeForeign(t, "<c16", "(1,)", make([]byte, 16))))
	require.ErrorContains(t, err, "unsupported npy dtype")
}

func TestDecode_RejectsBadMagic(t *testing.T) {
	_, err := Decode(bytes.NewReader([]byte("NOTANPYFILE")))
	require.Error(t, err)
}

func TestDecode_TruncatedData(t *testing.T) {
	stream := writeForeign(t, "<i4", "(4,)", make([]byte, 8)) // promises 16 bytes
	_, err := Decode(bytes.NewReader(stream))
	require.Error(t, err)
}
