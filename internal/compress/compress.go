// Package compress negotiates optional whole-container compression.
//
// Archives are plain tar by default. Writers may opt into LZ4 (fast) or
// Zstd (better ratio); readers detect the codec from the stream's magic
// number so a compressed container loads transparently.
package compress

import (
	"bufio"
	"fmt"
	"io"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Type identifies the stream compression codec.
type Type uint8

const (
	// None leaves the container uncompressed.
	None Type = iota
	// LZ4 uses LZ4 frame compression.
	LZ4
	// Zstd uses Zstandard compression.
	Zstd
)

// String returns the name of the codec.
func (t Type) String() string {
	switch t {
	case LZ4:
		return "lz4"
	case Zstd:
		return "zstd"
	default:
		return "none"
	}
}

var (
	lz4Magic  = []byte{0x04, 0x22, 0x4d, 0x18}
	zstdMagic = []byte{0x28, 0xb5, 0x2f, 0xfd}
)

type nopWriteCloser struct{ io.Writer }

func (nopWriteCloser) Close() error { return nil }

// WrapWriter layers the codec's encoder over w. The returned WriteCloser
// must be closed to flush the compressed frame; closing it does not close w.
func WrapWriter(w io.Writer, t Type) (io.WriteCloser, error) {
	switch t {
	case None:
		return nopWriteCloser{w}, nil
	case LZ4:
		return lz4.NewWriter(w), nil
	case Zstd:
		enc, err := zstd.NewWriter(w, zstd.WithEncoderLevel(zstd.SpeedDefault))
		if err != nil {
			return nil, fmt.Errorf("init zstd encoder: %w", err)
		}
		return enc, nil
	default:
		return nil, fmt.Errorf("unknown compression type %d", t)
	}
}

// NewReader sniffs the codec from r's leading magic bytes and returns a
// decompressing reader (or r buffered, for uncompressed streams).
func NewReader(r io.Reader) (io.Reader, Type, error) {
	br := bufio.NewReader(r)
	head, err := br.Peek(4)
	if err != nil && err != io.EOF {
		return nil, None, err
	}

	switch {
	case matches(head, lz4Magic):
		return lz4.NewReader(br), LZ4, nil
	case matches(head, zstdMagic):
		dec, err := zstd.NewReader(br)
		if err != nil {
			return nil, None, fmt.Errorf("init zstd decoder: %w", err)
		}
		return dec.IOReadCloser(), Zstd, nil
	default:
		return br, None, nil
	}
}

func matches(head, magic []byte) bool {
	if len(head) < len(magic) {
		return false
	}
	for i, b := range magic {
		if head[i] != b {
			return false
		}
	}
	return true
}
