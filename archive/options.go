package archive

import (
	"github.com/hupe1980/trackio/internal/compress"
	"github.com/hupe1980/trackio/internal/fs"
)

// Compression selects the optional whole-container compression codec.
//
// The on-disk default is an uncompressed tar, which is what other tools in
// the ecosystem produce and expect. Load detects compression from the stream
// regardless of this setting.
type Compression uint8

const (
	// CompressionNone writes a plain tar container (the default).
	CompressionNone Compression = iota
	// CompressionLZ4 wraps the container in an LZ4 frame.
	CompressionLZ4
	// CompressionZstd wraps the container in a Zstandard stream.
	CompressionZstd
)

func (c Compression) internal() compress.Type {
	switch c {
	case CompressionLZ4:
		return compress.LZ4
	case CompressionZstd:
		return compress.Zstd
	default:
		return compress.None
	}
}

// Options configures Save and Load behavior.
type Options struct {
	// Compression applies to Save only.
	Compression Compression
	// FS is the file system used for the container and staging files.
	FS fs.FileSystem
}

// DefaultOptions are the options used when none are given.
var DefaultOptions = Options{
	Compression: CompressionNone,
	FS:          fs.Default,
}

// WithCompression sets the container compression codec for Save.
func WithCompression(c Compression) func(*Options) {
	return func(o *Options) {
		o.Compression = c
	}
}

// WithFileSystem overrides the file system, mainly for fault injection in
// tests.
func WithFileSystem(fsys fs.FileSystem) func(*Options) {
	return func(o *Options) {
		if fsys == nil {
			fsys = fs.Default
		}
		o.FS = fsys
	}
}
