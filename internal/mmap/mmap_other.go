//go:build !unix

package mmap

import (
	"io"
	"os"
)

// Non-unix platforms fall back to an in-memory copy.
func osMap(f *os.File, size int) ([]byte, func([]byte) error, error) {
	data := make([]byte, size)
	if _, err := io.ReadFull(f, data); err != nil {
		return nil, nil, err
	}
	return data, nil, nil
}
