package fs

import (
	"errors"
	"os"
	"strings"
	"sync"
)

// ErrInjected is the error surfaced by a triggered fault.
var ErrInjected = errors.New("injected fault")

// FaultyFS wraps a FileSystem and fails writes to files whose name contains
// a registered pattern once the per-file byte budget is exhausted.
type FaultyFS struct {
	FS FileSystem

	mu      sync.Mutex
	rules   map[string]int64 // name substring -> max bytes before failing
	removed []string
}

// NewFaultyFS creates a FaultyFS wrapping fs (or Default if nil).
func NewFaultyFS(fs FileSystem) *FaultyFS {
	if fs == nil {
		fs = Default
	}
	return &FaultyFS{FS: fs, rules: make(map[string]int64)}
}

// FailWritesTo makes writes to files whose name contains pattern fail after
// limit bytes. A limit of 0 fails the first write.
func (f *FaultyFS) FailWritesTo(pattern string, limit int64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rules[pattern] = limit
}

// Removed returns the names passed to Remove, in order.
func (f *FaultyFS) Removed() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.removed...)
}

func (f *FaultyFS) limitFor(name string) (int64, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for pattern, limit := range f.rules {
		if strings.Contains(name, pattern) {
			return limit, true
		}
	}
	return 0, false
}

func (f *FaultyFS) OpenFile(name string, flag int, perm os.FileMode) (File, error) {
	file, err := f.FS.OpenFile(name, flag, perm)
	if err != nil {
		return nil, err
	}
	if limit, ok := f.limitFor(name); ok {
		return &faultyFile{File: file, remaining: limit}, nil
	}
	return file, nil
}

func (f *FaultyFS) CreateTemp(dir, pattern string) (File, string, error) {
	file, name, err := f.FS.CreateTemp(dir, pattern)
	if err != nil {
		return nil, "", err
	}
	if limit, ok := f.limitFor(name); ok {
		return &faultyFile{File: file, remaining: limit}, name, nil
	}
	return file, name, nil
}

func (f *FaultyFS) Remove(name string) error {
	f.mu.Lock()
	f.removed = append(f.removed, name)
	f.mu.Unlock()
	return f.FS.Remove(name)
}

func (f *FaultyFS) Stat(name string) (os.FileInfo, error)      { return f.FS.Stat(name) }
func (f *FaultyFS) ReadDir(name string) ([]os.DirEntry, error) { return f.FS.ReadDir(name) }

type faultyFile struct {
	File
	remaining int64
}

func (ff *faultyFile) Write(p []byte) (int, error) {
	if int64(len(p)) > ff.remaining {
		return 0, ErrInjected
	}
	n, err := ff.File.Write(p)
	ff.remaining -= int64(n)
	return n, err
}
