package archive

import (
	"fmt"
	"strings"
)

// InvalidExtensionError indicates a path whose extension does not match the
// container format. It is returned before any I/O happens.
type InvalidExtensionError struct {
	Path    string
	Allowed []string
}

func (e *InvalidExtensionError) Error() string {
	return fmt.Sprintf("path %q must end with %s", e.Path, strings.Join(e.Allowed, " or "))
}

// MissingEntryError indicates a required container entry is absent.
type MissingEntryError struct {
	Entry string
}

func (e *MissingEntryError) Error() string {
	return fmt.Sprintf("archive is missing required entry %q", e.Entry)
}

// MalformedArchiveError indicates a container entry that could not be parsed.
//
// The underlying parse error can be accessed via errors.Unwrap.
type MalformedArchiveError struct {
	Entry string
	cause error
}

func (e *MalformedArchiveError) Error() string {
	if e.Entry == "" {
		return fmt.Sprintf("malformed archive: %v", e.cause)
	}
	return fmt.Sprintf("malformed archive entry %q: %v", e.Entry, e.cause)
}

func (e *MalformedArchiveError) Unwrap() error { return e.cause }

// ShapeMismatchError indicates raw and tracked tensors of different shapes.
type ShapeMismatchError struct {
	Raw     []int
	Tracked []int
}

func (e *ShapeMismatchError) Error() string {
	return fmt.Sprintf("raw shape %v does not match tracked shape %v", e.Raw, e.Tracked)
}

// LineageCountError indicates a lineage list whose length does not match the
// batch extent of the tensors.
type LineageCountError struct {
	Graphs  int
	Batches int
}

func (e *LineageCountError) Error() string {
	return fmt.Sprintf("got %d lineage graphs for %d batches", e.Graphs, e.Batches)
}
