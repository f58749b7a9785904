// Package archive implements the portable .trk/.trks container for tracked
// cell data.
//
// # Format
//
// A container is a POSIX tar (optionally LZ4- or Zstd-wrapped) holding three
// named entries:
//
//   - raw.npy: the raw intensity tensor, NPY-encoded
//   - tracked.npy: the tracked-label tensor, same shape
//   - lineages.json (.trks) or lineage.json (.trk): lineage graphs with
//     integer keys widened to strings, in batch order
//
// Save always produces the multi-batch .trks form. Load accepts both forms
// and normalizes to a one-graph-per-batch list, with integer keys restored.
//
// # Failure model
//
// Validation errors (wrong extension, shape mismatch) surface before any I/O.
// A save interrupted mid-write leaves a truncated container; there is no
// journaling, so callers must redo a failed save from scratch. Decode errors
// are fatal and never retried.
package archive
