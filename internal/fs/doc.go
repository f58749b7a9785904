// Package fs provides a minimal file system seam for the archive codec.
//
// Production code uses Default (the local OS file system). Tests inject
// FaultyFS to exercise interrupted saves and temp-file cleanup.
package fs
