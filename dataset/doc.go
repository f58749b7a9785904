// Package dataset implements the dataset lifecycle around .trk/.trks
// archives: compiling a folder of single-movie files into one multi-batch
// container, publishing it to a blob store with a catalog record, and
// fetching published archives with checksum verification.
package dataset
