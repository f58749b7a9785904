// Package blobstore abstracts where archive containers live.
//
// Datasets are distributed as immutable .trk/.trks blobs on durable storage.
// The Store interface covers the local file system (LocalStore), memory for
// tests (MemoryStore), and the S3/MinIO object stores in the subpackages.
package blobstore
