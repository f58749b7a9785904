// Package s3 provides an S3-backed blobstore.Store for archive distribution.
//
// Construct the client with the standard config loader:
//
//	cfg, err := config.LoadDefaultConfig(ctx)
//	if err != nil { ... }
//	store := s3.NewStore(awss3.NewFromConfig(cfg), "my-bucket", "datasets/")
//
// Uploads stream through the s3/manager multipart uploader, so a multi-GB
// .trks archive never has to fit in memory.
package s3
