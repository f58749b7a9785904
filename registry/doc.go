// Package registry provides a DynamoDB-backed catalog of published tracking
// datasets. Each entry maps a dataset name to an archive blob plus its
// checksum and revision; conditional writes fence concurrent publishers.
package registry
