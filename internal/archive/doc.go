// Package archive retains call recordings: locally by rotating the
// recordings directory, remotely by uploading to S3-compatible storage.
package archive
