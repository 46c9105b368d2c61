// Package storage uploads delivery artifacts to object storage.
//
// The provider set is closed: Google Cloud Storage, S3-compatible services
// (AWS S3, DigitalOcean Spaces), and path-style self-hosted stores such as
// MinIO. Resolve picks exactly one from configuration at process start and
// checks its credentials, failing with services.ErrConfiguration before any
// job runs. Every object is written public-read and its URL is derived from
// endpoint, bucket, and object name alone.
package storage
