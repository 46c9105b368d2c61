// Package config loads, normalizes, and validates transcriber configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours the environment variables the
// service has always accepted (STORAGE_PROVIDER, MINIO_*, S3_*, GCP_*, API_KEY).
// The Config type centralizes every knob the daemon and CLI need so the scratch
// directory, storage credentials, and transcription engine settings are
// discovered in one pass and then passed explicitly to each component.
//
// Storage credential completeness is deliberately not checked here; the
// storage package validates the selected provider when it is constructed.
package config
