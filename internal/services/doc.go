// Package services defines shared utilities consumed by the transcription
// pipeline and its external integrations.
//
// Key responsibilities:
//   - Context helpers that stamp job IDs, stage names, and correlation
//     identifiers for logging and tracing.
//   - The failure taxonomy (fetch, transcription, assembly, delivery,
//     configuration, validation) expressed as sentinel markers plus the Wrap
//     helper, so callers classify errors with errors.Is.
//   - StageError, which records the pipeline state a job failed in.
//
// Engine adapters live in subpackages (whisperx, openai) so their process and
// HTTP plumbing stays testable in isolation.
package services
