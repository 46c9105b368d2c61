// Package pipeline runs one transcription job from source URL to delivered
// result.
//
// A job moves strictly forward through received, fetching, transcribing,
// assembling and delivering to completed, or drops to failed from any
// non-terminal state. Every scratch file the job creates is removed before
// Run returns, on success and failure alike. Nothing is retried here;
// re-running a failed job is the dispatcher's decision.
package pipeline
