// Package workflow dispatches queued transcription jobs to a pool of workers.
//
// Each worker claims one job at a time from the queue store, runs it through
// the pipeline orchestrator in its own context, persists the outcome, and
// fires the job's webhook. Workers share nothing but the store; a job is
// attempted once per claim, and re-running failed jobs is an operator action
// (`transcriber queue retry`).
//
// Heartbeats are refreshed while a job runs so that jobs orphaned by a crashed
// worker can be reclaimed by ReclaimStaleProcessing.
package workflow
