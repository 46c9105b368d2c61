// Package api defines the wire-format types and converters for the HTTP
// surface. It translates submission bodies into pipeline requests and queue
// records into transport-friendly DTOs without coupling handlers to storage.
//
// # Key Types
//
// TranscribeRequest: the POST /v1/media/transcribe body. Unknown fields are
// rejected and media_url is required.
//
// JobResponse: job status, failure details, and the delivered result.
//
// DaemonStatus: daemon runtime information with workflow and queue health.
//
// # Converters
//
// TranscribeRequest.Pipeline: body -> pipeline.Request with defaults applied.
//
// FromJob: queue.Job -> JobResponse. The stored result JSON is passed through
// as json.RawMessage to avoid double-encoding.
//
// FromStatusSummary: workflow.StatusSummary -> WorkflowStatus.
//
// # Design Notes
//
// DTOs use snake_case JSON tags to match the submission body. Timestamps use
// RFC3339 with milliseconds in UTC.
package api
