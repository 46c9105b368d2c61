// Package logging assembles structured slog loggers and formatting helpers used
// across the transcriber.
//
// Console output puts the component and job id ahead of the message so one
// transcription can be followed by eye; JSON output is for log shippers. Both
// handlers mask attributes whose keys name credentials. Context helpers tag
// lines with job IDs, stages, and correlation IDs, and CleanupOldLogs prunes
// the log directory on daemon start.
package logging
