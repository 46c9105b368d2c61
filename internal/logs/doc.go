// Package logs reads the daemon log file for the CLI.
//
// Last returns the trailing lines of the file with bounded memory, and Follow
// polls from a byte offset until its context ends. A Filter narrows output to
// lines mentioning one job id so a single transcription can be traced through
// the daemon log.
package logs
