// Command transcriber runs the media transcription daemon and provides
// operator tooling around it.
//
// Subcommands:
//
//	serve          run the daemon (queue workers, HTTP API, scratch sweeper)
//	run URL        transcribe one media URL in the foreground and print the result
//	queue ...      list, show, retry, remove, prune, and clear persisted jobs
//	config ...     create, show, and validate the configuration file
//	sweep          delete stale scratch files once
//	status         show preflight checks, daemon lock state, and queue counts
//	logs           print or follow the daemon log, optionally for one job
package main
