// Package daemon coordinates the long-running transcriber process.
//
// It wires configuration, queue storage, the workflow manager, the HTTP
// submission surface, and the scratch sweeper into a single lifecycle with
// flock-based locking to prevent multiple instances. On start it returns
// interrupted jobs to the queue; on stop it fails whatever is still
// processing so callers are never left waiting on a job nobody owns.
//
// Keep orchestration logic here: pipeline steps live in their respective
// packages while the daemon focuses on startup, shutdown, and high level
// coordination.
package daemon
