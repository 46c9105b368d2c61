// Package preflight provides readiness checks for the filesystem paths,
// engine executables, and storage configuration the transcriber depends on.
//
// These checks run in two contexts:
//   - "transcriber serve" runs RunAll before starting the daemon and refuses
//     to start when a required check fails.
//   - "transcriber status" displays every result without failing.
//
// Checks are gated by configuration: the uvx check only applies to the
// whisperx engine and the OpenAI reachability check only to the openai engine.
package preflight
