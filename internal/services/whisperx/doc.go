// Package whisperx runs WhisperX through uvx as a transcription engine.
//
// Fidelity settings (model, beam size, compute type, VAD method) are fixed by
// Config for the life of the process; each call only passes the caller's task,
// language hint, and word-timestamp choice. WhisperX writes JSON into a
// job-scoped directory that is removed once the result has been parsed.
package whisperx
