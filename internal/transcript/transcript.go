// Package transcript defines the engine-neutral transcription contract: the
// segments and words an engine produces and the caller options it honours.
package transcript

import (
	"context"
	"fmt"
	"strings"
)

// Task selects between same-language transcription and translation to English.
type Task string

const (
	TaskTranscribe Task = "transcribe"
	TaskTranslate  Task = "translate"
)

// ParseTask normalizes a task name; empty input defaults to transcribe.
func ParseTask(value string) (Task, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", string(TaskTranscribe):
		return TaskTranscribe, nil
	case string(TaskTranslate):
		return TaskTranslate, nil
	default:
		return "", fmt.Errorf("unsupported task %q", value)
	}
}

// Word is a single timed token. Only populated when word timestamps are requested.
type Word struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}

// Segment is a contiguous span of recognized speech in seconds.
type Segment struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
	Words []Word  `json:"words,omitempty"`
}

// Options carries the caller-chosen parameters passed through to an engine.
// Fidelity settings (model, beam size, compute type) are engine configuration.
type Options struct {
	Task           Task
	Language       string
	WordTimestamps bool
}

// Result is the engine output: ordered segments plus the detected language.
type Result struct {
	Segments []Segment
	Language string
}

// Engine is the speech-to-text capability.
type Engine interface {
	Name() string
	Transcribe(ctx context.Context, audioPath string, opts Options) (Result, error)
}

// EngineFunc adapts a function to Engine.
type EngineFunc func(ctx context.Context, audioPath string, opts Options) (Result, error)

func (f EngineFunc) Name() string { return "func" }

func (f EngineFunc) Transcribe(ctx context.Context, audioPath string, opts Options) (Result, error) {
	return f(ctx, audioPath, opts)
}
