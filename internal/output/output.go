// Package output assembles engine segments into the deliverable artifact
// representations: plain text, SRT subtitles, and a structured segment list.
//
// Assembly is pure and in-memory. Writing artifacts to disk belongs to the
// delivery package.
package output

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"transcriber/internal/services"
	"transcriber/internal/subtitles"
	"transcriber/internal/transcript"
)

// Kind identifies an artifact type.
type Kind string

const (
	KindText     Kind = "text"
	KindSRT      Kind = "srt"
	KindSegments Kind = "segments"
)

// Kinds lists artifact kinds in delivery order.
var Kinds = []Kind{KindText, KindSRT, KindSegments}

// Extension returns the artifact file extension including the dot.
func (k Kind) Extension() string {
	switch k {
	case KindText:
		return ".txt"
	case KindSRT:
		return ".srt"
	case KindSegments:
		return ".json"
	default:
		return ".bin"
	}
}

// Wants is the subset of artifact kinds a caller requested. An empty set is
// valid; the job then only reports the detected language.
type Wants struct {
	Text     bool `json:"text"`
	SRT      bool `json:"srt"`
	Segments bool `json:"segments"`
}

// Has reports whether kind was requested.
func (w Wants) Has(kind Kind) bool {
	switch kind {
	case KindText:
		return w.Text
	case KindSRT:
		return w.SRT
	case KindSegments:
		return w.Segments
	default:
		return false
	}
}

// WordRecord is the structured form of a timed word.
type WordRecord struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}

// SegmentRecord is the structured form of a segment.
type SegmentRecord struct {
	Start float64      `json:"start"`
	End   float64      `json:"end"`
	Text  string       `json:"text"`
	Words []WordRecord `json:"words,omitempty"`
}

// Outputs holds assembled content for each requested kind. Unrequested kinds
// stay nil; a requested kind with zero segments is present but empty.
type Outputs struct {
	Language string
	Text     *string
	SRT      *string
	Segments []SegmentRecord
	wants    Wants
}

// Wants returns the kinds this value was assembled for.
func (o Outputs) Wants() Wants { return o.wants }

// Assemble builds the requested representations from segments. Segment order
// is preserved as given. Word records are included only when includeWords is
// set and the engine supplied words. Malformed timing fails with ErrAssembly.
func Assemble(result transcript.Result, wants Wants, includeWords bool) (Outputs, error) {
	if err := validateSegments(result.Segments); err != nil {
		return Outputs{}, err
	}

	out := Outputs{Language: result.Language, wants: wants}
	if wants.Text {
		text := composeText(result.Segments)
		out.Text = &text
	}
	if wants.SRT {
		srt := composeSRT(result.Segments)
		out.SRT = &srt
	}
	if wants.Segments {
		out.Segments = composeSegments(result.Segments, includeWords)
	}
	return out, nil
}

// Render serializes one kind for persistence. The boolean is false when the
// kind was not assembled.
func (o Outputs) Render(kind Kind) ([]byte, bool, error) {
	switch kind {
	case KindText:
		if o.Text == nil {
			return nil, false, nil
		}
		return []byte(*o.Text), true, nil
	case KindSRT:
		if o.SRT == nil {
			return nil, false, nil
		}
		return []byte(*o.SRT), true, nil
	case KindSegments:
		if !o.wants.Segments {
			return nil, false, nil
		}
		records := o.Segments
		if records == nil {
			records = []SegmentRecord{}
		}
		data, err := json.Marshal(records)
		if err != nil {
			return nil, false, services.Wrap(services.ErrAssembly, "assembling", "encode segments", "", err)
		}
		return data, true, nil
	default:
		return nil, false, fmt.Errorf("unknown artifact kind %q", kind)
	}
}

func composeText(segments []transcript.Segment) string {
	parts := make([]string, len(segments))
	for i, seg := range segments {
		parts[i] = seg.Text
	}
	return strings.Join(parts, " ")
}

func composeSRT(segments []transcript.Segment) string {
	cues := make([]subtitles.Cue, len(segments))
	for i, seg := range segments {
		cues[i] = subtitles.Cue{Start: seg.Start, End: seg.End, Text: seg.Text}
	}
	return subtitles.Compose(cues)
}

func composeSegments(segments []transcript.Segment, includeWords bool) []SegmentRecord {
	records := make([]SegmentRecord, len(segments))
	for i, seg := range segments {
		record := SegmentRecord{Start: seg.Start, End: seg.End, Text: seg.Text}
		if includeWords && len(seg.Words) > 0 {
			record.Words = make([]WordRecord, len(seg.Words))
			for j, w := range seg.Words {
				record.Words[j] = WordRecord{Start: w.Start, End: w.End, Text: w.Text}
			}
		}
		records[i] = record
	}
	return records
}

func validateSegments(segments []transcript.Segment) error {
	for i, seg := range segments {
		if err := validSpan(seg.Start, seg.End); err != nil {
			return services.Wrap(services.ErrAssembly, "assembling", "validate segments",
				fmt.Sprintf("segment %d: %v", i, err), nil)
		}
		for j, w := range seg.Words {
			if err := validSpan(w.Start, w.End); err != nil {
				return services.Wrap(services.ErrAssembly, "assembling", "validate segments",
					fmt.Sprintf("segment %d word %d: %v", i, j, err), nil)
			}
		}
	}
	return nil
}

func validSpan(start, end float64) error {
	switch {
	case math.IsNaN(start) || math.IsNaN(end) || math.IsInf(start, 0) || math.IsInf(end, 0):
		return fmt.Errorf("non-finite timing %v-%v", start, end)
	case start < 0:
		return fmt.Errorf("negative start %v", start)
	case end < start:
		return fmt.Errorf("end %v before start %v", end, start)
	default:
		return nil
	}
}
