// Package subtitles composes and parses SubRip (SRT) subtitle documents.
//
// Compose renders cues in the order given: indices are sequential from 1 and
// cues are never re-sorted or dropped, so the output mirrors the segment list
// exactly. Parse is the inverse used for validation and tests.
package subtitles
