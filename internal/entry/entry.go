// Package entry defines the core data model for parsed log records.
package entry

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Entry is one structured log record, possibly assembled from several
// physical lines. Once constructed an Entry is not mutated; the With* methods
// derive new values.
type Entry struct {
	ID         string          `json:"id"`
	Timestamp  time.Time       `json:"timestamp,omitzero"`
	Level      Level           `json:"level"`
	Message    string          `json:"message"`
	Raw        string          `json:"raw"`
	LineNumber uint64          `json:"line_number"`
	Context    json.RawMessage `json:"context,omitempty"`
	StackTrace []string        `json:"stack_trace,omitempty"`
	Channel    string          `json:"channel,omitempty"`
}

// New creates an Entry with a generated UUID.
func New(ts time.Time, level Level, message, raw string, lineNumber uint64) Entry {
	return Entry{
		ID:         uuid.NewString(),
		Timestamp:  ts,
		Level:      level,
		Message:    message,
		Raw:        raw,
		LineNumber: lineNumber,
	}
}

// FromRaw wraps an unrecognized line as an Info-level entry whose message is
// the raw text.
func FromRaw(raw string, lineNumber uint64) Entry {
	return New(time.Time{}, LevelInfo, raw, raw, lineNumber)
}

// HasStackTrace reports whether the entry carries continuation lines.
func (e Entry) HasStackTrace() bool {
	return len(e.StackTrace) > 0
}

// WithContext returns a copy of the entry with structured context attached.
func (e Entry) WithContext(context json.RawMessage) Entry {
	e.Context = context
	return e
}

// WithStackTrace returns a copy of the entry with continuation lines attached.
func (e Entry) WithStackTrace(lines []string) Entry {
	e.StackTrace = lines
	return e
}

// WithChannel returns a copy of the entry tagged with a channel/environment.
func (e Entry) WithChannel(channel string) Entry {
	e.Channel = channel
	return e
}
