// Package sink delivers engine output to a presentation layer.
//
// Delivery is fire-and-forget: the engine never blocks on or retries a sink.
package sink

import (
	"github.com/setevik/loglens/internal/entry"
	"github.com/setevik/loglens/internal/source"
)

// Sink receives ordered batches of parsed entries and source state changes.
type Sink interface {
	// LogEntries delivers newly parsed entries for a source, in order.
	LogEntries(sourceID string, entries []entry.Entry)

	// SourceStatus reports a source status transition.
	SourceStatus(sourceID string, status source.Status, errorMessage string)

	// FileTruncated reports that a source's backing file was truncated and
	// its stored entries cleared.
	FileTruncated(sourceID string)
}

// Discard is a Sink that drops everything. Useful for tests and for running
// the engine as a pure store.
type Discard struct{}

func (Discard) LogEntries(string, []entry.Entry)                 {}
func (Discard) SourceStatus(string, source.Status, string)       {}
func (Discard) FileTruncated(string)                             {}
