// Package parser turns raw log lines into structured entries.
//
// A Parser recognizes one log format. The Set holds parsers in priority
// order and falls back to a raw Info-level entry when no parser claims a
// line. ParseBatch applies the multiline algorithm so stack traces and other
// continuation lines are folded into the entry that started them.
package parser

import (
	"github.com/setevik/loglens/internal/entry"
)

// Parser recognizes and parses one log format.
type Parser interface {
	// Name identifies the format, e.g. "laravel".
	Name() string

	// CanParse reports whether the line starts a record in this format.
	CanParse(line string) bool

	// Parse parses a single line into an entry. The second return is false
	// if the line does not match this format.
	Parse(line string, lineNumber uint64) (entry.Entry, bool)

	// ParseMultiline parses a record starting at lines[0], consuming any
	// continuation lines that belong to it. It returns the entry and the
	// number of lines consumed; a count of zero means the parser did not
	// claim the position.
	ParseMultiline(lines []string, startLine uint64) (entry.Entry, int)
}

// Line is one physical line with its 1-based position in the source file.
type Line struct {
	Number uint64
	Text   string
}

// Set is an ordered list of parsers. Order is priority order: the first
// parser that recognizes a line wins. The raw fallback is implicit and
// always last.
type Set struct {
	parsers []Parser
}

// NewSet creates a Set with the given parsers in priority order.
func NewSet(parsers ...Parser) *Set {
	return &Set{parsers: parsers}
}

// Default returns the standard parser set.
func Default() *Set {
	return NewSet(NewLaravel())
}

// ParseLine parses one isolated line, falling back to a raw entry when no
// parser matches.
func (s *Set) ParseLine(line string, lineNumber uint64) entry.Entry {
	for _, p := range s.parsers {
		if e, ok := p.Parse(line, lineNumber); ok {
			return e
		}
	}
	return entry.FromRaw(line, lineNumber)
}

// ParseBatch parses a batch of freshly read lines, applying multiline
// continuation rules. At each position the first parser that claims the line
// consumes it plus any continuation lines; unclaimed positions consume
// exactly one line via the single-line path.
func (s *Set) ParseBatch(lines []Line) []entry.Entry {
	texts := make([]string, len(lines))
	for i, l := range lines {
		texts[i] = l.Text
	}

	var entries []entry.Entry
	i := 0
	for i < len(lines) {
		claimed := false
		for _, p := range s.parsers {
			if !p.CanParse(texts[i]) {
				continue
			}
			if e, consumed := p.ParseMultiline(texts[i:], lines[i].Number); consumed > 0 {
				entries = append(entries, e)
				i += consumed
				claimed = true
				break
			}
		}
		if !claimed {
			entries = append(entries, s.ParseLine(texts[i], lines[i].Number))
			i++
		}
	}
	return entries
}
