package parser

import (
	"encoding/json"
	"regexp"
	"strings"
	"time"

	"github.com/setevik/loglens/internal/entry"
)

// laravelLineRe matches the Laravel/Monolog line format:
//
//	[2024-01-15 10:30:00] local.ERROR: Something went wrong {"context": ...}
var laravelLineRe = regexp.MustCompile(`^\[(\d{4}-\d{2}-\d{2}\s+\d{2}:\d{2}:\d{2})\]\s+(\w+)\.(\w+):\s*(.*)$`)

// stackFrameRe matches numbered stack frames like "#0 /app/Kernel.php(42): fn()".
var stackFrameRe = regexp.MustCompile(`^#\d+\s+`)

// continuationRe matches indented exception continuation lines.
var continuationRe = regexp.MustCompile(`^\s+(?:at|in|thrown)\s+`)

// laravelTimeLayout is the timestamp format inside the brackets, read as UTC.
const laravelTimeLayout = "2006-01-02 15:04:05"

// Laravel parses Laravel-style log files, including multi-line exception
// records with stack traces.
type Laravel struct{}

// NewLaravel creates a Laravel log parser.
func NewLaravel() *Laravel {
	return &Laravel{}
}

func (p *Laravel) Name() string {
	return "laravel"
}

func (p *Laravel) CanParse(line string) bool {
	return laravelLineRe.MatchString(line)
}

func (p *Laravel) Parse(line string, lineNumber uint64) (entry.Entry, bool) {
	m := laravelLineRe.FindStringSubmatch(line)
	if m == nil {
		return entry.Entry{}, false
	}

	ts := parseTimestamp(m[1])
	channel := m[2]
	level := entry.ParseLevel(m[3])
	message, context := extractContext(m[4])

	e := entry.New(ts, level, message, line, lineNumber).WithChannel(channel)
	if context != nil {
		e = e.WithContext(context)
	}
	return e, true
}

func (p *Laravel) ParseMultiline(lines []string, startLine uint64) (entry.Entry, int) {
	if len(lines) == 0 {
		return entry.Entry{}, 0
	}

	e, ok := p.Parse(lines[0], startLine)
	if !ok {
		return entry.Entry{}, 0
	}

	var trace []string
	consumed := 1
	lastBlank := false

	for _, line := range lines[1:] {
		if p.CanParse(line) {
			// Next record starts here.
			break
		}
		if strings.TrimSpace(line) == "" {
			// A single trailing blank is folded into a collected trace;
			// a second consecutive blank ends the record.
			if len(trace) == 0 || lastBlank {
				break
			}
			trace = append(trace, line)
			consumed++
			lastBlank = true
			continue
		}
		if len(trace) == 0 && !isContinuation(line) {
			break
		}
		trace = append(trace, line)
		consumed++
		lastBlank = false
	}

	if len(trace) > 0 {
		e = e.WithStackTrace(trace)
	}
	return e, consumed
}

// isContinuation reports whether a line can open a stack trace block.
func isContinuation(line string) bool {
	trimmed := strings.TrimSpace(line)
	return stackFrameRe.MatchString(line) ||
		continuationRe.MatchString(line) ||
		strings.HasPrefix(trimmed, "Stack trace:") ||
		strings.HasPrefix(trimmed, "[stacktrace]")
}

// parseTimestamp interprets the bracketed timestamp as UTC. A zero time is
// returned when parsing fails.
func parseTimestamp(s string) time.Time {
	// The matcher tolerates repeated whitespace between date and time.
	s = strings.Join(strings.Fields(s), " ")
	ts, err := time.ParseInLocation(laravelTimeLayout, s, time.UTC)
	if err != nil {
		return time.Time{}
	}
	return ts
}

// extractContext splits a trailing inline JSON object off the message. The
// last " {" occurrence is taken as the candidate start; anything that does
// not validate as JSON stays in the message.
func extractContext(message string) (string, json.RawMessage) {
	idx := strings.LastIndex(message, " {")
	if idx < 0 {
		return message, nil
	}
	candidate := message[idx+1:]
	if !strings.HasSuffix(candidate, "}") || !json.Valid([]byte(candidate)) {
		return message, nil
	}
	return strings.TrimSpace(message[:idx]), json.RawMessage(candidate)
}
