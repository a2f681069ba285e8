package sink

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/setevik/loglens/internal/entry"
	"github.com/setevik/loglens/internal/source"
)

// Console prints entries and status changes as plain text, one record per
// block. Concurrent deliveries are serialized so output lines never
// interleave.
type Console struct {
	mu sync.Mutex
	w  io.Writer
}

// NewConsole creates a Console sink writing to w.
func NewConsole(w io.Writer) *Console {
	return &Console{w: w}
}

func (c *Console) LogEntries(sourceID string, entries []entry.Entry) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, e := range entries {
		fmt.Fprint(c.w, FormatEntry(e))
	}
}

func (c *Console) SourceStatus(sourceID string, status source.Status, errorMessage string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if errorMessage != "" {
		fmt.Fprintf(c.w, "-- source %s: %s (%s)\n", sourceID, status, errorMessage)
		return
	}
	fmt.Fprintf(c.w, "-- source %s: %s\n", sourceID, status)
}

func (c *Console) FileTruncated(sourceID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintf(c.w, "-- source %s: file truncated, entries cleared\n", sourceID)
}

// FormatEntry renders one entry as display text: timestamp, level, channel,
// message, then any stack trace lines indented underneath.
func FormatEntry(e entry.Entry) string {
	var b strings.Builder

	ts := "-------------------"
	if !e.Timestamp.IsZero() {
		ts = e.Timestamp.UTC().Format("2006-01-02 15:04:05")
	}

	if e.Channel != "" {
		fmt.Fprintf(&b, "%s  %-9s [%s] %s\n", ts, e.Level, e.Channel, e.Message)
	} else {
		fmt.Fprintf(&b, "%s  %-9s %s\n", ts, e.Level, e.Message)
	}

	if len(e.Context) > 0 {
		fmt.Fprintf(&b, "             context: %s\n", e.Context)
	}
	for _, line := range e.StackTrace {
		fmt.Fprintf(&b, "             %s\n", line)
	}

	return b.String()
}
