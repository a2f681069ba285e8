package watcher

// EventType classifies a semantic file change.
type EventType string

const (
	// EventAppended carries newly appended lines for a tracked file.
	EventAppended EventType = "appended"
	// EventCreated reports a new file. It is informational; for files
	// matching a watched folder's pattern the watcher has already begun
	// tracking when this is delivered.
	EventCreated EventType = "created"
	// EventDeleted reports that a tracked file was removed.
	EventDeleted EventType = "deleted"
	// EventTruncated reports that a tracked file shrank. Line numbering
	// for the path restarts at one.
	EventTruncated EventType = "truncated"
	// EventError reports a read failure on a tracked file.
	EventError EventType = "error"
)

// Event is one classified change on a concrete file, produced from raw OS
// notifications by the change classifier.
type Event struct {
	Type EventType
	Path string

	// Lines holds the appended lines for EventAppended.
	Lines []string
	// LineNumber is the 1-based number of the last line in Lines.
	LineNumber uint64

	// Message describes the failure for EventError.
	Message string
}
