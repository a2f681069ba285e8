package watcher

// pathState is the byte and line bookkeeping for one tracked file.
type pathState struct {
	// size is the file size observed at the last successful read.
	size int64
	// lineNumber is the count of lines already emitted for this file.
	lineNumber uint64
	// pattern is the owning folder's glob for folder-contained files,
	// empty for directly watched files.
	pattern string
	// direct is true when the path was registered with the OS watcher
	// itself rather than picked up through a watched directory.
	direct bool
}

type deltaKind int

const (
	deltaNone deltaKind = iota
	deltaTruncated
	deltaAppended
)

// delta is the semantic difference between the stored size and an observed
// size. For deltaAppended the new byte range is [from, to).
type delta struct {
	kind deltaKind
	from int64
	to   int64
}

// observe compares the observed size with the stored size. Truncation resets
// both size and line count to zero: line accounting always restarts after a
// shrink rather than resuming mid-file. An append does not mutate the state;
// the caller commits with advance after the range has been read.
func (st *pathState) observe(current int64) delta {
	switch {
	case current == st.size:
		return delta{kind: deltaNone}
	case current < st.size:
		st.size = 0
		st.lineNumber = 0
		return delta{kind: deltaTruncated}
	default:
		return delta{kind: deltaAppended, from: st.size, to: current}
	}
}

// advance commits a successful read of an appended range.
func (st *pathState) advance(size int64, newLines uint64) {
	st.size = size
	st.lineNumber += newLines
}
