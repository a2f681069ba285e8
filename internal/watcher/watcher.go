// Package watcher converts raw filesystem notifications into semantic log
// file events: content appended, truncated, created, deleted.
//
// It owns the set of watched files and directories and the per-path byte and
// line bookkeeping needed to read only newly appended content. A single
// goroutine classifies raw events in arrival order, which guarantees per-path
// event ordering; classified events buffer in an unbounded queue so the
// classifier never blocks on the consumer.
package watcher

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/fsnotify/fsnotify"

	"github.com/setevik/loglens/internal/format"
	"github.com/setevik/loglens/internal/parser"
)

// maxLineSize bounds a single physical log line (1MB).
const maxLineSize = 1024 * 1024

// Watcher tracks files and directories and emits classified Events.
type Watcher struct {
	fsw   *fsnotify.Watcher
	queue *eventQueue

	mu     sync.Mutex
	states map[string]*pathState
	dirs   map[string]string // watched directory -> glob pattern
}

// New creates a Watcher and starts its classification goroutine.
func New() (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating fsnotify watcher: %w", err)
	}

	w := &Watcher{
		fsw:    fsw,
		queue:  newEventQueue(),
		states: make(map[string]*pathState),
		dirs:   make(map[string]string),
	}
	go w.run()
	return w, nil
}

// Events returns the classified event stream. The channel closes after
// Close, once pending events have drained.
func (w *Watcher) Events() <-chan Event {
	return w.queue.out
}

// Close stops the OS watcher. Events already classified are still delivered.
func (w *Watcher) Close() error {
	return w.fsw.Close()
}

// run is the change classifier loop. It is the only goroutine that mutates
// path states in response to notifications, so events for one path are always
// processed in order.
func (w *Watcher) run() {
	defer close(w.queue.in)

	for {
		select {
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			w.classify(ev)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			slog.Warn("watch backend error", "error", err)
		}
	}
}

// classify turns one raw notification into zero or more semantic events.
func (w *Watcher) classify(ev fsnotify.Event) {
	path := ev.Name

	switch {
	case ev.Op.Has(fsnotify.Create):
		w.handleCreate(path)
	case ev.Op.Has(fsnotify.Remove):
		w.handleRemove(path)
	case ev.Op.Has(fsnotify.Write):
		w.handleModify(path)
	case ev.Op.Has(fsnotify.Rename):
		// A rename surfaces as Create+Remove for the paths involved;
		// nothing to resolve here.
		slog.Debug("file renamed", "path", path)
	}
}

// handleCreate reports a new file. If the file appears inside a watched
// directory and matches its pattern, tracking starts at size zero before the
// event is emitted, so the first append delta covers the whole file.
func (w *Watcher) handleCreate(path string) {
	fi, err := os.Stat(path)
	if err != nil {
		slog.Warn("stat failed for created path", "path", path, "error", err)
		return
	}
	if fi.IsDir() {
		return
	}

	w.mu.Lock()
	_, tracked := w.states[path]
	pattern, inFolder := w.dirs[filepath.Dir(path)]
	if !tracked && inFolder {
		if ok, _ := doublestar.Match(pattern, filepath.Base(path)); ok {
			w.states[path] = &pathState{pattern: pattern}
			tracked = true
			slog.Debug("tracking new file in watched directory", "path", path, "pattern", pattern)
		}
	}
	w.mu.Unlock()

	w.queue.in <- Event{Type: EventCreated, Path: path}

	// Content written before the create notification arrived is picked up
	// immediately rather than waiting for the next write.
	if tracked {
		w.handleModify(path)
	}
}

// handleRemove drops tracking for a deleted file.
func (w *Watcher) handleRemove(path string) {
	w.mu.Lock()
	_, tracked := w.states[path]
	delete(w.states, path)
	w.mu.Unlock()

	if tracked {
		w.queue.in <- Event{Type: EventDeleted, Path: path}
	}
}

// handleModify compares sizes and reads any appended byte range. A metadata
// failure on a vanished file degrades to a warning; the subsequent remove
// notification drives the deletion transition.
func (w *Watcher) handleModify(path string) {
	w.mu.Lock()
	st, ok := w.states[path]
	if !ok {
		w.mu.Unlock()
		return
	}

	fi, err := os.Stat(path)
	if err != nil {
		w.mu.Unlock()
		slog.Warn("stat failed for modified file", "path", path, "error", err)
		return
	}

	d := st.observe(fi.Size())
	w.mu.Unlock()

	switch d.kind {
	case deltaTruncated:
		slog.Info("file truncated", "path", path)
		w.queue.in <- Event{Type: EventTruncated, Path: path}

	case deltaAppended:
		// Read outside the lock; the classifier goroutine is the only
		// writer of size/line state, so the range stays consistent.
		lines, err := readRange(path, d.from, d.to)
		if err != nil {
			w.queue.in <- Event{
				Type:    EventError,
				Path:    path,
				Message: fmt.Sprintf("reading appended content: %v", err),
			}
			return
		}
		if len(lines) == 0 {
			return
		}

		w.mu.Lock()
		if st.size != d.from {
			// Another observation already committed this range.
			w.mu.Unlock()
			return
		}
		st.advance(d.to, uint64(len(lines)))
		lineNumber := st.lineNumber
		w.mu.Unlock()

		slog.Debug("content appended",
			"path", path,
			"bytes", format.Bytes(d.to-d.from),
			"lines", len(lines),
		)
		w.queue.in <- Event{
			Type:       EventAppended,
			Path:       path,
			Lines:      lines,
			LineNumber: lineNumber,
		}
	}
}

// WatchFile starts tracking a single file. The initial size and line count
// are computed with a one-time full read so that appended lines continue the
// file's real numbering.
func (w *Watcher) WatchFile(path string) error {
	fi, err := os.Stat(path)
	if err != nil {
		return classifyStatError(path, err)
	}
	if !fi.Mode().IsRegular() {
		return fmt.Errorf("%w: %s", ErrNotAFile, path)
	}

	w.mu.Lock()
	if _, exists := w.states[path]; exists {
		w.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrAlreadyWatching, path)
	}
	w.mu.Unlock()

	lineCount, err := countLines(path)
	if err != nil {
		return fmt.Errorf("counting lines in %s: %w", path, err)
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if _, exists := w.states[path]; exists {
		return fmt.Errorf("%w: %s", ErrAlreadyWatching, path)
	}
	if err := w.fsw.Add(path); err != nil {
		return fmt.Errorf("adding watch for %s: %w", path, err)
	}
	w.states[path] = &pathState{
		size:       fi.Size(),
		lineNumber: lineCount,
		direct:     true,
	}

	slog.Info("watching file", "path", path, "size", format.Bytes(fi.Size()), "lines", lineCount)
	return nil
}

// WatchDirectory starts watching a directory (non-recursively) and begins
// tracking every existing regular file whose name matches the glob pattern.
func (w *Watcher) WatchDirectory(path, pattern string) error {
	fi, err := os.Stat(path)
	if err != nil {
		return classifyStatError(path, err)
	}
	if !fi.IsDir() {
		return fmt.Errorf("%w: %s", ErrNotADirectory, path)
	}
	if !doublestar.ValidatePattern(pattern) {
		return fmt.Errorf("%w: %q", ErrInvalidPattern, pattern)
	}

	w.mu.Lock()
	if _, exists := w.dirs[path]; exists {
		w.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrAlreadyWatching, path)
	}
	if err := w.fsw.Add(path); err != nil {
		w.mu.Unlock()
		return fmt.Errorf("adding watch for %s: %w", path, err)
	}
	w.dirs[path] = pattern
	w.mu.Unlock()

	// Pre-scan existing matches so appends to them are tracked from their
	// current position.
	dirEntries, err := os.ReadDir(path)
	if err != nil {
		return fmt.Errorf("scanning %s: %w", path, err)
	}
	for _, de := range dirEntries {
		if de.IsDir() {
			continue
		}
		ok, _ := doublestar.Match(pattern, de.Name())
		if !ok {
			continue
		}

		filePath := filepath.Join(path, de.Name())
		info, err := de.Info()
		if err != nil {
			slog.Warn("skipping unreadable file in watched directory", "path", filePath, "error", err)
			continue
		}
		lineCount, err := countLines(filePath)
		if err != nil {
			slog.Warn("skipping unreadable file in watched directory", "path", filePath, "error", err)
			continue
		}

		w.mu.Lock()
		w.states[filePath] = &pathState{
			size:       info.Size(),
			lineNumber: lineCount,
			pattern:    pattern,
		}
		w.mu.Unlock()
	}

	slog.Info("watching directory", "path", path, "pattern", pattern)
	return nil
}

// Unwatch stops tracking a file or directory. Unwatching a directory also
// drops its contained file states.
func (w *Watcher) Unwatch(path string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if pattern, ok := w.dirs[path]; ok {
		delete(w.dirs, path)
		for p, st := range w.states {
			if filepath.Dir(p) == path && st.pattern == pattern && !st.direct {
				delete(w.states, p)
			}
		}
		if err := w.fsw.Remove(path); err != nil {
			return fmt.Errorf("removing watch for %s: %w", path, err)
		}
		slog.Info("stopped watching directory", "path", path)
		return nil
	}

	st, ok := w.states[path]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotWatching, path)
	}
	delete(w.states, path)
	if st.direct {
		if err := w.fsw.Remove(path); err != nil {
			return fmt.Errorf("removing watch for %s: %w", path, err)
		}
	}

	slog.Info("stopped watching", "path", path)
	return nil
}

// UnwatchAll clears all tracking. Backend failures are logged, never
// surfaced: teardown always fully clears internal state.
func (w *Watcher) UnwatchAll() {
	w.mu.Lock()
	defer w.mu.Unlock()

	for path := range w.dirs {
		if err := w.fsw.Remove(path); err != nil {
			slog.Warn("failed to unwatch directory", "path", path, "error", err)
		}
	}
	for path, st := range w.states {
		if !st.direct {
			continue
		}
		if err := w.fsw.Remove(path); err != nil {
			slog.Warn("failed to unwatch file", "path", path, "error", err)
		}
	}

	w.states = make(map[string]*pathState)
	w.dirs = make(map[string]string)
	slog.Info("stopped watching all paths")
}

// IsWatching reports whether a file or directory is tracked.
func (w *Watcher) IsWatching(path string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	if _, ok := w.states[path]; ok {
		return true
	}
	_, ok := w.dirs[path]
	return ok
}

// WatchedPaths returns the concrete files currently tracked.
func (w *Watcher) WatchedPaths() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	paths := make([]string, 0, len(w.states))
	for p := range w.states {
		paths = append(paths, p)
	}
	return paths
}

// ReadInitialContent reads a file's lines with their 1-based numbers. When
// maxLines is positive only the last maxLines lines are returned, keeping
// their original numbering.
func (w *Watcher) ReadInitialContent(path string, maxLines int) ([]parser.Line, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, classifyStatError(path, err)
	}
	defer f.Close()

	var lines []parser.Line
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	var n uint64
	for scanner.Scan() {
		n++
		lines = append(lines, parser.Line{Number: n, Text: scanner.Text()})
	}
	if err := scanner.Err(); err != nil {
		slog.Warn("stopped reading mid-file", "path", path, "line", n+1, "error", err)
	}

	if maxLines > 0 && len(lines) > maxLines {
		lines = lines[len(lines)-maxLines:]
	}
	return lines, nil
}

// readRange reads the byte range [from, to) of a file through a fresh handle
// and splits it into lines. A final fragment without a trailing newline is
// returned as a line.
func readRange(path string, from, to int64) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	if _, err := f.Seek(from, io.SeekStart); err != nil {
		return nil, fmt.Errorf("seeking to %d: %w", from, err)
	}

	var lines []string
	scanner := bufio.NewScanner(io.LimitReader(f, to-from))
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return lines, err
	}
	return lines, nil
}

// countLines counts the lines currently in a file.
func countLines(path string) (uint64, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	var n uint64
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	for scanner.Scan() {
		n++
	}
	return n, scanner.Err()
}

// classifyStatError maps filesystem errors onto the watch error taxonomy.
func classifyStatError(path string, err error) error {
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return fmt.Errorf("%w: %s", ErrFileNotFound, path)
	case errors.Is(err, fs.ErrPermission):
		return fmt.Errorf("%w: %s", ErrPermissionDenied, path)
	default:
		return fmt.Errorf("stat %s: %w", path, err)
	}
}
