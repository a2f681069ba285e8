// Package engine wires the watcher, parser set, and ledger into the command
// surface exposed to callers and the event stream delivered to a sink.
//
// All source and path bookkeeping lives behind one mutex. Commands contend
// with the single event-consumer goroutine for it; file content is read
// outside the lock, state is mutated inside it, and nothing blocks while
// holding it.
package engine

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/setevik/loglens/internal/entry"
	"github.com/setevik/loglens/internal/ledger"
	"github.com/setevik/loglens/internal/parser"
	"github.com/setevik/loglens/internal/sink"
	"github.com/setevik/loglens/internal/source"
	"github.com/setevik/loglens/internal/watcher"
)

// ErrSourceNotFound is returned by commands referencing an unknown source id.
var ErrSourceNotFound = errors.New("source not found")

// Engine owns all watching, parsing, and storage state.
type Engine struct {
	watcher *watcher.Watcher
	parsers *parser.Set
	ledger  *ledger.Ledger
	sink    sink.Sink

	mu           sync.Mutex
	sources      map[string]*source.Source
	pathToSource map[string]string
}

// New creates an Engine with the default parser set. The sink receives
// parsed entries and status changes; pass sink.Discard{} to run headless.
func New(led *ledger.Ledger, snk sink.Sink) (*Engine, error) {
	w, err := watcher.New()
	if err != nil {
		return nil, fmt.Errorf("creating watcher: %w", err)
	}

	return &Engine{
		watcher:      w,
		parsers:      parser.Default(),
		ledger:       led,
		sink:         snk,
		sources:      make(map[string]*source.Source),
		pathToSource: make(map[string]string),
	}, nil
}

// Close stops watching. The ledger is owned by the caller and stays open.
func (e *Engine) Close() error {
	return e.watcher.Close()
}

// AddFile registers a single-file source and starts watching it.
func (e *Engine) AddFile(path, name string) (*source.Source, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolving %s: %w", path, err)
	}

	e.mu.Lock()
	if id, exists := e.pathToSource[abs]; exists {
		e.mu.Unlock()
		return nil, fmt.Errorf("%w: %s (source %s)", watcher.ErrAlreadyWatching, abs, id)
	}
	e.mu.Unlock()

	if err := e.watcher.WatchFile(abs); err != nil {
		return nil, err
	}

	src := source.NewFile(abs, name)

	e.mu.Lock()
	e.sources[src.ID] = src
	e.pathToSource[abs] = src.ID
	e.mu.Unlock()

	slog.Info("source added", "id", src.ID, "path", abs, "kind", src.Kind)
	return src, nil
}

// AddFolder registers a folder source watching files that match the glob
// pattern inside the directory.
func (e *Engine) AddFolder(path, pattern, name string) (*source.Source, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolving %s: %w", path, err)
	}

	e.mu.Lock()
	if id, exists := e.pathToSource[abs]; exists {
		e.mu.Unlock()
		return nil, fmt.Errorf("%w: %s (source %s)", watcher.ErrAlreadyWatching, abs, id)
	}
	e.mu.Unlock()

	if err := e.watcher.WatchDirectory(abs, pattern); err != nil {
		return nil, err
	}

	src := source.NewFolder(abs, pattern, name)

	e.mu.Lock()
	e.sources[src.ID] = src
	e.pathToSource[abs] = src.ID
	e.mu.Unlock()

	slog.Info("source added", "id", src.ID, "path", abs, "kind", src.Kind, "pattern", pattern)
	return src, nil
}

// RemoveSource stops watching a source and drops its stored entries. An
// unwatch failure is logged, not surfaced: the source is gone either way.
func (e *Engine) RemoveSource(id string) error {
	e.mu.Lock()
	src, ok := e.sources[id]
	if !ok {
		e.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrSourceNotFound, id)
	}
	delete(e.sources, id)
	delete(e.pathToSource, src.Path)
	e.mu.Unlock()

	if err := e.watcher.Unwatch(src.Path); err != nil {
		slog.Warn("failed to unwatch removed source", "id", id, "path", src.Path, "error", err)
	}
	if err := e.ledger.Clear(id); err != nil {
		slog.Warn("failed to clear entries for removed source", "id", id, "error", err)
	}

	slog.Info("source removed", "id", id, "path", src.Path)
	return nil
}

// Clear removes every source and all stored entries.
func (e *Engine) Clear() {
	e.mu.Lock()
	ids := make([]string, 0, len(e.sources))
	for id := range e.sources {
		ids = append(ids, id)
	}
	e.sources = make(map[string]*source.Source)
	e.pathToSource = make(map[string]string)
	e.mu.Unlock()

	e.watcher.UnwatchAll()
	for _, id := range ids {
		if err := e.ledger.Clear(id); err != nil {
			slog.Warn("failed to clear entries", "id", id, "error", err)
		}
	}
	slog.Info("cleared all sources")
}

// Sources returns all sources, ordered by creation time.
func (e *Engine) Sources() []*source.Source {
	e.mu.Lock()
	defer e.mu.Unlock()

	out := make([]*source.Source, 0, len(e.sources))
	for _, src := range e.sources {
		copied := *src
		out = append(out, &copied)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

// Source returns one source by id, or nil if unknown.
func (e *Engine) Source(id string) *source.Source {
	e.mu.Lock()
	defer e.mu.Unlock()

	src, ok := e.sources[id]
	if !ok {
		return nil
	}
	copied := *src
	return &copied
}

// Entries returns a source's stored entries, most recent limit of them when
// limit is positive. Unknown ids yield an empty result, never an error.
func (e *Engine) Entries(id string, limit int) ([]entry.Entry, error) {
	return e.ledger.Entries(id, limit)
}

// ClearEntries empties a source's stored entries without removing it.
func (e *Engine) ClearEntries(id string) error {
	return e.ledger.Clear(id)
}

// UpdateStatus transitions a source's status and notifies the sink.
func (e *Engine) UpdateStatus(id string, status source.Status, errorMessage string) error {
	e.mu.Lock()
	src, ok := e.sources[id]
	if !ok {
		e.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrSourceNotFound, id)
	}
	src.SetStatus(status, errorMessage)
	e.mu.Unlock()

	e.sink.SourceStatus(id, status, errorMessage)
	return nil
}

// ReadInitialContent loads a source's existing content, parses it with the
// multiline algorithm, stores the entries, and returns them. For folder
// sources the lexicographically last matching file is read, which is the
// newest for date-suffixed daily logs. maxLines limits to the last N lines.
func (e *Engine) ReadInitialContent(id string, maxLines int) ([]entry.Entry, error) {
	e.mu.Lock()
	src, ok := e.sources[id]
	if !ok {
		e.mu.Unlock()
		return nil, fmt.Errorf("%w: %s", ErrSourceNotFound, id)
	}
	path := src.Path
	pattern := src.Pattern
	isFolder := src.IsFolder()
	e.mu.Unlock()

	if isFolder {
		latest, err := latestMatch(path, pattern)
		if err != nil {
			return nil, err
		}
		if latest == "" {
			return nil, nil
		}
		path = latest
	}

	lines, err := e.watcher.ReadInitialContent(path, maxLines)
	if err != nil {
		return nil, err
	}

	entries := e.parsers.ParseBatch(lines)
	if err := e.ledger.Append(id, entries); err != nil {
		return nil, fmt.Errorf("storing initial entries: %w", err)
	}

	e.mu.Lock()
	if src, ok := e.sources[id]; ok {
		src.Touch()
	}
	e.mu.Unlock()

	return entries, nil
}

// resolveSource maps a concrete file path to its owning source. Exact paths
// win; otherwise folder sources whose directory contains the path and whose
// pattern matches the file name are candidates, most specific directory
// first, then earliest created.
func (e *Engine) resolveSource(path string) (string, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if id, ok := e.pathToSource[path]; ok {
		return id, true
	}

	var candidates []*source.Source
	for _, src := range e.sources {
		if !src.IsFolder() || !containsPath(src.Path, path) {
			continue
		}
		if ok, _ := doublestar.Match(src.Pattern, filepath.Base(path)); ok {
			candidates = append(candidates, src)
		}
	}
	if len(candidates) == 0 {
		return "", false
	}

	sort.Slice(candidates, func(i, j int) bool {
		if len(candidates[i].Path) != len(candidates[j].Path) {
			return len(candidates[i].Path) > len(candidates[j].Path)
		}
		return candidates[i].CreatedAt.Before(candidates[j].CreatedAt)
	})
	return candidates[0].ID, true
}

// containsPath reports whether path lies under dir.
func containsPath(dir, path string) bool {
	rel, err := filepath.Rel(dir, path)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

// latestMatch returns the lexicographically last file in dir whose name
// matches the pattern, or "" when nothing matches.
func latestMatch(dir, pattern string) (string, error) {
	dirEntries, err := os.ReadDir(dir)
	if err != nil {
		return "", fmt.Errorf("scanning %s: %w", dir, err)
	}

	var names []string
	for _, de := range dirEntries {
		if de.IsDir() {
			continue
		}
		if ok, _ := doublestar.Match(pattern, de.Name()); ok {
			names = append(names, de.Name())
		}
	}
	if len(names) == 0 {
		return "", nil
	}

	sort.Strings(names)
	return filepath.Join(dir, names[len(names)-1]), nil
}
