package engine

import (
	"context"
	"log/slog"

	"github.com/setevik/loglens/internal/parser"
	"github.com/setevik/loglens/internal/source"
	"github.com/setevik/loglens/internal/watcher"
)

// Run consumes classified file events until the context is cancelled or the
// watcher closes. It is the single writer of ledger state for watch-driven
// entries; running it more than once is a caller error.
//
// Events classified for a path before its source was removed may still
// arrive; they no longer resolve to a source and are ignored.
func (e *Engine) Run(ctx context.Context) error {
	events := e.watcher.Events()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-events:
			if !ok {
				slog.Info("watcher event stream closed")
				return nil
			}
			e.handleEvent(ev)
		}
	}
}

// handleEvent applies one classified event to the ledger and sources, then
// notifies the sink. Sink delivery is best-effort and never retried.
func (e *Engine) handleEvent(ev watcher.Event) {
	switch ev.Type {
	case watcher.EventAppended:
		id, ok := e.resolveSource(ev.Path)
		if !ok {
			slog.Debug("append for unresolved path ignored", "path", ev.Path)
			return
		}

		// ev.LineNumber is the number of the last appended line; walk back
		// to number the whole batch.
		first := ev.LineNumber - uint64(len(ev.Lines)) + 1
		lines := make([]parser.Line, len(ev.Lines))
		for i, text := range ev.Lines {
			lines[i] = parser.Line{Number: first + uint64(i), Text: text}
		}

		entries := e.parsers.ParseBatch(lines)
		if err := e.ledger.Append(id, entries); err != nil {
			slog.Error("failed to store entries", "source", id, "error", err)
			return
		}

		e.mu.Lock()
		if src, ok := e.sources[id]; ok {
			src.Touch()
		}
		e.mu.Unlock()

		e.sink.LogEntries(id, entries)

	case watcher.EventTruncated:
		id, ok := e.resolveSource(ev.Path)
		if !ok {
			return
		}
		if err := e.ledger.Clear(id); err != nil {
			slog.Error("failed to clear entries after truncation", "source", id, "error", err)
		}
		e.sink.FileTruncated(id)

	case watcher.EventDeleted:
		id, ok := e.resolveSource(ev.Path)
		if !ok {
			return
		}
		e.setError(id, "file deleted")

	case watcher.EventError:
		id, ok := e.resolveSource(ev.Path)
		if !ok {
			return
		}
		e.setError(id, ev.Message)

	case watcher.EventCreated:
		// Tracking for matching files begins in the watcher; the first
		// append event carries their content.
		slog.Debug("file created", "path", ev.Path)
	}
}

// setError transitions a source to Error status and notifies the sink. The
// watcher keeps running for other paths.
func (e *Engine) setError(id, message string) {
	e.mu.Lock()
	if src, ok := e.sources[id]; ok {
		src.SetStatus(source.StatusError, message)
	}
	e.mu.Unlock()

	slog.Warn("source errored", "id", id, "error", message)
	e.sink.SourceStatus(id, source.StatusError, message)
}
