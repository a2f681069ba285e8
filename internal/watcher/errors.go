package watcher

import "errors"

// Sentinel errors for registry operations. Callers match with errors.Is;
// the wrapped form carries the offending path.
var (
	ErrFileNotFound     = errors.New("file not found")
	ErrPermissionDenied = errors.New("permission denied")
	ErrNotAFile         = errors.New("not a regular file")
	ErrNotADirectory    = errors.New("not a directory")
	ErrAlreadyWatching  = errors.New("already watching")
	ErrNotWatching      = errors.New("not watching")
	ErrInvalidPattern   = errors.New("invalid glob pattern")
)
