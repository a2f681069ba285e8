// Package source defines the log source entity exposed to commands and events.
package source

import (
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

// Kind distinguishes single-file sources from folder+pattern sources.
type Kind string

const (
	KindFile   Kind = "file"
	KindFolder Kind = "folder"
)

// Status is the lifecycle state of a source.
type Status string

const (
	StatusActive  Status = "active"
	StatusPaused  Status = "paused"
	StatusError   Status = "error"
	StatusStopped Status = "stopped"
)

// Source is a logical watched entity: one file, or one directory with a glob
// pattern for the files inside it.
type Source struct {
	ID           string    `json:"id"`
	Path         string    `json:"path"`
	Kind         Kind      `json:"kind"`
	Name         string    `json:"name"`
	Pattern      string    `json:"pattern,omitempty"`
	Status       Status    `json:"status"`
	ErrorMessage string    `json:"error_message,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	LastActivity time.Time `json:"last_activity,omitzero"`
}

// NewFile creates an active file source. An empty name defaults to the
// file's base name.
func NewFile(path, name string) *Source {
	if name == "" {
		name = filepath.Base(path)
	}
	return &Source{
		ID:        uuid.NewString(),
		Path:      path,
		Kind:      KindFile,
		Name:      name,
		Status:    StatusActive,
		CreatedAt: time.Now(),
	}
}

// NewFolder creates an active folder source with a glob pattern matched
// against the names of files inside the folder.
func NewFolder(path, pattern, name string) *Source {
	if name == "" {
		name = filepath.Base(path)
	}
	return &Source{
		ID:        uuid.NewString(),
		Path:      path,
		Kind:      KindFolder,
		Name:      name,
		Pattern:   pattern,
		Status:    StatusActive,
		CreatedAt: time.Now(),
	}
}

// IsFolder reports whether this source watches a directory.
func (s *Source) IsFolder() bool {
	return s.Kind == KindFolder
}

// IsActive reports whether the source is currently delivering entries.
func (s *Source) IsActive() bool {
	return s.Status == StatusActive
}

// SetStatus transitions the source to a new status. The error message is
// cleared unless the new status carries one.
func (s *Source) SetStatus(status Status, errorMessage string) {
	s.Status = status
	s.ErrorMessage = errorMessage
}

// Touch records activity on the source.
func (s *Source) Touch() {
	s.LastActivity = time.Now()
}
