package source

import "testing"

func TestNewFile(t *testing.T) {
	s := NewFile("/var/log/app.log", "")

	if s.Kind != KindFile {
		t.Errorf("Kind = %q, want file", s.Kind)
	}
	if s.Name != "app.log" {
		t.Errorf("Name = %q, want app.log", s.Name)
	}
	if !s.IsActive() {
		t.Error("new source should be active")
	}
	if s.ID == "" {
		t.Error("expected generated ID")
	}
	if s.IsFolder() {
		t.Error("file source reported as folder")
	}
}

func TestNewFolder(t *testing.T) {
	s := NewFolder("/var/log/laravel", "laravel-*.log", "Laravel Logs")

	if s.Kind != KindFolder {
		t.Errorf("Kind = %q, want folder", s.Kind)
	}
	if s.Name != "Laravel Logs" {
		t.Errorf("Name = %q", s.Name)
	}
	if s.Pattern != "laravel-*.log" {
		t.Errorf("Pattern = %q", s.Pattern)
	}
	if !s.IsFolder() {
		t.Error("folder source not reported as folder")
	}
}

func TestSetStatus(t *testing.T) {
	s := NewFile("/var/log/app.log", "")

	s.SetStatus(StatusError, "file deleted")
	if s.Status != StatusError {
		t.Errorf("Status = %q, want error", s.Status)
	}
	if s.ErrorMessage != "file deleted" {
		t.Errorf("ErrorMessage = %q", s.ErrorMessage)
	}

	s.SetStatus(StatusActive, "")
	if s.ErrorMessage != "" {
		t.Error("error message should clear on recovery")
	}
}

func TestTouch(t *testing.T) {
	s := NewFile("/var/log/app.log", "")
	if !s.LastActivity.IsZero() {
		t.Error("new source should have no activity")
	}
	s.Touch()
	if s.LastActivity.IsZero() {
		t.Error("Touch should record activity")
	}
}
