package entry

import (
	"encoding/json"
	"testing"
)

func TestFromRaw(t *testing.T) {
	e := FromRaw("plain text line", 7)

	if e.Message != "plain text line" {
		t.Errorf("Message = %q", e.Message)
	}
	if e.Raw != "plain text line" {
		t.Errorf("Raw = %q", e.Raw)
	}
	if e.LineNumber != 7 {
		t.Errorf("LineNumber = %d, want 7", e.LineNumber)
	}
	if e.Level != LevelInfo {
		t.Errorf("Level = %v, want LevelInfo", e.Level)
	}
	if e.ID == "" {
		t.Error("expected generated ID")
	}
	if !e.Timestamp.IsZero() {
		t.Error("raw entry should have no timestamp")
	}
}

func TestHasStackTrace(t *testing.T) {
	e := FromRaw("Error", 1)
	if e.HasStackTrace() {
		t.Error("fresh entry should have no stack trace")
	}

	withTrace := e.WithStackTrace([]string{"#0 /app/file.php(10): fn()"})
	if !withTrace.HasStackTrace() {
		t.Error("expected stack trace after WithStackTrace")
	}
	if e.HasStackTrace() {
		t.Error("WithStackTrace must not mutate the receiver")
	}
}

func TestDerivations(t *testing.T) {
	e := FromRaw("msg", 1).
		WithChannel("production").
		WithContext(json.RawMessage(`{"user_id": 123}`))

	if e.Channel != "production" {
		t.Errorf("Channel = %q", e.Channel)
	}
	if len(e.Context) == 0 {
		t.Error("expected context")
	}
}
