package ledger

import (
	"fmt"
	"testing"
	"time"

	"github.com/setevik/loglens/internal/entry"
)

func newTestLedger(t *testing.T) *Ledger {
	t.Helper()
	l, err := Open()
	if err != nil {
		t.Fatalf("opening ledger: %v", err)
	}
	t.Cleanup(func() { l.Close() })
	return l
}

func makeEntries(n int, startLine uint64) []entry.Entry {
	entries := make([]entry.Entry, n)
	for i := range entries {
		entries[i] = entry.New(
			time.Date(2024, 1, 15, 10, 30, i, 0, time.UTC),
			entry.LevelError,
			fmt.Sprintf("message %d", i),
			fmt.Sprintf("[2024-01-15 10:30:0%d] production.ERROR: message %d", i, i),
			startLine+uint64(i),
		)
	}
	return entries
}

func TestAppendAndEntries(t *testing.T) {
	l := newTestLedger(t)
	want := makeEntries(3, 1)

	if err := l.Append("src-1", want); err != nil {
		t.Fatalf("Append: %v", err)
	}

	got, err := l.Entries("src-1", 0)
	if err != nil {
		t.Fatalf("Entries: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("len = %d, want 3", len(got))
	}
	for i := range got {
		if got[i].ID != want[i].ID {
			t.Errorf("entry %d: id = %s, want %s", i, got[i].ID, want[i].ID)
		}
		if got[i].Message != want[i].Message {
			t.Errorf("entry %d: message = %q, want %q", i, got[i].Message, want[i].Message)
		}
		if got[i].LineNumber != want[i].LineNumber {
			t.Errorf("entry %d: line = %d, want %d", i, got[i].LineNumber, want[i].LineNumber)
		}
		if !got[i].Timestamp.Equal(want[i].Timestamp) {
			t.Errorf("entry %d: timestamp = %v, want %v", i, got[i].Timestamp, want[i].Timestamp)
		}
		if got[i].Level != entry.LevelError {
			t.Errorf("entry %d: level = %v", i, got[i].Level)
		}
	}
}

func TestAppendPreservesOrderAcrossBatches(t *testing.T) {
	l := newTestLedger(t)

	if err := l.Append("src-1", makeEntries(2, 1)); err != nil {
		t.Fatalf("first Append: %v", err)
	}
	if err := l.Append("src-1", makeEntries(2, 3)); err != nil {
		t.Fatalf("second Append: %v", err)
	}

	got, err := l.Entries("src-1", 0)
	if err != nil {
		t.Fatalf("Entries: %v", err)
	}
	if len(got) != 4 {
		t.Fatalf("len = %d, want 4", len(got))
	}
	for i, e := range got {
		if e.LineNumber != uint64(i+1) {
			t.Errorf("entry %d: line = %d, want %d", i, e.LineNumber, i+1)
		}
	}
}

func TestEntriesLimitReturnsMostRecentInOrder(t *testing.T) {
	l := newTestLedger(t)
	if err := l.Append("src-1", makeEntries(5, 1)); err != nil {
		t.Fatalf("Append: %v", err)
	}

	got, err := l.Entries("src-1", 2)
	if err != nil {
		t.Fatalf("Entries: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2", len(got))
	}
	if got[0].LineNumber != 4 || got[1].LineNumber != 5 {
		t.Errorf("lines = %d, %d, want 4, 5", got[0].LineNumber, got[1].LineNumber)
	}
}

func TestEntriesUnknownSource(t *testing.T) {
	l := newTestLedger(t)

	got, err := l.Entries("no-such-source", 0)
	if err != nil {
		t.Fatalf("Entries: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("len = %d, want 0", len(got))
	}
}

func TestEntriesIsReadOnly(t *testing.T) {
	l := newTestLedger(t)
	if err := l.Append("src-1", makeEntries(3, 1)); err != nil {
		t.Fatalf("Append: %v", err)
	}

	for i := 0; i < 3; i++ {
		got, err := l.Entries("src-1", 0)
		if err != nil {
			t.Fatalf("Entries #%d: %v", i, err)
		}
		if len(got) != 3 {
			t.Fatalf("read #%d: len = %d, want 3", i, len(got))
		}
	}
}

func TestClearIsolatedPerSource(t *testing.T) {
	l := newTestLedger(t)
	if err := l.Append("src-1", makeEntries(3, 1)); err != nil {
		t.Fatalf("Append src-1: %v", err)
	}
	if err := l.Append("src-2", makeEntries(2, 1)); err != nil {
		t.Fatalf("Append src-2: %v", err)
	}

	if err := l.Clear("src-1"); err != nil {
		t.Fatalf("Clear: %v", err)
	}

	n, err := l.Count("src-1")
	if err != nil {
		t.Fatalf("Count src-1: %v", err)
	}
	if n != 0 {
		t.Errorf("src-1 count = %d, want 0", n)
	}
	n, err = l.Count("src-2")
	if err != nil {
		t.Fatalf("Count src-2: %v", err)
	}
	if n != 2 {
		t.Errorf("src-2 count = %d, want 2", n)
	}
}

func TestSequenceRestartsAfterClear(t *testing.T) {
	l := newTestLedger(t)
	if err := l.Append("src-1", makeEntries(3, 1)); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if err := l.Clear("src-1"); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if err := l.Append("src-1", makeEntries(2, 1)); err != nil {
		t.Fatalf("Append after clear: %v", err)
	}

	got, err := l.Entries("src-1", 0)
	if err != nil {
		t.Fatalf("Entries: %v", err)
	}
	if len(got) != 2 {
		t.Errorf("len = %d, want 2", len(got))
	}
}

func TestStackTraceAndContextRoundTrip(t *testing.T) {
	l := newTestLedger(t)

	e := entry.New(time.Now().UTC(), entry.LevelCritical, "boom", "raw", 7)
	e = e.WithStackTrace([]string{"#0 /app/Handler.php(10)", "#1 {main}"})
	e = e.WithContext([]byte(`{"user_id":123}`))
	e = e.WithChannel("production")

	if err := l.Append("src-1", []entry.Entry{e}); err != nil {
		t.Fatalf("Append: %v", err)
	}

	got, err := l.Entries("src-1", 0)
	if err != nil {
		t.Fatalf("Entries: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("len = %d, want 1", len(got))
	}
	if len(got[0].StackTrace) != 2 || got[0].StackTrace[1] != "#1 {main}" {
		t.Errorf("stack = %v", got[0].StackTrace)
	}
	if string(got[0].Context) != `{"user_id":123}` {
		t.Errorf("context = %s", got[0].Context)
	}
	if got[0].Channel != "production" {
		t.Errorf("channel = %s", got[0].Channel)
	}
}

func TestAppendEmptyBatch(t *testing.T) {
	l := newTestLedger(t)

	if err := l.Append("src-1", nil); err != nil {
		t.Fatalf("Append(nil): %v", err)
	}
	n, err := l.Count("src-1")
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if n != 0 {
		t.Errorf("count = %d, want 0", n)
	}
}
