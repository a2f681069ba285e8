package watcher

import "testing"

func TestObserveNoChange(t *testing.T) {
	st := &pathState{size: 100, lineNumber: 10}

	d := st.observe(100)
	if d.kind != deltaNone {
		t.Errorf("kind = %v, want deltaNone", d.kind)
	}
	if st.size != 100 || st.lineNumber != 10 {
		t.Error("no-change observation must not mutate state")
	}
}

func TestObserveAppended(t *testing.T) {
	st := &pathState{size: 100, lineNumber: 10}

	d := st.observe(250)
	if d.kind != deltaAppended {
		t.Fatalf("kind = %v, want deltaAppended", d.kind)
	}
	if d.from != 100 || d.to != 250 {
		t.Errorf("range = [%d, %d), want [100, 250)", d.from, d.to)
	}
	// Append is committed only via advance.
	if st.size != 100 || st.lineNumber != 10 {
		t.Error("observe must not commit an append")
	}

	st.advance(250, 3)
	if st.size != 250 {
		t.Errorf("size = %d, want 250", st.size)
	}
	if st.lineNumber != 13 {
		t.Errorf("lineNumber = %d, want 13", st.lineNumber)
	}
}

func TestObserveTruncated(t *testing.T) {
	st := &pathState{size: 100, lineNumber: 10}

	d := st.observe(40)
	if d.kind != deltaTruncated {
		t.Fatalf("kind = %v, want deltaTruncated", d.kind)
	}
	if st.size != 0 || st.lineNumber != 0 {
		t.Errorf("truncation must reset state, got size=%d lines=%d", st.size, st.lineNumber)
	}

	// Content written after the truncation is a fresh append from zero.
	d = st.observe(40)
	if d.kind != deltaAppended || d.from != 0 || d.to != 40 {
		t.Errorf("post-truncation delta = %+v, want appended [0, 40)", d)
	}
}
