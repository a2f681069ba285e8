package watcher

import (
	"fmt"
	"testing"
	"time"
)

func TestQueueOrderAndNonBlockingProducer(t *testing.T) {
	q := newEventQueue()

	// With no consumer attached, the producer must never block.
	const n = 1000
	done := make(chan struct{})
	go func() {
		for i := 0; i < n; i++ {
			q.in <- Event{Type: EventCreated, Path: fmt.Sprintf("/tmp/f%d", i)}
		}
		close(q.in)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("producer blocked on unbounded queue")
	}

	for i := 0; i < n; i++ {
		ev, ok := <-q.out
		if !ok {
			t.Fatalf("queue closed early at %d", i)
		}
		want := fmt.Sprintf("/tmp/f%d", i)
		if ev.Path != want {
			t.Fatalf("event %d path = %q, want %q (order broken)", i, ev.Path, want)
		}
	}

	if _, ok := <-q.out; ok {
		t.Error("queue should close after draining")
	}
}
