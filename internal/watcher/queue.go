package watcher

// eventQueue is an unbounded FIFO between the change classifier and the
// consumer. The classifier must never block on a slow consumer, so classified
// events buffer here instead of in a fixed-size channel.
type eventQueue struct {
	in  chan Event
	out chan Event
}

func newEventQueue() *eventQueue {
	q := &eventQueue{
		in:  make(chan Event),
		out: make(chan Event),
	}
	go q.pump()
	return q
}

// pump moves events from in to out, buffering in between. When in closes,
// pending events drain and out closes.
func (q *eventQueue) pump() {
	var pending []Event
	in := q.in

	for in != nil || len(pending) > 0 {
		var out chan Event
		var next Event
		if len(pending) > 0 {
			out = q.out
			next = pending[0]
		}

		select {
		case ev, ok := <-in:
			if !ok {
				in = nil
				continue
			}
			pending = append(pending, ev)
		case out <- next:
			pending = pending[1:]
		}
	}

	close(q.out)
}
