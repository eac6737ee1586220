package telemetry

import "tdeckvt/console"

// ringBuffer is a fixed-capacity FIFO of events waiting for the publisher.
// When full the oldest event is overwritten. Not safe for concurrent use.
type ringBuffer struct {
	buf   []console.Event
	head  int // next write position
	count int
}

func newRingBuffer(capacity int) *ringBuffer {
	if capacity <= 0 {
		capacity = 1
	}
	return &ringBuffer{buf: make([]console.Event, capacity)}
}

// push stores ev and reports whether the oldest entry was dropped for it.
func (r *ringBuffer) push(ev console.Event) (dropped bool) {
	r.buf[r.head] = ev
	r.head = (r.head + 1) % len(r.buf)
	if r.count == len(r.buf) {
		return true
	}
	r.count++
	return false
}

func (r *ringBuffer) drainAll() []console.Event {
	if r.count == 0 {
		return nil
	}
	out := make([]console.Event, r.count)
	start := (r.head - r.count + len(r.buf)) % len(r.buf)
	for i := range out {
		out[i] = r.buf[(start+i)%len(r.buf)]
	}
	r.count = 0
	r.head = 0
	return out
}

func (r *ringBuffer) len() int { return r.count }
