package hal

import "sync"

// KeyQueue emulates the keyboard controller on hosts without one: key
// bytes pushed by the window or the tty reader are handed out one per
// single-byte read at the controller's address.
type KeyQueue struct {
	bus  sync.Mutex
	mu   sync.Mutex
	addr uint16
	buf  []byte
}

// NewKeyQueue returns an empty controller answering at addr.
func NewKeyQueue(addr uint16) *KeyQueue {
	return &KeyQueue{addr: addr}
}

// Push queues key bytes.
func (q *KeyQueue) Push(b ...byte) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.buf = append(q.buf, b...)
}

// Len returns the number of queued key bytes.
func (q *KeyQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.buf)
}

func (q *KeyQueue) TryLock() bool { return q.bus.TryLock() }
func (q *KeyQueue) Unlock()       { q.bus.Unlock() }

// ReadFrom fills p with the next key byte, or 0 when none is queued.
func (q *KeyQueue) ReadFrom(addr uint16, p []byte) error {
	if addr != q.addr {
		return ErrNoDevice
	}
	if len(p) == 0 {
		return nil
	}
	q.mu.Lock()
	defer q.mu.Unlock()

	p[0] = 0
	if len(q.buf) > 0 {
		p[0] = q.buf[0]
		q.buf = q.buf[1:]
	}
	for i := 1; i < len(p); i++ {
		p[i] = 0
	}
	return nil
}
