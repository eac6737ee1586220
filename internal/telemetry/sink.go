package telemetry

import (
	"context"
	"fmt"
	"sync"

	"tdeckvt/console"
)

// DefaultQueueDepth bounds the events held while the broker is slow.
const DefaultQueueDepth = 32

// Logger writes newline-delimited diagnostics.
type Logger interface {
	WriteLineString(s string)
}

// Sink decouples the console's polling loop from the broker. ConsoleEvent
// only queues; Run publishes from its own goroutine.
type Sink struct {
	pub Publisher
	log Logger

	mu      sync.Mutex
	queue   *ringBuffer
	dropped int
	wake    chan struct{}
}

// NewSink queues up to depth events for pub (depth <= 0 selects
// DefaultQueueDepth). log may be nil.
func NewSink(pub Publisher, depth int, log Logger) *Sink {
	if depth <= 0 {
		depth = DefaultQueueDepth
	}
	return &Sink{
		pub:   pub,
		log:   log,
		queue: newRingBuffer(depth),
		wake:  make(chan struct{}, 1),
	}
}

// ConsoleEvent queues ev without blocking.
func (s *Sink) ConsoleEvent(ev console.Event) {
	s.mu.Lock()
	if s.queue.push(ev) {
		s.dropped++
	}
	s.mu.Unlock()

	select {
	case s.wake <- struct{}{}:
	default:
	}
}

// Pending returns the number of queued events.
func (s *Sink) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.queue.len()
}

// Run publishes queued events until ctx is done, then flushes what is left
// and closes the publisher.
func (s *Sink) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			s.flush()
			return s.pub.Close()
		case <-s.wake:
			s.flush()
		}
	}
}

func (s *Sink) flush() {
	s.mu.Lock()
	events := s.queue.drainAll()
	dropped := s.dropped
	s.dropped = 0
	s.mu.Unlock()

	if dropped > 0 {
		s.logf("telemetry: queue full, dropped %d events", dropped)
	}
	for _, ev := range events {
		if err := s.pub.Publish(ev); err != nil {
			s.logf("telemetry: publish %s: %v", ev.Kind, err)
		}
	}
}

func (s *Sink) logf(format string, args ...any) {
	if s.log == nil {
		return
	}
	s.log.WriteLineString(fmt.Sprintf(format, args...))
}
