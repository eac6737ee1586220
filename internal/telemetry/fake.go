package telemetry

import (
	"sync"

	"tdeckvt/console"
)

// FakePublisher records published events for test assertions.
type FakePublisher struct {
	mu sync.Mutex

	Events   []console.Event
	Payloads [][]byte

	// PublishError, if set, is returned by Publish and nothing is recorded.
	PublishError error
	Closed       bool
}

func NewFakePublisher() *FakePublisher {
	return &FakePublisher{}
}

func (f *FakePublisher) Publish(ev console.Event) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.PublishError != nil {
		return f.PublishError
	}
	payload, err := FormatPayload(ev)
	if err != nil {
		return err
	}
	f.Events = append(f.Events, ev)
	f.Payloads = append(f.Payloads, payload)
	return nil
}

func (f *FakePublisher) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Closed = true
	return nil
}

// Kinds returns the kinds of the recorded events in order.
func (f *FakePublisher) Kinds() []console.EventKind {
	f.mu.Lock()
	defer f.mu.Unlock()
	kinds := make([]console.EventKind, len(f.Events))
	for i, ev := range f.Events {
		kinds[i] = ev.Kind
	}
	return kinds
}
