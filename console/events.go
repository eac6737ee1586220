package console

import "time"

// EventKind identifies a console state change.
type EventKind uint8

const (
	EventLocked EventKind = iota + 1
	EventUnlocked
	EventModifier
	EventScreenOff
)

func (k EventKind) String() string {
	switch k {
	case EventLocked:
		return "LOCKED"
	case EventUnlocked:
		return "UNLOCKED"
	case EventModifier:
		return "MODIFIER"
	case EventScreenOff:
		return "SCREEN_OFF"
	default:
		return "UNKNOWN"
	}
}

// Event describes a state change together with the readings at that time.
type Event struct {
	Kind     EventKind
	Time     time.Time
	Battery  int
	Modifier bool
}

// EventSink receives console events on the polling goroutine. It must not
// block.
type EventSink interface {
	ConsoleEvent(ev Event)
}

func (c *Console) emit(kind EventKind) {
	if c.cfg.Events == nil {
		return
	}
	ev := Event{
		Kind:    kind,
		Time:    c.cfg.Now(),
		Battery: c.Battery(),
	}
	if c.mod != nil {
		ev.Modifier = c.mod.active
	}
	c.cfg.Events.ConsoleEvent(ev)
}
