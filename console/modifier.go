package console

import "time"

// DebounceStrategy selects how the modifier button is debounced.
type DebounceStrategy uint8

const (
	// DebounceWindow samples a press counter and accepts at most one toggle
	// per window.
	DebounceWindow DebounceStrategy = iota
	// DebounceEdge samples an active-low level and toggles on the press edge.
	DebounceEdge
)

func (s DebounceStrategy) String() string {
	switch s {
	case DebounceWindow:
		return "window"
	case DebounceEdge:
		return "edge"
	default:
		return "unknown"
	}
}

// DefaultDebounceWindow is the minimum spacing between two accepted toggles.
const DefaultDebounceWindow = 250 * time.Millisecond

// Modifier is a sticky Ctrl-like flag toggled by a physical control.
// Reading it samples the control.
type Modifier struct {
	strategy DebounceStrategy
	presses  PressCounter
	pin      LevelInput
	window   time.Duration
	now      func() time.Time

	onToggle func(active bool)

	active     bool
	lastToggle time.Time
	lastCount  uint32
	lastLevel  bool
}

// NewWindowModifier debounces a press counter with a time window. A press
// within the first window after construction is ignored.
func NewWindowModifier(presses PressCounter, window time.Duration, now func() time.Time) *Modifier {
	if window <= 0 {
		window = DefaultDebounceWindow
	}
	if now == nil {
		now = time.Now
	}
	m := &Modifier{
		strategy:   DebounceWindow,
		presses:    presses,
		window:     window,
		now:        now,
		lastToggle: now(),
	}
	if presses != nil {
		m.lastCount = presses.Count()
	}
	return m
}

// NewEdgeModifier toggles on every high-to-low transition of pin.
func NewEdgeModifier(pin LevelInput) *Modifier {
	m := &Modifier{strategy: DebounceEdge, pin: pin, lastLevel: true}
	if pin != nil {
		m.lastLevel = pin.Level()
	}
	return m
}

// Strategy reports the debounce strategy in use.
func (m *Modifier) Strategy() DebounceStrategy { return m.strategy }

// Active samples the control and returns the current flag.
func (m *Modifier) Active() bool {
	if m == nil {
		return false
	}
	switch m.strategy {
	case DebounceWindow:
		m.sampleCounter()
	case DebounceEdge:
		m.sampleLevel()
	}
	return m.active
}

// Set overrides the flag without touching debounce state.
func (m *Modifier) Set(active bool) {
	if m == nil {
		return
	}
	m.active = active
}

func (m *Modifier) sampleCounter() {
	if m.presses == nil {
		return
	}
	n := m.presses.Count()
	if n == m.lastCount {
		return
	}
	m.lastCount = n

	t := m.now()
	if t.Sub(m.lastToggle) <= m.window {
		return
	}
	m.lastToggle = t
	m.toggle()
}

func (m *Modifier) sampleLevel() {
	if m.pin == nil {
		return
	}
	level := m.pin.Level()
	pressed := m.lastLevel && !level
	m.lastLevel = level
	if pressed {
		m.toggle()
	}
}

func (m *Modifier) toggle() {
	m.active = !m.active
	if m.onToggle != nil {
		m.onToggle(m.active)
	}
}
