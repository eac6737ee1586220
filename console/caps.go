package console

// ByteBus is the keyboard controller's bus. It is shared with other bus
// users, so every transaction is bracketed by TryLock/Unlock.
type ByteBus interface {
	TryLock() bool
	Unlock()
	ReadFrom(addr uint16, p []byte) error
}

// PulseCounter accumulates trackball pulses until cleared.
type PulseCounter interface {
	Len() int
	Clear()
}

// PressCounter counts button presses. The value only grows.
type PressCounter interface {
	Count() uint32
}

// LevelInput is a digital input sampled directly. Inputs are active-low:
// false means pressed.
type LevelInput interface {
	Level() bool
}

// BatterySource reports the charge of a battery. Voltage doubles as the
// validity probe when the source is assigned.
type BatterySource interface {
	Percentage() int
	Voltage() (float64, error)
}

// MemSource reports heap usage in bytes.
type MemSource interface {
	MemUsage() (used, total int)
}

// Surface is the text grid the console renders to.
type Surface interface {
	Write(p []byte) (int, error)
	Brightness() float64
	SetBrightness(v float64)
	// Focus makes this surface the visible root of the display.
	Focus()
	Size() (cols, rows int)
}

// Logger writes newline-delimited diagnostics.
type Logger interface {
	WriteLineString(s string)
}

// Trackball groups the four directional pulse counters.
type Trackball struct {
	Up    PulseCounter
	Left  PulseCounter
	Down  PulseCounter
	Right PulseCounter
}
