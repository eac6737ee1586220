package hal

import (
	"errors"
	"image/color"
	"io"

	"tinygo.org/x/drivers"
)

// Logger writes newline-delimited log lines.
type Logger interface {
	WriteLineString(s string)
	WriteLineBytes(b []byte)
}

var (
	ErrNotImplemented = errors.New("not implemented")
	// ErrQuit ends a host runner cleanly when returned from a step.
	ErrQuit = errors.New("quit")
	// ErrNoDevice is returned by a bus when nothing acknowledges an address.
	ErrNoDevice = errors.New("i2c: no device at address")
)

// PixelFormat defines the framebuffer pixel encoding.
type PixelFormat uint8

const (
	// PixelFormatRGB565 is 16bpp: rrrrrggggggbbbbb.
	PixelFormatRGB565 PixelFormat = iota + 1
)

// Framebuffer is a simple pixel buffer plus a "present" hook.
type Framebuffer interface {
	Width() int
	Height() int
	Format() PixelFormat
	StrideBytes() int
	Buffer() []byte
	ClearRGB(r, g, b uint8)
	Present() error
}

// Canvas is a pixel surface a text terminal can draw on. Panel drivers
// from tinygo.org/x/drivers satisfy it directly.
type Canvas interface {
	drivers.Displayer
	FillRectangle(x, y, width, height int16, c color.RGBA) error
	SetScroll(line int16)
	SetRotation(rotation drivers.Rotation) error
}

// Backlight controls display brightness in [0, 1].
type Backlight interface {
	Brightness() float64
	SetBrightness(v float64)
}

// Display is the built-in screen.
type Display interface {
	Canvas() Canvas
	Backlight() Backlight
}

// Bus is a shared I2C bus. Callers bracket each transaction with
// TryLock/Unlock.
type Bus interface {
	TryLock() bool
	Unlock()
	ReadFrom(addr uint16, p []byte) error
}

// Trackball is four unidirectional pulse counters.
type Trackball struct {
	Up    *PulseCounter
	Left  *PulseCounter
	Down  *PulseCounter
	Right *PulseCounter
}

// NewTrackball returns a trackball whose counters hold at most max pulses.
func NewTrackball(max int) Trackball {
	return Trackball{
		Up:    NewPulseCounter(max),
		Left:  NewPulseCounter(max),
		Down:  NewPulseCounter(max),
		Right: NewPulseCounter(max),
	}
}

// Battery reports charge state. Voltage fails when the monitor is absent.
type Battery interface {
	Percentage() int
	Voltage() (float64, error)
}

// Serial is a byte stream to a host terminal (UART or stdio).
type Serial interface {
	io.ReadWriter
}

// HAL provides the only contact point between the console and the device.
// Display and Battery may be nil; a nil Display means the console renders
// to Serial instead.
type HAL interface {
	Logger() Logger
	Display() Display
	Keyboard() Bus
	Trackball() Trackball
	Button() *Button
	Battery() Battery
	Serial() Serial
}
