//go:build !tinygo

package hal

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
)

// Screen geometry of the simulated T-Deck panel.
const (
	ScreenWidth  = 320
	ScreenHeight = 240
)

// Board selects where host inputs come from.
type Board string

const (
	// BoardSim feeds the keyboard, trackball and button from the window or tty.
	BoardSim Board = "sim"
	// BoardGPIO reads a real keyboard over Linux I2C and the trackball and
	// button over the GPIO character device.
	BoardGPIO Board = "gpio"
)

// BoardLines are the GPIO line offsets used by BoardGPIO.
type BoardLines struct {
	Up, Left, Down, Right int
	Button                int
}

// DefaultBoardLines follow a Raspberry Pi breakout of the T-Deck header.
var DefaultBoardLines = BoardLines{Up: 5, Left: 6, Down: 13, Right: 19, Button: 26}

// HostConfig describes the host HAL.
type HostConfig struct {
	Board        Board
	KeyboardAddr uint16
	I2CBus       string // periph bus name; "" picks the first bus
	GPIOChip     string
	Lines        BoardLines
	// BatteryPct < 0 means the host has no battery monitor.
	BatteryPct int
	// NoDisplay routes the console to Serial instead of a framebuffer.
	NoDisplay bool
}

func (c HostConfig) withDefaults() HostConfig {
	if c.Board == "" {
		c.Board = BoardSim
	}
	if c.KeyboardAddr == 0 {
		c.KeyboardAddr = 0x55
	}
	if c.GPIOChip == "" {
		c.GPIOChip = "gpiochip0"
	}
	if c.Lines == (BoardLines{}) {
		c.Lines = DefaultBoardLines
	}
	return c
}

type hostHAL struct {
	logger  *hostLogger
	fb      *hostFramebuffer
	display *hostDisplay
	kbd     Bus
	keys    *KeyQueue // nil unless the board is simulated
	ball    Trackball
	button  *Button
	battery Battery
	serial  Serial
	board   io.Closer
}

func newHost(cfg HostConfig) (*hostHAL, error) {
	cfg = cfg.withDefaults()

	h := &hostHAL{
		logger: &hostLogger{w: os.Stdout},
		serial: &stdioSerial{in: os.Stdin, out: os.Stdout},
	}
	if cfg.NoDisplay {
		// stdout is the console; keep log lines off it.
		h.logger.w = os.Stderr
	} else {
		h.fb = newHostFramebuffer(ScreenWidth, ScreenHeight)
		h.display = &hostDisplay{canvas: NewFramebufferCanvas(h.fb), light: &hostBacklight{level: 1}}
	}
	if cfg.BatteryPct >= 0 {
		h.battery = NewSimBattery(cfg.BatteryPct)
	}

	switch cfg.Board {
	case BoardSim:
		h.keys = NewKeyQueue(cfg.KeyboardAddr)
		h.kbd = h.keys
		h.ball = NewTrackball(DefaultPulseDepth)
		h.button = &Button{}
	case BoardGPIO:
		b, err := openBoard(cfg)
		if err != nil {
			return nil, fmt.Errorf("board: %w", err)
		}
		h.kbd = b.bus
		h.ball = b.ball
		h.button = b.button
		h.board = b
		h.logger.WriteLineString(fmt.Sprintf("board: i2c %q gpio %s", cfg.I2CBus, cfg.GPIOChip))
	default:
		return nil, fmt.Errorf("board: unknown kind %q", cfg.Board)
	}
	return h, nil
}

func (h *hostHAL) Logger() Logger       { return h.logger }
func (h *hostHAL) Keyboard() Bus        { return h.kbd }
func (h *hostHAL) Trackball() Trackball { return h.ball }
func (h *hostHAL) Button() *Button      { return h.button }
func (h *hostHAL) Serial() Serial       { return h.serial }

func (h *hostHAL) Display() Display {
	if h.display == nil {
		return nil
	}
	return h.display
}

func (h *hostHAL) Battery() Battery {
	if h.battery == nil {
		return nil
	}
	return h.battery
}

func (h *hostHAL) close() error {
	if h.board == nil {
		return nil
	}
	return h.board.Close()
}

type hostDisplay struct {
	canvas *FramebufferCanvas
	light  *hostBacklight
}

func (d *hostDisplay) Canvas() Canvas       { return d.canvas }
func (d *hostDisplay) Backlight() Backlight { return d.light }

type hostBacklight struct {
	mu    sync.Mutex
	level float64
}

func (b *hostBacklight) Brightness() float64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.level
}

func (b *hostBacklight) SetBrightness(v float64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.level = clampLevel(v)
}

// stdioSerial is the host's serial port. In tty mode stdin belongs to the
// keyboard reader and the console only writes.
type stdioSerial struct {
	mu  sync.Mutex
	in  io.Reader
	out io.Writer
}

func (s *stdioSerial) Read(p []byte) (int, error) { return s.in.Read(p) }

func (s *stdioSerial) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.out.Write(p)
}

type hostLogger struct {
	mu sync.Mutex
	w  io.Writer
}

func (l *hostLogger) WriteLineString(s string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintln(l.w, s)
}

func (l *hostLogger) WriteLineBytes(b []byte) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.w.Write(b)
	l.w.Write([]byte{'\n'})
}

// gpioBoard is a real keyboard and trackball attached to a Linux host.
type gpioBoard struct {
	bus     Bus
	ball    Trackball
	button  *Button
	closers []func() error
}

func (b *gpioBoard) Close() error {
	var errs []error
	for i := len(b.closers) - 1; i >= 0; i-- {
		if err := b.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	b.closers = nil
	return errors.Join(errs...)
}
