// Package console implements a locked byte-stream console for a handheld
// with a keyboard, a trackball, a modifier button and a battery monitor.
//
// The console stays locked behind a status screen until a line feed is
// typed. Everything runs on the caller's goroutine: each query polls the
// inputs once.
package console

import (
	"bytes"
	"errors"
	"fmt"
	"time"
)

var (
	// ErrUnboundedRead is returned by ReadN for a negative count.
	ErrUnboundedRead = fmt.Errorf("console: unbounded reads: %w", errors.ErrUnsupported)
	// ErrDisplayFixed is returned when replacing the display.
	ErrDisplayFixed = fmt.Errorf("console: alternative displays: %w", errors.ErrUnsupported)
	// ErrClosed is returned by I/O after Close.
	ErrClosed = errors.New("console: closed")
)

// Unbounded is the ReadN count meaning "everything"; it is always rejected.
const Unbounded = -1

const (
	DefaultPollBudget = 15
	DefaultDimStep    = 0.1
	// DefaultPollInterval is the input throttle of the T-Deck firmware.
	// A zero Config.PollInterval disables throttling.
	DefaultPollInterval = 150 * time.Millisecond
)

const closeMessage = "\r\nconsole: closed\r\n"

// LockState is the gate state of a Console.
type LockState uint8

const (
	Locked LockState = iota
	Unlocked
)

func (s LockState) String() string {
	if s == Unlocked {
		return "unlocked"
	}
	return "locked"
}

// Config tunes a Console. Zero fields take defaults.
type Config struct {
	KeyboardAddr    uint16
	PollInterval    time.Duration
	MotionThreshold int
	PollBudget      int
	DimStep         float64

	Template Template
	// RedrawAlways issues a lock-screen frame on every budgeted poll, even
	// when no field changed.
	RedrawAlways bool
	// ShowUnknownBattery keeps the battery line with a "---" field when no
	// battery is configured.
	ShowUnknownBattery bool

	Now    func() time.Time
	Log    Logger
	Events EventSink
}

func (c Config) withDefaults() Config {
	if c.KeyboardAddr == 0 {
		c.KeyboardAddr = DefaultKeyboardAddr
	}
	if c.PollInterval < 0 {
		c.PollInterval = 0
	}
	if c.MotionThreshold <= 0 {
		c.MotionThreshold = DefaultMotionThreshold
	}
	if c.PollBudget <= 0 {
		c.PollBudget = DefaultPollBudget
	}
	if c.DimStep <= 0 {
		c.DimStep = DefaultDimStep
	}
	if c.Template == "" {
		c.Template = DefaultTemplate
	}
	if c.Now == nil {
		c.Now = time.Now
	}
	return c
}

// Devices are the capabilities a Console drives. Only Surface is required.
type Devices struct {
	Surface   Surface
	Keyboard  ByteBus
	Trackball Trackball
	Modifier  *Modifier
	Memory    MemSource
}

// Console is the lock gate in front of a Surface.
type Console struct {
	cfg     Config
	surface Surface
	fuser   *Fuser
	mod     *Modifier
	mem     MemSource
	panel   *Panel
	battery BatterySource

	cols int
	rows int

	state    LockState
	queue    []byte
	polls    int
	lastPoll time.Time
	dark     bool
	closed   bool
}

// New returns a locked Console.
func New(dev Devices, cfg Config) (*Console, error) {
	if dev.Surface == nil {
		return nil, errors.New("console: surface required")
	}
	cfg = cfg.withDefaults()

	c := &Console{
		cfg:      cfg,
		surface:  dev.Surface,
		mod:      dev.Modifier,
		mem:      dev.Memory,
		panel:    NewPanel(cfg.Template, cfg.ShowUnknownBattery),
		lastPoll: cfg.Now(),
	}
	c.fuser = NewFuser(dev.Keyboard, cfg.KeyboardAddr, dev.Trackball, dev.Modifier, cfg.MotionThreshold)
	if c.mod != nil {
		c.mod.onToggle = c.modifierToggled
	}
	c.cols, c.rows = dev.Surface.Size()
	c.lock()
	return c, nil
}

// State reports the gate state without polling.
func (c *Console) State() LockState { return c.state }

// Enabled reports whether the console is unlocked, without polling.
func (c *Console) Enabled() bool { return c.state == Unlocked }

// Connected polls the inputs while locked and reports whether the console
// is unlocked. A line feed in the pending input unlocks it; any other
// input is discarded and keeps the screen awake. Each locked poll either
// redraws the status screen or, once the poll budget is spent, dims the
// display one step.
func (c *Console) Connected() bool {
	if c.state == Unlocked {
		return true
	}
	if c.closed {
		return false
	}

	if c.InWaiting() > 0 {
		if bytes.IndexByte(c.queue, keyLF) >= 0 {
			c.unlock()
			return true
		}
		c.queue = c.queue[:0]
		c.wake()
	}

	if c.polls < c.cfg.PollBudget {
		c.polls++
		c.drawPanel(c.cfg.RedrawAlways)
		return false
	}
	c.dim()
	return false
}

// Size returns the terminal grid as columns and rows.
func (c *Console) Size() (cols, rows int) { return c.cols, c.rows }

// InWaiting polls the inputs once and returns the number of queued bytes.
func (c *Console) InWaiting() int {
	c.poll()
	return len(c.queue)
}

func (c *Console) poll() {
	if c.closed {
		return
	}
	if c.cfg.PollInterval > 0 && c.cfg.Now().Sub(c.lastPoll) < c.cfg.PollInterval {
		return
	}
	c.queue = c.fuser.Poll(c.queue)
	c.lastPoll = c.cfg.Now()
}

// ReadN blocks, polling the inputs, until count bytes are queued and
// returns exactly count bytes. Callers that must not block check
// InWaiting first.
func (c *Console) ReadN(count int) ([]byte, error) {
	if count < 0 {
		return nil, ErrUnboundedRead
	}
	if c.closed {
		return nil, ErrClosed
	}
	for c.InWaiting() < count {
	}

	res := make([]byte, count)
	copy(res, c.queue)
	n := copy(c.queue, c.queue[count:])
	c.queue = c.queue[:n]
	return res, nil
}

// Read fills p completely, blocking like ReadN.
func (c *Console) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	b, err := c.ReadN(len(p))
	if err != nil {
		return 0, err
	}
	return copy(p, b), nil
}

// Write forwards p to the surface. While locked nothing is written and 0
// is returned.
func (c *Console) Write(p []byte) (int, error) {
	if c.closed {
		return 0, ErrClosed
	}
	if c.state != Unlocked {
		return 0, nil
	}
	return c.surface.Write(p)
}

// ResetInputBuffer drops all queued input.
func (c *Console) ResetInputBuffer() {
	c.queue = c.queue[:0]
}

// Enable unlocks the console, clears the terminal and brings its surface
// to the front at full brightness.
func (c *Console) Enable() {
	if c.closed {
		return
	}
	c.unlock()
}

// Disable locks the console. Without a battery the lock screen is drawn at
// once; otherwise the next Connected poll draws it with live readings.
func (c *Console) Disable() {
	if c.closed {
		return
	}
	c.lock()
}

// Disconnect is Disable.
func (c *Console) Disconnect() { c.Disable() }

// Mode is accepted for compatibility with graphics-capable consoles.
func (c *Console) Mode(graphics bool) {}

// Battery returns the battery percentage, or -1 without a battery.
func (c *Console) Battery() int {
	if c.battery == nil {
		return -1
	}
	pct := c.battery.Percentage()
	if pct < 0 {
		return 0
	}
	if pct > 100 {
		return 100
	}
	return pct
}

// SetBattery assigns the battery shown on the lock screen. A nil source
// clears it. A source whose voltage cannot be read is rejected with a
// diagnostic and the previous assignment is kept.
func (c *Console) SetBattery(src BatterySource) {
	if src == nil {
		c.battery = nil
		return
	}
	if _, err := src.Voltage(); err != nil {
		c.logf("console: invalid battery source: %v", err)
		return
	}
	c.battery = src
}

// Modifier returns the Ctrl-mode toggle, which may be nil.
func (c *Console) Modifier() *Modifier { return c.mod }

// Display returns the surface the console renders to.
func (c *Console) Display() Surface { return c.surface }

// SetDisplay always fails: a console is bound to one display.
func (c *Console) SetDisplay(Surface) error { return ErrDisplayFixed }

// Close writes a final message, turns the display off and releases the
// input queue. Only the first call has any effect.
func (c *Console) Close() error {
	if c.closed {
		return nil
	}
	c.closed = true
	_, err := c.surface.Write([]byte(closeMessage))
	c.surface.SetBrightness(0)
	c.queue = nil
	return err
}

func (c *Console) unlock() {
	c.state = Unlocked
	c.queue = c.queue[:0]
	c.polls = 0
	c.dark = false
	c.panel.Reset()
	c.surface.SetBrightness(1)
	_, _ = c.surface.Write([]byte(ClearScreen))
	c.surface.Focus()
	c.emit(EventUnlocked)
}

func (c *Console) lock() {
	c.state = Locked
	c.queue = c.queue[:0]
	c.polls = 0
	c.dark = false
	c.panel.Reset()
	c.surface.SetBrightness(1)
	if c.battery == nil {
		c.drawPanel(true)
	}
	c.emit(EventLocked)
}

// wake refills the poll budget after input arrived on the lock screen.
func (c *Console) wake() {
	c.polls = 0
	c.dark = false
	c.surface.SetBrightness(1)
}

func (c *Console) dim() {
	v := c.surface.Brightness() - c.cfg.DimStep
	if v < 0 {
		v = 0
	}
	c.surface.SetBrightness(v)
	if v == 0 && !c.dark {
		c.dark = true
		c.emit(EventScreenOff)
	}
}

func (c *Console) drawPanel(force bool) {
	if frame := c.panel.Frame(c.status(), force); frame != nil {
		_, _ = c.surface.Write(frame)
	}
}

func (c *Console) status() Status {
	s := Status{Battery: c.Battery()}
	if c.mem != nil {
		s.MemUsed, s.MemTotal = c.mem.MemUsage()
	}
	if c.mod != nil {
		// Peek: sampling here would consume presses meant for the fuser.
		s.Ctrl = c.mod.active
	}
	return s
}

func (c *Console) modifierToggled(active bool) {
	c.polls = 0
	if c.state == Locked {
		c.wake()
	}
	c.emit(EventModifier)
}

func (c *Console) logf(format string, args ...any) {
	if c.cfg.Log == nil {
		return
	}
	c.cfg.Log.WriteLineString(fmt.Sprintf(format, args...))
}
