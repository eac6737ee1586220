// Package app wires a HAL into a locked console with a small command
// shell on top.
package app

import (
	"time"

	"tdeckvt/console"
	"tdeckvt/hal"
	"tdeckvt/internal/buildinfo"
	"tdeckvt/surface"
)

// Config tunes the application. Zero values take defaults.
type Config struct {
	Console console.Config
	// Debounce is the press window of the modifier button.
	Debounce time.Duration
	// EdgeButton samples the button level instead of counting presses.
	EdgeButton bool
	// Events receives console state changes, e.g. for telemetry.
	Events console.EventSink
}

// DefaultConfig matches the device firmware.
func DefaultConfig() Config {
	return Config{
		Console:  console.Config{PollInterval: console.DefaultPollInterval},
		Debounce: console.DefaultDebounceWindow,
	}
}

type flusher interface {
	Flush() error
}

type system struct {
	log   hal.Logger
	con   *console.Console
	sh    *shell
	out   flusher
	state console.LockState
}

// New starts the console with the default config and returns its step
// function.
func New(h hal.HAL) func() error {
	return NewWithConfig(h, DefaultConfig())
}

// NewWithConfig starts the console and returns its step function. Each
// step polls the inputs once and runs the shell on whatever arrived.
func NewWithConfig(h hal.HAL, cfg Config) func() error {
	s, err := newSystem(h, cfg)
	if err != nil {
		return func() error { return err }
	}
	return s.step
}

// Run steps the console forever (TinyGo entrypoint).
func Run(h hal.HAL) {
	step := New(h)
	for {
		if err := step(); err != nil {
			h.Logger().WriteLineString("app: " + err.Error())
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func newSystem(h hal.HAL, cfg Config) (*system, error) {
	log := h.Logger()
	log.WriteLineString("app: tdeckvt " + buildinfo.Short())

	var surf console.Surface
	var out flusher
	if d := h.Display(); d != nil {
		t := surface.NewTerminal(d)
		surf, out = t, t
	} else {
		st := surface.NewStream(h.Serial(), surface.StreamConfig{CRLF: true})
		surf, out = st, st
	}

	if cfg.Debounce <= 0 {
		cfg.Debounce = console.DefaultDebounceWindow
	}
	var mod *console.Modifier
	if btn := h.Button(); btn != nil {
		if cfg.EdgeButton {
			mod = console.NewEdgeModifier(btn)
		} else {
			now := cfg.Console.Now
			if now == nil {
				now = time.Now
			}
			mod = console.NewWindowModifier(btn, cfg.Debounce, now)
		}
	}

	var kbd console.ByteBus
	if b := h.Keyboard(); b != nil {
		kbd = b
	}
	tb := h.Trackball()
	mem := runtimeMem{}

	ccfg := cfg.Console
	ccfg.Log = log
	if cfg.Events != nil {
		ccfg.Events = cfg.Events
	}
	con, err := console.New(console.Devices{
		Surface:  surf,
		Keyboard: kbd,
		Trackball: console.Trackball{
			Up:    tb.Up,
			Left:  tb.Left,
			Down:  tb.Down,
			Right: tb.Right,
		},
		Modifier: mod,
		Memory:   mem,
	}, ccfg)
	if err != nil {
		return nil, err
	}
	if bat := h.Battery(); bat != nil {
		con.SetBattery(bat)
	}

	s := &system{
		log:   log,
		con:   con,
		sh:    newShell(con, mem),
		out:   out,
		state: con.State(),
	}
	return s, s.out.Flush()
}

func (s *system) step() error {
	defer s.out.Flush()

	if !s.con.Connected() {
		s.state = console.Locked
		return nil
	}
	if s.state != console.Unlocked {
		s.state = console.Unlocked
		s.sh.prompt()
	}

	n := s.con.InWaiting()
	if n == 0 {
		return nil
	}
	b, err := s.con.ReadN(n)
	if err != nil {
		return err
	}
	if err := s.sh.feed(b); err != nil {
		s.con.Close()
		return err
	}
	return nil
}
