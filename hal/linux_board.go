//go:build linux && !tinygo

package hal

import (
	"fmt"
	"sync"

	"github.com/warthog618/go-gpiocdev"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/host/v3"
)

// i2cBus shares a periph bus between the keyboard poll and other users.
type i2cBus struct {
	mu  sync.Mutex
	bus i2c.Bus
}

func (b *i2cBus) TryLock() bool { return b.mu.TryLock() }
func (b *i2cBus) Unlock()       { b.mu.Unlock() }

func (b *i2cBus) ReadFrom(addr uint16, p []byte) error {
	if err := b.bus.Tx(addr, nil, p); err != nil {
		return fmt.Errorf("i2c: read 0x%02x: %w", addr, err)
	}
	return nil
}

// OpenI2C initializes periph and opens the named I2C bus ("" for the first).
func OpenI2C(name string) (Bus, func() error, error) {
	if _, err := host.Init(); err != nil {
		return nil, nil, fmt.Errorf("periph init: %w", err)
	}
	bc, err := i2creg.Open(name)
	if err != nil {
		return nil, nil, fmt.Errorf("open i2c %q: %w", name, err)
	}
	return &i2cBus{bus: bc}, bc.Close, nil
}

func openBoard(cfg HostConfig) (*gpioBoard, error) {
	b := &gpioBoard{
		ball:   NewTrackball(DefaultPulseDepth),
		button: &Button{},
	}

	bus, closeBus, err := OpenI2C(cfg.I2CBus)
	if err != nil {
		return nil, err
	}
	b.bus = bus
	b.closers = append(b.closers, closeBus)

	chip, err := gpiocdev.NewChip(cfg.GPIOChip)
	if err != nil {
		b.Close()
		return nil, fmt.Errorf("open gpio chip: %w", err)
	}
	b.closers = append(b.closers, chip.Close)

	// Each trackball direction pulses its line; count falling edges.
	pulses := []struct {
		name   string
		offset int
		c      *PulseCounter
	}{
		{"up", cfg.Lines.Up, b.ball.Up},
		{"left", cfg.Lines.Left, b.ball.Left},
		{"down", cfg.Lines.Down, b.ball.Down},
		{"right", cfg.Lines.Right, b.ball.Right},
	}
	for _, p := range pulses {
		c := p.c
		l, err := chip.RequestLine(p.offset,
			gpiocdev.AsInput,
			gpiocdev.WithPullUp,
			gpiocdev.WithFallingEdge,
			gpiocdev.WithEventHandler(func(gpiocdev.LineEvent) { c.Add(1) }),
		)
		if err != nil {
			b.Close()
			return nil, fmt.Errorf("request %s line %d: %w", p.name, p.offset, err)
		}
		b.closers = append(b.closers, l.Close)
	}

	btn := b.button
	l, err := chip.RequestLine(cfg.Lines.Button,
		gpiocdev.AsInput,
		gpiocdev.WithPullUp,
		gpiocdev.WithBothEdges,
		gpiocdev.WithDebounce(DefaultButtonDebounce),
		gpiocdev.WithEventHandler(func(evt gpiocdev.LineEvent) {
			// Active low.
			if evt.Type == gpiocdev.LineEventFallingEdge {
				btn.Press()
			} else {
				btn.Release()
			}
		}),
	)
	if err != nil {
		b.Close()
		return nil, fmt.Errorf("request button line %d: %w", cfg.Lines.Button, err)
	}
	b.closers = append(b.closers, l.Close)
	return b, nil
}
