//go:build !tinygo

// Command kbdprobe polls the keyboard controller on a Linux I2C bus and
// prints read statistics. It is a bring-up tool for boards where typing
// does nothing.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"time"

	"tdeckvt/console"
	"tdeckvt/hal"
)

func main() {
	bus := flag.String("i2c", "", "I2C bus name (empty = first bus).")
	addr := flag.Uint("addr", uint(console.DefaultKeyboardAddr), "Keyboard controller address.")
	every := flag.Duration("interval", 200*time.Millisecond, "Time between reads.")
	report := flag.Duration("report", time.Second, "Time between status lines.")
	flag.Parse()

	b, closeBus, err := hal.OpenI2C(*bus)
	if err != nil {
		fmt.Fprintln(os.Stderr, "kbdprobe:", err)
		os.Exit(1)
	}
	defer closeBus()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	p := &probe{bus: b, addr: uint16(*addr)}
	p.run(ctx, os.Stdout, *every, *report)
}

type probe struct {
	bus  hal.Bus
	addr uint16

	ok, errs, busy int
	last           byte
	lastErr        error
}

// read performs one keyboard transaction and updates the counters.
func (p *probe) read() {
	if !p.bus.TryLock() {
		p.busy++
		return
	}
	defer p.bus.Unlock()

	var buf [1]byte
	if err := p.bus.ReadFrom(p.addr, buf[:]); err != nil {
		p.errs++
		p.lastErr = err
		return
	}
	p.ok++
	if buf[0] != 0 {
		p.last = buf[0]
	}
}

func (p *probe) status() string {
	s := fmt.Sprintf("kbdprobe: addr=0x%02x ok=%d err=%d busy=%d last=%02x", p.addr, p.ok, p.errs, p.busy, p.last)
	if p.lastErr != nil {
		s += " lasterr=" + p.lastErr.Error()
	}
	return s
}

func (p *probe) run(ctx context.Context, out io.Writer, every, report time.Duration) {
	tick := time.NewTicker(every)
	defer tick.Stop()
	rep := time.NewTicker(report)
	defer rep.Stop()

	for {
		select {
		case <-ctx.Done():
			fmt.Fprintln(out, p.status())
			return
		case <-tick.C:
			p.read()
		case <-rep.C:
			fmt.Fprintln(out, p.status())
		}
	}
}
