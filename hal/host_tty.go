//go:build !tinygo

package hal

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"golang.org/x/term"
)

// ttyQuitKey (Ctrl-]) leaves tty mode, since raw mode swallows Ctrl-C.
const ttyQuitKey = 0x1D

// TTYConfig controls the raw-terminal host runner.
type TTYConfig struct {
	Hz   int
	Host HostConfig
}

// RunTTY puts stdin in raw mode and runs the console on the controlling
// terminal: keystrokes feed the simulated keyboard controller and the
// console renders to stdout.
func RunTTY(ctx context.Context, newApp func(HAL) func() error, cfg TTYConfig) error {
	if cfg.Hz <= 0 {
		cfg.Hz = 60
	}
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return errors.New("tty: stdin is not a terminal")
	}

	cfg.Host.NoDisplay = true
	h, err := newHost(cfg.Host)
	if err != nil {
		return err
	}
	defer h.close()
	if h.keys == nil {
		return fmt.Errorf("tty: board %q has its own keyboard", cfg.Host.Board)
	}

	state, err := term.MakeRaw(fd)
	if err != nil {
		return fmt.Errorf("tty: raw mode: %w", err)
	}
	defer term.Restore(fd, state)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go readTTY(ctx, cancel, h.keys)

	step := newApp(h)
	t := time.NewTicker(time.Second / time.Duration(cfg.Hz))
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-t.C:
			if step == nil {
				continue
			}
			if err := step(); err != nil {
				if errors.Is(err, ErrQuit) {
					return nil
				}
				return err
			}
		}
	}
}

func readTTY(ctx context.Context, quit context.CancelFunc, keys *KeyQueue) {
	buf := make([]byte, 64)
	for {
		n, err := os.Stdin.Read(buf)
		if err != nil {
			quit()
			return
		}
		for _, b := range buf[:n] {
			if b == ttyQuitKey {
				quit()
				return
			}
			keys.Push(b)
		}
		if ctx.Err() != nil {
			return
		}
	}
}
