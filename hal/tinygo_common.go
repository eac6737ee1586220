//go:build tinygo && baremetal

package hal

import (
	"machine"
	"sync"
)

// serialLogger writes CRLF-terminated lines to the USB or UART console.
type serialLogger struct {
	mu sync.Mutex
	s  machine.Serialer
}

func (l *serialLogger) WriteLineString(s string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for i := 0; i < len(s); i++ {
		l.s.WriteByte(s[i])
	}
	l.s.WriteByte('\r')
	l.s.WriteByte('\n')
}

func (l *serialLogger) WriteLineBytes(b []byte) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.s.Write(b)
	l.s.WriteByte('\r')
	l.s.WriteByte('\n')
}

type machineSerial struct {
	s machine.Serialer
}

func (s *machineSerial) Read(p []byte) (int, error) {
	if s.s == nil {
		return 0, ErrNotImplemented
	}
	return s.s.Read(p)
}

func (s *machineSerial) Write(p []byte) (int, error) {
	if s.s == nil {
		return 0, ErrNotImplemented
	}
	return s.s.Write(p)
}

// machineBus is a TinyGo I2C peripheral shared through a mutex.
type machineBus struct {
	mu  sync.Mutex
	i2c *machine.I2C
}

func (b *machineBus) TryLock() bool { return b.mu.TryLock() }
func (b *machineBus) Unlock()       { b.mu.Unlock() }

func (b *machineBus) ReadFrom(addr uint16, p []byte) error {
	return b.i2c.Tx(addr, nil, p)
}

// pulseInput counts falling edges on an input pin.
func pulseInput(pin machine.Pin, c *PulseCounter) {
	pin.Configure(machine.PinConfig{Mode: machine.PinInputPullup})
	pin.SetInterrupt(machine.PinFalling, func(machine.Pin) { c.Add(1) })
}
