package console

import (
	"bytes"
	"errors"
	"time"
)

type fakeClock struct {
	t time.Time
}

func newFakeClock() *fakeClock { return &fakeClock{t: time.Unix(1000, 0)} }

func (c *fakeClock) Now() time.Time          { return c.t }
func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

// fakeBus hands out one scripted byte per read; a zero byte means "no key".
type fakeBus struct {
	script []byte
	err    error
	busy   bool

	locked  bool
	reads   int
	unlocks int
	addrs   []uint16
}

func (b *fakeBus) TryLock() bool {
	if b.busy || b.locked {
		return false
	}
	b.locked = true
	return true
}

func (b *fakeBus) Unlock() {
	b.locked = false
	b.unlocks++
}

func (b *fakeBus) ReadFrom(addr uint16, p []byte) error {
	b.reads++
	b.addrs = append(b.addrs, addr)
	if b.err != nil {
		return b.err
	}
	if len(b.script) == 0 {
		p[0] = 0
		return nil
	}
	p[0] = b.script[0]
	b.script = b.script[1:]
	return nil
}

type fakeCounter struct{ n int }

func (c *fakeCounter) Len() int { return c.n }
func (c *fakeCounter) Clear()   { c.n = 0 }

type fakePresses struct{ n uint32 }

func (p *fakePresses) Count() uint32 { return p.n }

type fakePin struct{ level bool }

func (p *fakePin) Level() bool { return p.level }

type fakeSurface struct {
	out        bytes.Buffer
	writes     [][]byte
	brightness float64
	focused    int
	cols, rows int
}

func newFakeSurface() *fakeSurface {
	return &fakeSurface{cols: 52, rows: 23}
}

func (s *fakeSurface) Write(p []byte) (int, error) {
	s.writes = append(s.writes, append([]byte(nil), p...))
	return s.out.Write(p)
}

func (s *fakeSurface) Brightness() float64     { return s.brightness }
func (s *fakeSurface) SetBrightness(v float64) { s.brightness = v }
func (s *fakeSurface) Focus()                  { s.focused++ }
func (s *fakeSurface) Size() (int, int)        { return s.cols, s.rows }

func (s *fakeSurface) reset() {
	s.out.Reset()
	s.writes = nil
}

type fakeBattery struct {
	pct int
	err error
}

func (b *fakeBattery) Percentage() int { return b.pct }

func (b *fakeBattery) Voltage() (float64, error) {
	if b.err != nil {
		return 0, b.err
	}
	return 3.7, nil
}

type fakeMem struct{ used, total int }

func (m fakeMem) MemUsage() (int, int) { return m.used, m.total }

type fakeLog struct{ lines []string }

func (l *fakeLog) WriteLineString(s string) { l.lines = append(l.lines, s) }

type fakeSink struct{ events []Event }

func (s *fakeSink) ConsoleEvent(ev Event) { s.events = append(s.events, ev) }

func (s *fakeSink) kinds() []EventKind {
	var out []EventKind
	for _, ev := range s.events {
		out = append(out, ev.Kind)
	}
	return out
}

var errBus = errors.New("i2c: nack")
