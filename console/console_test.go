package console

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"
)

type testRig struct {
	c     *Console
	surf  *fakeSurface
	bus   *fakeBus
	clk   *fakeClock
	ball  [4]*fakeCounter
	press *fakePresses
	log   *fakeLog
	sink  *fakeSink
}

func newRig(t *testing.T, cfg Config) *testRig {
	t.Helper()
	r := &testRig{
		surf:  newFakeSurface(),
		bus:   &fakeBus{},
		clk:   newFakeClock(),
		press: &fakePresses{},
		log:   &fakeLog{},
		sink:  &fakeSink{},
	}
	ball, cs := newBall(0, 0, 0, 0)
	r.ball = cs
	cfg.Now = r.clk.Now
	cfg.Log = r.log
	cfg.Events = r.sink

	c, err := New(Devices{
		Surface:   r.surf,
		Keyboard:  r.bus,
		Trackball: ball,
		Modifier:  NewWindowModifier(r.press, 0, r.clk.Now),
		Memory:    fakeMem{used: 64 * 1024, total: 256 * 1024},
	}, cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	r.c = c
	return r
}

// queue polls n times so the scripted keys land in the input queue.
func (r *testRig) queue(keys string) {
	r.bus.script = append(r.bus.script, keys...)
	for range keys {
		r.c.InWaiting()
	}
}

func TestNewRequiresSurface(t *testing.T) {
	if _, err := New(Devices{}, Config{}); err == nil {
		t.Fatal("expected error without a surface")
	}
}

func TestInitialStateLocked(t *testing.T) {
	r := newRig(t, Config{})
	if r.c.Enabled() || r.c.State() != Locked {
		t.Fatalf("state = %v; want locked", r.c.State())
	}
	if !bytes.Contains(r.surf.out.Bytes(), []byte("Press Enter to unlock")) {
		t.Fatalf("lock screen not drawn: %q", r.surf.out.String())
	}
	if bytes.Contains(r.surf.out.Bytes(), []byte("Battery")) {
		t.Fatal("battery line must be elided without a battery")
	}
	if cols, rows := r.c.Size(); cols != 52 || rows != 23 {
		t.Fatalf("Size = %d,%d; want 52,23", cols, rows)
	}
}

func TestWriteWhileLockedIsDropped(t *testing.T) {
	r := newRig(t, Config{})
	n, err := r.c.Write([]byte("secret"))
	if err != nil || n != 0 {
		t.Fatalf("Write = %d, %v; want 0, nil", n, err)
	}
	for i := 0; i < 5; i++ {
		r.c.Connected()
	}
	if bytes.Contains(r.surf.out.Bytes(), []byte("secret")) {
		t.Fatal("surface received text written while locked")
	}
}

func TestLineFeedUnlocksAndDiscardsInput(t *testing.T) {
	r := newRig(t, Config{})
	r.queue("ls\r")
	if got := r.c.InWaiting(); got != 3 {
		t.Fatalf("InWaiting = %d; want 3", got)
	}

	r.surf.reset()
	if !r.c.Connected() {
		t.Fatal("expected unlock on line feed")
	}
	if got := r.c.InWaiting(); got != 0 {
		t.Fatalf("InWaiting after unlock = %d; want 0", got)
	}
	if r.surf.brightness != 1 {
		t.Fatalf("brightness = %v; want 1", r.surf.brightness)
	}
	if !strings.HasPrefix(r.surf.out.String(), ClearScreen) {
		t.Fatalf("surface not cleared on unlock: %q", r.surf.out.String())
	}

	n, err := r.c.Write([]byte("hello"))
	if err != nil || n != 5 {
		t.Fatalf("Write = %d, %v; want 5, nil", n, err)
	}
	if !r.c.Connected() {
		t.Fatal("unlocked console must stay connected")
	}
}

func TestNoiseIsDiscardedWhileLocked(t *testing.T) {
	r := newRig(t, Config{})
	r.queue("xyz")
	if r.c.Connected() {
		t.Fatal("noise must not unlock")
	}
	if got := len(r.c.queue); got != 0 {
		t.Fatalf("queue = %d bytes; want 0", got)
	}

	// Cursor keys are noise too.
	r.ball[0].n = 6
	if r.c.Connected() {
		t.Fatal("trackball must not unlock")
	}
	r.bus.script = []byte("\r")
	if !r.c.Connected() {
		t.Fatal("expected unlock")
	}
}

func TestEnableIdempotent(t *testing.T) {
	r := newRig(t, Config{})
	for i := 0; i < 2; i++ {
		r.c.Enable()
		if r.c.State() != Unlocked {
			t.Fatalf("enable %d: state = %v", i, r.c.State())
		}
		if r.surf.brightness != 1 {
			t.Fatalf("enable %d: brightness = %v", i, r.surf.brightness)
		}
	}
	if r.surf.focused != 2 {
		t.Fatalf("focused = %d; want 2", r.surf.focused)
	}
}

func TestPollBudgetThenDim(t *testing.T) {
	r := newRig(t, Config{})
	for i := 0; i < DefaultPollBudget; i++ {
		r.c.Connected()
		if r.surf.brightness != 1 {
			t.Fatalf("poll %d: brightness = %v; want 1", i+1, r.surf.brightness)
		}
	}

	prev := r.surf.brightness
	reachedZero := false
	for i := 0; i < 20; i++ {
		r.c.Connected()
		b := r.surf.brightness
		if b < 0 {
			t.Fatalf("brightness %v below zero", b)
		}
		if reachedZero {
			if b != 0 {
				t.Fatalf("brightness rose to %v after reaching 0", b)
			}
			continue
		}
		if b >= prev {
			t.Fatalf("poll %d: brightness %v did not decrease from %v", DefaultPollBudget+i+1, b, prev)
		}
		prev = b
		reachedZero = b == 0
	}
	if !reachedZero {
		t.Fatal("brightness never reached 0")
	}

	got := r.sink.kinds()
	if got[len(got)-1] != EventScreenOff {
		t.Fatalf("events = %v; want trailing SCREEN_OFF", got)
	}
}

func TestInputWakesDimmedScreen(t *testing.T) {
	r := newRig(t, Config{})
	for i := 0; i < 40; i++ {
		r.c.Connected()
	}
	if r.surf.brightness != 0 {
		t.Fatalf("brightness = %v; want 0", r.surf.brightness)
	}
	r.queue("k")
	r.c.Connected()
	if r.surf.brightness != 1 {
		t.Fatalf("brightness = %v; want 1 after input", r.surf.brightness)
	}
}

func TestModifierToggleRefillsBudget(t *testing.T) {
	r := newRig(t, Config{})
	r.clk.Advance(time.Second)
	for i := 0; i < 40; i++ {
		r.c.Connected()
	}
	r.surf.reset()

	r.press.n++
	r.c.Connected()
	if r.surf.brightness != 1 {
		t.Fatalf("brightness = %v; want 1", r.surf.brightness)
	}
	if !strings.Contains(r.surf.out.String(), "Ctrl     ON") {
		t.Fatalf("lock screen not redrawn with Ctrl ON: %q", r.surf.out.String())
	}
}

func TestRedrawOnlyWhenChanged(t *testing.T) {
	r := newRig(t, Config{})
	r.surf.reset()
	for i := 0; i < 5; i++ {
		r.c.Connected()
	}
	if len(r.surf.writes) != 0 {
		t.Fatalf("got %d redraws; want none for unchanged fields", len(r.surf.writes))
	}

	r2 := newRig(t, Config{RedrawAlways: true})
	r2.surf.reset()
	for i := 0; i < 5; i++ {
		r2.c.Connected()
	}
	if len(r2.surf.writes) != 5 {
		t.Fatalf("got %d redraws; want 5", len(r2.surf.writes))
	}
}

func TestReadNBlocksUntilCount(t *testing.T) {
	r := newRig(t, Config{})
	r.queue("ab")
	r.bus.script = []byte{0, 0, 0, 'c', 'd', 'e', 'f'}
	reads := r.bus.reads

	got, err := r.c.ReadN(5)
	if err != nil {
		t.Fatalf("ReadN: %v", err)
	}
	if string(got) != "abcde" {
		t.Fatalf("ReadN = %q; want %q", got, "abcde")
	}
	if polls := r.bus.reads - reads; polls != 6 {
		t.Fatalf("polled %d times; want 6", polls)
	}
	if string(r.bus.script) != "f" {
		t.Fatalf("bus left %q; want %q", r.bus.script, "f")
	}
}

func TestReadNLeavesRemainder(t *testing.T) {
	r := newRig(t, Config{})
	r.queue("ab")
	r.bus.script = []byte("c")
	r.ball[0].n = 6

	got, err := r.c.ReadN(5)
	if err != nil {
		t.Fatalf("ReadN: %v", err)
	}
	if string(got) != "abc\x1b[" {
		t.Fatalf("ReadN = %q", got)
	}
	rest, err := r.c.ReadN(1)
	if err != nil || string(rest) != "A" {
		t.Fatalf("ReadN(1) = %q, %v; want %q", rest, err, "A")
	}
}

func TestReadFillsBuffer(t *testing.T) {
	r := newRig(t, Config{})
	r.queue("hi")
	p := make([]byte, 2)
	n, err := r.c.Read(p)
	if err != nil || n != 2 || string(p) != "hi" {
		t.Fatalf("Read = %d, %v, %q", n, err, p)
	}
	if n, err := r.c.Read(nil); n != 0 || err != nil {
		t.Fatalf("Read(nil) = %d, %v", n, err)
	}
}

func TestUnsupportedOperations(t *testing.T) {
	r := newRig(t, Config{})
	if _, err := r.c.ReadN(Unbounded); !errors.Is(err, ErrUnboundedRead) || !errors.Is(err, errors.ErrUnsupported) {
		t.Fatalf("ReadN(Unbounded) err = %v", err)
	}
	if err := r.c.SetDisplay(newFakeSurface()); !errors.Is(err, errors.ErrUnsupported) {
		t.Fatalf("SetDisplay err = %v", err)
	}
	if r.c.Display() != Surface(r.surf) {
		t.Fatal("Display must return the bound surface")
	}
}

func TestBattery(t *testing.T) {
	r := newRig(t, Config{})
	if got := r.c.Battery(); got != -1 {
		t.Fatalf("Battery = %d; want -1", got)
	}

	r.c.SetBattery(&fakeBattery{err: errors.New("no adc")})
	if got := r.c.Battery(); got != -1 {
		t.Fatalf("Battery = %d after invalid source; want -1", got)
	}
	if len(r.log.lines) != 1 || !strings.Contains(r.log.lines[0], "invalid battery") {
		t.Fatalf("log = %q", r.log.lines)
	}

	bat := &fakeBattery{pct: 42}
	r.c.SetBattery(bat)
	if got := r.c.Battery(); got != 42 {
		t.Fatalf("Battery = %d; want 42", got)
	}
	bat.pct = 140
	if got := r.c.Battery(); got != 100 {
		t.Fatalf("Battery = %d; want clamp to 100", got)
	}

	r.c.SetBattery(nil)
	if got := r.c.Battery(); got != -1 {
		t.Fatalf("Battery = %d after clear; want -1", got)
	}
}

func TestDisableDrawsLockScreen(t *testing.T) {
	r := newRig(t, Config{})
	r.c.Enable()
	r.surf.reset()

	r.c.Disable()
	if r.c.State() != Locked {
		t.Fatal("expected locked")
	}
	if !strings.Contains(r.surf.out.String(), "Press Enter") {
		t.Fatal("lock screen not drawn immediately without battery")
	}

	r.c.SetBattery(&fakeBattery{pct: 7})
	r.c.Enable()
	r.surf.reset()
	r.c.Disconnect()
	if r.surf.out.Len() != 0 {
		t.Fatalf("lock screen drawn before poll with battery: %q", r.surf.out.String())
	}
	r.c.Connected()
	if !strings.Contains(r.surf.out.String(), "Battery    7 %") {
		t.Fatalf("lock screen missing battery: %q", r.surf.out.String())
	}
}

func TestThrottledPolling(t *testing.T) {
	r := newRig(t, Config{PollInterval: DefaultPollInterval})
	r.bus.script = []byte("ab")

	if got := r.c.InWaiting(); got != 0 {
		t.Fatalf("InWaiting = %d; want 0 inside the interval", got)
	}
	r.clk.Advance(DefaultPollInterval)
	if got := r.c.InWaiting(); got != 1 {
		t.Fatalf("InWaiting = %d; want 1", got)
	}
	if got := r.c.InWaiting(); got != 1 {
		t.Fatalf("InWaiting = %d; want 1 (throttled)", got)
	}
	r.clk.Advance(DefaultPollInterval)
	if got := r.c.InWaiting(); got != 2 {
		t.Fatalf("InWaiting = %d; want 2", got)
	}
}

func TestResetInputBuffer(t *testing.T) {
	r := newRig(t, Config{})
	r.c.Enable()
	r.queue("abc")
	r.c.ResetInputBuffer()
	if got := r.c.InWaiting(); got != 0 {
		t.Fatalf("InWaiting = %d; want 0", got)
	}
}

func TestClose(t *testing.T) {
	r := newRig(t, Config{})
	r.surf.reset()
	if err := r.c.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if !strings.Contains(r.surf.out.String(), "console: closed") {
		t.Fatalf("final message missing: %q", r.surf.out.String())
	}
	if r.surf.brightness != 0 {
		t.Fatalf("brightness = %v; want 0", r.surf.brightness)
	}

	writes := len(r.surf.writes)
	if err := r.c.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}
	if len(r.surf.writes) != writes {
		t.Fatal("second Close wrote again")
	}
	if _, err := r.c.Write([]byte("x")); !errors.Is(err, ErrClosed) {
		t.Fatalf("Write after Close err = %v", err)
	}
	if _, err := r.c.ReadN(1); !errors.Is(err, ErrClosed) {
		t.Fatalf("ReadN after Close err = %v", err)
	}
	if r.c.Connected() {
		t.Fatal("closed console must not connect")
	}
}

func TestEvents(t *testing.T) {
	r := newRig(t, Config{})
	r.c.SetBattery(&fakeBattery{pct: 55})
	r.c.Enable()
	r.c.Disable()

	want := []EventKind{EventLocked, EventUnlocked, EventLocked}
	got := r.sink.kinds()
	if len(got) != len(want) {
		t.Fatalf("events = %v; want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("events = %v; want %v", got, want)
		}
	}
	if r.sink.events[1].Battery != 55 {
		t.Fatalf("unlock event battery = %d; want 55", r.sink.events[1].Battery)
	}
}
