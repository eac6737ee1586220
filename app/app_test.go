package app

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"tdeckvt/console"
	"tdeckvt/hal"
)

type testLog struct{ lines []string }

func (l *testLog) WriteLineString(s string) { l.lines = append(l.lines, s) }
func (l *testLog) WriteLineBytes(b []byte)  { l.lines = append(l.lines, string(b)) }

type testSerial struct{ bytes.Buffer }

type testHAL struct {
	log     *testLog
	keys    *hal.KeyQueue
	ball    hal.Trackball
	button  *hal.Button
	battery *hal.SimBattery
	serial  *testSerial
}

func (h *testHAL) Logger() hal.Logger       { return h.log }
func (h *testHAL) Display() hal.Display     { return nil }
func (h *testHAL) Keyboard() hal.Bus        { return h.keys }
func (h *testHAL) Trackball() hal.Trackball { return h.ball }
func (h *testHAL) Button() *hal.Button      { return h.button }
func (h *testHAL) Serial() hal.Serial       { return h.serial }

func (h *testHAL) Battery() hal.Battery {
	if h.battery == nil {
		return nil
	}
	return h.battery
}

type rig struct {
	t    *testing.T
	h    *testHAL
	now  time.Time
	step func() error
}

func newRig(t *testing.T) *rig {
	r := &rig{
		t:   t,
		now: time.Unix(1000, 0),
		h: &testHAL{
			log:     &testLog{},
			keys:    hal.NewKeyQueue(console.DefaultKeyboardAddr),
			ball:    hal.NewTrackball(0),
			button:  &hal.Button{},
			battery: hal.NewSimBattery(64),
			serial:  &testSerial{},
		},
	}
	cfg := DefaultConfig()
	cfg.Console.PollInterval = 0
	cfg.Console.Now = func() time.Time { return r.now }
	r.step = NewWithConfig(r.h, cfg)
	return r
}

// typeKeys queues s and steps until the keyboard is drained. The
// controller hands out one key per poll.
func (r *rig) typeKeys(s string) error {
	r.t.Helper()
	r.h.keys.Push([]byte(s)...)
	for i := 0; i < len(s)+2; i++ {
		if err := r.step(); err != nil {
			return err
		}
	}
	return nil
}

func (r *rig) output() string {
	s := r.h.serial.String()
	r.h.serial.Reset()
	return s
}

func (r *rig) unlock() {
	r.t.Helper()
	if err := r.typeKeys("\r"); err != nil {
		r.t.Fatalf("unlock: %v", err)
	}
	if out := r.output(); !strings.HasSuffix(out, prompt) {
		r.t.Fatalf("no prompt after unlock: %q", out)
	}
}

func TestAppShowsLockScreenUntilEnter(t *testing.T) {
	r := newRig(t)
	if err := r.typeKeys("xyz"); err != nil {
		t.Fatalf("step: %v", err)
	}
	out := r.output()
	if !strings.Contains(out, "Press Enter to unlock") {
		t.Fatalf("lock screen missing: %q", out)
	}
	if !strings.Contains(out, "64 %") {
		t.Fatalf("battery missing from lock screen: %q", out)
	}
	if strings.Contains(out, prompt) {
		t.Fatal("prompt shown while locked")
	}
	r.unlock()
}

func TestAppShellCommands(t *testing.T) {
	r := newRig(t)
	r.unlock()

	tcs := []struct {
		line string
		want string
	}{
		{line: "echo hello world", want: "hello world\r\n"},
		{line: "bat", want: "64%\r\n"},
		{line: "mem", want: "heap "},
		{line: "nope", want: "nope: command not found"},
		{line: "help", want: "  lock   lock the console"},
		{line: "ctrl off", want: "ctrl off"},
		{line: "ctrl sideways", want: "ctrl: usage: ctrl [on|off]"},
		{line: "size", want: "80x24"},
	}
	for _, tc := range tcs {
		t.Run(tc.line, func(t *testing.T) {
			if err := r.typeKeys(tc.line + "\r"); err != nil {
				t.Fatalf("step: %v", err)
			}
			if out := r.output(); !strings.Contains(out, tc.want) {
				t.Fatalf("output %q; want %q", out, tc.want)
			}
		})
	}
}

func TestAppBackspaceEditsLine(t *testing.T) {
	r := newRig(t)
	r.unlock()

	// BS arrives as DEL after fusion.
	if err := r.typeKeys("echo abx\bc\r"); err != nil {
		t.Fatalf("step: %v", err)
	}
	if out := r.output(); !strings.Contains(out, "abc\r\n") {
		t.Fatalf("output %q; want abc", out)
	}
}

func TestAppHistoryRecall(t *testing.T) {
	r := newRig(t)
	r.unlock()

	if err := r.typeKeys("echo again\r"); err != nil {
		t.Fatalf("step: %v", err)
	}
	r.output()

	// Trackball up recalls the last line. Keys win over motion in a poll,
	// so the roll is stepped on its own.
	r.h.ball.Up.Add(5)
	if err := r.step(); err != nil {
		t.Fatalf("step: %v", err)
	}
	if err := r.typeKeys("\r"); err != nil {
		t.Fatalf("step: %v", err)
	}
	if out := r.output(); !strings.Contains(out, "again\r\n") {
		t.Fatalf("output %q; want recalled echo", out)
	}
}

func TestAppModifierTurnsKeysIntoControls(t *testing.T) {
	r := newRig(t)
	r.unlock()

	if err := r.typeKeys("echo x"); err != nil {
		t.Fatalf("step: %v", err)
	}
	r.now = r.now.Add(time.Second)
	r.h.button.Press()
	r.h.button.Release()
	if err := r.typeKeys("c"); err != nil {
		t.Fatalf("step: %v", err)
	}
	if out := r.output(); !strings.Contains(out, "^C") {
		t.Fatalf("output %q; want ^C", out)
	}
}

func TestAppCtrlCommandAffectsInput(t *testing.T) {
	r := newRig(t)
	r.unlock()

	if err := r.typeKeys("ctrl on\r"); err != nil {
		t.Fatalf("step: %v", err)
	}
	if out := r.output(); !strings.Contains(out, "ctrl on") {
		t.Fatalf("output %q; want ctrl on", out)
	}
	if err := r.typeKeys("c"); err != nil {
		t.Fatalf("step: %v", err)
	}
	if out := r.output(); !strings.Contains(out, "^C") {
		t.Fatalf("output %q; want ^C", out)
	}
}

func TestAppLockAndExit(t *testing.T) {
	r := newRig(t)
	r.unlock()

	if err := r.typeKeys("lock\r"); err != nil {
		t.Fatalf("step: %v", err)
	}
	if out := r.output(); !strings.Contains(out, "Press Enter to unlock") {
		t.Fatalf("lock screen not redrawn: %q", out)
	}
	r.unlock()

	err := r.typeKeys("exit\r")
	if !errors.Is(err, hal.ErrQuit) {
		t.Fatalf("exit returned %v; want ErrQuit", err)
	}
	if out := r.output(); !strings.Contains(out, "console: closed") {
		t.Fatalf("close message missing: %q", out)
	}
}
