package console

// DefaultKeyboardAddr is the keyboard controller's bus address.
const DefaultKeyboardAddr uint16 = 0x55

// DefaultMotionThreshold is the pulse count a trackball direction must
// exceed before it produces a cursor sequence.
const DefaultMotionThreshold = 4

// Fuser merges the keyboard, the trackball and the modifier into one byte
// stream using a serial console's escape vocabulary.
type Fuser struct {
	bus       ByteBus
	addr      uint16
	ball      Trackball
	mod       *Modifier
	threshold int

	ch [1]byte
}

// NewFuser returns a Fuser reading the keyboard at addr. Any device may be
// nil; a missing device never produces input.
func NewFuser(bus ByteBus, addr uint16, ball Trackball, mod *Modifier, threshold int) *Fuser {
	if threshold <= 0 {
		threshold = DefaultMotionThreshold
	}
	return &Fuser{
		bus:       bus,
		addr:      addr,
		ball:      ball,
		mod:       mod,
		threshold: threshold,
	}
}

// Poll samples every input once and appends what it produced to dst.
func (f *Fuser) Poll(dst []byte) []byte {
	alt := f.mod.Active()
	if kv := f.readKey(); kv != 0 {
		return append(dst, translateKey(kv, alt))
	}
	return f.motion(dst, alt)
}

// readKey returns 0 when the bus is busy or the transaction fails.
func (f *Fuser) readKey() byte {
	if f.bus == nil || !f.bus.TryLock() {
		return 0
	}
	defer f.bus.Unlock()

	if err := f.bus.ReadFrom(f.addr, f.ch[:]); err != nil {
		return 0
	}
	return f.ch[0]
}

func translateKey(kv byte, alt bool) byte {
	// Ctrl+letter, a..y. The Ctrl shift happens first so Ctrl+m and
	// Ctrl+h still land on the line-feed and DEL rules below.
	if alt && kv > 96 && kv < 122 {
		kv -= 96
	}
	switch kv {
	case keyCR:
		return keyLF
	case keyBackspace:
		return keyDEL
	}
	return kv
}

// motion emits at most one sequence per poll. Ties go to up, left, down,
// right in that order.
func (f *Fuser) motion(dst []byte, alt bool) []byte {
	up, left := pulses(f.ball.Up), pulses(f.ball.Left)
	down, right := pulses(f.ball.Down), pulses(f.ball.Right)
	if up == 0 && left == 0 && down == 0 && right == 0 {
		return dst
	}

	switch {
	case up > f.threshold:
		if alt {
			dst = append(dst, Home...)
		} else {
			dst = append(dst, CursorUp...)
		}
	case left > f.threshold:
		dst = append(dst, CursorLeft...)
	case down > f.threshold:
		if alt {
			dst = append(dst, End...)
		} else {
			dst = append(dst, CursorDown...)
		}
	case right > f.threshold:
		if alt {
			dst = append(dst, keyTab)
		} else {
			dst = append(dst, CursorRight...)
		}
	}

	for _, c := range [...]PulseCounter{f.ball.Up, f.ball.Left, f.ball.Down, f.ball.Right} {
		if c != nil {
			c.Clear()
		}
	}
	return dst
}

func pulses(c PulseCounter) int {
	if c == nil {
		return 0
	}
	return c.Len()
}
