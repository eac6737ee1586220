package hal

import (
	"sync/atomic"
	"time"
)

// DefaultPulseDepth matches the pulse buffer depth of the trackball inputs.
const DefaultPulseDepth = 10

// DefaultButtonDebounce filters contact bounce on boards that debounce the
// button line in hardware or the kernel.
const DefaultButtonDebounce = 5 * time.Millisecond

// PulseCounter accumulates edges from one trackball direction. It is fed
// from interrupt or event-handler context and drained by the poll loop.
type PulseCounter struct {
	n   atomic.Int32
	max int32
}

// NewPulseCounter returns a counter saturating at max pulses (max <= 0
// selects DefaultPulseDepth).
func NewPulseCounter(max int) *PulseCounter {
	if max <= 0 {
		max = DefaultPulseDepth
	}
	return &PulseCounter{max: int32(max)}
}

// Add records n pulses.
func (c *PulseCounter) Add(n int) {
	if c == nil || n <= 0 {
		return
	}
	for {
		old := c.n.Load()
		v := old + int32(n)
		if v > c.max {
			v = c.max
		}
		if c.n.CompareAndSwap(old, v) {
			return
		}
	}
}

// Len returns the pulses recorded since the last Clear.
func (c *PulseCounter) Len() int {
	if c == nil {
		return 0
	}
	return int(c.n.Load())
}

// Clear drops all recorded pulses.
func (c *PulseCounter) Clear() {
	if c == nil {
		return
	}
	c.n.Store(0)
}

// Button is a push button seen both as a press counter and as an
// active-low level.
type Button struct {
	presses atomic.Uint32
	down    atomic.Bool
}

// Press records the button going down. Repeated calls while held count once.
func (b *Button) Press() {
	if !b.down.Swap(true) {
		b.presses.Add(1)
	}
}

// Release records the button going up.
func (b *Button) Release() {
	b.down.Store(false)
}

// Count returns the number of presses so far.
func (b *Button) Count() uint32 { return b.presses.Load() }

// Level returns the pin level: false while pressed.
func (b *Button) Level() bool { return !b.down.Load() }
