// Package surface provides the text grids a console renders to: a VT100
// terminal drawn on the device display and a plain byte stream for serial
// ports and host ttys.
package surface

import (
	"bytes"
	"image/color"

	"tdeckvt/hal"

	"tinygo.org/x/tinyfont"
	"tinygo.org/x/tinyfont/proggy"
	"tinygo.org/x/tinyterm"
)

// Terminal font metrics.
const (
	FontHeight = 10
	FontOffset = 6
)

var (
	eraseDisplay    = []byte("\x1b[2J")
	eraseScrollback = []byte("\x1b[3J")
	cursorHome      = []byte("\x1b[H")
)

var background = color.RGBA{A: 0xFF}

// Terminal is a VT100 text grid on a display. Output is buffered on the
// canvas until Flush.
type Terminal struct {
	canvas hal.Canvas
	light  hal.Backlight
	t      *tinyterm.Terminal

	fontWidth  int
	cols, rows int
	dirty      bool
}

// NewTerminal configures a terminal covering the whole display.
func NewTerminal(d hal.Display) *Terminal {
	t := &Terminal{canvas: d.Canvas(), light: d.Backlight()}

	_, w := tinyfont.LineWidth(&proggy.TinySZ8pt7b, "0")
	t.fontWidth = int(w)
	t.cols, t.rows = gridSize(t.canvas, t.fontWidth)
	t.reset()
	return t
}

// gridSize leaves one cell of margin in each direction.
func gridSize(c hal.Canvas, fontWidth int) (cols, rows int) {
	w, h := c.Size()
	if fontWidth <= 0 {
		return 0, 0
	}
	cols = int(w)/fontWidth - 1
	rows = int(h)/FontHeight - 1
	if cols < 0 {
		cols = 0
	}
	if rows < 0 {
		rows = 0
	}
	return cols, rows
}

func (t *Terminal) reset() {
	w, h := t.canvas.Size()
	_ = t.canvas.FillRectangle(0, 0, w, h, background)
	t.t = tinyterm.NewTerminal(t.canvas)
	t.t.Configure(&tinyterm.Config{
		Font:       &proggy.TinySZ8pt7b,
		FontHeight: FontHeight,
		FontOffset: FontOffset,
	})
	t.dirty = true
}

// Write renders p. Erase-display starts a fresh terminal; the scrollback
// erase and the cursor-home that follow it are absorbed, since a fresh
// terminal has neither.
func (t *Terminal) Write(p []byte) (int, error) {
	rest := p
	for len(rest) > 0 {
		i := bytes.IndexByte(rest, 0x1b)
		if i < 0 {
			t.put(rest)
			break
		}
		t.put(rest[:i])
		rest = rest[i:]

		switch {
		case bytes.HasPrefix(rest, eraseDisplay):
			t.reset()
			rest = rest[len(eraseDisplay):]
			rest = bytes.TrimPrefix(rest, eraseScrollback)
			rest = bytes.TrimPrefix(rest, cursorHome)
		case bytes.HasPrefix(rest, eraseScrollback):
			rest = rest[len(eraseScrollback):]
		default:
			// Let tinyterm parse the sequence; send up to the next escape.
			j := bytes.IndexByte(rest[1:], 0x1b)
			if j < 0 {
				t.put(rest)
				rest = nil
			} else {
				t.put(rest[:j+1])
				rest = rest[j+1:]
			}
		}
	}
	return len(p), nil
}

func (t *Terminal) put(p []byte) {
	if len(p) == 0 {
		return
	}
	_, _ = t.t.Write(p)
	t.dirty = true
}

// Flush pushes pending drawing to the panel.
func (t *Terminal) Flush() error {
	if !t.dirty {
		return nil
	}
	t.dirty = false
	return t.canvas.Display()
}

// Focus shows the terminal. The device has a single screen, so this only
// flushes.
func (t *Terminal) Focus() {
	t.dirty = true
	_ = t.Flush()
}

func (t *Terminal) Brightness() float64 { return t.light.Brightness() }

func (t *Terminal) SetBrightness(v float64) {
	if v < 0 {
		v = 0
	}
	if v > 1 {
		v = 1
	}
	t.light.SetBrightness(v)
}

func (t *Terminal) Size() (cols, rows int) { return t.cols, t.rows }
