package hal

import (
	"image/color"
	"sync/atomic"

	"tinygo.org/x/drivers"
)

// FramebufferCanvas draws into an RGB565 Framebuffer.
type FramebufferCanvas struct {
	fb     Framebuffer
	scroll atomic.Int32
}

// NewFramebufferCanvas adapts fb to the Canvas interface.
func NewFramebufferCanvas(fb Framebuffer) *FramebufferCanvas {
	return &FramebufferCanvas{fb: fb}
}

func (d *FramebufferCanvas) Size() (x, y int16) {
	if d.fb == nil {
		return 0, 0
	}
	return int16(d.fb.Width()), int16(d.fb.Height())
}

func (d *FramebufferCanvas) SetPixel(x, y int16, c color.RGBA) {
	buf := d.buffer()
	if buf == nil {
		return
	}
	ix, iy := int(x), int(y)
	if ix < 0 || ix >= d.fb.Width() || iy < 0 || iy >= d.fb.Height() {
		return
	}
	off := iy*d.fb.StrideBytes() + ix*2
	if off < 0 || off+1 >= len(buf) {
		return
	}
	pixel := rgb565(c.R, c.G, c.B)
	buf[off] = byte(pixel)
	buf[off+1] = byte(pixel >> 8)
}

func (d *FramebufferCanvas) Display() error {
	if d.fb == nil {
		return nil
	}
	return d.fb.Present()
}

func (d *FramebufferCanvas) FillRectangle(x, y, width, height int16, c color.RGBA) error {
	buf := d.buffer()
	if buf == nil {
		return nil
	}
	w, h := d.fb.Width(), d.fb.Height()
	x0 := clampInt(int(x), 0, w)
	y0 := clampInt(int(y), 0, h)
	x1 := clampInt(int(x)+int(width), 0, w)
	y1 := clampInt(int(y)+int(height), 0, h)
	if x0 >= x1 || y0 >= y1 {
		return nil
	}

	pixel := rgb565(c.R, c.G, c.B)
	lo, hi := byte(pixel), byte(pixel>>8)
	stride := d.fb.StrideBytes()
	for py := y0; py < y1; py++ {
		row := py * stride
		for px := x0; px < x1; px++ {
			off := row + px*2
			if off+1 >= len(buf) {
				break
			}
			buf[off] = lo
			buf[off+1] = hi
		}
	}
	return nil
}

// SetScroll sets the first buffer row shown at the top of the screen, the
// way a panel's vertical scroll register does.
func (d *FramebufferCanvas) SetScroll(line int16) {
	d.scroll.Store(int32(line))
}

// ScrollOffset returns the row set by SetScroll, wrapped to the buffer height.
func (d *FramebufferCanvas) ScrollOffset() int {
	if d.fb == nil || d.fb.Height() == 0 {
		return 0
	}
	h := d.fb.Height()
	return (int(d.scroll.Load())%h + h) % h
}

func (d *FramebufferCanvas) SetRotation(rotation drivers.Rotation) error {
	return nil
}

func (d *FramebufferCanvas) buffer() []byte {
	if d.fb == nil || d.fb.Format() != PixelFormatRGB565 {
		return nil
	}
	return d.fb.Buffer()
}
