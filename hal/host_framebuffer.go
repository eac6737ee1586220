//go:build !tinygo

package hal

import "sync"

type hostFramebuffer struct {
	mu     sync.Mutex
	width  int
	height int
	stride int
	buf    []byte
}

func newHostFramebuffer(width, height int) *hostFramebuffer {
	stride := width * 2
	return &hostFramebuffer{
		width:  width,
		height: height,
		stride: stride,
		buf:    make([]byte, stride*height),
	}
}

func (f *hostFramebuffer) Width() int          { return f.width }
func (f *hostFramebuffer) Height() int         { return f.height }
func (f *hostFramebuffer) Format() PixelFormat { return PixelFormatRGB565 }
func (f *hostFramebuffer) StrideBytes() int    { return f.stride }
func (f *hostFramebuffer) Buffer() []byte      { return f.buf }

// Present is a no-op; the window samples the buffer on every frame.
func (f *hostFramebuffer) Present() error { return nil }

func (f *hostFramebuffer) ClearRGB(r, g, b uint8) {
	f.mu.Lock()
	defer f.mu.Unlock()

	pixel := rgb565(r, g, b)
	lo, hi := byte(pixel), byte(pixel>>8)
	for i := 0; i+1 < len(f.buf); i += 2 {
		f.buf[i] = lo
		f.buf[i+1] = hi
	}
}

// renderRGBA converts the buffer into dst (RGBA, 4 bytes per pixel). Screen
// row y shows buffer row y+scroll, and every channel is scaled by the
// backlight level.
func (f *hostFramebuffer) renderRGBA(dst []byte, level float64, scroll int) {
	f.mu.Lock()
	defer f.mu.Unlock()

	level = clampLevel(level)
	if len(dst) < f.width*f.height*4 {
		return
	}
	for y := 0; y < f.height; y++ {
		row := ((y+scroll)%f.height + f.height) % f.height
		src := f.buf[row*f.stride : row*f.stride+f.width*2]
		out := dst[y*f.width*4:]
		for x := 0; x < f.width; x++ {
			r, g, b := rgb888From565(uint16(src[x*2]) | uint16(src[x*2+1])<<8)
			out[x*4+0] = dimChannel(r, level)
			out[x*4+1] = dimChannel(g, level)
			out[x*4+2] = dimChannel(b, level)
			out[x*4+3] = 0xFF
		}
	}
}
