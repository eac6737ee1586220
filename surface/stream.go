package surface

import (
	"bytes"
	"io"
)

// Default grid of a Stream, a classic serial terminal.
const (
	DefaultCols = 80
	DefaultRows = 24
)

// StreamConfig describes the terminal on the far side of a Stream.
type StreamConfig struct {
	Cols, Rows int
	// CRLF expands a bare LF to CR LF, for raw ttys and serial lines.
	CRLF bool
}

// Stream renders to a byte stream, leaving escape sequences to the
// terminal on the other end. It has no backlight; brightness is only
// remembered.
type Stream struct {
	w          io.Writer
	cfg        StreamConfig
	brightness float64
	buf        bytes.Buffer
	lastCR     bool
}

// NewStream wraps w.
func NewStream(w io.Writer, cfg StreamConfig) *Stream {
	if cfg.Cols <= 0 {
		cfg.Cols = DefaultCols
	}
	if cfg.Rows <= 0 {
		cfg.Rows = DefaultRows
	}
	return &Stream{w: w, cfg: cfg, brightness: 1}
}

func (s *Stream) Write(p []byte) (int, error) {
	if !s.cfg.CRLF {
		return s.w.Write(p)
	}
	s.buf.Reset()
	for _, b := range p {
		if b == '\n' && !s.lastCR {
			s.buf.WriteByte('\r')
		}
		s.buf.WriteByte(b)
		s.lastCR = b == '\r'
	}
	if _, err := s.w.Write(s.buf.Bytes()); err != nil {
		return 0, err
	}
	return len(p), nil
}

func (s *Stream) Flush() error { return nil }

func (s *Stream) Focus() {}

func (s *Stream) Brightness() float64 { return s.brightness }

func (s *Stream) SetBrightness(v float64) {
	if v < 0 {
		v = 0
	}
	if v > 1 {
		v = 1
	}
	s.brightness = v
}

func (s *Stream) Size() (cols, rows int) { return s.cfg.Cols, s.cfg.Rows }
