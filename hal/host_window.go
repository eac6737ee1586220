//go:build !tinygo && cgo

package hal

import (
	"errors"
	"fmt"

	"github.com/hajimehoshi/ebiten/v2"

	"tdeckvt/internal/buildinfo"
)

// WindowConfig controls the desktop window runner.
type WindowConfig struct {
	Scale int
	Host  HostConfig
}

// RunWindow starts a desktop window that shows the framebuffer through the
// simulated backlight and forwards keyboard input. It blocks until the
// window closes.
func RunWindow(newApp func(HAL) func() error, cfg WindowConfig) error {
	if cfg.Scale <= 0 {
		cfg.Scale = 2
	}
	cfg.Host.NoDisplay = false
	h, err := newHost(cfg.Host)
	if err != nil {
		return err
	}
	defer h.close()
	step := newApp(h)

	g := &hostGame{h: h, step: step, kbd: newHostKeyboard(h)}
	ebiten.SetWindowTitle(fmt.Sprintf("T-Deck VT (%s)", buildinfo.Short()))
	ebiten.SetWindowSize(h.fb.width*cfg.Scale, h.fb.height*cfg.Scale)
	ebiten.SetTPS(60)
	return ebiten.RunGame(g)
}

type hostGame struct {
	h     *hostHAL
	kbd   *hostKeyboard
	pix   []byte
	fbImg *ebiten.Image
	step  func() error
}

func (g *hostGame) Update() error {
	g.kbd.poll()
	if g.step == nil {
		return nil
	}
	if err := g.step(); err != nil {
		if errors.Is(err, ErrQuit) {
			return ebiten.Termination
		}
		return err
	}
	return nil
}

func (g *hostGame) Draw(screen *ebiten.Image) {
	fb := g.h.fb
	if g.fbImg == nil {
		g.pix = make([]byte, fb.width*fb.height*4)
		g.fbImg = ebiten.NewImage(fb.width, fb.height)
	}

	d := g.h.display
	fb.renderRGBA(g.pix, d.light.Brightness(), d.canvas.ScrollOffset())
	g.fbImg.WritePixels(g.pix)
	screen.DrawImage(g.fbImg, nil)
}

func (g *hostGame) Layout(outsideWidth, outsideHeight int) (int, int) {
	return g.h.fb.width, g.h.fb.height
}
