//go:build !tinygo && cgo

package hal

import (
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
)

// Pulses added per arrow press: one more than the motion threshold, so a
// single tap moves the cursor once.
const arrowPulses = 5

var letterKeys = [...]ebiten.Key{
	ebiten.KeyA, ebiten.KeyB, ebiten.KeyC, ebiten.KeyD, ebiten.KeyE, ebiten.KeyF,
	ebiten.KeyG, ebiten.KeyH, ebiten.KeyI, ebiten.KeyJ, ebiten.KeyK, ebiten.KeyL,
	ebiten.KeyM, ebiten.KeyN, ebiten.KeyO, ebiten.KeyP, ebiten.KeyQ, ebiten.KeyR,
	ebiten.KeyS, ebiten.KeyT, ebiten.KeyU, ebiten.KeyV, ebiten.KeyW, ebiten.KeyX,
	ebiten.KeyY, ebiten.KeyZ,
}

// hostKeyboard turns window key events into the device's inputs: text goes
// to the keyboard controller, arrows pulse the trackball and F1 is the
// trackball button.
type hostKeyboard struct {
	h *hostHAL
}

func newHostKeyboard(h *hostHAL) *hostKeyboard {
	return &hostKeyboard{h: h}
}

func (k *hostKeyboard) poll() {
	if btn := k.h.button; btn != nil {
		if inpututil.IsKeyJustPressed(ebiten.KeyF1) {
			btn.Press()
		}
		if inpututil.IsKeyJustReleased(ebiten.KeyF1) {
			btn.Release()
		}
	}

	ball := k.h.ball
	arrows := []struct {
		key ebiten.Key
		c   *PulseCounter
	}{
		{ebiten.KeyArrowUp, ball.Up},
		{ebiten.KeyArrowLeft, ball.Left},
		{ebiten.KeyArrowDown, ball.Down},
		{ebiten.KeyArrowRight, ball.Right},
	}
	for _, a := range arrows {
		if inpututil.IsKeyJustPressed(a.key) {
			a.c.Add(arrowPulses)
		}
	}

	keys := k.h.keys
	if keys == nil {
		// Real keyboard on the board bus.
		return
	}

	ctrl := ebiten.IsKeyPressed(ebiten.KeyControlLeft) || ebiten.IsKeyPressed(ebiten.KeyControlRight)
	if ctrl {
		for i, key := range letterKeys {
			if inpututil.IsKeyJustPressed(key) {
				keys.Push(byte(i) + 1)
			}
		}
		return
	}

	for _, r := range ebiten.AppendInputChars(nil) {
		if r > 0 && r < 0x80 {
			keys.Push(byte(r))
		}
	}

	// The keyboard controller reports these as raw control bytes.
	controls := []struct {
		key ebiten.Key
		b   byte
	}{
		{ebiten.KeyEnter, '\r'},
		{ebiten.KeyNumpadEnter, '\r'},
		{ebiten.KeyBackspace, '\b'},
		{ebiten.KeyTab, '\t'},
		{ebiten.KeyEscape, 0x1B},
	}
	for _, c := range controls {
		if inpututil.IsKeyJustPressed(c.key) {
			keys.Push(c.b)
		}
	}
}
