// Package ebiten provides an Ebiten-specific presentation layer for the
// device. The core never imports it; frames cross the boundary as plain
// RGBA bytes.
package ebiten

import (
	"github.com/hajimehoshi/ebiten/v2"
)

// Display renders cached frames of a fixed native resolution into the
// window, scaled to fit.
type Display struct {
	width  int
	height int

	offscreen *ebiten.Image           // Offscreen buffer at native resolution
	drawOpts  ebiten.DrawImageOptions // Pre-allocated draw options to avoid per-frame allocation
}

// NewDisplay creates a display for frames of the given dimensions.
func NewDisplay(width, height int) *Display {
	return &Display{width: width, height: height}
}

// Layout implements ebiten.Game.
func (d *Display) Layout(outsideWidth, outsideHeight int) (int, int) {
	return outsideWidth, outsideHeight
}

// DrawFrame renders pre-expanded RGBA pixel data to the screen. The render
// goroutine writes frames to a shared framebuffer and the Ebiten Draw()
// thread renders them here.
func (d *Display) DrawFrame(screen *ebiten.Image, pixels []byte) {
	requiredLen := d.width * d.height * 4
	if requiredLen == 0 || len(pixels) < requiredLen {
		return
	}

	if d.offscreen == nil {
		d.offscreen = ebiten.NewImage(d.width, d.height)
	}

	d.offscreen.WritePixels(pixels[:requiredLen])

	// Calculate scaling to fit window while preserving aspect ratio
	screenW, screenH := screen.Bounds().Dx(), screen.Bounds().Dy()
	nativeW := float64(d.width)
	nativeH := float64(d.height)

	scaleX := float64(screenW) / nativeW
	scaleY := float64(screenH) / nativeH
	scale := scaleX
	if scaleY < scaleX {
		scale = scaleY
	}

	scaledW := nativeW * scale
	scaledH := nativeH * scale
	offsetX := (float64(screenW) - scaledW) / 2
	offsetY := (float64(screenH) - scaledH) / 2

	d.drawOpts = ebiten.DrawImageOptions{}
	d.drawOpts.GeoM.Scale(scale, scale)
	d.drawOpts.GeoM.Translate(offsetX, offsetY)
	d.drawOpts.Filter = ebiten.FilterNearest
	screen.DrawImage(d.offscreen, &d.drawOpts)
}
