// Package cli provides a windowed runner for the device. It drives the
// built-in demo scenes on a dedicated goroutine and renders the presented
// frames through Ebiten.
package cli

import (
	"sync/atomic"
	"time"

	"github.com/hajimehoshi/ebiten/v2"

	devbridge "github.com/user-none/emsst/bridge/ebiten"
	"github.com/user-none/emsst/emu"
	"github.com/user-none/emsst/ui"
)

// Runner wraps a device for command-line mode. The scenes run on a
// dedicated goroutine at a fixed frame rate; the Ebiten thread handles
// keyboard polling and rendering from the shared framebuffer.
type Runner struct {
	device  *emu.Device
	display *devbridge.Display
	scenes  []Scene

	emuControl        *ui.EmuControl
	sharedFramebuffer *ui.SharedFramebuffer
	emuDone           chan struct{}

	// Scene index requested by the Ebiten thread, applied by the render
	// goroutine at the next frame boundary.
	sceneReq atomic.Int32

	spaceHeld bool
}

// NewRunner creates a Runner driving the given device, starting at the
// scene with the given index.
func NewRunner(d *emu.Device, scene int) *Runner {
	r := &Runner{
		device:            d,
		display:           devbridge.NewDisplay(d.Width(), d.Height()),
		scenes:            Scenes(),
		emuControl:        ui.NewEmuControl(),
		sharedFramebuffer: ui.NewSharedFramebuffer(d.Width(), d.Height()),
		emuDone:           make(chan struct{}),
	}
	r.sceneReq.Store(int32(scene))

	// Start render goroutine
	go r.renderLoop()

	return r
}

// Close stops the render goroutine and waits for it to exit.
func (r *Runner) Close() {
	if r.emuControl != nil {
		r.emuControl.Stop()
		<-r.emuDone
	}
}

// renderLoop runs the active scene on a dedicated goroutine.
func (r *Runner) renderLoop() {
	defer close(r.emuDone)

	const frameTime = time.Second / 60
	lastFrameTime := time.Now()

	rgba := make([]byte, r.device.Width()*r.device.Height()*4)
	active := -1
	frame := 0

	for {
		if !r.emuControl.CheckPause() {
			return
		}

		if req := int(r.sceneReq.Load()); req != active {
			active = req
			frame = 0
			r.scenes[active].Init(r.device)
		}

		// Run one frame
		r.device.SignalVRetrace()
		r.scenes[active].Frame(r.device, frame)
		frame++

		// Publish the presented frame
		pix, w, h, stride := r.device.FrontBuffer()
		ui.ExpandRGB565(pix, w, h, stride, rgba)
		r.sharedFramebuffer.Update(rgba)

		elapsed := time.Since(lastFrameTime)
		if sleepTime := frameTime - elapsed; sleepTime > time.Millisecond {
			time.Sleep(sleepTime)
		}
		lastFrameTime = time.Now()
	}
}

// Update implements ebiten.Game.
func (r *Runner) Update() error {
	if !ebiten.IsFocused() {
		return nil
	}

	// Digit keys select a scene
	for i := range r.scenes {
		if ebiten.IsKeyPressed(ebiten.KeyDigit1 + ebiten.Key(i)) {
			r.sceneReq.Store(int32(i))
		}
	}

	// Space toggles pause
	space := ebiten.IsKeyPressed(ebiten.KeySpace)
	if space && !r.spaceHeld {
		if r.emuControl.IsPaused() {
			r.emuControl.RequestResume()
		} else {
			r.emuControl.RequestPause()
		}
	}
	r.spaceHeld = space

	return nil
}

// Draw implements ebiten.Game.
func (r *Runner) Draw(screen *ebiten.Image) {
	pixels, _, height := r.sharedFramebuffer.Read()
	if height == 0 {
		return
	}
	r.display.DrawFrame(screen, pixels)
}

// Layout implements ebiten.Game.
func (r *Runner) Layout(outsideWidth, outsideHeight int) (int, int) {
	return r.display.Layout(outsideWidth, outsideHeight)
}
